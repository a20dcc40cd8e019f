package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	jsondiff "github.com/wI2L/jsondiff"

	"github.com/iota-uz/orgchart/modules/orgchart/services"
)

const stdoutPath = "-"

type exportOptions struct {
	root   string
	output string
	format string
	indent int
}

func newExportCmd(app *cliApp) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the hierarchy below a root person as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("indent") {
				opts.indent = -1
			}
			return runExport(cmd.Context(), app, opts)
		},
	}

	cmd.Flags().StringVar(&opts.root, "root", "", "Name of the root person (default: ORGCHART_ROOT)")
	cmd.Flags().StringVar(&opts.output, "output", "", "Output file, or - for stdout (default: ORGCHART_OUTPUT)")
	cmd.Flags().StringVar(&opts.format, "format", "", "Document shape: flat|treant (default: ORGCHART_FORMAT)")
	cmd.Flags().IntVar(&opts.indent, "indent", 0, "Spaces per indent level, 0 for compact (default: ORGCHART_INDENT)")

	return cmd
}

func (o exportOptions) resolve(app *cliApp) exportOptions {
	cfg := app.cfg.Export
	o.root = strings.TrimSpace(o.root)
	if o.root == "" {
		o.root = cfg.Root
	}
	if strings.TrimSpace(o.output) == "" {
		o.output = cfg.Output
	}
	if o.format == "" {
		o.format = cfg.Format
	}
	if o.indent < 0 {
		o.indent = cfg.Indent
	}
	return o
}

type exportSummary struct {
	Status string `json:"status"`
	Root   string `json:"root"`
	Output string `json:"output"`
	Format string `json:"format"`
	Nodes  int    `json:"nodes"`
	Pruned int    `json:"pruned"`
	// Changes counts JSON patch operations against the previous file.
	Changes *int `json:"changes,omitempty"`
}

func runExport(ctx context.Context, app *cliApp, opts exportOptions) error {
	opts = opts.resolve(app)
	if opts.root == "" {
		return withCode(exitUsage, errors.New("--root is required (or set ORGCHART_ROOT)"))
	}
	if opts.indent > 16 {
		return withCode(exitUsage, fmt.Errorf("invalid --indent %d (expected 0..16)", opts.indent))
	}
	format, err := services.ParseFormat(opts.format)
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("invalid --format: %w", err))
	}
	ctx = app.commandContext(ctx, "export")

	if _, err := services.NewNameOrder(app.cfg.Export.Collation); err != nil {
		return withCode(exitUsage, err)
	}

	store, err := app.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	svc, err := services.NewHierarchyService(store.Persons, store.Tx, hierarchyOptions(app))
	if err != nil {
		return withCode(exitUsage, err)
	}
	h, err := svc.Build(ctx, opts.root)
	if err != nil {
		return withCode(exitDB, err)
	}

	var buf bytes.Buffer
	if err := services.EncodeTree(&buf, svc.Document(h), format, opts.indent); err != nil {
		return err
	}

	summary := exportSummary{
		Status: h.Status(),
		Root:   h.RootName,
		Output: opts.output,
		Format: string(format),
		Nodes:  h.Nodes,
		Pruned: h.Pruned,
	}

	if opts.output == stdoutPath {
		_, err := app.stdout.Write(buf.Bytes())
		return err
	}

	prev, err := readIfExists(opts.output)
	if err != nil {
		return withCode(exitFailure, fmt.Errorf("read previous output: %w", err))
	}
	if prev != nil {
		if patch, err := jsondiff.CompareJSON(prev, buf.Bytes()); err == nil {
			n := len(patch)
			summary.Changes = &n
		} else {
			app.logger.WithError(err).WithField("output", opts.output).Warn("previous output is not comparable JSON")
		}
	}
	if err := writeFile(opts.output, buf.Bytes()); err != nil {
		return withCode(exitFailure, fmt.Errorf("write output: %w", err))
	}
	return writeJSONLine(app.stdout, summary)
}

func hierarchyOptions(app *cliApp) services.HierarchyOptions {
	cfg := app.cfg.Export
	return services.HierarchyOptions{
		OrgName:          cfg.OrgName,
		OrgTitle:         cfg.OrgTitle,
		ImagePlaceholder: cfg.ImagePlaceholder,
		Collation:        cfg.Collation,
	}
}
