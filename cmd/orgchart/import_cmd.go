package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/iota-uz/orgchart/modules/orgchart/services"
	"github.com/iota-uz/orgchart/pkg/spreadsheet"
)

type importOptions struct {
	input                 string
	sheet                 string
	separator             string
	duplicateNames        string
	unresolvedSupervisors string
	manifestDir           string
	dryRun                bool
	report                bool
}

func newImportCmd(app *cliApp) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the stored persons with the rows of a spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), app, opts)
		},
	}

	cmd.Flags().StringVar(&opts.input, "input", "", "Spreadsheet to import, .xlsx or .csv (default: ORGCHART_SOURCE)")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "Worksheet name (default: first sheet)")
	cmd.Flags().StringVar(&opts.separator, "separator", "", "Supervisor list separator (default: ORGCHART_SUPERVISOR_SEPARATOR)")
	cmd.Flags().StringVar(&opts.duplicateNames, "duplicate-names", "", "Duplicate name policy: warn|reject")
	cmd.Flags().StringVar(&opts.unresolvedSupervisors, "unresolved-supervisors", "", "Unresolved supervisor policy: ignore|warn|reject")
	cmd.Flags().StringVar(&opts.manifestDir, "manifest-dir", "", "Write an import manifest JSON into this directory")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Run the import and roll it back")
	cmd.Flags().BoolVar(&opts.report, "report", false, "Print the stored persons after the import")

	return cmd
}

// resolve fills unset flags from the loaded configuration.
func (o importOptions) resolve(app *cliApp) importOptions {
	cfg := app.cfg.Import
	if strings.TrimSpace(o.input) == "" {
		o.input = cfg.Source
	}
	if o.sheet == "" {
		o.sheet = cfg.Sheet
	}
	if o.separator == "" {
		o.separator = cfg.SupervisorSeparator
	}
	if o.duplicateNames == "" {
		o.duplicateNames = cfg.DuplicateNames
	}
	if o.unresolvedSupervisors == "" {
		o.unresolvedSupervisors = cfg.UnresolvedSupervisors
	}
	return o
}

func (o importOptions) serviceOptions() (services.ImportOptions, error) {
	dup, err := services.ParsePolicy(o.duplicateNames)
	if err != nil {
		return services.ImportOptions{}, fmt.Errorf("invalid --duplicate-names: %w", err)
	}
	if dup == services.PolicyIgnore {
		return services.ImportOptions{}, fmt.Errorf("invalid --duplicate-names: %q (expected warn|reject)", o.duplicateNames)
	}
	unresolved, err := services.ParsePolicy(o.unresolvedSupervisors)
	if err != nil {
		return services.ImportOptions{}, fmt.Errorf("invalid --unresolved-supervisors: %w", err)
	}
	return services.ImportOptions{
		Separator:             o.separator,
		DuplicateNames:        dup,
		UnresolvedSupervisors: unresolved,
		DryRun:                o.dryRun,
	}, nil
}

func runImport(ctx context.Context, app *cliApp, opts importOptions) error {
	opts = opts.resolve(app)
	svcOpts, err := opts.serviceOptions()
	if err != nil {
		return withCode(exitUsage, err)
	}
	ctx = app.commandContext(ctx, "import")

	table, err := spreadsheet.Read(opts.input, spreadsheet.Options{Sheet: opts.sheet})
	if err != nil {
		return withCode(exitValidation, fmt.Errorf("read %s: %w", opts.input, err))
	}

	store, err := app.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	svc := services.NewImportService(store.Persons, store.Tx, svcOpts)
	res, err := svc.Import(ctx, table)
	if err != nil {
		return classifyImportError(err)
	}

	var manifestPath string
	if opts.manifestDir != "" {
		manifestPath, err = writeManifest(opts.manifestDir, newImportManifest(opts, store.Driver(), res))
		if err != nil {
			return withCode(exitFailure, fmt.Errorf("write manifest: %w", err))
		}
	}

	if err := writeJSONLine(app.stdout, newImportSummary(opts, res, manifestPath)); err != nil {
		return err
	}

	if opts.report {
		hierarchy, err := services.NewHierarchyService(store.Persons, store.Tx, services.HierarchyOptions{})
		if err != nil {
			return err
		}
		entries, err := hierarchy.Report(ctx)
		if err != nil {
			return withCode(exitDB, err)
		}
		return writeReport(app.stdout, entries)
	}
	return nil
}

type importCounts struct {
	RowsRead       int   `json:"rows_read"`
	RowsSkipped    int   `json:"rows_skipped"`
	PersonsDeleted int64 `json:"persons_deleted"`
	PersonsCreated int   `json:"persons_created"`
	LinksCreated   int   `json:"links_created"`
	Warnings       int   `json:"warnings"`
}

func countsOf(res *services.ImportResult) importCounts {
	return importCounts{
		RowsRead:       res.RowsRead,
		RowsSkipped:    res.RowsSkipped,
		PersonsDeleted: res.PersonsDeleted,
		PersonsCreated: res.PersonsCreated,
		LinksCreated:   res.LinksCreated,
		Warnings:       len(res.Warnings),
	}
}

type importSummary struct {
	Status     string             `json:"status"`
	RunID      string             `json:"run_id"`
	Input      string             `json:"input"`
	DurationMS int64              `json:"duration_ms"`
	Manifest   string             `json:"manifest,omitempty"`
	Counts     importCounts       `json:"counts"`
	Warnings   []services.Warning `json:"warnings"`
}

func newImportSummary(opts importOptions, res *services.ImportResult, manifestPath string) importSummary {
	status := "applied"
	if res.DryRun {
		status = "dry_run"
	}
	return importSummary{
		Status:     status,
		RunID:      res.RunID.String(),
		Input:      opts.input,
		DurationMS: res.Duration.Milliseconds(),
		Manifest:   manifestPath,
		Counts:     countsOf(res),
		Warnings:   res.Warnings,
	}
}

type importManifestV1 struct {
	Version    int                `json:"version"`
	RunID      uuid.UUID          `json:"run_id"`
	Driver     string             `json:"driver"`
	Input      string             `json:"input"`
	Sheet      string             `json:"sheet,omitempty"`
	Separator  string             `json:"separator"`
	DryRun     bool               `json:"dry_run"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Counts     importCounts       `json:"counts"`
	Warnings   []services.Warning `json:"warnings"`
}

func newImportManifest(opts importOptions, driver string, res *services.ImportResult) *importManifestV1 {
	return &importManifestV1{
		Version:    1,
		RunID:      res.RunID,
		Driver:     driver,
		Input:      opts.input,
		Sheet:      opts.sheet,
		Separator:  opts.separator,
		DryRun:     res.DryRun,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Counts:     countsOf(res),
		Warnings:   res.Warnings,
	}
}

func writeManifest(outputDir string, manifest *importManifestV1) (string, error) {
	ts := manifest.StartedAt.UTC().Format("20060102T150405Z")
	name := fmt.Sprintf("import_manifest_%s_%s.json", ts, manifest.RunID.String())
	path := filepath.Join(outputDir, name)
	if err := writeJSONFile(path, manifest, 2); err != nil {
		return "", err
	}
	return path, nil
}
