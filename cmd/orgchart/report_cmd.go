package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/iota-uz/orgchart/modules/orgchart/services"
)

func newReportCmd(app *cliApp) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "List stored persons with their supervisors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), app, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print one JSON object per person")
	return cmd
}

func runReport(ctx context.Context, app *cliApp, asJSON bool) error {
	ctx = app.commandContext(ctx, "report")
	store, err := app.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	svc, err := services.NewHierarchyService(store.Persons, store.Tx, services.HierarchyOptions{})
	if err != nil {
		return err
	}
	entries, err := svc.Report(ctx)
	if err != nil {
		return withCode(exitDB, err)
	}
	if !asJSON {
		return writeReport(app.stdout, entries)
	}
	for _, e := range entries {
		if err := writeJSONLine(app.stdout, e); err != nil {
			return err
		}
	}
	return nil
}
