package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/iota-uz/orgchart/modules/orgchart/services"
)

func newClearCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored person and supervisor link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(cmd.Context(), app)
		},
	}
}

func runClear(ctx context.Context, app *cliApp) error {
	ctx = app.commandContext(ctx, "clear")
	store, err := app.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	deleted, err := services.NewImportService(store.Persons, store.Tx, services.ImportOptions{}).Clear(ctx)
	if err != nil {
		return withCode(exitDBWrite, err)
	}
	return writeJSONLine(app.stdout, map[string]any{
		"status":          "cleared",
		"persons_deleted": deleted,
	})
}
