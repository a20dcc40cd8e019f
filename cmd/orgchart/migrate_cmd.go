package main

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/iota-uz/orgchart/modules/orgchart/infrastructure/persistence"
)

func newMigrateCmd(app *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(
		migrateSubCmd(app, "up", "Apply all pending migrations", migrateUp),
		migrateSubCmd(app, "down", "Roll back the latest migration", migrateDown),
		migrateSubCmd(app, "status", "Show applied and pending migrations", migrateStatus),
		migrateSubCmd(app, "version", "Print the current schema version", migrateVersion),
	)
	return cmd
}

type migrateFunc func(ctx context.Context, app *cliApp, store *persistence.Store, provider *goose.Provider) error

func migrateSubCmd(app *cliApp, use, short string, fn migrateFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := app.commandContext(cmd.Context(), "migrate "+use)
			opts := app.cfg.Database
			opts.AutoMigrate = false
			store, err := app.openStoreWith(ctx, opts)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			provider, err := store.Migrator()
			if err != nil {
				return withCode(exitDB, err)
			}
			return fn(ctx, app, store, provider)
		},
	}
}

func migrateUp(ctx context.Context, app *cliApp, store *persistence.Store, _ *goose.Provider) error {
	applied, err := store.Migrate(ctx)
	if err != nil {
		return withCode(exitDBWrite, err)
	}
	return writeJSONLine(app.stdout, map[string]any{
		"status":  "ok",
		"driver":  store.Driver(),
		"applied": applied,
	})
}

func migrateDown(ctx context.Context, app *cliApp, store *persistence.Store, provider *goose.Provider) error {
	res, err := provider.Down(ctx)
	if err != nil {
		return withCode(exitDBWrite, fmt.Errorf("migrate down: %w", err))
	}
	var version int64
	if res != nil && res.Source != nil {
		version = res.Source.Version
	}
	return writeJSONLine(app.stdout, map[string]any{
		"status":      "ok",
		"driver":      store.Driver(),
		"rolled_back": version,
	})
}

type migrationState struct {
	Version   int64  `json:"version"`
	Path      string `json:"path"`
	State     string `json:"state"`
	AppliedAt string `json:"applied_at,omitempty"`
}

func migrateStatus(ctx context.Context, app *cliApp, _ *persistence.Store, provider *goose.Provider) error {
	statuses, err := provider.Status(ctx)
	if err != nil {
		return withCode(exitDB, fmt.Errorf("migrate status: %w", err))
	}
	for _, st := range statuses {
		row := migrationState{State: string(st.State)}
		if st.Source != nil {
			row.Version = st.Source.Version
			row.Path = st.Source.Path
		}
		if !st.AppliedAt.IsZero() {
			row.AppliedAt = st.AppliedAt.UTC().Format("2006-01-02T15:04:05Z")
		}
		if err := writeJSONLine(app.stdout, row); err != nil {
			return err
		}
	}
	return nil
}

func migrateVersion(ctx context.Context, app *cliApp, store *persistence.Store, provider *goose.Provider) error {
	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return withCode(exitDB, fmt.Errorf("migrate version: %w", err))
	}
	return writeJSONLine(app.stdout, map[string]any{
		"driver":  store.Driver(),
		"version": version,
	})
}
