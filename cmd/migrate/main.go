// Command migrate applies the SQL migrations in migrations/ to the configured
// database through the atlas CLI.
package main

import (
	"context"
	"log/slog"
	"os"

	"smartqueue/internal/pkg/config"

	"ariga.io/atlas-go-sdk/atlasexec"
)

func main() {
	if err := run(); err != nil {
		slog.Error("migration failed", "error", err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	workdir, err := atlasexec.NewWorkingDir(
		atlasexec.WithMigrations(os.DirFS("migrations")),
	)
	if err != nil {
		return err
	}
	defer func() {
		_ = workdir.Close()
	}()

	client, err := atlasexec.NewClient(workdir.Path(), "atlas")
	if err != nil {
		return err
	}

	res, err := client.MigrateApply(context.Background(), &atlasexec.MigrateApplyParams{
		URL: cfg.DB.BuildDSN(),
	})
	if err != nil {
		return err
	}

	slog.Info("migrations applied",
		"applied", len(res.Applied),
		"current", res.Current,
		"target", res.Target)
	return nil
}
