package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"stock-service/internal/config"
	"stock-service/internal/events"
	"stock-service/internal/importer"
	"stock-service/internal/repository"
	"stock-service/internal/spreadsheet"
)

func newImportCmd() *cobra.Command {
	var dryRun bool
	var operator string

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a stock report into estoque_geral and estoque_pronta",
		Long: `Runs the full import: both report sections are extracted and upserted by
SKU, general stock first. The progress log is printed when the import ends.
A failure of one table does not roll back the other.

Example:
  stockctl import estoque.xls --operator ana@fabrica.com.br`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runImport(ctx, cmd, args[0], operator, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Extract and report without writing to the database")
	cmd.Flags().StringVar(&operator, "operator", os.Getenv("USER"), "Name recorded in the import history")
	return cmd
}

func runImport(ctx context.Context, cmd *cobra.Command, path, operator string, dryRun bool) error {
	general, ready, err := layouts()
	if err != nil {
		return err
	}

	g, err := spreadsheet.ReadFile(path)
	if err != nil {
		return err
	}

	opts := importer.Options{
		UpsertTimeout: cfg.UpsertTimeout,
		General:       general,
		Ready:         ready,
	}

	var svc *importer.Service
	if dryRun {
		svc = importer.NewService(nil, nil, logger, opts)
	} else {
		db, err := config.InitDB(cfg)
		if err != nil {
			return err
		}
		redisClient := config.InitRedis(cfg, logger)
		if redisClient != nil {
			defer redisClient.Close()
		}

		repo := repository.NewStockRepository(db, redisClient, cfg.BatchSize, logger)
		if err := repo.Migrate(); err != nil {
			return err
		}

		invalidators := []importer.Invalidator{repo}
		if cfg.NATSURL != "" {
			publisher, err := events.NewStockEventPublisher(cfg.NATSURL, logger)
			if err != nil {
				logger.WithError(err).Warn("Continuing without event publishing")
			} else {
				defer publisher.Close()
				invalidators = append(invalidators, publisher)
			}
		}
		svc = importer.NewService(repo, repo, logger, opts, invalidators...)
	}

	result, err := svc.Import(ctx, importer.Request{
		Grid:     g,
		Source:   filepath.Base(path),
		Operator: operator,
		DryRun:   dryRun,
	})

	out := cmd.OutOrStdout()
	if result != nil {
		for _, line := range result.Log {
			fmt.Fprintln(out, line)
		}
		fmt.Fprintf(out, "status: %s\n", result.Status)
	}

	var partial *importer.PartialFailureError
	if errors.As(err, &partial) {
		for _, view := range partial.Succeeded() {
			fmt.Fprintf(out, "%s was saved\n", view.TableName())
		}
	}
	return err
}
