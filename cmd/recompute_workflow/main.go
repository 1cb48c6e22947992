// Maintenance command that recomputes the workflow status of every scenario
// from its work items. Locked scenarios keep their status.
//
// Usage:
//
//	go run ./cmd/recompute_workflow [--dry-run]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"fizibilite/internal/config"
	"fizibilite/internal/db"
	"fizibilite/internal/logger"
	"fizibilite/internal/models"
	"fizibilite/internal/workflow"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Report changes without writing them")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.WithModule("recompute")

	ctx := context.Background()
	conn, err := db.Open(ctx, "postgres", cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer conn.Close()

	ids, err := models.ListScenarioIDs(ctx, conn)
	if err != nil {
		log.WithError(err).Fatal("failed to list scenarios")
	}

	changed := 0
	for _, id := range ids {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			log.WithError(err).Fatal("failed to begin transaction")
		}
		status, didChange, err := workflow.ComputeScenarioWorkflowStatus(ctx, tx, id)
		if err != nil {
			tx.Rollback()
			log.WithError(err).WithField("scenario_id", id).Error("recompute failed")
			continue
		}
		if *dryRun {
			err = tx.Rollback()
		} else {
			err = tx.Commit()
		}
		if err != nil {
			log.WithError(err).WithField("scenario_id", id).Error("failed to finish transaction")
			continue
		}
		if didChange {
			changed++
			log.WithFields(logrus.Fields{"scenario_id": id, "status": status}).Info("status updated")
		}
	}

	fmt.Printf("Recomputed %d scenarios, %d changed (dry run: %v)\n", len(ids), changed, *dryRun)
}
