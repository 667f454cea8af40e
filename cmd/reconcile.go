/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/codetrail-lms/apiserver/config"
	"github.com/codetrail-lms/apiserver/internal/db"
	"github.com/codetrail-lms/apiserver/internal/services"
	"github.com/codetrail-lms/apiserver/internal/store"
	"github.com/spf13/cobra"
)

var reconcileUserID int

// reconcileCmd rebuilds the derived progress tables from the submission log.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Rebuild derived progress state from the submission log",
	Long: `Rebuild derived progress state from the submission log.

Reports any divergence between the solved-record and history tables
and the append-only submission log, then repairs it. With --user it
reconciles a single user, otherwise every user with submissions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer dbConn.Close()

		progressRepo := store.NewProgressRepository(dbConn)
		problemRepo := store.NewProblemRepository(dbConn)
		kitRepo := store.NewKitRepository(dbConn)
		progressService := services.NewProgressService(progressRepo, problemRepo, kitRepo, nil)

		if reconcileUserID > 0 {
			divergence, err := progressService.ReconcileUser(cmd.Context(), reconcileUserID)
			if err != nil {
				return fmt.Errorf("reconcile user %d: %w", reconcileUserID, err)
			}
			printDivergence(reconcileUserID, divergence)
			return nil
		}

		divergences, err := progressService.ReconcileAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("reconcile all: %w", err)
		}
		repaired := 0
		for userID, divergence := range divergences {
			if divergence.Empty() {
				continue
			}
			printDivergence(userID, divergence)
			repaired++
		}
		fmt.Printf("reconciled %d users, repaired %d\n", len(divergences), repaired)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	reconcileCmd.Flags().IntVar(&reconcileUserID, "user", 0, "reconcile a single user id")
}

func printDivergence(userID int, d store.Divergence) {
	if d.Empty() {
		fmt.Printf("user %d: consistent\n", userID)
		return
	}
	fmt.Printf("user %d: repaired %d orphan solved records, %d missing solved records, %d history mismatches\n",
		userID, d.OrphanSolvedRecords, d.MissingSolvedRecords, d.HistoryMismatches)
}
