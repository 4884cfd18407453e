package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/orah4/aipstedu/internal/audit"
	"github.com/orah4/aipstedu/internal/config"
)

// handleLog implements the log subcommand
func handleLog(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	limit := fs.Int("n", 20, "Number of interactions to show")
	approve := fs.Int64("approve", 0, "Mark the interaction with this id as reviewed")
	reviewer := fs.String("reviewer", "", "Reviewer name recorded with -approve")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    aipstedu log [options]

DESCRIPTION:
    Show recent recorded interactions, or approve one for review.

OPTIONS:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	store, err := audit.Open(cfg.Storage.AuditPath())
	if err != nil {
		log.Fatalf("Failed to open audit log: %v", err)
	}
	defer store.Close()

	if *approve > 0 {
		if *reviewer == "" {
			fmt.Fprintf(os.Stderr, "Error: -approve requires -reviewer\n")
			os.Exit(1)
		}
		if err := store.Approve(*approve, *reviewer); err != nil {
			log.Fatalf("Failed to approve interaction: %v", err)
		}
		fmt.Printf("Approved interaction %d (reviewer: %s)\n", *approve, *reviewer)
		return
	}

	interactions, err := store.Recent(*limit)
	if err != nil {
		log.Fatalf("Failed to read interactions: %v", err)
	}
	if len(interactions) == 0 {
		fmt.Println("No interactions recorded")
		return
	}

	for _, it := range interactions {
		status := " "
		if it.Approved {
			status = fmt.Sprintf("approved by %s", it.Reviewer)
		}
		fmt.Printf("%4d  %s  %-8s %-7s %s\n", it.ID, it.TS.Format("2006-01-02 15:04"), it.Role, it.Action, status)
		fmt.Printf("      in:  %s\n", truncate(it.Input, 120))
		fmt.Printf("      out: %s\n", truncate(it.Output, 120))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
