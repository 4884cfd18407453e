package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/orah4/aipstedu/cmd/aipstedu/internal"
	"github.com/orah4/aipstedu/internal/audit"
	"github.com/orah4/aipstedu/internal/config"
)

// handleStats implements the stats subcommand
func handleStats(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    aipstedu stats

DESCRIPTION:
    Show chunk store and vector index statistics.
`)
	}
	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	pipeline := internal.BuildPipeline(cfg)
	st, err := pipeline.Stats()
	if err != nil {
		log.Fatalf("Failed to read stats: %v", err)
	}

	fmt.Printf("Storage dir: %s\n\n", cfg.Storage.Dir)
	fmt.Printf("Chunks:      %6d  (%d bytes)\n", st.Chunks, st.StoreBytes)
	fmt.Printf("Index rows:  %6d  (%d bytes)\n", st.IndexRows, st.IndexBytes)
	if st.Dimensions > 0 {
		fmt.Printf("Dimensions:  %6d\n", st.Dimensions)
	}

	if st.Chunks != st.IndexRows && st.IndexRows > 0 {
		fmt.Printf("\nWarning: index rows do not match chunk count; re-run ingest to rebuild\n")
	}

	if cfg.Audit.Enabled {
		store, err := audit.Open(cfg.Storage.AuditPath())
		if err == nil {
			defer store.Close()
			if n, err := store.Count(); err == nil {
				fmt.Printf("Interactions: %5d\n", n)
			}
		}
	}
}
