package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/orah4/aipstedu/cmd/aipstedu/internal"
	"github.com/orah4/aipstedu/internal/audit"
	"github.com/orah4/aipstedu/internal/config"
	"github.com/orah4/aipstedu/internal/rag"
)

// handleIngest implements the ingest subcommand
func handleIngest(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	source := fs.String("source", "", "Source label for all ingested text (default: file name)")
	text := fs.String("text", "", "Ingest this literal text instead of files")
	role := fs.String("role", "admin", "Role recorded in the interaction log")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    aipstedu ingest [options] [file|glob ...]

DESCRIPTION:
    Split documents into chunks, append them to the chunk store and
    rebuild the vector index. Arguments may be file paths or doublestar
    glob patterns such as "notes/**/*.txt".

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Ingest a file under an explicit source label
    aipstedu ingest -source bio101 notes/cells.txt

    # Ingest every text file below notes/
    aipstedu ingest "notes/**/*.txt"

    # Ingest literal text
    aipstedu ingest -source bio101 -text "The mitochondria is the powerhouse of the cell."
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	if *text == "" && fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: nothing to ingest: pass files or -text\n\n")
		fs.Usage()
		os.Exit(1)
	}

	pipeline := internal.BuildPipeline(cfg)
	ctx := context.Background()
	startTime := time.Now()

	totalChunks := 0
	totalDocs := 0

	if *text != "" {
		n, err := pipeline.Ingest(ctx, *text, *source)
		if err != nil {
			fatalIngest(err)
		}
		totalChunks += n
		totalDocs++
	}

	files, err := resolveFiles(fs.Args())
	if err != nil {
		log.Fatalf("Failed to resolve input files: %v", err)
	}

	bar := newIngestBar(defaultProgressEnabled(), len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", path, err)
		}

		label := *source
		if label == "" {
			label = filepath.Base(path)
		}

		n, err := pipeline.Ingest(ctx, string(data), label)
		if err != nil {
			fatalIngest(fmt.Errorf("%s: %w", path, err))
		}
		totalChunks += n
		totalDocs++
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if cfg.Audit.Enabled {
		logInteraction(cfg, *role, "ingest",
			fmt.Sprintf("%d document(s)", totalDocs),
			fmt.Sprintf("%d chunk(s) added", totalChunks))
	}

	st, err := pipeline.Stats()
	if err != nil {
		log.Fatalf("Failed to read stats: %v", err)
	}

	fmt.Printf("Ingested %d chunk(s) from %d document(s) in %v\n", totalChunks, totalDocs, time.Since(startTime).Round(time.Millisecond))
	fmt.Printf("Knowledge base now holds %d chunk(s), index has %d row(s)\n", st.Chunks, st.IndexRows)
}

// fatalIngest prints size-cap violations without a stack of wrapping noise
func fatalIngest(err error) {
	var sizeErr *rag.SizeLimitError
	if errors.As(err, &sizeErr) {
		log.Fatalf("Ingestion rejected: %v", sizeErr)
	}
	log.Fatalf("Ingestion failed: %v", err)
}

// resolveFiles expands glob patterns and verifies plain paths
func resolveFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		if !doublestar.ValidatePattern(arg) {
			return nil, fmt.Errorf("invalid pattern: %s", arg)
		}

		base, pattern := doublestar.SplitPattern(arg)
		matches, err := doublestar.Glob(os.DirFS(base), pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", arg, err)
		}
		if len(matches) == 0 {
			// Not a pattern match; treat as a literal path
			if _, err := os.Stat(arg); err != nil {
				return nil, fmt.Errorf("no files match %s", arg)
			}
			files = append(files, arg)
			continue
		}
		for _, m := range matches {
			files = append(files, filepath.Join(base, m))
		}
	}
	return files, nil
}

// logInteraction best-effort records a CLI call in the audit store
func logInteraction(cfg *config.Config, role, action, input, output string) {
	store, err := audit.Open(cfg.Storage.AuditPath())
	if err != nil {
		log.Printf("Warning: audit log unavailable: %v", err)
		return
	}
	defer store.Close()

	if err := store.Log(role, action, input, output); err != nil {
		log.Printf("Warning: failed to record interaction: %v", err)
	}
}
