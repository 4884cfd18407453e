package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/orah4/aipstedu/cmd/aipstedu/internal"
	"github.com/orah4/aipstedu/internal/config"
	"github.com/orah4/aipstedu/internal/rag"
)

// handleSearch implements the search subcommand
func handleSearch(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)

	var topK int
	var jsonOutput, keyword, asContext bool
	var role string

	fs.IntVar(&topK, "k", 0, "Number of results to return (default: config default_top_k)")
	fs.BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	fs.BoolVar(&keyword, "keyword", false, "Use the keyword index instead of vector similarity")
	fs.BoolVar(&asContext, "context", false, "Print results as a budgeted generation context block")
	fs.StringVar(&role, "role", "student", "Role recorded in the interaction log")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    aipstedu search [options] "<query>"

DESCRIPTION:
    Retrieve the chunks most similar to the query, best first.
    Searching an empty knowledge base returns no results.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Vector similarity search
    aipstedu search "what is the powerhouse of the cell"

    # Top 10 results as JSON
    aipstedu search -k 10 -json "photosynthesis"

    # Keyword retrieval
    aipstedu search -keyword "mitochondria"

    # Budgeted context block for a generation prompt
    aipstedu search -context "lesson planning"
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: search query is required\n\n")
		fs.Usage()
		os.Exit(1)
	}

	query := fs.Arg(0)
	pipeline := internal.BuildPipeline(cfg)

	var results []rag.Result
	var err error
	if keyword {
		results, err = pipeline.SearchKeyword(query, topK)
	} else {
		stop := startSpinner(defaultProgressEnabled(), "searching")
		results, err = pipeline.Search(context.Background(), query, topK)
		stop()
	}
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}

	if cfg.Audit.Enabled {
		logInteraction(cfg, role, "search", query, fmt.Sprintf("%d result(s)", len(results)))
	}

	switch {
	case asContext:
		fmt.Println(rag.FormatContext(results, cfg.Search.ContextBudget))
	case jsonOutput:
		outputJSON(results, query)
	default:
		outputText(results, query)
	}
}

// outputText prints search results as human-readable text
func outputText(results []rag.Result, query string) {
	if len(results) == 0 {
		fmt.Println("No results found")
		return
	}

	fmt.Printf("Found %d result(s) for: %s\n\n", len(results), query)

	for i, r := range results {
		fmt.Printf("%d. %s (score=%.3f)\n", i+1, r.Source, r.Score)

		text := r.Text
		if len(text) > 200 {
			text = text[:200] + "..."
		}
		fmt.Printf("   %s\n\n", text)
	}
}

// outputJSON prints search results as JSON
func outputJSON(results []rag.Result, query string) {
	output := map[string]interface{}{
		"query":   query,
		"count":   len(results),
		"results": results,
	}

	jsonData, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal results: %v", err)
	}

	fmt.Println(string(jsonData))
}
