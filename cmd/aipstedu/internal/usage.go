package internal

import (
	"fmt"
	"os"
)

const Version = "0.3.0"

// PrintUsage writes the top-level help text to stderr.
func PrintUsage() {
	fmt.Fprintf(os.Stderr, `aipstedu - knowledge-base retrieval for the instructional assistant

Version: %s

USAGE:
    aipstedu [global options] <command> [command options]

GLOBAL OPTIONS:
    -config <path>
        Path to config file (default: ./aipstedu.yaml)

    -v, -version
        Show version information

    -h, -help
        Show this help message

COMMANDS:
    init
        Write a default config file

    ingest
        Chunk and index documents into the knowledge base

    search
        Retrieve the most similar chunks for a query

    stats
        Show knowledge-base statistics

    log
        Show or approve recorded interactions

EXAMPLES:
    # Create a starter config
    aipstedu init

    # Ingest course notes
    aipstedu ingest -source bio101 notes/cells.txt

    # Ingest a whole directory of material
    aipstedu ingest "notes/**/*.txt"

    # Retrieve supporting chunks
    aipstedu search "what is the powerhouse of the cell"

    # Keyword retrieval instead of vector similarity
    aipstedu search -keyword "mitochondria"

    # Show statistics
    aipstedu stats

For detailed help on each command, use:
    aipstedu <command> -help
`, Version)
}
