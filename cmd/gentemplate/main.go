// Command gentemplate generates the Excel import template for discovery sources.
// Usage: go run ./cmd/gentemplate -out examples/discovery-source-template.xlsx
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/jonesrussell/north-cloud/lead-manager/internal/importer"
)

func main() {
	out := flag.String("out", "examples/discovery-source-template.xlsx", "Output path")
	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		log.Fatal(err)
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatal(err)
	}
	if writeErr := importer.WriteTemplate(f); writeErr != nil {
		_ = f.Close()
		log.Fatal(writeErr)
	}
	if closeErr := f.Close(); closeErr != nil {
		log.Fatal(closeErr)
	}
	log.Printf("Created %s", *out)
}
