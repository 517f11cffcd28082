//go:build validate_catalog
// +build validate_catalog

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "Usage: go run -tags=validate_catalog ./tools/validate/catalog.go <schema.json> <catalog.yaml>\n")
		os.Exit(1)
	}

	schemaFile := os.Args[1]
	catalogFile := os.Args[2]

	schemaBytes, err := os.ReadFile(schemaFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading schema file: %v\n", err)
		os.Exit(1)
	}

	catalogBytes, err := os.ReadFile(catalogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading catalog file: %v\n", err)
		os.Exit(1)
	}

	// The catalog is authored in YAML; round-trip it through JSON so the
	// schema validator can consume it.
	var doc any
	if err := yaml.Unmarshal(catalogBytes, &doc); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing catalog YAML: %v\n", err)
		os.Exit(1)
	}
	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error converting catalog to JSON: %v\n", err)
		os.Exit(1)
	}

	schemaLoader := gojsonschema.NewBytesLoader(schemaBytes)
	documentLoader := gojsonschema.NewBytesLoader(jsonBytes)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error validating: %v\n", err)
		os.Exit(1)
	}

	if !result.Valid() {
		fmt.Println("❌ Validation failed:")
		for _, err := range result.Errors() {
			fmt.Printf("  - %s: %s\n", err.Field(), err.Description())
		}
		os.Exit(1)
	}

	fmt.Println("✅ Capability catalog validation succeeded")
}
