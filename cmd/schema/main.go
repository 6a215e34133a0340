// Generates the JSON schema for the curator configuration file so
// editors can validate config.yml against it.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/thisisntnathan/arXivCurator/pkg/config"
)

func main() {
	outputPath := "config-schema.json"
	if len(os.Args) > 1 {
		outputPath = os.Args[1]
	}

	if err := writeSchema(outputPath); err != nil {
		log.Fatalf("schema generation failed: %v", err)
	}
	fmt.Printf("config schema written to %s\n", outputPath)
}

// writeSchema reflects the configuration structs and writes the
// resulting schema as indented JSON
func writeSchema(path string) error {
	schema := jsonschema.Reflect(&config.Config{})
	schema.Title = "arXivCurator configuration"
	schema.Description = "Schema for the curator's config.yml"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil { //nolint:gosec // schema file is not sensitive
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
