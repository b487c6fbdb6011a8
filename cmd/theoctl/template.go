package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/platformbuilds/theo-core/internal/models"
	"github.com/platformbuilds/theo-core/internal/services"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage report templates",
}

var templateImportCmd = &cobra.Command{
	Use:   "import [file.yaml]",
	Short: "Import a report template from YAML",
	Long: `Create a report template from a YAML definition. The template is created
in the tenant named by THEO_TENANT_ID. Each import creates version 1 of a new
template; use the API to add versions to an existing one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			return errors.New("a template file is required (--file or argument)")
		}
		def, err := loadTemplate(path)
		if err != nil {
			return err
		}

		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.requireTenant(cmd.Context()); err != nil {
			return err
		}

		t, err := services.NewReportService(e.store, e.logger).CreateTemplate(cmd.Context(), def)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), t)
	},
}

func init() {
	templateImportCmd.Flags().StringP("file", "f", "", "template YAML file")
	templateCmd.AddCommand(templateImportCmd)
}

// loadTemplate reads a YAML template. The document goes through JSON so that
// free-form semantic definitions and layout hints keep their structure.
func loadTemplate(path string) (models.TemplateDefinition, error) {
	var def models.TemplateDefinition
	raw, err := os.ReadFile(path)
	if err != nil {
		return def, err
	}
	def, err = parseTemplate(raw)
	if err != nil {
		return def, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

func parseTemplate(raw []byte) (models.TemplateDefinition, error) {
	var def models.TemplateDefinition
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return def, fmt.Errorf("parse yaml: %w", err)
	}
	if _, ok := doc.(map[string]any); !ok {
		return def, errors.New("template must be a YAML mapping")
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return def, fmt.Errorf("convert template: %w", err)
	}
	if err := json.Unmarshal(b, &def); err != nil {
		return def, fmt.Errorf("decode template: %w", err)
	}
	if err := def.Validate(); err != nil {
		return def, err
	}
	return def, nil
}
