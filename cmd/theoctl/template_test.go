package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/theo-core/internal/models"
)

const quarterlyReview = `
name: Quarterly business review
description: Standard QBR layout
sections:
  - title: Headline numbers
    sectionType: kpis
    semanticDefinition:
      metrics: [revenue, churn]
    blocks:
      - blockType: single_metric
        layoutHints: {width: 4}
      - blockType: multi_metric
        semanticDefinition:
          groupBy: region
  - title: Commentary
    sectionType: narrative
    blocks:
      - blockType: rich_text
`

func TestParseTemplate(t *testing.T) {
	def, err := parseTemplate([]byte(quarterlyReview))
	require.NoError(t, err)

	assert.Equal(t, "Quarterly business review", def.Name)
	require.Len(t, def.Sections, 2)
	assert.Equal(t, "kpis", def.Sections[0].SectionType)
	require.Len(t, def.Sections[0].Blocks, 2)
	assert.Equal(t, models.BlockSingleMetric, def.Sections[0].Blocks[0].BlockType)
	assert.JSONEq(t, `{"width":4}`, string(def.Sections[0].Blocks[0].LayoutHints))
	assert.JSONEq(t, `{"groupBy":"region"}`, string(def.Sections[0].Blocks[1].SemanticDefinition))

	var sem map[string][]string
	require.NoError(t, json.Unmarshal(def.Sections[0].SemanticDefinition, &sem))
	assert.Equal(t, []string{"revenue", "churn"}, sem["metrics"])
	assert.Empty(t, def.Sections[1].SemanticDefinition)
}

func TestParseTemplateRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "name: [unclosed"},
		{"not a mapping", "- a\n- b\n"},
		{"missing name", "description: nameless\n"},
		{"unknown block type", "name: x\nsections:\n  - title: s\n    blocks:\n      - blockType: pie_chart\n"},
		{"untitled section", "name: x\nsections:\n  - sectionType: kpis\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseTemplate([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qbr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(quarterlyReview), 0o600))

	def, err := loadTemplate(path)
	require.NoError(t, err)
	assert.Equal(t, "Quarterly business review", def.Name)

	_, err = loadTemplate(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
