package models

import (
	"encoding/json"
)

// BlockType discriminates report block payloads.
type BlockType string

const (
	BlockRichText     BlockType = "rich_text"
	BlockSingleMetric BlockType = "single_metric"
	BlockMultiMetric  BlockType = "multi_metric"
	BlockInsightCard  BlockType = "insight_card"
)

// BlockTypes lists every payload variant.
var BlockTypes = []BlockType{BlockRichText, BlockSingleMetric, BlockMultiMetric, BlockInsightCard}

func (t BlockType) Valid() bool {
	for _, bt := range BlockTypes {
		if t == bt {
			return true
		}
	}
	return false
}

// BlockContent is a report block payload. The unexported method closes the
// set of implementations to the four variants below.
type BlockContent interface {
	BlockType() BlockType
	validate() error
	isBlockContent()
}

type RichTextContent struct {
	Content string `json:"content"`
}

type SingleMetricContent struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
	Trend *string `json:"trend,omitempty"`
}

type MetricPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

type MultiMetricContent struct {
	Metrics []MetricPoint `json:"metrics"`
}

type InsightCardContent struct {
	Title    string  `json:"title"`
	Body     string  `json:"body"`
	Badge    *string `json:"badge,omitempty"`
	Severity string  `json:"severity"`
}

func (RichTextContent) BlockType() BlockType     { return BlockRichText }
func (SingleMetricContent) BlockType() BlockType { return BlockSingleMetric }
func (MultiMetricContent) BlockType() BlockType  { return BlockMultiMetric }
func (InsightCardContent) BlockType() BlockType  { return BlockInsightCard }

func (RichTextContent) isBlockContent()     {}
func (SingleMetricContent) isBlockContent() {}
func (MultiMetricContent) isBlockContent()  {}
func (InsightCardContent) isBlockContent()  {}

func (RichTextContent) validate() error { return nil }

func (c SingleMetricContent) validate() error {
	return requireText("label", c.Label)
}

func (c MultiMetricContent) validate() error {
	for _, m := range c.Metrics {
		if err := requireText("metrics.label", m.Label); err != nil {
			return err
		}
	}
	return nil
}

func (c InsightCardContent) validate() error {
	if err := requireText("title", c.Title); err != nil {
		return err
	}
	if c.Severity == "" {
		return nil
	}
	return requireOneOf("severity", c.Severity, insightSeverities...)
}

// ValidateBlockContent checks the payload matches the block's declared type.
func ValidateBlockContent(blockType BlockType, content BlockContent) error {
	if content == nil {
		return invalid("content", "is required")
	}
	if content.BlockType() != blockType {
		return invalid("content", "payload of type %s does not match block type %s", content.BlockType(), blockType)
	}
	return content.validate()
}

// DecodeBlockContent parses raw JSON into the variant for blockType.
func DecodeBlockContent(blockType BlockType, raw json.RawMessage) (BlockContent, error) {
	var (
		content BlockContent
		err     error
	)
	switch blockType {
	case BlockRichText:
		var c RichTextContent
		err = json.Unmarshal(raw, &c)
		content = c
	case BlockSingleMetric:
		var c SingleMetricContent
		err = json.Unmarshal(raw, &c)
		content = c
	case BlockMultiMetric:
		var c MultiMetricContent
		err = json.Unmarshal(raw, &c)
		if c.Metrics == nil {
			c.Metrics = []MetricPoint{}
		}
		content = c
	case BlockInsightCard:
		var c InsightCardContent
		err = json.Unmarshal(raw, &c)
		content = c
	default:
		return nil, invalid("blockType", "unknown block type %q", blockType)
	}
	if err != nil {
		return nil, invalid("content", "malformed %s payload: %v", blockType, err)
	}
	return content, nil
}
