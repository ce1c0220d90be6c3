package transfer

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const wordRecordSchema = `{
	"type": "object",
	"required": ["word"],
	"properties": {
		"word": {"type": "string", "minLength": 1},
		"meaning": {"type": "string"},
		"phonetic": {"type": "string"},
		"phonemes": {"type": "array", "items": {"type": "string"}},
		"errorCount": {"type": "integer", "minimum": 0},
		"reviewCount": {"type": "integer", "minimum": 0},
		"firstErrorDate": {"type": ["string", "null"]},
		"lastErrorDate": {"type": ["string", "null"]},
		"firstLearnDate": {"type": ["string", "null"]},
		"lastReviewDate": {"type": ["string", "null"]}
	}
}`

var (
	studyProgressSchema = mustSchema(`{
		"type": "object",
		"properties": {
			"totalLearned": {"type": "integer", "minimum": 0},
			"correctCount": {"type": "integer", "minimum": 0},
			"wrongCount": {"type": "integer", "minimum": 0},
			"streak": {"type": "integer", "minimum": 0},
			"lastStudyDate": {"type": ["string", "null"]}
		}
	}`)
	wordListSchema       = mustSchema(`{"type": "array", "items": ` + wordRecordSchema + `}`)
	dailyGoalSchema      = mustSchema(`{"type": "integer", "minimum": 1}`)
	selectedCourseSchema = mustSchema(`{"type": "string", "minLength": 1}`)
	studyTimeSchema      = mustSchema(`{"type": "integer", "minimum": 0}`)
	darkModeSchema       = mustSchema(`{"type": "boolean"}`)
)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("transfer: invalid schema: %v", err))
	}
	return schema
}

// validate checks raw against schema and joins the violations
func validate(schema *gojsonschema.Schema, raw []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return err
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
