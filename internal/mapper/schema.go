// internal/mapper/schema.go
package mapper

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"
)

// Document schemas enforced before anything is written to the index. They
// pin the field names and types the index mappings rely on, so a mapping
// drift shows up here instead of as silently malformed documents.

const opportunitySchema = `{
	"type": "object",
	"required": ["opportunity_id", "opportunity_name", "amount", "currency_iso_code",
		"amount_converted", "converted_currency", "conversion_rate",
		"conversion_successful", "stage_name", "extracted_at", "source"],
	"properties": {
		"opportunity_id":        {"type": "string", "minLength": 15, "maxLength": 18},
		"opportunity_name":      {"type": "string"},
		"amount":                {"type": "number"},
		"currency_iso_code":     {"type": "string", "minLength": 3, "maxLength": 3},
		"amount_converted":      {"type": "number"},
		"converted_currency":    {"type": "string"},
		"conversion_rate":       {"type": "number"},
		"conversion_successful": {"type": "boolean"},
		"stage_name":            {"type": "string"},
		"probability":           {"type": "number", "minimum": 0, "maximum": 100},
		"is_won":                {"type": "boolean"},
		"is_closed":             {"type": "boolean"},
		"source":                {"type": "string", "enum": ["salesforce"]}
	}
}`

const caseSchema = `{
	"type": "object",
	"required": ["case_id", "case_number", "status", "comment_count", "comments",
		"extracted_at", "source"],
	"properties": {
		"case_id":       {"type": "string", "minLength": 15, "maxLength": 18},
		"case_number":   {"type": "string"},
		"status":        {"type": "string"},
		"comment_count": {"type": "integer", "minimum": 0},
		"comments": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["comment_id", "body"],
				"properties": {
					"comment_id": {"type": "string"},
					"body":       {"type": "string"}
				}
			}
		},
		"source": {"type": "string", "enum": ["salesforce"]}
	}
}`

const errorDocumentSchema = `{
	"type": "object",
	"required": ["record_id", "entity", "error_status", "error_message",
		"extracted_at", "source"],
	"properties": {
		"record_id":    {"type": "string"},
		"entity":       {"type": "string", "enum": ["opportunity", "case"]},
		"error_status": {"type": "string", "pattern": "^[A-Z_]+$"},
		"source":       {"type": "string", "enum": ["salesforce"]}
	}
}`

var schemas = map[string]*gojsonschema.Schema{}

func init() {
	for name, raw := range map[string]string{
		"opportunity": opportunitySchema,
		"case":        caseSchema,
		"error":       errorDocumentSchema,
	} {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
		if err != nil {
			panic(fmt.Sprintf("invalid %s document schema: %v", name, err))
		}
		schemas[name] = schema
	}
}

// Validate checks a document against its schema. doc must be one of
// *OpportunityDocument, *CaseDocument, or *ErrorDocument.
func Validate(doc interface{}) error {
	var name string
	switch doc.(type) {
	case *OpportunityDocument:
		name = "opportunity"
	case *CaseDocument:
		name = "case"
	case *ErrorDocument:
		name = "error"
	default:
		return fmt.Errorf("no schema for document type %T", doc)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s document: %w", name, err)
	}

	result, err := schemas[name].Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("validate %s document: %w", name, err)
	}
	if !result.Valid() {
		var details []string
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return fmt.Errorf("%s document failed validation: %s", name, strings.Join(details, "; "))
	}
	return nil
}
