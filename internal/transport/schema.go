package transport

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const analysisRequestSchema = `{
	"type": "object",
	"required": ["jobId", "imageUrls"],
	"properties": {
		"jobId": {"type": "string"},
		"imageUrls": {
			"type": "array",
			"minItems": 1,
			"items": {"type": "string"}
		},
		"audioUrl": {"type": ["string", "null"]}
	}
}`

var requestSchema = mustCompileSchema(analysisRequestSchema)

func mustCompileSchema(schema string) *gojsonschema.Schema {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("invalid request schema: %v", err))
	}
	return compiled
}

// validateRequestBody checks the raw body against the request schema
// before it is decoded.
func validateRequestBody(body []byte) error {
	result, err := requestSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("request validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}
