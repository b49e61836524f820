package analyzer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// analyzeSchema parses the JSON-LD payloads. Blocks that fail to parse are
// skipped; when several blocks share a type the last one wins in
// SchemaDetails while PresentSchemas keeps every occurrence.
func analyzeSchema(s *PageSnapshot, log logrus.FieldLogger) SchemaAnalysis {
	schema := SchemaAnalysis{
		PresentSchemas: []string{},
		SchemaDetails:  make(map[string]map[string]any),
	}

	for i, payload := range s.JSONLD {
		var data map[string]any
		if err := json.Unmarshal([]byte(payload), &data); err != nil {
			log.WithFields(logrus.Fields{
				"url":   s.URL,
				"block": i,
				"error": err.Error(),
			}).Debug("Skipping malformed JSON-LD block")
			continue
		}

		schemaType := schemaTypeOf(data)
		if schemaType == "" {
			continue
		}
		schema.PresentSchemas = append(schema.PresentSchemas, schemaType)
		schema.SchemaDetails[schemaType] = data
	}

	return schema
}

// schemaTypeOf returns the @type of a JSON-LD object. A list of types is
// joined with commas; other non-empty values are written out as text.
// Missing, null, false, zero and empty string types yield "".
func schemaTypeOf(data map[string]any) string {
	switch t := data["@type"].(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, v := range t {
			parts = append(parts, fmt.Sprint(v))
		}
		return strings.Join(parts, ",")
	case bool:
		if t {
			return "true"
		}
	case float64:
		if t != 0 {
			return strconv.FormatFloat(t, 'f', -1, 64)
		}
	case map[string]any:
		if encoded, err := json.Marshal(t); err == nil {
			return string(encoded)
		}
	}
	return ""
}
