package fs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/aretw0/journal/pkg/core"
)

// documentSchemaJSON describes the backing document: a top-level array of
// entry objects. Unknown fields are tolerated; wrong types are not.
const documentSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "id":     {"type": "integer", "minimum": 0},
      "date":   {"type": "string"},
      "title":  {"type": "string"},
      "text":   {"type": "string"},
      "source": {"type": "string"},
      "name":   {"type": "string"}
    }
  }
}`

var documentSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchemaJSON))
})

// decodeDocument parses the backing document. Blank content is an empty
// journal; anything that is not an array of entry objects is an error the
// caller treats as corruption.
func decodeDocument(data []byte) ([]core.Entry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []core.Entry{}, nil
	}

	schema, err := documentSchema()
	if err != nil {
		return nil, fmt.Errorf("invalid document schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return nil, fmt.Errorf("document does not match schema: %s", strings.Join(errs, "; "))
	}

	var entries []core.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	if entries == nil {
		entries = []core.Entry{}
	}
	return entries, nil
}

// encodeDocument renders entries with a stable 2-space indent.
func encodeDocument(entries []core.Entry) ([]byte, error) {
	if entries == nil {
		entries = []core.Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
