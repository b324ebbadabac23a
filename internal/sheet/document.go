package sheet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Document is the JSON form of a saved table.
type Document struct {
	Name    string    `json:"name"`
	SavedAt time.Time `json:"saved_at"`
	Header  []string  `json:"header"`
	Rows    [][]any   `json:"rows"`
}

const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "header", "rows"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "saved_at": {"type": "string"},
    "header": {"type": "array", "items": {"type": "string"}},
    "rows": {
      "type": "array",
      "items": {
        "type": "array",
        "items": {"type": ["string", "number", "boolean", "null"]}
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(documentSchema))
		if err != nil {
			schemaErr = err
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("table-document.json", doc); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile("table-document.json")
	})
	return schema, schemaErr
}

// MarshalDocument encodes t as a named JSON document.
func MarshalDocument(name string, t Table, savedAt time.Time) ([]byte, error) {
	values := t.Values()
	doc := Document{
		Name:    name,
		SavedAt: savedAt.UTC(),
		Header:  append([]string{}, t.Header...),
		Rows:    make([][]any, 0, len(values)-1),
	}
	for _, row := range values[1:] {
		doc.Rows = append(doc.Rows, row)
	}
	return json.Marshal(doc)
}

// UnmarshalDocument validates data against the document schema and decodes it.
func UnmarshalDocument(data []byte) (Document, Table, error) {
	sch, err := compiledSchema()
	if err != nil {
		return Document{}, Table{}, fmt.Errorf("compile document schema: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return Document{}, Table{}, fmt.Errorf("parse document: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		return Document{}, Table{}, fmt.Errorf("invalid document: %w", err)
	}

	var doc Document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return Document{}, Table{}, fmt.Errorf("decode document: %w", err)
	}

	values := make([][]any, 0, len(doc.Rows)+1)
	header := make([]any, len(doc.Header))
	for i, h := range doc.Header {
		header[i] = h
	}
	values = append(values, header)
	for _, row := range doc.Rows {
		values = append(values, numbersToFloat(row))
	}
	return doc, FromValues(values), nil
}

func numbersToFloat(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		if n, ok := v.(json.Number); ok {
			if f, err := n.Float64(); err == nil {
				out[i] = f
				continue
			}
		}
		out[i] = v
	}
	return out
}
