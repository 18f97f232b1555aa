package client

import (
	"errors"
	"fmt"
	"os"
	"strings"

	ports "github.com/ZanzyTHEbar/apimemo/apimemo/client/ports"
	"github.com/xeipuuv/gojsonschema"
)

// ErrMalformedResponse is returned when a 2xx body fails the response schema.
var ErrMalformedResponse = errors.New("malformed response")

// SchemaGuard validates successful response bodies against a JSON schema so
// that malformed payloads are reported as transport failures instead of being
// cached. Non-2xx responses pass through untouched.
type SchemaGuard struct {
	schema *gojsonschema.Schema
}

// NewSchemaGuard compiles a JSON schema document.
func NewSchemaGuard(schema []byte) (*SchemaGuard, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile response schema: %w", err)
	}
	return &SchemaGuard{schema: compiled}, nil
}

// LoadSchemaGuard reads and compiles the schema file at path.
func LoadSchemaGuard(path string) (*SchemaGuard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read response schema %s: %w", path, err)
	}
	return NewSchemaGuard(data)
}

// Check returns nil when resp may be cached.
func (g *SchemaGuard) Check(resp *ports.Response) error {
	if g == nil || !resp.OK() {
		return nil
	}

	result, err := g.schema.Validate(gojsonschema.NewBytesLoader(resp.Body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrMalformedResponse, strings.Join(msgs, "; "))
	}
	return nil
}
