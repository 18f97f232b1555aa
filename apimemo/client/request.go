package client

import (
	"net/url"
	"strings"
)

// Request is a validated logical request. Its query fragment is the canonical
// identity of the call: identical inputs always yield the same fragment, and
// parameter order is part of it.
type Request struct {
	query      string
	structured bool
}

// NewRequest builds a Request the way callers describe it: nil params means a
// single raw value (values must hold exactly one), otherwise params and values
// are parallel lists rendered as name=value pairs in order.
func NewRequest(params, values []string) (Request, error) {
	if params == nil {
		if len(values) != 1 {
			return Request{}, invalidRequest("expected exactly one value without parameters, got %d", len(values))
		}
		return NewValueRequest(values[0])
	}
	return NewParamRequest(params, values)
}

// NewValueRequest builds an unstructured request from one raw value.
func NewValueRequest(value string) (Request, error) {
	if value == "" {
		return Request{}, invalidRequest("value must not be empty")
	}
	return Request{query: url.QueryEscape(value)}, nil
}

// NewParamRequest builds a structured request from parallel name/value lists.
// Values are escaped; names are used verbatim.
func NewParamRequest(params, values []string) (Request, error) {
	switch {
	case len(values) == 0:
		return Request{}, invalidRequest("values must not be empty")
	case len(params) != len(values):
		return Request{}, invalidRequest("got %d parameters for %d values", len(params), len(values))
	}

	var b strings.Builder
	for i, name := range params {
		if name == "" {
			return Request{}, invalidRequest("parameter %d has an empty name", i)
		}
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(values[i]))
	}
	return Request{query: b.String(), structured: true}, nil
}

// Query returns the encoded query fragment, without a leading '?'.
func (r Request) Query() string {
	return r.query
}

// Structured reports whether the request was built from name/value pairs.
func (r Request) Structured() bool {
	return r.structured
}

// Valid reports whether r came from one of the constructors.
func (r Request) Valid() bool {
	return r.query != ""
}

// Path returns the call path under endpoint, which doubles as the cache key:
// "endpoint/value" for a raw value and "endpoint/?a=1&b=2" for parameters.
func (r Request) Path(endpoint string) string {
	endpoint = strings.Trim(endpoint, "/")
	sep := "/"
	if r.structured {
		sep = "/?"
	}
	return endpoint + sep + r.query
}

func (r Request) String() string {
	return r.query
}
