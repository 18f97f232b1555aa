package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	ports "github.com/ZanzyTHEbar/apimemo/apimemo/client/ports"
)

// OptionsDelimiter separates option name and value on each line.
const OptionsDelimiter = "->"

var (
	ErrOptionsFileNotFound = errors.New("options file not found")
	ErrMalformedLine       = errors.New("malformed option line")
	ErrEmptyValue          = errors.New("option has an empty value")
	ErrNoOptions           = errors.New("no options detected")
)

// LineError reports a problem on one line of an options file.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// UnrecognizedOption records a well-formed line whose name is not a known
// option. Such lines are kept out of the option map.
type UnrecognizedOption struct {
	Line  int
	Name  string
	Value string
}

// Options is the parsed content of an API options file.
type Options struct {
	path         string
	values       map[string]string
	unrecognized []UnrecognizedOption
}

// ReadOptionsFile parses the options file at path.
func ReadOptionsFile(path string) (*Options, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrOptionsFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to open options file %s: %w", path, err)
	}
	defer f.Close()

	opts, err := ParseOptions(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	opts.path = path
	return opts, nil
}

// ParseOptions reads name->value lines from r. Blank lines and lines starting
// with '#' are skipped; a repeated option keeps its last value.
func ParseOptions(r io.Reader) (*Options, error) {
	opts := &Options{values: make(map[string]string)}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	seen := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		name, value, found := strings.Cut(text, OptionsDelimiter)
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		switch {
		case !found || name == "":
			return nil, &LineError{Line: lineNo, Text: text, Err: ErrMalformedLine}
		case value == "":
			return nil, &LineError{Line: lineNo, Text: text, Err: ErrEmptyValue}
		}

		seen++
		if !ports.IsKnownOption(name) {
			opts.unrecognized = append(opts.unrecognized, UnrecognizedOption{Line: lineNo, Name: name, Value: value})
			continue
		}
		opts.values[name] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read options: %w", err)
	}

	if seen == 0 {
		return nil, ErrNoOptions
	}
	return opts, nil
}

// GetOption implements ports.OptionSource.
func (o *Options) GetOption(name string) (string, bool) {
	v, ok := o.values[name]
	return v, ok
}

// Unrecognized returns the lines that named an unknown option, in file order.
func (o *Options) Unrecognized() []UnrecognizedOption {
	out := make([]UnrecognizedOption, len(o.unrecognized))
	copy(out, o.unrecognized)
	return out
}

// Path returns the file the options were read from, if any.
func (o *Options) Path() string {
	return o.path
}

// Len returns the number of recognized options.
func (o *Options) Len() int {
	return len(o.values)
}

var (
	_ ports.OptionSource = (*Options)(nil)
	_ ports.OptionSource = (*APIConfig)(nil)
)
