package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type SourceErrorKind int

const (
	KindIO SourceErrorKind = iota
	KindNotFound
	KindPermission
	KindSyntax
)

func (k SourceErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindPermission:
		return "permission denied"
	case KindSyntax:
		return "malformed"
	default:
		return "unreadable"
	}
}

// SourceError reports that the config file could not be read or decoded.
// It is fatal to the poll loop.
type SourceError struct {
	Path string
	Kind SourceErrorKind
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("config %s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Load reads path and decodes it into untyped data for Validate.
// Files ending in .yaml or .yml are parsed as YAML, everything else as JSON.
func Load(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &SourceError{Path: path, Kind: readErrorKind(err), Err: err}
	}

	var raw any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		raw, err = decodeJSON(data)
	}
	if err != nil {
		return nil, &SourceError{Path: path, Kind: KindSyntax, Err: err}
	}
	return raw, nil
}

func readErrorKind(err error) SourceErrorKind {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, fs.ErrPermission):
		return KindPermission
	default:
		return KindIO
	}
}

// decodeJSON keeps numbers as json.Number so "5" and "5.0" stay distinct.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after top-level value")
	}
	return v, nil
}
