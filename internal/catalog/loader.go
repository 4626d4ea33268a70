package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed data/default.yaml
var defaultYAML []byte

// Parse decodes and validates a YAML catalog. Unknown fields are rejected.
func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty catalog")
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}
	return &c, nil
}

// Default returns a fresh copy of the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultYAML)
}

// Loader reads catalogs from disk or from the embedded default.
type Loader struct {
	path    string
	maxSize int64
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithPath loads from a YAML file instead of the embedded catalog.
func WithPath(path string) LoaderOption {
	return func(l *Loader) {
		l.path = path
	}
}

// WithMaxSize caps the file size accepted from disk.
func WithMaxSize(n int64) LoaderOption {
	return func(l *Loader) {
		l.maxSize = n
	}
}

// DefaultMaxSize is the largest catalog file read from disk.
const DefaultMaxSize = 8 << 20

// NewLoader creates a catalog loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadResult contains the outcome of a load.
type LoadResult struct {
	Catalog  *Catalog
	LoadedAt time.Time
	Duration time.Duration
	Source   string
	Error    error
}

// Load reads and validates the catalog.
func (l *Loader) Load(ctx context.Context) LoadResult {
	start := time.Now()
	result := LoadResult{LoadedAt: start, Source: l.Source()}

	raw, err := l.readRaw(ctx)
	if err != nil {
		result.Duration = time.Since(start)
		result.Error = err
		return result
	}

	cat, err := Parse(raw)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = fmt.Errorf("parse %s: %w", result.Source, err)
		return result
	}
	result.Catalog = cat
	return result
}

// Source describes where the catalog comes from.
func (l *Loader) Source() string {
	if l.path == "" {
		return "embedded"
	}
	return l.path
}

func (l *Loader) readRaw(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.path == "" {
		return defaultYAML, nil
	}

	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, l.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if int64(len(data)) > l.maxSize {
		return nil, fmt.Errorf("catalog %s exceeds %d bytes", l.path, l.maxSize)
	}
	return data, nil
}
