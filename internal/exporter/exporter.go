// Package exporter defines the shared contract every format-specific
// exporter implements (spec.md §4.5) and a dispatch table mirroring
// internal/importer's registry, grounded in the same teacher
// internal/introspect.Register/NewIntrospecter pattern generalized from
// one capability method to the Exporter interface below.
package exporter

import (
	"fmt"
	"sync"

	"contractkit/internal/core"
	"contractkit/internal/importer"
)

// Result is the shared output shape of every exporter: bytes plus the
// format tag that produced them. No exporter throws on well-formed
// canonical input (spec.md §4.5); a hard failure is a returned error.
type Result struct {
	Format importer.Format
	Data   []byte
}

// Exporter is the shared contract every format-specific exporter
// implements.
type Exporter interface {
	Export(t *core.Table) (*Result, error)
}

// ExporterFunc adapts a plain function to the Exporter interface.
type ExporterFunc func(t *core.Table) (*Result, error)

// Export implements Exporter.
func (f ExporterFunc) Export(t *core.Table) (*Result, error) { return f(t) }

var (
	mu       sync.RWMutex
	registry = make(map[importer.Format]Exporter)
)

// Register adds an exporter for format to the shared registry. Format
// packages call this from an init() function, the same wiring style the
// importer registry and the teacher's dialect-specific introspecters use.
func Register(format importer.Format, exp Exporter) {
	mu.Lock()
	defer mu.Unlock()
	registry[format] = exp
}

// Lookup returns the registered exporter for format.
func Lookup(format importer.Format) (Exporter, error) {
	mu.RLock()
	exp, ok := registry[format]
	mu.RUnlock()
	if !ok {
		return nil, &core.UnsupportedFormatError{Detail: fmt.Sprintf("no exporter registered for format %q", format)}
	}
	return exp, nil
}

// Export looks up the exporter for format and runs it.
func Export(format importer.Format, t *core.Table) (*Result, error) {
	exp, err := Lookup(format)
	if err != nil {
		return nil, err
	}
	return exp.Export(t)
}
