// Package odps implements the Open Data Product Standard importer
// (spec.md §4.4.7). It decodes the data-product YAML into a typed struct,
// the same discipline internal/importer/odcs applies to its own format.
//
// Unlike the other six formats, an ODPS document does not describe a
// table: it is a product descriptor referencing contracts by id. It is
// deliberately not wired into the importer.Register/Import dispatch
// table, which is typed around producing []*core.Table; callers invoke
// Import directly, and neither the CLI nor internal/detect calls it.
package odps

import (
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"contractkit/internal/core"
	"contractkit/internal/importer"
)

// port is the typed shape of one input/output port entry.
type port struct {
	Name       string `yaml:"name"`
	ContractID string `yaml:"contractId"`
}

// document is the typed shape of an ODPS data-product document.
type document struct {
	APIVersion  string     `yaml:"apiVersion"`
	Kind        string     `yaml:"kind"`
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Status      string     `yaml:"status"`
	InputPorts  *[]port    `yaml:"inputPorts"`
	OutputPorts *[]port    `yaml:"outputPorts"`
	CreatedAt   *time.Time `yaml:"createdAt"`
}

// Import parses an ODPS document. knownContractIDs, when non-nil, is the
// set of contract ids valid at import time; any port referencing an id
// outside that set is a *core.ValidationError (spec.md §4.4.7). A nil
// set skips that check (best-effort parse, validation capability off).
//
// Empty vs. absent port lists are preserved distinctly: an absent
// inputPorts/outputPorts key yields a nil slice on the DataProduct, an
// explicit [] yields a non-nil empty slice, so export can round-trip the
// distinction.
func Import(data []byte, knownContractIDs map[string]bool) (*core.DataProduct, []importer.ParseDiagnostic, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, &core.ParseError{Format: string(importer.FormatODPS), Detail: "top-level document", Err: err}
	}

	product := &core.DataProduct{
		Name:   doc.Name,
		Status: core.Status(doc.Status),
	}
	if doc.ID != "" {
		if parsed, err := uuid.Parse(doc.ID); err == nil {
			product.ID = parsed
		}
	}

	var diags []importer.ParseDiagnostic

	if doc.InputPorts != nil {
		product.InputPorts = make([]core.Port, 0, len(*doc.InputPorts))
		for _, p := range *doc.InputPorts {
			cp, err := convertPort(p, knownContractIDs)
			if err != nil {
				return nil, diags, err
			}
			product.InputPorts = append(product.InputPorts, cp)
		}
	}
	if doc.OutputPorts != nil {
		product.OutputPorts = make([]core.Port, 0, len(*doc.OutputPorts))
		for _, p := range *doc.OutputPorts {
			cp, err := convertPort(p, knownContractIDs)
			if err != nil {
				return nil, diags, err
			}
			product.OutputPorts = append(product.OutputPorts, cp)
		}
	}

	return product, diags, nil
}

func convertPort(p port, knownContractIDs map[string]bool) (core.Port, error) {
	if knownContractIDs != nil && !knownContractIDs[p.ContractID] {
		return core.Port{}, &core.ValidationError{Detail: "port " + p.Name + " references unknown contractId " + p.ContractID}
	}
	cp := core.Port{Name: p.Name}
	if parsed, err := uuid.Parse(p.ContractID); err == nil {
		cp.ContractID = parsed
	}
	return cp, nil
}
