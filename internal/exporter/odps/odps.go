// Package odps implements the ODPS exporter half of the pair started in
// internal/importer/odps (spec.md §4.5/§4.4.7). Like its importer
// counterpart, ODPS describes a data product (not a table), so this
// package exports a *core.DataProduct directly rather than going through
// the internal/exporter.Exporter/Register dispatch table, which is typed
// around *core.Table.
package odps

import (
	"time"

	"gopkg.in/yaml.v3"

	"contractkit/internal/core"
	"contractkit/internal/exporter"
	"contractkit/internal/importer"
)

type port struct {
	Name       string `yaml:"name"`
	ContractID string `yaml:"contractId"`
}

// document mirrors internal/importer/odps's document; InputPorts/
// OutputPorts stay pointers so an absent vs. empty port list round-trips
// distinctly, matching the importer's own nil-vs-empty-slice convention.
type document struct {
	APIVersion  string     `yaml:"apiVersion"`
	Kind        string     `yaml:"kind"`
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Status      string     `yaml:"status,omitempty"`
	InputPorts  *[]port    `yaml:"inputPorts,omitempty"`
	OutputPorts *[]port    `yaml:"outputPorts,omitempty"`
	CreatedAt   *time.Time `yaml:"createdAt,omitempty"`
}

// Export converts p to its ODPS YAML byte representation.
func Export(p *core.DataProduct) (*exporter.Result, error) {
	doc := document{
		APIVersion: "v1.0.0",
		Kind:       "DataProduct",
		ID:         p.ID.String(),
		Name:       p.Name,
		Status:     string(p.Status),
	}

	if p.InputPorts != nil {
		ports := make([]port, 0, len(p.InputPorts))
		for _, ip := range p.InputPorts {
			ports = append(ports, port{Name: ip.Name, ContractID: ip.ContractID.String()})
		}
		doc.InputPorts = &ports
	}
	if p.OutputPorts != nil {
		ports := make([]port, 0, len(p.OutputPorts))
		for _, op := range p.OutputPorts {
			ports = append(ports, port{Name: op.Name, ContractID: op.ContractID.String()})
		}
		doc.OutputPorts = &ports
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, &core.IOError{Op: "odps export marshal", Err: err}
	}
	return &exporter.Result{Format: importer.FormatODPS, Data: data}, nil
}
