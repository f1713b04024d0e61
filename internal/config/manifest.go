package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// State is the declared lifecycle target of one resource.
type State string

// Lifecycle targets. DNS records support present and absent; servers and
// stacks additionally support the power states.
const (
	StatePresent   State = "present"
	StateAbsent    State = "absent"
	StateStarted   State = "started"
	StateStopped   State = "stopped"
	StateRestarted State = "restarted"
)

// Manifest declares the desired state of SiteHost resources for one run.
// Omitted fields mean "leave unmanaged", not "clear".
type Manifest struct {
	DNSRecords []DNSRecordSpec `mapstructure:"dns_records" yaml:"dns_records"`
	Servers    []ServerSpec    `mapstructure:"servers" yaml:"servers"`
	Stacks     []StackSpec     `mapstructure:"stacks" yaml:"stacks"`
}

// DNSRecordSpec declares one DNS record (or, with state absent and no
// record_id, a whole zone).
type DNSRecordSpec struct {
	Domain   string `mapstructure:"domain" yaml:"domain"`
	RecordID string `mapstructure:"record_id" yaml:"record_id"`
	Name     string `mapstructure:"name" yaml:"name"`
	Type     string `mapstructure:"type" yaml:"type"`
	Content  string `mapstructure:"content" yaml:"content"`
	Priority *int   `mapstructure:"priority" yaml:"priority"`
	State    State  `mapstructure:"state" yaml:"state"`
}

// ServerSpec declares one server. Label selects a server to provision,
// name selects an existing server; the two are mutually exclusive.
type ServerSpec struct {
	Label       string `mapstructure:"label" yaml:"label"`
	Name        string `mapstructure:"name" yaml:"name"`
	Location    string `mapstructure:"location" yaml:"location"`
	ProductCode string `mapstructure:"product_code" yaml:"product_code"`
	Image       string `mapstructure:"image" yaml:"image"`
	State       State  `mapstructure:"state" yaml:"state"`
}

// StackSpec declares one Cloud Container stack on a server.
type StackSpec struct {
	Server        string `mapstructure:"server" yaml:"server"`
	Name          string `mapstructure:"name" yaml:"name"`
	Label         string `mapstructure:"label" yaml:"label"`
	DockerCompose string `mapstructure:"docker_compose" yaml:"docker_compose"`
	State         State  `mapstructure:"state" yaml:"state"`
}

// Len returns the number of declared resources.
func (m *Manifest) Len() int {
	return len(m.DNSRecords) + len(m.Servers) + len(m.Stacks)
}

// LoadManifest reads and parses the manifest from a YAML file, applies
// defaults, and validates cross-field requirements.
func LoadManifest(path string) (*Manifest, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	var m Manifest
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &m,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}

	m.applyDefaults()

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest validation failed: %w", err)
	}

	return &m, nil
}

// applyDefaults fills in the implied state and normalizes DNS names,
// which the provider stores lowercased.
func (m *Manifest) applyDefaults() {
	for i := range m.DNSRecords {
		if m.DNSRecords[i].State == "" {
			m.DNSRecords[i].State = StatePresent
		}
		m.DNSRecords[i].Domain = strings.ToLower(m.DNSRecords[i].Domain)
		m.DNSRecords[i].Name = strings.ToLower(m.DNSRecords[i].Name)
	}
	for i := range m.Servers {
		if m.Servers[i].State == "" {
			m.Servers[i].State = StatePresent
		}
	}
	for i := range m.Stacks {
		if m.Stacks[i].State == "" {
			m.Stacks[i].State = StatePresent
		}
	}
}
