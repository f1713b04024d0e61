package config

import (
	"fmt"
)

var dnsRecordTypes = map[string]bool{
	"A":     true,
	"AAAA":  true,
	"CNAME": true,
	"MX":    true,
	"TXT":   true,
	"CAA":   true,
	"SRV":   true,
}

var powerStates = map[State]bool{
	StateStarted:   true,
	StateStopped:   true,
	StateRestarted: true,
}

// Validate checks every declared resource for missing or conflicting
// fields before any API call is made.
func (m *Manifest) Validate() error {
	for i, r := range m.DNSRecords {
		if err := r.validate(); err != nil {
			return fmt.Errorf("dns_records[%d]: %w", i, err)
		}
	}
	for i, s := range m.Servers {
		if err := s.validate(); err != nil {
			return fmt.Errorf("servers[%d]: %w", i, err)
		}
	}
	for i, s := range m.Stacks {
		if err := s.validate(); err != nil {
			return fmt.Errorf("stacks[%d]: %w", i, err)
		}
	}
	return nil
}

func (r DNSRecordSpec) validate() error {
	if r.Domain == "" {
		return fmt.Errorf("domain is required")
	}
	switch r.State {
	case StatePresent, StateAbsent:
	default:
		return fmt.Errorf("state must be present or absent, got %q", r.State)
	}
	if r.State == StatePresent {
		if r.Name == "" {
			return fmt.Errorf("name is required when state is present")
		}
		if !dnsRecordTypes[r.Type] {
			return fmt.Errorf("unsupported record type %q", r.Type)
		}
		if r.Content == "" {
			return fmt.Errorf("content is required when state is present")
		}
	}
	return nil
}

func (s ServerSpec) validate() error {
	switch s.State {
	case StatePresent, StateAbsent, StateStarted, StateStopped, StateRestarted:
	default:
		return fmt.Errorf("unsupported state %q", s.State)
	}

	if s.Label != "" && s.Name != "" {
		return fmt.Errorf("label and name are mutually exclusive")
	}

	switch {
	case s.State == StatePresent:
		if s.Label == "" && s.Name == "" {
			return fmt.Errorf("one of label or name is required when state is present")
		}
		if s.ProductCode == "" {
			return fmt.Errorf("product_code is required when state is present")
		}
		// A new server needs the full provisioning set.
		if s.Label != "" && (s.Location == "" || s.Image == "") {
			return fmt.Errorf("location and image are required when provisioning by label")
		}
	case s.State == StateAbsent, powerStates[s.State]:
		if s.Name == "" {
			return fmt.Errorf("name is required when state is %s", s.State)
		}
	}
	return nil
}

func (s StackSpec) validate() error {
	switch s.State {
	case StatePresent, StateAbsent, StateStarted, StateStopped, StateRestarted:
	default:
		return fmt.Errorf("unsupported state %q", s.State)
	}
	if s.Server == "" {
		return fmt.Errorf("server is required")
	}
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.State == StatePresent && s.DockerCompose == "" {
		return fmt.Errorf("docker_compose is required when state is present")
	}
	return nil
}
