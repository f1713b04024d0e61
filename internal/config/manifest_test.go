package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shcloud.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, `
dns_records:
  - domain: Example.COM
    name: WWW.Example.com
    type: A
    content: 203.0.113.7
  - domain: example.com
    record_id: "101"
    state: absent

servers:
  - label: web
    location: AKLCITY
    product_code: XENLIT
    image: ubuntu-jammy-pvh.amd64
  - name: server1
    state: restarted

stacks:
  - server: server1
    name: stack1
    label: app
    docker_compose: |
      version: '2.1'
      services:
        app:
          image: registry.example.com/app:1
`)

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, 5, m.Len())

	// States default to present, DNS names are normalized to lower case.
	require.Len(t, m.DNSRecords, 2)
	assert.Equal(t, StatePresent, m.DNSRecords[0].State)
	assert.Equal(t, "example.com", m.DNSRecords[0].Domain)
	assert.Equal(t, "www.example.com", m.DNSRecords[0].Name)
	assert.Equal(t, StateAbsent, m.DNSRecords[1].State)
	assert.Equal(t, "101", m.DNSRecords[1].RecordID)

	require.Len(t, m.Servers, 2)
	assert.Equal(t, StatePresent, m.Servers[0].State)
	assert.Equal(t, StateRestarted, m.Servers[1].State)

	require.Len(t, m.Stacks, 1)
	assert.Equal(t, StatePresent, m.Stacks[0].State)
	assert.Contains(t, m.Stacks[0].DockerCompose, "version: '2.1'")
}

func TestLoadManifestWeakTyping(t *testing.T) {
	// Unquoted YAML scalars decode into string fields.
	path := writeManifest(t, `
dns_records:
  - domain: example.com
    name: example.com
    type: MX
    content: mail.example.com
    priority: 10
`)

	m, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, m.DNSRecords, 1)
	require.NotNil(t, m.DNSRecords[0].Priority)
	assert.Equal(t, 10, *m.DNSRecords[0].Priority)
}

func TestLoadManifestMissingFile(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read manifest")
}

func TestLoadManifestBadYAML(t *testing.T) {
	path := writeManifest(t, "dns_records: [unclosed")
	_, err := LoadManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal yaml")
}

func TestLoadManifestValidationFailure(t *testing.T) {
	path := writeManifest(t, `
dns_records:
  - domain: example.com
    name: www.example.com
    type: PTR
    content: 203.0.113.7
`)
	_, err := LoadManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dns_records[0]")
	assert.Contains(t, err.Error(), "PTR")
}
