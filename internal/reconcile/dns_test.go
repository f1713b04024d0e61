package reconcile

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitehostnz/shcloud/internal/config"
	"github.com/sitehostnz/shcloud/internal/sitehost"
)

// fakeDNS is an in-memory DNS backend recording every mutating call.
type fakeDNS struct {
	zones   map[string][]sitehost.DNSRecord
	nextID  int
	actions []string
}

func newFakeDNS() *fakeDNS {
	return &fakeDNS{zones: map[string][]sitehost.DNSRecord{}, nextID: 100}
}

func (f *fakeDNS) SearchZone(_ context.Context, domain string) (*sitehost.DNSZone, error) {
	if _, ok := f.zones[domain]; ok {
		return &sitehost.DNSZone{Name: domain}, nil
	}
	return nil, nil
}

func (f *fakeDNS) CreateZone(_ context.Context, domain string) error {
	f.actions = append(f.actions, "create_zone "+domain)
	if _, ok := f.zones[domain]; !ok {
		f.zones[domain] = nil
	}
	return nil
}

func (f *fakeDNS) DeleteZone(_ context.Context, domain string) error {
	f.actions = append(f.actions, "delete_zone "+domain)
	delete(f.zones, domain)
	return nil
}

func (f *fakeDNS) ListRecords(_ context.Context, domain string) ([]sitehost.DNSRecord, error) {
	return f.zones[domain], nil
}

func (f *fakeDNS) AddRecord(_ context.Context, opts sitehost.DNSRecordOpts) error {
	f.actions = append(f.actions, "add_record "+opts.Name)
	f.nextID++
	f.zones[opts.Domain] = append(f.zones[opts.Domain], sitehost.DNSRecord{
		ID:         strconv.Itoa(f.nextID),
		Name:       opts.Name,
		Type:       opts.Type,
		Content:    opts.Content,
		Priority:   "0",
		ChangeDate: strconv.Itoa(1724600000 + f.nextID),
	})
	return nil
}

func (f *fakeDNS) UpdateRecord(_ context.Context, opts sitehost.DNSRecordOpts) error {
	f.actions = append(f.actions, "update_record "+opts.RecordID)
	records := f.zones[opts.Domain]
	for i := range records {
		if records[i].ID == opts.RecordID {
			records[i].Type = opts.Type
			records[i].Name = opts.Name
			records[i].Content = opts.Content
			records[i].Priority = opts.Priority
		}
	}
	return nil
}

func (f *fakeDNS) DeleteRecord(_ context.Context, domain, recordID string) error {
	f.actions = append(f.actions, "delete_record "+recordID)
	records := f.zones[domain]
	for i := range records {
		if records[i].ID == recordID {
			f.zones[domain] = append(records[:i:i], records[i+1:]...)
			break
		}
	}
	return nil
}

func TestDNSAddCreatesZoneFirst(t *testing.T) {
	api := newFakeDNS()
	r := NewDNS(api, false)

	out, err := r.Apply(context.Background(), config.DNSRecordSpec{
		Domain:  "example.com",
		Name:    "www.example.com",
		Type:    "A",
		Content: "203.0.113.7",
		State:   config.StatePresent,
	})
	require.NoError(t, err)

	assert.True(t, out.Changed)
	assert.Equal(t, []string{"create_zone example.com", "add_record www.example.com"}, api.actions)

	rec, ok := out.Resource.(*sitehost.DNSRecord)
	require.True(t, ok)
	assert.Equal(t, "A", rec.Type)
	assert.NotEmpty(t, rec.ID)
}

func TestDNSAddSkipsZoneCreateWhenPresent(t *testing.T) {
	api := newFakeDNS()
	api.zones["example.com"] = nil
	r := NewDNS(api, false)

	out, err := r.Apply(context.Background(), config.DNSRecordSpec{
		Domain:  "example.com",
		Name:    "www.example.com",
		Type:    "A",
		Content: "203.0.113.7",
		State:   config.StatePresent,
	})
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, []string{"add_record www.example.com"}, api.actions)
}

func TestDNSAddPicksNewestRecordAmongDuplicates(t *testing.T) {
	api := newFakeDNS()
	api.zones["example.com"] = []sitehost.DNSRecord{
		{ID: "7", Name: "www.example.com", Type: "A", Content: "198.51.100.1", ChangeDate: "1724000000"},
	}
	r := NewDNS(api, false)

	out, err := r.Apply(context.Background(), config.DNSRecordSpec{
		Domain:  "example.com",
		Name:    "www.example.com",
		Type:    "A",
		Content: "203.0.113.7",
		State:   config.StatePresent,
	})
	require.NoError(t, err)

	rec := out.Resource.(*sitehost.DNSRecord)
	assert.NotEqual(t, "7", rec.ID, "must pick the newly written record, not the pre-existing one")
	assert.Equal(t, "203.0.113.7", rec.Content)
}

func TestDNSApplyLowercasesNames(t *testing.T) {
	api := newFakeDNS()
	r := NewDNS(api, false)

	_, err := r.Apply(context.Background(), config.DNSRecordSpec{
		Domain:  "EXAMPLE.com",
		Name:    "WWW.Example.COM",
		Type:    "A",
		Content: "203.0.113.7",
		State:   config.StatePresent,
	})
	require.NoError(t, err)
	assert.Contains(t, api.actions, "create_zone example.com")
	assert.Contains(t, api.actions, "add_record www.example.com")
}

func TestDNSUpdateNoopWhenEqual(t *testing.T) {
	api := newFakeDNS()
	api.zones["example.com"] = []sitehost.DNSRecord{
		{ID: "7", Name: "www.example.com", Type: "A", Content: "203.0.113.7", Priority: "0"},
	}
	r := NewDNS(api, false)

	out, err := r.Apply(context.Background(), config.DNSRecordSpec{
		Domain:   "example.com",
		RecordID: "7",
		Name:     "www.example.com",
		Type:     "A",
		Content:  "203.0.113.7",
		State:    config.StatePresent,
	})
	require.NoError(t, err)
	assert.False(t, out.Changed)
	assert.Empty(t, api.actions)
}

func TestDNSUpdateUnsetFieldsAreUnmanaged(t *testing.T) {
	api := newFakeDNS()
	api.zones["example.com"] = []sitehost.DNSRecord{
		{ID: "7", Name: "example.com", Type: "MX", Content: "mail.example.com", Priority: "10"},
	}
	r := NewDNS(api, false)

	// Only content declared; type, name and priority must carry over.
	out, err := r.Apply(context.Background(), config.DNSRecordSpec{
		Domain:   "example.com",
		RecordID: "7",
		Content:  "mail2.example.com",
		State:    config.StatePresent,
	})
	require.NoError(t, err)
	assert.True(t, out.Changed)

	rec := api.zones["example.com"][0]
	assert.Equal(t, "MX", rec.Type)
	assert.Equal(t, "example.com", rec.Name)
	assert.Equal(t, "mail2.example.com", rec.Content)
	assert.Equal(t, "10", rec.Priority)
}

func TestDNSUpdatePriorityDiff(t *testing.T) {
	api := newFakeDNS()
	api.zones["example.com"] = []sitehost.DNSRecord{
		{ID: "7", Name: "example.com", Type: "MX", Content: "mail.example.com", Priority: "10"},
	}
	r := NewDNS(api, false)

	prio := 20
	out, err := r.Apply(context.Background(), config.DNSRecordSpec{
		Domain:   "example.com",
		RecordID: "7",
		Priority: &prio,
		State:    config.StatePresent,
	})
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, "20", api.zones["example.com"][0].Priority)
}

func TestDNSUpdateMissingZoneOrRecordErrors(t *testing.T) {
	r := NewDNS(newFakeDNS(), false)
	_, err := r.Apply(context.Background(), config.DNSRecordSpec{
		Domain:   "example.com",
		RecordID: "7",
		State:    config.StatePresent,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zone")

	api := newFakeDNS()
	api.zones["example.com"] = nil
	r = NewDNS(api, false)
	_, err = r.Apply(context.Background(), config.DNSRecordSpec{
		Domain:   "example.com",
		RecordID: "7",
		State:    config.StatePresent,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record")
}

func TestDNSRecordIDConflict(t *testing.T) {
	api := newFakeDNS()
	api.zones["example.com"] = []sitehost.DNSRecord{
		{ID: "7", Name: "a.example.com"},
		{ID: "7", Name: "b.example.com"},
	}
	r := NewDNS(api, false)

	_, err := r.Apply(context.Background(), config.DNSRecordSpec{
		Domain:   "example.com",
		RecordID: "7",
		State:    config.StatePresent,
	})
	require.Error(t, err)

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, 2, conflict.Matches)
}

func TestDNSAbsentRecord(t *testing.T) {
	api := newFakeDNS()
	api.zones["example.com"] = []sitehost.DNSRecord{{ID: "7", Name: "www.example.com"}}
	r := NewDNS(api, false)

	out, err := r.Apply(context.Background(), config.DNSRecordSpec{
		Domain:   "example.com",
		RecordID: "7",
		State:    config.StateAbsent,
	})
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Empty(t, api.zones["example.com"])

	// A second run is a no-op.
	out, err = r.Apply(context.Background(), config.DNSRecordSpec{
		Domain:   "example.com",
		RecordID: "7",
		State:    config.StateAbsent,
	})
	require.NoError(t, err)
	assert.False(t, out.Changed)
}

func TestDNSAbsentZone(t *testing.T) {
	api := newFakeDNS()
	api.zones["example.com"] = []sitehost.DNSRecord{{ID: "7"}}
	r := NewDNS(api, false)

	out, err := r.Apply(context.Background(), config.DNSRecordSpec{
		Domain: "example.com",
		State:  config.StateAbsent,
	})
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, []string{"delete_zone example.com"}, api.actions)

	out, err = r.Apply(context.Background(), config.DNSRecordSpec{
		Domain: "example.com",
		State:  config.StateAbsent,
	})
	require.NoError(t, err)
	assert.False(t, out.Changed)
}

func TestDNSCheckModeNeverMutates(t *testing.T) {
	api := newFakeDNS()
	api.zones["example.com"] = []sitehost.DNSRecord{
		{ID: "7", Name: "www.example.com", Type: "A", Content: "198.51.100.1"},
	}
	r := NewDNS(api, true)

	specs := []config.DNSRecordSpec{
		{Domain: "example.com", Name: "new.example.com", Type: "A", Content: "203.0.113.9", State: config.StatePresent},
		{Domain: "example.com", RecordID: "7", Content: "203.0.113.9", State: config.StatePresent},
		{Domain: "example.com", RecordID: "7", State: config.StateAbsent},
		{Domain: "example.com", State: config.StateAbsent},
		{Domain: "fresh.example.net", Name: "a.fresh.example.net", Type: "A", Content: "203.0.113.9", State: config.StatePresent},
	}
	for _, spec := range specs {
		out, err := r.Apply(context.Background(), spec)
		require.NoError(t, err)
		assert.True(t, out.Changed, "spec %+v", spec)
	}

	assert.Empty(t, api.actions, "check mode must not mutate")

	// A no-op stays a no-op in check mode.
	out, err := r.Apply(context.Background(), config.DNSRecordSpec{
		Domain:   "example.com",
		RecordID: "7",
		Content:  "198.51.100.1",
		State:    config.StatePresent,
	})
	require.NoError(t, err)
	assert.False(t, out.Changed)
}
