package reconcile

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sitehostnz/shcloud/internal/config"
	"github.com/sitehostnz/shcloud/internal/sitehost"
)

// dnsAPI is the slice of the API client the DNS reconciler consumes.
type dnsAPI interface {
	SearchZone(ctx context.Context, domain string) (*sitehost.DNSZone, error)
	CreateZone(ctx context.Context, domain string) error
	DeleteZone(ctx context.Context, domain string) error
	ListRecords(ctx context.Context, domain string) ([]sitehost.DNSRecord, error)
	AddRecord(ctx context.Context, opts sitehost.DNSRecordOpts) error
	UpdateRecord(ctx context.Context, opts sitehost.DNSRecordOpts) error
	DeleteRecord(ctx context.Context, domain, recordID string) error
}

// DNS reconciles DNS zones and records. DNS calls complete
// synchronously; no jobs are involved.
type DNS struct {
	api   dnsAPI
	check bool
}

// NewDNS returns a DNS reconciler. With check set, no mutating calls are
// issued.
func NewDNS(api dnsAPI, check bool) *DNS {
	return &DNS{api: api, check: check}
}

// Apply reconciles one DNS declaration.
func (r *DNS) Apply(ctx context.Context, spec config.DNSRecordSpec) (Outcome, error) {
	// The provider stores domains and record names lowercased.
	spec.Domain = strings.ToLower(spec.Domain)
	spec.Name = strings.ToLower(spec.Name)

	if spec.State == config.StateAbsent {
		return r.absent(ctx, spec)
	}
	if spec.RecordID != "" {
		return r.update(ctx, spec)
	}
	return r.add(ctx, spec)
}

// update rewrites an existing record selected by record_id. Only fields
// in the updatable allow-list (type, name, content, priority) are
// diffed; an empty diff is a no-op.
func (r *DNS) update(ctx context.Context, spec config.DNSRecordSpec) (Outcome, error) {
	zone, err := r.api.SearchZone(ctx, spec.Domain)
	if err != nil {
		return Outcome{}, err
	}
	if zone == nil {
		return Outcome{}, fmt.Errorf("DNS zone %q does not exist", spec.Domain)
	}

	rec, err := r.recordByID(ctx, spec.Domain, spec.RecordID)
	if err != nil {
		return Outcome{}, err
	}
	if rec == nil {
		return Outcome{}, fmt.Errorf("DNS record %q does not exist in zone %q", spec.RecordID, spec.Domain)
	}

	if !recordNeedsUpdate(rec, spec) {
		return Outcome{Changed: false, Msg: fmt.Sprintf("DNS record %s is up to date", rec.ID), Resource: rec}, nil
	}
	if r.check {
		return Outcome{Changed: true, Msg: fmt.Sprintf("DNS record %s would be updated", rec.ID), Resource: rec}, nil
	}

	if err := r.api.UpdateRecord(ctx, mergeRecordOpts(rec, spec)); err != nil {
		return Outcome{}, err
	}

	updated, err := r.recordByID(ctx, spec.Domain, spec.RecordID)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Changed: true, Msg: fmt.Sprintf("DNS record %s updated", spec.RecordID), Resource: updated}, nil
}

// add creates a record, creating the parent zone first when it does not
// exist yet. The two-step create is intentional; an already existing
// zone is not an error.
func (r *DNS) add(ctx context.Context, spec config.DNSRecordSpec) (Outcome, error) {
	zone, err := r.api.SearchZone(ctx, spec.Domain)
	if err != nil {
		return Outcome{}, err
	}

	if r.check {
		return Outcome{Changed: true, Msg: fmt.Sprintf("DNS record %s would be created", spec.Name)}, nil
	}

	if zone == nil {
		if err := r.api.CreateZone(ctx, spec.Domain); err != nil {
			return Outcome{}, err
		}
	}

	if err := r.api.AddRecord(ctx, sitehost.DNSRecordOpts{
		Domain:  spec.Domain,
		Type:    spec.Type,
		Name:    spec.Name,
		Content: spec.Content,
	}); err != nil {
		return Outcome{}, err
	}

	rec, err := r.latestRecordByName(ctx, spec.Domain, spec.Name)
	if err != nil {
		return Outcome{}, err
	}
	if rec == nil {
		return Outcome{}, fmt.Errorf("created DNS record %q not found in zone %q", spec.Name, spec.Domain)
	}
	return Outcome{Changed: true, Msg: fmt.Sprintf("DNS record created with id %s", rec.ID), Resource: rec}, nil
}

// absent deletes a record when record_id is set, otherwise the whole
// zone. Deleting something already gone is a no-op, never an error.
func (r *DNS) absent(ctx context.Context, spec config.DNSRecordSpec) (Outcome, error) {
	zone, err := r.api.SearchZone(ctx, spec.Domain)
	if err != nil {
		return Outcome{}, err
	}
	if zone == nil {
		return Outcome{Changed: false, Msg: fmt.Sprintf("DNS zone %s already absent", spec.Domain)}, nil
	}

	if spec.RecordID == "" {
		if r.check {
			return Outcome{Changed: true, Msg: fmt.Sprintf("DNS zone %s would be deleted", spec.Domain)}, nil
		}
		if err := r.api.DeleteZone(ctx, spec.Domain); err != nil {
			return Outcome{}, err
		}
		return Outcome{Changed: true, Msg: fmt.Sprintf("DNS zone %s deleted", spec.Domain)}, nil
	}

	rec, err := r.recordByID(ctx, spec.Domain, spec.RecordID)
	if err != nil {
		return Outcome{}, err
	}
	if rec == nil {
		return Outcome{Changed: false, Msg: fmt.Sprintf("DNS record %s already absent", spec.RecordID)}, nil
	}
	if r.check {
		return Outcome{Changed: true, Msg: fmt.Sprintf("DNS record %s would be deleted", spec.RecordID)}, nil
	}
	if err := r.api.DeleteRecord(ctx, spec.Domain, spec.RecordID); err != nil {
		return Outcome{}, err
	}
	return Outcome{Changed: true, Msg: fmt.Sprintf("DNS record %s deleted", spec.RecordID)}, nil
}

// recordByID finds a record by id. More than one match is a conflict.
func (r *DNS) recordByID(ctx context.Context, domain, recordID string) (*sitehost.DNSRecord, error) {
	records, err := r.api.ListRecords(ctx, domain)
	if err != nil {
		return nil, err
	}
	var found *sitehost.DNSRecord
	matches := 0
	for i := range records {
		if records[i].ID == recordID {
			matches++
			found = &records[i]
		}
	}
	if matches > 1 {
		return nil, &ConflictError{Kind: "DNS record", Key: recordID, Matches: matches}
	}
	return found, nil
}

// latestRecordByName returns the record with the given name carrying the
// highest change_date, i.e. the most recently written one.
func (r *DNS) latestRecordByName(ctx context.Context, domain, name string) (*sitehost.DNSRecord, error) {
	records, err := r.api.ListRecords(ctx, domain)
	if err != nil {
		return nil, err
	}
	var latest *sitehost.DNSRecord
	latestDate := -1
	for i := range records {
		if records[i].Name != name {
			continue
		}
		date, _ := strconv.Atoi(records[i].ChangeDate)
		if date > latestDate {
			latestDate = date
			latest = &records[i]
		}
	}
	return latest, nil
}

// recordNeedsUpdate diffs the declared fields against the remote record,
// restricted to the updatable allow-list. Unset fields are unmanaged.
func recordNeedsUpdate(rec *sitehost.DNSRecord, spec config.DNSRecordSpec) bool {
	if spec.Type != "" && spec.Type != rec.Type {
		return true
	}
	if spec.Name != "" && spec.Name != rec.Name {
		return true
	}
	if spec.Content != "" && spec.Content != rec.Content {
		return true
	}
	if spec.Priority != nil && strconv.Itoa(*spec.Priority) != rec.Priority {
		return true
	}
	return false
}

// mergeRecordOpts builds the update payload: declared fields where set,
// current remote values otherwise. The endpoint rewrites the whole
// record, so unmanaged fields must be carried over.
func mergeRecordOpts(rec *sitehost.DNSRecord, spec config.DNSRecordSpec) sitehost.DNSRecordOpts {
	opts := sitehost.DNSRecordOpts{
		Domain:   spec.Domain,
		RecordID: rec.ID,
		Type:     rec.Type,
		Name:     rec.Name,
		Content:  rec.Content,
		Priority: rec.Priority,
	}
	if spec.Type != "" {
		opts.Type = spec.Type
	}
	if spec.Name != "" {
		opts.Name = spec.Name
	}
	if spec.Content != "" {
		opts.Content = spec.Content
	}
	if spec.Priority != nil {
		opts.Priority = strconv.Itoa(*spec.Priority)
	}
	return opts
}
