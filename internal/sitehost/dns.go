package sitehost

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// DNSZone is one DNS zone attached to the account.
type DNSZone struct {
	Name string `json:"name"`
}

// DNSRecord is the provider snapshot of one record. Numeric fields
// arrive as strings on the wire.
type DNSRecord struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Content    string `json:"content"`
	Priority   string `json:"prio"`
	ChangeDate string `json:"change_date"`
}

// DNSRecordOpts are the writable fields of a record call.
type DNSRecordOpts struct {
	Domain   string
	RecordID string
	Type     string
	Name     string
	Content  string
	Priority string
}

// SearchZone looks a zone up by domain name. A missing zone is a nil
// result, not an error.
func (c *Client) SearchZone(ctx context.Context, domain string) (*DNSZone, error) {
	q := NewParams().Add("query[domain]", domain)
	env, err := c.Query(ctx, "/dns/search_domains.json", http.MethodPost, q, nil)
	if err != nil {
		return nil, err
	}
	var zones []DNSZone
	if len(env.Return) > 0 && string(env.Return) != "null" {
		if err := json.Unmarshal(env.Return, &zones); err != nil {
			return nil, fmt.Errorf("decode zones for %q: %w", domain, err)
		}
	}
	for i := range zones {
		if zones[i].Name == domain {
			return &zones[i], nil
		}
	}
	if len(zones) > 0 {
		return &zones[0], nil
	}
	return nil, nil
}

// CreateZone creates a DNS zone. Creating a zone that already exists is
// not an error on the provider side.
func (c *Client) CreateZone(ctx context.Context, domain string) error {
	body := NewParams().Add("domain", domain)
	_, err := c.post(ctx, "/dns/create_domain.json", body)
	return err
}

// DeleteZone removes a DNS zone and every record in it.
func (c *Client) DeleteZone(ctx context.Context, domain string) error {
	body := NewParams().Add("domain", domain)
	_, err := c.post(ctx, "/dns/delete_domain.json", body)
	return err
}

// ListRecords returns every record in the zone.
func (c *Client) ListRecords(ctx context.Context, domain string) ([]DNSRecord, error) {
	q := NewParams().Add("domain", domain)
	env, err := c.get(ctx, "/dns/list_records.json", q)
	if err != nil {
		return nil, err
	}
	var records []DNSRecord
	if len(env.Return) > 0 && string(env.Return) != "null" {
		if err := json.Unmarshal(env.Return, &records); err != nil {
			return nil, fmt.Errorf("decode records for %q: %w", domain, err)
		}
	}
	return records, nil
}

// AddRecord creates a record in the zone.
func (c *Client) AddRecord(ctx context.Context, opts DNSRecordOpts) error {
	body := NewParams().
		Add("domain", opts.Domain).
		Add("type", opts.Type).
		Add("name", opts.Name).
		Add("content", opts.Content)
	_, err := c.post(ctx, "/dns/add_record.json", body)
	return err
}

// UpdateRecord rewrites an existing record identified by RecordID.
func (c *Client) UpdateRecord(ctx context.Context, opts DNSRecordOpts) error {
	body := NewParams().
		Add("domain", opts.Domain).
		Add("record_id", opts.RecordID).
		Add("type", opts.Type).
		Add("name", opts.Name).
		Add("content", opts.Content).
		Add("prio", opts.Priority)
	_, err := c.post(ctx, "/dns/update_record.json", body)
	return err
}

// DeleteRecord removes a record from the zone.
func (c *Client) DeleteRecord(ctx context.Context, domain, recordID string) error {
	body := NewParams().
		Add("domain", domain).
		Add("record_id", recordID)
	_, err := c.post(ctx, "/dns/delete_record.json", body)
	return err
}
