// Package sitehost provides a client for the SiteHost REST API with
// response-envelope handling and asynchronous job polling.
//
// # Architecture
//
// The package is organized into per-concern files:
//
//   - client.go: client construction and the low-level Query call
//   - params.go: ordered form/query parameter serialization
//   - errors.go: error taxonomy and classification helpers
//   - job.go: job polling with capped exponential backoff
//   - dns.go: DNS zone and record endpoints
//   - server.go: server lifecycle endpoints
//   - stack.go: Cloud Container stack endpoints
//
// # Wire protocol
//
// Every call is authenticated by the apikey and client_id query
// parameters. Mutating calls additionally serialize apikey followed by
// client_id as the first two fields of the urlencoded body; several
// endpoints reject payloads where those fields are not first, so the
// body builder places them there by construction.
//
// Responses use a common JSON envelope {status, msg, return}. A false
// status field is a logical failure even when the HTTP exchange
// succeeded, and takes precedence over the transport status code.
//
// # Job polling
//
// Calls that enqueue provider-side work return a job reference.
// WaitForJob polls /job/get.json until the job reaches its target
// state, the provider reports Failed, or the poll bound is exhausted.
// The delay between polls grows exponentially with fresh jitter each
// poll and is capped at a configurable maximum.
package sitehost
