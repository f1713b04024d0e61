// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command
// definitions in the commands package. Handlers are framework-agnostic
// and can be tested independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"log"

	"github.com/sitehostnz/shcloud/internal/config"
	"github.com/sitehostnz/shcloud/internal/reconcile"
	"github.com/sitehostnz/shcloud/internal/sitehost"
)

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// loadCredentials reads account credentials from the environment.
	loadCredentials = config.LoadCredentials

	// loadTimeouts reads client tuning from the environment.
	loadTimeouts = config.LoadTimeouts

	// loadManifest loads and validates the desired-state manifest.
	loadManifest = config.LoadManifest

	// newClient creates the API client.
	newClient = func(cfg sitehost.Config) (*sitehost.Client, error) {
		return sitehost.New(cfg)
	}
)

// Apply reconciles the manifest at manifestPath against the SiteHost
// account selected by the SH_API_KEY and SH_CLIENT_ID environment
// variables.
//
// Resources are reconciled in a fixed kind order (DNS records, then
// servers, then stacks), each kind in declaration order, so a manifest
// can provision a server and then place a stack on it in one run. The
// first error stops the run; everything reconciled before it stays
// applied.
//
// In check mode every lookup still happens but no mutating call is
// issued; outcomes report what a real run would change.
func Apply(ctx context.Context, manifestPath string, check bool) error {
	creds, err := loadCredentials()
	if err != nil {
		return err
	}
	tuning := loadTimeouts()

	manifest, err := loadManifest(manifestPath)
	if err != nil {
		return err
	}

	client, err := newClient(sitehost.Config{
		Endpoint:     creds.Endpoint,
		APIKey:       creds.APIKey,
		ClientID:     creds.ClientID,
		Timeout:      tuning.APITimeout,
		JobPollLimit: tuning.JobPollLimit,
		JobMaxDelay:  tuning.JobMaxDelay,
	})
	if err != nil {
		return err
	}

	mode := "apply"
	if check {
		mode = "check"
	}
	log.Printf("Reconciling %d resources from %s (mode: %s)", manifest.Len(), manifestPath, mode)

	changed, err := reconcileAll(ctx, client, manifest, check)
	if err != nil {
		return err
	}

	if check {
		log.Printf("Check complete: %d of %d resources would change", changed, manifest.Len())
	} else {
		log.Printf("Apply complete: %d of %d resources changed", changed, manifest.Len())
	}
	return nil
}

// reconcileAll walks the manifest in kind order and returns how many
// resources changed (or would change, in check mode).
func reconcileAll(ctx context.Context, client *sitehost.Client, manifest *config.Manifest, check bool) (int, error) {
	changed := 0

	dns := reconcile.NewDNS(client, check)
	for i, spec := range manifest.DNSRecords {
		out, err := dns.Apply(ctx, spec)
		if err != nil {
			return changed, fmt.Errorf("dns record %d (%s): %w", i, dnsRecordKey(spec), err)
		}
		logOutcome("dns record", dnsRecordKey(spec), out)
		if out.Changed {
			changed++
		}
	}

	servers := reconcile.NewServer(client, check)
	for i, spec := range manifest.Servers {
		out, err := servers.Apply(ctx, spec)
		if err != nil {
			return changed, fmt.Errorf("server %d (%s): %w", i, serverKey(spec), err)
		}
		logOutcome("server", serverKey(spec), out)
		if out.Changed {
			changed++
		}
	}

	stacks := reconcile.NewStack(client, check)
	for i, spec := range manifest.Stacks {
		out, err := stacks.Apply(ctx, spec)
		if err != nil {
			return changed, fmt.Errorf("stack %d (%s): %w", i, stackKey(spec), err)
		}
		logOutcome("stack", stackKey(spec), out)
		if out.Changed {
			changed++
		}
	}

	return changed, nil
}

func logOutcome(kind, key string, out reconcile.Outcome) {
	verdict := "ok"
	if out.Changed {
		verdict = "changed"
	}
	if out.Msg != "" {
		log.Printf("%s %s: %s, %s", kind, key, verdict, out.Msg)
		return
	}
	log.Printf("%s %s: %s", kind, key, verdict)
}

func dnsRecordKey(spec config.DNSRecordSpec) string {
	if spec.Name != "" {
		return spec.Name
	}
	return spec.Domain
}

func serverKey(spec config.ServerSpec) string {
	if spec.Name != "" {
		return spec.Name
	}
	return spec.Label
}

func stackKey(spec config.StackSpec) string {
	return spec.Server + "/" + spec.Name
}
