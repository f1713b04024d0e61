package sitehost

import (
	"context"
	"encoding/json"
	"fmt"
)

// Cloud Container hosts are provisioned through the scheduler queue
// rather than the daemon queue.
var cloudContainerProductCodes = map[string]bool{
	"CLDCON1": true,
	"CLDCON2": true,
	"CLDCON4": true,
	"CLDCON6": true,
	"CLDCON8": true,
}

// JobTypeForProduct returns the job queue provisioning work for the
// given product code lands on.
func JobTypeForProduct(productCode string) string {
	if cloudContainerProductCodes[productCode] {
		return JobTypeScheduler
	}
	return JobTypeDaemon
}

// Server is the provider snapshot of one server.
type Server struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	State       string `json:"state"`
	ProductCode string `json:"product_code"`
	Location    string `json:"location_code"`
	IPv4        string `json:"primary_ips,omitempty"`
}

// ProvisionOpts describe a new server.
type ProvisionOpts struct {
	Label       string
	Location    string
	ProductCode string
	Image       string
}

// ProvisionResult is the synchronous part of a provision call. The root
// password is only ever returned here.
type ProvisionResult struct {
	Job      Job
	Name     string
	Password string
}

// GetServer fetches a server by its machine name. A missing server is a
// nil result, not an error.
func (c *Client) GetServer(ctx context.Context, name string) (*Server, error) {
	q := NewParams().Add("name", name)
	env, err := c.get(ctx, "/server/get_server.json", q, SkipStatusCheck())
	if err != nil {
		return nil, err
	}
	if !env.Status {
		return nil, nil
	}
	var srv Server
	if err := json.Unmarshal(env.Return, &srv); err != nil {
		return nil, fmt.Errorf("decode server %q: %w", name, err)
	}
	return &srv, nil
}

// GetServerState returns the current power state, e.g. "On" or "Off".
func (c *Client) GetServerState(ctx context.Context, name string) (string, error) {
	q := NewParams().Add("name", name)
	env, err := c.get(ctx, "/server/get_state.json", q)
	if err != nil {
		return "", err
	}
	var out struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal(env.Return, &out); err != nil {
		return "", fmt.Errorf("decode state for server %q: %w", name, err)
	}
	return out.State, nil
}

// ProvisionServer creates a new server and returns the job to wait on
// together with the generated machine name and root password.
func (c *Client) ProvisionServer(ctx context.Context, opts ProvisionOpts) (*ProvisionResult, error) {
	body := NewParams().
		Add("label", opts.Label).
		Add("location", opts.Location).
		Add("product_code", opts.ProductCode).
		Add("image", opts.Image).
		Add("params[ipv4]", "auto")
	env, err := c.post(ctx, "/server/provision.json", body)
	if err != nil {
		return nil, err
	}

	var out struct {
		JobID    jobID  `json:"job_id"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(env.Return, &out); err != nil {
		return nil, fmt.Errorf("decode provision result: %w", err)
	}
	if out.JobID == "" {
		return nil, fmt.Errorf("provision response carried no job_id")
	}
	return &ProvisionResult{
		Job:      Job{ID: string(out.JobID), Type: JobTypeForProduct(opts.ProductCode)},
		Name:     out.Name,
		Password: out.Password,
	}, nil
}

// DeleteServer destroys a server and returns the job to wait on.
func (c *Client) DeleteServer(ctx context.Context, name string) (*Job, error) {
	body := NewParams().Add("name", name)
	env, err := c.post(ctx, "/server/delete.json", body)
	if err != nil {
		return nil, err
	}
	return decodeJob(env.Return, JobTypeDaemon)
}

// ChangeServerState issues a power transition. state is one of the API
// verbs power_on, power_off or reboot.
func (c *Client) ChangeServerState(ctx context.Context, name, state string) (*Job, error) {
	body := NewParams().
		Add("name", name).
		Add("state", state)
	env, err := c.post(ctx, "/server/change_state.json", body)
	if err != nil {
		return nil, err
	}
	return decodeJob(env.Return, JobTypeDaemon)
}

// UpgradeServerPlan stages a plan change. The change only takes effect
// once CommitServerChanges runs.
func (c *Client) UpgradeServerPlan(ctx context.Context, name, plan string) error {
	body := NewParams().
		Add("name", name).
		Add("plan", plan)
	_, err := c.post(ctx, "/server/upgrade_plan.json", body)
	return err
}

// CommitServerChanges applies a staged plan change, restarting the
// server, and returns the job to wait on.
func (c *Client) CommitServerChanges(ctx context.Context, name string) (*Job, error) {
	body := NewParams().Add("name", name)
	env, err := c.post(ctx, "/server/commit_disk_changes.json", body)
	if err != nil {
		return nil, err
	}
	return decodeJob(env.Return, JobTypeDaemon)
}
