package sitehost

import (
	"context"
	"encoding/json"
	"fmt"
)

// Container is one container inside a stack.
type Container struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

// Stack is the provider snapshot of one Cloud Container stack.
type Stack struct {
	Name          string      `json:"name"`
	Label         string      `json:"label"`
	Server        string      `json:"server"`
	DockerCompose string      `json:"docker_compose"`
	Containers    []Container `json:"containers"`
}

// StackOpts describe a stack create or update.
type StackOpts struct {
	Server        string
	Name          string
	Label         string
	DockerCompose string
}

// GetStack fetches a stack by server and name. A missing stack is a nil
// result, not an error.
func (c *Client) GetStack(ctx context.Context, server, name string) (*Stack, error) {
	q := NewParams().
		Add("server", server).
		Add("name", name)
	env, err := c.get(ctx, "/cloud/stack/get.json", q, SkipStatusCheck())
	if err != nil {
		return nil, err
	}
	if !env.Status {
		return nil, nil
	}
	var st Stack
	if err := json.Unmarshal(env.Return, &st); err != nil {
		return nil, fmt.Errorf("decode stack %q: %w", name, err)
	}
	return &st, nil
}

// AddStack creates a stack and returns the scheduler job to wait on.
func (c *Client) AddStack(ctx context.Context, opts StackOpts) (*Job, error) {
	body := NewParams().
		Add("server", opts.Server).
		Add("name", opts.Name).
		Add("label", opts.Label).
		Add("enable_ssl", "0").
		Add("docker_compose", opts.DockerCompose)
	env, err := c.post(ctx, "/cloud/stack/add.json", body)
	if err != nil {
		return nil, err
	}
	return decodeJob(env.Return, JobTypeScheduler)
}

// UpdateStack rewrites the stack's label and compose file and returns
// the scheduler job to wait on.
func (c *Client) UpdateStack(ctx context.Context, opts StackOpts) (*Job, error) {
	body := NewParams().
		Add("server", opts.Server).
		Add("name", opts.Name).
		Add("params[label]", opts.Label).
		Add("params[docker_compose]", opts.DockerCompose)
	env, err := c.post(ctx, "/cloud/stack/update.json", body)
	if err != nil {
		return nil, err
	}
	return decodeJob(env.Return, JobTypeScheduler)
}

// DeleteStack removes a stack and returns the scheduler job to wait on.
func (c *Client) DeleteStack(ctx context.Context, server, name string) (*Job, error) {
	return c.stackAction(ctx, "/cloud/stack/delete.json", server, name)
}

// StartStack starts a stopped stack.
func (c *Client) StartStack(ctx context.Context, server, name string) (*Job, error) {
	return c.stackAction(ctx, "/cloud/stack/start.json", server, name)
}

// StopStack stops a running stack.
func (c *Client) StopStack(ctx context.Context, server, name string) (*Job, error) {
	return c.stackAction(ctx, "/cloud/stack/stop.json", server, name)
}

// RestartStack restarts a stack regardless of its current run state.
func (c *Client) RestartStack(ctx context.Context, server, name string) (*Job, error) {
	return c.stackAction(ctx, "/cloud/stack/restart.json", server, name)
}

func (c *Client) stackAction(ctx context.Context, path, server, name string) (*Job, error) {
	body := NewParams().
		Add("server", server).
		Add("name", name)
	env, err := c.post(ctx, path, body)
	if err != nil {
		return nil, err
	}
	return decodeJob(env.Return, JobTypeScheduler)
}
