package sitehost

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Job queue types. Cloud Container work runs on the scheduler queue,
// everything else on the daemon queue.
const (
	JobTypeDaemon    = "daemon"
	JobTypeScheduler = "scheduler"
)

// Job states observed while polling.
const (
	JobStateCompleted = "Completed"
	JobStateFailed    = "Failed"
)

// Job references an asynchronous provider-side operation returned by a
// mutating call.
type Job struct {
	ID   string
	Type string
}

// jobID tolerates both string and numeric job ids on the wire.
type jobID string

func (j *jobID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*j = jobID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*j = jobID(n.String())
	return nil
}

// decodeJob extracts the job reference from a mutating call's return
// payload.
func decodeJob(raw json.RawMessage, jobType string) (*Job, error) {
	var out struct {
		JobID jobID `json:"job_id"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode job reference: %w", err)
	}
	if out.JobID == "" {
		return nil, fmt.Errorf("response carried no job_id")
	}
	return &Job{ID: string(out.JobID), Type: jobType}, nil
}

type jobWait struct {
	jobType string
	target  string
}

// JobOption adjusts a WaitForJob call.
type JobOption func(*jobWait)

// WithJobType selects the job queue to poll. Defaults to the daemon
// queue.
func WithJobType(t string) JobOption {
	return func(w *jobWait) {
		w.jobType = t
	}
}

// WithTargetState changes the state treated as terminal success.
// Defaults to Completed.
func WithTargetState(s string) JobOption {
	return func(w *jobWait) {
		w.target = s
	}
}

// WaitForJob blocks until the job reaches its target state, the provider
// reports Failed, or the poll bound is exhausted. Those three outcomes
// are the only terminals: target returns the job detail payload, Failed
// returns a JobFailedError, and an exhausted bound returns a
// JobTimeoutError. Cancellation of ctx aborts the wait between polls.
func (c *Client) WaitForJob(ctx context.Context, id string, opts ...JobOption) (map[string]any, error) {
	w := jobWait{jobType: JobTypeDaemon, target: JobStateCompleted}
	for _, opt := range opts {
		opt(&w)
	}

	var detail map[string]any
	for retry := 0; retry < c.pollLimit; retry++ {
		var state string
		var err error
		detail, state, err = c.pollJob(ctx, id, w.jobType)
		if err != nil {
			return nil, err
		}

		switch state {
		case w.target:
			return detail, nil
		case JobStateFailed:
			return nil, &JobFailedError{JobID: id, Detail: detail}
		}

		if err := c.sleep(ctx, c.backoffDelay(retry)); err != nil {
			return nil, err
		}
	}

	return nil, &JobTimeoutError{JobID: id, Target: w.target, Polls: c.pollLimit, Detail: detail}
}

// pollJob fetches the job's current detail payload and state.
func (c *Client) pollJob(ctx context.Context, id, jobType string) (map[string]any, string, error) {
	q := NewParams().Add("job_id", id).Add("type", jobType)
	env, err := c.get(ctx, "/job/get.json", q)
	if err != nil {
		return nil, "", err
	}

	var detail map[string]any
	if len(env.Return) > 0 {
		if err := json.Unmarshal(env.Return, &detail); err != nil {
			return nil, "", fmt.Errorf("decode job %s detail: %w", id, err)
		}
	}
	state, _ := detail["state"].(string)
	return detail, state, nil
}

// backoffDelay returns the sleep before the next poll: 2^retry seconds
// plus fresh jitter, capped at maxDelay plus the same jitter. The jitter
// survives the cap, so the actual sleep can exceed maxDelay by up to one
// second; the fresh draw per poll keeps concurrent invocations from
// synchronizing against the provider.
func (c *Client) backoffDelay(retry int) time.Duration {
	jitter := time.Duration(c.random() * float64(time.Second))
	exp := min(retry, 30)
	delay := time.Duration(1<<uint(exp))*time.Second + jitter
	if delay > c.maxDelay {
		delay = c.maxDelay + jitter
	}
	return delay
}
