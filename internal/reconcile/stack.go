package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/sitehostnz/shcloud/internal/config"
	"github.com/sitehostnz/shcloud/internal/sitehost"
)

// stackStateNames maps the provider's container run-state vocabulary to
// the declared lifecycle states.
var stackStateNames = map[string]config.State{
	"Up":     config.StateStarted,
	"Exit 0": config.StateStopped,
}

// stackAPI is the slice of the API client the stack reconciler consumes.
type stackAPI interface {
	GetStack(ctx context.Context, server, name string) (*sitehost.Stack, error)
	AddStack(ctx context.Context, opts sitehost.StackOpts) (*sitehost.Job, error)
	UpdateStack(ctx context.Context, opts sitehost.StackOpts) (*sitehost.Job, error)
	DeleteStack(ctx context.Context, server, name string) (*sitehost.Job, error)
	StartStack(ctx context.Context, server, name string) (*sitehost.Job, error)
	StopStack(ctx context.Context, server, name string) (*sitehost.Job, error)
	RestartStack(ctx context.Context, server, name string) (*sitehost.Job, error)
	WaitForJob(ctx context.Context, id string, opts ...sitehost.JobOption) (map[string]any, error)
}

// Stack reconciles Cloud Container stacks. Every stack mutation runs
// through the scheduler job queue.
type Stack struct {
	api   stackAPI
	check bool
}

// NewStack returns a stack reconciler. With check set, no mutating calls
// are issued.
func NewStack(api stackAPI, check bool) *Stack {
	return &Stack{api: api, check: check}
}

// Apply reconciles one stack declaration.
func (r *Stack) Apply(ctx context.Context, spec config.StackSpec) (Outcome, error) {
	switch spec.State {
	case config.StatePresent:
		return r.present(ctx, spec)
	case config.StateAbsent:
		return r.absent(ctx, spec)
	default:
		return r.power(ctx, spec)
	}
}

// present creates the stack when missing, otherwise updates it when the
// declared label or compose file differ.
func (r *Stack) present(ctx context.Context, spec config.StackSpec) (Outcome, error) {
	st, err := r.api.GetStack(ctx, spec.Server, spec.Name)
	if err != nil {
		return Outcome{}, err
	}

	if st != nil {
		if !stackNeedsUpdate(st, spec) {
			return Outcome{Changed: false, Msg: fmt.Sprintf("container %s is up to date", spec.Name), Resource: st}, nil
		}
		if r.check {
			return Outcome{Changed: true, Msg: fmt.Sprintf("container %s would be updated", spec.Name), Resource: st}, nil
		}
		return r.update(ctx, spec, st)
	}

	if r.check {
		return Outcome{Changed: true, Msg: fmt.Sprintf("container %s would be created", spec.Name)}, nil
	}

	job, err := r.api.AddStack(ctx, sitehost.StackOpts{
		Server:        spec.Server,
		Name:          spec.Name,
		Label:         spec.Label,
		DockerCompose: spec.DockerCompose,
	})
	if err != nil {
		// The provider answers 409 inside the envelope msg when the
		// name or label is already taken: not a failure, just nothing
		// to do.
		if apiErr, ok := sitehost.IsAPIError(err); ok && strings.Contains(apiErr.Msg, "code: 409") {
			return Outcome{Changed: false, Msg: apiErr.Msg}, nil
		}
		return Outcome{}, err
	}
	if _, err := r.api.WaitForJob(ctx, job.ID, sitehost.WithJobType(job.Type)); err != nil {
		return Outcome{}, err
	}

	created, err := r.api.GetStack(ctx, spec.Server, spec.Name)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Changed: true, Msg: fmt.Sprintf("container %s created", spec.Name), Resource: created}, nil
}

func (r *Stack) update(ctx context.Context, spec config.StackSpec, current *sitehost.Stack) (Outcome, error) {
	opts := sitehost.StackOpts{
		Server:        spec.Server,
		Name:          spec.Name,
		Label:         current.Label,
		DockerCompose: current.DockerCompose,
	}
	if spec.Label != "" {
		opts.Label = spec.Label
	}
	if spec.DockerCompose != "" {
		opts.DockerCompose = spec.DockerCompose
	}

	job, err := r.api.UpdateStack(ctx, opts)
	if err != nil {
		return Outcome{}, err
	}
	if _, err := r.api.WaitForJob(ctx, job.ID, sitehost.WithJobType(job.Type)); err != nil {
		return Outcome{}, err
	}

	updated, err := r.api.GetStack(ctx, spec.Server, spec.Name)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Changed: true, Msg: fmt.Sprintf("container %s updated", spec.Name), Resource: updated}, nil
}

// absent deletes the stack. A missing stack is a no-op.
func (r *Stack) absent(ctx context.Context, spec config.StackSpec) (Outcome, error) {
	st, err := r.api.GetStack(ctx, spec.Server, spec.Name)
	if err != nil {
		return Outcome{}, err
	}
	if st == nil {
		return Outcome{Changed: false, Msg: fmt.Sprintf("container %s does not exist", spec.Name)}, nil
	}
	if r.check {
		return Outcome{Changed: true, Msg: fmt.Sprintf("container %s would be deleted", spec.Name)}, nil
	}

	job, err := r.api.DeleteStack(ctx, spec.Server, spec.Name)
	if err != nil {
		return Outcome{}, err
	}
	if _, err := r.api.WaitForJob(ctx, job.ID, sitehost.WithJobType(job.Type)); err != nil {
		return Outcome{}, err
	}
	return Outcome{Changed: true, Msg: fmt.Sprintf("container %s deleted", spec.Name)}, nil
}

// power drives started, stopped, and restarted. A restart always issues
// the restart call regardless of the current run state; started and
// stopped consult the first container's state and are no-ops when it
// already matches.
func (r *Stack) power(ctx context.Context, spec config.StackSpec) (Outcome, error) {
	st, err := r.api.GetStack(ctx, spec.Server, spec.Name)
	if err != nil {
		return Outcome{}, err
	}
	if st == nil {
		return Outcome{}, fmt.Errorf("container %q does not exist on server %q", spec.Name, spec.Server)
	}

	if spec.State == config.StateRestarted {
		if r.check {
			return Outcome{Changed: true, Msg: fmt.Sprintf("container %s would be restarted", spec.Name), Resource: st}, nil
		}
		job, err := r.api.RestartStack(ctx, spec.Server, spec.Name)
		if err != nil {
			return Outcome{}, err
		}
		if _, err := r.api.WaitForJob(ctx, job.ID, sitehost.WithJobType(job.Type)); err != nil {
			return Outcome{}, err
		}
		restarted, err := r.api.GetStack(ctx, spec.Server, spec.Name)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Changed: true, Msg: fmt.Sprintf("container %s restarted", spec.Name), Resource: restarted}, nil
	}

	if len(st.Containers) == 0 {
		return Outcome{}, fmt.Errorf("container %q reports no run state", spec.Name)
	}
	current := st.Containers[0].State
	if stackStateNames[current] == spec.State {
		return Outcome{Changed: false, Msg: fmt.Sprintf("container already %s", spec.State), Resource: st}, nil
	}
	if r.check {
		return Outcome{Changed: true, Msg: fmt.Sprintf("container %s would be %s", spec.Name, spec.State), Resource: st}, nil
	}

	var job *sitehost.Job
	if spec.State == config.StateStarted {
		job, err = r.api.StartStack(ctx, spec.Server, spec.Name)
	} else {
		job, err = r.api.StopStack(ctx, spec.Server, spec.Name)
	}
	if err != nil {
		return Outcome{}, err
	}
	if _, err := r.api.WaitForJob(ctx, job.ID, sitehost.WithJobType(job.Type)); err != nil {
		return Outcome{}, err
	}

	after, err := r.api.GetStack(ctx, spec.Server, spec.Name)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Changed: true, Msg: fmt.Sprintf("container %s %s", spec.Name, spec.State), Resource: after}, nil
}

// stackNeedsUpdate diffs the declared fields against the remote stack,
// restricted to the updatable allow-list (label, docker_compose). Unset
// fields are unmanaged.
func stackNeedsUpdate(st *sitehost.Stack, spec config.StackSpec) bool {
	if spec.Label != "" && spec.Label != st.Label {
		return true
	}
	if spec.DockerCompose != "" && spec.DockerCompose != st.DockerCompose {
		return true
	}
	return false
}
