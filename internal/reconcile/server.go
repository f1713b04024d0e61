package reconcile

import (
	"context"
	"fmt"

	"github.com/sitehostnz/shcloud/internal/config"
	"github.com/sitehostnz/shcloud/internal/sitehost"
)

// serverStateNames maps the provider's power-state vocabulary to the
// declared lifecycle states.
var serverStateNames = map[string]config.State{
	"On":  config.StateStarted,
	"Off": config.StateStopped,
}

// serverAPIVerbs maps declared lifecycle states to the change_state API
// verbs.
var serverAPIVerbs = map[config.State]string{
	config.StateStarted:   "power_on",
	config.StateStopped:   "power_off",
	config.StateRestarted: "reboot",
}

// serverAPI is the slice of the API client the server reconciler
// consumes.
type serverAPI interface {
	GetServer(ctx context.Context, name string) (*sitehost.Server, error)
	GetServerState(ctx context.Context, name string) (string, error)
	ProvisionServer(ctx context.Context, opts sitehost.ProvisionOpts) (*sitehost.ProvisionResult, error)
	DeleteServer(ctx context.Context, name string) (*sitehost.Job, error)
	ChangeServerState(ctx context.Context, name, state string) (*sitehost.Job, error)
	UpgradeServerPlan(ctx context.Context, name, plan string) error
	CommitServerChanges(ctx context.Context, name string) (*sitehost.Job, error)
	WaitForJob(ctx context.Context, id string, opts ...sitehost.JobOption) (map[string]any, error)
}

// ProvisionedServer pairs the fetched snapshot with the root password,
// which the provider returns only at provision time.
type ProvisionedServer struct {
	Server   *sitehost.Server
	Password string
}

// Server reconciles servers: provision, upgrade, delete, and power
// transitions.
type Server struct {
	api   serverAPI
	check bool
}

// NewServer returns a server reconciler. With check set, no mutating
// calls are issued.
func NewServer(api serverAPI, check bool) *Server {
	return &Server{api: api, check: check}
}

// Apply reconciles one server declaration.
func (r *Server) Apply(ctx context.Context, spec config.ServerSpec) (Outcome, error) {
	switch spec.State {
	case config.StatePresent:
		if spec.Name != "" {
			return r.upgrade(ctx, spec)
		}
		if spec.Label != "" {
			return r.provision(ctx, spec)
		}
		return Outcome{}, fmt.Errorf("no name or label given")
	case config.StateAbsent:
		return r.absent(ctx, spec)
	default:
		return r.power(ctx, spec)
	}
}

// provision creates a new server and waits for the provisioning job.
// Cloud Container hosts run through the scheduler queue, everything
// else through the daemon queue.
func (r *Server) provision(ctx context.Context, spec config.ServerSpec) (Outcome, error) {
	if r.check {
		return Outcome{Changed: true, Msg: fmt.Sprintf("server %s would be provisioned", spec.Label)}, nil
	}

	res, err := r.api.ProvisionServer(ctx, sitehost.ProvisionOpts{
		Label:       spec.Label,
		Location:    spec.Location,
		ProductCode: spec.ProductCode,
		Image:       spec.Image,
	})
	if err != nil {
		return Outcome{}, err
	}

	if _, err := r.api.WaitForJob(ctx, res.Job.ID, sitehost.WithJobType(res.Job.Type)); err != nil {
		return Outcome{}, err
	}

	srv, err := r.api.GetServer(ctx, res.Name)
	if err != nil {
		return Outcome{}, err
	}
	if srv == nil {
		return Outcome{}, fmt.Errorf("provisioned server %q not found", res.Name)
	}

	return Outcome{
		Changed:  true,
		Msg:      fmt.Sprintf("server created: %s", res.Name),
		Resource: &ProvisionedServer{Server: srv, Password: res.Password},
	}, nil
}

// upgrade changes the plan of an existing server. The only updatable
// field is the product code; an equal code is a no-op. The change is
// staged with upgrade_plan and applied with commit_disk_changes, which
// restarts the server.
func (r *Server) upgrade(ctx context.Context, spec config.ServerSpec) (Outcome, error) {
	srv, err := r.api.GetServer(ctx, spec.Name)
	if err != nil {
		return Outcome{}, err
	}
	if srv == nil {
		// In check mode the server may simply not have been created yet.
		if r.check {
			return Outcome{Changed: true, Msg: fmt.Sprintf("server %s would be upgraded", spec.Name)}, nil
		}
		return Outcome{}, fmt.Errorf("server %q does not exist", spec.Name)
	}

	if srv.ProductCode == spec.ProductCode {
		return Outcome{Changed: false, Msg: "requested product is the same as current server product", Resource: srv}, nil
	}
	if r.check {
		return Outcome{Changed: true, Msg: fmt.Sprintf("server %s would be upgraded to %s", spec.Name, spec.ProductCode), Resource: srv}, nil
	}

	if err := r.api.UpgradeServerPlan(ctx, spec.Name, spec.ProductCode); err != nil {
		return Outcome{}, err
	}
	job, err := r.api.CommitServerChanges(ctx, spec.Name)
	if err != nil {
		return Outcome{}, err
	}
	if _, err := r.api.WaitForJob(ctx, job.ID, sitehost.WithJobType(job.Type)); err != nil {
		return Outcome{}, err
	}

	upgraded, err := r.api.GetServer(ctx, spec.Name)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Changed: true, Msg: fmt.Sprintf("%s successfully upgraded", spec.Name), Resource: upgraded}, nil
}

// absent deletes the server. A missing server is a no-op.
func (r *Server) absent(ctx context.Context, spec config.ServerSpec) (Outcome, error) {
	srv, err := r.api.GetServer(ctx, spec.Name)
	if err != nil {
		return Outcome{}, err
	}
	if srv == nil {
		return Outcome{Changed: false, Msg: fmt.Sprintf("server %s does not exist", spec.Name)}, nil
	}
	if r.check {
		return Outcome{Changed: true, Msg: fmt.Sprintf("server %s would be deleted", spec.Name)}, nil
	}

	job, err := r.api.DeleteServer(ctx, srv.Name)
	if err != nil {
		return Outcome{}, err
	}
	if _, err := r.api.WaitForJob(ctx, job.ID, sitehost.WithJobType(job.Type)); err != nil {
		return Outcome{}, err
	}

	return Outcome{
		Changed: true,
		Msg:     fmt.Sprintf("%s has been deleted", srv.Name),
		Resource: &sitehost.Server{
			Name:  spec.Name,
			Label: srv.Label,
			State: "Deleted",
		},
	}, nil
}

// power drives started, stopped, and restarted. A restart is never
// skipped; started and stopped are no-ops when the server already
// matches.
func (r *Server) power(ctx context.Context, spec config.ServerSpec) (Outcome, error) {
	srv, err := r.api.GetServer(ctx, spec.Name)
	if err != nil {
		return Outcome{}, err
	}
	if srv == nil {
		// In check mode the server may simply not have been created yet.
		if r.check {
			return Outcome{Changed: true, Msg: fmt.Sprintf("server %s would be %s", spec.Name, spec.State)}, nil
		}
		return Outcome{}, fmt.Errorf("server %q does not exist", spec.Name)
	}

	if spec.State != config.StateRestarted {
		current, err := r.api.GetServerState(ctx, spec.Name)
		if err != nil {
			return Outcome{}, err
		}
		if serverStateNames[current] == spec.State {
			return Outcome{
				Changed: false,
				Msg:     fmt.Sprintf("server already %s", spec.State),
				Resource: &sitehost.Server{
					Name:  spec.Name,
					Label: srv.Label,
					State: current,
				},
			}, nil
		}
	}
	if r.check {
		return Outcome{Changed: true, Msg: fmt.Sprintf("server %s would be %s", spec.Name, spec.State)}, nil
	}

	job, err := r.api.ChangeServerState(ctx, spec.Name, serverAPIVerbs[spec.State])
	if err != nil {
		return Outcome{}, err
	}
	if _, err := r.api.WaitForJob(ctx, job.ID, sitehost.WithJobType(job.Type)); err != nil {
		return Outcome{}, err
	}

	after, err := r.api.GetServer(ctx, spec.Name)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Changed: true, Msg: fmt.Sprintf("server %s successfully", spec.State), Resource: after}, nil
}
