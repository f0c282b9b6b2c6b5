package deployer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/UKHomeOffice/gwdeploy/pkg/gateway"
)

// Reconciler registers inputs against a control plane
type Reconciler struct {
	cp  ControlPlane
	log zerolog.Logger
}

// NewReconciler returns a new Reconciler
func NewReconciler(cp ControlPlane, log zerolog.Logger) *Reconciler {
	return &Reconciler{cp: cp, log: log}
}

// Deploy registers every function, then every event type, then every
// subscription followed by its CORS rule. The state is saved after each
// registration and returned as far as it got, also on failure.
func (r *Reconciler) Deploy(ctx context.Context, in Inputs, dc DeployContext) (Output, State, error) {

	state := dc.State.WithDefaults()

	if in.Space == "" {
		return Output{}, state, fmt.Errorf("missing space")
	}

	steps, err := plan(in, dc.ServiceID)
	if err != nil {
		return Output{}, state, fmt.Errorf("could not plan deploy: %v", err)
	}

	r.log.Info().Str("service", dc.ServiceID).Str("space", in.Space).Int("steps", len(steps)).Msg("starting deploy")

	for _, st := range steps {
		eff := st.plan(state)

		done, err := r.execute(ctx, eff)
		switch {
		case err == nil:
			state = apply(state, done)
			r.log.Info().Stringer("resource", eff).Msg("registered")
		case eff.Kind == KindCORS && gateway.IsAlreadyExists(err):
			r.log.Debug().Stringer("resource", eff).Err(err).Msg("cors already registered, keeping it")
		default:
			r.log.Error().Stringer("resource", eff).Err(err).Msg("deploy aborted")
			return Output{}, state, err
		}

		r.save(ctx, dc.Saver, state)
	}

	r.log.Info().Str("service", dc.ServiceID).Msg("deploy complete")
	return state.output(), state, nil
}

// execute makes the call described by e and returns e holding the result
func (r *Reconciler) execute(ctx context.Context, e Effect) (Effect, error) {

	var err error
	switch e.Kind {
	case KindFunction:
		e.Function, err = r.cp.CreateOrUpdateFunction(ctx, e.Function)
		if err != nil {
			return e, fmt.Errorf("could not register function %q: %w", e.Name, err)
		}
	case KindEvent:
		e.Event, err = r.cp.CreateOrUpdateEvent(ctx, e.Event)
		if err != nil {
			return e, fmt.Errorf("could not register event %q: %w", e.Name, err)
		}
	case KindSubscription:
		sub := e.Subscription
		e.Subscription, err = r.cp.CreateOrUpdateSubscription(ctx, sub, e.SubscriptionID)
		if err != nil {
			if gateway.IsAlreadyExists(err) {
				return e, fmt.Errorf(`%w - Event: "%s", Function: "%s", Path: "%s", Method: "%s"`,
					err, e.Name, e.Sub, sub.Path, sub.Method)
			}
			return e, fmt.Errorf("could not register subscription %q/%q: %w", e.Name, e.Sub, err)
		}
	case KindCORS:
		e.CORS, err = r.cp.CreateOrUpdateCORS(ctx, e.CORS)
		if err != nil {
			return e, fmt.Errorf("could not register cors for %v %v: %w", e.Sub, e.Name, err)
		}
	default:
		return e, fmt.Errorf("unknown resource kind: %v", e.Kind)
	}
	return e, nil
}

// save hands state to the saver. The saver owns its failures so they are only logged.
func (r *Reconciler) save(ctx context.Context, s Saver, state State) {
	if s == nil {
		return
	}
	if err := s.SaveState(ctx, state); err != nil {
		r.log.Error().Err(err).Msg("could not save state")
	}
}

// Run loads the state of the last deploy from store, deploys in against the
// Event Gateway and saves to store as it goes. Blank connection settings in
// in are read from the environment.
func Run(ctx context.Context, in Inputs, serviceID string, store Store, log zerolog.Logger) (Output, error) {

	cfg := gateway.ConfigFromEnv(gateway.Config{URL: in.URL, AccessKey: in.AccessKey, Space: in.Space})
	in.URL, in.AccessKey, in.Space = cfg.URL, cfg.AccessKey, cfg.Space

	cp, err := gateway.NewClient(cfg)
	if err != nil {
		return Output{}, fmt.Errorf("could not configure event gateway: %v", err)
	}

	state, err := store.Load(ctx)
	if err != nil {
		return Output{}, fmt.Errorf("could not load state: %v", err)
	}

	out, _, err := NewReconciler(cp, log).Deploy(ctx, in, DeployContext{
		ServiceID: serviceID,
		State:     state,
		Saver:     store,
	})
	return out, err
}
