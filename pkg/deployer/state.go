package deployer

import "github.com/UKHomeOffice/gwdeploy/pkg/gateway"

// State records every resource a service has registered
type State struct {
	Events        map[string]gateway.EventType               `json:"events"`
	Functions     map[string]gateway.Function                `json:"functions"`
	Subscriptions map[string]map[string]gateway.Subscription `json:"subscriptions"`
	Cors          map[string]map[string]gateway.CORS         `json:"cors"`
}

// NewState returns an empty state
func NewState() State {
	return State{}.WithDefaults()
}

// WithDefaults fills in missing maps
func (s State) WithDefaults() State {
	if s.Events == nil {
		s.Events = map[string]gateway.EventType{}
	}
	if s.Functions == nil {
		s.Functions = map[string]gateway.Function{}
	}
	if s.Subscriptions == nil {
		s.Subscriptions = map[string]map[string]gateway.Subscription{}
	}
	if s.Cors == nil {
		s.Cors = map[string]map[string]gateway.CORS{}
	}
	return s
}

// clone copies the maps so a step never writes into its caller's state.
// Records are treated as immutable and shared.
func (s State) clone() State {
	out := State{
		Events:        make(map[string]gateway.EventType, len(s.Events)),
		Functions:     make(map[string]gateway.Function, len(s.Functions)),
		Subscriptions: make(map[string]map[string]gateway.Subscription, len(s.Subscriptions)),
		Cors:          make(map[string]map[string]gateway.CORS, len(s.Cors)),
	}
	for k, v := range s.Events {
		out.Events[k] = v
	}
	for k, v := range s.Functions {
		out.Functions[k] = v
	}
	for e, fs := range s.Subscriptions {
		m := make(map[string]gateway.Subscription, len(fs))
		for f, v := range fs {
			m[f] = v
		}
		out.Subscriptions[e] = m
	}
	for p, ms := range s.Cors {
		m := make(map[string]gateway.CORS, len(ms))
		for method, v := range ms {
			m[method] = v
		}
		out.Cors[p] = m
	}
	return out
}

func (s State) output() Output {
	return Output{
		Events:        s.Events,
		Functions:     s.Functions,
		Subscriptions: s.Subscriptions,
	}
}
