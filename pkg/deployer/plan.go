package deployer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/UKHomeOffice/gwdeploy/pkg/gateway"
)

// Kind is a type of gateway resource
type Kind string

// Resource kinds
const (
	KindFunction     Kind = "function"
	KindEvent        Kind = "event"
	KindSubscription Kind = "subscription"
	KindCORS         Kind = "cors"
)

// kinds are registered in this order unless a dependency says otherwise.
// CORS rules are not listed: each one follows its own subscription.
var kinds = []Kind{KindFunction, KindEvent, KindSubscription}

// dependsOn lists the kinds that must exist before a kind can be registered
var dependsOn = map[Kind][]Kind{
	KindSubscription: {KindFunction, KindEvent},
}

// Effect describes one create-or-update call and, once executed, holds its result
type Effect struct {
	Kind Kind
	// Name is the function, event or CORS path the effect is stored under
	Name string
	// Sub is the function name of a subscription or the method of a CORS rule
	Sub            string
	Function       gateway.Function
	Event          gateway.EventType
	Subscription   gateway.Subscription
	SubscriptionID string
	CORS           gateway.CORS
}

func (e Effect) String() string {
	if e.Sub == "" {
		return fmt.Sprintf("%v %q", e.Kind, e.Name)
	}
	return fmt.Sprintf("%v %q/%q", e.Kind, e.Name, e.Sub)
}

// step plans one effect from the state left by the steps before it
type step struct {
	kind Kind
	plan func(State) Effect
}

// phaseOrder sorts ks so every kind follows the kinds it depends on, keeping
// the given order between independent kinds.
func phaseOrder(ks []Kind, deps map[Kind][]Kind) ([]Kind, error) {

	known := make(map[Kind]bool, len(ks))
	for _, k := range ks {
		known[k] = true
	}

	waiting := make(map[Kind]int, len(ks))
	dependents := make(map[Kind][]Kind)
	for _, k := range ks {
		for _, d := range deps[k] {
			if !known[d] {
				return nil, fmt.Errorf("%v depends on unknown kind %v", k, d)
			}
			waiting[k]++
			dependents[d] = append(dependents[d], k)
		}
	}

	order := make([]Kind, 0, len(ks))
	done := make(map[Kind]bool, len(ks))
	for len(order) < len(ks) {
		next := Kind("")
		for _, k := range ks {
			if !done[k] && waiting[k] == 0 {
				next = k
				break
			}
		}
		if next == "" {
			return nil, fmt.Errorf("resource kinds have a dependency cycle")
		}
		done[next] = true
		order = append(order, next)
		for _, d := range dependents[next] {
			waiting[d]--
		}
	}
	return order, nil
}

// plan lays out every step of a deploy. Names are visited in sorted order so
// two runs over the same inputs make the same calls.
func plan(in Inputs, serviceID string) ([]step, error) {

	order, err := phaseOrder(kinds, dependsOn)
	if err != nil {
		return nil, err
	}

	var steps []step
	for _, k := range order {
		switch k {
		case KindFunction:
			for _, name := range sortedKeys(in.Functions) {
				name, fn := name, in.Functions[name]
				steps = append(steps, step{kind: k, plan: func(s State) Effect {
					return planFunction(s, name, fn, serviceID)
				}})
			}
		case KindEvent:
			for _, name := range sortedKeys(in.Events) {
				name, ev := name, in.Events[name]
				steps = append(steps, step{kind: k, plan: func(s State) Effect {
					return planEvent(s, name, ev, serviceID)
				}})
			}
		case KindSubscription:
			for _, event := range sortedKeys(in.Subscriptions) {
				for _, function := range sortedKeys(in.Subscriptions[event]) {
					event, function, sub := event, function, in.Subscriptions[event][function]
					steps = append(steps,
						step{kind: KindSubscription, plan: func(s State) Effect {
							return planSubscription(s, in.Space, event, function, sub, serviceID)
						}},
						step{kind: KindCORS, plan: func(s State) Effect {
							return planCORS(s, in.Space, sub, serviceID)
						}},
					)
				}
			}
		}
	}
	return steps, nil
}

func planFunction(_ State, name string, fn gateway.Function, serviceID string) Effect {
	if fn.FunctionID == "" {
		fn.FunctionID = name
	}
	fn.Type = strings.ToLower(fn.Type)
	fn.Metadata = tag(fn.Metadata, serviceID)
	return Effect{Kind: KindFunction, Name: name, Function: fn}
}

func planEvent(_ State, name string, ev gateway.EventType, serviceID string) Effect {
	if ev.Name == "" {
		ev.Name = name
	}
	ev.Metadata = tag(ev.Metadata, serviceID)
	return Effect{Kind: KindEvent, Name: name, Event: ev}
}

func planSubscription(prior State, space, event, function string, in SubscriptionInput, serviceID string) Effect {

	// an id from a previous deploy turns the create into an update
	var id string
	if sub, ok := prior.Subscriptions[event][function]; ok {
		id = sub.SubscriptionID
	}

	functionID := function
	if fn, ok := prior.Functions[function]; ok && fn.FunctionID != "" {
		functionID = fn.FunctionID
	}

	typ := in.Type
	if typ == "" {
		typ = "async"
	}

	s := gateway.Subscription{
		Type:       typ,
		EventType:  event,
		FunctionID: functionID,
		Path:       sanitizePath(in.Path, space),
		Method:     subscriptionMethod(in),
		Metadata:   tag(nil, serviceID),
	}
	return Effect{Kind: KindSubscription, Name: event, Sub: function, Subscription: s, SubscriptionID: id}
}

func planCORS(prior State, space string, in SubscriptionInput, serviceID string) Effect {

	path := sanitizePath(in.Path, space)
	method := subscriptionMethod(in)

	var existing *gateway.CORS
	if c, ok := prior.Cors[path][method]; ok {
		existing = &c
	}

	c := mergeCORS(existing, path, method, in.Cors)
	c.Metadata = tag(c.Metadata, serviceID)
	return Effect{Kind: KindCORS, Name: path, Sub: method, CORS: c}
}

// apply folds an executed effect into a copy of prior
func apply(prior State, e Effect) State {

	s := prior.clone()
	switch e.Kind {
	case KindFunction:
		s.Functions[e.Name] = e.Function
	case KindEvent:
		s.Events[e.Name] = e.Event
	case KindSubscription:
		if s.Subscriptions[e.Name] == nil {
			s.Subscriptions[e.Name] = map[string]gateway.Subscription{}
		}
		s.Subscriptions[e.Name][e.Sub] = e.Subscription
	case KindCORS:
		if s.Cors[e.Name] == nil {
			s.Cors[e.Name] = map[string]gateway.CORS{}
		}
		s.Cors[e.Name][e.Sub] = e.CORS
	}
	return s
}

// subscriptionMethod defaults to POST like the gateway does
func subscriptionMethod(in SubscriptionInput) string {
	if in.Method == "" {
		return "POST"
	}
	return strings.ToUpper(in.Method)
}

// tag copies m and marks it with the deploying service
func tag(m gateway.Metadata, serviceID string) gateway.Metadata {
	out := make(gateway.Metadata, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out["serviceId"] = serviceID
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
