// Package deployer registers functions, event types, subscriptions and CORS rules
// with the Event Gateway and records what it registered.
//
// A deploy runs as a fixed sequence of steps. Each step is planned from the
// previous state alone, executed against the control plane, folded into a new
// state and saved before the next one starts, so an interrupted deploy loses
// at most the call that was in flight. Running a deploy again is safe: every
// call is a create-or-update and stored identifiers turn creates into updates.
package deployer

import (
	"context"

	"github.com/UKHomeOffice/gwdeploy/pkg/gateway"
)

// ControlPlane is the subset of the gateway client a deploy needs
type ControlPlane interface {
	CreateOrUpdateFunction(context.Context, gateway.Function) (gateway.Function, error)
	CreateOrUpdateEvent(context.Context, gateway.EventType) (gateway.EventType, error)
	CreateOrUpdateSubscription(context.Context, gateway.Subscription, string) (gateway.Subscription, error)
	CreateOrUpdateCORS(context.Context, gateway.CORS) (gateway.CORS, error)
}

// Saver persists state after every registration
type Saver interface {
	SaveState(context.Context, State) error
}

// Store loads the state of a previous deploy and saves the current one
type Store interface {
	Saver
	Load(context.Context) (State, error)
}

// Inputs describe the resources a service wants registered
type Inputs struct {
	URL           string                                  `json:"url,omitempty" yaml:"url,omitempty" toml:"url"`
	AccessKey     string                                  `json:"accessKey,omitempty" yaml:"accessKey,omitempty" toml:"accessKey"`
	Space         string                                  `json:"space,omitempty" yaml:"space,omitempty" toml:"space"`
	Functions     map[string]gateway.Function             `json:"functions,omitempty" yaml:"functions,omitempty" toml:"functions"`
	Events        map[string]gateway.EventType            `json:"events,omitempty" yaml:"events,omitempty" toml:"events"`
	Subscriptions map[string]map[string]SubscriptionInput `json:"subscriptions,omitempty" yaml:"subscriptions,omitempty" toml:"subscriptions"`
}

// SubscriptionInput subscribes the function under its key to the event under its parent key
type SubscriptionInput struct {
	Type   string      `json:"type,omitempty" yaml:"type,omitempty" toml:"type"`
	Path   string      `json:"path,omitempty" yaml:"path,omitempty" toml:"path"`
	Method string      `json:"method,omitempty" yaml:"method,omitempty" toml:"method"`
	Cors   *CorsConfig `json:"cors,omitempty" yaml:"cors,omitempty" toml:"cors"`
}

// CorsConfig overrides CORS fields for a subscription's path and method.
// A nil field is left as it was.
type CorsConfig struct {
	AllowedOrigins   []string `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty" toml:"allowedOrigins"`
	AllowedMethods   []string `json:"allowedMethods,omitempty" yaml:"allowedMethods,omitempty" toml:"allowedMethods"`
	AllowedHeaders   []string `json:"allowedHeaders,omitempty" yaml:"allowedHeaders,omitempty" toml:"allowedHeaders"`
	AllowCredentials *bool    `json:"allowCredentials,omitempty" yaml:"allowCredentials,omitempty" toml:"allowCredentials"`
}

// DeployContext is what the caller owns across a deploy
type DeployContext struct {
	ServiceID string
	State     State
	Saver     Saver
}

// Output is returned to the caller once every resource is registered
type Output struct {
	Events        map[string]gateway.EventType               `json:"events"`
	Functions     map[string]gateway.Function                `json:"functions"`
	Subscriptions map[string]map[string]gateway.Subscription `json:"subscriptions"`
}
