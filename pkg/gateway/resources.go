package gateway

import (
	"context"
	"fmt"
	"net/http"
)

// Metadata is attached to every resource to record who registered it
type Metadata map[string]string

// Function is a function registered with the gateway
type Function struct {
	FunctionID string                 `json:"functionId,omitempty" yaml:"functionId,omitempty" toml:"functionId"`
	Type       string                 `json:"type,omitempty" yaml:"type,omitempty" toml:"type"`
	Provider   map[string]interface{} `json:"provider,omitempty" yaml:"provider,omitempty" toml:"provider"`
	Metadata   Metadata               `json:"metadata,omitempty" yaml:"metadata,omitempty" toml:"metadata"`
}

// EventType is an event type registered with the gateway
type EventType struct {
	Name         string   `json:"name,omitempty" yaml:"name,omitempty" toml:"name"`
	AuthorizerID string   `json:"authorizerId,omitempty" yaml:"authorizerId,omitempty" toml:"authorizerId"`
	Metadata     Metadata `json:"metadata,omitempty" yaml:"metadata,omitempty" toml:"metadata"`
}

// Subscription routes an event type to a function
type Subscription struct {
	SubscriptionID string   `json:"subscriptionId,omitempty"`
	Type           string   `json:"type,omitempty"`
	EventType      string   `json:"eventType,omitempty"`
	FunctionID     string   `json:"functionId,omitempty"`
	Path           string   `json:"path,omitempty"`
	Method         string   `json:"method,omitempty"`
	Metadata       Metadata `json:"metadata,omitempty"`
}

// CORS is the cross origin configuration for one path and method
type CORS struct {
	CORSID           string   `json:"corsId,omitempty"`
	Method           string   `json:"method,omitempty"`
	Path             string   `json:"path,omitempty"`
	AllowedOrigins   []string `json:"allowedOrigins"`
	AllowedMethods   []string `json:"allowedMethods"`
	AllowedHeaders   []string `json:"allowedHeaders"`
	AllowCredentials bool     `json:"allowCredentials"`
	Metadata         Metadata `json:"metadata,omitempty"`
}

// CreateOrUpdateFunction registers f, updating it in place if it already exists
func (c *Client) CreateOrUpdateFunction(ctx context.Context, f Function) (Function, error) {

	var out Function
	err := c.call(ctx, http.MethodPost, c.spacePath("functions"), f, &out)
	if err == nil {
		return out, nil
	}
	if !IsAlreadyExists(err) {
		return Function{}, fmt.Errorf("could not create function %q: %w", f.FunctionID, err)
	}

	err = c.call(ctx, http.MethodPut, c.spacePath("functions", f.FunctionID), f, &out)
	if err != nil {
		return Function{}, fmt.Errorf("could not update function %q: %w", f.FunctionID, err)
	}
	return out, nil
}

// CreateOrUpdateEvent registers e, updating it in place if it already exists
func (c *Client) CreateOrUpdateEvent(ctx context.Context, e EventType) (EventType, error) {

	var out EventType
	err := c.call(ctx, http.MethodPost, c.spacePath("eventtypes"), e, &out)
	if err == nil {
		return out, nil
	}
	if !IsAlreadyExists(err) {
		return EventType{}, fmt.Errorf("could not create event type %q: %w", e.Name, err)
	}

	err = c.call(ctx, http.MethodPut, c.spacePath("eventtypes", e.Name), e, &out)
	if err != nil {
		return EventType{}, fmt.Errorf("could not update event type %q: %w", e.Name, err)
	}
	return out, nil
}

// CreateOrUpdateSubscription creates s, or updates the subscription id when one is given
func (c *Client) CreateOrUpdateSubscription(ctx context.Context, s Subscription, id string) (Subscription, error) {

	var out Subscription
	if id == "" {
		s.SubscriptionID = ""
		if err := c.call(ctx, http.MethodPost, c.spacePath("subscriptions"), s, &out); err != nil {
			return Subscription{}, fmt.Errorf("could not create subscription: %w", err)
		}
		return out, nil
	}

	s.SubscriptionID = id
	if err := c.call(ctx, http.MethodPut, c.spacePath("subscriptions", id), s, &out); err != nil {
		return Subscription{}, fmt.Errorf("could not update subscription %q: %w", id, err)
	}
	return out, nil
}

// CreateOrUpdateCORS creates cfg, or updates it when it carries a cors id
func (c *Client) CreateOrUpdateCORS(ctx context.Context, cfg CORS) (CORS, error) {

	var out CORS
	if cfg.CORSID == "" {
		if err := c.call(ctx, http.MethodPost, c.spacePath("cors"), cfg, &out); err != nil {
			return CORS{}, fmt.Errorf("could not create cors for %v %v: %w", cfg.Method, cfg.Path, err)
		}
		return out, nil
	}

	if err := c.call(ctx, http.MethodPut, c.spacePath("cors", cfg.CORSID), cfg, &out); err != nil {
		return CORS{}, fmt.Errorf("could not update cors %q: %w", cfg.CORSID, err)
	}
	return out, nil
}
