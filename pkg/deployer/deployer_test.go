package deployer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/UKHomeOffice/gwdeploy/pkg/gateway"
)

type fakeControlPlane struct {
	calls   []string
	subIDs  []string
	failOn  Kind
	err     error
	corsErr error
}

func (f *fakeControlPlane) fail(k Kind) error {
	if f.failOn == k {
		return f.err
	}
	return nil
}

func (f *fakeControlPlane) CreateOrUpdateFunction(_ context.Context, fn gateway.Function) (gateway.Function, error) {
	f.calls = append(f.calls, "function "+fn.FunctionID)
	if err := f.fail(KindFunction); err != nil {
		return gateway.Function{}, err
	}
	return fn, nil
}

func (f *fakeControlPlane) CreateOrUpdateEvent(_ context.Context, e gateway.EventType) (gateway.EventType, error) {
	f.calls = append(f.calls, "event "+e.Name)
	if err := f.fail(KindEvent); err != nil {
		return gateway.EventType{}, err
	}
	return e, nil
}

func (f *fakeControlPlane) CreateOrUpdateSubscription(_ context.Context, s gateway.Subscription, id string) (gateway.Subscription, error) {
	f.calls = append(f.calls, "subscription "+s.EventType+"/"+s.FunctionID)
	f.subIDs = append(f.subIDs, id)
	if err := f.fail(KindSubscription); err != nil {
		return gateway.Subscription{}, err
	}
	s.SubscriptionID = id
	if id == "" {
		s.SubscriptionID = "sub-" + s.EventType + "-" + s.FunctionID
	}
	return s, nil
}

func (f *fakeControlPlane) CreateOrUpdateCORS(_ context.Context, c gateway.CORS) (gateway.CORS, error) {
	f.calls = append(f.calls, "cors "+c.Method+" "+c.Path)
	if f.corsErr != nil {
		return gateway.CORS{}, f.corsErr
	}
	if c.CORSID == "" {
		c.CORSID = c.Method + c.Path
	}
	return c, nil
}

type memSaver struct {
	saved []State
}

func (m *memSaver) SaveState(_ context.Context, s State) error {
	m.saved = append(m.saved, s.clone())
	return nil
}

func (m *memSaver) Load(context.Context) (State, error) {
	if len(m.saved) == 0 {
		return NewState(), nil
	}
	return m.saved[len(m.saved)-1].clone(), nil
}

func (m *memSaver) last() State {
	return m.saved[len(m.saved)-1]
}

func testInputs() Inputs {
	return Inputs{
		Space: "myspace",
		Functions: map[string]gateway.Function{
			"hello": {Type: "AWSLambda", Provider: map[string]interface{}{"arn": "arn:aws:lambda:eu-west-2:1:function:hello"}},
		},
		Events: map[string]gateway.EventType{
			"user.created": {},
		},
		Subscriptions: map[string]map[string]SubscriptionInput{
			"user.created": {
				"hello": {Type: "sync", Path: "users", Method: "post"},
			},
		},
	}
}

func TestDeploy(t *testing.T) {

	cp := &fakeControlPlane{}
	saver := &memSaver{}

	out, state, err := NewReconciler(cp, zerolog.Nop()).Deploy(context.Background(), testInputs(), DeployContext{
		ServiceID: "svc-1",
		Saver:     saver,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantCalls := []string{
		"function hello",
		"event user.created",
		"subscription user.created/hello",
		"cors POST /myspace/users",
	}
	if diff := cmp.Diff(wantCalls, cp.calls); diff != "" {
		t.Errorf("unexpected calls (-want +got):\n%s", diff)
	}

	if len(saver.saved) != len(wantCalls) {
		t.Errorf("expected a save per registration, got %v saves", len(saver.saved))
	}
	if diff := cmp.Diff(state, saver.last()); diff != "" {
		t.Errorf("returned state differs from saved state (-want +got):\n%s", diff)
	}

	fn := out.Functions["hello"]
	if fn.Type != "awslambda" {
		t.Errorf("expected lower cased function type, got %q", fn.Type)
	}
	if fn.FunctionID != "hello" {
		t.Errorf("expected function id to default to its name, got %q", fn.FunctionID)
	}

	sub := out.Subscriptions["user.created"]["hello"]
	want := gateway.Subscription{
		SubscriptionID: "sub-user.created-hello",
		Type:           "sync",
		EventType:      "user.created",
		FunctionID:     "hello",
		Path:           "/myspace/users",
		Method:         "POST",
		Metadata:       gateway.Metadata{"serviceId": "svc-1"},
	}
	if diff := cmp.Diff(want, sub); diff != "" {
		t.Errorf("unexpected subscription (-want +got):\n%s", diff)
	}

	for name, m := range map[string]gateway.Metadata{
		"function": out.Functions["hello"].Metadata,
		"event":    out.Events["user.created"].Metadata,
		"cors":     state.Cors["/myspace/users"]["POST"].Metadata,
	} {
		if m["serviceId"] != "svc-1" {
			t.Errorf("expected %v to be tagged with the service, got %v", name, m)
		}
	}

	cors := state.Cors["/myspace/users"]["POST"]
	if !cmp.Equal(cors.AllowedOrigins, []string{"*"}) || cors.AllowCredentials {
		t.Errorf("expected default cors, got %+v", cors)
	}
}

func TestDeployIdempotent(t *testing.T) {

	saver := &memSaver{}
	r := NewReconciler(&fakeControlPlane{}, zerolog.Nop())

	_, first, err := r.Deploy(context.Background(), testInputs(), DeployContext{ServiceID: "svc-1", Saver: saver})
	if err != nil {
		t.Fatalf("first deploy failed: %v", err)
	}

	cp := &fakeControlPlane{}
	prior, _ := saver.Load(context.Background())
	_, second, err := NewReconciler(cp, zerolog.Nop()).Deploy(context.Background(), testInputs(), DeployContext{
		ServiceID: "svc-1",
		State:     prior,
		Saver:     saver,
	})
	if err != nil {
		t.Fatalf("second deploy failed: %v", err)
	}

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second deploy changed state (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"sub-user.created-hello"}, cp.subIDs); diff != "" {
		t.Errorf("expected second deploy to update the stored subscription (-want +got):\n%s", diff)
	}
}

func TestDeployCORSFailure(t *testing.T) {

	tt := []struct {
		name string
		err  error
		want string
	}{
		{name: "already exists", err: &gateway.Error{Status: 400, Message: "Subscription already exists", Kind: gateway.KindAlreadyExists}},
		{name: "other", err: &gateway.Error{Status: 500, Message: "internal error"}, want: "internal error"},
		{name: "plain", err: errors.New("connection reset"), want: "connection reset"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			saver := &memSaver{}
			cp := &fakeControlPlane{corsErr: tc.err}

			_, _, err := NewReconciler(cp, zerolog.Nop()).Deploy(context.Background(), testInputs(), DeployContext{
				ServiceID: "svc-1",
				Saver:     saver,
			})

			if tc.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(saver.saved) != 4 {
					t.Errorf("expected 4 saves, got %v", len(saver.saved))
				}
				return
			}

			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error %q, got: %v", tc.want, err)
			}

			last := saver.last()
			if _, ok := last.Functions["hello"]; !ok {
				t.Errorf("expected saved state to keep the function")
			}
			if _, ok := last.Events["user.created"]; !ok {
				t.Errorf("expected saved state to keep the event")
			}
			if _, ok := last.Subscriptions["user.created"]["hello"]; !ok {
				t.Errorf("expected saved state to keep the subscription")
			}
			if len(last.Cors) != 0 {
				t.Errorf("expected no cors in saved state, got %v", last.Cors)
			}
		})
	}
}

func TestDeployAborts(t *testing.T) {

	tt := []struct {
		name   string
		failOn Kind
		err    error
		want   string
		calls  int
	}{
		{name: "function", failOn: KindFunction, err: errors.New("bad provider"),
			want: `could not register function "hello": bad provider`, calls: 1},
		{name: "event", failOn: KindEvent, err: errors.New("bad authorizer"),
			want: `could not register event "user.created": bad authorizer`, calls: 2},
		{name: "subscription exists", failOn: KindSubscription,
			err:   &gateway.Error{Status: 400, Message: "Subscription already exists", Kind: gateway.KindAlreadyExists},
			want:  `Subscription already exists - Event: "user.created", Function: "hello", Path: "/myspace/users", Method: "POST"`,
			calls: 3},
		{name: "subscription", failOn: KindSubscription, err: errors.New("boom"),
			want: `could not register subscription "user.created"/"hello": boom`, calls: 3},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			saver := &memSaver{}
			cp := &fakeControlPlane{failOn: tc.failOn, err: tc.err}

			_, state, err := NewReconciler(cp, zerolog.Nop()).Deploy(context.Background(), testInputs(), DeployContext{
				ServiceID: "svc-1",
				Saver:     saver,
			})
			if err == nil || err.Error() != tc.want {
				t.Fatalf("expected error %q, got: %v", tc.want, err)
			}
			if !errors.Is(err, tc.err) {
				t.Errorf("expected error to wrap %v", tc.err)
			}
			if len(cp.calls) != tc.calls {
				t.Errorf("expected %v calls, got %v", tc.calls, cp.calls)
			}
			if len(saver.saved) != tc.calls-1 {
				t.Errorf("expected %v saves, got %v", tc.calls-1, len(saver.saved))
			}
			if len(saver.saved) > 0 {
				if diff := cmp.Diff(saver.last(), state); diff != "" {
					t.Errorf("returned state differs from saved state (-saved +returned):\n%s", diff)
				}
			}
		})
	}
}

func TestDeployKeepsCallerState(t *testing.T) {

	prior := NewState()
	prior.Functions["old"] = gateway.Function{FunctionID: "old"}

	_, state, err := NewReconciler(&fakeControlPlane{}, zerolog.Nop()).Deploy(context.Background(), testInputs(), DeployContext{
		ServiceID: "svc-1",
		State:     prior,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(prior.Functions) != 1 || len(prior.Events) != 0 {
		t.Errorf("caller state was modified: %+v", prior)
	}
	if _, ok := state.Functions["old"]; !ok {
		t.Errorf("expected prior functions to be carried over")
	}
}

func TestDeployMissingSpace(t *testing.T) {

	in := testInputs()
	in.Space = ""

	cp := &fakeControlPlane{}
	_, _, err := NewReconciler(cp, zerolog.Nop()).Deploy(context.Background(), in, DeployContext{})
	if err == nil || !strings.Contains(err.Error(), "missing space") {
		t.Errorf("expected missing space error, got: %v", err)
	}
	if len(cp.calls) != 0 {
		t.Errorf("expected no calls, got %v", cp.calls)
	}
}

func TestRun(t *testing.T) {

	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)

		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("could not decode request: %v", err)
		}
		switch {
		case strings.HasSuffix(r.URL.Path, "/subscriptions"):
			body["subscriptionId"] = "sub-1"
		case strings.HasSuffix(r.URL.Path, "/cors"):
			body["corsId"] = "cors-1"
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(body)
	}))
	defer srv.Close()

	in := testInputs()
	in.URL = srv.URL

	store := &memSaver{}
	out, err := Run(context.Background(), in, "svc-1", store, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"POST /v1/spaces/myspace/functions",
		"POST /v1/spaces/myspace/eventtypes",
		"POST /v1/spaces/myspace/subscriptions",
		"POST /v1/spaces/myspace/cors",
	}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("unexpected requests (-want +got):\n%s", diff)
	}
	if id := out.Subscriptions["user.created"]["hello"].SubscriptionID; id != "sub-1" {
		t.Errorf("expected subscription id sub-1, got %q", id)
	}
	if id := store.last().Cors["/myspace/users"]["POST"].CORSID; id != "cors-1" {
		t.Errorf("expected stored cors id cors-1, got %q", id)
	}
}
