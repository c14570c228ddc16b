package backstop

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"dirpx.dev/backstop/apierror"
	"dirpx.dev/backstop/apis"
)

var (
	errA = apierror.New("A", "99001", "a", 400)
	errB = apierror.New("B", "99002", "b", 400)
	errC = apierror.New("C", "99003", "c", 404)
)

func TestBuilder_IsAdditiveAndOrderPreserving(t *testing.T) {
	e, err := NewBuilder().
		WithAPIErrors(errA, errB).
		WithAPIErrors(errC).
		WithAPIErrors(errA).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	got := e.APIErrors()
	want := []apierror.Error{errA, errB, errC, errA}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("APIErrors() = %v, want %v", got, want)
	}
}

func TestBuilder_AccumulatesDetailsAndHeaders(t *testing.T) {
	e, err := NewBuilder().
		WithAPIErrors(errA).
		WithExtraDetailsForLogging(P("k1", "v1")).
		WithExtraDetailsForLogging(P("k2", "v2"), P("k1", "again")).
		WithExtraResponseHeaders(map[string][]string{"Retry-After": {"5"}}).
		WithExtraResponseHeader("Retry-After", "10").
		WithExtraResponseHeader("X-Other", "o").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	wantPairs := []Pair{{Key: "k1", Value: "v1"}, {Key: "k2", Value: "v2"}, {Key: "k1", Value: "again"}}
	if got := e.ExtraDetailsForLogging(); !reflect.DeepEqual(got, wantPairs) {
		t.Fatalf("pairs = %v, want %v", got, wantPairs)
	}
	h := e.ExtraResponseHeaders()
	if !reflect.DeepEqual(h["Retry-After"], []string{"5", "10"}) || !reflect.DeepEqual(h["X-Other"], []string{"o"}) {
		t.Fatalf("headers = %v", h)
	}
}

func TestBuilder_EmptyFails(t *testing.T) {
	if _, err := NewBuilder().WithMessage("x").Build(); !errors.Is(err, ErrNoAPIErrors) {
		t.Fatalf("Build() err = %v, want ErrNoAPIErrors", err)
	}
	if _, err := NewAPIException(); !errors.Is(err, ErrNoAPIErrors) {
		t.Fatalf("NewAPIException() err = %v, want ErrNoAPIErrors", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("MustAPIException() must panic without errors")
		}
	}()
	MustAPIException()
}

func TestAPIException_DefaultsNeverNil(t *testing.T) {
	e := MustAPIException(errA)
	if e.ExtraDetailsForLogging() == nil {
		t.Fatalf("ExtraDetailsForLogging() must never be nil")
	}
	if e.LoggingBehavior() != DeferToDefault {
		t.Fatalf("LoggingBehavior() = %v", e.LoggingBehavior())
	}
}

func TestAPIException_BuiltValueIsDetached(t *testing.T) {
	b := NewBuilder().WithAPIErrors(errA).WithExtraResponseHeader("H", "1")
	e, _ := b.Build()
	b.WithAPIErrors(errB).WithExtraResponseHeader("H", "2")

	if len(e.APIErrors()) != 1 || len(e.ExtraResponseHeaders()["H"]) != 1 {
		t.Fatalf("builder changes leaked into built exception: %v %v", e.APIErrors(), e.ExtraResponseHeaders())
	}
	got := e.APIErrors()
	got[0] = errC
	if e.APIErrors()[0].Name() != "A" {
		t.Fatalf("APIErrors() must return a copy")
	}
}

func TestAPIException_ErrorAndUnwrap(t *testing.T) {
	root := errors.New("db down")
	e, _ := NewBuilder().
		WithAPIErrors(errA, errB).
		WithCause(root).
		WithMessage("saving order").
		WithLoggingBehavior(ForceFullDetail).
		Build()

	if !errors.Is(e, root) {
		t.Fatalf("errors.Is must reach the cause")
	}
	if got, want := e.Error(), "saving order: [A, B]: db down"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if got := MustAPIException(errC).Error(); got != "api exception: [C]" {
		t.Fatalf("Error() = %q", got)
	}

	var carrier apis.APIErrorCarrier
	if !errors.As(wrap(e), &carrier) || len(carrier.APIErrors()) != 2 {
		t.Fatalf("APIException must be found through wrapping")
	}
	var lb apis.LoggingBehaviorCarrier
	if !errors.As(wrap(e), &lb) || lb.LoggingBehavior() != ForceFullDetail {
		t.Fatalf("logging behavior not observable")
	}
}

func TestValidationErrors(t *testing.T) {
	type signup struct{}
	cv := NewClientDataValidationError(
		[]any{signup{}},
		[]Violation{{Field: "email", Constraint: "format", Message: "INVALID_EMAIL"}},
		"default",
	)
	if !strings.Contains(cv.Error(), "backstop.signup") || !strings.Contains(cv.Error(), "1 violation") {
		t.Fatalf("Error() = %q", cv.Error())
	}
	if cv.Violations()[0].String() != "email format: INVALID_EMAIL" {
		t.Fatalf("Violation.String() = %q", cv.Violations()[0].String())
	}
	cause := errors.New("c")
	if !errors.Is(cv.WithCause(cause), cause) || cv.Unwrap() != nil {
		t.Fatalf("WithCause must copy")
	}

	sv := NewServersideValidationError(&signup{}, nil)
	if sv.ObjectType() != "*backstop.signup" {
		t.Fatalf("ObjectType() = %q", sv.ObjectType())
	}
}

func TestNetworkErrors_Kinds(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	tests := []struct {
		name string
		err  apis.NetworkFailure
		kind apis.NetworkFailureKind
		msg  string
	}{
		{"generic", NewNetworkError("payments", cause), apis.NetworkFailureGeneric, "downstream payments: call failed: dial tcp: refused"},
		{"timeout", NewServerTimeoutError("payments", nil), apis.NetworkFailureTimeout, "downstream payments: timed out"},
		{"unreachable", NewServerUnreachableError("payments", cause), apis.NetworkFailureUnreachable, "downstream payments: unreachable: dial tcp: refused"},
		{"status", NewServerHTTPStatusError("payments", 503, "busy", nil, nil), apis.NetworkFailureHTTPStatus, "downstream payments: unexpected HTTP status 503"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.NetworkFailureKind() != tt.kind {
				t.Fatalf("kind = %v, want %v", tt.err.NetworkFailureKind(), tt.kind)
			}
			if tt.err.ConnectionType() != "payments" {
				t.Fatalf("ConnectionType() = %q", tt.err.ConnectionType())
			}
			if tt.err.Error() != tt.msg {
				t.Fatalf("Error() = %q, want %q", tt.err.Error(), tt.msg)
			}
		})
	}

	var st apis.DownstreamHTTPStatus
	err := wrap(NewServerHTTPStatusError("search", 429, "slow down", map[string][]string{"Retry-After": {"1"}}, nil))
	if !errors.As(err, &st) {
		t.Fatalf("DownstreamHTTPStatus not found")
	}
	if st.DownstreamStatusCode() != 429 || st.DownstreamResponseBody() != "slow down" || st.DownstreamResponseHeaders()["Retry-After"][0] != "1" {
		t.Fatalf("downstream details lost")
	}
}

type wrapped struct{ err error }

func (w wrapped) Error() string { return "wrapped: " + w.err.Error() }
func (w wrapped) Unwrap() error { return w.err }

func wrap(err error) error { return wrapped{err} }
