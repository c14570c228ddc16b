package mapper

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"google.golang.org/grpc/codes"

	"dirpx.dev/backstop/apierror"
	"dirpx.dev/backstop/apis"
	"dirpx.dev/backstop/code"
)

func errNamed(name string, status int) apierror.Error {
	return apierror.New(name, code.Code("99001"), "test", status)
}

func TestDefaults_StatusTable(t *testing.T) {
	m, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	check := func(status int, want codes.Code) {
		t.Helper()
		if got := m.GRPCCode(status, nil); got != want {
			t.Fatalf("GRPCCode(%d) = %v; want %v", status, got, want)
		}
	}
	check(http.StatusBadRequest, codes.InvalidArgument)
	check(http.StatusUnauthorized, codes.Unauthenticated)
	check(http.StatusForbidden, codes.PermissionDenied)
	check(http.StatusNotFound, codes.NotFound)
	check(http.StatusMethodNotAllowed, codes.Unimplemented)
	check(http.StatusTooManyRequests, codes.ResourceExhausted)
	check(http.StatusInternalServerError, codes.Internal)
	check(http.StatusServiceUnavailable, codes.Unavailable)
}

func TestFallback_ByClass(t *testing.T) {
	m, err := New(WithClientErrorFallback(codes.Aborted), WithServerErrorFallback(codes.DataLoss))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := m.GRPCCode(418, nil); got != codes.Aborted {
		t.Fatalf("418 got %v; want Aborted", got)
	}
	if got := m.GRPCCode(507, nil); got != codes.DataLoss {
		t.Fatalf("507 got %v; want DataLoss", got)
	}
	if got := m.GRPCCode(302, nil); got != codes.Unknown {
		t.Fatalf("302 got %v; want Unknown", got)
	}
}

func TestWithStatus_ReplacesDefault(t *testing.T) {
	m, err := New(WithStatus(http.StatusConflict, codes.AlreadyExists))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := m.GRPCCode(http.StatusConflict, nil); got != codes.AlreadyExists {
		t.Fatalf("got %v; want AlreadyExists", got)
	}
}

func TestPriority_OverrideOverPrefixOverStatus(t *testing.T) {
	m, err := New(
		WithNamePrefix("OUTSIDE_DEPENDENCY", codes.Unavailable),
		WithNameOverride("OUTSIDE_DEPENDENCY_QUOTA", codes.ResourceExhausted),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	errs := []apierror.Error{errNamed("OUTSIDE_DEPENDENCY_QUOTA", 503)}
	if got := m.GRPCCode(503, errs); got != codes.ResourceExhausted {
		t.Fatalf("override must win; got %v", got)
	}
	errs = []apierror.Error{errNamed("OUTSIDE_DEPENDENCY_TIMEOUT", 500)}
	if got := m.GRPCCode(500, errs); got != codes.Unavailable {
		t.Fatalf("prefix must beat status; got %v", got)
	}
	errs = []apierror.Error{errNamed("SOMETHING_ELSE", 500)}
	if got := m.GRPCCode(500, errs); got != codes.Internal {
		t.Fatalf("status must apply; got %v", got)
	}
}

func TestNameRules_FirstMatchingErrorWins(t *testing.T) {
	m, err := New(
		WithNameOverride("B_ERR", codes.Aborted),
		WithNameOverride("C_ERR", codes.DataLoss),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	errs := []apierror.Error{errNamed("A_ERR", 400), errNamed("B_ERR", 400), errNamed("C_ERR", 400)}
	if got := m.GRPCCode(400, errs); got != codes.Aborted {
		t.Fatalf("got %v; want Aborted", got)
	}
}

func TestPrefix_LPM_And_SegmentBoundary(t *testing.T) {
	m, err := New(
		WithNamePrefix("billing", codes.FailedPrecondition),
		WithNamePrefix("billing.card", codes.InvalidArgument),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := m.GRPCCode(500, []apierror.Error{errNamed("billing.card.declined", 402)}); got != codes.InvalidArgument {
		t.Fatalf("longest prefix must win; got %v", got)
	}
	// "billingx" is not a segment-boundary match for "billing".
	if got := m.GRPCCode(500, []apierror.Error{errNamed("billingx.card", 402)}); got != codes.Internal {
		t.Fatalf("segment boundary violated; got %v", got)
	}
}

func TestWildcard_OneSegment(t *testing.T) {
	m, err := New(WithNamePrefix("*_NOT_FOUND", codes.NotFound))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := m.GRPCCode(400, []apierror.Error{errNamed("ORDER_NOT_FOUND", 400)}); got != codes.NotFound {
		t.Fatalf("wildcard miss; got %v", got)
	}
	// Two leading segments do not fit one wildcard.
	if got := m.GRPCCode(400, []apierror.Error{errNamed("SALES_ORDER_NOT_FOUND", 400)}); got != codes.InvalidArgument {
		t.Fatalf("wildcard must match exactly one segment; got %v", got)
	}
}

func TestNew_InvalidRules(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"status too low", WithStatus(99, codes.OK)},
		{"status too high", WithStatus(600, codes.OK)},
		{"bad override name", WithNameOverride("1BAD", codes.OK)},
		{"empty prefix", WithNamePrefix("", codes.OK)},
		{"wildcard only prefix", WithNamePrefix("*.*", codes.OK)},
		{"bad prefix charset", WithNamePrefix("A B", codes.OK)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opt); !errors.Is(err, ErrInvalidRule) {
				t.Fatalf("New() err = %v; want ErrInvalidRule", err)
			}
		})
	}
}

func TestMustNew_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	_ = MustNew(WithStatus(0, codes.OK))
}

func TestDefaultGRPC_IsCopy(t *testing.T) {
	d := DefaultGRPC()
	d[http.StatusBadRequest] = codes.DataLoss
	if got := MustNew().GRPCCode(http.StatusBadRequest, nil); got != codes.InvalidArgument {
		t.Fatalf("DefaultGRPC leaked internal state; got %v", got)
	}
}

func TestExplain_Sources_And_Pattern(t *testing.T) {
	m, err := New(WithNamePrefix("storage.*.connect", codes.Unavailable))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	exp := m.Explain(500, "storage.pg.connect.timeout")
	if !strings.Contains(exp, `source=prefix pattern="storage.*.connect"`) {
		t.Fatalf("Explain missing prefix pattern:\n%s", exp)
	}
	if !strings.Contains(exp, "UNAVAILABLE(14)") {
		t.Fatalf("Explain missing code label:\n%s", exp)
	}
	exp = m.Explain(500, "other")
	if !strings.Contains(exp, "source=status -> INTERNAL(13)") {
		t.Fatalf("Explain status tier:\n%s", exp)
	}
}

func TestCodeLabel(t *testing.T) {
	tests := map[codes.Code]string{
		codes.OK:                 "OK(0)",
		codes.InvalidArgument:    "INVALID_ARGUMENT(3)",
		codes.DeadlineExceeded:   "DEADLINE_EXCEEDED(4)",
		codes.ResourceExhausted:  "RESOURCE_EXHAUSTED(8)",
		codes.FailedPrecondition: "FAILED_PRECONDITION(9)",
	}
	for c, want := range tests {
		if got := codeLabel(c); got != want {
			t.Fatalf("codeLabel(%v) = %q; want %q", c, got, want)
		}
	}
}

func TestConcurrency_GRPCCode(t *testing.T) {
	m, err := New(WithNamePrefix("OUTSIDE_DEPENDENCY", codes.Unavailable))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	errs := []apierror.Error{errNamed("OUTSIDE_DEPENDENCY_TIMEOUT", 503)}

	var wg sync.WaitGroup
	const N = 64
	wg.Add(N)
	for i := 0; i < N; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if got := m.GRPCCode(503, errs); got != codes.Unavailable {
					t.Errorf("got %v", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func BenchmarkGRPCCode_Status(b *testing.B) {
	m := MustNew()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.GRPCCode(404, nil)
	}
}

func BenchmarkGRPCCode_PrefixHit(b *testing.B) {
	m := MustNew(WithNamePrefix("OUTSIDE_DEPENDENCY", codes.Unavailable))
	errs := []apierror.Error{errNamed("OUTSIDE_DEPENDENCY_TIMEOUT", 503)}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.GRPCCode(503, errs)
	}
}

func TestMapper_InterfaceSatisfaction(t *testing.T) {
	var _ apis.Mapper = (*mapper)(nil)
}
