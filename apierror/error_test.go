package apierror

import (
	"errors"
	"testing"
)

func TestNew_AppliesOptionsInOrder(t *testing.T) {
	e := New("INVALID_REQUEST", "99001", "Invalid request", 400,
		WithMetadataOption("a", 1),
		WithMetadataMapOption(map[string]any{"a": 2, "b": "x"}),
	)
	md := e.Metadata()
	if md["a"] != 2 || md["b"] != "x" {
		t.Fatalf("metadata = %v, want a=2 b=x", md)
	}
	if e.Name() != "INVALID_REQUEST" || e.Code() != "99001" || e.Message() != "Invalid request" || e.HTTPStatus() != 400 {
		t.Fatalf("fields not set: %s", e)
	}
}

func TestError_MetadataIsCopied(t *testing.T) {
	e := New("X", "1", "m", 400, WithMetadataOption("k", "v"))
	md := e.Metadata()
	md["k"] = "changed"
	md["new"] = true
	if got := e.Metadata(); got["k"] != "v" || len(got) != 1 {
		t.Fatalf("caller mutation leaked into error: %v", got)
	}
	if New("Y", "2", "m", 400).Metadata() != nil {
		t.Fatalf("Metadata() of an entry without metadata must be nil")
	}
}

func TestWithMetadata_OverridesOnlyMetadata(t *testing.T) {
	base := New("GENERIC_BAD_REQUEST", "100", "Invalid request", 400, WithMetadataOption("a", 1))
	dec := base.WithMetadata(map[string]any{"field": "email", "a": 9})

	if !dec.SameContent(base) || dec.Name() != base.Name() {
		t.Fatalf("decorated error must forward name/code/message/status, got %s", dec)
	}
	if dec.Metadata()["field"] != "email" || dec.Metadata()["a"] != 9 {
		t.Fatalf("overlay not applied: %v", dec.Metadata())
	}
	if base.Metadata()["a"] != 1 || base.Metadata()["field"] != nil {
		t.Fatalf("base mutated: %v", base.Metadata())
	}
	if dec.Equal(base) {
		t.Fatalf("different metadata must not be Equal")
	}
	if !base.WithMetadata(nil).Equal(base) {
		t.Fatalf("empty overlay must return an Equal error")
	}
}

func TestWrap(t *testing.T) {
	w := Wrap("CARD_SERVICE_UNAVAILABLE", TemporaryServiceProblem)
	if w.Name() != "CARD_SERVICE_UNAVAILABLE" {
		t.Fatalf("name = %q", w.Name())
	}
	if !w.SameContent(TemporaryServiceProblem) {
		t.Fatalf("wrapper must share code/message/status")
	}
	if !IsWrapperAroundCoreError(w, DefaultCoreErrors().List()) {
		t.Fatalf("wrapper not recognised")
	}
	if !IsWrapperAroundCoreError(TemporaryServiceProblem, []Error{TemporaryServiceProblem}) {
		t.Fatalf("names must not be compared")
	}
	reworded := New("CARD_SERVICE_UNAVAILABLE", TemporaryServiceProblem.Code(), "Card service unavailable", TemporaryServiceProblem.HTTPStatus())
	if IsWrapperAroundCoreError(reworded, DefaultCoreErrors().List()) {
		t.Fatalf("a different message is not a wrapper")
	}
}

func TestEqual_NilAndEmptyMetadata(t *testing.T) {
	a := New("A", "1", "m", 400)
	b := New("A", "1", "m", 400, WithMetadataMapOption(map[string]any{}))
	if !a.Equal(b) {
		t.Fatalf("nil and empty metadata must be equal")
	}
}

func TestCompare_TotalOrder(t *testing.T) {
	tests := []struct {
		name string
		a, b Error
		want int
	}{
		{"numeric code", New("B", "9", "m", 400), New("A", "10", "m", 400), -1},
		{"name breaks code tie", New("A", "10", "m", 400), New("B", "10", "m", 400), -1},
		{"status breaks name tie", New("A", "10", "m", 500), New("A", "10", "m", 400), 1},
		{"metadata breaks the rest", New("A", "10", "m", 400, WithMetadataOption("k", 1)), New("A", "10", "m", 400, WithMetadataOption("k", 2)), -1},
		{"metadata type breaks a print tie", New("A", "10", "m", 400, WithMetadataOption("k", 1)), New("A", "10", "m", 400, WithMetadataOption("k", int64(1))), -1},
		{"equal", New("A", "10", "m", 400), New("A", "10", "m", 400), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Fatalf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := Compare(tt.b, tt.a); got != -tt.want {
				t.Fatalf("Compare must be antisymmetric, got %d", got)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	for _, ok := range []string{"NOT_FOUND", "billing.card_declined", "E-1"} {
		if err := ValidateName(ok); err != nil {
			t.Fatalf("ValidateName(%q) unexpected error: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "1ABC", "has space", "_X"} {
		if err := ValidateName(bad); !errors.Is(err, ErrNameInvalid) {
			t.Fatalf("ValidateName(%q) = %v, want ErrNameInvalid", bad, err)
		}
	}
}

func TestString(t *testing.T) {
	if got := NotFound.String(); got != "NOT_FOUND(code=404, status=404)" {
		t.Fatalf("String() = %q", got)
	}
}
