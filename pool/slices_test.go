package pool

import (
	"testing"

	rv "github.com/rowpipe/validator"
)

func TestAcquireErrors(t *testing.T) {
	s := AcquireErrors()
	if s == nil {
		t.Fatal("AcquireErrors() = nil")
	}
	if len(*s) != 0 {
		t.Errorf("len = %d; want an empty scratch slice", len(*s))
	}

	*s = append(*s, rv.ValidationError{Field: "x"})
	ReleaseErrors(s)

	// A reacquired slice must come back empty even after reuse.
	s2 := AcquireErrors()
	if len(*s2) != 0 {
		t.Errorf("reacquired len = %d; want 0", len(*s2))
	}
	ReleaseErrors(s2)
}

func TestReleaseErrors_Nil(t *testing.T) {
	ReleaseErrors(nil) // must not panic
}

func TestReleaseErrors_Oversized(t *testing.T) {
	big := make([]rv.ValidationError, 0, 4096)
	ReleaseErrors(&big) // discarded, not pooled; must not panic
}
