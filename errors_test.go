package nsdux

import (
	"errors"
	"fmt"
	"testing"

	"github.com/pthm/nsdux/lib/encoding"
)

func TestSentinelErrors(t *testing.T) {
	// Verify sentinel errors are distinct
	errs := []error{
		ErrNoStore,
		ErrDuplicateMount,
		ErrAlreadyMounted,
		ErrMountCycle,
		ErrNotMounted,
		ErrNotInvokable,
		ErrIncompatibleState,
		ErrNameCollision,
		ErrDecryptFailed,
		ErrSignatureInvalid,
		ErrInvalidFormat,
	}

	for i, err1 := range errs {
		for j, err2 := range errs {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v and %v", err1, err2)
			}
		}
	}
}

func TestIsConfigError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect bool
	}{
		{"nil error", nil, false},
		{"ErrNoStore", ErrNoStore, true},
		{"wrapped ErrNoStore", fmt.Errorf("%w for %q", ErrNoStore, "root"), true},
		{"mount error", ErrDuplicateMount, false},
		{"other error", errors.New("other error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConfigError(tt.err); got != tt.expect {
				t.Errorf("IsConfigError(%v) = %v, want %v", tt.err, got, tt.expect)
			}
		})
	}
}

func TestIsMountError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect bool
	}{
		{"nil error", nil, false},
		{"ErrDuplicateMount", ErrDuplicateMount, true},
		{"ErrAlreadyMounted", ErrAlreadyMounted, true},
		{"ErrMountCycle", ErrMountCycle, true},
		{"wrapped ErrIncompatibleState", fmt.Errorf("mount %q: %w", "x", ErrIncompatibleState), true},
		{"ErrNotMounted", ErrNotMounted, false},
		{"ErrNoStore", ErrNoStore, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsMountError(tt.err); got != tt.expect {
				t.Errorf("IsMountError(%v) = %v, want %v", tt.err, got, tt.expect)
			}
		})
	}
}

func TestIsSnapshotError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect bool
	}{
		{"nil error", nil, false},
		{"ErrDecryptFailed", ErrDecryptFailed, true},
		{"ErrSignatureInvalid", ErrSignatureInvalid, true},
		{"ErrInvalidFormat", ErrInvalidFormat, true},
		{"ErrNameCollision", ErrNameCollision, false},
		{"other error", errors.New("other error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSnapshotError(tt.err); got != tt.expect {
				t.Errorf("IsSnapshotError(%v) = %v, want %v", tt.err, got, tt.expect)
			}
		})
	}
}

func TestWrapEncodingError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"invalid format", fmt.Errorf("%w: bad base64", encoding.ErrInvalidFormat), ErrInvalidFormat},
		{"signature", encoding.ErrSignatureInvalid, ErrSignatureInvalid},
		{"decrypt", encoding.ErrDecryptFailed, ErrDecryptFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapEncodingError(tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("wrapEncodingError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}

	if wrapEncodingError(nil) != nil {
		t.Error("wrapEncodingError(nil) should be nil")
	}
	other := errors.New("other")
	if wrapEncodingError(other) != other {
		t.Error("unknown errors should pass through")
	}
}

func TestErrorsReachCallers(t *testing.T) {
	root := NewNamespace(WithName("root"))
	mustMount(t, root, "a", NewAction())

	_, err := root.Invoke("a")
	if !IsConfigError(err) {
		t.Errorf("Invoke() without store error = %v, want a config error", err)
	}

	err = root.Mount("a", NewAction())
	if !IsMountError(err) {
		t.Errorf("Mount() on a taken location error = %v, want a mount error", err)
	}
}
