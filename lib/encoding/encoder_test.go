package encoding

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"testing"
)

func testState() map[string]any {
	return map[string]any{
		"greeting": "hello",
		"target":   "world",
		"user": map[string]any{
			"name":   "ada",
			"active": true,
			"tags":   []any{"admin", "ops"},
		},
	}
}

// tamper flips the first character, which changes the first decoded byte.
func tamper(encoded string) string {
	c := byte('A')
	if encoded[0] == 'A' {
		c = 'B'
	}
	return string(c) + encoded[1:]
}

func TestNewEncoder(t *testing.T) {
	// Should work with any key length (derives 32-byte key)
	_, err := NewEncoder([]byte("short"))
	if err != nil {
		t.Fatalf("NewEncoder with short key failed: %v", err)
	}

	_, err = NewEncoder([]byte("this-is-a-32-byte-key-for-aes!!!"))
	if err != nil {
		t.Fatalf("NewEncoder with 32-byte key failed: %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	enc, err := NewEncoder([]byte("test-key"))
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}

	for _, sensitive := range []bool{false, true} {
		encoded, err := enc.Encode(testState(), sensitive)
		if err != nil {
			t.Fatalf("Encode(sensitive=%v) failed: %v", sensitive, err)
		}
		if encoded == "" {
			t.Fatalf("Encode(sensitive=%v) returned empty string", sensitive)
		}

		decoded, err := enc.Decode(encoded, sensitive)
		if err != nil {
			t.Fatalf("Decode(sensitive=%v) failed: %v", sensitive, err)
		}
		if !reflect.DeepEqual(decoded, testState()) {
			t.Errorf("Decode(sensitive=%v) = %v, want %v", sensitive, decoded, testState())
		}
	}
}

func TestMarshalIsDeterministic(t *testing.T) {
	first, err := Marshal(testState())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	for range 10 {
		again, err := Marshal(testState())
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatal("Marshal produced different bytes for equal maps")
		}
	}
}

func TestSignedIsDeterministic(t *testing.T) {
	enc, _ := NewEncoder([]byte("test-key"))

	a, _ := enc.Encode(testState(), false)
	b, _ := enc.Encode(testState(), false)
	if a != b {
		t.Error("signed encodings of equal states differ")
	}

	// Encrypted output uses a random nonce
	c, _ := enc.Encode(testState(), true)
	d, _ := enc.Encode(testState(), true)
	if c == d {
		t.Error("encrypted encodings should differ")
	}
}

func TestSignatureVerificationFailure(t *testing.T) {
	enc, err := NewEncoder([]byte("test-key"))
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}

	encoded, err := enc.Encode(testState(), false)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	_, err = enc.Decode(tamper(encoded), false)
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("Expected ErrSignatureInvalid, got: %v", err)
	}
}

func TestDecryptionFailure(t *testing.T) {
	enc, err := NewEncoder([]byte("test-key"))
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}

	encoded, err := enc.Encode(testState(), true)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	_, err = enc.Decode(tamper(encoded), true)
	if !errors.Is(err, ErrDecryptFailed) {
		t.Errorf("Expected ErrDecryptFailed, got: %v", err)
	}
}

func TestInvalidFormat(t *testing.T) {
	enc, err := NewEncoder([]byte("test-key"))
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}

	tests := []struct {
		name      string
		encoded   string
		sensitive bool
	}{
		{"missing separator", "invalidbase64withoutseparator", false},
		{"bad body", "!!!.AAAA", false},
		{"short ciphertext", "AAAA", true},
		{"bad ciphertext", "!!!", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := enc.Decode(tt.encoded, tt.sensitive)
			if !errors.Is(err, ErrInvalidFormat) {
				t.Errorf("Expected ErrInvalidFormat, got: %v", err)
			}
		})
	}
}

func TestDifferentKeysCannotDecode(t *testing.T) {
	enc1, _ := NewEncoder([]byte("key-one"))
	enc2, _ := NewEncoder([]byte("key-two"))

	for _, sensitive := range []bool{false, true} {
		encoded, err := enc1.Encode(testState(), sensitive)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}

		if _, err := enc2.Decode(encoded, sensitive); err == nil {
			t.Errorf("Expected error when decoding with different key (sensitive=%v)", sensitive)
		}
	}
}

func TestEmptyState(t *testing.T) {
	enc, err := NewEncoder([]byte("test-key"))
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}

	encoded, err := enc.Encode(map[string]any{}, false)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := enc.Decode(encoded, false)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if m, ok := decoded.(map[string]any); !ok || len(m) != 0 {
		t.Errorf("Decode() = %#v, want empty map", decoded)
	}
}

func TestUnmarshalRestoresInts(t *testing.T) {
	data, err := Marshal(map[string]any{
		"count": 2,
		"neg":   int64(-7),
		"small": int8(3),
		"big":   uint64(math.MaxUint64),
		"ratio": 0.5,
		"list":  []any{1, "two"},
		"inner": map[string]any{"n": uint16(9)},
	})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	v, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	want := map[string]any{
		"count": 2,
		"neg":   -7,
		"small": 3,
		"big":   uint64(math.MaxUint64),
		"ratio": 0.5,
		"list":  []any{1, "two"},
		"inner": map[string]any{"n": 9},
	}
	if !reflect.DeepEqual(v, want) {
		t.Errorf("Unmarshal() = %#v, want %#v", v, want)
	}
}

func TestUnmarshalNil(t *testing.T) {
	data, err := Marshal(nil)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	v, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if v != nil {
		t.Errorf("Unmarshal() = %v, want nil", v)
	}
}
