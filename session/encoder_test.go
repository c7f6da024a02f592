package session

import (
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := &Session{UserID: "user-42", CreatedAt: 1700000000, ExpiresAt: 1700086400}

	data, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.UserID != in.UserID || out.CreatedAt != in.CreatedAt || out.ExpiresAt != in.ExpiresAt {
		t.Fatalf("round trip mismatch: %+v vs %+v", out, in)
	}
}

func TestEncodeRejectsBadUserID(t *testing.T) {
	if _, err := Encode(&Session{}); err == nil {
		t.Fatal("expected empty userID to be rejected")
	}
	if _, err := Encode(&Session{UserID: strings.Repeat("x", 256)}); err == nil {
		t.Fatal("expected oversized userID to be rejected")
	}
}

func TestDecodeRejectsUnsupportedSchemaVersion(t *testing.T) {
	_, err := Decode([]byte{99})
	if err == nil || !strings.Contains(err.Error(), "unsupported session schema version") {
		t.Fatalf("expected unsupported schema version error, got %v", err)
	}
}

func TestDecodeRejectsTruncatedAndTrailing(t *testing.T) {
	data, err := Encode(&Session{UserID: "u1", CreatedAt: 1, ExpiresAt: 2})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for i := 0; i < len(data); i++ {
		if _, err := Decode(data[:i]); err == nil {
			t.Fatalf("expected truncation at %d to fail", i)
		}
	}
	if _, err := Decode(append(data, 0)); err == nil {
		t.Fatal("expected trailing byte to fail")
	}
}

// FuzzSessionDecode exercises the binary session decoder with arbitrary inputs.
func FuzzSessionDecode(f *testing.F) {
	encoded, err := Encode(&Session{UserID: "user1", CreatedAt: 1700000000, ExpiresAt: 1700003600})
	if err == nil {
		f.Add(encoded)
	}
	f.Add([]byte{})
	f.Add([]byte{1})
	f.Add([]byte{1, 255, 255})

	f.Fuzz(func(t *testing.T, data []byte) {
		s, err := Decode(data)
		if err != nil {
			return
		}
		if _, err := Encode(s); err != nil {
			t.Fatalf("re-encode of decoded session failed: %v", err)
		}
	})
}
