package shared

import (
	"encoding/base64"
	"errors"
	"testing"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	iv := base64.StdEncoding.EncodeToString([]byte("123456789012"))
	ct := base64.StdEncoding.EncodeToString([]byte("some cipher text"))

	content := EncodeEnvelope(iv, ct)

	gotIV, gotCT, err := DecodeEnvelope(content)
	if err != nil {
		t.Fatalf("DecodeEnvelope failed: %v", err)
	}
	if gotIV != iv {
		t.Errorf("iv mismatch: got %q, want %q", gotIV, iv)
	}
	if gotCT != ct {
		t.Errorf("cipher text mismatch: got %q, want %q", gotCT, ct)
	}
}

func TestDecodeEnvelopeMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"no delimiter", "aGVsbG8="},
		{"empty iv", "|aGVsbG8="},
		{"empty cipher text", "aGVsbG8=|"},
		{"invalid base64 iv", "not base64!|aGVsbG8="},
		{"invalid base64 cipher text", "aGVsbG8=|not base64!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeEnvelope(tt.content)
			if !errors.Is(err, ErrMalformedEnvelope) {
				t.Errorf("expected ErrMalformedEnvelope, got %v", err)
			}
		})
	}
}

func TestDecodeEnvelopeCipherTextMayContainDelimiterBytes(t *testing.T) {
	// The raw cipher text may contain '|' bytes; base64 encoding keeps the
	// stored form unambiguous.
	iv := base64.StdEncoding.EncodeToString([]byte("123456789012"))
	ct := base64.StdEncoding.EncodeToString([]byte("with|pipe|bytes"))

	gotIV, gotCT, err := DecodeEnvelope(EncodeEnvelope(iv, ct))
	if err != nil {
		t.Fatalf("DecodeEnvelope failed: %v", err)
	}
	if gotIV != iv || gotCT != ct {
		t.Error("round trip altered envelope halves")
	}
}
