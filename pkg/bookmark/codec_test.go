package bookmark

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var secret = []byte("0123456789abcdef")

func sampleValues() url.Values {
	return url.Values{
		"form-TOTAL_FORMS": {"1"},
		"form-0-model":     {"Blog.Post"},
		"form-0-field":     {"title"},
		"limit":            {"100"},
	}
}

func TestEncodeDecode_RoundTrips(t *testing.T) {
	token, err := Encode(sampleValues(), secret)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := Decode(token, secret)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(sampleValues(), decoded); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_DetectsTampering(t *testing.T) {
	token, err := Encode(sampleValues(), secret)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	flipped := []byte(token)
	if flipped[len(flipped)-5] == 'A' {
		flipped[len(flipped)-5] = 'B'
	} else {
		flipped[len(flipped)-5] = 'A'
	}
	if _, err := Decode(string(flipped), secret); !errors.Is(err, ErrTampered) {
		t.Fatalf("expected ErrTampered, got %v", err)
	}
}

func TestDecode_RejectsWrongSecret(t *testing.T) {
	token, err := Encode(sampleValues(), secret)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(token, []byte("another-secret")); !errors.Is(err, ErrTampered) {
		t.Fatalf("expected ErrTampered, got %v", err)
	}
}

func TestDecode_RepairsQueryStringDamage(t *testing.T) {
	token, err := Encode(sampleValues(), secret)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// Browsers turn '+' into spaces and strip '=' padding in query strings.
	damaged := strings.TrimRight(strings.ReplaceAll(token, "+", " "), "=")
	decoded, err := Decode(damaged, secret)
	if err != nil {
		t.Fatalf("decode damaged token: %v", err)
	}
	if diff := cmp.Diff(sampleValues(), decoded); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_RejectsShortTokens(t *testing.T) {
	if _, err := Decode("YQ==", secret); !errors.Is(err, ErrTampered) {
		t.Fatalf("expected ErrTampered for short payload, got %v", err)
	}
	if _, err := Decode("!!!not base64!!!", secret); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestHash_IsStableAndKeyed(t *testing.T) {
	first := Hash(sampleValues(), secret)
	second := Hash(sampleValues(), secret)
	if first != second {
		t.Fatalf("hash not deterministic: %s vs %s", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("expected a hex sha256 digest, got %q", first)
	}
	if Hash(sampleValues(), []byte("other")) == first {
		t.Fatal("hash must depend on the secret")
	}

	changed := sampleValues()
	changed.Set("limit", "50")
	if Hash(changed, secret) == first {
		t.Fatal("hash must depend on the values")
	}
}

func TestEncode_RequiresSecret(t *testing.T) {
	if _, err := Encode(sampleValues(), nil); err == nil {
		t.Fatal("expected error for missing secret")
	}
	if _, err := Decode("whatever", nil); err == nil {
		t.Fatal("expected error for missing secret")
	}
}
