package jwt

import (
	"errors"
	"testing"
	"time"
)

func TestMintAndDecode_Success(t *testing.T) {
	t.Parallel()

	codec := NewCodec("super-secret")

	tok, err := codec.Mint("a@x.com", KindAccess, time.Hour)
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	claims, err := codec.Decode(tok)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if claims.Subject != "a@x.com" {
		t.Fatalf("subject mismatch: got %q want %q", claims.Subject, "a@x.com")
	}
	if claims.Kind != KindAccess {
		t.Fatalf("kind mismatch: got %q want %q", claims.Kind, KindAccess)
	}
	if !claims.ExpiresAt.After(time.Now()) {
		t.Fatalf("expected expiry in the future, got %v", claims.ExpiresAt)
	}
}

func TestMintAndDecode_KindRoundTrips(t *testing.T) {
	t.Parallel()

	codec := NewCodec("k")

	for _, kind := range []Kind{KindAccess, KindRefresh} {
		tok, err := codec.Mint("u1", kind, time.Hour)
		if err != nil {
			t.Fatalf("Mint(%s) error: %v", kind, err)
		}

		claims, err := codec.Decode(tok)
		if err != nil {
			t.Fatalf("Decode(%s) error: %v", kind, err)
		}
		if claims.Kind != kind {
			t.Fatalf("kind mismatch: got %q want %q", claims.Kind, kind)
		}
	}
}

func TestDecode_Expired(t *testing.T) {
	t.Parallel()

	codec := NewCodec("secret")

	tok, err := codec.Mint("u1", KindAccess, -1*time.Second)
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	_, err = codec.Decode(tok)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestDecode_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewCodec("right-secret").Mint("u2", KindAccess, time.Hour)
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	_, err = NewCodec("wrong-secret").Decode(tok)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestDecode_MalformedString(t *testing.T) {
	t.Parallel()

	_, err := NewCodec("k").Decode("not.a.jwt")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for malformed token, got %v", err)
	}
}
