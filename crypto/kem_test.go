package crypto

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"testing"
)

func TestWrapUnwrapRoundTrip(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	dek := bytes.Repeat([]byte{0x7f}, dekSize)
	wrapped, err := wrapDEK(dek, &priv.PublicKey)
	if err != nil {
		t.Fatalf("wrap failed: %v", err)
	}
	if len(wrapped) != wrappedDEKSize {
		t.Fatalf("expected %d byte wrapped DEK, got %d", wrappedDEKSize, len(wrapped))
	}

	got, err := unwrapDEK(wrapped, priv)
	if err != nil {
		t.Fatalf("unwrap failed: %v", err)
	}
	if !bytes.Equal(dek, got) {
		t.Fatal("unwrapped DEK doesn't match original")
	}
}

func TestWrapNonDeterministic(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	dek := make([]byte, dekSize)
	a, err := wrapDEK(dek, &priv.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	b, err := wrapDEK(dek, &priv.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a, b) {
		t.Fatal("two wraps of the same DEK produced identical blobs")
	}
}

func TestUnwrapWrongKey(t *testing.T) {
	priv1, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	priv2, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	wrapped, err := wrapDEK(make([]byte, dekSize), &priv1.PublicKey)
	if err != nil {
		t.Fatal(err)
	}

	_, err = unwrapDEK(wrapped, priv2)
	if !errors.Is(err, ErrDEKUnwrapFailed) {
		t.Fatalf("expected ErrDEKUnwrapFailed, got %v", err)
	}
}

func TestUnwrapMalformed(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		name string
		blob []byte
	}{
		{"empty", nil},
		{"short", make([]byte, wrappedDEKSize-1)},
		{"invalid_point", make([]byte, wrappedDEKSize)}, // all-zero bytes are not a valid EC point
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := unwrapDEK(tc.blob, priv)
			if !errors.Is(err, ErrMalformedWrap) {
				t.Fatalf("expected ErrMalformedWrap, got %v", err)
			}
		})
	}
}

func TestUnwrapTampered(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	wrapped, err := wrapDEK(make([]byte, dekSize), &priv.PublicKey)
	if err != nil {
		t.Fatal(err)
	}

	// Flip one bit in the DEK ciphertext and in the tag.
	for _, offset := range []int{pubkeyLen + wrapNonceLen, len(wrapped) - 1} {
		tampered := bytes.Clone(wrapped)
		tampered[offset] ^= 0x01
		if _, err := unwrapDEK(tampered, priv); !errors.Is(err, ErrDEKUnwrapFailed) {
			t.Fatalf("offset %d: expected ErrDEKUnwrapFailed, got %v", offset, err)
		}
	}
}

func TestWrapRejectsNonP256(t *testing.T) {
	priv384, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := wrapDEK(make([]byte, dekSize), &priv384.PublicKey); !errors.Is(err, ErrUnsupportedCurve) {
		t.Fatalf("expected ErrUnsupportedCurve, got %v", err)
	}
	if _, err := unwrapDEK(make([]byte, wrappedDEKSize), priv384); !errors.Is(err, ErrUnsupportedCurve) {
		t.Fatalf("expected ErrUnsupportedCurve, got %v", err)
	}
}
