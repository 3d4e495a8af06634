package crypto

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"io"
)

const (
	dekSize      = 32 // AES-256 key size
	pubkeyLen    = 65 // uncompressed P-256 point: 0x04 || X (32) || Y (32)
	wrapNonceLen = 12
	// wrapped DEK = ephemeral pubkey || wrap nonce || encrypted DEK || GCM tag
	wrappedDEKSize = pubkeyLen + wrapNonceLen + dekSize + gcmTag // 125 bytes
)

// wrapDEK encapsulates dek for the recipient: a fresh ephemeral P-256 key
// pair performs ECDH against the recipient public key, the shared secret is
// run through the concatenation KDF, and the resulting KEK encrypts the DEK
// with AES-256-GCM. The ephemeral private key never leaves this function,
// which is what gives forward secrecy per encrypted object.
func wrapDEK(dek []byte, recipientPub *ecdsa.PublicKey) ([]byte, error) {
	if recipientPub == nil || recipientPub.Curve != elliptic.P256() {
		return nil, ErrUnsupportedCurve
	}
	recipientECDH, err := recipientPub.ECDH()
	if err != nil {
		return nil, err
	}

	ephemeral, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	shared, err := ephemeral.ECDH(recipientECDH)
	if err != nil {
		return nil, err
	}
	defer wipe(shared)

	kek := concatKDF(shared, kdfInfo, dekSize)
	defer wipe(kek)

	aead, err := newGCM(kek)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, wrapNonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	// ephemeral pubkey || nonce || Seal(dek)
	out := make([]byte, 0, wrappedDEKSize)
	out = append(out, ephemeral.PublicKey().Bytes()...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, dek, nil), nil
}

// unwrapDEK reverses wrapDEK with the recipient private key. Authentication
// failure reports ErrDEKUnwrapFailed without distinguishing wrong key from
// tampering.
func unwrapDEK(wrapped []byte, recipientPriv *ecdsa.PrivateKey) ([]byte, error) {
	if recipientPriv == nil || recipientPriv.Curve != elliptic.P256() {
		return nil, ErrUnsupportedCurve
	}
	if len(wrapped) < wrappedDEKSize {
		return nil, ErrMalformedWrap
	}

	ephemeralPub, err := ecdh.P256().NewPublicKey(wrapped[:pubkeyLen])
	if err != nil {
		return nil, ErrMalformedWrap
	}

	recipientECDH, err := recipientPriv.ECDH()
	if err != nil {
		return nil, err
	}

	shared, err := recipientECDH.ECDH(ephemeralPub)
	if err != nil {
		return nil, err
	}
	defer wipe(shared)

	kek := concatKDF(shared, kdfInfo, dekSize)
	defer wipe(kek)

	aead, err := newGCM(kek)
	if err != nil {
		return nil, err
	}

	nonce := wrapped[pubkeyLen : pubkeyLen+wrapNonceLen]
	dek, err := aead.Open(nil, nonce, wrapped[pubkeyLen+wrapNonceLen:], nil)
	if err != nil {
		return nil, ErrDEKUnwrapFailed
	}
	return dek, nil
}
