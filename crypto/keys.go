package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// GenerateKeyPair generates a new recipient P-256 key pair. The stream
// engine itself never provisions or persists keys; this exists for the
// surrounding tooling.
func GenerateKeyPair() (*ecdsa.PrivateKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate P-256 key pair: %w", err)
	}
	return key, nil
}

// EncodePrivateKeyToPEM converts a private key to PEM format using PKCS#8
func EncodePrivateKeyToPEM(priv *ecdsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("failed to ASN.1 marshal private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: der,
	}), nil
}

// EncodePublicKeyToPEM converts a public key to PEM format using PKIX
func EncodePublicKeyToPEM(pub *ecdsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: der,
	}), nil
}

// ReadPrivateKey parses a PEM encoded PKCS#8 private key, rejecting any key
// that is not EC P-256.
func ReadPrivateKey(pemBytes []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PKCS8 private key: %w", err)
	}
	priv, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("the private key is not an ECDSA key")
	}
	if priv.Curve != elliptic.P256() {
		return nil, ErrUnsupportedCurve
	}
	return priv, nil
}

// ReadPublicKey parses a PEM encoded PKIX public key, rejecting any key that
// is not EC P-256.
func ReadPublicKey(pemBytes []byte) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PKIX public key: %w", err)
	}
	pub, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("the public key is not an ECDSA key")
	}
	if pub.Curve != elliptic.P256() {
		return nil, ErrUnsupportedCurve
	}
	return pub, nil
}

// ReadPrivateKeyFromFile reads and parses a private key from a PEM file
func ReadPrivateKeyFromFile(path string) (*ecdsa.PrivateKey, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}
	return ReadPrivateKey(buf)
}

// ReadPublicKeyFromFile reads and parses a public key from a PEM file
func ReadPublicKeyFromFile(path string) (*ecdsa.PublicKey, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key file: %w", err)
	}
	return ReadPublicKey(buf)
}

// WriteKeyPairToFiles writes a key pair to PEM files, the private key with
// owner-only permissions.
func WriteKeyPairToFiles(priv *ecdsa.PrivateKey, privateKeyPath, publicKeyPath string) error {
	privPEM, err := EncodePrivateKeyToPEM(priv)
	if err != nil {
		return fmt.Errorf("failed to encode private key: %w", err)
	}
	if err := os.WriteFile(privateKeyPath, privPEM, 0600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}

	pubPEM, err := EncodePublicKeyToPEM(&priv.PublicKey)
	if err != nil {
		return fmt.Errorf("failed to encode public key: %w", err)
	}
	if err := os.WriteFile(publicKeyPath, pubPEM, 0644); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}
	return nil
}
