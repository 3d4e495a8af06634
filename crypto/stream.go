// Package crypto implements the KEM-DEM envelope encryption scheme used to
// protect deployment artifacts before upload, suitable for multi-gigabyte
// streams in constant memory. It depends only on standard library crypto
// packages.
//
//	⚙  KEM  (Key-Encapsulation Mechanism)
//	    • ephemeral ECDH P-256 + Concat-KDF (SHA-256) + AES-256-GCM DEK wrap
//	    • 125-byte wrapped DEK: pubkey(65) ∥ nonce(12) ∥ ciphertext(32) ∥ tag(16)
//	    • fresh ephemeral key per object provides forward secrecy
//
//	⚙  DEM  (Data-Encapsulation Mechanism)
//	    • AES-256-GCM in framed chunks of at most 65519 plaintext bytes
//	    • nonce = 4-byte random prefix ∥ 8-byte little-endian frame counter
//	    • frame 0 authenticates the header via associated data
//
//	Wire format (lengths big-endian)
//	 ┌──────────────────────────────────────────────────────────────────┐
//	 │ uint16 wrappedLen │ wrapped DEK │ 12B base nonce │ frames...     │
//	 └──────────────────────────────────────────────────────────────────┘
//	 each frame: uint16 chunkLen ∥ ciphertext ∥ 16B tag
//
// The format is implemented byte-for-byte so that independent
// implementations in other languages interoperate exactly; none of the
// library-default envelope conventions are used.
package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/binary"
	"io"
)

// maxWrappedLen is a sanity cap on the header's wrapped DEK length field so
// corrupt headers are rejected before any allocation or crypto.
const maxWrappedLen = 200

// EncryptStream encrypts src to dst for the holder of the private key
// matching pub, returning the number of plaintext bytes processed. Each call
// generates its own DEK and nonces and shares no state with any other call,
// so concurrent invocations are safe. Memory use is one frame buffer
// regardless of stream length.
func EncryptStream(pub *ecdsa.PublicKey, src io.Reader, dst io.Writer) (int64, error) {
	if pub == nil || pub.Curve != elliptic.P256() {
		return 0, ErrUnsupportedCurve
	}

	dek := make([]byte, dekSize)
	if _, err := io.ReadFull(rand.Reader, dek); err != nil {
		return 0, err
	}
	defer wipe(dek)

	wrapped, err := wrapDEK(dek, pub)
	if err != nil {
		return 0, err
	}

	// Only the first 4 bytes of the base nonce are used; the remaining 8 are
	// replaced by the frame counter.
	baseNonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, baseNonce[:noncePrefixLen]); err != nil {
		return 0, err
	}

	if err := binary.Write(dst, binary.BigEndian, uint16(len(wrapped))); err != nil {
		return 0, err
	}
	if _, err := dst.Write(wrapped); err != nil {
		return 0, err
	}
	if _, err := dst.Write(baseNonce); err != nil {
		return 0, err
	}

	headerAD := make([]byte, 2+nonceLen)
	binary.BigEndian.PutUint16(headerAD[:2], uint16(len(wrapped)))
	copy(headerAD[2:], baseNonce)

	fc, err := newFrameCipher(dek, baseNonce, headerAD)
	if err != nil {
		return 0, err
	}

	buf := make([]byte, FrameMax)
	defer wipe(buf)
	ct := make([]byte, 0, FrameMax+gcmTag)

	var total int64
	for {
		// ReadFull retries short reads internally, so a short result here is
		// an authoritative end-of-source signal.
		n, readErr := io.ReadFull(src, buf)
		if readErr == io.EOF {
			break
		}
		if readErr != nil && readErr != io.ErrUnexpectedEOF {
			return total, readErr
		}

		ct, err = fc.seal(ct[:0], buf[:n])
		if err != nil {
			return total, err
		}
		if err := binary.Write(dst, binary.BigEndian, uint16(len(ct))); err != nil {
			return total, err
		}
		if _, err := dst.Write(ct); err != nil {
			return total, err
		}

		total += int64(n)
		if readErr == io.ErrUnexpectedEOF {
			break
		}
	}
	return total, nil
}

// DecryptStream reverses EncryptStream with the recipient private key,
// returning the number of plaintext bytes written to dst. Plaintext is only
// released after its frame authenticates; any error means the whole output
// must be discarded.
func DecryptStream(priv *ecdsa.PrivateKey, src io.Reader, dst io.Writer) (int64, error) {
	if priv == nil || priv.Curve != elliptic.P256() {
		return 0, ErrUnsupportedCurve
	}

	var wrappedLen uint16
	if err := binary.Read(src, binary.BigEndian, &wrappedLen); err != nil {
		return 0, eofErr(err)
	}
	if wrappedLen == 0 || wrappedLen > maxWrappedLen {
		return 0, ErrInvalidWrappedLength
	}

	wrapped := make([]byte, wrappedLen)
	if _, err := io.ReadFull(src, wrapped); err != nil {
		return 0, eofErr(err)
	}
	baseNonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(src, baseNonce); err != nil {
		return 0, eofErr(err)
	}

	dek, err := unwrapDEK(wrapped, priv)
	if err != nil {
		return 0, err
	}
	defer wipe(dek)

	headerAD := make([]byte, 2+nonceLen)
	binary.BigEndian.PutUint16(headerAD[:2], wrappedLen)
	copy(headerAD[2:], baseNonce)

	fc, err := newFrameCipher(dek, baseNonce, headerAD)
	if err != nil {
		return 0, err
	}

	chunk := make([]byte, FrameMax+gcmTag)
	defer wipe(chunk)
	plain := make([]byte, 0, FrameMax)
	defer wipe(plain[:FrameMax])

	var total int64
	for {
		var chunkLen uint16
		if err := binary.Read(src, binary.BigEndian, &chunkLen); err != nil {
			if err == io.EOF {
				// Clean end of stream: no partial length prefix.
				break
			}
			return total, eofErr(err)
		}
		if int(chunkLen) > FrameMax+gcmTag {
			return total, ErrChunkTooLarge
		}
		if _, err := io.ReadFull(src, chunk[:chunkLen]); err != nil {
			return total, eofErr(err)
		}

		out, err := fc.open(plain[:0], chunk[:chunkLen])
		if err != nil {
			return total, err
		}
		if _, err := dst.Write(out); err != nil {
			return total, err
		}
		total += int64(len(out))
	}
	return total, nil
}
