package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"errors"
)

const (
	// FrameMax is the maximum plaintext bytes per frame, capped so that
	// ciphertext plus GCM tag still fits the uint16 length prefix.
	FrameMax = 65519

	gcmTag         = 16 // GCM authentication tag size
	nonceLen       = 12 // AES-GCM standard nonce size
	noncePrefixLen = 4  // random prefix taken from the base nonce
)

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// frameCipher encrypts or decrypts one stream's frames under the DEK. The
// nonce for frame i is the 4-byte random prefix from the base nonce followed
// by LE64(i); the counter is strictly monotonic within the stream and frame 0
// additionally authenticates the stream header as associated data.
type frameCipher struct {
	aead     cipher.AEAD
	nonce    [nonceLen]byte
	headerAD []byte
	counter  uint64
}

func newFrameCipher(dek, baseNonce, headerAD []byte) (*frameCipher, error) {
	aead, err := newGCM(dek)
	if err != nil {
		return nil, err
	}
	f := &frameCipher{aead: aead, headerAD: headerAD}
	copy(f.nonce[:noncePrefixLen], baseNonce)
	return f, nil
}

// next fills in the counter portion and returns the current frame's nonce.
func (f *frameCipher) next() []byte {
	binary.LittleEndian.PutUint64(f.nonce[noncePrefixLen:], f.counter)
	return f.nonce[:]
}

// ad returns the associated data rule for the current frame: the header for
// frame 0, nothing afterwards.
func (f *frameCipher) ad() []byte {
	if f.counter == 0 {
		return f.headerAD
	}
	return nil
}

// seal appends the encrypted frame (ciphertext plus tag) to dst and advances
// the counter.
func (f *frameCipher) seal(dst, plaintext []byte) ([]byte, error) {
	if len(plaintext) > FrameMax {
		return nil, errors.New("frame exceeds maximum size")
	}
	out := f.aead.Seal(dst, f.next(), plaintext, f.ad())
	f.counter++
	return out, nil
}

// open authenticates and decrypts one frame, appending plaintext to dst. On
// authentication failure nothing is appended and the counter does not
// advance; the stream is unusable past that point.
func (f *frameCipher) open(dst, chunk []byte) ([]byte, error) {
	if len(chunk) < gcmTag {
		return nil, ErrChunkTooShort
	}
	out, err := f.aead.Open(dst, f.next(), chunk, f.ad())
	if err != nil {
		return nil, ErrFrameAuthFailed
	}
	f.counter++
	return out, nil
}
