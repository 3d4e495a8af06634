package crypto

import (
	"crypto/sha256"
	"encoding/binary"
)

// kdfInfo binds derived keys to their intended algorithm, per the
// NIST SP 800-56A single-step KDF OtherInfo convention. The string is part
// of the cross-language wire contract and must not change.
const kdfInfo = "AES-256-GCM"

// concatKDF derives keyLen bytes from the ECDH shared secret z using the
// single-step SHA-256 concatenation KDF:
//
//	SHA256(BE32(1) || z || otherInfo || BE32(keyLen*8))
//
// A single round suffices because keyLen never exceeds the SHA-256 output
// size.
func concatKDF(z []byte, otherInfo string, keyLen int) []byte {
	var be [4]byte
	h := sha256.New()
	binary.BigEndian.PutUint32(be[:], 1)
	h.Write(be[:])
	h.Write(z)
	h.Write([]byte(otherInfo))
	binary.BigEndian.PutUint32(be[:], uint32(keyLen)*8)
	h.Write(be[:])
	return h.Sum(nil)[:keyLen]
}

// wipe overwrites key material in place. Callers defer it immediately after
// allocation so no error path can skip the zeroing.
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
