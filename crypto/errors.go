package crypto

import (
	"errors"
	"io"
)

// Every error below is terminal: a stream that fails is never partially
// recoverable, and callers must discard any output already produced.
var (
	// ErrUnsupportedCurve is returned when a caller supplies a key on any
	// curve other than P-256, before any stream data is touched.
	ErrUnsupportedCurve = errors.New("only P-256 keys supported")

	// ErrMalformedWrap is returned when a wrapped DEK blob is structurally
	// invalid (too short or not a valid EC point).
	ErrMalformedWrap = errors.New("malformed wrapped DEK")

	// ErrDEKUnwrapFailed is returned when DEK unwrapping fails
	// authentication: wrong key, corruption, or tampering. The causes are
	// deliberately indistinguishable.
	ErrDEKUnwrapFailed = errors.New("DEK unwrap failed")

	// ErrFrameAuthFailed is returned when a frame fails GCM authentication.
	// No plaintext from the failing frame is released.
	ErrFrameAuthFailed = errors.New("frame authentication failed")

	// ErrUnexpectedEOF is returned when the ciphertext stream ends in the
	// middle of the header, a length prefix, or a frame body.
	ErrUnexpectedEOF = errors.New("unexpected end of stream")

	// ErrInvalidWrappedLength is returned when the header's wrapped DEK
	// length field is zero or above the sanity cap.
	ErrInvalidWrappedLength = errors.New("invalid wrapped DEK length")

	// ErrChunkTooLarge is returned when a frame's length prefix exceeds the
	// maximum ciphertext frame size.
	ErrChunkTooLarge = errors.New("chunk too large")

	// ErrChunkTooShort is returned when a frame is shorter than the GCM tag.
	ErrChunkTooShort = errors.New("chunk too short")
)

// eofErr maps truncation during a structured read onto the stream taxonomy
// so callers match a single sentinel instead of io.EOF vs io.ErrUnexpectedEOF.
func eofErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrUnexpectedEOF
	}
	return err
}
