// Package common defines the error kinds shared by the codec, its transports
// and the CLI, plus small byte helpers. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Envelope-level errors.
	ErrMalformedEnvelope = errors.New("malformed envelope")
	ErrIntegrityFailure  = errors.New("integrity check failed")

	// Payload errors.
	ErrDecryptionFailed = errors.New("decryption failed")
	ErrCorruptRecord    = errors.New("corrupt record")
	ErrExpired          = errors.New("envelope expired")

	// Rendering errors.
	ErrRenderFailed = errors.New("render failed")

	// Construction errors.
	ErrInvalidKeyMaterial = errors.New("invalid key material")
	ErrInvalidRecord      = errors.New("invalid record")
)

// Classify returns a short stable label for err, suitable for metric labels
// and log fields. A nil error is reported as "ok".
func Classify(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMalformedEnvelope):
		return "malformed_envelope"
	case errors.Is(err, ErrIntegrityFailure):
		return "integrity_failure"
	case errors.Is(err, ErrDecryptionFailed):
		return "decryption_failed"
	case errors.Is(err, ErrCorruptRecord):
		return "corrupt_record"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrRenderFailed):
		return "render_failed"
	case errors.Is(err, ErrInvalidKeyMaterial):
		return "invalid_key_material"
	case errors.Is(err, ErrInvalidRecord):
		return "invalid_record"
	default:
		return "internal"
	}
}

// FromKind is the inverse of Classify for the sentinel kinds. It returns nil
// for "ok", "internal" and unknown labels.
func FromKind(kind string) error {
	for _, err := range []error{
		ErrMalformedEnvelope, ErrIntegrityFailure, ErrDecryptionFailed, ErrCorruptRecord,
		ErrExpired, ErrRenderFailed, ErrInvalidKeyMaterial, ErrInvalidRecord,
	} {
		if Classify(err) == kind {
			return err
		}
	}
	return nil
}
