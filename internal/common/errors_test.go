package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromKind_RoundTrip(t *testing.T) {
	for _, err := range []error{
		ErrMalformedEnvelope, ErrIntegrityFailure, ErrDecryptionFailed, ErrCorruptRecord,
		ErrExpired, ErrRenderFailed, ErrInvalidKeyMaterial, ErrInvalidRecord,
	} {
		assert.Equal(t, err, FromKind(Classify(err)), err.Error())
	}

	assert.Nil(t, FromKind("ok"))
	assert.Nil(t, FromKind("internal"))
	assert.Nil(t, FromKind("whatever"))
}
