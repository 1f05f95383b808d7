package cryptox

import (
	"crypto/hmac"
	"crypto/sha256"
)

// TagSize is the length of an HMAC-SHA-256 tag.
const TagSize = sha256.Size

// SigningInput returns the exact byte sequence that is authenticated:
// the hex IV and hex ciphertext joined by the envelope delimiter.
func SigningInput(ivHex, ciphertextHex string) []byte {
	return []byte(ivHex + ":" + ciphertextHex)
}

// Sign computes the HMAC-SHA-256 tag of message under key.
func Sign(key, message []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return mac.Sum(nil)
}

// Verify reports whether tag is the HMAC-SHA-256 of message under key.
// The comparison runs in constant time.
func Verify(key, message, tag []byte) bool {
	if len(tag) != TagSize {
		return false
	}
	return hmac.Equal(Sign(key, message), tag)
}
