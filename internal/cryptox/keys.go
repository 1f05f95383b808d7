package cryptox

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/common"
	"golang.org/x/crypto/hkdf"
)

// HKDF info labels. Changing either one changes every derived key.
const (
	aesKeyInfo  = "qr-envelope/aes-256-cbc"
	hmacKeyInfo = "qr-envelope/hmac-sha-256"
)

// ParseHexKey decodes a hex encoded 32-byte key. Surrounding whitespace is
// ignored. The error never echoes the input.
func ParseHexKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: key is not valid hex", common.ErrInvalidKeyMaterial)
	}
	if len(key) != KeySize {
		common.WipeByteArray(key)
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", common.ErrInvalidKeyMaterial, KeySize, len(key))
	}
	return key, nil
}

// DeriveKeys expands a single master secret into independent AES and HMAC
// keys with HKDF-SHA-256. The master secret must be at least 32 bytes.
func DeriveKeys(master []byte) (aesKey, hmacKey []byte, err error) {
	if len(master) < KeySize {
		return nil, nil, fmt.Errorf("%w: master secret must be at least %d bytes", common.ErrInvalidKeyMaterial, KeySize)
	}

	aesKey, err = expand(master, aesKeyInfo)
	if err != nil {
		return nil, nil, err
	}
	hmacKey, err = expand(master, hmacKeyInfo)
	if err != nil {
		common.WipeByteArray(aesKey)
		return nil, nil, err
	}
	return aesKey, hmacKey, nil
}

func expand(master []byte, info string) ([]byte, error) {
	h := hkdf.New(sha256.New, master, nil, []byte(info))
	out := make([]byte, KeySize)
	if _, err := io.ReadFull(h, out); err != nil {
		return nil, fmt.Errorf("hkdf %s: %w", info, err)
	}
	return out, nil
}

// GenerateKey returns a fresh random 32-byte key.
func GenerateKey() ([]byte, error) {
	return common.GenerateRandByteArray(KeySize)
}
