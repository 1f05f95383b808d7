// Package cryptox holds the symmetric primitives behind the envelope codec:
// AES-256-CBC with PKCS#7 padding, HMAC-SHA-256 tags and key handling.
package cryptox

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"unicode/utf8"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/common"
)

const (
	// KeySize is the required length of both the AES and the HMAC key.
	KeySize = 32
	// IVSize is the AES block size; every encryption draws a fresh IV of this length.
	IVSize = aes.BlockSize
)

// Encrypt pads plaintext with PKCS#7 and encrypts it with AES-256-CBC under key.
//
// A new random 16-byte IV is generated for each call, so encrypting the same
// plaintext twice yields different IVs and different ciphertexts.
//
// Parameters:
//   - key: 32-byte AES key.
//   - plaintext: arbitrary bytes; a full pad block is added when its length is
//     already a multiple of the block size.
//
// Returns:
//   - iv: the 16-byte initialization vector.
//   - ciphertext: the padded, encrypted data (multiple of 16 bytes).
//   - err: wraps common.ErrInvalidKeyMaterial for a bad key.
func Encrypt(key, plaintext []byte) (iv, ciphertext []byte, err error) {
	if len(key) != KeySize {
		return nil, nil, fmt.Errorf("%w: aes key must be %d bytes, got %d", common.ErrInvalidKeyMaterial, KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrInvalidKeyMaterial, err)
	}

	iv, err = common.GenerateRandByteArray(IVSize)
	if err != nil {
		return nil, nil, fmt.Errorf("iv: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext = make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return iv, ciphertext, nil
}

// Decrypt reverses Encrypt. Every failure (bad key length, bad IV, ciphertext
// not a multiple of the block size, invalid padding, non UTF-8 plaintext) is
// reported as common.ErrDecryptionFailed without further detail.
//
// Padding is checked strictly: the pad length must be in 1..16 and every pad
// byte must equal it.
func Decrypt(key, iv, ciphertext []byte) ([]byte, error) {
	if len(key) != KeySize || len(iv) != IVSize {
		return nil, common.ErrDecryptionFailed
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, common.ErrDecryptionFailed
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, common.ErrDecryptionFailed
	}

	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ciphertext)

	plain, ok := pkcs7Unpad(plain, aes.BlockSize)
	if !ok {
		return nil, common.ErrDecryptionFailed
	}
	if !utf8.Valid(plain) {
		return nil, fmt.Errorf("%w: plaintext is not valid utf-8", common.ErrDecryptionFailed)
	}

	return plain, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data), len(data)+n)
	copy(out, data)
	return append(out, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, bool) {
	if len(data) == 0 {
		return nil, false
	}
	n := int(data[len(data)-1])
	if n < 1 || n > blockSize || n > len(data) {
		return nil, false
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, false
		}
	}
	return data[:len(data)-n], true
}
