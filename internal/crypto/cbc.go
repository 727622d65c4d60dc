package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

const blockSize = aes.BlockSize // 16

// EncryptCBC AES-256-CBC-encrypts plaintext under key, PKCS#7-padding it
// first and prepending a fresh random 16-byte IV. The returned buffer is
// IV || ciphertext.
func EncryptCBC(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: aes cipher init failed: %w", err)
	}

	iv, err := RandomBytes(blockSize)
	if err != nil {
		return nil, err
	}

	padded := pkcs7Pad(plaintext, blockSize)
	out := make([]byte, blockSize+len(padded))
	copy(out, iv)

	mode := cipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(out[blockSize:], padded)
	return out, nil
}

// DecryptCBC extracts the leading 16-byte IV, CBC-decrypts the remainder
// under key, and strips PKCS#7 padding, returning the original plaintext.
func DecryptCBC(key, input []byte) ([]byte, error) {
	if len(input) < blockSize || (len(input)-blockSize)%blockSize != 0 {
		return nil, fmt.Errorf("crypto: ciphertext has invalid length %d", len(input))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: aes cipher init failed: %w", err)
	}

	iv := input[:blockSize]
	ciphertext := input[blockSize:]
	if len(ciphertext) == 0 {
		return nil, nil
	}

	plain := make([]byte, len(ciphertext))
	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(plain, ciphertext)

	return pkcs7Unpad(plain, blockSize)
}

func pkcs7Pad(data []byte, size int) []byte {
	padLen := size - len(data)%size
	padding := bytes.Repeat([]byte{byte(padLen)}, padLen)
	return append(append([]byte{}, data...), padding...)
}

func pkcs7Unpad(data []byte, size int) ([]byte, error) {
	n := len(data)
	if n == 0 || n%size != 0 {
		return nil, fmt.Errorf("crypto: padded ciphertext has invalid length %d", n)
	}
	padLen := int(data[n-1])
	if padLen == 0 || padLen > size || padLen > n {
		return nil, fmt.Errorf("crypto: invalid pkcs7 padding")
	}
	for _, b := range data[n-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("crypto: invalid pkcs7 padding")
		}
	}
	return data[:n-padLen], nil
}
