// Package cryptox seals small secrets (OAuth tokens) at rest with a
// passphrase-derived AES-GCM key.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/json"
	"errors"

	"github.com/dmitrijs2005/healthtrend/internal/common"
	"golang.org/x/crypto/argon2"
)

const saltSize = 16

// ErrWrongPassphrase is returned when a sealed blob cannot be opened.
var ErrWrongPassphrase = errors.New("wrong passphrase or corrupted data")

// DeriveMasterKey stretches password with Argon2id into a 32-byte key.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// EncryptEntry serializes v to JSON and encrypts it with AES-GCM under key.
// A fresh nonce is generated per call and returned next to the ciphertext.
func EncryptEntry(v any, key []byte) (ciphertext, nonce []byte, err error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}
	defer common.WipeByteArray(plaintext)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = common.GenerateRandByteArray(aesgcm.NonceSize())
	return aesgcm.Seal(nil, nonce, plaintext, nil), nonce, nil
}

// DecryptEntry reverses EncryptEntry and unmarshals the JSON into v.
func DecryptEntry(ciphertext, nonce, key []byte, v any) error {
	aesgcm, err := newGCM(key)
	if err != nil {
		return err
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return ErrWrongPassphrase
	}
	defer common.WipeByteArray(plaintext)

	return json.Unmarshal(plaintext, v)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// sealed is the on-disk envelope.
type sealed struct {
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// Seal encrypts v under a key derived from passphrase and a random salt.
func Seal(v any, passphrase []byte) ([]byte, error) {
	salt := common.GenerateRandByteArray(saltSize)
	key := DeriveMasterKey(passphrase, salt)
	defer common.WipeByteArray(key)

	ct, nonce, err := EncryptEntry(v, key)
	if err != nil {
		return nil, err
	}
	return json.Marshal(sealed{Salt: salt, Nonce: nonce, Ciphertext: ct})
}

// Open decrypts data produced by Seal into v.
func Open(data, passphrase []byte, v any) error {
	var s sealed
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrWrongPassphrase
	}
	key := DeriveMasterKey(passphrase, s.Salt)
	defer common.WipeByteArray(key)

	return DecryptEntry(s.Ciphertext, s.Nonce, key, v)
}
