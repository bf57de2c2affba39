package cryptox

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveMasterKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveMasterKey(password, salt)
	key2 := DeriveMasterKey(password, salt)

	assert.True(t, bytes.Equal(key1, key2))
	assert.Len(t, key1, 32)
	assert.Equal(t, "34f7a1c64df63ab1ad5b5ee06e64db5713b35f81839823304db63e8e5e6a6a39", hex.EncodeToString(key1))
}

func TestDeriveMasterKey_DifferentSalts(t *testing.T) {
	key1 := DeriveMasterKey([]byte("pw"), []byte("salt-1"))
	key2 := DeriveMasterKey([]byte("pw"), []byte("salt-2"))
	assert.False(t, bytes.Equal(key1, key2))
}

type token struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func TestEncryptDecryptEntry(t *testing.T) {
	key := bytes.Repeat([]byte{7}, 32)

	ct, nonce, err := EncryptEntry(token{Access: "a", Refresh: "r"}, key)
	require.NoError(t, err)
	assert.Len(t, nonce, 12)

	var got token
	require.NoError(t, DecryptEntry(ct, nonce, key, &got))
	assert.Equal(t, token{Access: "a", Refresh: "r"}, got)

	_, _, err = EncryptEntry(token{}, []byte("short"))
	require.Error(t, err)
}

func TestSealOpen(t *testing.T) {
	blob, err := Seal(token{Access: "a", Refresh: "r"}, []byte("hunter2"))
	require.NoError(t, err)
	assert.NotContains(t, string(blob), "hunter2")

	var got token
	require.NoError(t, Open(blob, []byte("hunter2"), &got))
	assert.Equal(t, "r", got.Refresh)

	assert.ErrorIs(t, Open(blob, []byte("wrong"), &got), ErrWrongPassphrase)
	assert.ErrorIs(t, Open([]byte("not json"), []byte("hunter2"), &got), ErrWrongPassphrase)
}

func TestSeal_SaltDiffersPerCall(t *testing.T) {
	a, err := Seal("x", []byte("p"))
	require.NoError(t, err)
	b, err := Seal("x", []byte("p"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
