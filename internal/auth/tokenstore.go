package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/healthtrend/internal/common"
	"github.com/dmitrijs2005/healthtrend/internal/cryptox"
	"github.com/dmitrijs2005/healthtrend/internal/filex"
	"golang.org/x/oauth2"
)

// TokenStore keeps one sealed OAuth token file per account under dir.
type TokenStore struct {
	dir        string
	passphrase []byte
}

func NewTokenStore(dir string, passphrase []byte) *TokenStore {
	return &TokenStore{dir: dir, passphrase: passphrase}
}

func (s *TokenStore) path(identity string) string {
	sum := sha256.Sum256([]byte(identity))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:8])+".tok")
}

// Save seals tok for identity, replacing any previous token.
func (s *TokenStore) Save(identity string, tok *oauth2.Token) error {
	if len(s.passphrase) == 0 {
		return errors.New("token passphrase is not set")
	}
	if _, err := filex.EnsureDir(s.dir); err != nil {
		return err
	}

	blob, err := cryptox.Seal(tok, s.passphrase)
	if err != nil {
		return fmt.Errorf("seal token: %w", err)
	}
	return filex.WriteFileAtomic(s.path(identity), blob, 0o600)
}

// Load returns the token for identity or common.ErrNoCredentials.
func (s *TokenStore) Load(identity string) (*oauth2.Token, error) {
	blob, err := os.ReadFile(s.path(identity))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, common.ErrNoCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}

	var tok oauth2.Token
	if err := cryptox.Open(blob, s.passphrase, &tok); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
	}
	return &tok, nil
}

// Delete removes the stored token. A missing file is not an error.
func (s *TokenStore) Delete(identity string) error {
	err := os.Remove(s.path(identity))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
