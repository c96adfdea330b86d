package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"botdesk/internal/config"

	"github.com/fernet/fernet-go"
	"golang.org/x/crypto/pbkdf2"
)

var ErrDecrypt = errors.New("failed to decrypt token")

// TokenCipher derives the two stored forms of a bot token: a keyed hash used
// for webhook routing and a Fernet ciphertext decrypted for outbound calls.
//
// The Fernet key is derived once with PBKDF2-SHA256 from the project secret
// and salt. Changing either invalidates every stored ciphertext.
type TokenCipher struct {
	hashKey []byte
	key     *fernet.Key
}

func NewTokenCipher(cfg config.SecurityConfig) (*TokenCipher, error) {
	if cfg.ProjectSecretKey == "" || cfg.EncryptionSalt == "" {
		return nil, errors.New("project secret key and encryption salt are required")
	}
	if cfg.EncryptionLength != len(fernet.Key{}) {
		return nil, fmt.Errorf("encryption length must be %d, got %d", len(fernet.Key{}), cfg.EncryptionLength)
	}
	iterations := cfg.EncryptionIterations
	if iterations <= 0 {
		iterations = 100_000
	}

	derived := pbkdf2.Key([]byte(cfg.ProjectSecretKey), []byte(cfg.EncryptionSalt), iterations, cfg.EncryptionLength, sha256.New)
	var key fernet.Key
	copy(key[:], derived)

	return &TokenCipher{
		hashKey: []byte(cfg.ProjectSecretKey),
		key:     &key,
	}, nil
}

// Hash returns the hex HMAC-SHA256 of token. It is deterministic, so it
// doubles as the lookup key and the webhook path segment.
func (c *TokenCipher) Hash(token string) string {
	mac := hmac.New(sha256.New, c.hashKey)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *TokenCipher) Encrypt(token string) (string, error) {
	out, err := fernet.EncryptAndSign([]byte(token), c.key)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt token: %w", err)
	}
	return string(out), nil
}

func (c *TokenCipher) Decrypt(encrypted string) (string, error) {
	// ttl 0: stored tokens never expire
	out := fernet.VerifyAndDecrypt([]byte(encrypted), 0, []*fernet.Key{c.key})
	if out == nil {
		return "", ErrDecrypt
	}
	return string(out), nil
}
