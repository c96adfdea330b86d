package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"botdesk/internal/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSecurityConfig() config.SecurityConfig {
	return config.SecurityConfig{
		ProjectSecretKey:     "project-secret",
		EncryptionSalt:       "static-salt",
		EncryptionIterations: 1000,
		EncryptionLength:     32,
	}
}

func TestTokenCipher(t *testing.T) {
	c, err := NewTokenCipher(testSecurityConfig())
	require.NoError(t, err)

	const token = "123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11"

	t.Run("HashIsKeyedAndStable", func(t *testing.T) {
		mac := hmac.New(sha256.New, []byte("project-secret"))
		mac.Write([]byte(token))
		assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), c.Hash(token))
		assert.Equal(t, c.Hash(token), c.Hash(token))
		assert.NotEqual(t, c.Hash(token), c.Hash(token+"x"))
		assert.Len(t, c.Hash(token), 64)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		enc, err := c.Encrypt(token)
		require.NoError(t, err)
		assert.NotContains(t, enc, token)

		dec, err := c.Decrypt(enc)
		require.NoError(t, err)
		assert.Equal(t, token, dec)
	})

	t.Run("SameParametersDecrypt", func(t *testing.T) {
		enc, err := c.Encrypt(token)
		require.NoError(t, err)

		again, err := NewTokenCipher(testSecurityConfig())
		require.NoError(t, err)
		dec, err := again.Decrypt(enc)
		require.NoError(t, err)
		assert.Equal(t, token, dec)
	})

	t.Run("RotatedSaltCannotDecrypt", func(t *testing.T) {
		enc, err := c.Encrypt(token)
		require.NoError(t, err)

		cfg := testSecurityConfig()
		cfg.EncryptionSalt = "other-salt"
		rotated, err := NewTokenCipher(cfg)
		require.NoError(t, err)

		_, err = rotated.Decrypt(enc)
		assert.ErrorIs(t, err, ErrDecrypt)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := c.Decrypt("not-a-fernet-token")
		assert.ErrorIs(t, err, ErrDecrypt)
	})

	t.Run("InvalidConfig", func(t *testing.T) {
		cfg := testSecurityConfig()
		cfg.EncryptionLength = 16
		_, err := NewTokenCipher(cfg)
		assert.Error(t, err)

		_, err = NewTokenCipher(config.SecurityConfig{EncryptionLength: 32})
		assert.Error(t, err)
	})
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(4)

	hashed, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hashed)
	assert.True(t, h.Verify(hashed, "correct horse"))
	assert.False(t, h.Verify(hashed, "wrong horse"))
	assert.False(t, h.Verify("not-a-hash", "correct horse"))

	_, err = h.Hash(strings.Repeat("a", 73))
	assert.True(t, IsTooLong(err))
}

func TestTokenManager(t *testing.T) {
	userID := uuid.New()
	tm := NewTokenManager("jwt-secret", "", time.Hour)

	token, err := tm.Generate(userID, "ann@example.com", true)
	require.NoError(t, err)

	claims, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "ann@example.com", claims.Email)
	assert.True(t, claims.IsSuperuser)
	assert.Equal(t, userID.String(), claims.Subject)

	t.Run("WrongSecret", func(t *testing.T) {
		_, err := NewTokenManager("other", "", time.Hour).Validate(token)
		assert.Error(t, err)
	})

	t.Run("Expired", func(t *testing.T) {
		expired := NewTokenManager("jwt-secret", "", time.Minute)
		expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		old, err := expired.Generate(userID, "ann@example.com", false)
		require.NoError(t, err)

		_, err = tm.Validate(old)
		assert.Error(t, err)
	})

	t.Run("NilUser", func(t *testing.T) {
		_, err := tm.Generate(uuid.Nil, "x", false)
		assert.Error(t, err)
	})
}

func TestExtractBearer(t *testing.T) {
	tok, err := ExtractBearer("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	tok, err = ExtractBearer("bearer xyz")
	require.NoError(t, err)
	assert.Equal(t, "xyz", tok)

	for _, bad := range []string{"", "Bearer", "Basic abc", "Bearer   "} {
		_, err := ExtractBearer(bad)
		assert.Error(t, err, bad)
	}
}

func TestNewOpaqueToken(t *testing.T) {
	a, err := NewOpaqueToken(32)
	require.NoError(t, err)
	b, err := NewOpaqueToken(0)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
	assert.NotContains(t, a, "+")
	assert.NotContains(t, a, "/")
}
