// internal/form/csrf.go
//
// Forms subsystem: stateless CSRF tokens.
//
// Context
//   Every rendered form embeds a hidden `csrf_token` input.  The token is
//   stateless so it works the same with the memory and the Redis session
//   backends:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(secret, nonce+unixMicro) )
//
//   Verification checks the signature and that the timestamp is within
//   maxAge.
//
// Workflow
//   •  SetSecret(key)    → called once from main with a configured key.
//   •  GenerateToken()   → token string for the renderer.
//   •  VerifyToken(tok)  → constant-time verify; false on any failure.
//
//------------------------------------------------------------------------------

package form

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	tokenBytes   = 16 + 8 + sha256.Size
	maxAge       = 2 * time.Hour
	secretEnvKey = "SITECRAFT_CSRF_KEY"
)

var (
	secretMu  sync.Mutex
	secretKey []byte
)

// SetSecret installs the HMAC key.  Keys shorter than 32 bytes are stretched
// through SHA-256 so any configured secret works.
func SetSecret(key []byte) {
	secretMu.Lock()
	defer secretMu.Unlock()
	if len(key) < 32 {
		sum := sha256.Sum256(key)
		key = sum[:]
	}
	secretKey = append([]byte(nil), key...)
}

// GenerateToken creates a new CSRF token.  Call once per form render.
func GenerateToken() (string, error) {
	sec := fetchSecret()

	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(time.Now().UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, sign(sec, nonce, ts)...)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// VerifyToken returns true if tok passes HMAC and age checks.
func VerifyToken(tok string) bool {
	if tok == "" {
		return false
	}
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}

	nonce, tsBytes, sig := raw[:16], raw[16:24], raw[24:]

	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(tsBytes)))
	if time.Since(issued) > maxAge || time.Until(issued) > time.Minute {
		return false
	}
	return hmac.Equal(sig, sign(fetchSecret(), nonce, tsBytes))
}

func sign(sec, nonce, ts []byte) []byte {
	mac := hmac.New(sha256.New, sec)
	mac.Write(nonce)
	mac.Write(ts)
	return mac.Sum(nil)
}

// fetchSecret returns the process-wide key.  Without SetSecret it reads
// SITECRAFT_CSRF_KEY, and failing that generates an ephemeral key.
func fetchSecret() []byte {
	secretMu.Lock()
	defer secretMu.Unlock()
	if secretKey != nil {
		return secretKey
	}
	if env := os.Getenv(secretEnvKey); env != "" {
		sum := sha256.Sum256([]byte(env))
		secretKey = sum[:]
		return secretKey
	}
	secretKey = make([]byte, 32)
	_, _ = rand.Read(secretKey)
	zap.S().Warnw("CSRF key not configured, using ephemeral key", "env", secretEnvKey)
	return secretKey
}
