package client

import (
	"crypto/ed25519"
	"encoding/base64"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strateos/strateos-go/internal/config"
)

func testKey(t *testing.T) ed25519.PrivateKey {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	return ed25519.NewKeyFromSeed(seed)
}

func fixedClock() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func signedAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	return &Authenticator{
		cred: Credential{
			Email:      "scientist@example.com",
			SigningKey: testKey(t),
			KeyID:      "scientist@example.com",
		},
		now: fixedClock,
	}
}

func TestApplyBearerToken(t *testing.T) {
	a := &Authenticator{cred: Credential{Email: "e@example.com", Token: "t1"}, now: time.Now}

	req, err := http.NewRequest("GET", "https://secure.strateos.com/o1", nil)
	require.NoError(t, err)
	u, _ := url.Parse("https://secure.strateos.com/o1")

	a.Apply(req, u, nil)
	assert.Equal(t, "Bearer t1", req.Header.Get("Authorization"))
	assert.Empty(t, req.Header.Get(headerSignature))
}

func TestApplySignedRequest(t *testing.T) {
	a := signedAuthenticator(t)
	body := []byte(`{"name":"proj"}`)

	u, _ := url.Parse("https://secure.strateos.com/o1/projects?q=x")
	req, err := http.NewRequest("POST", u.String(), nil)
	require.NoError(t, err)

	a.Apply(req, u, body)

	timestamp := req.Header.Get(headerSignatureTimestamp)
	assert.Equal(t, "2024-06-01T12:00:00Z", timestamp)
	assert.Equal(t, "scientist@example.com", req.Header.Get(headerKeyID))
	assert.Empty(t, req.Header.Get("Authorization"))

	sig, err := base64.StdEncoding.DecodeString(req.Header.Get(headerSignature))
	require.NoError(t, err)

	canonical := strings.Join([]string{
		"POST", "/o1/projects", "q=x", string(body), timestamp,
	}, "\n")
	assert.True(t, ed25519.Verify(testKey(t).Public().(ed25519.PublicKey), []byte(canonical), sig))
}

func TestApplySignsEmptyBody(t *testing.T) {
	a := signedAuthenticator(t)

	u, _ := url.Parse("https://uploads.example.com/bucket/key")
	req, err := http.NewRequest("PUT", u.String(), nil)
	require.NoError(t, err)

	a.Apply(req, u, nil)

	sig, err := base64.StdEncoding.DecodeString(req.Header.Get(headerSignature))
	require.NoError(t, err)

	canonical := strings.Join([]string{
		"PUT", "/bucket/key", "", "", req.Header.Get(headerSignatureTimestamp),
	}, "\n")
	assert.True(t, ed25519.Verify(testKey(t).Public().(ed25519.PublicKey), []byte(canonical), sig))
}

func TestApplySignatureVariesByPath(t *testing.T) {
	a := signedAuthenticator(t)

	sign := func(rawURL string) string {
		u, _ := url.Parse(rawURL)
		req, _ := http.NewRequest("GET", rawURL, nil)
		a.Apply(req, u, nil)
		return req.Header.Get(headerSignature)
	}

	first := sign("https://secure.strateos.com/o1/projects")
	second := sign("https://secure.strateos.com/o1/packages")
	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestSigningKeyWinsOverToken(t *testing.T) {
	a := signedAuthenticator(t)
	a.cred.Token = "t1"

	u, _ := url.Parse("https://secure.strateos.com/o1")
	req, _ := http.NewRequest("GET", u.String(), nil)
	a.Apply(req, u, nil)

	assert.NotEmpty(t, req.Header.Get(headerSignature))
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestRequire(t *testing.T) {
	empty := &Authenticator{now: time.Now}
	err := empty.Require("GET /o1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.ErrorIs(t, err, ErrAuth)

	withToken := &Authenticator{cred: Credential{Token: "t1"}, now: time.Now}
	assert.NoError(t, withToken.Require("GET /o1"))
}

func TestLoadSigningKey(t *testing.T) {
	dir := t.TempDir()

	seed := make([]byte, ed25519.SeedSize)
	seedPath := filepath.Join(dir, "seed.key")
	require.NoError(t, os.WriteFile(seedPath,
		[]byte(base64.StdEncoding.EncodeToString(seed)+"\n"), 0o600))

	key, err := LoadSigningKey(seedPath)
	require.NoError(t, err)
	assert.Len(t, []byte(key), ed25519.PrivateKeySize)

	fullPath := filepath.Join(dir, "full.key")
	require.NoError(t, os.WriteFile(fullPath,
		[]byte(base64.StdEncoding.EncodeToString(key)), 0o600))
	key2, err := LoadSigningKey(fullPath)
	require.NoError(t, err)
	assert.Equal(t, key, key2)
}

func TestLoadSigningKeyErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadSigningKey(filepath.Join(dir, "absent.key"))
	assert.ErrorIs(t, err, ErrInvalidCredential)

	badB64 := filepath.Join(dir, "bad.key")
	require.NoError(t, os.WriteFile(badB64, []byte("not-base64!!"), 0o600))
	_, err = LoadSigningKey(badB64)
	assert.ErrorIs(t, err, ErrInvalidCredential)

	badLen := filepath.Join(dir, "short.key")
	require.NoError(t, os.WriteFile(badLen,
		[]byte(base64.StdEncoding.EncodeToString([]byte("short"))), 0o600))
	_, err = LoadSigningKey(badLen)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestNewAuthenticatorLoadsKeyFromConfig(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "signing.key")
	seed := make([]byte, ed25519.SeedSize)
	require.NoError(t, os.WriteFile(keyPath,
		[]byte(base64.StdEncoding.EncodeToString(seed)), 0o600))

	cfg := &config.Config{
		APIRoot:        config.DefaultAPIRoot,
		Email:          "e@example.com",
		Token:          "t1",
		SigningKeyPath: keyPath,
	}
	a, err := NewAuthenticator(cfg)
	require.NoError(t, err)
	assert.True(t, a.cred.Signed())
	assert.Equal(t, "e@example.com", a.cred.KeyID)
}
