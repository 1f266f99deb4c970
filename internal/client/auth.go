package client

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/strateos/strateos-go/internal/config"
)

// Signed-request header names.
const (
	headerSignature          = "X-Strateos-Signature"
	headerSignatureTimestamp = "X-Strateos-Signature-Timestamp"
	headerKeyID              = "X-Strateos-Key-Id"
)

// Credential is a resolved authentication credential. Exactly one scheme is
// active: a signing key when present, otherwise a bearer token.
type Credential struct {
	Email      string
	Token      string
	SigningKey ed25519.PrivateKey
	KeyID      string
}

// IsZero reports whether no credential material is present.
func (c Credential) IsZero() bool {
	return c.Token == "" && len(c.SigningKey) == 0
}

// Signed reports whether the signed-request scheme is active.
func (c Credential) Signed() bool {
	return len(c.SigningKey) == ed25519.PrivateKeySize
}

// Authenticator attaches authentication headers to outgoing requests. The
// signed-request scheme computes a fresh signature for every request build,
// so a redirect that rebuilds the request re-signs over the new path.
type Authenticator struct {
	cred Credential
	now  func() time.Time
}

// NewAuthenticator builds an authenticator from the session configuration.
// When both a token and a signing key are configured, the signing key wins
// and the token is never attached: a request carries one scheme only.
func NewAuthenticator(cfg *config.Config) (*Authenticator, error) {
	cred := Credential{
		Email: cfg.Email,
		Token: cfg.Token,
	}
	if cfg.SigningKeyPath != "" {
		key, err := LoadSigningKey(cfg.SigningKeyPath)
		if err != nil {
			return nil, err
		}
		cred.SigningKey = key
		cred.KeyID = cfg.Email
	}
	return &Authenticator{cred: cred, now: time.Now}, nil
}

// Require fails with ErrMissingCredential when no credential was resolved
// from flags, environment, or the config file. op names the operation for the
// error message.
func (a *Authenticator) Require(op string) error {
	if a.cred.IsZero() {
		return ErrMissingCredential.Msg(fmt.Sprintf(
			"%s requires authentication; run login or set a token", op))
	}
	return nil
}

// setToken installs a freshly issued bearer token, as happens on login. The
// signed-request scheme, when configured, keeps precedence.
func (a *Authenticator) setToken(email, token string) {
	a.cred.Email = email
	a.cred.Token = token
	if a.cred.Signed() {
		a.cred.KeyID = email
	}
}

// Apply sets the authentication headers for one concrete request. For the
// signed scheme the canonical string covers method, path, query, body, and a
// timestamp taken at signing time; an empty body signs as the empty string
// rather than being rejected or left unsigned.
func (a *Authenticator) Apply(req *http.Request, u *url.URL, body []byte) {
	if a.cred.Signed() {
		timestamp := a.now().UTC().Format(time.RFC3339)

		requestPath := u.Path
		if !strings.HasPrefix(requestPath, "/") {
			requestPath = "/" + requestPath
		}

		stringToSign := strings.Join([]string{
			req.Method,
			requestPath,
			u.RawQuery,
			string(body),
			timestamp,
		}, "\n")

		signature := ed25519.Sign(a.cred.SigningKey, []byte(stringToSign))
		req.Header.Set(headerSignature, base64.StdEncoding.EncodeToString(signature))
		req.Header.Set(headerSignatureTimestamp, timestamp)
		req.Header.Set(headerKeyID, a.cred.KeyID)
		return
	}

	if a.cred.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.cred.Token)
	}
}

// LoadSigningKey reads an ed25519 private key from a file containing the
// base64 encoding of either the 32-byte seed or the full 64-byte key.
func LoadSigningKey(path string) (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrInvalidCredential.MsgErr(
			fmt.Sprintf("unable to read signing key file %s", path), err)
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, ErrInvalidCredential.MsgErr("signing key is not valid base64", err)
	}

	switch len(decoded) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(decoded), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(decoded), nil
	default:
		return nil, ErrInvalidCredential.Msg(fmt.Sprintf(
			"signing key must be a %d or %d byte ed25519 key, got %d bytes",
			ed25519.SeedSize, ed25519.PrivateKeySize, len(decoded)))
	}
}
