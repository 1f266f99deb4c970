package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"runtime"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// Version is the client library version reported in the User-Agent header.
const Version = "1.0.0"

const (
	defaultAttempts  = 4
	defaultRedirects = 5
	defaultTimeout   = 30 * time.Second
)

// RequestOptions describes one API call. A fresh http.Request is built from
// these options for every attempt and every redirect hop; requests are never
// reused.
type RequestOptions struct {
	Method       string
	Path         string            // endpoint path, already resolved
	BaseURL      string            // overrides the configured API root when set
	QueryParams  map[string]string // optional query parameters
	Headers      map[string]string // optional headers, set after the defaults
	Body         []byte            // optional request body
	RequiresAuth bool
	NoRedirect   bool // return the 3xx response instead of following it
}

// Response is an immutable HTTP exchange result.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON decodes the response body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to parse response body: %w", err)
	}
	return nil
}

// Location returns the Location header, if any.
func (r *Response) Location() string {
	return r.Header.Get("Location")
}

// Transport performs HTTP exchanges against the API. It owns the underlying
// connection pool, attaches the organization-context header, rebuilds the
// full request (including auth headers) on every redirect hop, and retries
// connection-level failures a bounded number of times.
//
// A Transport is not safe for concurrent use: auth material may be replaced
// while a login sequence is in flight.
type Transport struct {
	apiRoot      string
	orgID        func() string
	auth         *Authenticator
	httpClient   *http.Client
	attempts     uint
	maxRedirects int
	userAgent    string
}

// TransportOption configures a Transport.
type TransportOption func(*Transport)

// WithHTTPClient replaces the underlying http.Client, mainly for tests.
func WithHTTPClient(c *http.Client) TransportOption {
	return func(t *Transport) { t.httpClient = c }
}

// WithAttempts caps the total number of attempts for retryable failures.
func WithAttempts(n uint) TransportOption {
	return func(t *Transport) { t.attempts = n }
}

// NewTransport creates a transport rooted at apiRoot. orgID is consulted on
// every request build so organization switches take effect immediately.
func NewTransport(apiRoot string, orgID func() string, auth *Authenticator, opts ...TransportOption) *Transport {
	t := &Transport{
		apiRoot: apiRoot,
		orgID:   orgID,
		auth:    auth,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			// Redirects are followed manually so auth headers are rebuilt
			// per hop.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		attempts:     defaultAttempts,
		maxRedirects: defaultRedirects,
		userAgent: fmt.Sprintf("strateos-go/%s (%s; %s/%s)",
			Version, runtime.Version(), runtime.GOOS, runtime.GOARCH),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.httpClient.CheckRedirect == nil {
		t.httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return t
}

// Do performs the call described by opts. Connection-level failures are
// retried up to the attempt cap; timeouts and HTTP status errors terminate
// immediately. HTTP 4xx/5xx responses surface as ErrHTTP with the remote
// message preserved.
func (t *Transport) Do(opts RequestOptions) (*Response, error) {
	if opts.RequiresAuth {
		if err := t.auth.Require(fmt.Sprintf("%s %s", opts.Method, opts.Path)); err != nil {
			return nil, err
		}
	}

	var resp *Response
	err := retry.Do(func() error {
		r, err := t.exchange(opts)
		if err != nil {
			return err
		}
		resp = r
		return nil
	},
		retry.Attempts(t.attempts),
		retry.Delay(250*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, ErrConnectionFailed)
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Debug().Uint("attempt", n+1).Err(err).
				Str("method", opts.Method).Str("path", opts.Path).
				Msg("retrying request")
		}),
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// exchange performs one logical call, following redirects with rebuilt
// requests up to the hop limit.
func (t *Transport) exchange(opts RequestOptions) (*Response, error) {
	u, err := t.buildURL(opts)
	if err != nil {
		return nil, err
	}

	method := opts.Method
	body := opts.Body

	for hop := 0; ; hop++ {
		req, err := t.buildRequest(method, u, body, opts)
		if err != nil {
			return nil, err
		}

		httpResp, err := t.httpClient.Do(req)
		if err != nil {
			return nil, classifyNetError(err)
		}

		respBody, err := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		if err != nil {
			return nil, ErrConnectionFailed.MsgErr("failed to read response body", err)
		}

		resp := &Response{
			StatusCode: httpResp.StatusCode,
			Header:     httpResp.Header,
			Body:       respBody,
		}

		if isRedirect(httpResp.StatusCode) && !opts.NoRedirect {
			loc := httpResp.Header.Get("Location")
			if loc == "" {
				return nil, httpError(httpResp.StatusCode, "redirect response without Location header")
			}
			if hop >= t.maxRedirects {
				return nil, ErrTooManyRedirects.Msg(fmt.Sprintf(
					"gave up after %d redirects for %s %s", t.maxRedirects, opts.Method, opts.Path))
			}
			next, err := u.Parse(loc)
			if err != nil {
				return nil, httpError(httpResp.StatusCode, fmt.Sprintf("invalid redirect target %q", loc))
			}
			log.Debug().Str("from", u.String()).Str("to", next.String()).
				Msg("following redirect with rebuilt request")
			u = next
			// 301/302/303 demote non-idempotent methods to GET and drop the
			// body; 307/308 replay the original method and body.
			if httpResp.StatusCode != http.StatusTemporaryRedirect &&
				httpResp.StatusCode != http.StatusPermanentRedirect &&
				method != http.MethodGet && method != http.MethodHead {
				method = http.MethodGet
				body = nil
			}
			continue
		}

		if httpResp.StatusCode >= 400 {
			return nil, httpError(httpResp.StatusCode, remoteMessage(httpResp.StatusCode, respBody))
		}
		return resp, nil
	}
}

// buildRequest constructs a complete request: default headers, organization
// context, caller headers, and auth headers computed against the final URL.
func (t *Transport) buildRequest(method string, u *url.URL, body []byte, opts RequestOptions) (*http.Request, error) {
	req, err := http.NewRequest(method, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", t.userAgent)

	// Organization context travels independently of the auth scheme.
	if org := t.orgID(); org != "" {
		req.Header.Set("Organization", org)
	}

	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	if opts.RequiresAuth {
		t.auth.Apply(req, u, body)
	}
	return req, nil
}

func (t *Transport) buildURL(opts RequestOptions) (*url.URL, error) {
	base := t.apiRoot
	if opts.BaseURL != "" {
		base = opts.BaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", base, err)
	}
	if opts.Path != "" {
		u.Path = path.Join(u.Path, opts.Path)
	}

	q := u.Query()
	for k, v := range opts.QueryParams {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u, nil
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// classifyNetError maps connection-level failures into the transport error
// taxonomy. Timeouts are terminal; everything else at this layer is a
// retryable connection failure.
func classifyNetError(err error) error {
	type timeouter interface{ Timeout() bool }
	if te, ok := err.(timeouter); ok && te.Timeout() {
		return ErrTimeout.MsgErr("request timed out", err)
	}
	if ue, ok := err.(*url.Error); ok && ue.Timeout() {
		return ErrTimeout.MsgErr("request timed out", err)
	}
	return ErrConnectionFailed.MsgErr("request failed", err)
}

// remoteMessage extracts the server's message from an error body so it is
// never replaced with a generic one. Falls back to the raw body text.
func remoteMessage(status int, body []byte) string {
	if msg := gjson.GetBytes(body, "error").String(); msg != "" {
		return msg
	}
	if msg := gjson.GetBytes(body, "message").String(); msg != "" {
		return msg
	}
	if len(body) > 0 {
		return string(body)
	}
	return http.StatusText(status)
}
