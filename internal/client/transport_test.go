package client

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyTransport fails the first n round trips with a connection error, then
// delegates to the default transport.
type flakyTransport struct {
	failures int32
	calls    int32
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if n <= atomic.LoadInt32(&f.failures) {
		return nil, errors.New("connection reset by peer")
	}
	return http.DefaultTransport.RoundTrip(req)
}

func bearerAuth(token string) *Authenticator {
	return &Authenticator{cred: Credential{Token: token}, now: time.Now}
}

func TestDoRetriesConnectionFailures(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	flaky := &flakyTransport{failures: 2}
	tr := NewTransport(srv.URL, func() string { return "o1" }, bearerAuth("t1"),
		WithHTTPClient(&http.Client{Transport: flaky}))

	resp, err := tr.Do(RequestOptions{Method: "GET", Path: "/o1", RequiresAuth: true})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 3, atomic.LoadInt32(&flaky.calls))
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestDoExhaustsAttempts(t *testing.T) {
	flaky := &flakyTransport{failures: 100}
	tr := NewTransport("http://127.0.0.1:0", func() string { return "" }, bearerAuth("t1"),
		WithHTTPClient(&http.Client{Transport: flaky}), WithAttempts(3))

	_, err := tr.Do(RequestOptions{Method: "GET", Path: "/o1", RequiresAuth: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectionFailed)
	assert.ErrorIs(t, err, ErrTransport)
	assert.EqualValues(t, 3, atomic.LoadInt32(&flaky.calls))
}

func TestDoDoesNotRetryHTTPErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"no such project"}`))
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL, func() string { return "o1" }, bearerAuth("t1"))

	_, err := tr.Do(RequestOptions{Method: "GET", Path: "/o1/p404", RequiresAuth: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHTTP)
	assert.Contains(t, err.Error(), "no such project")

	status, ok := HTTPStatus(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, status)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestDoRequiresCredential(t *testing.T) {
	tr := NewTransport("http://127.0.0.1:0", func() string { return "" },
		&Authenticator{now: time.Now})
	_, err := tr.Do(RequestOptions{Method: "GET", Path: "/o1", RequiresAuth: true})
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestDoSetsDefaultHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL, func() string { return "org17abc" }, bearerAuth("t1"))
	_, err := tr.Do(RequestOptions{Method: "GET", Path: "/org17abc", RequiresAuth: true})
	require.NoError(t, err)

	assert.Equal(t, "org17abc", got.Get("Organization"))
	assert.Equal(t, "Bearer t1", got.Get("Authorization"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Contains(t, got.Get("User-Agent"), "strateos-go/"+Version)
}

func TestDoResignsOnRedirect(t *testing.T) {
	signatures := map[string]string{}
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		signatures["/old"] = r.Header.Get(headerSignature)
		http.Redirect(w, r, "/new", http.StatusTemporaryRedirect)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		signatures["/new"] = r.Header.Get(headerSignature)
		w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tr := NewTransport(srv.URL, func() string { return "o1" }, signedAuthenticator(t))
	resp, err := tr.Do(RequestOptions{
		Method: "POST", Path: "/old", Body: []byte(`{"x":1}`), RequiresAuth: true,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NotEmpty(t, signatures["/old"])
	require.NotEmpty(t, signatures["/new"])
	assert.NotEqual(t, signatures["/old"], signatures["/new"])
}

func TestDoDemotesMethodOnSeeOther(t *testing.T) {
	var target struct {
		method string
		body   int64
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/submit", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/result", http.StatusSeeOther)
	})
	mux.HandleFunc("/result", func(w http.ResponseWriter, r *http.Request) {
		target.method = r.Method
		target.body = r.ContentLength
		w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tr := NewTransport(srv.URL, func() string { return "o1" }, bearerAuth("t1"))
	_, err := tr.Do(RequestOptions{
		Method: "POST", Path: "/submit", Body: []byte(`{"x":1}`), RequiresAuth: true,
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, target.method)
	assert.Zero(t, target.body)
}

func TestDoRedirectLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL, func() string { return "" }, bearerAuth("t1"))
	_, err := tr.Do(RequestOptions{Method: "GET", Path: "/loop", RequiresAuth: true})
	assert.ErrorIs(t, err, ErrTooManyRedirects)
}

func TestDoNoRedirectReturnsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "https://secure.strateos.com/preview/abc")
		w.WriteHeader(http.StatusFound)
	}))
	defer srv.Close()

	tr := NewTransport(srv.URL, func() string { return "" }, bearerAuth("t1"))
	resp, err := tr.Do(RequestOptions{
		Method: "POST", Path: "/runs/preview", RequiresAuth: true, NoRedirect: true,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://secure.strateos.com/preview/abc", resp.Location())
}

func TestRemoteMessage(t *testing.T) {
	assert.Equal(t, "boom", remoteMessage(400, []byte(`{"error":"boom"}`)))
	assert.Equal(t, "bad input", remoteMessage(400, []byte(`{"message":"bad input"}`)))
	assert.Equal(t, "plain text body", remoteMessage(400, []byte(`plain text body`)))
	assert.Equal(t, "Bad Request", remoteMessage(400, nil))
}
