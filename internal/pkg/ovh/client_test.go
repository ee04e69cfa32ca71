package ovh

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Unix(1700000000, 0)

func staticCreds(endpoint string) CredentialFunc {
	return func() Credentials {
		return Credentials{AppKey: "ak", AppSecret: "as", ConsumerKey: "ck", Endpoint: endpoint}
	}
}

func TestSign(t *testing.T) {
	sum := sha1.Sum([]byte("as+ck+GET+https://eu.api.ovh.com/1.0/me++1700000000"))
	want := "$1$" + hex.EncodeToString(sum[:])
	assert.Equal(t, want, Sign("as", "ck", "get", "https://eu.api.ovh.com/1.0/me", "", 1700000000))
}

func TestResolveEndpoint(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"", "https://eu.api.ovh.com/1.0", true},
		{"ovh-ca", "https://ca.api.ovh.com/1.0", true},
		{"OVH-US", "https://api.us.ovhcloud.com/1.0", true},
		{"http://127.0.0.1:8080/1.0/", "http://127.0.0.1:8080/1.0", true},
		{"ovh-mars", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ResolveEndpoint(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_NotConfigured(t *testing.T) {
	c := NewClient(Conf{}, CredentialFunc(func() Credentials { return Credentials{AppKey: "ak"} }))
	assert.False(t, c.Configured())
	_, err := c.Me(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClient_SignedRequest(t *testing.T) {
	var timeCalls atomic.Int32
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/time":
			timeCalls.Add(1)
			_, _ = w.Write([]byte(strconv.FormatInt(fixedNow.Unix()+5, 10)))
		case "/order/cart":
			body, _ := io.ReadAll(r.Body)
			ts, _ := strconv.ParseInt(r.Header.Get("X-Ovh-Timestamp"), 10, 64)
			assert.Equal(t, fixedNow.Unix()+5, ts)
			assert.Equal(t, "ak", r.Header.Get("X-Ovh-Application"))
			assert.Equal(t, "ck", r.Header.Get("X-Ovh-Consumer"))
			assert.Equal(t, Sign("as", "ck", "POST", srvURL+"/order/cart", string(body), ts), r.Header.Get("X-Ovh-Signature"))
			assert.JSONEq(t, `{"ovhSubsidiary":"IE"}`, string(body))
			_, _ = w.Write([]byte(`{"cartId":"cart-1"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	srvURL = srv.URL

	c := NewClient(Conf{}, staticCreds(srv.URL), WithClock(func() time.Time { return fixedNow }))
	for i := 0; i < 2; i++ {
		cart, err := c.CreateCart(context.Background(), "IE")
		require.NoError(t, err)
		assert.Equal(t, "cart-1", cart.CartID)
	}
	assert.Equal(t, int32(1), timeCalls.Load())
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/time" {
			_, _ = w.Write([]byte(strconv.FormatInt(fixedNow.Unix(), 10)))
			return
		}
		w.Header().Set("X-Ovh-QueryID", "EU.ext-1.abc")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"class":"Client::BadRequest","message":"Invalid planCode"}`))
	}))
	defer srv.Close()

	c := NewClient(Conf{}, staticCreds(srv.URL), WithClock(func() time.Time { return fixedNow }))
	_, err := c.AddEcoItem(context.Background(), "cart-1", "nope")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Client::BadRequest", apiErr.Class)
	assert.Equal(t, "Invalid planCode", apiErr.Message)
	assert.Equal(t, "EU.ext-1.abc", apiErr.QueryID)
	assert.Contains(t, err.Error(), "Invalid planCode")
}

func TestClient_DatacenterAvailability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/time" {
			_, _ = w.Write([]byte(strconv.FormatInt(fixedNow.Unix(), 10)))
			return
		}
		assert.Equal(t, "24rise01", r.URL.Query().Get("planCode"))
		assert.Equal(t, []string{"memory", "storage"}, r.URL.Query()["addonFamily"])
		_, _ = w.Write([]byte(`[{"planCode":"24rise01","datacenters":[
			{"datacenter":"gra","availability":"1H-low"},
			{"datacenter":"rbx","availability":"unavailable"},
			{"datacenter":"sbg","availability":""},
			{"datacenter":"bhs","availability":"unknown"}]}]`))
	}))
	defer srv.Close()

	c := NewClient(Conf{}, staticCreds(srv.URL), WithClock(func() time.Time { return fixedNow }))
	got, err := c.DatacenterAvailability(context.Background(), "24rise01", "memory", "storage")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"gra": "1H-low",
		"rbx": "unavailable",
		"sbg": "unknown",
		"bhs": "unknown",
	}, got)
	assert.True(t, IsAvailable(got["gra"]))
	assert.False(t, IsAvailable(got["sbg"]))
}

func TestClient_GetRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/time" {
			_, _ = w.Write([]byte(strconv.FormatInt(fixedNow.Unix(), 10)))
			return
		}
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"nichandle":"ab12345-ovh"}`))
	}))
	defer srv.Close()

	c := NewClient(Conf{}, staticCreds(srv.URL), WithClock(func() time.Time { return fixedNow }))
	var out map[string]string
	require.NoError(t, c.Get(context.Background(), "me", "/me", nil, &out))
	assert.Equal(t, "ab12345-ovh", out["nichandle"])
	assert.Equal(t, int32(2), hits.Load())
}

func TestClient_GetDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/time" {
			_, _ = w.Write([]byte(strconv.FormatInt(fixedNow.Unix(), 10)))
			return
		}
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(Conf{}, staticCreds(srv.URL), WithClock(func() time.Time { return fixedNow }))
	err := c.Get(context.Background(), "me", "/me", nil, nil)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, int32(1), hits.Load())
}
