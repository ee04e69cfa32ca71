package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeTelegram(t *testing.T, status int, body string, hits *atomic.Int32, last *atomic.Value) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		if last != nil {
			last.Store(string(raw))
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestNotifier_NotConfigured(t *testing.T) {
	n := NewNotifier(Conf{})
	assert.False(t, n.Configured())
	assert.False(t, n.Send(context.Background(), "hello"))
}

func TestNotifier_TelegramDelivered(t *testing.T) {
	var hits atomic.Int32
	var last atomic.Value
	srv := fakeTelegram(t, http.StatusOK, `{"ok":true}`, &hits, &last)
	defer srv.Close()

	n := NewNotifier(Conf{TelegramAPI: srv.URL})
	n.SetTelegram("TOKEN", "42")
	require.True(t, n.Configured())

	assert.True(t, n.Send(context.Background(), "服务器上架通知"))
	assert.Equal(t, int32(1), hits.Load())

	var payload map[string]any
	require.NoError(t, sonic.UnmarshalString(last.Load().(string), &payload))
	assert.Equal(t, "42", payload["chat_id"])
	assert.Equal(t, "服务器上架通知", payload["text"])
	_, hasParseMode := payload["parse_mode"]
	assert.False(t, hasParseMode)
}

func TestNotifier_ClientErrorNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := fakeTelegram(t, http.StatusBadRequest, `{"ok":false,"description":"chat not found"}`, &hits, nil)
	defer srv.Close()

	n := NewNotifier(Conf{TelegramAPI: srv.URL, MaxAttempts: 3})
	n.SetTelegram("TOKEN", "42")

	assert.False(t, n.Send(context.Background(), "x"))
	assert.Equal(t, int32(1), hits.Load())
}

func TestNotifier_ServerErrorRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewNotifier(Conf{TelegramAPI: srv.URL, MaxAttempts: 3})
	n.SetTelegram("TOKEN", "42")

	assert.True(t, n.Send(context.Background(), "x"))
	assert.Equal(t, int32(2), hits.Load())
}

func TestNotifier_RetriesBoundedByElapsedBudget(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	n := NewNotifier(Conf{TelegramAPI: srv.URL, MaxAttempts: 50, MaxElapsed: 1})
	n.SetTelegram("TOKEN", "42")

	start := time.Now()
	assert.False(t, n.Send(context.Background(), "x"))
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.GreaterOrEqual(t, hits.Load(), int32(1))
	assert.Less(t, hits.Load(), int32(50))
}

func TestNotifier_WebhookAndTelegramRemoval(t *testing.T) {
	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		got.Store(string(raw))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewNotifier(Conf{WebhookURL: srv.URL})
	n.SetTelegram("TOKEN", "42")
	assert.Len(t, n.manager.ListChannels(), 2)

	n.SetTelegram("", "")
	assert.Equal(t, []ChannelType{ChannelTypeWebhook}, n.manager.ListChannels())

	assert.True(t, n.Send(context.Background(), "ping"))
	assert.True(t, strings.Contains(got.Load().(string), `"message":"ping"`))
}
