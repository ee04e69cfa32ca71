package settings

import (
	"context"
	"testing"

	"github.com/go-arcade/sniper/internal/pkg/ovh"
	"github.com/go-arcade/sniper/internal/sniper/model"
	"github.com/go-arcade/sniper/internal/sniper/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sinkStub struct {
	token, chatID string
	sent          []string
}

func (s *sinkStub) SetTelegram(token, chatID string) { s.token, s.chatID = token, chatID }
func (s *sinkStub) Send(_ context.Context, text string) bool {
	s.sent = append(s.sent, text)
	return true
}

func TestService_Defaults(t *testing.T) {
	svc := New(nil, ovh.Conf{}, nil)
	got := svc.Get()
	assert.Equal(t, "ovh-eu", got.Endpoint)
	assert.Equal(t, "IE", got.Zone)
	assert.Equal(t, "go-ovh-ie", got.IAM)
	assert.False(t, svc.Credentials().Complete())
}

func TestService_UpdatePersistsAndTestsTelegram(t *testing.T) {
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	sink := &sinkStub{}
	svc := New(st, ovh.Conf{}, sink)
	svc.Load()

	_, err = svc.Update(context.Background(), model.Settings{
		AppKey: "ak", AppSecret: "as", ConsumerKey: "ck", Zone: "FR",
		TgToken: "t", TgChatID: "1",
	})
	require.NoError(t, err)
	assert.True(t, svc.Credentials().Complete())
	assert.Equal(t, "go-ovh-fr", svc.Get().IAM)
	assert.Equal(t, "t", sink.token)
	assert.Len(t, sink.sent, 1)

	// 未改 Telegram 参数不再发测试消息
	_, err = svc.Update(context.Background(), model.Settings{AppKey: "ak2", TgToken: "t", TgChatID: "1"})
	require.NoError(t, err)
	assert.Len(t, sink.sent, 1)

	reloaded := New(st, ovh.Conf{}, &sinkStub{})
	reloaded.Load()
	assert.Equal(t, "ak2", reloaded.Get().AppKey)
	assert.Equal(t, "IE", reloaded.Get().Zone)
}
