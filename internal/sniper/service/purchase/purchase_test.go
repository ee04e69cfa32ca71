package purchase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-arcade/sniper/internal/pkg/ovh"
	"github.com/go-arcade/sniper/internal/sniper/model"
	"github.com/go-arcade/sniper/internal/sniper/service/queue"
	"github.com/go-arcade/sniper/internal/sniper/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notifierStub struct {
	mu   sync.Mutex
	msgs []string
}

func (n *notifierStub) Send(_ context.Context, text string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, text)
	return true
}

type zone string

func (z zone) Zone() string { return string(z) }

type fakeVendor struct {
	avail       map[string]string
	availErr    error
	checkoutErr error
	offers      []ovh.EcoOption
	configured  map[string]string
	addedOpts   []string
	requiredHit bool
}

func (f *fakeVendor) DatacenterAvailability(context.Context, string, ...string) (map[string]string, error) {
	return f.avail, f.availErr
}
func (f *fakeVendor) CreateCart(context.Context, string) (*ovh.Cart, error) {
	return &ovh.Cart{CartID: "c1"}, nil
}
func (f *fakeVendor) AddEcoItem(context.Context, string, string) (*ovh.CartItem, error) {
	return &ovh.CartItem{ItemID: 7, CartID: "c1"}, nil
}
func (f *fakeVendor) RequiredConfiguration(context.Context, string, int64) ([]ovh.RequiredConfiguration, error) {
	f.requiredHit = true
	return []ovh.RequiredConfiguration{{Label: "region", Required: true}}, nil
}
func (f *fakeVendor) ConfigureItem(_ context.Context, _ string, _ int64, label, value string) error {
	if f.configured == nil {
		f.configured = map[string]string{}
	}
	f.configured[label] = value
	return nil
}
func (f *fakeVendor) EcoOptions(context.Context, string, string) ([]ovh.EcoOption, error) {
	return f.offers, nil
}
func (f *fakeVendor) AddEcoOption(_ context.Context, _ string, _ int64, opt ovh.EcoOption) error {
	f.addedOpts = append(f.addedOpts, opt.PlanCode)
	return nil
}
func (f *fakeVendor) AssignCart(context.Context, string) error { return nil }
func (f *fakeVendor) Checkout(context.Context, string) (*ovh.Order, error) {
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	return &ovh.Order{OrderID: 42, URL: "https://ovh/order/42"}, nil
}

func task(dc string, options ...string) model.QueueTask {
	return model.QueueTask{ID: "t1", PlanCode: "24rise01", Datacenter: dc, Options: options, Status: model.TaskRunning, RetryCount: 1}
}

func TestPurchase_UnavailableWritesNoHistory(t *testing.T) {
	for _, status := range []string{"unavailable", "unknown", ""} {
		v := &fakeVendor{avail: map[string]string{"gra": status}}
		h := NewHistory(nil)
		svc := NewService(v, h, &notifierStub{}, zone("IE"))

		assert.False(t, svc.Purchase(context.Background(), task("gra")))
		assert.Empty(t, h.List(), status)
	}

	h := NewHistory(nil)
	svc := NewService(&fakeVendor{availErr: ovh.ErrNotConfigured}, h, nil, zone("IE"))
	assert.False(t, svc.Purchase(context.Background(), task("gra")))
	assert.Empty(t, h.List())
}

func TestPurchase_FailureThenSuccessUpserts(t *testing.T) {
	v := &fakeVendor{
		avail:       map[string]string{"gra": "1H-low"},
		checkoutErr: &ovh.APIError{StatusCode: 400, Class: "Client::BadRequest", Message: "payment refused"},
	}
	h := NewHistory(nil)
	n := &notifierStub{}
	svc := NewService(v, h, n, zone("IE"))

	assert.False(t, svc.Purchase(context.Background(), task("gra")))
	entries := h.List()
	require.Len(t, entries, 1)
	assert.Equal(t, model.HistoryFailed, entries[0].Status)
	assert.Contains(t, entries[0].ErrorMessage, "payment refused")
	assert.Empty(t, n.msgs)

	v.checkoutErr = nil
	second := task("gra")
	second.RetryCount = 2
	assert.True(t, svc.Purchase(context.Background(), second))

	after := h.List()
	require.Len(t, after, 1)
	assert.Equal(t, entries[0].ID, after[0].ID)
	assert.Equal(t, model.HistorySuccess, after[0].Status)
	assert.Equal(t, "42", after[0].OrderID)
	assert.Empty(t, after[0].ErrorMessage)
	assert.Equal(t, 2, after[0].AttemptCount)
	require.Len(t, n.msgs, 1)
	assert.Contains(t, n.msgs[0], "订单 ID: 42")
}

func TestPurchase_PrecheckErrorIsRecorded(t *testing.T) {
	h := NewHistory(nil)
	svc := NewService(&fakeVendor{availErr: errors.New("timeout")}, h, nil, zone("IE"))
	assert.False(t, svc.Purchase(context.Background(), task("gra")))
	require.Len(t, h.List(), 1)
	assert.Equal(t, "timeout", h.List()[0].ErrorMessage)
}

func TestPurchase_ConfigurationAndOptions(t *testing.T) {
	v := &fakeVendor{
		avail: map[string]string{"gra": "72H", "ynm": "1H-high"},
		offers: []ovh.EcoOption{
			{PlanCode: "ram-64g-ecc-2133-24rise01", Duration: "P1M", PricingMode: "default"},
			{PlanCode: "softraid-2x480ssd-24rise01"},
		},
	}
	svc := NewService(v, NewHistory(nil), nil, zone("IE"))

	ok := svc.Purchase(context.Background(), task("gra",
		"ram-64g-ecc-2133-24rise01", "windows-server-2022", "cpanel-license", "not-offered"))
	require.True(t, ok)
	assert.Equal(t, map[string]string{
		"dedicated_datacenter": "gra",
		"dedicated_os":         "none_64.en",
		"region":               "europe",
	}, v.configured)
	assert.Equal(t, []string{"ram-64g-ecc-2133-24rise01"}, v.addedOpts)
	assert.False(t, v.requiredHit)

	// 无法推断区域时只告警，不中断
	v.configured = nil
	require.True(t, svc.Purchase(context.Background(), task("ynm")))
	assert.True(t, v.requiredHit)
	_, hasRegion := v.configured["region"]
	assert.False(t, hasRegion)
}

func TestResolveRegion(t *testing.T) {
	tests := map[string]string{"gra": "europe", "RBX8": "europe", "bhs": "canada", "vin": "usa", "hil": "usa", "sgp": "apac", "syd": "apac"}
	for dc, want := range tests {
		got, ok := ResolveRegion(dc)
		assert.True(t, ok, dc)
		assert.Equal(t, want, got, dc)
	}
	_, ok := ResolveRegion("ynm")
	assert.False(t, ok)
}

// fakeOVH 模拟下单所需的最小 API 面
type fakeOVH struct {
	available atomic.Bool
	mu        sync.Mutex
	configs   map[string]string
	checkouts int
}

func (f *fakeOVH) handler(t *testing.T, now time.Time) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		write := func(v any) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(v)
		}
		switch {
		case r.URL.Path == "/auth/time":
			_, _ = w.Write([]byte(strconv.FormatInt(now.Unix(), 10)))
		case r.URL.Path == "/dedicated/server/datacenter/availabilities":
			assert.Equal(t, "24rise01", r.URL.Query().Get("planCode"))
			status := "unavailable"
			if f.available.Load() {
				status = "1H-low"
			}
			write([]map[string]any{{"planCode": "24rise01", "datacenters": []map[string]string{
				{"datacenter": "gra", "availability": status},
				{"datacenter": "bhs", "availability": "unavailable"},
			}}})
		case r.URL.Path == "/order/cart" && r.Method == http.MethodPost:
			write(map[string]any{"cartId": "c1"})
		case r.URL.Path == "/order/cart/c1/eco" && r.Method == http.MethodPost:
			write(map[string]any{"itemId": 7, "cartId": "c1"})
		case r.URL.Path == "/order/cart/c1/item/7/configuration":
			var body map[string]string
			raw, _ := io.ReadAll(r.Body)
			assert.NoError(t, json.Unmarshal(raw, &body))
			f.mu.Lock()
			f.configs[body["label"]] = body["value"]
			f.mu.Unlock()
			write(map[string]any{"id": 1})
		case r.URL.Path == "/order/cart/c1/assign":
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/order/cart/c1/checkout":
			raw, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"autoPayWithPreferredPaymentMethod":false,"waiveRetractationPeriod":true}`, string(raw))
			f.mu.Lock()
			f.checkouts++
			f.mu.Unlock()
			write(map[string]any{"orderId": 123456, "url": "https://www.ovh.com/order/123456"})
		default:
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func TestPurchase_EndToEndThroughQueue(t *testing.T) {
	now := time.Unix(1700000000, 0)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	fake := &fakeOVH{configs: map[string]string{}}
	srv := httptest.NewServer(fake.handler(t, now))
	defer srv.Close()

	client := ovh.NewClient(ovh.Conf{}, ovh.CredentialFunc(func() ovh.Credentials {
		return ovh.Credentials{AppKey: "ak", AppSecret: "as", ConsumerKey: "ck", Endpoint: srv.URL}
	}), ovh.WithClock(clock))

	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	history := NewHistory(st)
	notifier := &notifierStub{}
	svc := NewService(client, history, notifier, zone("IE"), WithClock(clock))
	engine := queue.NewEngine(queue.Conf{}, svc, st, queue.WithClock(clock))

	added, err := engine.Add(queue.Request{PlanCode: "24rise01", Datacenter: "gra", RetryInterval: 30})
	require.NoError(t, err)

	engine.Tick(context.Background())
	got, _ := engine.Get(added.ID)
	assert.Equal(t, 1, got.RetryCount)
	assert.Equal(t, model.TaskRunning, got.Status)
	assert.Empty(t, history.List())

	fake.available.Store(true)
	mu.Lock()
	now = now.Add(30 * time.Second)
	mu.Unlock()
	engine.Tick(context.Background())

	got, _ = engine.Get(added.ID)
	assert.Equal(t, model.TaskCompleted, got.Status)
	assert.Equal(t, 2, got.RetryCount)

	entries := history.List()
	require.Len(t, entries, 1)
	assert.Equal(t, model.HistorySuccess, entries[0].Status)
	assert.Equal(t, 2, entries[0].AttemptCount)
	assert.Equal(t, "123456", entries[0].OrderID)
	assert.Equal(t, added.ID, entries[0].TaskID)
	assert.Equal(t, "europe", fake.configs["region"])
	assert.Equal(t, 1, fake.checkouts)

	require.Len(t, notifier.msgs, 1)
	assert.True(t, strings.HasPrefix(notifier.msgs[0], "🎉 OVH 服务器抢购成功！🎉"))

	// 历史落盘，重新加载后仍只有一条
	reloaded := NewHistory(st)
	reloaded.Load()
	assert.Len(t, reloaded.List(), 1)
}
