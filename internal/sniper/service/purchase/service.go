// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package purchase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-arcade/sniper/internal/pkg/ovh"
	"github.com/go-arcade/sniper/internal/sniper/model"
	"github.com/go-arcade/sniper/internal/sniper/service/catalog"
	"github.com/go-arcade/sniper/pkg/log"
	"github.com/go-arcade/sniper/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	logSource  = "purchase"
	tracerName = "github.com/go-arcade/sniper/internal/sniper/service/purchase"

	defaultOS = "none_64.en"
)

// Vendor is the ordering surface of the OVH API.
type Vendor interface {
	DatacenterAvailability(ctx context.Context, planCode string, addonFamilies ...string) (map[string]string, error)
	CreateCart(ctx context.Context, subsidiary string) (*ovh.Cart, error)
	AddEcoItem(ctx context.Context, cartID, planCode string) (*ovh.CartItem, error)
	RequiredConfiguration(ctx context.Context, cartID string, itemID int64) ([]ovh.RequiredConfiguration, error)
	ConfigureItem(ctx context.Context, cartID string, itemID int64, label, value string) error
	EcoOptions(ctx context.Context, cartID, planCode string) ([]ovh.EcoOption, error)
	AddEcoOption(ctx context.Context, cartID string, itemID int64, opt ovh.EcoOption) error
	AssignCart(ctx context.Context, cartID string) error
	Checkout(ctx context.Context, cartID string) (*ovh.Order, error)
}

type Notifier interface {
	Send(ctx context.Context, text string) bool
}

type ZoneSource interface {
	Zone() string
}

// Service runs the cart/checkout transaction for one queue task.
type Service struct {
	vendor   Vendor
	history  *History
	notifier Notifier
	zone     ZoneSource
	now      func() time.Time
	tracer   trace.Tracer
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(vendor Vendor, history *History, notifier Notifier, zone ZoneSource, opts ...Option) *Service {
	s := &Service{
		vendor:   vendor,
		history:  history,
		notifier: notifier,
		zone:     zone,
		now:      time.Now,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) History() *History { return s.history }

// Purchase attempts to order task.PlanCode in task.Datacenter. An unavailable
// target returns false without touching history; every other failure is
// recorded against the task.
func (s *Service) Purchase(ctx context.Context, task model.QueueTask) (ok bool) {
	ctx, span := s.tracer.Start(ctx, "purchase.transaction", trace.WithAttributes(
		attribute.String("plan_code", task.PlanCode),
		attribute.String("datacenter", task.Datacenter),
		attribute.Int("attempt", task.RetryCount),
	))
	defer span.End()

	log.Infow(fmt.Sprintf("开始为 %s 在 %s 的购买流程", task.PlanCode, task.Datacenter),
		"source", logSource, "options", task.Options)

	available, err := s.precheck(ctx, task)
	switch {
	case errors.Is(err, ovh.ErrNotConfigured):
		log.Warnw("purchase skipped: ovh api not configured", "source", logSource, "planCode", task.PlanCode)
		metrics.RecordPurchase("unavailable")
		return false
	case err != nil:
		s.fail(span, task, err)
		return false
	case !available:
		log.Infow(fmt.Sprintf("服务器 %s 在数据中心 %s 当前无货", task.PlanCode, task.Datacenter), "source", logSource)
		metrics.RecordPurchase("unavailable")
		return false
	}

	order, err := s.order(ctx, task)
	if err != nil {
		s.fail(span, task, err)
		return false
	}

	orderID := strconv.FormatInt(order.OrderID, 10)
	s.history.Upsert(model.HistoryEntry{
		TaskID:       task.ID,
		PlanCode:     task.PlanCode,
		Datacenter:   task.Datacenter,
		Options:      task.Options,
		Status:       model.HistorySuccess,
		OrderID:      orderID,
		OrderURL:     order.URL,
		PurchaseTime: s.now(),
		AttemptCount: task.RetryCount,
	})
	metrics.RecordPurchase("success")
	log.Infow(fmt.Sprintf("成功购买 %s 在 %s", task.PlanCode, task.Datacenter),
		"source", logSource, "orderId", orderID, "url", order.URL)

	if s.notifier != nil {
		s.notifier.Send(ctx, successMessage(task, orderID, order.URL))
	}
	return true
}

func (s *Service) precheck(ctx context.Context, task model.QueueTask) (bool, error) {
	status, err := s.vendor.DatacenterAvailability(ctx, task.PlanCode)
	if err != nil {
		return false, err
	}
	return ovh.IsAvailable(status[task.Datacenter]), nil
}

func (s *Service) order(ctx context.Context, task model.QueueTask) (*ovh.Order, error) {
	zone := "IE"
	if s.zone != nil && s.zone.Zone() != "" {
		zone = s.zone.Zone()
	}

	cart, err := s.vendor.CreateCart(ctx, zone)
	if err != nil {
		return nil, err
	}
	log.Infow("cart created", "source", logSource, "cartId", cart.CartID, "zone", zone)

	item, err := s.vendor.AddEcoItem(ctx, cart.CartID, task.PlanCode)
	if err != nil {
		return nil, fmt.Errorf("%w (cart %s)", err, cart.CartID)
	}

	configs := [][2]string{
		{"dedicated_datacenter", task.Datacenter},
		{"dedicated_os", defaultOS},
	}
	if region, ok := ResolveRegion(task.Datacenter); ok {
		configs = append(configs, [2]string{"region", region})
	} else {
		log.Warnw(fmt.Sprintf("无法为数据中心 %s 推断区域，可能导致配置失败", task.Datacenter), "source", logSource)
		s.warnIfRegionRequired(ctx, cart.CartID, item.ItemID)
	}
	for _, kv := range configs {
		if err := s.vendor.ConfigureItem(ctx, cart.CartID, item.ItemID, kv[0], kv[1]); err != nil {
			return nil, fmt.Errorf("%w (configure %s)", err, kv[0])
		}
	}

	s.addOptions(ctx, cart.CartID, item.ItemID, task)

	if err := s.vendor.AssignCart(ctx, cart.CartID); err != nil {
		return nil, err
	}
	order, err := s.vendor.Checkout(ctx, cart.CartID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) warnIfRegionRequired(ctx context.Context, cartID string, itemID int64) {
	required, err := s.vendor.RequiredConfiguration(ctx, cartID, itemID)
	if err != nil {
		log.Warnw("read required configuration failed", "source", logSource, "error", err)
		return
	}
	for _, rc := range required {
		if rc.Label == "region" && rc.Required {
			log.Warnw("region is required but could not be resolved", "source", logSource, "allowed", rc.AllowedValues)
			return
		}
	}
}

// addOptions 逐个添加硬件选项，单个失败只记录日志
func (s *Service) addOptions(ctx context.Context, cartID string, itemID int64, task model.QueueTask) {
	wanted := make([]string, 0, len(task.Options))
	for _, code := range task.Options {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if catalog.IsExcludedOption(code) {
			log.Infow("skip non-hardware option", "source", logSource, "option", code)
			continue
		}
		wanted = append(wanted, code)
	}
	if len(wanted) == 0 {
		return
	}

	offers, err := s.vendor.EcoOptions(ctx, cartID, task.PlanCode)
	if err != nil {
		log.Errorw("list eco options failed", "source", logSource, "error", err)
		return
	}

	added := 0
	for _, code := range wanted {
		found := false
		for _, offer := range offers {
			if offer.PlanCode != code {
				continue
			}
			found = true
			if err := s.vendor.AddEcoOption(ctx, cartID, itemID, offer); err != nil {
				log.Warnw("add eco option failed", "source", logSource, "option", code, "error", err)
				break
			}
			added++
			break
		}
		if !found {
			log.Warnw("requested option not offered", "source", logSource, "option", code)
		}
	}
	log.Infow("hardware options added", "source", logSource, "added", added, "requested", len(wanted))
}

func (s *Service) fail(span trace.Span, task model.QueueTask, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	var apiErr *ovh.APIError
	if errors.As(err, &apiErr) {
		log.Errorw(fmt.Sprintf("购买 %s 时发生 OVH API 错误", task.PlanCode), "source", logSource, "error", err)
	} else {
		log.Errorw(fmt.Sprintf("购买 %s 时发生未知错误", task.PlanCode), "source", logSource, "error", err)
	}

	s.history.Upsert(model.HistoryEntry{
		TaskID:       task.ID,
		PlanCode:     task.PlanCode,
		Datacenter:   task.Datacenter,
		Options:      task.Options,
		Status:       model.HistoryFailed,
		ErrorMessage: err.Error(),
		PurchaseTime: s.now(),
		AttemptCount: task.RetryCount,
	})
	metrics.RecordPurchase("failed")
}

func successMessage(task model.QueueTask, orderID, url string) string {
	var b strings.Builder
	b.WriteString("🎉 OVH 服务器抢购成功！🎉\n\n")
	fmt.Fprintf(&b, "服务器型号 (Plan Code): %s\n", task.PlanCode)
	fmt.Fprintf(&b, "数据中心: %s\n", task.Datacenter)
	fmt.Fprintf(&b, "订单 ID: %s\n", orderID)
	fmt.Fprintf(&b, "订单链接: %s\n", url)
	if len(task.Options) > 0 {
		fmt.Fprintf(&b, "自定义配置: %s\n", strings.Join(task.Options, ", "))
	}
	fmt.Fprintf(&b, "\n抢购任务ID: %s", task.ID)
	return b.String()
}
