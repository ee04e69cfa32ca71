package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-arcade/sniper/internal/pkg/notify/channel"
)

// NotifyManager manages multiple notification channels
type NotifyManager struct {
	channels map[ChannelType]channel.INotifyChannel
	mu       sync.RWMutex
}

// NewNotifyManager creates a new notification manager
func NewNotifyManager() *NotifyManager {
	return &NotifyManager{
		channels: make(map[ChannelType]channel.INotifyChannel),
	}
}

// RegisterChannel 注册或替换同名通道，旧通道会被关闭
func (nm *NotifyManager) RegisterChannel(name ChannelType, ch channel.INotifyChannel) error {
	if name == "" {
		return fmt.Errorf("channel name cannot be empty")
	}
	if ch == nil {
		return fmt.Errorf("channel cannot be nil")
	}
	if err := ch.Validate(); err != nil {
		return fmt.Errorf("channel validation failed: %w", err)
	}

	nm.mu.Lock()
	old := nm.channels[name]
	nm.channels[name] = ch
	nm.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// UnregisterChannel 不存在时静默返回
func (nm *NotifyManager) UnregisterChannel(name ChannelType) error {
	nm.mu.Lock()
	ch, exists := nm.channels[name]
	delete(nm.channels, name)
	nm.mu.Unlock()

	if !exists {
		return nil
	}
	if err := ch.Close(); err != nil {
		return fmt.Errorf("failed to close channel: %w", err)
	}
	return nil
}

// ListChannels lists all registered channels
func (nm *NotifyManager) ListChannels() []ChannelType {
	nm.mu.RLock()
	defer nm.mu.RUnlock()

	names := make([]ChannelType, 0, len(nm.channels))
	for name := range nm.channels {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

func (nm *NotifyManager) GetChannel(name ChannelType) (channel.INotifyChannel, bool) {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	ch, ok := nm.channels[name]
	return ch, ok
}

// Broadcast sends to every channel and returns the names that delivered.
// The error joins every channel failure.
func (nm *NotifyManager) Broadcast(ctx context.Context, send func(ctx context.Context, name ChannelType, ch channel.INotifyChannel) error) ([]ChannelType, error) {
	var (
		delivered []ChannelType
		errs      []error
	)
	for _, name := range nm.ListChannels() {
		ch, ok := nm.GetChannel(name)
		if !ok {
			continue
		}
		if err := send(ctx, name, ch); err != nil {
			errs = append(errs, fmt.Errorf("channel %s: %w", name, err))
			continue
		}
		delivered = append(delivered, name)
	}
	return delivered, errors.Join(errs...)
}
