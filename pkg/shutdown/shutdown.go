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

package shutdown

import (
	"sync"
	"sync/atomic"

	"github.com/go-arcade/sniper/pkg/log"
	"github.com/go-arcade/sniper/pkg/safe"
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(NewManager)

// Hook 退出时执行的清理动作
type Hook struct {
	Name string
	Fn   func()
}

// Manager 记录进程是否进入退出流程，/health 据此返回 503
type Manager struct {
	shuttingDown atomic.Bool
	done         chan struct{}
	once         sync.Once

	mu    sync.Mutex
	hooks []Hook
}

func NewManager() *Manager {
	return &Manager{done: make(chan struct{})}
}

func (m *Manager) IsShuttingDown() bool {
	return m.shuttingDown.Load()
}

// OnShutdown 注册清理动作，按注册的逆序执行
func (m *Manager) OnShutdown(name string, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, Hook{Name: name, Fn: fn})
}

// Shutdown 进入退出流程并依次执行清理动作，重复调用返回 false
func (m *Manager) Shutdown() bool {
	if !m.shuttingDown.CompareAndSwap(false, true) {
		return false
	}

	m.mu.Lock()
	hooks := make([]Hook, len(m.hooks))
	copy(hooks, m.hooks)
	m.mu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		log.Infow("running shutdown hook", "hook", h.Name)
		safe.Do(h.Fn)
	}

	m.once.Do(func() { close(m.done) })
	return true
}

// Wait 在清理动作全部执行后关闭
func (m *Manager) Wait() <-chan struct{} {
	return m.done
}
