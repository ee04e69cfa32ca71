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

package store

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/sniper/pkg/log"
	"github.com/google/wire"
	"github.com/pkg/errors"
)

// 每个集合一个文件，整体覆盖写
const (
	FileSettings         = "config.json"
	FileLogs             = "logs.json"
	FileQueue            = "queue.json"
	FileHistory          = "history.json"
	FileServers          = "servers.json"
	FileSubscriptions    = "subscriptions.json"
	FileSniperTasks      = "config_sniper_tasks.json"
	FileVPSSubscriptions = "vps_subscriptions.json"
)

var ErrNotExist = errors.New("store: document does not exist")

var ProviderSet = wire.NewSet(ProvideStore)

type Conf struct {
	Dir string
}

func ProvideStore(conf Conf) (*Store, error) {
	return New(conf.Dir)
}

// Store reads and writes whole JSON documents under one directory.
type Store struct {
	dir string
	mu  sync.Mutex
}

func New(dir string) (*Store, error) {
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create data dir %s", dir)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Load decodes name into v. A missing file yields ErrNotExist and leaves v untouched.
func (s *Store) Load(name string, v any) error {
	raw, err := os.ReadFile(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotExist
		}
		return errors.Wrapf(err, "read %s", name)
	}
	if len(raw) == 0 {
		return ErrNotExist
	}
	if err := sonic.Unmarshal(raw, v); err != nil {
		return errors.Wrapf(err, "decode %s", name)
	}
	return nil
}

// Save 先写临时文件再 rename，避免进程中断留下半个文件
func (s *Store) Save(name string, v any) error {
	raw, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encode %s", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "create temp for %s", name)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "write %s", name)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "close %s", name)
	}
	if err := os.Rename(tmpName, s.Path(name)); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "replace %s", name)
	}
	return nil
}

func (s *Store) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.Path(name)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove %s", name)
	}
	return nil
}

// ModTime returns the file's modification time, false if absent.
func (s *Store) ModTime(name string) (time.Time, bool) {
	info, err := os.Stat(s.Path(name))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// LoadOrDefault 文件缺失或损坏时返回 def，损坏只告警不阻塞启动
func LoadOrDefault[T any](s *Store, name string, def T) T {
	var v T
	err := s.Load(name, &v)
	switch {
	case err == nil:
		return v
	case errors.Is(err, ErrNotExist):
		return def
	default:
		log.Warnw("corrupt data file, using defaults", "source", "system", "file", name, "error", err)
		return def
	}
}
