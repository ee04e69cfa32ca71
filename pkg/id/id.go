package id

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/xid"
	"github.com/teris-io/shortid"
)

/**
 * @author: HuaiAn xu
 * @date: 2024-05-02 00:34:31
 * @file: id.go
 * @description: id util
 */

var (
	ulidMu      sync.Mutex
	ulidEntropy = ulid.Monotonic(rand.Reader, 0)
)

// GetUUID generates a new UUID, used for queue task ids and request ids
func GetUUID() string {
	return uuid.NewString()
}

// GetUUIDWithoutDashes generates a new UUID not horizontal line
func GetUUIDWithoutDashes() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// GetUlid 按时间单调递增，用于日志条目，排序即时间序
func GetUlid() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// GetXid 20 位、可按生成时间排序
func GetXid() string {
	return xid.New().String()
}

// ShortId 生成短 id，失败时退回 xid
func ShortId() string {
	sid, err := shortid.Generate()
	if err != nil {
		return GetXid()
	}
	return sid
}
