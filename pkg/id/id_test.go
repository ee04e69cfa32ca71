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

package id_test

import (
	"sort"
	"testing"

	"github.com/go-arcade/sniper/pkg/id"
	"github.com/stretchr/testify/assert"
)

func TestIDLengths(t *testing.T) {
	tests := []struct {
		name string
		gen  func() string
		want int
	}{
		{"uuid", id.GetUUID, 36},
		{"uuid_without_dashes", id.GetUUIDWithoutDashes, 32},
		{"ulid", id.GetUlid, 26},
		{"xid", id.GetXid, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, tt.gen(), tt.want)
		})
	}
}

func TestShortIdNotEmpty(t *testing.T) {
	a, b := id.ShortId(), id.ShortId()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestGetUlidMonotonic(t *testing.T) {
	ids := make([]string, 100)
	for i := range ids {
		ids[i] = id.GetUlid()
	}
	assert.True(t, sort.StringsAreSorted(ids), "ulids generated in sequence should sort in order")
}
