// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package idgen

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlakeGenerator(t *testing.T) {
	g, err := NewFlakeGenerator()
	require.NoError(t, err)

	prev := g.NextID()
	assert.Positive(t, prev)
	for range 100 {
		next := g.NextID()
		assert.Greater(t, next, prev)
		prev = next
	}
}

func TestHostnameMachineIDIsStable(t *testing.T) {
	a, err := hostnameMachineID()
	require.NoError(t, err)
	b, err := hostnameMachineID()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestULIDGeneratorMonotonic(t *testing.T) {
	g := NewULIDGenerator()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	ids := make([]string, 50)
	for i := range ids {
		ids[i] = g.Make(at)
	}
	assert.True(t, sort.StringsAreSorted(ids), "same-millisecond ids increase")

	parsed, err := ulid.Parse(ids[0])
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(at), parsed.Time())
}

func TestULIDGeneratorConcurrent(t *testing.T) {
	g := NewULIDGenerator()
	now := time.Now()

	var (
		mu   sync.Mutex
		seen = map[string]bool{}
		wg   sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				id := g.Make(now)
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 800)
}
