//  Copyright (c) 2026 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package effect

import (
	"sync"

	"go.uber.org/ownaway/config"
	"go.uber.org/ownaway/summary"
)

// Key identifies one memoized summary.
type Key struct {
	// Callee is the callee identity (see ir.Callee.Name).
	Callee string
	// Epoch is the compilation epoch the summary was computed in.
	Epoch uint64
	// Config is the summary-relevant projection of the configuration.
	Config config.Key
}

// Entry is one memoized summary.
type Entry struct {
	// Summary is the computed summary, or nil if the callee is unknown.
	Summary *summary.Summary
	// Depth is the recursion depth the summary was computed at.
	Depth int
	// OverBudget is set if the computation hit a budget (depth, size, or re-entrancy) and the
	// summary is therefore a conservative approximation.
	OverBudget bool
}

// supersedes returns true if the fresh entry should replace the stored one. A precise entry is
// final; an over-budget entry is replaced by a precise one, or by an over-budget one computed at a
// shallower depth (which had more budget left).
func supersedes(fresh, stored Entry) bool {
	if !stored.OverBudget {
		return false
	}
	if !fresh.OverBudget {
		return true
	}
	return fresh.Depth < stored.Depth
}

// Cache is the process-wide memo of effect summaries together with the in-progress guard. All
// methods are safe for concurrent use; no lock is held while a summary is being computed.
type Cache struct {
	mu         sync.Mutex
	epoch      uint64
	entries    map[Key]Entry
	inProgress map[Key]struct{}
}

// NewCache returns an empty cache at epoch 0.
func NewCache() *Cache {
	return &Cache{entries: make(map[Key]Entry), inProgress: make(map[Key]struct{})}
}

// Epoch returns the current compilation epoch.
func (c *Cache) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// Advance moves to the next compilation epoch, invalidating every memoized summary, and returns
// the new epoch.
func (c *Cache) Advance() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	clear(c.entries)
	return c.epoch
}

// Lookup returns the entry stored under k. Keys of past epochs always miss.
func (c *Cache) Lookup(k Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if k.Epoch != c.epoch {
		return Entry{}, false
	}
	e, ok := c.entries[k]
	return e, ok
}

// Publish merges e into the cache under k and returns the entry the cache holds afterwards.
// Concurrent publications of the same key are resolved by the supersede rule, not by the order of
// arrival. Publications for a past epoch are dropped.
func (c *Cache) Publish(k Key, e Entry) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if k.Epoch != c.epoch {
		return e
	}
	if stored, ok := c.entries[k]; ok && !supersedes(e, stored) {
		return stored
	}
	c.entries[k] = e
	return e
}

// Begin marks k as being computed. It returns false if k is already in progress, in which case
// the caller must not compute it.
func (c *Cache) Begin(k Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.inProgress[k]; ok {
		return false
	}
	c.inProgress[k] = struct{}{}
	return true
}

// End clears the in-progress mark of k.
func (c *Cache) End(k Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inProgress, k)
}

// Len returns the number of entries of the current epoch.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Snapshot returns a printable copy of the cache, keyed by callee, for tracing.
func (c *Cache) Snapshot() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.entries))
	for k, e := range c.entries {
		s := e.Summary.String()
		if e.OverBudget {
			s += " (over budget)"
		}
		out[k.Callee] = s
	}
	return out
}
