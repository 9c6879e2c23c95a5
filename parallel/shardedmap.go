// Copyright 2023 Google Inc. All rights reserved.
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

package parallel

import "sync"

// ShardedMap is a type-safe wrapper around sync.Map, generalized from the
// teacher's SyncMap[K,V] (android/util.go). item.Factory's intern tables are
// built on it; the Enqueuer's live-type/live-method/live-field sets are plain
// Go maps, not ShardedMaps.
type ShardedMap[K comparable, V any] struct {
	m sync.Map
}

func (m *ShardedMap[K, V]) Load(key K) (value V, ok bool) {
	v, ok := m.m.Load(key)
	if !ok {
		return *new(V), false
	}
	return v.(V), true
}

func (m *ShardedMap[K, V]) Store(key K, value V) {
	m.m.Store(key, value)
}

// LoadOrStore returns the existing value for key if present; otherwise it
// stores and returns value. loaded reports whether the value already existed.
func (m *ShardedMap[K, V]) LoadOrStore(key K, value V) (actual V, loaded bool) {
	v, loaded := m.m.LoadOrStore(key, value)
	return v.(V), loaded
}

// StoreIfAbsent stores value under key only if key is not already present,
// returning true iff this call is the one that inserted it.
func (m *ShardedMap[K, V]) StoreIfAbsent(key K, value V) (inserted bool) {
	_, loaded := m.m.LoadOrStore(key, value)
	return !loaded
}

func (m *ShardedMap[K, V]) Delete(key K) {
	m.m.Delete(key)
}

// Range calls f for every key/value pair. Iteration order is unspecified.
func (m *ShardedMap[K, V]) Range(f func(key K, value V) bool) {
	m.m.Range(func(k, v interface{}) bool {
		return f(k.(K), v.(V))
	})
}

// Len returns the number of entries currently stored. O(n); intended for
// diagnostics and tests, not hot paths.
func (m *ShardedMap[K, V]) Len() int {
	n := 0
	m.Range(func(K, V) bool { n++; return true })
	return n
}

// Keys returns a snapshot of all keys currently stored.
func (m *ShardedMap[K, V]) Keys() []K {
	var keys []K
	m.Range(func(k K, _ V) bool { keys = append(keys, k); return true })
	return keys
}
