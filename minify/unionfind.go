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

package minify

import "github.com/r8shrink/r8/item"

// methodUnionFind is a standard union-find over *item.DexMethod, used to
// compute the "overrides or co-implements" equivalence classes spec.md §4.9
// requires a method's fresh name to be shared across.
type methodUnionFind struct {
	parent map[*item.DexMethod]*item.DexMethod
	rank   map[*item.DexMethod]int
}

func newMethodUnionFind() *methodUnionFind {
	return &methodUnionFind{parent: map[*item.DexMethod]*item.DexMethod{}, rank: map[*item.DexMethod]int{}}
}

func (u *methodUnionFind) add(m *item.DexMethod) {
	if _, ok := u.parent[m]; !ok {
		u.parent[m] = m
		u.rank[m] = 0
	}
}

func (u *methodUnionFind) find(m *item.DexMethod) *item.DexMethod {
	u.add(m)
	root := m
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[m] != root {
		u.parent[m], m = root, u.parent[m]
	}
	return root
}

func (u *methodUnionFind) union(a, b *item.DexMethod) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
}

// groups returns every equivalence class as a slice of its members, keyed by
// (and including) each class's representative.
func (u *methodUnionFind) groups() map[*item.DexMethod][]*item.DexMethod {
	out := map[*item.DexMethod][]*item.DexMethod{}
	for m := range u.parent {
		r := u.find(m)
		out[r] = append(out[r], m)
	}
	return out
}
