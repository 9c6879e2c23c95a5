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

// Package hierarchy implements AppInfo: the class-hierarchy index built once
// per reachability round over program+classpath+library classes (spec.md
// §4.2). Apart from AddSyntheticClass (used by lambda desugaring) and the
// subtype cache Subtypes fills in, it is not modified for the rest of that
// round's lifetime. It has no internal locking.
package hierarchy

import (
	"github.com/r8shrink/r8/ir"
	"github.com/r8shrink/r8/item"
)

// Index is AppInfo: a uniform lookup over program, classpath, and library
// classes, plus the subtype closure and resolution algorithms built on top
// of it (spec.md §4.2).
type Index struct {
	classes  map[*item.DexType]*ir.Class
	children map[*item.DexType][]*item.DexType // direct subclass/subinterface edges, both super and implements

	subtypesCache map[*item.DexType][]*item.DexType
}

// Build constructs an Index over every class given, indexing classes by type
// and precomputing the direct subtype edges used by Subtypes/IsSubtype.
func Build(classes []*ir.Class) *Index {
	idx := &Index{
		classes:       make(map[*item.DexType]*ir.Class, len(classes)),
		children:      make(map[*item.DexType][]*item.DexType),
		subtypesCache: make(map[*item.DexType][]*item.DexType),
	}
	for _, c := range classes {
		idx.classes[c.Type] = c
	}
	for _, c := range classes {
		if c.Super != nil {
			idx.children[c.Super] = append(idx.children[c.Super], c.Type)
		}
		for _, iface := range c.Interfaces {
			idx.children[iface] = append(idx.children[iface], c.Type)
		}
	}
	return idx
}

// AddSyntheticClass inserts a class built after Build (e.g. a lambda
// call-site's synthesized implementation, spec.md §4.6.1) into the index,
// invalidating the subtype cache so later Subtypes/IsSubtype queries see the
// new edges.
func (idx *Index) AddSyntheticClass(c *ir.Class) {
	idx.classes[c.Type] = c
	if c.Super != nil {
		idx.children[c.Super] = append(idx.children[c.Super], c.Type)
	}
	for _, iface := range c.Interfaces {
		idx.children[iface] = append(idx.children[iface], c.Type)
	}
	idx.subtypesCache = make(map[*item.DexType][]*item.DexType)
}

// DefinitionFor returns the class definition for t, uniform across
// program/classpath/library, or ok == false if t has no known definition
// (spec.md §4.2 "definitionFor").
func (idx *Index) DefinitionFor(t *item.DexType) (*ir.Class, bool) {
	c, ok := idx.classes[t]
	return c, ok
}

// Subtypes returns the transitive, reflexive set of types that are t or
// extend/implement t, directly or indirectly (spec.md §4.2 "subtypes...
// includes interfaces").
func (idx *Index) Subtypes(t *item.DexType) []*item.DexType {
	if cached, ok := idx.subtypesCache[t]; ok {
		return cached
	}
	seen := map[*item.DexType]bool{t: true}
	order := []*item.DexType{t}
	queue := []*item.DexType{t}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range idx.children[cur] {
			if !seen[child] {
				seen[child] = true
				order = append(order, child)
				queue = append(queue, child)
			}
		}
	}
	idx.subtypesCache[t] = order
	return order
}

// IsSubtype reports whether sub is sup or a (transitive) sub-type of sup.
func (idx *Index) IsSubtype(sub, sup *item.DexType) bool {
	for _, t := range idx.Subtypes(sup) {
		if t == sub {
			return true
		}
	}
	return false
}

// Supertypes walks from t up through its superclass chain and declared
// interfaces, transitively, returning them in that discovery order
// (superclass chain before interfaces at each level).
func (idx *Index) Supertypes(t *item.DexType) []*item.DexType {
	var out []*item.DexType
	seen := map[*item.DexType]bool{}
	var walk func(cur *item.DexType, skipSelf bool)
	walk = func(cur *item.DexType, skipSelf bool) {
		c, ok := idx.classes[cur]
		if !ok {
			return
		}
		if !skipSelf && !seen[cur] {
			seen[cur] = true
			out = append(out, cur)
		}
		if c.Super != nil && !seen[c.Super] {
			seen[c.Super] = true
			out = append(out, c.Super)
			walk(c.Super, true)
		}
		for _, iface := range c.Interfaces {
			if !seen[iface] {
				seen[iface] = true
				out = append(out, iface)
			}
			walk(iface, true)
		}
	}
	walk(t, true)
	return out
}

// packageOf returns the Java-style package name of a class type descriptor.
func packageOf(t *item.DexType) string { return t.PackageName() }
