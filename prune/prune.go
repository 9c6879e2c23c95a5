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

// Package prune implements the Tree Pruner (spec.md §4.7): given a Liveness
// result, builds a new program containing only live classes and, within
// each, only live members, repairing the superclass chain where a class's
// immediate super did not survive.
package prune

import (
	"sync"

	"github.com/r8shrink/r8/enqueue"
	"github.com/r8shrink/r8/hierarchy"
	"github.com/r8shrink/r8/ir"
	"github.com/r8shrink/r8/item"
	"github.com/r8shrink/r8/lens"
	"github.com/r8shrink/r8/parallel"
	"github.com/r8shrink/r8/rootset"
)

// Result is the pruned program plus the bookkeeping spec.md §4.7 says must
// drive prunedCopyFrom on the auxiliary maps.
type Result struct {
	Classes []*ir.Class

	// Removed holds every type, field, and method reference the pruner
	// dropped, keyed the same way rootset.Ref is: by interned pointer
	// identity.
	Removed map[rootset.Ref]bool

	// Lens is the (no-op for type identity) lens this stage contributes to
	// the chain, per spec.md §4.8 "tree-pruner (no-op for types; removes
	// nothing from names)".
	Lens lens.GraphLens
}

// Run prunes classes down to their live subset. idx must be the Index that
// produced live (so Supertypes/DefinitionFor agree with it); prev is the
// lens to nest the pruner's (identity) contribution under, or nil.
func Run(idx *hierarchy.Index, live *enqueue.Liveness, classes []*ir.Class, prev lens.GraphLens) (*Result, error) {
	pruned := make([]*ir.Class, len(classes))
	removed := map[rootset.Ref]bool{}
	var mu sync.Mutex

	err := parallel.IndexedFanOut(len(classes), func(i int) error {
		c := classes[i]
		if !live.LiveTypes[c.Type] {
			mu.Lock()
			removed[c.Type] = true
			mu.Unlock()
			return nil
		}
		nc, droppedMembers := pruneMembers(c, live)
		pruned[i] = nc
		if len(droppedMembers) > 0 {
			mu.Lock()
			for _, ref := range droppedMembers {
				removed[ref] = true
			}
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	liveTypes := make(map[*item.DexType]bool, len(pruned))
	var out []*ir.Class
	for _, c := range pruned {
		if c != nil {
			out = append(out, c)
			liveTypes[c.Type] = true
		}
	}

	for _, c := range out {
		repairSuperChain(idx, liveTypes, c)
		c.Interfaces = filterLiveTypes(c.Interfaces, liveTypes)
	}

	return &Result{
		Classes: out,
		Removed: removed,
		Lens:    lens.NewNested(prev, nil, nil, nil, nil, true),
	}, nil
}

// pruneMembers returns a copy of c retaining only live fields and methods,
// plus every member reference it dropped.
func pruneMembers(c *ir.Class, live *enqueue.Liveness) (*ir.Class, []rootset.Ref) {
	nc := &ir.Class{
		Type:              c.Type,
		Super:             c.Super,
		Interfaces:        append([]*item.DexType(nil), c.Interfaces...),
		Flags:             c.Flags,
		Annotations:       c.Annotations,
		SourceFile:        c.SourceFile,
		Origin:            c.Origin,
		OriginDescription: c.OriginDescription,
		SyntheticFrom:     c.SyntheticFrom,
	}
	var removed []rootset.Ref

	for _, m := range c.DirectMethods {
		if live.LiveMethods[m.Reference] {
			nc.DirectMethods = append(nc.DirectMethods, m)
		} else {
			removed = append(removed, m.Reference)
		}
	}
	for _, m := range c.VirtualMethods {
		if live.LiveMethods[m.Reference] {
			nc.VirtualMethods = append(nc.VirtualMethods, m)
		} else {
			removed = append(removed, m.Reference)
		}
	}
	for _, f := range c.StaticFields {
		if _, ok := live.FieldAccessInfo[f.Reference]; ok {
			nc.StaticFields = append(nc.StaticFields, f)
		} else {
			removed = append(removed, f.Reference)
		}
	}
	for _, f := range c.InstanceFields {
		if _, ok := live.FieldAccessInfo[f.Reference]; ok {
			nc.InstanceFields = append(nc.InstanceFields, f)
		} else {
			removed = append(removed, f.Reference)
		}
	}
	return nc, removed
}

// repairSuperChain walks up c's original superclass chain until it finds a
// type that survived pruning (or runs out of chain), per spec.md §4.7
// "otherwise the class hierarchy is repaired by hoisting the super link to
// the nearest surviving ancestor".
func repairSuperChain(idx *hierarchy.Index, liveTypes map[*item.DexType]bool, c *ir.Class) {
	super := c.Super
	for super != nil && !liveTypes[super] {
		def, ok := idx.DefinitionFor(super)
		if !ok {
			break
		}
		super = def.Super
	}
	c.Super = super
}

func filterLiveTypes(types []*item.DexType, liveTypes map[*item.DexType]bool) []*item.DexType {
	var out []*item.DexType
	for _, t := range types {
		if liveTypes[t] {
			out = append(out, t)
		}
	}
	return out
}
