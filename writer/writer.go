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

// Package writer is the final stage's output contract: a stream of
// lens-rewritten classes handed to an external consumer (spec.md §6,
// §1's explicit exclusion of actual classfile/Dex serialization from this
// core's scope).
package writer

import (
	"sort"

	"github.com/r8shrink/r8/ir"
	"github.com/r8shrink/r8/item"
	"github.com/r8shrink/r8/lens"
	"github.com/r8shrink/r8/parallel"
)

// Sink is the opaque external consumer spec.md §6 describes: something that
// accepts the final, renamed classes one at a time. Real backends (a
// classfile writer, a Dex file writer) live outside this core; this package
// only defines the contract they implement.
type Sink interface {
	// Accept receives one class already rewritten through finalLens: its
	// Type, Super, Interfaces, and every member reference reflect the final
	// names. Accept is called once per surviving class, in the order Emit
	// iterates them.
	Accept(c *ir.Class) error
}

// Emit applies finalLens to every class's own identity fields and hands the
// rewritten class to sink, in a deterministic order (sorted by final
// descriptor, per spec.md §5's "final artifacts are produced from sorted
// keys, not worklist order").
func Emit(classes []*ir.Class, finalLens lens.GraphLens, sink Sink) error {
	rewritten := make([]*ir.Class, len(classes))
	// Grounded on prune.Run's own parallel.IndexedFanOut fan-out: rewriting
	// one class only reads finalLens and writes its own pre-sized slot, the
	// same per-class-independent shape the tree pruner's rewrite pass has.
	err := parallel.IndexedFanOut(len(classes), func(i int) error {
		out, err := rewriteClass(classes[i], finalLens)
		if err != nil {
			return err
		}
		rewritten[i] = out
		return nil
	})
	if err != nil {
		return err
	}
	sort.Slice(rewritten, func(i, j int) bool {
		return rewritten[i].Type.Descriptor() < rewritten[j].Type.Descriptor()
	})
	for _, c := range rewritten {
		if err := sink.Accept(c); err != nil {
			return err
		}
	}
	return nil
}

// rewriteClass produces a copy of c with its type, super, interface list,
// and every member reference passed through l. Member bodies (code,
// annotations) are untouched: rewriting their internal references is
// lens.MemberRebinder's job during tracing, not the writer's.
func rewriteClass(c *ir.Class, l lens.GraphLens) (*ir.Class, error) {
	var super *item.DexType
	if c.Super != nil {
		super = l.LookupType(c.Super)
	}
	interfaces := make([]*item.DexType, len(c.Interfaces))
	for i, iface := range c.Interfaces {
		interfaces[i] = l.LookupType(iface)
	}
	out, err := ir.NewClass(l.LookupType(c.Type), super, interfaces, c.Flags)
	if err != nil {
		return nil, err
	}
	out.Annotations = c.Annotations
	out.SourceFile = c.SourceFile
	out.Origin = c.Origin
	out.OriginDescription = c.OriginDescription
	out.SyntheticFrom = c.SyntheticFrom

	for _, f := range c.StaticFields {
		if err := out.AddStaticField(rewriteField(f, l)); err != nil {
			return nil, err
		}
	}
	for _, f := range c.InstanceFields {
		if err := out.AddInstanceField(rewriteField(f, l)); err != nil {
			return nil, err
		}
	}
	for _, m := range c.DirectMethods {
		if err := out.AddDirectMethod(rewriteMethod(m, l)); err != nil {
			return nil, err
		}
	}
	for _, m := range c.VirtualMethods {
		if err := out.AddVirtualMethod(rewriteMethod(m, l)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func rewriteField(f *ir.EncodedField, l lens.GraphLens) *ir.EncodedField {
	return ir.NewEncodedField(l.LookupField(f.Reference), f.Flags, f.Annotations...)
}

func rewriteMethod(m *ir.EncodedMethod, l lens.GraphLens) *ir.EncodedMethod {
	kind := ir.InvokeVirtual
	if m.IsDirect() {
		kind = ir.InvokeDirect
		if m.Flags.IsStatic() {
			kind = ir.InvokeStatic
		}
	}
	newRef, _ := l.LookupMethod(m.Reference, ir.Context{}, kind)
	out := ir.NewEncodedMethod(newRef, m.Flags, m.Code, m.Annotations...)
	out.ParamAnnotations = m.ParamAnnotations
	out.OptInfo = m.OptInfo
	return out
}
