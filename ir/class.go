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

package ir

import (
	"fmt"

	"github.com/r8shrink/r8/item"
)

// Origin classifies which input group produced a class (spec.md §3 "Classes
// are classified as program... classpath... or library").
type Origin int

const (
	// Program classes are subject to optimization (shrinking, renaming).
	Program Origin = iota
	// Classpath classes are referenced but never rewritten.
	Classpath
	// Library classes are runtime classes, never rewritten.
	Library
)

func (o Origin) String() string {
	switch o {
	case Program:
		return "program"
	case Classpath:
		return "classpath"
	case Library:
		return "library"
	default:
		return "unknown"
	}
}

// Class is a class definition (spec.md §3 "Class").
type Class struct {
	Type       *item.DexType
	Super      *item.DexType // nil only for the root Object type
	Interfaces []*item.DexType
	Flags      AccessFlags

	DirectMethods  []*EncodedMethod
	VirtualMethods []*EncodedMethod
	InstanceFields []*EncodedField
	StaticFields   []*EncodedField

	Annotations []Annotation
	SourceFile  string
	Origin      Origin

	// OriginDescription is an opaque, diagnostics-only description of where
	// this class came from (an archive member path, a Dex file index, ...).
	// It is never parsed; it is the hook the out-of-scope readers attach
	// provenance to (SPEC_FULL.md §3).
	OriginDescription string

	// SyntheticFrom, when non-empty, records which invoke-dynamic call site
	// this class was synthesized from (spec.md §4.6.1, SPEC_FULL.md §4.11
	// "synthesized from" trailer in the mapping output).
	SyntheticFrom string
}

// NewClass validates and constructs a memberless Class, enforcing spec.md
// §3's invariant (i) (no self-superclass, no self-interface). Invariants (ii)
// and (iii) are enforced as members are added: the Add* methods reject
// duplicate references and set each member's holder back-reference, so a
// member added that way always has a Holder() matching its owning Class.
func NewClass(classType *item.DexType, super *item.DexType, interfaces []*item.DexType, flags AccessFlags) (*Class, error) {
	if super != nil && super == classType {
		return nil, fmt.Errorf("class %s cannot be its own superclass", classType)
	}
	for _, iface := range interfaces {
		if iface == classType {
			return nil, fmt.Errorf("class %s cannot implement itself", classType)
		}
	}
	return &Class{Type: classType, Super: super, Interfaces: append([]*item.DexType(nil), interfaces...), Flags: flags}, nil
}

// AddStaticField adds a static field, enforcing the no-duplicate-by-reference
// invariant and setting the field's holder back-reference.
func (c *Class) AddStaticField(f *EncodedField) error {
	if err := c.checkNoDuplicateField(f.Reference); err != nil {
		return err
	}
	f.holder = c.Type
	c.StaticFields = append(c.StaticFields, f)
	return nil
}

// AddInstanceField adds an instance field, enforcing the no-duplicate
// invariant and setting the field's holder back-reference.
func (c *Class) AddInstanceField(f *EncodedField) error {
	if err := c.checkNoDuplicateField(f.Reference); err != nil {
		return err
	}
	f.holder = c.Type
	c.InstanceFields = append(c.InstanceFields, f)
	return nil
}

// AddDirectMethod adds a direct (static/private/constructor) method,
// enforcing the no-duplicate invariant and setting the holder back-reference.
func (c *Class) AddDirectMethod(m *EncodedMethod) error {
	if err := c.checkNoDuplicateMethod(m.Reference); err != nil {
		return err
	}
	m.holder = c.Type
	c.DirectMethods = append(c.DirectMethods, m)
	return nil
}

// AddVirtualMethod adds a virtual method, enforcing the no-duplicate
// invariant and setting the holder back-reference.
func (c *Class) AddVirtualMethod(m *EncodedMethod) error {
	if err := c.checkNoDuplicateMethod(m.Reference); err != nil {
		return err
	}
	m.holder = c.Type
	c.VirtualMethods = append(c.VirtualMethods, m)
	return nil
}

func (c *Class) checkNoDuplicateField(ref *item.DexField) error {
	for _, f := range c.StaticFields {
		if f.Reference == ref {
			return fmt.Errorf("duplicate field %s in class %s", ref, c.Type)
		}
	}
	for _, f := range c.InstanceFields {
		if f.Reference == ref {
			return fmt.Errorf("duplicate field %s in class %s", ref, c.Type)
		}
	}
	return nil
}

func (c *Class) checkNoDuplicateMethod(ref *item.DexMethod) error {
	for _, m := range c.DirectMethods {
		if m.Reference == ref {
			return fmt.Errorf("duplicate method %s in class %s", ref, c.Type)
		}
	}
	for _, m := range c.VirtualMethods {
		if m.Reference == ref {
			return fmt.Errorf("duplicate method %s in class %s", ref, c.Type)
		}
	}
	return nil
}

// AllMethods returns direct and virtual methods in one slice, direct first.
func (c *Class) AllMethods() []*EncodedMethod {
	out := make([]*EncodedMethod, 0, len(c.DirectMethods)+len(c.VirtualMethods))
	out = append(out, c.DirectMethods...)
	out = append(out, c.VirtualMethods...)
	return out
}

// AllFields returns static and instance fields in one slice, static first.
func (c *Class) AllFields() []*EncodedField {
	out := make([]*EncodedField, 0, len(c.StaticFields)+len(c.InstanceFields))
	out = append(out, c.StaticFields...)
	out = append(out, c.InstanceFields...)
	return out
}

// FindMethod returns the method definition matching ref directly declared on
// c, or nil if c does not declare it.
func (c *Class) FindMethod(ref *item.DexMethod) *EncodedMethod {
	for _, m := range c.AllMethods() {
		if m.Reference == ref {
			return m
		}
	}
	return nil
}

// FindField returns the field definition matching ref directly declared on
// c, or nil if c does not declare it.
func (c *Class) FindField(ref *item.DexField) *EncodedField {
	for _, f := range c.AllFields() {
		if f.Reference == ref {
			return f
		}
	}
	return nil
}

// NewSyntheticClass builds the synthetic class a recognized lambda
// metafactory call site desugars to (spec.md §4.6.1): a final class
// implementing iface, with a single virtual method (methodOnClass, whose
// reference's Holder must already be classType) that forwards to callSite's
// implementation method. The caller supplies methodOnClass because
// constructing it requires the interning factory, which package ir does not
// depend on.
func NewSyntheticClass(classType, objectType, iface *item.DexType, methodOnClass *item.DexMethod, callSite *CallSite, from string) (*Class, error) {
	c, err := NewClass(classType, objectType, []*item.DexType{iface}, Public|Final|Synthetic)
	if err != nil {
		return nil, err
	}
	c.SyntheticFrom = from
	body := &Code{Instrs: []Instr{{Kind: callSite.ImplInvokeKind, Method: callSite.ImplMethod}}}
	forwarder := NewEncodedMethod(methodOnClass, Public|Synthetic, body)
	if err := c.AddVirtualMethod(forwarder); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Class) String() string { return c.Type.Descriptor() }
