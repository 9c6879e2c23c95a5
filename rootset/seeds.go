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

// Package rootset builds the Root Set: the seed reachability state derived
// from matched rules, which the Enqueuer (spec.md §4.6) starts its worklists
// from (spec.md §4.4).
package rootset

import (
	"fmt"

	"github.com/r8shrink/r8/item"
	"github.com/r8shrink/r8/rules"
)

// Ref is any interned reference a Seeds attribute set can carry:
// *item.DexType, *item.DexField, or *item.DexMethod. Interned references
// compare by pointer identity, so interface{} is a safe map key (spec.md §3
// "Interned identifiers").
type Ref interface{}

// Seeds holds every root-set output named in spec.md §4.4.
type Seeds struct {
	LiveTypes         map[*item.DexType]bool
	LiveFields        map[*item.DexField]bool
	LiveMethods       map[*item.DexMethod]bool
	InstantiatedTypes map[*item.DexType]bool

	Pinned                map[Ref]bool
	NoObfuscation         map[Ref]bool
	NoShrinking           map[Ref]bool
	NoAccessModification  map[Ref]bool
	CheckDiscard          map[Ref]bool
	AssumeNoSideEffects   map[*item.DexMethod]bool
	ReasonAsked           map[Ref]string

	// ApplyMappingPath is the filename given to an -applymapping rule, if
	// any; resolving it into a rename seed for the minifier is the
	// orchestration driver's job (it owns file I/O), not this builder's.
	ApplyMappingPath string

	// DontWarn records class-name patterns from -dontwarn rules, reproduced
	// verbatim for the diagnostics layer to suppress matching warnings.
	DontWarn []rules.ValueMatcher

	DontOptimize            bool
	DontShrink              bool
	DontObfuscate           bool
	RepackageClasses        string
	FlattenPackageHierarchy string
}

func newSeeds() *Seeds {
	return &Seeds{
		LiveTypes:            map[*item.DexType]bool{},
		LiveFields:           map[*item.DexField]bool{},
		LiveMethods:          map[*item.DexMethod]bool{},
		InstantiatedTypes:    map[*item.DexType]bool{},
		Pinned:               map[Ref]bool{},
		NoObfuscation:        map[Ref]bool{},
		NoShrinking:          map[Ref]bool{},
		NoAccessModification: map[Ref]bool{},
		CheckDiscard:         map[Ref]bool{},
		AssumeNoSideEffects:  map[*item.DexMethod]bool{},
		ReasonAsked:          map[Ref]string{},
	}
}

// addClass folds one matched class (with Class-level attribute propagation
// only — not its members) into the seed sets for directives that mark
// whole classes live/instantiated/pinned. `allowshrinking` gates whether the
// match forces the class into the root set at all: with the modifier given,
// neither LiveTypes nor NoShrinking records the class, so it is only kept by
// whatever else in the program still reaches it, exactly like an unmatched
// class. Pinned/NoObfuscation and NoAccessModification follow their own
// modifiers either way.
func (s *Seeds) addClass(m rules.Match, markInstantiated bool) {
	t := m.Class.Type
	if !m.Rule.AllowsShrinking() {
		s.LiveTypes[t] = true
		s.NoShrinking[t] = true
		if markInstantiated {
			s.InstantiatedTypes[t] = true
		}
	}
	if !m.Rule.AllowsObfuscation() {
		s.Pinned[t] = true
		s.NoObfuscation[t] = true
	}
	if !m.Rule.AllowsAccessModification() {
		s.NoAccessModification[t] = true
	}
	if reason := m.Rule.Reason(); reason != "" {
		s.ReasonAsked[t] = reason
	}
}

func (s *Seeds) addField(m rules.Match, f *item.DexField) {
	if !m.Rule.AllowsShrinking() {
		s.LiveFields[f] = true
		s.NoShrinking[f] = true
	}
	if !m.Rule.AllowsObfuscation() {
		s.Pinned[f] = true
		s.NoObfuscation[f] = true
	}
	if !m.Rule.AllowsAccessModification() {
		s.NoAccessModification[f] = true
	}
}

func (s *Seeds) addMethod(m rules.Match, meth *item.DexMethod) {
	if !m.Rule.AllowsShrinking() {
		s.LiveMethods[meth] = true
		s.NoShrinking[meth] = true
		if meth.Name.String() == "<init>" {
			s.InstantiatedTypes[meth.Holder] = true
		}
	}
	if !m.Rule.AllowsObfuscation() {
		s.Pinned[meth] = true
		s.NoObfuscation[meth] = true
	}
	if !m.Rule.AllowsAccessModification() {
		s.NoAccessModification[meth] = true
	}
}

// Build folds the matched rule set into a Seeds value, enforcing the
// monotone-pinning and atomic-keepclasseswithmembers invariants (spec.md
// §4.4 (ii), (iii)); (iii) is already established by rules.Apply, which only
// emits a Match for keepclasseswithmembers when every member selector on the
// rule is satisfied.
func Build(matched []rules.Match) (*Seeds, error) {
	s := newSeeds()
	for _, m := range matched {
		if m.Class == nil {
			if err := s.applyGlobal(m.Rule); err != nil {
				return nil, err
			}
			continue
		}
		switch m.Rule.Directive() {
		case rules.Keep, rules.KeepClassesWithMembers:
			if len(m.Rule.Members()) == 0 {
				s.addClass(m, true)
				for _, f := range m.Class.AllFields() {
					s.addField(m, f.Reference)
				}
				for _, meth := range m.Class.AllMethods() {
					s.addMethod(m, meth.Reference)
				}
				continue
			}
			s.addClass(m, true)
			for _, f := range m.Fields {
				s.addField(m, f.Reference)
			}
			for _, meth := range m.Methods {
				s.addMethod(m, meth.Reference)
			}
		case rules.KeepClassMembers:
			for _, f := range m.Fields {
				s.addField(m, f.Reference)
			}
			for _, meth := range m.Methods {
				s.addMethod(m, meth.Reference)
			}
		case rules.AssumeNoSideEffects:
			for _, meth := range m.Methods {
				s.AssumeNoSideEffects[meth.Reference] = true
			}
		case rules.AssumeValues:
			// Not recorded in Seeds; the abstract-value lattice these would
			// seed is owned by the (out-of-scope) optimizer.
		case rules.CheckDiscard:
			if len(m.Rule.Members()) == 0 {
				s.CheckDiscard[m.Class.Type] = true
				continue
			}
			for _, f := range m.Fields {
				s.CheckDiscard[f.Reference] = true
			}
			for _, meth := range m.Methods {
				s.CheckDiscard[meth.Reference] = true
			}
		case rules.WhyAreYouKeeping, rules.WhyAreYouNotInlining:
			reason := m.Rule.Directive().String()
			if len(m.Rule.Members()) == 0 {
				s.ReasonAsked[m.Class.Type] = reason
				continue
			}
			for _, f := range m.Fields {
				s.ReasonAsked[f.Reference] = reason
			}
			for _, meth := range m.Methods {
				s.ReasonAsked[meth.Reference] = reason
			}
		case rules.If:
			// Conditional rule pairing (-if / -keep) is a known
			// simplification this core does not implement; see DESIGN.md.
		}
	}
	return s, nil
}

// Pruned returns a copy of s whose per-reference attribute sets (Pinned,
// NoObfuscation, NoShrinking, NoAccessModification, CheckDiscard,
// AssumeNoSideEffects, ReasonAsked) drop every entry in removed, the
// `prunedCopyFrom` update spec.md §4.7 requires of the tree pruner's
// auxiliary maps. Whole-program fields (DontWarn, DontOptimize, ...) carry
// over unchanged since they are not keyed by reference.
func (s *Seeds) Pruned(removed map[Ref]bool) *Seeds {
	out := &Seeds{
		LiveTypes:              map[*item.DexType]bool{},
		LiveFields:             map[*item.DexField]bool{},
		LiveMethods:            map[*item.DexMethod]bool{},
		InstantiatedTypes:      map[*item.DexType]bool{},
		Pinned:                 map[Ref]bool{},
		NoObfuscation:          map[Ref]bool{},
		NoShrinking:            map[Ref]bool{},
		NoAccessModification:   map[Ref]bool{},
		CheckDiscard:           map[Ref]bool{},
		AssumeNoSideEffects:    map[*item.DexMethod]bool{},
		ReasonAsked:            map[Ref]string{},
		ApplyMappingPath:       s.ApplyMappingPath,
		DontWarn:               s.DontWarn,
		DontOptimize:           s.DontOptimize,
		DontShrink:             s.DontShrink,
		DontObfuscate:          s.DontObfuscate,
		RepackageClasses:       s.RepackageClasses,
		FlattenPackageHierarchy: s.FlattenPackageHierarchy,
	}
	for t := range s.LiveTypes {
		if !removed[t] {
			out.LiveTypes[t] = true
		}
	}
	for f := range s.LiveFields {
		if !removed[f] {
			out.LiveFields[f] = true
		}
	}
	for m := range s.LiveMethods {
		if !removed[m] {
			out.LiveMethods[m] = true
		}
	}
	for t := range s.InstantiatedTypes {
		if !removed[t] {
			out.InstantiatedTypes[t] = true
		}
	}
	for ref := range s.Pinned {
		if !removed[ref] {
			out.Pinned[ref] = true
		}
	}
	for ref := range s.NoObfuscation {
		if !removed[ref] {
			out.NoObfuscation[ref] = true
		}
	}
	for ref := range s.NoShrinking {
		if !removed[ref] {
			out.NoShrinking[ref] = true
		}
	}
	for ref := range s.NoAccessModification {
		if !removed[ref] {
			out.NoAccessModification[ref] = true
		}
	}
	for ref := range s.CheckDiscard {
		if !removed[ref] {
			out.CheckDiscard[ref] = true
		}
	}
	for m := range s.AssumeNoSideEffects {
		if !removed[m] {
			out.AssumeNoSideEffects[m] = true
		}
	}
	for ref, reason := range s.ReasonAsked {
		if !removed[ref] {
			out.ReasonAsked[ref] = reason
		}
	}
	return out
}

func (s *Seeds) applyGlobal(r *rules.Rule) error {
	switch r.Directive() {
	case rules.DontWarn:
		// The parser stores the pattern on the rule's class matcher.
		s.DontWarn = append(s.DontWarn, r.ClassNameMatcher())
	case rules.ApplyMapping:
		s.ApplyMappingPath = r.ApplyMappingFile()
	case rules.PrintMapping, rules.PrintUsage, rules.PrintSeeds:
		// These name output destinations for the report package; surfaced
		// to the orchestration driver through the rule itself, not Seeds.
	case rules.RepackageClasses:
		s.RepackageClasses = r.ApplyMappingFile()
	case rules.FlattenPackageHierarchy:
		s.FlattenPackageHierarchy = r.ApplyMappingFile()
	case rules.DontOptimize:
		s.DontOptimize = true
	case rules.DontShrink:
		s.DontShrink = true
	case rules.DontObfuscate:
		s.DontObfuscate = true
	default:
		return fmt.Errorf("rootset: unexpected global directive %v", r.Directive())
	}
	return nil
}
