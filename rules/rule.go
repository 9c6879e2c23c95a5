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

package rules

import (
	"fmt"

	"github.com/r8shrink/r8/hierarchy"
	"github.com/r8shrink/r8/ir"
)

// Directive is the closed set of rule kinds spec.md §4.3 and SPEC_FULL.md
// §4.3 name. Each maps to exactly one clause of the grammar.
type Directive int

const (
	Keep Directive = iota
	KeepClassMembers
	KeepClassesWithMembers
	AssumeNoSideEffects
	AssumeValues
	If
	CheckDiscard
	WhyAreYouKeeping
	WhyAreYouNotInlining
	PrintMapping
	PrintUsage
	PrintSeeds
	RepackageClasses
	FlattenPackageHierarchy
	DontOptimize
	DontShrink
	DontObfuscate
	ApplyMapping
	DontWarn
)

func (d Directive) String() string {
	switch d {
	case Keep:
		return "keep"
	case KeepClassMembers:
		return "keepclassmembers"
	case KeepClassesWithMembers:
		return "keepclasseswithmembers"
	case AssumeNoSideEffects:
		return "assumenosideeffects"
	case AssumeValues:
		return "assumevalues"
	case If:
		return "if"
	case CheckDiscard:
		return "checkdiscard"
	case WhyAreYouKeeping:
		return "whyareyoukeeping"
	case WhyAreYouNotInlining:
		return "whyareyounotinlining"
	case PrintMapping:
		return "printmapping"
	case PrintUsage:
		return "printusage"
	case PrintSeeds:
		return "printseeds"
	case RepackageClasses:
		return "repackageclasses"
	case FlattenPackageHierarchy:
		return "flattenpackagehierarchy"
	case DontOptimize:
		return "dontoptimize"
	case DontShrink:
		return "dontshrink"
	case DontObfuscate:
		return "dontobfuscate"
	case ApplyMapping:
		return "applymapping"
	case DontWarn:
		return "dontwarn"
	default:
		return fmt.Sprintf("Directive(%d)", int(d))
	}
}

// MemberSelector matches one field or method member clause within a class
// rule, such as "<methods>;" or "void onCreate(android.os.Bundle);".
type MemberSelector struct {
	IsMethod bool

	// NameMatcher tests the member's simple name. Wildcard is set for the
	// ProGuard catch-alls "<fields>" and "<methods>", which match every
	// member of the respective kind irrespective of name or type.
	NameMatcher ValueMatcher
	Wildcard    bool

	// TypeMatcher tests the field's type (fields) or the method's return
	// type (methods), in dotted Java-source form (see DescriptorToJavaName).
	TypeMatcher ValueMatcher

	// Params is nil for fields and for the "(...)" any-arity method
	// wildcard; otherwise each entry is matched, in order, against the
	// corresponding parameter type in dotted Java-source form.
	Params    []ValueMatcher
	AnyParams bool

	AccessRequire ir.AccessFlags
	AccessDeny    ir.AccessFlags
}

// matchesField reports whether f satisfies this selector.
func (s MemberSelector) matchesField(f *ir.EncodedField) bool {
	if s.IsMethod {
		return false
	}
	if !s.Wildcard {
		if !s.NameMatcher.Test(f.Reference.Name.String()) {
			return false
		}
		if s.TypeMatcher != nil && !s.TypeMatcher.Test(DescriptorToJavaName(f.Reference.Type.String())) {
			return false
		}
	}
	return matchesAccess(f.Flags, s.AccessRequire, s.AccessDeny)
}

// matchesMethod reports whether m satisfies this selector.
func (s MemberSelector) matchesMethod(m *ir.EncodedMethod) bool {
	if !s.IsMethod {
		return false
	}
	if !s.Wildcard {
		if !s.NameMatcher.Test(m.Reference.Name.String()) {
			return false
		}
		if s.TypeMatcher != nil && !s.TypeMatcher.Test(DescriptorToJavaName(m.Reference.Proto.ReturnType.String())) {
			return false
		}
		if !s.AnyParams {
			params := m.Reference.Proto.Params
			if len(params) != len(s.Params) {
				return false
			}
			for i, p := range s.Params {
				if !p.Test(DescriptorToJavaName(params[i].String())) {
					return false
				}
			}
		}
	}
	return matchesAccess(m.Flags, s.AccessRequire, s.AccessDeny)
}

func matchesAccess(flags, require, deny ir.AccessFlags) bool {
	if require != 0 && flags&require != require {
		return false
	}
	if deny != 0 && flags&deny != 0 {
		return false
	}
	return true
}

// Rule is a single fluent rule: a class selector plus modifiers, built up
// with the chained setter methods below and finally tested with Matches.
// This builder shape is grounded directly on the teacher's neverallow.go
// Rule/ruleImpl pattern, generalized from Android.bp modules to dex classes.
type Rule struct {
	directive Directive

	classNameMatcher ValueMatcher
	extendsMatcher   ValueMatcher
	annotatedBy      []ValueMatcher
	accessRequire    ir.AccessFlags
	accessDeny       ir.AccessFlags

	members []MemberSelector

	allowObfuscation      bool
	allowShrinking        bool
	allowAccessModification bool

	applyMappingFile string
	reason           string
	origin           string
}

// NewRule starts a fluent rule for the given directive, matching every class
// until narrowed by Class/Extends/AnnotatedBy.
func NewRule(d Directive) *Rule {
	return &Rule{directive: d, classNameMatcher: Any}
}

func (r *Rule) Directive() Directive { return r.directive }

// Class restricts the rule to classes whose name matches m.
func (r *Rule) Class(m ValueMatcher) *Rule {
	r.classNameMatcher = m
	return r
}

// Extends restricts the rule to classes that are a subtype of the type
// matching m (checked against the hierarchy.Index at Matches time).
func (r *Rule) Extends(m ValueMatcher) *Rule {
	r.extendsMatcher = m
	return r
}

// AnnotatedBy adds a required annotation-type matcher; a class must carry a
// matching annotation for every entry added.
func (r *Rule) AnnotatedBy(m ValueMatcher) *Rule {
	r.annotatedBy = append(r.annotatedBy, m)
	return r
}

// WithAccess requires every bit in require to be set and every bit in deny
// to be clear on the class's access flags.
func (r *Rule) WithAccess(require, deny ir.AccessFlags) *Rule {
	r.accessRequire = require
	r.accessDeny = deny
	return r
}

// Member adds a member selector. keepclasseswithmembers rules are only
// satisfied by a class that has a match for every Member added (spec.md
// §4.4's "atomic" requirement); keep/keepclassmembers rules keep each
// matched member independently.
func (r *Rule) Member(s MemberSelector) *Rule {
	r.members = append(r.members, s)
	return r
}

func (r *Rule) AllowObfuscation() *Rule { r.allowObfuscation = true; return r }
func (r *Rule) AllowShrinking() *Rule   { r.allowShrinking = true; return r }
func (r *Rule) AllowAccessModification() *Rule {
	r.allowAccessModification = true
	return r
}

// Because attaches a human-readable reason, surfaced by whyareyoukeeping
// style diagnostics and by Rule.String().
func (r *Rule) Because(reason string) *Rule {
	r.reason = reason
	return r
}

// WithApplyMappingFile records the mapping file path for an ApplyMapping rule.
func (r *Rule) WithApplyMappingFile(path string) *Rule {
	r.applyMappingFile = path
	return r
}

func (r *Rule) ApplyMappingFile() string { return r.applyMappingFile }
func (r *Rule) Reason() string           { return r.reason }
func (r *Rule) AllowsObfuscation() bool  { return r.allowObfuscation }
func (r *Rule) AllowsShrinking() bool    { return r.allowShrinking }
func (r *Rule) AllowsAccessModification() bool {
	return r.allowAccessModification
}
func (r *Rule) Members() []MemberSelector { return r.members }

// ClassNameMatcher exposes the rule's class-name pattern, used by global
// directives (e.g. -dontwarn) whose only selector is a bare name pattern.
func (r *Rule) ClassNameMatcher() ValueMatcher { return r.classNameMatcher }

// MatchesClass reports whether c, in the context of idx, satisfies this
// rule's class-level selectors (name, supertype, annotations, access),
// ignoring member selectors.
func (r *Rule) MatchesClass(c *ir.Class, idx *hierarchy.Index) bool {
	if !r.classNameMatcher.Test(DescriptorToJavaName(c.Type.String())) {
		return false
	}
	if r.extendsMatcher != nil {
		matched := false
		for _, sup := range idx.Supertypes(c.Type) {
			if r.extendsMatcher.Test(DescriptorToJavaName(sup.String())) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, am := range r.annotatedBy {
		found := false
		for _, a := range c.Annotations {
			if am.Test(DescriptorToJavaName(a.Type.String())) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return matchesAccess(c.Flags, r.accessRequire, r.accessDeny)
}

// Matches reports whether this rule fires for c as a whole. For
// KeepClassesWithMembers it enforces the atomic invariant: the class matches
// only if every member selector has at least one satisfying member.
// Other directives with member selectors (keep, keepclassmembers) use
// MatchingMembers to keep individual members instead of gating the class.
func (r *Rule) Matches(c *ir.Class, idx *hierarchy.Index) bool {
	if !r.MatchesClass(c, idx) {
		return false
	}
	if r.directive == KeepClassesWithMembers {
		for _, sel := range r.members {
			if !hasMatchingMember(c, sel) {
				return false
			}
		}
	}
	return true
}

// MatchingMembers returns every field and method of c that satisfies at
// least one of this rule's member selectors. An empty Members list (a
// class-only keep rule) matches nothing.
func (r *Rule) MatchingMembers(c *ir.Class) (fields []*ir.EncodedField, methods []*ir.EncodedMethod) {
	for _, sel := range r.members {
		for _, f := range c.AllFields() {
			if sel.matchesField(f) {
				fields = append(fields, f)
			}
		}
		for _, m := range c.AllMethods() {
			if sel.matchesMethod(m) {
				methods = append(methods, m)
			}
		}
	}
	return fields, methods
}

func hasMatchingMember(c *ir.Class, sel MemberSelector) bool {
	if sel.IsMethod {
		for _, m := range c.AllMethods() {
			if sel.matchesMethod(m) {
				return true
			}
		}
		return false
	}
	for _, f := range c.AllFields() {
		if sel.matchesField(f) {
			return true
		}
	}
	return false
}

func (r *Rule) String() string {
	s := r.directive.String() + " " + r.classNameMatcher.String()
	if r.reason != "" {
		s += " # " + r.reason
	}
	return s
}
