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
	"strings"

	"github.com/r8shrink/r8/ir"
)

var directiveNames = map[string]Directive{
	"keep":                    Keep,
	"keepclassmembers":        KeepClassMembers,
	"keepclasseswithmembers":  KeepClassesWithMembers,
	"assumenosideeffects":     AssumeNoSideEffects,
	"assumevalues":            AssumeValues,
	"if":                      If,
	"checkdiscard":            CheckDiscard,
	"whyareyoukeeping":        WhyAreYouKeeping,
	"whyareyounotinlining":    WhyAreYouNotInlining,
	"printmapping":            PrintMapping,
	"printusage":              PrintUsage,
	"printseeds":              PrintSeeds,
	"repackageclasses":        RepackageClasses,
	"flattenpackagehierarchy": FlattenPackageHierarchy,
	"dontoptimize":            DontOptimize,
	"dontshrink":              DontShrink,
	"dontobfuscate":           DontObfuscate,
	"applymapping":            ApplyMapping,
	"dontwarn":                DontWarn,
}

// classBodiedDirectives take a class spec and optional member block.
var classBodiedDirectives = map[Directive]bool{
	Keep: true, KeepClassMembers: true, KeepClassesWithMembers: true,
	AssumeNoSideEffects: true, AssumeValues: true, CheckDiscard: true,
	WhyAreYouKeeping: true, WhyAreYouNotInlining: true, If: true,
}

var classModifierFlags = map[string]ir.AccessFlags{
	"public": ir.Public, "private": ir.Private, "protected": ir.Protected,
	"static": ir.Static, "final": ir.Final, "abstract": ir.Abstract,
	"synthetic": ir.Synthetic, "enum": ir.Enum,
}

var memberModifierFlags = map[string]ir.AccessFlags{
	"public": ir.Public, "private": ir.Private, "protected": ir.Protected,
	"static": ir.Static, "final": ir.Final, "abstract": ir.Abstract,
	"synchronized": ir.Synchronized, "native": ir.Native,
	"synthetic": ir.Synthetic, "strictfp": ir.Strict,
}

// memberIgnoredModifiers are grammar keywords this core has no access-flag
// bit for (the Dex access-flag model has no volatile/transient bit); they
// are accepted and discarded rather than rejected.
var memberIgnoredModifiers = map[string]bool{"volatile": true, "transient": true}

// tokenize splits rule-file source into the grammar's lexical tokens:
// identifiers/patterns (which may contain '.', '*', '?', '<', '>', '[', ']',
// '-', '@'), and the standalone punctuation characters "{};(),".
// Lines starting with '#' (after leading whitespace) are comments.
func tokenize(src string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	lines := strings.Split(src, "\n")
	for _, line := range lines {
		if t := strings.TrimSpace(line); strings.HasPrefix(t, "#") {
			continue
		}
		for i := 0; i < len(line); i++ {
			c := line[i]
			switch {
			case c == ' ' || c == '\t' || c == '\r':
				flush()
			case strings.ContainsRune("{};(),", rune(c)):
				flush()
				tokens = append(tokens, string(c))
			default:
				cur.WriteByte(c)
			}
		}
		flush()
	}
	return tokens
}

// Parser is a small recursive-descent reader over a rule file's token
// stream, grounded on the teacher's general hand-rolled scanner idiom
// (there is no ready-made ProGuard-grammar parser in the example pack to
// reuse, so this is built directly over the stdlib per DESIGN.md).
type Parser struct {
	tokens []string
	pos    int
}

func NewParser(src string) *Parser { return &Parser{tokens: tokenize(src)} }

func (p *Parser) peek() string {
	if p.pos >= len(p.tokens) {
		return ""
	}
	return p.tokens[p.pos]
}

func (p *Parser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *Parser) atEnd() bool { return p.pos >= len(p.tokens) }

// ParseRules parses every rule statement in src and returns the resulting
// Rule set in source order.
func ParseRules(src string) ([]*Rule, error) {
	p := NewParser(src)
	var out []*Rule
	for !p.atEnd() {
		r, err := p.parseRule()
		if err != nil {
			return nil, err
		}
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func directiveFromToken(tok string) (Directive, bool) {
	d, ok := directiveNames[strings.ToLower(strings.TrimPrefix(tok, "-"))]
	return d, ok
}

func patternMatcher(pattern string) ValueMatcher {
	if strings.ContainsAny(pattern, "*?") {
		return Glob(pattern)
	}
	return Equal(pattern)
}

func (p *Parser) parseRule() (*Rule, error) {
	tok := p.next()
	d, ok := directiveFromToken(tok)
	if !ok {
		return nil, fmt.Errorf("rules: unrecognized directive %q", tok)
	}
	r := NewRule(d)
	for p.peek() == "," {
		p.next()
		mod := strings.ToLower(p.next())
		switch mod {
		case "allowobfuscation":
			r.AllowObfuscation()
		case "allowshrinking":
			r.AllowShrinking()
		case "allowaccessmodification":
			r.AllowAccessModification()
		default:
			return nil, fmt.Errorf("rules: unrecognized modifier %q on %s", mod, tok)
		}
	}

	if !classBodiedDirectives[d] {
		return p.parseFileDirectiveArg(r)
	}
	if err := p.parseClassSpec(r); err != nil {
		return nil, err
	}
	if p.peek() == "{" {
		p.next()
		for p.peek() != "}" {
			if p.peek() == ";" {
				p.next()
				continue
			}
			if p.atEnd() {
				return nil, fmt.Errorf("rules: unterminated member block in %s", tok)
			}
			sel, err := p.parseMember()
			if err != nil {
				return nil, err
			}
			r.Member(sel)
		}
		p.next() // consume "}"
	}
	return r, nil
}

// parseFileDirectiveArg handles directives whose argument is a bare filename
// or a single class-name pattern (dontwarn), rather than a full class spec.
func (p *Parser) parseFileDirectiveArg(r *Rule) (*Rule, error) {
	if p.atEnd() || isDirectiveToken(p.peek()) {
		return r, nil
	}
	arg := p.next()
	switch r.Directive() {
	case DontWarn:
		r.Class(patternMatcher(arg))
	default:
		r.WithApplyMappingFile(arg)
	}
	return r, nil
}

func isDirectiveToken(tok string) bool {
	_, ok := directiveFromToken(tok)
	return ok
}

func (p *Parser) parseClassSpec(r *Rule) error {
	deny := false
	for {
		tok := p.peek()
		switch {
		case tok == "":
			return fmt.Errorf("rules: unexpected end of input in class spec")
		case tok == "!":
			p.next()
			deny = true
			continue
		case strings.HasPrefix(tok, "@"):
			p.next()
			r.AnnotatedBy(patternMatcher(tok[1:]))
			deny = false
			continue
		case tok == "class" || tok == "interface" || tok == "enum":
			p.next()
			if tok == "interface" {
				if deny {
					r.accessDeny |= ir.Interface
				} else {
					r.accessRequire |= ir.Interface
				}
			}
			goto className
		default:
			if flag, ok := classModifierFlags[strings.ToLower(tok)]; ok {
				p.next()
				if deny {
					r.accessDeny |= flag
				} else {
					r.accessRequire |= flag
				}
				deny = false
				continue
			}
			return fmt.Errorf("rules: unexpected token %q in class spec", tok)
		}
	}
className:
	name := p.next()
	r.Class(patternMatcher(name))
	if p.peek() == "extends" || p.peek() == "implements" {
		p.next()
		r.Extends(patternMatcher(p.next()))
	}
	return nil
}

func (p *Parser) parseMember() (MemberSelector, error) {
	var sel MemberSelector
	deny := false
	for {
		tok := p.peek()
		if tok == "!" {
			p.next()
			deny = true
			continue
		}
		if flag, ok := memberModifierFlags[strings.ToLower(tok)]; ok {
			p.next()
			if deny {
				sel.AccessDeny |= flag
			} else {
				sel.AccessRequire |= flag
			}
			deny = false
			continue
		}
		if memberIgnoredModifiers[strings.ToLower(tok)] {
			p.next()
			deny = false
			continue
		}
		break
	}

	switch p.peek() {
	case "<fields>":
		p.next()
		sel.Wildcard = true
		sel.IsMethod = false
		return sel, p.consumeMemberTerminator()
	case "<methods>":
		p.next()
		sel.Wildcard = true
		sel.IsMethod = true
		return sel, p.consumeMemberTerminator()
	case "<init>":
		p.next()
		sel.IsMethod = true
		sel.NameMatcher = Equal("<init>")
		sel.TypeMatcher = Equal("void")
		if err := p.parseParamList(&sel); err != nil {
			return sel, err
		}
		return sel, p.consumeMemberTerminator()
	}

	if p.atEnd() {
		return sel, fmt.Errorf("rules: unexpected end of input in member spec")
	}
	typeTok := p.next()
	sel.TypeMatcher = patternMatcher(typeTok)
	nameTok := p.next()
	sel.NameMatcher = patternMatcher(nameTok)

	if p.peek() == "(" {
		sel.IsMethod = true
		if err := p.parseParamList(&sel); err != nil {
			return sel, err
		}
	}
	return sel, p.consumeMemberTerminator()
}

func (p *Parser) parseParamList(sel *MemberSelector) error {
	if p.next() != "(" {
		return fmt.Errorf("rules: expected '(' starting parameter list")
	}
	if p.peek() == ")" {
		p.next()
		return nil
	}
	if p.peek() == "..." {
		p.next()
		sel.AnyParams = true
		if p.next() != ")" {
			return fmt.Errorf("rules: expected ')' after '...'")
		}
		return nil
	}
	for {
		tok := p.next()
		if tok == "" {
			return fmt.Errorf("rules: unterminated parameter list")
		}
		sel.Params = append(sel.Params, patternMatcher(tok))
		switch p.next() {
		case ",":
			continue
		case ")":
			return nil
		default:
			return fmt.Errorf("rules: expected ',' or ')' in parameter list")
		}
	}
}

func (p *Parser) consumeMemberTerminator() error {
	if p.peek() == ";" {
		p.next()
	}
	return nil
}
