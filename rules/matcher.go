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

// Package rules implements the keep/shaking rule grammar and its matching
// against the definition set (spec.md §4.3). The matcher shape (a small
// family of ValueMatcher implementations tested against a string) is
// grounded directly on the teacher's android/neverallow.go "neverallow"
// rule engine, generalized from Android.bp property values to classfile
// names, descriptors, and access flags.
package rules

import (
	"regexp"
	"strings"
)

// ValueMatcher tests one string value, exactly as neverallow.go's
// ValueMatcher does for Android.bp property values.
type ValueMatcher interface {
	Test(value string) bool
	String() string
}

type anyMatcher struct{}

func (anyMatcher) Test(string) bool { return true }
func (anyMatcher) String() string   { return "*" }

var Any ValueMatcher = anyMatcher{}

type equalMatcher struct{ expected string }

func (m equalMatcher) Test(value string) bool { return value == m.expected }
func (m equalMatcher) String() string         { return m.expected }

func Equal(expected string) ValueMatcher { return equalMatcher{expected} }

type startsWithMatcher struct{ prefix string }

func (m startsWithMatcher) Test(value string) bool { return strings.HasPrefix(value, m.prefix) }
func (m startsWithMatcher) String() string         { return m.prefix + "*" }

func StartsWith(prefix string) ValueMatcher { return startsWithMatcher{prefix} }

type regexMatcher struct {
	re  *regexp.Regexp
	src string
}

func (m regexMatcher) Test(value string) bool { return m.re.MatchString(value) }
func (m regexMatcher) String() string         { return m.src }

// Regexp compiles re (already anchored by the caller if needed) into a
// ValueMatcher. Panics if re does not compile, matching neverallow.go's
// Regexp helper (rule definitions are static, compiled at package init).
func Regexp(re string) ValueMatcher {
	compiled, err := regexp.Compile(re)
	if err != nil {
		panic(err)
	}
	return regexMatcher{re: compiled, src: re}
}

type notInListMatcher struct{ allowed []string }

func (m notInListMatcher) Test(value string) bool {
	for _, a := range m.allowed {
		if a == value {
			return false
		}
	}
	return true
}
func (m notInListMatcher) String() string { return "not in " + strings.Join(m.allowed, ",") }

func NotInList(allowed []string) ValueMatcher { return notInListMatcher{allowed} }

// Glob compiles a ProGuard-style class-name/descriptor glob into a
// ValueMatcher: "?" matches one non-separator character, "*" matches any
// run of characters excluding '.', "**" matches any run of characters
// including '.'. Patterns are matched against the Java-style dotted class
// name (e.g. "com.foo.Bar"), not the "L...;" descriptor form.
func Glob(pattern string) ValueMatcher {
	return Regexp("^" + globToRegexp(pattern) + "$")
}

func globToRegexp(pattern string) string {
	var b strings.Builder
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				b.WriteString(".*")
				i++
			} else {
				b.WriteString("[^.]*")
			}
		case '?':
			b.WriteString("[^.]")
		case '.', '$', '(', ')', '+', '|', '^', '[', ']', '{', '}', '\\':
			b.WriteByte('\\')
			b.WriteRune(runes[i])
		default:
			b.WriteRune(runes[i])
		}
	}
	return b.String()
}
