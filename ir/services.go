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
	"bufio"
	"fmt"
	"strings"

	"github.com/r8shrink/r8/item"
)

// Services is the service-interface -> ordered implementation-type mapping,
// split by feature (spec.md §3 "Services"). It is read once at start-up from
// data entries under the conventional services/ directory (spec.md §6).
type Services struct {
	// byInterface maps a service interface type to its implementations, per
	// feature split name ("" is the base module).
	byInterface map[*item.DexType]map[string][]*item.DexType
}

func NewServices() *Services {
	return &Services{byInterface: map[*item.DexType]map[string][]*item.DexType{}}
}

// Add registers impl as an implementation of iface in the given feature
// split ("" for the base module), preserving insertion order.
func (s *Services) Add(iface *item.DexType, featureSplit string, impl *item.DexType) {
	byFeature, ok := s.byInterface[iface]
	if !ok {
		byFeature = map[string][]*item.DexType{}
		s.byInterface[iface] = byFeature
	}
	for _, existing := range byFeature[featureSplit] {
		if existing == impl {
			return
		}
	}
	byFeature[featureSplit] = append(byFeature[featureSplit], impl)
}

// Implementations returns, in registration order, every implementation type
// registered for iface across every feature split whose name is in
// visibleSplits (pass nil to mean "every split").
func (s *Services) Implementations(iface *item.DexType, visibleSplits []string) []*item.DexType {
	byFeature, ok := s.byInterface[iface]
	if !ok {
		return nil
	}
	if visibleSplits == nil {
		var out []*item.DexType
		for _, split := range sortedKeys(byFeature) {
			out = append(out, byFeature[split]...)
		}
		return out
	}
	var out []*item.DexType
	for _, split := range visibleSplits {
		out = append(out, byFeature[split]...)
	}
	return out
}

// Pruned returns a copy of s retaining only entries whose service interface
// and implementation types are both still live, the `prunedCopyFrom`
// auxiliary-map update spec.md §4.7 requires of the tree pruner.
func (s *Services) Pruned(liveTypes map[*item.DexType]bool) *Services {
	out := NewServices()
	for iface, byFeature := range s.byInterface {
		if !liveTypes[iface] {
			continue
		}
		for split, impls := range byFeature {
			for _, impl := range impls {
				if liveTypes[impl] {
					out.Add(iface, split, impl)
				}
			}
		}
	}
	return out
}

func sortedKeys(m map[string][]*item.DexType) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Deterministic output (spec.md §5): base split ("") first, then
	// lexicographic.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && less(keys[j], keys[j-1]); j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

func less(a, b string) bool {
	if a == "" {
		return b != ""
	}
	if b == "" {
		return false
	}
	return a < b
}

// ParseServiceEntry decodes one services/<interface> data entry: UTF-8 text,
// lines trimmed, '#' starts a comment, blank lines ignored, remaining lines
// validated as fully-qualified class names (spec.md §6). It returns the
// ordered list of implementation binary class names found.
func ParseServiceEntry(contents string) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(strings.NewReader(contents))
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !isFullyQualifiedClassName(line) {
			return nil, fmt.Errorf("invalid fully-qualified class name in services entry: %q", line)
		}
		names = append(names, line)
	}
	return names, scanner.Err()
}

func isFullyQualifiedClassName(name string) bool {
	if name == "" {
		return false
	}
	for _, part := range strings.Split(name, ".") {
		if part == "" {
			return false
		}
		for i, r := range part {
			isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' || r == '$'
			isDigit := r >= '0' && r <= '9'
			if i == 0 && !isLetter {
				return false
			}
			if i > 0 && !isLetter && !isDigit {
				return false
			}
		}
	}
	return true
}
