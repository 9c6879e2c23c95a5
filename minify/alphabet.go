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

package minify

// alphabet generates the ordered short-identifier sequence spec.md §4.9
// names: "a", "b", ..., "z", "aa", "ab", ..., skipping any name the caller
// has reserved. There is no ready-made base-26 bijective-numeral generator
// in the example pack to reuse, so this is built directly over the standard
// library, as DESIGN.md records.
type alphabet struct {
	next     int
	reserved map[string]bool
}

func newAlphabet(reserved map[string]bool) *alphabet {
	if reserved == nil {
		reserved = map[string]bool{}
	}
	return &alphabet{reserved: reserved}
}

const letters = "abcdefghijklmnopqrstuvwxyz"

// nameForIndex renders i (0-based) as a bijective base-26 numeral: 0->"a",
// 25->"z", 26->"aa", 27->"ab", and so on.
func nameForIndex(i int) string {
	i++ // switch to 1-based bijective numeration
	var buf []byte
	for i > 0 {
		i--
		buf = append([]byte{letters[i%26]}, buf...)
		i /= 26
	}
	return string(buf)
}

// Next returns the next identifier not in the reserved set.
func (a *alphabet) Next() string {
	for {
		name := nameForIndex(a.next)
		a.next++
		if !a.reserved[name] {
			return name
		}
	}
}
