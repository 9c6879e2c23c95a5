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
)

// FileReader abstracts reading an @file's contents so ExpandArgFiles does not
// depend on the filesystem directly, matching the way the teacher's
// androidmk/make_strings.go callers inject file access for testability.
type FileReader func(path string) (string, error)

// ExpandArgFiles rewrites every "@path" token in src by substituting path's
// contents read through read, recursively, guarding against self-referential
// @file cycles. This mirrors ProGuard's "@file" rule-file inclusion directive
// (SPEC_FULL.md §4.3).
func ExpandArgFiles(src string, read FileReader) (string, error) {
	return expandArgFiles(src, read, map[string]bool{})
}

func expandArgFiles(src string, read FileReader, active map[string]bool) (string, error) {
	var out strings.Builder
	fields := splitPreservingQuotes(src)
	for i, f := range fields {
		if i > 0 {
			out.WriteByte(' ')
		}
		if strings.HasPrefix(f, "@") {
			path := f[1:]
			if active[path] {
				return "", fmt.Errorf("rules: @file cycle detected at %q", path)
			}
			contents, err := read(path)
			if err != nil {
				return "", fmt.Errorf("rules: reading %q: %w", path, err)
			}
			active[path] = true
			expanded, err := expandArgFiles(contents, read, active)
			delete(active, path)
			if err != nil {
				return "", err
			}
			out.WriteString(expanded)
		} else {
			out.WriteString(f)
		}
	}
	return out.String(), nil
}

// splitPreservingQuotes splits on whitespace but keeps single- or
// double-quoted spans intact, since class name patterns may legally contain
// none of the rule grammar's reserved characters but reference files whose
// paths have spaces.
func splitPreservingQuotes(s string) []string {
	var out []string
	var cur strings.Builder
	inQuote := byte(0)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote != 0:
			if c == inQuote {
				inQuote = 0
			} else {
				cur.WriteByte(c)
			}
		case c == '\'' || c == '"':
			inQuote = c
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return out
}
