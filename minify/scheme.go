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

import (
	"github.com/r8shrink/r8/config"
	"github.com/r8shrink/r8/item"
)

// ClassNameScheme assigns the renamed package+simple-name a class lands in,
// per spec.md §4.9's "class-name scheme" (per-package / flattened / fully
// repackaged), driven directly by config.RepackagePolicy (§6's
// repackagePolicy option).
type ClassNameScheme struct {
	policy config.RepackagePolicy
}

func NewClassNameScheme(policy config.RepackagePolicy) ClassNameScheme {
	return ClassNameScheme{policy: policy}
}

// PackageFor returns the renamed package a class in originalPackage lands
// in: unchanged under RepackageNone (per-package scheme, locally-unique
// names), or the policy's single target package under Flatten/All (every
// renamed class sharing one flat namespace).
func (s ClassNameScheme) PackageFor(originalPackage string) string {
	switch s.policy.Kind {
	case config.RepackageFlatten, config.RepackageAll:
		return s.policy.Into
	default:
		return originalPackage
	}
}

// NamespaceKey groups the classes that must draw their simple names from one
// shared alphabet: the target package under Flatten/All, the original
// package under per-package scheme.
func (s ClassNameScheme) NamespaceKey(t *item.DexType) string {
	return s.PackageFor(t.PackageName())
}
