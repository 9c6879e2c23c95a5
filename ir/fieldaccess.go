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

import "github.com/r8shrink/r8/item"

// Context identifies the method a use was traced from, for accessibility and
// package checks (spec.md §4.5 "the current context (holder class + method),
// which drives accessibility and package checks").
type Context struct {
	Holder *item.DexType
	Method *item.DexMethod
}

// FieldAccessInfo is the per-live-field record of every method context that
// reads or writes it, plus flags for how it was accessed (spec.md §4.2
// "Field access info"). Reading/writing contexts are kept as sets (by
// DexMethod identity) since the same context may read or write a field
// through more than one instruction.
type FieldAccessInfo struct {
	Reads  map[*item.DexMethod]Context
	Writes map[*item.DexMethod]Context

	ReflectiveAccess   bool
	MethodHandleRead   bool
	MethodHandleWrite  bool
	ReadFromAnnotation bool
}

func NewFieldAccessInfo() *FieldAccessInfo {
	return &FieldAccessInfo{Reads: map[*item.DexMethod]Context{}, Writes: map[*item.DexMethod]Context{}}
}

func (a *FieldAccessInfo) RecordRead(ctx Context) {
	a.Reads[ctx.Method] = ctx
}

func (a *FieldAccessInfo) RecordWrite(ctx Context) {
	a.Writes[ctx.Method] = ctx
}

// Merge folds other's contexts and flags into a, OR-ing all boolean flags.
// Used by lens.MemberRebinder to flatten a rebind source's access info into
// its target (SPEC_FULL.md §9, resolving spec.md §9's reflective-access
// open question).
func (a *FieldAccessInfo) Merge(other *FieldAccessInfo) {
	if other == nil {
		return
	}
	for k, v := range other.Reads {
		a.Reads[k] = v
	}
	for k, v := range other.Writes {
		a.Writes[k] = v
	}
	a.ReflectiveAccess = a.ReflectiveAccess || other.ReflectiveAccess
	a.MethodHandleRead = a.MethodHandleRead || other.MethodHandleRead
	a.MethodHandleWrite = a.MethodHandleWrite || other.MethodHandleWrite
	a.ReadFromAnnotation = a.ReadFromAnnotation || other.ReadFromAnnotation
}
