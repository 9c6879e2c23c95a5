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

// Package enqueue implements the Enqueuer: the worklist fixed-point
// computation over the Root Set that decides what stays in the program
// (spec.md §4.6).
package enqueue

import (
	"github.com/r8shrink/r8/ir"
	"github.com/r8shrink/r8/item"
	"github.com/r8shrink/r8/rootset"
)

// Liveness is the Enqueuer's stable-map state (spec.md §4.6 "Stable maps"),
// returned once the worklists have drained to a fixed point.
type Liveness struct {
	LiveTypes         map[*item.DexType]bool
	LiveMethods       map[*item.DexMethod]bool
	InstantiatedTypes map[*item.DexType]bool

	FieldAccessInfo map[*item.DexField]*ir.FieldAccessInfo

	// VirtualTargets is the set of method references recorded as the
	// resolved target of some invoke-virtual/invoke-interface call site,
	// independent of which concrete methods that call site has been found
	// to dispatch to so far (spec.md §4.6 "Record the resolution so that
	// future instantiations can complete the dispatch retroactively").
	VirtualTargets map[*item.DexMethod]bool

	// CallSiteTargets records, for each invoke-dynamic call site resolved
	// as a recognized lambda metafactory, the synthesized class type
	// standing in for it.
	CallSiteTargets map[*ir.CallSite]*item.DexType

	Reasons map[rootset.Ref]string

	Pinned               map[rootset.Ref]bool
	NoObfuscation        map[rootset.Ref]bool
	NoShrinking          map[rootset.Ref]bool
	NoAccessModification map[rootset.Ref]bool
	CheckDiscard         map[rootset.Ref]bool
	AssumeNoSideEffects  map[*item.DexMethod]bool
}

func newLiveness() *Liveness {
	return &Liveness{
		LiveTypes:            map[*item.DexType]bool{},
		LiveMethods:          map[*item.DexMethod]bool{},
		InstantiatedTypes:    map[*item.DexType]bool{},
		FieldAccessInfo:      map[*item.DexField]*ir.FieldAccessInfo{},
		VirtualTargets:       map[*item.DexMethod]bool{},
		CallSiteTargets:      map[*ir.CallSite]*item.DexType{},
		Reasons:              map[rootset.Ref]string{},
		Pinned:               map[rootset.Ref]bool{},
		NoObfuscation:        map[rootset.Ref]bool{},
		NoShrinking:          map[rootset.Ref]bool{},
		NoAccessModification: map[rootset.Ref]bool{},
		CheckDiscard:         map[rootset.Ref]bool{},
		AssumeNoSideEffects:  map[*item.DexMethod]bool{},
	}
}

// LiveFields reports every field reference that has recorded access info
// (read or written at least once while live).
func (l *Liveness) LiveFields() map[*item.DexField]bool {
	out := make(map[*item.DexField]bool, len(l.FieldAccessInfo))
	for f := range l.FieldAccessInfo {
		out[f] = true
	}
	return out
}

func (l *Liveness) fieldAccessInfo(f *item.DexField) *ir.FieldAccessInfo {
	info, ok := l.FieldAccessInfo[f]
	if !ok {
		info = ir.NewFieldAccessInfo()
		l.FieldAccessInfo[f] = info
	}
	return info
}
