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

// Package config holds the immutable Options value assembled once per
// compilation (spec.md §6 "Configuration options recognized by the core"),
// in the manner of the teacher's android.Config/Once-keyed memoization
// (android/config.go): a plain struct built by a single constructor and never
// mutated afterward, with any derived value that is expensive to recompute
// cached behind a parallel.OncePer key instead of a plain struct field.
package config

import "github.com/r8shrink/r8/parallel"

// RepackageKind is the closed set of §6 repackagePolicy values.
type RepackageKind int

const (
	RepackageNone RepackageKind = iota
	RepackageFlatten
	RepackageAll
)

// RepackagePolicy controls how the minifier assigns package-level names to
// renamed classes (spec.md §4.9 "class-name scheme", §6 "repackagePolicy").
type RepackagePolicy struct {
	Kind RepackageKind
	// Into is the target package for Flatten/All; ignored for None.
	Into string
}

// DefaultMinAPILevel is the platform base API level assumed when the driver
// is not given one explicitly (spec.md §6 "minApiLevel... default platform
// base").
const DefaultMinAPILevel = 21

// Options is the single immutable record of every knob spec.md §6 names.
// Build it once via New and never mutate it afterward; every stage that
// reads it takes a *Options by value semantics (never copies and edits it).
type Options struct {
	TreeShaking          bool
	DiscardedChecker     bool
	Minification         bool
	ForceCompatibility   bool
	MinAPILevel          int
	FeatureSplits        []string
	ApplyMapping         string
	RepackagePolicy      RepackagePolicy
	IgnoreMissingClasses bool

	once *parallel.OncePer
}

// New builds an Options with spec.md §6's defaults (treeShaking,
// discardedChecker, and minification on; forceCompatibility off; minApiLevel
// at the platform base), then applies opts in order.
func New(opts ...Option) *Options {
	o := &Options{
		TreeShaking:      true,
		DiscardedChecker: true,
		Minification:     true,
		MinAPILevel:      DefaultMinAPILevel,
		once:             &parallel.OncePer{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Option mutates an Options under construction; New is the only place an
// Options is ever written to, so every Option runs before the value escapes.
type Option func(*Options)

func WithTreeShaking(v bool) Option       { return func(o *Options) { o.TreeShaking = v } }
func WithDiscardedChecker(v bool) Option  { return func(o *Options) { o.DiscardedChecker = v } }
func WithMinification(v bool) Option      { return func(o *Options) { o.Minification = v } }
func WithForceCompatibility(v bool) Option {
	return func(o *Options) { o.ForceCompatibility = v }
}
func WithMinAPILevel(level int) Option { return func(o *Options) { o.MinAPILevel = level } }
func WithFeatureSplits(splits []string) Option {
	return func(o *Options) { o.FeatureSplits = append([]string(nil), splits...) }
}
func WithApplyMapping(path string) Option { return func(o *Options) { o.ApplyMapping = path } }
func WithRepackagePolicy(p RepackagePolicy) Option {
	return func(o *Options) { o.RepackagePolicy = p }
}
func WithIgnoreMissingClasses(v bool) Option {
	return func(o *Options) { o.IgnoreMissingClasses = v }
}

// HasFeatureSplits reports whether the program is partitioned into feature
// splits, the condition spec.md §6 names as affecting service-loader
// enumeration and accessibility scope.
func (o *Options) HasFeatureSplits() bool { return len(o.FeatureSplits) > 0 }

var featureSplitIndexKey = parallel.NewOnceKey("featureSplitIndex")

// FeatureSplitIndex returns a name->position lookup over FeatureSplits,
// computed once and cached regardless of how many stages ask for it
// (grounded on android/config.go's Once(key, func() interface{}) idiom).
func (o *Options) FeatureSplitIndex() map[string]int {
	return o.once.Once(featureSplitIndexKey, func() interface{} {
		idx := make(map[string]int, len(o.FeatureSplits))
		for i, name := range o.FeatureSplits {
			idx[name] = i
		}
		return idx
	}).(map[string]int)
}
