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

// Package r8testing provides a fixture builder for exercising the core
// pipeline (rules -> root set -> Enqueuer) in a single chained call, modeled
// directly on the teacher's android/fixture.go Fixture/FixturePreparer
// pattern: build up a fixture with small composable setup calls, then run it
// once to get a Result. It saves a test from hand-assembling a
// hierarchy.Index and Enqueuer; most package tests in this module still
// build their inputs by hand.
package r8testing

import (
	"testing"

	"github.com/r8shrink/r8/enqueue"
	"github.com/r8shrink/r8/hierarchy"
	"github.com/r8shrink/r8/ir"
	"github.com/r8shrink/r8/item"
	"github.com/r8shrink/r8/rootset"
	"github.com/r8shrink/r8/rules"
)

// Fixture accumulates classes, service entries, and rule-file source for one
// pipeline run. Fixture is mutable during setup and meant to be used from a
// single test goroutine, matching the teacher's own Fixture.
type Fixture struct {
	t        *testing.T
	factory  *item.Factory
	classes  []*ir.Class
	services *ir.Services
	ruleSrcs []string
}

// NewFixture starts a fixture with a fresh item.Factory. f may be nil when
// the test builds its own classes against a Factory it already holds; pass
// it so Fixture.Factory() returns the same one the caller used to build its
// classes.
func NewFixture(t *testing.T, f *item.Factory) *Fixture {
	t.Helper()
	if f == nil {
		f = item.NewFactory()
	}
	return &Fixture{t: t, factory: f}
}

// Factory returns the item.Factory this fixture (and the classes passed to
// it) must be built against.
func (fx *Fixture) Factory() *item.Factory { return fx.factory }

// Classes appends program classes to the fixture.
func (fx *Fixture) Classes(classes ...*ir.Class) *Fixture {
	fx.classes = append(fx.classes, classes...)
	return fx
}

// Services attaches the META-INF/services entries the Enqueuer's service
// discovery rule (spec.md §4.6.1) should see.
func (fx *Fixture) Services(s *ir.Services) *Fixture {
	fx.services = s
	return fx
}

// Rules appends one rule-file source fragment, parsed at Run time so a
// syntax error surfaces as a normal test failure with file:line context.
func (fx *Fixture) Rules(src string) *Fixture {
	fx.ruleSrcs = append(fx.ruleSrcs, src)
	return fx
}

// Result is everything a test typically wants to assert against after
// running the pipeline once.
type Result struct {
	Factory  *item.Factory
	Index    *hierarchy.Index
	Matched  []rules.Match
	Seeds    *rootset.Seeds
	Liveness *enqueue.Liveness
}

// Run builds the hierarchy, parses and applies every rule fragment, builds
// the root set, and drains a single Enqueuer round, failing the test
// immediately (via t.Fatal) on any error along the way.
func (fx *Fixture) Run() *Result {
	fx.t.Helper()

	idx := hierarchy.Build(fx.classes)

	var matched []rules.Match
	for _, src := range fx.ruleSrcs {
		parsed, err := rules.ParseRules(src)
		if err != nil {
			fx.t.Fatalf("r8testing: parsing rules: %v", err)
		}
		matched = append(matched, rules.Apply(parsed, fx.classes, idx)...)
	}

	seeds, err := rootset.Build(matched)
	if err != nil {
		fx.t.Fatalf("r8testing: building root set: %v", err)
	}

	e := enqueue.New(idx, fx.services, fx.factory)
	e.Seed(seeds)
	live := e.Run()

	return &Result{
		Factory:  fx.factory,
		Index:    idx,
		Matched:  matched,
		Seeds:    seeds,
		Liveness: live,
	}
}
