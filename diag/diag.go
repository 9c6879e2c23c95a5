// Copyright 2015 Google Inc. All rights reserved.
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

// Package diag collects diagnostics against the context that produced them
// instead of returning them eagerly, so a stage can run to completion and
// report everything it found at once.
package diag

import (
	"fmt"
	"sort"
	"sync"
)

// Kind is the fixed taxonomy of diagnostics this core can raise.
type Kind int

const (
	InvalidInput Kind = iota
	InvalidRule
	MissingClass
	CheckDiscardFailed
	ResolutionFailure
	Internal
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "InvalidInput"
	case InvalidRule:
		return "InvalidRule"
	case MissingClass:
		return "MissingClass"
	case CheckDiscardFailed:
		return "CheckDiscardFailed"
	case ResolutionFailure:
		return "ResolutionFailure"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

type Severity int

const (
	Warning Severity = iota
	Fatal
)

func (s Severity) String() string {
	if s == Fatal {
		return "error"
	}
	return "warning"
}

// Diagnostic is one reported problem, attached to the origin that produced it.
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Origin   string // e.g. a class/member descriptor or rule file:line
	Message  string
}

func (d Diagnostic) String() string {
	if d.Origin != "" {
		return fmt.Sprintf("%s: %s: [%s] %s", d.Severity, d.Origin, d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: [%s] %s", d.Severity, d.Kind, d.Message)
}

// Bag accumulates diagnostics from many goroutines across a stage. It is the
// single point every stage funnels errors and warnings through; fatal errors
// are only inspected at stage boundaries (HasFatal), never returned eagerly
// from inside a worklist transition or a per-method trace.
type Bag struct {
	mu   sync.Mutex
	diag []Diagnostic
}

func NewBag() *Bag {
	return &Bag{}
}

// Report records a diagnostic. Safe to call from any goroutine.
func (b *Bag) Report(d Diagnostic) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.diag = append(b.diag, d)
}

// Errorf records a Fatal diagnostic of the given kind, attached to origin.
func (b *Bag) Errorf(kind Kind, origin, format string, args ...interface{}) {
	b.Report(Diagnostic{Kind: kind, Severity: Fatal, Origin: origin, Message: fmt.Sprintf(format, args...)})
}

// Warnf records a Warning diagnostic of the given kind, attached to origin.
func (b *Bag) Warnf(kind Kind, origin, format string, args ...interface{}) {
	b.Report(Diagnostic{Kind: kind, Severity: Warning, Origin: origin, Message: fmt.Sprintf(format, args...)})
}

// HasFatal reports whether any Fatal diagnostic has been recorded. Stages
// call this at their boundary and stop the pipeline if it is true.
func (b *Bag) HasFatal() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, d := range b.diag {
		if d.Severity == Fatal {
			return true
		}
	}
	return false
}

// All returns a copy of all recorded diagnostics, sorted by severity (fatal
// first) and then by origin, matching spec.md §7's "printed sorted by
// severity and origin".
func (b *Bag) All() []Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Diagnostic, len(b.diag))
	copy(out, b.diag)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return out[i].Severity == Fatal
		}
		return out[i].Origin < out[j].Origin
	})
	return out
}

// Len returns the number of diagnostics recorded so far.
func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.diag)
}
