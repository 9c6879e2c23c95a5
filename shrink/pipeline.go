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

// Package shrink is the orchestration driver (SPEC_FULL.md §2 "Ambient:
// driver"): it wires the Item Factory, AppInfo, rule engine, root set
// builder, Enqueuer, tree pruner, graph lens stack, minifier, and writer
// glue into the single sequential pipeline spec.md §2 and §5 describe ("the
// pipeline runs the Enqueuer twice... between stages the pipeline is
// strictly sequential").
package shrink

import (
	"fmt"
	"strings"

	"github.com/r8shrink/r8/config"
	"github.com/r8shrink/r8/diag"
	"github.com/r8shrink/r8/enqueue"
	"github.com/r8shrink/r8/hierarchy"
	"github.com/r8shrink/r8/ir"
	"github.com/r8shrink/r8/item"
	"github.com/r8shrink/r8/lens"
	"github.com/r8shrink/r8/minify"
	"github.com/r8shrink/r8/prune"
	"github.com/r8shrink/r8/report"
	"github.com/r8shrink/r8/rootset"
	"github.com/r8shrink/r8/rules"
	"github.com/r8shrink/r8/writer"
)

// Pipeline is one compilation: a factory to intern against, the program
// inputs, rule-file source, and the knobs in cfg. Build one Pipeline per
// compilation and call Run once; Pipeline itself holds no mutable state
// across calls to Run beyond what callers set before calling it.
type Pipeline struct {
	Factory *item.Factory
	Config  *config.Options
	Inputs  Inputs

	// Rules is the rule-file source, already concatenated from every -include
	// fragment and inline rule string the caller gathered (spec.md §6 "Rule
	// input").
	Rules string

	// ReadFile resolves an "@file" token inside Rules (spec.md §6 "@file
	// syntax expands to..."). Required only if Rules contains an @file
	// reference.
	ReadFile rules.FileReader

	// Sink, if non-nil, receives the final rewritten program classes
	// (writer.Sink). If nil, Run collects them into Output.Classes itself.
	Sink writer.Sink
}

// Output is everything a caller typically wants out of one Run.
type Output struct {
	// Classes is the final, lens-rewritten program, present whenever Sink
	// was nil (Run used its own writer.SliceSink).
	Classes []*ir.Class
	Lens    lens.GraphLens

	Mapping string
	Seeds   string
	Usage   string

	Diagnostics *diag.Bag
}

// Run executes one compilation end to end. A non-nil error means a fatal
// diagnostic stopped the pipeline before it could produce output; Output is
// still returned (possibly partially populated) so the caller can inspect
// Diagnostics either way, per spec.md §7 "the driver aggregates diagnostics
// and prints them... exit status is nonzero iff at least one fatal
// diagnostic was emitted".
func (p *Pipeline) Run() (*Output, error) {
	bag := diag.NewBag()
	out := &Output{Diagnostics: bag}

	program, classpath, library, services, err := p.readInputs()
	if err != nil {
		bag.Errorf(diag.InvalidInput, "inputs", "%v", err)
		return out, err
	}

	expanded, err := rules.ExpandArgFiles(p.Rules, p.fileReader())
	if err != nil {
		bag.Errorf(diag.InvalidRule, "rules", "%v", err)
		return out, err
	}
	parsed, err := rules.ParseRules(expanded)
	if err != nil {
		bag.Errorf(diag.InvalidRule, "rules", "%v", err)
		return out, err
	}

	all := concatClasses(program, classpath, library)
	idx := hierarchy.Build(all)
	matched := rules.Apply(parsed, all, idx)

	seeds, err := rootset.Build(matched)
	if err != nil {
		bag.Errorf(diag.InvalidRule, "rootset", "%v", err)
		return out, err
	}
	if seeds.ApplyMappingPath == "" {
		seeds.ApplyMappingPath = p.Config.ApplyMapping
	}

	// A rule-level -dontshrink/-dontobfuscate is a stronger, file-local
	// override of the config-level default (spec.md §6's treeShaking and
	// minification knobs), matching the driver-owns-file-I/O split
	// rootset.Seeds' own doc comment draws for ApplyMappingPath.
	treeShaking := p.Config.TreeShaking && !seeds.DontShrink
	minification := p.Config.Minification && !seeds.DontObfuscate
	repackagePolicy := p.Config.RepackagePolicy
	switch {
	case seeds.RepackageClasses != "":
		repackagePolicy = config.RepackagePolicy{Kind: config.RepackageAll, Into: seeds.RepackageClasses}
	case seeds.FlattenPackageHierarchy != "":
		repackagePolicy = config.RepackagePolicy{Kind: config.RepackageFlatten, Into: seeds.FlattenPackageHierarchy}
	}

	enq := enqueue.New(idx, services, p.Factory)
	enq.Seed(seeds)
	live := enq.Run()
	program = append(program, enq.Synthetics...)

	reportMissingClasses(p.Factory, live, idx, seeds.DontWarn, p.Config, bag)
	if bag.HasFatal() {
		return out, fmt.Errorf("shrink: %d fatal diagnostic(s) during first reachability round", bag.Len())
	}

	working := program
	finalLens := lens.GraphLens(lens.Identity())
	removed := map[rootset.Ref]bool{}

	if treeShaking {
		result, err := prune.Run(idx, live, working, finalLens)
		if err != nil {
			bag.Errorf(diag.Internal, "prune", "%v", err)
			return out, err
		}
		working = result.Classes
		finalLens = result.Lens
		for ref := range result.Removed {
			removed[ref] = true
		}

		if p.Config.DiscardedChecker {
			for ref := range seeds.CheckDiscard {
				if !removed[ref] {
					bag.Errorf(diag.CheckDiscardFailed, refOrigin(ref), "element named under -checkdiscard was not removed by tree-shaking")
				}
			}
			if bag.HasFatal() {
				return out, fmt.Errorf("shrink: %d fatal diagnostic(s) after check-discard verification", bag.Len())
			}
		}
	}

	seeds = seeds.Pruned(removed)
	services = services.Pruned(live.LiveTypes)

	idx2 := hierarchy.Build(concatClasses(working, classpath, library))
	finalLens = lens.MemberRebinder(idx2, live, finalLens)

	if treeShaking {
		var mergedLens lens.GraphLens
		mergedLens, working = lens.VerticalClassMerger(idx2, live, p.Factory, working, finalLens)
		finalLens = mergedLens
	}

	idx3 := hierarchy.Build(concatClasses(working, classpath, library))
	enq2 := enqueue.New(idx3, services, p.Factory)
	enq2.Seed(seeds)
	live = enq2.Run()
	working = append(working, enq2.Synthetics...)

	var minifyResult *minify.Result
	if minification {
		var parsedMapping *report.ParsedMapping
		noObfuscation := copyRefSet(live.NoObfuscation)
		if seeds.ApplyMappingPath != "" {
			contents, err := p.fileReader()(seeds.ApplyMappingPath)
			if err != nil {
				bag.Errorf(diag.InvalidRule, "applymapping", "%v", err)
				return out, err
			}
			parsedMapping, err = report.ParseMapping(contents)
			if err != nil {
				bag.Errorf(diag.InvalidRule, "applymapping", "%v", err)
				return out, err
			}
			pinForApplyMapping(parsedMapping, working, noObfuscation)
		}

		scheme := minify.NewClassNameScheme(repackagePolicy)
		minifyResult = minify.Run(p.Factory, working, live.Pinned, noObfuscation, scheme)
		if parsedMapping != nil {
			applyExternalMapping(parsedMapping, working, p.Factory, minifyResult)
		}
		finalLens = lens.Minifier(finalLens, minifyResult.TypeNames, minifyResult.FieldNames, minifyResult.MethodNames)
	}

	sink := p.Sink
	slice := &writer.SliceSink{}
	if sink == nil {
		sink = slice
	}
	if err := writer.Emit(working, finalLens, sink); err != nil {
		bag.Errorf(diag.Internal, "writer", "%v", err)
		return out, err
	}

	out.Lens = finalLens
	if p.Sink == nil {
		out.Classes = slice.Classes
	}
	out.Mapping = mappingFor(working, minifyResult)
	out.Seeds = report.Seeds(seeds)
	out.Usage = report.Usage(removed)

	if bag.HasFatal() {
		return out, fmt.Errorf("shrink: %d fatal diagnostic(s)", bag.Len())
	}
	return out, nil
}

func mappingFor(classes []*ir.Class, result *minify.Result) string {
	if result == nil {
		return report.Mapping(classes, nil, nil, nil)
	}
	return report.Mapping(classes, result.TypeNames, result.FieldNames, result.MethodNames)
}

func (p *Pipeline) fileReader() rules.FileReader {
	if p.ReadFile != nil {
		return p.ReadFile
	}
	return func(path string) (string, error) {
		return "", fmt.Errorf("shrink: no file reader configured to resolve %q", path)
	}
}

func (p *Pipeline) readInputs() (program, classpath, library []*ir.Class, services *ir.Services, err error) {
	collect := func(v func(ClassVisitor) error) ([]*ir.Class, error) {
		var out []*ir.Class
		err := v(func(c *ir.Class) error {
			out = append(out, c)
			return nil
		})
		return out, err
	}

	if program, err = collect(p.Inputs.EachProgramClass); err != nil {
		return nil, nil, nil, nil, err
	}
	if classpath, err = collect(p.Inputs.EachClasspathClass); err != nil {
		return nil, nil, nil, nil, err
	}
	if library, err = collect(p.Inputs.EachLibraryClass); err != nil {
		return nil, nil, nil, nil, err
	}

	services = ir.NewServices()
	err = p.Inputs.EachDataEntry(func(name, contents string) error {
		if !strings.HasPrefix(name, ServicesEntryPrefix) {
			return nil
		}
		iface := p.Factory.CreateType(classDescriptorFromJavaName(strings.TrimPrefix(name, ServicesEntryPrefix)))
		impls, err := ir.ParseServiceEntry(contents)
		if err != nil {
			return fmt.Errorf("parsing service entry %q: %w", name, err)
		}
		for _, implName := range impls {
			services.Add(iface, "", p.Factory.CreateType(classDescriptorFromJavaName(implName)))
		}
		return nil
	})
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return program, classpath, library, services, nil
}

func concatClasses(groups ...[]*ir.Class) []*ir.Class {
	var total int
	for _, g := range groups {
		total += len(g)
	}
	out := make([]*ir.Class, 0, total)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func copyRefSet(src map[rootset.Ref]bool) map[rootset.Ref]bool {
	out := make(map[rootset.Ref]bool, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func refOrigin(ref rootset.Ref) string {
	switch r := ref.(type) {
	case *item.DexType:
		return rules.DescriptorToJavaName(r.Descriptor())
	case *item.DexField:
		return rules.DescriptorToJavaName(r.Holder.Descriptor()) + "." + r.Name.String()
	case *item.DexMethod:
		return rules.DescriptorToJavaName(r.Holder.Descriptor()) + "." + r.Name.String()
	default:
		return fmt.Sprintf("%v", ref)
	}
}
