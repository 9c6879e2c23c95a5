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

// Command r8shrink drives one compilation of the shrink.Pipeline from the
// command line: a class dump, zero or more rule files, and the config knobs
// spec.md §6 names, in the same flag.StringVar style as
// cmd/soong_build/main.go rather than a third-party flag library.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/r8shrink/r8/config"
	"github.com/r8shrink/r8/item"
	"github.com/r8shrink/r8/shrink"
)

var (
	classesFile  string
	rulesFiles   string
	applyMapping string

	outClasses string
	outMapping string
	outSeeds   string
	outUsage   string

	minAPILevel           int
	forceCompatibility    bool
	ignoreMissingClasses  bool
	noTreeShaking         bool
	noMinification        bool
	repackageClasses      string
	flattenPackageHier    string
)

func init() {
	flag.StringVar(&classesFile, "classes", "", "path to a class dump JSON file (program/classpath/library/services)")
	flag.StringVar(&rulesFiles, "rules", "", "comma-separated list of rule files to concatenate as this compilation's rule input")
	flag.StringVar(&applyMapping, "applymapping", "", "path to a proguard-style mapping file whose renames seed the minifier")

	flag.StringVar(&outClasses, "out-classes", "", "path to write the final rewritten classes as a class dump JSON file")
	flag.StringVar(&outMapping, "out-mapping", "", "path to write the proguard-style rename mapping")
	flag.StringVar(&outSeeds, "out-seeds", "", "path to write the resolved root set report")
	flag.StringVar(&outUsage, "out-usage", "", "path to write the removed-elements usage report")

	flag.IntVar(&minAPILevel, "min-api", config.DefaultMinAPILevel, "minimum supported platform API level")
	flag.BoolVar(&forceCompatibility, "force-compat", false, "escalate unresolved missing-class references to warnings instead of fatal errors")
	flag.BoolVar(&ignoreMissingClasses, "ignore-missing-classes", false, "treat every missing-class reference as a warning")
	flag.BoolVar(&noTreeShaking, "no-shrink", false, "disable tree-shaking (spec.md §6 treeShaking=false)")
	flag.BoolVar(&noMinification, "no-obfuscate", false, "disable renaming (spec.md §6 minification=false)")
	flag.StringVar(&repackageClasses, "repackageclasses", "", "move every renamed class into this single package")
	flag.StringVar(&flattenPackageHier, "flattenpackagehierarchy", "", "move every renamed class into this single package (same placement as -repackageclasses)")
}

func main() {
	flag.Parse()
	if classesFile == "" {
		fmt.Fprintln(os.Stderr, "r8shrink: -classes is required")
		os.Exit(2)
	}

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "r8shrink:", err)
		os.Exit(1)
	}
}

func run() error {
	factory := item.NewFactory()

	contents, err := os.ReadFile(classesFile)
	if err != nil {
		return fmt.Errorf("reading %s: %w", classesFile, err)
	}
	inputs, err := decodeClassDump(factory, contents)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", classesFile, err)
	}

	rules, err := readRules(rulesFiles)
	if err != nil {
		return err
	}

	repackagePolicy := config.RepackagePolicy{}
	switch {
	case repackageClasses != "":
		repackagePolicy = config.RepackagePolicy{Kind: config.RepackageAll, Into: repackageClasses}
	case flattenPackageHier != "":
		repackagePolicy = config.RepackagePolicy{Kind: config.RepackageFlatten, Into: flattenPackageHier}
	}

	cfg := config.New(
		config.WithTreeShaking(!noTreeShaking),
		config.WithMinification(!noMinification),
		config.WithForceCompatibility(forceCompatibility),
		config.WithIgnoreMissingClasses(ignoreMissingClasses),
		config.WithMinAPILevel(minAPILevel),
		config.WithApplyMapping(applyMapping),
		config.WithRepackagePolicy(repackagePolicy),
	)

	pipeline := &shrink.Pipeline{
		Factory: factory,
		Config:  cfg,
		Inputs:  inputs,
		Rules:   rules,
		ReadFile: func(path string) (string, error) {
			b, err := os.ReadFile(path)
			return string(b), err
		},
	}

	out, runErr := pipeline.Run()
	for _, d := range out.Diagnostics.All() {
		fmt.Fprintln(os.Stderr, d.String())
	}

	if err := writeOutputs(out); err != nil {
		return err
	}
	return runErr
}

func readRules(paths string) (string, error) {
	if paths == "" {
		return "", nil
	}
	var sections []string
	for _, p := range strings.Split(paths, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return "", fmt.Errorf("reading rule file %s: %w", p, err)
		}
		sections = append(sections, string(b))
	}
	return strings.Join(sections, "\n"), nil
}

func writeOutputs(out *shrink.Output) error {
	if outClasses != "" {
		encoded, err := encodeClasses(out.Classes)
		if err != nil {
			return fmt.Errorf("encoding output classes: %w", err)
		}
		if err := os.WriteFile(outClasses, encoded, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", outClasses, err)
		}
	}
	if outMapping != "" {
		if err := os.WriteFile(outMapping, []byte(out.Mapping), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", outMapping, err)
		}
	}
	if outSeeds != "" {
		if err := os.WriteFile(outSeeds, []byte(out.Seeds), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", outSeeds, err)
		}
	}
	if outUsage != "" {
		if err := os.WriteFile(outUsage, []byte(out.Usage), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", outUsage, err)
		}
	}
	return nil
}
