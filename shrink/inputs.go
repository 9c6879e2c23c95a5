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

package shrink

import "github.com/r8shrink/r8/ir"

// ClassVisitor receives one class from an Inputs' program/classpath/library
// walk (spec.md §6's "visitor" argument to eachProgramClass and friends).
type ClassVisitor func(*ir.Class) error

// DataEntryVisitor receives one named data entry and its UTF-8 contents
// (spec.md §6 "data entries whose name begins with the conventional
// services directory").
type DataEntryVisitor func(name, contents string) error

// Inputs is the opaque reader contract spec.md §6 describes: the core never
// parses classfile or Dex archives itself, it only walks whatever an
// external reader already decoded into ir.Class values. EachProgramClass,
// EachClasspathClass, and EachLibraryClass correspond to spec.md's
// eachProgramClass/eachClasspathClass/eachLibraryClass; EachDataEntry is
// eachDataEntry.
type Inputs interface {
	EachProgramClass(ClassVisitor) error
	EachClasspathClass(ClassVisitor) error
	EachLibraryClass(ClassVisitor) error
	EachDataEntry(DataEntryVisitor) error
}

// ServicesEntryPrefix is the conventional directory name spec.md §6 refers
// to ("data entries whose name begins with the conventional services
// directory"), matching the java.util.ServiceLoader resource convention.
const ServicesEntryPrefix = "META-INF/services/"

// SliceInputs is an in-memory Inputs, analogous to writer.SliceSink: tests
// and small driver programs build a program directly out of already-
// constructed ir.Class values instead of standing up a real archive reader.
type SliceInputs struct {
	Program     []*ir.Class
	Classpath   []*ir.Class
	Library     []*ir.Class
	DataEntries map[string]string
}

func (in *SliceInputs) EachProgramClass(v ClassVisitor) error { return visitAll(in.Program, v) }
func (in *SliceInputs) EachClasspathClass(v ClassVisitor) error { return visitAll(in.Classpath, v) }
func (in *SliceInputs) EachLibraryClass(v ClassVisitor) error { return visitAll(in.Library, v) }

func (in *SliceInputs) EachDataEntry(v DataEntryVisitor) error {
	for name, contents := range in.DataEntries {
		if err := v(name, contents); err != nil {
			return err
		}
	}
	return nil
}

func visitAll(classes []*ir.Class, v ClassVisitor) error {
	for _, c := range classes {
		if err := v(c); err != nil {
			return err
		}
	}
	return nil
}
