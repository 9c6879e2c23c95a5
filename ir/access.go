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

// Package ir holds the program model: class, field, and method definitions
// that carry a body (access flags, annotations, code) in addition to the
// interned reference they implement (spec.md §3 "Reference vs. definition").
package ir

// AccessFlags is the access-flag bitmask shared by classes, fields, and
// methods, matching the classfile/Dex flag bit positions.
type AccessFlags uint32

const (
	Public AccessFlags = 1 << iota
	Private
	Protected
	Static
	Final
	Synchronized
	Bridge
	Varargs
	Native
	Interface
	Abstract
	Strict
	Synthetic
	Annotation
	Enum
	Constructor
)

func (a AccessFlags) Has(flag AccessFlags) bool { return a&flag != 0 }

func (a AccessFlags) IsPublic() bool    { return a.Has(Public) }
func (a AccessFlags) IsPrivate() bool   { return a.Has(Private) }
func (a AccessFlags) IsProtected() bool { return a.Has(Protected) }

// IsPackagePrivate reports whether none of the three visibility flags is set.
func (a AccessFlags) IsPackagePrivate() bool {
	return !a.IsPublic() && !a.IsPrivate() && !a.IsProtected()
}

func (a AccessFlags) IsStatic() bool      { return a.Has(Static) }
func (a AccessFlags) IsFinal() bool       { return a.Has(Final) }
func (a AccessFlags) IsAbstract() bool    { return a.Has(Abstract) }
func (a AccessFlags) IsInterface() bool   { return a.Has(Interface) }
func (a AccessFlags) IsEnum() bool        { return a.Has(Enum) }
func (a AccessFlags) IsAnnotation() bool  { return a.Has(Annotation) }
func (a AccessFlags) IsSynthetic() bool   { return a.Has(Synthetic) }
func (a AccessFlags) IsConstructor() bool { return a.Has(Constructor) }
