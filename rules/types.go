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

package rules

import "strings"

var primitiveJavaNames = map[string]string{
	"V": "void", "Z": "boolean", "B": "byte", "S": "short",
	"C": "char", "I": "int", "J": "long", "F": "float", "D": "double",
}

var javaNamesToPrimitive = map[string]string{}

func init() {
	for desc, name := range primitiveJavaNames {
		javaNamesToPrimitive[name] = desc
	}
}

// DescriptorToJavaName converts a type descriptor ("Ljava/lang/String;",
// "[I", "I") into the dotted Java source form a rule file's member selector
// is written in ("java.lang.String", "int[]", "int"). Rule member patterns
// are matched against this form, not the raw descriptor.
func DescriptorToJavaName(descriptor string) string {
	depth := 0
	d := descriptor
	for strings.HasPrefix(d, "[") {
		d = d[1:]
		depth++
	}
	var base string
	if name, ok := primitiveJavaNames[d]; ok {
		base = name
	} else if strings.HasPrefix(d, "L") && strings.HasSuffix(d, ";") {
		base = strings.ReplaceAll(d[1:len(d)-1], "/", ".")
	} else {
		base = d
	}
	return base + strings.Repeat("[]", depth)
}
