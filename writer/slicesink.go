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

package writer

import "github.com/r8shrink/r8/ir"

// SliceSink is an in-memory Sink, used by tests and by callers that want the
// rewritten classes back as a slice rather than streamed to an external
// consumer.
type SliceSink struct {
	Classes []*ir.Class
}

func (s *SliceSink) Accept(c *ir.Class) error {
	s.Classes = append(s.Classes, c)
	return nil
}
