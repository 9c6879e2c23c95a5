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

package enqueue

import (
	"fmt"

	"github.com/r8shrink/r8/ir"
	"github.com/r8shrink/r8/trace"
)

// visitInvokeDynamic implements the invoke-dynamic half of transition rule 4
// (spec.md §4.6): a recognized lambda-metafactory call site is desugared per
// spec.md §4.6.1; any other bootstrap is simply recorded for reporting.
func (e *Enqueuer) visitInvokeDynamic(ctx trace.Context, instr ir.Instr) {
	cs := instr.CallSite
	if cs == nil {
		return
	}
	if cs.Bootstrap != ir.LambdaMetafactoryBootstrap {
		e.live.CallSiteTargets[cs] = nil
		return
	}
	synthetic := e.InjectSynthetic(ctx, cs)
	if synthetic == nil {
		return
	}
	e.live.CallSiteTargets[cs] = synthetic.Type
	e.markInstantiated(synthetic.Type, "lambda call site in "+ctx.Method.String())
}

// InjectSynthetic builds the synthetic class a recognized lambda
// metafactory call site desugars to and adds it to the live program as a
// first-class program class (spec.md §4.6.1 "it is added to the
// definitions, marked live, and participates in the rest of the pipeline").
// It returns nil if this Enqueuer was not given a factory to mint the new
// type/method references with.
func (e *Enqueuer) InjectSynthetic(ctx trace.Context, cs *ir.CallSite) *ir.Class {
	if e.factory == nil || cs.Interface == nil || cs.InterfaceMethod == nil || cs.ImplMethod == nil {
		return nil
	}
	e.lambdaCounter++
	holderDesc := cs.Interface.Descriptor()
	name := fmt.Sprintf("%s-$$Lambda$%d;", holderDesc[:len(holderDesc)-1], e.lambdaCounter)
	classType, err := e.factory.TryCreateType(name)
	if err != nil {
		return nil
	}
	methodOnClass := e.factory.CreateMethod(classType, cs.InterfaceMethod.Name, cs.InterfaceMethod.Proto)
	from := ctx.Method.String()
	class, err := ir.NewSyntheticClass(classType, e.factory.JavaLangObject(), cs.Interface, methodOnClass, cs, from)
	if err != nil {
		return nil
	}
	e.Synthetics = append(e.Synthetics, class)
	e.idx.AddSyntheticClass(class)
	e.markTypeLive(classType, "synthesized from "+from)
	e.live.LiveMethods[methodOnClass] = true
	e.methodQueue = append(e.methodQueue, methodOnClass)
	return class
}
