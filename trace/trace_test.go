package trace

import (
	"testing"

	"github.com/r8shrink/r8/ir"
	"github.com/r8shrink/r8/item"
)

type recordingVisitor struct {
	instrs           []ir.Instr
	exceptionTypes   []*item.DexType
	annotationFields []*item.DexField
	annotationTypes  []*item.DexType
}

func (r *recordingVisitor) VisitInstr(ctx Context, instr ir.Instr) {
	r.instrs = append(r.instrs, instr)
}
func (r *recordingVisitor) VisitExceptionType(ctx Context, t *item.DexType) {
	r.exceptionTypes = append(r.exceptionTypes, t)
}
func (r *recordingVisitor) VisitAnnotationFieldRef(ctx Context, f *item.DexField) {
	r.annotationFields = append(r.annotationFields, f)
}
func (r *recordingVisitor) VisitAnnotationTypeRef(ctx Context, t *item.DexType) {
	r.annotationTypes = append(r.annotationTypes, t)
}

func TestWalkVisitsBodyExceptionsAndAnnotations(t *testing.T) {
	f := item.NewFactory()
	holder := f.CreateType("Lcom/foo/Bar;")
	proto := f.CreateProto(f.CreateType("V"))
	ref := f.CreateMethod(holder, f.CreateString("run"), proto)

	other := f.CreateType("Lcom/foo/Other;")
	otherCtor := f.CreateMethod(other, f.CreateString("<init>"), proto)
	exType := f.CreateType("Ljava/lang/Exception;")
	annotationType := f.CreateType("Lcom/foo/Ann;")
	annotatedField := f.CreateField(holder, f.CreateString("y"), f.CreateType("I"))

	code := &ir.Code{
		Instrs: []ir.Instr{
			{Kind: ir.NewInstance, Type: other},
			{Kind: ir.InvokeDirect, Method: otherCtor},
		},
		ExceptionHandlers: []ir.ExceptionHandler{
			{CatchType: exType, Instrs: []ir.Instr{{Kind: ir.TypeReference, Type: exType}}},
			{CatchType: nil, Instrs: nil},
		},
	}
	method := ir.NewEncodedMethod(ref, ir.Public, code, ir.Annotation{Type: annotationType, FieldRefs: []*item.DexField{annotatedField}})
	class, err := ir.NewClass(holder, f.JavaLangObject(), nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := class.AddVirtualMethod(method); err != nil {
		t.Fatal(err)
	}

	v := &recordingVisitor{}
	Walk(method, v)

	if len(v.instrs) != 3 {
		t.Fatalf("got %d instrs, want 3 (2 body + 1 handler)", len(v.instrs))
	}
	if len(v.exceptionTypes) != 1 || v.exceptionTypes[0] != exType {
		t.Fatalf("exception types = %v, want [%v]", v.exceptionTypes, exType)
	}
	if len(v.annotationTypes) != 1 || v.annotationTypes[0] != annotationType {
		t.Fatalf("annotation types = %v, want [%v]", v.annotationTypes, annotationType)
	}
	if len(v.annotationFields) != 1 || v.annotationFields[0] != annotatedField {
		t.Fatalf("annotation fields = %v, want [%v]", v.annotationFields, annotatedField)
	}
}

func TestDefaultReflectiveIdiomsIsClosed(t *testing.T) {
	if !IsRecognizedReflectiveIdiom("Class.forName") {
		t.Fatal("expected Class.forName to be recognized")
	}
	if IsRecognizedReflectiveIdiom("Class.notARealMethod") {
		t.Fatal("expected an unlisted idiom to be rejected")
	}
}
