package rules

import (
	"reflect"
	"strings"
	"testing"
	"unicode"
)

func TestMemberPathCapitalizesEachSegment(t *testing.T) {
	got := MemberPath("com.foo.bar", "onCreate")
	segments := strings.Split(got, ".")
	if len(segments) != 4 {
		t.Fatalf("MemberPath() = %q, want 4 dotted segments", got)
	}
	for _, seg := range segments {
		if seg == "" || !unicode.IsUpper([]rune(seg)[0]) {
			t.Fatalf("segment %q of %q was not capitalized", seg, got)
		}
	}
}

func TestSplitDottedListDedupesPreservingOrder(t *testing.T) {
	got := SplitDottedList("includedescriptorclasses,allowoptimization, includedescriptorclasses")
	want := []string{"includedescriptorclasses", "allowoptimization"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitDottedList() = %v, want %v", got, want)
	}
}
