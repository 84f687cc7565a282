package patterns

import "testing"

func TestDefaultGraphValidates(t *testing.T) {
	g := Default()
	if err := g.Validate(); err != nil {
		t.Fatalf("expected default fixture graph to validate, got %v", err)
	}
}

func TestValidateRejectsNonPositiveKey(t *testing.T) {
	g := &Graph{Boxes: map[int32][][]int32{-1: {{5}}}}
	if err := g.Validate(); err == nil {
		t.Fatalf("expected error for non-positive key")
	}
}

func TestValidateRejectsEmptySequence(t *testing.T) {
	g := &Graph{Boxes: map[int32][][]int32{5: {{}}}}
	if err := g.Validate(); err == nil {
		t.Fatalf("expected error for empty sequence")
	}
}
