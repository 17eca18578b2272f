package loadout

import (
	"errors"
	"testing"
)

func TestParseDescriptorShorthand(t *testing.T) {
	for _, shorthand := range []string{"stock", "top"} {
		clauses, err := parseDescriptor(shorthand)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", shorthand, err)
		}
		expanded, err := parseDescriptor("others: " + shorthand)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(clauses) != 1 || clauses[othersClause] != expanded[othersClause] {
			t.Fatalf("shorthand %q did not expand to the others clause: %v", shorthand, clauses)
		}
	}
}

func TestParseDescriptorClauses(t *testing.T) {
	clauses, err := parseDescriptor("Hull: top, engine: 1, others: stock")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clauses["hull"].kind != levelTop {
		t.Fatalf("unexpected hull level: %+v", clauses["hull"])
	}
	if clauses["engine"].kind != levelIndex || clauses["engine"].index != 1 {
		t.Fatalf("unexpected engine level: %+v", clauses["engine"])
	}
	if clauses[othersClause].kind != levelStock {
		t.Fatalf("unexpected others level: %+v", clauses[othersClause])
	}
}

func TestParseDescriptorRejectsMalformedInput(t *testing.T) {
	cases := []string{
		"",
		"hull",
		"hull: stock: top",
		": stock",
		"hull: mid",
		"hull: -1",
	}
	for _, descriptor := range cases {
		_, err := parseDescriptor(descriptor)
		var mismatch *TypeMismatchError
		if !errors.As(err, &mismatch) {
			t.Fatalf("descriptor %q: expected TypeMismatchError, got %v", descriptor, err)
		}
	}
}

func TestModuleLevelPick(t *testing.T) {
	if index, err := (moduleLevel{kind: levelStock}).pick(3); err != nil || index != 0 {
		t.Fatalf("stock pick: %d, %v", index, err)
	}
	if index, err := (moduleLevel{kind: levelTop}).pick(3); err != nil || index != 2 {
		t.Fatalf("top pick: %d, %v", index, err)
	}
	if index, err := (moduleLevel{kind: levelIndex, index: 1}).pick(3); err != nil || index != 1 {
		t.Fatalf("index pick: %d, %v", index, err)
	}
	if _, err := (moduleLevel{kind: levelIndex, index: 3}).pick(3); err == nil {
		t.Fatalf("expected out-of-range error")
	}
}
