package agents

import "testing"

func TestArange(t *testing.T) {
	got := Arange(2, 5)
	want := UIDs{2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("Arange(2,5) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Arange(2,5) = %v, want %v", got, want)
		}
	}
	if len(Arange(5, 5)) != 0 {
		t.Fatalf("Arange(5,5) should be empty")
	}
	if len(Arange(7, 3)) != 0 {
		t.Fatalf("Arange(7,3) should be empty")
	}
}

func TestUIDs_PureOps(t *testing.T) {
	a := UIDs{0, 1, 2, 3}
	b := UIDs{2, 3, 4}

	got := a.Remove(b)
	if len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Fatalf("Remove = %v, want [0 1]", got)
	}
	// The receiver must be unchanged.
	if len(a) != 4 {
		t.Fatalf("Remove mutated its receiver: %v", a)
	}

	inter := a.Intersect(b)
	if len(inter) != 2 || inter[0] != 2 || inter[1] != 3 {
		t.Fatalf("Intersect = %v, want [2 3]", inter)
	}

	cat := Cat(a, b, nil)
	if len(cat) != 7 || cat[4] != 2 {
		t.Fatalf("Cat = %v", cat)
	}

	cc := a.Concat(b)
	if len(cc) != 7 || cc[0] != 0 || cc[6] != 4 {
		t.Fatalf("Concat = %v", cc)
	}
}

func TestRemove_AsymmetricDifference(t *testing.T) {
	// Entries of other that are absent from the receiver are ignored.
	a := UIDs{5, 6}
	got := a.Remove(UIDs{6, 99})
	if len(got) != 1 || got[0] != 5 {
		t.Fatalf("Remove = %v, want [5]", got)
	}
}
