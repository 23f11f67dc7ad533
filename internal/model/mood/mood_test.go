package mood

import "testing"

func TestOrdinalFollowsValence(t *testing.T) {
	want := []int{6, 5, 4, 3, 2, 1}
	for i, m := range All() {
		if got := m.Ordinal(); got != want[i] {
			t.Fatalf("%s ordinal: got %d want %d", m, got, want[i])
		}
	}
	if Mood("Bored").Valid() {
		t.Fatal("unexpected valid mood")
	}
}

func TestParse(t *testing.T) {
	got, err := Parse("  stressed ")
	if err != nil {
		t.Fatalf("Parse err: %v", err)
	}
	if got != Stressed {
		t.Fatalf("got %s want %s", got, Stressed)
	}

	if _, err := Parse("meh"); err == nil {
		t.Fatal("expected error for unknown mood")
	}
}
