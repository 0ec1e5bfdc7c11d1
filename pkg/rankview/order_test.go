package rankview

import "testing"

func TestMoveID(t *testing.T) {
	base := []string{"A", "B", "C", "D"}

	cases := []struct {
		name     string
		from, to int
		want     []string
	}{
		{"to front", 3, 0, []string{"D", "A", "B", "C"}},
		{"to back", 0, 3, []string{"B", "C", "D", "A"}},
		{"middle forward", 1, 2, []string{"A", "C", "B", "D"}},
		{"middle backward", 2, 1, []string{"A", "C", "B", "D"}},
		{"same index", 1, 1, []string{"A", "B", "C", "D"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := MoveID(base, c.from, c.to)
			if !OrdersEqual(got, c.want) {
				t.Errorf("MoveID(%d, %d) = %v, want %v", c.from, c.to, got, c.want)
			}
		})
	}

	// input must stay untouched
	if !OrdersEqual(base, []string{"A", "B", "C", "D"}) {
		t.Fatalf("input mutated: %v", base)
	}
}

func TestMoveIDOutOfRange(t *testing.T) {
	base := []string{"A", "B"}
	if got := MoveID(base, -1, 0); !OrdersEqual(got, base) {
		t.Errorf("negative from: %v", got)
	}
	if got := MoveID(base, 0, 2); !OrdersEqual(got, base) {
		t.Errorf("to past end: %v", got)
	}
	if got := MoveID(nil, 0, 0); len(got) != 0 {
		t.Errorf("empty input: %v", got)
	}
}

func TestOrdersEqual(t *testing.T) {
	if !OrdersEqual(nil, nil) {
		t.Error("nil/nil")
	}
	if OrdersEqual([]string{"A"}, []string{"A", "B"}) {
		t.Error("length mismatch")
	}
	if OrdersEqual([]string{"A", "B"}, []string{"B", "A"}) {
		t.Error("order mismatch")
	}
	if !OrdersEqual([]string{"A", "B"}, []string{"A", "B"}) {
		t.Error("equal slices")
	}
}

func TestPositionsAreDense(t *testing.T) {
	pos := Positions([]string{"X", "Y", "Z"})
	if pos["X"] != 1 || pos["Y"] != 2 || pos["Z"] != 3 {
		t.Fatalf("positions = %v", pos)
	}
	if len(Positions(nil)) != 0 {
		t.Fatal("empty collection has no positions")
	}
}
