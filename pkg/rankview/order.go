package rankview

// MoveID returns a copy of ids with the element at index from moved to
// index to, shifting the elements in between by one. Out-of-range
// indexes return the input unchanged.
func MoveID(ids []string, from, to int) []string {
	n := len(ids)
	if from < 0 || from >= n || to < 0 || to >= n {
		return ids
	}
	out := make([]string, 0, n)
	out = append(out, ids[:from]...)
	out = append(out, ids[from+1:]...)
	out = append(out[:to], append([]string{ids[from]}, out[to:]...)...)
	return out
}

// OrdersEqual reports element-wise, full-length equality.
func OrdersEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Positions maps each id to its dense 1-based rank within ids.
func Positions(ids []string) map[string]int {
	out := make(map[string]int, len(ids))
	for i, id := range ids {
		out[id] = i + 1
	}
	return out
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
