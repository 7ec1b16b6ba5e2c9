package raster

import "testing"

func TestIntegralMaskMatchesNaiveSum(t *testing.T) {
	m := NewMask(10, 8)
	m.SetRect(2, 2, 6, 5)
	m.Set(9, 7, 1)

	im := BuildIntegral(m)

	cases := [][4]int{
		{0, 0, 10, 8},
		{2, 2, 6, 5},
		{0, 0, 1, 1},
		{9, 7, 10, 8},
		{3, 3, 3, 3}, // empty rect
	}
	for _, c := range cases {
		x0, y0, x1, y1 := c[0], c[1], c[2], c[3]
		got := im.RectSum(x0, y0, x1, y1)
		want := naiveSum(m, x0, y0, x1, y1)
		if got != want {
			t.Errorf("RectSum(%d,%d,%d,%d) = %d, want %d", x0, y0, x1, y1, got, want)
		}
	}

	if im.Total() != m.Count() {
		t.Errorf("Total() = %d, want %d", im.Total(), m.Count())
	}
}

func naiveSum(m Mask, x0, y0, x1, y1 int) int {
	n := 0
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if m.At(x, y) != 0 {
				n++
			}
		}
	}
	return n
}

func TestUnion(t *testing.T) {
	a := NewMask(4, 4)
	a.Set(0, 0, 1)
	b := NewMask(4, 4)
	b.Set(3, 3, 1)

	u := Union(a, b)
	if u.At(0, 0) != 1 || u.At(3, 3) != 1 {
		t.Fatalf("union did not combine both masks")
	}
	if u.Count() != 2 {
		t.Fatalf("expected 2 forbidden pixels, got %d", u.Count())
	}
	// originals unmodified
	if a.At(3, 3) != 0 {
		t.Fatalf("Union mutated its first argument")
	}
}

func TestRectSumClampsToBounds(t *testing.T) {
	m := NewMask(5, 5)
	m.Fill(1)
	im := BuildIntegral(m)
	if got := im.RectSum(-10, -10, 100, 100); got != 25 {
		t.Fatalf("RectSum with out-of-bounds args = %d, want 25", got)
	}
}
