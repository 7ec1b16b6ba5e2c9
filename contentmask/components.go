package contentmask

import "github.com/stampwise/stampwise/raster"

// Component is one 4-connected blob of forbidden pixels in a Mask.
type Component struct {
	MinX, MinY, MaxX, MaxY int // inclusive bounding box
	Area                    int
	pixels                  []point
}

type point struct{ x, y int }

func (c Component) Width() int  { return c.MaxX - c.MinX + 1 }
func (c Component) Height() int { return c.MaxY - c.MinY + 1 }

// connectedComponents labels 4-connected blobs of forbidden pixels in m via
// a union-find pass, matching the spec's allowance to hand-roll component
// labeling when no image library is available.
func connectedComponents(m raster.Mask) []Component {
	w, h := m.Width, m.Height
	parent := make([]int, w*h)
	for i := range parent {
		parent[i] = -1
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	idx := func(x, y int) int { return y*w + x }
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if m.At(x, y) == 0 {
				continue
			}
			i := idx(x, y)
			parent[i] = i
			if x > 0 && m.At(x-1, y) != 0 {
				union(i, idx(x-1, y))
			}
			if y > 0 && m.At(x, y-1) != 0 {
				union(i, idx(x, y-1))
			}
		}
	}

	byRoot := make(map[int]*Component)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if m.At(x, y) == 0 {
				continue
			}
			root := find(idx(x, y))
			c, ok := byRoot[root]
			if !ok {
				c = &Component{MinX: x, MinY: y, MaxX: x, MaxY: y}
				byRoot[root] = c
			}
			if x < c.MinX {
				c.MinX = x
			}
			if x > c.MaxX {
				c.MaxX = x
			}
			if y < c.MinY {
				c.MinY = y
			}
			if y > c.MaxY {
				c.MaxY = y
			}
			c.Area++
			c.pixels = append(c.pixels, point{x, y})
		}
	}

	out := make([]Component, 0, len(byRoot))
	for _, c := range byRoot {
		out = append(out, *c)
	}
	return out
}

// fillRect marks [x0,x1]×[y0,y1] (inclusive) forbidden.
func fillRect(m raster.Mask, x0, y0, x1, y1 int) {
	m.SetRect(x0, y0, x1+1, y1+1)
}

// fillComponent marks c's actual pixel footprint forbidden, as opposed to
// fillRect's bounding box — the difference matters for non-rectangular
// components (a rotated photo, a diagonal chart) where the bounding box
// over-masks pixels the component never touched.
func fillComponent(m raster.Mask, c Component) {
	for _, p := range c.pixels {
		m.Set(p.x, p.y, 1)
	}
}
