package contentmask

import "math"

// boundary returns the subset of a component's pixels that touch a
// non-forbidden (or off-mask) neighbor — its outer border, the input a
// contour-tracing step would otherwise walk edge-by-edge.
func boundary(c Component, width, height int, has func(x, y int) bool) []point {
	out := make([]point, 0, len(c.pixels)/2+1)
	for _, p := range c.pixels {
		border := p.x == 0 || p.y == 0 || p.x == width-1 || p.y == height-1
		if !border {
			border = !has(p.x-1, p.y) || !has(p.x+1, p.y) || !has(p.x, p.y-1) || !has(p.x, p.y+1)
		}
		if border {
			out = append(out, p)
		}
	}
	return out
}

// convexHull computes the convex hull of a point set via the monotone chain
// algorithm, returning vertices in counter-clockwise order.
func convexHull(pts []point) []point {
	if len(pts) < 3 {
		return pts
	}
	sorted := append([]point(nil), pts...)
	sortPoints(sorted)

	cross := func(o, a, b point) int {
		return (a.x-o.x)*(b.y-o.y) - (a.y-o.y)*(b.x-o.x)
	}

	var lower, upper []point
	for _, p := range sorted {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		p := sorted[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}
	lower = lower[:len(lower)-1]
	upper = upper[:len(upper)-1]
	return append(lower, upper...)
}

func sortPoints(pts []point) {
	// simple insertion sort by (x,y); hull inputs are small border sets.
	for i := 1; i < len(pts); i++ {
		j := i
		for j > 0 && less(pts[j], pts[j-1]) {
			pts[j], pts[j-1] = pts[j-1], pts[j]
			j--
		}
	}
}

func less(a, b point) bool {
	if a.x != b.x {
		return a.x < b.x
	}
	return a.y < b.y
}

// approxPolygon simplifies a closed polygon with the Douglas-Peucker
// algorithm, tolerance expressed as a fraction of the polygon's perimeter,
// matching the spec's "approximate each contour to a polygon with tolerance
// 0.04 × perimeter" step.
func approxPolygon(poly []point, toleranceFrac float64) []point {
	if len(poly) < 3 {
		return poly
	}
	perim := perimeter(poly)
	tol := toleranceFrac * perim
	if tol <= 0 {
		return poly
	}
	// Simplify the vertex list as one open chain from its first to its last
	// vertex; the closing edge from last back to first is kept as is.
	n := len(poly)
	simplified := dpSimplify(poly, tol)
	if len(simplified) > 1 && simplified[0] == simplified[len(simplified)-1] {
		simplified = simplified[:len(simplified)-1]
	}
	if len(simplified) == 0 && n > 0 {
		return poly[:1]
	}
	return simplified
}

func dpSimplify(pts []point, tol float64) []point {
	if len(pts) < 3 {
		return pts
	}
	first, last := pts[0], pts[len(pts)-1]
	maxDist, idx := -1.0, -1
	for i := 1; i < len(pts)-1; i++ {
		d := perpDistance(pts[i], first, last)
		if d > maxDist {
			maxDist, idx = d, i
		}
	}
	if maxDist <= tol {
		return []point{first, last}
	}
	left := dpSimplify(pts[:idx+1], tol)
	right := dpSimplify(pts[idx:], tol)
	return append(left[:len(left)-1], right...)
}

func perpDistance(p, a, b point) float64 {
	dx, dy := float64(b.x-a.x), float64(b.y-a.y)
	if dx == 0 && dy == 0 {
		return math.Hypot(float64(p.x-a.x), float64(p.y-a.y))
	}
	num := math.Abs(float64(p.x-a.x)*dy - float64(p.y-a.y)*dx)
	return num / math.Hypot(dx, dy)
}

func perimeter(poly []point) float64 {
	p := 0.0
	for i := range poly {
		j := (i + 1) % len(poly)
		p += math.Hypot(float64(poly[j].x-poly[i].x), float64(poly[j].y-poly[i].y))
	}
	return p
}

// isConvex reports whether poly's interior-angle turns are all the same
// sign, i.e. it never bends the "wrong way".
func isConvex(poly []point) bool {
	if len(poly) < 3 {
		return false
	}
	n := len(poly)
	sign := 0
	for i := 0; i < n; i++ {
		a, b, c := poly[i], poly[(i+1)%n], poly[(i+2)%n]
		cr := (b.x-a.x)*(c.y-b.y) - (b.y-a.y)*(c.x-b.x)
		if cr == 0 {
			continue
		}
		s := 1
		if cr < 0 {
			s = -1
		}
		if sign == 0 {
			sign = s
		} else if s != sign {
			return false
		}
	}
	return sign != 0
}
