package contentmask

import "github.com/stampwise/stampwise/raster"

// absLaplacian computes the discrete Laplacian of g with the standard 4-
// neighbor kernel [[0,1,0],[1,-4,1],[0,1,0]] and returns its absolute value,
// clamped to a byte. Border pixels (no full neighborhood) are zero.
func absLaplacian(g raster.Gray) raster.Gray {
	out := raster.NewGray(g.Width, g.Height)
	for y := 1; y < g.Height-1; y++ {
		for x := 1; x < g.Width-1; x++ {
			center := int(g.At(x, y))
			sum := int(g.At(x-1, y)) + int(g.At(x+1, y)) + int(g.At(x, y-1)) + int(g.At(x, y+1)) - 4*center
			if sum < 0 {
				sum = -sum
			}
			if sum > 255 {
				sum = 255
			}
			out.Set(x, y, byte(sum))
		}
	}
	return out
}

// thresholdAbove marks pixels whose value is strictly above thresh.
func thresholdAbove(g raster.Gray, thresh byte) raster.Mask {
	m := raster.NewMask(g.Width, g.Height)
	for i, v := range g.Pix {
		if v > thresh {
			m.Bits[i] = 1
		}
	}
	return m
}

// thresholdBelow marks pixels whose value is strictly below thresh, the
// ink-candidate predicate behind the text pre-binarization step.
func thresholdBelow(g raster.Gray, thresh byte) raster.Mask {
	m := raster.NewMask(g.Width, g.Height)
	for i, v := range g.Pix {
		if v < thresh {
			m.Bits[i] = 1
		}
	}
	return m
}

// regionVariance returns the population variance of g's values inside
// [x0,x1)×[y0,y1), clamped to bounds.
func regionVariance(g raster.Gray, x0, y0, x1, y1 int) float64 {
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > g.Width {
		x1 = g.Width
	}
	if y1 > g.Height {
		y1 = g.Height
	}
	n := 0
	sum, sumSq := 0.0, 0.0
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			v := float64(g.At(x, y))
			sum += v
			sumSq += v * v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	mean := sum / float64(n)
	return sumSq/float64(n) - mean*mean
}
