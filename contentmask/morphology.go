package contentmask

import "github.com/stampwise/stampwise/raster"

// Dilate grows every forbidden region by a kw×kh rectangular structuring
// element centered on each pixel: a pixel becomes forbidden if any pixel in
// its window is forbidden. Rectangular structuring elements are separable,
// so this runs as a horizontal max-filter pass followed by a vertical one,
// each O(W*H) regardless of kernel size via a sliding window.
func Dilate(m raster.Mask, kw, kh int) raster.Mask {
	return slide(m, kw, kh, true)
}

// Erode shrinks every forbidden region: a pixel stays forbidden only if
// every pixel in its kw×kh window is forbidden.
func Erode(m raster.Mask, kw, kh int) raster.Mask {
	return slide(m, kw, kh, false)
}

// Open (erode then dilate) removes thin forbidden protrusions and isolated
// specks while preserving the bulk shape of larger regions.
func Open(m raster.Mask, kw, kh int) raster.Mask {
	return Dilate(Erode(m, kw, kh), kw, kh)
}

// Close (dilate then erode) fills thin gaps and small holes inside forbidden
// regions, e.g. joining individual glyphs into a single text-line blob.
func Close(m raster.Mask, kw, kh int) raster.Mask {
	return Erode(Dilate(m, kw, kh), kw, kh)
}

func slide(m raster.Mask, kw, kh int, dilate bool) raster.Mask {
	if kw < 1 {
		kw = 1
	}
	if kh < 1 {
		kh = 1
	}
	tmp := raster.NewMask(m.Width, m.Height)
	slideRows(m, tmp, kw, dilate)
	out := raster.NewMask(m.Width, m.Height)
	slideCols(tmp, out, kh, dilate)
	return out
}

func slideRows(src, dst raster.Mask, k int, dilate bool) {
	for y := 0; y < src.Height; y++ {
		row := make([]uint8, src.Width)
		for x := 0; x < src.Width; x++ {
			row[x] = src.At(x, y)
		}
		out := slideExtreme(row, k, dilate)
		for x := 0; x < src.Width; x++ {
			dst.Set(x, y, out[x])
		}
	}
}

func slideCols(src, dst raster.Mask, k int, dilate bool) {
	col := make([]uint8, src.Height)
	for x := 0; x < src.Width; x++ {
		for y := 0; y < src.Height; y++ {
			col[y] = src.At(x, y)
		}
		out := slideExtreme(col, k, dilate)
		for y := 0; y < src.Height; y++ {
			dst.Set(x, y, out[y])
		}
	}
}

// slideExtreme computes, for each index i, the max (dilate) or min (erode)
// of v over the window [i+k/2-k+1, i+k/2] (centered for odd k; for even k it
// reaches one index further right than left), clipped to v's bounds, using a
// monotonic deque so the whole pass is O(len(v)) regardless of k.
func slideExtreme(v []uint8, k int, dilate bool) []uint8 {
	n := len(v)
	out := make([]uint8, n)
	left := k / 2
	// deque of indices, values monotonically decreasing (dilate) or
	// increasing (erode) from front to back.
	deque := make([]int, 0, n)
	push := func(i int) {
		for len(deque) > 0 {
			last := deque[len(deque)-1]
			if (dilate && v[last] <= v[i]) || (!dilate && v[last] >= v[i]) {
				deque = deque[:len(deque)-1]
				continue
			}
			break
		}
		deque = append(deque, i)
	}
	windowEnd := n + left // iterate far enough to flush trailing windows
	for i := 0; i < windowEnd; i++ {
		if i < n {
			push(i)
		}
		lo := i - k + 1
		for len(deque) > 0 && deque[0] < lo {
			deque = deque[1:]
		}
		outIdx := i - left
		if outIdx >= 0 && outIdx < n {
			if len(deque) > 0 {
				out[outIdx] = v[deque[0]]
			}
		}
	}
	return out
}
