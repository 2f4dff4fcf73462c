package preview

import (
	"fmt"
	"image"
)

// CompareResult summarizes a pixel comparison.
type CompareResult struct {
	Match           bool
	DifferentPixels int
	TotalPixels     int
	MaxDifference   int // largest 8-bit channel difference seen
}

// Compare reports how many pixels of actual differ from expected by more
// than tolerance in any 8-bit channel. Images of different bounds do not
// compare.
func Compare(actual, expected image.Image, tolerance int) (CompareResult, error) {
	ab, eb := actual.Bounds(), expected.Bounds()
	if ab != eb {
		return CompareResult{}, fmt.Errorf("image dimensions differ: actual=%v, expected=%v", ab, eb)
	}

	res := CompareResult{Match: true, TotalPixels: ab.Dx() * ab.Dy()}
	for y := ab.Min.Y; y < ab.Max.Y; y++ {
		for x := ab.Min.X; x < ab.Max.X; x++ {
			d := channelDiff(actual, expected, x, y)
			if d > res.MaxDifference {
				res.MaxDifference = d
			}
			if d > tolerance {
				res.Match = false
				res.DifferentPixels++
			}
		}
	}
	return res, nil
}

func channelDiff(a, b image.Image, x, y int) int {
	ar, ag, ab, aa := a.At(x, y).RGBA()
	br, bg, bb, ba := b.At(x, y).RGBA()
	return max(
		absDiff(ar>>8, br>>8),
		absDiff(ag>>8, bg>>8),
		absDiff(ab>>8, bb>>8),
		absDiff(aa>>8, ba>>8),
	)
}

func absDiff(a, b uint32) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
