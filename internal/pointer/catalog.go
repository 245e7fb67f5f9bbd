/* SPDX-License-Identifier: GPL-3.0-or-later
 *
 * xlabrecorder
 * Copyright (C) 2025 e1z0 <e1z0@icloud.com>
 *
 * This file is part of xlabrecorder.
 *
 * xlabrecorder is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * xlabrecorder is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with xlabrecorder.  If not, see <https://www.gnu.org/licenses/>.
 */
package pointer

import (
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/draw"
)

// Catalog sizes and working resolution, ported from
// original_source/xlab-core/src/user.rs (size_1..size_4, temp_size=361).
const (
	workingSize = 361
	ringSize    = 35
	crossSize   = 27
	ringsSize   = 36
	diamondSize = 21
)

var (
	catalogOnce sync.Once
	catalog     []Pointer
)

// Catalog returns the fixed, ordered list of built-in pointers: Invisible,
// System, Ring, Cross, Rings, Diamond (spec.md §4.2). It is computed once
// and cached for the process lifetime — the procedural draws are not cheap
// enough to repeat per access.
func Catalog() []Pointer {
	catalogOnce.Do(func() {
		catalog = []Pointer{
			Invisible,
			System,
			newCatalogEntry(drawRing(workingSize), ringSize),
			newCatalogEntry(drawCross(workingSize), crossSize),
			newCatalogEntry(drawRings(workingSize), ringsSize),
			newCatalogEntry(drawDiamond(workingSize), diamondSize),
		}
	})
	return catalog
}

// newCatalogEntry resamples a large procedurally-drawn glyph down to its
// final size and assigns the center as hotspot, per spec.md §4.2 ("for a
// size-s glyph, (s/2, s/2)").
func newCatalogEntry(working *image.RGBA, size int) Pointer {
	img := resample(working, size, size)
	return NewSolid(img, image.Pt(size/2, size/2))
}

// resample bilinearly resizes src to w x h (spec.md §4.2: "rendered at a
// large working size and then bilinearly resampled").
func resample(src *image.RGBA, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

// drawRing draws two concentric circles: a solid inner disc and a
// translucent outer ring. Ported from user.rs draw_pointer_1.
func drawRing(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	innerRadius := 30
	outerRadius := size / 2
	center := size / 2

	inner := color.RGBA{215, 85, 0, 255}
	outer := color.RGBA{215, 85, 0, 75}

	for i := -outerRadius; i <= outerRadius; i++ {
		for j := -outerRadius; j <= outerRadius; j++ {
			distSq := i*i + j*j
			if distSq > outerRadius*outerRadius {
				continue
			}
			c := outer
			if distSq <= innerRadius*innerRadius {
				c = inner
			}
			setIfInBounds(img, center+i, center+j, c)
		}
	}
	return img
}

// drawCross draws a thick cross with a translucent outer edge. Ported from
// user.rs draw_pointer_2.
func drawCross(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	padding := size / 32
	thick := size / 8
	length := size / 2
	center := size / 2

	core := color.RGBA{0, 0, 0, 255}
	outer := color.RGBA{255, 255, 255, 120}

	innerLength := length - 2*(size/25)
	innerThick := thick - 2*padding

	abs := func(v int) int {
		if v < 0 {
			return -v
		}
		return v
	}

	for i := -length; i <= length; i++ {
		for j := -thick; j <= thick; j++ {
			c := core
			if abs(i) > innerLength || (abs(i) > thick && abs(j) > innerThick) {
				c = outer
			}
			setIfInBounds(img, center+i, center+j, c)
			setIfInBounds(img, center+j, center+i, c)
		}
	}
	return img
}

// drawRings draws three concentric ring outlines; the center inside the
// smallest ring is left empty. Ported from user.rs draw_pointer_3.
func drawRings(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	thickness := 24
	radii := [3]int{size / 6, size / 3, size / 2}
	center := size / 2
	c := color.RGBA{0, 0, 0, 255}

	for _, radius := range radii {
		inner := radius - thickness
		for i := -radius; i <= radius; i++ {
			for j := -radius; j <= radius; j++ {
				distSq := i*i + j*j
				if distSq <= radius*radius && distSq >= inner*inner {
					setIfInBounds(img, center+i, center+j, c)
				}
			}
		}
	}
	return img
}

// drawDiamond draws a diagonal lattice: a wide white padding band behind a
// narrower black diagonal cross. Ported from user.rs draw_pointer_4.
func drawDiamond(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	thickness := 22
	padding := 44

	core := color.RGBA{0, 0, 0, 255}
	edge := color.RGBA{255, 255, 255, 255}

	abs := func(v int) int {
		if v < 0 {
			return -v
		}
		return v
	}

	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			if abs(i-j) < padding || abs(i+j-size) < padding {
				img.SetRGBA(i, j, edge)
			}
		}
	}
	for i := 11; i < size-11; i++ {
		for j := 11; j < size-11; j++ {
			if abs(i-j) < thickness || abs(i+j-size) < thickness {
				img.SetRGBA(i, j, core)
			}
		}
	}
	return img
}

func setIfInBounds(img *image.RGBA, x, y int, c color.RGBA) {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X || y < b.Min.Y || y >= b.Max.Y {
		return
	}
	img.SetRGBA(x, y, c)
}
