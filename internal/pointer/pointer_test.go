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
	"testing"
)

func solidFrame(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestInvisibleLeavesFrameUnchanged(t *testing.T) {
	frame := solidFrame(10, 10, color.RGBA{10, 20, 30, 255})
	before := append([]byte(nil), frame.Pix...)

	Invisible.Composite(frame, image.Pt(5, 5))

	for i := range before {
		if frame.Pix[i] != before[i] {
			t.Fatalf("invisible pointer modified frame at byte %d", i)
		}
	}
}

func TestCompositeClipsOutOfBounds(t *testing.T) {
	frame := solidFrame(10, 10, color.RGBA{0, 0, 0, 255})
	glyph := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			glyph.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	p := NewSolid(glyph, image.Pt(2, 2))

	// Cursor near the bottom-right corner so most of the glyph falls outside
	// frame bounds; Composite must not panic and must only touch in-bounds
	// pixels (spec.md §4.1 edge case: partially or fully off-frame cursor).
	p.Composite(frame, image.Pt(9, 9))

	if c := frame.RGBAAt(9, 9); c.R != 255 || c.A != 255 {
		t.Fatalf("expected in-bounds pixel blended, got %+v", c)
	}
}

func TestBlendPixelFullyOpaqueSourceReplaces(t *testing.T) {
	frame := solidFrame(1, 1, color.RGBA{1, 2, 3, 255})
	src := []byte{9, 8, 7, 255}
	blendPixel(frame, 0, 0, src, 255)

	got := frame.RGBAAt(0, 0)
	if got.R != 9 || got.G != 8 || got.B != 7 || got.A != 255 {
		t.Fatalf("fully opaque source should fully replace dest, got %+v", got)
	}
}

func TestBlendPixelFullyTransparentSourceLeavesDest(t *testing.T) {
	frame := solidFrame(1, 1, color.RGBA{1, 2, 3, 255})
	src := []byte{9, 8, 7, 0}
	blendPixel(frame, 0, 0, src, 0)

	got := frame.RGBAAt(0, 0)
	if got.R != 1 || got.G != 2 || got.B != 3 {
		t.Fatalf("fully transparent source should leave dest unchanged, got %+v", got)
	}
}

func TestCatalogOrderAndSizes(t *testing.T) {
	cat := Catalog()
	if len(cat) != 6 {
		t.Fatalf("expected 6 catalog entries, got %d", len(cat))
	}
	if cat[0].Kind != KindInvisible || cat[1].Kind != KindSystem {
		t.Fatalf("catalog must start with Invisible, System")
	}

	wantSizes := []int{ringSize, crossSize, ringsSize, diamondSize}
	for i, want := range wantSizes {
		p := cat[2+i]
		if p.Kind != KindSolid {
			t.Fatalf("entry %d: expected solid pointer", 2+i)
		}
		b := p.Glyph.Image.Bounds()
		if b.Dx() != want || b.Dy() != want {
			t.Fatalf("entry %d: expected %dx%d glyph, got %dx%d", 2+i, want, want, b.Dx(), b.Dy())
		}
		if p.Glyph.Hotspot.X != want/2 || p.Glyph.Hotspot.Y != want/2 {
			t.Fatalf("entry %d: expected centered hotspot (%d,%d), got %v", 2+i, want/2, want/2, p.Glyph.Hotspot)
		}
	}
}

func TestCatalogIsCached(t *testing.T) {
	a := Catalog()
	b := Catalog()
	if len(a) != len(b) {
		t.Fatalf("catalog length changed between calls")
	}
	// Same backing array/slice identity (process-lifetime cache, spec.md §4.2).
	if &a[0] != &b[0] {
		t.Fatalf("expected Catalog() to return the cached slice, got distinct allocations")
	}
}
