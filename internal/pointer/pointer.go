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
// Package pointer renders the cursor glyph composited onto each captured
// frame and holds the fixed catalog of built-in glyphs.
//
// Grounded on _examples/original_source/xlab-core/src/options.rs (the
// Pointer trait and its three variants) and src/user.rs (the procedural
// glyph generators and the catalog order), translated from Rust's
// trait-object-per-variant into a closed Go sum type, per spec.md's design
// note that the set is closed and a tagged variant "maps cleanly".
package pointer

import (
	"image"
)

// Kind identifies which variant a Pointer is. The set is closed: spec.md
// §9 prefers a tagged variant over an interface because no external code
// adds new kinds.
type Kind int

const (
	KindInvisible Kind = iota
	KindSystem
	KindSolid
)

// Glyph is an immutable RGBA raster plus its hotspot — the pixel that maps
// onto the logical cursor position when composited (spec.md §3).
type Glyph struct {
	Image   *image.RGBA
	Hotspot image.Point
}

// Pointer is the closed sum type of spec.md §3: Invisible (no-op), Solid
// (fixed glyph), System (OS cursor capture — stubbed to a placeholder, see
// degrade below). Pointers are immutable after construction and safe to
// share by value or pointer across goroutines.
type Pointer struct {
	Kind  Kind
	Glyph Glyph // populated only when Kind == KindSolid
}

// Invisible is the no-op pointer: composite does nothing.
var Invisible = Pointer{Kind: KindInvisible}

// System models the OS cursor. Actually reading the system cursor bitmap
// requires a platform-specific capture API that spec.md §9 explicitly
// treats as a future extension, not a required behavior; this degrades to
// the same placeholder the original Rust implementation used — a blank
// (transparent black) 16x16 image blended at the cursor position with a
// forced alpha of 255, which leaves an opaque black square in the frame
// (original_source/xlab-core/src/options.rs SystemPointer::resolve, which
// hardcodes depth=255 against a blank RgbaImage rather than reading the
// glyph's own alpha channel).
var System = Pointer{Kind: KindSystem}

// NewSolid builds a fixed-glyph pointer from img and hotspot.
func NewSolid(img *image.RGBA, hotspot image.Point) Pointer {
	return Pointer{Kind: KindSolid, Glyph: Glyph{Image: img, Hotspot: hotspot}}
}

const systemPlaceholderSize = 16

// Composite blends p onto frame at cursor, per spec.md §4.1: for each glyph
// pixel (x,y) the destination is (cursor.X + x - hotspot.X, cursor.Y + y -
// hotspot.Y); pixels landing outside frame bounds are skipped; color uses a
// premultiplied blend in unsigned 32-bit arithmetic to avoid overflow.
func (p Pointer) Composite(frame *image.RGBA, cursor image.Point) {
	switch p.Kind {
	case KindInvisible:
		return
	case KindSystem:
		blendSquare(frame, cursor, systemPlaceholderSize)
	case KindSolid:
		blendGlyph(frame, p.Glyph, cursor)
	}
}

// blendGlyph implements the general alpha-blend contract of spec.md §4.1.
func blendGlyph(frame *image.RGBA, g Glyph, cursor image.Point) {
	img := g.Image
	bounds := img.Bounds()
	fb := frame.Bounds()

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		dy := cursor.Y + (y - bounds.Min.Y) - g.Hotspot.Y
		if dy < fb.Min.Y || dy >= fb.Max.Y {
			continue
		}
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dx := cursor.X + (x - bounds.Min.X) - g.Hotspot.X
			if dx < fb.Min.X || dx >= fb.Max.X {
				continue
			}
			si := img.PixOffset(x, y)
			src := img.Pix[si : si+4 : si+4]
			a := uint32(src[3])
			blendPixel(frame, dx, dy, src, a)
		}
	}
}

// blendSquare stamps a size x size fully-transparent-black square at
// cursor with a forced alpha of 255, matching the original SystemPointer
// stub (it never reads the placeholder glyph's own, all-zero alpha).
func blendSquare(frame *image.RGBA, cursor image.Point, size int) {
	fb := frame.Bounds()
	var src [4]byte // transparent black
	for y := 0; y < size; y++ {
		dy := cursor.Y + y
		if dy < fb.Min.Y || dy >= fb.Max.Y {
			continue
		}
		for x := 0; x < size; x++ {
			dx := cursor.X + x
			if dx < fb.Min.X || dx >= fb.Max.X {
				continue
			}
			blendPixel(frame, dx, dy, src[:], 255)
		}
	}
}

// blendPixel applies the premultiplied blend formula of spec.md §4.1 to a
// single destination pixel, with arithmetic in unsigned 32-bit to avoid
// overflow and truncation to uint8 on write.
func blendPixel(frame *image.RGBA, x, y int, src []byte, a uint32) {
	di := frame.PixOffset(x, y)
	dst := frame.Pix[di : di+4 : di+4]

	sr, sg, sb := uint32(src[0]), uint32(src[1]), uint32(src[2])
	dr, dg, db, da := uint32(dst[0]), uint32(dst[1]), uint32(dst[2]), uint32(dst[3])

	dst[0] = uint8((sr*a + dr*(255-a)) / 255)
	dst[1] = uint8((sg*a + dg*(255-a)) / 255)
	dst[2] = uint8((sb*a + db*(255-a)) / 255)
	dst[3] = uint8((255*a + 255*da - a*da) / 255)
}
