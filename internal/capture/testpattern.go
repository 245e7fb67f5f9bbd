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
package capture

import "image"

const (
	testPatternWidth  = 1280
	testPatternHeight = 720
)

// generateTestPattern synthesizes a gradient-and-grid frame for use when no
// native screen-capture tool is available, ported from
// _examples/other_examples/avaropoint-rmm's generateTestPattern (direct
// pixel-buffer writes, no per-pixel image.Set).
func generateTestPattern() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, testPatternWidth, testPatternHeight))
	pix := img.Pix
	stride := img.Stride

	for y := 0; y < testPatternHeight; y++ {
		g := uint8(50 + (y * 100 / testPatternHeight))
		off := y * stride
		for x := 0; x < testPatternWidth; x++ {
			i := off + x*4
			pix[i+0] = uint8(50 + (x * 100 / testPatternWidth))
			pix[i+1] = g
			pix[i+2] = 100
			pix[i+3] = 255
		}
	}

	for x := 0; x < testPatternWidth; x += 50 {
		for y := 0; y < testPatternHeight; y++ {
			i := y*stride + x*4
			pix[i], pix[i+1], pix[i+2], pix[i+3] = 255, 255, 255, 100
		}
	}
	for y := 0; y < testPatternHeight; y += 50 {
		off := y * stride
		for x := 0; x < testPatternWidth; x++ {
			i := off + x*4
			pix[i], pix[i+1], pix[i+2], pix[i+3] = 255, 255, 255, 100
		}
	}

	return img
}

// testPatternSource is the terminal fallback ScreenSource used on any
// platform (or in any environment) where no native capture tool is found.
type testPatternSource struct{}

func (testPatternSource) Capture() (*image.RGBA, error) {
	return generateTestPattern(), nil
}

func (testPatternSource) Aspect() float64 {
	return float64(testPatternWidth) / float64(testPatternHeight)
}

// noMouseSource reports no platform mouse API is wired; Loop treats any
// error from Position as (0,0) per spec.md §4.6.
type noMouseSource struct{}

func (noMouseSource) Position() (image.Point, error) {
	return image.Point{}, errNoMouseAPI
}
