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

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"time"
)

// errNoMouseAPI is returned by platform mouse sources that have no native
// cursor-position API wired; Loop maps this to (0,0) per spec.md §4.6.
var errNoMouseAPI = errors.New("capture: no native mouse-position api wired")

// execToolSource shells out to an external screenshot tool, writing to a
// scratch file and decoding the result, falling back to a synthetic test
// pattern on any failure. Grounded on
// _examples/other_examples/avaropoint-rmm's captureScreenMacOS/Linux: try
// the tool, on error fall back, never propagate the exec failure upward.
type execToolSource struct {
	tmpPattern string // e.g. "/tmp/xlabrecorder-screen-%d.png"
	build      func(tmpFile string) *exec.Cmd
	aspect     float64
}

func (s *execToolSource) Capture() (*image.RGBA, error) {
	tmpFile := fmt.Sprintf(s.tmpPattern, time.Now().UnixNano())
	defer os.Remove(tmpFile)

	cmd := s.build(tmpFile)
	if err := cmd.Run(); err != nil {
		return generateTestPattern(), nil
	}

	f, err := os.Open(tmpFile)
	if err != nil {
		return generateTestPattern(), nil
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return generateTestPattern(), nil
	}
	return toRGBA(img), nil
}

func (s *execToolSource) Aspect() float64 {
	return s.aspect
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			rgba.Set(x, y, img.At(x, y))
		}
	}
	return rgba
}
