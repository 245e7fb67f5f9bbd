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

//go:build darwin

// Platform screen/mouse backend for macOS. Grounded on
// _examples/e1z0-QAnotherRTSP/src/darwin.go's build-tag split and
// _examples/other_examples/avaropoint-rmm's captureScreenMacOS (shell out to
// `screencapture`, fall back to a synthetic pattern on any failure).
package capture

import "os/exec"

// defaultAspect is used until a real display-geometry query is wired;
// macOS screen geometry requires CoreGraphics bindings this module does not
// carry (spec.md §9 treats exact system-cursor/display capture as best
// effort, not a hard requirement).
const defaultAspect = 16.0 / 9.0

// NewScreenSource returns the macOS screen-capture backend.
func NewScreenSource() ScreenSource {
	return &execToolSource{
		tmpPattern: "/tmp/xlabrecorder-screen-%d.png",
		aspect:     defaultAspect,
		build: func(tmpFile string) *exec.Cmd {
			return exec.Command("screencapture", "-x", "-t", "png", tmpFile)
		},
	}
}

// NewMouseSource returns the macOS mouse-position backend. No native cursor
// API is wired; Loop degrades to (0,0) per spec.md §4.6.
func NewMouseSource() PointerSource {
	return noMouseSource{}
}
