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

//go:build !darwin && !windows && !linux

// Fallback backend for any platform without a dedicated native capture
// path, mirroring _examples/e1z0-QAnotherRTSP/src/darwin_stub.go's
// "!darwin && !windows" stub file.
package capture

// NewScreenSource returns the synthetic test-pattern backend.
func NewScreenSource() ScreenSource {
	return testPatternSource{}
}

// NewMouseSource returns a mouse source with no native API wired.
func NewMouseSource() PointerSource {
	return noMouseSource{}
}
