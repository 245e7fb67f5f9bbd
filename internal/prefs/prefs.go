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

// Package prefs holds the mutable recording preferences (resolution, frame
// rate, selected pointer) described by spec.md §4.3. The original Rust
// implementation lazily initializes a process-wide static; this rewrite
// re-expresses that as an explicit struct owned by the App (spec.md §9
// design note), constructed once at boot and shared by pointer, not by
// package-level state.
package prefs

import (
	"math"
	"sync"
)

// heights is the fixed set of candidate target heights spec.md §4.3 names.
var heights = [8]int{144, 240, 360, 480, 720, 1080, 1440, 2160}

// FrameRates is the closed set of valid frame rates (spec.md §3).
var FrameRates = [4]uint32{15, 24, 30, 60}

// DefaultFrameRate is the rate Prefs starts with. The Rust original
// (original_source/xlab-core/src/user.rs) defaults to 32, which is not a
// member of spec.md's valid set {15,24,30,60}; 30 is the closest valid
// value and is used here instead.
const DefaultFrameRate uint32 = 30

// DefaultHeightIndex selects 720p as the initial resolution.
const DefaultHeightIndex = 4 // heights[4] == 720

// Resolution is a (width, height) pair in pixels.
type Resolution struct {
	Width  int
	Height int
}

// Prefs is the mutex-guarded, process-wide recording configuration.
// Zero value is not usable; construct with New.
type Prefs struct {
	mu sync.Mutex

	displayAspect float64 // width / height of the primary monitor, fixed at New

	resolution   Resolution
	frameRate    uint32
	pointerIndex int
}

// New builds Prefs with defaults, given the primary monitor's aspect ratio
// (obtained once per process, per spec.md §4.3). displayAspect must be > 0.
func New(displayAspect float64) *Prefs {
	p := &Prefs{displayAspect: displayAspect}
	h := heights[DefaultHeightIndex]
	p.resolution = Resolution{Width: evenWidth(h, displayAspect), Height: h}
	p.frameRate = DefaultFrameRate
	p.pointerIndex = 0
	return p
}

func evenWidth(height int, aspect float64) int {
	w := int(math.Round(float64(height) * aspect))
	return w &^ 1
}

// ValidResolutions returns the 8 target heights paired with width computed
// from the display aspect fixed at construction (spec.md §4.3).
func (p *Prefs) ValidResolutions() []Resolution {
	out := make([]Resolution, len(heights))
	for i, h := range heights {
		out[i] = Resolution{Width: evenWidth(h, p.displayAspect), Height: h}
	}
	return out
}

// Resolution returns the current target resolution.
func (p *Prefs) Resolution() Resolution {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resolution
}

// UpdateResolution stores (w,h), forcing w to even (spec.md §4.3: "forces
// w ← w & ~1"; required by the encoder's 4:2:0 chroma subsampling).
func (p *Prefs) UpdateResolution(w, h int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resolution = Resolution{Width: w &^ 1, Height: h}
}

// FrameRate returns the current frame rate.
func (p *Prefs) FrameRate() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frameRate
}

// UpdateFrameRate stores r verbatim; spec.md §4.3 places no validation
// burden on this operation ("stores").
func (p *Prefs) UpdateFrameRate(r uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frameRate = r
}

// PointerIndex returns the currently selected pointer catalog index.
func (p *Prefs) PointerIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pointerIndex
}

// UpdatePointerIndex stores idx. Per spec.md §4.3, an out-of-range idx is a
// caller bug, not a condition this method defends against.
func (p *Prefs) UpdatePointerIndex(idx int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pointerIndex = idx
}

// Snapshot is an immutable copy of Prefs taken at a point in time, used by
// Session to freeze the configuration a recording started with (spec.md
// §3: "snapshot of Prefs at start time").
type Snapshot struct {
	Resolution   Resolution
	FrameRate    uint32
	PointerIndex int
}

// Snapshot captures the current preferences atomically.
func (p *Prefs) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		Resolution:   p.resolution,
		FrameRate:    p.frameRate,
		PointerIndex: p.pointerIndex,
	}
}
