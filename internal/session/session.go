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

// Package session owns the per-recording Session and its RecordingState sum
// type (spec.md §3, §4.4). Grounded on original_source/xlab-core/src/
// options.rs (RecordOptions, the fields a recording snapshots at start) and
// the atomic/mutex field idiom of the teacher's CamWindow
// (_examples/e1z0-QAnotherRTSP/src/camera.go: "recording atomic.Bool",
// "recMu sync.Mutex").
package session

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/e1z0/xlabrecorder/internal/prefs"
)

const sessionIDLength = 12

// sessionIDAlphabet restricts generated IDs to spec.md §4.5's
// "[A-Za-z0-9]" alphabet.
const sessionIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// StateKind is the tag of the RecordingState sum type (spec.md §3):
// Idle | Recording(started_at) | Done(elapsed).
type StateKind int

const (
	Idle StateKind = iota
	Recording
	Done
)

func (k StateKind) String() string {
	switch k {
	case Idle:
		return "Idle"
	case Recording:
		return "Recording"
	case Done:
		return "Done"
	default:
		return "Unknown"
	}
}

// State is an immutable snapshot of the recording state machine. StartedAt
// is populated only when Kind == Recording; Elapsed only when Kind == Done.
type State struct {
	Kind      StateKind
	StartedAt time.Time // monotonic (time.Now(); Go's monotonic reading is implicit)
	Elapsed   time.Duration
}

// Session is constructed fresh on every start_recording and supplants any
// prior session (spec.md §3: "replaces the prior session"). All exported
// methods are safe for concurrent use.
type Session struct {
	Prefs     prefs.Snapshot
	SessionID string
	CacheDir  string
	OutputDir string

	frameCounter atomic.Uint64

	mu        sync.Mutex
	state     State
	frameRate uint32 // mutable copy of Prefs.FrameRate; §4.4 stop may correct it
}

// New constructs a Session rooted under appCacheDir, snapshotting snap.
// The session starts in the Idle state; callers must call Start to begin
// counting frames.
func New(appCacheDir string, snap prefs.Snapshot) (*Session, error) {
	id, err := gonanoid.Generate(sessionIDAlphabet, sessionIDLength)
	if err != nil {
		return nil, fmt.Errorf("session: generate id: %w", err)
	}
	s := &Session{
		Prefs:     snap,
		SessionID: id,
		CacheDir:  fmt.Sprintf("%s/cache_%s", appCacheDir, id),
		OutputDir: fmt.Sprintf("%s/recordings", appCacheDir),
		frameRate: snap.FrameRate,
	}
	s.state = State{Kind: Idle}
	return s, nil
}

// Start transitions Idle → Recording(now). Starting while already Recording
// is a no-op (spec.md §9 open question, resolved in favor of no-op): it
// returns false and leaves the existing started_at untouched.
func (s *Session) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Kind == Recording {
		return false
	}
	s.state = State{Kind: Recording, StartedAt: time.Now()}
	return true
}

// frameRateCorrectionThreshold is the elapsed-time floor below which
// stop_recording does not trust the observed cadence enough to correct the
// configured frame rate (spec.md §4.4: "AND elapsed > 2 s").
const frameRateCorrectionThreshold = 2 * time.Second

// Stop transitions Recording → Done(elapsed) and applies the frame-rate
// correction of spec.md §4.4. It returns the elapsed duration and the
// (possibly corrected) frame rate to use for encoding. Calling Stop when
// not Recording is a caller bug; it still transitions to Done(0) rather
// than panicking, since spec.md does not specify a failure mode here.
func (s *Session) Stop() (time.Duration, uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var elapsed time.Duration
	if s.state.Kind == Recording {
		elapsed = time.Since(s.state.StartedAt)
	}
	s.state = State{Kind: Done, Elapsed: elapsed}

	if elapsed > frameRateCorrectionThreshold {
		observed := float64(s.frameCounter.Load()) / elapsed.Seconds()
		configured := float64(s.frameRate)
		if math.Abs(observed-configured) > 1.0 {
			s.frameRate = uint32(math.Floor(observed))
		}
	}
	return elapsed, s.frameRate
}

// Discard transitions Done → Idle (spec.md §3: "Done → Idle on discard").
func (s *Session) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{Kind: Idle}
}

// MarkSaved transitions Done → Idle for a save (spec.md §3: "Done → Idle on
// successful save"). App.SaveRecording calls it once the save request is
// snapshotted, before the save worker runs.
func (s *Session) MarkSaved() {
	s.Discard()
}

// NextFrameCount atomically increments and returns the frame counter
// (spec.md §4.4). Only the capture worker calls this.
func (s *Session) NextFrameCount() uint64 {
	return s.frameCounter.Add(1)
}

// FrameCount returns the current counter value without incrementing it.
func (s *Session) FrameCount() uint64 {
	return s.frameCounter.Load()
}

// RecordingState returns a snapshot of the current state.
func (s *Session) RecordingState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// FrameRate returns the (possibly stop-corrected) frame rate to use for
// encoding this session.
func (s *Session) FrameRate() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameRate
}
