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
package app

import (
	"image"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/e1z0/xlabrecorder/internal/applog"
	"github.com/e1z0/xlabrecorder/internal/encoder"
	"github.com/e1z0/xlabrecorder/internal/history"
	"github.com/e1z0/xlabrecorder/internal/save"
	"github.com/e1z0/xlabrecorder/internal/session"
)

type fakeScreen struct {
	calls atomic.Int64
	w, h  int
}

func (f *fakeScreen) Capture() (*image.RGBA, error) {
	f.calls.Add(1)
	return image.NewRGBA(image.Rect(0, 0, f.w, f.h)), nil
}

func (f *fakeScreen) Aspect() float64 { return float64(f.w) / float64(f.h) }

type fakeMouse struct{}

func (fakeMouse) Position() (image.Point, error) { return image.Pt(1, 1), nil }

type fakeEncoder struct {
	appended atomic.Int64
}

func (f *fakeEncoder) Append(rgba []byte, pts int64) error {
	f.appended.Add(1)
	return nil
}

func (f *fakeEncoder) Finalize() error { return nil }

func newTestApp(t *testing.T) *App {
	t.Helper()
	screen := &fakeScreen{w: 320, h: 180}
	newEnc := func(outputPath string, fps int, target, source encoder.Resolution, cfg encoder.Config) (save.Encoder, error) {
		// Like the real encoder, leave a staging file for FinalizeSave to move.
		if err := os.WriteFile(outputPath, []byte("fake mp4"), 0o644); err != nil {
			return nil, err
		}
		return &fakeEncoder{}, nil
	}
	a, err := New(t.TempDir(), screen, fakeMouse{}, newEnc, applog.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func waitForState(t *testing.T, a *App, kind session.StateKind, timeout time.Duration) session.State {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		s := a.RecordingState()
		if s.Kind == kind {
			return s
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %s, last seen %s", kind, a.RecordingState().Kind)
	return session.State{}
}

func waitForSaveProgress(t *testing.T, a *App, kind save.ProgressKind, timeout time.Duration) save.Progress {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		p := a.SavingProgress()
		if p.Kind == kind {
			return p
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for save progress kind %d", kind)
	return save.Progress{}
}

// TestFullRecordingLifecycle covers S1: start, record briefly, stop, save,
// finalize, with a history entry at the end.
func TestFullRecordingLifecycle(t *testing.T) {
	a := newTestApp(t)
	a.UpdateFrameRate(60)

	if err := a.StartRecording(); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	waitForState(t, a, session.Recording, time.Second)

	time.Sleep(50 * time.Millisecond)

	if err := a.StopRecording(); err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	waitForState(t, a, session.Done, time.Second)

	if err := a.SaveRecording(); err != nil {
		t.Fatalf("SaveRecording: %v", err)
	}

	// SaveRecording moves the session back to Idle immediately (spec.md
	// §4.8 step 2), even while the save worker still runs.
	if got := a.RecordingState().Kind; got != session.Idle {
		t.Fatalf("expected session Idle right after SaveRecording, got %s", got)
	}

	waitForSaveProgress(t, a, save.StagingReady, time.Second)

	dest := filepath.Join(t.TempDir(), "out.mp4")
	if _, err := a.FinalizeSave(dest, 100*time.Millisecond, encoder.Resolution{Width: 640, Height: 480}); err != nil {
		t.Fatalf("FinalizeSave: %v", err)
	}

	videos := a.PastVideos()
	if len(videos) != 1 || videos[0].FilePath != dest {
		t.Fatalf("expected one history entry pointing at dest, got %+v", videos)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("expected finalized file at dest: %v", err)
	}
}

// TestDiscardAfterStop covers S2: discard after stop removes the cache and
// returns to Idle without touching history.
func TestDiscardAfterStop(t *testing.T) {
	a := newTestApp(t)

	if err := a.StartRecording(); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	waitForState(t, a, session.Recording, time.Second)
	time.Sleep(20 * time.Millisecond)

	if err := a.StopRecording(); err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	waitForState(t, a, session.Done, time.Second)

	cacheDir := a.cache.Dir()
	if _, err := os.Stat(cacheDir); err != nil {
		t.Fatalf("expected cache dir to exist before discard: %v", err)
	}

	if err := a.DiscardRecording(); err != nil {
		t.Fatalf("DiscardRecording: %v", err)
	}

	if got := a.RecordingState().Kind; got != session.Idle {
		t.Fatalf("expected Idle after discard, got %s", got)
	}
	if _, err := os.Stat(cacheDir); !os.IsNotExist(err) {
		t.Fatalf("expected cache dir removed after discard")
	}
	if len(a.PastVideos()) != 0 {
		t.Fatalf("discard must not append history")
	}
}

// TestConcurrentSaveRejected covers S4: a second save request while one is
// already running for the same (now Idle) session is rejected, and does not
// disturb the in-flight save's progress.
func TestConcurrentSaveRejected(t *testing.T) {
	a := newTestApp(t)

	if err := a.StartRecording(); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	waitForState(t, a, session.Recording, time.Second)
	time.Sleep(20 * time.Millisecond)
	if err := a.StopRecording(); err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	waitForState(t, a, session.Done, time.Second)

	if err := a.SaveRecording(); err != nil {
		t.Fatalf("first SaveRecording: %v", err)
	}

	// The session already moved to Idle, so a second SaveRecording call is
	// rejected by the session-state guard before it ever reaches the
	// manager's own in-flight guard.
	if err := a.SaveRecording(); err == nil {
		t.Fatalf("expected second SaveRecording to be rejected while session is Idle")
	}

	waitForSaveProgress(t, a, save.StagingReady, time.Second)
}

// TestRemovePreviousRecordingByIndex covers S5: history deletion.
func TestRemovePreviousRecordingByIndex(t *testing.T) {
	a := newTestApp(t)

	seedHistoryEntries(t, a)

	if err := a.RemovePreviousRecordingByIndex(0); err != nil {
		t.Fatalf("RemovePreviousRecordingByIndex: %v", err)
	}

	videos := a.PastVideos()
	if len(videos) != 1 || videos[0].FilePath != "/b.mp4" {
		t.Fatalf("expected only /b.mp4 to remain, got %+v", videos)
	}
}

func seedHistoryEntries(t *testing.T, a *App) {
	t.Helper()
	paths := []string{"/a.mp4", "/b.mp4"}
	for i, p := range paths {
		entry := history.Entry{
			TimeRecorded: history.UnixSeconds(1000 + i),
			Duration:     1,
			FilePath:     p,
			Width:        640,
			Height:       480,
		}
		if err := a.hist.Append(entry); err != nil {
			t.Fatalf("seed history: %v", err)
		}
	}
}

// TestResizeUpdatesFutureResolutionOnly covers S6: updating the target
// resolution while a recording runs affects only the next session's
// snapshot.
func TestResizeUpdatesFutureResolutionOnly(t *testing.T) {
	a := newTestApp(t)

	before := a.prefs.Resolution()
	all := a.AvailableResolutions()
	var targetIdx int
	for i, r := range all {
		if r != before {
			targetIdx = i
			break
		}
	}

	if err := a.StartRecording(); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	waitForState(t, a, session.Recording, time.Second)

	if err := a.UpdateResolution(targetIdx); err != nil {
		t.Fatalf("UpdateResolution: %v", err)
	}

	a.mu.Lock()
	sessResolution := a.session.Prefs.Resolution
	a.mu.Unlock()
	if sessResolution != before {
		t.Fatalf("expected in-flight session's snapshot unaffected by UpdateResolution, got %+v", sessResolution)
	}

	if err := a.StopRecording(); err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	waitForState(t, a, session.Done, time.Second)
	if err := a.DiscardRecording(); err != nil {
		t.Fatalf("DiscardRecording: %v", err)
	}

	if err := a.StartRecording(); err != nil {
		t.Fatalf("second StartRecording: %v", err)
	}
	waitForState(t, a, session.Recording, time.Second)
	a.mu.Lock()
	nextResolution := a.session.Prefs.Resolution
	a.mu.Unlock()
	if nextResolution == before {
		t.Fatalf("expected the next session to pick up the updated resolution")
	}
	if err := a.StopRecording(); err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	waitForState(t, a, session.Done, time.Second)
	if err := a.DiscardRecording(); err != nil {
		t.Fatalf("DiscardRecording: %v", err)
	}
}
