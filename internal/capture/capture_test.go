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
	"image"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/e1z0/xlabrecorder/internal/applog"
	"github.com/e1z0/xlabrecorder/internal/cache"
	"github.com/e1z0/xlabrecorder/internal/pointer"
	"github.com/e1z0/xlabrecorder/internal/prefs"
	"github.com/e1z0/xlabrecorder/internal/session"
)

type fakeScreen struct {
	calls atomic.Int64
}

func (f *fakeScreen) Capture() (*image.RGBA, error) {
	f.calls.Add(1)
	return image.NewRGBA(image.Rect(0, 0, 8, 8)), nil
}

func (f *fakeScreen) Aspect() float64 { return 16.0 / 9.0 }

type fakeMouse struct{}

func (fakeMouse) Position() (image.Point, error) { return image.Pt(1, 1), nil }

type erroringMouse struct{}

func (erroringMouse) Position() (image.Point, error) { return image.Point{}, errors.New("boom") }

func TestLoopStopsWhenSessionLeavesRecording(t *testing.T) {
	p := prefs.New(16.0 / 9.0)
	snap := p.Snapshot()
	snap.FrameRate = 60
	sess, err := session.New(t.TempDir(), snap)
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	c, err := cache.Prepare(filepath.Join(t.TempDir(), "cache_"+sess.SessionID), sess.SessionID)
	if err != nil {
		t.Fatalf("cache.Prepare: %v", err)
	}

	sess.Start()
	screen := &fakeScreen{}

	done := make(chan struct{})
	go func() {
		Loop(sess, c, screen, fakeMouse{}, pointer.Invisible, applog.Discard())
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	sess.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Loop did not exit after Stop")
	}

	if screen.calls.Load() == 0 {
		t.Fatalf("expected at least one frame captured")
	}
	if sess.FrameCount() != uint64(screen.calls.Load()) {
		t.Fatalf("frame counter %d should match capture calls %d", sess.FrameCount(), screen.calls.Load())
	}
}

func TestLoopToleratesMouseError(t *testing.T) {
	p := prefs.New(16.0 / 9.0)
	snap := p.Snapshot()
	snap.FrameRate = 60
	sess, err := session.New(t.TempDir(), snap)
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	c, err := cache.Prepare(filepath.Join(t.TempDir(), "cache_"+sess.SessionID), sess.SessionID)
	if err != nil {
		t.Fatalf("cache.Prepare: %v", err)
	}

	sess.Start()
	screen := &fakeScreen{}

	done := make(chan struct{})
	go func() {
		Loop(sess, c, screen, erroringMouse{}, pointer.Invisible, applog.Discard())
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	sess.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Loop did not exit after Stop")
	}
}
