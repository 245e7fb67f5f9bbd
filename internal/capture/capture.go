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

// Package capture runs the dedicated capture worker described in spec.md
// §4.6: sample the screen at a fixed frame-rate budget, composite the
// pointer, and write the result to the frame cache. Platform screen/mouse
// backends live in capture_<os>.go, following the build-tag split of
// _examples/e1z0-QAnotherRTSP's windows.go / darwin.go / darwin_stub.go; the
// exec-native-tool-with-synthetic-fallback shape is grounded on
// _examples/other_examples/avaropoint-rmm's cmd/agent/capture.go.
package capture

import (
	"image"
	"log/slog"
	"time"

	"github.com/e1z0/xlabrecorder/internal/cache"
	"github.com/e1z0/xlabrecorder/internal/pointer"
	"github.com/e1z0/xlabrecorder/internal/session"
)

// ScreenSource captures one RGBA frame of the primary monitor and reports
// its aspect ratio (spec.md §4.3: "the display aspect is obtained once per
// process from the primary monitor").
type ScreenSource interface {
	Capture() (*image.RGBA, error)
	Aspect() float64
}

// PointerSource reports the current cursor position in screen coordinates.
type PointerSource interface {
	Position() (image.Point, error)
}

// Loop runs the capture protocol of spec.md §4.6 until sess leaves the
// Recording state. It is meant to run on its own goroutine, started by the
// App immediately after Session.Start. Errors in a single frame's capture
// or write are swallowed (best-effort); the loop never aborts early.
func Loop(sess *session.Session, c *cache.Cache, screen ScreenSource, mouse PointerSource, p pointer.Pointer, log *slog.Logger) {
	wait := time.Second / time.Duration(sess.Prefs.FrameRate)

	for sess.RecordingState().Kind == session.Recording {
		t0 := time.Now()
		n := sess.NextFrameCount()

		if err := captureOneFrame(sess, c, screen, mouse, p, n); err != nil {
			log.Warn("capture: dropped frame", "frame", n, "err", err)
		}

		elapsed := time.Since(t0)
		if sleep := wait - elapsed; sleep > 0 {
			time.Sleep(sleep)
		}
	}
}

func captureOneFrame(sess *session.Session, c *cache.Cache, screen ScreenSource, mouse PointerSource, p pointer.Pointer, n uint64) error {
	frame, err := screen.Capture()
	if err != nil {
		return err
	}

	pos, err := mouse.Position()
	if err != nil {
		// spec.md §4.6: "pos ← mouse_position() (on error: (0,0))".
		pos = image.Point{}
	}

	p.Composite(frame, pos)

	return c.WriteFrame(n, frame)
}
