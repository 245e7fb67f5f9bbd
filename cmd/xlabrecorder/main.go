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

// xlabrecorder drives the recording engine from the command line: start a
// recording, let it run for a fixed duration, stop, save, and finalize to a
// destination path. A GUI/Tauri-style shell would instead drive
// internal/app.App directly over its own IPC surface; this binary exists to
// exercise the whole engine end to end without one.
//
// Usage:
//
//	xlabrecorder [-cache-dir dir] [-out file.mp4] [-duration 3s] [-fps 30] [-resolution-index 4] [-pointer-index 0] [-debug]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	astiav "github.com/asticode/go-astiav"

	"github.com/e1z0/xlabrecorder/internal/app"
	"github.com/e1z0/xlabrecorder/internal/applog"
	"github.com/e1z0/xlabrecorder/internal/capture"
	"github.com/e1z0/xlabrecorder/internal/encoder"
	"github.com/e1z0/xlabrecorder/internal/save"
	"github.com/e1z0/xlabrecorder/internal/session"
)

func main() {
	cacheDir := flag.String("cache-dir", defaultCacheDir(), "application cache directory")
	out := flag.String("out", "recording.mp4", "destination path for the finalized recording")
	duration := flag.Duration("duration", 3*time.Second, "how long to record before stopping")
	fps := flag.Uint("fps", 30, "frame rate; must be one of 15, 24, 30, 60")
	resolutionIndex := flag.Int("resolution-index", 4, "index into the available target resolutions (0=144p .. 7=2160p)")
	pointerIndex := flag.Int("pointer-index", 0, "index into the pointer glyph catalog (0=invisible)")
	debug := flag.Bool("debug", false, "enable debug logging")
	debugEncoder := flag.Bool("debug-encoder", false, "route libav log output through the same logger")
	flag.Parse()

	log := applog.New(os.Stderr, *debug)

	if *debugEncoder {
		astiav.SetLogLevel(astiav.LogLevelDebug)
		astiav.SetLogCallback(func(c astiav.Classer, l astiav.LogLevel, fmt, msg string) {
			log.Debug("libav", "msg", msg, "level", l)
		})
	}

	a, err := app.New(*cacheDir, capture.NewScreenSource(), capture.NewMouseSource(), nil, log)
	if err != nil {
		log.Error("init", "err", err)
		os.Exit(1)
	}

	if err := run(a, *out, *duration, uint32(*fps), *resolutionIndex, *pointerIndex, log); err != nil {
		log.Error("run", "err", err)
		os.Exit(1)
	}
}

func run(a *app.App, out string, duration time.Duration, fps uint32, resolutionIndex, pointerIndex int, log *slog.Logger) error {
	a.UpdateFrameRate(fps)
	if err := a.UpdateResolution(resolutionIndex); err != nil {
		return fmt.Errorf("update resolution: %w", err)
	}
	a.UpdatePointer(pointerIndex)

	log.Info("recording: starting", "duration", duration.String())
	if err := a.StartRecording(); err != nil {
		return fmt.Errorf("start recording: %w", err)
	}

	time.Sleep(duration)

	if err := a.StopRecording(); err != nil {
		return fmt.Errorf("stop recording: %w", err)
	}
	waitForDone(a)

	log.Info("recording: saving")
	if err := a.SaveRecording(); err != nil {
		return fmt.Errorf("save recording: %w", err)
	}
	waitForStagingReady(a)

	target := a.CurrentResolution()
	res, err := a.FinalizeSave(out, duration, encoder.Resolution{Width: target.Width, Height: target.Height})
	if err != nil {
		return fmt.Errorf("finalize save: %w", err)
	}
	log.Info("recording: saved", "path", res.FinalPath)
	return nil
}

func waitForDone(a *app.App) {
	for a.RecordingState().Kind != session.Done {
		time.Sleep(10 * time.Millisecond)
	}
}

func waitForStagingReady(a *app.App) {
	for a.SavingProgress().Kind != save.StagingReady {
		time.Sleep(10 * time.Millisecond)
	}
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".xlabrecorder"
	}
	return dir + "/xlabrecorder"
}
