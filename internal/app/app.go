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

// Package app wires every component into the single command surface an
// external UI shell drives (spec.md §6, §9: "re-express [process-wide
// singletons] as explicit App state passed in at construction; avoid
// hidden globals in the rewrite. Command handlers become methods on App").
// Grounded on _examples/original_source/src-tauri/src/commands.rs (the
// exact command list and argument shapes) and src-tauri/src/lib.rs (the
// boot sequence: set_app_cache_dir, then init).
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/e1z0/xlabrecorder/internal/appenv"
	"github.com/e1z0/xlabrecorder/internal/cache"
	"github.com/e1z0/xlabrecorder/internal/capture"
	"github.com/e1z0/xlabrecorder/internal/encoder"
	"github.com/e1z0/xlabrecorder/internal/history"
	"github.com/e1z0/xlabrecorder/internal/pointer"
	"github.com/e1z0/xlabrecorder/internal/prefs"
	"github.com/e1z0/xlabrecorder/internal/save"
	"github.com/e1z0/xlabrecorder/internal/session"
)

// App owns every mutex-guarded singleton spec.md §5 names (Prefs, Session,
// RecordHandle as captureDone, SaveHandle/SaveProgress via save.Manager) as
// explicit fields rather than package-level globals.
type App struct {
	env     *appenv.Environment
	log     *slog.Logger
	prefs   *prefs.Prefs
	screen  capture.ScreenSource
	mouse   capture.PointerSource
	hist    *history.Log
	saveMgr *save.Manager

	displayResolution encoder.Resolution

	mu          sync.Mutex
	session     *session.Session
	cache       *cache.Cache
	captureDone chan struct{}
}

// New constructs an App. screen/mouse are the platform capture backends
// (capture.NewScreenSource()/NewMouseSource() in production, fakes in
// tests); appCacheDir is supplied by the UI shell once at startup, per
// spec.md §6's set_app_cache_dir(path) contract. newEncoder is injected so
// tests can exercise the full save path without linking libav*; pass nil in
// production to use the real encoder.Pipeline.
func New(appCacheDir string, screen capture.ScreenSource, mouse capture.PointerSource, newEncoder save.NewEncoderFunc, log *slog.Logger) (*App, error) {
	env, err := appenv.Init(appCacheDir)
	if err != nil {
		return nil, err
	}

	probe, err := screen.Capture()
	if err != nil {
		return nil, fmt.Errorf("app: initial display probe: %w", err)
	}
	displayRes := encoder.Resolution{Width: probe.Bounds().Dx(), Height: probe.Bounds().Dy()}

	if newEncoder == nil {
		newEncoder = defaultNewEncoder
	}

	a := &App{
		env:               env,
		log:               log,
		prefs:             prefs.New(screen.Aspect()),
		screen:            screen,
		mouse:             mouse,
		hist:              history.Open(env.AppCacheDir),
		displayResolution: displayRes,
	}
	a.saveMgr = save.NewManager(newEncoder, a.hist, log)

	if err := cache.SweepOrphaned(env.AppCacheDir, ""); err != nil {
		log.Warn("app: sweep orphaned cache dirs at boot", "err", err)
	}

	return a, nil
}

// defaultNewEncoder adapts encoder.New's concrete *encoder.Pipeline return
// to the save.Encoder interface save.NewEncoderFunc expects.
func defaultNewEncoder(outputPath string, fps int, target, source encoder.Resolution, cfg encoder.Config) (save.Encoder, error) {
	return encoder.New(outputPath, fps, target, source, cfg)
}

// StartRecording begins a new session unless one is already Recording
// (spec.md §4.4: "no-op" per the resolved open question).
func (a *App) StartRecording() error {
	a.mu.Lock()
	if a.session != nil && a.session.RecordingState().Kind == session.Recording {
		a.mu.Unlock()
		return nil
	}

	snap := a.prefs.Snapshot()
	sess, err := session.New(a.env.AppCacheDir, snap)
	if err != nil {
		a.mu.Unlock()
		return err
	}

	c, err := cache.Prepare(sess.CacheDir, sess.SessionID)
	if err != nil {
		a.mu.Unlock()
		return err
	}

	prevSessionID := ""
	if a.session != nil {
		prevSessionID = a.session.SessionID
	}

	a.session = sess
	a.cache = c
	done := make(chan struct{})
	a.captureDone = done
	a.mu.Unlock()

	sess.Start()
	ptr := pointer.Catalog()[snap.PointerIndex]
	go func() {
		capture.Loop(sess, c, a.screen, a.mouse, ptr, a.log)
		close(done)
	}()

	if prevSessionID != "" {
		go func() {
			if err := cache.SweepOrphaned(a.env.AppCacheDir, sess.SessionID); err != nil {
				a.log.Warn("app: sweep previous session cache", "err", err)
			}
		}()
	}

	return nil
}

// StopRecording transitions Recording → Done.
func (a *App) StopRecording() error {
	a.mu.Lock()
	sess := a.session
	a.mu.Unlock()
	if sess == nil {
		return errors.New("app: stop_recording: no session")
	}
	sess.Stop()
	return nil
}

// DiscardRecording removes the cache and returns to Idle (spec.md §4.5,
// §6).
func (a *App) DiscardRecording() error {
	a.mu.Lock()
	sess, c := a.session, a.cache
	a.mu.Unlock()
	if sess == nil || c == nil {
		return errors.New("app: discard_recording: no session")
	}
	if sess.RecordingState().Kind != session.Done {
		return errors.New("app: discard_recording: session is not Done")
	}
	if err := c.Discard(); err != nil {
		return err
	}
	sess.Discard()
	return nil
}

// SaveRecording muxes the cached frames to MP4 and returns immediately; the
// caller polls SavingProgress for completion, then calls FinalizeSave once
// the UI has prompted for a destination (spec.md §9's redesign).
func (a *App) SaveRecording() error {
	a.mu.Lock()
	sess, c := a.session, a.cache
	a.mu.Unlock()
	if sess == nil || c == nil {
		return errors.New("app: save_recording: no session")
	}
	if sess.RecordingState().Kind != session.Done {
		return errors.New("app: save_recording: session is not Done")
	}

	// save joins the capture worker before iterating the cache (spec.md §5).
	a.mu.Lock()
	done := a.captureDone
	a.mu.Unlock()
	if done != nil {
		<-done
	}

	lastIdx := sess.FrameCount()
	req := save.Request{
		CacheDir:          c.Dir(),
		OutputDir:         a.env.RecordingsDir(),
		LastIdx:           lastIdx,
		SessionID:         sess.SessionID,
		FrameRate:         sess.FrameRate(),
		Resolution:        encoder.Resolution{Width: sess.Prefs.Resolution.Width, Height: sess.Prefs.Resolution.Height},
		DisplayResolution: a.displayResolution,
	}

	// spec.md §4.8 step 2: snapshot, then set state to Idle, before the
	// worker begins. A new recording may start while this save runs.
	sess.MarkSaved()

	return a.saveMgr.Save(req, c, c.Discard)
}

// FinalizeSave performs the rename/copy + history append + Done transition
// once the UI has resolved a destination path (or "" on cancel).
func (a *App) FinalizeSave(dest string, duration time.Duration, resolution encoder.Resolution) (save.FinalizeResult, error) {
	return a.saveMgr.Finalize(dest, duration, resolution, nowUnix())
}

// RecordingState returns a snapshot of the session state sum.
func (a *App) RecordingState() session.State {
	a.mu.Lock()
	sess := a.session
	a.mu.Unlock()
	if sess == nil {
		return session.State{Kind: session.Idle}
	}
	return sess.RecordingState()
}

// SavingProgress returns a snapshot of SaveProgress.
func (a *App) SavingProgress() save.Progress {
	return a.saveMgr.Progress()
}

// AvailableResolutions returns the 8 height-indexed (w,h) pairs matched to
// display aspect (spec.md §6).
func (a *App) AvailableResolutions() []prefs.Resolution {
	return a.prefs.ValidResolutions()
}

// CurrentResolution returns the target resolution new recordings will use.
func (a *App) CurrentResolution() prefs.Resolution {
	return a.prefs.Resolution()
}

// AvailableFrameRates returns the closed set of valid frame rates.
func (a *App) AvailableFrameRates() []uint32 {
	return prefs.FrameRates[:]
}

// UpdateResolution sets the target resolution by index into
// AvailableResolutions (spec.md §6, matching
// original_source/src-tauri/src/commands.rs's update_resolution(index)).
func (a *App) UpdateResolution(index int) error {
	list := a.prefs.ValidResolutions()
	if index < 0 || index >= len(list) {
		return fmt.Errorf("app: update_resolution: index %d out of range", index)
	}
	r := list[index]
	a.prefs.UpdateResolution(r.Width, r.Height)
	return nil
}

// UpdateFrameRate stores r.
func (a *App) UpdateFrameRate(r uint32) {
	a.prefs.UpdateFrameRate(r)
}

// UpdatePointer stores idx; out-of-range is a caller bug (spec.md §4.3).
func (a *App) UpdatePointer(idx int) {
	a.prefs.UpdatePointerIndex(idx)
}

// PastVideos returns the history log contents.
func (a *App) PastVideos() []history.Entry {
	return a.hist.Read()
}

// RemovePreviousRecordingByIndex deletes the history entry at i.
func (a *App) RemovePreviousRecordingByIndex(i int) error {
	return a.hist.Delete(i)
}

// nowUnix supplies the history entry's recording time; it is a package
// variable so a fixed clock can be substituted.
var nowUnix = func() int64 { return time.Now().Unix() }
