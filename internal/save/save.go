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

// Package save implements the save orchestrator of spec.md §4.8, with the
// §9 "Save callback shape" redesign applied: instead of the UI handing the
// worker a choose_location continuation, the worker produces a staging file
// and publishes StagingReady; a separate FinalizeSave call (driven by the
// UI after prompting for a destination) performs the move + history
// append. Grounded on
// _examples/original_source/xlab-core/src/record.rs's save_video/process
// shape and _examples/e1z0-QAnotherRTSP's worker-goroutine-plus-mutex
// idiom.
package save

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/e1z0/xlabrecorder/internal/encoder"
	"github.com/e1z0/xlabrecorder/internal/history"
)

// Encoder is the subset of encoder.Pipeline's contract the orchestrator
// needs, so tests can substitute a fake instead of linking libav*.
type Encoder interface {
	Append(rgba []byte, pts int64) error
	Finalize() error
}

// NewEncoderFunc constructs an Encoder for one save; App wires this to
// encoder.New in production.
type NewEncoderFunc func(outputPath string, fps int, target, source encoder.Resolution, cfg encoder.Config) (Encoder, error)

// ProgressKind is the tag of the SaveProgress sum type (spec.md §3),
// extended with StagingReady per the redesign above.
type ProgressKind int

const (
	None ProgressKind = iota
	Initializing
	Saving
	Finalizing
	StagingReady
	Done
)

// Progress is an immutable snapshot of SaveProgress.
type Progress struct {
	Kind        ProgressKind
	Done_       uint64 // frames encoded so far, valid when Kind == Saving
	Total       uint64 // total frames to encode, valid when Kind == Saving
	StagingPath string // valid when Kind == StagingReady
}

// FrameReader decodes a cached frame back to an image; the worker packs it
// to RGBA bytes itself (rgbaBytes). cache.Cache satisfies this.
type FrameReader interface {
	ReadFrame(n uint64) (image.Image, error)
}

// Manager runs at most one save at a time and owns the mutex-guarded
// SaveProgress singleton (spec.md §3: "Prefs, Session, ... SaveProgress are
// process-singleton, mutex-guarded").
type Manager struct {
	mu       sync.Mutex
	progress Progress

	newEncoder NewEncoderFunc
	history    *history.Log
	log        *slog.Logger
}

// NewManager builds a Manager. newEncoder is injected so tests can run the
// whole orchestrator against a fake encoder.
func NewManager(newEncoder NewEncoderFunc, hist *history.Log, log *slog.Logger) *Manager {
	return &Manager{newEncoder: newEncoder, history: hist, log: log}
}

// Progress returns the current SaveProgress snapshot.
func (m *Manager) Progress() Progress {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.progress
}

func (m *Manager) setProgress(p Progress) {
	m.mu.Lock()
	m.progress = p
	m.mu.Unlock()
}

// Request is everything Save needs, snapshotted from the caller (spec.md
// §4.8 step 2) before the session is returned to Idle.
type Request struct {
	CacheDir          string
	OutputDir         string
	LastIdx           uint64
	SessionID         string
	FrameRate         uint32
	Resolution        encoder.Resolution
	DisplayResolution encoder.Resolution
}

// errRejected is returned when a save is requested while one is already in
// flight (spec.md §8 property 8: "Save idempotence under reject").
var errRejected = errors.New("save: rejected, a save is already in progress")

// Save refuses unless SaveProgress ∈ {None, Done} (spec.md §4.8 step 1),
// then spawns the worker goroutine and returns immediately. Save does not
// see the session: the caller checks that its state is Done, snapshots req
// and transitions it to Idle before calling (App.SaveRecording does all
// three, matching spec.md's step-2 ordering: "Snapshot ..., then set state
// to Idle").
func (m *Manager) Save(req Request, frames FrameReader, discard func() error) error {
	m.mu.Lock()
	if m.progress.Kind != None && m.progress.Kind != Done {
		m.mu.Unlock()
		return errRejected
	}
	m.progress = Progress{Kind: Initializing}
	m.mu.Unlock()

	go m.run(req, frames, discard)
	return nil
}

func (m *Manager) run(req Request, frames FrameReader, discard func() error) {
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		m.log.Error("save: ensure output dir", "err", err)
		m.setProgress(Progress{Kind: None})
		return
	}

	stagingPath := filepath.Join(req.OutputDir, fmt.Sprintf("__%s__.mp4", req.SessionID))

	enc, err := m.newEncoder(stagingPath, int(req.FrameRate), req.Resolution, req.DisplayResolution, encoder.Config{MaxBFrames: 1})
	if err != nil {
		m.log.Error("save: init encoder", "err", err)
		m.setProgress(Progress{Kind: None})
		return
	}

	for i := uint64(1); i <= req.LastIdx; i++ {
		m.setProgress(Progress{Kind: Saving, Done_: i - 1, Total: req.LastIdx})

		img, err := frames.ReadFrame(i)
		if err != nil {
			m.log.Warn("save: decode cached frame", "frame", i, "err", err)
			continue
		}
		if err := enc.Append(rgbaBytes(img), int64(i)); err != nil {
			m.log.Error("save: append frame", "frame", i, "err", err)
			m.setProgress(Progress{Kind: None})
			return
		}
	}

	m.setProgress(Progress{Kind: Finalizing})
	if err := enc.Finalize(); err != nil {
		m.log.Error("save: finalize encoder", "err", err)
		m.setProgress(Progress{Kind: None})
		return
	}

	if err := discard(); err != nil {
		m.log.Warn("save: remove cache dir", "err", err)
	}

	m.setProgress(Progress{Kind: StagingReady, StagingPath: stagingPath})
}

// rgbaBytes returns img's tightly packed RGBA pixel bytes, converting if
// necessary.
func rgbaBytes(img image.Image) []byte {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == rgba.Bounds().Dx()*4 {
		return rgba.Pix
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			rgba.Set(x-b.Min.X, y-b.Min.Y, img.At(x, y))
		}
	}
	return rgba.Pix
}

// FinalizeResult describes the outcome App.FinalizeSave reports.
type FinalizeResult struct {
	FinalPath string
}

// Finalize performs spec.md §4.8 step "h": if dest is non-empty, rename
// stagingPath to dest (falling back to copy+remove on a cross-device
// rename failure), append a history entry, and publish SaveProgress=Done.
// If dest is empty (user cancelled the save-location prompt), the staging
// file is left in place and logged (spec.md §7: "the staging file remains
// ... user still has the recording"); SaveProgress still becomes Done.
func (m *Manager) Finalize(dest string, duration time.Duration, resolution encoder.Resolution, recordedAt int64) (FinalizeResult, error) {
	p := m.Progress()
	if p.Kind != StagingReady {
		return FinalizeResult{}, fmt.Errorf("save: finalize called with no staging file ready (progress=%d)", p.Kind)
	}

	finalPath := p.StagingPath
	if dest != "" {
		if err := moveFile(p.StagingPath, dest); err != nil {
			return FinalizeResult{}, fmt.Errorf("save: move staging file: %w", err)
		}
		finalPath = dest
	} else {
		m.log.Info("save: cancelled, staging file retained", "path", p.StagingPath)
	}

	entry := history.Entry{
		TimeRecorded: history.UnixSeconds(recordedAt),
		Duration:     uint64(duration.Round(time.Second).Seconds()),
		FilePath:     finalPath,
		Width:        uint32(resolution.Width),
		Height:       uint32(resolution.Height),
	}
	if err := m.history.Append(entry); err != nil {
		return FinalizeResult{}, fmt.Errorf("save: append history: %w", err)
	}

	m.setProgress(Progress{Kind: Done})
	return FinalizeResult{FinalPath: finalPath}, nil
}

// moveFile renames src to dst, falling back to copy+remove when rename
// fails across filesystems (spec.md §4.8: "fallback to copy on cross-device
// rename failure").
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create dest: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close dest: %w", err)
	}
	return os.Remove(src)
}
