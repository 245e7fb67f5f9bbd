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

// Package cache manages the on-disk PNG frame store for a recording session
// (spec.md §4.5). Grounded on original_source/xlab-core/src/record.rs's
// path-generation helpers and remove-then-recreate cache_dir handling.
package cache

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Cache is the authoritative frame store for one session: there is no
// in-memory frame buffer between capture and save (spec.md §4.5).
type Cache struct {
	dir       string
	sessionID string
}

// Prepare creates (or recreates) dir for sessionID. If dir already exists —
// e.g. a stale directory left by a crash — it is removed recursively first,
// per spec.md §4.5 ("if it exists, remove-recursive then recreate").
func Prepare(dir, sessionID string) (*Cache, error) {
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("cache: remove stale dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create dir: %w", err)
	}
	return &Cache{dir: dir, sessionID: sessionID}, nil
}

// Dir returns the cache directory path.
func (c *Cache) Dir() string { return c.dir }

// ImagePath returns the path frame n is written to/read from:
// <cache_dir>/<session_id>_<n:07>.png (spec.md §3/§4.5).
func (c *Cache) ImagePath(n uint64) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s_%07d.png", c.sessionID, n))
}

// WriteFrame encodes img as PNG to ImagePath(n).
func (c *Cache) WriteFrame(n uint64, img image.Image) error {
	f, err := os.Create(c.ImagePath(n))
	if err != nil {
		return fmt.Errorf("cache: create frame %d: %w", n, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("cache: encode frame %d: %w", n, err)
	}
	return nil
}

// ReadFrame decodes the PNG at ImagePath(n) back to an image.
func (c *Cache) ReadFrame(n uint64) (image.Image, error) {
	f, err := os.Open(c.ImagePath(n))
	if err != nil {
		return nil, fmt.Errorf("cache: open frame %d: %w", n, err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("cache: decode frame %d: %w", n, err)
	}
	return img, nil
}

// Discard removes the whole cache directory (spec.md §4.5: "On discard,
// remove-recursive cache_dir").
func (c *Cache) Discard() error {
	if err := os.RemoveAll(c.dir); err != nil {
		return fmt.Errorf("cache: discard: %w", err)
	}
	return nil
}

// SweepOrphaned removes any cache_<id> directory under appCacheDir other
// than keepSessionID. This is a supplemented feature (SPEC_FULL.md §10):
// the original Rust clear_cache command was a no-op stub; a real
// implementation should reclaim cache directories abandoned by a prior
// process crash (a session whose cache was never cleaned up because the
// process died before discard/save completed).
func SweepOrphaned(appCacheDir, keepSessionID string) error {
	entries, err := os.ReadDir(appCacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cache: sweep: read %s: %w", appCacheDir, err)
	}

	keepDir := ""
	if keepSessionID != "" {
		keepDir = "cache_" + keepSessionID
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, "cache_") {
			continue
		}
		if name == keepDir {
			continue
		}
		if err := os.RemoveAll(filepath.Join(appCacheDir, name)); err != nil {
			return fmt.Errorf("cache: sweep: remove %s: %w", name, err)
		}
	}
	return nil
}

// FrameNumbers lists the frame indices currently present in the cache
// directory, sorted ascending. Used by tests and diagnostics; the save
// orchestrator itself iterates [1, last_idx] directly per spec.md §4.8.
func (c *Cache) FrameNumbers() ([]uint64, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("cache: list: %w", err)
	}
	prefix := c.sessionID + "_"
	var nums []uint64
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".png") {
			continue
		}
		numStr := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".png")
		var n uint64
		if _, err := fmt.Sscanf(numStr, "%d", &n); err != nil {
			continue
		}
		nums = append(nums, n)
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })
	return nums, nil
}
