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
package cache

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, color.RGBA{1, 2, 3, 255})
		}
	}
	return img
}

func TestImagePathShape(t *testing.T) {
	dir := t.TempDir()
	c, err := Prepare(filepath.Join(dir, "cache_abc"), "abc")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	want := filepath.Join(dir, "cache_abc", "abc_0000042.png")
	if got := c.ImagePath(42); got != want {
		t.Fatalf("ImagePath(42) = %q, want %q", got, want)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c, err := Prepare(filepath.Join(dir, "cache_abc"), "abc")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	in := testImage()
	if err := c.WriteFrame(1, in); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	out, err := c.ReadFrame(1)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if out.Bounds() != in.Bounds() {
		t.Fatalf("round-tripped bounds mismatch: got %v want %v", out.Bounds(), in.Bounds())
	}
}

func TestPrepareRemovesStaleDir(t *testing.T) {
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache_abc")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		t.Fatalf("setup mkdir: %v", err)
	}
	stale := filepath.Join(cacheDir, "leftover.png")
	if err := os.WriteFile(stale, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup write: %v", err)
	}

	if _, err := Prepare(cacheDir, "abc"); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale file removed, stat err = %v", err)
	}
}

func TestDiscardRemovesDir(t *testing.T) {
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache_abc")
	c, err := Prepare(cacheDir, "abc")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := c.Discard(); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if _, err := os.Stat(cacheDir); !os.IsNotExist(err) {
		t.Fatalf("expected cache dir removed, stat err = %v", err)
	}
}

func TestSweepOrphanedKeepsCurrentSession(t *testing.T) {
	appCache := t.TempDir()
	keep := filepath.Join(appCache, "cache_keepme")
	orphan := filepath.Join(appCache, "cache_orphan")
	for _, d := range []string{keep, orphan} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}

	if err := SweepOrphaned(appCache, "keepme"); err != nil {
		t.Fatalf("SweepOrphaned: %v", err)
	}
	if _, err := os.Stat(keep); err != nil {
		t.Fatalf("expected kept session dir to survive: %v", err)
	}
	if _, err := os.Stat(orphan); !os.IsNotExist(err) {
		t.Fatalf("expected orphan dir removed, stat err = %v", err)
	}
}

func TestFrameNumbersSorted(t *testing.T) {
	dir := t.TempDir()
	c, err := Prepare(filepath.Join(dir, "cache_abc"), "abc")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	in := testImage()
	for _, n := range []uint64{3, 1, 2} {
		if err := c.WriteFrame(n, in); err != nil {
			t.Fatalf("WriteFrame(%d): %v", n, err)
		}
	}
	nums, err := c.FrameNumbers()
	if err != nil {
		t.Fatalf("FrameNumbers: %v", err)
	}
	want := []uint64{1, 2, 3}
	if len(nums) != len(want) {
		t.Fatalf("got %v, want %v", nums, want)
	}
	for i := range want {
		if nums[i] != want[i] {
			t.Fatalf("got %v, want %v", nums, want)
		}
	}
}
