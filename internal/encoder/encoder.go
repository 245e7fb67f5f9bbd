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

// Package encoder pushes decoded RGBA frames through an H.264/MP4 encode
// pipeline backed by FFmpeg's libav* via github.com/asticode/go-astiav
// (spec.md §4.7). Grounded on _examples/e1z0-QAnotherRTSP/src/video.go's
// bgraScaler (ensure/toBGRA) and its embedded startRecorder/closeRecorder
// closures (AllocOutputFormatContext, OpenIOContext, NewStream, codec-param
// copy, AAC encoder bring-up, WriteHeader, SendFrame/ReceivePacket loop with
// RescaleTs, flush + WriteTrailer, reverse-order teardown) — re-targeted
// here from stream-copy/AAC re-encode to a from-scratch H.264 video encode.
// Bitrate/GOP defaults are cross-checked against
// _examples/original_source/xlab-core/src/video/mod.rs's EncoderConfig.
package encoder

import (
	"errors"
	"fmt"
	"math"

	astiav "github.com/asticode/go-astiav"
)

// Resolution is a (width, height) pair in pixels.
type Resolution struct {
	Width  int
	Height int
}

// Config holds the tunable encode parameters spec.md §4.7 names explicitly.
// A zero (or negative) GOPSize and a negative MaxBFrames select the
// defaults in New; MaxBFrames == 0 disables B-frames.
type Config struct {
	GOPSize    int // defaults to fps (one second of frames) when 0
	MaxBFrames int // defaults to 1 when negative; 1 matches the Rust original
}

// Bitrate implements spec.md §4.7's heuristic:
// bitrate = 0.265 * (w*h)^1.161 * fps^0.585 (target average bits/second).
func Bitrate(w, h, fps int) int64 {
	pixels := float64(w) * float64(h)
	v := 0.265 * math.Pow(pixels, 1.161) * math.Pow(float64(fps), 0.585)
	return int64(v)
}

// Pipeline is a single-use, push-style H.264/MP4 encoder (spec.md §4.7's
// Encoder). Append must be called with strictly increasing pts values;
// Finalize must be called exactly once to flush and close the container.
type Pipeline struct {
	fps    int
	target Resolution
	source Resolution

	fmtCtx   *astiav.FormatContext
	ioCtx    *astiav.IOContext
	stream   *astiav.Stream
	codecCtx *astiav.CodecContext

	scaler    *astiav.SoftwareScaleContext
	dstFrame  *astiav.Frame
	srcFrame  *astiav.Frame
	packet    *astiav.Packet
	finalized bool
}

// New allocates and opens the encoder pipeline described by spec.md §4.7:
// allocate format context, open the output file, create the stream,
// allocate the codec context with (H.264, target size, time_base=1/fps,
// gop=fps, YUV420P, max_b_frames=1, heuristic bitrate), open the codec,
// copy params to the stream, write the container header.
func New(outputPath string, fps int, target, source Resolution, cfg Config) (p *Pipeline, err error) {
	pl := &Pipeline{fps: fps, target: target, source: source}
	p = pl

	// Every error return below sets p to nil, so release through pl.
	defer func() {
		if err != nil {
			pl.releasePartial()
		}
	}()

	p.fmtCtx, err = astiav.AllocOutputFormatContext(nil, "mp4", outputPath)
	if err != nil || p.fmtCtx == nil {
		return nil, fmt.Errorf("encoder: alloc output format context: %w", err)
	}

	ioFlags := astiav.NewIOContextFlags(astiav.IOContextFlagWrite)
	p.ioCtx, err = astiav.OpenIOContext(outputPath, ioFlags, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("encoder: open io context: %w", err)
	}
	p.fmtCtx.SetPb(p.ioCtx)

	codec := astiav.FindEncoder(astiav.CodecIDH264)
	if codec == nil {
		return nil, errors.New("encoder: H.264 encoder not available")
	}

	p.codecCtx = astiav.AllocCodecContext(codec)
	if p.codecCtx == nil {
		return nil, errors.New("encoder: alloc codec context failed")
	}

	gop := cfg.GOPSize
	if gop <= 0 {
		gop = fps
	}
	maxB := cfg.MaxBFrames
	if maxB < 0 {
		maxB = 1
	}

	p.codecCtx.SetWidth(target.Width)
	p.codecCtx.SetHeight(target.Height)
	p.codecCtx.SetTimeBase(astiav.NewRational(1, fps))
	p.codecCtx.SetPixelFormat(astiav.PixelFormatYuv420P)
	p.codecCtx.SetGopSize(gop)
	p.codecCtx.SetMaxBFrames(maxB)
	p.codecCtx.SetBitRate(Bitrate(target.Width, target.Height, fps))

	if p.fmtCtx.OutputFormat() != nil && p.fmtCtx.OutputFormat().Flags().Has(astiav.FormatFlagGlobalHeader) {
		p.codecCtx.SetFlags(p.codecCtx.Flags().Add(astiav.CodecContextFlagGlobalHeader))
	}

	if err = p.codecCtx.Open(codec, nil); err != nil {
		return nil, fmt.Errorf("encoder: open codec: %w", err)
	}

	p.stream = p.fmtCtx.NewStream(codec)
	if p.stream == nil {
		return nil, errors.New("encoder: new stream failed")
	}
	if err = p.codecCtx.ToCodecParameters(p.stream.CodecParameters()); err != nil {
		return nil, fmt.Errorf("encoder: copy codec parameters: %w", err)
	}
	p.stream.SetTimeBase(p.codecCtx.TimeBase())

	p.dstFrame = astiav.AllocFrame()
	p.dstFrame.SetWidth(target.Width)
	p.dstFrame.SetHeight(target.Height)
	p.dstFrame.SetPixelFormat(astiav.PixelFormatYuv420P)
	if err = p.dstFrame.AllocBuffer(1); err != nil {
		return nil, fmt.Errorf("encoder: alloc dst frame buffer: %w", err)
	}

	p.srcFrame = astiav.AllocFrame()
	p.srcFrame.SetWidth(source.Width)
	p.srcFrame.SetHeight(source.Height)
	p.srcFrame.SetPixelFormat(astiav.PixelFormatRgba)
	if err = p.srcFrame.AllocBuffer(1); err != nil {
		return nil, fmt.Errorf("encoder: alloc src frame buffer: %w", err)
	}

	flags := astiav.NewSoftwareScaleContextFlags()
	p.scaler, err = astiav.CreateSoftwareScaleContext(
		source.Width, source.Height, astiav.PixelFormatRgba,
		target.Width, target.Height, astiav.PixelFormatYuv420P,
		flags,
	)
	if err != nil {
		return nil, fmt.Errorf("encoder: create scale context: %w", err)
	}

	p.packet = astiav.AllocPacket()

	if err = p.fmtCtx.WriteHeader(nil); err != nil {
		return nil, fmt.Errorf("encoder: write header: %w", err)
	}

	return p, nil
}

// Append pushes one RGBA frame at presentation timestamp pts (the caller's
// frame number, per spec.md §4.7: "Caller supplies pts = n for frame number
// n"). If source != target the scale context also resizes; otherwise it
// only converts pixel format (the scaler is created identically either
// way — sws_scale performs both in one pass).
func (p *Pipeline) Append(rgba []byte, pts int64) error {
	if p.finalized {
		return errors.New("encoder: append after finalize")
	}
	if len(rgba) == 0 {
		return errors.New("encoder: empty frame buffer")
	}

	if _, err := p.srcFrame.ImageCopyFromBuffer(rgba, 1); err != nil {
		return fmt.Errorf("encoder: copy frame into src buffer: %w", err)
	}

	if err := p.scaler.ScaleFrame(p.srcFrame, p.dstFrame); err != nil {
		return fmt.Errorf("encoder: scale frame: %w", err)
	}
	p.dstFrame.SetPts(pts)

	if err := p.codecCtx.SendFrame(p.dstFrame); err != nil {
		return fmt.Errorf("encoder: send frame: %w", err)
	}
	return p.drainPackets()
}

// drainPackets reads every packet currently available from the codec,
// rescales its timestamps from the codec to the stream time base, and
// writes it into the container (spec.md §4.7).
func (p *Pipeline) drainPackets() error {
	for {
		if err := p.codecCtx.ReceivePacket(p.packet); err != nil {
			if errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof) {
				return nil
			}
			return fmt.Errorf("encoder: receive packet: %w", err)
		}

		p.packet.RescaleTs(p.codecCtx.TimeBase(), p.stream.TimeBase())
		p.packet.SetStreamIndex(p.stream.Index())

		if err := p.fmtCtx.WriteInterleavedFrame(p.packet); err != nil {
			p.packet.Unref()
			return fmt.Errorf("encoder: write frame: %w", err)
		}
		p.packet.Unref()
	}
}

// Finalize flushes the encoder, drains remaining packets, writes the
// trailer, and releases every native resource (see release; spec.md §4.7's
// Drop contract). Safe to call at most once.
func (p *Pipeline) Finalize() error {
	if p.finalized {
		return errors.New("encoder: already finalized")
	}
	p.finalized = true

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if err := p.codecCtx.SendFrame(nil); err != nil && !errors.Is(err, astiav.ErrEof) {
		record(fmt.Errorf("encoder: flush: %w", err))
	} else {
		record(p.drainPackets())
	}

	record(p.fmtCtx.WriteTrailer())

	p.release()
	return firstErr
}

// release frees native resources in this order: packet, frames, scaler,
// codec context, io context, format context. The three contexts go in
// reverse order of allocation; the scaler, allocated after the frames, is
// freed after them.
func (p *Pipeline) release() {
	if p.packet != nil {
		p.packet.Free()
		p.packet = nil
	}
	if p.srcFrame != nil {
		p.srcFrame.Free()
		p.srcFrame = nil
	}
	if p.dstFrame != nil {
		p.dstFrame.Free()
		p.dstFrame = nil
	}
	if p.scaler != nil {
		p.scaler.Free()
		p.scaler = nil
	}
	if p.codecCtx != nil {
		p.codecCtx.Free()
		p.codecCtx = nil
	}
	if p.ioCtx != nil {
		_ = p.ioCtx.Close()
		p.ioCtx.Free()
		p.ioCtx = nil
	}
	if p.fmtCtx != nil {
		p.fmtCtx.Free()
		p.fmtCtx = nil
	}
}

// releasePartial is called when New fails partway through, to avoid
// leaking whatever was already allocated.
func (p *Pipeline) releasePartial() {
	p.release()
}
