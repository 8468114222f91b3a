// ST2205 Tools
// Copyright (c) 2026 The ST2205 Tools Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of ST2205 Tools.
//
// ST2205 Tools is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ST2205 Tools is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with ST2205 Tools.  If not, see <http://www.gnu.org/licenses/>.

package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/st2205tools/st2205-core/pkg/helpers"
	"github.com/st2205tools/st2205-core/pkg/imaging"
	"github.com/st2205tools/st2205-core/pkg/slideshow"
)

// PictureFrame is the device surface setpic uses.
type PictureFrame interface {
	slideshow.Display
	EncodePartial(pix []byte, xs, ys, xe, ye int) ([]byte, error)
}

// SetpicOptions controls how setpic shows a file or directory.
type SetpicOptions struct {
	Fs afero.Fs
	// DryRun names a file that receives the encoded stream instead of
	// the frame. Only valid for a single picture.
	DryRun   string
	Interval time.Duration
	FPS      float64
	Mode     imaging.Mode
	// Loop keeps cycling a directory until the context is cancelled.
	Loop  bool
	Watch bool
}

var ErrDryRunDirectory = errors.New("dry run needs a single picture")

// Setpic shows target, a picture or a directory of pictures, on frame.
func Setpic(ctx context.Context, frame PictureFrame, target string, opts SetpicOptions) error {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	info, err := opts.Fs.Stat(target)
	if err != nil {
		return fmt.Errorf("couldn't open %s: %w", target, err)
	}

	show := slideshow.New(frame, slideshow.Options{
		Fs:       opts.Fs,
		Dir:      target,
		Interval: opts.Interval,
		FPS:      opts.FPS,
		Mode:     opts.Mode,
		Watch:    opts.Watch,
	})

	if !info.IsDir() {
		pix, err := show.Render(target)
		if err != nil {
			return err
		}
		if opts.DryRun != "" {
			return writeDryRun(opts.Fs, frame, pix, opts.DryRun)
		}
		return frame.SendFrame(pix)
	}

	if opts.DryRun != "" {
		return ErrDryRunDirectory
	}
	if opts.Loop {
		return show.Run(ctx)
	}

	if err := show.Rescan(); err != nil {
		return err
	}
	n := len(show.Playlist())
	log.Info().Int("pictures", n).Str("dir", target).Msg("sending directory")
	for range n {
		if err := show.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

func writeDryRun(fs afero.Fs, frame PictureFrame, pix []byte, path string) error {
	g := frame.Geometry()
	stream, err := frame.EncodePartial(pix, 0, 0, g.Width-1, g.Height-1)
	if err != nil {
		return err
	}
	f, err := helpers.CreateFile(fs, path)
	if err != nil {
		return err
	}
	if _, err := f.Write(stream); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	log.Info().Int("bytes", len(stream)).Str("path", path).Msg("wrote encoded stream")
	return nil
}
