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
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/st2205tools/st2205-core/pkg/helpers"
	"github.com/st2205tools/st2205-core/pkg/st2205"
)

// Frame is the device surface the phack operations use. *st2205.Device
// implements it.
type Frame interface {
	Geometry() st2205.Geometry
	SetProgress(fn st2205.ProgressFunc)
	MemorySize() (int, error)
	PictureInfo() (st2205.PictureInfo, error)
	PictureFormat() ([2]byte, error)
	FirmwareVersion() ([3]byte, error)
	DumpPages(w io.Writer, start, n int) error
	DumpFirmware(w io.Writer) error
	DumpRAM(w io.Writer) error
	UploadFile(r io.Reader, size int64, startPage int) error
	UploadFirmware(r io.Reader, size int64) error
	SendMessage(s string) error
	SetClock(t time.Time) error
	Backlight(on bool) error
	LCDSleep(sleep bool) error
	HackText(msg string) error
	HackCode(code []byte) error
	HackCodeLong(code []byte) error
	HackImage(r io.Reader, size int64) error
}

// PicturePage is the first flash page after the firmware.
const PicturePage = 2

var (
	ErrUsage          = errors.New("usage error")
	ErrUnknownCommand = errors.New("unknown operation")
)

// Invocation is a parsed phack command line.
type Invocation struct {
	Device  string
	Command Command
	Params  []string
}

// ParseArgs parses DEVICE OPERATION [PARAMETER...] without the program
// name.
func ParseArgs(args []string) (Invocation, error) {
	if len(args) < 2 {
		return Invocation{}, fmt.Errorf("%w: need a device and an operation", ErrUsage)
	}

	cmd, ok := Lookup(args[1])
	if !ok {
		if s, found := Suggest(args[1]); found {
			return Invocation{}, fmt.Errorf("%w: %s (did you mean %s?)", ErrUnknownCommand, args[1], s)
		}
		return Invocation{}, fmt.Errorf("%w: %s", ErrUnknownCommand, args[1])
	}

	params := args[2:]
	switch want := cmd.Param.Count(); {
	case len(params) > want:
		return Invocation{}, fmt.Errorf("%w: too many parameters for %s", ErrUsage, cmd.Name)
	case len(params) < want:
		return Invocation{}, fmt.Errorf("%w: %s requires%s", ErrUsage, cmd.Name, cmd.Param.usage())
	}

	if cmd.Param == ParamSwitch {
		if _, err := parseSwitch(params[0]); err != nil {
			return Invocation{}, err
		}
	}
	if cmd.Param == ParamPageInFile {
		if _, err := parsePage(params[0]); err != nil {
			return Invocation{}, err
		}
	}

	return Invocation{Device: args[0], Command: cmd, Params: params}, nil
}

func parseSwitch(s string) (bool, error) {
	switch s {
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("%w: expected on or off, got %q", ErrUsage, s)
	}
}

func parsePage(s string) (int, error) {
	page, err := strconv.ParseInt(s, 0, 32)
	if err != nil || page < 0 || page >= st2205.MaxPages {
		return 0, fmt.Errorf("%w: invalid start page %q", ErrUsage, s)
	}
	return int(page), nil
}

// Runner executes phack operations against an opened frame.
type Runner struct {
	Fs    afero.Fs
	Clock clockwork.Clock
	Out   io.Writer
	// Progress receives transfer progress, usually as dots on stderr.
	Progress io.Writer
	// BackupDir receives a copy of the current firmware before an upload.
	// Empty disables the backup.
	BackupDir string
}

// NewRunner returns a runner using the real filesystem and clock.
func NewRunner(out, progress io.Writer, backupDir string) *Runner {
	return &Runner{
		Fs:        afero.NewOsFs(),
		Clock:     clockwork.NewRealClock(),
		Out:       out,
		Progress:  progress,
		BackupDir: backupDir,
	}
}

func (r *Runner) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.Out, format, a...)
}

// Run performs inv on frame.
func (r *Runner) Run(frame Frame, inv Invocation) error {
	if r.Progress != nil {
		frame.SetProgress(func(done, total int) {
			_, _ = fmt.Fprint(r.Progress, ".")
			if done == total {
				_, _ = fmt.Fprintln(r.Progress)
			}
		})
	}

	log.Debug().Str("operation", inv.Command.Name).Strs("params", inv.Params).Msg("running operation")

	switch inv.Command.Operation {
	case OpDumpPictures:
		return r.dumpPictures(frame, inv.Params[0])
	case OpUploadPictures:
		return r.uploadPages(frame, inv.Params[0], PicturePage)
	case OpUploadPages:
		page, err := parsePage(inv.Params[0])
		if err != nil {
			return err
		}
		return r.uploadPages(frame, inv.Params[1], page)
	case OpDumpFirmware:
		return r.dumpTo(inv.Params[0], frame.DumpFirmware)
	case OpUploadFirmware:
		return r.uploadFirmware(frame, inv.Params[0])
	case OpDumpRAM:
		return r.dumpTo(inv.Params[0], frame.DumpRAM)
	case OpMessage:
		return frame.SendMessage(inv.Params[0])
	case OpInfo:
		return r.info(frame)
	case OpHackMessage:
		return frame.HackText(inv.Params[0])
	case OpUploadCode:
		return r.uploadCode(inv.Params[0], st2205.USBPacket, frame.HackCode)
	case OpUploadLongCode:
		r.printf("Uploading code\n")
		if err := r.uploadCode(inv.Params[0], st2205.FreeRAMSize, frame.HackCodeLong); err != nil {
			return err
		}
		r.printf("Code verified and executing\n")
		return nil
	case OpUploadImage:
		f, err := helpers.OpenSized(r.Fs, inv.Params[0])
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		return frame.HackImage(f, f.Size)
	case OpSetClock:
		now := r.Clock.Now()
		if err := frame.SetClock(now); err != nil {
			return err
		}
		r.printf("Clock set to %s\n", now.Format("2006-01-02 15:04"))
		return nil
	case OpBacklight:
		on, err := parseSwitch(inv.Params[0])
		if err != nil {
			return err
		}
		return frame.Backlight(on)
	case OpSleep:
		sleep, err := parseSwitch(inv.Params[0])
		if err != nil {
			return err
		}
		return frame.LCDSleep(sleep)
	default:
		return fmt.Errorf("%w: operation %d", ErrUnknownCommand, inv.Command.Operation)
	}
}

func (r *Runner) dumpTo(path string, dump func(io.Writer) error) error {
	f, err := helpers.CreateFile(r.Fs, path)
	if err != nil {
		return err
	}
	if err := dump(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// flashPages derives the number of flash pages from the reported memory.
func flashPages(frame Frame) (int, error) {
	mem, err := frame.MemorySize()
	if err != nil {
		return 0, err
	}
	size := st2205.FlashSize(mem)
	pages := min(size*1024/st2205.PageSize, st2205.MaxPages)
	return pages, nil
}

func (r *Runner) dumpPictures(frame Frame, path string) error {
	pages, err := flashPages(frame)
	if err != nil {
		return err
	}
	if pages <= PicturePage {
		return fmt.Errorf("%w: flash has no picture pages", st2205.ErrSizeConstraint)
	}
	r.printf("Dumping %d pages\n", pages-PicturePage)
	return r.dumpTo(path, func(w io.Writer) error {
		return frame.DumpPages(w, PicturePage, pages-PicturePage)
	})
}

func (r *Runner) uploadPages(frame Frame, path string, start int) error {
	f, err := helpers.OpenSized(r.Fs, path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	pages, err := st2205.CheckUploadSize(f.Size)
	if err != nil {
		return err
	}
	if start+pages > st2205.MaxPages {
		return fmt.Errorf("%w: %d pages from page %d runs past the flash", st2205.ErrSizeConstraint, pages, start)
	}
	r.printf("Writing %d pages\n", pages)
	return frame.UploadFile(f, f.Size, start)
}

func (r *Runner) uploadCode(path string, limit int64, send func([]byte) error) error {
	code, err := helpers.ReadLimited(r.Fs, path, limit)
	if err != nil {
		if errors.Is(err, helpers.ErrTooLarge) {
			return fmt.Errorf("%w: %w", st2205.ErrSizeConstraint, err)
		}
		return err
	}
	return send(code)
}

func (r *Runner) backupFirmware(frame Frame) (string, error) {
	path := filepath.Join(r.BackupDir, helpers.BackupName(r.Clock.Now()))
	if err := r.dumpTo(path, frame.DumpFirmware); err != nil {
		return "", fmt.Errorf("firmware backup failed: %w", err)
	}
	return path, nil
}

func (r *Runner) uploadFirmware(frame Frame, path string) error {
	f, err := helpers.OpenSized(r.Fs, path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if f.Size != st2205.FirmwareSize {
		// rejected by the device layer too, before anything is sent
		return frame.UploadFirmware(f, f.Size)
	}

	if r.BackupDir != "" {
		backup, err := r.backupFirmware(frame)
		if err != nil {
			return err
		}
		r.printf("Current firmware saved to %s\n", backup)
	}

	r.printf("WARNING: Uploading firmware now. Do not power off or unplug!\n")
	if err := frame.UploadFirmware(f, f.Size); err != nil {
		return err
	}
	r.printf("Upload done\n")
	return nil
}

func (r *Runner) info(frame Frame) error {
	pi, err := frame.PictureInfo()
	if err != nil {
		return err
	}
	r.printf("%s\n", pi)

	pf, err := frame.PictureFormat()
	if err != nil {
		return err
	}
	r.printf("picture format: %02x %02x\n", pf[0], pf[1])

	ver, err := frame.FirmwareVersion()
	if err != nil {
		return err
	}
	r.printf("ver: %02x %02x %02x\n", ver[0], ver[1], ver[2])

	mem, err := frame.MemorySize()
	if err != nil {
		return err
	}
	flash := st2205.FlashSize(mem)
	r.printf("Device reports %d kb memory, assuming %d kb flash or %d pages\n", mem, flash, flash/32)
	return nil
}

// FirmwareFailure describes a failed firmware upload for the user.
func FirmwareFailure(err error) (string, bool) {
	var fe *st2205.FirmwareError
	if !errors.As(err, &fe) {
		return "", false
	}
	if fe.Safety() == st2205.SafeFailure {
		return "SAFE: firmware upload failed before anything was written, the frame is unchanged", true
	}
	return "UNSAFE: firmware upload failed after writing to the frame; " +
		"do NOT unplug it, retry the upload or restore the backup first", true
}
