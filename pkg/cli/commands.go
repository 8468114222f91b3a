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
	"fmt"
	"io"
	"strings"

	"github.com/hbollon/go-edlib"
)

// Operation is a phack action.
type Operation int

const (
	OpDumpPictures Operation = iota
	OpUploadPictures
	OpDumpFirmware
	OpUploadFirmware
	OpDumpRAM
	OpMessage
	OpInfo
	OpHackMessage
	OpUploadCode
	OpUploadLongCode
	OpUploadImage
	OpUploadPages
	OpSetClock
	OpBacklight
	OpSleep
)

// ParamKind says which parameters an operation takes after its name.
type ParamKind int

const (
	ParamNone ParamKind = iota
	ParamText
	ParamInFile
	ParamOutFile
	// ParamPageInFile is a start page followed by an input file.
	ParamPageInFile
	// ParamSwitch is "on" or "off".
	ParamSwitch
)

// Count is the number of command line arguments the kind consumes.
func (k ParamKind) Count() int {
	switch k {
	case ParamNone:
		return 0
	case ParamPageInFile:
		return 2
	default:
		return 1
	}
}

func (k ParamKind) usage() string {
	switch k {
	case ParamText:
		return " TEXT"
	case ParamInFile, ParamOutFile:
		return " FILE"
	case ParamPageInFile:
		return " START FILE"
	case ParamSwitch:
		return " on|off"
	default:
		return ""
	}
}

// Command describes one phack operation.
type Command struct {
	Name      string
	Help      string
	Operation Operation
	Param     ParamKind
}

// Commands is the closed set of phack operations in usage order.
var Commands = []Command{
	{Name: "-dp", Help: "dump picture memory", Operation: OpDumpPictures, Param: ParamOutFile},
	{Name: "-up", Help: "upload picture memory", Operation: OpUploadPictures, Param: ParamInFile},
	{Name: "-df", Help: "dump firmware", Operation: OpDumpFirmware, Param: ParamOutFile},
	{Name: "--upload-firmware", Help: "upload firmware", Operation: OpUploadFirmware, Param: ParamInFile},
	{Name: "-dr", Help: "dump RAM", Operation: OpDumpRAM, Param: ParamOutFile},
	{Name: "-m", Help: "display message (9 characters)", Operation: OpMessage, Param: ParamText},
	{Name: "-i", Help: "print information", Operation: OpInfo, Param: ParamNone},
	{Name: "-Hm", Help: "display message (64 characters)", Operation: OpHackMessage, Param: ParamText},
	{
		Name:      "--upload-code",
		Help:      "upload and execute up to 64 bytes of code at 0x200",
		Operation: OpUploadCode,
		Param:     ParamInFile,
	},
	{
		Name:      "--upload-long-code",
		Help:      "upload and execute up to 0x200 bytes of code at 0x580",
		Operation: OpUploadLongCode,
		Param:     ParamInFile,
	},
	{Name: "--upload-image", Help: "upload image", Operation: OpUploadImage, Param: ParamInFile},
	{Name: "--upload-pages", Help: "upload pages starting at START", Operation: OpUploadPages, Param: ParamPageInFile},
	{Name: "--set-clock", Help: "set the frame clock to the local time", Operation: OpSetClock, Param: ParamNone},
	{Name: "--backlight", Help: "switch the backlight", Operation: OpBacklight, Param: ParamSwitch},
	{Name: "--sleep", Help: "put the LCD to sleep or wake it", Operation: OpSleep, Param: ParamSwitch},
}

// minSuggestSimilarity is the Jaro-Winkler score below which no
// suggestion is offered.
const minSuggestSimilarity = 0.7

// Lookup finds a command by exact name.
func Lookup(name string) (Command, bool) {
	for _, c := range Commands {
		if c.Name == name {
			return c, true
		}
	}
	return Command{}, false
}

// Suggest returns the known command name closest to name, if any is close
// enough.
func Suggest(name string) (string, bool) {
	query := strings.TrimLeft(name, "-")
	best := ""
	var bestScore float32
	for _, c := range Commands {
		score := edlib.JaroWinklerSimilarity(query, strings.TrimLeft(c.Name, "-"))
		if score > bestScore {
			best, bestScore = c.Name, score
		}
	}
	if bestScore < minSuggestSimilarity {
		return "", false
	}
	return best, true
}

// PrintUsage writes the phack usage text.
func PrintUsage(w io.Writer, prog string) {
	_, _ = fmt.Fprintf(w, "Usage:\n%s DEVICE OPERATION [PARAMETER]\n", prog)
	for _, c := range Commands {
		_, _ = fmt.Fprintf(w, " %s%s: %s\n", c.Name, c.Param.usage(), c.Help)
	}
	_, _ = fmt.Fprintln(w, " FILE: file to dump to or upload from")
	_, _ = fmt.Fprintln(w, " DEVICE: /dev/sdX, or auto to search for the frame")
}
