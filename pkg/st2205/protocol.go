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

package st2205

// The frame exposes its command interface by intercepting reads and writes
// at fixed offsets of its pseudo disk. Patched firmware additionally maps
// 0x4200 straight to the LCD, which this package does not use.
const (
	PosCommand   = 0x6200
	PosWriteData = 0x6600
	PosReadData  = 0xB000
)

// Transfer sizes
const (
	SectorSize   = 0x200
	USBPacket    = 64
	PageSize     = 0x8000
	FirmwareSize = 2 * PageSize
	MaxPages     = 0x80
	RAMSize      = 0x880
	FreeRAMAddr  = 0x580
	FreeRAMSize  = 0x200
	CodeAddr     = 0x200
	MessageLen   = 9
	signatureLen = 15
)

// Opcode is the first byte of a command block.
type Opcode byte

// Opcodes understood by the stock firmware at PosCommand.
const (
	CmdGetMemSize    Opcode = 1
	CmdFlashChecksum Opcode = 2
	CmdFlashWrite    Opcode = 3
	CmdFlashRead     Opcode = 4
	CmdGetPicInfo    Opcode = 5
	CmdSetClock      Opcode = 6
	CmdGetPicFormat  Opcode = 7
	CmdGetVersion    Opcode = 8
	CmdMessage       Opcode = 9
)

// Display stream opcodes. These are the first byte of a 64-byte block in
// the pixel stream written to PosWriteData, not command blocks.
const (
	StreamSetWindowPCF8833 byte = 0x01
	StreamSetWindow        byte = 0x10
	StreamBacklightOn      byte = 0x11
	StreamBacklightOff     byte = 0x12
	StreamLCDWake          byte = 0x13
	StreamLCDSleep         byte = 0x14
)

const (
	hackMarker     = 8
	hackTagCode    = "HACK"
	hackTagText    = "TXTP"
	firmwareFlag   = 0x80000000
	firmwareVerify = 6
	runBlock       = 64
	runHeader      = 0xC0
	runMax         = runBlock - 1
)

// Signature is the vendor string at offset 0 of every ST2205U frame.
const Signature = "SITRONIX CORP.\x00"

// Protocol selects how the set-window block is laid out.
type Protocol int

const (
	ProtoPCF8833 Protocol = 0
	ProtoMercury Protocol = 1
)

func (p Protocol) String() string {
	switch p {
	case ProtoPCF8833:
		return "pcf8833"
	case ProtoMercury:
		return "mercury"
	default:
		return "unknown"
	}
}

// Valid reports whether p is one of the known protocol variants.
func (p Protocol) Valid() bool {
	return p == ProtoPCF8833 || p == ProtoMercury
}

// PageAddress converts a page number to the argument used by flash read and
// write commands. The firmware subtracts two from the low byte only.
func PageAddress(page int) uint32 {
	return uint32((page & 0xFF00) | (((page & 0xFF) - 2) & 0xFF))
}

// ChecksumAddress converts a page number to the argument used by the flash
// checksum command. Here the firmware subtracts two from the whole 16 bit
// value.
func ChecksumAddress(page int) uint32 {
	return uint32((page - 2) & 0xFFFF)
}

// Checksum32 is the unsigned byte sum the firmware reports for a page.
func Checksum32(data []byte) uint32 {
	var sum uint32
	for _, b := range data {
		sum += uint32(b)
	}
	return sum
}
