// Package mos defines the data surface of the Agon MOS programming
// interface: file access modes, status codes, the system variable layout,
// settings structs, RTC time packing and the API function numbering.
//
// Everything here is plain data and pure helpers with no I/O. The remote
// calls that move these values to and from a machine live in host/agon.
package mos

// Mode bits select how the firmware opens a file. They combine with
// bitwise OR, e.g. ModeWrite|ModeCreateAlways to truncate or create.
type Mode uint8

const (
	ModeOpenExisting Mode = 0x00
	ModeRead         Mode = 0x01
	ModeWrite        Mode = 0x02
	ModeCreateNew    Mode = 0x04
	ModeCreateAlways Mode = 0x08
	ModeOpenAlways   Mode = 0x10
	ModeOpenAppend   Mode = 0x30
)

// VDPFlag bits in the VDPFlags sysvar record which VDP replies have
// arrived since the flag was last cleared. Poll the flag after a request
// to know its answer has landed in the sysvar area.
type VDPFlag uint8

const (
	VDPFlagCursor  VDPFlag = 0x01
	VDPFlagScrChar VDPFlag = 0x02
	VDPFlagPoint   VDPFlag = 0x04
	VDPFlagAudio   VDPFlag = 0x08
	VDPFlagMode    VDPFlag = 0x10
	VDPFlagRTC     VDPFlag = 0x20
)
