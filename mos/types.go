package mos

import "errors"

// ErrShortData reports a payload too short for the structure being
// decoded from it.
var ErrShortData = errors.New("mos: short data")

// UARTConfig carries the settings block for the uopen call. BaudRate
// travels as a 24-bit integer on the wire, so rates above 16777215 are
// not representable.
type UARTConfig struct {
	BaudRate    int
	DataBits    uint8
	StopBits    uint8
	Parity      uint8
	FlowControl uint8
	Interrupts  uint8
}

// FileInfoSize is the packed wire size of a file object.
const FileInfoSize = 36

// FileInfo mirrors the firmware's per-handle file object as returned by
// the getfil call. Fields that are pointers on the machine carry 24-bit
// addresses and appear here as plain integers; they identify objects,
// they are not dereferenceable.
type FileInfo struct {
	Volume     uint32 // hosting volume address, 24-bit
	VolumeID   uint16 // volume mount ID
	Attr       uint8  // object attribute bits
	Stat       uint8  // chain status bits
	StartClust uint32 // first data cluster, 0 when none
	Size       uint32 // object size in bytes
	Flag       uint8  // file status flags
	Err        uint8  // sticky abort code
	Pos        uint32 // read/write pointer
	Clust      uint32 // cluster under Pos
	Sector     uint32 // sector held in the window buffer
	DirSector  uint32 // sector holding the directory entry
	DirEntry   uint32 // directory entry address, 24-bit
}

// EncodeFileInfo packs fi into the firmware's little-endian layout.
func EncodeFileInfo(fi FileInfo) []byte {
	b := make([]byte, 0, FileInfoSize)
	b = putU24(b, fi.Volume)
	b = putU16(b, fi.VolumeID)
	b = append(b, fi.Attr, fi.Stat)
	b = putU32(b, fi.StartClust)
	b = putU32(b, fi.Size)
	b = append(b, fi.Flag, fi.Err)
	b = putU32(b, fi.Pos)
	b = putU32(b, fi.Clust)
	b = putU32(b, fi.Sector)
	b = putU32(b, fi.DirSector)
	b = putU24(b, fi.DirEntry)
	return b
}

// DecodeFileInfo unpacks a getfil payload.
func DecodeFileInfo(data []byte) (FileInfo, error) {
	if len(data) < FileInfoSize {
		return FileInfo{}, ErrShortData
	}
	return FileInfo{
		Volume:     getU24(data[0:]),
		VolumeID:   uint16(getU16(data[3:])),
		Attr:       data[5],
		Stat:       data[6],
		StartClust: getU32(data[7:]),
		Size:       getU32(data[11:]),
		Flag:       data[15],
		Err:        data[16],
		Pos:        getU32(data[17:]),
		Clust:      getU32(data[21:]),
		Sector:     getU32(data[25:]),
		DirSector:  getU32(data[29:]),
		DirEntry:   getU24(data[33:]),
	}, nil
}

func putU16(b []byte, v uint16) []byte {
	return append(b, byte(v), byte(v>>8))
}

func putU24(b []byte, v uint32) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16))
}

func putU32(b []byte, v uint32) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func getU16(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8
}

func getU24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

func getU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
