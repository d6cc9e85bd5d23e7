package mos

import "strconv"

// Op numbers a remote MOS call. The low range follows the firmware's
// own API numbering; the console operations, which the firmware reaches
// through separate vectors, sit at 0x80 and up; OpIdentify is the link
// handshake and belongs to neither table.
type Op uint8

const (
	OpGetKey       Op = 0x00
	OpLoad         Op = 0x01
	OpSave         Op = 0x02
	OpChangeDir    Op = 0x03
	OpDir          Op = 0x04
	OpDelete       Op = 0x05
	OpRename       Op = 0x06
	OpMkDir        Op = 0x07
	OpSysVars      Op = 0x08
	OpEditLine     Op = 0x09
	OpFOpen        Op = 0x0A
	OpFClose       Op = 0x0B
	OpFGetC        Op = 0x0C
	OpFPutC        Op = 0x0D
	OpFEOF         Op = 0x0E
	OpGetError     Op = 0x0F
	OpOSCLI        Op = 0x10
	OpCopy         Op = 0x11
	OpGetRTC       Op = 0x12
	OpSetRTC       Op = 0x13
	OpSetIntVector Op = 0x14 // firmware table slot; not callable over the link
	OpUOpen        Op = 0x15
	OpUClose       Op = 0x16
	OpUGetC        Op = 0x17
	OpUPutC        Op = 0x18
	OpGetFil       Op = 0x19
	OpFRead        Op = 0x1A
	OpFWrite       Op = 0x1B
	OpFLSeek       Op = 0x1C

	OpIdentify Op = 0x7F

	OpPutChar    Op = 0x80
	OpPuts       Op = 0x81
	OpWaitVBlank Op = 0x82
)

var opNames = map[Op]string{
	OpGetKey:       "getkey",
	OpLoad:         "load",
	OpSave:         "save",
	OpChangeDir:    "cd",
	OpDir:          "dir",
	OpDelete:       "del",
	OpRename:       "ren",
	OpMkDir:        "mkdir",
	OpSysVars:      "sysvars",
	OpEditLine:     "editline",
	OpFOpen:        "fopen",
	OpFClose:       "fclose",
	OpFGetC:        "fgetc",
	OpFPutC:        "fputc",
	OpFEOF:         "feof",
	OpGetError:     "geterror",
	OpOSCLI:        "oscli",
	OpCopy:         "copy",
	OpGetRTC:       "getrtc",
	OpSetRTC:       "setrtc",
	OpSetIntVector: "setintvector",
	OpUOpen:        "uopen",
	OpUClose:       "uclose",
	OpUGetC:        "ugetc",
	OpUPutC:        "uputc",
	OpGetFil:       "getfil",
	OpFRead:        "fread",
	OpFWrite:       "fwrite",
	OpFLSeek:       "flseek",
	OpIdentify:     "identify",
	OpPutChar:      "putch",
	OpPuts:         "puts",
	OpWaitVBlank:   "waitvblank",
}

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "op 0x" + strconv.FormatUint(uint64(op), 16)
}
