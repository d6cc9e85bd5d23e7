package mos

import "time"

// Offsets into the MOS system variable area. Variables wider than one
// byte are little-endian; their width in bytes is noted.
const (
	SysVarTime          = 0x00 // 4: clock in centiseconds, +2 every VBLANK
	SysVarVDPFlags      = 0x04 // 1: VDP reply completion flags
	SysVarKeyASCII      = 0x05 // 1: ASCII keycode, 0 when no key is down
	SysVarKeyMods       = 0x06 // 1: keycode modifiers
	SysVarCursorX       = 0x07 // 1: text cursor column
	SysVarCursorY       = 0x08 // 1: text cursor row
	SysVarScrChar       = 0x09 // 1: character read back from the screen
	SysVarScrPixel      = 0x0A // 3: pixel read back from the screen (R,B,G)
	SysVarAudioChannel  = 0x0D // 1: audio channel of the last note
	SysVarAudioSuccess  = 0x0E // 1: note queued, 0 or 1
	SysVarScrWidth      = 0x0F // 2: screen width in pixels
	SysVarScrHeight     = 0x11 // 2: screen height in pixels
	SysVarScrCols       = 0x13 // 1: screen width in characters
	SysVarScrRows       = 0x14 // 1: screen height in characters
	SysVarScrColours    = 0x15 // 1: colours displayed
	SysVarScrPixelIndex = 0x16 // 1: palette index of the pixel read back
	SysVarVKeyCode      = 0x17 // 1: virtual key code
	SysVarVKeyDown      = 0x18 // 1: virtual key state, 0 up 1 down
	SysVarVKeyCount     = 0x19 // 1: bumped on every key packet
	SysVarRTC           = 0x1A // 8: RTC broadcast area
	SysVarKeyDelay      = 0x22 // 2: keyboard repeat delay
	SysVarKeyRate       = 0x24 // 2: keyboard repeat rate
	SysVarKeyLED        = 0x26 // 1: keyboard LED status

	// SysVarsSize is the length of the whole area.
	SysVarsSize = 0x27
)

// SysVars is a snapshot of the system variable area as fetched from a
// machine. Getters read at the offsets above; a snapshot shorter than
// the field being read yields zero values, so callers that need to
// distinguish truncation should check the length once up front.
type SysVars []byte

func (v SysVars) u8(off int) uint8 {
	if off >= len(v) {
		return 0
	}
	return v[off]
}

func (v SysVars) u16(off int) uint16 {
	if off+2 > len(v) {
		return 0
	}
	return uint16(v[off]) | uint16(v[off+1])<<8
}

func (v SysVars) u32(off int) uint32 {
	if off+4 > len(v) {
		return 0
	}
	return uint32(v[off]) | uint32(v[off+1])<<8 | uint32(v[off+2])<<16 | uint32(v[off+3])<<24
}

// Time reports the centisecond tick counter.
func (v SysVars) Time() uint32 { return v.u32(SysVarTime) }

// Uptime reports the tick counter as a duration since boot.
func (v SysVars) Uptime() time.Duration { return TicksToDuration(v.Time()) }

func (v SysVars) VDPFlags() VDPFlag { return VDPFlag(v.u8(SysVarVDPFlags)) }

// KeyASCII reports the ASCII code of the held key, 0 when none.
func (v SysVars) KeyASCII() byte { return v.u8(SysVarKeyASCII) }

func (v SysVars) KeyMods() uint8   { return v.u8(SysVarKeyMods) }
func (v SysVars) KeyLED() uint8    { return v.u8(SysVarKeyLED) }
func (v SysVars) KeyDelay() uint16 { return v.u16(SysVarKeyDelay) }
func (v SysVars) KeyRate() uint16  { return v.u16(SysVarKeyRate) }

// Cursor reports the text cursor position.
func (v SysVars) Cursor() (x, y uint8) {
	return v.u8(SysVarCursorX), v.u8(SysVarCursorY)
}

// ScrChar reports the character last read back from the screen.
func (v SysVars) ScrChar() byte { return v.u8(SysVarScrChar) }

// ScrPixel reports the pixel last read back from the screen. The area
// stores the components in R,B,G order; this returns them as R,G,B.
func (v SysVars) ScrPixel() (r, g, b uint8) {
	return v.u8(SysVarScrPixel), v.u8(SysVarScrPixel + 2), v.u8(SysVarScrPixel + 1)
}

func (v SysVars) ScrPixelIndex() uint8 { return v.u8(SysVarScrPixelIndex) }

func (v SysVars) AudioChannel() uint8 { return v.u8(SysVarAudioChannel) }
func (v SysVars) AudioSuccess() bool  { return v.u8(SysVarAudioSuccess) != 0 }

// ScreenSize reports the display size in pixels.
func (v SysVars) ScreenSize() (width, height uint16) {
	return v.u16(SysVarScrWidth), v.u16(SysVarScrHeight)
}

// TextSize reports the display size in characters.
func (v SysVars) TextSize() (cols, rows uint8) {
	return v.u8(SysVarScrCols), v.u8(SysVarScrRows)
}

func (v SysVars) Colours() uint8 { return v.u8(SysVarScrColours) }

func (v SysVars) VKeyCode() uint8  { return v.u8(SysVarVKeyCode) }
func (v SysVars) VKeyDown() bool   { return v.u8(SysVarVKeyDown) != 0 }
func (v SysVars) VKeyCount() uint8 { return v.u8(SysVarVKeyCount) }

// RTC copies out the eight-byte RTC broadcast area.
func (v SysVars) RTC() [8]byte {
	var out [8]byte
	for i := range out {
		out[i] = v.u8(SysVarRTC + i)
	}
	return out
}
