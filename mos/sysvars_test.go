package mos

import (
	"testing"
	"time"
)

func TestSysVarsGetters(t *testing.T) {
	v := make(SysVars, SysVarsSize)

	// 360150 ticks = 1h 1.5s.
	v[SysVarTime] = 0xD6
	v[SysVarTime+1] = 0x7E
	v[SysVarTime+2] = 0x05
	v[SysVarVDPFlags] = byte(VDPFlagCursor | VDPFlagRTC)
	v[SysVarKeyASCII] = 'A'
	v[SysVarKeyMods] = 0x02
	v[SysVarCursorX] = 5
	v[SysVarCursorY] = 10
	v[SysVarScrChar] = '#'
	v[SysVarScrPixel] = 0x11   // R
	v[SysVarScrPixel+1] = 0x22 // B
	v[SysVarScrPixel+2] = 0x33 // G
	v[SysVarAudioChannel] = 3
	v[SysVarAudioSuccess] = 1
	v[SysVarScrWidth] = 0x80 // 640
	v[SysVarScrWidth+1] = 0x02
	v[SysVarScrHeight] = 0xE0 // 480
	v[SysVarScrHeight+1] = 0x01
	v[SysVarScrCols] = 80
	v[SysVarScrRows] = 60
	v[SysVarScrColours] = 64
	v[SysVarScrPixelIndex] = 7
	v[SysVarVKeyCode] = 0x9C
	v[SysVarVKeyDown] = 1
	v[SysVarVKeyCount] = 42
	v[SysVarKeyDelay] = 0xF4 // 500
	v[SysVarKeyDelay+1] = 0x01
	v[SysVarKeyRate] = 100
	v[SysVarKeyLED] = 0x07

	if got := v.Time(); got != 360150 {
		t.Errorf("Time: expected 360150, got %d", got)
	}
	if got := v.Uptime(); got != time.Hour+1500*time.Millisecond {
		t.Errorf("Uptime: expected 1h1.5s, got %v", got)
	}
	if got := v.VDPFlags(); got&VDPFlagRTC == 0 || got&VDPFlagAudio != 0 {
		t.Errorf("VDPFlags: expected cursor|rtc, got %#02x", uint8(got))
	}
	if got := v.KeyASCII(); got != 'A' {
		t.Errorf("KeyASCII: expected 'A', got %q", got)
	}
	if got := v.KeyMods(); got != 0x02 {
		t.Errorf("KeyMods: expected 0x02, got %#02x", got)
	}
	if x, y := v.Cursor(); x != 5 || y != 10 {
		t.Errorf("Cursor: expected (5, 10), got (%d, %d)", x, y)
	}
	if got := v.ScrChar(); got != '#' {
		t.Errorf("ScrChar: expected '#', got %q", got)
	}
	if r, g, b := v.ScrPixel(); r != 0x11 || g != 0x33 || b != 0x22 {
		t.Errorf("ScrPixel: expected (11, 33, 22), got (%02x, %02x, %02x)", r, g, b)
	}
	if got := v.AudioChannel(); got != 3 {
		t.Errorf("AudioChannel: expected 3, got %d", got)
	}
	if !v.AudioSuccess() {
		t.Error("AudioSuccess: expected true")
	}
	if w, h := v.ScreenSize(); w != 640 || h != 480 {
		t.Errorf("ScreenSize: expected 640x480, got %dx%d", w, h)
	}
	if cols, rows := v.TextSize(); cols != 80 || rows != 60 {
		t.Errorf("TextSize: expected 80x60, got %dx%d", cols, rows)
	}
	if got := v.Colours(); got != 64 {
		t.Errorf("Colours: expected 64, got %d", got)
	}
	if got := v.ScrPixelIndex(); got != 7 {
		t.Errorf("ScrPixelIndex: expected 7, got %d", got)
	}
	if got := v.VKeyCode(); got != 0x9C {
		t.Errorf("VKeyCode: expected 0x9c, got %#02x", got)
	}
	if !v.VKeyDown() {
		t.Error("VKeyDown: expected true")
	}
	if got := v.VKeyCount(); got != 42 {
		t.Errorf("VKeyCount: expected 42, got %d", got)
	}
	if got := v.KeyDelay(); got != 500 {
		t.Errorf("KeyDelay: expected 500, got %d", got)
	}
	if got := v.KeyRate(); got != 100 {
		t.Errorf("KeyRate: expected 100, got %d", got)
	}
	if got := v.KeyLED(); got != 0x07 {
		t.Errorf("KeyLED: expected 0x07, got %#02x", got)
	}
}

func TestSysVarsRTC(t *testing.T) {
	v := make(SysVars, SysVarsSize)
	blob := [8]byte{44, 1, 15, 14, 2, 10, 30, 0}
	copy(v[SysVarRTC:], blob[:])

	if got := v.RTC(); got != blob {
		t.Errorf("RTC: expected %v, got %v", blob, got)
	}
}

func TestSysVarsShortSnapshot(t *testing.T) {
	v := SysVars{0x01, 0x02}

	// Multi-byte fields truncated by the snapshot read as zero.
	if got := v.Time(); got != 0 {
		t.Errorf("Time on short snapshot: expected 0, got %d", got)
	}
	if w, h := v.ScreenSize(); w != 0 || h != 0 {
		t.Errorf("ScreenSize on short snapshot: expected 0x0, got %dx%d", w, h)
	}
	if got := v.KeyLED(); got != 0 {
		t.Errorf("KeyLED on short snapshot: expected 0, got %d", got)
	}
	if got := v.RTC(); got != ([8]byte{}) {
		t.Errorf("RTC on short snapshot: expected zeros, got %v", got)
	}
}
