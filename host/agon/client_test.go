package agon

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"net"
	"strings"
	"testing"
	"time"

	"gomos/civil"
	"gomos/host/sim"
	"gomos/mos"
)

var _ io.ReadWriteSeeker = (*File)(nil)
var _ io.Closer = (*File)(nil)

// startClient wires a client to a simulated machine over an in-memory
// pipe and runs the identify handshake.
func startClient(t *testing.T) (*sim.Machine, *Client) {
	t.Helper()
	m := sim.NewMachine()
	hostEnd, devEnd := net.Pipe()
	go m.Serve(devEnd)
	c := NewClient(hostEnd, nil)
	if err := c.Identify(); err != nil {
		t.Fatalf("identify failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return m, c
}

func TestClientIdentify(t *testing.T) {
	_, c := startClient(t)
	if got := c.Firmware(); got != sim.Banner {
		t.Errorf("firmware banner: expected %q, got %q", sim.Banner, got)
	}
}

func TestClientFileLifecycle(t *testing.T) {
	m, c := startClient(t)
	content := []byte("10 PRINT \"HELLO\"\n20 GOTO 10\n")

	f, err := c.Open("hello.bas", mos.ModeWrite|mos.ModeCreateNew)
	if err != nil {
		t.Fatalf("Open for write failed: %v", err)
	}
	if n, err := f.Write(content); err != nil || n != len(content) {
		t.Fatalf("Write: n=%d err=%v", n, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
	if _, err := f.Read(make([]byte, 1)); !errors.Is(err, fs.ErrClosed) {
		t.Errorf("read after close: expected fs.ErrClosed, got %v", err)
	}

	stored, ok := m.File("hello.bas")
	if !ok || !bytes.Equal(stored, content) {
		t.Fatalf("volume contents: got %q (ok=%v)", stored, ok)
	}

	f, err = c.Open("hello.bas", mos.ModeRead)
	if err != nil {
		t.Fatalf("Open for read failed: %v", err)
	}
	defer f.Close()
	back, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if !bytes.Equal(back, content) {
		t.Errorf("read back: expected %q, got %q", content, back)
	}

	eof, err := f.EOF()
	if err != nil || !eof {
		t.Errorf("EOF after draining: got %v (err %v)", eof, err)
	}
}

func TestClientFileSeek(t *testing.T) {
	_, c := startClient(t)

	f, err := c.Open("seek.txt", mos.ModeRead|mos.ModeWrite|mos.ModeCreateAlways)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()
	if _, err := f.Write([]byte("hello world")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	pos, err := f.Seek(6, io.SeekStart)
	if err != nil || pos != 6 {
		t.Fatalf("Seek(6, start): pos=%d err=%v", pos, err)
	}
	word := make([]byte, 5)
	if _, err := io.ReadFull(f, word); err != nil {
		t.Fatalf("ReadFull failed: %v", err)
	}
	if string(word) != "world" {
		t.Errorf("read after seek: expected %q, got %q", "world", word)
	}

	pos, err = f.Seek(-5, io.SeekEnd)
	if err != nil || pos != 6 {
		t.Fatalf("Seek(-5, end): pos=%d err=%v", pos, err)
	}
	pos, err = f.Seek(0, io.SeekCurrent)
	if err != nil || pos != 6 {
		t.Fatalf("Seek(0, current): pos=%d err=%v", pos, err)
	}

	if _, err := f.Seek(-1, io.SeekStart); err == nil {
		t.Error("expected an error seeking before the start")
	}

	fi, err := f.Stat()
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if fi.Size != 11 {
		t.Errorf("Stat size: expected 11, got %d", fi.Size)
	}
}

func TestClientChunkedTransfer(t *testing.T) {
	m, c := startClient(t)

	// Big enough to cross many frame-sized chunks.
	content := make([]byte, 1000)
	for i := range content {
		content[i] = byte(i * 7)
	}

	f, err := c.Open("big.bin", mos.ModeWrite|mos.ModeCreateAlways)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if n, err := f.Write(content); err != nil || n != len(content) {
		t.Fatalf("Write: n=%d err=%v", n, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if stored, ok := m.File("big.bin"); !ok || !bytes.Equal(stored, content) {
		t.Fatal("volume contents differ after chunked write")
	}

	f, err = c.Open("big.bin", mos.ModeRead)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer f.Close()
	back, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if !bytes.Equal(back, content) {
		t.Error("chunked read back differs")
	}
}

func TestClientErrorMapping(t *testing.T) {
	_, c := startClient(t)

	_, err := c.FOpen("missing.bin", mos.ModeRead)
	if !errors.Is(err, mos.ResultNoFile) {
		t.Errorf("expected ResultNoFile, got %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), `fopen "missing.bin"`) {
		t.Errorf("error should name the operation and file: %v", err)
	}

	if err := c.Delete("missing.bin"); !errors.Is(err, mos.ResultNoFile) {
		t.Errorf("delete: expected ResultNoFile, got %v", err)
	}

	if err := c.MkDir("twice"); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := c.MkDir("twice"); !errors.Is(err, mos.ResultExist) {
		t.Errorf("second mkdir: expected ResultExist, got %v", err)
	}
	if err := c.ChangeDir("nowhere"); !errors.Is(err, mos.ResultNoPath) {
		t.Errorf("cd: expected ResultNoPath, got %v", err)
	}
}

func TestClientFilesystemCommands(t *testing.T) {
	m, c := startClient(t)
	m.PutFile("app.bin", []byte{0xC3, 0x00, 0x04})

	if err := c.Load("app.bin", 0x040000); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := c.Save("app2.bin", 0x040000, 3); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if data, ok := m.File("app2.bin"); !ok || !bytes.Equal(data, []byte{0xC3, 0x00, 0x04}) {
		t.Errorf("saved copy: got % x (ok=%v)", data, ok)
	}

	if err := c.Copy("app.bin", "app3.bin"); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if err := c.Rename("app3.bin", "app4.bin"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if err := c.Delete("app4.bin"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if err := c.Dir(""); err != nil {
		t.Fatalf("Dir failed: %v", err)
	}
	if console := m.Console(); !strings.Contains(console, "app.bin") {
		t.Errorf("dir listing missing from console: %q", console)
	}
}

func TestClientConsole(t *testing.T) {
	m, c := startClient(t)

	if err := c.PutChar('>'); err != nil {
		t.Fatalf("PutChar failed: %v", err)
	}
	if err := c.Puts(" ready\r\n"); err != nil {
		t.Fatalf("Puts failed: %v", err)
	}
	if got := m.Console(); got != "> ready\r\n" {
		t.Errorf("console: got %q", got)
	}

	if err := c.OSCLI("cat"); err != nil {
		t.Fatalf("OSCLI failed: %v", err)
	}
	if got := m.Console(); !strings.Contains(got, "*cat\r\n") {
		t.Errorf("oscli echo missing: %q", got)
	}

	m.PressKey('q')
	ch, err := c.GetChar()
	if err != nil || ch != 'q' {
		t.Errorf("GetChar: expected 'q', got %q (err %v)", ch, err)
	}

	m.PressKey('o', 'k', 13)
	line, exitKey, err := c.EditLine("", false)
	if err != nil {
		t.Fatalf("EditLine failed: %v", err)
	}
	if line != "ok" || exitKey != 13 {
		t.Errorf("EditLine: expected (\"ok\", 13), got (%q, %d)", line, exitKey)
	}
}

func TestClientSysVarsAndUptime(t *testing.T) {
	m, c := startClient(t)
	m.Tick(500)

	vars, err := c.SysVars()
	if err != nil {
		t.Fatalf("SysVars failed: %v", err)
	}
	if cols, rows := vars.TextSize(); cols != 80 || rows != 60 {
		t.Errorf("text size: expected 80x60, got %dx%d", cols, rows)
	}

	up, err := c.Uptime()
	if err != nil || up != 5*time.Second {
		t.Errorf("uptime: expected 5s, got %v (err %v)", up, err)
	}

	peek, err := c.PeekSysVar(mos.SysVarScrCols, 2)
	if err != nil || len(peek) != 2 || peek[0] != 80 || peek[1] != 60 {
		t.Errorf("peek: got % x (err %v)", peek, err)
	}
	if _, err := c.PeekSysVar(mos.SysVarsSize, 1); err == nil {
		t.Error("expected an error peeking past the sysvar area")
	}

	// Each vblank advances the clock two centiseconds.
	if err := c.WaitVBlank(); err != nil {
		t.Fatalf("WaitVBlank failed: %v", err)
	}
	if err := c.WaitVBlank(); err != nil {
		t.Fatalf("WaitVBlank failed: %v", err)
	}
	up, err = c.Uptime()
	if err != nil || up != 5*time.Second+40*time.Millisecond {
		t.Errorf("uptime after vblanks: expected 5.04s, got %v (err %v)", up, err)
	}
}

func TestClientRTC(t *testing.T) {
	m, c := startClient(t)

	want, err := civil.Date(2025, time.August, 25, 10, 30, 0)
	if err != nil {
		t.Fatalf("civil.Date failed: %v", err)
	}
	if err := c.SetRTC(want); err != nil {
		t.Fatalf("SetRTC failed: %v", err)
	}
	if got := m.Clock(); got != want {
		t.Errorf("machine clock: expected %v, got %v", want, got)
	}

	text, err := c.RTC()
	if err != nil || text != "2025-08-25T10:30:00Z" {
		t.Errorf("RTC text: got %q (err %v)", text, err)
	}

	// The firmware's time format cannot carry years before 1980.
	old, err := civil.Date(1979, time.December, 31, 23, 59, 59)
	if err != nil {
		t.Fatalf("civil.Date failed: %v", err)
	}
	if err := c.SetRTC(old); err == nil {
		t.Error("expected an error for a pre-1980 clock")
	}
}

func TestClientUART(t *testing.T) {
	_, c := startClient(t)

	if _, err := c.UGetC(); !errors.Is(err, mos.ResultNotReady) {
		t.Errorf("ugetc before uopen: expected ResultNotReady, got %v", err)
	}

	cfg := mos.UARTConfig{BaudRate: 31250, DataBits: 8, StopBits: 1}
	if err := c.UOpen(cfg); err != nil {
		t.Fatalf("UOpen failed: %v", err)
	}
	if err := c.UPutC(0xF8); err != nil {
		t.Fatalf("UPutC failed: %v", err)
	}
	ch, err := c.UGetC()
	if err != nil || ch != 0xF8 {
		t.Errorf("loopback: expected F8, got %#02x (err %v)", ch, err)
	}
	if err := c.UClose(); err != nil {
		t.Fatalf("UClose failed: %v", err)
	}
}

func TestClientErrorText(t *testing.T) {
	_, c := startClient(t)

	text, err := c.ErrorText(mos.ResultNoFile)
	if err != nil {
		t.Fatalf("ErrorText failed: %v", err)
	}
	if text != "Could not find the file" {
		t.Errorf("error text: got %q", text)
	}
}
