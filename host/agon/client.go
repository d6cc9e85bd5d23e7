// Package agon is the typed host-side client for an Agon machine: every
// MOS call the firmware exposes, spoken over the framed serial link.
//
// Responses open with a mos.Result status byte; a non-OK status comes
// back as an error wrapping the Result, so call sites can match with
// errors.Is(err, mos.ResultNoFile) and friends.
package agon

import (
	"fmt"
	"io"
	"time"

	"github.com/pion/logging"

	"gomos/civil"
	"gomos/host/serial"
	"gomos/mos"
	"gomos/protocol"
)

// transferChunk bounds one fread/fwrite exchange to what a frame can
// carry alongside its header fields.
const transferChunk = 96

// Client issues MOS calls over a Link. Calls are serialized by the link;
// a Client is safe for concurrent use.
type Client struct {
	link     *protocol.Link
	log      logging.LeveledLogger
	timeout  time.Duration
	firmware string
}

// NewClient wraps an open connection to a machine. Close releases the
// connection.
func NewClient(conn io.ReadWriteCloser, loggerFactory logging.LoggerFactory) *Client {
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &Client{
		link:    protocol.NewLink(conn, loggerFactory),
		log:     loggerFactory.NewLogger("agon"),
		timeout: protocol.DefaultTimeout,
	}
}

// Connect opens the configured serial device and performs the identify
// handshake.
func Connect(cfg *serial.Config, loggerFactory logging.LoggerFactory) (*Client, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	c := NewClient(port, loggerFactory)
	if err := c.Identify(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Identify performs the handshake: checks the protocol revision and
// records the firmware banner.
func (c *Client) Identify() error {
	payload, err := c.link.Call(uint8(mos.OpIdentify), nil, c.timeout)
	if err != nil {
		return fmt.Errorf("identify: %w", err)
	}
	rev, err := protocol.DecodeU8(&payload)
	if err != nil {
		return fmt.Errorf("identify: %w", err)
	}
	if rev != protocol.Revision {
		return fmt.Errorf("protocol revision mismatch: host %d, machine %d",
			protocol.Revision, rev)
	}
	banner, err := protocol.DecodeString(&payload)
	if err != nil {
		return fmt.Errorf("identify: %w", err)
	}
	c.firmware = banner
	c.log.Debugf("connected: %s (protocol %d)", banner, rev)
	return nil
}

// Firmware returns the banner from the identify handshake.
func (c *Client) Firmware() string { return c.firmware }

// SetTimeout adjusts the per-call deadline.
func (c *Client) SetTimeout(d time.Duration) { c.timeout = d }

// Close tears down the link and the underlying connection.
func (c *Client) Close() error { return c.link.Close() }

// call runs one request and strips the status byte, turning a non-OK
// status into its mos.Result error. Callers add operation context.
func (c *Client) call(op mos.Op, args func(protocol.OutputBuffer) error) ([]byte, error) {
	payload, err := c.link.Call(uint8(op), args, c.timeout)
	if err != nil {
		return nil, err
	}
	res, err := protocol.DecodeU8(&payload)
	if err != nil {
		return nil, err
	}
	if r := mos.Result(res); r != mos.OK {
		return nil, r
	}
	return payload, nil
}

// FOpen opens a file on the machine and returns its handle.
func (c *Client) FOpen(name string, mode mos.Mode) (uint8, error) {
	payload, err := c.call(mos.OpFOpen, func(out protocol.OutputBuffer) error {
		if err := protocol.EncodeString(out, name); err != nil {
			return err
		}
		protocol.EncodeU8(out, uint8(mode))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("fopen %q: %w", name, err)
	}
	handle, err := protocol.DecodeU8(&payload)
	if err != nil {
		return 0, fmt.Errorf("fopen %q: %w", name, err)
	}
	return handle, nil
}

// FClose closes a handle. Handle 0 closes every open file.
func (c *Client) FClose(handle uint8) error {
	_, err := c.call(mos.OpFClose, func(out protocol.OutputBuffer) error {
		protocol.EncodeU8(out, handle)
		return nil
	})
	if err != nil {
		return fmt.Errorf("fclose: %w", err)
	}
	return nil
}

// FGetC reads one byte. At end of file it returns NUL; use FEOF to tell
// the two apart.
func (c *Client) FGetC(handle uint8) (byte, error) {
	payload, err := c.call(mos.OpFGetC, func(out protocol.OutputBuffer) error {
		protocol.EncodeU8(out, handle)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("fgetc: %w", err)
	}
	ch, err := protocol.DecodeU8(&payload)
	if err != nil {
		return 0, fmt.Errorf("fgetc: %w", err)
	}
	return ch, nil
}

// FPutC writes one byte at the current position.
func (c *Client) FPutC(handle uint8, ch byte) error {
	_, err := c.call(mos.OpFPutC, func(out protocol.OutputBuffer) error {
		protocol.EncodeU8(out, handle)
		protocol.EncodeU8(out, ch)
		return nil
	})
	if err != nil {
		return fmt.Errorf("fputc: %w", err)
	}
	return nil
}

// FEOF reports whether the handle's position is at the end of the file.
func (c *Client) FEOF(handle uint8) (bool, error) {
	payload, err := c.call(mos.OpFEOF, func(out protocol.OutputBuffer) error {
		protocol.EncodeU8(out, handle)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("feof: %w", err)
	}
	flag, err := protocol.DecodeU8(&payload)
	if err != nil {
		return false, fmt.Errorf("feof: %w", err)
	}
	return flag != 0, nil
}

// FRead fills buf from the handle, chunking across frames, and returns
// how many bytes arrived. A count short of len(buf) means end of file.
func (c *Client) FRead(handle uint8, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		want := len(buf) - total
		if want > transferChunk {
			want = transferChunk
		}
		payload, err := c.call(mos.OpFRead, func(out protocol.OutputBuffer) error {
			protocol.EncodeU8(out, handle)
			protocol.EncodeU16(out, uint16(want))
			return nil
		})
		if err != nil {
			return total, fmt.Errorf("fread: %w", err)
		}
		chunk, err := protocol.DecodeBytes(&payload)
		if err != nil {
			return total, fmt.Errorf("fread: %w", err)
		}
		total += copy(buf[total:], chunk)
		if len(chunk) < want {
			break
		}
	}
	return total, nil
}

// FWrite sends data to the handle, chunking across frames.
func (c *Client) FWrite(handle uint8, data []byte) (int, error) {
	total := 0
	for total < len(data) {
		chunk := data[total:]
		if len(chunk) > transferChunk {
			chunk = chunk[:transferChunk]
		}
		payload, err := c.call(mos.OpFWrite, func(out protocol.OutputBuffer) error {
			protocol.EncodeU8(out, handle)
			return protocol.EncodeBytes(out, chunk)
		})
		if err != nil {
			return total, fmt.Errorf("fwrite: %w", err)
		}
		written, err := protocol.DecodeU16(&payload)
		if err != nil {
			return total, fmt.Errorf("fwrite: %w", err)
		}
		total += int(written)
		if int(written) < len(chunk) {
			return total, fmt.Errorf("fwrite: %w", io.ErrShortWrite)
		}
	}
	return total, nil
}

// FLSeek moves the handle's position to an absolute offset.
func (c *Client) FLSeek(handle uint8, offset uint32) error {
	_, err := c.call(mos.OpFLSeek, func(out protocol.OutputBuffer) error {
		protocol.EncodeU8(out, handle)
		protocol.EncodeU32(out, offset)
		return nil
	})
	if err != nil {
		return fmt.Errorf("flseek: %w", err)
	}
	return nil
}

// GetFil fetches the firmware's file object for a handle.
func (c *Client) GetFil(handle uint8) (mos.FileInfo, error) {
	payload, err := c.call(mos.OpGetFil, func(out protocol.OutputBuffer) error {
		protocol.EncodeU8(out, handle)
		return nil
	})
	if err != nil {
		return mos.FileInfo{}, fmt.Errorf("getfil: %w", err)
	}
	fi, err := mos.DecodeFileInfo(payload)
	if err != nil {
		return mos.FileInfo{}, fmt.Errorf("getfil: %w", err)
	}
	return fi, nil
}

// Load reads a file on the machine into its memory at addr.
func (c *Client) Load(name string, addr uint32) error {
	_, err := c.call(mos.OpLoad, func(out protocol.OutputBuffer) error {
		if err := protocol.EncodeString(out, name); err != nil {
			return err
		}
		return protocol.EncodeU24(out, addr)
	})
	if err != nil {
		return fmt.Errorf("load %q: %w", name, err)
	}
	return nil
}

// Save writes size bytes of machine memory at addr to a new file. The
// firmware refuses to overwrite an existing one.
func (c *Client) Save(name string, addr, size uint32) error {
	_, err := c.call(mos.OpSave, func(out protocol.OutputBuffer) error {
		if err := protocol.EncodeString(out, name); err != nil {
			return err
		}
		if err := protocol.EncodeU24(out, addr); err != nil {
			return err
		}
		return protocol.EncodeU24(out, size)
	})
	if err != nil {
		return fmt.Errorf("save %q: %w", name, err)
	}
	return nil
}

// ChangeDir changes the machine's current directory.
func (c *Client) ChangeDir(path string) error {
	_, err := c.call(mos.OpChangeDir, func(out protocol.OutputBuffer) error {
		return protocol.EncodeString(out, path)
	})
	if err != nil {
		return fmt.Errorf("cd %q: %w", path, err)
	}
	return nil
}

// Delete removes a file or empty directory.
func (c *Client) Delete(name string) error {
	_, err := c.call(mos.OpDelete, func(out protocol.OutputBuffer) error {
		return protocol.EncodeString(out, name)
	})
	if err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	return nil
}

// Rename moves a file.
func (c *Client) Rename(oldName, newName string) error {
	_, err := c.call(mos.OpRename, func(out protocol.OutputBuffer) error {
		if err := protocol.EncodeString(out, oldName); err != nil {
			return err
		}
		return protocol.EncodeString(out, newName)
	})
	if err != nil {
		return fmt.Errorf("rename %q to %q: %w", oldName, newName, err)
	}
	return nil
}

// Copy duplicates a file. The destination must not exist.
func (c *Client) Copy(src, dst string) error {
	_, err := c.call(mos.OpCopy, func(out protocol.OutputBuffer) error {
		if err := protocol.EncodeString(out, src); err != nil {
			return err
		}
		return protocol.EncodeString(out, dst)
	})
	if err != nil {
		return fmt.Errorf("copy %q to %q: %w", src, dst, err)
	}
	return nil
}

// MkDir creates a directory.
func (c *Client) MkDir(name string) error {
	_, err := c.call(mos.OpMkDir, func(out protocol.OutputBuffer) error {
		return protocol.EncodeString(out, name)
	})
	if err != nil {
		return fmt.Errorf("mkdir %q: %w", name, err)
	}
	return nil
}

// Dir renders a directory listing on the machine's own console. Only
// the status comes back over the link.
func (c *Client) Dir(path string) error {
	_, err := c.call(mos.OpDir, func(out protocol.OutputBuffer) error {
		return protocol.EncodeString(out, path)
	})
	if err != nil {
		return fmt.Errorf("dir %q: %w", path, err)
	}
	return nil
}

// PutChar writes one character to the machine's console.
func (c *Client) PutChar(ch byte) error {
	_, err := c.call(mos.OpPutChar, func(out protocol.OutputBuffer) error {
		protocol.EncodeU8(out, ch)
		return nil
	})
	if err != nil {
		return fmt.Errorf("putch: %w", err)
	}
	return nil
}

// Puts writes a string to the machine's console.
func (c *Client) Puts(s string) error {
	_, err := c.call(mos.OpPuts, func(out protocol.OutputBuffer) error {
		return protocol.EncodeString(out, s)
	})
	if err != nil {
		return fmt.Errorf("puts: %w", err)
	}
	return nil
}

// GetChar fetches a keypress. Real hardware blocks until a key arrives,
// so mind the call timeout.
func (c *Client) GetChar() (byte, error) {
	payload, err := c.call(mos.OpGetKey, nil)
	if err != nil {
		return 0, fmt.Errorf("getkey: %w", err)
	}
	ch, err := protocol.DecodeU8(&payload)
	if err != nil {
		return 0, fmt.Errorf("getkey: %w", err)
	}
	return ch, nil
}

// WaitVBlank blocks until the machine's next frame interrupt.
func (c *Client) WaitVBlank() error {
	_, err := c.call(mos.OpWaitVBlank, nil)
	if err != nil {
		return fmt.Errorf("waitvblank: %w", err)
	}
	return nil
}

// EditLine runs the machine's line editor seeded with initial text (or
// cleared) and returns the edited line and the key that ended the edit,
// CR for accept or ESC for abandon.
func (c *Client) EditLine(initial string, clear bool) (string, byte, error) {
	var clearFlag uint8
	if clear {
		clearFlag = 1
	}
	payload, err := c.call(mos.OpEditLine, func(out protocol.OutputBuffer) error {
		if err := protocol.EncodeString(out, initial); err != nil {
			return err
		}
		protocol.EncodeU8(out, clearFlag)
		return nil
	})
	if err != nil {
		return "", 0, fmt.Errorf("editline: %w", err)
	}
	exitKey, err := protocol.DecodeU8(&payload)
	if err != nil {
		return "", 0, fmt.Errorf("editline: %w", err)
	}
	line, err := protocol.DecodeString(&payload)
	if err != nil {
		return "", 0, fmt.Errorf("editline: %w", err)
	}
	return line, exitKey, nil
}

// OSCLI passes a star command line to the machine's command processor.
func (c *Client) OSCLI(command string) error {
	_, err := c.call(mos.OpOSCLI, func(out protocol.OutputBuffer) error {
		return protocol.EncodeString(out, command)
	})
	if err != nil {
		return fmt.Errorf("oscli %q: %w", command, err)
	}
	return nil
}

// ErrorText fetches the firmware's message for a status code.
func (c *Client) ErrorText(code mos.Result) (string, error) {
	payload, err := c.call(mos.OpGetError, func(out protocol.OutputBuffer) error {
		protocol.EncodeU8(out, uint8(code))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("geterror: %w", err)
	}
	text, err := protocol.DecodeString(&payload)
	if err != nil {
		return "", fmt.Errorf("geterror: %w", err)
	}
	return text, nil
}

// SysVars fetches a snapshot of the machine's system variable area.
func (c *Client) SysVars() (mos.SysVars, error) {
	payload, err := c.call(mos.OpSysVars, nil)
	if err != nil {
		return nil, fmt.Errorf("sysvars: %w", err)
	}
	block, err := protocol.DecodeBytes(&payload)
	if err != nil {
		return nil, fmt.Errorf("sysvars: %w", err)
	}
	return mos.SysVars(append([]byte(nil), block...)), nil
}

// PeekSysVar reads n bytes of the sysvar area starting at offset.
func (c *Client) PeekSysVar(offset, n int) ([]byte, error) {
	vars, err := c.SysVars()
	if err != nil {
		return nil, err
	}
	if offset < 0 || n < 0 || offset+n > len(vars) {
		return nil, fmt.Errorf("peek sysvar: range %d+%d outside the %d-byte area",
			offset, n, len(vars))
	}
	return append([]byte(nil), vars[offset:offset+n]...), nil
}

// Uptime reads the machine's centisecond clock.
func (c *Client) Uptime() (time.Duration, error) {
	vars, err := c.SysVars()
	if err != nil {
		return 0, err
	}
	return vars.Uptime(), nil
}

// RTC fetches the machine's clock as display text. The format belongs
// to the firmware; parse nothing out of it.
func (c *Client) RTC() (string, error) {
	payload, err := c.call(mos.OpGetRTC, nil)
	if err != nil {
		return "", fmt.Errorf("getrtc: %w", err)
	}
	text, err := protocol.DecodeString(&payload)
	if err != nil {
		return "", fmt.Errorf("getrtc: %w", err)
	}
	return text, nil
}

// SetRTC sets the machine's clock. Years before 1980 are not
// representable in the firmware's time format.
func (c *Client) SetRTC(t civil.Time) error {
	packed, err := mos.PackTimeData(t)
	if err != nil {
		return fmt.Errorf("setrtc: %w", err)
	}
	_, err = c.call(mos.OpSetRTC, func(out protocol.OutputBuffer) error {
		out.Output(packed)
		return nil
	})
	if err != nil {
		return fmt.Errorf("setrtc: %w", err)
	}
	return nil
}

// UOpen opens the machine's user UART with the given settings.
func (c *Client) UOpen(cfg mos.UARTConfig) error {
	_, err := c.call(mos.OpUOpen, func(out protocol.OutputBuffer) error {
		if err := protocol.EncodeU24(out, uint32(cfg.BaudRate)); err != nil {
			return err
		}
		protocol.EncodeU8(out, cfg.DataBits)
		protocol.EncodeU8(out, cfg.StopBits)
		protocol.EncodeU8(out, cfg.Parity)
		protocol.EncodeU8(out, cfg.FlowControl)
		protocol.EncodeU8(out, cfg.Interrupts)
		return nil
	})
	if err != nil {
		return fmt.Errorf("uopen: %w", err)
	}
	return nil
}

// UClose closes the user UART.
func (c *Client) UClose() error {
	_, err := c.call(mos.OpUClose, nil)
	if err != nil {
		return fmt.Errorf("uclose: %w", err)
	}
	return nil
}

// UGetC reads one byte from the user UART. With nothing pending the
// error wraps mos.ResultNotReady.
func (c *Client) UGetC() (byte, error) {
	payload, err := c.call(mos.OpUGetC, nil)
	if err != nil {
		return 0, fmt.Errorf("ugetc: %w", err)
	}
	ch, err := protocol.DecodeU8(&payload)
	if err != nil {
		return 0, fmt.Errorf("ugetc: %w", err)
	}
	return ch, nil
}

// UPutC writes one byte to the user UART.
func (c *Client) UPutC(ch byte) error {
	_, err := c.call(mos.OpUPutC, func(out protocol.OutputBuffer) error {
		protocol.EncodeU8(out, ch)
		return nil
	})
	if err != nil {
		return fmt.Errorf("uputc: %w", err)
	}
	return nil
}
