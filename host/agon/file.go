package agon

import (
	"fmt"
	"io"
	"io/fs"
	"math"

	"gomos/mos"
)

// File adapts a remote MOS file handle to io.Reader, io.Writer,
// io.Seeker and io.Closer. Every byte moves over the link, so bulk
// transfers should use generously sized buffers.
type File struct {
	client *Client
	handle uint8
	name   string
	closed bool
}

// Open opens a file on the machine and wraps its handle. Combine mode
// bits as the firmware expects, e.g. mos.ModeRead, or
// mos.ModeWrite|mos.ModeCreateAlways.
func (c *Client) Open(name string, mode mos.Mode) (*File, error) {
	handle, err := c.FOpen(name, mode)
	if err != nil {
		return nil, err
	}
	return &File{client: c, handle: handle, name: name}, nil
}

// Name returns the name the file was opened with.
func (f *File) Name() string { return f.name }

// Handle returns the underlying MOS file handle.
func (f *File) Handle() uint8 { return f.handle }

// Read fills p from the file, returning io.EOF at the end.
func (f *File) Read(p []byte) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	n, err := f.client.FRead(f.handle, p)
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Write sends p to the file at the current position.
func (f *File) Write(p []byte) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	return f.client.FWrite(f.handle, p)
}

// Seek moves the position. The firmware seek is absolute, so the
// relative whences first consult the file object for the current
// position or size.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}

	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		fi, err := f.client.GetFil(f.handle)
		if err != nil {
			return 0, err
		}
		base = int64(fi.Pos)
	case io.SeekEnd:
		fi, err := f.client.GetFil(f.handle)
		if err != nil {
			return 0, err
		}
		base = int64(fi.Size)
	default:
		return 0, fmt.Errorf("seek %q: invalid whence %d", f.name, whence)
	}

	pos := base + offset
	if pos < 0 || pos > math.MaxUint32 {
		return 0, fmt.Errorf("seek %q: position %d out of range", f.name, pos)
	}
	if err := f.client.FLSeek(f.handle, uint32(pos)); err != nil {
		return 0, err
	}
	return pos, nil
}

// Close releases the machine's handle. Closing twice is harmless.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	return f.client.FClose(f.handle)
}

// EOF reports whether the position is at the end of the file.
func (f *File) EOF() (bool, error) {
	if f.closed {
		return false, fs.ErrClosed
	}
	return f.client.FEOF(f.handle)
}

// Stat fetches the firmware's file object for this handle.
func (f *File) Stat() (mos.FileInfo, error) {
	if f.closed {
		return mos.FileInfo{}, fs.ErrClosed
	}
	return f.client.GetFil(f.handle)
}
