// Package sim provides an in-memory MOS machine speaking the framed
// link protocol, for tests and development without hardware.
//
// The simulation is canned: status codes and byte movement are faithful,
// but there is no real filesystem, video or interrupt behavior behind
// them. Files live in a flat in-memory namespace, the console is a
// string sink, the UART is a loopback and the clock only moves when
// told to.
package sim

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/pion/logging"

	"gomos/civil"
	"gomos/mos"
	"gomos/protocol"
)

// Banner identifies the simulator in the link handshake.
const Banner = "Agon MOS simulator"

// maxOpenFiles matches the firmware's file table size.
const maxOpenFiles = 8

type openFile struct {
	name string
	data []byte
	pos  int
	mode mos.Mode
}

// Machine is an in-memory stand-in for an Agon running MOS. Feed it raw
// link bytes (or let Serve pump a pipe) and it acks, executes and
// responds like the real peer. All methods are safe for concurrent use.
type Machine struct {
	mu sync.Mutex

	log       logging.LeveledLogger
	responder *protocol.Responder
	out       protocol.BytesOutput
	input     *protocol.FifoBuffer

	fs    map[string][]byte
	dirs  map[string]bool
	cwd   string
	files map[uint8]*openFile
	mem   map[uint32][]byte

	clock civil.Time
	ticks uint32

	console bytes.Buffer
	keys    []byte

	uartOpen bool
	uartCfg  mos.UARTConfig
	uartBuf  []byte
}

// NewMachine returns a machine with an empty volume and the clock at
// the FAT epoch.
func NewMachine() *Machine {
	m := &Machine{
		log:   logging.NewDefaultLoggerFactory().NewLogger("sim"),
		input: protocol.NewFifoBuffer(1024),
		fs:    make(map[string][]byte),
		dirs:  map[string]bool{"/": true},
		cwd:   "/",
		files: make(map[uint8]*openFile),
		mem:   make(map[uint32][]byte),
	}
	m.clock, _ = civil.Date(mos.RTCYearBase, time.January, 1, 0, 0, 0)
	m.responder = protocol.NewResponder(&m.out, m.handle)
	m.responder.SetResetCallback(m.dropHandles)
	return m
}

// Feed pushes link bytes into the machine and returns whatever it wrote
// back, acks included.
func (m *Machine) Feed(data []byte) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	for len(data) > 0 {
		n := m.input.Write(data)
		data = data[n:]
		m.responder.Receive(m.input)
	}
	resp := append([]byte(nil), m.out.Result()...)
	m.out.Reset()
	return resp
}

// Serve pumps rw until it closes or fails. It is the machine end of an
// io.Pipe or net.Pipe in tests and of the CLI's simulator mode.
func (m *Machine) Serve(rw io.ReadWriter) error {
	buf := make([]byte, 256)
	for {
		n, err := rw.Read(buf)
		if n > 0 {
			if resp := m.Feed(buf[:n]); len(resp) > 0 {
				if _, werr := rw.Write(resp); werr != nil {
					return werr
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			return err
		}
	}
}

// dropHandles runs on a host restart; open handles from the old session
// are dead. Caller holds the lock.
func (m *Machine) dropHandles() {
	if len(m.files) > 0 {
		m.log.Debugf("host restart, dropping %d open handles", len(m.files))
	}
	m.files = make(map[uint8]*openFile)
}

// PutFile seeds or replaces a file on the simulated volume.
func (m *Machine) PutFile(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fs[name] = append([]byte(nil), data...)
}

// File returns the current contents of a file on the volume.
func (m *Machine) File(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.fs[name]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// PressKey queues keystrokes for getkey and the line editor.
func (m *Machine) PressKey(keys ...byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, keys...)
}

// Console returns everything written to the console so far.
func (m *Machine) Console() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.console.String()
}

// SetClock sets the simulated RTC.
func (m *Machine) SetClock(t civil.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = t
}

// Clock returns the simulated RTC.
func (m *Machine) Clock() civil.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clock
}

// Tick advances the centisecond counter read back through sysvars.
func (m *Machine) Tick(n uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks += n
}
