package sim

import (
	"encoding/binary"
	"fmt"
	"sort"

	"gomos/mos"
	"gomos/protocol"
)

// handle dispatches one request. Argument decode failures return the
// codec error, which drops the responder into resync; bad values in a
// well-formed request come back as a status code instead.
func (m *Machine) handle(op uint8, args *[]byte) error {
	m.log.Debugf("dispatch %v", mos.Op(op))
	switch mos.Op(op) {
	case mos.OpIdentify:
		return m.identify(op)
	case mos.OpGetKey:
		return m.getKey(op)
	case mos.OpLoad:
		return m.load(op, args)
	case mos.OpSave:
		return m.save(op, args)
	case mos.OpChangeDir:
		return m.changeDir(op, args)
	case mos.OpDir:
		return m.dir(op, args)
	case mos.OpDelete:
		return m.del(op, args)
	case mos.OpRename:
		return m.rename(op, args)
	case mos.OpMkDir:
		return m.mkDir(op, args)
	case mos.OpSysVars:
		return m.sysVars(op)
	case mos.OpEditLine:
		return m.editLine(op, args)
	case mos.OpFOpen:
		return m.fOpen(op, args)
	case mos.OpFClose:
		return m.fClose(op, args)
	case mos.OpFGetC:
		return m.fGetC(op, args)
	case mos.OpFPutC:
		return m.fPutC(op, args)
	case mos.OpFEOF:
		return m.fEOF(op, args)
	case mos.OpGetError:
		return m.getError(op, args)
	case mos.OpOSCLI:
		return m.oscli(op, args)
	case mos.OpCopy:
		return m.copyFile(op, args)
	case mos.OpGetRTC:
		return m.getRTC(op)
	case mos.OpSetRTC:
		return m.setRTC(op, args)
	case mos.OpUOpen:
		return m.uOpen(op, args)
	case mos.OpUClose:
		return m.uClose(op)
	case mos.OpUGetC:
		return m.uGetC(op)
	case mos.OpUPutC:
		return m.uPutC(op, args)
	case mos.OpGetFil:
		return m.getFil(op, args)
	case mos.OpFRead:
		return m.fRead(op, args)
	case mos.OpFWrite:
		return m.fWrite(op, args)
	case mos.OpFLSeek:
		return m.fLSeek(op, args)
	case mos.OpPutChar:
		return m.putChar(op, args)
	case mos.OpPuts:
		return m.puts(op, args)
	case mos.OpWaitVBlank:
		return m.waitVBlank(op)
	default:
		// An unknown code poisons the rest of the frame, since its
		// argument length is unknowable.
		*args = nil
		return m.status(op, mos.ResultInvalidParameter)
	}
}

// respond frames a status-first response for op.
func (m *Machine) respond(op uint8, r mos.Result, rest func(protocol.OutputBuffer) error) error {
	return m.responder.Respond(op, func(out protocol.OutputBuffer) error {
		protocol.EncodeU8(out, uint8(r))
		if rest != nil {
			return rest(out)
		}
		return nil
	})
}

func (m *Machine) status(op uint8, r mos.Result) error {
	return m.respond(op, r, nil)
}

func (m *Machine) identify(op uint8) error {
	return m.responder.Respond(op, func(out protocol.OutputBuffer) error {
		protocol.EncodeU8(out, protocol.Revision)
		return protocol.EncodeString(out, Banner)
	})
}

// A real machine blocks in getkey until a key arrives; the simulator
// answers NUL when its queue is empty.
func (m *Machine) getKey(op uint8) error {
	var key byte
	if len(m.keys) > 0 {
		key = m.keys[0]
		m.keys = m.keys[1:]
	}
	return m.respond(op, mos.OK, func(out protocol.OutputBuffer) error {
		protocol.EncodeU8(out, key)
		return nil
	})
}

func (m *Machine) load(op uint8, args *[]byte) error {
	name, err := protocol.DecodeString(args)
	if err != nil {
		return err
	}
	addr, err := protocol.DecodeU24(args)
	if err != nil {
		return err
	}
	data, ok := m.fs[name]
	if !ok {
		return m.status(op, mos.ResultNoFile)
	}
	m.mem[addr] = append([]byte(nil), data...)
	return m.status(op, mos.OK)
}

// save refuses to overwrite, like the firmware's create-new open.
func (m *Machine) save(op uint8, args *[]byte) error {
	name, err := protocol.DecodeString(args)
	if err != nil {
		return err
	}
	addr, err := protocol.DecodeU24(args)
	if err != nil {
		return err
	}
	size, err := protocol.DecodeU24(args)
	if err != nil {
		return err
	}
	if _, exists := m.fs[name]; exists {
		return m.status(op, mos.ResultExist)
	}
	data := make([]byte, size)
	copy(data, m.mem[addr])
	m.fs[name] = data
	return m.status(op, mos.OK)
}

func (m *Machine) changeDir(op uint8, args *[]byte) error {
	path, err := protocol.DecodeString(args)
	if err != nil {
		return err
	}
	if path == "" {
		path = "/"
	}
	if !m.dirs[path] {
		return m.status(op, mos.ResultNoPath)
	}
	m.cwd = path
	return m.status(op, mos.OK)
}

// dir renders the listing on the machine's own console, as on real
// hardware; the caller only sees the status.
func (m *Machine) dir(op uint8, args *[]byte) error {
	path, err := protocol.DecodeString(args)
	if err != nil {
		return err
	}
	if path == "" {
		path = m.cwd
	}
	if !m.dirs[path] {
		return m.status(op, mos.ResultNoPath)
	}

	names := make([]string, 0, len(m.fs))
	for name := range m.fs {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(&m.console, "Volume: %s\r\n\r\n", Banner)
	for _, name := range names {
		fmt.Fprintf(&m.console, "%s\t%d\r\n", name, len(m.fs[name]))
	}
	return m.status(op, mos.OK)
}

func (m *Machine) del(op uint8, args *[]byte) error {
	name, err := protocol.DecodeString(args)
	if err != nil {
		return err
	}
	if m.dirs[name] && name != "/" {
		delete(m.dirs, name)
		return m.status(op, mos.OK)
	}
	if _, ok := m.fs[name]; !ok {
		return m.status(op, mos.ResultNoFile)
	}
	delete(m.fs, name)
	return m.status(op, mos.OK)
}

func (m *Machine) rename(op uint8, args *[]byte) error {
	oldName, err := protocol.DecodeString(args)
	if err != nil {
		return err
	}
	newName, err := protocol.DecodeString(args)
	if err != nil {
		return err
	}
	data, ok := m.fs[oldName]
	if !ok {
		return m.status(op, mos.ResultNoFile)
	}
	if _, exists := m.fs[newName]; exists {
		return m.status(op, mos.ResultExist)
	}
	m.fs[newName] = data
	delete(m.fs, oldName)
	return m.status(op, mos.OK)
}

func (m *Machine) mkDir(op uint8, args *[]byte) error {
	name, err := protocol.DecodeString(args)
	if err != nil {
		return err
	}
	if m.dirs[name] {
		return m.status(op, mos.ResultExist)
	}
	if _, exists := m.fs[name]; exists {
		return m.status(op, mos.ResultExist)
	}
	m.dirs[name] = true
	return m.status(op, mos.OK)
}

func (m *Machine) sysVars(op uint8) error {
	return m.respond(op, mos.OK, func(out protocol.OutputBuffer) error {
		return protocol.EncodeBytes(out, m.sysvarBlock())
	})
}

// sysvarBlock synthesizes the firmware's sysvar area from machine state.
func (m *Machine) sysvarBlock() []byte {
	vars := make([]byte, mos.SysVarsSize)
	binary.LittleEndian.PutUint32(vars[mos.SysVarTime:], m.ticks)
	vars[mos.SysVarVDPFlags] = uint8(mos.VDPFlagRTC)
	if len(m.keys) > 0 {
		vars[mos.SysVarKeyASCII] = m.keys[0]
	}
	binary.LittleEndian.PutUint16(vars[mos.SysVarScrWidth:], 640)
	binary.LittleEndian.PutUint16(vars[mos.SysVarScrHeight:], 480)
	vars[mos.SysVarScrCols] = 80
	vars[mos.SysVarScrRows] = 60
	vars[mos.SysVarScrColours] = 16
	if packed, err := mos.PackTimeData(m.clock); err == nil {
		copy(vars[mos.SysVarRTC:], packed)
	}
	binary.LittleEndian.PutUint16(vars[mos.SysVarKeyDelay:], 500)
	binary.LittleEndian.PutUint16(vars[mos.SysVarKeyRate:], 100)
	return vars
}

// editLine rebuilds the firmware's line editor from the key queue:
// printable keys append, CR or ESC ends the edit.
func (m *Machine) editLine(op uint8, args *[]byte) error {
	initial, err := protocol.DecodeString(args)
	if err != nil {
		return err
	}
	clear, err := protocol.DecodeU8(args)
	if err != nil {
		return err
	}

	line := []byte(initial)
	if clear != 0 {
		line = line[:0]
	}
	exit := byte(13)
	for len(m.keys) > 0 {
		k := m.keys[0]
		m.keys = m.keys[1:]
		if k == 13 || k == 27 {
			exit = k
			break
		}
		if k >= 32 && k < 127 {
			line = append(line, k)
		}
	}
	return m.respond(op, mos.OK, func(out protocol.OutputBuffer) error {
		protocol.EncodeU8(out, exit)
		return protocol.EncodeString(out, string(line))
	})
}

func (m *Machine) fOpen(op uint8, args *[]byte) error {
	name, err := protocol.DecodeString(args)
	if err != nil {
		return err
	}
	modeByte, err := protocol.DecodeU8(args)
	if err != nil {
		return err
	}
	mode := mos.Mode(modeByte)

	data, exists := m.fs[name]
	switch {
	case mode&mos.ModeCreateNew != 0:
		if exists {
			return m.status(op, mos.ResultExist)
		}
		data = nil
	case mode&mos.ModeCreateAlways != 0:
		data = nil
	case mode&mos.ModeOpenAlways != 0:
		// Open or create.
	default:
		if !exists {
			return m.status(op, mos.ResultNoFile)
		}
	}

	handle := m.allocHandle()
	if handle == 0 {
		return m.status(op, mos.ResultTooManyOpenFiles)
	}
	f := &openFile{name: name, mode: mode, data: append([]byte(nil), data...)}
	if mode&mos.ModeOpenAppend == mos.ModeOpenAppend {
		f.pos = len(f.data)
	}
	m.files[handle] = f
	return m.respond(op, mos.OK, func(out protocol.OutputBuffer) error {
		protocol.EncodeU8(out, handle)
		return nil
	})
}

func (m *Machine) allocHandle() uint8 {
	for h := uint8(1); h <= maxOpenFiles; h++ {
		if _, used := m.files[h]; !used {
			return h
		}
	}
	return 0
}

// fClose flushes buffered writes back to the volume. Handle 0 closes
// every open file, as in the firmware.
func (m *Machine) fClose(op uint8, args *[]byte) error {
	handle, err := protocol.DecodeU8(args)
	if err != nil {
		return err
	}
	if handle == 0 {
		for h, f := range m.files {
			m.flush(f)
			delete(m.files, h)
		}
		return m.status(op, mos.OK)
	}
	f, ok := m.files[handle]
	if !ok {
		return m.status(op, mos.ResultInvalidObject)
	}
	m.flush(f)
	delete(m.files, handle)
	return m.status(op, mos.OK)
}

func (m *Machine) flush(f *openFile) {
	if f.mode&(mos.ModeWrite|mos.ModeCreateNew|mos.ModeCreateAlways) != 0 {
		m.fs[f.name] = f.data
	}
}

func (m *Machine) lookup(handle uint8) (*openFile, mos.Result) {
	f, ok := m.files[handle]
	if !ok {
		return nil, mos.ResultInvalidObject
	}
	return f, mos.OK
}

// fGetC reads one byte; at end of file it answers NUL and leaves the
// position alone, with feof telling the two apart.
func (m *Machine) fGetC(op uint8, args *[]byte) error {
	handle, err := protocol.DecodeU8(args)
	if err != nil {
		return err
	}
	f, res := m.lookup(handle)
	if res != mos.OK {
		return m.status(op, res)
	}
	if f.mode&mos.ModeRead == 0 {
		return m.status(op, mos.ResultDenied)
	}
	var ch byte
	if f.pos < len(f.data) {
		ch = f.data[f.pos]
		f.pos++
	}
	return m.respond(op, mos.OK, func(out protocol.OutputBuffer) error {
		protocol.EncodeU8(out, ch)
		return nil
	})
}

func (m *Machine) fPutC(op uint8, args *[]byte) error {
	handle, err := protocol.DecodeU8(args)
	if err != nil {
		return err
	}
	ch, err := protocol.DecodeU8(args)
	if err != nil {
		return err
	}
	f, res := m.lookup(handle)
	if res != mos.OK {
		return m.status(op, res)
	}
	if f.mode&mos.ModeWrite == 0 {
		return m.status(op, mos.ResultDenied)
	}
	if f.pos < len(f.data) {
		f.data[f.pos] = ch
	} else {
		f.data = append(f.data, ch)
	}
	f.pos++
	return m.status(op, mos.OK)
}

func (m *Machine) fEOF(op uint8, args *[]byte) error {
	handle, err := protocol.DecodeU8(args)
	if err != nil {
		return err
	}
	f, res := m.lookup(handle)
	if res != mos.OK {
		return m.status(op, res)
	}
	var eof uint8
	if f.pos >= len(f.data) {
		eof = 1
	}
	return m.respond(op, mos.OK, func(out protocol.OutputBuffer) error {
		protocol.EncodeU8(out, eof)
		return nil
	})
}

func (m *Machine) getError(op uint8, args *[]byte) error {
	code, err := protocol.DecodeU8(args)
	if err != nil {
		return err
	}
	return m.respond(op, mos.OK, func(out protocol.OutputBuffer) error {
		return protocol.EncodeString(out, mos.Result(code).String())
	})
}

// oscli accepts any non-empty star command and echoes it on the
// console.
func (m *Machine) oscli(op uint8, args *[]byte) error {
	cmd, err := protocol.DecodeString(args)
	if err != nil {
		return err
	}
	if cmd == "" {
		return m.status(op, mos.ResultInvalidParameter)
	}
	fmt.Fprintf(&m.console, "*%s\r\n", cmd)
	return m.status(op, mos.OK)
}

func (m *Machine) copyFile(op uint8, args *[]byte) error {
	src, err := protocol.DecodeString(args)
	if err != nil {
		return err
	}
	dst, err := protocol.DecodeString(args)
	if err != nil {
		return err
	}
	data, ok := m.fs[src]
	if !ok {
		return m.status(op, mos.ResultNoFile)
	}
	if _, exists := m.fs[dst]; exists {
		return m.status(op, mos.ResultExist)
	}
	m.fs[dst] = append([]byte(nil), data...)
	return m.status(op, mos.OK)
}

// getRTC reports the simulated clock in ISO 8601; real firmware has its
// own display format, and callers treat the text as opaque either way.
func (m *Machine) getRTC(op uint8) error {
	return m.respond(op, mos.OK, func(out protocol.OutputBuffer) error {
		return protocol.EncodeString(out, m.clock.String())
	})
}

func (m *Machine) setRTC(op uint8, args *[]byte) error {
	if len(*args) < mos.TimeDataSize {
		return protocol.ErrTruncated
	}
	raw := (*args)[:mos.TimeDataSize]
	*args = (*args)[mos.TimeDataSize:]

	t, err := mos.UnpackTimeData(raw)
	if err != nil {
		return m.status(op, mos.ResultInvalidParameter)
	}
	m.clock = t
	return m.status(op, mos.OK)
}

func (m *Machine) uOpen(op uint8, args *[]byte) error {
	baud, err := protocol.DecodeU24(args)
	if err != nil {
		return err
	}
	var fields [5]uint8
	for i := range fields {
		fields[i], err = protocol.DecodeU8(args)
		if err != nil {
			return err
		}
	}
	m.uartCfg = mos.UARTConfig{
		BaudRate:    int(baud),
		DataBits:    fields[0],
		StopBits:    fields[1],
		Parity:      fields[2],
		FlowControl: fields[3],
		Interrupts:  fields[4],
	}
	m.uartOpen = true
	m.uartBuf = m.uartBuf[:0]
	return m.status(op, mos.OK)
}

func (m *Machine) uClose(op uint8) error {
	m.uartOpen = false
	return m.status(op, mos.OK)
}

// The simulated UART is a loopback: uputc feeds ugetc.
func (m *Machine) uGetC(op uint8) error {
	if !m.uartOpen || len(m.uartBuf) == 0 {
		return m.status(op, mos.ResultNotReady)
	}
	ch := m.uartBuf[0]
	m.uartBuf = m.uartBuf[1:]
	return m.respond(op, mos.OK, func(out protocol.OutputBuffer) error {
		protocol.EncodeU8(out, ch)
		return nil
	})
}

func (m *Machine) uPutC(op uint8, args *[]byte) error {
	ch, err := protocol.DecodeU8(args)
	if err != nil {
		return err
	}
	if !m.uartOpen {
		return m.status(op, mos.ResultNotReady)
	}
	m.uartBuf = append(m.uartBuf, ch)
	return m.status(op, mos.OK)
}

func (m *Machine) getFil(op uint8, args *[]byte) error {
	handle, err := protocol.DecodeU8(args)
	if err != nil {
		return err
	}
	f, res := m.lookup(handle)
	if res != mos.OK {
		return m.status(op, res)
	}
	fi := mos.FileInfo{
		Volume:     0x0B0000,
		VolumeID:   1,
		Attr:       0x20,
		StartClust: uint32(handle) * 0x100,
		Size:       uint32(len(f.data)),
		Flag:       uint8(f.mode),
		Pos:        uint32(f.pos),
		Clust:      uint32(handle) * 0x100,
		DirSector:  2,
		DirEntry:   0x0B0100,
	}
	return m.respond(op, mos.OK, func(out protocol.OutputBuffer) error {
		out.Output(mos.EncodeFileInfo(fi))
		return nil
	})
}

func (m *Machine) fRead(op uint8, args *[]byte) error {
	handle, err := protocol.DecodeU8(args)
	if err != nil {
		return err
	}
	count, err := protocol.DecodeU16(args)
	if err != nil {
		return err
	}
	f, res := m.lookup(handle)
	if res != mos.OK {
		return m.status(op, res)
	}
	if f.mode&mos.ModeRead == 0 {
		return m.status(op, mos.ResultDenied)
	}
	n := int(count)
	if remain := len(f.data) - f.pos; n > remain {
		n = remain
	}
	chunk := f.data[f.pos : f.pos+n]
	f.pos += n
	return m.respond(op, mos.OK, func(out protocol.OutputBuffer) error {
		return protocol.EncodeBytes(out, chunk)
	})
}

func (m *Machine) fWrite(op uint8, args *[]byte) error {
	handle, err := protocol.DecodeU8(args)
	if err != nil {
		return err
	}
	data, err := protocol.DecodeBytes(args)
	if err != nil {
		return err
	}
	f, res := m.lookup(handle)
	if res != mos.OK {
		return m.status(op, res)
	}
	if f.mode&mos.ModeWrite == 0 {
		return m.status(op, mos.ResultDenied)
	}
	if end := f.pos + len(data); end > len(f.data) {
		f.data = append(f.data, make([]byte, end-len(f.data))...)
	}
	copy(f.data[f.pos:], data)
	f.pos += len(data)
	return m.respond(op, mos.OK, func(out protocol.OutputBuffer) error {
		protocol.EncodeU16(out, uint16(len(data)))
		return nil
	})
}

// fLSeek moves the position; seeking past the end grows a writable file
// with zeros and clamps a read-only one.
func (m *Machine) fLSeek(op uint8, args *[]byte) error {
	handle, err := protocol.DecodeU8(args)
	if err != nil {
		return err
	}
	offset, err := protocol.DecodeU32(args)
	if err != nil {
		return err
	}
	f, res := m.lookup(handle)
	if res != mos.OK {
		return m.status(op, res)
	}
	pos := int(offset)
	if pos > len(f.data) {
		if f.mode&mos.ModeWrite != 0 {
			f.data = append(f.data, make([]byte, pos-len(f.data))...)
		} else {
			pos = len(f.data)
		}
	}
	f.pos = pos
	return m.status(op, mos.OK)
}

func (m *Machine) putChar(op uint8, args *[]byte) error {
	ch, err := protocol.DecodeU8(args)
	if err != nil {
		return err
	}
	m.console.WriteByte(ch)
	return m.status(op, mos.OK)
}

func (m *Machine) puts(op uint8, args *[]byte) error {
	text, err := protocol.DecodeString(args)
	if err != nil {
		return err
	}
	m.console.WriteString(text)
	return m.status(op, mos.OK)
}

// waitVBlank advances the clock the way the real interrupt does, two
// centiseconds per frame.
func (m *Machine) waitVBlank(op uint8) error {
	m.ticks += 2
	return m.status(op, mos.OK)
}
