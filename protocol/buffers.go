package protocol

// InputBuffer is a source of buffered incoming link data.
type InputBuffer interface {
	// Data returns the buffered bytes without consuming them.
	Data() []byte

	// Available returns the number of buffered bytes.
	Available() int

	// Pop discards n bytes from the front.
	Pop(n int)
}

// OutputBuffer is a sink for encoded link data. Frame builders use the
// position methods to patch the length byte after the payload is known.
type OutputBuffer interface {
	// Output appends data.
	Output(data []byte)

	// CurPosition returns the current write position.
	CurPosition() int

	// Update overwrites the byte at pos.
	Update(pos int, val byte)

	// DataSince returns everything written at or after pos.
	DataSince(pos int) []byte
}

// SliceInputBuffer adapts a byte slice to InputBuffer.
type SliceInputBuffer struct {
	data []byte
}

func NewSliceInputBuffer(data []byte) *SliceInputBuffer {
	return &SliceInputBuffer{data: data}
}

func (s *SliceInputBuffer) Data() []byte {
	return s.data
}

func (s *SliceInputBuffer) Available() int {
	return len(s.data)
}

func (s *SliceInputBuffer) Pop(n int) {
	if n > len(s.data) {
		n = len(s.data)
	}
	s.data = s.data[n:]
}

// ScratchOutput accumulates one frame in a fixed buffer. Writes beyond
// the capacity are dropped; frame builders detect the overflow when the
// resulting length exceeds MessageLengthMax.
type ScratchOutput struct {
	buf [MessageLengthMax]byte
	pos int
}

func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	n := copy(s.buf[s.pos:], data)
	s.pos += n
}

func (s *ScratchOutput) CurPosition() int {
	return s.pos
}

func (s *ScratchOutput) Update(pos int, val byte) {
	if pos < len(s.buf) {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos > s.pos {
		return nil
	}
	return s.buf[pos:s.pos]
}

// Result returns everything written so far.
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

// Reset discards the buffer contents.
func (s *ScratchOutput) Reset() {
	s.pos = 0
}

// BytesOutput is a growable OutputBuffer for collecting whole frames,
// for sinks that batch an ack and its responses before flushing.
type BytesOutput struct {
	buf []byte
}

func (b *BytesOutput) Output(data []byte) {
	b.buf = append(b.buf, data...)
}

func (b *BytesOutput) CurPosition() int {
	return len(b.buf)
}

func (b *BytesOutput) Update(pos int, val byte) {
	if pos < len(b.buf) {
		b.buf[pos] = val
	}
}

func (b *BytesOutput) DataSince(pos int) []byte {
	if pos > len(b.buf) {
		return nil
	}
	return b.buf[pos:]
}

// Result returns everything written so far.
func (b *BytesOutput) Result() []byte {
	return b.buf
}

// Reset discards the buffer contents.
func (b *BytesOutput) Reset() {
	b.buf = b.buf[:0]
}

// FifoBuffer is a ring buffer between a byte stream and the frame
// scanner. One slot stays unused, so a buffer of capacity n holds at
// most n-1 bytes.
type FifoBuffer struct {
	buf   []byte
	read  int
	write int
	size  int
}

func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{
		buf:  make([]byte, capacity),
		size: capacity,
	}
}

// Write appends as much of data as fits and returns how much it took.
func (f *FifoBuffer) Write(data []byte) int {
	written := 0
	for _, b := range data {
		nextWrite := (f.write + 1) % f.size
		if nextWrite == f.read {
			break
		}
		f.buf[f.write] = b
		f.write = nextWrite
		written++
	}
	return written
}

// Read fills data with buffered bytes and returns how many it copied.
func (f *FifoBuffer) Read(data []byte) int {
	read := 0
	for i := range data {
		if f.read == f.write {
			break
		}
		data[i] = f.buf[f.read]
		f.read = (f.read + 1) % f.size
		read++
	}
	return read
}

func (f *FifoBuffer) Available() int {
	if f.write >= f.read {
		return f.write - f.read
	}
	return f.size - f.read + f.write
}

// Free returns how many more bytes Write can take.
func (f *FifoBuffer) Free() int {
	return f.size - f.Available() - 1
}

// Data returns the buffered bytes. When the contents wrap around the
// ring they are copied into a fresh contiguous slice, since the frame
// scanner needs to see them in order.
func (f *FifoBuffer) Data() []byte {
	if f.read <= f.write {
		return f.buf[f.read:f.write]
	}
	avail := f.Available()
	result := make([]byte, avail)
	firstLen := f.size - f.read
	copy(result, f.buf[f.read:])
	copy(result[firstLen:], f.buf[:f.write])
	return result
}

// Pop discards n bytes from the front.
func (f *FifoBuffer) Pop(n int) {
	for i := 0; i < n && f.read != f.write; i++ {
		f.read = (f.read + 1) % f.size
	}
}

func (f *FifoBuffer) IsEmpty() bool {
	return f.read == f.write
}

// Reset discards the buffer contents.
func (f *FifoBuffer) Reset() {
	f.read = 0
	f.write = 0
}
