package protocol

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/logging"
)

// DefaultTimeout bounds a Call when the caller passes no deadline.
const DefaultTimeout = 2 * time.Second

// linkRetries is how many retransmissions a nak earns before the call
// gives up.
const linkRetries = 2

var (
	// ErrTimeout reports an ack or response that never arrived.
	ErrTimeout = errors.New("link timeout")
	// ErrClosed reports a call attempted on a closed link.
	ErrClosed = errors.New("link closed")

	// errNak marks an ack that did not advance the sequence.
	errNak = errors.New("nak")
)

// Link is the host side of the framed serial protocol. A background
// goroutine drains the port into a ring buffer, extracts frames, and
// routes acks and responses to the waiting caller. Calls are serialized
// so at most one request is in flight.
type Link struct {
	port io.ReadWriteCloser
	log  logging.LeveledLogger

	currentSeq     uint32 // atomic uint8: sequence of the in-flight frame
	isSynchronized uint32 // atomic bool

	input   *FifoBuffer
	scratch ScratchOutput

	ackChan      chan *Message
	responseChan chan *Message

	callMutex  sync.Mutex
	writeMutex sync.Mutex
	readMutex  sync.Mutex

	stopChan  chan struct{}
	doneChan  chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// NewLink starts the background reader over port and returns a link
// ready for calls. A nil loggerFactory selects the default console
// logger.
func NewLink(port io.ReadWriteCloser, loggerFactory logging.LoggerFactory) *Link {
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	l := &Link{
		port:           port,
		log:            loggerFactory.NewLogger("link"),
		currentSeq:     MessageDest,
		isSynchronized: 1,
		input:          NewFifoBuffer(512),
		ackChan:        make(chan *Message, 1),
		responseChan:   make(chan *Message, 16),
		stopChan:       make(chan struct{}),
		doneChan:       make(chan struct{}),
	}
	go l.readLoop()
	return l
}

// Call sends one request and returns the matching response payload with
// the echoed function code stripped. The frame is retransmitted on a
// nak; the whole exchange must finish before the timeout, with zero
// meaning DefaultTimeout.
func (l *Link) Call(op uint8, args func(OutputBuffer) error, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	l.callMutex.Lock()
	defer l.callMutex.Unlock()

	seq := uint8(atomic.LoadUint32(&l.currentSeq))
	frame, err := buildFrame(&l.scratch, seq, func(out OutputBuffer) error {
		EncodeU8(out, op)
		if args != nil {
			return args(out)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("build frame: %w", err)
	}

	deadline := time.Now().Add(timeout)

	acked := false
	for attempt := 0; attempt <= linkRetries; attempt++ {
		if attempt > 0 {
			l.log.Debugf("retransmitting seq %#02x, attempt %d", seq, attempt+1)
		}
		if err := l.writeFrame(frame); err != nil {
			return nil, fmt.Errorf("write frame: %w", err)
		}
		err := l.waitAck(deadline)
		if err == nil {
			acked = true
			break
		}
		if !errors.Is(err, errNak) {
			return nil, err
		}
	}
	if !acked {
		return nil, fmt.Errorf("seq %#02x nakked %d times: %w", seq, linkRetries+1, ErrTimeout)
	}

	for {
		resp, err := l.waitResponse(deadline)
		if err != nil {
			return nil, err
		}
		if resp.Payload[0] == op {
			return resp.Payload[1:], nil
		}
		// A response to an earlier call that already timed out.
		l.log.Debugf("dropping stale response for %#02x while waiting on %#02x",
			resp.Payload[0], op)
	}
}

func (l *Link) writeFrame(frame []byte) error {
	l.writeMutex.Lock()
	defer l.writeMutex.Unlock()

	n, err := l.port.Write(frame)
	if err != nil {
		return err
	}
	if n != len(frame) {
		return fmt.Errorf("incomplete write: %d/%d bytes", n, len(frame))
	}
	return nil
}

// waitAck waits for the responder to advance past the in-flight
// sequence. An ack that leaves the sequence where it was is a nak.
func (l *Link) waitAck(deadline time.Time) error {
	remain := time.Until(deadline)
	if remain <= 0 {
		return ErrTimeout
	}

	select {
	case ack := <-l.ackChan:
		cur := uint8(atomic.LoadUint32(&l.currentSeq))
		want := ((cur + 1) & MessageSeqMask) | MessageDest
		if ack.Sequence != want {
			return errNak
		}
		atomic.StoreUint32(&l.currentSeq, uint32(want))
		return nil
	case <-time.After(remain):
		return ErrTimeout
	case <-l.stopChan:
		return ErrClosed
	}
}

func (l *Link) waitResponse(deadline time.Time) (*Message, error) {
	remain := time.Until(deadline)
	if remain <= 0 {
		return nil, ErrTimeout
	}

	select {
	case resp := <-l.responseChan:
		return resp, nil
	case <-time.After(remain):
		return nil, ErrTimeout
	case <-l.stopChan:
		return nil, ErrClosed
	}
}

// readLoop drains the port until the link closes.
func (l *Link) readLoop() {
	defer close(l.doneChan)

	buffer := make([]byte, 256)
	for {
		select {
		case <-l.stopChan:
			return
		default:
		}

		n, err := l.port.Read(buffer)
		if n > 0 {
			l.input.Write(buffer[:n])
			l.processFrames()
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return
			}
			l.log.Debugf("read: %v", err)
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// processFrames extracts buffered frames and routes them.
func (l *Link) processFrames() {
	l.readMutex.Lock()
	defer l.readMutex.Unlock()

	data := l.input.Data()
	for len(data) > 0 {
		if !l.synchronized() {
			n, found := resync(data)
			data = data[n:]
			if found {
				l.setSynchronized(true)
			}
			continue
		}

		msg, n, res := scanNext(data)
		data = data[n:]
		if res == scanNeedMore {
			break
		}
		if res == scanDesync {
			l.log.Warnf("lost frame sync, hunting for sync byte")
			l.setSynchronized(false)
			continue
		}

		// The payload aliases the ring buffer; copy before it crosses
		// to the calling goroutine.
		payload := make([]byte, len(msg.Payload))
		copy(payload, msg.Payload)
		msg.Payload = payload
		l.dispatch(&msg)
	}

	consumed := l.input.Available() - len(data)
	if consumed > 0 {
		l.input.Pop(consumed)
	}
}

// dispatch routes an empty frame to the ack waiter and anything else to
// the response queue, dropping the oldest response when the queue is
// full.
func (l *Link) dispatch(msg *Message) {
	if len(msg.Payload) == 0 {
		select {
		case l.ackChan <- msg:
		default:
		}
		return
	}

	select {
	case l.responseChan <- msg:
	default:
		select {
		case <-l.responseChan:
		default:
		}
		l.responseChan <- msg
	}
}

// Reset returns the link to its initial sequence state and discards
// anything buffered, for recovery after a string of failed calls.
func (l *Link) Reset() {
	atomic.StoreUint32(&l.isSynchronized, 1)
	atomic.StoreUint32(&l.currentSeq, MessageDest)

	for len(l.ackChan) > 0 {
		<-l.ackChan
	}
	for len(l.responseChan) > 0 {
		<-l.responseChan
	}

	l.readMutex.Lock()
	if l.input.Available() > 0 {
		l.input.Pop(l.input.Available())
	}
	l.readMutex.Unlock()
}

// Close stops the reader and closes the port. Closing the port first
// unblocks a pending Read.
func (l *Link) Close() error {
	l.closeOnce.Do(func() {
		close(l.stopChan)
		l.closeErr = l.port.Close()
		<-l.doneChan
	})
	return l.closeErr
}

func (l *Link) synchronized() bool {
	return atomic.LoadUint32(&l.isSynchronized) != 0
}

func (l *Link) setSynchronized(val bool) {
	if val {
		atomic.StoreUint32(&l.isSynchronized, 1)
	} else {
		atomic.StoreUint32(&l.isSynchronized, 0)
	}
}
