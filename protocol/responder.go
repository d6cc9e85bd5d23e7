package protocol

import "sync/atomic"

// Handler processes one request. The function code has been consumed
// already; args holds the remaining payload and must be advanced past
// the arguments the handler reads, since a frame may batch several
// requests back to back.
type Handler func(op uint8, args *[]byte) error

// Responder is the machine side of the link: it validates incoming
// frames, tracks the host's sequence numbers, acknowledges every frame
// and dispatches requests to a handler. Handlers run before the frame's
// ack is queued, so any responses they send sit ahead of that ack in
// the output buffer.
//
// Sequence and sync state are atomics so a caller may Reset from
// another goroutine, but Receive and Respond themselves are meant for
// one serve loop.
type Responder struct {
	isSynchronized uint32 // atomic bool
	nextSequence   uint32 // atomic uint8: next expected 0x10..0x1F

	output  OutputBuffer
	handler Handler
	scratch ScratchOutput

	// resetCallback runs when the host restarts its sequence numbers,
	// so state keyed to the old session can be dropped.
	resetCallback func()
	// flushCallback runs after every ack so buffered transports can
	// push pending frames to the wire promptly.
	flushCallback func()
}

// NewResponder starts synchronized, expecting sequence MessageDest.
func NewResponder(output OutputBuffer, handler Handler) *Responder {
	return &Responder{
		isSynchronized: 1,
		nextSequence:   MessageDest,
		output:         output,
		handler:        handler,
	}
}

// Receive consumes buffered link data: extracts frames, acks them, and
// dispatches valid in-sequence requests to the handler. Frames with a
// stale sequence are acked but not dispatched, which tells the host to
// retransmit from where the responder actually is.
func (r *Responder) Receive(input InputBuffer) {
	data := input.Data()

	for len(data) > 0 {
		if !r.synchronized() {
			n, found := resync(data)
			data = data[n:]
			if found {
				r.setSynchronized(true)
				r.sendAck()
			}
			continue
		}

		msg, n, res := scanNext(data)
		data = data[n:]
		if res == scanNeedMore {
			// Partial frame stays buffered for the next Receive.
			break
		}
		if res == scanDesync {
			r.setSynchronized(false)
			continue
		}
		r.accept(msg)
	}

	consumed := input.Available() - len(data)
	if consumed > 0 {
		input.Pop(consumed)
	}
}

// accept applies sequence tracking to a valid frame and acks it.
func (r *Responder) accept(msg Message) {
	expected := uint8(atomic.LoadUint32(&r.nextSequence))

	// A host restart shows up as the sequence jumping back to its
	// starting value mid-session.
	if msg.Sequence == MessageDest && expected != MessageDest {
		atomic.StoreUint32(&r.nextSequence, MessageDest)
		expected = MessageDest
		if r.resetCallback != nil {
			r.resetCallback()
		}
	}

	if msg.Sequence == expected {
		next := ((msg.Sequence + 1) & MessageSeqMask) | MessageDest
		atomic.StoreUint32(&r.nextSequence, uint32(next))
		_ = r.parseFrame(msg.Payload)
	}
	r.sendAck()
}

// parseFrame dispatches the requests batched in one frame payload.
func (r *Responder) parseFrame(frame []byte) (err error) {
	// A handler panic must not take the serve loop down; drop the
	// session into resync instead.
	defer func() {
		if rec := recover(); rec != nil {
			r.setSynchronized(false)
		}
	}()

	for len(frame) > 0 {
		op, err := DecodeU8(&frame)
		if err != nil {
			r.setSynchronized(false)
			return err
		}
		if r.handler != nil {
			if err := r.handler(op, &frame); err != nil {
				return err
			}
		}
	}
	return nil
}

// Respond frames a response payload under the current sequence number
// and appends it to the output. The first payload byte is the function
// code the response answers.
func (r *Responder) Respond(op uint8, build func(OutputBuffer) error) error {
	seq := uint8(atomic.LoadUint32(&r.nextSequence))
	frame, err := buildFrame(&r.scratch, seq, func(out OutputBuffer) error {
		EncodeU8(out, op)
		if build != nil {
			return build(out)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.output.Output(frame)
	return nil
}

func (r *Responder) sendAck() {
	ns := uint8(atomic.LoadUint32(&r.nextSequence))
	r.output.Output(ackFrame(ns))
	if r.flushCallback != nil {
		r.flushCallback()
	}
}

// Reset returns the responder to its initial synchronized state.
func (r *Responder) Reset() {
	atomic.StoreUint32(&r.isSynchronized, 1)
	atomic.StoreUint32(&r.nextSequence, MessageDest)
	if r.resetCallback != nil {
		r.resetCallback()
	}
}

// SetResetCallback registers a callback for host restarts.
func (r *Responder) SetResetCallback(callback func()) {
	r.resetCallback = callback
}

// SetFlushCallback registers a callback run after every ack.
func (r *Responder) SetFlushCallback(callback func()) {
	r.flushCallback = callback
}

func (r *Responder) synchronized() bool {
	return atomic.LoadUint32(&r.isSynchronized) != 0
}

func (r *Responder) setSynchronized(val bool) {
	if val {
		atomic.StoreUint32(&r.isSynchronized, 1)
	} else {
		atomic.StoreUint32(&r.isSynchronized, 0)
	}
}
