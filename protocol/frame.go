package protocol

import "errors"

// ErrFrameTooLarge reports a payload that cannot fit one frame.
var ErrFrameTooLarge = errors.New("frame too large")

// scanResult is what scanNext found at the head of the buffered data.
type scanResult int

const (
	// scanNeedMore: no complete frame yet, wait for more bytes.
	scanNeedMore scanResult = iota
	// scanFrame: a valid frame was extracted.
	scanFrame
	// scanDesync: the data violates framing, resynchronize.
	scanDesync
)

// scanNext looks for one complete frame, skipping any leading sync
// bytes. It returns the parsed frame, the number of bytes consumed and
// the scan outcome. The payload aliases data; callers that hand it to
// another goroutine must copy it first.
func scanNext(data []byte) (Message, int, scanResult) {
	n := 0
	for n < len(data) && data[n] == MessageValueSync {
		n++
	}
	rest := data[n:]

	if len(rest) < MessageLengthMin {
		return Message{}, n, scanNeedMore
	}
	msgLen := int(rest[MessagePositionLen])
	if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
		return Message{}, n, scanDesync
	}
	seq := rest[MessagePositionSeq]
	if seq&^MessageSeqMask != MessageDest {
		return Message{}, n, scanDesync
	}
	if len(rest) < msgLen {
		return Message{}, n, scanNeedMore
	}
	if rest[msgLen-MessageTrailerSync] != MessageValueSync {
		return Message{}, n, scanDesync
	}
	frameCRC := uint16(rest[msgLen-MessageTrailerCRC])<<8 |
		uint16(rest[msgLen-MessageTrailerCRC+1])
	if CRC16(rest[:msgLen-MessageTrailerSize]) != frameCRC {
		return Message{}, n, scanDesync
	}

	msg := Message{
		Length:   rest[MessagePositionLen],
		Sequence: seq,
		Payload:  rest[MessageHeaderSize : msgLen-MessageTrailerSize],
		CRC:      frameCRC,
	}
	return msg, n + msgLen, scanFrame
}

// resync returns how many bytes to drop to resume after the next sync
// byte, and whether one was found.
func resync(data []byte) (int, bool) {
	for i, b := range data {
		if b == MessageValueSync {
			return i + 1, true
		}
	}
	return len(data), false
}

// buildFrame assembles one frame into scratch: header with seq, the
// payload written by the callback, then the patched length, CRC and
// sync trailer. The returned slice aliases scratch.
func buildFrame(scratch *ScratchOutput, seq uint8, payload func(OutputBuffer) error) ([]byte, error) {
	scratch.Reset()
	scratch.Output([]byte{0, seq})
	if payload != nil {
		if err := payload(scratch); err != nil {
			return nil, err
		}
	}
	msgLen := scratch.CurPosition() + MessageTrailerSize
	if msgLen > MessageLengthMax {
		return nil, ErrFrameTooLarge
	}
	scratch.Update(MessagePositionLen, uint8(msgLen))
	crc := CRC16(scratch.Result())
	scratch.Output([]byte{byte(crc >> 8), byte(crc), MessageValueSync})
	return scratch.Result(), nil
}

// ackFrame builds the five-byte empty frame that acknowledges with the
// next expected sequence number.
func ackFrame(seq uint8) []byte {
	crc := CRC16([]byte{MessageLengthMin, seq})
	return []byte{MessageLengthMin, seq, byte(crc >> 8), byte(crc), MessageValueSync}
}
