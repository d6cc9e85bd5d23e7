// Package protocol implements the framed serial link used to drive MOS
// calls on a remote machine.
//
// A frame is [length] [sequence] [payload...] [crc hi] [crc lo] [sync].
// The length byte covers the whole frame. Sequence bytes run 0x10..0x1F:
// the low four bits count modulo 16 and the high bits are fixed at
// MessageDest, so a sequence byte can never be mistaken for the sync
// byte. The CRC covers the length, sequence and payload. An empty frame
// is an ack carrying the next sequence number its sender expects; a
// bare sync byte re-synchronizes a peer that has lost framing.
//
// Requests put the function code in the first payload byte; responses
// echo it there, so a caller can match replies to calls.
package protocol

// Revision identifies the link dialect. Both ends of an identify
// handshake must report the same value.
const Revision = 1

const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 128
	MessagePayloadMax  = MessageLengthMax - MessageHeaderSize - MessageTrailerSize

	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1

	MessageValueSync = 0x7E
	MessageDest      = 0x10
	MessageSeqMask   = 0x0F
)

// Message is one parsed frame.
type Message struct {
	Length   uint8
	Sequence uint8
	Payload  []byte
	CRC      uint16
}
