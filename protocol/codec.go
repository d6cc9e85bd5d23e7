package protocol

import "errors"

// Payload codec: fixed-width little-endian fields, matching the sizes
// the firmware's structures use. U24 carries the eZ80's native 24-bit
// integers (addresses, baud rates). Strings travel zero-terminated;
// byte blocks carry a 16-bit length prefix. Decoders take a pointer to
// the payload slice and advance it past what they consume.

var (
	ErrTruncated     = errors.New("truncated payload")
	ErrValueRange    = errors.New("value out of range")
	ErrStringTooLong = errors.New("string too long")
	ErrInvalidString = errors.New("string contains a zero byte")
)

func EncodeU8(output OutputBuffer, v uint8) {
	output.Output([]byte{v})
}

func EncodeU16(output OutputBuffer, v uint16) {
	output.Output([]byte{byte(v), byte(v >> 8)})
}

// EncodeU24 writes the low three bytes of v. Values above 0xFFFFFF do
// not fit and are rejected rather than masked.
func EncodeU24(output OutputBuffer, v uint32) error {
	if v > 0xFFFFFF {
		return ErrValueRange
	}
	output.Output([]byte{byte(v), byte(v >> 8), byte(v >> 16)})
	return nil
}

func EncodeU32(output OutputBuffer, v uint32) {
	output.Output([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}

func DecodeU8(data *[]byte) (uint8, error) {
	if len(*data) < 1 {
		return 0, ErrTruncated
	}
	v := (*data)[0]
	*data = (*data)[1:]
	return v, nil
}

func DecodeU16(data *[]byte) (uint16, error) {
	if len(*data) < 2 {
		return 0, ErrTruncated
	}
	d := *data
	v := uint16(d[0]) | uint16(d[1])<<8
	*data = d[2:]
	return v, nil
}

func DecodeU24(data *[]byte) (uint32, error) {
	if len(*data) < 3 {
		return 0, ErrTruncated
	}
	d := *data
	v := uint32(d[0]) | uint32(d[1])<<8 | uint32(d[2])<<16
	*data = d[3:]
	return v, nil
}

func DecodeU32(data *[]byte) (uint32, error) {
	if len(*data) < 4 {
		return 0, ErrTruncated
	}
	d := *data
	v := uint32(d[0]) | uint32(d[1])<<8 | uint32(d[2])<<16 | uint32(d[3])<<24
	*data = d[4:]
	return v, nil
}

// EncodeString writes s followed by a terminating zero byte. A string
// longer than one frame's payload can never be delivered, and one with
// an embedded zero would terminate early; both are rejected.
func EncodeString(output OutputBuffer, s string) error {
	if len(s)+1 > MessagePayloadMax {
		return ErrStringTooLong
	}
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return ErrInvalidString
		}
	}
	output.Output([]byte(s))
	output.Output([]byte{0})
	return nil
}

// DecodeString reads up to the next zero byte.
func DecodeString(data *[]byte) (string, error) {
	d := *data
	for i, b := range d {
		if b == 0 {
			*data = d[i+1:]
			return string(d[:i]), nil
		}
	}
	return "", ErrTruncated
}

// EncodeBytes writes a 16-bit length prefix followed by the bytes.
// Callers chunk blocks that cannot fit one frame.
func EncodeBytes(output OutputBuffer, b []byte) error {
	if len(b) > 0xFFFF {
		return ErrValueRange
	}
	EncodeU16(output, uint16(len(b)))
	output.Output(b)
	return nil
}

// DecodeBytes reads a length-prefixed block. The result aliases the
// payload; callers that keep it past the frame must copy.
func DecodeBytes(data *[]byte) ([]byte, error) {
	n, err := DecodeU16(data)
	if err != nil {
		return nil, err
	}
	if len(*data) < int(n) {
		return nil, ErrTruncated
	}
	result := (*data)[:n]
	*data = (*data)[n:]
	return result, nil
}
