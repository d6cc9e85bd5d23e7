package protocol

// CRC16 computes the frame checksum: CCITT polynomial 0x1021, seed
// 0xFFFF, most significant bit first. The shift form below is the
// table-free equivalent, cheap enough for a byte-at-a-time device loop.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		b = b ^ uint8(crc&0xFF)
		b = b ^ (b << 4)
		b16 := uint16(b)
		crc = (b16<<8 | crc>>8) ^ (b16 >> 4) ^ (b16 << 3)
	}
	return crc
}
