package mavlink

// crcInit is the CRC-16/MCRF4XX seed.
const crcInit uint16 = 0xFFFF

// crcAccumulate folds b into crc using the X.25 polynomial, bit-reflected,
// as MAVLink does.
func crcAccumulate(crc uint16, b byte) uint16 {
	tmp := b ^ byte(crc)
	tmp ^= tmp << 4
	t := uint16(tmp)
	return (crc >> 8) ^ (t << 8) ^ (t << 3) ^ (t >> 4)
}

// Checksum returns the CRC-16/MCRF4XX of data.
func Checksum(data []byte) uint16 {
	crc := crcInit
	for _, b := range data {
		crc = crcAccumulate(crc, b)
	}
	return crc
}

// frameChecksum covers the header after the magic byte and the payload,
// then folds in the message's CRC_EXTRA seed.
func frameChecksum(headerAndPayload []byte, extra byte) uint16 {
	return crcAccumulate(Checksum(headerAndPayload), extra)
}
