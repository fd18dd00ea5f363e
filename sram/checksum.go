package sram

// League checksum.
//
// The game sums the 165 record bytes of a league into a 16-bit value
// (overflow discarded) and stores it little-endian right after the records.
// A league whose stored checksum does not match is wiped on boot, so the
// checksum must be recomputed before an edited image is persisted.

// Checksum computes the truncated additive sum of a league's record bytes.
func Checksum(data []byte) uint16 {
	var sum uint16
	for _, b := range data {
		sum += uint16(b)
	}
	return sum
}

// Verify reports whether stored matches the checksum of data.
func Verify(data []byte, stored uint16) bool {
	return Checksum(data) == stored
}
