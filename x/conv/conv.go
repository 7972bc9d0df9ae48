// Package conv formats integers into caller-owned buffers without fmt or
// strconv, for hot paths on the MCU.
package conv

// AppendUint appends the decimal form of n to dst.
func AppendUint(dst []byte, n uint64) []byte {
	var tmp [20]byte
	i := len(tmp)
	for {
		i--
		tmp[i] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			break
		}
	}
	return append(dst, tmp[i:]...)
}

// AppendInt appends the decimal form of n to dst.
func AppendInt(dst []byte, n int64) []byte {
	if n < 0 {
		dst = append(dst, '-')
		return AppendUint(dst, uint64(-(n+1))+1)
	}
	return AppendUint(dst, uint64(n))
}

// AppendHex8 appends b as two uppercase hex digits.
func AppendHex8(dst []byte, b uint8) []byte {
	const hexd = "0123456789ABCDEF"
	return append(dst, hexd[b>>4], hexd[b&0xF])
}
