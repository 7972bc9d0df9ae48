//go:build rp2040

package strconvx

func ParseInt(s string, base, bitSize int) (int64, error)   { return parseInt(s, base, bitSize) }
func ParseUint(s string, base, bitSize int) (uint64, error) { return parseUint(s, base, bitSize) }
