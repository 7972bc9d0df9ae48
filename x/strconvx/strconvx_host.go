//go:build !rp2040

package strconvx

import "strconv"

func ParseInt(s string, base, bitSize int) (int64, error)   { return strconv.ParseInt(s, base, bitSize) }
func ParseUint(s string, base, bitSize int) (uint64, error) { return strconv.ParseUint(s, base, bitSize) }
