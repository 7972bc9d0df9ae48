// Package strconvx is the subset of strconv the firmware needs, with the same
// signatures. Host builds delegate to strconv; rp2040 builds use the small
// parser in this file.
package strconvx

import "errors"

var (
	ErrSyntax = errors.New("invalid syntax")
	ErrRange  = errors.New("value out of range")
)

// parseUint accepts bases 2..36. Base 0 reads the prefix like strconv: 0x,
// 0o, 0b, a bare leading 0 for octal, decimal otherwise, and allows
// underscores between digits. bitSize 0 means 64.
func parseUint(s string, base, bitSize int) (uint64, error) {
	s0 := s
	base0 := base == 0
	if base0 {
		base = 10
		if len(s) > 1 && s[0] == '0' {
			switch s[1] | 0x20 {
			case 'x':
				base, s = 16, s[2:]
			case 'o':
				base, s = 8, s[2:]
			case 'b':
				base, s = 2, s[2:]
			default:
				base, s = 8, s[1:]
			}
		}
	}
	if base < 2 || base > 36 || s == "" {
		return 0, ErrSyntax
	}
	if bitSize <= 0 || bitSize > 64 {
		bitSize = 64
	}
	max := uint64(1)<<uint(bitSize) - 1
	if bitSize == 64 {
		max = ^uint64(0)
	}

	var v uint64
	underscores := false
	for i := 0; i < len(s); i++ {
		if s[i] == '_' && base0 {
			underscores = true
			continue
		}
		d := digit(s[i])
		if d >= base {
			return 0, ErrSyntax
		}
		if v > (max-uint64(d))/uint64(base) {
			return max, ErrRange
		}
		v = v*uint64(base) + uint64(d)
	}
	if underscores && !underscoreOK(s0) {
		return 0, ErrSyntax
	}
	return v, nil
}

// underscoreOK reports whether every underscore in s sits between two digits,
// or between a base prefix and a digit.
func underscoreOK(s string) bool {
	saw := byte('^') // '0' digit or prefix, '_' underscore, '!' other
	i := 0
	if len(s) >= 1 && (s[0] == '-' || s[0] == '+') {
		s = s[1:]
	}
	hex := false
	if len(s) >= 2 && s[0] == '0' {
		switch s[1] | 0x20 {
		case 'b', 'o', 'x':
			i, saw = 2, '0'
			hex = s[1]|0x20 == 'x'
		}
	}
	for ; i < len(s); i++ {
		c := s[i]
		if '0' <= c && c <= '9' || hex && 'a' <= c|0x20 && c|0x20 <= 'f' {
			saw = '0'
			continue
		}
		if c == '_' {
			if saw != '0' {
				return false
			}
			saw = '_'
			continue
		}
		if saw == '_' {
			return false
		}
		saw = '!'
	}
	return saw != '_'
}

func parseInt(s string, base, bitSize int) (int64, error) {
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	if bitSize <= 0 || bitSize > 64 {
		bitSize = 64
	}
	u, err := parseUint(s, base, 64)
	if err == ErrSyntax {
		return 0, err
	}
	lim := uint64(1) << uint(bitSize-1)
	if neg {
		if err != nil || u > lim {
			return -int64(lim - 1) - 1, ErrRange
		}
		return -int64(u), nil
	}
	if err != nil || u >= lim {
		return int64(lim - 1), ErrRange
	}
	return int64(u), nil
}

// digit maps 0-9a-zA-Z to 0..35; anything else is 36.
func digit(c byte) int {
	switch {
	case '0' <= c && c <= '9':
		return int(c - '0')
	case 'a' <= c && c <= 'z':
		return int(c-'a') + 10
	case 'A' <= c && c <= 'Z':
		return int(c-'A') + 10
	}
	return 36
}
