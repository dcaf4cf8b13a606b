// Package base32 decodes RFC 4648 Base32 secrets as authenticator apps show them.
//
// Unlike encoding/base32, Decode never fails: characters outside the alphabet
// (spaces, dashes, stray punctuation) are skipped and trailing bits that do not
// fill a whole byte are dropped.
package base32

import "strings"

// Alphabet is the RFC 4648 Base32 alphabet.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

var lookup [256]int8

func init() {
	for i := range lookup {
		lookup[i] = -1
	}
	for i := 0; i < len(Alphabet); i++ {
		lookup[Alphabet[i]] = int8(i)
	}
}

// Decode returns the bytes encoded by s. Trailing '=' padding is stripped and
// the input is treated case-insensitively. Unknown characters are ignored.
func Decode(s string) []byte {
	s = strings.ToUpper(strings.TrimRight(s, "="))
	out := make([]byte, 0, len(s)*5/8)

	var buffer uint32
	bits := 0
	for i := 0; i < len(s); i++ {
		v := lookup[s[i]]
		if v < 0 {
			continue
		}
		buffer = buffer<<5 | uint32(v)
		bits += 5
		if bits >= 8 {
			bits -= 8
			out = append(out, byte(buffer>>uint(bits)))
			// keep only the bits not yet emitted
			buffer &= 1<<uint(bits) - 1
		}
	}
	return out
}
