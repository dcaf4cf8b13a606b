// Package totp generates RFC 6238 time-based codes the way the authenticator
// cards display them: HMAC-SHA1, a 30 second step and 6 digits, with a fixed
// fallback code instead of an error.
package totp

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/soulteary/libreauth/internal/base32"
)

const (
	// Period is the time step in seconds.
	Period = 30
	// Digits is the length of a generated code.
	Digits = 6
	// FallbackCode is returned by Generate when a code cannot be computed.
	// Display surfaces show it as-is; it is never an error.
	FallbackCode = "000000"

	codeModulus = 1000000
)

// ErrNegativeTime is returned by CodeAt for timestamps before the Unix epoch.
var ErrNegativeTime = errors.New("totp: time before unix epoch")

// Clock returns the current Unix time in seconds.
type Clock func() int64

// SystemClock reads the wall clock.
func SystemClock() int64 {
	return time.Now().Unix()
}

// Generator produces codes against an injected clock. The zero value is not
// usable; build one with NewGenerator. A Generator is safe for concurrent use.
type Generator struct {
	now Clock
}

// NewGenerator returns a Generator reading time from clock, or from the system
// clock when clock is nil.
func NewGenerator(clock Clock) *Generator {
	if clock == nil {
		clock = SystemClock
	}
	return &Generator{now: clock}
}

var defaultGenerator = NewGenerator(nil)

// Generate returns the current code for secret using the system clock.
func Generate(secret string) string {
	return defaultGenerator.Generate(secret)
}

// RemainingSeconds returns the seconds left in the current window using the system clock.
func RemainingSeconds() int {
	return defaultGenerator.RemainingSeconds()
}

// Generate returns the 6-digit code for secret at the generator's current
// time. Any failure, including a panic inside the hash, yields FallbackCode.
func (g *Generator) Generate(secret string) (code string) {
	defer func() {
		if r := recover(); r != nil {
			code = FallbackCode
		}
	}()
	c, err := g.CodeAt(secret, g.now())
	if err != nil {
		return FallbackCode
	}
	return c
}

// IsFallback reports whether code is the sentinel returned on failure. A real
// code can also be 000000 (one window in a million), so this is a hint only.
func IsFallback(code string) bool {
	return code == FallbackCode
}

// RemainingSeconds returns the seconds until the next code, in [1, Period].
func (g *Generator) RemainingSeconds() int {
	return Period - int(mod(g.now(), Period))
}

// Now returns the generator's current Unix time.
func (g *Generator) Now() int64 {
	return g.now()
}

// CodeAt computes the code for secret at the given Unix second.
func (g *Generator) CodeAt(secret string, unix int64) (string, error) {
	if unix < 0 {
		return "", ErrNegativeTime
	}
	return hotp(base32.Decode(secret), Counter(unix))
}

// Counter returns the time-step counter for a non-negative Unix second.
func Counter(unix int64) uint64 {
	return uint64(unix) / Period
}

// hotp implements RFC 4226 section 5.3 for a 6 digit SHA-1 code.
func hotp(key []byte, counter uint64) (string, error) {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(sha1.New, key)
	if _, err := mac.Write(msg[:]); err != nil {
		return "", fmt.Errorf("totp: hmac: %w", err)
	}
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	value := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	return fmt.Sprintf("%0*d", Digits, value%codeModulus), nil
}

func mod(a, n int64) int64 {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
