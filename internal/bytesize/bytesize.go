// Package bytesize parses human-readable byte counts and link rates used in
// linkfs configuration, such as "64KiB", "5760B/s" or "57.6kbps".
package bytesize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ByteSize is a count of bytes, or bytes per second when used as a rate.
type ByteSize uint64

const (
	B  ByteSize = 1
	KB ByteSize = 1000
	MB ByteSize = 1000 * KB
	GB ByteSize = 1000 * MB

	KiB ByteSize = 1024
	MiB ByteSize = 1024 * KiB
	GiB ByteSize = 1024 * MiB
)

var pattern = regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?)\s*([a-z]*)\s*(/s)?\s*$`)

// units maps a lowercase suffix to a multiplier and a divisor. Bit-rate
// suffixes divide by 8 to yield bytes.
var units = map[string]struct {
	mul ByteSize
	div uint64
}{
	"":     {B, 1},
	"b":    {B, 1},
	"k":    {KB, 1},
	"kb":   {KB, 1},
	"m":    {MB, 1},
	"mb":   {MB, 1},
	"g":    {GB, 1},
	"gb":   {GB, 1},
	"ki":   {KiB, 1},
	"kib":  {KiB, 1},
	"mi":   {MiB, 1},
	"mib":  {MiB, 1},
	"gi":   {GiB, 1},
	"gib":  {GiB, 1},
	"bps":  {B, 8},
	"kbps": {KB, 8},
	"mbps": {MB, 8},
}

// Parse converts s to a ByteSize. A trailing "/s" is accepted and ignored so
// rates read naturally in config files.
func Parse(s string) (ByteSize, error) {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid byte size %q", s)
	}

	u, ok := units[strings.ToLower(m[2])]
	if !ok {
		return 0, fmt.Errorf("unknown byte size unit %q", m[2])
	}

	num, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number in byte size %q: %w", s, err)
	}
	return ByteSize(num * float64(u.mul) / float64(u.div)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *ByteSize) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// MarshalText implements encoding.TextMarshaler so saved configs round-trip.
func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// String renders b with the largest binary unit that divides it exactly.
func (b ByteSize) String() string {
	switch {
	case b == 0:
		return "0B"
	case b%GiB == 0:
		return fmt.Sprintf("%dGiB", b/GiB)
	case b%MiB == 0:
		return fmt.Sprintf("%dMiB", b/MiB)
	case b%KiB == 0:
		return fmt.Sprintf("%dKiB", b/KiB)
	default:
		return fmt.Sprintf("%dB", uint64(b))
	}
}

// Uint32 returns b clamped to the uint32 range.
func (b ByteSize) Uint32() uint32 {
	if b > ByteSize(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(b)
}
