package key

import (
	"strconv"
	"strings"
)

// MaxTextLen is an upper bound on the length of ToText's output, for callers
// that want to size a fixed buffer rather than rely on Go's growable
// strings. It mirrors SHR_KEY_STR_MAX from the C original: three fields
// terminated by '.', one by the end of the string, each rendered as at most
// 10 decimal digits for a 32-bit field, plus the three separators.
const MaxTextLen = 4*10 + 3

// ToText renders a Key as "<shm>.<sem>.<slot_size>.<slot_count>", unsigned
// decimal, dot-separated, with no surrounding whitespace. The result is the
// inverse of FromText.
func ToText(k Key) string {
	var b strings.Builder
	b.Grow(MaxTextLen)
	b.WriteString(strconv.FormatInt(int64(uint32(k.ShmName)), 10))
	b.WriteByte('.')
	b.WriteString(strconv.FormatInt(int64(uint32(k.SemName)), 10))
	b.WriteByte('.')
	b.WriteString(strconv.FormatUint(uint64(k.SlotSize), 10))
	b.WriteByte('.')
	b.WriteString(strconv.FormatUint(uint64(k.SlotCount), 10))
	return b.String()
}

// FromText parses the inverse of ToText: three runs of decimal digits each
// terminated by '.', followed by a fourth run terminated by the end of the
// string.
//
// FromText performs no validation of its input, matching shr_str_to_key in
// the original implementation: a malformed string produces a Key built from
// whatever digits were seen, not an error. Callers that read key text from
// an untrusted source must validate it themselves before trusting the
// result; this decoder is meant for out-of-band channels the two
// cooperating endpoints already control (argv, environment, a pipe they
// agreed on).
func FromText(s string) Key {
	var k Key
	var field int
	var acc uint64

	flush := func() {
		switch field {
		case 0:
			k.ShmName = int32(uint32(acc))
		case 1:
			k.SemName = int32(uint32(acc))
		case 2:
			k.SlotSize = uint32(acc)
		case 3:
			k.SlotCount = uint32(acc)
		}
		acc = 0
		field++
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '.' {
			flush()
			continue
		}
		acc = acc*10 + uint64(c&0x0f)
	}
	flush()

	return k
}
