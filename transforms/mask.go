package transforms

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/zoobzio/mold"
)

// MaskKind names a data format with a masking rule.
type MaskKind string

const (
	MaskSSN   MaskKind = "ssn"   // 123-45-6789 -> ***-**-6789
	MaskEmail MaskKind = "email" // alice@example.com -> a***@example.com
	MaskPhone MaskKind = "phone" // (555) 123-4567 -> (***) ***-4567
	MaskCard  MaskKind = "card"  // 4111111111111111 -> ************1111
	MaskIP    MaskKind = "ip"    // 192.168.1.100 -> 192.168.xxx.xxx
	MaskUUID  MaskKind = "uuid"  // 550e8400-e29b-... -> 550e8400-****-****-****-************
	MaskIBAN  MaskKind = "iban"  // GB82WEST12345698765432 -> GB82**************5432
	MaskName  MaskKind = "name"  // John Smith -> J*** S****
)

var maskers = map[MaskKind]func(string) string{
	MaskSSN:   maskSSN,
	MaskEmail: maskEmail,
	MaskPhone: maskPhone,
	MaskCard:  maskCard,
	MaskIP:    maskIP,
	MaskUUID:  maskUUID,
	MaskIBAN:  maskIBAN,
	MaskName:  maskName,
}

// Mask returns a transform masking string values of the given kind.
// Unknown kinds fail at transform time with ErrUnknownMask.
func Mask(kind MaskKind) mold.FieldTransform {
	fn, ok := maskers[kind]
	return func(value any, _ map[string]any) (any, error) {
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMask, kind)
		}
		if value == nil {
			return nil, nil
		}
		return fn(mold.ToString(value)), nil
	}
}

// MaskString applies the masking rule for kind to s. Unknown kinds mask
// every character.
func MaskString(kind MaskKind, s string) string {
	if fn, ok := maskers[kind]; ok {
		return fn(s)
	}
	return stars(len(s))
}

func stars(n int) string {
	return strings.Repeat("*", n)
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// lastFour returns the final four digits of s, or false when s has fewer.
func lastFour(s string) (string, int, bool) {
	d := digitsOf(s)
	if len(d) < 4 {
		return "", len(d), false
	}
	return d[len(d)-4:], len(d), true
}

func maskSSN(s string) string {
	tail, _, ok := lastFour(s)
	if !ok {
		return stars(len(s))
	}
	return "***-**-" + tail
}

func maskEmail(s string) string {
	at := strings.LastIndex(s, "@")
	if at < 1 {
		return stars(len(s))
	}
	return s[:1] + "***" + s[at:]
}

func maskPhone(s string) string {
	tail, n, ok := lastFour(s)
	switch {
	case !ok:
		return stars(len(s))
	case n >= 10 && strings.HasPrefix(s, "("):
		return "(***) ***-" + tail
	case n >= 10:
		return "***-***-" + tail
	}
	return "***-" + tail
}

func maskCard(s string) string {
	tail, n, ok := lastFour(s)
	if !ok {
		return stars(len(s))
	}

	sep := ""
	switch {
	case strings.Contains(s, " "):
		sep = " "
	case strings.Contains(s, "-"):
		sep = "-"
	}
	if sep == "" {
		return stars(n-4) + tail
	}

	groups := make([]string, (n-4+3)/4, (n-4+3)/4+1)
	for i := range groups {
		groups[i] = "****"
	}
	return strings.Join(append(groups, tail), sep)
}

// maskIP keeps the network part: two IPv4 octets or four IPv6 groups.
func maskIP(s string) string {
	if parts := strings.Split(s, "."); len(parts) == 4 {
		return parts[0] + "." + parts[1] + ".xxx.xxx"
	}
	if !strings.Contains(s, ":") {
		return stars(len(s))
	}

	groups, ok := ipv6Groups(s)
	if !ok {
		return stars(len(s))
	}
	return strings.Join(groups[:4], ":") + ":xxxx:xxxx:xxxx:xxxx"
}

// ipv6Groups expands :: and returns the eight groups of an IPv6 address.
func ipv6Groups(s string) ([]string, bool) {
	if !strings.Contains(s, "::") {
		groups := strings.Split(s, ":")
		return groups, len(groups) == 8
	}

	halves := strings.Split(s, "::")
	if len(halves) != 2 {
		return nil, false
	}
	var left, right []string
	if halves[0] != "" {
		left = strings.Split(halves[0], ":")
	}
	if halves[1] != "" {
		right = strings.Split(halves[1], ":")
	}

	missing := 8 - len(left) - len(right)
	if missing < 0 {
		return nil, false
	}
	groups := append([]string{}, left...)
	for range missing {
		groups = append(groups, "0000")
	}
	return append(groups, right...), true
}

func maskUUID(s string) string {
	parts := strings.Split(s, "-")
	if len(parts) != 5 {
		return stars(len(s))
	}
	return parts[0] + "-****-****-****-************"
}

func maskIBAN(s string) string {
	if len(s) <= 8 {
		return stars(len(s))
	}
	return s[:4] + stars(len(s)-8) + s[len(s)-4:]
}

func maskName(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		words[i] = string(r[0]) + stars(len(r)-1)
	}
	return strings.Join(words, " ")
}
