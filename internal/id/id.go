package id

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	// ReferencePrefix starts every transaction reference number.
	ReferencePrefix = "TXN"
	referenceLen    = 12
)

// New returns a random record identifier.
func New() string {
	return uuid.NewString()
}

// Seed returns a stable identifier derived from name, for demo fixtures.
func Seed(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("securebank:"+name)).String()
}

// NewReference returns a reference like "TXN0K3Z9Q1B7XWD".
func NewReference() string {
	u := uuid.New()
	code := strings.ToUpper(strconv.FormatUint(binary.BigEndian.Uint64(u[8:]), 36))
	if len(code) < referenceLen {
		code = strings.Repeat("0", referenceLen-len(code)) + code
	}
	return ReferencePrefix + code[len(code)-referenceLen:]
}

// FormatLegReference returns a leg reference like "TXN0K3Z9Q1B7XWDa" (leg 0='a', 1='b', etc.).
func FormatLegReference(ref string, leg int) string {
	return ref + string(rune('a'+leg))
}

// ReferenceGroup strips the leg suffix from a reference.
// "TXN0K3Z9Q1B7XWDa" -> "TXN0K3Z9Q1B7XWD"
func ReferenceGroup(ref string) string {
	i := len(ref)
	for i > 0 && ref[i-1] >= 'a' && ref[i-1] <= 'z' {
		i--
	}
	return ref[:i]
}

// ParseReference splits a reference into its group and leg index.
// Leg is -1 for single-record references.
func ParseReference(ref string) (group string, leg int, err error) {
	group = ReferenceGroup(ref)
	if !strings.HasPrefix(group, ReferencePrefix) || len(group) != len(ReferencePrefix)+referenceLen {
		return "", 0, fmt.Errorf("invalid reference format: %q", ref)
	}
	for _, r := range group[len(ReferencePrefix):] {
		if !(r >= '0' && r <= '9' || r >= 'A' && r <= 'Z') {
			return "", 0, fmt.Errorf("invalid character %q in reference %q", r, ref)
		}
	}

	switch suffix := ref[len(group):]; len(suffix) {
	case 0:
		return group, -1, nil
	case 1:
		return group, int(suffix[0] - 'a'), nil
	default:
		return "", 0, fmt.Errorf("invalid leg suffix in reference %q", ref)
	}
}

// NewAccountNumber returns a random 10-digit display account number.
func NewAccountNumber() string {
	return strconv.FormatInt(rand.Int64N(9_000_000_000)+1_000_000_000, 10)
}
