// Package invoice allocates human-legible sale numbers of the form
// PREFIX-<unix millis>-<random base36>. Uniqueness is enforced by the
// store; callers retry on collision.
package invoice

import (
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const suffixLen = 8

type Generator interface {
	Next() string
}

type TimeRandom struct {
	Prefix string
	Now    func() time.Time
}

func New(prefix string) *TimeRandom {
	return &TimeRandom{Prefix: prefix, Now: time.Now}
}

func (g *TimeRandom) Next() string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	var b strings.Builder
	b.WriteString(g.Prefix)
	b.WriteByte('-')
	b.WriteString(strconv.FormatInt(now().UnixMilli(), 10))
	b.WriteByte('-')
	b.WriteString(randomSuffix())
	return b.String()
}

// randomSuffix takes the v4 UUID's random bits (crypto/rand) and renders
// them in upper-case base36.
func randomSuffix() string {
	id := uuid.New()
	s := strings.ToUpper(new(big.Int).SetBytes(id[:]).Text(36))
	if len(s) < suffixLen {
		s = strings.Repeat("0", suffixLen-len(s)) + s
	}
	return s[len(s)-suffixLen:]
}

// Func adapts a plain function, mostly for tests.
type Func func() string

func (f Func) Next() string { return f() }
