// Package teamid mints human-readable team codes such as ICE-MF3K2Q-7ZP1.
//
// The middle segment is the last six base36 digits of the millisecond
// timestamp, kept strictly increasing within a process. The last segment is random and separates codes
// minted by different processes in the same millisecond. Codes are not meant
// to be unguessable.
package teamid

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	DefaultPrefix = "ICE"

	timestampLen = 6
	randomLen    = 4
	alphabet     = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Generator is safe for concurrent use.
type Generator struct {
	prefix string
	now    func() time.Time
	intN   func(n int) int

	mu     sync.Mutex
	lastMS int64
}

type Option func(*Generator)

// WithPrefix overrides the code prefix.
func WithPrefix(prefix string) Option {
	return func(g *Generator) {
		g.prefix = strings.ToUpper(prefix)
	}
}

// WithClock injects the wall clock.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithRandom injects the random source for the suffix.
func WithRandom(r *rand.Rand) Option {
	return func(g *Generator) {
		g.intN = r.IntN
	}
}

func New(opts ...Option) *Generator {
	g := &Generator{
		prefix: DefaultPrefix,
		now:    time.Now,
		intN:   rand.IntN,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a new team code.
func (g *Generator) Generate() string {
	ms := g.nextMillis()

	ts := strconv.FormatInt(ms, 36)
	if len(ts) > timestampLen {
		ts = ts[len(ts)-timestampLen:]
	} else if len(ts) < timestampLen {
		ts = strings.Repeat("0", timestampLen-len(ts)) + ts
	}

	var b strings.Builder
	b.Grow(len(g.prefix) + timestampLen + randomLen + 2)
	b.WriteString(g.prefix)
	b.WriteByte('-')
	b.WriteString(strings.ToUpper(ts))
	b.WriteByte('-')
	g.mu.Lock()
	for range randomLen {
		b.WriteByte(alphabet[g.intN(len(alphabet))])
	}
	g.mu.Unlock()
	return b.String()
}

// nextMillis returns the clock's millisecond, bumped past the last one handed
// out when the clock repeats or goes backwards.
func (g *Generator) nextMillis() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.now().UnixMilli()
	if ms <= g.lastMS {
		ms = g.lastMS + 1
	}
	g.lastMS = ms
	return ms
}
