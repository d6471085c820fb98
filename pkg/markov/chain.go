package markov

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
)

// stateSeparator joins the words of a State into its table key. Words never
// contain whitespace, so the key is unambiguous.
const stateSeparator = " "

// State is an ordered run of exactly Order words used as a transition key.
type State []string

// String returns the table key for the state.
func (s State) String() string {
	return strings.Join(s, stateSeparator)
}

// splitState turns a table key back into its words.
func splitState(key string) State {
	return strings.Split(key, stateSeparator)
}

// Table maps a state key (its words joined by a single space) to the
// successor words observed after it, duplicates included, in the order they
// were seen.
type Table map[string][]string

// RandSource is the randomness a Chain samples with. *rand.Rand from
// math/rand/v2 satisfies it.
type RandSource interface {
	// IntN returns a uniform int in [0, n). It is only called with n > 0.
	IntN(n int) int
}

// globalRand samples from the math/rand/v2 top-level source.
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// lockedRand serializes access to a source that is not safe for concurrent
// use, such as a *rand.Rand.
type lockedRand struct {
	mu  sync.Mutex
	src RandSource
}

func (r *lockedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.IntN(n)
}

// Chain is a fixed-order word Markov chain. It owns its transition table,
// which only ever grows: every Ingest call appends to it and generation
// reads it without modification.
type Chain struct {
	order  int
	table  map[string][]string
	states []string // table keys in first-seen order
	rng    RandSource
	logger *slog.Logger
}

// Option configures a Chain.
type Option func(*Chain)

// WithRand sets the random source used for sampling. Pass a seeded
// *rand.Rand to make generation reproducible. Calls into r are serialized,
// so r does not need to be safe for concurrent use.
func WithRand(r RandSource) Option {
	return func(c *Chain) {
		if r != nil {
			c.rng = &lockedRand{src: r}
		}
	}
}

// WithLogger sets the logger. By default all logs are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chain) {
		c.SetLogger(logger)
	}
}

// New creates an empty chain of the given order.
func New(order int, opts ...Option) (*Chain, error) {
	if order < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidOrder, order)
	}
	c := &Chain{
		order:  order,
		table:  make(map[string][]string),
		rng:    globalRand{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger.Info("Initialized markov chain", slog.Int("order", order))
	return c, nil
}

// SetLogger sets the logger for the Chain. By default, all logs are discarded.
func (c *Chain) SetLogger(logger *slog.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// Order returns the number of words in a state.
func (c *Chain) Order() int {
	return c.order
}

// Len returns the number of states in the table.
func (c *Chain) Len() int {
	return len(c.states)
}

// Empty reports whether nothing has been ingested into the chain yet.
func (c *Chain) Empty() bool {
	return len(c.states) == 0
}

// Successors returns a copy of the successor list recorded for state, or nil
// if the state was never seen.
func (c *Chain) Successors(state State) []string {
	next, ok := c.table[state.String()]
	if !ok {
		return nil
	}
	out := make([]string, len(next))
	copy(out, next)
	return out
}

// States returns every state in the order it was first seen.
func (c *Chain) States() []State {
	out := make([]State, len(c.states))
	for i, key := range c.states {
		out[i] = splitState(key)
	}
	return out
}

// Table returns a deep copy of the transition table.
func (c *Chain) Table() Table {
	out := make(Table, len(c.table))
	for key, next := range c.table {
		cp := make([]string, len(next))
		copy(cp, next)
		out[key] = cp
	}
	return out
}

// add appends next to the successor list of key, creating the state with
// its first successor if it is new.
func (c *Chain) add(key, next string) {
	list, ok := c.table[key]
	if !ok {
		c.states = append(c.states, key)
	}
	c.table[key] = append(list, next)
}

// randomState picks a state key uniformly. The table must not be empty.
func (c *Chain) randomState() string {
	return c.states[c.rng.IntN(len(c.states))]
}
