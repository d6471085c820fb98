package markov

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// DefaultLength is the number of words generated when WithLength is not given.
const DefaultLength = 50

// generateOptions Is used by the generate functions to configure default options.
type generateOptions struct {
	length int
	seed   []string
}

// GenerateOption is a function that configures generation parameters. It's used
// as a variadic argument in Generate, GenerateWords and GenerateStream.
type GenerateOption func(*generateOptions)

// WithLength sets the target number of words. Output never exceeds it and is
// shorter only when a state without successors is reached.
func WithLength(n int) GenerateOption {
	return func(o *generateOptions) { o.length = n }
}

// WithSeed sets the words generation starts from. Seeds with fewer words than
// the chain order are ignored. Otherwise the last Order words form the first
// state and the whole seed begins the output. If that state was never seen,
// generation starts from a random state instead and the seed is dropped.
func WithSeed(words ...string) GenerateOption {
	return func(o *generateOptions) { o.seed = words }
}

func newGenerateOptions(opts []GenerateOption) *generateOptions {
	options := &generateOptions{length: DefaultLength}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// Generate produces text from the chain and returns its words joined by
// single spaces. It returns ErrModelNotBuilt if nothing was ingested yet.
func (c *Chain) Generate(ctx context.Context, opts ...GenerateOption) (string, error) {
	words, err := c.GenerateWords(ctx, opts...)
	if err != nil {
		return "", err
	}
	return strings.Join(words, " "), nil
}

// GenerateWords is Generate without the final join.
func (c *Chain) GenerateWords(ctx context.Context, opts ...GenerateOption) ([]string, error) {
	options := newGenerateOptions(opts)

	words, err := c.start(ctx, options)
	if err != nil {
		return nil, err
	}

	for len(words) < options.length {
		if err = ctx.Err(); err != nil {
			return nil, err
		}
		next, ok := c.next(words)
		if !ok {
			c.logger.InfoContext(ctx, "Reached end state with no transitions",
				slog.String("last_state", c.tail(words).String()),
				slog.Int("generated_length", len(words)),
			)
			break
		}
		words = append(words, next)
	}

	return words, nil
}

// start validates the request and returns the initial output words.
func (c *Chain) start(ctx context.Context, options *generateOptions) ([]string, error) {
	if len(c.states) == 0 {
		c.logger.ErrorContext(ctx, "Cannot generate text: markov chain is empty")
		return nil, ErrModelNotBuilt
	}
	if options.length < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLength, options.length)
	}

	var key string
	var words []string
	if len(options.seed) >= c.order {
		key = c.tail(options.seed).String()
		if _, ok := c.table[key]; ok {
			words = make([]string, len(options.seed))
			copy(words, options.seed)
		} else {
			c.logger.WarnContext(ctx, "Starting words not found in chain, using random start",
				slog.Any("seed", options.seed),
				slog.Any("error", ErrSeedNotFound),
			)
			key = c.randomState()
			words = c.stateWords(key)
		}
	} else {
		key = c.randomState()
		words = c.stateWords(key)
	}

	c.logger.InfoContext(ctx, "Generating text",
		slog.Int("length", options.length),
		slog.String("start_state", key),
	)

	// A seed longer than the target keeps only its first length words.
	if len(words) > options.length {
		words = words[:options.length]
	}
	return words, nil
}

// next samples a successor for the state formed by the last Order words.
func (c *Chain) next(words []string) (string, bool) {
	if len(words) < c.order {
		return "", false
	}
	choices := c.table[c.tail(words).String()]
	if len(choices) == 0 {
		return "", false
	}
	return choices[c.rng.IntN(len(choices))], true
}

// tail returns the last Order words as a State.
func (c *Chain) tail(words []string) State {
	return State(words[len(words)-c.order:])
}

// stateWords returns a fresh slice holding the words of key.
func (c *Chain) stateWords(key string) []string {
	return splitState(key)
}
