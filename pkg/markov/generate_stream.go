package markov

import (
	"context"
	"log/slog"
)

// GenerateStream generates like GenerateWords but emits each word on the
// returned channel as soon as it is chosen, starting with the initial state
// or seed words. The channel is closed once generation is complete or the
// context is cancelled. Validation errors, including ErrModelNotBuilt, are
// returned before any goroutine is started.
//
// The chain must not be ingested into until the channel is closed.
func (c *Chain) GenerateStream(ctx context.Context, opts ...GenerateOption) (<-chan string, error) {
	options := newGenerateOptions(opts)

	words, err := c.start(ctx, options)
	if err != nil {
		return nil, err
	}

	wordChan := make(chan string)

	go func() {
		defer close(wordChan)

		for _, word := range words {
			select {
			case <-ctx.Done():
				return
			case wordChan <- word:
			}
		}

		for len(words) < options.length {
			next, ok := c.next(words)
			if !ok {
				c.logger.DebugContext(ctx, "Generation stream reached end state",
					slog.Int("generated_length", len(words)),
				)
				return
			}
			words = append(words, next)
			select {
			case <-ctx.Done():
				c.logger.DebugContext(ctx, "Generation stream cancelled by context")
				return
			case wordChan <- next:
			}
		}
	}()

	return wordChan, nil
}
