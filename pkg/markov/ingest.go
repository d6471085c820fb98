package markov

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"unicode/utf8"
)

// Ingest normalizes text and records every state -> next-word transition in
// it, returning the number of transitions added. Text with no more words
// than the chain order yields no transition; the chain is then left
// unchanged and ErrInputTooShort is returned. Use Table, Successors or
// States to inspect the result.
func (c *Chain) Ingest(text string) (int, error) {
	words := Words(text)

	if len(words) <= c.order {
		c.logger.Warn("Text too short to build chain with current order",
			slog.Int("order", c.order),
			slog.Int("words", len(words)),
		)
		return 0, fmt.Errorf("%w: %d words for order %d", ErrInputTooShort, len(words), c.order)
	}

	c.logger.Info("Building markov chain", slog.Int("words", len(words)))

	added := len(words) - c.order
	for i := 0; i < added; i++ {
		key := State(words[i : i+c.order]).String()
		c.add(key, words[i+c.order])
	}

	c.logger.Info("Built markov chain",
		slog.Int("states", len(c.states)),
		slog.Int("transitions_added", added),
	)
	return added, nil
}

// IngestReader reads r to the end and ingests its content. Read errors and
// content that is not valid UTF-8 are reported as ErrSourceUnavailable and
// leave the chain unchanged.
func (c *Chain) IngestReader(r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		c.logger.Error("Error reading text", slog.Any("error", err))
		return 0, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	if !utf8.Valid(data) {
		c.logger.Error("Error decoding text", slog.String("reason", "invalid utf-8"))
		return 0, fmt.Errorf("%w: invalid utf-8", ErrSourceUnavailable)
	}
	return c.Ingest(string(data))
}

// IngestFile ingests the UTF-8 text file at path. A missing, unreadable or
// undecodable file is reported as ErrSourceUnavailable and leaves the chain
// unchanged; use errors.Is to tell it apart from ErrInputTooShort.
func (c *Chain) IngestFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		c.logger.Error("Error loading file", slog.String("path", path), slog.Any("error", err))
		return 0, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	c.logger.Debug("Loading text", slog.String("path", path))
	added, err := c.IngestReader(f)
	if err != nil {
		return added, fmt.Errorf("%s: %w", path, err)
	}
	return added, nil
}
