package markov

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ExportedChain is the serializable representation of a chain, used for
// JSON-based import and export.
type ExportedChain struct {
	Order  int             `json:"order"`
	States []ExportedState `json:"states"`
}

// ExportedState is one state and its successor list within an ExportedChain.
type ExportedState struct {
	State      []string `json:"state"`
	Successors []string `json:"successors"`
}

// Snapshot returns the serializable form of the chain, states in first-seen order.
func (c *Chain) Snapshot() ExportedChain {
	exported := ExportedChain{
		Order:  c.order,
		States: make([]ExportedState, 0, len(c.states)),
	}
	for _, key := range c.states {
		next := make([]string, len(c.table[key]))
		copy(next, c.table[key])
		exported.States = append(exported.States, ExportedState{
			State:      splitState(key),
			Successors: next,
		})
	}
	return exported
}

// Export serializes the chain as indented JSON and writes it to w.
func (c *Chain) Export(w io.Writer) error {
	exported := c.Snapshot()

	c.logger.Info("Chain exported",
		slog.Int("order", c.order),
		slog.Int("states_exported", len(exported.States)),
	)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exported)
}

// FromSnapshot rebuilds a chain from its serializable form. Every state must
// have exactly Order words and at least one successor.
func FromSnapshot(exported ExportedChain, opts ...Option) (*Chain, error) {
	c, err := New(exported.Order, opts...)
	if err != nil {
		return nil, err
	}
	for i, s := range exported.States {
		if len(s.State) != c.order {
			return nil, fmt.Errorf("state %d has %d words, want %d", i, len(s.State), c.order)
		}
		if len(s.Successors) == 0 {
			return nil, fmt.Errorf("state %d (%q) has no successors", i, State(s.State).String())
		}
		for _, word := range s.State {
			if !validWord(word) {
				return nil, fmt.Errorf("state %d has invalid word %q", i, word)
			}
		}
		key := State(s.State).String()
		for _, next := range s.Successors {
			c.add(key, next)
		}
	}
	return c, nil
}

// Import reads a JSON chain written by Export from r and rebuilds it.
func Import(r io.Reader, opts ...Option) (*Chain, error) {
	var exported ExportedChain
	if err := json.NewDecoder(r).Decode(&exported); err != nil {
		return nil, fmt.Errorf("failed to decode json chain: %w", err)
	}

	c, err := FromSnapshot(exported, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to import chain: %w", err)
	}

	c.logger.Info("Chain imported",
		slog.Int("order", c.order),
		slog.Int("states_imported", len(c.states)),
	)
	return c, nil
}

// Merge appends every successor list of other to this chain, as if other's
// corpora had been ingested here too. Both chains must have the same order.
func (c *Chain) Merge(other *Chain) error {
	if other.order != c.order {
		return fmt.Errorf("%w: %d and %d", ErrOrderMismatch, c.order, other.order)
	}
	for _, key := range other.states {
		for _, next := range other.table[key] {
			c.add(key, next)
		}
	}

	c.logger.Info("Chains merged",
		slog.Int("states_merged", len(other.states)),
		slog.Int("states", len(c.states)),
	)
	return nil
}

// validWord reports whether word could have come out of Words.
func validWord(word string) bool {
	return word != "" && !strings.ContainsFunc(word, isSpace)
}
