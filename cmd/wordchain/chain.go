package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CTAG07/wordchain/pkg/markov"
	"github.com/CTAG07/wordchain/pkg/store"
)

// sourceOptions are the flags every command that builds a chain accepts.
type sourceOptions struct {
	file   string
	text   string
	sample string
	order  int
	seed   uint64
	db     string
	name   string
}

func (s *sourceOptions) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&s.file, "file", "", "Input text file")
	flags.StringVar(&s.text, "text", "", "Input text directly")
	flags.StringVar(&s.sample, "sample", "", fmt.Sprintf("Built-in sample corpus (%s)", strings.Join(sampleNames(), ", ")))
	flags.IntVar(&s.order, "order", 2, "Markov chain order (overrides the config)")
	flags.Uint64Var(&s.seed, "seed", 0, "Random seed for reproducible output (0 = random)")
	flags.StringVar(&s.db, "db", "", "SQLite database to load the chain from (overrides the config)")
	flags.StringVar(&s.name, "name", "", "Name of the chain in the database (overrides the config)")
}

// chainHandle is a chain plus the store it came from, if any.
type chainHandle struct {
	chain *markov.Chain
	store *store.Store
	name  string
	close func()
}

// openStore opens and prepares the database at path.
func (a *app) openStore(path string) (*store.Store, func(), error) {
	db, err := store.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = store.SetupSchema(db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to set up schema: %w", err)
	}
	st, err := store.New(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to prepare store: %w", err)
	}
	st.SetLogger(a.logger)
	return st, func() {
		st.Close()
		if err := db.Close(); err != nil {
			a.logger.Error("Failed to close database", "error", err)
		}
	}, nil
}

// buildChain loads the configured chain from the database, or creates an
// empty one, then ingests the requested source into it. Ingestion problems
// are logged by the chain and do not stop the command.
func (a *app) buildChain(ctx context.Context, cmd *cobra.Command, src *sourceOptions) (*chainHandle, error) {
	order := a.config.Chain.Order
	if cmd.Flags().Changed("order") {
		order = src.order
	}
	dbPath := a.config.Chain.DatabasePath
	if src.db != "" {
		dbPath = src.db
	}
	name := a.config.Chain.ChainName
	if src.name != "" {
		name = src.name
	}

	opts := []markov.Option{markov.WithLogger(a.logger)}
	if src.seed != 0 {
		opts = append(opts, markov.WithRand(rand.New(rand.NewPCG(src.seed, src.seed))))
	}

	h := &chainHandle{name: name, close: func() {}}

	if dbPath != "" {
		st, closeStore, err := a.openStore(dbPath)
		if err != nil {
			return nil, err
		}
		h.store, h.close = st, closeStore

		h.chain, err = st.Load(ctx, name, opts...)
		if err != nil && !errors.Is(err, store.ErrChainNotFound) {
			h.close()
			return nil, err
		}
		if h.chain != nil && cmd.Flags().Changed("order") && h.chain.Order() != order {
			a.logger.Warn("Stored chain has a different order, keeping the stored one",
				slog.String("chain_name", name),
				slog.Int("stored_order", h.chain.Order()),
				slog.Int("requested_order", order),
			)
		}
	}

	if h.chain == nil {
		chain, err := markov.New(order, opts...)
		if err != nil {
			h.close()
			return nil, err
		}
		h.chain = chain
	}

	if err := ingestSource(h.chain, src); err != nil {
		h.close()
		return nil, err
	}
	return h, nil
}

// ingestSource feeds the selected input to chain. Only an unknown sample
// name is an error; too-short and unavailable input leave the chain as is.
func ingestSource(chain *markov.Chain, src *sourceOptions) error {
	switch {
	case src.file != "":
		_, _ = chain.IngestFile(src.file)
	case src.text != "":
		_, _ = chain.Ingest(src.text)
	case src.sample != "":
		text, ok := samples[src.sample]
		if !ok {
			return fmt.Errorf("unknown sample %q, want one of: %s", src.sample, strings.Join(sampleNames(), ", "))
		}
		_, _ = chain.Ingest(text)
	case chain.Empty():
		_, _ = chain.Ingest(defaultSample)
	}
	return nil
}

// parseStart turns comma separated starting words into seed words. Each
// piece is normalized the same way the corpus is, so "The cat" and "the,cat"
// both seed with [the cat].
func parseStart(start string) []string {
	if start == "" {
		return nil
	}
	var words []string
	for _, piece := range strings.Split(start, ",") {
		words = append(words, markov.Words(piece)...)
	}
	return words
}
