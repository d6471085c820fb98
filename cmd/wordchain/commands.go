package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/CTAG07/wordchain/pkg/markov"
	"github.com/CTAG07/wordchain/pkg/store"
)

func newGenerateCmd(a *app) *cobra.Command {
	src := &sourceOptions{}
	var length int
	var start string
	var save bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate text using a Markov chain",
		Example: `  wordchain generate --file corpus.txt --order 2 --length 40
  wordchain generate --text "the cat the dog the cat" --order 1 --start the
  wordchain generate --sample adventure --db chains.db --name adventure --save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			h, err := a.buildChain(ctx, cmd, src)
			if err != nil {
				return err
			}
			defer h.close()

			if !cmd.Flags().Changed("length") {
				length = a.config.Chain.Length
			}

			text, err := h.chain.Generate(ctx, markov.WithLength(length), markov.WithSeed(parseStart(start)...))
			if errors.Is(err, markov.ErrModelNotBuilt) {
				fmt.Fprintln(a.out, markov.ModelNotBuiltMessage)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, text)

			if save {
				if h.store == nil {
					return errors.New("--save needs a database (--db or database_path in the config)")
				}
				return h.store.Save(ctx, h.name, h.chain)
			}
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().IntVar(&length, "length", markov.DefaultLength, "Length of generated text in words (overrides the config)")
	cmd.Flags().StringVar(&start, "start", "", "Starting words (comma separated)")
	cmd.Flags().BoolVar(&save, "save", false, "Save the chain back to the database after ingesting")
	return cmd
}

func newAnalyzeCmd(a *app) *cobra.Command {
	src := &sourceOptions{}
	var top, sampleLength int

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Print statistics and the most frequent transitions of a chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			h, err := a.buildChain(ctx, cmd, src)
			if err != nil {
				return err
			}
			defer h.close()

			stats := h.chain.Stats()
			fmt.Fprintln(a.out, "Chain Statistics:")
			fmt.Fprintf(a.out, "- Order: %d\n", stats.Order)
			fmt.Fprintf(a.out, "- Total number of states: %d\n", stats.States)
			fmt.Fprintf(a.out, "- Total transitions: %d\n", stats.Transitions)
			fmt.Fprintf(a.out, "- Vocabulary size: %d unique words\n", stats.Vocabulary)
			fmt.Fprintf(a.out, "- Average transitions per state: %.2f\n", stats.AvgTransitionsPerState)

			transitions := h.chain.TopTransitions(top)
			if len(transitions) == 0 {
				return nil
			}
			fmt.Fprintln(a.out, "\nTop Transitions:")
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TRANSITION\tCOUNT")
			for _, tr := range transitions {
				fmt.Fprintf(tw, "'%s' -> '%s'\t%d\n", tr.State, tr.Next, tr.Count)
			}
			if err = tw.Flush(); err != nil {
				return err
			}

			sample, err := h.chain.Generate(ctx, markov.WithLength(sampleLength))
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "\nSample generation:\n%s\n", sample)
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().IntVar(&top, "top", 10, "Number of transitions to list")
	cmd.Flags().IntVar(&sampleLength, "sample-length", 30, "Length of the sample generation in words")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	src := &sourceOptions{}
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a chain as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.buildChain(cmd.Context(), cmd, src)
			if err != nil {
				return err
			}
			defer h.close()

			if out == "" || out == "-" {
				return h.chain.Export(a.out)
			}
			var buf bytes.Buffer
			if err = h.chain.Export(&buf); err != nil {
				return err
			}
			if err = atomic.WriteFile(out, &buf); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			a.logger.Info("Chain written", "path", out, "states", h.chain.Len())
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var in, dbPath, name string
	var merge bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Store a JSON chain written by export in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if dbPath == "" {
				dbPath = a.config.Chain.DatabasePath
			}
			if dbPath == "" {
				return errors.New("import needs a database (--db or database_path in the config)")
			}
			if name == "" {
				name = a.config.Chain.ChainName
			}

			f, err := os.Open(in)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", in, err)
			}
			defer func(f *os.File) {
				_ = f.Close()
			}(f)

			imported, err := markov.Import(f, markov.WithLogger(a.logger))
			if err != nil {
				return err
			}

			st, closeStore, err := a.openStore(dbPath)
			if err != nil {
				return err
			}
			defer closeStore()

			if merge {
				existing, err := st.Load(ctx, name, markov.WithLogger(a.logger))
				switch {
				case errors.Is(err, store.ErrChainNotFound):
				case err != nil:
					return err
				default:
					if err = existing.Merge(imported); err != nil {
						return err
					}
					imported = existing
				}
			}
			return st.Save(ctx, name, imported)
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "", "JSON file written by export")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database (overrides the config)")
	cmd.Flags().StringVar(&name, "name", "", "Name to store the chain under (overrides the config)")
	cmd.Flags().BoolVar(&merge, "merge", false, "Append to the stored chain of the same name instead of replacing it")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}
