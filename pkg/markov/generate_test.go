package markov

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
)

func TestGenerateEmptyChain(t *testing.T) {
	c := newTestChain(t, 2, "")
	ctx := context.Background()

	output, err := c.Generate(ctx, WithLength(10))
	if !errors.Is(err, ErrModelNotBuilt) {
		t.Fatalf("expected ErrModelNotBuilt, got %v", err)
	}
	if output != "" {
		t.Errorf("expected empty output, got %q", output)
	}

	if _, err = c.Generate(ctx, WithSeed("a", "b")); !errors.Is(err, ErrModelNotBuilt) {
		t.Errorf("expected ErrModelNotBuilt with a seed, got %v", err)
	}
	if _, err = c.GenerateStream(ctx); !errors.Is(err, ErrModelNotBuilt) {
		t.Errorf("expected ErrModelNotBuilt from GenerateStream, got %v", err)
	}
}

func TestGenerateInvalidLength(t *testing.T) {
	c := newTestChain(t, 1, "a b c")
	for _, n := range []int{0, -5} {
		if _, err := c.Generate(context.Background(), WithLength(n)); !errors.Is(err, ErrInvalidLength) {
			t.Errorf("WithLength(%d): expected ErrInvalidLength, got %v", n, err)
		}
	}
}

func TestGenerateFrom(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name     string
		order    int
		corpus   string
		seed     []string
		length   int
		expected []string // any of
	}{
		{
			name:     "Seed state with two successors",
			order:    2,
			corpus:   "a b c a b d",
			seed:     []string{"a", "b"},
			length:   3,
			expected: []string{"a b c", "a b d"},
		},
		{
			name:     "Whole seed starts the output",
			order:    1,
			corpus:   "x y z",
			seed:     []string{"hello", "x"},
			length:   4,
			expected: []string{"hello x y z"},
		},
		{
			name:     "Dead end stops early",
			order:    1,
			corpus:   "x y",
			seed:     []string{"x"},
			length:   5,
			expected: []string{"x y"},
		},
		{
			name:     "Seed longer than length is truncated",
			order:    1,
			corpus:   "the cat the dog the cat",
			seed:     []string{"the", "cat", "the", "dog"},
			length:   2,
			expected: []string{"the cat"},
		},
		{
			name:     "Seed equal to length",
			order:    2,
			corpus:   "a b c a b d",
			seed:     []string{"a", "b"},
			length:   2,
			expected: []string{"a b"},
		},
		{
			name:     "Seed shorter than order starts randomly",
			order:    2,
			corpus:   "p q r",
			seed:     []string{"q"},
			length:   3,
			expected: []string{"p q r"},
		},
		{
			name:     "Unknown seed falls back to a random state",
			order:    2,
			corpus:   "p q r",
			seed:     []string{"zz", "yy"},
			length:   5,
			expected: []string{"p q r"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestChain(t, tc.order, tc.corpus)
			output, err := c.Generate(ctx, WithLength(tc.length), WithSeed(tc.seed...))
			if err != nil {
				t.Fatalf("got unexpected error: %v", err)
			}
			for _, want := range tc.expected {
				if output == want {
					return
				}
			}
			t.Errorf("Generate() = %q, want one of %q", output, tc.expected)
		})
	}
}

func TestGenerateSeedNotFoundDropsSeed(t *testing.T) {
	c, err := New(1, WithRand(&seqRand{values: []int{2, 0}}))
	if err != nil {
		t.Fatal(err)
	}
	if _, err = c.Ingest("a b c d"); err != nil {
		t.Fatal(err)
	}

	// States in first-seen order are a, b, c; index 2 picks "c".
	output, err := c.Generate(context.Background(), WithLength(10), WithSeed("nope"))
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	if output != "c d" {
		t.Errorf("expected fallback output %q, got %q", "c d", output)
	}
}

func TestGenerateNeverExceedsLength(t *testing.T) {
	ctx := context.Background()
	corpus := "one fish two fish red fish blue fish. this one has a little star, this one has a little car."

	for order := 1; order <= 3; order++ {
		c := newTestChain(t, order, corpus)
		for length := 1; length <= 40; length++ {
			words, err := c.GenerateWords(ctx, WithLength(length))
			if err != nil {
				t.Fatalf("order %d length %d: %v", order, length, err)
			}
			if len(words) > length {
				t.Fatalf("order %d: generated %d words for length %d", order, len(words), length)
			}
			if len(words) < length {
				// Only a state without successors may end generation early.
				if len(words) >= order && len(c.Successors(State(words[len(words)-order:]))) != 0 {
					t.Fatalf("order %d: stopped at %d/%d words on a state with successors", order, len(words), length)
				}
			}
		}
	}

	// Every state of a cyclic corpus has a successor, so the length is always reached.
	c := newTestChain(t, 1, "the cat the dog the cat")
	for i := 0; i < 50; i++ {
		words, err := c.GenerateWords(ctx, WithLength(25))
		if err != nil {
			t.Fatal(err)
		}
		if len(words) != 25 {
			t.Fatalf("expected exactly 25 words, got %d: %q", len(words), words)
		}
	}
}

func TestGenerateHugeLength(t *testing.T) {
	ctx := context.Background()
	c := newTestChain(t, 1, "x y")

	for _, length := range []int{math.MaxInt, math.MaxInt32, 1 << 30} {
		output, err := c.Generate(ctx, WithLength(length), WithSeed("x"))
		if err != nil {
			t.Fatalf("WithLength(%d): %v", length, err)
		}
		if output != "x y" {
			t.Errorf("WithLength(%d) = %q, want %q", length, output, "x y")
		}

		words, err := c.GenerateWords(ctx, WithLength(length))
		if err != nil {
			t.Fatalf("WithLength(%d) without seed: %v", length, err)
		}
		if len(words) > 2 {
			t.Errorf("WithLength(%d) without seed = %q, want at most 2 words", length, words)
		}
	}
}

func TestGenerateConcurrentWithSeededSource(t *testing.T) {
	c := newTestChain(t, 1, "the cat the dog the cat sat on the mat")
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if _, err := c.Generate(ctx, WithLength(12)); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Generate() failed: %v", err)
	}
}

func TestGenerateSuccessorFrequency(t *testing.T) {
	ctx := context.Background()
	c := newTestChain(t, 1, "the cat the dog the cat")

	const trials = 3000
	counts := make(map[string]int)
	for i := 0; i < trials; i++ {
		words, err := c.GenerateWords(ctx, WithLength(4), WithSeed("the"))
		if err != nil {
			t.Fatal(err)
		}
		if words[0] != "the" || len(words) != 4 {
			t.Fatalf("unexpected output %q", words)
		}
		counts[words[1]]++
	}

	if len(counts) != 2 {
		t.Fatalf("expected only cat and dog after the, got %v", counts)
	}
	pCat := float64(counts["cat"]) / trials
	if pCat < 0.62 || pCat > 0.71 {
		t.Errorf("P(cat | the) = %.3f, want about 2/3", pCat)
	}
}

func TestGenerateDeterministicWithSeededSource(t *testing.T) {
	ctx := context.Background()
	corpus := benchmarkCorpus(20000)

	generate := func() string {
		c, err := New(2, WithRand(rand.New(rand.NewPCG(7, 11))))
		if err != nil {
			t.Fatal(err)
		}
		if _, err = c.Ingest(corpus); err != nil {
			t.Fatal(err)
		}
		out, err := c.Generate(ctx, WithLength(60))
		if err != nil {
			t.Fatal(err)
		}
		return out
	}

	first, second := generate(), generate()
	if first != second {
		t.Errorf("expected identical output for identical seeds:\n%q\n%q", first, second)
	}
}

func TestGenerateDoesNotMutate(t *testing.T) {
	c := newTestChain(t, 2, "a b c a b d")
	before := c.Table()
	seed := []string{"a", "b"}

	for i := 0; i < 20; i++ {
		if _, err := c.Generate(context.Background(), WithLength(10), WithSeed(seed...)); err != nil {
			t.Fatal(err)
		}
	}
	if after := c.Table(); len(after) != len(before) || strings.Join(after["a b"], ",") != "c,d" {
		t.Errorf("generation modified the table: %v -> %v", before, after)
	}
	if seed[0] != "a" || seed[1] != "b" {
		t.Errorf("generation modified the seed slice: %v", seed)
	}
}

func TestGenerateCancelled(t *testing.T) {
	c := newTestChain(t, 1, "the cat the dog the cat")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Generate(ctx, WithLength(100)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func BenchmarkGenerate(b *testing.B) {
	corpus := benchmarkCorpus(20000)
	ctx := context.Background()

	c, err := New(2)
	if err != nil {
		b.Fatal(err)
	}
	if _, err = c.Ingest(corpus); err != nil {
		b.Fatalf("Ingest() setup for benchmark failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s, err := c.Generate(ctx, WithLength(50))
		b.SetBytes(int64(len(s)))
		if err != nil {
			b.Fatalf("Generate() failed: %v", err)
		}
	}
}
