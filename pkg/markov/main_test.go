package markov

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// seqRand replays a fixed sequence of IntN results, wrapping modulo n.
type seqRand struct {
	values []int
	pos    int
}

func (s *seqRand) IntN(n int) int {
	v := s.values[s.pos%len(s.values)]
	s.pos++
	return v % n
}

// newTestChain creates a chain of the given order with a seeded random source
// and ingests corpus into it, if corpus is not empty.
func newTestChain(t *testing.T, order int, corpus string) *Chain {
	t.Helper()
	c, err := New(order, WithRand(rand.New(rand.NewPCG(1, 2))))
	if err != nil {
		t.Fatalf("New(%d) error = %v", order, err)
	}
	if corpus != "" {
		if _, err = c.Ingest(corpus); err != nil {
			t.Fatalf("setup: Ingest(%q) failed: %v", corpus, err)
		}
	}
	return c
}

// writeTestFile writes content to a file in a temporary directory and returns its path.
func writeTestFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// benchmarkVocabulary is the word pool benchmarkCorpus draws from. Some words
// carry punctuation the normalizer keeps.
var benchmarkVocabulary = strings.Fields(`
	the a an one two cat dog fox bird fish tree river stone road house night
	day quick lazy brown red blue old new small big runs jumps sleeps sees
	finds walks over under near past into from with and but or then again
	here there now never always. yes! no? well, maybe; so: "quoted" it's
	twenty-one`)

// benchmarkCorpus returns n words drawn from benchmarkVocabulary by a fixed
// seed, so every call with the same n yields the same text.
func benchmarkCorpus(n int) string {
	r := rand.New(rand.NewPCG(42, 7))
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(benchmarkVocabulary[r.IntN(len(benchmarkVocabulary))])
	}
	return sb.String()
}
