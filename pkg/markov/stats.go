package markov

import (
	"sort"
)

// Stats holds aggregated statistics for a chain.
type Stats struct {
	Order                  int     `json:"order"`
	States                 int     `json:"states"`                    // The number of distinct states.
	Transitions            int     `json:"transitions"`               // The sum of all successor list lengths.
	Vocabulary             int     `json:"vocabulary"`                // Distinct words in states and successors.
	AvgTransitionsPerState float64 `json:"avg_transitions_per_state"` // Transitions / States, 0 when empty.
}

// Transition is one distinct state -> next-word link and how often it was seen.
type Transition struct {
	State string `json:"state"`
	Next  string `json:"next"`
	Count int    `json:"count"`
}

// Stats returns a snapshot of statistics for the chain.
func (c *Chain) Stats() Stats {
	vocab := make(map[string]struct{})
	var transitions int
	for _, key := range c.states {
		for _, word := range splitState(key) {
			vocab[word] = struct{}{}
		}
		next := c.table[key]
		for _, word := range next {
			vocab[word] = struct{}{}
		}
		transitions += len(next)
	}

	stats := Stats{
		Order:       c.order,
		States:      len(c.states),
		Transitions: transitions,
		Vocabulary:  len(vocab),
	}
	if stats.States > 0 {
		stats.AvgTransitionsPerState = float64(transitions) / float64(stats.States)
	}
	return stats
}

// TopTransitions returns up to n distinct transitions ordered by how often
// they were seen, most frequent first. Ties are ordered by state, then by
// next word. A non-positive n returns every transition.
func (c *Chain) TopTransitions(n int) []Transition {
	var all []Transition
	for _, key := range c.states {
		counts := make(map[string]int)
		var order []string
		for _, word := range c.table[key] {
			if counts[word] == 0 {
				order = append(order, word)
			}
			counts[word]++
		}
		for _, word := range order {
			all = append(all, Transition{State: key, Next: word, Count: counts[word]})
		}
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].Count != all[j].Count {
			return all[i].Count > all[j].Count
		}
		if all[i].State != all[j].State {
			return all[i].State < all[j].State
		}
		return all[i].Next < all[j].Next
	})

	if n > 0 && n < len(all) {
		all = all[:n]
	}
	return all
}
