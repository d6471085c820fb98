/*
Package markov builds fixed-order word Markov chains from text and uses them
to generate new text.

A Chain records, for every run of Order consecutive words (a State), the list
of words observed immediately after it. Successor lists keep duplicates, so a
word seen three times after a state is three times as likely to be sampled as
a word seen once. Generation starts from a seed or a random state and keeps
sampling uniformly from the current state's successor list, sliding the state
window forward, until the requested length is reached or a state has no
recorded successors.

A Chain is not safe for concurrent mutation. Callers that share one between
goroutines must serialize Ingest calls. Generations may run concurrently as
long as no ingestion runs at the same time; the random source, including one
set with WithRand, is only ever used under a lock.
*/
package markov
