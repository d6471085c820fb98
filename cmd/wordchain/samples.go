package main

import (
	"sort"
)

// defaultSample is ingested when no file, text or sample is given.
const defaultSample = `This is a simple example of a Markov Chain text generator.
Markov chains are used to model sequences of words based on probabilities.
The order of a Markov chain determines how many previous words are considered.
Higher order chains produce more coherent text but require more data.`

// samples are the named corpora selectable with --sample.
var samples = map[string]string{
	"lorem": "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua. Ut enim ad minim veniam, quis nostrud exercitation ullamco laboris nisi ut aliquip ex ea commodo consequat. Duis aute irure dolor in reprehenderit in voluptate velit esse cillum dolore eu fugiat nulla pariatur. Excepteur sint occaecat cupidatat non proident, sunt in culpa qui officia deserunt mollit anim id est laborum.",
	"adventure": "In the heart of the jungle, a brave explorer embarks on a quest to uncover the lost city of gold. With every step, danger lurks around every corner, but the allure of discovering something extraordinary keeps them moving forward. The path is treacherous, and only the most courageous will survive the wild terrain and unravel the mysteries of the ancient world.",
	"inspirational": "The future belongs to those who believe in the beauty of their dreams. Every challenge faced today is an opportunity to grow stronger, wiser, and more resilient. The road ahead may be uncertain, but with courage and determination, anything is possible. Embrace the journey, for it is through the struggle that greatness is achieved.",
	"technology": "In the rapidly evolving world of technology, innovations are happening at an unprecedented pace. From artificial intelligence to blockchain, new breakthroughs are shaping industries and transforming how we live, work, and interact. As we move into the future, it's essential to embrace these advancements, staying curious and adaptable to the ever-changing landscape of technology.",
	"programming": "Go is a statically typed, compiled programming language. It is known for its readability and simplicity. Functions are first-class values in Go, which means they can be assigned to variables, passed as arguments, and returned from other functions. Composition is supported through struct embedding and interfaces. Go's standard library provides many packages for common tasks.",
	"default": defaultSample,
}

// sampleNames returns the names accepted by --sample, sorted.
func sampleNames() []string {
	names := make([]string, 0, len(samples))
	for name := range samples {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
