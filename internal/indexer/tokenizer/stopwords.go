package tokenizer

// DefaultStopwords returns a common English stopword set.
// Callers get a fresh map and may extend it.
func DefaultStopwords() map[string]struct{} {
	ws := []string{
		"a", "an", "the", "and", "or", "but",
		"to", "in", "of", "on", "for", "with", "as", "at", "by", "from",
		"is", "are", "was", "were", "be", "been", "being",
		"this", "that", "these", "those", "it", "its", "itself",
		"i", "me", "my", "we", "our", "you", "your",
		"he", "him", "his", "she", "her", "they", "them", "their",
		"do", "does", "did", "have", "has", "had",
		"not", "no", "nor", "so", "can", "could", "should", "would", "will",
		"if", "then", "than", "when", "where", "which", "who", "what",
		"each", "into", "about", "there", "here",
	}
	m := make(map[string]struct{}, len(ws))
	for _, w := range ws {
		m[w] = struct{}{}
	}
	return m
}

// StopwordSet builds a set from a list, as loaded from configuration.
func StopwordSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
