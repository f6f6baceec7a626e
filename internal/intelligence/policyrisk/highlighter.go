package policyrisk

// HighlightSentences scores every sentence by density, normalizes by the
// highest sentence score in the document and assigns a bucket.  Output keeps
// document order and contains each sentence once.
func (e *Engine) HighlightSentences(text string) []HighlightedSentence {
	sents := e.seg.Segment(text)
	raw := make([]float64, len(sents))
	max := 0.0
	for i, s := range sents {
		raw[i] = e.density(s.Lower)
		if raw[i] > max {
			max = raw[i]
		}
	}
	if max == 0 {
		max = 1
	}

	out := make([]HighlightedSentence, len(sents))
	for i, s := range sents {
		score := raw[i] / max
		out[i] = HighlightedSentence{
			Index:  i,
			Text:   s.Text,
			Score:  score,
			Bucket: bucketFor(score),
		}
	}
	return out
}
