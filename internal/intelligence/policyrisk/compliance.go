package policyrisk

// CheckCompliance returns the message of every clause whose trigger does not
// occur in text, in lexicon order.  An empty result means every trigger was
// found; it says nothing about legal adequacy.
func (e *Engine) CheckCompliance(text string) []string {
	lt := lower(text)
	missing := []string{}
	for _, c := range e.lex.Clauses {
		if !e.match.Contains(lt, c.Trigger) {
			missing = append(missing, c.Message)
		}
	}
	return missing
}
