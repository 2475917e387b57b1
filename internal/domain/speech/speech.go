// Package speech models annotated parliamentary speech records as read from the corpus.
package speech

// Protocol identifies the sitting a speech was given in.
type Protocol struct {
	Index string
	Title string
	Date  string
	Place string
}

// Topic is one topic label with its score exactly as the annotator emitted it.
// RawScore is typically a float64 or a numeric string; any other shape is kept for diagnostics.
type Topic struct {
	Label    string
	RawScore any
}

// NamedEntity is one recognised entity mention.
type NamedEntity struct {
	Type  string
	Text  string
	Begin int
	End   int
}

// Token is one tagged token. POS is nil when the tagger produced no tag.
type Token struct {
	Text string
	POS  *string
}

// Annotations is the NLP bundle attached to an analysed speech.
// Sentiment[0] is the whole-speech aggregate; the rest are per-sentence scores.
type Annotations struct {
	Topics    []Topic
	Entities  []NamedEntity
	Tokens    []Token
	Sentiment []any
}

// Speech is a read-only speech record.
type Speech struct {
	ID       string // store key suffix, resolved by ID filters
	DocID    string // identifier carried inside the document, if any
	Speaker  string
	Party    string
	Protocol Protocol
	Text     string

	// FlatTopics holds a top-level "nlpResults.topics" array when the importer wrote one.
	FlatTopics []Topic
	// NLP is nil for speeches that have not been analysed yet.
	NLP *Annotations
}

// Analysed reports whether the speech carries an annotation bundle.
func (s *Speech) Analysed() bool { return s.NLP != nil }

// TopicAnnotations returns the topic annotations, preferring the flat path over the nested bundle.
// A speech without a bundle is not analysed and yields none, even when a flat path is present.
func (s *Speech) TopicAnnotations() []Topic {
	if s.NLP == nil {
		return nil
	}
	if s.FlatTopics != nil {
		return s.FlatTopics
	}
	return s.NLP.Topics
}

// Entities returns the named entities, or nil when the speech is not analysed.
func (s *Speech) Entities() []NamedEntity {
	if s.NLP == nil {
		return nil
	}
	return s.NLP.Entities
}

// Tokens returns the POS-tagged tokens, or nil when the speech is not analysed.
func (s *Speech) Tokens() []Token {
	if s.NLP == nil {
		return nil
	}
	return s.NLP.Tokens
}

// SentenceSentiments returns the per-sentence sentiment values, dropping the leading aggregate.
func (s *Speech) SentenceSentiments() []any {
	if s.NLP == nil || len(s.NLP.Sentiment) < 2 {
		return nil
	}
	return s.NLP.Sentiment[1:]
}
