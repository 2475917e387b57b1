package speech

import (
	"bytes"
	"encoding/json"
	"fmt"

	domspeech "github.com/kailas-cloud/speechagg/internal/domain/speech"
)

// speechDoc is the stored JSON shape of a speech.
type speechDoc struct {
	ID       string      `json:"id"`
	LegacyID flexString  `json:"_id"`
	Speaker  string      `json:"speaker"`
	Party    string      `json:"party"`
	Protocol protocolDoc `json:"protocol"`
	Text     string      `json:"text"`

	FlatTopics []topicDoc `json:"nlpResults.topics"`
	NLP        *nlpDoc    `json:"nlpResults"`
}

type protocolDoc struct {
	Index flexString `json:"index"`
	Title string     `json:"title"`
	Date  flexString `json:"date"`
	Place string     `json:"place"`
}

type nlpDoc struct {
	Topics        []topicDoc  `json:"topics"`
	NamedEntities []entityDoc `json:"namedEntities"`
	Tokens        []tokenDoc  `json:"tokens"`
	Sentiment     []any       `json:"sentiment"`
}

type topicDoc struct {
	Value string `json:"value"`
	Score any    `json:"score"`
}

type entityDoc struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Begin int    `json:"begin"`
	End   int    `json:"end"`
}

type tokenDoc struct {
	Text string  `json:"text"`
	POS  *string `json:"pos"`
}

// flexString accepts a JSON string, a number or an extended-JSON {"$oid": ...} object.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '{':
		var oid struct {
			OID string `json:"$oid"`
		}
		if err := json.Unmarshal(data, &oid); err != nil {
			return fmt.Errorf("decode object id: %w", err)
		}
		*f = flexString(oid.OID)
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode string: %w", err)
		}
		*f = flexString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("decode number: %w", err)
		}
		*f = flexString(n.String())
	}
	return nil
}

// decodeSpeech parses one stored document. id is the key suffix it was loaded from.
func decodeSpeech(id string, raw []byte) (domspeech.Speech, error) {
	var doc speechDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domspeech.Speech{}, fmt.Errorf("unmarshal speech %s: %w", id, err)
	}
	return doc.toDomain(id), nil
}

// decodeSpeechPath parses a JSON.GET/JSON.MGET "$" reply, which wraps the document in an array.
func decodeSpeechPath(id string, raw []byte) (domspeech.Speech, bool, error) {
	var docs []json.RawMessage
	if err := json.Unmarshal(raw, &docs); err != nil {
		return domspeech.Speech{}, false, fmt.Errorf("unmarshal speech %s: %w", id, err)
	}
	if len(docs) == 0 {
		return domspeech.Speech{}, false, nil
	}
	s, err := decodeSpeech(id, docs[0])
	if err != nil {
		return domspeech.Speech{}, false, err
	}
	return s, true, nil
}

func (d *speechDoc) toDomain(keyID string) domspeech.Speech {
	docID := d.ID
	if docID == "" {
		docID = string(d.LegacyID)
	}

	s := domspeech.Speech{
		ID:      keyID,
		DocID:   docID,
		Speaker: d.Speaker,
		Party:   d.Party,
		Protocol: domspeech.Protocol{
			Index: string(d.Protocol.Index),
			Title: d.Protocol.Title,
			Date:  string(d.Protocol.Date),
			Place: d.Protocol.Place,
		},
		Text:       d.Text,
		FlatTopics: toTopics(d.FlatTopics),
	}
	if d.NLP == nil {
		return s
	}

	nlp := &domspeech.Annotations{
		Topics:    toTopics(d.NLP.Topics),
		Entities:  make([]domspeech.NamedEntity, 0, len(d.NLP.NamedEntities)),
		Tokens:    make([]domspeech.Token, 0, len(d.NLP.Tokens)),
		Sentiment: make([]any, 0, len(d.NLP.Sentiment)),
	}
	for _, e := range d.NLP.NamedEntities {
		nlp.Entities = append(nlp.Entities, domspeech.NamedEntity{Type: e.Type, Text: e.Text, Begin: e.Begin, End: e.End})
	}
	for _, t := range d.NLP.Tokens {
		nlp.Tokens = append(nlp.Tokens, domspeech.Token{Text: t.Text, POS: t.POS})
	}
	for _, v := range d.NLP.Sentiment {
		nlp.Sentiment = append(nlp.Sentiment, sentimentValue(v))
	}
	s.NLP = nlp
	return s
}

func toTopics(in []topicDoc) []domspeech.Topic {
	if in == nil {
		return nil
	}
	out := make([]domspeech.Topic, 0, len(in))
	for _, t := range in {
		out = append(out, domspeech.Topic{Label: t.Value, RawScore: t.Score})
	}
	return out
}

// sentimentValue unwraps {"sentiment": x} elements; bare values pass through.
func sentimentValue(v any) any {
	if m, ok := v.(map[string]any); ok {
		return m["sentiment"]
	}
	return v
}
