package speech

import "testing"

func TestDecodeSpeech_FullDocument(t *testing.T) {
	raw := `{
		"_id": "ID201100100",
		"speaker": "Anna Muster",
		"party": "X",
		"protocol": {"index": 11, "title": "Plenarprotokoll 20/11", "date": "2022-01-12", "place": "Berlin"},
		"text": "Sehr geehrte ...",
		"nlpResults": {
			"topics": [{"value": "Haushalt", "score": "0.42"}, {"value": "Bildung", "score": 0.3}],
			"namedEntities": [{"type": "PER", "text": "Merkel", "begin": 3, "end": 9}],
			"tokens": [{"text": "Haus", "pos": "NN"}, {"text": ",", "pos": null}],
			"sentiment": [{"sentiment": 0.1}, {"sentiment": -0.07}, 0.07]
		}
	}`

	s, err := decodeSpeech("k7", []byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ID != "k7" || s.DocID != "ID201100100" {
		t.Errorf("ID = %q, DocID = %q", s.ID, s.DocID)
	}
	if s.Protocol.Index != "11" || s.Protocol.Place != "Berlin" {
		t.Errorf("Protocol = %+v", s.Protocol)
	}
	if !s.Analysed() {
		t.Fatal("expected annotations")
	}
	topics := s.TopicAnnotations()
	if len(topics) != 2 || topics[0].RawScore != "0.42" || topics[1].RawScore != 0.3 {
		t.Errorf("topics = %+v", topics)
	}
	if e := s.Entities(); len(e) != 1 || e[0].Begin != 3 || e[0].Type != "PER" {
		t.Errorf("entities = %+v", e)
	}
	if tok := s.Tokens(); len(tok) != 2 || tok[1].POS != nil || *tok[0].POS != "NN" {
		t.Errorf("tokens = %+v", tok)
	}
	sent := s.NLP.Sentiment
	if len(sent) != 3 || sent[0] != 0.1 || sent[1] != -0.07 || sent[2] != 0.07 {
		t.Errorf("sentiment = %v", sent)
	}
}

func TestDecodeSpeech_FlatTopicsAndObjectID(t *testing.T) {
	raw := `{"_id": {"$oid": "65a1"}, "nlpResults.topics": [{"value": "Flat", "score": 0.5}]}`

	s, err := decodeSpeech("k1", []byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ID != "k1" || s.DocID != "65a1" {
		t.Errorf("ID = %q, DocID = %q", s.ID, s.DocID)
	}
	if s.Analysed() {
		t.Error("flat topics alone do not make an annotation bundle")
	}
	if len(s.FlatTopics) != 1 || s.FlatTopics[0].Label != "Flat" {
		t.Errorf("FlatTopics = %+v", s.FlatTopics)
	}
	if got := s.TopicAnnotations(); got != nil {
		t.Errorf("TopicAnnotations() = %+v, want nil without a bundle", got)
	}
}

func TestDecodeSpeech_MissingNLP(t *testing.T) {
	s, err := decodeSpeech("k1", []byte(`{"speaker": "Anna"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ID != "k1" || s.DocID != "" || s.Analysed() || s.TopicAnnotations() != nil {
		t.Errorf("unexpected speech: %+v", s)
	}
}

func TestDecodeSpeechPath(t *testing.T) {
	if _, ok, err := decodeSpeechPath("x", []byte(`[]`)); ok || err != nil {
		t.Errorf("empty reply: ok=%v err=%v", ok, err)
	}
	if _, _, err := decodeSpeechPath("x", []byte(`{`)); err == nil {
		t.Error("expected error for malformed reply")
	}
	s, ok, err := decodeSpeechPath("x", docJSON(`{"speaker":"A"}`))
	if !ok || err != nil || s.Speaker != "A" {
		t.Errorf("got %+v ok=%v err=%v", s, ok, err)
	}
}
