package aggregation

// TopicStat ranks one topic label. Count is only set for the topic dimension.
type TopicStat struct {
	Label        string  `json:"_id"`
	AverageScore float64 `json:"averageScore"`
	TotalScore   float64 `json:"totalScore"`
	Count        int     `json:"count,omitempty"`
}

// TypeCount counts entities of one type.
type TypeCount struct {
	Type  string `json:"_id"`
	Count int    `json:"count"`
}

// EntityKey is the (type, text) grouping of a named entity.
type EntityKey struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// EntityCount counts mentions of one (type, text) entity.
type EntityCount struct {
	Entity EntityKey `json:"_id"`
	Count  int       `json:"count"`
}

// TagCount counts tokens with one part-of-speech tag.
type TagCount struct {
	Tag   string `json:"_id"`
	Count int    `json:"count"`
}

// SentimentBucket counts sentences whose rounded sentiment equals Value.
type SentimentBucket struct {
	Value float64 `json:"_id"`
	Count int     `json:"count"`
}

// Facets is the combined facet projection. Every list is non-nil once normalised.
type Facets struct {
	Topics              []TopicStat       `json:"topics"`
	NamedEntitiesByType []TypeCount       `json:"namedEntitiesByType"`
	NamedEntitiesByText []EntityCount     `json:"namedEntitiesByText"`
	POSTags             []TagCount        `json:"pos_tags"`
	Sentiment           []SentimentBucket `json:"sentiment"`
}

// EmptyFacets returns facets with every list present and empty.
func EmptyFacets() Facets {
	var f Facets
	f.Normalize()
	return f
}

// Normalize replaces nil lists with empty ones so they encode as [].
func (f *Facets) Normalize() {
	if f.Topics == nil {
		f.Topics = []TopicStat{}
	}
	if f.NamedEntitiesByType == nil {
		f.NamedEntitiesByType = []TypeCount{}
	}
	if f.NamedEntitiesByText == nil {
		f.NamedEntitiesByText = []EntityCount{}
	}
	if f.POSTags == nil {
		f.POSTags = []TagCount{}
	}
	if f.Sentiment == nil {
		f.Sentiment = []SentimentBucket{}
	}
}

// Result is one persisted summary.
type Result struct {
	Type           Dimension `json:"type"`
	Value          string    `json:"value"`
	SpeechCount    *int      `json:"speechCount,omitempty"`
	NLPAggregation Facets    `json:"nlpAggregation"`
	GeneratedAt    int64     `json:"generatedAt,omitempty"` // unix millis
}

// NewResult assembles a summary for key. speechCount is attached for the topic dimension only.
func NewResult(key Key, facets Facets, speechCount int, generatedAt int64) Result {
	facets.Normalize()
	r := Result{
		Type:           key.Dimension,
		Value:          key.Value,
		NLPAggregation: facets,
		GeneratedAt:    generatedAt,
	}
	if key.Dimension == DimensionTopics {
		r.SpeechCount = &speechCount
	}
	return r
}

// Key returns the key the result was produced for.
func (r *Result) Key() Key { return Key{Dimension: r.Type, Value: r.Value} }
