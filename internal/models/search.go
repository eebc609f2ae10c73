package models

// RankedRef is one entry of a retrieval leg: a candidate at a 1-based,
// unique-within-list rank with the store's raw score.
type RankedRef struct {
	CandidateID string  `json:"candidateId"`
	Rank        int     `json:"rank"`
	RawScore    float64 `json:"rawScore"`
}

// SearchRequest is the core's input for one ranking pass.
type SearchRequest struct {
	TenantID       string    `json:"tenantId"`
	Query          string    `json:"query"`
	QueryEmbedding []float64 `json:"queryEmbedding,omitempty"`
	Limit          int       `json:"limit,omitempty"`
	Anonymize      bool      `json:"anonymize,omitempty"`
	Debug          bool      `json:"debug,omitempty"`
}

// Timings breaks down where a request spent its time, in milliseconds.
type Timings struct {
	RetrievalMs  int64 `json:"retrievalMs"`
	FusionMs     int64 `json:"fusionMs"`
	PredictionMs int64 `json:"predictionMs"`
	ScoringMs    int64 `json:"scoringMs"`
	TotalMs      int64 `json:"totalMs"`
}

// ResponseMetadata carries response-level annotations.
type ResponseMetadata struct {
	Anonymized   bool   `json:"anonymized,omitempty"`
	AnonymizedAt string `json:"anonymizedAt,omitempty"`
}

// SearchDebug is diagnostic output, omitted whenever anonymization is
// requested.
type SearchDebug struct {
	VectorResults []RankedRef `json:"vectorResults,omitempty"`
	TextResults   []RankedRef `json:"textResults,omitempty"`
	FusionMethod  string      `json:"fusionMethod,omitempty"`
}

// SearchResponse is the envelope produced for one search. Results holds
// []ScoredCandidate, or []AnonymizedCandidate when anonymization was
// requested.
type SearchResponse struct {
	Results   interface{}       `json:"results"`
	Total     int               `json:"total"`
	CacheHit  bool              `json:"cacheHit"`
	RequestID string            `json:"requestId"`
	Timings   Timings           `json:"timings"`
	Metadata  *ResponseMetadata `json:"metadata,omitempty"`
	Debug     *SearchDebug      `json:"debug,omitempty"`
}
