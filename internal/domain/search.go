package domain

import "encoding/json"

// SearchRequest is the body sent to the search/summarization API.
type SearchRequest struct {
	Query          string `json:"query"`
	CollectionName string `json:"collection_name"`
}

// SearchResponse is the 2xx body returned by the search/summarization API.
type SearchResponse struct {
	Query     string         `json:"query,omitempty"`
	Summary   string         `json:"summary"`
	Timestamp string         `json:"timestamp"`
	Results   []SearchResult `json:"results"`
}

// SearchResult is one retrieved document chunk.
type SearchResult struct {
	Document        string         `json:"document"`
	Metadata        ResultMetadata `json:"metadata"`
	SimilarityScore float64        `json:"similarity_score"`
}

// ResultMetadata is the metadata stored alongside a chunk.
type ResultMetadata struct {
	URL           string `json:"url"`
	TechStackName string `json:"techStackName,omitempty"`
	CharCount     int    `json:"char_count,omitempty"`
	TokenCount    int    `json:"token_count,omitempty"`
}

// DocSearchRequest is the marketing-site variant of the query body.
type DocSearchRequest struct {
	Query    string `json:"query"`
	NResults int    `json:"n_results"`
}

// DocSearchResponse is the marketing-site variant of the response body.
type DocSearchResponse struct {
	Results    []DocSearchResult `json:"results"`
	FilterUsed any               `json:"filter_used"`
}

// DocSearchResult is one hit returned to the marketing site.
type DocSearchResult struct {
	Document string `json:"document"`
	Metadata struct {
		Title                   string      `json:"title"`
		URL                     string      `json:"url"`
		VersionOrCommonResource string      `json:"version_or_commonresource"`
		IDParent                string      `json:"id_parent"`
		CharCount               json.Number `json:"char_count,omitempty"`
		ChunkIndex              json.Number `json:"chunk_index,omitempty"`
		TotalChunks             json.Number `json:"total_chunks,omitempty"`
	} `json:"metadata"`
	SimilarityScore float64 `json:"similarity_score"`
}
