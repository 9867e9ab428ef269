package wire

// ChromosomeInfo is one reference chromosome of one uploaded genome file:
// its ordinal id and its length in base pairs.
type ChromosomeInfo struct {
	RefContigID uint8   `json:"ref_contig_id"`
	RefLen      float64 `json:"ref_len"`
}

// MatchedRecord is one alignment of a query contig onto one reference
// chromosome of one genome file.
type MatchedRecord struct {
	FileIndex   uint64  `json:"file_index"`
	RefContigID uint8   `json:"ref_contig_id"`
	QryStartPos float64 `json:"qry_start_pos"`
	QryEndPos   float64 `json:"qry_end_pos"`
	RefStartPos float64 `json:"ref_start_pos"`
	RefEndPos   float64 `json:"ref_end_pos"`
	Orientation rune    `json:"orientation"`
	Confidence  float64 `json:"confidence"`
	RefLen      float64 `json:"ref_len"`
}

// BackendMatch groups every MatchedRecord sharing one query contig id.
// Constructed once per decoded frame and immutable afterwards.
type BackendMatch struct {
	QryContigID uint32          `json:"qry_contig_id"`
	FileIndices []uint64        `json:"file_indices"`
	Records     []MatchedRecord `json:"records"`
}

// BackendResponse is the fully aggregated result of one streamed request.
type BackendResponse struct {
	ChromosomeInfo [][]ChromosomeInfo `json:"chromosome_info"`
	Matches        []BackendMatch     `json:"matches"`
}
