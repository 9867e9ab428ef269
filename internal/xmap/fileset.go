package xmap

import (
	"sort"

	"xmapstream/internal/wire"
)

// FileSet holds the parsed records of one upload batch, plus the per-file
// indices the matcher needs.
type FileSet struct {
	files     [][]Record
	indices   []map[uint32][]Record
	summaries [][]wire.ChromosomeInfo
}

func NewFileSet(files [][]Record) *FileSet {
	fs := &FileSet{
		files:     files,
		indices:   make([]map[uint32][]Record, len(files)),
		summaries: make([][]wire.ChromosomeInfo, len(files)),
	}
	for i, recs := range files {
		fs.indices[i] = buildIndex(recs)
		fs.summaries[i] = summarize(recs)
	}
	return fs
}

// ChromosomeInfo returns the per-file chromosome tables for the header
// frame (outer index = file index).
func (fs *FileSet) ChromosomeInfo() [][]wire.ChromosomeInfo {
	return fs.summaries
}

func (fs *FileSet) refLen(file int, contig uint8) float64 {
	for _, ci := range fs.summaries[file] {
		if ci.RefContigID == contig {
			return ci.RefLen
		}
	}
	return 0
}

// buildIndex groups records by query contig id.
func buildIndex(records []Record) map[uint32][]Record {
	idx := make(map[uint32][]Record)
	for _, rec := range records {
		idx[rec.QryContigID] = append(idx[rec.QryContigID], rec)
	}
	return idx
}

// summarize derives one chromosome table from a file's records: the length
// of each reference contig is the furthest alignment end observed on it.
func summarize(records []Record) []wire.ChromosomeInfo {
	lengths := make(map[uint8]float64)
	for _, rec := range records {
		if rec.RefEndPos > lengths[rec.RefContigID] {
			lengths[rec.RefContigID] = rec.RefEndPos
		}
	}
	out := make([]wire.ChromosomeInfo, 0, len(lengths))
	for id, l := range lengths {
		out = append(out, wire.ChromosomeInfo{RefContigID: id, RefLen: l})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RefContigID < out[j].RefContigID })
	return out
}
