package xmap

import (
	"context"
	"sort"

	"xmapstream/internal/wire"
)

// StreamMatches emits one BackendMatch per query contig that appears in at
// least two files of the set, in ascending contig order. The channel is
// closed when every match has been sent or ctx is done, so the producer
// never outlives a disconnected consumer.
func (fs *FileSet) StreamMatches(ctx context.Context) <-chan wire.BackendMatch {
	out := make(chan wire.BackendMatch)
	go func() {
		defer close(out)
		for _, qryID := range fs.sharedContigs() {
			m := fs.buildMatch(qryID)
			select {
			case out <- m:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// sharedContigs returns the query contig ids present in two or more files,
// sorted for deterministic emission order.
func (fs *FileSet) sharedContigs() []uint32 {
	seen := make(map[uint32]int)
	for _, idx := range fs.indices {
		for qryID := range idx {
			seen[qryID]++
		}
	}
	shared := make([]uint32, 0, len(seen))
	for qryID, n := range seen {
		if n >= 2 {
			shared = append(shared, qryID)
		}
	}
	sort.Slice(shared, func(i, j int) bool { return shared[i] < shared[j] })
	return shared
}

func (fs *FileSet) buildMatch(qryID uint32) wire.BackendMatch {
	m := wire.BackendMatch{QryContigID: qryID}
	for fileIdx, idx := range fs.indices {
		recs, ok := idx[qryID]
		if !ok {
			continue
		}
		m.FileIndices = append(m.FileIndices, uint64(fileIdx))
		for _, rec := range recs {
			if len(m.Records) == wire.MaxListLen {
				// The wire contract caps records per match; anything
				// beyond the cap would make the frame undecodable.
				return m
			}
			m.Records = append(m.Records, wire.MatchedRecord{
				FileIndex:   uint64(fileIdx),
				RefContigID: rec.RefContigID,
				QryStartPos: rec.QryStartPos,
				QryEndPos:   rec.QryEndPos,
				RefStartPos: rec.RefStartPos,
				RefEndPos:   rec.RefEndPos,
				Orientation: rec.Orientation,
				Confidence:  rec.Confidence,
				RefLen:      fs.refLen(fileIdx, rec.RefContigID),
			})
		}
	}
	return m
}
