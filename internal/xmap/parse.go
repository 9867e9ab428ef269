// Package xmap parses XMAP alignment files and assembles cross-file
// matches for streaming.
package xmap

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Record is one XMAP alignment line: one query contig segment aligned onto
// one reference chromosome.
type Record struct {
	XmapEntryID uint32
	QryContigID uint32
	RefContigID uint8
	QryStartPos float64
	QryEndPos   float64
	RefStartPos float64
	RefEndPos   float64
	Orientation rune
	Confidence  float64
}

// XMAP columns used here; trailing columns (HitEnum etc.) are ignored.
const minFields = 9

// Parse reads tab-separated XMAP content. Comment lines (#) and blank
// lines are skipped, as are lines with fewer than 9 columns. A column that
// fails to parse fails the whole file with a line-numbered error.
func Parse(r io.Reader) ([]Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var records []Record
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < minFields {
			continue
		}
		rec, err := parseRecord(fields)
		if err != nil {
			return nil, fmt.Errorf("xmap: line %d: %w", lineNo, err)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("xmap: scan: %w", err)
	}
	return records, nil
}

func parseRecord(fields []string) (Record, error) {
	var rec Record

	entryID, err := strconv.ParseUint(strings.TrimSpace(fields[0]), 10, 32)
	if err != nil {
		return Record{}, fmt.Errorf("XmapEntryID: %w", err)
	}
	rec.XmapEntryID = uint32(entryID)

	qryID, err := strconv.ParseUint(strings.TrimSpace(fields[1]), 10, 32)
	if err != nil {
		return Record{}, fmt.Errorf("QryContigID: %w", err)
	}
	rec.QryContigID = uint32(qryID)

	refID, err := strconv.ParseUint(strings.TrimSpace(fields[2]), 10, 8)
	if err != nil {
		return Record{}, fmt.Errorf("RefContigID: %w", err)
	}
	rec.RefContigID = uint8(refID)

	if rec.QryStartPos, err = parseFloat(fields[3]); err != nil {
		return Record{}, fmt.Errorf("QryStartPos: %w", err)
	}
	if rec.QryEndPos, err = parseFloat(fields[4]); err != nil {
		return Record{}, fmt.Errorf("QryEndPos: %w", err)
	}
	if rec.RefStartPos, err = parseFloat(fields[5]); err != nil {
		return Record{}, fmt.Errorf("RefStartPos: %w", err)
	}
	if rec.RefEndPos, err = parseFloat(fields[6]); err != nil {
		return Record{}, fmt.Errorf("RefEndPos: %w", err)
	}

	rec.Orientation = '+'
	for _, r := range strings.TrimSpace(fields[7]) {
		rec.Orientation = r
		break
	}

	if rec.Confidence, err = parseFloat(fields[8]); err != nil {
		return Record{}, fmt.Errorf("Confidence: %w", err)
	}
	return rec, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
