// Package depth resolves a below-ground depth for every station from
// curated anchors, per-line heuristics and a generic fallback. It
// never fails: every station gets a finite depth.
package depth

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tube3d/engine/pkg/core"
)

// ParseAnchors reads the curated depth table. Format: one row per
// station, fields separated by tabs or commas:
//
//	station_id, name, depth_metres, source_reference, notes
//
// Lines starting with '#' and a header row are skipped. Rows whose
// depth does not parse are skipped individually rather than failing
// the whole table.
func ParseAnchors(r io.Reader, log zerolog.Logger) (map[string]core.DepthAnchor, error) {
	anchors := make(map[string]core.DepthAnchor)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := splitRow(line)
		if len(fields) < 3 {
			log.Debug().Int("line", lineNo).Msg("Skipping anchor row with too few fields")
			continue
		}

		// header row
		if strings.EqualFold(fields[0], "station_id") {
			continue
		}

		depthMetres, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			log.Warn().Int("line", lineNo).Str("value", fields[2]).
				Msg("Skipping anchor row with unparsable depth")
			continue
		}

		anchor := core.DepthAnchor{
			StationID: fields[0],
			Name:      fields[1],
			Depth:     depthMetres,
		}
		if len(fields) > 3 {
			anchor.Source = fields[3]
		}
		if len(fields) > 4 {
			anchor.Notes = fields[4]
		}
		anchors[anchor.StationID] = anchor
	}
	if err := scanner.Err(); err != nil {
		return anchors, err
	}

	log.Info().Int("anchors", len(anchors)).Msg("Loaded depth anchors")
	return anchors, nil
}

// splitRow splits on tabs when present, otherwise commas, trimming
// whitespace around every field.
func splitRow(line string) []string {
	sep := ","
	if strings.Contains(line, "\t") {
		sep = "\t"
	}
	parts := strings.Split(line, sep)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
