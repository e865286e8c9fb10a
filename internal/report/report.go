// Package report renders run results for the user: the final summary table
// and the unmatched-title export with near-miss suggestions.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/gocarina/gocsv"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/plexlist/plexlist/internal/listsource"
)

// UnmatchedRow is one line of the unmatched-title export.
type UnmatchedRow struct {
	Position   int    `csv:"position"`
	Title      string `csv:"title"`
	ExternalID string `csv:"external_id"`
	DetailURL  string `csv:"url"`
	Suggestion string `csv:"closest_catalog_title"`
}

// Summary carries the counts every run must report, so a partial success is
// distinguishable from a total failure.
type Summary struct {
	ListTitle     string
	PagesFetched  int
	ItemsParsed   int
	Titled        int
	FetchFailures int
	Matched       int
	Unmatched     int
}

// BuildUnmatched assembles export rows for the unmatched titles, in input
// order, annotating each with the closest catalog key when one is near
// enough. catalogKeys are canonical index keys, so suggestions render in
// normalized form.
func BuildUnmatched(titles []listsource.ResolvedTitle, unmatched []string, catalogKeys []string) []UnmatchedRow {
	byTitle := make(map[string]listsource.ResolvedTitle, len(titles))
	for _, t := range titles {
		if _, ok := byTitle[t.Title]; !ok {
			byTitle[t.Title] = t
		}
	}

	rows := make([]UnmatchedRow, 0, len(unmatched))
	for _, title := range unmatched {
		row := UnmatchedRow{
			Title:      title,
			Suggestion: closest(title, catalogKeys),
		}
		if rt, ok := byTitle[title]; ok {
			row.Position = rt.Position
			row.ExternalID = rt.ExternalID
			row.DetailURL = rt.DetailURL
		}
		rows = append(rows, row)
	}
	return rows
}

// closest returns the nearest catalog key within the edit-distance budget,
// or "" when nothing is close.
func closest(title string, catalogKeys []string) string {
	ranks := fuzzy.RankFindNormalizedFold(title, catalogKeys)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	if ranks[0].Distance > distanceThreshold(len(title)) {
		return ""
	}
	return ranks[0].Target
}

// distanceThreshold is the acceptable edit distance for a suggestion,
// roughly 20% of the title length, clamped to [1,3].
func distanceThreshold(n int) int {
	th := n / 5
	if th < 1 {
		return 1
	}
	if th > 3 {
		return 3
	}
	return th
}

// WriteTSV writes the unmatched rows as tab-delimited text with a header.
func WriteTSV(w io.Writer, rows []UnmatchedRow) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := gocsv.MarshalCSV(&rows, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return fmt.Errorf("write unmatched report: %w", err)
	}
	return nil
}

// WriteSummary renders the run counts as a table.
func WriteSummary(w io.Writer, s Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(s.ListTitle)
	t.AppendRows([]table.Row{
		{"pages fetched", s.PagesFetched},
		{"items parsed", s.ItemsParsed},
		{"titles resolved", s.Titled},
		{"detail fetch failures", s.FetchFailures},
		{"matched", s.Matched},
		{"unmatched", s.Unmatched},
	})
	t.Render()
}
