package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dshills/codeweave/internal/storage"
)

// previewWidth caps the content preview printed per chunk.
const previewWidth = 60

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// formatChunks renders labeled chunks as a table.
//
//	LINES  NODE TYPE             CATEGORY             CONF  NAME
//	4-6    function_declaration  DEFINITION_CALLABLE  1.00  Add
func formatChunks(w io.Writer, chunks []*storage.Chunk) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "LINES\tNODE TYPE\tCATEGORY\tCONF\tNAME\tPREVIEW")
	for _, c := range chunks {
		category := c.Category
		if category == "" {
			category = "-"
		}
		fmt.Fprintf(tw, "%d-%d\t%s\t%s\t%.2f\t%s\t%s\n",
			c.StartLine, c.EndLine, orDash(c.NodeType), category, c.Confidence, orDash(c.Name), preview(c.Content))
	}
	return tw.Flush()
}

// formatResults renders search results as a ranked table.
func formatResults(w io.Writer, results []storage.SearchResult) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "no results")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "#\tSCORE\tLOCATION\tCATEGORY\tNAME")
	for i, r := range results {
		fmt.Fprintf(tw, "%d\t%.3f\t%s:%d-%d\t%s\t%s\n",
			i+1, r.Score, r.FilePath, r.Chunk.StartLine, r.Chunk.EndLine, orDash(r.Chunk.Category), orDash(r.Chunk.Name))
	}
	return tw.Flush()
}

// formatCounts renders a name -> count map, largest first.
func formatCounts(w io.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	fmt.Fprintf(w, "%s:\n", title)
	tw := newTable(w)
	for _, k := range keys {
		fmt.Fprintf(tw, "  %s\t%d\n", k, counts[k])
	}
	_ = tw.Flush()
}

func preview(content string) string {
	line := strings.TrimSpace(strings.SplitN(strings.TrimSpace(content), "\n", 2)[0])
	if len(line) > previewWidth {
		line = line[:previewWidth-3] + "..."
	}
	return line
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
