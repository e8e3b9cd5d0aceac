package dircast

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Report formats
const (
	FormatHuman  = "human"
	FormatJSON   = "json"
	FormatFdupes = "fdupes"
)

// displayPath renders the empty path of a subtree root as "."
func displayPath(p string) string {
	if p == "" {
		return "."
	}
	return p
}

type changeJSON struct {
	Code   string `json:"code"`
	Kind   string `json:"kind"`
	IndexA int    `json:"index_a"`
	IndexB int    `json:"index_b"`
	PathA  string `json:"path_a,omitempty"`
	PathB  string `json:"path_b,omitempty"`
}

type diffJSON struct {
	Verdict string       `json:"verdict"`
	Changes []changeJSON `json:"changes"`
}

// WriteDiffReport renders a comparison result in the given format
func WriteDiffReport(w io.Writer, result *DiffResult, format string) error {
	switch strings.ToLower(format) {
	case FormatHuman, "":
		if _, err := fmt.Fprintln(w, result.Verdict.Token()); err != nil {
			return err
		}
		for _, ch := range result.Changes {
			pathA, pathB := "", ""
			if ch.IndexA >= 0 {
				pathA = displayPath(ch.PathA)
			}
			if ch.IndexB >= 0 {
				pathB = displayPath(ch.PathB)
			}
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", ch.Kind.Code(), pathA, pathB); err != nil {
				return err
			}
		}
		return nil

	case FormatJSON:
		out := diffJSON{Verdict: result.Verdict.Token(), Changes: make([]changeJSON, 0, len(result.Changes))}
		for _, ch := range result.Changes {
			out.Changes = append(out.Changes, changeJSON{
				Code:   ch.Kind.Code(),
				Kind:   ch.Kind.String(),
				IndexA: ch.IndexA,
				IndexB: ch.IndexB,
				PathA:  ch.PathA,
				PathB:  ch.PathB,
			})
		}
		return writeJSON(w, out)

	default:
		return fmt.Errorf("unsupported diff report format: %s (supported: human, json)", format)
	}
}

// WriteDuplicateReport renders duplicate groups in the given format
func WriteDuplicateReport(w io.Writer, groups []DuplicateGroup, format string) error {
	switch strings.ToLower(format) {
	case FormatHuman, "":
		for i, g := range groups {
			if i > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "%s (%d bytes), %d copies:\n", formatSize(g.Size), g.Size, len(g.Members)); err != nil {
				return err
			}
			for _, p := range g.Paths {
				if _, err := fmt.Fprintf(w, "  %s\n", displayPath(p)); err != nil {
					return err
				}
			}
		}
		return nil

	case FormatFdupes:
		for i, g := range groups {
			if i > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			for _, p := range g.Paths {
				if _, err := fmt.Fprintln(w, displayPath(p)); err != nil {
					return err
				}
			}
		}
		return nil

	case FormatJSON:
		if groups == nil {
			groups = []DuplicateGroup{}
		}
		return writeJSON(w, groups)

	default:
		return fmt.Errorf("unsupported duplicate report format: %s (supported: human, json, fdupes)", format)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
