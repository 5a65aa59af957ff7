package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/spigell/resume-matcher/internal/matching"
)

const (
	FormatText  = "text"
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

var ErrUnknownFormat = errors.New("unknown report format")

// Formats lists the accepted values for Render.
func Formats() []string {
	return []string{FormatText, FormatTable, FormatJSON, FormatYAML}
}

// Render writes the result set in the requested format.
func Render(w io.Writer, format string, rs *matching.ResultSet) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		return renderText(w, rs)
	case FormatTable:
		return renderTable(w, rs)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(document(rs))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(document(rs)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w %q (expected one of %s)", ErrUnknownFormat, format, strings.Join(Formats(), ", "))
	}
}

// DumpToTmpFile stores the result set as indented JSON in a temporary file and returns its path.
func DumpToTmpFile(rs *matching.ResultSet) (string, error) {
	return dumpToTmpFile(rs, FormatJSON, "matches_*.json")
}

// dumpToTmpFile writes rs in format to a fresh temporary file. The file is removed on any failure.
func dumpToTmpFile(rs *matching.ResultSet, format, pattern string) (string, error) {
	file, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}

	renderErr := Render(file, format, rs)
	closeErr := file.Close()
	if err := errors.Join(renderErr, closeErr); err != nil {
		os.Remove(file.Name())
		return "", fmt.Errorf("dump results to %s: %w", file.Name(), err)
	}
	return file.Name(), nil
}

func renderText(w io.Writer, rs *matching.ResultSet) error {
	for _, line := range rs.Lines() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func renderTable(w io.Writer, rs *matching.ResultSet) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"RESUME", "BEST JOB DESCRIPTION", "SIMILARITY"})

	rows := make([][]string, 0, rs.Len())
	for _, entry := range entries(rs) {
		rows = append(rows, []string{
			strconv.Itoa(entry.Resume),
			strconv.Itoa(entry.JobDescription),
			strconv.FormatFloat(entry.Similarity, 'f', 4, 64),
		})
	}

	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

type entry struct {
	Resume         int     `json:"resume" yaml:"resume"`
	JobDescription int     `json:"job_description" yaml:"job_description"`
	Similarity     float64 `json:"similarity" yaml:"similarity"`
}

type output struct {
	Encoder string  `json:"encoder" yaml:"encoder"`
	Matches []entry `json:"matches" yaml:"matches"`
}

func document(rs *matching.ResultSet) output {
	out := output{Matches: entries(rs)}
	if rs != nil {
		out.Encoder = rs.Encoder
	}
	return out
}

// entries converts zero-based results to the one-based numbering users see.
func entries(rs *matching.ResultSet) []entry {
	list := make([]entry, 0, rs.Len())
	if rs == nil {
		return list
	}
	for _, item := range rs.Items {
		list = append(list, entry{
			Resume:         item.CandidateIndex + 1,
			JobDescription: item.TargetIndex + 1,
			Similarity:     item.Score,
		})
	}
	return list
}
