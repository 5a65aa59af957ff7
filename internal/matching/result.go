package matching

import "fmt"

// MatchResult is the best target for one candidate. Indices are zero-based.
type MatchResult struct {
	CandidateIndex int     `json:"candidate_index" yaml:"candidate_index"`
	TargetIndex    int     `json:"target_index" yaml:"target_index"`
	Score          float64 `json:"score" yaml:"score"`
}

// String renders the result with one-based ordinals and a four decimal score.
func (m MatchResult) String() string {
	return fmt.Sprintf("Resume %d (Similarity: %.4f) is best matched with Job Description %d.",
		m.CandidateIndex+1, m.Score, m.TargetIndex+1)
}

// ResultSet holds one result per candidate in candidate order.
type ResultSet struct {
	Encoder string        `json:"encoder" yaml:"encoder"`
	Items   []MatchResult `json:"items" yaml:"items"`
}

func (r *ResultSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Items)
}

// Lines renders every result as a human readable line.
func (r *ResultSet) Lines() []string {
	lines := make([]string, 0, r.Len())
	if r == nil {
		return lines
	}
	for _, item := range r.Items {
		lines = append(lines, item.String())
	}
	return lines
}
