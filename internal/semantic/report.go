package semantic

// QualityReport summarises a batch of classifications.
type QualityReport struct {
	Total                int              `json:"total"`
	HighConfidence       int              `json:"high_confidence"`
	HighConfidencePct    float64          `json:"high_confidence_pct"`
	AverageConfidence    float64          `json:"average_confidence"`
	PhaseDistribution    map[Phase]int    `json:"phase_distribution"`
	GradeDistribution    map[string]int   `json:"grade_distribution"`
	CategoryDistribution map[Category]int `json:"category_distribution"`
}

// AnalyzeQuality classifies reqs and reports how confidently they resolved.
func (c *Classifier) AnalyzeQuality(reqs []Request) QualityReport {
	return Summarize(c.ClassifyBatch(reqs))
}

// Summarize builds a QualityReport from existing results.
func Summarize(results []Result) QualityReport {
	report := QualityReport{
		Total:                len(results),
		PhaseDistribution:    make(map[Phase]int),
		GradeDistribution:    make(map[string]int),
		CategoryDistribution: make(map[Category]int),
	}
	if len(results) == 0 {
		return report
	}

	var sum float64
	for _, r := range results {
		sum += r.Confidence
		if r.IsHighConfidence() {
			report.HighConfidence++
		}
		report.PhaseDistribution[r.Phase]++
		report.GradeDistribution[r.Grade()]++
		report.CategoryDistribution[r.Category]++
	}
	report.AverageConfidence = sum / float64(len(results))
	report.HighConfidencePct = 100 * float64(report.HighConfidence) / float64(len(results))
	return report
}

// CoverageEntry is the classification of one node type in a coverage report.
type CoverageEntry struct {
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
	Phase      Phase    `json:"phase"`
	Grade      string   `json:"grade"`
}

// Coverage classifies each node type for language.
func (c *Classifier) Coverage(language string, nodeTypes []string) map[string]CoverageEntry {
	out := make(map[string]CoverageEntry, len(nodeTypes))
	for _, nt := range nodeTypes {
		r := c.Classify(Request{NodeType: nt, Language: language})
		out[nt] = CoverageEntry{
			Category:   r.Category,
			Confidence: r.Confidence,
			Phase:      r.Phase,
			Grade:      r.Grade(),
		}
	}
	return out
}
