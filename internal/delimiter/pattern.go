package delimiter

import "strings"

// Pattern is a declarative template for a family of delimiters. A pattern
// with AnyEnd set has no end literals: its delimiters close at the end of
// the indented block that follows the start (see the chunker package).
type Pattern struct {
	Starts []string
	Ends   []string
	AnyEnd bool
	Kind   Kind

	// Optional overrides of the kind defaults.
	Priority       *int
	Inclusive      *bool
	TakeWholeLines *bool
	Nestable       *bool

	// Formatter optionally rewrites the text of chunks produced by this pattern.
	Formatter func(string) string
}

// Delimiter is one concrete start/end pair with every attribute resolved.
type Delimiter struct {
	Start          string
	End            string // empty when AnyEnd
	AnyEnd         bool
	Kind           Kind
	Priority       int
	Inclusive      bool
	TakeWholeLines bool
	Nestable       bool
	Formatter      func(string) string
}

// Key identifies the delimiter's nesting stack.
func (d Delimiter) Key() string {
	return d.Start + "_" + d.End
}

// Format applies the delimiter's formatter, if any.
func (d Delimiter) Format(text string) string {
	if d.Formatter == nil {
		return text
	}
	return d.Formatter(text)
}

// Format applies the pattern's formatter, if any.
func (p Pattern) Format(text string) string {
	if p.Formatter == nil {
		return text
	}
	return p.Formatter(text)
}

// WithPriority returns a copy of p with its priority overridden.
func (p Pattern) WithPriority(priority int) Pattern {
	p.Priority = &priority
	return p
}

// WithLines returns a copy of p with its line strategy overridden.
func (p Pattern) WithLines(inclusive, wholeLines bool) Pattern {
	p.Inclusive = &inclusive
	p.TakeWholeLines = &wholeLines
	return p
}

// WithNestable returns a copy of p with nesting overridden.
func (p Pattern) WithNestable(nestable bool) Pattern {
	p.Nestable = &nestable
	return p
}

// Expand turns a pattern into its concrete delimiters: the cross product of
// starts and ends, or one delimiter per start when the end is AnyEnd.
func Expand(p Pattern) []Delimiter {
	inclusive, wholeLines := p.Kind.LineStrategy()
	base := Delimiter{
		Kind:           p.Kind,
		Priority:       p.Kind.DefaultPriority(),
		Inclusive:      inclusive,
		TakeWholeLines: wholeLines,
		Nestable:       p.Kind.Nestable(),
		Formatter:      p.Formatter,
	}
	if p.Priority != nil {
		base.Priority = *p.Priority
	}
	if p.Inclusive != nil {
		base.Inclusive = *p.Inclusive
	}
	if p.TakeWholeLines != nil {
		base.TakeWholeLines = *p.TakeWholeLines
	}
	if p.Nestable != nil {
		base.Nestable = *p.Nestable
	}

	var out []Delimiter
	for _, start := range p.Starts {
		if start == "" {
			continue
		}
		if p.AnyEnd {
			d := base
			d.Start = start
			d.AnyEnd = true
			out = append(out, d)
			continue
		}
		for _, end := range p.Ends {
			if end == "" {
				continue
			}
			d := base
			d.Start = start
			d.End = end
			out = append(out, d)
		}
	}
	return out
}

// ExpandAll expands every pattern in order and drops later duplicates of the
// same (start, end, kind) triple.
func ExpandAll(patterns ...Pattern) []Delimiter {
	seen := make(map[string]struct{})
	var out []Delimiter
	for _, p := range patterns {
		for _, d := range Expand(p) {
			key := d.Key() + "_" + d.Kind.String()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, d)
		}
	}
	return out
}

// Matches reports whether a start/end text pair belongs to the pattern.
// Comparison is case-insensitive; AnyEnd accepts any end text, including "".
func Matches(startText, endText string, p Pattern) bool {
	startOK := false
	for _, s := range p.Starts {
		if strings.EqualFold(s, startText) {
			startOK = true
			break
		}
	}
	if !startOK {
		return false
	}
	if p.AnyEnd {
		return true
	}
	for _, e := range p.Ends {
		if strings.EqualFold(e, endText) {
			return true
		}
	}
	return false
}
