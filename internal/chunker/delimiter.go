package chunker

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/dshills/codeweave/internal/delimiter"
	"github.com/dshills/codeweave/pkg/types"
)

const delimiterChunkerName = "delimiter"

// DelimiterChunker segments text of any language using the delimiter
// patterns of its language family. It runs in three phases: match
// detection, per-delimiter LIFO extraction and priority overlap resolution.
type DelimiterChunker struct {
	language string
	gov      Governor
	logger   *zap.Logger

	scan *scanner
	err  error

	// detect is set when the language has no known family, so the family
	// is guessed from content on each call.
	detect bool
}

// NewDelimiterChunker returns a chunker for language using the governor's
// custom patterns followed by the built-in patterns for the language.
func NewDelimiterChunker(language string, gov Governor, logger *zap.Logger) *DelimiterChunker {
	custom := gov.customPatterns(language)
	patterns := append(append([]delimiter.Pattern(nil), custom...), delimiter.PatternsForLanguage(language)...)
	c := NewDelimiterChunkerWithPatterns(language, patterns, gov, logger)
	c.detect = len(custom) == 0 &&
		len(delimiter.CustomPatterns(language)) == 0 &&
		delimiter.FamilyForLanguage(language) == delimiter.FamilyUnknown
	return c
}

// NewDelimiterChunkerWithPatterns returns a chunker that uses exactly the
// given patterns.
func NewDelimiterChunkerWithPatterns(language string, patterns []delimiter.Pattern, gov Governor, logger *zap.Logger) *DelimiterChunker {
	if logger == nil {
		logger = zap.NewNop()
	}
	s, err := newScanner(delimiter.ExpandAll(patterns...))
	return &DelimiterChunker{
		language: language,
		gov:      gov.withDefaults(),
		logger:   logger,
		scan:     s,
		err:      err,
	}
}

// Name implements Chunker.
func (c *DelimiterChunker) Name() string { return delimiterChunkerName }

// Delimiters returns the active delimiter set.
func (c *DelimiterChunker) Delimiters() []delimiter.Delimiter {
	if c.scan == nil {
		return nil
	}
	return append([]delimiter.Delimiter(nil), c.scan.delims...)
}

// Chunk implements Chunker. Content that is not valid UTF-8 is rejected with
// a BinaryFileError before any scanning.
func (c *DelimiterChunker) Chunk(ctx context.Context, content []byte, filePath string, extra map[string]any) (chunks []*types.Chunk, err error) {
	if !utf8.Valid(content) {
		return nil, &types.BinaryFileError{FilePath: filePath}
	}
	text := string(content)
	if isBlank(text) {
		return nil, nil
	}

	defer func() {
		if r := recover(); r != nil {
			chunks = nil
			err = &types.ParseError{
				File:     filePath,
				Language: c.language,
				Err:      fmt.Errorf("boundary detection panicked: %v", r),
			}
		}
	}()

	s, family, err := c.scannerFor(text)
	if err != nil {
		return nil, &types.ParseError{File: filePath, Language: c.language, Err: err}
	}
	if s == nil || len(s.delims) == 0 {
		return nil, nil
	}

	events := s.detect(text)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	candidates := s.extract(events)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	accepted := s.resolve(candidates)

	chunks = s.materialize(text, accepted, filePath, c.language, family, extra)
	if len(chunks) > c.gov.MaxChunks {
		return nil, &types.ChunkLimitExceededError{
			Count:    len(chunks),
			Limit:    c.gov.MaxChunks,
			FilePath: filePath,
		}
	}

	c.logger.Debug("delimiter chunking complete",
		zap.String("file", filePath),
		zap.String("language", c.language),
		zap.Int("candidates", len(candidates)),
		zap.Int("chunks", len(chunks)))

	return chunks, nil
}

func (c *DelimiterChunker) scannerFor(text string) (*scanner, string, error) {
	if c.err != nil || !c.detect {
		return c.scan, "", c.err
	}
	family := delimiter.DetectFamily(text, delimiter.DefaultMinMatches)
	if family == delimiter.FamilyUnknown {
		return c.scan, "", nil
	}
	s, err := newScanner(delimiter.ExpandAll(delimiter.FamilyPatterns(family)...))
	return s, string(family), err
}

// literal is one distinct start or end string of the active delimiter set.
type literal struct {
	text     string
	starts   []int // delimiters opened by this literal
	ends     []int // delimiters closed by this literal
	toggles  []int // delimiters whose start and end are both this literal
	prefixes []*literal

	trailingWord bool
}

type scanner struct {
	delims []delimiter.Delimiter
	re     *regexp.Regexp
	lits   map[string]*literal
}

func newScanner(delims []delimiter.Delimiter) (*scanner, error) {
	s := &scanner{delims: delims, lits: make(map[string]*literal)}
	get := func(text string) *literal {
		l, ok := s.lits[text]
		if !ok {
			l = &literal{text: text, trailingWord: isWordByte(text[len(text)-1])}
			s.lits[text] = l
		}
		return l
	}
	for i, d := range delims {
		switch {
		case d.AnyEnd || d.End == "":
			get(d.Start).starts = append(get(d.Start).starts, i)
		case d.Start == d.End:
			get(d.Start).toggles = append(get(d.Start).toggles, i)
		default:
			get(d.Start).starts = append(get(d.Start).starts, i)
			get(d.End).ends = append(get(d.End).ends, i)
		}
	}
	if len(s.lits) == 0 {
		return s, nil
	}

	texts := make([]string, 0, len(s.lits))
	for t := range s.lits {
		texts = append(texts, t)
	}
	sort.Slice(texts, func(i, j int) bool {
		if len(texts[i]) != len(texts[j]) {
			return len(texts[i]) > len(texts[j])
		}
		return texts[i] < texts[j]
	})

	alts := make([]string, len(texts))
	for i, t := range texts {
		alts[i] = guarded(t)
		l := s.lits[t]
		for _, other := range texts[i+1:] {
			if len(other) < len(t) && strings.HasPrefix(t, other) {
				l.prefixes = append(l.prefixes, s.lits[other])
			}
		}
	}

	re, err := regexp.Compile(strings.Join(alts, "|"))
	if err != nil {
		return nil, fmt.Errorf("compile delimiter scanner: %w", err)
	}
	s.re = re
	return s, nil
}

// guarded escapes a literal and adds word boundaries on alphanumeric edges
// so "if" does not match inside "diff".
func guarded(lit string) string {
	var b strings.Builder
	if isWordByte(lit[0]) {
		b.WriteString(`\b`)
	}
	b.WriteString(regexp.QuoteMeta(lit))
	if isWordByte(lit[len(lit)-1]) {
		b.WriteString(`\b`)
	}
	return b.String()
}

func isWordByte(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

type eventOp uint8

// order matters: at equal positions ends sort before starts
const (
	opEnd eventOp = iota
	opToggle
	opStart
)

type event struct {
	pos    int
	endPos int
	delim  int
	op     eventOp
	level  int

	// closeAt is the synthesized end of an AnyEnd start.
	closeAt int
}

// detect is phase 1: it scans content once and returns every start, end
// and toggle hit ordered by position.
func (s *scanner) detect(content string) []event {
	if s.re == nil {
		return nil
	}
	var events []event
	for _, loc := range s.re.FindAllStringIndex(content, -1) {
		pos := loc[0]
		lit := s.lits[content[pos:loc[1]]]
		if lit == nil {
			continue
		}
		events = s.emit(events, content, pos, lit)
		// shorter literals hidden inside this hit, e.g. "/*" inside "/**"
		for _, p := range lit.prefixes {
			next := pos + len(p.text)
			if p.trailingWord && next < len(content) && isWordByte(content[next]) {
				continue
			}
			events = s.emit(events, content, pos, p)
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].pos != events[j].pos {
			return events[i].pos < events[j].pos
		}
		return events[i].op < events[j].op
	})
	return events
}

func (s *scanner) emit(events []event, content string, pos int, lit *literal) []event {
	endPos := pos + len(lit.text)
	for _, i := range lit.ends {
		events = append(events, event{pos: pos, endPos: endPos, delim: i, op: opEnd})
	}
	for _, i := range lit.toggles {
		events = append(events, event{pos: pos, endPos: endPos, delim: i, op: opToggle})
	}
	for _, i := range lit.starts {
		ev := event{pos: pos, endPos: endPos, delim: i, op: opStart}
		if s.delims[i].AnyEnd {
			closeAt, ok := anyEndClose(content, pos, lit.text)
			if !ok {
				continue
			}
			ev.closeAt = closeAt
		}
		events = append(events, ev)
	}
	return events
}

type boundary struct {
	start int
	end   int
	delim int
	level int
}

func (b boundary) length() int { return b.end - b.start }

// extract is phase 2: one LIFO stack per (start, end) key pairs starts with
// ends. Every start is pushed; only nestable delimiters record their depth.
// A toggle opens when its stack is empty or was pushed at the same position
// by another delimiter sharing the key. Unmatched closers are dropped.
func (s *scanner) extract(events []event) []boundary {
	stacks := make(map[string][]event)
	var out []boundary

	for _, ev := range events {
		d := s.delims[ev.delim]
		key := d.Key()
		stack := stacks[key]

		switch {
		case d.AnyEnd:
			for len(stack) > 0 && stack[len(stack)-1].closeAt <= ev.pos {
				stack = stack[:len(stack)-1]
			}
			if d.Nestable {
				ev.level = len(stack)
			}
			stack = append(stack, ev)
			if ev.pos < ev.closeAt {
				out = append(out, boundary{start: ev.pos, end: ev.closeAt, delim: ev.delim, level: ev.level})
			}

		case ev.op == opStart || (ev.op == opToggle && (len(stack) == 0 || stack[len(stack)-1].pos == ev.pos)):
			if d.Nestable {
				ev.level = len(stack)
			}
			stack = append(stack, ev)

		default:
			if len(stack) == 0 {
				break
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if open.pos < ev.endPos && open.endPos <= ev.pos {
				out = append(out, boundary{start: open.pos, end: ev.endPos, delim: ev.delim, level: open.level})
			}
		}
		stacks[key] = stack
	}
	return out
}

// resolve is phase 3: candidates are ranked by priority, then length, then
// start, and accepted greedily unless they overlap an accepted boundary.
// The result is ordered by start.
func (s *scanner) resolve(candidates []boundary) []boundary {
	sort.SliceStable(candidates, func(i, j int) bool {
		pi, pj := s.delims[candidates[i].delim].Priority, s.delims[candidates[j].delim].Priority
		if pi != pj {
			return pi > pj
		}
		if li, lj := candidates[i].length(), candidates[j].length(); li != lj {
			return li > lj
		}
		return candidates[i].start < candidates[j].start
	})

	// accepted stays sorted by start; since its members never overlap it is
	// also sorted by end
	var accepted []boundary
	for _, b := range candidates {
		i := sort.Search(len(accepted), func(k int) bool { return accepted[k].start >= b.end })
		if i > 0 && accepted[i-1].end > b.start {
			continue
		}
		accepted = slices.Insert(accepted, i, b)
	}
	return accepted
}

func (s *scanner) materialize(content string, accepted []boundary, filePath, language, family string, extra map[string]any) []*types.Chunk {
	lines := newLineIndex(content)
	chunks := make([]*types.Chunk, 0, len(accepted))

	for _, b := range accepted {
		d := s.delims[b.delim]
		start, end := b.start, b.end
		if !d.Inclusive {
			if strings.HasPrefix(content[start:end], d.Start) {
				start += len(d.Start)
			}
			if d.End != "" && end-start >= len(d.End) && strings.HasSuffix(content[start:end], d.End) {
				end -= len(d.End)
			}
		}
		text := d.Format(content[start:end])
		if isBlank(text) {
			continue
		}

		var lr types.LineRange
		if d.TakeWholeLines {
			lr = types.LineRange{Start: lines.lineOf(b.start), End: lines.lineOf(b.end - 1)}
		} else {
			last := end - 1
			if last < start {
				last = start
			}
			lr = types.LineRange{Start: lines.lineOf(start), End: lines.lineOf(last)}
		}

		fields := map[string]any{
			types.ContextChunkerType:    delimiterChunkerName,
			types.ContextDelimiterKind:  d.Kind.String(),
			types.ContextDelimiterStart: d.Start,
			types.ContextDelimiterEnd:   d.End,
			types.ContextPriority:       d.Priority,
			types.ContextNestingLevel:   b.level,
		}
		if family != "" {
			fields[types.ContextLanguageFamily] = family
		}
		name := fmt.Sprintf("%s at line %d", d.Kind.Title(), lr.Start)
		chunks = append(chunks, newChunk(text, filePath, language, lr, name, fields, extra))
	}
	return chunks
}

// Modifier words that may precede a definition keyword on its line.
var lineHeadModifiers = map[string]struct{}{
	"abstract": {}, "async": {}, "const": {}, "data": {}, "declare": {},
	"default": {}, "export": {}, "extern": {}, "final": {}, "inline": {},
	"internal": {}, "local": {}, "open": {}, "override": {}, "partial": {},
	"private": {}, "protected": {}, "pub": {}, "pub(crate)": {}, "pub(super)": {},
	"public": {}, "readonly": {}, "sealed": {}, "static": {}, "suspend": {},
	"unsafe": {}, "virtual": {},
}

// anyEndClose computes where an AnyEnd delimiter starting at pos closes.
// Whitespace-only starts (paragraph breaks) close at the next occurrence of
// the same break. Other starts must begin their line, optionally after
// modifier words, and close at the end of the block indented under the
// start line. A closing line at the start line's indentation (a "}" or
// "end") is absorbed; if it reopens, as in "} else {", the block continues.
func anyEndClose(content string, pos int, lit string) (int, bool) {
	if isBlank(lit) {
		after := pos + len(lit)
		if next := strings.Index(content[after:], lit); next >= 0 {
			return after + next, true
		}
		return len(content), true
	}

	lineStart := strings.LastIndexByte(content[:pos], '\n') + 1
	if !atLineHead(content[lineStart:pos]) {
		return 0, false
	}
	lineEnd := lineEndAt(content, pos)
	base := indentWidth(content[lineStart:lineEnd])
	end := lineEnd
	first := true

	for i := lineEnd + 1; i < len(content); {
		le := lineEndAt(content, i)
		line := content[i:le]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			first = false
			i = le + 1
			continue
		}

		indent := indentWidth(line)
		switch {
		case indent > base:
			end = le
		case indent == base && first && strings.HasPrefix(trimmed, "{"):
			end = le
		case indent == base && isCloser(trimmed):
			end = le
			if !reopens(trimmed) {
				return trimCR(content, end), true
			}
		default:
			return trimCR(content, end), true
		}
		first = false
		i = le + 1
	}
	return trimCR(content, end), true
}

func atLineHead(prefix string) bool {
	for _, word := range strings.Fields(prefix) {
		if _, ok := lineHeadModifiers[word]; !ok {
			return false
		}
	}
	return true
}

func lineEndAt(content string, pos int) int {
	if i := strings.IndexByte(content[pos:], '\n'); i >= 0 {
		return pos + i
	}
	return len(content)
}

// indentWidth counts leading whitespace columns, a tab being four.
func indentWidth(line string) int {
	w := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ' ':
			w++
		case '\t':
			w += 4
		default:
			return w
		}
	}
	return w
}

var closerWords = []string{"end", "fi", "done", "esac"}

func isCloser(trimmed string) bool {
	switch trimmed[0] {
	case '}', ')', ']':
		return true
	}
	for _, w := range closerWords {
		if strings.HasPrefix(trimmed, w) && (len(trimmed) == len(w) || !isWordByte(trimmed[len(w)])) {
			return true
		}
	}
	return false
}

func reopens(trimmed string) bool {
	switch trimmed[len(trimmed)-1] {
	case '{', '(', '[', ':':
		return true
	}
	return false
}

func trimCR(content string, end int) int {
	if end > 0 && content[end-1] == '\r' {
		return end - 1
	}
	return end
}
