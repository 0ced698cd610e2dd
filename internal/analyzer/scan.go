package analyzer

import (
	"regexp"
	"strings"
)

// fileScan is the shared line-oriented view all detectors read. It is built
// once per analyze call so every detector sees the same loop-depth picture.
type fileScan struct {
	content string
	lines   []string
	// depth[i] is the number of loops enclosing line i+1, counting a loop
	// head line as inside its own loop.
	depth []int
	loops []loopSpan
}

// loopSpan is one loop's extent in the file, head and end inclusive.
type loopSpan struct {
	Head          int // 1-based line of the loop head
	End           int // 1-based line where the loop body closes
	Unconditional bool
	HasBreak      bool
}

var (
	loopHeadRe = regexp.MustCompile(`\bfor\s*\(|\bfor\s+\w+\s+(in|of)\b|\bwhile\s*\(|\.(forEach|map|filter|reduce)\s*\(`)
	// while(true) / while (1) / for(;;)
	unconditionalLoopRe = regexp.MustCompile(`while\s*\(\s*(true|1)\s*\)|for\s*\(\s*;\s*;\s*\)`)
	breakRe             = regexp.MustCompile(`\bbreak\b`)
)

type openLoop struct {
	idx     int // index into loops
	balance int
	sawOpen bool
}

// scanFile walks the file once, tracking loop extents by net brace balance.
// Nested loops stack; a loop closes when its balance returns to zero after
// having opened.
func scanFile(content string) *fileScan {
	lines := strings.Split(content, "\n")
	s := &fileScan{
		content: content,
		lines:   lines,
		depth:   make([]int, len(lines)),
	}
	var stack []*openLoop
	for i, line := range lines {
		if loopHeadRe.MatchString(line) {
			s.loops = append(s.loops, loopSpan{
				Head:          i + 1,
				End:           i + 1,
				Unconditional: unconditionalLoopRe.MatchString(line),
			})
			stack = append(stack, &openLoop{idx: len(s.loops) - 1})
		}
		s.depth[i] = len(stack)
		// break binds to the innermost enclosing loop
		if breakRe.MatchString(line) && len(stack) > 0 {
			s.loops[stack[len(stack)-1].idx].HasBreak = true
		}
		delta := strings.Count(line, "{") - strings.Count(line, "}")
		for _, l := range stack {
			l.balance += delta
			if l.balance > 0 {
				l.sawOpen = true
			}
		}
		// Close loops whose body ended on this line, innermost first.
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.sawOpen && top.balance <= 0 {
				s.loops[top.idx].End = i + 1
				stack = stack[:len(stack)-1]
				continue
			}
			// A loop that never opened a brace has a single-statement
			// body: it closes on the line after its head.
			if !top.sawOpen && s.loops[top.idx].Head < i+1 {
				s.loops[top.idx].End = i + 1
				stack = stack[:len(stack)-1]
				continue
			}
			break
		}
	}
	// Anything still open runs to end of file.
	for _, l := range stack {
		s.loops[l.idx].End = len(lines)
	}
	return s
}

// inLoop reports whether the given 1-based line sits inside any loop.
func (s *fileScan) inLoop(line int) bool {
	return line >= 1 && line <= len(s.depth) && s.depth[line-1] > 0
}

// matchesAnywhere reports whether the pattern matches the whole file.
func (s *fileScan) matchesAnywhere(re *regexp.Regexp) bool {
	return re.MatchString(s.content)
}
