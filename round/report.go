package round

import "fmt"

// Report is the append-only log of user-visible game messages. Rejected
// actions add a line here and change nothing else.
type Report struct {
	lines []string
}

func NewReport() *Report {
	return &Report{}
}

func (r *Report) Printf(format string, args ...interface{}) {
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

func (r *Report) Lines() []string {
	return append([]string(nil), r.lines...)
}

func (r *Report) Len() int { return len(r.lines) }

// Tail returns the last n lines.
func (r *Report) Tail(n int) []string {
	if n >= len(r.lines) {
		return r.Lines()
	}
	return append([]string(nil), r.lines[len(r.lines)-n:]...)
}

// Last returns the most recent line, or "".
func (r *Report) Last() string {
	if len(r.lines) == 0 {
		return ""
	}
	return r.lines[len(r.lines)-1]
}
