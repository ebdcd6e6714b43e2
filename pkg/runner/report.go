package runner

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/umputun/feedpick/pkg/domain"
	"github.com/umputun/feedpick/pkg/query"
)

// Report is the result of a run
type Report struct {
	Mode      Mode
	FeedTitle string
	Query     string
	Total     int              // items in the feed
	Matches   []domain.Item    // matched items in feed order
	Outcomes  []domain.Outcome // download mode only, in match order
	Output    string           // created feed file, create mode only
	Hint      string           // check mode only, command line to download matches
}

// Failed returns number of failed downloads
func (r *Report) Failed() int {
	res := 0
	for _, o := range r.Outcomes {
		if o.Failed() {
			res++
		}
	}
	return res
}

// Print writes human-readable report to w
func (r *Report) Print(w io.Writer) error {
	pw := &errWriter{w: w}
	bold := color.New(color.Bold).SprintFunc()
	pw.printf("%s: %d of %d items matched %s\n", bold(r.FeedTitle), len(r.Matches), r.Total, describeQuery(r.Query))

	switch r.Mode {
	case ModeCheck:
		dim := color.New(color.FgHiBlack).SprintFunc()
		for _, it := range r.Matches {
			pw.printf("%4d  %s  %s\n", it.Index, dateOf(it), it.Title)
			if desc := query.PlainText(it.Description); desc != "" {
				pw.printf("      %s\n", dim(truncate(desc, 120)))
			}
			if it.HasEnclosure() {
				pw.printf("      %s\n", enclosureLine(it.Enclosure))
			}
		}
		if r.Hint != "" && len(r.Matches) > 0 {
			pw.printf("\nto download run:\n  %s\n", r.Hint)
		}
	case ModeDownload:
		ok := color.New(color.FgGreen).SprintFunc()
		bad := color.New(color.FgRed).SprintFunc()
		var written int64
		for _, o := range r.Outcomes {
			if o.Failed() {
				pw.printf("%4d  %s  %s: %s\n", o.Index, bad("failed"), o.Title, o.Reason)
				continue
			}
			written += o.Size
			pw.printf("%4d  %s  %s -> %s (%s)\n", o.Index, ok("ok"), o.Title, o.Path, humanize.Bytes(uint64(max(o.Size, 0))))
		}
		summary := fmt.Sprintf("downloaded %d, failed %d, %s written", len(r.Outcomes)-r.Failed(), r.Failed(), humanize.Bytes(uint64(max(written, 0))))
		if r.Failed() > 0 {
			summary = bad(summary)
		}
		pw.printf("%s\n", summary)
	case ModeCreate:
		pw.printf("created %s with %d items\n", r.Output, len(r.Matches))
	}
	return pw.err
}

func describeQuery(q string) string {
	if q == "" {
		return "(no query, all items)"
	}
	return fmt.Sprintf("by %q", q)
}

func dateOf(it domain.Item) string {
	if !it.HasPublished() {
		return "----------"
	}
	return it.Published.Format("2006-01-02")
}

func enclosureLine(e domain.Enclosure) string {
	parts := []string{e.URL}
	if e.Type != "" {
		parts = append(parts, e.Type)
	}
	if e.Length > 0 {
		parts = append(parts, humanize.Bytes(uint64(e.Length)))
	}
	return strings.Join(parts, ", ")
}

// truncate cuts s to at most n runes, adding ellipsis
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// shellQuote quotes s for posix shell if it has anything besides safe characters
func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./:=@%+,", r))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// errWriter keeps the first write error
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
