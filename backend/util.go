package backend

import (
	"html/template"
	"strconv"
	"time"

	"github.com/icza/gox/timex"
	"github.com/mkranz/taxograph/util"
	"gitlab.com/golang-commonmark/markdown"
)

// raw HTML is disabled because descriptions are untrusted input
var markdownParser = markdown.New(markdown.HTML(false), markdown.Linkify(true), markdown.Typographer(true), markdown.MaxNesting(10))

// RenderMarkdown renders a record description to HTML.
func RenderMarkdown(description string) template.HTML {
	return template.HTML(markdownParser.RenderToString([]byte(description)))
}

// ExcerptMarkdown renders a record description and reduces it to plain text.
func ExcerptMarkdown(description string, maxRunes int) string {
	return util.Excerpt(string(RenderMarkdown(description)), maxRunes)
}

func FormatTs(ts int64) string {
	// ignores the user timezone
	return time.Unix(ts, 0).Format("_2.1.2006 15:04:05")
}

// LastSeen humanizes the time since the given timestamp, with the two
// largest non-zero units.
func LastSeen(t time.Time) string {

	year, month, day, hour, min, sec := timex.Diff(t, time.Now())

	switch {
	case year > 0:
		return plural(year, "year") + " " + plural(month, "month") + " ago"
	case month > 0:
		return plural(month, "month") + " " + plural(day, "day") + " ago"
	case day > 0:
		return plural(day, "day") + " " + plural(hour, "hour") + " ago"
	case hour > 0:
		return plural(hour, "hour") + " " + plural(min, "minute") + " ago"
	case min > 0:
		return plural(min, "minute") + " ago"
	case sec > 0:
		return plural(sec, "second") + " ago"
	default:
		return "just now"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}
