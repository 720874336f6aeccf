package frontmatter

import (
	"strconv"
	"strings"
)

// DefaultScrapeWindow is how many leading body lines Scrape examines.
// Exported page properties appear directly under the top heading, so a
// short window avoids mistaking ordinary prose for metadata.
const DefaultScrapeWindow = 15

// Scrape reads inline "Key: value" property lines from the top of a note
// body and returns them as a Record. The body is never modified; scraped
// lines stay in place and the caller decides what to do with the copy.
func Scrape(body string, window int) Record {
	if window <= 0 {
		window = DefaultScrapeWindow
	}

	var r Record
	fenced := false
	seen := 0
	for line := range strings.Lines(body) {
		if seen >= window {
			break
		}
		seen++

		trimmed := strings.TrimRight(line, "\r\n")
		if strings.HasPrefix(strings.TrimSpace(trimmed), "```") {
			fenced = !fenced
			continue
		}
		if fenced {
			continue
		}

		key, value, ok := strings.Cut(trimmed, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "status":
			r.Status = value
		case "owner":
			r.Owner = value
		case "dates", "date":
			r.Dates = value
		case "priority":
			r.Priority = value
		case "completion":
			if f, ok := parseCompletion(value); ok {
				r.Completion = &f
			}
		case "summary":
			r.Summary = value
		}
	}
	return r
}

// parseCompletion accepts either a ratio ("0.5") or a percentage ("50%")
// and normalizes both to a ratio.
func parseCompletion(value string) (float64, bool) {
	percent := false
	if rest, found := strings.CutSuffix(value, "%"); found {
		percent = true
		value = strings.TrimSpace(rest)
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	if percent {
		f /= 100
	}
	return f, true
}
