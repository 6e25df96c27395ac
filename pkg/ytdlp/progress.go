package ytdlp

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	percentPattern     = regexp.MustCompile(`(\d+\.?\d*)%`)
	destinationPattern = regexp.MustCompile(`\[download\] Destination: (.+)`)
	alreadyPattern     = regexp.MustCompile(`\[download\] (.+) has already been downloaded`)
	mergerPattern      = regexp.MustCompile(`\[Merger\] Merging formats into "(.+)"`)
)

// ProgressLine is what a single output line says about the download.
type ProgressLine struct {
	// Percent is set when HasPercent is true.
	Percent    float64
	HasPercent bool
	// Filename is the output file the line names, if any.
	Filename string
}

// ParseProgressLine extracts a percentage or an output file name from one
// line of `--newline --progress` output. Lines naming a file are not read for
// a percentage, since titles may contain one.
func ParseProgressLine(line string) ProgressLine {
	for _, p := range []*regexp.Regexp{mergerPattern, alreadyPattern, destinationPattern} {
		if m := p.FindStringSubmatch(line); m != nil {
			return ProgressLine{Filename: strings.TrimSpace(m[1])}
		}
	}

	if m := percentPattern.FindStringSubmatch(line); m != nil {
		if pct, err := strconv.ParseFloat(m[1], 64); err == nil {
			return ProgressLine{Percent: pct, HasPercent: true}
		}
	}
	return ProgressLine{}
}
