// Package subtitle parses SubRip (.srt) files into timed cues used for
// in-player word lookups.
package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Cue is one subtitle line with its display window in seconds.
type Cue struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

var timingPattern = regexp.MustCompile(
	`^(\d{2}):(\d{2}):(\d{2})[,.](\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2})[,.](\d{3})`)

// Parse reads an SRT document. Blocks without a valid timing line are
// skipped rather than failing the whole file, since subtitles in the wild
// are frequently sloppy.
func Parse(r io.Reader) ([]Cue, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var cues []Cue
	var current *Cue
	var textLines []string
	flush := func() {
		if current != nil {
			current.Text = strings.Join(textLines, "\n")
			if current.Text != "" {
				cues = append(cues, *current)
			}
		}
		current = nil
		textLines = nil
	}

	first := true
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if first {
			line = strings.TrimPrefix(line, "\uFEFF")
			first = false
		}

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if m := timingPattern.FindStringSubmatch(line); m != nil {
			flush()
			current = &Cue{Start: toSeconds(m[1:5]), End: toSeconds(m[5:9])}
			continue
		}
		if current == nil {
			// Sequence number or stray text before a timing line.
			continue
		}
		textLines = append(textLines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read subtitles: %w", err)
	}
	flush()
	return cues, nil
}

// CueAt returns the cue covering position (in seconds), or nil when nothing
// is on screen at that moment.
func CueAt(cues []Cue, position float64) *Cue {
	for i := range cues {
		if position >= cues[i].Start && position <= cues[i].End {
			return &cues[i]
		}
	}
	return nil
}

func toSeconds(parts []string) float64 {
	hours, _ := strconv.Atoi(parts[0])
	minutes, _ := strconv.Atoi(parts[1])
	seconds, _ := strconv.Atoi(parts[2])
	millis, _ := strconv.Atoi(parts[3])
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000
}
