package timeparse

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var ErrUnrecognized = errors.New("could not recognize time")

var layouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04",
}

// Parser reads tournament start times such as "2026-05-01 18:30",
// "tomorrow at 6pm" or "next friday 19:00".
type Parser struct {
	w *when.Parser
}

func New() *Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Parser{w: w}
}

// Parse interprets input in loc relative to now and returns the time in UTC.
func (p *Parser) Parse(input string, now time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, ErrUnrecognized
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, input, loc); err == nil {
			return t.UTC(), nil
		}
	}

	r, err := p.w.Parse(strings.ToLower(input), now.In(loc))
	if err != nil {
		slog.Warn("natural language time parsing failed", "input", input, "error", err)
		return time.Time{}, fmt.Errorf("%w: %s", ErrUnrecognized, input)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrUnrecognized, input)
	}
	return r.Time.UTC(), nil
}
