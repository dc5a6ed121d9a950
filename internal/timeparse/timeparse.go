// Package timeparse parses the free-text CAD timestamps carried on call
// records. The export format is MM/DD/YY HH:MM:SS, occasionally with a
// corrupted seconds field (":99") that is normalized to ":59" before parsing.
// This is a known data-quality workaround for the upstream export, not a
// general timestamp-inference layer: anything that still fails to parse is
// reported to the caller, which drops the call from compliance denominators.
package timeparse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layouts accepted for call timestamps, tried in order. The two-digit-year
// form is what the CAD export actually produces; the rest cover manual edits.
var layouts = []string{
	"01/02/06 15:04:05",
	"01/02/2006 15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ErrUnparseable marks a timestamp that could not be interpreted even after
// normalization.
var ErrUnparseable = errors.New("unparseable timestamp")

// Parse interprets a free-text call timestamp, applying the seconds
// normalization first. The zone is UTC; the export carries no offset.
func Parse(raw string) (time.Time, error) {
	s := normalizeSeconds(strings.TrimSpace(raw))
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrUnparseable)
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseable, raw)
}

// ResponseMinutes computes the response time between the queue and arrival
// timestamps in minutes. Either timestamp failing to parse, or an arrival
// before the queue time, is an error; callers exclude such calls from the
// compliance denominator entirely.
func ResponseMinutes(queueTime, arrivedTime string) (float64, error) {
	queued, err := Parse(queueTime)
	if err != nil {
		return 0, fmt.Errorf("call_in_que_time: %w", err)
	}
	arrived, err := Parse(arrivedTime)
	if err != nil {
		return 0, fmt.Errorf("arrived_at_scene_time: %w", err)
	}

	diff := arrived.Sub(queued)
	if diff < 0 {
		return 0, fmt.Errorf("%w: arrival %q precedes queue %q", ErrUnparseable, arrivedTime, queueTime)
	}
	return diff.Minutes(), nil
}

// normalizeSeconds clamps an out-of-range trailing seconds field to 59.
// The CAD export intermittently emits ":99" seconds.
func normalizeSeconds(s string) string {
	idx := strings.LastIndex(s, ":")
	if idx < 0 || idx == len(s)-1 {
		return s
	}
	secs := s[idx+1:]
	n, err := strconv.Atoi(secs)
	if err != nil || len(secs) != 2 {
		return s
	}
	if n > 59 {
		return s[:idx+1] + "59"
	}
	return s
}
