package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/samirrijal/stepwise/internal/core/domain"
	"github.com/samirrijal/stepwise/internal/core/navigation"
	"github.com/samirrijal/stepwise/internal/core/phrase"
)

type options struct {
	JSON       bool
	ShowSilent bool
}

type summary struct {
	Samples  int
	Events   int
	Progress domain.Progress
}

// traceLine is one printed line in --json mode.
type traceLine struct {
	Line  int           `json:"line"`
	Event *domain.Event `json:"event,omitempty"`
	Text  string        `json:"text,omitempty"`
	Index int           `json:"index"`
}

// readTrace parses a JSON-lines trace of samples. Blank lines and lines
// starting with '#' are skipped.
func readTrace(r io.Reader) ([]domain.Sample, error) {
	var samples []domain.Sample
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 || b[0] == '#' {
			continue
		}
		var s domain.Sample
		if err := json.Unmarshal(b, &s); err != nil {
			return nil, fmt.Errorf("trace line %d: %w", line, err)
		}
		samples = append(samples, s)
	}
	return samples, sc.Err()
}

// replay runs every sample of the trace through a fresh session and writes
// one line per event. Invalid samples are reported and skipped, as a live
// session would.
func replay(route *domain.Route, tuning navigation.Tuning, trace io.Reader, w io.Writer, opts options) (summary, error) {
	var sum summary

	samples, err := readTrace(trace)
	if err != nil {
		return sum, err
	}

	session := navigation.NewSession(tuning)
	if err := session.Start(route.Waypoints, route.Geofences); err != nil {
		return sum, fmt.Errorf("route %s: %w", route.ID, err)
	}

	enc := json.NewEncoder(w)
	for i, s := range samples {
		sum.Samples++
		events, err := session.Ingest(s)
		if err != nil {
			fmt.Fprintf(w, "%4d  rejected: %v\n", i+1, err)
			continue
		}
		index := session.Progress().CurrentIndex

		if len(events) == 0 && opts.ShowSilent {
			if opts.JSON {
				if err := enc.Encode(traceLine{Line: i + 1, Index: index}); err != nil {
					return sum, err
				}
			} else {
				fmt.Fprintf(w, "%4d  -\n", i+1)
			}
		}

		for _, ev := range events {
			sum.Events++
			ev := ev
			if opts.JSON {
				if err := enc.Encode(traceLine{Line: i + 1, Event: &ev, Text: phrase.Event(ev), Index: index}); err != nil {
					return sum, err
				}
				continue
			}
			fmt.Fprintf(w, "%4d  %-9s  [%d]  %s\n", i+1, ev.Kind, index, phrase.Event(ev))
		}
	}

	sum.Progress = session.Progress()
	return sum, nil
}

// samplePublisher is the part of the NATS publisher used for playback.
type samplePublisher interface {
	PublishSample(ctx context.Context, sessionID string, sample domain.Sample) error
}

// publish sends samples in order, sleeping for the recorded gap between
// consecutive timestamps divided by speed. Samples without timestamps are
// sent back to back. It returns how many samples were sent.
func publish(ctx context.Context, pub samplePublisher, sessionID string, samples []domain.Sample, speed float64, sleep func(time.Duration)) (int, error) {
	var prev time.Time
	for i, s := range samples {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if !prev.IsZero() && !s.Timestamp.IsZero() {
			if gap := s.Timestamp.Sub(prev); gap > 0 {
				sleep(time.Duration(float64(gap) / speed))
			}
		}
		if !s.Timestamp.IsZero() {
			prev = s.Timestamp
		}
		if err := pub.PublishSample(ctx, sessionID, s); err != nil {
			return i, fmt.Errorf("sample %d: %w", i+1, err)
		}
	}
	return len(samples), nil
}
