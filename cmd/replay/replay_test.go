package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/stepwise/internal/core/domain"
	"github.com/samirrijal/stepwise/internal/core/navigation"
)

func exitRoute() *domain.Route {
	return &domain.Route{
		ID:   "exit-b",
		Name: "Platform 2 to exit B",
		Waypoints: []domain.Waypoint{
			{Instruction: "Walk forward", StepHint: 30, Position: domain.Coordinate{Lat: 28.5121332, Lon: 77.409751}},
			{Instruction: "You have arrived", Position: domain.Coordinate{Lat: 28.5124, Lon: 77.409751}},
		},
	}
}

const walkTrace = `# heading before the first fix
{"heading": 0}

{"position": {"lat": 28.5121332, "lon": 77.409751}, "heading": 0}
{"position": {"lat": 100, "lon": 0}}
{"position": {"lat": 28.5124, "lon": 77.409751}}
`

func TestReadTrace(t *testing.T) {
	samples, err := readTrace(strings.NewReader(walkTrace))
	if err != nil {
		t.Fatalf("readTrace: %v", err)
	}
	if len(samples) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(samples))
	}
	if samples[0].Position != nil || samples[0].Heading == nil {
		t.Errorf("first sample should be heading only: %+v", samples[0])
	}

	_, err = readTrace(strings.NewReader("{\"heading\": 1}\nnot json\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected error on line 2, got %v", err)
	}
}

func TestReplay_WalksRoute(t *testing.T) {
	var out bytes.Buffer
	sum, err := replay(exitRoute(), navigation.DefaultTuning(), strings.NewReader(walkTrace), &out, options{})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	if sum.Samples != 4 || sum.Events != 3 {
		t.Errorf("expected 4 samples and 3 events, got %+v", sum)
	}
	if !sum.Progress.Complete || sum.Progress.CurrentIndex != 2 {
		t.Errorf("expected completed route, got %+v", sum.Progress)
	}

	text := out.String()
	for _, want := range []string{"advance", "alignment", "Aligned. Move forward", "rejected: invalid coordinate"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestReplay_Deterministic(t *testing.T) {
	run := func() string {
		var out bytes.Buffer
		if _, err := replay(exitRoute(), navigation.DefaultTuning(), strings.NewReader(walkTrace), &out, options{JSON: true, ShowSilent: true}); err != nil {
			t.Fatalf("replay: %v", err)
		}
		return out.String()
	}

	first, second := run(), run()
	if first != second {
		t.Fatalf("replays differ:\n%s\n---\n%s", first, second)
	}
	if !strings.Contains(first, `"kind":"advance"`) {
		t.Errorf("expected JSON events, got:\n%s", first)
	}
}

func TestReplay_InvalidRoute(t *testing.T) {
	_, err := replay(&domain.Route{ID: "empty"}, navigation.DefaultTuning(), strings.NewReader(walkTrace), &bytes.Buffer{}, options{})
	if !errors.Is(err, domain.ErrEmptyRoute) {
		t.Fatalf("expected ErrEmptyRoute, got %v", err)
	}
}

type recordingPublisher struct {
	sessions []string
	samples  []domain.Sample
	failAt   int
}

func (p *recordingPublisher) PublishSample(ctx context.Context, sessionID string, s domain.Sample) error {
	if p.failAt > 0 && len(p.samples)+1 == p.failAt {
		return errors.New("broker down")
	}
	p.sessions = append(p.sessions, sessionID)
	p.samples = append(p.samples, s)
	return nil
}

func TestPublish_Pacing(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	samples := []domain.Sample{
		{Timestamp: t0},
		{Timestamp: t0.Add(2 * time.Second)},
		{},
		{Timestamp: t0.Add(3 * time.Second)},
	}

	var slept []time.Duration
	pub := &recordingPublisher{}
	n, err := publish(context.Background(), pub, "s1", samples, 2, func(d time.Duration) { slept = append(slept, d) })
	if err != nil || n != 4 {
		t.Fatalf("publish = %d, %v", n, err)
	}
	if len(slept) != 2 || slept[0] != time.Second || slept[1] != 500*time.Millisecond {
		t.Errorf("unexpected sleeps %v", slept)
	}
	for _, s := range pub.sessions {
		if s != "s1" {
			t.Errorf("published to %q", s)
		}
	}
}

func TestPublish_StopsOnError(t *testing.T) {
	pub := &recordingPublisher{failAt: 2}
	n, err := publish(context.Background(), pub, "s1", make([]domain.Sample, 3), 1, func(time.Duration) {})
	if err == nil || n != 1 {
		t.Fatalf("expected failure after 1 sample, got %d, %v", n, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err = publish(ctx, &recordingPublisher{}, "s1", make([]domain.Sample, 3), 1, func(time.Duration) {})
	if !errors.Is(err, context.Canceled) || n != 0 {
		t.Fatalf("expected cancellation before first sample, got %d, %v", n, err)
	}
}

func TestRootCmd_RunStationTrace(t *testing.T) {
	runOnce := func() string {
		var out, errOut bytes.Buffer
		cmd := rootCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&errOut)
		cmd.SetArgs([]string{"run", "--json", "../../routes/station-exit.yaml", "../../routes/station-exit.trace.jsonl"})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("replay run: %v (%s)", err, errOut.String())
		}
		if !strings.Contains(errOut.String(), "samples") {
			t.Errorf("missing summary line: %q", errOut.String())
		}
		return out.String()
	}

	first := runOnce()
	if first == "" {
		t.Fatal("expected events for the station trace")
	}
	if second := runOnce(); second != first {
		t.Error("two runs of the same trace printed different events")
	}
}

func TestRootCmd_RejectsUnknownGeofenceMode(t *testing.T) {
	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "--geofence-mode", "pulse", "../../routes/station-exit.yaml", "../../routes/station-exit.trace.jsonl"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error for an unknown geofence mode")
	}
}
