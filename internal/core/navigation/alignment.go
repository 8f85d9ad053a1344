package navigation

import (
	"math"

	"github.com/samirrijal/stepwise/internal/core/domain"
	"github.com/samirrijal/stepwise/internal/pkg/geospatial"
)

// Classify decides alignment from the raw difference between heading and
// bearing. The second clause catches the wraparound at 0°/360°.
func Classify(heading, bearing, threshold float64) bool {
	difference := math.Abs(heading - bearing)
	return difference <= threshold || difference >= 360-threshold
}

// TurnDirectionNaive suggests a turn by comparing heading and bearing as
// plain numbers. It is not circularly correct: heading 359° and bearing 1°
// suggests a left turn although a small right turn is shorter. Clients and
// recorded traces depend on this behavior, so it is kept as is.
func TurnDirectionNaive(heading, bearing float64) domain.TurnDirection {
	if heading > bearing {
		return domain.TurnLeft
	}
	return domain.TurnRight
}

// StepEstimate converts a distance into a step count.
func StepEstimate(distance, stepLength, paceScale float64) int {
	return int(math.Round(distance / stepLength * paceScale))
}

// Assessment is the outcome of the latest alignment evaluation.
type Assessment struct {
	Aligned  bool
	Turn     domain.TurnDirection
	Bearing  float64
	Distance float64
}

type alignState int

const (
	alignUnknown alignState = iota
	alignAligned
	alignMisaligned
)

// AlignmentEngine classifies the walker against the current target and
// decides which updates are worth announcing.
//
// "Aligned" is announced once per target: a latch is set on the first aligned
// evaluation and cleared only by Retarget. A misaligned update is announced
// when the walker turns away or the suggested direction flips.
type AlignmentEngine struct {
	threshold  float64
	stepLength float64
	paceScale  float64

	latched  bool
	state    alignState
	lastTurn domain.TurnDirection
	last     Assessment
}

// NewAlignmentEngine creates an engine from the session tuning.
func NewAlignmentEngine(t Tuning) *AlignmentEngine {
	t = t.withDefaults()
	return &AlignmentEngine{
		threshold:  t.AlignmentThreshold,
		stepLength: t.StepLength,
		paceScale:  t.PaceScale,
	}
}

// Evaluate classifies heading against the bearing from position to target
// and returns an alignment event or NoOp.
func (e *AlignmentEngine) Evaluate(position domain.Coordinate, heading float64, target domain.Coordinate) domain.Event {
	bearing := BearingDegrees(position, target)
	distance := DistanceMeters(position, target)
	aligned := Classify(heading, bearing, e.threshold)

	e.last = Assessment{Aligned: aligned, Bearing: bearing, Distance: distance}

	update := &domain.AlignmentUpdate{
		Aligned:  aligned,
		Bearing:  bearing,
		Compass:  geospatial.CompassDirection(bearing),
		Distance: distance,
	}

	if aligned {
		e.state = alignAligned
		e.lastTurn = domain.TurnNone
		if e.latched {
			return domain.NoOp()
		}
		e.latched = true
		steps := StepEstimate(distance, e.stepLength, e.paceScale)
		update.StepEstimate = &steps
		return domain.Event{Kind: domain.EventAlignment, Alignment: update}
	}

	turn := TurnDirectionNaive(heading, bearing)
	e.last.Turn = turn
	if e.state == alignMisaligned && turn == e.lastTurn {
		return domain.NoOp()
	}
	e.state = alignMisaligned
	e.lastTurn = turn
	update.TurnDirection = turn
	return domain.Event{Kind: domain.EventAlignment, Alignment: update}
}

// Retarget clears the latch and announcement history after the target
// waypoint changes.
func (e *AlignmentEngine) Retarget() {
	e.latched = false
	e.state = alignUnknown
	e.lastTurn = domain.TurnNone
	e.last = Assessment{}
}

// Last returns the most recent assessment.
func (e *AlignmentEngine) Last() Assessment { return e.last }

// Latched reports whether "aligned" was already announced for this target.
func (e *AlignmentEngine) Latched() bool { return e.latched }
