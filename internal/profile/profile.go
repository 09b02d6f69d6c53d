// Package profile models declarative load profiles: ordered stages that
// drive a target concurrency level over time.
package profile

import (
	"fmt"
	"math"
	"time"
)

// Type identifies the load profile algorithm.
type Type string

const (
	TypeConstantVUs         Type = "constant_vus"
	TypeRampingVUs          Type = "ramping_vus"
	TypeConstantArrivalRate Type = "constant_arrival_rate"
	TypeRampingArrivalRate  Type = "ramping_arrival_rate"
	TypeSpike               Type = "spike"
)

// Stage is one time-boxed segment of a load profile. Target is the VU level
// to reach by the end of the stage.
type Stage struct {
	DurationSecs uint64 `mapstructure:"duration_secs" json:"duration_secs" yaml:"duration_secs"`
	Target       uint32 `mapstructure:"target" json:"target" yaml:"target"`
}

// Duration returns the stage duration as a time.Duration.
func (s Stage) Duration() time.Duration {
	return time.Duration(s.DurationSecs) * time.Second
}

// Profile is a declarative load profile.
type Profile struct {
	Type    Type    `mapstructure:"type" json:"type" yaml:"type"`
	Stages  []Stage `mapstructure:"stages" json:"stages" yaml:"stages"`
	Initial uint32  `mapstructure:"initial" json:"initial" yaml:"initial"`
}

// Validate checks the run-time invariants the engine depends on. Structural
// checks (enum membership, numeric ranges) belong to schema validation.
func (p Profile) Validate() error {
	if len(p.Stages) == 0 {
		return fmt.Errorf("load profile %q has no stages", p.Type)
	}
	for i, stage := range p.Stages {
		if stage.DurationSecs == 0 {
			return fmt.Errorf("load profile stage %d has zero duration", i)
		}
	}
	return nil
}

// TotalDuration returns the sum of all stage durations.
func (p Profile) TotalDuration() time.Duration {
	var total time.Duration
	for _, stage := range p.Stages {
		total += stage.Duration()
	}
	return total
}

// segment is one precomputed stretch of the target curve.
type segment struct {
	start    time.Duration
	duration time.Duration
	from     uint32
	to       uint32
}

// Plan is a compiled profile: a target level as a function of elapsed time.
type Plan struct {
	segments []segment
	duration time.Duration
	maxLevel uint32
}

// Compile turns a profile into an executable plan.
//
// constant_vus holds each stage's target flat for the stage duration.
// ramping_vus interpolates linearly from the previous level to the stage
// target. The arrival-rate types and spike do not implement genuine
// fixed-rate dispatch: constant_arrival_rate resolves to the constant
// algorithm and ramping_arrival_rate/spike resolve to the ramping one.
func Compile(p Profile) (*Plan, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	ramping := false
	switch p.Type {
	case TypeRampingVUs, TypeRampingArrivalRate, TypeSpike:
		ramping = true
	case TypeConstantVUs, TypeConstantArrivalRate, "":
		ramping = false
	default:
		return nil, fmt.Errorf("unknown load profile type %q", p.Type)
	}

	plan := &Plan{}
	var offset time.Duration
	level := p.Initial
	if level == 0 {
		level = 1
	}
	for _, stage := range p.Stages {
		seg := segment{
			start:    offset,
			duration: stage.Duration(),
			from:     level,
			to:       stage.Target,
		}
		if !ramping {
			seg.from = stage.Target
		}
		plan.appendSegment(seg)
		offset += seg.duration
		level = stage.Target
	}

	plan.duration = offset
	return plan, nil
}

func (p *Plan) appendSegment(seg segment) {
	p.segments = append(p.segments, seg)
	if seg.from > p.maxLevel {
		p.maxLevel = seg.from
	}
	if seg.to > p.maxLevel {
		p.maxLevel = seg.to
	}
}

// TargetAt returns the target VU level at the given elapsed time. The second
// return value is false once all stages have elapsed.
func (p *Plan) TargetAt(elapsed time.Duration) (int, bool) {
	if p == nil || len(p.segments) == 0 {
		return 0, false
	}
	if elapsed < 0 {
		elapsed = 0
	}
	for _, seg := range p.segments {
		end := seg.start + seg.duration
		if elapsed >= end {
			continue
		}
		if seg.from == seg.to {
			return int(seg.from), true
		}
		progress := float64(elapsed-seg.start) / float64(seg.duration)
		level := float64(seg.from) + (float64(seg.to)-float64(seg.from))*progress
		return int(math.Round(level)), true
	}
	return 0, false
}

// MaxLevel returns the highest target level the plan ever reaches.
func (p *Plan) MaxLevel() int {
	if p == nil {
		return 0
	}
	return int(p.maxLevel)
}

// TotalDuration returns the nominal duration of the whole plan.
func (p *Plan) TotalDuration() time.Duration {
	if p == nil {
		return 0
	}
	return p.duration
}
