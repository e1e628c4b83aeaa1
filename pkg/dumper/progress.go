package dumper

import "fmt"

// Stage identifies what a Progress report describes
type Stage int

const (
	// StageCandidates reports the size of the phase-one candidate union
	StageCandidates Stage = iota
	// StageRequest reports a target about to be requested
	StageRequest
	// StageExtracted reports cumulative counts after a target was processed
	StageExtracted
)

func (s Stage) String() string {
	switch s {
	case StageCandidates:
		return "candidates"
	case StageRequest:
		return "request"
	case StageExtracted:
		return "extracted"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Progress is an informational report emitted during a dump
type Progress struct {
	Stage       Stage
	Candidates  int
	Target      string
	Index       int
	Total       int
	Main        int
	Unseparated int
}

func (p Progress) String() string {
	switch p.Stage {
	case StageCandidates:
		return fmt.Sprintf("Found %d friends to process", p.Candidates)
	case StageRequest:
		return fmt.Sprintf("Requesting: %s", p.Target)
	default:
		return fmt.Sprintf("Extracted: %d main, %d unsep", p.Main, p.Unseparated)
	}
}
