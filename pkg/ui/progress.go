package ui

import (
	"fmt"
	"time"

	"frienddump/pkg/dumper"
)

// DumpTracker prints dump progress reports as a single updating line
type DumpTracker struct {
	Main        int
	Unseparated int
	Processed   int
	Total       int
	StartTime   time.Time
	quiet       bool
}

// NewDumpTracker creates a tracker; a quiet tracker only keeps counts
func NewDumpTracker(quiet bool) *DumpTracker {
	return &DumpTracker{
		StartTime: time.Now(),
		quiet:     quiet,
	}
}

// Report consumes one progress event. It is passed as the dump's OnProgress callback.
func (dt *DumpTracker) Report(p dumper.Progress) {
	switch p.Stage {
	case dumper.StageCandidates:
		dt.Total = p.Candidates
		if !dt.quiet {
			fmt.Fprintf(out, "%s %s\n", Magenta("[SCANNING]"), p.String())
		}
	case dumper.StageRequest:
		dt.Total = p.Total
		if !dt.quiet {
			fmt.Fprintf(out, "\r%s %s %s\n", Dim("[REQUEST]"), p.String(), Dim(fmt.Sprintf("(%d/%d)", p.Index+1, p.Total)))
		}
	case dumper.StageExtracted:
		dt.Main = p.Main
		dt.Unseparated = p.Unseparated
		dt.Processed = p.Index + 1
		dt.Total = p.Total
		if !dt.quiet {
			dt.PrintProgress()
		}
	}
}

// GetElapsedTime returns the elapsed time since tracking started
func (dt *DumpTracker) GetElapsedTime() time.Duration {
	return time.Since(dt.StartTime)
}

// GetRate returns the average number of processed targets per minute
func (dt *DumpTracker) GetRate() float64 {
	elapsed := dt.GetElapsedTime().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(dt.Processed) / elapsed
}

// PrintProgress prints the current progress status
func (dt *DumpTracker) PrintProgress() {
	fmt.Fprintf(out, "\r%s %d/%d targets | main: %d | unsep: %d",
		Green("[EXTRACTED]"),
		dt.Processed,
		dt.Total,
		dt.Main,
		dt.Unseparated)
}

// Finish terminates the progress line and prints a summary
func (dt *DumpTracker) Finish() {
	if dt.quiet {
		return
	}
	if dt.Processed > 0 {
		fmt.Fprintln(out)
	}
	PrintInfo("Elapsed", dt.GetElapsedTime().Round(time.Second).String())
}
