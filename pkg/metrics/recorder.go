// Package metrics exposes counters for registry and pipeline activity.
//
// Components take a Recorder and default to NoopRecorder, so collection
// costs nothing unless a PrometheusRecorder is injected.
package metrics

import "time"

// RunStatus labels the outcome of one script pipeline run.
type RunStatus string

const (
	RunRendered RunStatus = "rendered"
	RunNoScript RunStatus = "no_script"
	RunNoOutput RunStatus = "no_output"
	RunFailed   RunStatus = "failed"
)

// Recorder receives observations from the registry and the script runner.
type Recorder interface {
	IncNodesCreated()
	IncChildrenSkipped(n int)
	ObserveLayoutPass(nodes int, d time.Duration)
	ObserveRun(status RunStatus, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) IncNodesCreated()                     {}
func (NoopRecorder) IncChildrenSkipped(int)               {}
func (NoopRecorder) ObserveLayoutPass(int, time.Duration) {}
func (NoopRecorder) ObserveRun(RunStatus, time.Duration)  {}
