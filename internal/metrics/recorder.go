// Package metrics provides observability hooks for builds and the
// development server. Components receive a Recorder by injection and
// default to NoopRecorder, so metrics never require nil checks and cost
// nothing when disabled.
package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFatal   ResultLabel = "fatal"
)

// Recorder defines the observability hooks used by the build orchestrator
// and the development server.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome string) // success | failed
	IncHTTPRequest(status int)
	IncReloadBroadcast()
	SetReloadClients(n int)
}

// NoopRecorder is the default Recorder when metrics are not configured.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncBuildOutcome(string)                     {}
func (NoopRecorder) IncHTTPRequest(int)                         {}
func (NoopRecorder) IncReloadBroadcast()                        {}
func (NoopRecorder) SetReloadClients(int)                       {}
