package deploy

import (
	"time"
)

// Type distinguishes the kind of deployment invocation.
type Type int

const (
	// TypeApply indicates a real apply against the cluster.
	TypeApply Type = iota
	// TypeDryRun indicates a server-side dry run.
	TypeDryRun
)

// Output is the outcome of one deployment invocation.
type Output struct {
	Timestamp time.Time
	Error     error
	Stdout    string
	Stderr    string
	Type      Type
}

// NewOutput creates a new [Output] timestamped with the current time.
func NewOutput(t Type, opts ...OutputOpt) Output {
	o := &Output{
		Type:      t,
		Timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(o)
	}

	return *o
}

type OutputOpt func(*Output)

// WithError sets the error for the output.
func WithError(err error) OutputOpt {
	return func(o *Output) {
		o.Error = err
	}
}

// Event represents an event related to deployment execution.
type Event any

type (
	// EventStart indicates that a deployment has started.
	EventStart Type

	// EventEnd indicates that a deployment has ended. It carries the output,
	// which may hold an error if the deployment failed.
	EventEnd Output
)
