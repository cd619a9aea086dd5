// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RunStatus is the outcome of one strip invocation.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run is one recorded strip invocation.
type Run struct {
	// ID is assigned by the history store.
	ID int64 `json:"id" yaml:"id"`

	Input  string `json:"input" yaml:"input"`
	Output string `json:"output" yaml:"output"`

	// Tool is the converter that performed the round trip.
	Tool string `json:"tool" yaml:"tool"`

	Status RunStatus `json:"status" yaml:"status"`

	// Error holds the failure message for failed runs.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// InputSHA256 is the hex digest of the input file, empty if it could not be read.
	InputSHA256 string `json:"input_sha256,omitempty" yaml:"input_sha256,omitempty"`

	Duration  time.Duration `json:"duration" yaml:"duration"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
}
