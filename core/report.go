// Copyright 2025 Pruqanda Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "fmt"

// Skip records a unit of work dropped by a fail-open pipeline stage.
type Skip struct {
	// Unit identifies the dropped unit: a batch label, a document id,
	// or a user name, depending on the stage.
	Unit string

	// Reason is a human-readable explanation of why the unit was dropped.
	Reason string
}

// Report aggregates the outcome of a best-effort pipeline stage.
// Fail-open stages return a Report instead of an error so that partial
// failure stays inspectable without aborting the run.
//
// Report is not safe for concurrent use; concurrent stages must serialize
// access themselves.
type Report struct {
	Completed int
	Skipped   []Skip
}

// Done records n successfully completed units.
func (r *Report) Done(n int) {
	r.Completed += n
}

// Drop records a dropped unit with its reason.
func (r *Report) Drop(unit, reason string) {
	r.Skipped = append(r.Skipped, Skip{Unit: unit, Reason: reason})
}

// Clean reports whether no units were dropped.
func (r *Report) Clean() bool {
	return len(r.Skipped) == 0
}

// Summary returns a one-line description of the report.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d completed, %d skipped", r.Completed, len(r.Skipped))
}
