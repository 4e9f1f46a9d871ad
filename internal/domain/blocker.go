// SPDX-License-Identifier: Apache-2.0

package domain

// BlockerReport describes why execution halted at a specific step. It is
// created by the remote orchestrator and cleared there once resolved.
type BlockerReport struct {
	StepID               string   `json:"step_id"`
	StepDescription      string   `json:"step_description"`
	BlockerType          string   `json:"blocker_type"`
	ErrorMessage         string   `json:"error_message"`
	AttemptedActions     []string `json:"attempted_actions,omitempty"`
	SuggestedResolutions []string `json:"suggested_resolutions,omitempty"`
}
