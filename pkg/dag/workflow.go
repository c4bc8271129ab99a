// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package dag

import (
	"go.temporal.io/sdk/workflow"
)

// PlanWorkflowName is the name PlanWorkflow is registered under.
const PlanWorkflowName = "PlanWorkflow"

// PlanWorkflow evaluates an arithmetic plan durably. Invalid plans fail the
// workflow immediately; absent results are part of a successful outcome.
func PlanWorkflow(ctx workflow.Context, input WorkflowInput) (WorkflowResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting plan workflow", "planID", input.PlanID, "steps", len(input.Steps))

	state, err := NewEngine().Run(ctx, input.Steps)
	if err != nil {
		logger.Error("Plan failed", "planID", input.PlanID, "error", err)
		return WorkflowResult{}, err
	}

	logger.Info("Plan succeeded", "planID", input.PlanID)
	return state.Result(), nil
}
