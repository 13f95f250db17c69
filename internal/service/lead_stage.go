package service

import (
	"fmt"

	"github.com/spec-kit/crm-service/internal/config"
	"github.com/spec-kit/crm-service/internal/domain"
)

// StagePolicy decides whether a lead may move between two distinct stages.
type StagePolicy interface {
	Allow(from, to domain.LeadStage) error
}

// NewStagePolicy returns the policy configured by name, defaulting to permissive.
func NewStagePolicy(name string) StagePolicy {
	if name == config.StagePolicyForwardOnly {
		return ForwardOnlyStagePolicy{}
	}
	return PermissiveStagePolicy{}
}

// PermissiveStagePolicy allows any pipeline move, including backwards and
// skipping stages. Cancelled is terminal and cannot be entered from closed.
type PermissiveStagePolicy struct{}

func (PermissiveStagePolicy) Allow(from, to domain.LeadStage) error {
	return checkCancellation(from, to)
}

// ForwardOnlyStagePolicy additionally requires pipeline moves to go forward.
type ForwardOnlyStagePolicy struct{}

func (ForwardOnlyStagePolicy) Allow(from, to domain.LeadStage) error {
	if err := checkCancellation(from, to); err != nil {
		return err
	}
	if to == domain.LeadStageCancelled {
		return nil
	}
	if domain.PipelineIndex(to) <= domain.PipelineIndex(from) {
		return fmt.Errorf("stage cannot move back from %s to %s", from, to)
	}
	return nil
}

func checkCancellation(from, to domain.LeadStage) error {
	if from == domain.LeadStageCancelled {
		return fmt.Errorf("cancelled lead cannot move to %s", to)
	}
	if to == domain.LeadStageCancelled && from == domain.LeadStageClosed {
		return fmt.Errorf("closed lead cannot be cancelled")
	}
	return nil
}
