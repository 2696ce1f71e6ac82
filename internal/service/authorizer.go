package service

import (
	"context"

	"lexio/internal/model"
)

// Workflow actions checked against the authorizer.
const (
	ActionSubmit          = "submit"
	ActionSubmitForReview = "submit_for_review"
	ActionApprove         = "approve"
	ActionReject          = "reject"
	ActionPublish         = "publish"
)

// Authorizer decides whether an actor may apply a workflow action to a
// translation. Policy evaluation lives outside this engine; every workflow
// operation consults it and aborts on false.
type Authorizer interface {
	CanTransition(ctx context.Context, actorID string, translation model.Translation, action string) (bool, error)
}

// AllowAllAuthorizer permits every transition. Default wiring for
// deployments that gate access at the transport layer instead.
type AllowAllAuthorizer struct{}

func (AllowAllAuthorizer) CanTransition(context.Context, string, model.Translation, string) (bool, error) {
	return true, nil
}
