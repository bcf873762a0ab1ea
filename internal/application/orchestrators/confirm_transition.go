package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"roster/internal/domain/cohort"
	"roster/internal/domain/dates"
	"roster/internal/domain/member"
	"roster/internal/domain/shared"
	"roster/internal/domain/transition"
)

// Authorizer is the external confirmation predicate for transitions.
type Authorizer interface {
	Verify(cohortID, secret string) bool
}

// TransitionMemberStore defines the member lookup the confirmation needs.
type TransitionMemberStore interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
}

// TransitionStore persists confirmed transitions.
type TransitionStore interface {
	Apply(ctx context.Context, t transition.Transition) error
}

// TransitionRecorder receives confirmed transitions (metrics).
type TransitionRecorder interface {
	TransitionConfirmed(from, to string)
}

// ConfirmTransitionInput carries input for the confirmation orchestrator.
type ConfirmTransitionInput struct {
	CohortID string // cohort the member is moving out of
	MemberID string
	Secret   string
	Today    time.Time
}

// ConfirmTransitionDeps holds dependencies for ConfirmTransition.
type ConfirmTransitionDeps struct {
	Registry        *cohort.Registry
	Authorizer      Authorizer
	MemberStore     TransitionMemberStore
	TransitionStore TransitionStore
	Recorder        TransitionRecorder // optional
	GenerateID      func() string      // optional: defaults to uuid
	Now             func() time.Time   // optional: defaults to time.Now
}

// ExecuteConfirmTransition moves a candidate into their suggested cohort.
// PRE: the caller holds the source cohort's secret
// POST: member pinned to the destination and the move logged, or nothing changed
// INVARIANT: the candidate is recomputed now; a stale proposal is rejected with ErrNotCandidate
func ExecuteConfirmTransition(ctx context.Context, input ConfirmTransitionInput, deps ConfirmTransitionDeps) (transition.Transition, error) {
	if input.MemberID == "" {
		return transition.Transition{}, shared.Invalid("transition", "Confirm", "member id is required")
	}
	if _, err := deps.Registry.IntervalOf(input.CohortID); err != nil {
		return transition.Transition{}, err
	}
	if deps.Authorizer == nil || !deps.Authorizer.Verify(input.CohortID, input.Secret) {
		slog.Warn("transition_event", "event", "confirmation_denied", "cohort_id", input.CohortID, "member_id", input.MemberID)
		return transition.Transition{}, shared.NewError("transition", "Confirm", shared.ErrUnauthorized, "confirmation was not authorized")
	}

	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	today := input.Today
	if today.IsZero() {
		today = now()
	}
	today = dates.Civil(today)

	m, err := deps.MemberStore.GetByID(ctx, input.MemberID)
	if err != nil {
		return transition.Transition{}, err
	}
	current, err := m.EffectiveCohort(deps.Registry, today)
	if err != nil || current != input.CohortID {
		return transition.Transition{}, fmt.Errorf("%w: %s is not listed in %s", transition.ErrNotCandidate, m.ID, input.CohortID)
	}
	cand, ok, err := transition.Evaluate(deps.Registry, input.CohortID, m, today)
	if err != nil {
		return transition.Transition{}, err
	}
	if !ok {
		return transition.Transition{}, fmt.Errorf("%w: %s", transition.ErrNotCandidate, m.ID)
	}

	genID := uuid.NewString
	if deps.GenerateID != nil {
		genID = deps.GenerateID
	}
	t := transition.Transition{
		ID:           genID(),
		MemberID:     m.ID,
		FromCohortID: cand.CurrentCohortID,
		ToCohortID:   cand.SuggestedCohortID,
		Reason:       transition.ReasonAgedOut,
		CreatedAt:    now().UTC(),
	}
	if err := t.Validate(); err != nil {
		return transition.Transition{}, err
	}
	if err := deps.TransitionStore.Apply(ctx, t); err != nil {
		return transition.Transition{}, err
	}
	if deps.Recorder != nil {
		deps.Recorder.TransitionConfirmed(t.FromCohortID, t.ToCohortID)
	}
	slog.Info("transition_event", "event", "transition_confirmed", "member_id", t.MemberID, "from", t.FromCohortID, "to", t.ToCohortID, "age", cand.Age)
	return t, nil
}
