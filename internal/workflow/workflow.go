// Package workflow derives a scenario's review status from the states of its
// required work items and gates the approval actions built on it.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fizibilite/internal/logger"
	"fizibilite/internal/models"
)

// RequiredWorkIDs are the modules every scenario must have approved.
var RequiredWorkIDs = []string{
	"temel_bilgiler",
	"kapasite",
	"norm.ders_dagilimi",
	"ik.local_staff",
	"gelirler.unit_fee",
	"giderler.isletme",
}

// IsRequired reports whether workID is one of RequiredWorkIDs.
func IsRequired(workID string) bool {
	for _, id := range RequiredWorkIDs {
		if id == workID {
			return true
		}
	}
	return false
}

// GateError is a workflow action refused because of the scenario's state.
type GateError struct {
	Reason string
}

func (e *GateError) Error() string {
	return e.Reason
}

func gate(format string, args ...any) error {
	return &GateError{Reason: fmt.Sprintf(format, args...)}
}

// Resolve maps the states of the required work items, keyed by work id, to
// a scenario status. Items that are absent or not_started have no recorded
// state; other work ids are ignored.
func Resolve(states map[string]string) string {
	recorded, approved := 0, 0
	revision := false
	for _, id := range RequiredWorkIDs {
		switch states[id] {
		case "", models.WorkNotStarted:
			continue
		case models.WorkNeedsRevision:
			revision = true
		case models.WorkApproved:
			approved++
		}
		recorded++
	}
	switch {
	case recorded == 0:
		return models.StatusDraft
	case revision:
		return models.StatusRevisionRequested
	case approved == len(RequiredWorkIDs):
		return models.StatusApproved
	}
	return models.StatusInReview
}

// Locked reports whether a scenario is past the point where work item
// changes drive its status: sent for approval, or finally approved.
func Locked(status string, sentAt *time.Time) bool {
	return status == models.StatusSentForApproval || (status == models.StatusApproved && sentAt != nil)
}

func workStates(ctx context.Context, q models.Querier, scenarioID uuid.UUID) (map[string]string, error) {
	items, err := models.GetWorkItems(ctx, q, scenarioID)
	if err != nil {
		return nil, err
	}
	states := make(map[string]string, len(items))
	for _, w := range items {
		states[w.WorkID] = w.State
	}
	return states, nil
}

// ComputeScenarioWorkflowStatus recomputes the scenario's status from its
// work items and stores it when it differs. It returns the resulting status
// and whether it changed; the status is "" for an unknown scenario. A locked
// scenario keeps its status.
func ComputeScenarioWorkflowStatus(ctx context.Context, q models.Querier, scenarioID uuid.UUID) (string, bool, error) {
	current, sentAt, err := models.GetScenarioStatus(ctx, q, scenarioID)
	if errors.Is(err, models.ErrScenarioNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if Locked(current, sentAt) {
		return current, false, nil
	}

	states, err := workStates(ctx, q, scenarioID)
	if err != nil {
		return "", false, err
	}
	next := Resolve(states)
	if next == current {
		return current, false, nil
	}
	if err := models.UpdateScenarioStatus(ctx, q, scenarioID, next); err != nil {
		return "", false, err
	}
	logger.WithModule("workflow").WithFields(logrus.Fields{
		"scenario_id": scenarioID,
		"from":        current,
		"to":          next,
	}).Info("scenario status changed")
	return next, true, nil
}

// Work item actions.
const (
	ActionStart   = "start"
	ActionSubmit  = "submit"
	ActionApprove = "approve"
	ActionRevise  = "revise"
)

var actionStates = map[string]string{
	ActionStart:   models.WorkInProgress,
	ActionSubmit:  models.WorkSubmitted,
	ActionApprove: models.WorkApproved,
	ActionRevise:  models.WorkNeedsRevision,
}

// ApplyWorkItemAction moves one required work item and recomputes the
// scenario status. A revision needs a comment.
func ApplyWorkItemAction(ctx context.Context, q models.Querier, scenarioID uuid.UUID, workID, action, comment string) (*models.WorkItem, string, error) {
	state, ok := actionStates[action]
	if !ok {
		return nil, "", gate("unknown work item action %q", action)
	}
	if !IsRequired(workID) {
		return nil, "", gate("unknown work item %q", workID)
	}
	comment = strings.TrimSpace(comment)
	if action == ActionRevise && comment == "" {
		return nil, "", gate("a revision request needs a comment")
	}

	status, sentAt, err := models.GetScenarioStatus(ctx, q, scenarioID)
	if err != nil {
		return nil, "", err
	}
	if Locked(status, sentAt) {
		return nil, "", gate("scenario is %s and cannot be edited", status)
	}

	var c *string
	if comment != "" {
		c = &comment
	}
	item, err := models.SetWorkItemState(ctx, q, scenarioID, workID, state, c)
	if err != nil {
		return nil, "", err
	}
	next, _, err := ComputeScenarioWorkflowStatus(ctx, q, scenarioID)
	if err != nil {
		return nil, "", err
	}
	return item, next, nil
}

// SendForApproval moves an approved scenario to sent_for_approval. All
// required items must be approved and the scenario must not have been sent.
func SendForApproval(ctx context.Context, q models.Querier, scenarioID uuid.UUID) error {
	status, sentAt, err := models.GetScenarioStatus(ctx, q, scenarioID)
	if err != nil {
		return err
	}
	if sentAt != nil || status == models.StatusSentForApproval {
		return gate("scenario was already sent for approval")
	}

	states, err := workStates(ctx, q, scenarioID)
	if err != nil {
		return err
	}
	var pending []string
	for _, id := range RequiredWorkIDs {
		if states[id] != models.WorkApproved {
			pending = append(pending, id)
		}
	}
	if len(pending) > 0 {
		return gate("work items not approved: %s", strings.Join(pending, ", "))
	}
	if status != models.StatusApproved {
		return gate("scenario status is %s, not approved", status)
	}
	return models.UpdateScenarioStatus(ctx, q, scenarioID, models.StatusSentForApproval)
}

// FinalizeApproval is the admin sign-off: approved with sent_at set.
func FinalizeApproval(ctx context.Context, q models.Querier, scenarioID uuid.UUID, at time.Time) error {
	status, _, err := models.GetScenarioStatus(ctx, q, scenarioID)
	if err != nil {
		return err
	}
	if status != models.StatusSentForApproval {
		return gate("scenario status is %s, not sent for approval", status)
	}
	return models.SetScenarioSent(ctx, q, scenarioID, models.StatusApproved, &at)
}

// ReturnForRevision reopens a sent or finally approved scenario: the named
// work items are marked needs_revision with the comment, sent_at is cleared
// and the status is recomputed.
func ReturnForRevision(ctx context.Context, q models.Querier, scenarioID uuid.UUID, workIDs []string, comment string) (string, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return "", gate("a revision request needs a comment")
	}
	if len(workIDs) == 0 {
		return "", gate("name at least one work item to revise")
	}
	for _, id := range workIDs {
		if !IsRequired(id) {
			return "", gate("unknown work item %q", id)
		}
	}

	status, sentAt, err := models.GetScenarioStatus(ctx, q, scenarioID)
	if err != nil {
		return "", err
	}
	if !Locked(status, sentAt) {
		return "", gate("scenario status is %s; only sent or approved scenarios can be returned", status)
	}

	for _, id := range workIDs {
		if _, err := models.SetWorkItemState(ctx, q, scenarioID, id, models.WorkNeedsRevision, &comment); err != nil {
			return "", err
		}
	}
	if err := models.SetScenarioSent(ctx, q, scenarioID, models.StatusRevisionRequested, nil); err != nil {
		return "", err
	}
	return models.StatusRevisionRequested, nil
}
