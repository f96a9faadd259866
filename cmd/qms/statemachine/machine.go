package statemachine

import (
	"fmt"
	"time"

	"github.com/forgeline/qms/common/models"
)

// Guard is one ordered precondition clause on a transition edge. Expression
// is CEL over `record` (the JSON form) and `facts` (derived approval and
// step state); Reason is the machine-readable code returned when the clause
// does not hold.
type Guard struct {
	Expression string
	Reason     string
}

// Edge is one allowed transition with its guard clauses, checked in order
type Edge struct {
	From   models.Status
	To     models.Status
	Guards []Guard
}

// ncrEdges: strictly linear, no skipping, no reopen from closed
var ncrEdges = []Edge{
	{From: models.StatusDraft, To: models.StatusOpen},
	{From: models.StatusOpen, To: models.NCRStatusUnderReview},
	{From: models.NCRStatusUnderReview, To: models.NCRStatusPendingDisposition},
	{From: models.NCRStatusPendingDisposition, To: models.StatusClosed, Guards: []Guard{
		{Expression: `facts.hasDisposition`, Reason: ReasonDispositionMissing},
		{Expression: `facts.approvalCount >= facts.requiredApprovals`, Reason: ReasonApprovalsMissing},
	}},
}

// mrbEdges: review flow forking to approved or rejected on the vote outcome
var mrbEdges = []Edge{
	{From: models.MRBStatusPendingReview, To: models.MRBStatusInReview},
	{From: models.MRBStatusInReview, To: models.MRBStatusPendingDisposition},
	{From: models.MRBStatusPendingDisposition, To: models.MRBStatusApproved, Guards: []Guard{
		{Expression: `facts.quorumMet`, Reason: ReasonQuorumNotMet},
		{Expression: `facts.outcome == "approve"`, Reason: ReasonQuorumNotMet},
		{Expression: `facts.hasDisposition`, Reason: ReasonDispositionMissing},
	}},
	{From: models.MRBStatusPendingDisposition, To: models.MRBStatusRejected, Guards: []Guard{
		{Expression: `facts.quorumMet`, Reason: ReasonQuorumNotMet},
		{Expression: `facts.outcome == "reject"`, Reason: ReasonQuorumNotMet},
		{Expression: `facts.hasDisposition`, Reason: ReasonDispositionMissing},
	}},
	{From: models.MRBStatusApproved, To: models.StatusClosed},
	{From: models.MRBStatusRejected, To: models.StatusClosed},
}

// capaEdges: the 8D flow; implementation must be complete before
// verification starts. cancelled edges are added for every non-terminal
// status below.
var capaEdges = []Edge{
	{From: models.StatusDraft, To: models.StatusOpen},
	{From: models.StatusOpen, To: models.CAPAStatusInProgress},
	{From: models.CAPAStatusInProgress, To: models.CAPAStatusPendingReview},
	{From: models.CAPAStatusPendingReview, To: models.CAPAStatusUnderInvestigation},
	{From: models.CAPAStatusUnderInvestigation, To: models.CAPAStatusImplementing},
	{From: models.CAPAStatusImplementing, To: models.CAPAStatusPendingVerification, Guards: []Guard{
		{Expression: `facts.d6Status == "completed" || facts.d6Status == "verified"`, Reason: ReasonStepIncomplete},
	}},
	{From: models.CAPAStatusPendingVerification, To: models.CAPAStatusCompleted},
	{From: models.CAPAStatusCompleted, To: models.CAPAStatusVerified},
	{From: models.CAPAStatusVerified, To: models.StatusClosed, Guards: []Guard{
		{Expression: `facts.pendingSteps == 0`, Reason: ReasonStepIncomplete},
	}},
}

// scarEdges: a response must be on file before review, and review must reach
// a verdict before closing
var scarEdges = []Edge{
	{From: models.StatusDraft, To: models.SCARStatusIssued},
	{From: models.SCARStatusIssued, To: models.SCARStatusSupplierResponse},
	{From: models.SCARStatusSupplierResponse, To: models.SCARStatusReview, Guards: []Guard{
		{Expression: `facts.hasSupplierResponse`, Reason: ReasonResponseMissing},
	}},
	{From: models.SCARStatusReview, To: models.StatusClosed, Guards: []Guard{
		{Expression: `facts.reviewStatus != "" && facts.reviewStatus != "pending_info"`, Reason: ReasonReviewPending},
	}},
}

var capaNonTerminal = []models.Status{
	models.StatusDraft,
	models.StatusOpen,
	models.CAPAStatusInProgress,
	models.CAPAStatusPendingReview,
	models.CAPAStatusUnderInvestigation,
	models.CAPAStatusImplementing,
	models.CAPAStatusPendingVerification,
	models.CAPAStatusCompleted,
	models.CAPAStatusVerified,
}

func init() {
	for _, from := range capaNonTerminal {
		capaEdges = append(capaEdges, Edge{From: from, To: models.CAPAStatusCancelled})
	}
}

var tables = map[models.ItemType][]Edge{
	models.ItemTypeNCR:  ncrEdges,
	models.ItemTypeMRB:  mrbEdges,
	models.ItemTypeCAPA: capaEdges,
	models.ItemTypeSCAR: scarEdges,
}

// Machine applies status transitions to quality records. It is the only
// component that writes the status field; everything else goes through it.
type Machine struct {
	evaluator            *Evaluator
	requiredNCRApprovers int
}

// NewMachine creates a transition engine. requiredNCRApprovers is the
// sign-off count an NCR disposition needs before closing.
func NewMachine(requiredNCRApprovers int) *Machine {
	return &Machine{
		evaluator:            NewEvaluator(),
		requiredNCRApprovers: requiredNCRApprovers,
	}
}

// Edges returns the transition table for an item type
func Edges(itemType models.ItemType) []Edge {
	return tables[itemType]
}

// CanTransition reports whether an edge exists in the table, ignoring guards
func CanTransition(itemType models.ItemType, from, to models.Status) bool {
	for _, edge := range tables[itemType] {
		if edge.From == from && edge.To == to {
			return true
		}
	}
	return false
}

// Transition moves a record to the target status. The record is mutated in
// place: status, updatedAt and any stamp fields (closedBy, closedDate). On
// failure nothing changes.
func (m *Machine) Transition(item models.Item, target models.Status, actor string, now time.Time) error {
	itemType := item.GetItemType()
	current := item.GetStatus()

	if models.IsTerminal(itemType, current) {
		return &TerminalStateError{ItemType: itemType, Number: item.GetNumber(), Status: current}
	}

	edge, found := findEdge(itemType, current, target)
	if !found {
		return &InvalidTransitionError{ItemType: itemType, From: current, To: target}
	}

	if len(edge.Guards) > 0 {
		record, err := models.ToMap(item)
		if err != nil {
			return err
		}
		facts := BuildFacts(item, m.requiredNCRApprovers)

		for _, guard := range edge.Guards {
			ok, err := m.evaluator.Evaluate(guard.Expression, record, facts)
			if err != nil {
				return fmt.Errorf("guard evaluation failed on %s %s -> %s: %w", itemType, current, target, err)
			}
			if !ok {
				return &GuardError{ItemType: itemType, From: current, To: target, Reason: guard.Reason}
			}
		}
	}

	item.SetStatus(target)
	item.Touch(now)
	applyStamps(item, target, actor, now)
	return nil
}

func findEdge(itemType models.ItemType, from, to models.Status) (Edge, bool) {
	for _, edge := range tables[itemType] {
		if edge.From == from && edge.To == to {
			return edge, true
		}
	}
	return Edge{}, false
}

// applyStamps records who drove a record into a terminal status and when
func applyStamps(item models.Item, target models.Status, actor string, now time.Time) {
	if !models.IsTerminal(item.GetItemType(), target) {
		return
	}

	switch record := item.(type) {
	case *models.NCR:
		record.ClosedBy = actor
		record.ClosedDate = &now
	case *models.MRB:
		record.ClosedBy = actor
		record.ClosedDate = &now
	case *models.CAPA:
		record.ClosedBy = actor
		record.ClosedDate = &now
	case *models.SCAR:
		record.ClosedBy = actor
		record.ClosedDate = &now
	}
}
