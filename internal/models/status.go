package models

import (
	"encoding/json"
	"strings"
)

// Status is the server-reported state of a financing application. The
// zero value is StatusUnknown so a missing or unrecognised status never
// masquerades as a real one.
type Status int

const (
	StatusUnknown Status = iota
	StatusDraft
	StatusPendingSignature
	StatusSigned
	StatusPendingFee
	StatusFeePaid
	StatusUnderReview
	StatusApproved
	StatusActive
	StatusCompleted
	StatusRejected
	StatusCancelled
)

// Action is the single next step offered to the user for an application.
type Action int

const (
	ActionNone Action = iota
	ActionSignContract
	ActionPayFee
	ActionMakePayment
	ActionStartNew
)

func (a Action) String() string {
	switch a {
	case ActionSignContract:
		return "Sign Contract"
	case ActionPayFee:
		return "Pay Fee"
	case ActionMakePayment:
		return "Make a Payment"
	case ActionStartNew:
		return "Start New Application"
	}
	return ""
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// StatusDescriptor is one row of the status table.
type StatusDescriptor struct {
	Wire     string
	Label    string
	Action   Action
	Terminal bool
	// Stage orders the forward path; terminal branches use -1.
	Stage int
}

// statusTable is the only place status semantics live. Adding a status
// means adding a constant and a row here; TestStatusTableIsExhaustive
// fails otherwise.
var statusTable = map[Status]StatusDescriptor{
	StatusDraft:            {Wire: "draft", Label: "Draft", Action: ActionNone, Stage: 0},
	StatusPendingSignature: {Wire: "pending_signature", Label: "Pending Signature", Action: ActionSignContract, Stage: 1},
	StatusSigned:           {Wire: "signed", Label: "Signed", Action: ActionPayFee, Stage: 2},
	StatusPendingFee:       {Wire: "pending_fee", Label: "Pending Fee", Action: ActionPayFee, Stage: 2},
	StatusFeePaid:          {Wire: "fee_paid", Label: "Fee Paid", Action: ActionMakePayment, Stage: 3},
	StatusUnderReview:      {Wire: "under_review", Label: "Under Review", Action: ActionNone, Stage: 3},
	StatusApproved:         {Wire: "approved", Label: "Approved", Action: ActionMakePayment, Stage: 4},
	StatusActive:           {Wire: "active", Label: "Active", Action: ActionMakePayment, Stage: 5},
	StatusCompleted:        {Wire: "completed", Label: "Completed", Action: ActionNone, Terminal: true, Stage: 6},
	StatusRejected:         {Wire: "rejected", Label: "Rejected", Action: ActionStartNew, Terminal: true, Stage: -1},
	StatusCancelled:        {Wire: "cancelled", Label: "Cancelled", Action: ActionNone, Terminal: true, Stage: -1},
}

var statusByWire = func() map[string]Status {
	m := make(map[string]Status, len(statusTable))
	for s, d := range statusTable {
		m[d.Wire] = s
	}
	return m
}()

// ParseStatus maps a wire value to a Status; unrecognised values yield
// StatusUnknown.
func ParseStatus(wire string) Status {
	return statusByWire[wire]
}

// Descriptor returns the table row for s. Unknown statuses get no action.
func (s Status) Descriptor() StatusDescriptor {
	if d, ok := statusTable[s]; ok {
		return d
	}
	return StatusDescriptor{Wire: "", Label: "Unknown", Action: ActionNone, Stage: -1}
}

func (s Status) String() string { return s.Descriptor().Wire }

func (s Status) Label() string { return s.Descriptor().Label }

func (s Status) Action() Action { return s.Descriptor().Action }

func (s Status) IsTerminal() bool { return s.Descriptor().Terminal }

// IsPreActive reports whether the application has not reached active yet.
func (s Status) IsPreActive() bool {
	d := s.Descriptor()
	return d.Stage >= 0 && d.Stage < statusTable[StatusActive].Stage
}

// CanTransition reports whether moving from one server status to another
// respects the lifecycle: forward along the stages, or to rejected or
// cancelled from any pre-active state.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	if from.IsTerminal() {
		return false
	}
	if to == StatusRejected || to == StatusCancelled {
		return from.IsPreActive()
	}
	fd, td := from.Descriptor(), to.Descriptor()
	if fd.Stage < 0 || td.Stage < 0 {
		return false
	}
	return td.Stage >= fd.Stage
}

// ApplicationStatus keeps the raw wire value next to the parsed enum so
// an unrecognised status can still be displayed as the server sent it.
type ApplicationStatus struct {
	Status
	Raw string
}

func NewApplicationStatus(s Status) ApplicationStatus {
	return ApplicationStatus{Status: s, Raw: s.String()}
}

func (a ApplicationStatus) Is(s Status) bool {
	return a.Status == s
}

func (a ApplicationStatus) Label() string {
	if a.Status == StatusUnknown {
		return strings.ReplaceAll(a.Raw, "_", " ")
	}
	return a.Status.Label()
}

func (a ApplicationStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Raw)
}

func (a *ApplicationStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.Raw = raw
	a.Status = ParseStatus(raw)
	return nil
}

func (a ApplicationStatus) String() string {
	return a.Raw
}
