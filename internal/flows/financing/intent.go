package financing

import "nova-client/internal/models"

type IntentKind int

const (
	IntentNone IntentKind = iota
	// IntentPayFee opens the fee dialog for the application awaiting its fee.
	IntentPayFee
)

// Intent is a one-shot instruction carried into the financing view, such
// as the redirect after the last contract is signed. It dispatches at most
// once.
type Intent struct {
	Kind     IntentKind
	consumed bool
}

func NewIntent(kind IntentKind) *Intent {
	return &Intent{Kind: kind}
}

func (i *Intent) Consumed() bool {
	return i == nil || i.consumed
}

// FeeDialog is the fee payment prompt for one application.
type FeeDialog struct {
	Application models.FinancingApplication
}

// Enter applies intent to the current list and consumes it, whether or
// not an application was found. Call Refresh first.
func (c *Coordinator) Enter(intent *Intent) (*FeeDialog, bool) {
	if intent.Consumed() {
		return nil, false
	}
	intent.consumed = true
	if intent.Kind != IntentPayFee {
		return nil, false
	}
	for _, app := range c.Applications() {
		if app.Status.Is(models.StatusPendingFee) || app.Status.Is(models.StatusSigned) {
			return &FeeDialog{Application: app}, true
		}
	}
	c.log.Debug("no application awaiting fee", nil)
	return nil, false
}
