// Package signing walks the user through every pending signature request.
// Fee payment is only offered once nothing is left to sign.
package signing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"nova-client/internal/common/errors"
	"nova-client/internal/common/logger"
	"nova-client/internal/common/observability"
	"nova-client/internal/common/validation"
	"nova-client/internal/flows/financing"
	"nova-client/internal/models"
)

// ConsentText is the legal statement sent with every signature.
const ConsentText = "I hereby confirm that I have reviewed the document in its entirety and agree to be legally bound by its terms. I understand that this electronic signature has the same legal effect as a handwritten signature."

// PayFeePath is where the user goes once every document is signed.
const PayFeePath = "/dashboard/financing?action=pay-fee"

// API is the slice of the backend the flow needs.
type API interface {
	PendingSignatures(ctx context.Context) ([]models.SignatureRequest, error)
	Sign(ctx context.Context, id string, req models.SignRequest) error
	DownloadDocument(ctx context.Context, id string) (*models.DocumentContent, error)
}

type State int

const (
	StatePending State = iota
	StateSigned
	StateExpired
	StateRejected
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSigned:
		return "signed"
	case StateExpired:
		return "expired"
	case StateRejected:
		return "rejected"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Classify returns the state to show for req at now. A pending request
// whose expiry has passed is expired no matter what the server says.
func Classify(req models.SignatureRequest, now time.Time) State {
	switch req.Status {
	case models.SignatureSigned:
		return StateSigned
	case models.SignatureExpired:
		return StateExpired
	case models.SignatureRejected:
		return StateRejected
	}
	if req.ExpiresAt != nil && now.After(*req.ExpiresAt) {
		return StateExpired
	}
	return StatePending
}

// Item is a request with its computed state.
type Item struct {
	Request models.SignatureRequest
	State   State
}

func (i Item) Actionable() bool {
	return i.State == StatePending
}

// SignForm is the sign dialog's input.
type SignForm struct {
	SignatureText  string
	Consent        bool
	SignatureImage string
}

// CanSubmit requires a typed name and the consent box.
func (f SignForm) CanSubmit() bool {
	return strings.TrimSpace(f.SignatureText) != "" && f.Consent
}

// Redirect tells the caller to leave the signature screen.
type Redirect struct {
	Path   string
	Intent *financing.Intent
}

// Outcome is the result of a successful signature. Reloaded is false when
// the signature went through but the pending list could not be fetched
// afterwards; Remaining is then unknown.
type Outcome struct {
	Remaining int
	Reloaded  bool
	Redirect  *Redirect
}

type Flow struct {
	api      API
	notifier errors.Notifier
	errs     *errors.ErrorHandler
	log      logger.Logger
	obs      *observability.Observability
	now      func() time.Time

	mu      sync.Mutex
	items   []Item
	signing bool
}

func NewFlow(api API, notifier errors.Notifier, log logger.Logger, obs *observability.Observability) *Flow {
	log = log.WithFields(map[string]interface{}{"component": "signing"})
	return &Flow{
		api:      api,
		notifier: notifier,
		errs:     errors.NewErrorHandler(log, notifier),
		log:      log,
		obs:      obs,
		now:      time.Now,
	}
}

// Load fetches the pending requests and classifies them.
func (f *Flow) Load(ctx context.Context) ([]Item, error) {
	reqs, err := f.api.PendingSignatures(ctx)
	if err != nil {
		f.errs.Handle("load signature requests", err, "Failed to load signature requests")
		return nil, err
	}
	now := f.now()
	items := make([]Item, len(reqs))
	for i, r := range reqs {
		items[i] = Item{Request: r, State: Classify(r, now)}
	}
	f.mu.Lock()
	f.items = items
	f.mu.Unlock()
	return items, nil
}

// Items returns the last loaded requests.
func (f *Flow) Items() []Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Item(nil), f.items...)
}

// Sign signs one request, then reloads the list. An empty list redirects
// to fee payment; otherwise the user is told how many remain.
func (f *Flow) Sign(ctx context.Context, id string, form SignForm) (_ *Outcome, err error) {
	f.mu.Lock()
	if f.signing {
		f.mu.Unlock()
		return nil, errors.NewActionInProgressError("sign")
	}
	f.signing = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.signing = false
		f.mu.Unlock()
	}()

	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		f.obs.RecordStep(ctx, "sign", outcome, time.Since(start))
	}()

	if strings.TrimSpace(form.SignatureText) == "" {
		err = errors.NewValidationError("signature text is required")
		f.notifier.Error("Please type your full name as signature")
		return nil, err
	}
	if !form.Consent {
		err = errors.NewValidationError("consent is required")
		f.notifier.Error("Please confirm the consent checkbox")
		return nil, err
	}
	if item, ok := f.find(id); ok && item.State == StateExpired {
		err = errors.NewSignatureExpiredError(id)
		f.errs.Handle("sign document", err, "")
		return nil, err
	}

	req := models.SignRequest{
		SignatureText:  strings.TrimSpace(form.SignatureText),
		ConsentText:    ConsentText,
		SignatureImage: form.SignatureImage,
	}
	if err = validation.SignatureSchema.Check(req); err != nil {
		f.errs.Handle("sign document", err, "")
		return nil, err
	}
	if err = f.api.Sign(ctx, id, req); err != nil {
		f.errs.Handle("sign document", err, "Failed to sign document")
		return nil, err
	}
	f.log.Info("document signed", map[string]interface{}{"signatureRequestId": id})
	f.notifier.Success("Document signed successfully!")

	remaining, loadErr := f.Load(ctx)
	if loadErr != nil {
		return &Outcome{}, nil
	}
	if len(remaining) > 0 {
		f.notifier.Info(fmt.Sprintf("%d more document(s) to sign", len(remaining)))
		return &Outcome{Remaining: len(remaining), Reloaded: true}, nil
	}
	f.notifier.Success("All documents signed! Redirecting to pay processing fee...")
	return &Outcome{Reloaded: true, Redirect: &Redirect{Path: PayFeePath, Intent: financing.NewIntent(financing.IntentPayFee)}}, nil
}

func (f *Flow) find(id string) (Item, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.items {
		if it.Request.ID == id {
			return it, true
		}
	}
	return Item{}, false
}
