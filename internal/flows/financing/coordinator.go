// Package financing drives an application from the calculator preview to
// an active loan. The server owns every status; this package only reads
// it, offers the next action, and performs the calls behind it.
package financing

import (
	"context"
	"sync"
	"time"

	"nova-client/internal/common/config"
	"nova-client/internal/common/errors"
	"nova-client/internal/common/logger"
	"nova-client/internal/common/observability"
	"nova-client/internal/common/validation"
	"nova-client/internal/flows/payment"
	"nova-client/internal/models"

	"github.com/shopspring/decimal"
)

// API is the slice of the backend the coordinator needs.
type API interface {
	ListApplications(ctx context.Context) ([]models.FinancingApplication, error)
	GetApplication(ctx context.Context, id string) (*models.FinancingApplication, error)
	CreateApplication(ctx context.Context, req models.CreateApplicationRequest) (*models.FinancingApplication, error)
	SubmitApplication(ctx context.Context, id string) (*models.FinancingApplication, error)
	MockPayFee(ctx context.Context, id string) (*models.FinancingApplication, error)
	Quote(ctx context.Context, amount decimal.Decimal, periodMonths int) (*models.CalculatorQuote, error)
	Statement(ctx context.Context, id string) (*models.Statement, error)
	ListInstallments(ctx context.Context, id string) ([]models.Installment, error)
	payment.API
}

type Coordinator struct {
	api      API
	cfg      config.FinancingConfig
	env      config.AppConfig
	notifier errors.Notifier
	errs     *errors.ErrorHandler
	log      logger.Logger
	obs      *observability.Observability
	schema   *validation.Schema

	mu   sync.Mutex
	apps []models.FinancingApplication
	busy string
}

func NewCoordinator(api API, cfg config.FinancingConfig, env config.AppConfig, notifier errors.Notifier, log logger.Logger, obs *observability.Observability) *Coordinator {
	log = log.WithFields(map[string]interface{}{"component": "financing"})
	return &Coordinator{
		api:      api,
		cfg:      cfg,
		env:      env,
		notifier: notifier,
		errs:     errors.NewErrorHandler(log, notifier),
		log:      log,
		obs:      obs,
		schema:   validation.ApplicationSchema(cfg.MinAmount, cfg.MaxAmount, cfg.MinPeriodMonths, cfg.MaxPeriodMonths),
	}
}

// Applications returns the last fetched list.
func (c *Coordinator) Applications() []models.FinancingApplication {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.FinancingApplication, len(c.apps))
	copy(out, c.apps)
	return out
}

// Refresh replaces the local list with the server's. On failure the list
// is left as it was.
func (c *Coordinator) Refresh(ctx context.Context) error {
	apps, err := c.api.ListApplications(ctx)
	if err != nil {
		c.errs.Handle("load applications", err, "Failed to load financing applications")
		return err
	}

	c.mu.Lock()
	previous := make(map[string]models.Status, len(c.apps))
	for _, a := range c.apps {
		previous[a.ID] = a.Status.Status
	}
	c.apps = apps
	c.mu.Unlock()

	for _, a := range apps {
		if from, ok := previous[a.ID]; ok && !models.CanTransition(from, a.Status.Status) {
			c.log.Warn("unexpected status change", map[string]interface{}{
				"applicationId": a.ID,
				"from":          from.String(),
				"to":            a.Status.Raw,
			})
		}
	}
	return nil
}

// Get fetches one application with its installments.
func (c *Coordinator) Get(ctx context.Context, id string) (*models.FinancingApplication, error) {
	app, err := c.api.GetApplication(ctx, id)
	if err != nil {
		c.errs.Handle("load application", err, "Failed to load application details")
		return nil, err
	}
	return app, nil
}

func (c *Coordinator) Statement(ctx context.Context, id string) (*models.Statement, error) {
	st, err := c.api.Statement(ctx, id)
	if err != nil {
		c.errs.Handle("load statement", err, "Failed to load statement")
		return nil, err
	}
	return st, nil
}

func (c *Coordinator) Installments(ctx context.Context, id string) ([]models.Installment, error) {
	list, err := c.api.ListInstallments(ctx, id)
	if err != nil {
		c.errs.Handle("load installments", err, "Failed to load repayment schedule")
		return nil, err
	}
	return list, nil
}

// begin claims the coordinator for one mutating action. The returned
// release must be deferred.
func (c *Coordinator) begin(action string) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy != "" {
		return nil, errors.NewActionInProgressError(c.busy)
	}
	c.busy = action
	return func() {
		c.mu.Lock()
		c.busy = ""
		c.mu.Unlock()
	}, nil
}

// Busy reports the action currently in flight, if any.
func (c *Coordinator) Busy() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

func (c *Coordinator) record(ctx context.Context, step string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	c.obs.RecordStep(ctx, step, outcome, time.Since(start))
}

func (c *Coordinator) find(id string) (models.FinancingApplication, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range c.apps {
		if a.ID == id {
			return a, true
		}
	}
	return models.FinancingApplication{}, false
}
