package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/internal/cart"
	"github.com/angelmondragon/packfinderz-storefront/internal/catalog"
	"github.com/angelmondragon/packfinderz-storefront/internal/orders"
	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const (
	defaultGracePeriod     = 3 * time.Second
	defaultMaxConcurrency  = 8
	defaultRollbackTimeout = 10 * time.Second
)

// Orchestrator runs checkouts: stock decrements fanned out and joined, then
// one order submission, then the cart clear chosen by the clear policy.
type Orchestrator struct {
	gateway         Gateway
	clearPolicy     enums.ClearPolicy
	gracePeriod     time.Duration
	maxConcurrency  int
	rollbackTimeout time.Duration

	logg    *logger.Logger
	metrics *metrics.CheckoutMetrics
	hook    TransitionHook
	now     func() time.Time
	newID   func() string
	// schedule runs fn after d. It defaults to time.AfterFunc.
	schedule func(d time.Duration, fn func())

	mu       sync.Mutex
	inFlight map[string]struct{}
	pending  sync.WaitGroup
}

type Option func(*Orchestrator)

func WithLogger(logg *logger.Logger) Option {
	return func(o *Orchestrator) {
		if logg != nil {
			o.logg = logg
		}
	}
}

func WithMetrics(m *metrics.CheckoutMetrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithTransitionHook registers fn to observe every state change.
func WithTransitionHook(fn TransitionHook) Option {
	return func(o *Orchestrator) {
		o.hook = fn
	}
}

// WithClock overrides the time source used for order dates.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator overrides the checkout id source.
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newID = fn
		}
	}
}

func NewOrchestrator(gateway Gateway, cfg config.CheckoutConfig, opts ...Option) (*Orchestrator, error) {
	if gateway == nil {
		return nil, fmt.Errorf("checkout gateway required")
	}
	policy, err := cfg.ParsedClearPolicy()
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		gateway:         gateway,
		clearPolicy:     policy,
		gracePeriod:     cfg.GracePeriod,
		maxConcurrency:  cfg.MaxConcurrency,
		rollbackTimeout: cfg.RollbackTimeout,
		logg:            logger.Nop(),
		now:             time.Now,
		newID:           uuid.NewString,
		inFlight:        make(map[string]struct{}),
	}
	o.schedule = func(d time.Duration, fn func()) { time.AfterFunc(d, fn) }
	if o.gracePeriod <= 0 {
		o.gracePeriod = defaultGracePeriod
	}
	if o.maxConcurrency <= 0 {
		o.maxConcurrency = defaultMaxConcurrency
	}
	if o.rollbackTimeout <= 0 {
		o.rollbackTimeout = defaultRollbackTimeout
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o, nil
}

// ClearPolicy returns the policy the orchestrator was built with.
func (o *Orchestrator) ClearPolicy() enums.ClearPolicy {
	return o.clearPolicy
}

// Wait blocks until every scheduled delayed clear has run.
func (o *Orchestrator) Wait() {
	o.pending.Wait()
}

// Execute checks out source against cat. The returned Result is non-nil
// whenever the checkout got past the in-flight guard, including on failure.
func (o *Orchestrator) Execute(ctx context.Context, source CartSource, cat *catalog.Catalog) (*Result, error) {
	if source == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is required")
	}
	if cat == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog is required")
	}
	key := source.Key()
	if !o.acquire(key) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "a checkout is already in progress for this cart")
	}
	defer o.release(key)

	r := &run{
		o:       o,
		source:  source,
		catalog: cat,
		started: o.now(),
		result: &Result{
			CheckoutID: o.newID(),
			State:      enums.CheckoutStateIdle,
		},
	}
	ctx = o.logg.WithCheckoutID(ctx, r.result.CheckoutID)
	err := r.execute(ctx)
	// rejected before starting, so there is no outcome to count
	if r.result.State != enums.CheckoutStateIdle {
		o.metrics.ObserveCheckout(r.result.State.String(), o.now().Sub(r.started))
	}
	return r.result, err
}

func (o *Orchestrator) acquire(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inFlight[key]; busy {
		return false
	}
	o.inFlight[key] = struct{}{}
	return true
}

func (o *Orchestrator) release(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inFlight, key)
}

type plannedUpdate struct {
	product  *catalog.Product
	quantity int
}

type run struct {
	o       *Orchestrator
	source  CartSource
	catalog *catalog.Catalog
	started time.Time
	result  *Result
}

func (r *run) execute(ctx context.Context) error {
	lines := r.source.Snapshot()
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if r.o.clearPolicy == enums.ClearPolicyAlways {
		r.scheduleClear(ctx)
	}

	plan, err := r.plan(ctx, lines)
	if err != nil {
		r.transition(ctx, enums.CheckoutStateFailed)
		return err
	}
	if err := ctx.Err(); err != nil {
		r.transition(ctx, enums.CheckoutStateFailed)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout cancelled")
	}

	r.transition(ctx, enums.CheckoutStateStockUpdatesInFlight)
	if err := r.updateStock(ctx, plan); err != nil {
		r.transition(ctx, enums.CheckoutStateFailed)
		r.rollback(ctx)
		return err
	}

	r.transition(ctx, enums.CheckoutStateOrderSubmitting)
	created, err := r.submitOrder(ctx, lines)
	if err != nil {
		r.transition(ctx, enums.CheckoutStateFailed)
		r.rollback(ctx)
		return err
	}

	for _, update := range r.result.StockUpdates {
		r.catalog.SetStock(update.ProductID, update.NewStock)
	}
	r.result.Order = created
	r.transition(ctx, enums.CheckoutStateCommitted)

	if r.o.clearPolicy == enums.ClearPolicyOnCommit {
		r.clearNow(ctx)
	}
	return nil
}

// plan pairs catalog products with cart lines in catalog order and refuses
// any line that asks for more than the product has in stock.
func (r *run) plan(ctx context.Context, lines []cart.Line) ([]plannedUpdate, error) {
	quantities := make(map[int64]int, len(lines))
	for _, line := range lines {
		quantities[line.Product.ProductID] = line.Quantity
	}

	var (
		plan         []plannedUpdate
		insufficient []map[string]any
		matched      = make(map[int64]struct{}, len(lines))
	)
	for _, product := range r.catalog.Products() {
		qty, ok := quantities[product.ProductID]
		if !ok {
			continue
		}
		matched[product.ProductID] = struct{}{}
		if qty > product.Stock {
			insufficient = append(insufficient, map[string]any{
				"productId": product.ProductID,
				"requested": qty,
				"available": product.Stock,
			})
			continue
		}
		plan = append(plan, plannedUpdate{product: product, quantity: qty})
	}

	for _, line := range lines {
		if _, ok := matched[line.Product.ProductID]; !ok {
			r.o.logg.Warn(r.o.logg.WithField(ctx, "product_id", line.Product.ProductID), "cart line has no catalog product, skipping stock update")
		}
	}

	if len(insufficient) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock").
			WithDetails(map[string]any{"products": insufficient})
	}
	return plan, nil
}

// updateStock issues every decrement concurrently and waits for all of them.
func (r *run) updateStock(ctx context.Context, plan []plannedUpdate) error {
	updates := make([]StockUpdate, len(plan))

	var g errgroup.Group
	g.SetLimit(r.o.maxConcurrency)
	for i, item := range plan {
		updates[i] = StockUpdate{
			ProductID:     item.product.ProductID,
			PreviousStock: item.product.Stock,
			NewStock:      item.product.Stock - item.quantity,
		}
		g.Go(func() error {
			payload := item.product.Detached()
			payload.Stock = updates[i].NewStock
			if err := ctx.Err(); err != nil {
				updates[i].Err = err
				return nil
			}
			if _, err := r.o.gateway.UpdateProduct(ctx, payload.ProductID, payload); err != nil {
				updates[i].Err = err
				r.logRemoteFailure(ctx, "update_stock", payload.ProductID, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	r.result.StockUpdates = updates

	var (
		combined error
		failed   []int64
	)
	for _, update := range updates {
		if update.Err != nil {
			combined = multierr.Append(combined, fmt.Errorf("product %d: %w", update.ProductID, update.Err))
			failed = append(failed, update.ProductID)
		}
	}
	if combined == nil {
		if err := ctx.Err(); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout cancelled")
		}
		return nil
	}
	return pkgerrors.Wrap(codeOf(combined), combined, "stock update failed").
		WithDetails(map[string]any{"failedProducts": failed})
}

func (r *run) submitOrder(ctx context.Context, lines []cart.Line) (*orders.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout cancelled")
	}

	items := make([]orders.Item, 0, len(lines))
	for _, line := range lines {
		product := line.Product
		if live, ok := r.catalog.Lookup(product.ProductID); ok {
			product = live
		}
		items = append(items, orders.NewItem(product, line.Quantity))
	}
	order, err := orders.New(items, r.o.now(), r.result.CheckoutID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build order")
	}

	created, err := r.o.gateway.CreateOrder(ctx, order)
	if err != nil {
		r.logRemoteFailure(ctx, "create_order", 0, err)
		return nil, pkgerrors.Wrap(codeOf(err), err, "order submission failed")
	}
	return created, nil
}

// rollback restores every stock update that went through. It runs detached
// from ctx so a cancelled checkout still compensates.
func (r *run) rollback(ctx context.Context) {
	rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.o.rollbackTimeout)
	defer cancel()

	updates := r.result.StockUpdates
	var g errgroup.Group
	g.SetLimit(r.o.maxConcurrency)
	for i := range updates {
		if !updates[i].Applied() {
			continue
		}
		g.Go(func() error {
			product, ok := r.catalog.Lookup(updates[i].ProductID)
			if !ok {
				updates[i].RollbackErr = fmt.Errorf("product %d left the catalog", updates[i].ProductID)
				return nil
			}
			payload := product.Detached()
			payload.Stock = updates[i].PreviousStock
			if _, err := r.o.gateway.UpdateProduct(rbCtx, payload.ProductID, payload); err != nil {
				updates[i].RollbackErr = err
				r.logRemoteFailure(ctx, "rollback_stock", payload.ProductID, err)
				return nil
			}
			updates[i].RolledBack = true
			return nil
		})
	}
	_ = g.Wait()

	var compensationErr error
	for _, update := range updates {
		compensationErr = multierr.Append(compensationErr, update.RollbackErr)
	}
	if compensationErr != nil {
		r.o.logg.Error(ctx, "stock rollback incomplete", compensationErr)
		return
	}
	r.transition(ctx, enums.CheckoutStateRolledBack)
}

func (r *run) clearNow(ctx context.Context) {
	if err := r.source.Clear(context.WithoutCancel(ctx)); err != nil {
		r.o.logg.Error(ctx, "clearing cart after commit failed", err)
		return
	}
	r.result.Cleared = true
}

func (r *run) scheduleClear(ctx context.Context) {
	clearCtx := context.WithoutCancel(ctx)
	r.o.pending.Add(1)
	r.result.ClearScheduled = true
	r.o.schedule(r.o.gracePeriod, func() {
		defer r.o.pending.Done()
		if err := r.source.Clear(clearCtx); err != nil {
			r.o.logg.Error(clearCtx, "scheduled cart clear failed", err)
			return
		}
		r.o.logg.Info(clearCtx, "cart cleared after grace period")
	})
}

func (r *run) transition(ctx context.Context, to enums.CheckoutState) {
	from := r.result.State
	if !from.CanTransitionTo(to) {
		r.o.logg.Warn(r.o.logg.WithFields(ctx, map[string]any{
			"from": from.String(),
			"to":   to.String(),
		}), "ignoring invalid checkout transition")
		return
	}
	r.result.State = to
	r.o.logg.Info(r.o.logg.WithFields(ctx, map[string]any{
		"from": from.String(),
		"to":   to.String(),
	}), "checkout state changed")
	if r.o.hook != nil {
		r.o.hook(ctx, Transition{
			CheckoutID: r.result.CheckoutID,
			From:       from,
			To:         to,
			At:         r.o.now(),
		})
	}
}

func (r *run) logRemoteFailure(ctx context.Context, step string, productID int64, err error) {
	fields := map[string]any{"step": step}
	if productID != 0 {
		fields["product_id"] = productID
	}
	r.o.logg.Error(r.o.logg.WithFields(ctx, fields), "remote call failed", err)
}

// codeOf returns the code of the first typed error in err, or DEPENDENCY_ERROR.
func codeOf(err error) pkgerrors.Code {
	for _, e := range multierr.Errors(err) {
		if typed := pkgerrors.As(e); typed != nil {
			return typed.Code()
		}
	}
	return pkgerrors.CodeDependency
}
