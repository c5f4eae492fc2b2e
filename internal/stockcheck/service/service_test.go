package service

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/medflow/stockcheck-backend/internal/stockcheck/domain"
	"github.com/medflow/stockcheck-backend/internal/stockcheck/memstore"
	"github.com/medflow/stockcheck-backend/pkg/actor"
	"github.com/medflow/stockcheck-backend/pkg/errors"
	"github.com/medflow/stockcheck-backend/pkg/lock"
	"github.com/medflow/stockcheck-backend/pkg/logger"
	"github.com/medflow/stockcheck-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink captures emitted events
type recordingSink struct {
	mu         sync.Mutex
	changes    [][3]string
	reconciled []*domain.ReconcileSummary
	err        error
}

func (r *recordingSink) OrderStatusChanged(ctx context.Context, orderID string, oldStatus, newStatus domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, [3]string{orderID, oldStatus.String(), newStatus.String()})
	return r.err
}

func (r *recordingSink) OrderReconciled(ctx context.Context, summary *domain.ReconcileSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reconciled = append(r.reconciled, summary)
	return r.err
}

type env struct {
	ctx         context.Context
	store       *memstore.Store
	stores      Stores
	orders      *CheckOrderService
	inspections *InspectionService
	ledger      *LedgerService
	sink        *recordingSink
	fixtures    *testutil.FixtureFactory
	manager     *actor.Actor
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memstore.New()
	stores := Stores{
		Tx:          store,
		Orders:      store.Orders(),
		Inspections: store.Inspections(),
		Ledger:      store.Ledger(),
		ChangeLog:   store.ChangeLog(),
		Users:       store.Users(),
	}
	return newEnvWithStores(t, store, stores, lock.NewLocal(time.Second))
}

func newEnvWithStores(t *testing.T, store *memstore.Store, stores Stores, locker lock.Locker) *env {
	t.Helper()
	log := logger.Nop()
	sink := &recordingSink{}
	manager := &actor.Actor{ID: uuid.New().String(), FirstName: "Max", LastName: "Mueller", Email: "max@praxis-mueller.de"}

	e := &env{
		ctx:         actor.WithActor(context.Background(), manager),
		store:       store,
		stores:      stores,
		orders:      NewCheckOrderService(stores, NewReconciler(stores, log), sink, time.Second, log),
		inspections: NewInspectionService(stores, locker, log),
		ledger:      NewLedgerService(stores.Ledger),
		sink:        sink,
		fixtures:    testutil.NewFixtureFactory(),
		manager:     manager,
	}
	t.Cleanup(e.orders.Wait)
	return e
}

func (e *env) addLocation(t *testing.T) *domain.Location {
	t.Helper()
	loc := e.fixtures.Location()
	require.NoError(t, e.store.Ledger().AddLocation(e.ctx, loc))
	return loc
}

func (e *env) addPackage(t *testing.T, locationID string, qty int) *domain.Package {
	t.Helper()
	pkg := e.fixtures.Package(locationID, qty)
	require.NoError(t, e.store.Ledger().AddPackage(e.ctx, pkg))
	return pkg
}

func (e *env) packageQty(t *testing.T, id string) int {
	t.Helper()
	pkg, err := e.store.Ledger().GetPackage(e.ctx, id)
	require.NoError(t, err)
	return pkg.Quantity
}

func (e *env) createOrder(t *testing.T, scope ...string) *CheckOrderWithInspections {
	t.Helper()
	order, err := e.orders.Create(e.ctx, CreateCheckOrderRequest{Scope: scope})
	require.NoError(t, err)
	return order
}

func (e *env) setStatus(t *testing.T, id string, next domain.Status) *StatusChange {
	t.Helper()
	change, err := e.orders.SetStatus(e.ctx, id, next)
	require.NoError(t, err)
	return change
}

func count(t *testing.T, e *env, inspectionID, packageID string, expected, actual int) *domain.CheckItem {
	t.Helper()
	item, err := e.inspections.UpsertCheckItem(e.ctx, inspectionID, UpsertCheckItemRequest{
		PackageID: &packageID, ExpectedQuantity: &expected, ActualQuantity: &actual,
	})
	require.NoError(t, err)
	return item
}

// singleLocation builds the common setup: one location holding one package of 50
func singleLocation(t *testing.T, e *env) (*domain.Location, *domain.Package, *CheckOrderWithInspections) {
	t.Helper()
	loc := e.addLocation(t)
	pkg := e.addPackage(t, loc.ID, 50)
	order := e.createOrder(t, loc.ID)
	return loc, pkg, order
}

func TestScenario_CountMatchesLedger(t *testing.T) {
	e := newEnv(t)
	loc, pkg, order := singleLocation(t, e)
	insp := order.Inspections[0]

	initialized, err := e.inspections.InitializeCheckItems(e.ctx, insp.ID)
	require.NoError(t, err)
	require.Len(t, initialized.CheckItems, 1)
	assert.Equal(t, domain.CheckItem{
		PackageID: pkg.ID, ExpectedQuantity: 50, ActualQuantity: 0, Type: domain.ItemTypeUnderExpected,
	}, initialized.CheckItems[0])

	item := count(t, e, insp.ID, pkg.ID, 50, 50)
	assert.Equal(t, domain.ItemTypeValid, item.Type)

	e.setStatus(t, order.ID, domain.StatusProcessing)
	change := e.setStatus(t, order.ID, domain.StatusCompleted)

	require.NotNil(t, change.Summary)
	assert.Equal(t, 1, change.Summary.ItemsChecked)
	assert.Equal(t, 0, change.Summary.PackagesChanged)
	assert.Equal(t, domain.StatusCompleted, change.Order.Status)
	assert.True(t, change.Order.IsReconciled())

	assert.Equal(t, 50, e.packageQty(t, pkg.ID))
	entries, err := e.orders.ChangeLog(e.ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	got, err := e.ledger.GetLocation(e.ctx, loc.ID)
	require.NoError(t, err)
	assert.False(t, got.Available)
}

func TestScenario_CountBelowLedger(t *testing.T) {
	e := newEnv(t)
	loc, pkg, order := singleLocation(t, e)
	insp := order.Inspections[0]

	_, err := e.inspections.InitializeCheckItems(e.ctx, insp.ID)
	require.NoError(t, err)
	item := count(t, e, insp.ID, pkg.ID, 50, 30)
	assert.Equal(t, domain.ItemTypeUnderExpected, item.Type)

	e.setStatus(t, order.ID, domain.StatusProcessing)
	change := e.setStatus(t, order.ID, domain.StatusCompleted)
	assert.Equal(t, 1, change.Summary.PackagesChanged)
	assert.Equal(t, []string{loc.ID}, change.Summary.LocationsChanged)
	assert.Empty(t, change.Summary.LocationsFreed)

	assert.Equal(t, 30, e.packageQty(t, pkg.ID))

	entries, err := e.orders.ChangeLog(e.ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 50, entries[0].BeforeQuantity)
	assert.Equal(t, 30, entries[0].AfterQuantity)
	assert.Equal(t, loc.ID, entries[0].LocationID)
	assert.Equal(t, insp.ID, entries[0].InspectionID)
	require.NotNil(t, entries[0].ActorID)
	assert.Equal(t, e.manager.ID, *entries[0].ActorID)

	got, err := e.ledger.GetLocation(e.ctx, loc.ID)
	require.NoError(t, err)
	assert.False(t, got.Available)

	inspections, _, err := e.inspections.ListForOrder(e.ctx, order.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, inspections[0].Status)
}

func TestScenario_ConcurrentCompletion(t *testing.T) {
	store := memstore.New()
	barrier := &barrierOrders{OrderStore: store.Orders(), parties: 2}
	barrier.wg.Add(2)
	stores := Stores{
		Tx:          store,
		Orders:      barrier,
		Inspections: store.Inspections(),
		Ledger:      store.Ledger(),
		ChangeLog:   store.ChangeLog(),
		Users:       store.Users(),
	}
	e := newEnvWithStores(t, store, stores, lock.NewLocal(time.Second))

	loc := e.addLocation(t)
	pkg := e.addPackage(t, loc.ID, 50)
	order, err := e.orders.Create(e.ctx, CreateCheckOrderRequest{Scope: []string{loc.ID}})
	require.NoError(t, err)
	_, err = e.inspections.InitializeCheckItems(e.ctx, order.Inspections[0].ID)
	require.NoError(t, err)
	count(t, e, order.Inspections[0].ID, pkg.ID, 50, 30)
	ok, err := store.Orders().UpdateStatus(e.ctx, order.ID, domain.StatusDraft, domain.StatusProcessing)
	require.NoError(t, err)
	require.True(t, ok)

	barrier.arm()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.orders.SetStatus(e.ctx, order.ID, domain.StatusCompleted)
		}(i)
	}
	wg.Wait()

	var succeeded, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, errors.ErrConcurrentModification):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, lost)

	assert.Equal(t, 30, e.packageQty(t, pkg.ID))
	entries, err := e.orders.ChangeLog(e.ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "reconciliation ran exactly once")
}

// barrierOrders holds the first parties Get calls until all of them arrived,
// so every racer observes the same pre-state.
type barrierOrders struct {
	OrderStore
	mu      sync.Mutex
	armed   bool
	parties int
	wg      sync.WaitGroup
}

func (b *barrierOrders) arm() {
	b.mu.Lock()
	b.armed = true
	b.mu.Unlock()
}

func (b *barrierOrders) Get(ctx context.Context, id string) (*domain.CheckOrder, error) {
	order, err := b.OrderStore.Get(ctx, id)

	b.mu.Lock()
	wait := b.armed && b.parties > 0
	if wait {
		b.parties--
	}
	b.mu.Unlock()

	if wait {
		b.wg.Done()
		b.wg.Wait()
	}
	return order, err
}

func TestReconcile_ZeroCountFreesLocation(t *testing.T) {
	e := newEnv(t)
	loc, pkg, order := singleLocation(t, e)
	insp := order.Inspections[0]

	_, err := e.inspections.InitializeCheckItems(e.ctx, insp.ID)
	require.NoError(t, err)

	e.setStatus(t, order.ID, domain.StatusProcessing)
	change := e.setStatus(t, order.ID, domain.StatusCompleted)
	assert.Equal(t, []string{loc.ID}, change.Summary.LocationsFreed)

	assert.Equal(t, 0, e.packageQty(t, pkg.ID))
	got, err := e.ledger.GetLocation(e.ctx, loc.ID)
	require.NoError(t, err)
	assert.True(t, got.Available)
}

func TestReconcile_CountedStockOccupiesLocation(t *testing.T) {
	e := newEnv(t)
	loc := e.fixtures.Location(testutil.Available())
	require.NoError(t, e.store.Ledger().AddLocation(e.ctx, loc))
	pkg := e.addPackage(t, loc.ID, 0)
	order := e.createOrder(t, loc.ID)
	insp := order.Inspections[0]

	_, err := e.inspections.InitializeCheckItems(e.ctx, insp.ID)
	require.NoError(t, err)
	count(t, e, insp.ID, pkg.ID, 0, 12)

	e.setStatus(t, order.ID, domain.StatusProcessing)
	change := e.setStatus(t, order.ID, domain.StatusCompleted)
	assert.Equal(t, []string{loc.ID}, change.Summary.LocationsChanged)
	assert.Empty(t, change.Summary.LocationsFreed)

	assert.Equal(t, 12, e.packageQty(t, pkg.ID))
	got, err := e.ledger.GetLocation(e.ctx, loc.ID)
	require.NoError(t, err)
	assert.False(t, got.Available)
}

func TestReconcile_FailureLeavesLedgerUntouched(t *testing.T) {
	e := newEnv(t)
	loc := e.addLocation(t)
	kept := e.addPackage(t, loc.ID, 10)
	gone := e.addPackage(t, loc.ID, 5)
	order := e.createOrder(t, loc.ID)
	insp := order.Inspections[0]

	_, err := e.inspections.InitializeCheckItems(e.ctx, insp.ID)
	require.NoError(t, err)
	count(t, e, insp.ID, kept.ID, 10, 8)
	count(t, e, insp.ID, gone.ID, 5, 4)
	require.NoError(t, e.store.Ledger().RemovePackage(e.ctx, gone.ID))

	e.setStatus(t, order.ID, domain.StatusProcessing)
	_, err = e.orders.SetStatus(e.ctx, order.ID, domain.StatusCompleted)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrReconciliationFailed))

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, insp.ID, appErr.Details["inspection_id"])
	assert.Equal(t, gone.ID, appErr.Details["package_id"])

	assert.Equal(t, 10, e.packageQty(t, kept.ID), "the earlier correction was rolled back")
	got, err := e.orders.Get(e.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, got.Status)
	assert.False(t, got.IsReconciled())

	entries, err := e.orders.ChangeLog(e.ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// fixing the offending item lets the retry succeed
	require.NoError(t, e.inspections.DeleteCheckItem(e.ctx, insp.ID, gone.ID))
	change := e.setStatus(t, order.ID, domain.StatusCompleted)
	assert.Equal(t, 1, change.Summary.PackagesChanged)
	assert.Equal(t, 8, e.packageQty(t, kept.ID))
}

func TestReconcile_NeverTwice(t *testing.T) {
	e := newEnv(t)
	_, pkg, order := singleLocation(t, e)
	insp := order.Inspections[0]

	_, err := e.inspections.InitializeCheckItems(e.ctx, insp.ID)
	require.NoError(t, err)
	count(t, e, insp.ID, pkg.ID, 50, 40)
	e.setStatus(t, order.ID, domain.StatusProcessing)
	e.setStatus(t, order.ID, domain.StatusCompleted)

	_, err = e.orders.SetStatus(e.ctx, order.ID, domain.StatusCompleted)
	assert.True(t, errors.Is(err, errors.ErrAlreadyReconciled))

	// a cleared order keeps its reconciled marker
	_, err = e.orders.Clear(e.ctx, order.ID)
	require.NoError(t, err)
	count(t, e, insp.ID, pkg.ID, 40, 20)
	e.setStatus(t, order.ID, domain.StatusProcessing)

	_, err = e.orders.SetStatus(e.ctx, order.ID, domain.StatusCompleted)
	assert.True(t, errors.Is(err, errors.ErrAlreadyReconciled))

	assert.Equal(t, 40, e.packageQty(t, pkg.ID))
	got, err := e.orders.Get(e.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, got.Status)

	entries, err := e.orders.ChangeLog(e.ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCancelledOrderIsImmutable(t *testing.T) {
	e := newEnv(t)
	_, pkg, order := singleLocation(t, e)
	insp := order.Inspections[0]

	_, err := e.inspections.InitializeCheckItems(e.ctx, insp.ID)
	require.NoError(t, err)
	e.setStatus(t, order.ID, domain.StatusCancelled)

	before, err := e.inspections.Get(e.ctx, insp.ID)
	require.NoError(t, err)
	orderBefore, err := e.orders.Get(e.ctx, order.ID)
	require.NoError(t, err)

	qty := 1
	ops := map[string]func() error{
		"assign checker": func() error {
			_, err := e.inspections.AssignChecker(e.ctx, insp.ID, uuid.New().String())
			return err
		},
		"initialize": func() error {
			_, err := e.inspections.InitializeCheckItems(e.ctx, insp.ID)
			return err
		},
		"upsert": func() error {
			_, err := e.inspections.UpsertCheckItem(e.ctx, insp.ID, UpsertCheckItemRequest{
				PackageID: &pkg.ID, ExpectedQuantity: &qty, ActualQuantity: &qty,
			})
			return err
		},
		"delete": func() error {
			return e.inspections.DeleteCheckItem(e.ctx, insp.ID, pkg.ID)
		},
		"clear": func() error {
			_, err := e.orders.Clear(e.ctx, order.ID)
			return err
		},
		"reopen": func() error {
			_, err := e.orders.SetStatus(e.ctx, order.ID, domain.StatusProcessing)
			return err
		},
		"cancel again": func() error {
			_, err := e.orders.SetStatus(e.ctx, order.ID, domain.StatusCancelled)
			return err
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()
			assert.True(t, errors.Is(err, errors.ErrOrderCancelled), "got %v", err)
		})
	}

	after, err := e.inspections.Get(e.ctx, insp.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	orderAfter, err := e.orders.Get(e.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, orderBefore, orderAfter)
}

func TestClear_ReinitializeReproducesSnapshot(t *testing.T) {
	e := newEnv(t)
	loc := e.addLocation(t)
	p1 := e.addPackage(t, loc.ID, 12)
	p2 := e.addPackage(t, loc.ID, 0)
	order := e.createOrder(t, loc.ID)
	insp := order.Inspections[0]

	first, err := e.inspections.InitializeCheckItems(e.ctx, insp.ID)
	require.NoError(t, err)
	count(t, e, insp.ID, p1.ID, 12, 11)
	count(t, e, insp.ID, p2.ID, 0, 3)
	e.setStatus(t, order.ID, domain.StatusProcessing)

	cleared, err := e.orders.Clear(e.ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, cleared, 1)
	assert.Equal(t, domain.StatusDraft, cleared[0].Status)
	for _, item := range cleared[0].CheckItems {
		assert.Equal(t, 0, item.ActualQuantity)
		assert.Equal(t, domain.Classify(item.ExpectedQuantity, 0), item.Type)
	}

	got, err := e.orders.Get(e.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, got.Status)

	second, err := e.inspections.InitializeCheckItems(e.ctx, insp.ID)
	require.NoError(t, err)
	assert.Equal(t, first.CheckItems, second.CheckItems)
}

func TestCreate(t *testing.T) {
	e := newEnv(t)
	a := e.addLocation(t)
	b := e.addLocation(t)

	t.Run("empty scope", func(t *testing.T) {
		_, err := e.orders.Create(e.ctx, CreateCheckOrderRequest{Scope: []string{"", ""}})
		assert.True(t, errors.Is(err, errors.ErrInvalidScope))
	})

	t.Run("unknown location creates nothing", func(t *testing.T) {
		_, err := e.orders.Create(e.ctx, CreateCheckOrderRequest{Scope: []string{a.ID, uuid.New().String()}})
		assert.True(t, errors.Is(err, errors.ErrNotFound))

		_, total, err := e.orders.List(e.ctx, domain.CheckOrderFilter{Page: 1, PerPage: 10})
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("system actor needs an owner", func(t *testing.T) {
		_, err := e.orders.Create(context.Background(), CreateCheckOrderRequest{Scope: []string{a.ID}})
		assert.True(t, errors.Is(err, errors.ErrMissingField))
	})

	t.Run("one inspection per distinct location", func(t *testing.T) {
		order := e.createOrder(t, a.ID, b.ID, a.ID)
		assert.Equal(t, []string{a.ID, b.ID}, []string(order.Scope))
		assert.Equal(t, e.manager.ID, order.OwnerID)
		require.NotNil(t, order.CreatedByName)
		assert.Equal(t, "Max Mueller", *order.CreatedByName)
		require.Len(t, order.Inspections, 2)
		for i, insp := range order.Inspections {
			assert.Equal(t, order.Scope[i], insp.LocationID)
			assert.Equal(t, domain.StatusDraft, insp.Status)
			assert.Empty(t, insp.CheckItems)
		}
	})
}

func TestSetStatus_Transitions(t *testing.T) {
	e := newEnv(t)
	_, _, order := singleLocation(t, e)

	_, err := e.orders.SetStatus(e.ctx, order.ID, domain.StatusCompleted)
	assert.True(t, errors.Is(err, errors.ErrInvalidTransition))

	_, err = e.orders.SetStatus(e.ctx, order.ID, domain.Status("archived"))
	assert.True(t, errors.Is(err, errors.ErrValidation))

	_, err = e.orders.SetStatus(e.ctx, uuid.New().String(), domain.StatusProcessing)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	change := e.setStatus(t, order.ID, domain.StatusProcessing)
	assert.Equal(t, domain.StatusDraft, change.OldStatus)
	assert.Nil(t, change.Summary)

	_, err = e.orders.SetStatus(e.ctx, order.ID, domain.StatusDraft)
	assert.True(t, errors.Is(err, errors.ErrInvalidTransition))
}

func TestSetStatus_EmitsEvents(t *testing.T) {
	e := newEnv(t)
	_, _, order := singleLocation(t, e)

	e.setStatus(t, order.ID, domain.StatusProcessing)
	e.setStatus(t, order.ID, domain.StatusCompleted)
	e.orders.Wait()

	e.sink.mu.Lock()
	defer e.sink.mu.Unlock()
	assert.ElementsMatch(t, [][3]string{
		{order.ID, "draft", "processing"},
		{order.ID, "processing", "completed"},
	}, e.sink.changes)
	require.Len(t, e.sink.reconciled, 1)
	assert.Equal(t, order.ID, e.sink.reconciled[0].OrderID)
}

func TestSetStatus_SinkFailureDoesNotFailTransition(t *testing.T) {
	e := newEnv(t)
	e.sink.err = stderrors.New("socket closed")
	_, _, order := singleLocation(t, e)

	change := e.setStatus(t, order.ID, domain.StatusProcessing)
	assert.Equal(t, domain.StatusProcessing, change.Order.Status)
}

func TestUpsertCheckItem_Validation(t *testing.T) {
	e := newEnv(t)
	_, pkg, order := singleLocation(t, e)
	insp := order.Inspections[0]

	_, err := e.inspections.UpsertCheckItem(e.ctx, insp.ID, UpsertCheckItemRequest{PackageID: &pkg.ID})
	require.True(t, errors.Is(err, errors.ErrMissingField))
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Details, "expected_quantity")
	assert.Contains(t, appErr.Details, "actual_quantity")

	neg, five := -1, 5
	_, err = e.inspections.UpsertCheckItem(e.ctx, insp.ID, UpsertCheckItemRequest{
		PackageID: &pkg.ID, ExpectedQuantity: &five, ActualQuantity: &neg,
	})
	assert.True(t, errors.Is(err, errors.ErrValidation))

	item := count(t, e, insp.ID, pkg.ID, 5, 7)
	assert.Equal(t, domain.ItemTypeOverExpected, item.Type)
	item = count(t, e, insp.ID, pkg.ID, 5, 5)
	assert.Equal(t, domain.ItemTypeValid, item.Type)

	items, total, err := e.inspections.ListCheckItems(e.ctx, insp.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total, "upsert replaces rather than duplicates")
	assert.Equal(t, domain.ItemTypeValid, items[0].Type)
}

func TestUpsertCheckItem_CompletedOrderIsHistory(t *testing.T) {
	e := newEnv(t)
	_, pkg, order := singleLocation(t, e)
	e.setStatus(t, order.ID, domain.StatusProcessing)
	e.setStatus(t, order.ID, domain.StatusCompleted)

	qty := 3
	_, err := e.inspections.UpsertCheckItem(e.ctx, order.Inspections[0].ID, UpsertCheckItemRequest{
		PackageID: &pkg.ID, ExpectedQuantity: &qty, ActualQuantity: &qty,
	})
	assert.True(t, errors.Is(err, errors.ErrAlreadyReconciled))
}

func TestDeleteCheckItem(t *testing.T) {
	e := newEnv(t)
	_, pkg, order := singleLocation(t, e)
	insp := order.Inspections[0]

	err := e.inspections.DeleteCheckItem(e.ctx, insp.ID, pkg.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	count(t, e, insp.ID, pkg.ID, 50, 50)
	require.NoError(t, e.inspections.DeleteCheckItem(e.ctx, insp.ID, pkg.ID))

	items, total, err := e.inspections.ListCheckItems(e.ctx, insp.ID, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
}

func TestListCheckItems_Pagination(t *testing.T) {
	e := newEnv(t)
	loc := e.addLocation(t)
	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, e.addPackage(t, loc.ID, i+1).ID)
	}
	order := e.createOrder(t, loc.ID)
	insp := order.Inspections[0]
	_, err := e.inspections.InitializeCheckItems(e.ctx, insp.ID)
	require.NoError(t, err)

	page2, total, err := e.inspections.ListCheckItems(e.ctx, insp.ID, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page2, 2)
	assert.Equal(t, ids[2], page2[0].PackageID)
	assert.Equal(t, ids[3], page2[1].PackageID)

	page4, _, err := e.inspections.ListCheckItems(e.ctx, insp.ID, 4, 2)
	require.NoError(t, err)
	assert.Empty(t, page4)
}

func TestAssignChecker_UsesCachedName(t *testing.T) {
	e := newEnv(t)
	_, _, order := singleLocation(t, e)
	insp := order.Inspections[0]

	user := e.fixtures.User(testutil.WithName("Anna", "Schmidt"))
	require.NoError(t, e.stores.Users.Upsert(e.ctx, user))

	got, err := e.inspections.AssignChecker(e.ctx, insp.ID, user.UserID)
	require.NoError(t, err)
	require.NotNil(t, got.CheckerName)
	assert.Equal(t, "Anna Schmidt", *got.CheckerName)
	assert.Equal(t, insp.Version+1, got.Version)

	unknown := uuid.New().String()
	got, err = e.inspections.AssignChecker(e.ctx, insp.ID, unknown)
	require.NoError(t, err)
	assert.Equal(t, unknown, *got.CheckerID)
	assert.Nil(t, got.CheckerName)

	_, err = e.inspections.AssignChecker(e.ctx, uuid.New().String(), unknown)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

type busyLocker struct{}

func (busyLocker) Obtain(context.Context, string) (lock.Lock, error) {
	return nil, lock.ErrNotObtained
}

func TestInspectionEdits_LockContention(t *testing.T) {
	store := memstore.New()
	stores := Stores{
		Tx:          store,
		Orders:      store.Orders(),
		Inspections: store.Inspections(),
		Ledger:      store.Ledger(),
		ChangeLog:   store.ChangeLog(),
		Users:       store.Users(),
	}
	e := newEnvWithStores(t, store, stores, busyLocker{})
	_, _, order := singleLocation(t, e)

	_, err := e.inspections.InitializeCheckItems(e.ctx, order.Inspections[0].ID)
	assert.True(t, errors.Is(err, errors.ErrConcurrentModification))
}

func TestInspectionEdits_ParallelUpsertsKeepEveryItem(t *testing.T) {
	e := newEnv(t)
	loc := e.addLocation(t)
	var pkgs []*domain.Package
	for i := 0; i < 8; i++ {
		pkgs = append(pkgs, e.addPackage(t, loc.ID, 10))
	}
	order := e.createOrder(t, loc.ID)
	insp := order.Inspections[0]

	var wg sync.WaitGroup
	for _, p := range pkgs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			expected, actual := 10, 9
			_, err := e.inspections.UpsertCheckItem(e.ctx, insp.ID, UpsertCheckItemRequest{
				PackageID: &id, ExpectedQuantity: &expected, ActualQuantity: &actual,
			})
			assert.NoError(t, err)
		}(p.ID)
	}
	wg.Wait()

	_, total, err := e.inspections.ListCheckItems(e.ctx, insp.ID, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(len(pkgs)), total)
}

func TestLedgerService(t *testing.T) {
	e := newEnv(t)
	loc := e.addLocation(t)
	e.addPackage(t, loc.ID, 4)

	packages, err := e.ledger.ListPackagesAtLocation(e.ctx, loc.ID)
	require.NoError(t, err)
	assert.Len(t, packages, 1)

	_, err = e.ledger.ListPackagesAtLocation(e.ctx, uuid.New().String())
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	locations, total, err := e.ledger.ListLocations(e.ctx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, locations, 1)
}
