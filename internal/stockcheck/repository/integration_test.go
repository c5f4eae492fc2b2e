package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/medflow/stockcheck-backend/internal/stockcheck/domain"
	"github.com/medflow/stockcheck-backend/pkg/errors"
	"github.com/medflow/stockcheck-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type repos struct {
	orders      *CheckOrderRepository
	inspections *InspectionRepository
	ledger      *LedgerRepository
	changeLog   *ChangeLogRepository
	users       *UserCacheRepository
}

func setupIntegration(t *testing.T) (*testutil.IntegrationSuite, repos) {
	suite := testutil.RequireIntegrationSuite(t)
	return suite, repos{
		orders:      NewCheckOrderRepository(suite.DB),
		inspections: NewInspectionRepository(suite.DB),
		ledger:      NewLedgerRepository(suite.DB),
		changeLog:   NewChangeLogRepository(suite.DB),
		users:       NewUserCacheRepository(suite.DB),
	}
}

func TestIntegration_CheckOrderLifecycle(t *testing.T) {
	suite, r := setupIntegration(t)
	ctx := testutil.DefaultTestContext(t)

	loc := suite.Fixtures.Location()
	require.NoError(t, r.ledger.CreateLocation(ctx, loc))

	order := suite.Fixtures.CheckOrder(uuid.New().String(), loc.ID)
	require.NoError(t, r.orders.Create(ctx, order))
	assert.False(t, order.CreatedAt.IsZero())

	got, err := r.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{loc.ID}, []string(got.Scope))
	assert.Equal(t, domain.StatusDraft, got.Status)

	ok, err := r.orders.UpdateStatus(ctx, order.ID, domain.StatusDraft, domain.StatusProcessing)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.orders.UpdateStatus(ctx, order.ID, domain.StatusDraft, domain.StatusProcessing)
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Now().UTC()
	ok, err = r.orders.MarkReconciled(ctx, order.ID, at)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.orders.MarkReconciled(ctx, order.ID, at)
	require.NoError(t, err)
	assert.False(t, ok)

	status := domain.StatusProcessing
	list, total, err := r.orders.List(ctx, domain.CheckOrderFilter{Status: &status, Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsReconciled())
}

func TestIntegration_EmptyScopeRejected(t *testing.T) {
	suite, r := setupIntegration(t)
	ctx := testutil.DefaultTestContext(t)

	order := suite.Fixtures.CheckOrder(uuid.New().String())
	order.Scope = []string{}

	err := r.orders.Create(ctx, order)
	assert.True(t, errors.Is(err, errors.ErrInvalidScope))
}

func TestIntegration_InspectionVersioning(t *testing.T) {
	suite, r := setupIntegration(t)
	ctx := testutil.DefaultTestContext(t)

	loc := suite.Fixtures.Location()
	require.NoError(t, r.ledger.CreateLocation(ctx, loc))
	order := suite.Fixtures.CheckOrder(uuid.New().String(), loc.ID)
	require.NoError(t, r.orders.Create(ctx, order))

	insp := &domain.Inspection{CheckOrderID: order.ID, LocationID: loc.ID}
	require.NoError(t, r.inspections.Create(ctx, insp))
	assert.Equal(t, 1, insp.Version)

	dup := &domain.Inspection{CheckOrderID: order.ID, LocationID: loc.ID}
	err := r.inspections.Create(ctx, dup)
	assert.True(t, errors.Is(err, errors.ErrConflict))

	stale := *insp
	insp.CheckItems = domain.CheckItems{domain.NewCheckItem(uuid.New().String(), 5, 0)}
	require.NoError(t, r.inspections.Update(ctx, insp))
	assert.Equal(t, 2, insp.Version)

	err = r.inspections.Update(ctx, &stale)
	assert.True(t, errors.Is(err, errors.ErrConcurrentModification))

	got, err := r.inspections.Get(ctx, insp.ID)
	require.NoError(t, err)
	require.Len(t, got.CheckItems, 1)
	assert.Equal(t, 5, got.CheckItems[0].ExpectedQuantity)

	require.NoError(t, r.inspections.SetStatusForOrder(ctx, order.ID, domain.StatusProcessing))
	list, total, err := r.inspections.ListByOrder(ctx, order.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, domain.StatusProcessing, list[0].Status)
	assert.Equal(t, 3, list[0].Version)
}

func TestIntegration_LedgerAndChangeLogInTransaction(t *testing.T) {
	suite, r := setupIntegration(t)
	ctx := testutil.DefaultTestContext(t)

	loc := suite.Fixtures.Location()
	require.NoError(t, r.ledger.CreateLocation(ctx, loc))
	pkg := suite.Fixtures.Package(loc.ID, 10)
	require.NoError(t, r.ledger.CreatePackage(ctx, pkg))
	order := suite.Fixtures.CheckOrder(uuid.New().String(), loc.ID)
	require.NoError(t, r.orders.Create(ctx, order))
	insp := &domain.Inspection{CheckOrderID: order.ID, LocationID: loc.ID}
	require.NoError(t, r.inspections.Create(ctx, insp))

	// a failed transaction leaves neither the quantity nor the log behind
	rollback := errors.Internal("abort")
	err := suite.DB.WithTx(ctx, func(ctx context.Context) error {
		locked, err := r.ledger.GetPackageForUpdate(ctx, pkg.ID)
		if err != nil {
			return err
		}
		if err := r.ledger.SetPackageQuantity(ctx, locked.ID, 7); err != nil {
			return err
		}
		if err := r.changeLog.Append(ctx, &domain.ChangeLogEntry{
			CheckOrderID: order.ID, InspectionID: insp.ID, LocationID: loc.ID, PackageID: pkg.ID,
			BeforeQuantity: 10, AfterQuantity: 7,
		}); err != nil {
			return err
		}
		return rollback
	})
	assert.Equal(t, rollback, err)

	packages, err := r.ledger.ListPackagesAtLocation(ctx, loc.ID)
	require.NoError(t, err)
	require.Len(t, packages, 1)
	assert.Equal(t, 10, packages[0].Quantity)

	entries, err := r.changeLog.ListForOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// negative quantities are refused by the schema
	err = r.ledger.SetPackageQuantity(ctx, pkg.ID, -1)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	require.NoError(t, r.ledger.SetLocationAvailable(ctx, loc.ID, true))
	got, err := r.ledger.GetLocation(ctx, loc.ID)
	require.NoError(t, err)
	assert.True(t, got.Available)
}

func TestIntegration_ChangeLogIsAppendOnly(t *testing.T) {
	suite, r := setupIntegration(t)
	ctx := testutil.DefaultTestContext(t)

	entry := &domain.ChangeLogEntry{
		CheckOrderID:   uuid.New().String(),
		InspectionID:   uuid.New().String(),
		LocationID:     uuid.New().String(),
		PackageID:      uuid.New().String(),
		BeforeQuantity: 3,
		AfterQuantity:  0,
	}
	require.NoError(t, r.changeLog.Append(ctx, entry))

	_, err := suite.DB.ExecContext(ctx, `UPDATE stock_check_change_log SET after_quantity = 1 WHERE id = $1`, entry.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(mapErr(err), errors.ErrConflict))

	_, err = suite.DB.ExecContext(ctx, `DELETE FROM stock_check_change_log WHERE id = $1`, entry.ID)
	require.Error(t, err)

	entries, err := r.changeLog.ListForOrder(ctx, entry.CheckOrderID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].BeforeQuantity)
}

func TestIntegration_UserCache(t *testing.T) {
	suite, r := setupIntegration(t)
	ctx := testutil.DefaultTestContext(t)

	user := suite.Fixtures.User(testutil.WithName("Anna", "Schmidt"))
	require.NoError(t, r.users.Upsert(ctx, user))

	user.LastName = "Weber"
	require.NoError(t, r.users.Upsert(ctx, user))

	got, err := r.users.Get(ctx, user.UserID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Anna Weber", got.FullName())

	require.NoError(t, r.users.Delete(ctx, user.UserID))
	got, err = r.users.Get(ctx, user.UserID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIntegration_InspectionsListInInsertionOrder(t *testing.T) {
	suite, r := setupIntegration(t)
	ctx := testutil.DefaultTestContext(t)

	var scope []string
	for i := 0; i < 5; i++ {
		loc := suite.Fixtures.Location()
		require.NoError(t, r.ledger.CreateLocation(ctx, loc))
		scope = append(scope, loc.ID)
	}
	order := suite.Fixtures.CheckOrder(uuid.New().String(), scope...)
	require.NoError(t, r.orders.Create(ctx, order))

	// one transaction gives every row the same created_at
	err := suite.DB.WithTx(ctx, func(ctx context.Context) error {
		for _, locID := range scope {
			if err := r.inspections.Create(ctx, &domain.Inspection{CheckOrderID: order.ID, LocationID: locID}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	list, total, err := r.inspections.ListByOrder(ctx, order.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(len(scope)), total)
	var got []string
	for _, insp := range list {
		got = append(got, insp.LocationID)
	}
	assert.Equal(t, scope, got)

	page, _, err := r.inspections.ListByOrder(ctx, order.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, scope[2], page[0].LocationID)
}
