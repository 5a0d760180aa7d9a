package importer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stock-service/internal/grid"
	"stock-service/internal/models"
)

// MockStockStore is a mock implementation of StockStore
type MockStockStore struct {
	mock.Mock
}

var _ StockStore = (*MockStockStore)(nil)

func (m *MockStockStore) UpsertStock(ctx context.Context, view models.StockView, entries []grid.StockEntry) (int, error) {
	args := m.Called(ctx, view, entries)
	return args.Int(0), args.Error(1)
}

// MockInvalidator is a mock implementation of Invalidator
type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) InvalidateStockCache(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockRunRecorder is a mock implementation of RunRecorder
type MockRunRecorder struct {
	mock.Mock
}

func (m *MockRunRecorder) CreateImportRun(ctx context.Context, run *models.StockImportRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

// reportGrid holds one product block carrying both report sections
func reportGrid() grid.Grid {
	g := make(grid.Grid, grid.DefaultBlockSize)
	for i := range g {
		g[i] = grid.Row{}
	}
	g[0] = grid.TextRow("203 - AZUL")
	g[1] = grid.TextRow("025 - MARINHO")
	g[2] = grid.TextRow("", "34", "35", "36")
	g[5] = grid.TextRow("[C] Disponível", "1", "", "2")
	g[9] = grid.TextRow("[G] Saldo", "5", "7")
	return g
}

var (
	wantGeneral = []grid.StockEntry{
		{SKU: "203.025-34", Quantidade: 5},
		{SKU: "203.025-35", Quantidade: 7},
	}
	wantReady = []grid.StockEntry{
		{SKU: "203.025-34", Quantidade: 1},
		{SKU: "203.025-36", Quantidade: 2},
	}
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func fixedClock() func() time.Time {
	t := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func newTestService(store StockStore, recorder RunRecorder, invalidators ...Invalidator) *Service {
	opts := DefaultOptions()
	opts.Now = fixedClock()
	opts.UpsertTimeout = time.Second
	return NewService(store, recorder, testLogger(), opts, invalidators...)
}

func TestImport_Success(t *testing.T) {
	store := new(MockStockStore)
	inv := new(MockInvalidator)
	recorder := new(MockRunRecorder)

	store.On("UpsertStock", mock.Anything, models.StockViewGeneral, wantGeneral).Return(2, nil).Once()
	store.On("UpsertStock", mock.Anything, models.StockViewReady, wantReady).Return(2, nil).Once()
	inv.On("InvalidateStockCache", mock.Anything).Return(nil).Once()
	recorder.On("CreateImportRun", mock.Anything, mock.MatchedBy(func(run *models.StockImportRun) bool {
		return run.Status == models.ImportStatusSuccess &&
			run.GeneralCount == 2 && run.ReadyCount == 2 &&
			run.GeneralQuantity == 12 && run.ReadyQuantity == 3 &&
			run.Operator == "ana" && len(run.Log) > 0
	})).Return(nil).Once()

	svc := newTestService(store, recorder, inv)
	result, err := svc.Import(context.Background(), Request{Grid: reportGrid(), Source: "estoque.xlsx", Operator: "ana"})

	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusSuccess, result.Status)
	assert.True(t, result.General.Persisted)
	assert.True(t, result.Ready.Persisted)
	assert.Equal(t, "estoque_geral", result.General.Table)
	assert.Equal(t, "estoque_pronta", result.Ready.Table)
	assert.Equal(t, "[09:30:00] Reading estoque.xlsx (10 rows)", result.Log[0])
	assert.Equal(t, "[09:30:00] Import finished", result.Log[len(result.Log)-1])

	store.AssertExpectations(t)
	inv.AssertExpectations(t)
	recorder.AssertExpectations(t)
}

func TestImport_WritesGeneralBeforeReady(t *testing.T) {
	store := new(MockStockStore)
	var order []models.StockView
	store.On("UpsertStock", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			order = append(order, args.Get(1).(models.StockView))
		}).
		Return(0, nil)

	svc := newTestService(store, nil)
	_, err := svc.Import(context.Background(), Request{Grid: reportGrid(), Source: "estoque.xlsx"})

	require.NoError(t, err)
	assert.Equal(t, []models.StockView{models.StockViewGeneral, models.StockViewReady}, order)
}

func TestImport_NoData(t *testing.T) {
	store := new(MockStockStore)
	inv := new(MockInvalidator)
	recorder := new(MockRunRecorder)
	recorder.On("CreateImportRun", mock.Anything, mock.MatchedBy(func(run *models.StockImportRun) bool {
		return run.Status == models.ImportStatusNoData
	})).Return(nil).Once()

	svc := newTestService(store, recorder, inv)
	result, err := svc.Import(context.Background(), Request{
		Grid:   grid.Grid{grid.TextRow("RELATÓRIO VAZIO")},
		Source: "vazio.xlsx",
	})

	assert.ErrorIs(t, err, ErrNoData)
	require.NotNil(t, result)
	assert.Equal(t, models.ImportStatusNoData, result.Status)
	store.AssertNotCalled(t, "UpsertStock", mock.Anything, mock.Anything, mock.Anything)
	inv.AssertNotCalled(t, "InvalidateStockCache", mock.Anything)
	recorder.AssertExpectations(t)
}

func TestImport_PartialFailure(t *testing.T) {
	store := new(MockStockStore)
	inv := new(MockInvalidator)
	dbErr := errors.New("connection reset")

	store.On("UpsertStock", mock.Anything, models.StockViewGeneral, mock.Anything).Return(2, nil).Once()
	store.On("UpsertStock", mock.Anything, models.StockViewReady, mock.Anything).Return(0, dbErr).Once()

	svc := newTestService(store, nil, inv)
	result, err := svc.Import(context.Background(), Request{Grid: reportGrid(), Source: "estoque.xlsx"})

	var partial *PartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.ErrorIs(t, err, dbErr)
	assert.False(t, partial.AllFailed())
	assert.Equal(t, []models.StockView{models.StockViewGeneral}, partial.Succeeded())
	assert.Contains(t, err.Error(), "general stock ok")

	assert.Equal(t, models.ImportStatusPartial, result.Status)
	assert.True(t, result.General.Persisted)
	assert.False(t, result.Ready.Persisted)
	assert.Equal(t, "connection reset", result.Ready.Error)

	// No rollback of the general table and no invalidation.
	store.AssertNumberOfCalls(t, "UpsertStock", 2)
	inv.AssertNotCalled(t, "InvalidateStockCache", mock.Anything)
}

func TestImport_BothTablesFail(t *testing.T) {
	store := new(MockStockStore)
	store.On("UpsertStock", mock.Anything, mock.Anything, mock.Anything).Return(0, errors.New("db down"))

	svc := newTestService(store, nil)
	result, err := svc.Import(context.Background(), Request{Grid: reportGrid(), Source: "estoque.xlsx"})

	var partial *PartialFailureError
	require.ErrorAs(t, err, &partial)
	assert.True(t, partial.AllFailed())
	assert.Empty(t, partial.Succeeded())
	assert.Equal(t, models.ImportStatusFailed, result.Status)
}

func TestImport_DryRun(t *testing.T) {
	store := new(MockStockStore)
	recorder := new(MockRunRecorder)

	svc := newTestService(store, recorder)
	result, err := svc.Import(context.Background(), Request{Grid: reportGrid(), Source: "estoque.xlsx", DryRun: true})

	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusValidated, result.Status)
	assert.Equal(t, wantGeneral, result.General.Entries)
	assert.Equal(t, wantReady, result.Ready.Entries)
	store.AssertNotCalled(t, "UpsertStock", mock.Anything, mock.Anything, mock.Anything)
	recorder.AssertNotCalled(t, "CreateImportRun", mock.Anything, mock.Anything)
}

func TestImport_UpsertTimeout(t *testing.T) {
	store := new(MockStockStore)
	store.On("UpsertStock", mock.Anything, mock.Anything, mock.Anything).
		Return(0, context.DeadlineExceeded).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
		})

	svc := newTestService(store, nil)
	_, err := svc.Import(context.Background(), Request{Grid: reportGrid(), Source: "estoque.xlsx"})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestImport_InvalidationFailureIsIgnored(t *testing.T) {
	store := new(MockStockStore)
	store.On("UpsertStock", mock.Anything, mock.Anything, mock.Anything).Return(2, nil)
	failing := new(MockInvalidator)
	failing.On("InvalidateStockCache", mock.Anything).Return(errors.New("redis down")).Once()
	healthy := new(MockInvalidator)
	healthy.On("InvalidateStockCache", mock.Anything).Return(nil).Once()

	svc := newTestService(store, nil, failing, healthy)
	result, err := svc.Import(context.Background(), Request{Grid: reportGrid(), Source: "estoque.xlsx"})

	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusSuccess, result.Status)
	failing.AssertExpectations(t)
	healthy.AssertExpectations(t)
}

func TestImport_RecorderFailureIsIgnored(t *testing.T) {
	store := new(MockStockStore)
	store.On("UpsertStock", mock.Anything, mock.Anything, mock.Anything).Return(2, nil)
	recorder := new(MockRunRecorder)
	recorder.On("CreateImportRun", mock.Anything, mock.Anything).Return(errors.New("history table missing"))

	svc := newTestService(store, recorder)
	_, err := svc.Import(context.Background(), Request{Grid: reportGrid(), Source: "estoque.xlsx"})

	assert.NoError(t, err)
}

func TestNewService_Defaults(t *testing.T) {
	svc := NewService(new(MockStockStore), nil, nil, Options{})

	assert.Equal(t, DefaultUpsertTimeout, svc.opts.UpsertTimeout)
	assert.Equal(t, grid.GeneralStock, svc.opts.General)
	assert.Equal(t, grid.ReadyStock, svc.opts.Ready)
	assert.NotNil(t, svc.opts.Now)
}

func TestService_Extract(t *testing.T) {
	svc := newTestService(new(MockStockStore), nil)

	general, ready := svc.Extract(reportGrid())
	assert.Equal(t, wantGeneral, general)
	assert.Equal(t, wantReady, ready)
}
