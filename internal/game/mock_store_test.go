package game

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"oilrush/internal/economy"
	"oilrush/internal/store"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetProfile(ctx context.Context, id string) (economy.Profile, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(economy.Profile), args.Error(1)
}

func (m *MockStore) GetProfileByReferralCode(ctx context.Context, code string) (economy.Profile, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(economy.Profile), args.Error(1)
}

func (m *MockStore) CreateProfile(ctx context.Context, p economy.Profile, txs []economy.Transaction) error {
	args := m.Called(ctx, p, txs)
	return args.Error(0)
}

func (m *MockStore) ListWells(ctx context.Context, id string) ([]economy.Well, error) {
	args := m.Called(ctx, id)
	return args.Get(0).([]economy.Well), args.Error(1)
}

func (m *MockStore) ListBoosters(ctx context.Context, id string) ([]economy.Booster, error) {
	args := m.Called(ctx, id)
	return args.Get(0).([]economy.Booster), args.Error(1)
}

func (m *MockStore) ListTransactions(ctx context.Context, id string, limit int) ([]economy.Transaction, error) {
	args := m.Called(ctx, id, limit)
	return args.Get(0).([]economy.Transaction), args.Error(1)
}

func (m *MockStore) Commit(ctx context.Context, mut store.Mutation) error {
	args := m.Called(ctx, mut)
	return args.Error(0)
}

func (m *MockStore) PurgeExpiredBoosters(ctx context.Context, before time.Time) ([]string, error) {
	args := m.Called(ctx, before)
	return args.Get(0).([]string), args.Error(1)
}

func newMockService(st store.Store) *Service {
	return NewService(st, economy.DefaultCatalog(), slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithRetryDelay(time.Millisecond),
		WithClock(func() time.Time { return time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC) }),
	)
}

func expectSnapshot(m *MockStore, p economy.Profile) {
	m.On("GetProfile", mock.Anything, p.ID).Return(p, nil)
	m.On("ListWells", mock.Anything, p.ID).Return([]economy.Well{}, nil)
	m.On("ListBoosters", mock.Anything, p.ID).Return([]economy.Booster{}, nil)
}

func TestMutateGivesUpAfterRetryBudget(t *testing.T) {
	m := new(MockStore)
	expectSnapshot(m, economy.Profile{ID: "u1", Version: 3, Multiplier: 1, Balances: economy.Balances{Money: 10_000}})
	m.On("Commit", mock.Anything, mock.Anything).Return(store.ErrVersionConflict)

	_, err := newMockService(m).BuyWell(context.Background(), "u1", economy.WellStarter, "")
	assert.ErrorIs(t, err, ErrTxConflict)
	m.AssertNumberOfCalls(t, "Commit", maxCommitAttempts)
	m.AssertNumberOfCalls(t, "GetProfile", maxCommitAttempts)
}

func TestMutateRetriesOnceThenCommits(t *testing.T) {
	m := new(MockStore)
	expectSnapshot(m, economy.Profile{ID: "u1", Version: 3, Multiplier: 1, Balances: economy.Balances{Money: 10_000}})
	m.On("Commit", mock.Anything, mock.Anything).Return(store.ErrVersionConflict).Once()
	m.On("Commit", mock.Anything, mock.MatchedBy(func(mut store.Mutation) bool {
		return mut.ExpectedVersion == 3 && mut.Action == "buy_well" && len(mut.UpsertWells) == 1 &&
			mut.Profile.Balances.Money == 9_000 && mut.Profile.DailyIncome == 2_000
	})).Return(nil).Once()

	got, err := newMockService(m).BuyWell(context.Background(), "u1", economy.WellStarter, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1_000), got.Cost)
	m.AssertExpectations(t)
}

func TestRemoteFailureWrapsCause(t *testing.T) {
	m := new(MockStore)
	m.On("GetProfile", mock.Anything, "u1").Return(economy.Profile{}, errors.New("connection reset"))

	_, err := newMockService(m).Dashboard(context.Background(), "u1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemoteFailure)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestCommitFailureIsRemote(t *testing.T) {
	m := new(MockStore)
	expectSnapshot(m, economy.Profile{ID: "u1", Version: 1, Multiplier: 1, Balances: economy.Balances{Money: 10_000}})
	m.On("Commit", mock.Anything, mock.Anything).Return(errors.New("503 from rpc"))

	_, err := newMockService(m).OpenCase(context.Background(), "u1", "basic_case", "")
	assert.ErrorIs(t, err, ErrRemoteFailure)
	m.AssertNumberOfCalls(t, "Commit", 1)
}

func TestNoOpRefreshSkipsCommit(t *testing.T) {
	m := new(MockStore)
	expectSnapshot(m, economy.Profile{ID: "u1", Version: 1, Multiplier: 1})
	m.On("PurgeExpiredBoosters", mock.Anything, mock.Anything).Return([]string{"u1"}, nil)

	n, err := newMockService(m).PurgeExpiredBoosters(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	m.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
}

func TestEnsureProfileExistingSkipsCreate(t *testing.T) {
	m := new(MockStore)
	m.On("GetProfile", mock.Anything, "u1").Return(economy.Profile{ID: "u1", ReferralCode: "ABCDEFGH"}, nil)

	p, err := newMockService(m).EnsureProfile(context.Background(), "u1", "ZZZZZZZZ")
	require.NoError(t, err)
	assert.Equal(t, "ABCDEFGH", p.ReferralCode)
	m.AssertNotCalled(t, "CreateProfile", mock.Anything, mock.Anything, mock.Anything)
}
