//go:build integration

package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/lessonforge/internal/admission"
	"github.com/phrazzld/lessonforge/internal/platform/logger"
	"github.com/phrazzld/lessonforge/internal/platform/postgres"
)

func setupLedger(t *testing.T) (*postgres.CreditLedger, context.Context) {
	t.Helper()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	log, _ := logger.GetTestLogger(t)
	ctx := logger.WithLogger(context.Background(), log)

	db, err := postgres.Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, postgres.Migrate(ctx, db, log))
	return postgres.NewCreditLedger(db), ctx
}

func newAccount(t *testing.T, ctx context.Context, ledger *postgres.CreditLedger, balance int64) string {
	t.Helper()
	id := "acct-" + uuid.NewString()
	require.NoError(t, ledger.Grant(ctx, id, balance))
	return id
}

func TestCreditLedger_Admit(t *testing.T) {
	ledger, ctx := setupLedger(t)

	t.Run("debits once per request id", func(t *testing.T) {
		account := newAccount(t, ctx, ledger, 5)
		req := admission.Request{AccountID: account, RequestID: uuid.New(), Operation: admission.OperationChat, Cost: 2}

		d, err := ledger.Admit(ctx, req)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.False(t, d.Replayed)

		d, err = ledger.Admit(ctx, req)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.True(t, d.Replayed)

		balance, err := ledger.Balance(ctx, account)
		require.NoError(t, err)
		assert.Equal(t, int64(3), balance)
	})

	t.Run("insufficient balance debits nothing", func(t *testing.T) {
		account := newAccount(t, ctx, ledger, 1)
		req := admission.Request{AccountID: account, RequestID: uuid.New(), Operation: admission.OperationImage, Cost: 2}

		d, err := ledger.Admit(ctx, req)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, admission.ReasonInsufficientCredit, d.Reason)

		balance, err := ledger.Balance(ctx, account)
		require.NoError(t, err)
		assert.Equal(t, int64(1), balance)

		// The rolled-back debit does not block a later attempt with the same id.
		require.NoError(t, ledger.Grant(ctx, account, 5))
		d, err = ledger.Admit(ctx, req)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.False(t, d.Replayed)
	})

	t.Run("reused request id must match the original debit", func(t *testing.T) {
		account := newAccount(t, ctx, ledger, 10)
		other := newAccount(t, ctx, ledger, 10)
		original := admission.Request{AccountID: account, RequestID: uuid.New(), Operation: admission.OperationChat, Cost: 2}

		d, err := ledger.Admit(ctx, original)
		require.NoError(t, err)
		require.True(t, d.Allowed)

		tests := []struct {
			name string
			req  admission.Request
		}{
			{"different account", admission.Request{AccountID: other, RequestID: original.RequestID, Operation: original.Operation, Cost: original.Cost}},
			{"different operation", admission.Request{AccountID: account, RequestID: original.RequestID, Operation: admission.OperationImage, Cost: original.Cost}},
			{"higher cost", admission.Request{AccountID: account, RequestID: original.RequestID, Operation: original.Operation, Cost: 9}},
			{"lower cost", admission.Request{AccountID: account, RequestID: original.RequestID, Operation: original.Operation, Cost: 1}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				d, err := ledger.Admit(ctx, tt.req)
				require.NoError(t, err)
				assert.False(t, d.Allowed)
				assert.False(t, d.Replayed)
				assert.Equal(t, admission.ReasonRequestIDReused, d.Reason)
			})
		}

		balance, err := ledger.Balance(ctx, account)
		require.NoError(t, err)
		assert.Equal(t, int64(8), balance)

		balance, err = ledger.Balance(ctx, other)
		require.NoError(t, err)
		assert.Equal(t, int64(10), balance)

		d, err = ledger.Admit(ctx, original)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.True(t, d.Replayed)
	})

	t.Run("unknown account", func(t *testing.T) {
		d, err := ledger.Admit(ctx, admission.Request{
			AccountID: "acct-missing-" + uuid.NewString(),
			RequestID: uuid.New(),
			Operation: admission.OperationChat,
			Cost:      1,
		})
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, admission.ReasonUnknownAccount, d.Reason)
	})

	t.Run("concurrent requests never overdraw", func(t *testing.T) {
		account := newAccount(t, ctx, ledger, 3)

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			allowed int
		)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				d, err := ledger.Admit(ctx, admission.Request{
					AccountID: account,
					RequestID: uuid.New(),
					Operation: admission.OperationChat,
					Cost:      1,
				})
				if assert.NoError(t, err) && d.Allowed {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 3, allowed)
		balance, err := ledger.Balance(ctx, account)
		require.NoError(t, err)
		assert.Zero(t, balance)
	})
}
