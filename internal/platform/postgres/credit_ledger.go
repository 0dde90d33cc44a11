package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/lessonforge/internal/admission"
	"github.com/phrazzld/lessonforge/internal/platform/logger"
)

// errDenied rolls back a debit transaction; it never leaves this file.
var errDenied = errors.New("admission denied")

// CreditLedger debits per-account credit balances. It implements admission.Gate.
type CreditLedger struct {
	db *sql.DB
}

// NewCreditLedger creates a ledger over db. The schema must already be migrated.
func NewCreditLedger(db *sql.DB) *CreditLedger {
	return &CreditLedger{db: db}
}

var _ admission.Gate = (*CreditLedger)(nil)

// Admit records a debit for req.RequestID and decrements the account balance
// in one transaction. A request id that was already debited for the same
// account, operation and amount is admitted again without a second debit; any
// other reuse of the id is denied. An insufficient balance or unknown account
// leaves the ledger untouched.
func (l *CreditLedger) Admit(ctx context.Context, req admission.Request) (admission.Decision, error) {
	log := logger.FromContext(ctx).With(
		slog.String("request_id", req.RequestID.String()),
		slog.String("operation", string(req.Operation)))

	if req.Cost <= 0 {
		return admission.Decision{Allowed: true}, nil
	}
	if req.AccountID == "" {
		return admission.Decision{Reason: admission.ReasonUnknownAccount}, nil
	}

	var decision admission.Decision
	err := runInTransaction(ctx, l.db, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO credit_debits (request_id, account_id, operation, amount)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (request_id) DO NOTHING`,
			req.RequestID, req.AccountID, string(req.Operation), req.Cost)
		if err != nil {
			if IsForeignKeyViolation(err) {
				decision = admission.Decision{Reason: admission.ReasonUnknownAccount}
				return errDenied
			}
			return fmt.Errorf("failed to record debit: %w", MapError(err))
		}

		inserted, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", MapError(err))
		}
		if inserted == 0 {
			var (
				accountID string
				operation string
				amount    int64
			)
			err := tx.QueryRowContext(ctx, `
				SELECT account_id, operation, amount
				FROM credit_debits
				WHERE request_id = $1`,
				req.RequestID).Scan(&accountID, &operation, &amount)
			if err != nil {
				return fmt.Errorf("failed to read existing debit: %w", MapError(err))
			}
			if accountID != req.AccountID || operation != string(req.Operation) || amount != req.Cost {
				decision = admission.Decision{Reason: admission.ReasonRequestIDReused}
				return errDenied
			}
			decision = admission.Decision{Allowed: true, Replayed: true}
			return nil
		}

		res, err = tx.ExecContext(ctx, `
			UPDATE credit_accounts
			SET balance = balance - $1, updated_at = now()
			WHERE account_id = $2 AND balance >= $1`,
			req.Cost, req.AccountID)
		if err != nil {
			if IsCheckConstraintViolation(err) {
				decision = admission.Decision{Reason: admission.ReasonInsufficientCredit}
				return errDenied
			}
			return fmt.Errorf("failed to decrement balance: %w", MapError(err))
		}

		updated, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", MapError(err))
		}
		if updated == 0 {
			decision = admission.Decision{Reason: admission.ReasonInsufficientCredit}
			return errDenied
		}

		decision = admission.Decision{Allowed: true}
		return nil
	})
	if err != nil && !errors.Is(err, errDenied) {
		log.ErrorContext(ctx, "credit admission failed", slog.String("error", err.Error()))
		return admission.Decision{}, err
	}

	log.InfoContext(ctx, "credit admission decided",
		slog.Bool("allowed", decision.Allowed),
		slog.Bool("replayed", decision.Replayed),
		slog.String("reason", decision.Reason),
		slog.Int64("cost", req.Cost))
	return decision, nil
}

// Balance returns the current balance for accountID.
func (l *CreditLedger) Balance(ctx context.Context, accountID string) (int64, error) {
	var balance int64
	err := l.db.QueryRowContext(ctx,
		`SELECT balance FROM credit_accounts WHERE account_id = $1`, accountID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", MapError(err))
	}
	return balance, nil
}

// Grant adds amount to an account, creating it when missing.
func (l *CreditLedger) Grant(ctx context.Context, accountID string, amount int64) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO credit_accounts (account_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (account_id) DO UPDATE
		SET balance = credit_accounts.balance + EXCLUDED.balance, updated_at = now()`,
		accountID, amount)
	if err != nil {
		return fmt.Errorf("failed to grant credit: %w", MapError(err))
	}
	return nil
}
