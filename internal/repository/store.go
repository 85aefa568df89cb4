package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/adesina-dev/panelpay/internal/domain"
	"github.com/adesina-dev/panelpay/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Store provides the query set plus the multi-statement financial operations
// that must run as single transactions. The embedded Repository promotes the
// plain queries, so one Store value satisfies the per-service interfaces.
type Store struct {
	*Repository
	pool   *pgxpool.Pool
	policy domain.ReferralPolicy
}

// NewStore creates a store wrapper around a pgx connection pool.
func NewStore(db *pgxpool.Pool, policy domain.ReferralPolicy) *Store {
	return &Store{
		Repository: New(db),
		pool:       db,
		policy:     policy,
	}
}

// Repo returns the non-transactional query set.
func (s *Store) Repo() *Repository {
	return s.Repository
}

// RunInTx executes fn within a database transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(r *Repository) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(New(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// SettleDeposit performs the idempotent settlement transition for one
// deposit reference: flip pending -> successful, credit the owner by the
// settled amount and, when the referral conditions hold, pay the referrer
// bonus and flip the bonus flag. The whole cascade is one transaction and
// every write is guarded by current state, so two concurrent deliveries of
// the same reference cannot both credit.
//
// Returns models.ErrNotFound when no deposit carries the reference. A
// deposit already in a terminal status yields Credited=false and no
// mutation.
func (s *Store) SettleDeposit(ctx context.Context, reference string, amount decimal.Decimal) (*models.Settlement, error) {
	settlement := &models.Settlement{Reference: reference}
	err := s.RunInTx(ctx, func(r *Repository) error {
		ownerID, err := r.markDepositSettled(ctx, reference)
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("settle deposit: %w", err)
			}
			// Duplicate delivery or unknown reference.
			existing, lookupErr := r.GetDepositByReference(ctx, reference)
			if lookupErr != nil {
				return lookupErr
			}
			settlement.OwnerID = existing.UserID
			settlement.Credited = false
			return nil
		}

		settlement.OwnerID = ownerID
		settlement.Credited = true

		rows, err := r.creditBalance(ctx, ownerID, amount)
		if err != nil {
			return err
		}
		if err := requireExactlyOne(rows, "credit deposit owner"); err != nil {
			return err
		}
		if err := r.insertAudit(ctx, "deposit", reference, nil, "settled",
			string(domain.DepositPending), string(domain.DepositSuccessful)); err != nil {
			return err
		}

		if amount.LessThan(s.policy.MinDeposit) {
			return nil
		}
		owner, err := r.GetProfile(ctx, ownerID)
		if err != nil {
			return err
		}
		if owner.ReferredBy == nil {
			return nil
		}

		referrerID, err := r.markReferralBonusPaid(ctx, ownerID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// Bonus already paid, or no referral row was recorded.
				return nil
			}
			return fmt.Errorf("mark referral bonus paid: %w", err)
		}

		rows, err = r.creditBalance(ctx, referrerID, s.policy.Bonus)
		if err != nil {
			return err
		}
		if err := requireExactlyOne(rows, "credit referrer bonus"); err != nil {
			return err
		}
		settlement.BonusPaid = true
		settlement.ReferrerID = &referrerID
		return r.insertAudit(ctx, "referral", ownerID.String(), nil, "bonus_paid", "unpaid", "paid")
	})
	if err != nil {
		return nil, err
	}
	return settlement, nil
}

// PlaceOrder debits the owner's balance by the order total and inserts the
// pending order in one transaction. The guarded debit is the only balance
// check: 0 rows affected means insufficient funds.
func (s *Store) PlaceOrder(ctx context.Context, order *models.Order) error {
	return s.RunInTx(ctx, func(r *Repository) error {
		rows, err := r.debitBalanceGuarded(ctx, order.UserID, order.TotalPrice)
		if err != nil {
			return err
		}
		if rows == 0 {
			return models.ErrInsufficientFunds
		}
		return r.insertOrder(ctx, order)
	})
}

// OverrideOrderStatus applies an administrative status change, validated
// against the order transition table and written conditionally on the
// status the decision was made against.
func (s *Store) OverrideOrderStatus(ctx context.Context, orderID uuid.UUID, next domain.OrderStatus, actorID uuid.UUID) error {
	return s.RunInTx(ctx, func(r *Repository) error {
		var current domain.OrderStatus
		err := r.db.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}
		if current == next {
			return nil
		}
		if !current.CanTransition(next) {
			return fmt.Errorf("%w: order %s -> %s", models.ErrInvalidTransition, current, next)
		}

		tag, err := r.db.Exec(ctx,
			`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
			next, orderID, current)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		if err := requireExactlyOne(tag.RowsAffected(), "override order status"); err != nil {
			return err
		}
		return r.insertAudit(ctx, "order", orderID.String(), &actorID, "status_override", string(current), string(next))
	})
}

// DecideWithdrawal applies an administrative withdrawal decision. Approval
// is the step that moves money: the owner's balance is debited atomically,
// guarded against overdraft, in the same transaction as the status flip.
func (s *Store) DecideWithdrawal(ctx context.Context, withdrawalID uuid.UUID, next domain.WithdrawalStatus, actorID uuid.UUID) error {
	return s.RunInTx(ctx, func(r *Repository) error {
		w := &models.Withdrawal{}
		err := r.db.QueryRow(ctx,
			`SELECT id, user_id, amount, status FROM withdrawals WHERE id = $1 FOR UPDATE`, withdrawalID).
			Scan(&w.ID, &w.UserID, &w.Amount, &w.Status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrNotFound
			}
			return fmt.Errorf("lock withdrawal: %w", err)
		}
		if w.Status == next {
			return nil
		}
		if !w.Status.CanTransition(next) {
			return fmt.Errorf("%w: withdrawal %s -> %s", models.ErrInvalidTransition, w.Status, next)
		}

		if w.Status == domain.WithdrawalPending && next == domain.WithdrawalApproved {
			rows, err := r.debitBalanceGuarded(ctx, w.UserID, w.Amount)
			if err != nil {
				return err
			}
			if rows == 0 {
				return models.ErrInsufficientFunds
			}
		}
		// A rejection after approval returns the held funds.
		if w.Status == domain.WithdrawalApproved && next == domain.WithdrawalRejected {
			rows, err := r.creditBalance(ctx, w.UserID, w.Amount)
			if err != nil {
				return err
			}
			if err := requireExactlyOne(rows, "refund rejected withdrawal"); err != nil {
				return err
			}
		}

		tag, err := r.db.Exec(ctx,
			`UPDATE withdrawals SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
			next, withdrawalID, w.Status)
		if err != nil {
			return fmt.Errorf("update withdrawal status: %w", err)
		}
		if err := requireExactlyOne(tag.RowsAffected(), "decide withdrawal"); err != nil {
			return err
		}
		return r.insertAudit(ctx, "withdrawal", withdrawalID.String(), &actorID, "decision", string(w.Status), string(next))
	})
}

func requireExactlyOne(rows int64, operation string) error {
	if rows != 1 {
		return fmt.Errorf("%s affected %d rows", operation, rows)
	}
	return nil
}
