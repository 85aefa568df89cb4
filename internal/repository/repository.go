package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/adesina-dev/panelpay/internal/domain"
	"github.com/adesina-dev/panelpay/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so the same query set
// runs inside and outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository holds the hand-written queries against the account store.
type Repository struct {
	db DBTX
}

func New(db DBTX) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateProfile(ctx context.Context, p *models.Profile) error {
	query := `INSERT INTO profiles (id, email, balance, referral_code, referred_by, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW()) RETURNING created_at`
	err := r.db.QueryRow(ctx, query, p.ID, p.Email, p.Balance, p.ReferralCode, p.ReferredBy, p.Role).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (r *Repository) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	p := &models.Profile{}
	query := `SELECT id, email, balance, referral_code, referred_by, role, created_at FROM profiles WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.Email, &p.Balance, &p.ReferralCode, &p.ReferredBy, &p.Role, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

func (r *Repository) GetProfileByReferralCode(ctx context.Context, code string) (*models.Profile, error) {
	p := &models.Profile{}
	query := `SELECT id, email, balance, referral_code, referred_by, role, created_at FROM profiles WHERE referral_code = $1`
	err := r.db.QueryRow(ctx, query, code).Scan(&p.ID, &p.Email, &p.Balance, &p.ReferralCode, &p.ReferredBy, &p.Role, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile by referral code: %w", err)
	}
	return p, nil
}

// creditBalance adds to a profile balance. The caller runs it inside a
// transaction alongside the status transition that justifies the credit.
func (r *Repository) creditBalance(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE profiles SET balance = balance + $1 WHERE id = $2`, amount, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to credit balance: %w", err)
	}
	return tag.RowsAffected(), nil
}

// debitBalanceGuarded subtracts from a profile balance only when funds
// cover it. 0 rows affected means insufficient funds, never a negative
// balance.
func (r *Repository) debitBalanceGuarded(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE profiles SET balance = balance - $1 WHERE id = $2 AND balance >= $1`, amount, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to debit balance: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) CreateReferral(ctx context.Context, referrerID, referredID uuid.UUID) error {
	query := `INSERT INTO referrals (referrer_id, referred_id, bonus_paid, created_at) VALUES ($1, $2, FALSE, NOW())`
	if _, err := r.db.Exec(ctx, query, referrerID, referredID); err != nil {
		return fmt.Errorf("failed to create referral: %w", err)
	}
	return nil
}

// markReferralBonusPaid flips the bonus flag exactly once and reports the
// referrer to credit. pgx.ErrNoRows means the bonus was already paid or no
// referral exists.
func (r *Repository) markReferralBonusPaid(ctx context.Context, referredID uuid.UUID) (uuid.UUID, error) {
	var referrerID uuid.UUID
	query := `UPDATE referrals SET bonus_paid = TRUE WHERE referred_id = $1 AND bonus_paid = FALSE RETURNING referrer_id`
	err := r.db.QueryRow(ctx, query, referredID).Scan(&referrerID)
	if err != nil {
		return uuid.Nil, err
	}
	return referrerID, nil
}

func (r *Repository) CreateDeposit(ctx context.Context, d *models.Deposit) error {
	query := `INSERT INTO deposits (id, user_id, amount, reference, status, payment_method, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query, d.ID, d.UserID, d.Amount, d.Reference, d.Status, d.PaymentMethod).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create deposit: %w", err)
	}
	return nil
}

func (r *Repository) GetDeposit(ctx context.Context, id uuid.UUID) (*models.Deposit, error) {
	return r.scanDeposit(ctx, `SELECT id, user_id, amount, reference, status, payment_method, created_at, updated_at
		FROM deposits WHERE id = $1`, id)
}

func (r *Repository) GetDepositByReference(ctx context.Context, reference string) (*models.Deposit, error) {
	return r.scanDeposit(ctx, `SELECT id, user_id, amount, reference, status, payment_method, created_at, updated_at
		FROM deposits WHERE reference = $1`, reference)
}

func (r *Repository) scanDeposit(ctx context.Context, query string, arg any) (*models.Deposit, error) {
	d := &models.Deposit{}
	err := r.db.QueryRow(ctx, query, arg).Scan(&d.ID, &d.UserID, &d.Amount, &d.Reference, &d.Status, &d.PaymentMethod, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get deposit: %w", err)
	}
	return d, nil
}

// markDepositSettled flips a pending deposit to successful and returns the
// owner. pgx.ErrNoRows means the deposit is already terminal (or missing);
// the guard on current status is what makes settlement idempotent under
// concurrent duplicate deliveries.
func (r *Repository) markDepositSettled(ctx context.Context, reference string) (uuid.UUID, error) {
	var ownerID uuid.UUID
	query := `UPDATE deposits SET status = $1, updated_at = NOW() WHERE reference = $2 AND status = $3 RETURNING user_id`
	err := r.db.QueryRow(ctx, query, domain.DepositSuccessful, reference, domain.DepositPending).Scan(&ownerID)
	if err != nil {
		return uuid.Nil, err
	}
	return ownerID, nil
}

// FailDeposit marks a pending deposit failed. Terminal deposits are left
// untouched.
func (r *Repository) FailDeposit(ctx context.Context, reference string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE deposits SET status = $1, updated_at = NOW() WHERE reference = $2 AND status = $3`,
		domain.DepositFailed, reference, domain.DepositPending)
	if err != nil {
		return false, fmt.Errorf("failed to fail deposit: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) insertOrder(ctx context.Context, o *models.Order) error {
	query := `INSERT INTO orders (id, user_id, service_id, quantity, target_link, total_price, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW()) RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query, o.ID, o.UserID, o.ServiceID, o.Quantity, o.TargetLink, o.TotalPrice, o.Status).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *Repository) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	o := &models.Order{}
	query := `SELECT id, user_id, service_id, quantity, target_link, total_price, status, provider_order_id, created_at, updated_at
		FROM orders WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(&o.ID, &o.UserID, &o.ServiceID, &o.Quantity, &o.TargetLink, &o.TotalPrice, &o.Status, &o.ProviderOrderID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return o, nil
}

// PendingOrders returns the oldest pending orders joined with their
// service's provider identifier. Ordering by creation time keeps dispatcher
// runs deterministic.
func (r *Repository) PendingOrders(ctx context.Context, limit int32) ([]models.PendingOrder, error) {
	query := `
		SELECT o.id, o.user_id, o.service_id, o.quantity, o.target_link, o.total_price, o.status,
		       o.provider_order_id, o.created_at, o.updated_at, s.provider_service_id
		FROM orders o
		JOIN services s ON s.id = o.service_id
		WHERE o.status = $1
		ORDER BY o.created_at ASC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, domain.OrderPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending orders: %w", err)
	}
	defer rows.Close()

	var orders []models.PendingOrder
	for rows.Next() {
		var o models.PendingOrder
		if err := rows.Scan(&o.ID, &o.UserID, &o.ServiceID, &o.Quantity, &o.TargetLink, &o.TotalPrice, &o.Status,
			&o.ProviderOrderID, &o.CreatedAt, &o.UpdatedAt, &o.ProviderServiceID); err != nil {
			return nil, fmt.Errorf("failed to scan pending order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// MarkOrderProcessing records the provider tracking id and advances a
// pending order in one conditional write.
func (r *Repository) MarkOrderProcessing(ctx context.Context, id uuid.UUID, providerOrderID string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE orders SET status = $1, provider_order_id = $2, updated_at = NOW() WHERE id = $3 AND status = $4`,
		domain.OrderProcessing, providerOrderID, id, domain.OrderPending)
	if err != nil {
		return false, fmt.Errorf("failed to mark order processing: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) MarkOrderFailed(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		domain.OrderFailed, id, domain.OrderPending)
	if err != nil {
		return false, fmt.Errorf("failed to mark order failed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) CreateWithdrawal(ctx context.Context, w *models.Withdrawal) error {
	query := `INSERT INTO withdrawals (id, user_id, amount, account_name, account_number, bank, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW()) RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query, w.ID, w.UserID, w.Amount, w.AccountName, w.AccountNumber, w.Bank, w.Status).Scan(&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create withdrawal: %w", err)
	}
	return nil
}

func (r *Repository) GetWithdrawal(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	w := &models.Withdrawal{}
	query := `SELECT id, user_id, amount, account_name, account_number, bank, status, created_at, updated_at
		FROM withdrawals WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(&w.ID, &w.UserID, &w.Amount, &w.AccountName, &w.AccountNumber, &w.Bank, &w.Status, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get withdrawal: %w", err)
	}
	return w, nil
}

func (r *Repository) CreateService(ctx context.Context, s *models.Service) error {
	query := `INSERT INTO services (name, price_per_unit, min_quantity, max_quantity, provider_service_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query, s.Name, s.PricePerUnit, s.MinQuantity, s.MaxQuantity, s.ProviderServiceID).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	return nil
}

func (r *Repository) UpdateService(ctx context.Context, s *models.Service) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE services SET name = $1, price_per_unit = $2, min_quantity = $3, max_quantity = $4, provider_service_id = $5 WHERE id = $6`,
		s.Name, s.PricePerUnit, s.MinQuantity, s.MaxQuantity, s.ProviderServiceID, s.ID)
	if err != nil {
		return fmt.Errorf("failed to update service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteService(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *Repository) GetService(ctx context.Context, id int64) (*models.Service, error) {
	s := &models.Service{}
	query := `SELECT id, name, price_per_unit, min_quantity, max_quantity, provider_service_id, created_at FROM services WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(&s.ID, &s.Name, &s.PricePerUnit, &s.MinQuantity, &s.MaxQuantity, &s.ProviderServiceID, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return s, nil
}

func (r *Repository) ListServices(ctx context.Context) ([]models.Service, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, price_per_unit, min_quantity, max_quantity, provider_service_id, created_at FROM services ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var services []models.Service
	for rows.Next() {
		var s models.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.PricePerUnit, &s.MinQuantity, &s.MaxQuantity, &s.ProviderServiceID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

// insertAudit stores a single immutable audit record.
func (r *Repository) insertAudit(ctx context.Context, entityType, entityID string, actorID *uuid.UUID, action, prevState, nextState string) error {
	query := `INSERT INTO audit_log (entity_type, entity_id, actor_id, action, prev_state, next_state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`
	if _, err := r.db.Exec(ctx, query, entityType, entityID, actorID, action, prevState, nextState); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// CountNegativeBalances should always return zero; anything else means a
// conditional update guard was bypassed.
func (r *Repository) CountNegativeBalances(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM profiles WHERE balance < 0`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count negative balances: %w", err)
	}
	return n, nil
}

// CountStalePendingOrders counts pending orders older than the cutoff, a
// signal that the dispatcher is not keeping up.
func (r *Repository) CountStalePendingOrders(ctx context.Context, olderThan int64) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE status = $1 AND created_at < NOW() - make_interval(secs => $2)`,
		domain.OrderPending, olderThan).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count stale pending orders: %w", err)
	}
	return n, nil
}
