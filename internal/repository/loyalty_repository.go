package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/smarthotel/booking/internal/model"
)

// LoyaltyRepo provides access to the `loyalty_accounts` table.  There is
// at most one account per user; accounts are created lazily the first
// time a credit or a balance read needs one.
type LoyaltyRepo struct{ db *sql.DB }

func NewLoyaltyRepo(db *sql.DB) *LoyaltyRepo { return &LoyaltyRepo{db: db} }

const loyaltyCols = "id, user_id, points_balance, last_updated"

func scanAccount(row interface{ Scan(...any) error }) (model.LoyaltyAccount, error) {
	var a model.LoyaltyAccount
	err := row.Scan(&a.ID, &a.UserID, &a.PointsBalance, &a.LastUpdated)
	return a, err
}

// GetByUser fetches the user's account; sql.ErrNoRows when none exists.
func (r *LoyaltyRepo) GetByUser(ctx context.Context, userID uint64) (model.LoyaltyAccount, error) {
	return scanAccount(r.db.QueryRowContext(ctx,
		"SELECT "+loyaltyCols+" FROM loyalty_accounts WHERE user_id=?", userID))
}

// GetOrCreate returns the user's account, creating a zero-balance one
// when absent.  The upsert tolerates a concurrent create racing on the
// UNIQUE(user_id) index.
func (r *LoyaltyRepo) GetOrCreate(ctx context.Context, userID uint64) (model.LoyaltyAccount, error) {
	a, err := r.GetByUser(ctx, userID)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return a, err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO loyalty_accounts (user_id, points_balance, last_updated)
		 VALUES (?, 0, UTC_TIMESTAMP())
		 ON DUPLICATE KEY UPDATE user_id = user_id`, userID)
	if err != nil {
		return a, err
	}
	return r.GetByUser(ctx, userID)
}

// AccrueTx credits points within the caller's transaction, creating the
// account with that balance when none exists.  Accrual never rejects.
func (r *LoyaltyRepo) AccrueTx(ctx context.Context, tx *sql.Tx, userID uint64, points int64) error {
	if points <= 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO loyalty_accounts (user_id, points_balance, last_updated)
		 VALUES (?, ?, UTC_TIMESTAMP())
		 ON DUPLICATE KEY UPDATE
		   points_balance = points_balance + VALUES(points_balance),
		   last_updated = UTC_TIMESTAMP()`,
		userID, points)
	return err
}

// DebitTx atomically removes points within the caller's transaction.
// The guard in the WHERE clause makes the balance check and the debit a
// single statement, so two racing redemptions cannot jointly overdraw
// the account; ErrInsufficientPoints when the guard fails.
func (r *LoyaltyRepo) DebitTx(ctx context.Context, tx *sql.Tx, userID uint64, points int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE loyalty_accounts
		 SET points_balance = points_balance - ?, last_updated = UTC_TIMESTAMP()
		 WHERE user_id = ? AND points_balance >= ?`,
		points, userID, points)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientPoints
	}
	return nil
}
