package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/smarthotel/booking/internal/model"
)

// ErrPaymentNotFound is returned when a payment id does not resolve to a row.
var ErrPaymentNotFound = errors.New("payment not found")

// PaymentRepo provides access to the `payments` table.  Payments are
// created only by booking creation and mutated only by redemption, so
// every write is Tx-scoped.
type PaymentRepo struct{ db *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentCols = "id, user_id, booking_id, amount_cents, status, method, transaction_ref, created_at, updated_at"

func scanPayment(row interface{ Scan(...any) error }) (model.Payment, error) {
	var p model.Payment
	err := row.Scan(&p.ID, &p.UserID, &p.BookingID, &p.AmountCents, &p.Status, &p.Method, &p.TransactionRef, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// CreateTx inserts a payment within the caller's transaction, rejecting
// a second payment for the same booking via the UNIQUE(booking_id)
// index, surfaced as ErrConflict.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO payments (user_id, booking_id, amount_cents, status, method, transaction_ref) VALUES (?,?,?,?,?,?)",
		p.UserID, p.BookingID, p.AmountCents, p.Status, p.Method, p.TransactionRef)
	if err != nil {
		if IsDuplicateEntry(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// MarkCompletedTx flips a payment to Completed.  The gateway is
// simulated in-process, so this happens in the same transaction that
// created the payment.
func (r *PaymentRepo) MarkCompletedTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE payments SET status=? WHERE id=?", model.PaymentCompleted, id)
	return err
}

// GetByID fetches a payment; ErrPaymentNotFound when absent.
func (r *PaymentRepo) GetByID(ctx context.Context, id uint64) (model.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx,
		"SELECT "+paymentCols+" FROM payments WHERE id=?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrPaymentNotFound
	}
	return p, err
}

// GetForUpdateTx reads a payment inside tx under a row lock so a
// redemption's discount write cannot race another amount mutation.
func (r *PaymentRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Payment, error) {
	p, err := scanPayment(tx.QueryRowContext(ctx,
		"SELECT "+paymentCols+" FROM payments WHERE id=? FOR UPDATE", id))
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrPaymentNotFound
	}
	return p, err
}

// UpdateAmountTx rewrites the payment amount.  Amounts only move down
// (redemption discount) and the caller must have floored at zero.
func (r *PaymentRepo) UpdateAmountTx(ctx context.Context, tx *sql.Tx, id uint64, amountCents int64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE payments SET amount_cents=? WHERE id=?", amountCents, id)
	return err
}
