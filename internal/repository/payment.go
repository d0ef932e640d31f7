package repository

import (
	"context"
	"fmt"

	"github.com/langchou/parklot/internal/models"
)

// PaymentRepository 支付表访问
type PaymentRepository struct {
	db *DB
}

// NewPaymentRepository 创建支付仓库
func NewPaymentRepository(db *DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// InsertPayment 记录一笔支付
func (r *PaymentRepository) InsertPayment(ctx context.Context, payment *models.Payment) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO payments (id, ticket_id, parking_fee, fine_amount, total, method, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		payment.ID, payment.TicketID, payment.ParkingFee, payment.FineAmount,
		payment.Total, payment.Method, payment.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// SumPayments 支付金额合计
func (r *PaymentRepository) SumPayments(ctx context.Context) (total, parkingFee, fineAmount float64, err error) {
	err = r.db.Pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(total), 0), COALESCE(SUM(parking_fee), 0), COALESCE(SUM(fine_amount), 0)
		 FROM payments`).Scan(&total, &parkingFee, &fineAmount)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("sum payments: %w", err)
	}
	return total, parkingFee, fineAmount, nil
}

// CountPayments 支付笔数
func (r *PaymentRepository) CountPayments(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count payments: %w", err)
	}
	return count, nil
}
