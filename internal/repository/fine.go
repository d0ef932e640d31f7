package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/parklot/internal/fault"
	"github.com/langchou/parklot/internal/models"
)

// FineRepository 罚款表访问
type FineRepository struct {
	db *DB
}

// NewFineRepository 创建罚款仓库
func NewFineRepository(db *DB) *FineRepository {
	return &FineRepository{db: db}
}

const fineColumns = `id, plate, ticket_id, kind, amount, scheme, paid, created_at`

func scanFine(row pgx.Row) (*models.Fine, error) {
	var fine models.Fine
	err := row.Scan(&fine.ID, &fine.Plate, &fine.TicketID, &fine.Kind,
		&fine.Amount, &fine.Scheme, &fine.Paid, &fine.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &fine, nil
}

// InsertFine 新增罚款
func (r *FineRepository) InsertFine(ctx context.Context, fine *models.Fine) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO fines (id, plate, ticket_id, kind, amount, scheme, paid, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		fine.ID, fine.Plate, fine.TicketID, fine.Kind, fine.Amount, fine.Scheme, fine.Paid, fine.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert fine: %w", err)
	}
	return nil
}

// UpdateFineAmount 更新罚款金额，重算时使用
func (r *FineRepository) UpdateFineAmount(ctx context.Context, id string, amount float64) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE fines SET amount = $1 WHERE id = $2 AND NOT paid`, amount, id)
	if err != nil {
		return fmt.Errorf("update fine amount: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFound("unpaid fine %s not found", id)
	}
	return nil
}

// FineByTicketAndKind 按(票据,类型)查罚款，用于幂等生成
func (r *FineRepository) FineByTicketAndKind(ctx context.Context, ticketID string, kind models.FineKind) (*models.Fine, error) {
	fine, err := scanFine(r.db.Pool.QueryRow(ctx,
		`SELECT `+fineColumns+` FROM fines WHERE ticket_id = $1 AND kind = $2`, ticketID, kind))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.NotFound("no %s fine for ticket %s", kind, ticketID)
	}
	if err != nil {
		return nil, fmt.Errorf("query fine: %w", err)
	}
	return fine, nil
}

// UnpaidFinesForPlate 车牌的未付罚款，按创建时间从旧到新
func (r *FineRepository) UnpaidFinesForPlate(ctx context.Context, plate string) ([]*models.Fine, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+fineColumns+` FROM fines WHERE plate = $1 AND NOT paid ORDER BY created_at`, plate)
	if err != nil {
		return nil, fmt.Errorf("query unpaid fines: %w", err)
	}
	defer rows.Close()

	var fines []*models.Fine
	for rows.Next() {
		fine, err := scanFine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fine: %w", err)
		}
		fines = append(fines, fine)
	}
	return fines, rows.Err()
}

// MarkFinesPaid 批量标记已付
func (r *FineRepository) MarkFinesPaid(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE fines SET paid = TRUE WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("mark fines paid: %w", err)
	}
	return nil
}

// SumUnpaidFines 未付罚款合计，plate 为空时统计全场
func (r *FineRepository) SumUnpaidFines(ctx context.Context, plate string) (float64, error) {
	var total float64
	var err error
	if plate == "" {
		err = r.db.Pool.QueryRow(ctx,
			`SELECT COALESCE(SUM(amount), 0) FROM fines WHERE NOT paid`).Scan(&total)
	} else {
		err = r.db.Pool.QueryRow(ctx,
			`SELECT COALESCE(SUM(amount), 0) FROM fines WHERE NOT paid AND plate = $1`, plate).Scan(&total)
	}
	if err != nil {
		return 0, fmt.Errorf("sum unpaid fines: %w", err)
	}
	return total, nil
}
