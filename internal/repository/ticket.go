package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/parklot/internal/fault"
	"github.com/langchou/parklot/internal/models"
)

// TicketRepository 票据表访问
type TicketRepository struct {
	db *DB
}

// NewTicketRepository 创建票据仓库
func NewTicketRepository(db *DB) *TicketRepository {
	return &TicketRepository{db: db}
}

const ticketColumns = `id, plate, spot_id, entry_time, exit_time, fine_scheme`

func scanTicket(row pgx.Row) (*models.Ticket, error) {
	var ticket models.Ticket
	err := row.Scan(&ticket.ID, &ticket.Plate, &ticket.SpotID,
		&ticket.EntryTime, &ticket.ExitTime, &ticket.Scheme)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// InsertTicket 开票
func (r *TicketRepository) InsertTicket(ctx context.Context, ticket *models.Ticket) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO tickets (id, plate, spot_id, entry_time, exit_time, fine_scheme)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		ticket.ID, ticket.Plate, ticket.SpotID, ticket.EntryTime, ticket.ExitTime, ticket.Scheme)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

// GetTicket 按票号查票
func (r *TicketRepository) GetTicket(ctx context.Context, id string) (*models.Ticket, error) {
	ticket, err := scanTicket(r.db.Pool.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.NotFound("ticket %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query ticket: %w", err)
	}
	return ticket, nil
}

// ActiveTicketForPlate 查车牌当前未关闭的票据
func (r *TicketRepository) ActiveTicketForPlate(ctx context.Context, plate string) (*models.Ticket, error) {
	ticket, err := scanTicket(r.db.Pool.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE plate = $1 AND exit_time IS NULL`, plate))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.NotFound("no active ticket for vehicle %s", plate)
	}
	if err != nil {
		return nil, fmt.Errorf("query active ticket: %w", err)
	}
	return ticket, nil
}

// SetTicketExit 写入出场时间，只允许关闭未关闭的票据
func (r *TicketRepository) SetTicketExit(ctx context.Context, id string, exitTime time.Time) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE tickets SET exit_time = $1 WHERE id = $2 AND exit_time IS NULL`,
		exitTime, id)
	if err != nil {
		return fmt.Errorf("set ticket exit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fault.Conflict("ticket %s is already closed", id)
	}
	return nil
}

// CountOpenTickets 在场票据数
func (r *TicketRepository) CountOpenTickets(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE exit_time IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count open tickets: %w", err)
	}
	return count, nil
}
