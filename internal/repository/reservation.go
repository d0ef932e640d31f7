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

// ReservationRepository 预约表访问
type ReservationRepository struct {
	db *DB
}

// NewReservationRepository 创建预约仓库
func NewReservationRepository(db *DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

const reservationColumns = `id, spot_id, plate, active, created_at`

func scanReservation(row pgx.Row) (*models.Reservation, error) {
	var reservation models.Reservation
	err := row.Scan(&reservation.ID, &reservation.SpotID, &reservation.Plate,
		&reservation.Active, &reservation.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// InsertReservation 新增预约
func (r *ReservationRepository) InsertReservation(ctx context.Context, reservation *models.Reservation) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO reservations (id, spot_id, plate, active, created_at) VALUES ($1, $2, $3, $4, $5)`,
		reservation.ID, reservation.SpotID, reservation.Plate, reservation.Active, reservation.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

// GetReservation 按编号查预约
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	reservation, err := scanReservation(r.db.Pool.QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.NotFound("reservation %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query reservation: %w", err)
	}
	return reservation, nil
}

// ActiveReservationForSpot 查车位当前有效预约
func (r *ReservationRepository) ActiveReservationForSpot(ctx context.Context, spotID string) (*models.Reservation, error) {
	reservation, err := scanReservation(r.db.Pool.QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE spot_id = $1 AND active ORDER BY created_at DESC LIMIT 1`, spotID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.NotFound("no active reservation for spot %s", spotID)
	}
	if err != nil {
		return nil, fmt.Errorf("query active reservation: %w", err)
	}
	return reservation, nil
}

// UpdateReservation 更新预约的车牌与有效状态
func (r *ReservationRepository) UpdateReservation(ctx context.Context, reservation *models.Reservation) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE reservations SET plate = $1, active = $2 WHERE id = $3`,
		reservation.Plate, reservation.Active, reservation.ID)
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFound("reservation %s not found", reservation.ID)
	}
	return nil
}

// ListActiveReservations 列出全部有效预约
func (r *ReservationRepository) ListActiveReservations(ctx context.Context) ([]*models.Reservation, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE active ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*models.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, reservation)
	}
	return reservations, rows.Err()
}

// ConsumedReservationExists 该车牌在指定时间后是否消费过该车位的预约
func (r *ReservationRepository) ConsumedReservationExists(ctx context.Context, spotID, plate string, since time.Time) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM reservations
			WHERE spot_id = $1 AND plate = $2 AND NOT active AND created_at <= $3
		)`, spotID, plate, since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query consumed reservation: %w", err)
	}
	return exists, nil
}
