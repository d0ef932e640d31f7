package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/parklot/internal/fault"
	"github.com/langchou/parklot/internal/models"
)

// SpotRepository 车位表访问
type SpotRepository struct {
	db *DB
}

// NewSpotRepository 创建车位仓库
func NewSpotRepository(db *DB) *SpotRepository {
	return &SpotRepository{db: db}
}

const spotColumns = `id, floor, row_num, idx, category, hourly_rate, status, occupant_plate`

func scanSpot(row pgx.Row) (*models.ParkingSpot, error) {
	var spot models.ParkingSpot
	err := row.Scan(&spot.ID, &spot.Floor, &spot.Row, &spot.Index,
		&spot.Category, &spot.HourlyRate, &spot.Status, &spot.OccupantPlate)
	if err != nil {
		return nil, err
	}
	return &spot, nil
}

// GetSpot 按编号查车位
func (r *SpotRepository) GetSpot(ctx context.Context, id string) (*models.ParkingSpot, error) {
	spot, err := scanSpot(r.db.Pool.QueryRow(ctx,
		`SELECT `+spotColumns+` FROM spots WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.NotFound("spot %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query spot: %w", err)
	}
	return spot, nil
}

func (r *SpotRepository) listSpots(ctx context.Context, query string, args ...any) ([]*models.ParkingSpot, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query spots: %w", err)
	}
	defer rows.Close()

	var spots []*models.ParkingSpot
	for rows.Next() {
		spot, err := scanSpot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan spot: %w", err)
		}
		spots = append(spots, spot)
	}
	return spots, rows.Err()
}

// ListSpots 按楼层、排、序号列出全部车位
func (r *SpotRepository) ListSpots(ctx context.Context) ([]*models.ParkingSpot, error) {
	return r.listSpots(ctx,
		`SELECT `+spotColumns+` FROM spots ORDER BY floor, row_num, idx`)
}

// ListAvailableSpots 列出空闲车位
func (r *SpotRepository) ListAvailableSpots(ctx context.Context) ([]*models.ParkingSpot, error) {
	return r.listSpots(ctx,
		`SELECT `+spotColumns+` FROM spots WHERE status = $1 ORDER BY floor, row_num, idx`,
		models.StatusAvailable)
}

// InsertSpot 新增车位
func (r *SpotRepository) InsertSpot(ctx context.Context, spot *models.ParkingSpot) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO spots (id, floor, row_num, idx, category, hourly_rate, status, occupant_plate)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		spot.ID, spot.Floor, spot.Row, spot.Index, spot.Category, spot.HourlyRate, spot.Status, spot.OccupantPlate)
	if err != nil {
		return fmt.Errorf("insert spot: %w", err)
	}
	return nil
}

// UpdateSpotOccupancy 更新占用状态与占用车牌
func (r *SpotRepository) UpdateSpotOccupancy(ctx context.Context, id string, status models.SpotStatus, plate *string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE spots SET status = $1, occupant_plate = $2 WHERE id = $3`,
		status, plate, id)
	if err != nil {
		return fmt.Errorf("update spot occupancy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFound("spot %s not found", id)
	}
	return nil
}

// UpdateSpotCategory 修改车位类型与费率
func (r *SpotRepository) UpdateSpotCategory(ctx context.Context, id string, category models.SpotCategory, hourlyRate float64) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE spots SET category = $1, hourly_rate = $2 WHERE id = $3`,
		category, hourlyRate, id)
	if err != nil {
		return fmt.Errorf("update spot category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFound("spot %s not found", id)
	}
	return nil
}

// CountSpots 车位总数
func (r *SpotRepository) CountSpots(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM spots`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count spots: %w", err)
	}
	return count, nil
}

// CountOccupiedSpots 占用车位数
func (r *SpotRepository) CountOccupiedSpots(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM spots WHERE status = $1`, models.StatusOccupied).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count occupied spots: %w", err)
	}
	return count, nil
}
