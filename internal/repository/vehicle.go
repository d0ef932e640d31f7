package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/parklot/internal/fault"
	"github.com/langchou/parklot/internal/models"
)

// VehicleRepository 车辆表访问
type VehicleRepository struct {
	db *DB
}

// NewVehicleRepository 创建车辆仓库
func NewVehicleRepository(db *DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// GetVehicle 按车牌查车辆
func (r *VehicleRepository) GetVehicle(ctx context.Context, plate string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.db.Pool.QueryRow(ctx,
		`SELECT plate, class, balance, created_at, updated_at FROM vehicles WHERE plate = $1`,
		plate,
	).Scan(&vehicle.Plate, &vehicle.Class, &vehicle.Balance, &vehicle.CreatedAt, &vehicle.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.NotFound("vehicle %s not found", plate)
	}
	if err != nil {
		return nil, fmt.Errorf("query vehicle: %w", err)
	}
	return &vehicle, nil
}

// InsertVehicle 登记车辆
func (r *VehicleRepository) InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO vehicles (plate, class, balance, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		vehicle.Plate, vehicle.Class, vehicle.Balance, vehicle.CreatedAt, vehicle.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert vehicle: %w", err)
	}
	return nil
}

// UpdateVehicleBalance 更新余额
func (r *VehicleRepository) UpdateVehicleBalance(ctx context.Context, plate string, balance float64) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE vehicles SET balance = $1, updated_at = now() WHERE plate = $2`,
		balance, plate)
	if err != nil {
		return fmt.Errorf("update vehicle balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFound("vehicle %s not found", plate)
	}
	return nil
}
