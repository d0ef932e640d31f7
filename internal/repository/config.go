package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/parklot/internal/fault"
	"github.com/langchou/parklot/internal/models"
)

// ConfigRepository 系统配置表访问
type ConfigRepository struct {
	db *DB
}

// NewConfigRepository 创建配置仓库
func NewConfigRepository(db *DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// GetFineScheme 读取全场罚款方案，未配置时返回 NotFound
func (r *ConfigRepository) GetFineScheme(ctx context.Context) (models.FineScheme, error) {
	var scheme models.FineScheme
	err := r.db.Pool.QueryRow(ctx,
		`SELECT fine_scheme FROM facility_config WHERE id = 1`).Scan(&scheme)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fault.NotFound("fine scheme not configured")
	}
	if err != nil {
		return "", fmt.Errorf("query fine scheme: %w", err)
	}
	return scheme, nil
}

// SetFineScheme 写入全场罚款方案
func (r *ConfigRepository) SetFineScheme(ctx context.Context, scheme models.FineScheme) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO facility_config (id, fine_scheme) VALUES (1, $1)
		 ON CONFLICT (id) DO UPDATE SET fine_scheme = EXCLUDED.fine_scheme`, scheme)
	if err != nil {
		return fmt.Errorf("set fine scheme: %w", err)
	}
	return nil
}
