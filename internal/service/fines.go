package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/langchou/parklot/internal/events"
	"github.com/langchou/parklot/internal/fault"
	"github.com/langchou/parklot/internal/models"
)

// CalculateOverstayFine 按方案计算超时罚款，未超过阈值返回 0
func CalculateOverstayFine(scheme models.FineScheme, hoursParked int64) float64 {
	if hoursParked <= models.OverstayThresholdHours {
		return 0
	}
	switch scheme {
	case models.SchemeFixed:
		return models.FixedFineAmount
	case models.SchemeProgressive:
		switch {
		case hoursParked <= 48:
			return models.ProgressiveTier1
		case hoursParked <= 72:
			return models.ProgressiveTier2
		case hoursParked <= 96:
			return models.ProgressiveTier3
		default:
			return models.ProgressiveTier4
		}
	case models.SchemeHourly:
		return float64(hoursParked-models.OverstayThresholdHours) * models.HourlyFineRate
	}
	return 0
}

// CalculateMisuseFine 预约位滥用罚款，各方案均为固定金额
func CalculateMisuseFine(scheme models.FineScheme) float64 {
	return models.FixedFineAmount
}

// FineEngine 罚款检测与生成
type FineEngine struct {
	fines  FineStore
	bus    *events.Bus
	logger *zap.Logger
}

// NewFineEngine 创建罚款引擎
func NewFineEngine(fines FineStore, bus *events.Bus, logger *zap.Logger) *FineEngine {
	return &FineEngine{fines: fines, bus: bus, logger: logger}
}

// DetectAndGenerate 为一张票据检测违规并落库罚款，按(票据,类型)幂等
func (e *FineEngine) DetectAndGenerate(ctx context.Context, ticket *models.Ticket, hoursParked int64, reservedMisuse bool) ([]*models.Fine, error) {
	var generated []*models.Fine

	if amount := CalculateOverstayFine(ticket.Scheme, hoursParked); amount > 0 {
		fine, err := e.upsert(ctx, ticket, models.FineOverstay, amount)
		if err != nil {
			return nil, err
		}
		generated = append(generated, fine)
	}

	if reservedMisuse {
		fine, err := e.upsert(ctx, ticket, models.FineReservedMisuse, CalculateMisuseFine(ticket.Scheme))
		if err != nil {
			return nil, err
		}
		generated = append(generated, fine)
	}

	return generated, nil
}

// upsert 同一票据同一类型的罚款只保留一条，重复检测只更新金额
func (e *FineEngine) upsert(ctx context.Context, ticket *models.Ticket, kind models.FineKind, amount float64) (*models.Fine, error) {
	existing, err := e.fines.FineByTicketAndKind(ctx, ticket.ID, kind)
	if err != nil && !fault.IsKind(err, fault.KindNotFound) {
		return nil, fmt.Errorf("lookup fine: %w", err)
	}
	if existing != nil {
		if existing.Amount != amount {
			if err := e.fines.UpdateFineAmount(ctx, existing.ID, amount); err != nil {
				return nil, fmt.Errorf("update fine amount: %w", err)
			}
			existing.Amount = amount
		}
		return existing, nil
	}

	fine := &models.Fine{
		ID:        uuid.NewString(),
		Plate:     ticket.Plate,
		TicketID:  ticket.ID,
		Kind:      kind,
		Amount:    amount,
		Scheme:    ticket.Scheme,
		Paid:      false,
		CreatedAt: time.Now(),
	}
	if err := e.fines.InsertFine(ctx, fine); err != nil {
		return nil, fmt.Errorf("insert fine: %w", err)
	}

	e.logger.Info("fine generated",
		zap.String("ticket_id", ticket.ID),
		zap.String("plate", ticket.Plate),
		zap.String("kind", string(kind)),
		zap.Float64("amount", amount))
	e.bus.Publish(events.FineGenerated, fine)

	return fine, nil
}
