package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/langchou/parklot/internal/fault"
	"github.com/langchou/parklot/internal/models"
	"github.com/langchou/parklot/internal/state"
)

// TicketLedger 票据台账，保证每辆车同时只有一张未关闭票据
type TicketLedger struct {
	tickets TicketStore
	config  ConfigStore
	logger  *zap.Logger
}

// NewTicketLedger 创建票据台账
func NewTicketLedger(tickets TicketStore, config ConfigStore, logger *zap.Logger) *TicketLedger {
	return &TicketLedger{tickets: tickets, config: config, logger: logger}
}

// Open 开票，罚款方案取开票时刻的全场配置并固化在票据上
func (l *TicketLedger) Open(ctx context.Context, plate, spotID string, entryTime time.Time) (*models.Ticket, error) {
	existing, err := l.tickets.ActiveTicketForPlate(ctx, plate)
	if err != nil && !fault.IsKind(err, fault.KindNotFound) {
		return nil, fmt.Errorf("lookup active ticket: %w", err)
	}
	if existing != nil {
		return nil, fault.Conflict("vehicle %s already has open ticket %s", plate, existing.ID)
	}

	scheme, err := l.config.GetFineScheme(ctx)
	if err != nil {
		if !fault.IsKind(err, fault.KindNotFound) {
			return nil, fmt.Errorf("load fine scheme: %w", err)
		}
		scheme = models.DefaultFineScheme
	}

	ticket := &models.Ticket{
		ID:        models.TicketPrefix + uuid.NewString(),
		Plate:     plate,
		SpotID:    spotID,
		EntryTime: entryTime,
		Scheme:    scheme,
	}
	if err := l.tickets.InsertTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("insert ticket: %w", err)
	}

	l.logger.Info("ticket opened",
		zap.String("ticket_id", ticket.ID),
		zap.String("plate", plate),
		zap.String("spot_id", spotID),
		zap.String("scheme", string(scheme)))
	return ticket, nil
}

// ActiveForPlate 查找车牌当前未关闭的票据
func (l *TicketLedger) ActiveForPlate(ctx context.Context, plate string) (*models.Ticket, error) {
	return l.tickets.ActiveTicketForPlate(ctx, plate)
}

// Get 按票号查票
func (l *TicketLedger) Get(ctx context.Context, id string) (*models.Ticket, error) {
	return l.tickets.GetTicket(ctx, id)
}

// Close 关闭票据，重复关闭返回冲突错误
func (l *TicketLedger) Close(ctx context.Context, ticket *models.Ticket, exitTime time.Time) error {
	session := state.ForTicket(!ticket.Open())
	if err := session.Close(ctx); err != nil {
		return err
	}

	if err := l.tickets.SetTicketExit(ctx, ticket.ID, exitTime); err != nil {
		return fmt.Errorf("close ticket: %w", err)
	}
	ticket.ExitTime = &exitTime

	l.logger.Info("ticket closed", zap.String("ticket_id", ticket.ID), zap.String("plate", ticket.Plate))
	return nil
}

// CountOpen 当前在场票据数
func (l *TicketLedger) CountOpen(ctx context.Context) (int64, error) {
	return l.tickets.CountOpenTickets(ctx)
}
