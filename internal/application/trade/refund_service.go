package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/application/txn"
	"github.com/possuite/backend/internal/application/validation"
	"github.com/possuite/backend/internal/domain/inventory"
	"github.com/possuite/backend/internal/domain/sequence"
	"github.com/possuite/backend/internal/domain/trade"
	"github.com/possuite/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// RefundService handles refunds against completed sales
type RefundService struct {
	sales     trade.SaleRepository
	refunds   trade.RefundRepository
	scope     txn.TransactionScope
	allocator NumberAllocator
	logger    *zap.Logger
	metrics   *telemetry.POSMetrics
}

// NewRefundService creates a new RefundService
func NewRefundService(
	sales trade.SaleRepository,
	refunds trade.RefundRepository,
	scope txn.TransactionScope,
	allocator NumberAllocator,
	logger *zap.Logger,
) *RefundService {
	return &RefundService{
		sales:     sales,
		refunds:   refunds,
		scope:     scope,
		allocator: allocator,
		logger:    logger,
	}
}

// SetMetrics sets the metrics collector
func (s *RefundService) SetMetrics(m *telemetry.POSMetrics) {
	s.metrics = m
}

// ProcessRefund returns units of a sale to stock. Amounts come from the
// sale's original prices and rate snapshot, never from today's rate.
//
// The sale row stays locked for the whole transaction, so two refunds of
// the same sale serialize and cannot together exceed the sold quantity.
func (s *RefundService) ProcessRefund(ctx context.Context, req ProcessRefundRequest) (*trade.Refund, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "refund", "process_refund")
	defer span.End()

	if err := validation.Struct(req); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, req.TenantID.String(),
		telemetry.SpanAttrUserID, req.UserID.String(),
		telemetry.SpanAttrSaleID, req.SaleID.String(),
		telemetry.SpanAttrLineCount, len(req.Lines),
	)

	start := time.Now()
	var refund *trade.Refund
	var err error
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("refund.process", map[string]string{
		telemetry.ProfilingLabelTenantID: req.TenantID.String(),
	}), func(c context.Context) {
		err = s.scope.Execute(c, func(repos txn.TransactionalRepositories) error {
			var txErr error
			refund, txErr = s.post(c, repos, req)
			return txErr
		})
	})
	s.metrics.RecordTransaction(ctx, "refund.process", time.Since(start), err)
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Warn("Refund rolled back",
			zap.String("tenant_id", req.TenantID.String()),
			zap.String("sale_id", req.SaleID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrRefundID, refund.ID.String(),
		telemetry.SpanAttrRefundNumber, refund.RefundNumber,
		telemetry.SpanAttrSaleNumber, refund.SaleNumber,
	)
	s.metrics.RecordRefund(ctx, refund.TenantID, refund.Currency.String(), refund.ReportingTotal)
	s.logger.Info("Refund processed",
		zap.String("tenant_id", refund.TenantID.String()),
		zap.Int64("refund_number", refund.RefundNumber),
		zap.Int64("sale_number", refund.SaleNumber),
		zap.String("total", refund.Total.String()),
		zap.String("reporting_total", refund.ReportingTotal.String()),
	)
	return refund, nil
}

func (s *RefundService) post(ctx context.Context, repos txn.TransactionalRepositories, req ProcessRefundRequest) (*trade.Refund, error) {
	sale, err := repos.Sales().LockForUpdate(ctx, req.TenantID, req.SaleID)
	if err != nil {
		return nil, err
	}
	plans, err := sale.PlanRefund(req.lineRequests())
	if err != nil {
		return nil, err
	}

	number, err := s.allocator.NextNumberInTx(ctx, repos, req.TenantID, sequence.KindRefund)
	if err != nil {
		return nil, err
	}
	prior, err := repos.Refunds().ListBySale(ctx, req.TenantID, sale.ID)
	if err != nil {
		return nil, err
	}
	refund, err := trade.NewRefund(sale, prior, number, req.UserID, req.Reason, plans)
	if err != nil {
		return nil, err
	}
	for _, p := range plans {
		if err := p.Line.AddRefunded(p.Quantity); err != nil {
			return nil, err
		}
	}
	if err := repos.Refunds().Create(ctx, refund); err != nil {
		return nil, fmt.Errorf("failed to save refund #%d: %w", number, err)
	}

	ids := make([]uuid.UUID, 0, len(refund.Lines))
	for _, l := range refund.Lines {
		ids = append(ids, l.StockItemID)
	}
	items, err := repos.StockItems().LockForUpdate(ctx, req.TenantID, sortedIDs(ids))
	if err != nil {
		return nil, err
	}

	for _, line := range refund.Lines {
		item, ok := items[line.StockItemID]
		if !ok {
			return nil, fmt.Errorf("stock item %s of sale #%d is gone", line.StockItemID, sale.SaleNumber)
		}
		movementNumber, err := s.allocator.NextNumberInTx(ctx, repos, req.TenantID, sequence.KindInventory)
		if err != nil {
			return nil, err
		}
		movement, err := item.ApplyChange(inventory.StockChange{
			Type:           inventory.MovementRefund,
			Delta:          line.Quantity,
			MovementNumber: movementNumber,
			Reason:         refund.Reference(),
			SourceType:     inventory.SourceRefund,
			SourceID:       refund.ID,
			UserID:         req.UserID,
		})
		if err != nil {
			return nil, err
		}
		if err := repos.StockItems().UpdateQuantity(ctx, item); err != nil {
			return nil, fmt.Errorf("failed to restore stock for %s: %w", item.SKU, err)
		}
		if err := repos.StockMovements().Append(ctx, movement); err != nil {
			return nil, fmt.Errorf("failed to record stock movement: %w", err)
		}
	}

	sale.RefreshStatus()
	if err := repos.Sales().SaveRefundState(ctx, sale); err != nil {
		return nil, fmt.Errorf("failed to update sale #%d: %w", sale.SaleNumber, err)
	}
	return refund, nil
}

// GetRefund returns a refund with its lines.
func (s *RefundService) GetRefund(ctx context.Context, tenantID, refundID uuid.UUID) (*trade.Refund, error) {
	return s.refunds.FindByIDForTenant(ctx, tenantID, refundID)
}

// ListRefundsForSale returns every refund of a sale, oldest first.
func (s *RefundService) ListRefundsForSale(ctx context.Context, tenantID, saleID uuid.UUID) ([]trade.Refund, error) {
	if _, err := s.sales.FindByIDForTenant(ctx, tenantID, saleID); err != nil {
		return nil, err
	}
	return s.refunds.ListBySale(ctx, tenantID, saleID)
}
