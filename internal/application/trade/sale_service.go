package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/application/txn"
	"github.com/possuite/backend/internal/application/validation"
	"github.com/possuite/backend/internal/domain/identity"
	"github.com/possuite/backend/internal/domain/inventory"
	"github.com/possuite/backend/internal/domain/sequence"
	"github.com/possuite/backend/internal/domain/shared"
	"github.com/possuite/backend/internal/domain/shared/valueobject"
	"github.com/possuite/backend/internal/domain/trade"
	"github.com/possuite/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SaleConfig holds checkout settings
type SaleConfig struct {
	ReportingCurrency valueobject.Currency
	// PaymentTolerance is the largest accepted gap between tendered and
	// due amounts, in entry-currency units.
	PaymentTolerance decimal.Decimal
}

// DefaultSaleConfig reports in USD with a 0.01 payment tolerance.
func DefaultSaleConfig() SaleConfig {
	return SaleConfig{
		ReportingCurrency: valueobject.ReportingCurrency,
		PaymentTolerance:  decimal.RequireFromString("0.01"),
	}
}

// SaleService posts sales
type SaleService struct {
	tenants   identity.TenantRepository
	sales     trade.SaleRepository
	scope     txn.TransactionScope
	allocator NumberAllocator
	rates     RateProvider
	config    SaleConfig
	logger    *zap.Logger
	metrics   *telemetry.POSMetrics
}

// NewSaleService creates a new SaleService
func NewSaleService(
	tenants identity.TenantRepository,
	sales trade.SaleRepository,
	scope txn.TransactionScope,
	allocator NumberAllocator,
	rates RateProvider,
	cfg SaleConfig,
	logger *zap.Logger,
) *SaleService {
	if cfg.ReportingCurrency == "" {
		cfg.ReportingCurrency = valueobject.ReportingCurrency
	}
	if cfg.PaymentTolerance.IsNegative() {
		cfg.PaymentTolerance = decimal.Zero
	}
	return &SaleService{
		tenants:   tenants,
		sales:     sales,
		scope:     scope,
		allocator: allocator,
		rates:     rates,
		config:    cfg,
		logger:    logger,
	}
}

// SetMetrics sets the metrics collector
func (s *SaleService) SetMetrics(m *telemetry.POSMetrics) {
	s.metrics = m
}

// CreateSale posts a sale: header, lines, payments, stock decrements and
// one stock movement per line commit together or not at all.
func (s *SaleService) CreateSale(ctx context.Context, req CreateSaleRequest) (*trade.Sale, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "create_sale")
	defer span.End()

	if err := validation.Struct(req); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, req.TenantID.String(),
		telemetry.SpanAttrUserID, req.UserID.String(),
		telemetry.SpanAttrLineCount, len(req.Lines),
	)

	tenant, err := s.loadTenant(ctx, req.TenantID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	// Resolved before the transaction opens: no remote IO under row locks.
	rate, err := s.rates.Rate(ctx, tenant.CurrencyCode, s.config.ReportingCurrency)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrCurrencyPair, tenant.CurrencyCode.String()+"/"+s.config.ReportingCurrency.String())

	quote, err := trade.NewQuote(tenant.CurrencyCode, s.config.ReportingCurrency, rate, req.TaxRatePercent, req.lineInputs())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	start := time.Now()
	var sale *trade.Sale
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("sale.create", map[string]string{
		telemetry.ProfilingLabelTenantID: req.TenantID.String(),
	}), func(c context.Context) {
		err = s.scope.Execute(c, func(repos txn.TransactionalRepositories) error {
			var txErr error
			sale, txErr = s.post(c, repos, req, quote)
			return txErr
		})
	})
	s.metrics.RecordTransaction(ctx, "sale.create", time.Since(start), err)
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Warn("Sale rolled back",
			zap.String("tenant_id", req.TenantID.String()),
			zap.String("user_id", req.UserID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrSaleID, sale.ID.String(),
		telemetry.SpanAttrSaleNumber, sale.SaleNumber,
	)
	s.metrics.RecordSale(ctx, sale.TenantID, sale.Currency.String(), sale.ReportingTotal, len(sale.Lines))
	for _, p := range sale.Payments {
		s.metrics.RecordPayment(ctx, sale.TenantID, string(p.Method))
	}
	s.logger.Info("Sale completed",
		zap.String("tenant_id", sale.TenantID.String()),
		zap.Int64("sale_number", sale.SaleNumber),
		zap.String("currency", sale.Currency.String()),
		zap.String("total", sale.Total.String()),
		zap.String("reporting_total", sale.ReportingTotal.String()),
		zap.Int("lines", len(sale.Lines)),
	)
	return sale, nil
}

// post runs inside the transaction.
func (s *SaleService) post(ctx context.Context, repos txn.TransactionalRepositories, req CreateSaleRequest, quote *trade.Quote) (*trade.Sale, error) {
	wanted := quote.QuantitiesByItem()
	ids := make([]uuid.UUID, 0, len(wanted))
	for id := range wanted {
		ids = append(ids, id)
	}
	ids = sortedIDs(ids)

	items, err := repos.StockItems().LockForUpdate(ctx, req.TenantID, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		item, ok := items[id]
		if !ok {
			return nil, shared.ErrProductNotFound.Newf("stock item %s not found", id)
		}
		if !item.CanFulfil(wanted[id]) {
			return nil, shared.ErrInsufficientStock.Newf(
				"insufficient stock for %s: requested %d, on hand %d", item.SKU, wanted[id], item.QuantityOnHand)
		}
	}

	payments := req.paymentInputs()
	if err := quote.CheckPayments(payments, s.config.PaymentTolerance); err != nil {
		return nil, err
	}

	number, err := s.allocator.NextNumberInTx(ctx, repos, req.TenantID, sequence.KindSale)
	if err != nil {
		return nil, err
	}
	sale, err := trade.NewSale(req.TenantID, req.UserID, number, quote, payments)
	if err != nil {
		return nil, err
	}
	if err := repos.Sales().Create(ctx, sale); err != nil {
		return nil, fmt.Errorf("failed to save sale #%d: %w", number, err)
	}

	for _, line := range sale.Lines {
		movementNumber, err := s.allocator.NextNumberInTx(ctx, repos, req.TenantID, sequence.KindInventory)
		if err != nil {
			return nil, err
		}
		item := items[line.StockItemID]
		movement, err := item.ApplyChange(inventory.StockChange{
			Type:           inventory.MovementSale,
			Delta:          -line.Quantity,
			MovementNumber: movementNumber,
			Reason:         sale.Reference(),
			SourceType:     inventory.SourceSale,
			SourceID:       sale.ID,
			UserID:         req.UserID,
		})
		if err != nil {
			return nil, err
		}
		if err := repos.StockItems().UpdateQuantity(ctx, item); err != nil {
			return nil, fmt.Errorf("failed to update stock for %s: %w", item.SKU, err)
		}
		if err := repos.StockMovements().Append(ctx, movement); err != nil {
			return nil, fmt.Errorf("failed to record stock movement: %w", err)
		}
	}
	return sale, nil
}

func (s *SaleService) loadTenant(ctx context.Context, tenantID uuid.UUID) (*identity.Tenant, error) {
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		if shared.IsKind(err, shared.KindNotFound) {
			return nil, shared.ErrTenantNotFound.Newf("tenant %s not found", tenantID)
		}
		return nil, fmt.Errorf("failed to load tenant: %w", err)
	}
	if !tenant.IsActive() {
		return nil, shared.ErrConflict.Newf("tenant %s is %s", tenant.Code, tenant.Status)
	}
	return tenant, nil
}

// GetSale returns a sale with its lines and payments.
func (s *SaleService) GetSale(ctx context.Context, tenantID, saleID uuid.UUID) (*trade.Sale, error) {
	return s.sales.FindByIDForTenant(ctx, tenantID, saleID)
}

// ListSales lists a tenant's sales, newest first unless asked otherwise.
func (s *SaleService) ListSales(ctx context.Context, tenantID uuid.UUID, filter SaleListFilter) ([]trade.Sale, int64, error) {
	if err := validation.Struct(filter); err != nil {
		return nil, 0, err
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, 0, shared.ErrInvalidInput.Newf("'to' must not be before 'from'")
	}
	return s.sales.List(ctx, tenantID, filter.toDomain())
}
