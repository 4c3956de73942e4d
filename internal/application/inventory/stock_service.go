package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/application/txn"
	"github.com/possuite/backend/internal/application/validation"
	"github.com/possuite/backend/internal/domain/inventory"
	"github.com/possuite/backend/internal/domain/sequence"
	"github.com/possuite/backend/internal/domain/shared"
	"github.com/possuite/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

var errRestockSign = shared.ErrInvalidInput.Newf("restock quantity must be positive")

// NumberAllocator issues document numbers inside an open transaction.
type NumberAllocator interface {
	NextNumberInTx(ctx context.Context, repos txn.TransactionalRepositories, tenantID uuid.UUID, kind sequence.EntityKind) (int64, error)
}

// StockService administers stock items outside of sales and refunds.
type StockService struct {
	items     inventory.StockItemRepository
	movements inventory.StockMovementRepository
	scope     txn.TransactionScope
	allocator NumberAllocator
	logger    *zap.Logger
}

// NewStockService creates a new StockService
func NewStockService(
	items inventory.StockItemRepository,
	movements inventory.StockMovementRepository,
	scope txn.TransactionScope,
	allocator NumberAllocator,
	logger *zap.Logger,
) *StockService {
	return &StockService{
		items:     items,
		movements: movements,
		scope:     scope,
		allocator: allocator,
		logger:    logger,
	}
}

// CreateStockItem registers a product under the next product number.
// Opening stock is booked as a restock movement in the same transaction.
func (s *StockService) CreateStockItem(ctx context.Context, req CreateStockItemRequest) (*inventory.StockItem, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "create_stock_item")
	defer span.End()

	if err := validation.Struct(req); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var item *inventory.StockItem
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		exists, err := repos.StockItems().ExistsBySKU(ctx, req.TenantID, req.SKU)
		if err != nil {
			return err
		}
		if exists {
			return shared.ErrDuplicateStockItem.Newf("SKU %q already exists", req.SKU)
		}

		number, err := s.allocator.NextNumberInTx(ctx, repos, req.TenantID, sequence.KindProduct)
		if err != nil {
			return err
		}
		item, err = inventory.NewStockItem(req.TenantID, number, req.SKU, req.Name, req.UnitPrice)
		if err != nil {
			return err
		}
		if err := repos.StockItems().Create(ctx, item); err != nil {
			return fmt.Errorf("failed to save stock item: %w", err)
		}

		if req.InitialQuantity == 0 {
			return nil
		}
		_, err = s.apply(ctx, repos, item, inventory.StockChange{
			Type:       inventory.MovementRestock,
			Delta:      req.InitialQuantity,
			Reason:     "Opening stock",
			SourceType: inventory.SourceManual,
			UserID:     req.UserID,
		})
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrStockItemID, item.ID.String())
	s.logger.Info("Stock item created",
		zap.String("tenant_id", item.TenantID.String()),
		zap.Int64("item_number", item.ItemNumber),
		zap.String("sku", item.SKU),
		zap.Int64("quantity", item.QuantityOnHand),
	)
	return item, nil
}

// AdjustStock books one manual movement. Damage always reduces stock;
// adjustment takes the sign given.
func (s *StockService) AdjustStock(ctx context.Context, req AdjustStockRequest) (*inventory.StockMovement, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "adjust_stock")
	defer span.End()

	if err := validation.Struct(req); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	delta, err := req.delta()
	if err != nil {
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, req.TenantID.String(),
		telemetry.SpanAttrStockItemID, req.StockItemID.String(),
	)

	var movement *inventory.StockMovement
	err = s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		items, err := repos.StockItems().LockForUpdate(ctx, req.TenantID, []uuid.UUID{req.StockItemID})
		if err != nil {
			return err
		}
		item, ok := items[req.StockItemID]
		if !ok {
			return shared.ErrProductNotFound.Newf("stock item %s not found", req.StockItemID)
		}
		reason := req.Reason
		if reason == "" {
			reason = "Manual " + req.Type
		}
		movement, err = s.apply(ctx, repos, item, inventory.StockChange{
			Type:       inventory.MovementType(req.Type),
			Delta:      delta,
			Reason:     reason,
			SourceType: inventory.SourceManual,
			UserID:     req.UserID,
		})
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Stock adjusted",
		zap.String("tenant_id", req.TenantID.String()),
		zap.String("stock_item_id", req.StockItemID.String()),
		zap.String("type", req.Type),
		zap.Int64("change", movement.QuantityChange),
		zap.Int64("new_quantity", movement.NewQuantity),
	)
	return movement, nil
}

// apply numbers the change, mutates the item and writes the movement.
func (s *StockService) apply(ctx context.Context, repos txn.TransactionalRepositories, item *inventory.StockItem, change inventory.StockChange) (*inventory.StockMovement, error) {
	number, err := s.allocator.NextNumberInTx(ctx, repos, item.TenantID, sequence.KindInventory)
	if err != nil {
		return nil, err
	}
	change.MovementNumber = number
	movement, err := item.ApplyChange(change)
	if err != nil {
		return nil, err
	}
	if err := repos.StockItems().UpdateQuantity(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update stock for %s: %w", item.SKU, err)
	}
	if err := repos.StockMovements().Append(ctx, movement); err != nil {
		return nil, fmt.Errorf("failed to record stock movement: %w", err)
	}
	return movement, nil
}

// GetStockItem returns a tenant's stock item.
func (s *StockService) GetStockItem(ctx context.Context, tenantID, id uuid.UUID) (*inventory.StockItem, error) {
	return s.items.FindByIDForTenant(ctx, tenantID, id)
}

// ListMovements pages through a stock item's ledger, newest first.
func (s *StockService) ListMovements(ctx context.Context, tenantID, stockItemID uuid.UUID, filter MovementListFilter) ([]inventory.StockMovement, int64, error) {
	if err := validation.Struct(filter); err != nil {
		return nil, 0, err
	}
	if _, err := s.items.FindByIDForTenant(ctx, tenantID, stockItemID); err != nil {
		return nil, 0, err
	}
	f := shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	return s.movements.ListByStockItem(ctx, tenantID, stockItemID, f)
}
