package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/shared"
	"github.com/possuite/backend/internal/domain/trade"
	"github.com/possuite/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSaleRepository implements trade.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// Create inserts the header, then lines and payments
func (r *GormSaleRepository) Create(ctx context.Context, sale *trade.Sale) error {
	model := models.SaleModelFromDomain(sale)
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(model).Error; err != nil {
		return translate("create sale", err)
	}
	if len(model.Lines) > 0 {
		if err := db.Create(&model.Lines).Error; err != nil {
			return translate("create sale lines", err)
		}
	}
	if len(model.Payments) > 0 {
		if err := db.Create(&model.Payments).Error; err != nil {
			return translate("create payments", err)
		}
	}
	return nil
}

// LockForUpdate locks the sale header and loads its lines
func (r *GormSaleRepository) LockForUpdate(ctx context.Context, tenantID, saleID uuid.UUID) (*trade.Sale, error) {
	db := r.db.WithContext(ctx)

	var model models.SaleModel
	if err := db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, saleID).
		Take(&model).Error; err != nil {
		return nil, notFound("lock sale", err, shared.ErrSaleNotFound)
	}
	if err := db.
		Where("sale_id = ?", model.ID).
		Order("line_no ASC").
		Find(&model.Lines).Error; err != nil {
		return nil, translate("load sale lines", err)
	}
	return model.ToDomain(), nil
}

// SaveRefundState writes the status and every line's refunded quantity
func (r *GormSaleRepository) SaveRefundState(ctx context.Context, sale *trade.Sale) error {
	db := r.db.WithContext(ctx)
	now := time.Now()

	result := db.Model(&models.SaleModel{}).
		Where("tenant_id = ? AND id = ?", sale.TenantID, sale.ID).
		Updates(map[string]any{
			"status":     sale.Status.String(),
			"updated_at": now,
		})
	if result.Error != nil {
		return translate("update sale status", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrSaleNotFound.Newf("sale %s not found", sale.ID)
	}

	for _, line := range sale.Lines {
		if err := db.Model(&models.SaleLineItemModel{}).
			Where("sale_id = ? AND id = ?", sale.ID, line.ID).
			Update("refunded_quantity", line.RefundedQuantity).Error; err != nil {
			return translate("update refunded quantity", err)
		}
	}
	return nil
}

// FindByIDForTenant loads a sale with lines and payments
func (r *GormSaleRepository) FindByIDForTenant(ctx context.Context, tenantID, saleID uuid.UUID) (*trade.Sale, error) {
	var model models.SaleModel
	if err := r.withChildren(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND id = ?", tenantID, saleID).
		Take(&model).Error; err != nil {
		return nil, notFound("find sale", err, shared.ErrSaleNotFound)
	}
	return model.ToDomain(), nil
}

// List pages through a tenant's sales
func (r *GormSaleRepository) List(ctx context.Context, tenantID uuid.UUID, filter trade.SaleFilter) ([]trade.Sale, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Where("tenant_id = ?", tenantID)
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status.String())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate("count sales", err)
	}

	var rows []models.SaleModel
	if err := r.withChildren(query).
		Order(orderClause(filter.SortBy, SaleSortFields, "sale_number", filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, translate("list sales", err)
	}

	sales := make([]trade.Sale, len(rows))
	for i := range rows {
		sales[i] = *rows[i].ToDomain()
	}
	return sales, total, nil
}

func (r *GormSaleRepository) withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Lines", orderedLines).
		Preload("Payments", orderedLines)
}

var _ trade.SaleRepository = (*GormSaleRepository)(nil)
