package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/sequence"
	"github.com/possuite/backend/internal/domain/shared"
	"github.com/possuite/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// numberedTables maps each entity kind to the table and column holding the
// numbers issued for it. Kinds without stored records are absent.
var numberedTables = map[sequence.EntityKind]struct{ table, column string }{
	sequence.KindSale:      {"sales", "sale_number"},
	sequence.KindRefund:    {"refunds", "refund_number"},
	sequence.KindProduct:   {"stock_items", "item_number"},
	sequence.KindInventory: {"stock_movements", "movement_number"},
}

// GormCounterRepository implements sequence.CounterRepository using GORM
type GormCounterRepository struct {
	db *gorm.DB
}

// NewGormCounterRepository creates a new GormCounterRepository
func NewGormCounterRepository(db *gorm.DB) *GormCounterRepository {
	return &GormCounterRepository{db: db}
}

// LockForUpdate reads the counter with SELECT ... FOR UPDATE
func (r *GormCounterRepository) LockForUpdate(ctx context.Context, tenantID uuid.UUID, kind sequence.EntityKind) (*sequence.Counter, error) {
	var model models.SequenceCounterModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND entity_kind = ?", tenantID, kind.String()).
		Take(&model).Error; err != nil {
		return nil, notFound("lock sequence counter", err, shared.ErrNotFound)
	}
	return model.ToDomain(), nil
}

// CreateIfMissing inserts a zero counter, ignoring an existing row
func (r *GormCounterRepository) CreateIfMissing(ctx context.Context, tenantID uuid.UUID, kind sequence.EntityKind) error {
	model := models.SequenceCounterModel{
		TenantID:   tenantID,
		EntityKind: kind.String(),
		UpdatedAt:  time.Now(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model).Error
	return translate("create sequence counter", err)
}

// Save writes the counter's last value
func (r *GormCounterRepository) Save(ctx context.Context, counter *sequence.Counter) error {
	updatedAt := counter.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	result := r.db.WithContext(ctx).
		Model(&models.SequenceCounterModel{}).
		Where("tenant_id = ? AND entity_kind = ?", counter.TenantID, counter.Kind.String()).
		Updates(map[string]any{
			"last_value": counter.LastValue,
			"updated_at": updatedAt,
		})
	if result.Error != nil {
		return translate("save sequence counter", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound.Newf("sequence counter %s/%s not found", counter.TenantID, counter.Kind)
	}
	return nil
}

// Find reads the counter without locking
func (r *GormCounterRepository) Find(ctx context.Context, tenantID uuid.UUID, kind sequence.EntityKind) (*sequence.Counter, error) {
	var model models.SequenceCounterModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND entity_kind = ?", tenantID, kind.String()).
		Take(&model).Error; err != nil {
		return nil, notFound("find sequence counter", err, shared.ErrNotFound)
	}
	return model.ToDomain(), nil
}

// MaxAssigned returns the highest number stored on kind's records, or 0
func (r *GormCounterRepository) MaxAssigned(ctx context.Context, tenantID uuid.UUID, kind sequence.EntityKind) (int64, error) {
	target, ok := numberedTables[kind]
	if !ok {
		return 0, nil
	}
	var maxNumber int64
	err := r.db.WithContext(ctx).
		Table(target.table).
		Where("tenant_id = ?", tenantID).
		Select("COALESCE(MAX(" + target.column + "), 0)").
		Scan(&maxNumber).Error
	if err != nil {
		return 0, translate("read max "+kind.String()+" number", err)
	}
	return maxNumber, nil
}

var _ sequence.CounterRepository = (*GormCounterRepository)(nil)
