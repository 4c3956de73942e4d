package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/possuite/backend/internal/domain/identity"
	"github.com/possuite/backend/internal/domain/shared"
	"github.com/possuite/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTenantRepository reads and writes the tenants table.
type GormTenantRepository struct {
	db *gorm.DB
}

func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

func (r *GormTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	return r.first(ctx, "find tenant", "id = ?", id)
}

// FindActiveByCode matches the code case-insensitively. Suspended tenants
// are reported as not found.
func (r *GormTenantRepository) FindActiveByCode(ctx context.Context, code string) (*identity.Tenant, error) {
	return r.first(ctx, "find tenant by code", "code = ? AND status = ?",
		strings.ToUpper(strings.TrimSpace(code)), string(identity.TenantStatusActive))
}

func (r *GormTenantRepository) first(ctx context.Context, op string, query string, args ...any) (*identity.Tenant, error) {
	var row models.TenantModel
	if err := r.db.WithContext(ctx).Where(query, args...).Take(&row).Error; err != nil {
		return nil, notFound(op, err, shared.ErrNotFound)
	}
	return row.ToDomain(), nil
}

// FindAllActive lists active tenants by code.
func (r *GormTenantRepository) FindAllActive(ctx context.Context) ([]identity.Tenant, error) {
	var rows []models.TenantModel
	err := r.db.WithContext(ctx).
		Where("status = ?", string(identity.TenantStatusActive)).
		Order("code").
		Find(&rows).Error
	if err != nil {
		return nil, translate("list tenants", err)
	}
	out := make([]identity.Tenant, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

// Save upserts tenant by id.
func (r *GormTenantRepository) Save(ctx context.Context, tenant *identity.Tenant) error {
	err := r.db.WithContext(ctx).Save(models.TenantModelFromDomain(tenant)).Error
	if IsUniqueViolation(err) {
		return shared.ErrConflict.Newf("tenant code %s already exists", tenant.Code).Wrap(err)
	}
	return translate("save tenant", err)
}

var _ identity.TenantRepository = (*GormTenantRepository)(nil)
