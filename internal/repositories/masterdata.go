package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"example.com/maison/services/payroll/internal/database"
	"example.com/maison/services/payroll/internal/models"
)

// MasterDataRepository provides access to the configured master data: product
// types, categories, task types, tailors, rate cards and special pay rules.
type MasterDataRepository interface {
	GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	ListOrganizations(ctx context.Context) ([]models.Organization, error)

	ListProductTypes(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]models.ProductType, error)
	GetProductType(ctx context.Context, orgID, id uuid.UUID) (*models.ProductType, error)
	SaveProductType(ctx context.Context, pt *models.ProductType) error

	ListCategories(ctx context.Context, orgID uuid.UUID) ([]models.Category, error)
	SaveCategory(ctx context.Context, c *models.Category) error

	ListTaskTypes(ctx context.Context, orgID uuid.UUID) ([]models.TaskType, error)
	GetTaskType(ctx context.Context, orgID, id uuid.UUID) (*models.TaskType, error)
	SaveTaskType(ctx context.Context, tt *models.TaskType) error

	ListTailors(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]models.Tailor, error)
	GetTailor(ctx context.Context, orgID, id uuid.UUID) (*models.Tailor, error)
	SaveTailor(ctx context.Context, t *models.Tailor) error

	ListRateCards(ctx context.Context, orgID uuid.UUID) ([]models.RateCard, error)
	GetRateCard(ctx context.Context, orgID, taskTypeID, productTypeID uuid.UUID) (*models.RateCard, error)
	SaveRateCard(ctx context.Context, rc *models.RateCard) error

	ListSpecialPay(ctx context.Context, orgID uuid.UUID) ([]models.SpecialPay, error)
	GetSpecialPay(ctx context.Context, orgID, tailorID, taskTypeID uuid.UUID) (*models.SpecialPay, error)
	SaveSpecialPay(ctx context.Context, sp *models.SpecialPay) error
}

// masterDataRepository implements MasterDataRepository
type masterDataRepository struct {
	db         *gorm.DB // Write database
	readOnlyDB *gorm.DB // Read-only database
}

// NewMasterDataRepository creates a new master data repository
func NewMasterDataRepository(db *gorm.DB, readOnlyDB *gorm.DB) MasterDataRepository {
	return &masterDataRepository{db: db, readOnlyDB: readOnlyDB}
}

func (r *masterDataRepository) GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	err := r.readOnlyDB.WithContext(ctx).First(&org, "id = ?", id).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get organization")
	}
	return &org, nil
}

func (r *masterDataRepository) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	var orgs []models.Organization
	err := r.readOnlyDB.WithContext(ctx).Order("name").Find(&orgs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list organizations")
	}
	return orgs, nil
}

func (r *masterDataRepository) ListProductTypes(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]models.ProductType, error) {
	var types []models.ProductType
	q := r.readOnlyDB.WithContext(ctx).Where("organization_id = ?", orgID)
	if !includeInactive {
		q = q.Where("active = ?", true)
	}
	if err := q.Order("name").Find(&types).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list product types")
	}
	return types, nil
}

func (r *masterDataRepository) GetProductType(ctx context.Context, orgID, id uuid.UUID) (*models.ProductType, error) {
	var pt models.ProductType
	err := r.readOnlyDB.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		First(&pt).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get product type")
	}
	return &pt, nil
}

func (r *masterDataRepository) SaveProductType(ctx context.Context, pt *models.ProductType) error {
	return errors.Wrap(r.db.WithContext(ctx).Save(pt).Error, "failed to save product type")
}

func (r *masterDataRepository) ListCategories(ctx context.Context, orgID uuid.UUID) ([]models.Category, error) {
	var categories []models.Category
	err := r.readOnlyDB.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("name").
		Find(&categories).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list categories")
	}
	return categories, nil
}

func (r *masterDataRepository) SaveCategory(ctx context.Context, c *models.Category) error {
	return errors.Wrap(r.db.WithContext(ctx).Save(c).Error, "failed to save category")
}

func (r *masterDataRepository) ListTaskTypes(ctx context.Context, orgID uuid.UUID) ([]models.TaskType, error) {
	var types []models.TaskType
	err := r.readOnlyDB.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("name").
		Find(&types).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list task types")
	}
	return types, nil
}

func (r *masterDataRepository) GetTaskType(ctx context.Context, orgID, id uuid.UUID) (*models.TaskType, error) {
	var tt models.TaskType
	err := r.readOnlyDB.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		First(&tt).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get task type")
	}
	return &tt, nil
}

func (r *masterDataRepository) SaveTaskType(ctx context.Context, tt *models.TaskType) error {
	return errors.Wrap(r.db.WithContext(ctx).Save(tt).Error, "failed to save task type")
}

func (r *masterDataRepository) ListTailors(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]models.Tailor, error) {
	var tailors []models.Tailor
	q := r.readOnlyDB.WithContext(ctx).Where("organization_id = ?", orgID)
	if !includeInactive {
		q = q.Where("active = ?", true)
	}
	if err := q.Order("name").Find(&tailors).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list tailors")
	}
	return tailors, nil
}

func (r *masterDataRepository) GetTailor(ctx context.Context, orgID, id uuid.UUID) (*models.Tailor, error) {
	var tailor models.Tailor
	err := r.readOnlyDB.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		First(&tailor).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get tailor")
	}
	return &tailor, nil
}

func (r *masterDataRepository) SaveTailor(ctx context.Context, t *models.Tailor) error {
	return errors.Wrap(r.db.WithContext(ctx).Save(t).Error, "failed to save tailor")
}

func (r *masterDataRepository) ListRateCards(ctx context.Context, orgID uuid.UUID) ([]models.RateCard, error) {
	var cards []models.RateCard
	err := r.readOnlyDB.WithContext(ctx).
		Preload("TaskType").
		Preload("ProductType").
		Where("organization_id = ?", orgID).
		Find(&cards).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list rate cards")
	}
	return cards, nil
}

// GetRateCard returns the unique rate card for the combination. Zero rows map
// to ErrNotFound, more than one to ErrAmbiguousRate; the caller decides how to
// surface either.
func (r *masterDataRepository) GetRateCard(ctx context.Context, orgID, taskTypeID, productTypeID uuid.UUID) (*models.RateCard, error) {
	var cards []models.RateCard
	err := r.readOnlyDB.WithContext(ctx).
		Where("organization_id = ? AND task_type_id = ? AND product_type_id = ?", orgID, taskTypeID, productTypeID).
		Limit(2).
		Find(&cards).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get rate card")
	}
	switch len(cards) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return &cards[0], nil
	default:
		return nil, ErrAmbiguousRate
	}
}

func (r *masterDataRepository) SaveRateCard(ctx context.Context, rc *models.RateCard) error {
	if err := r.db.WithContext(ctx).Save(rc).Error; err != nil {
		if database.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return errors.Wrap(err, "failed to save rate card")
	}
	return nil
}

func (r *masterDataRepository) ListSpecialPay(ctx context.Context, orgID uuid.UUID) ([]models.SpecialPay, error) {
	var rules []models.SpecialPay
	err := r.readOnlyDB.WithContext(ctx).
		Preload("Tailor").
		Preload("TaskType").
		Where("organization_id = ?", orgID).
		Find(&rules).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list special pay rules")
	}
	return rules, nil
}

func (r *masterDataRepository) GetSpecialPay(ctx context.Context, orgID, tailorID, taskTypeID uuid.UUID) (*models.SpecialPay, error) {
	var sp models.SpecialPay
	err := r.readOnlyDB.WithContext(ctx).
		Where("organization_id = ? AND tailor_id = ? AND task_type_id = ?", orgID, tailorID, taskTypeID).
		First(&sp).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get special pay rule")
	}
	return &sp, nil
}

func (r *masterDataRepository) SaveSpecialPay(ctx context.Context, sp *models.SpecialPay) error {
	if err := r.db.WithContext(ctx).Save(sp).Error; err != nil {
		if database.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return errors.Wrap(err, "failed to save special pay rule")
	}
	return nil
}
