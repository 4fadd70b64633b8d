package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/maison/services/payroll/internal/cache"
	"example.com/maison/services/payroll/internal/models"
	"example.com/maison/services/payroll/internal/repositories"
)

const masterDataCacheTTL = 10 * time.Minute

// MasterDataService manages the configured catalog behind rate resolution:
// product types, categories, task types, tailors, rate cards and special pay
// rules.
type MasterDataService struct {
	masterData repositories.MasterDataRepository
	cache      *cache.RedisCache
}

// NewMasterDataService creates a new master data service
func NewMasterDataService(masterData repositories.MasterDataRepository, redisCache *cache.RedisCache) *MasterDataService {
	return &MasterDataService{masterData: masterData, cache: redisCache}
}

// GetOrganization returns one organization with its rate policy.
func (s *MasterDataService) GetOrganization(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	org, err := s.masterData.GetOrganization(ctx, orgID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewError(KindNotFound, "Organization not found")
		}
		return nil, WrapError(err, KindUnavailable, "Could not load organization")
	}
	return org, nil
}

// ListProductTypes returns the product type catalog.
func (s *MasterDataService) ListProductTypes(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]models.ProductType, error) {
	pts, err := s.masterData.ListProductTypes(ctx, orgID, includeInactive)
	if err != nil {
		return nil, WrapError(err, KindUnavailable, "Could not list product types")
	}
	return pts, nil
}

// SaveProductType creates or updates a product type.
func (s *MasterDataService) SaveProductType(ctx context.Context, pt *models.ProductType) error {
	pt.Name = strings.TrimSpace(pt.Name)
	if pt.Name == "" {
		return NewError(KindValidation, "A product type name is required")
	}
	if pt.ID == uuid.Nil {
		pt.ID = uuid.New()
	}
	if err := s.masterData.SaveProductType(ctx, pt); err != nil {
		return WrapError(err, KindUnavailable, "Could not save product type")
	}
	return nil
}

// ListCategories returns the category catalog.
func (s *MasterDataService) ListCategories(ctx context.Context, orgID uuid.UUID) ([]models.Category, error) {
	categories, err := s.masterData.ListCategories(ctx, orgID)
	if err != nil {
		return nil, WrapError(err, KindUnavailable, "Could not list categories")
	}
	return categories, nil
}

// SaveCategory creates or updates a category.
func (s *MasterDataService) SaveCategory(ctx context.Context, c *models.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return NewError(KindValidation, "A category name is required")
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if err := s.masterData.SaveCategory(ctx, c); err != nil {
		return WrapError(err, KindUnavailable, "Could not save category")
	}
	return nil
}

// ListTaskTypes returns the task type catalog.
func (s *MasterDataService) ListTaskTypes(ctx context.Context, orgID uuid.UUID) ([]models.TaskType, error) {
	tts, err := s.masterData.ListTaskTypes(ctx, orgID)
	if err != nil {
		return nil, WrapError(err, KindUnavailable, "Could not list task types")
	}
	return tts, nil
}

// SaveTaskType creates or updates a task type.
func (s *MasterDataService) SaveTaskType(ctx context.Context, tt *models.TaskType) error {
	tt.Name = strings.TrimSpace(tt.Name)
	if tt.Name == "" {
		return NewError(KindValidation, "A task type name is required")
	}
	if tt.ID == uuid.Nil {
		tt.ID = uuid.New()
	}
	if err := s.masterData.SaveTaskType(ctx, tt); err != nil {
		return WrapError(err, KindUnavailable, "Could not save task type")
	}
	return nil
}

// ListTailors returns the tailor roster, cache-aside.
func (s *MasterDataService) ListTailors(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]models.Tailor, error) {
	cacheKey := cache.TailorsCacheKey(orgID)
	if !includeInactive {
		var cached []models.Tailor
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	tailors, err := s.masterData.ListTailors(ctx, orgID, includeInactive)
	if err != nil {
		return nil, WrapError(err, KindUnavailable, "Could not list tailors")
	}

	if !includeInactive {
		if err := s.cache.Set(ctx, cacheKey, tailors, masterDataCacheTTL); err != nil {
			log.Warn().Err(err).Msg("Failed to cache tailor roster")
		}
	}
	return tailors, nil
}

// GetTailor returns one tailor.
func (s *MasterDataService) GetTailor(ctx context.Context, orgID, tailorID uuid.UUID) (*models.Tailor, error) {
	tailor, err := s.masterData.GetTailor(ctx, orgID, tailorID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewError(KindNotFound, "Tailor not found")
		}
		return nil, WrapError(err, KindUnavailable, "Could not load tailor")
	}
	return tailor, nil
}

// SaveTailor creates or updates a tailor. Deactivation only blocks new
// assignments; existing work and its frozen amounts are untouched.
func (s *MasterDataService) SaveTailor(ctx context.Context, t *models.Tailor) error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return NewError(KindValidation, "A tailor name is required")
	}
	if t.Band != models.BandA && t.Band != models.BandB {
		return NewError(KindValidation, "Tailor band must be A or B")
	}
	if t.BasePct.IsNegative() || t.WeeklyBonusPct.IsNegative() {
		return NewError(KindValidation, "Percentages cannot be negative")
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	if err := s.masterData.SaveTailor(ctx, t); err != nil {
		return WrapError(err, KindUnavailable, "Could not save tailor")
	}

	s.invalidate(ctx, cache.TailorsCacheKey(t.OrganizationID))
	return nil
}

// ListRateCards returns the configured rate cards.
func (s *MasterDataService) ListRateCards(ctx context.Context, orgID uuid.UUID) ([]models.RateCard, error) {
	cards, err := s.masterData.ListRateCards(ctx, orgID)
	if err != nil {
		return nil, WrapError(err, KindUnavailable, "Could not list rate cards")
	}
	return cards, nil
}

// SaveRateCard creates or updates the rate card for a task and product pair.
// Fees are frozen onto assignments at creation time, so edits here never
// touch existing work.
func (s *MasterDataService) SaveRateCard(ctx context.Context, rc *models.RateCard) error {
	if rc.BandAFee.IsNegative() || rc.BandBFee.IsNegative() || rc.BaseFee.IsNegative() {
		return NewError(KindValidation, "Fees cannot be negative")
	}

	if rc.ID == uuid.Nil {
		existing, err := s.masterData.GetRateCard(ctx, rc.OrganizationID, rc.TaskTypeID, rc.ProductTypeID)
		switch {
		case err == nil:
			return NewError(KindValidation,
				"A rate card already exists for this task and product pair (%s); update it instead", existing.ID)
		case errors.Is(err, repositories.ErrNotFound):
			rc.ID = uuid.New()
		default:
			return WrapError(err, KindUnavailable, "Could not check existing rate cards")
		}
	}

	if err := s.masterData.SaveRateCard(ctx, rc); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return NewError(KindValidation, "A rate card already exists for this task and product pair")
		}
		return WrapError(err, KindUnavailable, "Could not save rate card")
	}

	s.invalidate(ctx, cache.RateCardsCacheKey(rc.OrganizationID))
	return nil
}

// ListSpecialPay returns the special pay rules.
func (s *MasterDataService) ListSpecialPay(ctx context.Context, orgID uuid.UUID) ([]models.SpecialPay, error) {
	rules, err := s.masterData.ListSpecialPay(ctx, orgID)
	if err != nil {
		return nil, WrapError(err, KindUnavailable, "Could not list special pay rules")
	}
	return rules, nil
}

// SaveSpecialPay creates or updates a special pay rule. A rule saved without
// an uplift percentage is pending: assignment creation for its tailor and
// task fails until the percentage is filled in.
func (s *MasterDataService) SaveSpecialPay(ctx context.Context, sp *models.SpecialPay) error {
	if sp.UpliftPct != nil && sp.UpliftPct.IsNegative() {
		return NewError(KindValidation, "The uplift percentage cannot be negative")
	}
	if sp.ID == uuid.Nil {
		sp.ID = uuid.New()
	}
	if err := s.masterData.SaveSpecialPay(ctx, sp); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return NewError(KindValidation, "A special pay rule already exists for this tailor and task pair")
		}
		return WrapError(err, KindUnavailable, "Could not save special pay rule")
	}
	return nil
}

func (s *MasterDataService) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("Failed to invalidate master data cache")
	}
}
