package rates

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"example.com/maison/services/payroll/internal/models"
	"example.com/maison/services/payroll/internal/repositories"
)

// Resolution errors. These are configuration and selection failures the
// caller is expected to surface to the user, not infrastructure faults.
var (
	// ErrRateNotConfigured means there is no unique rate card for the
	// (task type, product type) pair: zero rows or an ambiguous duplicate.
	ErrRateNotConfigured = fmt.Errorf("no unique rate card configured for this combination")
	// ErrSpecialPayPending means a special pay rule exists for the tailor and
	// task type but its uplift is not filled in yet. Resolution must fail
	// rather than silently pay 0%.
	ErrSpecialPayPending = fmt.Errorf("special pay rule is pending an uplift percentage")
	// ErrTailorInactive means the tailor may not receive new assignments.
	ErrTailorInactive = fmt.Errorf("tailor is inactive")
	// ErrUnknownBand means the tailor's band has no fee column on the card.
	ErrUnknownBand = fmt.Errorf("tailor band has no configured fee")
)

// Resolution is the outcome of a fee lookup: the amount to freeze onto the
// assignment and a human-readable snapshot of how it was chosen (the band
// letter, or the percentage actually applied).
type Resolution struct {
	Amount   decimal.Decimal
	Snapshot string
}

// Resolver computes the fee for one unit of task work. Implementations must
// be pure lookups: the snapshot they return is the only fee value the rest of
// the system ever reads back.
type Resolver interface {
	ResolveFee(ctx context.Context, orgID, productTypeID, taskTypeID, tailorID uuid.UUID) (*Resolution, error)
}

// NewResolver returns a resolver that dispatches per organization: the
// organization's rate policy picks the band or percentage strategy.
func NewResolver(masterData repositories.MasterDataRepository) Resolver {
	return &policyResolver{
		masterData: masterData,
		band:       &bandResolver{masterData: masterData},
		percentage: &percentageResolver{masterData: masterData},
	}
}

type policyResolver struct {
	masterData repositories.MasterDataRepository
	band       Resolver
	percentage Resolver
}

func (r *policyResolver) ResolveFee(ctx context.Context, orgID, productTypeID, taskTypeID, tailorID uuid.UUID) (*Resolution, error) {
	org, err := r.masterData.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load organization for rate policy")
	}

	switch org.RatePolicy {
	case models.PercentageRatePolicy:
		return r.percentage.ResolveFee(ctx, orgID, productTypeID, taskTypeID, tailorID)
	default:
		return r.band.ResolveFee(ctx, orgID, productTypeID, taskTypeID, tailorID)
	}
}

// bandResolver pays the rate card's flat fee for the tailor's band.
type bandResolver struct {
	masterData repositories.MasterDataRepository
}

func (r *bandResolver) ResolveFee(ctx context.Context, orgID, productTypeID, taskTypeID, tailorID uuid.UUID) (*Resolution, error) {
	card, tailor, err := loadCardAndTailor(ctx, r.masterData, orgID, productTypeID, taskTypeID, tailorID)
	if err != nil {
		return nil, err
	}

	var fee decimal.Decimal
	switch tailor.Band {
	case models.BandA:
		fee = card.BandAFee
	case models.BandB:
		fee = card.BandBFee
	default:
		return nil, ErrUnknownBand
	}

	return &Resolution{
		Amount:   fee,
		Snapshot: string(tailor.Band),
	}, nil
}

// percentageResolver pays baseFee x percentage, where the percentage is the
// tailor's base rate unless a special pay rule overrides it for this task
// type. A rule that exists but has no uplift yet is a configuration gap and
// fails resolution; the absence of a rule is the normal case.
type percentageResolver struct {
	masterData repositories.MasterDataRepository
}

func (r *percentageResolver) ResolveFee(ctx context.Context, orgID, productTypeID, taskTypeID, tailorID uuid.UUID) (*Resolution, error) {
	card, tailor, err := loadCardAndTailor(ctx, r.masterData, orgID, productTypeID, taskTypeID, tailorID)
	if err != nil {
		return nil, err
	}

	pct := tailor.BasePct

	rule, err := r.masterData.GetSpecialPay(ctx, orgID, tailorID, taskTypeID)
	switch {
	case err == nil:
		if rule.UpliftPct == nil {
			return nil, ErrSpecialPayPending
		}
		pct = *rule.UpliftPct
	case errors.Is(err, repositories.ErrNotFound):
		// no override, tailor's base percentage applies
	default:
		return nil, errors.Wrap(err, "failed to look up special pay rule")
	}

	amount := card.BaseFee.Mul(pct).Round(2)

	return &Resolution{
		Amount:   amount,
		Snapshot: pct.String(),
	}, nil
}

func loadCardAndTailor(ctx context.Context, masterData repositories.MasterDataRepository, orgID, productTypeID, taskTypeID, tailorID uuid.UUID) (*models.RateCard, *models.Tailor, error) {
	card, err := masterData.GetRateCard(ctx, orgID, taskTypeID, productTypeID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) || errors.Is(err, repositories.ErrAmbiguousRate) {
			return nil, nil, ErrRateNotConfigured
		}
		return nil, nil, errors.Wrap(err, "failed to look up rate card")
	}

	tailor, err := masterData.GetTailor(ctx, orgID, tailorID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, errors.Wrapf(repositories.ErrNotFound, "tailor %s", tailorID)
		}
		return nil, nil, errors.Wrap(err, "failed to look up tailor")
	}
	if !tailor.Active {
		return nil, nil, ErrTailorInactive
	}

	return card, tailor, nil
}
