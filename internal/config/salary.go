package config

import "fmt"

// Company tier multiplier bounds. Multipliers outside this window inflate
// or deflate estimates beyond anything the market data supports.
const (
	MinTierMultiplier = 0.8
	MaxTierMultiplier = 2.0
)

// SalaryBand is a baseline range for one experience tier, expressed in the
// market's customary unit (LPA for the default table).
type SalaryBand struct {
	MinYears     int    `mapstructure:"min_years" json:"min_years"`
	MaxYears     int    `mapstructure:"max_years" json:"max_years"` // 0 means open-ended
	Conservative string `mapstructure:"conservative" json:"conservative"`
	Market       string `mapstructure:"market" json:"market"`
	Competitive  string `mapstructure:"competitive" json:"competitive"`
	Exceptional  string `mapstructure:"exceptional" json:"exceptional"`
}

// CompanyTier scales a band for a class of employer.
type CompanyTier struct {
	Name          string  `mapstructure:"name" json:"name"`
	MinMultiplier float64 `mapstructure:"min_multiplier" json:"min_multiplier"`
	MaxMultiplier float64 `mapstructure:"max_multiplier" json:"max_multiplier"`
	Note          string  `mapstructure:"note" json:"note"`
}

// SalaryPolicy is the calibration table fed to the salary analysis prompt.
// It is configuration, not code, so deployments targeting other markets can
// replace the bands without a rebuild.
type SalaryPolicy struct {
	Bands []SalaryBand  `mapstructure:"bands" json:"bands"`
	Tiers []CompanyTier `mapstructure:"tiers" json:"tiers"`

	// MaxSkillPremium caps cumulative skill premiums (0.3 = +30%).
	MaxSkillPremium float64 `mapstructure:"max_skill_premium" json:"max_skill_premium"`
}

// DefaultSalaryPolicy returns the built-in calibration table for
// Analytics/BI/Data roles in the Indian market.
func DefaultSalaryPolicy() SalaryPolicy {
	return SalaryPolicy{
		Bands: []SalaryBand{
			{
				MinYears:     0,
				MaxYears:     2,
				Conservative: "₹4-6 LPA",
				Market:       "₹6-8 LPA",
				Competitive:  "₹8-12 LPA",
				Exceptional:  "₹12-15 LPA",
			},
			{
				MinYears:     3,
				MaxYears:     4,
				Conservative: "₹8-12 LPA",
				Market:       "₹12-15 LPA",
				Competitive:  "₹15-18 LPA",
				Exceptional:  "₹18-22 LPA",
			},
			{
				MinYears:     5,
				MaxYears:     7,
				Conservative: "₹15-18 LPA",
				Market:       "₹18-22 LPA",
				Competitive:  "₹22-28 LPA",
				Exceptional:  "₹28-35 LPA",
			},
			{
				MinYears:     8,
				MaxYears:     0,
				Conservative: "₹22-28 LPA",
				Market:       "₹25-35 LPA",
				Competitive:  "₹35-45 LPA",
				Exceptional:  "₹35-50 LPA",
			},
		},
		Tiers: []CompanyTier{
			{Name: "Startups/Small companies", MinMultiplier: 0.8, MaxMultiplier: 0.9, Note: "may offer equity instead"},
			{Name: "Service companies (TCS, Infosys, Wipro)", MinMultiplier: 0.85, MaxMultiplier: 1.0},
			{Name: "Mid-tier product companies", MinMultiplier: 1.0, MaxMultiplier: 1.2},
			{Name: "Large MNCs (non-tech)", MinMultiplier: 1.0, MaxMultiplier: 1.15},
			{Name: "Top tech companies (Google, Microsoft, Amazon, Meta)", MinMultiplier: 1.5, MaxMultiplier: 2.0},
		},
		MaxSkillPremium: 0.3,
	}
}

// BandForYears returns the band covering the given years of experience,
// or the last band when experience exceeds every closed range.
func (p SalaryPolicy) BandForYears(years int) (SalaryBand, bool) {
	for _, b := range p.Bands {
		if years >= b.MinYears && (b.MaxYears == 0 || years <= b.MaxYears) {
			return b, true
		}
	}
	if n := len(p.Bands); n > 0 {
		return p.Bands[n-1], true
	}
	return SalaryBand{}, false
}

// validate checks structural soundness and multiplier bounds.
func (p SalaryPolicy) validate() error {
	if len(p.Bands) == 0 {
		return fmt.Errorf("%w: no experience bands", ErrInvalidSalaryPolicy)
	}
	for i, b := range p.Bands {
		if b.MinYears < 0 {
			return fmt.Errorf("%w: band %d has negative min_years", ErrInvalidSalaryPolicy, i)
		}
		if b.MaxYears != 0 && b.MaxYears < b.MinYears {
			return fmt.Errorf("%w: band %d has max_years < min_years", ErrInvalidSalaryPolicy, i)
		}
		if b.Market == "" {
			return fmt.Errorf("%w: band %d missing market range", ErrInvalidSalaryPolicy, i)
		}
	}
	for i, t := range p.Tiers {
		if t.MinMultiplier < MinTierMultiplier || t.MaxMultiplier > MaxTierMultiplier {
			return fmt.Errorf("%w: tier %d (%s) multiplier outside [%.1f, %.1f]",
				ErrInvalidSalaryPolicy, i, t.Name, MinTierMultiplier, MaxTierMultiplier)
		}
		if t.MinMultiplier > t.MaxMultiplier {
			return fmt.Errorf("%w: tier %d (%s) has min > max", ErrInvalidSalaryPolicy, i, t.Name)
		}
	}
	if p.MaxSkillPremium < 0 || p.MaxSkillPremium > 1 {
		return fmt.Errorf("%w: max_skill_premium must be within [0, 1]", ErrInvalidSalaryPolicy)
	}
	return nil
}
