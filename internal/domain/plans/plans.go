package plans

import (
	"errors"
	"strings"
)

var ErrPlanNotFound = errors.New("plan not found")

// Plan names (single source of truth).
const (
	Starter  = "Starter"
	Standard = "Standard"
	Premium  = "Premium"
)

type Plan struct {
	Name            string  `json:"name"`
	MonthlyFeeEUR   float64 `json:"monthlyFee"`
	IncludedQRCodes int     `json:"includedQRCodes"`
	StripePriceID   string  `json:"-"`
}

// Table is the static plan catalog. Price ids come from configuration; the
// rest is fixed product data.
type Table struct {
	plans map[string]Plan
}

func NewTable(priceStarter, priceStandard, pricePremium string) *Table {
	return &Table{plans: map[string]Plan{
		Starter:  {Name: Starter, MonthlyFeeEUR: 12, IncludedQRCodes: 50, StripePriceID: priceStarter},
		Standard: {Name: Standard, MonthlyFeeEUR: 23, IncludedQRCodes: 100, StripePriceID: priceStandard},
		Premium:  {Name: Premium, MonthlyFeeEUR: 34, IncludedQRCodes: 300, StripePriceID: pricePremium},
	}}
}

// Lookup is case-insensitive on the plan name; an unknown or unconfigured
// plan is ErrPlanNotFound so a typo never reaches the payment processor.
func (t *Table) Lookup(name string) (Plan, error) {
	for _, p := range t.plans {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			if p.StripePriceID == "" {
				return Plan{}, ErrPlanNotFound
			}
			return p, nil
		}
	}
	return Plan{}, ErrPlanNotFound
}

// All returns the catalog in a stable order for the public /plans route.
func (t *Table) All() []Plan {
	out := make([]Plan, 0, 3)
	for _, name := range []string{Starter, Standard, Premium} {
		out = append(out, t.plans[name])
	}
	return out
}
