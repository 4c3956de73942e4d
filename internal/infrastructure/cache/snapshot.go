package cache

import (
	"encoding/json"
	"time"

	"github.com/possuite/backend/internal/domain/currency"
	"github.com/possuite/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// snapshot is the cached form of an exchange rate. The rate travels as a
// string so no precision is lost.
type snapshot struct {
	Base        string          `json:"base"`
	Target      string          `json:"target"`
	Rate        decimal.Decimal `json:"rate"`
	EffectiveAt time.Time       `json:"effective_at"`
	Source      string          `json:"source"`
}

func encodeRate(r *currency.ExchangeRate) ([]byte, error) {
	return json.Marshal(snapshot{
		Base:        r.Base.String(),
		Target:      r.Target.String(),
		Rate:        r.Rate,
		EffectiveAt: r.EffectiveAt.UTC(),
		Source:      r.Source,
	})
}

func decodeRate(data []byte) (*currency.ExchangeRate, error) {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &currency.ExchangeRate{
		Base:        valueobject.Currency(s.Base),
		Target:      valueobject.Currency(s.Target),
		Rate:        s.Rate,
		EffectiveAt: s.EffectiveAt,
		Source:      s.Source,
		IsActive:    true,
	}, nil
}

func pairKey(prefix string, pair currency.Pair) string {
	return prefix + pair.Base.String() + ":" + pair.Target.String()
}
