package catalog

import "fmt"

// Validation codes (W300-W399). Compile already rejects shape errors; these
// are the semantic findings a compiled catalog can still carry.
const (
	WarnPrizeTableShort = "W301" // arcade weights sum below 100
	WarnYieldInert      = "W302" // yield configured but neither time nor clicks produce it
	WarnTradeNoDefault  = "W303" // trade editor without a default trade
	WarnMaxYieldZero    = "W304" // yield capped at zero
)

// ValidationError is a semantic finding about one module entry.
type ValidationError struct {
	Item    string `json:"item"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] module.%s.%s: %s", e.Code, e.Item, e.Field, e.Message)
}

// Validate reports semantic findings for every module. It does not fail fast.
// Findings are advisory: the engine still loads a catalog that has them, and
// a short prize table surfaces at draw time as a misconfiguration error.
func Validate(c *Catalog) []ValidationError {
	var out []ValidationError
	for _, item := range c.Items() {
		out = append(out, validateModule(c.Modules[item])...)
	}
	return out
}

func validateModule(m ModuleInfo) []ValidationError {
	var out []ValidationError

	if len(m.ArcadePrizes) > 0 {
		var total int64
		for _, p := range m.ArcadePrizes {
			total += p.SuccessRate
		}
		if total < 100 {
			out = append(out, ValidationError{
				Item:    m.Item,
				Field:   "arcade_prize",
				Message: fmt.Sprintf("success rates sum to %d, draws of %d..99 select nothing", total, total),
				Code:    WarnPrizeTableShort,
			})
		}
	}

	if m.Yield != nil {
		if m.Yield.PerDay == 0 && m.Yield.ClicksPerYield == 0 {
			out = append(out, ValidationError{
				Item:    m.Item,
				Field:   "yield",
				Message: "per_day and clicks_per_yield are both 0, harvest always yields nothing",
				Code:    WarnYieldInert,
			})
		}
		if m.Yield.Max == 0 {
			out = append(out, ValidationError{
				Item:    m.Item,
				Field:   "yield.max",
				Message: "max is 0, harvest always yields nothing",
				Code:    WarnMaxYieldZero,
			})
		}
	}

	if tc, ok := m.Setup.(TradeCost); ok && tc.Default == nil {
		out = append(out, ValidationError{
			Item:    m.Item,
			Field:   "trade",
			Message: "no default trade, owners must save trade settings before setup",
			Code:    WarnTradeNoDefault,
		})
	}

	return out
}
