// Package numerator provides domain contracts for invoice numbering.
package numerator

// Strategy defines how the next serial is allocated.
type Strategy int

const (
	// StrategyAtomic allocates the serial with one UPSERT ... RETURNING on a
	// per-shop, per-day counter. Concurrent callers never share a serial.
	StrategyAtomic Strategy = iota

	// StrategyLastInvoice reads the most recent invoice of the day and adds one.
	// Two concurrent checkouts can receive the same number; kept for stores
	// that cannot run the counter table.
	StrategyLastInvoice
)

// ParseStrategy maps a config value to a Strategy. Unknown values fall back to StrategyAtomic.
func ParseStrategy(s string) Strategy {
	switch s {
	case "last-invoice", "last_invoice":
		return StrategyLastInvoice
	default:
		return StrategyAtomic
	}
}

// String implements fmt.Stringer.
func (s Strategy) String() string {
	if s == StrategyLastInvoice {
		return "last-invoice"
	}
	return "atomic"
}

// Config holds numbering configuration.
type Config struct {
	// Prefix of every number, "INV" for sales bills.
	Prefix string

	// PadWidth is the minimum serial width. Larger serials are never truncated.
	PadWidth int
}

// InvoiceConfig is the configuration used for sales bills.
func InvoiceConfig() Config {
	return Config{
		Prefix:   "INV",
		PadWidth: 3,
	}
}
