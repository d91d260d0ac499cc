package numerator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"stocky/internal/core/id"
)

// Generator produces invoice numbers of the form PREFIX-YYYYMMDD-HHmm-NNN.
// Implementations live in the infrastructure layer.
type Generator interface {
	// Next returns the next number for shop at the given instant. The instant
	// must already be expressed in the shop's time zone. Lookup failures are
	// returned as PERSISTENCE_ERROR and the caller must not create the bill.
	Next(ctx context.Context, shopID id.ID, at time.Time) (string, error)

	// Peek returns the number Next would most likely return, without
	// consuming it.
	Peek(ctx context.Context, shopID id.ID, at time.Time) (string, error)
}

// Format renders a number. at supplies the date and minute, serial the counter.
func Format(cfg Config, at time.Time, serial int64) string {
	width := cfg.PadWidth
	if width <= 0 {
		width = 3
	}
	return fmt.Sprintf("%s-%s-%s-%0*d", cfg.Prefix, at.Format("20060102"), at.Format("1504"), width, serial)
}

// ParseSerial returns the integer in the last '-' delimited segment of a
// number with at least three segments. ok is false for anything else.
func ParseSerial(number string) (int64, bool) {
	parts := strings.Split(number, "-")
	if len(parts) < 3 {
		return 0, false
	}
	n, err := strconv.ParseInt(parts[len(parts)-1], 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// NextSerial returns the serial that follows prev, the most recent number
// issued today. An empty or malformed predecessor restarts the day at 1.
func NextSerial(prev string) int64 {
	if prev == "" {
		return 1
	}
	n, ok := ParseSerial(prev)
	if !ok {
		return 1
	}
	return n + 1
}

// DayKey is the counter key for a shop's calendar day.
func DayKey(cfg Config, shopID id.ID, at time.Time) string {
	return fmt.Sprintf("%s:%s:%s", cfg.Prefix, shopID, at.Format("20060102"))
}
