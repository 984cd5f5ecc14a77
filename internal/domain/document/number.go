package document

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Clock supplies the current time. Injected so that number generation and
// tests never read a global clock.
type Clock func() time.Time

// NumberGenerator produces human-readable document numbers unique within an
// issuer's series. The suffix is derived from a millisecond timestamp and
// bumped monotonically when two generations land on the same tick, so
// concurrent creation by the same issuer cannot collide.
//
// The formats are stable for backward compatibility with stored numbers:
//
//	PI-<base36 timestamp>   proforma invoice
//	INV-<6-digit tail>      tax invoice
//	PO-<6-digit tail>       purchase order
//	DN-<base36 timestamp>   debit note
//	CN-<base36 timestamp>   credit note
type NumberGenerator struct {
	clock Clock

	mu       sync.Mutex
	lastTick int64
}

// NewNumberGenerator creates a generator using the given clock.
// A nil clock defaults to time.Now.
func NewNumberGenerator(clock Clock) *NumberGenerator {
	if clock == nil {
		clock = time.Now
	}
	return &NumberGenerator{clock: clock}
}

// Next produces the next number for the given document type
func (g *NumberGenerator) Next(docType Type) string {
	g.mu.Lock()
	tick := g.clock().UnixMilli()
	if tick <= g.lastTick {
		tick = g.lastTick + 1
	}
	g.lastTick = tick
	g.mu.Unlock()

	switch docType {
	case TypeTaxInvoice, TypePurchaseOrder:
		return fmt.Sprintf("%s%06d", docType.NumberPrefix(), tick%1000000)
	default:
		return docType.NumberPrefix() + strings.ToUpper(strconv.FormatInt(tick, 36))
	}
}
