// Package yield computes daily-yield accruals for purchased products.
// Accrual is catch-up based: all whole 24h cycles elapsed since the last
// accrual are credited at once on the next pass, never partial cycles and
// never past a product's expiration.
package yield

import (
	"fmt"
	"time"

	"saldoya/internal/db"
	"saldoya/internal/wallet"
)

const cycle = 24 * time.Hour

// Accrual - the outcome for a single product in one pass.
type Accrual struct {
	Product db.PurchasedProduct // updated bookkeeping
	Cycles  int
	Profit  float64
}

// Result of processing one user's products.
type Result struct {
	TotalProfit float64
	Accruals    []Accrual            // products that earned yield this pass
	Updated     []db.PurchasedProduct // every product whose row changed
	Changed     bool
}

// Process walks the user's products and computes pending accruals as of now.
// It mutates nothing; the caller persists Result in one transaction.
func Process(products []db.PurchasedProduct, now time.Time) Result {
	var res Result

	for _, p := range products {
		if p.Status == db.ProductExpired {
			continue
		}

		expiration := p.ExpirationDate()
		last := p.PurchaseDate
		if p.LastYieldDate != nil {
			last = *p.LastYieldDate
		}

		// Never accrue past expiration.
		effectiveNow := now
		if now.After(expiration) {
			effectiveNow = expiration
		}

		elapsed := effectiveNow.Sub(last)
		cycles := int(elapsed / cycle)

		if cycles <= 0 {
			// Boundary correction: the product crossed expiration without a
			// final full cycle. Status flips, nothing is credited.
			if now.After(expiration) {
				p.Status = db.ProductExpired
				res.Updated = append(res.Updated, p)
				res.Changed = true
			}
			continue
		}

		profit := p.Price * (p.DailyYield / 100) * float64(cycles)

		newLast := last.Add(time.Duration(cycles) * cycle)
		p.LastYieldDate = &newLast
		if !newLast.Before(expiration) {
			p.Status = db.ProductExpired
		}

		res.TotalProfit += profit
		res.Accruals = append(res.Accruals, Accrual{Product: p, Cycles: cycles, Profit: profit})
		res.Updated = append(res.Updated, p)
		res.Changed = true
	}

	return res
}

// Describe renders the ledger description for one accrual.
func (a Accrual) Describe() string {
	return fmt.Sprintf("Rendimiento de %s (%d día/s)", a.Product.Name, a.Cycles)
}

// Entries builds the ledger entries for a result, one per accruing product.
func (r Result) Entries() []wallet.Entry {
	entries := make([]wallet.Entry, 0, len(r.Accruals))
	for _, a := range r.Accruals {
		entries = append(entries, wallet.Entry{
			Type:        db.TxCredit,
			Amount:      a.Profit,
			Description: a.Describe(),
		})
	}
	return entries
}
