// Package sales provides the sale document and its allocation ledger.
// A sale consumes stock from batches FIFO; each consumption records
// which batch supplied how many units at what cost, so a reversal can
// put every unit back where it came from.
package sales

import (
	"context"
	"time"

	"ventapos/internal/core/apperror"
	"ventapos/internal/core/id"
	"ventapos/internal/core/types"
)

// Sale is the document header.
type Sale struct {
	ID id.ID `db:"id" json:"id"`

	// SoldBy records the acting user at sale time.
	SoldBy string `db:"sold_by" json:"soldBy"`

	// Reverted marks the sale as undone. Reversal is a flag plus
	// restored batch quantities; sale rows are never rewritten.
	Reverted   bool       `db:"reverted" json:"reverted"`
	RevertedAt *time.Time `db:"reverted_at" json:"revertedAt,omitempty"`

	Note *string `db:"note" json:"note,omitempty"`

	SoldAt    time.Time `db:"sold_at" json:"soldAt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Line is one product position on a sale.
type Line struct {
	ID     id.ID `db:"id" json:"id"`
	SaleID id.ID `db:"sale_id" json:"saleId"`

	ProductID id.ID `db:"product_id" json:"productId"`
	Quantity  int64 `db:"quantity" json:"quantity"`

	// UnitPrice is captured at sale time. Defaults to the product's
	// list price when the caller does not override it.
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`
}

// Consumption is one append-only ledger entry: a line drew Quantity
// units from BatchID. UnitCost is denormalized from the batch so cost
// reporting never depends on the batch row surviving unchanged.
type Consumption struct {
	ID     id.ID `db:"id" json:"id"`
	LineID id.ID `db:"line_id" json:"lineId"`

	BatchID  id.ID       `db:"batch_id" json:"batchId"`
	Quantity int64       `db:"quantity" json:"quantity"`
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`
}

// Detail is the fully loaded sale aggregate. Derived money values are
// computed from it, never stored.
type Detail struct {
	Sale
	Lines        []Line        `json:"lines"`
	Consumptions []Consumption `json:"consumptions"`
}

// Total is the revenue of the sale: sum of quantity * captured price.
func (d *Detail) Total() types.Money {
	total := types.Zero()
	for _, l := range d.Lines {
		total = total.Add(types.MulQty(l.UnitPrice, l.Quantity))
	}
	return total
}

// Cost is the cost of goods sold: sum over consumptions of
// quantity * batch unit cost.
func (d *Detail) Cost() types.Money {
	total := types.Zero()
	for _, c := range d.Consumptions {
		total = total.Add(types.MulQty(c.UnitCost, c.Quantity))
	}
	return total
}

// Profit is Total minus Cost.
func (d *Detail) Profit() types.Money {
	return d.Total().Sub(d.Cost())
}

// Validate checks the line before allocation.
func (l *Line) Validate(_ context.Context) error {
	if id.IsNil(l.ProductID) {
		return apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}
	if l.Quantity <= 0 {
		return apperror.NewInvalidQuantity(l.Quantity)
	}
	if l.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price cannot be negative").
			WithDetail("field", "unitPrice")
	}
	return nil
}
