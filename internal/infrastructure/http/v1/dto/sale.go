package dto

import (
	"time"

	"ventapos/internal/core/apperror"
	"ventapos/internal/core/id"
	"ventapos/internal/core/types"
	"ventapos/internal/domain/sales"
)

// SaleLineRequest is one requested position. Omitting unitPrice sells
// at the product's current list price.
type SaleLineRequest struct {
	ProductID string       `json:"productId" binding:"required"`
	Quantity  int64        `json:"quantity" binding:"required"`
	UnitPrice *types.Money `json:"unitPrice"`
}

// CreateSaleRequest for committing a sale.
type CreateSaleRequest struct {
	Lines []SaleLineRequest `json:"lines" binding:"required"`
	Note  *string           `json:"note"`
}

// ToInput converts the request to a service input.
func (r CreateSaleRequest) ToInput() (sales.SellInput, error) {
	input := sales.SellInput{Note: r.Note}
	for i, l := range r.Lines {
		productID, err := id.Parse(l.ProductID)
		if err != nil {
			return sales.SellInput{}, apperror.NewValidation("invalid product id").
				WithDetail("field", "productId").
				WithLine(i)
		}
		input.Lines = append(input.Lines, sales.LineInput{
			ProductID: productID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	return input, nil
}

// SaleResponse contains sale header fields.
type SaleResponse struct {
	ID         string     `json:"id"`
	SoldBy     string     `json:"soldBy"`
	Reverted   bool       `json:"reverted"`
	RevertedAt *time.Time `json:"revertedAt,omitempty"`
	Note       *string    `json:"note,omitempty"`
	SoldAt     time.Time  `json:"soldAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// FromSale creates SaleResponse.
func FromSale(s *sales.Sale) *SaleResponse {
	return &SaleResponse{
		ID:         s.ID.String(),
		SoldBy:     s.SoldBy,
		Reverted:   s.Reverted,
		RevertedAt: s.RevertedAt,
		Note:       s.Note,
		SoldAt:     s.SoldAt,
		CreatedAt:  s.CreatedAt,
	}
}

// SaleLineResponse contains line fields.
type SaleLineResponse struct {
	ID        string      `json:"id"`
	ProductID string      `json:"productId"`
	Quantity  int64       `json:"quantity"`
	UnitPrice types.Money `json:"unitPrice"`
}

// ConsumptionResponse contains ledger entry fields.
type ConsumptionResponse struct {
	ID       string      `json:"id"`
	LineID   string      `json:"lineId"`
	BatchID  string      `json:"batchId"`
	Quantity int64       `json:"quantity"`
	UnitCost types.Money `json:"unitCost"`
}

// SaleDetailResponse is the full aggregate with derived totals.
type SaleDetailResponse struct {
	SaleResponse
	Lines        []SaleLineResponse    `json:"lines"`
	Consumptions []ConsumptionResponse `json:"consumptions"`
	Total        types.Money           `json:"total"`
	Cost         types.Money           `json:"cost"`
	Profit       types.Money           `json:"profit"`
}

// FromSaleDetail creates SaleDetailResponse.
func FromSaleDetail(d *sales.Detail) *SaleDetailResponse {
	resp := &SaleDetailResponse{
		SaleResponse: *FromSale(&d.Sale),
		Lines:        make([]SaleLineResponse, len(d.Lines)),
		Consumptions: make([]ConsumptionResponse, len(d.Consumptions)),
		Total:        d.Total(),
		Cost:         d.Cost(),
		Profit:       d.Profit(),
	}
	for i, l := range d.Lines {
		resp.Lines[i] = SaleLineResponse{
			ID:        l.ID.String(),
			ProductID: l.ProductID.String(),
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
	}
	for i, c := range d.Consumptions {
		resp.Consumptions[i] = ConsumptionResponse{
			ID:       c.ID.String(),
			LineID:   c.LineID.String(),
			BatchID:  c.BatchID.String(),
			Quantity: c.Quantity,
			UnitCost: c.UnitCost,
		}
	}
	return resp
}
