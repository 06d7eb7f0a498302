/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  engine types from the external contract. Monetary amounts travel as
  strings and are parsed into decimals at the boundary; they are never
  float64.

NAMING CONVENTION:
  - *DTO: response types returned to clients
  - *Request: request body types from clients

VALIDATION:
  Request structs carry validator/v10 tags and are checked by
  decodeAndValidate before any engine call. The engine revalidates its
  own contracts (barcode checksum, Luhn, rate ranges) independently.

SEE ALSO:
  - handlers.go: uses these types
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/openretail/shop-engine/shop"
)

var validate = validator.New()

// decodeAndValidate parses a JSON body into dst and runs its validation tags.
func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// =============================================================================
// PRODUCTS
// =============================================================================

type ProductDTO struct {
	ID          int      `json:"id"`
	Barcode     string   `json:"barcode"`
	Description string   `json:"description"`
	UnitPrice   string   `json:"unit_price"`
	Quantity    int      `json:"quantity"`
	Location    string   `json:"location,omitempty"`
	Note        string   `json:"note,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

func toProductDTO(p *shop.Product) ProductDTO {
	dto := ProductDTO{
		ID:          p.ID,
		Barcode:     p.Barcode,
		Description: p.Description,
		UnitPrice:   p.UnitPrice.String(),
		Quantity:    p.Quantity,
		Note:        p.Note,
	}
	if p.Location != nil {
		dto.Location = p.Location.String()
	}
	for tag := range p.Tags {
		dto.Tags = append(dto.Tags, tag)
	}
	return dto
}

type ProductRequest struct {
	Barcode     string `json:"barcode" validate:"required"`
	Description string `json:"description" validate:"required"`
	UnitPrice   string `json:"unit_price" validate:"required"`
	Note        string `json:"note"`
}

type LocationRequest struct {
	Location string `json:"location" validate:"required"`
}

type TagsRequest struct {
	Tags []string `json:"tags" validate:"required,min=1,dive,required"`
}

// =============================================================================
// SALES
// =============================================================================

type LineItemDTO struct {
	ProductID    int      `json:"product_id"`
	Barcode      string   `json:"barcode"`
	Quantity     int      `json:"quantity"`
	UnitPrice    string   `json:"unit_price"`
	DiscountRate string   `json:"discount_rate"`
	Tags         []string `json:"tags,omitempty"`
}

type SaleDTO struct {
	ID           int           `json:"id"`
	Status       string        `json:"status"`
	DiscountRate string        `json:"discount_rate"`
	Total        string        `json:"total"`
	Items        []LineItemDTO `json:"items"`
	Returns      []int         `json:"returns,omitempty"`
}

func toSaleDTO(s *shop.Sale) SaleDTO {
	dto := SaleDTO{
		ID:           s.ID,
		Status:       string(s.Status),
		DiscountRate: s.DiscountRate.String(),
		Total:        s.ComputeTotal().String(),
		Items:        []LineItemDTO{},
		Returns:      s.Returns,
	}
	for _, li := range s.Items {
		item := LineItemDTO{
			ProductID:    li.ProductID,
			Barcode:      li.Barcode,
			Quantity:     li.Quantity,
			UnitPrice:    li.UnitPrice.String(),
			DiscountRate: li.DiscountRate.String(),
		}
		for tag := range li.Tags {
			item.Tags = append(item.Tags, tag)
		}
		dto.Items = append(dto.Items, item)
	}
	return dto
}

type ItemRequest struct {
	Barcode  string `json:"barcode" validate:"required"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

type TagItemRequest struct {
	Barcode string `json:"barcode" validate:"required"`
	Tag     string `json:"tag" validate:"required"`
}

type DiscountRequest struct {
	Barcode string `json:"barcode"` // empty for a sale-level discount
	Rate    string `json:"rate" validate:"required"`
}

type PaymentRequest struct {
	Method string `json:"method" validate:"required,oneof=cash card"`
	Cash   string `json:"cash"` // required for cash payments
	Card   string `json:"card"` // required for card payments
}

type PaymentDTO struct {
	Change string `json:"change,omitempty"`
	Refund string `json:"refund,omitempty"`
}

type PointsDTO struct {
	Points int64 `json:"points"`
}

// =============================================================================
// RETURNS
// =============================================================================

type ReturnLineDTO struct {
	ProductID          int    `json:"product_id"`
	Barcode            string `json:"barcode"`
	Quantity           int    `json:"quantity"`
	UnitPrice          string `json:"unit_price"`
	EffectiveUnitPrice string `json:"effective_unit_price"`
}

type ReturnDTO struct {
	ID        int             `json:"id"`
	SaleID    int             `json:"sale_id"`
	Status    string          `json:"status"`
	Committed bool            `json:"committed"`
	Value     string          `json:"value"`
	Lines     []ReturnLineDTO `json:"lines"`
}

func toReturnDTO(r *shop.Return) ReturnDTO {
	dto := ReturnDTO{
		ID:        r.ID,
		SaleID:    r.SaleID,
		Status:    string(r.Status),
		Committed: r.Committed,
		Value:     r.Value().String(),
		Lines:     []ReturnLineDTO{},
	}
	for _, rl := range r.Lines {
		dto.Lines = append(dto.Lines, ReturnLineDTO{
			ProductID:          rl.ProductID,
			Barcode:            rl.Barcode,
			Quantity:           rl.Quantity,
			UnitPrice:          rl.UnitPrice.String(),
			EffectiveUnitPrice: rl.EffectiveUnitPrice.String(),
		})
	}
	return dto
}

type StartReturnRequest struct {
	SaleID int `json:"sale_id" validate:"gt=0"`
}

type EndReturnRequest struct {
	Commit bool `json:"commit"`
}

// =============================================================================
// ORDERS
// =============================================================================

type OrderDTO struct {
	ID        int    `json:"id"`
	ProductID int    `json:"product_id"`
	Barcode   string `json:"barcode"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Total     string `json:"total"`
	Status    string `json:"status"`
}

func toOrderDTO(o *shop.Order) OrderDTO {
	return OrderDTO{
		ID:        o.ID,
		ProductID: o.ProductID,
		Barcode:   o.Barcode,
		Quantity:  o.Quantity,
		UnitPrice: o.UnitPrice.String(),
		Total:     o.Total().String(),
		Status:    string(o.Status),
	}
}

type IssueOrderRequest struct {
	Barcode   string `json:"barcode" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
	UnitPrice string `json:"unit_price" validate:"required"`
	Pay       bool   `json:"pay"` // issue-and-pay in one step
}

type ArrivalRequest struct {
	Tags []string `json:"tags"` // RFID arrival when present
}

// =============================================================================
// BALANCE / LEDGER
// =============================================================================

type BalanceDTO struct {
	Balance string `json:"balance"`
}

type EntryDTO struct {
	ID     int    `json:"id"`
	Date   string `json:"date"`
	Amount string `json:"amount"`
	Status string `json:"status"`
	Kind   string `json:"kind"`
	Ref    int    `json:"ref,omitempty"`
}

type BalanceUpdateRequest struct {
	Amount string `json:"amount" validate:"required"`
}

// =============================================================================
// COMMON
// =============================================================================

type IDResponse struct {
	ID int `json:"id"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// parseAmount parses a decimal request field.
func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}
