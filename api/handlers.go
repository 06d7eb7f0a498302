/*
handlers.go - HTTP handlers over the shop engine

PURPOSE:
  Exposes the transactional engine via REST. Handlers parse and validate
  input, delegate to the engine, and map its two error channels onto
  HTTP statuses. No business logic lives here.

ERROR MAPPING:
  - input-contract violation (typed error)       -> 400
  - uniqueness conflict / missing shelf location -> 409
  - business "not done" (ok=false)               -> 422
  - anything else                                -> 500

ENDPOINTS:
  Products:  GET/POST /api/products, GET/PUT/DELETE /api/products/{id},
             PUT /api/products/{id}/location, POST /api/products/{id}/tags
  Sales:     POST /api/sales, GET/DELETE /api/sales/{id},
             POST/DELETE items and tags, discounts, end, pay, points
  Returns:   POST /api/returns, GET/DELETE /api/returns/{id},
             POST items, end, pay
  Orders:    GET/POST /api/orders, GET /api/orders/{id}, pay, arrival
  Balance:   GET /api/balance, POST updates, POST recompute,
             GET /api/ledger

PERSISTENCE:
  When a store is wired, every successful mutation is followed by a
  Persist of the durable views. A persist failure is logged, not
  surfaced: the in-memory engine remains the source of truth.

SEE ALSO:
  - dto.go: request/response shapes
  - server.go: router and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/openretail/shop-engine/logger"
	"github.com/openretail/shop-engine/shop"
)

// Handler holds the dependencies of the HTTP surface.
type Handler struct {
	Shop  *shop.Shop
	Store shop.Store // optional
	Log   *logger.Logger
}

// NewHandler creates a handler over the given engine. store may be nil.
func NewHandler(engine *shop.Shop, store shop.Store, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{Shop: engine, Store: store, Log: log.WithComponent("api")}
}

func (h *Handler) persist(ctx context.Context) {
	if h.Store == nil {
		return
	}
	if err := h.Shop.Persist(ctx, h.Store); err != nil {
		h.Log.Warnw("persist failed", "error", err)
	}
}

// =============================================================================
// PRODUCT HANDLERS
// =============================================================================

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products := h.Shop.Catalog.Products()
	dtos := make([]ProductDTO, len(products))
	for i, p := range products {
		dtos[i] = toProductDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p := h.Shop.Catalog.FindByID(id)
	if p == nil {
		writeError(w, http.StatusNotFound, "product not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err)
		return
	}
	price, err := parseAmount(req.UnitPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid unit price", err)
		return
	}

	p, err := h.Shop.Catalog.Create(req.Barcode, req.Description, price, req.Note)
	if err != nil {
		h.engineError(w, err)
		return
	}
	h.persist(r.Context())
	writeJSON(w, http.StatusCreated, toProductDTO(p))
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req ProductRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err)
		return
	}
	price, err := parseAmount(req.UnitPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid unit price", err)
		return
	}

	done, err := h.Shop.Catalog.Update(id, req.Barcode, req.Description, price, req.Note)
	if err != nil {
		h.engineError(w, err)
		return
	}
	if !done {
		writeError(w, http.StatusNotFound, "product not found", nil)
		return
	}
	h.persist(r.Context())
	writeJSON(w, http.StatusOK, toProductDTO(h.Shop.Catalog.FindByID(id)))
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if !h.Shop.Catalog.Delete(id) {
		writeError(w, http.StatusNotFound, "product not found", nil)
		return
	}
	h.persist(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetProductLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req LocationRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err)
		return
	}
	loc, err := shop.ParseLocation(req.Location)
	if err != nil {
		h.engineError(w, err)
		return
	}
	if !h.Shop.Catalog.SetLocation(id, loc) {
		writeError(w, http.StatusConflict, "location not assignable", nil)
		return
	}
	h.persist(r.Context())
	writeJSON(w, http.StatusOK, toProductDTO(h.Shop.Catalog.FindByID(id)))
}

func (h *Handler) AttachProductTags(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req TagsRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err)
		return
	}
	p := h.Shop.Catalog.FindByID(id)
	if p == nil {
		writeError(w, http.StatusNotFound, "product not found", nil)
		return
	}
	if err := h.Shop.Catalog.AttachTags(p.Barcode, req.Tags); err != nil {
		h.engineError(w, err)
		return
	}
	h.persist(r.Context())
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

// =============================================================================
// SALE HANDLERS
// =============================================================================

func (h *Handler) StartSale(w http.ResponseWriter, r *http.Request) {
	id := h.Shop.StartSale()
	writeJSON(w, http.StatusCreated, IDResponse{ID: id})
}

func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sale := h.Shop.SaleByID(id)
	if sale == nil {
		writeError(w, http.StatusNotFound, "sale not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(sale))
}

func (h *Handler) AddSaleItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req ItemRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err)
		return
	}
	done, err := h.Shop.AddToSale(id, req.Barcode, req.Quantity)
	if err != nil {
		h.engineError(w, err)
		return
	}
	if !done {
		// Distinguish the common causes for the client's benefit. A
		// missing or non-OPEN sale refuses regardless of stock, so the
		// stock diagnosis only applies to a sale that could accept.
		sale := h.Shop.SaleByID(id)
		if sale != nil && sale.Status == shop.StatusOpen {
			if p := h.Shop.Catalog.FindByBarcode(req.Barcode); p != nil && p.Quantity < req.Quantity {
				h.engineError(w, &shop.InsufficientStockError{
					Barcode: req.Barcode, Available: p.Quantity, Requested: req.Quantity,
				})
				return
			}
		}
		notDone(w)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(h.Shop.SaleByID(id)))
}

func (h *Handler) RemoveSaleItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req ItemRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err)
		return
	}
	done, err := h.Shop.RemoveFromSale(id, req.Barcode, req.Quantity)
	if err != nil {
		h.engineError(w, err)
		return
	}
	if !done {
		notDone(w)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(h.Shop.SaleByID(id)))
}

func (h *Handler) AddSaleTag(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req TagItemRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err)
		return
	}
	done, err := h.Shop.AddTagToSale(id, req.Barcode, req.Tag)
	if err != nil {
		h.engineError(w, err)
		return
	}
	if !done {
		notDone(w)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(h.Shop.SaleByID(id)))
}

func (h *Handler) RemoveSaleTag(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req TagItemRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err)
		return
	}
	done, err := h.Shop.RemoveTagFromSale(id, req.Barcode, req.Tag)
	if err != nil {
		h.engineError(w, err)
		return
	}
	if !done {
		notDone(w)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(h.Shop.SaleByID(id)))
}

func (h *Handler) ApplySaleDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req DiscountRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err)
		return
	}
	rate, err := parseAmount(req.Rate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid rate", err)
		return
	}

	var done bool
	if req.Barcode != "" {
		done, err = h.Shop.ApplyItemDiscount(id, req.Barcode, rate)
	} else {
		done, err = h.Shop.ApplySaleDiscount(id, rate)
	}
	if err != nil {
		h.engineError(w, err)
		return
	}
	if !done {
		notDone(w)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(h.Shop.SaleByID(id)))
}

func (h *Handler) EndSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	done, err := h.Shop.EndSale(id)
	if err != nil {
		h.engineError(w, err)
		return
	}
	if !done {
		notDone(w)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(h.Shop.SaleByID(id)))
}

func (h *Handler) SalePoints(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	points, found, err := h.Shop.SalePoints(id)
	if err != nil {
		h.engineError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "sale not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, PointsDTO{Points: points})
}

func (h *Handler) PaySale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req PaymentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err)
		return
	}

	switch shop.PaymentMethod(req.Method) {
	case shop.PayCash:
		cash, err := parseAmount(req.Cash)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid cash amount", err)
			return
		}
		change, done, err := h.Shop.PaySaleCash(id, cash)
		if err != nil {
			h.engineError(w, err)
			return
		}
		if !done {
			notDone(w)
			return
		}
		h.persist(r.Context())
		writeJSON(w, http.StatusOK, PaymentDTO{Change: change.String()})

	case shop.PayCard:
		done, err := h.Shop.PaySaleCard(id, req.Card)
		if err != nil {
			h.engineError(w, err)
			return
		}
		if !done {
			notDone(w)
			return
		}
		h.persist(r.Context())
		writeJSON(w, http.StatusOK, PaymentDTO{})
	}
}

func (h *Handler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	done, err := h.Shop.DeleteSale(id)
	if err != nil {
		h.engineError(w, err)
		return
	}
	if !done {
		notDone(w)
		return
	}
	h.persist(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RETURN HANDLERS
// =============================================================================

func (h *Handler) StartReturn(w http.ResponseWriter, r *http.Request) {
	var req StartReturnRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err)
		return
	}
	id, done, err := h.Shop.StartReturn(req.SaleID)
	if err != nil {
		h.engineError(w, err)
		return
	}
	if !done {
		notDone(w)
		return
	}
	writeJSON(w, http.StatusCreated, IDResponse{ID: id})
}

func (h *Handler) GetReturn(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ret := h.Shop.ReturnByID(id)
	if ret == nil {
		writeError(w, http.StatusNotFound, "return not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toReturnDTO(ret))
}

func (h *Handler) AddReturnItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req ItemRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err)
		return
	}
	done, err := h.Shop.ReturnItem(id, req.Barcode, req.Quantity)
	if err != nil {
		h.engineError(w, err)
		return
	}
	if !done {
		notDone(w)
		return
	}
	writeJSON(w, http.StatusOK, toReturnDTO(h.Shop.ReturnByID(id)))
}

func (h *Handler) EndReturn(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req EndReturnRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err)
		return
	}
	done, err := h.Shop.EndReturn(id, req.Commit)
	if err != nil {
		h.engineError(w, err)
		return
	}
	if !done {
		notDone(w)
		return
	}
	h.persist(r.Context())
	writeJSON(w, http.StatusOK, toReturnDTO(h.Shop.ReturnByID(id)))
}

func (h *Handler) PayReturn(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req PaymentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err)
		return
	}

	var (
		refund decimal.Decimal
		done   bool
		err    error
	)
	switch shop.PaymentMethod(req.Method) {
	case shop.PayCash:
		refund, done, err = h.Shop.ReturnCashPayment(id)
	case shop.PayCard:
		refund, done, err = h.Shop.ReturnCardPayment(id, req.Card)
	}
	if err != nil {
		h.engineError(w, err)
		return
	}
	if !done {
		notDone(w)
		return
	}
	h.persist(r.Context())
	writeJSON(w, http.StatusOK, PaymentDTO{Refund: refund.String()})
}

func (h *Handler) DeleteReturn(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	done, err := h.Shop.DeleteReturn(id)
	if err != nil {
		h.engineError(w, err)
		return
	}
	if !done {
		notDone(w)
		return
	}
	h.persist(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ORDER HANDLERS
// =============================================================================

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders := h.Shop.Orders()
	dtos := make([]OrderDTO, len(orders))
	for i, o := range orders {
		dtos[i] = toOrderDTO(o)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	o := h.Shop.OrderByID(id)
	if o == nil {
		writeError(w, http.StatusNotFound, "order not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(o))
}

func (h *Handler) IssueOrder(w http.ResponseWriter, r *http.Request) {
	var req IssueOrderRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err)
		return
	}
	price, err := parseAmount(req.UnitPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid unit price", err)
		return
	}

	var (
		id   int
		done bool
	)
	if req.Pay {
		id, done, err = h.Shop.PayOrderFor(req.Barcode, req.Quantity, price)
	} else {
		id, done, err = h.Shop.IssueOrder(req.Barcode, req.Quantity, price)
	}
	if err != nil {
		h.engineError(w, err)
		return
	}
	if !done {
		if req.Pay {
			total := price.Mul(decimal.NewFromInt(int64(req.Quantity)))
			if !h.Shop.Book.CheckAvailability(total) {
				h.engineError(w, &shop.InsufficientFundsError{
					Balance: h.Shop.ComputeBalance(), Requested: total,
				})
				return
			}
		}
		notDone(w)
		return
	}
	h.persist(r.Context())
	writeJSON(w, http.StatusCreated, IDResponse{ID: id})
}

func (h *Handler) PayOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	done, err := h.Shop.PayOrder(id)
	if err != nil {
		h.engineError(w, err)
		return
	}
	if !done {
		if o := h.Shop.OrderByID(id); o != nil && !h.Shop.Book.CheckAvailability(o.Total()) {
			h.engineError(w, &shop.InsufficientFundsError{
				Balance: h.Shop.ComputeBalance(), Requested: o.Total(),
			})
			return
		}
		notDone(w)
		return
	}
	h.persist(r.Context())
	writeJSON(w, http.StatusOK, toOrderDTO(h.Shop.OrderByID(id)))
}

func (h *Handler) RecordOrderArrival(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req ArrivalRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err)
		return
	}

	var (
		done bool
		err  error
	)
	if len(req.Tags) > 0 {
		done, err = h.Shop.RecordOrderArrivalTags(id, req.Tags)
	} else {
		done, err = h.Shop.RecordOrderArrival(id)
	}
	if err != nil {
		h.engineError(w, err)
		return
	}
	if !done {
		notDone(w)
		return
	}
	h.persist(r.Context())
	writeJSON(w, http.StatusOK, toOrderDTO(h.Shop.OrderByID(id)))
}

// =============================================================================
// BALANCE / LEDGER HANDLERS
// =============================================================================

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, BalanceDTO{Balance: h.Shop.ComputeBalance().String()})
}

func (h *Handler) UpdateBalance(w http.ResponseWriter, r *http.Request) {
	var req BalanceUpdateRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err)
		return
	}
	done, err := h.Shop.RecordBalanceUpdate(amount)
	if err != nil {
		h.engineError(w, err)
		return
	}
	if !done {
		notDone(w)
		return
	}
	h.persist(r.Context())
	writeJSON(w, http.StatusOK, BalanceDTO{Balance: h.Shop.ComputeBalance().String()})
}

func (h *Handler) RecomputeBalance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, BalanceDTO{Balance: h.Shop.RecomputeBalance().String()})
}

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries := h.Shop.Book.Entries()
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = EntryDTO{
			ID:     e.ID,
			Date:   e.Date.Format("2006-01-02T15:04:05Z07:00"),
			Amount: e.Amount.String(),
			Status: string(e.Status),
			Kind:   string(e.Kind),
			Ref:    e.Ref,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id", err)
		return 0, false
	}
	return id, true
}

// engineError maps engine errors onto HTTP statuses.
func (h *Handler) engineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shop.ErrInsufficientStock),
		errors.Is(err, shop.ErrInsufficientFunds):
		writeError(w, http.StatusUnprocessableEntity, "not enough resources", err)
	case errors.Is(err, shop.ErrDuplicateBarcode),
		errors.Is(err, shop.ErrDuplicateTag),
		errors.Is(err, shop.ErrNoLocation):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, shop.ErrInvalidID),
		errors.Is(err, shop.ErrInvalidBarcode),
		errors.Is(err, shop.ErrInvalidCard),
		errors.Is(err, shop.ErrInvalidQuantity),
		errors.Is(err, shop.ErrInvalidPrice),
		errors.Is(err, shop.ErrInvalidDiscountRate),
		errors.Is(err, shop.ErrInvalidLocation):
		writeError(w, http.StatusBadRequest, "invalid input", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}

// notDone reports a business-rule failure: the engine declined the
// operation in its current state and changed nothing.
func notDone(w http.ResponseWriter) {
	writeError(w, http.StatusUnprocessableEntity, "operation not permitted in the current state", nil)
}
