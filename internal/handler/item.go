package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ccournoyer/firesale-backend/internal/auth"
	"github.com/ccournoyer/firesale-backend/internal/domain"
	"github.com/ccournoyer/firesale-backend/internal/logging"
	"github.com/ccournoyer/firesale-backend/internal/service"
)

type ItemHandler struct {
	items *service.ItemService
}

func NewItemHandler(items *service.ItemService) *ItemHandler {
	return &ItemHandler{items: items}
}

type itemResponse struct {
	ID          string `json:"id"`
	StoreID     string `json:"store_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	Quantity    int    `json:"quantity"`
	CreatedAt   string `json:"created_at"`
}

func toItemResponse(i domain.Item) itemResponse {
	return itemResponse{
		ID:          i.ID.String(),
		StoreID:     i.StoreID.String(),
		Name:        i.Name,
		Description: i.Description,
		Category:    i.Category,
		Price:       i.Price.String(),
		Quantity:    i.Quantity,
		CreatedAt:   i.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type postItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	Quantity    int    `json:"quantity"`
}

// PostItem lists a new item under the seller's store. The posting fee is
// spent in the same transaction as the insert, so an unpaid fee means no
// listing and an insufficient balance means no listing either.
func (h *ItemHandler) PostItem(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	session, _ := auth.SessionFromContext(r.Context())

	var req postItemRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		RespondValidationError(w, "price must be a non-negative decimal string")
		return
	}

	item, err := h.items.PostItem(r.Context(), session.AccountID, service.PostItemInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       price,
		Quantity:    req.Quantity,
	})
	if err != nil {
		log.Error("item posting failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toItemResponse(*item))
}

func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	id, ok := pathUUID(r, "id")
	if !ok {
		RespondValidationError(w, "id must be a valid UUID")
		return
	}

	item, err := h.items.GetItem(r.Context(), id)
	if err != nil {
		log.Error("item lookup failed", "error", err, "item_id", id)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toItemResponse(*item))
}

// ListStoreItems returns the seller's own listings.
func (h *ItemHandler) ListStoreItems(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	session, _ := auth.SessionFromContext(r.Context())

	items, err := h.items.ListStoreItems(r.Context(), session.AccountID)
	if err != nil {
		log.Error("store item list failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	out := make([]itemResponse, 0, len(items))
	for _, i := range items {
		out = append(out, toItemResponse(i))
	}
	RespondSuccess(w, http.StatusOK, out)
}

func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	items, err := h.items.ListItems(r.Context())
	if err != nil {
		log.Error("item list failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	out := make([]itemResponse, 0, len(items))
	for _, i := range items {
		out = append(out, toItemResponse(i))
	}
	RespondSuccess(w, http.StatusOK, out)
}
