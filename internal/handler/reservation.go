package handler

import (
	"net/http"
	"time"

	"github.com/ccournoyer/firesale-backend/internal/auth"
	"github.com/ccournoyer/firesale-backend/internal/domain"
	"github.com/ccournoyer/firesale-backend/internal/logging"
	"github.com/ccournoyer/firesale-backend/internal/service"
)

type ReservationHandler struct {
	reservations *service.ReservationService
	purchases    *service.PurchaseService
	sweeper      *service.Sweeper
}

func NewReservationHandler(reservations *service.ReservationService, purchases *service.PurchaseService, sweeper *service.Sweeper) *ReservationHandler {
	return &ReservationHandler{reservations: reservations, purchases: purchases, sweeper: sweeper}
}

type reservationResponse struct {
	ID         string `json:"id"`
	ItemID     string `json:"item_id"`
	AccountID  string `json:"account_id"`
	StoreID    string `json:"store_id"`
	Status     string `json:"status"`
	Quantity   int    `json:"quantity"`
	PickupCode string `json:"pickup_code"`
	CreatedAt  string `json:"created_at"`
	ExpiresAt  string `json:"expires_at"`
}

func toReservationResponse(res domain.Reservation) reservationResponse {
	return reservationResponse{
		ID:         res.ID.String(),
		ItemID:     res.ItemID.String(),
		AccountID:  res.AccountID.String(),
		StoreID:    res.StoreID.String(),
		Status:     string(res.Status),
		Quantity:   res.Quantity,
		PickupCode: res.PickupCode,
		CreatedAt:  res.CreatedAt.UTC().Format(time.RFC3339),
		ExpiresAt:  res.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

type reserveRequest struct {
	ItemID string `json:"item_id"`
}

// Reserve places a hold on one unit of an item for the caller. The
// reservation fee is spent and the hold created atomically.
func (h *ReservationHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	session, _ := auth.SessionFromContext(r.Context())

	var req reserveRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	itemID, ok := parseUUID(req.ItemID)
	if !ok {
		RespondValidationError(w, "item_id must be a valid UUID")
		return
	}

	res, err := h.reservations.Reserve(r.Context(), session.AccountID, itemID)
	if err != nil {
		log.Error("reservation failed", "error", err, "item_id", itemID)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toReservationResponse(*res))
}

func (h *ReservationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, domain.ReservationStatusAccepted)
}

func (h *ReservationHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, domain.ReservationStatusDeclined)
}

func (h *ReservationHandler) resolve(w http.ResponseWriter, r *http.Request, target domain.ReservationStatus) {
	log := logging.FromContext(r.Context())
	session, _ := auth.SessionFromContext(r.Context())

	id, ok := pathUUID(r, "id")
	if !ok {
		RespondValidationError(w, "id must be a valid UUID")
		return
	}

	var (
		res *domain.Reservation
		err error
	)
	if target == domain.ReservationStatusAccepted {
		res, err = h.reservations.Accept(r.Context(), session.AccountID, id)
	} else {
		res, err = h.reservations.Decline(r.Context(), session.AccountID, id)
	}
	if err != nil {
		log.Error("reservation resolution failed", "error", err, "reservation_id", id, "target", target)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toReservationResponse(*res))
}

// Cancel removes the caller's own pending reservation. The fee stays spent.
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	session, _ := auth.SessionFromContext(r.Context())

	id, ok := pathUUID(r, "id")
	if !ok {
		RespondValidationError(w, "id must be a valid UUID")
		return
	}

	if err := h.reservations.Cancel(r.Context(), session.AccountID, id); err != nil {
		log.Error("reservation cancel failed", "error", err, "reservation_id", id)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *ReservationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	session, _ := auth.SessionFromContext(r.Context())

	reservations, err := h.reservations.ListByAccount(r.Context(), session.AccountID)
	if err != nil {
		log.Error("reservation list failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	out := make([]reservationResponse, 0, len(reservations))
	for _, res := range reservations {
		out = append(out, toReservationResponse(res))
	}
	RespondSuccess(w, http.StatusOK, out)
}

// ListStore returns reservations against the seller's own store, optionally
// filtered by ?status=pending|accepted|declined.
func (h *ReservationHandler) ListStore(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	session, _ := auth.SessionFromContext(r.Context())

	status := domain.ReservationStatus(r.URL.Query().Get("status"))
	if status != "" && !status.IsValid() {
		RespondValidationError(w, "status must be pending, accepted or declined")
		return
	}

	reservations, err := h.reservations.ListByStore(r.Context(), session.AccountID, status)
	if err != nil {
		log.Error("store reservation list failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	out := make([]reservationResponse, 0, len(reservations))
	for _, res := range reservations {
		out = append(out, toReservationResponse(res))
	}
	RespondSuccess(w, http.StatusOK, out)
}

type cartLineResponse struct {
	Item        itemResponse        `json:"item"`
	Reservation reservationResponse `json:"reservation"`
	ReservedAt  string              `json:"reserved_at"`
}

// Cart sweeps the caller's expired holds first, then returns what is left.
// The view a buyer sees is therefore never staler than their own request.
func (h *ReservationHandler) Cart(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	session, _ := auth.SessionFromContext(r.Context())

	if _, err := h.sweeper.Sweep(r.Context(), session.AccountID); err != nil {
		log.Error("cart sweep failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	lines, err := h.reservations.Cart(r.Context(), session.AccountID)
	if err != nil {
		log.Error("cart read failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	out := make([]cartLineResponse, 0, len(lines))
	for _, line := range lines {
		out = append(out, cartLineResponse{
			Item:        toItemResponse(line.Item),
			Reservation: toReservationResponse(line.Reservation),
			ReservedAt:  line.Entry.ReservedAt.UTC().Format(time.RFC3339),
		})
	}
	RespondSuccess(w, http.StatusOK, out)
}

type purchaseResponse struct {
	ID        string `json:"id"`
	ItemID    string `json:"item_id"`
	StoreID   string `json:"store_id"`
	Quantity  int    `json:"quantity"`
	CreatedAt string `json:"created_at"`
	PickupBy  string `json:"pickup_by"`
}

func toPurchaseResponse(p domain.Purchase) purchaseResponse {
	return purchaseResponse{
		ID:        p.ID.String(),
		ItemID:    p.ItemID.String(),
		StoreID:   p.StoreID.String(),
		Quantity:  p.Quantity,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
		PickupBy:  p.PickupBy.UTC().Format(time.RFC3339),
	}
}

// Purchase converts the caller's accepted reservation into a purchase,
// decrementing the item's stock.
func (h *ReservationHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	session, _ := auth.SessionFromContext(r.Context())

	id, ok := pathUUID(r, "id")
	if !ok {
		RespondValidationError(w, "id must be a valid UUID")
		return
	}

	purchase, err := h.purchases.Complete(r.Context(), session.AccountID, id)
	if err != nil {
		log.Error("purchase failed", "error", err, "reservation_id", id)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toPurchaseResponse(*purchase))
}

func (h *ReservationHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	session, _ := auth.SessionFromContext(r.Context())

	purchases, err := h.purchases.ListByAccount(r.Context(), session.AccountID)
	if err != nil {
		log.Error("purchase list failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	out := make([]purchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, toPurchaseResponse(p))
	}
	RespondSuccess(w, http.StatusOK, out)
}
