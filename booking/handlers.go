package booking

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"thangd/errs"
	"thangd/middleware"
	"thangd/models"
	"thangd/utils"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Create admits a booking request. Both preconditions wrap the pipeline:
// the caller must be authenticated and have a verified email.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ident, ok := middleware.IdentityFrom(r)
	if !ok {
		utils.RespondWithAppError(w, errs.New(errs.CodeNotLoggedIn, "authentication required"))
		return
	}
	if !ident.EmailVerified {
		utils.RespondWithAppError(w, errs.New(errs.CodeEmailNotVerified, "verify your email first"))
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithAppError(w, errs.New(errs.CodeInvalidInput, "invalid JSON"))
		return
	}
	req.UserID = ident.UserID

	b, err := h.svc.Create(r.Context(), req)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"booking": b})
}

// Delete soft-deletes a booking; idempotent, reports documents affected.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ident, ok := middleware.IdentityFrom(r)
	if !ok {
		utils.RespondWithAppError(w, errs.New(errs.CodeNotLoggedIn, "authentication required"))
		return
	}

	n, err := h.svc.Delete(r.Context(), ps.ByName("id"), ident.UserID)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"deleted": n})
}

// List returns a thang's bookings intersecting the from/to query instants.
func (h *Handler) List(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	from := queryInt(r, "from", 0)
	to := queryInt(r, "to", int64(1)<<62)
	bookings, err := h.svc.List(r.Context(), ps.ByName("id"), from, to)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"bookings": bookings})
}

func queryInt(r *http.Request, key string, def int64) int64 {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}
