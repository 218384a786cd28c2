package thang

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"thangd/errs"
	"thangd/middleware"
	"thangd/models"
	"thangd/rdx"
	"thangd/utils"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ident, ok := middleware.IdentityFrom(r)
	if !ok {
		utils.RespondWithAppError(w, errs.New(errs.CodeNotLoggedIn, "authentication required"))
		return
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithAppError(w, errs.New(errs.CodeInvalidInput, "invalid JSON"))
		return
	}

	t, err := h.svc.Create(r.Context(), body.Name, ident.UserID)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"thang": t})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if t := rdx.CachedThang(id); t != nil && !t.Deleted {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"thang": t})
		return
	}

	t, err := h.svc.Get(r.Context(), id)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	rdx.CacheThang(t)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"thang": t})
}

func (h *Handler) Mine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ident, ok := middleware.IdentityFrom(r)
	if !ok {
		utils.RespondWithAppError(w, errs.New(errs.CodeNotLoggedIn, "authentication required"))
		return
	}
	thangs, err := h.svc.Mine(r.Context(), ident.UserID)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	if thangs == nil {
		thangs = []models.Thang{}
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"thangs": thangs})
}

// Update applies a partial update; only fields present in the request body
// are touched.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ident, ok := middleware.IdentityFrom(r)
	if !ok {
		utils.RespondWithAppError(w, errs.New(errs.CodeNotLoggedIn, "authentication required"))
		return
	}

	var patch models.ThangPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		utils.RespondWithAppError(w, errs.New(errs.CodeInvalidInput, "invalid JSON"))
		return
	}

	t, err := h.svc.Update(r.Context(), ps.ByName("id"), patch, ident.UserID)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"thang": t})
}

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
