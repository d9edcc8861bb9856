package handlers

import (
	"net/http"

	"streamvault/models"
	"streamvault/services"
)

func (h *Handler) BrowseSeries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.Catalog.Browse(r.Context(), services.BrowseFilter{
		TypeID:    q.Get("type"),
		Language:  q.Get("language"),
		CountryID: q.Get("country"),
		Search:    q.Get("q"),
		Page:      queryInt(r, "page", 1),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) SeriesDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Catalog.Detail(r.Context(), param(r, "id"), currentUser(r).AccountID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) Lookups(w http.ResponseWriter, r *http.Request) {
	lookups, err := h.Catalog.Lookups(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lookups)
}

func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var in services.FeedbackInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Feedback.Submit(r.Context(), currentUser(r).AccountID, param(r, "id"), in); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Thank you for your feedback!"})
}

func (h *Handler) DeleteFeedback(w http.ResponseWriter, r *http.Request) {
	if err := h.Feedback.Delete(r.Context(), currentUser(r).AccountID, param(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type myAccount struct {
	Profile  *models.Account   `json:"profile"`
	Feedback []models.Feedback `json:"feedback"`
}

func (h *Handler) MyAccount(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	profile, err := h.Accounts.Profile(r.Context(), user.AccountID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	history, err := h.Feedback.History(r.Context(), user.AccountID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, myAccount{Profile: profile, Feedback: history})
}

func (h *Handler) UpdateMyAccount(w http.ResponseWriter, r *http.Request) {
	var in services.AccountUpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Accounts.Update(r.Context(), currentUser(r).AccountID, in); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
