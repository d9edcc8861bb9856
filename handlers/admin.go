package handlers

import (
	"context"
	"net/http"

	"streamvault/services"
)

// list writes whatever load returns as a 200.
func list[T any](w http.ResponseWriter, r *http.Request, load func(context.Context) (T, error)) {
	v, err := load(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// create decodes an In, passes it to save and answers 201 with the new id.
func create[In any](w http.ResponseWriter, r *http.Request, save func(context.Context, In) (string, error)) {
	var in In
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := save(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created{ID: id})
}

// update decodes an In and passes it to save along with the {id} route
// parameter.
func update[In any](w http.ResponseWriter, r *http.Request, save func(context.Context, string, In) error) {
	var in In
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	noContent(w, r, save(r.Context(), param(r, "id"), in))
}

func noContent(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	list(w, r, h.Admin.Dashboard)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	create(w, r, func(ctx context.Context, in services.RegisterInput) (string, error) {
		login, err := h.Auth.CreateEmployee(ctx, in)
		if err != nil {
			return "", err
		}
		return login.LoginID, nil
	})
}

func (h *Handler) ListSeries(w http.ResponseWriter, r *http.Request) {
	list(w, r, h.Admin.ListSeries)
}

func (h *Handler) CreateSeries(w http.ResponseWriter, r *http.Request) {
	create(w, r, h.Admin.CreateSeries)
}

func (h *Handler) UpdateSeries(w http.ResponseWriter, r *http.Request) {
	update(w, r, h.Admin.UpdateSeries)
}

func (h *Handler) DeleteSeries(w http.ResponseWriter, r *http.Request) {
	noContent(w, r, h.Admin.DeleteSeries(r.Context(), param(r, "id")))
}

func (h *Handler) ListEpisodes(w http.ResponseWriter, r *http.Request) {
	wsID := param(r, "id")
	list(w, r, func(ctx context.Context) (any, error) { return h.Admin.ListEpisodes(ctx, wsID) })
}

func (h *Handler) CreateEpisode(w http.ResponseWriter, r *http.Request) {
	wsID := param(r, "id")
	create(w, r, func(ctx context.Context, in services.EpisodeInput) (string, error) {
		return h.Admin.CreateEpisode(ctx, wsID, in)
	})
}

func (h *Handler) UpdateEpisode(w http.ResponseWriter, r *http.Request) {
	update(w, r, h.Admin.UpdateEpisode)
}

func (h *Handler) DeleteEpisode(w http.ResponseWriter, r *http.Request) {
	noContent(w, r, h.Admin.DeleteEpisode(r.Context(), param(r, "id")))
}

func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	epID := param(r, "id")
	list(w, r, func(ctx context.Context) (any, error) { return h.Admin.ListSchedules(ctx, epID) })
}

func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	epID := param(r, "id")
	create(w, r, func(ctx context.Context, in services.ScheduleInput) (string, error) {
		return h.Admin.CreateSchedule(ctx, epID, in)
	})
}

func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	noContent(w, r, h.Admin.DeleteSchedule(r.Context(), param(r, "id")))
}

func (h *Handler) ListProductionHouses(w http.ResponseWriter, r *http.Request) {
	list(w, r, h.Admin.ListProductionHouses)
}

func (h *Handler) CreateProductionHouse(w http.ResponseWriter, r *http.Request) {
	create(w, r, h.Admin.CreateProductionHouse)
}

func (h *Handler) UpdateProductionHouse(w http.ResponseWriter, r *http.Request) {
	update(w, r, h.Admin.UpdateProductionHouse)
}

func (h *Handler) DeleteProductionHouse(w http.ResponseWriter, r *http.Request) {
	noContent(w, r, h.Admin.DeleteProductionHouse(r.Context(), param(r, "id")))
}

func (h *Handler) ListProducers(w http.ResponseWriter, r *http.Request) {
	list(w, r, h.Admin.ListProducers)
}

func (h *Handler) CreateProducer(w http.ResponseWriter, r *http.Request) {
	create(w, r, h.Admin.CreateProducer)
}

func (h *Handler) UpdateProducer(w http.ResponseWriter, r *http.Request) {
	update(w, r, h.Admin.UpdateProducer)
}

func (h *Handler) DeleteProducer(w http.ResponseWriter, r *http.Request) {
	noContent(w, r, h.Admin.DeleteProducer(r.Context(), param(r, "id")))
}

func (h *Handler) ListAssociations(w http.ResponseWriter, r *http.Request) {
	list(w, r, h.Admin.ListAssociations)
}

func (h *Handler) CreateAssociation(w http.ResponseWriter, r *http.Request) {
	create(w, r, func(ctx context.Context, in services.AssociationInput) (string, error) {
		if err := h.Admin.CreateAssociation(ctx, in); err != nil {
			return "", err
		}
		return in.ProducerID + "/" + in.PhID, nil
	})
}

func (h *Handler) DeleteAssociation(w http.ResponseWriter, r *http.Request) {
	noContent(w, r, h.Admin.DeleteAssociation(r.Context(), param(r, "producerID"), param(r, "phID")))
}

func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
	list(w, r, h.Admin.ListContracts)
}

func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	create(w, r, h.Admin.CreateContract)
}

func (h *Handler) UpdateContract(w http.ResponseWriter, r *http.Request) {
	update(w, r, h.Admin.UpdateContract)
}

func (h *Handler) DeleteContract(w http.ResponseWriter, r *http.Request) {
	noContent(w, r, h.Admin.DeleteContract(r.Context(), param(r, "id")))
}
