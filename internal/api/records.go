package api

import (
	"math"
	"net/http"
	"strconv"

	"github.com/Veraticus/crm-sheets/internal/model"
	"github.com/Veraticus/crm-sheets/internal/service"
	"github.com/go-chi/chi/v5"
)

const (
	maxListLimit   = 500
	maxSearchLimit = 200
	searchDefault  = 50
)

type recordHandler struct {
	store service.Storage
}

type okResponse struct {
	OK bool `json:"ok"`
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, badRequest("id must be an integer")
	}
	return id, nil
}

func paging(r *http.Request) (limit, offset int, err error) {
	if limit, err = queryInt(r, "limit", service.DefaultListLimit, 1, maxListLimit); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(r, "offset", 0, 0, math.MaxInt32); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func searchParams(r *http.Request) (string, int, error) {
	q := r.URL.Query().Get("q")
	if q == "" {
		return "", 0, badRequest("q is required")
	}
	limit, err := queryInt(r, "limit", searchDefault, 1, maxSearchLimit)
	if err != nil {
		return "", 0, err
	}
	return q, limit, nil
}

// respond writes v, or the error when err is set.
func respond(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, v)
}

// withID runs fn with the {id} path parameter.
func withID(w http.ResponseWriter, r *http.Request, fn func(id int64) (any, error)) {
	id, err := pathID(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	v, err := fn(id)
	respond(w, r, v, err)
}

// Clients

func (h *recordHandler) createClient(w http.ResponseWriter, r *http.Request) {
	var client model.Client
	if err := decodeJSON(w, r, &client, false); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	client.ID = 0
	respond(w, r, &client, h.store.CreateClient(r.Context(), &client))
}

func (h *recordHandler) listClients(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := paging(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	clients, err := h.store.ListClients(r.Context(), service.ClientFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	respond(w, r, clients, err)
}

func (h *recordHandler) searchClients(w http.ResponseWriter, r *http.Request) {
	q, limit, err := searchParams(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	clients, err := h.store.SearchClients(r.Context(), q, limit)
	respond(w, r, clients, err)
}

func (h *recordHandler) getClient(w http.ResponseWriter, r *http.Request) {
	withID(w, r, func(id int64) (any, error) {
		return h.store.GetClient(r.Context(), id)
	})
}

func (h *recordHandler) updateClient(w http.ResponseWriter, r *http.Request) {
	withID(w, r, func(id int64) (any, error) {
		var patch model.ClientPatch
		if err := decodeJSON(w, r, &patch, false); err != nil {
			return nil, err
		}
		return h.store.UpdateClient(r.Context(), id, patch)
	})
}

func (h *recordHandler) deleteClient(w http.ResponseWriter, r *http.Request) {
	withID(w, r, func(id int64) (any, error) {
		return okResponse{OK: true}, h.store.DeleteClient(r.Context(), id)
	})
}

func (h *recordHandler) archiveClient(w http.ResponseWriter, r *http.Request) {
	withID(w, r, func(id int64) (any, error) {
		return h.store.ArchiveClient(r.Context(), id)
	})
}

// Deals

func (h *recordHandler) createDeal(w http.ResponseWriter, r *http.Request) {
	var deal model.Deal
	if err := decodeJSON(w, r, &deal, false); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	deal.ID = 0
	respond(w, r, &deal, h.store.CreateDeal(r.Context(), &deal))
}

func (h *recordHandler) listDeals(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := paging(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	clientID, err := queryID(r, "client_id")
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	deals, err := h.store.ListDeals(r.Context(), service.DealFilter{
		ClientID: clientID,
		Status:   r.URL.Query().Get("status"),
		Limit:    limit,
		Offset:   offset,
	})
	respond(w, r, deals, err)
}

func (h *recordHandler) searchDeals(w http.ResponseWriter, r *http.Request) {
	q, limit, err := searchParams(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	deals, err := h.store.SearchDeals(r.Context(), q, limit)
	respond(w, r, deals, err)
}

func (h *recordHandler) getDeal(w http.ResponseWriter, r *http.Request) {
	withID(w, r, func(id int64) (any, error) {
		return h.store.GetDeal(r.Context(), id)
	})
}

func (h *recordHandler) updateDeal(w http.ResponseWriter, r *http.Request) {
	withID(w, r, func(id int64) (any, error) {
		var patch model.DealPatch
		if err := decodeJSON(w, r, &patch, false); err != nil {
			return nil, err
		}
		return h.store.UpdateDeal(r.Context(), id, patch)
	})
}

func (h *recordHandler) deleteDeal(w http.ResponseWriter, r *http.Request) {
	withID(w, r, func(id int64) (any, error) {
		return okResponse{OK: true}, h.store.DeleteDeal(r.Context(), id)
	})
}

// Tasks

func (h *recordHandler) createTask(w http.ResponseWriter, r *http.Request) {
	var task model.Task
	if err := decodeJSON(w, r, &task, false); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	task.ID = 0
	respond(w, r, &task, h.store.CreateTask(r.Context(), &task))
}

func (h *recordHandler) listTasks(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := paging(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	filter := service.TaskFilter{Limit: limit, Offset: offset}
	if filter.ClientID, err = queryID(r, "client_id"); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if filter.DealID, err = queryID(r, "deal_id"); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if filter.Completed, err = queryBool(r, "is_completed"); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	tasks, err := h.store.ListTasks(r.Context(), filter)
	respond(w, r, tasks, err)
}

func (h *recordHandler) searchTasks(w http.ResponseWriter, r *http.Request) {
	q, limit, err := searchParams(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	tasks, err := h.store.SearchTasks(r.Context(), q, limit)
	respond(w, r, tasks, err)
}

func (h *recordHandler) getTask(w http.ResponseWriter, r *http.Request) {
	withID(w, r, func(id int64) (any, error) {
		return h.store.GetTask(r.Context(), id)
	})
}

func (h *recordHandler) updateTask(w http.ResponseWriter, r *http.Request) {
	withID(w, r, func(id int64) (any, error) {
		var patch model.TaskPatch
		if err := decodeJSON(w, r, &patch, false); err != nil {
			return nil, err
		}
		return h.store.UpdateTask(r.Context(), id, patch)
	})
}

func (h *recordHandler) deleteTask(w http.ResponseWriter, r *http.Request) {
	withID(w, r, func(id int64) (any, error) {
		return okResponse{OK: true}, h.store.DeleteTask(r.Context(), id)
	})
}

func (h *recordHandler) completeTask(w http.ResponseWriter, r *http.Request) {
	withID(w, r, func(id int64) (any, error) {
		completed, err := queryBool(r, "completed")
		if err != nil {
			return nil, err
		}
		if completed == nil {
			done := true
			completed = &done
		}
		return h.store.SetTaskCompleted(r.Context(), id, *completed)
	})
}
