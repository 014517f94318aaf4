package roster

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/elitefit-gym/trainer-portal/internal/shared"
	"github.com/elitefit-gym/trainer-portal/internal/view"
)

// Handler wires HTTP endpoints for the trainer roster.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler constructs a roster handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

// MountRoutes registers roster routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/assign", h.handleAssign)
	r.Post("/{memberID}/unassign", h.handleUnassign)
	r.Get("/{memberID}", h.showDetail)
}

type listPageData struct {
	Members    []Member
	Pagination shared.Pagination
	Criteria   Criteria
	Available  []Member
}

type detailPageData struct {
	Detail *Detail
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	trainerID := currentTrainerID(sess)

	q := r.URL.Query()
	criteria := Criteria{Search: q.Get("q")}
	page, _ := strconv.Atoi(q.Get("page"))

	listPage := h.service.List(r.Context(), trainerID, criteria, page)

	var available []Member
	if term := q.Get("assign_q"); term != "" {
		found, err := h.service.SearchUnassigned(r.Context(), trainerID, term)
		if err != nil {
			h.logger.Error("search unassigned members", slog.Any("error", err))
		} else {
			available = found
		}
	}

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "My Members",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data: listPageData{
			Members:    listPage.Members,
			Pagination: listPage.Pagination,
			Criteria:   criteria,
			Available:  available,
		},
	}
	if err := h.templates.Render(w, "pages/roster/list.html", viewData); err != nil {
		h.logger.Error("render roster list", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	trainerID := currentTrainerID(sess)

	memberID, err := strconv.ParseInt(r.PostFormValue("member_id"), 10, 64)
	if err != nil || memberID <= 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	switch err := h.service.Assign(r.Context(), trainerID, memberID); {
	case errors.Is(err, ErrAlreadyAssigned):
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "That member is already on your roster"})
		}
	case errors.Is(err, shared.ErrNotFound):
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Member not found"})
		}
	case err != nil:
		h.logger.Error("assign member", slog.Any("error", err))
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Could not assign the member"})
		}
	default:
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Member assigned"})
		}
	}
	http.Redirect(w, r, "/roster", http.StatusSeeOther)
}

func (h *Handler) handleUnassign(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	trainerID := currentTrainerID(sess)

	memberID, err := strconv.ParseInt(chi.URLParam(r, "memberID"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch err := h.service.Unassign(r.Context(), trainerID, memberID); {
	case errors.Is(err, shared.ErrNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		h.logger.Error("unassign member", slog.Any("error", err))
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Could not remove the member"})
		}
	default:
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Member removed from your roster"})
		}
	}
	http.Redirect(w, r, "/roster", http.StatusSeeOther)
}

func (h *Handler) showDetail(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	trainerID := currentTrainerID(sess)

	memberID, err := strconv.ParseInt(chi.URLParam(r, "memberID"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	detail, err := h.service.Detail(r.Context(), trainerID, memberID)
	if errors.Is(err, shared.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.logger.Error("member detail", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       detail.Member.Name,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        detailPageData{Detail: detail},
	}
	if err := h.templates.Render(w, "pages/roster/detail.html", viewData); err != nil {
		h.logger.Error("render member detail", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func currentTrainerID(sess *shared.Session) int64 {
	if sess == nil {
		return 0
	}
	id, _ := strconv.ParseInt(sess.User(), 10, 64)
	return id
}
