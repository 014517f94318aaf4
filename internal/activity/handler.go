package activity

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/elitefit-gym/trainer-portal/internal/shared"
	"github.com/elitefit-gym/trainer-portal/internal/view"
)

// SettingsSource resolves the stat-boundary timezone for a trainer.
type SettingsSource interface {
	Timezone(ctx context.Context, trainerID int64) string
}

// Handler wires HTTP endpoints for the activity log.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	settings  SettingsSource
}

// NewHandler constructs an activity handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, settings SettingsSource) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, settings: settings}
}

// MountRoutes registers activity routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleRecord)
}

type listPageData struct {
	Entries    []Entry
	Pagination shared.Pagination
	Stats      StatsSnapshot
	Criteria   Criteria
	Categories []Category
	Errors     map[string]string
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	trainerID := currentTrainerID(sess)

	q := r.URL.Query()
	criteria := Criteria{
		Category: Category(q.Get("category")),
		Day:      q.Get("day"),
		Search:   q.Get("q"),
	}
	if memberStr := q.Get("member_id"); memberStr != "" {
		if id, err := strconv.ParseInt(memberStr, 10, 64); err == nil {
			criteria.MemberID = id
		}
	}
	page, _ := strconv.Atoi(q.Get("page"))

	listPage := h.service.List(r.Context(), trainerID, criteria, page)
	stats := h.service.Stats(r.Context(), trainerID, h.settings.Timezone(r.Context(), trainerID))

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Activity Log",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data: listPageData{
			Entries:    listPage.Entries,
			Pagination: listPage.Pagination,
			Stats:      stats,
			Criteria:   criteria,
			Categories: Categories(),
			Errors:     map[string]string{},
		},
	}
	if err := h.templates.Render(w, "pages/activity/list.html", viewData); err != nil {
		h.logger.Error("render activity list", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	trainerID := currentTrainerID(sess)

	input := RecordInput{
		TrainerID: trainerID,
		Category:  Category(r.PostFormValue("category")),
		Title:     r.PostFormValue("title"),
		Note:      r.PostFormValue("note"),
	}
	if memberStr := r.PostFormValue("member_id"); memberStr != "" {
		if id, err := strconv.ParseInt(memberStr, 10, 64); err == nil {
			input.MemberID = id
		}
	}
	if kind := r.PostFormValue("related_kind"); kind != "" {
		if relatedID, err := strconv.ParseInt(r.PostFormValue("related_id"), 10, 64); err == nil {
			input.RelatedKind = RelatedKind(kind)
			input.RelatedID = relatedID
		}
	}

	if _, err := h.service.Record(r.Context(), input); err != nil {
		h.logger.Error("record activity", slog.Any("error", err))
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Could not record the activity entry"})
		}
	} else if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Activity recorded"})
	}
	http.Redirect(w, r, "/activity", http.StatusSeeOther)
}

func currentTrainerID(sess *shared.Session) int64 {
	if sess == nil {
		return 0
	}
	id, _ := strconv.ParseInt(sess.User(), 10, 64)
	return id
}
