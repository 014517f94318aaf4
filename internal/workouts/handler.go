package workouts

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/elitefit-gym/trainer-portal/internal/shared"
	"github.com/elitefit-gym/trainer-portal/internal/view"
)

// SettingsSource resolves the stat-boundary timezone for a trainer.
type SettingsSource interface {
	Timezone(ctx context.Context, trainerID int64) string
}

// MemberSource provides the assignable members for the plan forms.
type MemberSource interface {
	AssignedOptions(ctx context.Context, trainerID int64) ([]MemberOption, error)
}

// MemberOption is a member choice rendered in the plan form select.
type MemberOption struct {
	ID   int64
	Name string
}

// Handler wires HTTP endpoints for workout plans.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	settings  SettingsSource
	members   MemberSource
	validator *validator.Validate
}

// NewHandler constructs a workouts handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, settings SettingsSource, members MemberSource) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		settings:  settings,
		members:   members,
		validator: validator.New(),
	}
}

// MountRoutes registers workout plan routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/new", h.showForm)
	r.Post("/", h.handleCreate)
	r.Get("/{planID}", h.showDetail)
	r.Get("/{planID}/edit", h.showForm)
	r.Post("/{planID}", h.handleUpdate)
	r.Post("/{planID}/archive", h.handleArchive)
}

type planForm struct {
	Title       string `validate:"required,max=160"`
	Description string `validate:"max=2000"`
	Category    string `validate:"required"`
	MemberID    int64
}

type listPageData struct {
	Plans      []Plan
	Pagination shared.Pagination
	Stats      StatsSnapshot
	Criteria   Criteria
	Categories []Category
}

type formPageData struct {
	Plan       *Plan
	Form       planForm
	Exercises  []Exercise
	Categories []Category
	Members    []MemberOption
	Errors     map[string]string
}

type detailPageData struct {
	Plan      *Plan
	Exercises []Exercise
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	trainerID := currentTrainerID(sess)

	q := r.URL.Query()
	criteria := Criteria{
		Category: Category(q.Get("category")),
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
		Title:       "Workout Plans",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data: listPageData{
			Plans:      listPage.Plans,
			Pagination: listPage.Pagination,
			Stats:      stats,
			Criteria:   criteria,
			Categories: Categories(),
		},
	}
	if err := h.templates.Render(w, "pages/workouts/list.html", viewData); err != nil {
		h.logger.Error("render workout list", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) showDetail(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	trainerID := currentTrainerID(sess)

	planID, err := strconv.ParseInt(chi.URLParam(r, "planID"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	plan, exercises, err := h.service.GetPlan(r.Context(), trainerID, planID)
	if errors.Is(err, shared.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.logger.Error("get workout plan", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       plan.Title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        detailPageData{Plan: plan, Exercises: exercises},
	}
	if err := h.templates.Render(w, "pages/workouts/detail.html", viewData); err != nil {
		h.logger.Error("render workout detail", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	trainerID := currentTrainerID(sess)

	data := formPageData{Categories: Categories(), Errors: map[string]string{}}
	title := "New Workout Plan"
	if planParam := chi.URLParam(r, "planID"); planParam != "" {
		planID, err := strconv.ParseInt(planParam, 10, 64)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		plan, exercises, err := h.service.GetPlan(r.Context(), trainerID, planID)
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			h.logger.Error("get workout plan", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		data.Plan = plan
		data.Exercises = exercises
		data.Form = planForm{
			Title:       plan.Title,
			Description: plan.Description,
			Category:    string(plan.Category),
			MemberID:    plan.MemberID,
		}
		title = "Edit " + plan.Title
	}
	h.renderForm(w, r, title, data, http.StatusOK)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	trainerID := currentTrainerID(sess)

	form, fieldErrors := h.parseForm(r)
	if len(fieldErrors) > 0 {
		h.renderForm(w, r, "New Workout Plan", formPageData{
			Form: form, Categories: Categories(), Errors: fieldErrors,
		}, http.StatusBadRequest)
		return
	}

	plan, err := h.service.CreatePlan(r.Context(), PlanInput{
		TrainerID:   trainerID,
		MemberID:    form.MemberID,
		Title:       form.Title,
		Description: form.Description,
		Category:    Category(form.Category),
	})
	if errors.Is(err, ErrInvalidCategory) {
		fieldErrors["Category"] = "Choose a valid category"
		h.renderForm(w, r, "New Workout Plan", formPageData{
			Form: form, Categories: Categories(), Errors: fieldErrors,
		}, http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("create workout plan", slog.Any("error", err))
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Could not create the plan"})
		}
		http.Redirect(w, r, "/workouts", http.StatusSeeOther)
		return
	}

	if exercises := parseExercises(r); len(exercises) > 0 {
		if err := h.service.SetExercises(r.Context(), trainerID, plan.ID, exercises); err != nil {
			h.logger.Error("set plan exercises", slog.Any("error", err))
		}
	}

	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Plan created"})
	}
	http.Redirect(w, r, "/workouts/"+strconv.FormatInt(plan.ID, 10), http.StatusSeeOther)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	trainerID := currentTrainerID(sess)

	planID, err := strconv.ParseInt(chi.URLParam(r, "planID"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	form, fieldErrors := h.parseForm(r)
	if len(fieldErrors) > 0 {
		h.renderForm(w, r, "Edit Workout Plan", formPageData{
			Form: form, Categories: Categories(), Errors: fieldErrors,
		}, http.StatusBadRequest)
		return
	}

	err = h.service.UpdatePlan(r.Context(), trainerID, planID, PlanInput{
		TrainerID:   trainerID,
		MemberID:    form.MemberID,
		Title:       form.Title,
		Description: form.Description,
		Category:    Category(form.Category),
	})
	switch {
	case errors.Is(err, shared.ErrNotFound):
		http.NotFound(w, r)
		return
	case errors.Is(err, ErrInvalidCategory):
		fieldErrors["Category"] = "Choose a valid category"
		h.renderForm(w, r, "Edit Workout Plan", formPageData{
			Form: form, Categories: Categories(), Errors: fieldErrors,
		}, http.StatusBadRequest)
		return
	case err != nil:
		h.logger.Error("update workout plan", slog.Any("error", err))
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Could not update the plan"})
		}
		http.Redirect(w, r, "/workouts", http.StatusSeeOther)
		return
	}

	if err := h.service.SetExercises(r.Context(), trainerID, planID, parseExercises(r)); err != nil {
		h.logger.Error("set plan exercises", slog.Any("error", err))
	}

	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Plan updated"})
	}
	http.Redirect(w, r, "/workouts/"+strconv.FormatInt(planID, 10), http.StatusSeeOther)
}

func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	trainerID := currentTrainerID(sess)

	planID, err := strconv.ParseInt(chi.URLParam(r, "planID"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	switch err := h.service.ArchivePlan(r.Context(), trainerID, planID); {
	case errors.Is(err, shared.ErrNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		h.logger.Error("archive workout plan", slog.Any("error", err))
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Could not archive the plan"})
		}
	default:
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Plan archived"})
		}
	}
	http.Redirect(w, r, "/workouts", http.StatusSeeOther)
}

func (h *Handler) parseForm(r *http.Request) (planForm, map[string]string) {
	form := planForm{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
		Category:    r.PostFormValue("category"),
	}
	if memberStr := r.PostFormValue("member_id"); memberStr != "" {
		if id, err := strconv.ParseInt(memberStr, 10, 64); err == nil {
			form.MemberID = id
		}
	}
	fieldErrors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			fieldErrors[fieldErr.Field()] = fieldErr.Error()
		}
	}
	return form, fieldErrors
}

// parseExercises reads the indexed exercise fields posted by the plan form.
// Rows stop at the first missing name.
func parseExercises(r *http.Request) []Exercise {
	var exercises []Exercise
	for i := 0; ; i++ {
		prefix := "exercise_" + strconv.Itoa(i) + "_"
		name := r.PostFormValue(prefix + "name")
		if name == "" {
			break
		}
		sets, _ := strconv.Atoi(r.PostFormValue(prefix + "sets"))
		reps, _ := strconv.Atoi(r.PostFormValue(prefix + "reps"))
		rest, _ := strconv.Atoi(r.PostFormValue(prefix + "rest_secs"))
		exercises = append(exercises, Exercise{Name: name, Sets: sets, Reps: reps, RestSecs: rest})
	}
	return exercises
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, title string, data formPageData, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	trainerID := currentTrainerID(sess)

	if h.members != nil {
		options, err := h.members.AssignedOptions(r.Context(), trainerID)
		if err != nil {
			h.logger.Warn("load member options", slog.Any("error", err))
		} else {
			data.Members = options
		}
	}
	if data.Errors == nil {
		data.Errors = map[string]string{}
	}

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, "pages/workouts/form.html", viewData); err != nil {
		h.logger.Error("render workout form", slog.Any("error", err))
	}
}

func currentTrainerID(sess *shared.Session) int64 {
	if sess == nil {
		return 0
	}
	id, _ := strconv.ParseInt(sess.User(), 10, 64)
	return id
}
