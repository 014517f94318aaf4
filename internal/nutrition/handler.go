package nutrition

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/elitefit-gym/trainer-portal/internal/shared"
	"github.com/elitefit-gym/trainer-portal/internal/view"
)

// SettingsSource resolves the stat-boundary timezone for a trainer.
type SettingsSource interface {
	Timezone(ctx context.Context, trainerID int64) string
}

// Handler wires HTTP endpoints for nutrition plans and meal templates.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	settings  SettingsSource
	validator *validator.Validate
}

// NewHandler constructs a nutrition handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, settings SettingsSource) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		settings:  settings,
		validator: validator.New(),
	}
}

// MountRoutes registers nutrition routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/new", h.showForm)
	r.Post("/", h.handleCreate)
	r.Get("/templates", h.handleTemplates)
	r.Post("/templates", h.handleCreateTemplate)
	r.Post("/templates/{templateID}/delete", h.handleDeleteTemplate)
	r.Get("/{planID}", h.showDetail)
	r.Get("/{planID}/edit", h.showForm)
	r.Post("/{planID}", h.handleUpdate)
	r.Post("/{planID}/archive", h.handleArchive)
}

type planForm struct {
	Title         string `validate:"required,max=160"`
	Goal          string `validate:"required"`
	DailyCalories int    `validate:"required,min=800,max=8000"`
	Notes         string `validate:"max=2000"`
	MemberID      int64  `validate:"required,min=1"`
	StartDate     string
}

type templateForm struct {
	Name         string `validate:"required,max=120"`
	Description  string `validate:"max=1000"`
	MealType     string `validate:"required,oneof=breakfast lunch dinner snack"`
	Calories     int    `validate:"required,min=1"`
	ProteinGrams int    `validate:"min=0"`
	CarbGrams    int    `validate:"min=0"`
	FatGrams     int    `validate:"min=0"`
}

type listPageData struct {
	Plans      []Plan
	Pagination shared.Pagination
	Stats      StatsSnapshot
	Criteria   Criteria
	Goals      []Goal
}

type formPageData struct {
	Plan   *Plan
	Form   planForm
	Goals  []Goal
	Errors map[string]string
}

type detailPageData struct {
	Plan      *Plan
	Adherence float64
	Templates []MealTemplate
}

type templatesPageData struct {
	Templates []MealTemplate
	Form      templateForm
	Errors    map[string]string
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	trainerID := currentTrainerID(sess)

	q := r.URL.Query()
	criteria := Criteria{
		Goal:   Goal(q.Get("goal")),
		Search: q.Get("q"),
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
		Title:       "Nutrition Plans",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data: listPageData{
			Plans:      listPage.Plans,
			Pagination: listPage.Pagination,
			Stats:      stats,
			Criteria:   criteria,
			Goals:      Goals(),
		},
	}
	if err := h.templates.Render(w, "pages/nutrition/list.html", viewData); err != nil {
		h.logger.Error("render nutrition list", slog.Any("error", err))
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
	plan, err := h.service.GetPlan(r.Context(), trainerID, planID)
	if errors.Is(err, shared.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.logger.Error("get nutrition plan", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	adherence, err := h.service.Adherence(r.Context(), plan)
	if err != nil {
		h.logger.Error("plan adherence", slog.Any("error", err))
	}
	mealTemplates, err := h.service.ListTemplates(r.Context(), trainerID)
	if err != nil {
		h.logger.Error("list meal templates", slog.Any("error", err))
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
		Data:        detailPageData{Plan: plan, Adherence: adherence, Templates: mealTemplates},
	}
	if err := h.templates.Render(w, "pages/nutrition/detail.html", viewData); err != nil {
		h.logger.Error("render nutrition detail", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	trainerID := currentTrainerID(sess)

	data := formPageData{Goals: Goals(), Errors: map[string]string{}}
	title := "New Nutrition Plan"
	if planParam := chi.URLParam(r, "planID"); planParam != "" {
		planID, err := strconv.ParseInt(planParam, 10, 64)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		plan, err := h.service.GetPlan(r.Context(), trainerID, planID)
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			h.logger.Error("get nutrition plan", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		data.Plan = plan
		data.Form = planForm{
			Title:         plan.Title,
			Goal:          string(plan.Goal),
			DailyCalories: plan.DailyCalories,
			Notes:         plan.Notes,
			MemberID:      plan.MemberID,
			StartDate:     plan.StartDate.Format("2006-01-02"),
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

	form, input, fieldErrors := h.parseForm(r, trainerID)
	if len(fieldErrors) > 0 {
		h.renderForm(w, r, "New Nutrition Plan", formPageData{Form: form, Goals: Goals(), Errors: fieldErrors}, http.StatusBadRequest)
		return
	}

	plan, err := h.service.CreatePlan(r.Context(), input)
	if errors.Is(err, ErrInvalidGoalCategory) {
		fieldErrors["Goal"] = "Choose a valid goal"
		h.renderForm(w, r, "New Nutrition Plan", formPageData{Form: form, Goals: Goals(), Errors: fieldErrors}, http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error("create nutrition plan", slog.Any("error", err))
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Could not create the plan"})
		}
		http.Redirect(w, r, "/nutrition", http.StatusSeeOther)
		return
	}

	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Plan created"})
	}
	http.Redirect(w, r, "/nutrition/"+strconv.FormatInt(plan.ID, 10), http.StatusSeeOther)
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

	form, input, fieldErrors := h.parseForm(r, trainerID)
	if len(fieldErrors) > 0 {
		h.renderForm(w, r, "Edit Nutrition Plan", formPageData{Form: form, Goals: Goals(), Errors: fieldErrors}, http.StatusBadRequest)
		return
	}

	switch err := h.service.UpdatePlan(r.Context(), trainerID, planID, input); {
	case errors.Is(err, shared.ErrNotFound):
		http.NotFound(w, r)
		return
	case errors.Is(err, ErrInvalidGoalCategory):
		fieldErrors["Goal"] = "Choose a valid goal"
		h.renderForm(w, r, "Edit Nutrition Plan", formPageData{Form: form, Goals: Goals(), Errors: fieldErrors}, http.StatusBadRequest)
		return
	case err != nil:
		h.logger.Error("update nutrition plan", slog.Any("error", err))
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Could not update the plan"})
		}
		http.Redirect(w, r, "/nutrition", http.StatusSeeOther)
		return
	}

	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Plan updated"})
	}
	http.Redirect(w, r, "/nutrition/"+strconv.FormatInt(planID, 10), http.StatusSeeOther)
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
		h.logger.Error("archive nutrition plan", slog.Any("error", err))
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Could not archive the plan"})
		}
	default:
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Plan archived"})
		}
	}
	http.Redirect(w, r, "/nutrition", http.StatusSeeOther)
}

func (h *Handler) handleTemplates(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	trainerID := currentTrainerID(sess)

	mealTemplates, err := h.service.ListTemplates(r.Context(), trainerID)
	if err != nil {
		h.logger.Error("list meal templates", slog.Any("error", err))
	}

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Meal Templates",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        templatesPageData{Templates: mealTemplates, Errors: map[string]string{}},
	}
	if err := h.templates.Render(w, "pages/nutrition/templates.html", viewData); err != nil {
		h.logger.Error("render meal templates", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	trainerID := currentTrainerID(sess)

	form := templateForm{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
		MealType:    r.PostFormValue("meal_type"),
	}
	form.Calories, _ = strconv.Atoi(r.PostFormValue("calories"))
	form.ProteinGrams, _ = strconv.Atoi(r.PostFormValue("protein_grams"))
	form.CarbGrams, _ = strconv.Atoi(r.PostFormValue("carb_grams"))
	form.FatGrams, _ = strconv.Atoi(r.PostFormValue("fat_grams"))

	fieldErrors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			fieldErrors[fieldErr.Field()] = fieldErr.Error()
		}
	}
	if len(fieldErrors) > 0 {
		mealTemplates, err := h.service.ListTemplates(r.Context(), trainerID)
		if err != nil {
			h.logger.Error("list meal templates", slog.Any("error", err))
		}
		var flash *shared.FlashMessage
		if sess != nil {
			flash = sess.PopFlash()
		}
		viewData := view.TemplateData{
			Title:       "Meal Templates",
			CSRFToken:   csrfToken,
			Flash:       flash,
			CurrentPath: r.URL.Path,
			Data:        templatesPageData{Templates: mealTemplates, Form: form, Errors: fieldErrors},
		}
		w.WriteHeader(http.StatusBadRequest)
		if err := h.templates.Render(w, "pages/nutrition/templates.html", viewData); err != nil {
			h.logger.Error("render meal templates invalid", slog.Any("error", err))
		}
		return
	}

	_, err := h.service.CreateTemplate(r.Context(), TemplateInput{
		TrainerID:    trainerID,
		Name:         form.Name,
		Description:  form.Description,
		MealType:     form.MealType,
		Calories:     form.Calories,
		ProteinGrams: form.ProteinGrams,
		CarbGrams:    form.CarbGrams,
		FatGrams:     form.FatGrams,
	})
	if err != nil {
		h.logger.Error("create meal template", slog.Any("error", err))
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Could not save the template"})
		}
	} else if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Template saved"})
	}
	http.Redirect(w, r, "/nutrition/templates", http.StatusSeeOther)
}

func (h *Handler) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	trainerID := currentTrainerID(sess)

	templateID, err := strconv.ParseInt(chi.URLParam(r, "templateID"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	switch err := h.service.DeleteTemplate(r.Context(), trainerID, templateID); {
	case errors.Is(err, shared.ErrNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		h.logger.Error("delete meal template", slog.Any("error", err))
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Could not delete the template"})
		}
	default:
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Template deleted"})
		}
	}
	http.Redirect(w, r, "/nutrition/templates", http.StatusSeeOther)
}

func (h *Handler) parseForm(r *http.Request, trainerID int64) (planForm, PlanInput, map[string]string) {
	form := planForm{
		Title:     r.PostFormValue("title"),
		Goal:      r.PostFormValue("goal"),
		Notes:     r.PostFormValue("notes"),
		StartDate: r.PostFormValue("start_date"),
	}
	form.DailyCalories, _ = strconv.Atoi(r.PostFormValue("daily_calories"))
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

	input := PlanInput{
		TrainerID:     trainerID,
		MemberID:      form.MemberID,
		Title:         form.Title,
		Goal:          Goal(form.Goal),
		DailyCalories: form.DailyCalories,
		Notes:         form.Notes,
	}
	if form.StartDate != "" {
		start, err := time.Parse("2006-01-02", form.StartDate)
		if err != nil {
			fieldErrors["StartDate"] = "Use the YYYY-MM-DD format"
		} else {
			input.StartDate = start
		}
	}
	return form, input, fieldErrors
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, title string, data formPageData, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)

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
	if err := h.templates.Render(w, "pages/nutrition/form.html", viewData); err != nil {
		h.logger.Error("render nutrition form", slog.Any("error", err))
	}
}

func currentTrainerID(sess *shared.Session) int64 {
	if sess == nil {
		return 0
	}
	id, _ := strconv.ParseInt(sess.User(), 10, 64)
	return id
}
