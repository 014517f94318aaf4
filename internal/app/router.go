package app

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/elitefit-gym/trainer-portal/internal/activity"
	"github.com/elitefit-gym/trainer-portal/internal/auth"
	"github.com/elitefit-gym/trainer-portal/internal/nutrition"
	"github.com/elitefit-gym/trainer-portal/internal/observability"
	"github.com/elitefit-gym/trainer-portal/internal/profile"
	"github.com/elitefit-gym/trainer-portal/internal/roster"
	"github.com/elitefit-gym/trainer-portal/internal/shared"
	"github.com/elitefit-gym/trainer-portal/internal/view"
	"github.com/elitefit-gym/trainer-portal/internal/workouts"
	"github.com/elitefit-gym/trainer-portal/jobs"
	"github.com/elitefit-gym/trainer-portal/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler      *auth.Handler
	RosterHandler    *roster.Handler
	WorkoutsHandler  *workouts.Handler
	NutritionHandler *nutrition.Handler
	ActivityHandler  *activity.Handler
	ProfileHandler   *profile.Handler

	ActivityService  *activity.Service
	WorkoutsService  *workouts.Service
	NutritionService *nutrition.Service
	ProfileService   *profile.Service

	JobHandler *jobs.Handler
	Metrics    *observability.Metrics
}

type dashboardData struct {
	Activity  activity.StatsSnapshot
	Workouts  workouts.StatsSnapshot
	Nutrition nutrition.StatsSnapshot
}

// NewRouter constructs the chi.Router for the trainer portal.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
			return
		}
		trainerID, _ := strconv.ParseInt(sess.User(), 10, 64)
		tz := params.Config.DefaultTimezone
		if params.ProfileService != nil {
			tz = params.ProfileService.Timezone(r.Context(), trainerID)
		}

		data := dashboardData{}
		if params.ActivityService != nil {
			data.Activity = params.ActivityService.Stats(r.Context(), trainerID, tz)
		}
		if params.WorkoutsService != nil {
			data.Workouts = params.WorkoutsService.Stats(r.Context(), trainerID, tz)
		}
		if params.NutritionService != nil {
			data.Nutrition = params.NutritionService.Stats(r.Context(), trainerID, tz)
		}

		csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)
		viewData := view.TemplateData{
			Title:       "Dashboard",
			CSRFToken:   csrfToken,
			Flash:       sess.PopFlash(),
			CurrentPath: r.URL.Path,
			Data:        data,
		}
		if err := params.Templates.Render(w, "pages/dashboard.html", viewData); err != nil {
			params.Logger.Error("render dashboard", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth)
		r.Route("/roster", params.RosterHandler.MountRoutes)
		r.Route("/workouts", params.WorkoutsHandler.MountRoutes)
		r.Route("/nutrition", params.NutritionHandler.MountRoutes)
		r.Route("/activity", params.ActivityHandler.MountRoutes)
		r.Route("/profile", params.ProfileHandler.MountRoutes)
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers so
// browsers keep assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}

// RosterMemberSource adapts the roster service to the workouts plan form.
type RosterMemberSource struct {
	Service *roster.Service
}

// AssignedOptions lists the trainer's roster as select options.
func (s RosterMemberSource) AssignedOptions(ctx context.Context, trainerID int64) ([]workouts.MemberOption, error) {
	members, err := s.Service.AssignedOptions(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	options := make([]workouts.MemberOption, len(members))
	for i, member := range members {
		options[i] = workouts.MemberOption{ID: member.ID, Name: member.Name}
	}
	return options, nil
}
