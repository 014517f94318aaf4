package profile

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

// PasswordChanger updates the trainer's password after verifying the current
// one.
type PasswordChanger interface {
	ChangePassword(ctx context.Context, trainerID int64, email, current, next string) error
}

// Handler wires HTTP endpoints for the trainer profile and settings pages.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	passwords PasswordChanger
	templates *view.Engine
	csrf      *shared.CSRFManager
	validator *validator.Validate
}

// NewHandler constructs a profile handler.
func NewHandler(logger *slog.Logger, service *Service, passwords PasswordChanger, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		passwords: passwords,
		templates: templates,
		csrf:      csrf,
		validator: validator.New(),
	}
}

// MountRoutes registers profile routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showProfile)
	r.Post("/", h.handleUpdateProfile)
	r.Post("/settings", h.handleSaveSettings)
	r.Post("/password", h.handleChangePassword)
}

type profileForm struct {
	Name      string `validate:"required,max=120"`
	Bio       string `validate:"max=2000"`
	Phone     string `validate:"max=32"`
	Specialty string `validate:"max=120"`
	ImageURL  string `validate:"omitempty,url,max=500"`
}

type passwordForm struct {
	Current string `validate:"required"`
	Next    string `validate:"required,min=8"`
	Confirm string `validate:"required,eqfield=Next"`
}

type profilePageData struct {
	Profile    *Profile
	Settings   Settings
	Form       profileForm
	WeekStarts []string
	Errors     map[string]string
}

func (h *Handler) showProfile(w http.ResponseWriter, r *http.Request) {
	h.renderProfile(w, r, nil, nil, http.StatusOK)
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	trainerID := currentTrainerID(sess)

	form := profileForm{
		Name:      r.PostFormValue("name"),
		Bio:       r.PostFormValue("bio"),
		Phone:     r.PostFormValue("phone"),
		Specialty: r.PostFormValue("specialty"),
		ImageURL:  r.PostFormValue("image_url"),
	}
	fieldErrors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			fieldErrors[fieldErr.Field()] = fieldErr.Error()
		}
	}
	if len(fieldErrors) > 0 {
		h.renderProfile(w, r, &form, fieldErrors, http.StatusBadRequest)
		return
	}

	err := h.service.Update(r.Context(), trainerID, ProfileInput{
		Name:      form.Name,
		Bio:       form.Bio,
		Phone:     form.Phone,
		Specialty: form.Specialty,
		ImageURL:  form.ImageURL,
	})
	if err != nil {
		h.logger.Error("update profile", slog.Any("error", err))
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Could not save your profile"})
		}
	} else if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Profile saved"})
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func (h *Handler) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	trainerID := currentTrainerID(sess)

	settings := Settings{
		Timezone:  r.PostFormValue("timezone"),
		WeekStart: r.PostFormValue("week_start"),
	}
	switch err := h.service.SaveSettings(r.Context(), trainerID, settings); {
	case errors.Is(err, ErrInvalidTimezone):
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Unknown timezone"})
		}
	case errors.Is(err, ErrInvalidWeekStart):
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Week must start on Monday or Sunday"})
		}
	case err != nil:
		h.logger.Error("save settings", slog.Any("error", err))
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Could not save your settings"})
		}
	default:
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Settings saved"})
		}
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	trainerID := currentTrainerID(sess)

	form := passwordForm{
		Current: r.PostFormValue("current_password"),
		Next:    r.PostFormValue("new_password"),
		Confirm: r.PostFormValue("confirm_password"),
	}
	if err := h.validator.Struct(form); err != nil {
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Passwords must match and be at least 8 characters"})
		}
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	prof, err := h.service.Get(r.Context(), trainerID)
	if err != nil {
		h.logger.Error("load profile for password change", slog.Any("error", err))
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	switch err := h.passwords.ChangePassword(r.Context(), trainerID, prof.Email, form.Current, form.Next); {
	case errors.Is(err, shared.ErrInvalidCredentials):
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Current password is incorrect"})
		}
	case err != nil:
		h.logger.Error("change password", slog.Any("error", err))
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Could not change your password"})
		}
	default:
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Password changed"})
		}
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func (h *Handler) renderProfile(w http.ResponseWriter, r *http.Request, form *profileForm, fieldErrors map[string]string, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	trainerID := currentTrainerID(sess)

	prof, err := h.service.Get(r.Context(), trainerID)
	if err != nil {
		h.logger.Error("load profile", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	settings := h.service.Settings(r.Context(), trainerID)

	if form == nil {
		form = &profileForm{
			Name:      prof.Name,
			Bio:       prof.Bio,
			Phone:     prof.Phone,
			Specialty: prof.Specialty,
			ImageURL:  prof.ImageURL,
		}
	}
	if fieldErrors == nil {
		fieldErrors = map[string]string{}
	}

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Profile & Settings",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data: profilePageData{
			Profile:    prof,
			Settings:   settings,
			Form:       *form,
			WeekStarts: WeekStarts(),
			Errors:     fieldErrors,
		},
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, "pages/profile.html", viewData); err != nil {
		h.logger.Error("render profile", slog.Any("error", err))
	}
}

func currentTrainerID(sess *shared.Session) int64 {
	if sess == nil {
		return 0
	}
	id, _ := strconv.ParseInt(sess.User(), 10, 64)
	return id
}
