package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/heartmarshall/presence-dashboard/internal/domain"
	"github.com/heartmarshall/presence-dashboard/internal/service/dashboard"
	"github.com/heartmarshall/presence-dashboard/pkg/ctxutil"
)

// dashboards resolves the page controller of a bearer token.
type dashboards interface {
	Get(ctx context.Context, token string) (*dashboard.Dashboard, error)
	Drop(token string)
}

// DashboardHandler serves the dashboard REST endpoints. Every response
// carries the visible notifications so the client can render them.
type DashboardHandler struct {
	dashboards dashboards
	maxUpload  int64
	log        *slog.Logger
}

// NewDashboardHandler creates a DashboardHandler. maxUpload bounds the
// multipart body of upload requests.
func NewDashboardHandler(d dashboards, maxUpload int64, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboards: d,
		maxUpload:  maxUpload,
		log:        logger.With("handler", "dashboard"),
	}
}

type envelope struct {
	Data          any                   `json:"data,omitempty"`
	Notifications []domain.Notification `json:"notifications"`
}

type stateResponse struct {
	Domain domain.Domain   `json:"domain"`
	State  dashboard.State `json:"state"`
}

type fieldResponse struct {
	Handled bool `json:"handled"`
}

type commitRequest struct {
	Text string `json:"text"`
}

type valueRequest struct {
	Value string `json:"value"`
}

type keyRequest struct {
	Key   string `json:"key"`
	Shift bool   `json:"shift"`
	Text  string `json:"text"`
}

type platformRequest struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

type colorResponse struct {
	Index int               `json:"index"`
	Color domain.BrandColor `json:"color"`
}

type logoResponse struct {
	Kind string `json:"kind"`
	URL  string `json:"url"`
}

// dashboardFunc is a handler body bound to the caller's dashboard.
type dashboardFunc func(w http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) (any, error)

// with resolves the dashboard for the request token and runs fn. Errors are
// mapped with statusFor; a relation-missing failure still answers 200.
func (h *DashboardHandler) with(status int, fn dashboardFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := h.dashboards.Get(r.Context(), ctxutil.TokenFromCtx(r.Context()))
		if err != nil {
			h.fail(w, r, nil, err)
			return
		}

		data, err := fn(w, r, d)
		if err != nil {
			h.fail(w, r, d, err)
			return
		}
		if status == http.StatusNoContent {
			w.WriteHeader(status)
			return
		}
		writeJSON(w, status, envelope{Data: data, Notifications: d.Notifications()})
	}
}

func (h *DashboardHandler) fail(w http.ResponseWriter, r *http.Request, d *dashboard.Dashboard, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error(), Class: domain.Classify(err).String()}
	if d != nil {
		resp.Notifications = d.Notifications()
	}

	switch {
	case status == http.StatusOK:
		writeJSON(w, status, envelope{Notifications: resp.Notifications})
		return
	case status >= http.StatusInternalServerError:
		h.log.ErrorContext(r.Context(), "dashboard request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		resp.Error = "upstream error"
	}
	writeJSON(w, status, resp)
}

// Overview handles GET /api/dashboard.
func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	h.with(http.StatusOK, func(_ http.ResponseWriter, _ *http.Request, d *dashboard.Dashboard) (any, error) {
		return d.Summary()
	})(w, r)
}

// SignOut handles POST /api/signout.
func (h *DashboardHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	token := ctxutil.TokenFromCtx(r.Context())
	d, err := h.dashboards.Get(r.Context(), token)
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	if err := d.SignOut(r.Context()); err != nil {
		h.fail(w, r, d, err)
		return
	}
	h.dashboards.Drop(token)
	w.WriteHeader(http.StatusNoContent)
}

// Section handles GET /api/sections/{section}.
func (h *DashboardHandler) Section(w http.ResponseWriter, r *http.Request) {
	h.with(http.StatusOK, func(_ http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) (any, error) {
		return d.ShowSection(r.Context(), chi.URLParam(r, "section"))
	})(w, r)
}

// Tab handles GET /api/sections/{section}/tabs/{tab}.
func (h *DashboardHandler) Tab(w http.ResponseWriter, r *http.Request) {
	h.with(http.StatusOK, func(_ http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) (any, error) {
		return d.LoadTab(r.Context(), chi.URLParam(r, "section"), chi.URLParam(r, "tab"))
	})(w, r)
}

// ToggleEdit handles POST /api/domains/{domain}/edit.
func (h *DashboardHandler) ToggleEdit(w http.ResponseWriter, r *http.Request) {
	h.with(http.StatusOK, func(_ http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) (any, error) {
		dom := domain.Domain(chi.URLParam(r, "domain"))
		state, err := d.ToggleEdit(r.Context(), dom)
		if err != nil {
			return nil, err
		}
		return stateResponse{Domain: dom, State: state}, nil
	})(w, r)
}

// Save handles POST /api/domains/{domain}/save.
func (h *DashboardHandler) Save(w http.ResponseWriter, r *http.Request) {
	h.with(http.StatusOK, func(_ http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) (any, error) {
		dom := domain.Domain(chi.URLParam(r, "domain"))
		if err := d.Save(r.Context(), dom); err != nil {
			return nil, err
		}
		e, err := d.Editor(dom)
		if err != nil {
			return nil, err
		}
		return stateResponse{Domain: dom, State: e.State()}, nil
	})(w, r)
}

// ActivateField handles POST /api/fields/{domain}/{field}/activate.
func (h *DashboardHandler) ActivateField(w http.ResponseWriter, r *http.Request) {
	h.with(http.StatusOK, func(_ http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) (any, error) {
		ok, err := d.ActivateField(domain.Domain(chi.URLParam(r, "domain")), chi.URLParam(r, "field"))
		return fieldResponse{Handled: ok}, err
	})(w, r)
}

// CommitField handles POST /api/fields/{domain}/{field}/commit.
func (h *DashboardHandler) CommitField(w http.ResponseWriter, r *http.Request) {
	h.with(http.StatusOK, func(_ http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) (any, error) {
		var req commitRequest
		if err := decode(r, &req); err != nil {
			return nil, err
		}
		ok, err := d.CommitField(domain.Domain(chi.URLParam(r, "domain")), chi.URLParam(r, "field"), req.Text)
		return fieldResponse{Handled: ok}, err
	})(w, r)
}

// KeyField handles POST /api/fields/{domain}/{field}/key.
func (h *DashboardHandler) KeyField(w http.ResponseWriter, r *http.Request) {
	h.with(http.StatusOK, func(_ http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) (any, error) {
		var req keyRequest
		if err := decode(r, &req); err != nil {
			return nil, err
		}
		ok, err := d.KeyField(domain.Domain(chi.URLParam(r, "domain")), chi.URLParam(r, "field"), req.Key, req.Shift, req.Text)
		return fieldResponse{Handled: ok}, err
	})(w, r)
}

// SetFieldValue handles POST /api/fields/{domain}/{field}/value for native
// form controls.
func (h *DashboardHandler) SetFieldValue(w http.ResponseWriter, r *http.Request) {
	h.with(http.StatusOK, func(_ http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) (any, error) {
		var req valueRequest
		if err := decode(r, &req); err != nil {
			return nil, err
		}
		ok, err := d.SetFieldValue(domain.Domain(chi.URLParam(r, "domain")), chi.URLParam(r, "field"), req.Value)
		return fieldResponse{Handled: ok}, err
	})(w, r)
}

// Notifications handles GET /api/notifications.
func (h *DashboardHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	h.with(http.StatusOK, func(http.ResponseWriter, *http.Request, *dashboard.Dashboard) (any, error) {
		return nil, nil
	})(w, r)
}

// DismissNotification handles DELETE /api/notifications/{id}.
func (h *DashboardHandler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	h.with(http.StatusNoContent, func(_ http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) (any, error) {
		id, err := uuidParam(r, "id")
		if err != nil {
			return nil, err
		}
		if !d.Dismiss(id) {
			return nil, domain.ErrNotFound
		}
		return nil, nil
	})(w, r)
}

// Completeness handles GET /api/completeness.
func (h *DashboardHandler) Completeness(w http.ResponseWriter, r *http.Request) {
	h.with(http.StatusOK, func(_ http.ResponseWriter, _ *http.Request, d *dashboard.Dashboard) (any, error) {
		return d.Completeness(), nil
	})(w, r)
}

// AddSocialAccount handles POST /api/social-accounts.
func (h *DashboardHandler) AddSocialAccount(w http.ResponseWriter, r *http.Request) {
	h.with(http.StatusCreated, func(_ http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) (any, error) {
		var in dashboard.SocialAccountInput
		if err := decode(r, &in); err != nil {
			return nil, err
		}
		return d.Social().Add(r.Context(), in)
	})(w, r)
}

// UpdateSocialAccount handles PATCH /api/social-accounts/{id}.
func (h *DashboardHandler) UpdateSocialAccount(w http.ResponseWriter, r *http.Request) {
	h.with(http.StatusOK, func(_ http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) (any, error) {
		id, err := uuidParam(r, "id")
		if err != nil {
			return nil, err
		}
		var patch dashboard.SocialAccountPatch
		if err := decode(r, &patch); err != nil {
			return nil, err
		}
		return d.Social().Update(r.Context(), id, patch)
	})(w, r)
}

// RemoveSocialAccount handles DELETE /api/social-accounts/{id}.
func (h *DashboardHandler) RemoveSocialAccount(w http.ResponseWriter, r *http.Request) {
	h.with(http.StatusOK, func(_ http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) (any, error) {
		id, err := uuidParam(r, "id")
		if err != nil {
			return nil, err
		}
		return nil, d.Social().Remove(r.Context(), id)
	})(w, r)
}

// AddCitation handles POST /api/citations.
func (h *DashboardHandler) AddCitation(w http.ResponseWriter, r *http.Request) {
	h.with(http.StatusCreated, func(_ http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) (any, error) {
		var in dashboard.CitationInput
		if err := decode(r, &in); err != nil {
			return nil, err
		}
		return d.Reputation().AddCitation(r.Context(), in)
	})(w, r)
}

// RemoveCitation handles DELETE /api/citations/{id}.
func (h *DashboardHandler) RemoveCitation(w http.ResponseWriter, r *http.Request) {
	h.with(http.StatusOK, func(_ http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) (any, error) {
		id, err := uuidParam(r, "id")
		if err != nil {
			return nil, err
		}
		return nil, d.Reputation().RemoveCitation(r.Context(), id)
	})(w, r)
}

// AddPlatform handles POST /api/reputation/platforms.
func (h *DashboardHandler) AddPlatform(w http.ResponseWriter, r *http.Request) {
	h.with(http.StatusOK, func(_ http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) (any, error) {
		var req platformRequest
		if err := decode(r, &req); err != nil {
			return nil, err
		}
		if err := d.Reputation().AddPlatform(r.Context(), req.Platform, req.URL); err != nil {
			return nil, err
		}
		return d.Reputation().Summary(), nil
	})(w, r)
}

// AddColor handles POST /api/brand/colors.
func (h *DashboardHandler) AddColor(w http.ResponseWriter, r *http.Request) {
	h.with(http.StatusCreated, func(_ http.ResponseWriter, _ *http.Request, d *dashboard.Dashboard) (any, error) {
		i, c, err := d.Brand().AddColor()
		if err != nil {
			return nil, err
		}
		return colorResponse{Index: i, Color: c}, nil
	})(w, r)
}

// UpdateColor handles PATCH /api/brand/colors/{index}.
func (h *DashboardHandler) UpdateColor(w http.ResponseWriter, r *http.Request) {
	h.with(http.StatusOK, func(_ http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) (any, error) {
		i, err := indexParam(r)
		if err != nil {
			return nil, err
		}
		var patch dashboard.ColorPatch
		if err := decode(r, &patch); err != nil {
			return nil, err
		}
		c, err := d.Brand().UpdateColor(r.Context(), i, patch)
		if err != nil {
			return nil, err
		}
		return colorResponse{Index: i, Color: c}, nil
	})(w, r)
}

// RemoveColor handles DELETE /api/brand/colors/{index}.
func (h *DashboardHandler) RemoveColor(w http.ResponseWriter, r *http.Request) {
	h.with(http.StatusOK, func(_ http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) (any, error) {
		i, err := indexParam(r)
		if err != nil {
			return nil, err
		}
		if err := d.Brand().RemoveColor(r.Context(), i); err != nil {
			return nil, err
		}
		return d.Brand().Colors()
	})(w, r)
}

// UploadLogo handles POST /api/brand/logos/{kind}.
func (h *DashboardHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	h.with(http.StatusCreated, func(w http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) (any, error) {
		up, done, err := h.formFile(w, r)
		if err != nil {
			return nil, err
		}
		defer done()

		kind := chi.URLParam(r, "kind")
		url, err := d.Brand().UploadLogo(r.Context(), kind, up)
		if err != nil {
			return nil, err
		}
		return logoResponse{Kind: kind, URL: url}, nil
	})(w, r)
}

// RemoveLogo handles DELETE /api/brand/logos/{kind}.
func (h *DashboardHandler) RemoveLogo(w http.ResponseWriter, r *http.Request) {
	h.with(http.StatusOK, func(_ http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) (any, error) {
		return nil, d.Brand().RemoveLogo(r.Context(), chi.URLParam(r, "kind"))
	})(w, r)
}

// UploadCertificate handles POST /api/brand/certificates.
func (h *DashboardHandler) UploadCertificate(w http.ResponseWriter, r *http.Request) {
	h.with(http.StatusCreated, func(w http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) (any, error) {
		up, done, err := h.formFile(w, r)
		if err != nil {
			return nil, err
		}
		defer done()
		return d.Brand().UploadCertificate(r.Context(), up)
	})(w, r)
}

// RemoveCertificate handles DELETE /api/brand/certificates/{id}.
func (h *DashboardHandler) RemoveCertificate(w http.ResponseWriter, r *http.Request) {
	h.with(http.StatusOK, func(_ http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) (any, error) {
		return nil, d.Brand().RemoveCertificate(r.Context(), chi.URLParam(r, "id"))
	})(w, r)
}

// formFile reads the multipart "file" part. The returned func releases the
// part and any temporary files.
func (h *DashboardHandler) formFile(w http.ResponseWriter, r *http.Request) (dashboard.Upload, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return dashboard.Upload{}, nil, domain.NewValidationError("file", "file is too large")
		}
		return dashboard.Upload{}, nil, domain.NewValidationError("file", "invalid multipart body")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		r.MultipartForm.RemoveAll() //nolint:errcheck
		return dashboard.Upload{}, nil, domain.NewValidationError("file", "required")
	}

	up := dashboard.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
	done := func() {
		file.Close()                //nolint:errcheck
		r.MultipartForm.RemoveAll() //nolint:errcheck
	}
	return up, done, nil
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.NewValidationError("body", "invalid request body")
	}
	return nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, domain.NewValidationError(name, "must be a UUID")
	}
	return id, nil
}

func indexParam(r *http.Request) (int, error) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || i < 0 {
		return 0, domain.NewValidationError("index", "must be a non-negative integer")
	}
	return i, nil
}
