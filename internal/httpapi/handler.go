package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/icontent-lms/go-icontent/activity"
	"github.com/icontent-lms/go-icontent/eventlog"
	"github.com/icontent-lms/go-icontent/i18n"
	"github.com/icontent-lms/go-icontent/logger"
	"github.com/icontent-lms/go-icontent/query"
	"github.com/icontent-lms/go-icontent/report"
	"github.com/icontent-lms/go-icontent/version"
)

// UserIDHeader carries the id of the user performing the request.
const UserIDHeader = "X-User-Id"

// LangParam overrides the Accept-Language header when present.
const LangParam = "lang"

// Translations returns a Translator for the requested locale.
// It is implemented by *i18n.Catalog.
type Translations interface {
	Translator(locale string) i18n.Translator
}

// EventView is the JSON representation of a recorded activity.
type EventView struct {
	EventID     string    `json:"eventid"`
	EventName   string    `json:"eventname"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	UserID      int64     `json:"userid"`
	TimeCreated time.Time `json:"timecreated"`
	Version     uint32    `json:"version"`
	Legacy      []any     `json:"legacy"`
}

// Handler serves the activity endpoints of the icontent module.
type Handler struct {
	Dispatcher   *eventlog.Dispatcher
	Directory    Directory
	Translations Translations
	Report       query.Handler[report.PageViews, report.Summary]
	Logger       logger.Logger
}

// RegisterRoutes mounts the Handler endpoints on router.
func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Post(activity.ModulePath+activity.ViewScript, h.HandleViewPage)
	router.Get(activity.ModulePath+"{cmid}/events", h.HandleListEvents)
	router.Get(activity.ModulePath+"{cmid}/report", h.HandleReport)
}

// HandleViewPage records that the requesting user viewed a page.
func (h *Handler) HandleViewPage(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r.Header.Get(UserIDHeader))
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, fmt.Errorf("missing or invalid %s header", UserIDHeader))
		return
	}

	query := r.URL.Query()

	cmid, err := parseID(query.Get("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid id param, %w", err))
		return
	}

	pageID, err := parseID(query.Get("pageid"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid pageid param, %w", err))
		return
	}

	ctx := r.Context()

	module, err := h.Directory.Module(ctx, cmid)
	if err != nil {
		h.writeDirectoryError(w, err)
		return
	}

	page, err := h.Directory.Page(ctx, cmid, pageID)
	if err != nil {
		h.writeDirectoryError(w, err)
		return
	}

	record := activity.NewPageViewed(module.Instance, module.Context, page)

	switch entry, err := h.Dispatcher.Trigger(ctx, userID, record); {
	case err == nil:
		h.writeJSON(w, http.StatusCreated, h.view(r, entry))

	case errors.Is(err, activity.ErrMissingContext), errors.Is(err, activity.ErrMissingObjectID):
		h.writeError(w, http.StatusBadRequest, err)

	case isConflict(err):
		h.writeError(w, http.StatusConflict, err)

	default:
		h.writeError(w, http.StatusInternalServerError, err)
	}
}

func isConflict(err error) bool {
	var conflict version.ConflictError
	return errors.As(err, &conflict)
}

// HandleListEvents lists the activity recorded for a course module,
// oldest first.
func (h *Handler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	cmid, err := parseID(chi.URLParam(r, "cmid"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid cmid, %w", err))
		return
	}

	entries, err := h.Dispatcher.History(r.Context(), cmid)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	views := make([]EventView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, h.view(r, entry))
	}

	h.writeJSON(w, http.StatusOK, views)
}

// HandleReport returns the page view statistics of a course module.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	cmid, err := parseID(chi.URLParam(r, "cmid"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid cmid, %w", err))
		return
	}

	summary, err := h.Report.Handle(r.Context(), query.ToEnvelope(report.PageViews{CMID: cmid}))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) view(r *http.Request, entry eventlog.Entry) EventView {
	header := entry.Record.Header()

	name, err := entry.Record.LocalizedName(h.Translations.Translator(requestLocale(r)))
	if err != nil {
		logger.Warn(h.Logger, "httpapi.Handler: failed to resolve event name",
			logger.With("event", header.EventName),
			logger.Err(err),
		)

		name = header.EventName
	}

	return EventView{
		EventID:     entry.EventID(),
		EventName:   header.EventName,
		Name:        name,
		Description: entry.Record.Description(),
		URL:         entry.Record.URL().String(),
		UserID:      header.UserID,
		TimeCreated: header.TimeCreated,
		Version:     uint32(entry.Version),
		Legacy:      entry.Record.LegacyRow().Values(),
	}
}

// requestLocale picks the locale from the lang query param, falling back
// to the first entry of Accept-Language. An empty result selects the
// default locale.
func requestLocale(r *http.Request) string {
	if lang := strings.TrimSpace(r.URL.Query().Get(LangParam)); lang != "" {
		return lang
	}

	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			return tags[0].String()
		}
	}

	return ""
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}

	if id <= 0 {
		return 0, fmt.Errorf("id must be positive, got %d", id)
	}

	return id, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeDirectoryError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		h.writeError(w, http.StatusNotFound, err)
		return
	}

	h.writeError(w, http.StatusInternalServerError, err)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error(h.Logger, "httpapi.Handler: request failed", logger.Err(err))
	}

	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error(h.Logger, "httpapi.Handler: failed to encode response", logger.Err(err))
	}
}
