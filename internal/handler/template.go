package handler

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/dukerupert/barhop/internal/activity"
	"github.com/dukerupert/barhop/internal/checkin"
	"github.com/dukerupert/barhop/internal/device"
	"github.com/dukerupert/barhop/internal/metrics"
	"github.com/dukerupert/barhop/internal/model"
	"github.com/dukerupert/barhop/internal/result"
	"github.com/dukerupert/barhop/internal/store"
	ws "github.com/dukerupert/barhop/internal/websocket"
	"github.com/dukerupert/barhop/web"
)

// ParseTemplates parses the embedded page and partial templates.
func ParseTemplates() (*template.Template, error) {
	return template.ParseFS(web.Templates, "templates/*.html")
}

type TemplateHandler struct {
	activities *store.ActivityStore
	loader     *activity.Loader
	verifier   *checkin.Verifier
	hub        *ws.Hub
	metrics    *metrics.Metrics
	format     activity.Formatter
	templates  *template.Template
	logger     *slog.Logger
}

func NewTemplateHandler(as *store.ActivityStore, cs *store.CheckinStore, v *checkin.Verifier, hub *ws.Hub, m *metrics.Metrics, f activity.Formatter, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{
		activities: as,
		loader:     activity.NewLoader(as, cs, logger.With("component", "loader")),
		verifier:   v,
		hub:        hub,
		metrics:    m,
		format:     f,
		templates:  template.Must(ParseTemplates()),
		logger:     logger,
	}
}

func (h *TemplateHandler) Index(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Title":  "活動列表",
		"Format": h.format,
	}
	activities, err := h.activities.List(r.Context())
	if err != nil {
		h.logger.Error("list activities", "error", err)
		data["Error"] = err.Error()
	}
	data["Activities"] = activities
	h.render(w, http.StatusOK, "index.html", data)
}

func (h *TemplateHandler) detail(r *http.Request) activity.Detail {
	id := r.PathValue("activity_id")
	snap := h.loader.Load(r.Context(), id, device.FromContext(r.Context()))
	return activity.BuildDetail(id, snap.Activity, snap.Checkins, r.URL.Query().Get("open"), h.format)
}

// ActivityDetail renders the full detail page. The open query parameter
// names the location panel to expand.
func (h *TemplateHandler) ActivityDetail(w http.ResponseWriter, r *http.Request) {
	d := h.detail(r)

	title := "活動詳情"
	status := http.StatusOK
	switch {
	case d.Ready():
		title = d.Name + " | 活動詳情"
	case d.NotFound():
		status = http.StatusNotFound
	}
	h.render(w, status, "activity_detail.html", map[string]any{
		"Title":  title,
		"Detail": d,
	})
}

// ActivityProgress renders the progress and record blocks alone, for the
// live refresh.
func (h *TemplateHandler) ActivityProgress(w http.ResponseWriter, r *http.Request) {
	d := h.detail(r)
	if !d.Ready() {
		h.renderPartial(w, "activity-message", d)
		return
	}
	h.renderPartial(w, "activity-progress", d.Checkins)
}

// CheckinVerifyPage renders the page shell. The verification content is
// fetched by the deferred region once the shell is on screen.
func (h *TemplateHandler) CheckinVerifyPage(w http.ResponseWriter, r *http.Request) {
	q := url.Values{}
	q.Set("activity_id", r.URL.Query().Get("activity_id"))
	q.Set("location_id", r.URL.Query().Get("location_id"))

	h.render(w, http.StatusOK, "checkin_verify.html", map[string]any{
		"Title":      "打卡驗證",
		"PartialURL": "/partials/checkin_verify?" + q.Encode(),
	})
}

// VerifyView is the state of the verification card.
type VerifyView struct {
	Status       string // confirm, rejected, success or error
	Reason       string
	ActivityID   string
	LocationID   string
	ActivityName string
	LocationName string
	Address      string
	CheckinTime  string
	ShowProgress bool
	Checkins     activity.CheckinSection
}

func (h *TemplateHandler) verifyView(activityID, locationID string, e *checkin.Eligibility, c *model.Checkin, err error) VerifyView {
	v := VerifyView{ActivityID: activityID, LocationID: locationID}
	switch {
	case err == nil && c != nil:
		v.Status = "success"
		v.CheckinTime = h.format.DateTime(c.CheckinTime)
	case err == nil:
		v.Status = "confirm"
	case checkin.IsRejection(err):
		v.Status = "rejected"
		v.Reason = checkin.Reason(err)
	default:
		v.Status = "error"
		v.Reason = err.Error()
	}

	if e == nil {
		return v
	}
	if e.Activity != nil {
		v.ActivityName = e.Activity.Name
	} else {
		v.ActivityID = ""
	}
	if e.Location != nil {
		v.LocationName = e.Location.Name
		v.Address = e.Location.Address
	}
	if e.Activity != nil && e.Checkins != nil {
		v.ShowProgress = true
		v.Checkins = activity.BuildCheckins(activityID, result.Ready(e.Checkins), e.Activity.CheckInLimit, h.format)
	}
	return v
}

func deviceID(r *http.Request) string {
	id, err := device.FromContext(r.Context()).Await(r.Context())
	if err != nil {
		return ""
	}
	return id
}

// CheckinVerifyContent checks eligibility and renders either the
// confirmation form or the reason the device cannot check in.
func (h *TemplateHandler) CheckinVerifyContent(w http.ResponseWriter, r *http.Request) {
	activityID := r.URL.Query().Get("activity_id")
	locationID := r.URL.Query().Get("location_id")

	e, err := h.verifier.Check(r.Context(), activityID, locationID, deviceID(r))
	if err != nil && !checkin.IsRejection(err) {
		h.logger.Error("check eligibility", "activity_id", activityID, "location_id", locationID, "error", err)
	}
	h.renderPartial(w, "verify-content", h.verifyView(activityID, locationID, e, nil, err))
}

// CheckinVerifySubmit records the check-in and renders the result card.
func (h *TemplateHandler) CheckinVerifySubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	activityID := r.FormValue("activity_id")
	locationID := r.FormValue("location_id")

	c, e, err := h.verifier.Record(r.Context(), activityID, locationID, deviceID(r))
	h.metrics.TrackCheckin(checkin.Outcome(err))
	switch {
	case err == nil:
		h.logger.Info("checkin recorded", "activity_id", activityID, "location_id", locationID, "checkin_id", c.ID)
		announce(h.hub, c)
	case checkin.IsRejection(err):
		h.logger.Debug("checkin rejected", "activity_id", activityID, "location_id", locationID, "reason", err)
	default:
		h.logger.Error("record checkin", "activity_id", activityID, "location_id", locationID, "error", err)
	}
	h.renderPartial(w, "verify-content", h.verifyView(activityID, locationID, e, c, err))
}

func (h *TemplateHandler) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("template error", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *TemplateHandler) renderPartial(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("template error", "template", name, "error", err)
		w.Write([]byte(`<div class="error">Template error</div>`))
	}
}
