package advisor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/plot/vg"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model"
	"github.com/LeonardoBeccarini/agri_advisor/internal/report"
	"github.com/LeonardoBeccarini/agri_advisor/internal/scoring"
)

var errBadRequest = errors.New("bad request")

// ReadinessCheck is consulted by /readyz; a nil error means ready.
type ReadinessCheck struct {
	Name  string
	Check func() error
}

type RouterOptions struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	Readiness      []ReadinessCheck
}

type API struct {
	svc     *Service
	metrics *Metrics
	opts    RouterOptions
	pages   *pages
	started time.Time
}

func NewAPI(svc *Service, m *Metrics, opts RouterOptions) *API {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}
	return &API{svc: svc, metrics: m, opts: opts, pages: mustParsePages(), started: time.Now()}
}

// Routes wires middlewares and endpoints.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(a.opts.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/", a.handleIndex)
	r.Post("/", a.handleFormPredict)
	r.Get("/tips", a.handleTipsPage)

	r.Get("/healthz", a.handleHealth)
	r.Get("/readyz", a.handleReady)
	r.Method(http.MethodGet, "/metrics", a.metrics.Handler())
	mountDocs(r)

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/crops", a.handleCrops)
		api.Get("/tips", a.handleTips)
		api.Get("/model", a.handleModel)
		api.Post("/predict", a.handlePredict)
		api.Get("/report/chart", a.handleChart)
		api.Post("/report/chart", a.handleChart)
		api.Get("/report/{format}", a.handleReport)
		api.Post("/report/{format}", a.handleReport)
	})
	return r
}

/************* DTO *************/

type predictionResponse struct {
	ID           string                `json:"id"`
	Score        float64               `json:"score"`
	ScoreText    string                `json:"score_text"`
	Progress     int                   `json:"progress"`
	Tier         string                `json:"tier"`
	Insights     []model.Insight       `json:"insights"`
	Observation  model.FarmObservation `json:"observation"`
	Timestamp    time.Time             `json:"timestamp"`
	ModelVersion string                `json:"model_version,omitempty"`
}

type errorResponse struct {
	Error      string   `json:"error"`
	KnownCrops []string `json:"known_crops,omitempty"`
}

func (a *API) toResponse(res model.PredictionResult) predictionResponse {
	return predictionResponse{
		ID:           res.ID,
		Score:        res.Score,
		ScoreText:    report.FormatScore(res.Score),
		Progress:     res.Progress(),
		Tier:         string(scoring.TierOf(res.Score)),
		Insights:     res.Insights,
		Observation:  res.Observation,
		Timestamp:    res.Timestamp,
		ModelVersion: a.svc.ModelVersion(),
	}
}

/************* HANDLERS *************/

func (a *API) handleCrops(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"crops": a.svc.Crops()})
}

func (a *API) handleTips(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"tips": scoring.Tips})
}

func (a *API) handleModel(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version":  a.svc.ModelVersion(),
		"features": scoring.FeatureNames,
		"crops":    a.svc.Crops(),
	})
}

func (a *API) handlePredict(w http.ResponseWriter, r *http.Request) {
	obs, err := decodeObservation(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := a.svc.Predict(SourceHTTP, r.Header.Get("X-Field-ID"), obs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.toResponse(res))
}

// handleReport scores the observation and returns it as a download. GET reads
// the observation from the query string so that the form page can link to it.
func (a *API) handleReport(w http.ResponseWriter, r *http.Request) {
	exp, err := report.NewExporter(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, err)
		return
	}
	obs, err := observationFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := a.svc.Predict(SourceHTTP, r.Header.Get("X-Field-ID"), obs)
	if err != nil {
		writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := exp.Write(&buf, report.New(res)); err != nil {
		log.Error().Err(err).Str("format", exp.Format()).Msg("advisor: report rendering failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "report rendering failed"})
		return
	}
	w.Header().Set("Content-Type", exp.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName(exp)))
	w.Header().Set("X-Prediction-ID", res.ID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleChart renders the resource usage chart; no prediction is made.
func (a *API) handleChart(w http.ResponseWriter, r *http.Request) {
	obs, err := observationFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := scoring.Validate(obs); err != nil {
		writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := report.WriteChartPNG(&buf, obs, 5*vg.Inch, 3*vg.Inch); err != nil {
		log.Error().Err(err).Msg("advisor: chart rendering failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "chart rendering failed"})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=60")
	_, _ = w.Write(buf.Bytes())
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"model_version": a.svc.ModelVersion(),
		"uptime":        time.Since(a.started).Round(time.Second).String(),
	})
}

// handleReady: 200 only if every check passes.
func (a *API) handleReady(w http.ResponseWriter, _ *http.Request) {
	failing := map[string]string{}
	for _, c := range a.opts.Readiness {
		if err := c.Check(); err != nil {
			failing[c.Name] = err.Error()
		}
	}
	status := http.StatusOK
	if len(failing) > 0 {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]interface{}{"ready": len(failing) == 0, "failing": failing})
}

/************* HELPERS *************/

// decodeObservation starts from the form defaults so partial bodies are accepted;
// crop_type has no default.
func decodeObservation(body io.Reader) (model.FarmObservation, error) {
	obs := model.DefaultObservation("")
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&obs); err != nil {
		return model.FarmObservation{}, fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return model.FarmObservation{}, fmt.Errorf("%w: invalid JSON body: unexpected data after the object", errBadRequest)
	}
	return obs, nil
}

func observationFromRequest(r *http.Request) (model.FarmObservation, error) {
	if r.Method == http.MethodPost && strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return decodeObservation(r.Body)
	}
	if err := r.ParseForm(); err != nil {
		return model.FarmObservation{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return observationFromValues(r.Form)
}

// observationFromValues reads the json field names from a query or form.
func observationFromValues(v url.Values) (model.FarmObservation, error) {
	obs := model.DefaultObservation(strings.TrimSpace(v.Get("crop_type")))
	fields := []struct {
		key string
		dst *float64
	}{
		{"soil_ph", &obs.SoilPH},
		{"soil_moisture", &obs.SoilMoisture},
		{"temperature_c", &obs.TemperatureC},
		{"rainfall_mm", &obs.RainfallMM},
		{"fertilizer_usage_kg", &obs.FertilizerKg},
		{"pesticide_usage_kg", &obs.PesticideKg},
		{"crop_yield_ton", &obs.CropYieldTon},
	}
	for _, f := range fields {
		raw := strings.TrimSpace(v.Get(f.key))
		if raw == "" {
			continue
		}
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.FarmObservation{}, fmt.Errorf("%w: %s is not a number", scoring.ErrInvalidObservation, f.key)
		}
		*f.dst = n
	}
	return obs, nil
}

func observationValues(o model.FarmObservation) url.Values {
	f := func(x float64) string { return strconv.FormatFloat(x, 'f', -1, 64) }
	return url.Values{
		"soil_ph":             {f(o.SoilPH)},
		"soil_moisture":       {f(o.SoilMoisture)},
		"temperature_c":       {f(o.TemperatureC)},
		"rainfall_mm":         {f(o.RainfallMM)},
		"crop_type":           {o.CropType},
		"fertilizer_usage_kg": {f(o.FertilizerKg)},
		"pesticide_usage_kg":  {f(o.PesticideKg)},
		"crop_yield_ton":      {f(o.CropYieldTon)},
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps pipeline errors to status codes. Inference details stay in the log.
func writeError(w http.ResponseWriter, err error) {
	var uce *scoring.UnknownCategoryError
	switch {
	case errors.As(err, &uce):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), KnownCrops: uce.Known})
	case errors.Is(err, scoring.ErrInvalidObservation), errors.Is(err, errBadRequest):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, report.ErrUnsupportedFormat):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, scoring.ErrInference):
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "prediction failed"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http: request")
	})
}
