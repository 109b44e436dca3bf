package advisor

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/LeonardoBeccarini/agri_advisor/internal/model"
	"github.com/LeonardoBeccarini/agri_advisor/internal/report"
	"github.com/LeonardoBeccarini/agri_advisor/internal/scoring"
)

//go:embed web/*.html
var webFS embed.FS

type pages struct {
	index *template.Template
	tips  *template.Template
}

func mustParsePages() *pages {
	return &pages{
		index: template.Must(template.ParseFS(webFS, "web/layout.html", "web/index.html")),
		tips:  template.Must(template.ParseFS(webFS, "web/layout.html", "web/tips.html")),
	}
}

type resultView struct {
	ScoreText string
	Progress  int
	Insights  []model.Insight
	Query     template.URL
	Formats   []string
}

type indexView struct {
	Crops  []string
	Obs    model.FarmObservation
	Result *resultView
	Error  string
}

func (a *API) handleIndex(w http.ResponseWriter, _ *http.Request) {
	crops := a.svc.Crops()
	a.render(w, http.StatusOK, a.pages.index, indexView{Crops: crops, Obs: model.DefaultObservation(crops[0])})
}

// handleFormPredict renders the result under the form, as the page always did.
func (a *API) handleFormPredict(w http.ResponseWriter, r *http.Request) {
	crops := a.svc.Crops()
	view := indexView{Crops: crops, Obs: model.DefaultObservation(crops[0])}
	if err := r.ParseForm(); err != nil {
		view.Error = "Error: could not read the form"
		a.render(w, http.StatusBadRequest, a.pages.index, view)
		return
	}
	obs, err := observationFromValues(r.PostForm)
	if err != nil {
		view.Error = "Error: " + err.Error()
		a.render(w, http.StatusBadRequest, a.pages.index, view)
		return
	}
	view.Obs = obs
	res, err := a.svc.Predict(SourceForm, "", obs)
	if err != nil {
		status := http.StatusBadRequest
		msg := err.Error()
		if errorKind(err) == "inference" || errorKind(err) == "other" {
			status, msg = http.StatusInternalServerError, "prediction failed"
		}
		view.Error = "Error: " + msg
		a.render(w, status, a.pages.index, view)
		return
	}
	view.Result = &resultView{
		ScoreText: report.FormatScore(res.Score),
		Progress:  res.Progress(),
		Insights:  res.Insights,
		Query:     template.URL(observationValues(obs).Encode()),
		Formats:   report.SupportedFormats(),
	}
	a.render(w, http.StatusOK, a.pages.index, view)
}

func (a *API) handleTipsPage(w http.ResponseWriter, _ *http.Request) {
	a.render(w, http.StatusOK, a.pages.tips, map[string][]string{"Tips": scoring.Tips})
}

func (a *API) render(w http.ResponseWriter, status int, t *template.Template, data interface{}) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Error().Err(err).Msg("advisor: template failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
