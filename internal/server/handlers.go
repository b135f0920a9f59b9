package server

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gomarkdown/markdown"

	"github.com/KaramelBytes/insightify-cli/internal/ai"
	"github.com/KaramelBytes/insightify-cli/internal/chart"
	"github.com/KaramelBytes/insightify-cli/internal/ingest"
	"github.com/KaramelBytes/insightify-cli/internal/profile"
	"github.com/KaramelBytes/insightify-cli/internal/render"
	"github.com/KaramelBytes/insightify-cli/internal/table"
)

// multipart overhead allowed on top of the file limit
const formSlack = 1 << 20

type datasetResponse struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	Sheet          string               `json:"sheet,omitempty"`
	Columns        []string             `json:"columns"`
	Rows           int                  `json:"rows"`
	Preview        profile.Preview      `json:"preview"`
	Classification chart.Classification `json:"classification"`
	Profile        *profile.Report      `json:"profile,omitempty"`
	Insight        *ai.Insight          `json:"insight,omitempty"`
	Selected       *int                 `json:"selected_kpi,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "sessions": s.store.Len()})
}

func (s *Server) previewRows() int {
	if s.cfg.PreviewRows > 0 {
		return s.cfg.PreviewRows
	}
	return profile.DefaultPreview
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, ingest.MaxUploadBytes+formSlack)
	file, hdr, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) || strings.Contains(err.Error(), "request body too large") {
			writeError(w, http.StatusRequestEntityTooLarge, ingest.ErrTooLarge.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "a multipart field named \"file\" is required")
		return
	}
	defer file.Close()
	if !ingest.Supported(hdr.Filename) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s: %v", hdr.Filename, ingest.ErrUnsupported))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, ingest.MaxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("read upload: %v", err))
		return
	}
	ds, err := ingest.ParseBytes(hdr.Filename, data, s.cfg.IngestOptions())
	if err != nil {
		s.log.Warn("upload %s rejected: %v", hdr.Filename, err)
		writeError(w, ingestStatus(err), err.Error())
		return
	}
	rep := profile.Build(ds, profile.Options{Classifier: s.cfg.Classifier(), PreviewRows: s.previewRows()})
	sess := s.store.Create(ds, rep)
	s.log.Info("dataset %s loaded: %d rows, %d columns (session %s)", ds.Name, ds.Len(), len(ds.Columns), sess.ID)

	writeJSON(w, http.StatusCreated, datasetResponse{
		ID:             sess.ID,
		Name:           ds.Name,
		Sheet:          ds.Sheet,
		Columns:        ds.Columns,
		Rows:           ds.Len(),
		Preview:        *rep.Preview,
		Classification: rep.Classification,
	})
}

func ingestStatus(err error) int {
	if errors.Is(err, ingest.ErrTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// session resolves {id} or writes a 404.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (Session, bool) {
	id := chi.URLParam(r, "id")
	sess, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("dataset %q not found", id))
	}
	return sess, ok
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	resp := datasetResponse{
		ID:             sess.ID,
		Name:           sess.Dataset.Name,
		Sheet:          sess.Dataset.Sheet,
		Columns:        sess.Dataset.Columns,
		Rows:           sess.Dataset.Len(),
		Preview:        *sess.Report.Preview,
		Classification: sess.Report.Classification,
		Profile:        sess.Report,
		Insight:        sess.Insight,
	}
	if sess.Selected >= 0 {
		sel := sess.Selected
		resp.Selected = &sel
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.store.Delete(id) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("dataset %q not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type insightRequest struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Count    int    `json:"count"`
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req insightRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	provider := ai.NormalizeProvider(firstSet(req.Provider, s.cfg.DefaultProvider, ai.ProviderGemini))
	model := ai.ResolveModel(provider, firstSet(req.Model, s.cfg.DefaultModel))
	rt, err := s.newRuntime(provider, s.cfg.RuntimeConfig(strings.TrimSpace(r.Header.Get("X-API-Key"))))
	if err != nil {
		writeAIError(w, http.StatusBadRequest, err)
		return
	}
	opt := s.cfg.SuggestOptions()
	if req.Count > 0 {
		opt.Count = req.Count
	}
	ins, err := ai.SuggestKPIs(r.Context(), rt, model, sess.Dataset.Columns, opt)
	if err != nil {
		s.log.Error("insights for %s via %s failed: %v", sess.ID, provider, err)
		status := http.StatusBadGateway
		if errors.Is(err, ai.ErrNoColumns) {
			status = http.StatusBadRequest
		}
		writeAIError(w, status, err)
		return
	}
	s.store.Update(sess.ID, func(x *Session) {
		x.Insight = ins
		x.Selected = -1
	})
	s.log.Debug("insights for %s: %d KPIs", sess.ID, len(ins.KPIs))
	writeJSON(w, http.StatusOK, ins)
}

type chartRequest struct {
	KPIIndex    *int   `json:"kpi_index"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Compare     bool   `json:"compare"`
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req chartRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	creq := chart.Request{Title: req.Title, Description: req.Description, Compare: req.Compare}
	if req.KPIIndex != nil {
		k, err := selectKPI(sess, *req.KPIIndex)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		creq = k.ChartRequest()
		creq.Compare = creq.Compare || req.Compare
		s.store.Update(sess.ID, func(x *Session) { x.Selected = *req.KPIIndex })
	}
	writeJSON(w, http.StatusOK, s.build(sess.Dataset, creq))
}

func (s *Server) handleChartHTML(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	creq := chart.Request{Title: q.Get("title"), Description: q.Get("description")}
	idx := sess.Selected
	if raw := q.Get("kpi"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid kpi %q", raw))
			return
		}
		idx = n
	}
	if idx >= 0 {
		k, err := selectKPI(sess, idx)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		creq = k.ChartRequest()
	}
	var buf bytes.Buffer
	if err := render.HTML(&buf, s.build(sess.Dataset, creq)); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleReportHTML(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	body := markdown.ToHTML([]byte(sess.Report.Markdown()), nil, nil)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>%s</title></head><body>\n%s</body></html>\n",
		html.EscapeString(sess.Dataset.Name), body)
}

func (s *Server) build(ds *table.Dataset, req chart.Request) *chart.Chart {
	ch := chart.Build(ds.Rows, ds.Columns, req, chart.WithClassifier(s.cfg.Classifier()))
	if ch.IsFallback() {
		s.log.Warn("chart %q uses placeholder data: %s", ch.Title, ch.CaseInfo)
	}
	return ch
}

func selectKPI(sess Session, i int) (ai.KPI, error) {
	if sess.Insight == nil {
		return ai.KPI{}, errors.New("no insights generated for this dataset yet")
	}
	return sess.Insight.KPI(i)
}

// decodeOptional decodes a JSON body; an empty body leaves v untouched.
func decodeOptional(r *http.Request, v interface{}) error {
	b, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func firstSet(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
