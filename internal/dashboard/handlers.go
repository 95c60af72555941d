package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/KaramelBytes/rankboard/internal/board"
	"github.com/KaramelBytes/rankboard/internal/chart"
	"github.com/KaramelBytes/rankboard/internal/dataset"
	"github.com/KaramelBytes/rankboard/internal/rank"
)

// PanelSignals are the datastar signals bound to the selection controls.
type PanelSignals struct {
	Column string `json:"column"`
	Label  string `json:"label"`
	Mode   string `json:"mode"`
	Agg    string `json:"agg"`
	N      int    `json:"n"`
}

func (p PanelSignals) query() url.Values {
	q := url.Values{}
	q.Set("column", p.Column)
	q.Set("label", p.Label)
	q.Set("mode", p.Mode)
	q.Set("agg", p.Agg)
	if p.N != 0 {
		q.Set("n", strconv.Itoa(p.N))
	}
	return q
}

func requestFromQuery(q url.Values) (board.Request, error) {
	req := board.Request{
		Column: strings.TrimSpace(q.Get("column")),
		Label:  strings.TrimSpace(q.Get("label")),
		Agg:    rank.Agg(strings.ToLower(strings.TrimSpace(q.Get("agg")))),
	}
	mode, err := rank.ParseMode(q.Get("mode"))
	if err != nil {
		return req, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	req.Mode = mode
	if raw := strings.TrimSpace(q.Get("n")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("%w: n must be an integer, got %q", errBadRequest, raw)
		}
		req.N = n
	}
	switch req.Agg {
	case "", rank.AggSum, rank.AggMean, rank.AggCount:
	default:
		return req, fmt.Errorf("%w: agg must be sum, mean or count", errBadRequest)
	}
	return req, nil
}

// view resolves the current table and builds the view for req.
func (s *Server) view(w http.ResponseWriter, r *http.Request, req board.Request) (*board.View, source, error) {
	src, err := s.current(w, r)
	if err != nil {
		return nil, src, err
	}
	v, err := board.Build(src.Table, req, s.cfg.Board)
	return v, src, err
}

// HandlePage renders the full dashboard page. Query parameters drive the
// selection so the page works without JavaScript.
func (s *Server) HandlePage(w http.ResponseWriter, r *http.Request) {
	data := s.newPageData(w, r)
	req, err := requestFromQuery(r.URL.Query())
	if err == nil {
		var src source
		data.View, src, err = s.view(w, r, req)
		data.fromSource(src)
	}
	if err != nil {
		s.logFailure(r, err)
		data.Error = s.userMessage(err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := Page(data).Render(r.Context(), w); err != nil {
		s.logger.Error("render page", "error", err)
	}
}

// HandlePanel re-renders #panel for the selection held in datastar signals.
// The view is resolved before the stream opens so session changes still
// reach the client as a cookie.
func (s *Server) HandlePanel(w http.ResponseWriter, r *http.Request) {
	// Read signals BEFORE creating SSE (SSE consumes the request body)
	var signals PanelSignals
	readErr := datastar.ReadSignals(r, &signals)

	data := s.newPageData(w, r)
	var err error
	if readErr != nil {
		err = fmt.Errorf("%w: read signals: %v", errBadRequest, readErr)
	} else {
		var req board.Request
		if req, err = requestFromQuery(signals.query()); err == nil {
			var src source
			data.View, src, err = s.view(w, r, req)
			data.fromSource(src)
		}
	}
	if err != nil {
		s.logFailure(r, err)
		data.Error = s.userMessage(err)
	}

	sse := datastar.NewSSE(w, r)
	if err := sse.PatchElementTempl(Panel(data)); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// HandleUpload reads a multipart CSV/TSV/XLSX upload, caches the decoded
// table and points the session at it.
func (s *Server) HandleUpload(w http.ResponseWriter, r *http.Request) {
	limit := int64(s.cfg.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	fail := func(status int, msg string) {
		data := s.newPageData(w, r)
		data.Error = msg
		if src, err := s.current(w, r); err == nil {
			data.fromSource(src)
			if v, err := board.Build(src.Table, board.Request{}, s.cfg.Board); err == nil {
				data.View = v
			}
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_ = Page(data).Render(r.Context(), w)
	}

	file, hdr, err := r.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			fail(http.StatusRequestEntityTooLarge, fmt.Sprintf("The file is larger than %d MB.", s.cfg.MaxUploadMB))
			return
		}
		fail(http.StatusBadRequest, "Choose a file to upload.")
		return
	}
	defer file.Close()
	raw, err := io.ReadAll(file)
	if err != nil {
		fail(http.StatusRequestEntityTooLarge, fmt.Sprintf("The file is larger than %d MB.", s.cfg.MaxUploadMB))
		return
	}

	uploadID := uuid.NewString()
	name := path.Base(strings.ReplaceAll(hdr.Filename, "\\", "/"))
	t, err := dataset.Read(name, raw, s.cfg.Dataset)
	if err != nil {
		s.logger.Warn("upload rejected", "upload_id", uploadID, "file", name, "error", err)
		fail(http.StatusUnprocessableEntity, s.userMessage(err))
		return
	}
	s.tables.Put(t.Identity, t)
	s.logger.Info("dataset uploaded", "upload_id", uploadID, "file", name,
		"encoding", t.Encoding, "rows", t.Len(), "cols", len(t.Columns()))

	sess, _ := s.sessionStore.Get(r, sessionName)
	sess.Values[keyDataset] = t.Identity
	sess.Values[keyUploadName] = name
	sess.Values[keyUploadID] = uploadID
	if err := sess.Save(r, w); err != nil {
		s.logger.Error("save session", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleReset forgets the session's upload and returns to the bundled dataset.
func (s *Server) HandleReset(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.sessionStore.Get(r, sessionName)
	clearUpload(sess.Values)
	if err := sess.Save(r, w); err != nil {
		s.logger.Error("save session", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleAPIView returns the resolved view as JSON.
func (s *Server) HandleAPIView(w http.ResponseWriter, r *http.Request) {
	v, ok := s.apiView(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, v)
}

// HandleChartSpec returns the Vega-Lite spec for the selection.
func (s *Server) HandleChartSpec(w http.ResponseWriter, r *http.Request) {
	v, ok := s.apiView(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, v.Spec)
}

// HandleChartImage renders the selection as PNG or SVG, by URL suffix.
func (s *Server) HandleChartImage(w http.ResponseWriter, r *http.Request) {
	format, err := chart.ParseFormat(path.Ext(r.URL.Path))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	v, ok := s.apiView(w, r)
	if !ok {
		return
	}
	opt := s.cfg.Board.Chart
	opt.Title = v.Title
	var buf bytes.Buffer
	if err := chart.Render(v.Ranking, opt, format, &buf); err != nil {
		s.apiError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

// HandleHealth reports liveness and cache counters.
func (s *Server) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"cache":  s.tables.Stats(),
	})
}

func (s *Server) apiView(w http.ResponseWriter, r *http.Request) (*board.View, bool) {
	req, err := requestFromQuery(r.URL.Query())
	if err != nil {
		s.apiError(w, r, err)
		return nil, false
	}
	v, _, err := s.view(w, r, req)
	if err != nil {
		s.apiError(w, r, err)
		return nil, false
	}
	return v, true
}

func (s *Server) apiError(w http.ResponseWriter, r *http.Request, err error) {
	s.logFailure(r, err)
	status := http.StatusInternalServerError
	if userError(err) {
		status = http.StatusUnprocessableEntity
	}
	s.writeJSON(w, status, map[string]string{"error": s.userMessage(err)})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) logFailure(r *http.Request, err error) {
	if userError(err) {
		s.logger.Info("request rejected", "path", r.URL.Path, "error", err)
		return
	}
	s.logger.Error("request failed", "path", r.URL.Path, "error", err)
}
