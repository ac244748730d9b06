package web

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/llmdesk/internal/apiclient"
	"github.com/dgallion1/llmdesk/internal/doctree"
	"github.com/dgallion1/llmdesk/internal/export"
	"github.com/dgallion1/llmdesk/internal/formatter"
	"github.com/dgallion1/llmdesk/internal/render"
	"github.com/dgallion1/llmdesk/internal/session"
)

const (
	warnEmpty      = "⚠️ Please enter a question or prompt."
	unexpectedText = "An unexpected error occurred. See the client log for details."
)

// pageData is everything index.html renders.
type pageData struct {
	Title  string
	Footer string
	Online bool

	Mode        apiclient.Mode
	ModeLabel   string
	Model       string
	Models      []string
	Fallback    bool
	InputMethod session.InputMethod
	Warning     string

	Question   string
	ErrMessage string
	ErrHint    string

	HasResponse bool
	AnswerModel string
	Raw         string
	Thinking    []string
	Answer      template.HTML
	Stats       formatter.Stats
}

// ModeText is the banner above the question box.
func (p pageData) ModeText() string {
	if p.Mode == apiclient.Local {
		return "💻 Local AI Mode - " + p.Model
	}
	return "🌐 Cloud AI Mode - " + p.Model
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	conv := s.conversation(w, r)
	prefs := conv.View()

	q := r.URL.Query()
	mode := prefs.Mode
	if v := q.Get("mode"); v != "" {
		if m, err := apiclient.ParseMode(v); err == nil {
			mode = m
		}
	}
	method := prefs.InputMethod
	switch session.InputMethod(q.Get("input")) {
	case session.InputLine:
		method = session.InputLine
	case session.InputArea:
		method = session.InputArea
	}

	ctx := r.Context()
	online := s.backend.CheckHealth(ctx)
	models := s.backend.ListModels(ctx)
	choices := models.For(mode)

	model := q.Get("model")
	if model == "" && mode == prefs.Mode {
		model = prefs.Model
	}
	if !slices.Contains(choices, model) {
		model = ""
		if len(choices) > 0 {
			model = choices[0]
		}
	}
	conv.SetPreferences(mode, model, method)
	v := conv.View()

	data := pageData{
		Title:       s.opts.Title,
		Footer:      s.opts.Footer,
		Online:      online,
		Mode:        mode,
		ModeLabel:   mode.Label(),
		Model:       model,
		Models:      choices,
		Fallback:    models.Fallback,
		InputMethod: method,
		Question:    v.Question,
		ErrMessage:  v.ErrMessage,
		ErrHint:     v.ErrHint,
	}
	if q.Get("warn") == "empty" {
		data.Warning = warnEmpty
	}

	if v.HasResponse() {
		resp := formatter.Format(v.Response)
		answer, err := answerHTML(resp.MainText)
		if err != nil {
			s.log.Error("render answer", "error", err)
			answer = ""
		}
		data.HasResponse = true
		data.Raw = v.Response
		data.Thinking = resp.Thinking
		data.Answer = answer
		data.Stats = resp.Stats
		data.AnswerModel = v.AnswerModel
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		s.log.Error("render page", "error", err)
	}
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	conv := s.conversation(w, r)
	prefs := conv.View()

	mode, err := apiclient.ParseMode(r.PostFormValue("mode"))
	if err != nil {
		mode = prefs.Mode
	}
	model := strings.TrimSpace(r.PostFormValue("model"))
	if model == "" {
		model = prefs.Model
	}
	question := strings.TrimSpace(r.PostFormValue("question"))
	if question == "" {
		http.Redirect(w, r, "/?warn=empty", http.StatusSeeOther)
		return
	}

	out, err := s.backend.Ask(r.Context(), question, model, mode)
	var apiErr *apiclient.Error
	switch {
	case err == nil:
		conv.SetAnswer(question, model, mode, out)
	case errors.As(err, &apiErr):
		conv.SetError(question, model, mode, apiErr.UserMessage(), apiErr.Hint())
	default:
		s.log.Error("ask failed", "mode", mode, "model", model, "error", err)
		conv.SetError(question, model, mode, unexpectedText, "")
	}

	target := url.Values{"mode": {string(mode)}, "model": {model}}
	http.Redirect(w, r, "/?"+target.Encode(), http.StatusSeeOther)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if conv := s.existing(r); conv != nil {
		conv.Clear()
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	conv := s.existing(r)
	if conv == nil {
		http.Error(w, "no response to export", http.StatusNotFound)
		return
	}
	v := conv.View()
	if !v.HasResponse() {
		http.Error(w, "no response to export", http.StatusNotFound)
		return
	}

	resp := formatter.Format(v.Response)
	blocks := render.Render(resp.MainText)
	meta := doctree.Metadata{
		GeneratedAt: s.now(),
		ModelName:   v.AnswerModel,
		Question:    v.Question,
		Source:      resp.MainText,
	}
	if format == export.FormatText {
		meta.Source = v.Response
	}

	ex, out, err := s.exportWith(format, blocks, meta)
	if err != nil && format == export.FormatPDF {
		s.log.Warn("pdf export failed, offering text", "error", err)
		meta.Source = v.Response
		ex, out, err = s.exportWith(export.FormatText, blocks, meta)
	}
	if err != nil {
		s.log.Error("export failed", "format", format, "error", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", ex.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+ex.Filename(meta)+`"`)
	w.Header().Set("ETag", `"`+session.ContentHash(out)+`"`)
	_, _ = w.Write(out)
}

func (s *Server) exportWith(f export.Format, blocks []doctree.Block, meta doctree.Metadata) (export.Exporter, []byte, error) {
	ex, err := s.newExporter(f)
	if err != nil {
		return nil, nil, err
	}
	out, err := ex.Export(blocks, meta)
	if err != nil {
		return nil, nil, err
	}
	return ex, out, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"backend": s.backend.CheckHealth(r.Context()),
	})
}
