package server

import (
	"encoding/json"
	"errors"
	"html/template"
	"mime"
	"net/http"

	"clausewise/internal/analysis"
	"clausewise/internal/config"
	"clausewise/internal/models"
	"clausewise/internal/parser"
	"clausewise/internal/report"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// in-memory part of a multipart upload; the rest spills to temp files
const multipartMemory = 32 << 20

type Server struct {
	builder *report.Builder
	cfg     config.ServerConfig
}

func New(builder *report.Builder, cfg config.ServerConfig) *Server {
	return &Server{builder: builder, cfg: cfg}
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(RequestLogger)
	router.Use(Recoverer)

	router.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	router.HandleFunc("/", indexHandler).Methods(http.MethodGet)
	router.HandleFunc("/analyze", s.analyzePageHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/analyze", s.analyzeHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/segment", s.segmentHandler).Methods(http.MethodPost)
	return router
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the decode and analysis error kinds onto HTTP statuses.
func statusFor(err error) (int, errorResponse) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, errorResponse{Error: "upload is too large", Kind: "too_large"}
	case errors.Is(err, parser.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, errorResponse{Error: parser.UserMessage(err), Kind: parser.Kind(err)}
	case errors.Is(err, parser.ErrDecodeFailure), errors.Is(err, parser.ErrEmptyContent):
		return http.StatusUnprocessableEntity, errorResponse{Error: parser.UserMessage(err), Kind: parser.Kind(err)}
	case errors.Is(err, analysis.ErrInvalidInput):
		return http.StatusUnprocessableEntity, errorResponse{Error: analysis.UserMessage(err), Kind: analysis.Kind(err)}
	case errors.Is(err, analysis.ErrAnalysisFailure):
		return http.StatusBadGateway, errorResponse{Error: analysis.UserMessage(err), Kind: analysis.Kind(err)}
	default:
		return http.StatusInternalServerError, errorResponse{Error: err.Error()}
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readInput accepts a multipart "file" upload or a "text" form field. The caller
// must call the returned cleanup func.
func (s *Server) readInput(w http.ResponseWriter, r *http.Request) (report.Input, func(), error) {
	noop := func() {}
	if s.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if err := r.ParseForm(); err != nil {
			return report.Input{}, noop, err
		}
		return report.Input{Text: r.PostFormValue("text")}, noop, nil
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return report.Input{}, noop, err
	}
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		cleanup := func() {
			file.Close()
			r.MultipartForm.RemoveAll()
		}
		return report.Input{Filename: header.Filename, Reader: file}, cleanup, nil
	case !errors.Is(err, http.ErrMissingFile):
		r.MultipartForm.RemoveAll()
		return report.Input{}, noop, err
	}
	return report.Input{Text: r.FormValue("text")}, func() { r.MultipartForm.RemoveAll() }, nil
}

func (s *Server) build(w http.ResponseWriter, r *http.Request) (*models.Report, error) {
	in, cleanup, err := s.readInput(w, r)
	defer cleanup()
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(r.Context()).Debug().Str("filename", in.Filename).Msg("Received document")
	return s.builder.Build(r.Context(), in)
}

func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	rep, err := s.build(w, r)
	if err != nil {
		status, body := statusFor(err)
		zerolog.Ctx(r.Context()).Error().Err(err).Int("status", status).Msg("Error analyzing document")
		writeJSON(w, status, body)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) analyzePageHandler(w http.ResponseWriter, r *http.Request) {
	rep, err := s.build(w, r)
	if err != nil {
		status, body := statusFor(err)
		zerolog.Ctx(r.Context()).Error().Err(err).Int("status", status).Msg("Error analyzing document")
		renderPage(w, r, status, pageData{Error: body.Error})
		return
	}
	body, err := report.HTML(rep)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Error rendering report")
		renderPage(w, r, http.StatusInternalServerError, pageData{Error: err.Error()})
		return
	}
	renderPage(w, r, http.StatusOK, pageData{Report: template.HTML(body)})
}

type segmentRequest struct {
	Text string `json:"text"`
}

type segmentResponse struct {
	Clauses []models.Clause `json:"clauses"`
}

func (s *Server) segmentHandler(w http.ResponseWriter, r *http.Request) {
	if s.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	}
	var req segmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			status, body := statusFor(err)
			writeJSON(w, status, body)
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}
	clauses := parser.SplitClauses(req.Text)
	if clauses == nil {
		clauses = []models.Clause{}
	}
	writeJSON(w, http.StatusOK, segmentResponse{Clauses: clauses})
}
