package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fieldops/internal/model"
	"github.com/sells-group/fieldops/internal/service"
	"github.com/sells-group/fieldops/internal/store"
	"github.com/sells-group/fieldops/pkg/pdfgen"
	"github.com/sells-group/fieldops/pkg/places"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer e.Close()

		var placesClient places.Client
		if cfg.Places.Key != "" {
			placesClient = places.NewClient(cfg.Places.Key,
				places.WithBaseURL(cfg.Places.BaseURL),
				places.WithRateLimit(cfg.Places.RPS),
			)
		}
		pdfClient := pdfgen.NewClient(cfg.PDF.BaseURL,
			pdfgen.WithTimeout(time.Duration(cfg.PDF.TimeoutSecs)*time.Second),
		)

		api := &apiServer{
			env:    e,
			places: placesClient,
			pdf:    pdfClient,
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: api.routes(cfg.Server.AllowedOrigins),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

type apiServer struct {
	env    *env
	places places.Client
	pdf    pdfgen.Client
}

func (s *apiServer) routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/records/{kind}", func(r chi.Router) {
			r.Get("/", s.handleListRecords)
			r.Post("/", s.handleCreateRecord)
			r.Post("/check", s.handleCheckDuplicates)
			r.Get("/{id}", s.handleGetRecord)
			r.Put("/{id}", s.handleUpdateRecord)
			r.Delete("/{id}", s.handleDeleteRecord)
		})
		r.Route("/documents/{kind}", func(r chi.Router) {
			r.Get("/", s.handleListDocuments)
			r.Post("/", s.handleCreateDocument)
			r.Get("/{id}/pdf", s.handleDocumentPDF)
		})
		r.Get("/places/autocomplete", s.handleAutocomplete)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func recordKindParam(r *http.Request) (model.RecordKind, bool) {
	kind := model.RecordKind(chi.URLParam(r, "kind"))
	return kind, kind.Valid()
}

func documentKindParam(r *http.Request) (model.DocumentKind, bool) {
	kind := model.DocumentKind(chi.URLParam(r, "kind"))
	return kind, kind.Valid()
}

func (s *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	kind, ok := recordKindParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown record kind")
		return
	}

	var c model.Candidate
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c.Kind = kind
	c.ExcludeID = ""
	if r.URL.Query().Get("force") == "1" {
		c.IgnoreDuplicates = true
	}

	rec, err := s.env.records.Create(r.Context(), c)
	if err != nil {
		if dup, isDup := service.AsDuplicateError(err); isDup {
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":   "duplicate records found",
				"matches": dup.Matches,
			})
			return
		}
		zap.L().Error("create record", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "create failed")
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

func (s *apiServer) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	kind, ok := recordKindParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown record kind")
		return
	}

	var c model.Candidate
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c.Kind = kind

	rec, err := s.env.records.Update(r.Context(), chi.URLParam(r, "id"), c)
	if err != nil {
		if dup, isDup := service.AsDuplicateError(err); isDup {
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":   "duplicate records found",
				"matches": dup.Matches,
			})
			return
		}
		if errors.Is(err, service.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		zap.L().Error("update record", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "update failed")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (s *apiServer) handleCheckDuplicates(w http.ResponseWriter, r *http.Request) {
	kind, ok := recordKindParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown record kind")
		return
	}

	var c model.Candidate
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c.Kind = kind

	matches, err := s.env.records.FindDuplicates(r.Context(), c)
	if err != nil {
		zap.L().Error("check duplicates", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "check failed")
		return
	}
	if matches == nil {
		matches = []model.Record{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

func (s *apiServer) handleListRecords(w http.ResponseWriter, r *http.Request) {
	kind, ok := recordKindParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown record kind")
		return
	}

	// Exact-match filters short-circuit to an indexed lookup.
	for _, field := range []store.RecordField{store.FieldEmail, store.FieldPhone, store.FieldPlaceID} {
		if value := r.URL.Query().Get(string(field)); value != "" {
			records, err := s.env.store.FindRecordsByField(r.Context(), kind, field, value)
			if err != nil {
				zap.L().Error("find records", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "lookup failed")
				return
			}
			writeJSON(w, http.StatusOK, records)
			return
		}
	}

	records, err := s.env.store.ListRecords(r.Context(), kind)
	if err != nil {
		zap.L().Error("list records", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *apiServer) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	if _, ok := recordKindParam(r); !ok {
		writeError(w, http.StatusNotFound, "unknown record kind")
		return
	}

	rec, err := s.env.store.GetRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		zap.L().Error("get record", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "get failed")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *apiServer) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if _, ok := recordKindParam(r); !ok {
		writeError(w, http.StatusNotFound, "unknown record kind")
		return
	}

	if err := s.env.store.DeleteRecord(r.Context(), chi.URLParam(r, "id")); err != nil {
		zap.L().Error("delete record", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	kind, ok := documentKindParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown document kind")
		return
	}

	var in service.DocumentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := s.env.documents.Create(r.Context(), kind, in)
	if err != nil {
		zap.L().Error("create document", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "create failed")
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

func (s *apiServer) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	kind, ok := documentKindParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown document kind")
		return
	}

	docs, err := s.env.store.ListDocuments(r.Context(), kind)
	if err != nil {
		zap.L().Error("list documents", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *apiServer) handleDocumentPDF(w http.ResponseWriter, r *http.Request) {
	if _, ok := documentKindParam(r); !ok {
		writeError(w, http.StatusNotFound, "unknown document kind")
		return
	}

	doc, err := s.env.store.GetDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		zap.L().Error("get document", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "get failed")
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}

	pdf, err := s.pdf.Render(r.Context(), doc)
	if err != nil {
		zap.L().Error("render pdf", zap.Error(err))
		writeError(w, http.StatusBadGateway, "pdf rendering failed")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Number+".pdf"))
	_, _ = w.Write(pdf)
}

func (s *apiServer) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	if s.places == nil {
		writeError(w, http.StatusServiceUnavailable, "places lookup not configured")
		return
	}

	input := r.URL.Query().Get("input")
	if input == "" {
		writeError(w, http.StatusBadRequest, "input is required")
		return
	}

	suggestions, err := s.places.Autocomplete(r.Context(), input)
	if err != nil {
		zap.L().Error("places autocomplete", zap.Error(err))
		writeError(w, http.StatusBadGateway, "autocomplete failed")
		return
	}
	if suggestions == nil {
		suggestions = []places.Suggestion{}
	}

	writeJSON(w, http.StatusOK, suggestions)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
