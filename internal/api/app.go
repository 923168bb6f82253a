package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/cpayne/go-codecollab/internal/config"
	"github.com/cpayne/go-codecollab/internal/database"
	"github.com/cpayne/go-codecollab/internal/server"
	"github.com/gorilla/handlers"
	"github.com/teris-io/shortid"
)

type CollabApp struct {
	log            *log.Logger
	db             database.CollabRepository
	mux            *http.Server
	cs             *server.CollabServer
	signingKey     []byte
	allowedOrigins []string

	generateShortId func() (string, error)
}

func NewCollabApp(mux *http.ServeMux, logger *log.Logger, cs *server.CollabServer, db database.CollabRepository, cfg *config.Config) *CollabApp {
	s := &CollabApp{
		log:             logger,
		db:              db,
		cs:              cs,
		signingKey:      cfg.SigningKey,
		allowedOrigins:  cfg.AllowedOrigins,
		generateShortId: shortid.Generate,
	}

	mux.HandleFunc("POST /api/auth/register", s.createAccount)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/auth/session", s.authMiddleware(s.session))
	mux.Handle("GET /api/auth/logout", s.authMiddleware(s.logout))
	mux.Handle("/api/account", s.authMiddleware(s.account))
	mux.Handle("POST /api/projects", s.authMiddleware(s.createProject))
	mux.Handle("GET /api/projects", s.authMiddleware(s.getProject))
	mux.Handle("PUT /api/projects", s.authMiddleware(s.updateProject))
	mux.Handle("DELETE /api/projects", s.authMiddleware(s.deleteProject))
	mux.Handle("PUT /api/projects/content", s.authMiddleware(s.updateProjectContent))
	mux.Handle("GET /api/projects/versions", s.authMiddleware(s.getProjectVersions))
	mux.Handle("POST /api/collaborators", s.authMiddleware(s.addCollaborator))
	mux.Handle("DELETE /api/collaborators", s.authMiddleware(s.removeCollaborator))
	mux.Handle("GET /api/collaborators", s.authMiddleware(s.getCollaborators))
	// The websocket endpoint is deliberately outside authMiddleware: a
	// connection without a verified identity is still accepted, it just
	// cannot join rooms or route events.
	mux.HandleFunc("GET /ws", s.serveWs)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *CollabApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *CollabApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
