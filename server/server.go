package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Vibe/logger"

	"github.com/gorilla/mux"
)

// NewRouter registers every API route on a gorilla/mux router.
func NewRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(CORSMiddleware)
	// preflight; CORSMiddleware answers it once a route matches
	router.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	// auth
	router.HandleFunc("/api/auth/register", h.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", h.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/me", h.AuthMiddleware(h.MeHandler)).Methods(http.MethodGet)

	router.HandleFunc("/api/ask", h.AskHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/recommendations", h.AuthMiddleware(h.RecommendationsHandler)).Methods(http.MethodPost)

	router.HandleFunc("/api/upload/{kind}", h.AuthMiddleware(h.UploadHandler)).Methods(http.MethodPost)

	router.HandleFunc("/api/tracks", h.GetTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks", h.AuthMiddleware(h.UploadTrackHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/tracks/{id}", h.GetTrackHandler).Methods(http.MethodGet)

	router.HandleFunc("/api/likes", h.AuthMiddleware(h.GetLikesHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/likes/{trackId}/toggle", h.AuthMiddleware(h.ToggleLikeHandler)).Methods(http.MethodPost)

	router.HandleFunc("/api/playlists", h.AuthMiddleware(h.PlaylistsHandler)).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/api/playlists/{id}", h.AuthMiddleware(h.PlaylistHandler)).Methods(http.MethodPut, http.MethodDelete)
	router.HandleFunc("/api/playlists/{id}/tracks", h.AuthMiddleware(h.AddPlaylistTrackHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playlists/{id}/tracks/{trackId}", h.AuthMiddleware(h.RemovePlaylistTrackHandler)).Methods(http.MethodDelete)

	// player
	router.HandleFunc("/api/player", h.AuthMiddleware(h.PlayerStateHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/player/recent", h.AuthMiddleware(h.RecentHandler)).Methods(http.MethodGet, http.MethodDelete)
	router.HandleFunc("/api/player/events", h.AuthMiddleware(h.PlayerEventHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/player/{command}", h.AuthMiddleware(h.PlayerCommandHandler)).Methods(http.MethodPost)
	router.HandleFunc("/ws/player", h.AuthMiddleware(h.PlayerSocketHandler)).Methods(http.MethodGet)

	return router
}

// Serve runs an HTTP server on addr until SIGINT/SIGTERM, then shuts it
// down gracefully.
func Serve(addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", logger.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
