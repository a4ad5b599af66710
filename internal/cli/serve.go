package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cyclesolver/pkg/errors"
	"github.com/matzehuels/cyclesolver/pkg/solver"
)

// serveCommand creates the HTTP API command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the solve API server",
		Long: `Run the solve API server.

Endpoints:

  POST /v1/solve    solve a cycle-structure target
  GET  /v1/healthz  liveness probe

Requests are independent and may run concurrently; results are served from
the shared cache and archive when available.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.newSolver(cmd.Context(), noCache)
			if err != nil {
				return err
			}
			defer s.Close(cmd.Context())

			srv := &http.Server{
				Addr:              addr,
				Handler:           c.newRouter(s),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			c.Logger.Info("listening", "addr", addr)

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// newRouter builds the API router.
func (c *CLI) newRouter(s *solver.Solver) http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(c.requestLogger)

	r.Get("/v1/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/v1/solve", c.handleSolve(s))

	return r
}

// requestID assigns each request a UUID, honoring a caller-provided one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := req.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, req)
	})
}

// requestLogger logs each request and attaches a request-scoped logger.
func (c *CLI) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		l := c.Logger.With("request_id", w.Header().Get("X-Request-ID"))
		next.ServeHTTP(w, req.WithContext(withLogger(req.Context(), l)))
		l.Debug("handled", "method", req.Method, "path", req.URL.Path,
			"duration", time.Since(start).Round(time.Millisecond))
	})
}

// solveRequest is the POST /v1/solve body.
type solveRequest struct {
	Puzzle    string `json:"puzzle"`
	Registers string `json:"registers"`
	Cycles    string `json:"cycles"`
	Workers   int    `json:"workers"`
	MaxBound  int    `json:"max_bound"`
	Refresh   bool   `json:"refresh"`
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *CLI) handleSolve(s *solver.Solver) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body solveRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Code: string(errors.ErrCodeInvalidTarget), Message: "malformed request body",
			})
			return
		}

		def, err := puzzleByName(body.Puzzle)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Code: string(errors.ErrCodeInvalidPuzzle), Message: err.Error(),
			})
			return
		}
		target, err := parseTarget(def, body.Registers, body.Cycles)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Code: string(errors.ErrCodeInvalidTarget), Message: errors.UserMessage(err),
			})
			return
		}

		res, err := s.Execute(req.Context(), solver.Options{
			Definition:   def,
			Target:       target,
			Workers:      pickInt(body.Workers, c.Config.Workers),
			MaxBound:     pickInt(body.MaxBound, c.Config.MaxBound),
			MemoryBudget: c.Config.MemoryBudget(),
			Refresh:      body.Refresh,
		})
		if err != nil {
			loggerFromContext(req.Context()).Warn("solve failed", "err", err)
			writeJSON(w, statusForError(err), errorResponse{
				Code:    string(errors.GetCode(err)),
				Message: errors.UserMessage(err),
			})
			return
		}

		out := solveJSON{
			Puzzle:    def.Name(),
			Target:    target.Key(),
			Algorithm: res.Best.Notation,
			Length:    res.Length,
			Score:     res.Best.Score,
			Stats:     res.Stats,
			CacheInfo: res.CacheInfo,
		}
		for _, sol := range res.Ranked {
			out.Solutions = append(out.Solutions, sol.Notation)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// statusForError maps the failure taxonomy onto HTTP statuses.
func statusForError(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidPuzzle, errors.ErrCodeInvalidTarget, errors.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case errors.ErrCodeUnreachableTarget:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeAborted:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
