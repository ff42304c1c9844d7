// Command symforms exposes the form-generation engine on the command
// line and over HTTP.
//
// Usage:
//
//	symforms serve --port 8080
//	symforms forms expr.json
//
// HTTP endpoints:
//
//	POST /canonicalize  body {"expr": <tree>}
//	POST /simplify      body {"expr": <tree>}
//	POST /forms         body {"expr": <tree>}
//	POST /select        body {"candidates": [<tree>, ...]}
//	GET  /health
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v3"

	"github.com/symgo/symforms"
)

const maxBodyBytes = 1 << 20 // 1 MiB

func main() {
	cmd := &cli.Command{
		Name:  "symforms",
		Usage: "generate and rank equivalent forms of algebraic expressions",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn, or error"},
		},
		Commands: []*cli.Command{
			serveCommand(),
			formsCommand(),
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "symforms:", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: lvl}))
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP form-generation server",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "port to listen on"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := newLogger(cmd.String("log-level"))
			addr := fmt.Sprintf(":%d", cmd.Int("port"))

			r := chi.NewRouter()
			r.Use(requestLogger(log))
			r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			})
			r.Post("/canonicalize", exprHandler(log, symforms.Canonicalize))
			r.Post("/simplify", exprHandler(log, symforms.TrigSimplify))
			r.Post("/forms", formsHandler(log))
			r.Post("/select", selectHandler(log))

			srv := &http.Server{
				Addr:              addr,
				Handler:           r,
				ReadHeaderTimeout: 5 * time.Second,
			}
			log.Info("listening", "addr", addr)
			return srv.ListenAndServe()
		},
	}
}

func formsCommand() *cli.Command {
	return &cli.Command{
		Name:      "forms",
		Usage:     "generate all forms of the expression tree in FILE",
		ArgsUsage: "FILE",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := newLogger(cmd.String("log-level"))
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one FILE argument")
			}
			data, err := os.ReadFile(cmd.Args().First())
			if err != nil {
				return err
			}
			expr, err := symforms.UnmarshalExpr(data)
			if err != nil {
				return err
			}
			forms, diag := symforms.GenerateMultipleFormsVerbose(expr)
			if diag != nil {
				log.Warn("some strategies degraded", "err", diag)
			}
			best, err := bestOf(forms)
			if err != nil {
				return err
			}
			for _, f := range forms {
				marker := " "
				if f.Expr.Equal(best) {
					marker = "*"
				}
				fmt.Printf("%s [%s] %s\n    %s\n", marker, f.Kind, f.Label, f.Expr)
			}
			return nil
		},
	}
}

func bestOf(forms []symforms.Form) (symforms.Expr, error) {
	candidates := make([]symforms.Expr, len(forms))
	for i, f := range forms {
		candidates[i] = f.Expr
	}
	return symforms.SelectBestForDifferentiation(candidates)
}

// ============================================================
// HTTP plumbing
// ============================================================

type exprRequest struct {
	Expr json.RawMessage `json:"expr"`
}

type selectRequest struct {
	Candidates []json.RawMessage `json:"candidates"`
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"dur", time.Since(start))
		})
	}
}

func exprHandler(log *slog.Logger, transform func(symforms.Expr) symforms.Expr) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer recoverHandler(log, w)
		expr, ok := decodeExpr(w, r)
		if !ok {
			return
		}
		writeExpr(w, transform(expr))
	}
}

func formsHandler(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer recoverHandler(log, w)
		expr, ok := decodeExpr(w, r)
		if !ok {
			return
		}
		forms, diag := symforms.GenerateMultipleFormsVerbose(expr)
		if diag != nil {
			log.Warn("some strategies degraded", "err", diag)
		}
		out := make([]map[string]interface{}, len(forms))
		for i, f := range forms {
			tree, err := symforms.MarshalExpr(f.Expr)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			out[i] = map[string]interface{}{
				"kind":   f.Kind.String(),
				"label":  f.Label,
				"expr":   json.RawMessage(tree),
				"string": f.Expr.String(),
			}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"forms": out})
	}
}

func selectHandler(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer recoverHandler(log, w)
		var req selectRequest
		if !decodeBody(w, r, &req) {
			return
		}
		candidates := make([]symforms.Expr, 0, len(req.Candidates))
		for i, raw := range req.Candidates {
			e, err := symforms.UnmarshalExpr(raw)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{
					"error": fmt.Sprintf("candidates[%d]: %v", i, err),
				})
				return
			}
			candidates = append(candidates, e)
		}
		best, err := symforms.SelectBestForDifferentiation(candidates)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeExpr(w, best)
	}
}

func recoverHandler(log *slog.Logger, w http.ResponseWriter) {
	if rec := recover(); rec != nil {
		log.Error("panic in handler", "panic", rec, "stack", string(debug.Stack()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func decodeExpr(w http.ResponseWriter, r *http.Request) (symforms.Expr, bool) {
	var req exprRequest
	if !decodeBody(w, r, &req) {
		return nil, false
	}
	expr, err := symforms.UnmarshalExpr(req.Expr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return nil, false
	}
	return expr, true
}

func writeExpr(w http.ResponseWriter, e symforms.Expr) {
	tree, err := symforms.MarshalExpr(e)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"expr":   json.RawMessage(tree),
		"string": e.String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
