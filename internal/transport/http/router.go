// SPDX-License-Identifier: Apache-2.0

package httptransport

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flowdeck/console/internal/blocker"
	"github.com/flowdeck/console/internal/domain"
	"github.com/flowdeck/console/internal/eventstore"
	"github.com/flowdeck/console/internal/metrics"
	"github.com/flowdeck/console/internal/orchestrator"
	"github.com/flowdeck/console/internal/pipeline"
	"github.com/flowdeck/console/internal/transport/middleware"
)

type selectRequest struct {
	WorkflowID string `json:"workflow_id"`
}

type rejectRequest struct {
	Feedback string `json:"feedback"`
}

type setPlanRequest struct {
	PlanFile    string `json:"plan_file"`
	PlanContent string `json:"plan_content"`
}

type fixRequest struct {
	Instruction string `json:"instruction"`
}

type armAbortRequest struct {
	RevertBatch bool `json:"revert_batch"`
}

type cascadePreview struct {
	IDs   []string `json:"ids"`
	Count int      `json:"count"`
}

type blockerView struct {
	WorkflowID string               `json:"workflow_id"`
	Report     domain.BlockerReport `json:"report"`
	State      blocker.State        `json:"state"`
	LastError  string               `json:"last_error,omitempty"`
	Cascade    *cascadePreview      `json:"cascade,omitempty"`
}

type Deps struct {
	Store          EventView
	Orchestrator   WorkflowFetcher
	Commands       Commander
	Pending        PendingReader
	Blockers       BlockerSessions
	Notifications  NotificationReader
	Health         HealthChecker
	Logger         *slog.Logger
	AdminToken     string
	CommandsPerMin int
	Version        string
	Commit         string
	BuildDate      string
}

func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics.Init()
	version := valueOrDefault(deps.Version, "dev")
	commit := valueOrDefault(deps.Commit, "none")
	buildDate := valueOrDefault(deps.BuildDate, "unknown")

	r := chi.NewRouter()
	r.Use(requestIDMiddleware())
	r.Use(requestLoggingMiddleware(logger))

	// ---------------- HEALTH ----------------

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Health != nil {
			if err := deps.Health.Check(r.Context()); err != nil {
				logger.Error("health check failed", "error", err)
				http.Error(w, "degraded", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// ---------------- METRICS ----------------

	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// ---------------- VERSION ----------------

	r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version":    version,
			"commit":     commit,
			"build_date": buildDate,
		})
	})

	// ---------------- STATUS ----------------

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		connected, connError := deps.Store.Connection()
		pending := 0
		if deps.Pending != nil {
			pending = deps.Pending.Len()
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"connected":            connected,
			"connection_error":     connError,
			"selected_workflow_id": deps.Store.Selected(),
			"last_event_id":        deps.Store.LastEventID(),
			"pending_actions":      pending,
		})
	})

	r.Route("/workflows/{id}", func(wf chi.Router) {
		// ---------------- READ VIEWS ----------------

		wf.Get("/pipeline", func(w http.ResponseWriter, r *http.Request) {
			workflowID := chi.URLParam(r, "id")

			detail, err := deps.Orchestrator.GetWorkflow(r.Context(), workflowID)
			if err != nil {
				writeFetchError(w, logger, workflowID, err)
				return
			}

			// Build is total: a workflow without a plan yields a null
			// pipeline, not an error.
			writeJSON(w, http.StatusOK, map[string]any{
				"workflow_id": workflowID,
				"status":      detail.Status,
				"pipeline":    pipeline.Build(detail),
			})
		})

		wf.Get("/events", func(w http.ResponseWriter, r *http.Request) {
			workflowID := chi.URLParam(r, "id")
			live := deps.Store.Events(workflowID)

			// The merged view survives an unreachable orchestrator: the
			// initial-load half degrades to empty and live events still
			// render. Only a definite not-found is an error.
			var initial []domain.WorkflowEvent
			detail, err := deps.Orchestrator.GetWorkflow(r.Context(), workflowID)
			switch {
			case err == nil:
				initial = detail.RecentEvents
			case isNotFound(err):
				http.Error(w, "workflow not found", http.StatusNotFound)
				return
			default:
				logger.Warn("initial load unavailable, serving live events only",
					"workflow_id", workflowID,
					"error", err,
				)
			}

			merged := eventstore.Merge(initial, live)
			writeJSON(w, http.StatusOK, map[string]any{
				"workflow_id": workflowID,
				"events":      merged,
				"count":       len(merged),
			})
		})

		wf.Get("/blocker", func(w http.ResponseWriter, r *http.Request) {
			workflowID := chi.URLParam(r, "id")

			detail, err := deps.Orchestrator.GetWorkflow(r.Context(), workflowID)
			if err != nil {
				writeFetchError(w, logger, workflowID, err)
				return
			}
			if detail.CurrentBlocker == nil {
				http.Error(w, "no open blocker", http.StatusNotFound)
				return
			}

			session := deps.Blockers.Open(workflowID, *detail.CurrentBlocker, blocker.CascadeFor(detail))
			writeJSON(w, http.StatusOK, blockerViewOf(session))
		})

		// ---------------- COMMANDS AND RESOLUTIONS ----------------

		wf.Group(func(cmd chi.Router) {
			if strings.TrimSpace(deps.AdminToken) != "" {
				cmd.Use(middleware.AdminTokenAuth(deps.AdminToken, logger))
			}
			cmd.Use(middleware.CommandRateLimit(deps.CommandsPerMin))

			cmd.Post("/approve", func(w http.ResponseWriter, r *http.Request) {
				workflowID := chi.URLParam(r, "id")
				if err := deps.Commands.Approve(r.Context(), workflowID); err != nil {
					writeCommandError(w, logger, workflowID, err)
					return
				}
				writeJSON(w, http.StatusOK, map[string]string{
					"workflow_id": workflowID,
					"result":      "approved",
				})
			})

			cmd.Post("/reject", func(w http.ResponseWriter, r *http.Request) {
				workflowID := chi.URLParam(r, "id")
				var req rejectRequest
				if err := decodeBody(r, &req); err != nil {
					http.Error(w, "invalid request body", http.StatusBadRequest)
					return
				}
				if err := deps.Commands.Reject(r.Context(), workflowID, req.Feedback); err != nil {
					writeCommandError(w, logger, workflowID, err)
					return
				}
				writeJSON(w, http.StatusOK, map[string]string{
					"workflow_id": workflowID,
					"result":      "rejected",
				})
			})

			cmd.Post("/cancel", func(w http.ResponseWriter, r *http.Request) {
				workflowID := chi.URLParam(r, "id")
				if err := deps.Commands.Cancel(r.Context(), workflowID); err != nil {
					writeCommandError(w, logger, workflowID, err)
					return
				}
				writeJSON(w, http.StatusOK, map[string]string{
					"workflow_id": workflowID,
					"result":      "cancelled",
				})
			})

			cmd.Post("/start", func(w http.ResponseWriter, r *http.Request) {
				workflowID := chi.URLParam(r, "id")
				result, err := deps.Commands.Start(r.Context(), workflowID)
				if err != nil {
					writeCommandError(w, logger, workflowID, err)
					return
				}
				writeJSON(w, http.StatusOK, result)
			})

			cmd.Post("/plan", func(w http.ResponseWriter, r *http.Request) {
				workflowID := chi.URLParam(r, "id")
				var req setPlanRequest
				if err := decodeBody(r, &req); err != nil {
					http.Error(w, "invalid request body", http.StatusBadRequest)
					return
				}
				req.PlanFile = strings.TrimSpace(req.PlanFile)
				if req.PlanFile == "" && strings.TrimSpace(req.PlanContent) == "" {
					http.Error(w, "plan_file or plan_content required", http.StatusBadRequest)
					return
				}

				summary, err := deps.Commands.SetPlan(r.Context(), workflowID, domain.PlanSubmission{
					PlanFile:    req.PlanFile,
					PlanContent: req.PlanContent,
				})
				if err != nil {
					writeCommandError(w, logger, workflowID, err)
					return
				}
				writeJSON(w, http.StatusOK, summary)
			})

			// Registered as flat paths rather than a nested
			// cmd.Route("/blocker", ...): mounting a subrouter at
			// /blocker would shadow the sibling GET /blocker view
			// above, turning it into a 404.
			cmd.Post("/blocker/retry", resolutionHandler(deps, logger, func(r *http.Request, session *blocker.Session) error {
				return session.Retry(r.Context())
			}))

			cmd.Post("/blocker/skip", resolutionHandler(deps, logger, func(r *http.Request, session *blocker.Session) error {
				return session.Skip(r.Context())
			}))

			cmd.Post("/blocker/fix", resolutionHandler(deps, logger, func(r *http.Request, session *blocker.Session) error {
				var req fixRequest
				if err := decodeBody(r, &req); err != nil {
					return errBadRequestBody
				}
				return session.ApplyFix(r.Context(), req.Instruction)
			}))

			cmd.Post("/blocker/abort/arm", resolutionHandler(deps, logger, func(r *http.Request, session *blocker.Session) error {
				var req armAbortRequest
				if err := decodeBody(r, &req); err != nil {
					return errBadRequestBody
				}
				return session.ArmAbort(req.RevertBatch)
			}))

			cmd.Post("/blocker/abort/disarm", resolutionHandler(deps, logger, func(r *http.Request, session *blocker.Session) error {
				session.DisarmAbort()
				return nil
			}))

			cmd.Post("/blocker/abort/confirm", resolutionHandler(deps, logger, func(r *http.Request, session *blocker.Session) error {
				return session.ConfirmAbort(r.Context())
			}))

			cmd.Post("/blocker/close", func(w http.ResponseWriter, r *http.Request) {
				deps.Blockers.Close(chi.URLParam(r, "id"))
				w.WriteHeader(http.StatusNoContent)
			})
		})
	})

	// ---------------- SELECTION ----------------

	r.Group(func(sel chi.Router) {
		if strings.TrimSpace(deps.AdminToken) != "" {
			sel.Use(middleware.AdminTokenAuth(deps.AdminToken, logger))
		}

		sel.Put("/selected", func(w http.ResponseWriter, r *http.Request) {
			var req selectRequest
			if err := decodeBody(r, &req); err != nil {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}

			// An empty workflow_id clears the selection.
			deps.Store.SelectWorkflow(strings.TrimSpace(req.WorkflowID))
			writeJSON(w, http.StatusOK, map[string]string{
				"selected_workflow_id": deps.Store.Selected(),
			})
		})
	})

	// ---------------- NOTIFICATIONS ----------------

	r.Get("/notifications", func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		items := deps.Notifications.Recent(limit)
		writeJSON(w, http.StatusOK, map[string]any{
			"notifications": items,
			"count":         len(items),
		})
	})

	return r
}

func resolutionHandler(
	deps Deps,
	logger *slog.Logger,
	resolve func(*http.Request, *blocker.Session) error,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workflowID := chi.URLParam(r, "id")

		session, ok := deps.Blockers.Get(workflowID)
		if !ok {
			http.Error(w, "no open blocker", http.StatusNotFound)
			return
		}

		if err := resolve(r, session); err != nil {
			writeResolutionError(w, logger, workflowID, err)
			return
		}

		writeJSON(w, http.StatusOK, blockerViewOf(session))
	}
}

func blockerViewOf(session *blocker.Session) blockerView {
	view := blockerView{
		WorkflowID: session.WorkflowID(),
		Report:     session.Report(),
		State:      session.State(),
		LastError:  session.LastError(),
	}
	if ids, count, present := session.CascadePreview(); present {
		view.Cascade = &cascadePreview{IDs: ids, Count: count}
	}
	return view
}

var errBadRequestBody = errors.New("invalid request body")

func writeFetchError(w http.ResponseWriter, logger *slog.Logger, workflowID string, err error) {
	if isNotFound(err) {
		http.Error(w, "workflow not found", http.StatusNotFound)
		return
	}
	logger.Error("workflow fetch failed", "workflow_id", workflowID, "error", err)
	http.Error(w, "orchestrator unavailable", http.StatusBadGateway)
}

func writeCommandError(w http.ResponseWriter, logger *slog.Logger, workflowID string, err error) {
	switch {
	case errors.Is(err, domain.ErrActionInFlight):
		http.Error(w, "command already in flight", http.StatusConflict)
	case isNotFound(err):
		http.Error(w, "workflow not found", http.StatusNotFound)
	default:
		logger.Error("command dispatch failed", "workflow_id", workflowID, "error", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}

func writeResolutionError(w http.ResponseWriter, logger *slog.Logger, workflowID string, err error) {
	switch {
	case errors.Is(err, errBadRequestBody):
		http.Error(w, "invalid request body", http.StatusBadRequest)
	case errors.Is(err, domain.ErrEmptyFixInstruction):
		http.Error(w, "fix instruction must not be empty", http.StatusBadRequest)
	case errors.Is(err, domain.ErrAbortNotArmed):
		http.Error(w, "abort is not armed", http.StatusConflict)
	case errors.Is(err, domain.ErrBlockerResolved):
		http.Error(w, "blocker already resolved", http.StatusConflict)
	default:
		// The session keeps the error inline and stays open for another
		// attempt; the response mirrors that.
		logger.Error("blocker resolution failed", "workflow_id", workflowID, "error", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}

func isNotFound(err error) bool {
	if errors.Is(err, domain.ErrWorkflowNotFound) {
		return true
	}
	var apiErr *orchestrator.APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(r *http.Request, out any) error {
	if r == nil || r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	// Ensure there is only one JSON object.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain exactly one JSON object")
	}

	return nil
}

func valueOrDefault(value, defaultValue string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return defaultValue
	}
	return trimmed
}
