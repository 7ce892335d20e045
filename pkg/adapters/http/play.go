package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aretw0/storyboard"
	"github.com/aretw0/storyboard/internal/runtime"
	"github.com/aretw0/storyboard/pkg/domain"
	"github.com/aretw0/storyboard/pkg/session"
	"github.com/go-chi/chi/v5"
)

type playFunc func(ctx context.Context, sess *storyboard.Session) (domain.Snapshot, error)

// play runs op on a session of the requested act. Sessions are rebuilt from
// the progress store on every request. op may carry the session into another
// act, so the whole scenario is locked.
func (s *Server) play(w http.ResponseWriter, r *http.Request, op playFunc) {
	sc, ok := s.loadOrFail(w, r)
	if !ok {
		return
	}
	actID := chi.URLParam(r, "act")

	var (
		snap  domain.Snapshot
		opErr error
	)
	err := s.sessions.WithScenario(r.Context(), sc.ID, func(ctx context.Context) error {
		sess, err := s.player.Play(ctx, sc, actID)
		if err != nil {
			return err
		}
		snap, opErr = op(ctx, sess)
		return nil
	})
	if err != nil {
		s.logger.Error("play request failed", "scenario", sc.ID, "act", actID, "err", err)
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
		return
	}

	var invalid *runtime.InvalidOperationError
	if errors.As(opErr, &invalid) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:    "invalid_operation",
			Message:  invalid.Error(),
			Snapshot: &snap,
		})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// mutate is play for operations that change state. Stream subscribers of
// the requested act, and of the act the session ended in, receive the
// resulting snapshot.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, op playFunc) {
	actID := chi.URLParam(r, "act")
	s.play(w, r, func(ctx context.Context, sess *storyboard.Session) (domain.Snapshot, error) {
		snap, err := op(ctx, sess)
		if err != nil {
			return snap, err
		}
		s.streams.Broadcast(session.Key(snap.ScenarioID, actID), snap)
		if snap.ActID != actID {
			s.streams.Broadcast(session.Key(snap.ScenarioID, snap.ActID), snap)
		}
		return snap, nil
	})
}

// GetSnapshot handles GET /play/{id}/{act}.
func (s *Server) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	s.play(w, r, func(ctx context.Context, sess *storyboard.Session) (domain.Snapshot, error) {
		return sess.Snapshot(ctx), nil
	})
}

// Advance handles POST /play/{id}/{act}/advance.
func (s *Server) Advance(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(ctx context.Context, sess *storyboard.Session) (domain.Snapshot, error) {
		return sess.Advance(ctx)
	})
}

type chooseRequest struct {
	Index *int `json:"index"`
}

// Choose handles POST /play/{id}/{act}/choose with body {"index": n}.
func (s *Server) Choose(w http.ResponseWriter, r *http.Request) {
	var body chooseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Index == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", errors.New("body must be {\"index\": <int>}"))
		return
	}
	s.mutate(w, r, func(ctx context.Context, sess *storyboard.Session) (domain.Snapshot, error) {
		return sess.Choose(ctx, *body.Index)
	})
}

type gotoRequest struct {
	NodeID string `json:"nodeId"`
}

// Goto handles POST /play/{id}/{act}/goto with body {"nodeId": "..."}.
func (s *Server) Goto(w http.ResponseWriter, r *http.Request) {
	var body gotoRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.NodeID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", errors.New("body must be {\"nodeId\": <string>}"))
		return
	}
	s.mutate(w, r, func(ctx context.Context, sess *storyboard.Session) (domain.Snapshot, error) {
		return sess.Goto(ctx, body.NodeID)
	})
}

// Reset handles POST /play/{id}/{act}/reset.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(ctx context.Context, sess *storyboard.Session) (domain.Snapshot, error) {
		return sess.ResetAct(ctx), nil
	})
}
