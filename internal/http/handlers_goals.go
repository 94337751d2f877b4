package http

import (
	"net/http"
	"strings"

	"cofre/internal/core"
)

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.deps.Goals.List(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(newGoalResponses(goals)).Write(w)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, r, err)
		return
	}
	goal, err := s.deps.Goals.Create(r.Context(), ownerID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	Created(newGoalResponse(goal)).Write(w)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	goal, err := s.deps.Goals.Get(r.Context(), ownerID(r), pathID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(newGoalResponse(goal)).Write(w)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalPatchRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := req.patch()
	if err != nil {
		writeError(w, r, err)
		return
	}
	goal, err := s.deps.Goals.Update(r.Context(), ownerID(r), pathID(r), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(newGoalResponse(goal)).Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if err := s.deps.Goals.Delete(r.Context(), ownerID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	OK(deletedResponse{ID: id, Deleted: true}).Write(w)
}

func (s *Server) handleContributeGoal(w http.ResponseWriter, r *http.Request) {
	var req contributeRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		writeError(w, r, core.ErrMissingID)
		return
	}
	amount, err := moneyOrZero(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	goal, err := s.deps.Goals.Contribute(r.Context(), ownerID(r), req.ID, amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(newGoalResponse(goal)).Write(w)
}
