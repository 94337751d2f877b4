package http

import (
	"context"
	"net/http"
	"strings"

	"cofre/internal/core"
)

func (s *Server) handleListBoxes(w http.ResponseWriter, r *http.Request) {
	includeInactive, err := ParseBool(r.URL.Query(), "include_inactive")
	if err != nil {
		writeError(w, r, err)
		return
	}
	boxes, err := s.deps.SavingsBoxes.List(r.Context(), ownerID(r), includeInactive)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(newBoxResponses(boxes)).Write(w)
}

func (s *Server) handleCreateBox(w http.ResponseWriter, r *http.Request) {
	var req boxRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, r, err)
		return
	}
	box, err := s.deps.SavingsBoxes.Create(r.Context(), ownerID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	Created(newBoxResponse(box)).Write(w)
}

func (s *Server) handleGetBox(w http.ResponseWriter, r *http.Request) {
	box, err := s.deps.SavingsBoxes.Get(r.Context(), ownerID(r), pathID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(newBoxResponse(box)).Write(w)
}

func (s *Server) handleUpdateBox(w http.ResponseWriter, r *http.Request) {
	var req boxPatchRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := req.patch()
	if err != nil {
		writeError(w, r, err)
		return
	}
	box, err := s.deps.SavingsBoxes.Update(r.Context(), ownerID(r), pathID(r), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(newBoxResponse(box)).Write(w)
}

// handleDeleteBox soft-deletes: the box stays readable but inactive.
func (s *Server) handleDeleteBox(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if err := s.deps.SavingsBoxes.Delete(r.Context(), ownerID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	OK(deletedResponse{ID: id, Deleted: true}).Write(w)
}

func (s *Server) handleDepositBox(w http.ResponseWriter, r *http.Request) {
	s.moveBoxMoney(w, r, s.deps.SavingsBoxes.Deposit)
}

func (s *Server) handleWithdrawBox(w http.ResponseWriter, r *http.Request) {
	s.moveBoxMoney(w, r, s.deps.SavingsBoxes.Withdraw)
}

func (s *Server) moveBoxMoney(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, ownerID, id string, amount core.Money) (core.SavingsBox, error)) {
	var req amountRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := moneyOrZero(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	box, err := op(r.Context(), ownerID(r), pathID(r), amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(newBoxResponse(box)).Write(w)
}

func (s *Server) handleTransferBoxes(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.FromID) == "" || strings.TrimSpace(req.ToID) == "" {
		writeError(w, r, core.ErrMissingID)
		return
	}
	amount, err := moneyOrZero(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	from, to, err := s.deps.SavingsBoxes.Transfer(r.Context(), ownerID(r), req.FromID, req.ToID, amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(transferResponse{From: newBoxResponse(from), To: newBoxResponse(to)}).Write(w)
}

func (s *Server) handleBoxStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.SavingsBoxes.Stats(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(newBoxStatsResponse(stats)).Write(w)
}
