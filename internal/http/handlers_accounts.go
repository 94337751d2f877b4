package http

import "net/http"

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.deps.Accounts.List(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(newAccountResponses(accounts)).Write(w)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	account, err := s.deps.Accounts.Create(r.Context(), ownerID(r), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	Created(newAccountResponse(account)).Write(w)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.deps.Accounts.Get(r.Context(), ownerID(r), pathID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(newAccountResponse(account)).Write(w)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountPatchRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	account, err := s.deps.Accounts.Update(r.Context(), ownerID(r), pathID(r), req.patch())
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(newAccountResponse(account)).Write(w)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if err := s.deps.Accounts.Delete(r.Context(), ownerID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	OK(deletedResponse{ID: id, Deleted: true}).Write(w)
}

// handleReprojectAccount recomputes the stored balance on demand. Unlike the
// write paths, a projection failure here is reported to the caller.
func (s *Server) handleReprojectAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.deps.Accounts.Reproject(r.Context(), ownerID(r), pathID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(newAccountResponse(account)).Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.deps.Categories.List(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(newCategoryResponses(categories)).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	category, err := s.deps.Categories.Create(r.Context(), ownerID(r), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	Created(newCategoryResponse(category)).Write(w)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := s.deps.Categories.Get(r.Context(), ownerID(r), pathID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(newCategoryResponse(category)).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryPatchRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	category, err := s.deps.Categories.Update(r.Context(), ownerID(r), pathID(r), req.patch())
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(newCategoryResponse(category)).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if err := s.deps.Categories.Delete(r.Context(), ownerID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	OK(deletedResponse{ID: id, Deleted: true}).Write(w)
}
