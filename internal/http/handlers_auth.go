package http

import "net/http"

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	session, err := s.deps.Auth.Register(r.Context(), req.Email, req.Password, sanitizeInput(req.Name))
	if err != nil {
		writeError(w, r, err)
		return
	}
	Created(newSessionResponse(session)).Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	session, err := s.deps.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(newSessionResponse(session)).Write(w)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.deps.Auth.CurrentUser(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(newUserResponse(user)).Write(w)
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req updateMeRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := s.deps.Auth.UpdateName(r.Context(), ownerID(r), sanitizeInput(req.Name))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(newUserResponse(user)).Write(w)
}
