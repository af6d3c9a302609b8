package auth

import (
	"net/http"

	"go.uber.org/zap"

	"CatalogHooks/pkg/kit"
)

const maxBodyBytes = 1 << 20

type Server struct {
	Log *zap.Logger
	JWT *TokenMaker
}

type loginReq struct {
	User string `json:"user"`
}

type loginResp struct {
	Token string `json:"token"`
}

// handleLogin hands out a token for whatever user is named. There is no
// account store behind it.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := kit.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	tok, err := s.JWT.Issue(req.User)
	if err != nil {
		s.Log.Error("token issue", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, loginResp{Token: tok})
}

func (s *Server) LoginHandler() http.HandlerFunc { return s.handleLogin }
