package webhook

import (
	"net/http"

	"go.uber.org/zap"

	"CatalogHooks/pkg/kit"
)

const maxBodyBytes = 1 << 16

type Server struct {
	Registry *Registry
	Log      *zap.Logger
}

type registerReq struct {
	URL string `json:"url"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := kit.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	sub := s.Registry.Register(req.URL)
	if s.Log != nil {
		s.Log.Info("webhook registered", zap.String("subscriber_id", sub.ID), zap.String("url", sub.URL))
	}

	kit.WriteJSON(w, http.StatusCreated, sub)
}

func (s *Server) RegisterHandler() http.HandlerFunc { return s.handleRegister }
