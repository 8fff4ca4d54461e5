package httpapi

import (
	"net/http"
	"time"

	"marvelcdc/internal/model"
)

type packResponse struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Released string `json:"released,omitempty"`
	Position int    `json:"position"`
}

func toPackResponse(p model.Pack) packResponse {
	resp := packResponse{
		Code:     p.Code,
		Name:     p.Name,
		Type:     p.Type,
		Position: p.Position,
	}
	if !p.Released.IsZero() {
		resp.Released = p.Released.Format(time.DateOnly)
	}
	return resp
}

// ListPacks handles GET /api/packs. Public reference data.
func (s *Server) ListPacks(w http.ResponseWriter, r *http.Request) {
	packs, err := s.catalog.ListPacks(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	resp := make([]packResponse, 0, len(packs))
	for _, p := range packs {
		resp = append(resp, toPackResponse(p))
	}
	jsonResponse(w, http.StatusOK, map[string]any{"packs": resp})
}
