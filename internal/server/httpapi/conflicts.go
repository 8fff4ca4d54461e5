package httpapi

import (
	"net/http"

	"github.com/gofrs/uuid/v5"
)

type resolveRequest struct {
	DeckIDs []string `json:"deckIds"`
}

// GetConflicts handles GET /api/conflicts.
func (s *Server) GetConflicts(w http.ResponseWriter, r *http.Request) {
	conflicts, err := s.conflicts.Calculate(r.Context(), currentUserID(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"conflicts": conflicts})
}

// ResolveConflicts handles POST /api/conflicts/resolve.
func (s *Server) ResolveConflicts(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ids := make([]uuid.UUID, 0, len(req.DeckIDs))
	for _, raw := range req.DeckIDs {
		id, err := uuid.FromString(raw)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid deck id: "+raw)
			return
		}
		ids = append(ids, id)
	}
	res, err := s.conflicts.Resolve(r.Context(), currentUserID(r.Context()), ids)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, res)
}
