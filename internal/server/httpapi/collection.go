package httpapi

import (
	"net/http"

	"marvelcdc/internal/model"
	"marvelcdc/internal/service"
)

type collectionEntryResponse struct {
	PackCode string `json:"packCode"`
	PackName string `json:"packName"`
	Quantity int    `json:"quantity"`
}

func toCollectionResponse(entries []model.CollectionEntry) []collectionEntryResponse {
	resp := make([]collectionEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, collectionEntryResponse{
			PackCode: e.PackCode,
			PackName: e.PackName,
			Quantity: e.Quantity,
		})
	}
	return resp
}

type collectionUpdateRequest struct {
	Updates []service.CollectionUpdate `json:"updates"`
}

// GetCollection handles GET /api/collection.
func (s *Server) GetCollection(w http.ResponseWriter, r *http.Request) {
	entries, err := s.collection.List(r.Context(), currentUserID(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"collection": toCollectionResponse(entries)})
}

// UpdateCollection handles PUT /api/collection.
func (s *Server) UpdateCollection(w http.ResponseWriter, r *http.Request) {
	var req collectionUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.collection.Update(r.Context(), currentUserID(r.Context()), req.Updates)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"collection": toCollectionResponse(res.Collection),
		"conflicts":  res.Conflicts,
	})
}
