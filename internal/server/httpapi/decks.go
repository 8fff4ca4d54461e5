package httpapi

import (
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"

	"marvelcdc/internal/model"
)

type deckCardResponse struct {
	CardCode string `json:"cardCode"`
	CardName string `json:"cardName"`
	Quantity int    `json:"quantity"`
	CardType string `json:"cardType,omitempty"`
	PackCode string `json:"packCode,omitempty"`
}

type deckResponse struct {
	ID          string             `json:"id"`
	MarvelCDBID int64              `json:"marvelcdbId"`
	Name        string             `json:"name"`
	HeroCode    string             `json:"heroCode"`
	HeroName    string             `json:"heroName"`
	DeckURL     string             `json:"deckUrl"`
	IsActive    bool               `json:"isActive"`
	CreatedAt   time.Time          `json:"createdAt"`
	Cards       []deckCardResponse `json:"cards"`
}

func toDeckResponse(d model.Deck) deckResponse {
	cards := make([]deckCardResponse, 0, len(d.Cards))
	for _, c := range d.Cards {
		cards = append(cards, deckCardResponse{
			CardCode: c.CardCode,
			CardName: c.CardName,
			Quantity: c.Quantity,
			CardType: c.CardType,
			PackCode: c.PackCode,
		})
	}
	return deckResponse{
		ID:          d.ID.String(),
		MarvelCDBID: d.MarvelCDBID,
		Name:        d.Name,
		HeroCode:    d.HeroCode,
		HeroName:    d.HeroName,
		DeckURL:     d.DeckURL,
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt,
		Cards:       cards,
	}
}

func toDeckResponses(decks []model.Deck) []deckResponse {
	resp := make([]deckResponse, 0, len(decks))
	for _, d := range decks {
		resp = append(resp, toDeckResponse(d))
	}
	return resp
}

type deckImportRequest struct {
	URL string `json:"url"`
}

type deckActiveRequest struct {
	IsActive bool `json:"isActive"`
}

// deckIDFromPath parses the {id} path value.
func deckIDFromPath(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.FromString(r.PathValue("id"))
	return id, err == nil
}

// ListDecks handles GET /api/decks.
func (s *Server) ListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := s.decks.List(r.Context(), currentUserID(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"decks": toDeckResponses(decks)})
}

// ImportDeck handles POST /api/decks/import.
func (s *Server) ImportDeck(w http.ResponseWriter, r *http.Request) {
	var req deckImportRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.decks.Import(r.Context(), currentUserID(r.Context()), req.URL)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, map[string]any{
		"deck":      toDeckResponse(res.Deck),
		"conflicts": res.Conflicts,
	})
}

// SetDeckActive handles PATCH /api/decks/{id}.
func (s *Server) SetDeckActive(w http.ResponseWriter, r *http.Request) {
	id, ok := deckIDFromPath(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid deck id")
		return
	}
	var req deckActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.decks.SetActive(r.Context(), currentUserID(r.Context()), id, req.IsActive)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"deck":      toDeckResponse(res.Deck),
		"conflicts": res.Conflicts,
	})
}

// DeleteDeck handles DELETE /api/decks/{id}.
func (s *Server) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	id, ok := deckIDFromPath(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid deck id")
		return
	}
	conflicts, err := s.decks.Delete(r.Context(), currentUserID(r.Context()), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"conflicts": conflicts})
}
