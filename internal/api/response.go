package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mkrato/battleship-server/internal/model"
	"github.com/mkrato/battleship-server/internal/registry"
)

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error body
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// GameSummary is a game listing entry
type GameSummary struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

// GameSummaryFromRegistry converts a registry listing entry
func GameSummaryFromRegistry(s registry.GameSummary) GameSummary {
	return GameSummary{
		Name:  string(s.Name),
		State: string(s.State),
	}
}

// GameDetail is a full snapshot of a live game
type GameDetail struct {
	Name       string    `json:"name"`
	State      string    `json:"state"`
	Owner      string    `json:"owner"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Ships      int       `json:"ships"`
	Players    []string  `json:"players"`
	Spectators []string  `json:"spectators"`
	Ready      []string  `json:"ready"`
	Turn       string    `json:"turn,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// GameDetailFromView converts a session snapshot
func GameDetailFromView(v model.GameView) GameDetail {
	return GameDetail{
		Name:       string(v.Name),
		State:      string(v.State),
		Owner:      string(v.Owner),
		Width:      v.Width,
		Height:     v.Height,
		Ships:      v.Ships,
		Players:    usernameStrings(v.Players),
		Spectators: usernameStrings(v.Spectators),
		Ready:      usernameStrings(v.Ready),
		Turn:       string(v.Turn),
		CreatedAt:  v.CreatedAt,
	}
}

// GameRecord is an archived finished game
type GameRecord struct {
	Name      string    `json:"name"`
	Owner     string    `json:"owner"`
	Winner    string    `json:"winner,omitempty"`
	Players   []string  `json:"players"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"created_at"`
	ClosedAt  time.Time `json:"closed_at"`
}

// GameRecordFromModel converts an archived record
func GameRecordFromModel(r *model.GameRecord) GameRecord {
	return GameRecord{
		Name:      string(r.Name),
		Owner:     string(r.Owner),
		Winner:    string(r.Winner),
		Players:   usernameStrings(r.Players),
		Width:     r.Width,
		Height:    r.Height,
		CreatedAt: r.CreatedAt,
		ClosedAt:  r.ClosedAt,
	}
}

func usernameStrings(users []model.Username) []string {
	result := make([]string, len(users))
	for i, u := range users {
		result[i] = string(u)
	}
	return result
}
