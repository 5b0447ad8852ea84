package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/instock/internal/contracts"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// pathDate parses the {date} route variable (YYYY-MM-DD)
func pathDate(r *http.Request) (time.Time, bool) {
	date, err := time.Parse(contracts.DateLayout, mux.Vars(r)["date"])
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}
