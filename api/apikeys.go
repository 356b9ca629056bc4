package api

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/sowmiyavani28/Flight-Analytics-App/db"
)

// generateAPIKey generates a random 32-byte hex string
func generateAPIKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// validateMasterKey checks if the provided key matches the master key
func validateMasterKey(key string) bool {
	master := os.Getenv("MASTER_API_KEY")
	return master != "" && key == master
}

// CreateAPIKey creates a new API key
func (s *Server) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	if !validateMasterKey(r.Header.Get("Authorization")) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	key, err := generateAPIKey()
	if err != nil {
		http.Error(w, "Failed to generate API key", http.StatusInternalServerError)
		return
	}

	apiKey, err := s.store.CreateAPIKey(r.Context(), key, req.Description)
	if err != nil {
		http.Error(w, "Failed to create API key", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(apiKey)
}

// DeleteAPIKey deletes an API key
func (s *Server) DeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	if !validateMasterKey(r.Header.Get("Authorization")) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.store.DeleteAPIKey(r.Context(), req.ID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "API key not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to delete API key", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListAPIKeys lists all API keys (only accessible with master key)
func (s *Server) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	if !validateMasterKey(r.Header.Get("Authorization")) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	keys, err := s.store.ListAPIKeys(r.Context())
	if err != nil {
		http.Error(w, "Failed to list API keys", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(keys)
}
