package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/komiku/internal/domain"
	"github.com/MrSnakeDoc/komiku/internal/logger"
)

// maxBodyBytes bounds JSON request bodies of the library endpoints.
const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

type dataResponse struct {
	Data any `json:"data"`
}

func writeJSON(w http.ResponseWriter, log logger.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("failed to write response", logger.Error(err))
	}
}

func writeError(w http.ResponseWriter, log logger.Logger, status int, msg string) {
	writeJSON(w, log, status, errorResponse{Error: msg})
}

// decodeBody reads a single JSON object into v.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return errors.New("invalid JSON body")
	}
	return nil
}

// queryInt returns the integer value of key, or def when absent or malformed.
func queryInt(r *http.Request, key string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// itemKey parses the (type, itemId) pair shared by the library endpoints.
func itemKey(rawType, itemID string) (domain.ContentType, string, error) {
	itemID = strings.TrimSpace(itemID)
	if rawType == "" || itemID == "" {
		return "", "", errors.New("missing required params: type, itemId")
	}
	t, err := domain.ParseContentType(rawType)
	if err != nil {
		return "", "", errors.New("invalid type, must be 'komik' or 'anime'")
	}
	return t, itemID, nil
}
