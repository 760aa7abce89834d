package catalog

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"recipehub/pkg/logger"
)

// DefaultMirrorPath is where export-mirror writes and mirror-server reads.
const DefaultMirrorPath = "data/catalog.json"

// LoadMirror reads a saved complexSearch envelope.
func LoadMirror(path string) (*SearchResponse, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sr SearchResponse
	if err := json.Unmarshal(b, &sr); err != nil {
		return nil, fmt.Errorf("%s invalid JSON: %w", path, err)
	}
	if sr.Results == nil {
		sr.Results = []Record{}
	}
	return &sr, nil
}

// SaveMirror writes records as a complexSearch envelope, creating the
// parent directory when needed.
func SaveMirror(path string, records []Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if records == nil {
		records = []Record{}
	}
	b, err := json.MarshalIndent(SearchResponse{
		Results:      records,
		Number:       len(records),
		TotalResults: len(records),
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// MirrorHandler serves the file at path the way the live catalog serves
// complexSearch, honouring the number parameter. The file is re-read on
// every request so it can be swapped while the server runs.
func MirrorHandler(path string, log logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.NewNop()
	}
	return func(c *gin.Context) {
		sr, err := LoadMirror(path)
		if err != nil {
			log.Error("mirror read failed", logger.String("path", path), logger.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		total := len(sr.Results)
		if n, err := strconv.Atoi(c.Query("number")); err == nil && n >= 0 && n < total {
			sr.Results = sr.Results[:n]
		}
		sr.Offset = 0
		sr.Number = len(sr.Results)
		sr.TotalResults = total

		c.JSON(http.StatusOK, sr)
	}
}
