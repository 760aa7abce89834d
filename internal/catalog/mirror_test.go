package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMirrorRoundTripThroughClient(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "catalog.json")
	require.NoError(t, SaveMirror(path, []Record{
		{ID: 1, Title: "Pho", Diets: []string{"dairy free"}},
		{ID: 2, Title: "Dal", Diets: []string{"vegan"}},
		{ID: 3, Title: "Kimchi"},
	}))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET(searchPath, MirrorHandler(path, nil))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	client := NewClient(Options{BaseURL: srv.URL, Timeout: time.Second}, nil)
	records, err := client.FetchBatch(context.Background(), 2)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "Pho", records[0].Title)
	assert.Equal(t, []string{"vegan"}, records[1].Diets)
}

func TestMirrorHandlerBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET(searchPath, MirrorHandler(path, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, searchPath, nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	_, err := LoadMirror(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
