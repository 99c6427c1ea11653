package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloudClientDetectLandmarks(t *testing.T) {
	image := []byte("fake-jpeg")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))

		var req annotateRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) || !assert.Len(t, req.Requests, 1) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, base64.StdEncoding.EncodeToString(image), req.Requests[0].Image.Content)
		assert.Equal(t, "LANDMARK_DETECTION", req.Requests[0].Features[0].Type)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"responses":[{"landmarkAnnotations":[
			{"description":"Tower Bridge","score":0.81,"locations":[{"latLng":{"latitude":51.5055,"longitude":-0.0754}}]},
			{"description":"London Bridge","score":0.42,"locations":[{}]}
		]}]}`))
	}))
	defer srv.Close()

	c := NewCloudClient("secret", time.Second)
	c.Endpoint = srv.URL

	got, err := c.DetectLandmarks(context.Background(), image)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Tower Bridge", got[0].Name)
	assert.InDelta(t, 0.81, got[0].Confidence, 1e-9)
	require.Len(t, got[0].Locations, 1)
	assert.InDelta(t, -0.0754, got[0].Locations[0].Longitude, 1e-9)
	assert.Empty(t, got[1].Locations, "annotations without latLng are dropped")
}

func TestCloudClientNoAnnotations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"responses":[{}]}`))
	}))
	defer srv.Close()

	c := NewCloudClient("", time.Second)
	c.Endpoint = srv.URL

	got, err := c.DetectLandmarks(context.Background(), []byte("x"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCloudClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"API key not valid"}}`))
	}))
	defer srv.Close()

	c := NewCloudClient("bad", time.Second)
	c.Endpoint = srv.URL

	_, err := c.DetectLandmarks(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")

	_, err = c.DetectLandmarks(context.Background(), nil)
	assert.Error(t, err, "empty image")
}

func TestCloudClientPerImageError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"responses":[{"error":{"code":3,"message":"Bad image data."}}]}`))
	}))
	defer srv.Close()

	c := NewCloudClient("", time.Second)
	c.Endpoint = srv.URL

	_, err := c.DetectLandmarks(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bad image data.")
}

func TestFixtureDetector(t *testing.T) {
	image := []byte("colosseum.jpg bytes")
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	content := "images:\n" +
		"  " + ImageKey(image) + ":\n" +
		"    - name: Colosseum\n" +
		"      confidence: 0.93\n" +
		"      locations:\n" +
		"        - {latitude: 41.8902, longitude: 12.4922}\n" +
		"default:\n" +
		"  - name: Somewhere\n" +
		"    confidence: 0.1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	f, err := LoadFixture(path)
	require.NoError(t, err)

	got, err := f.DetectLandmarks(context.Background(), image)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Colosseum", got[0].Name)
	assert.Equal(t, 41.8902, got[0].Locations[0].Latitude)

	got[0].Name = "mutated"
	again, _ := f.DetectLandmarks(context.Background(), image)
	assert.Equal(t, "Colosseum", again[0].Name)

	fallback, err := f.DetectLandmarks(context.Background(), []byte("unknown"))
	require.NoError(t, err)
	require.Len(t, fallback, 1)
	assert.Equal(t, "Somewhere", fallback[0].Name)
}

func TestLoadFixtureMissing(t *testing.T) {
	_, err := LoadFixture(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
