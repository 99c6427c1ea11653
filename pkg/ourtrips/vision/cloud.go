package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/himanishpuri/ourtrips/pkg/models"
)

const DefaultEndpoint = "https://vision.googleapis.com/v1/images:annotate"

// CloudClient asks the Cloud Vision REST API for landmark annotations.
// It never retries; a failed call is returned to the caller as is.
type CloudClient struct {
	Endpoint   string
	APIKey     string
	MaxResults int
	HTTP       *http.Client
}

func NewCloudClient(apiKey string, timeout time.Duration) *CloudClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &CloudClient{
		Endpoint:   DefaultEndpoint,
		APIKey:     apiKey,
		MaxResults: 10,
		HTTP:       &http.Client{Timeout: timeout},
	}
}

type annotateRequest struct {
	Requests []imageRequest `json:"requests"`
}

type imageRequest struct {
	Image    imageContent `json:"image"`
	Features []feature    `json:"features"`
}

type imageContent struct {
	Content string `json:"content"`
}

type feature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults,omitempty"`
}

type annotateResponse struct {
	Responses []struct {
		LandmarkAnnotations []struct {
			Description string  `json:"description"`
			Score       float64 `json:"score"`
			Locations   []struct {
				LatLng *struct {
					Latitude  float64 `json:"latitude"`
					Longitude float64 `json:"longitude"`
				} `json:"latLng"`
			} `json:"locations"`
		} `json:"landmarkAnnotations"`
		Error *apiError `json:"error"`
	} `json:"responses"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// DetectLandmarks returns the annotations in the order the provider sent
// them. An image with no recognizable landmark yields an empty slice.
func (c *CloudClient) DetectLandmarks(ctx context.Context, image []byte) ([]models.Landmark, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("image is empty")
	}

	body, err := json.Marshal(annotateRequest{Requests: []imageRequest{{
		Image:    imageContent{Content: base64.StdEncoding.EncodeToString(image)},
		Features: []feature{{Type: "LANDMARK_DETECTION", MaxResults: c.MaxResults}},
	}}})
	if err != nil {
		return nil, fmt.Errorf("encoding annotate request: %w", err)
	}

	endpoint := c.Endpoint
	if c.APIKey != "" {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parsing endpoint: %w", err)
		}
		q := u.Query()
		q.Set("key", c.APIKey)
		u.RawQuery = q.Encode()
		endpoint = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building annotate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling vision api: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("reading vision response: %w", err)
	}

	var out annotateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding vision response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != nil {
			return nil, fmt.Errorf("vision api status %d: %s", resp.StatusCode, out.Error.Message)
		}
		return nil, fmt.Errorf("vision api status %d", resp.StatusCode)
	}
	if len(out.Responses) == 0 {
		return []models.Landmark{}, nil
	}
	first := out.Responses[0]
	if first.Error != nil {
		return nil, fmt.Errorf("vision api: %s", first.Error.Message)
	}

	landmarks := make([]models.Landmark, 0, len(first.LandmarkAnnotations))
	for _, a := range first.LandmarkAnnotations {
		l := models.Landmark{Name: a.Description, Confidence: a.Score}
		for _, loc := range a.Locations {
			if loc.LatLng == nil {
				continue
			}
			l.Locations = append(l.Locations, models.LatLng{
				Latitude:  loc.LatLng.Latitude,
				Longitude: loc.LatLng.Longitude,
			})
		}
		landmarks = append(landmarks, l)
	}
	return landmarks, nil
}
