package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/pixtape/internal/shared"
	"github.com/desertthunder/pixtape/internal/vision"
)

// DefaultVisionEndpoint is the Cloud Vision images:annotate URL.
const DefaultVisionEndpoint = "https://vision.googleapis.com/v1/images:annotate"

type visionFeature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults"`
}

type visionImage struct {
	Content string `json:"content"`
}

type visionRequest struct {
	Image    visionImage     `json:"image"`
	Features []visionFeature `json:"features"`
}

type annotateRequest struct {
	Requests []visionRequest `json:"requests"`
}

type annotateResponse struct {
	Responses []struct {
		vision.Annotation
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error,omitempty"`
	} `json:"responses"`
}

// GoogleVisionClient calls the Cloud Vision REST API with an API key.
type GoogleVisionClient struct {
	apiKey   string
	endpoint string
	t        *transport
}

// NewGoogleVisionClient creates a Vision client. A nil client uses a 30 second timeout.
func NewGoogleVisionClient(c shared.VisionConfig, client *http.Client) (*GoogleVisionClient, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("%w: vision api_key", shared.ErrMissingCredentials)
	}
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = DefaultVisionEndpoint
	}
	return &GoogleVisionClient{
		apiKey:   c.APIKey,
		endpoint: endpoint,
		t:        newTransport("vision", client, c.RateLimit),
	}, nil
}

// Annotate requests labels, dominant colors and faces for image.
func (c *GoogleVisionClient) Annotate(ctx context.Context, image []byte) (*vision.Annotation, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty image", shared.ErrInvalidInput)
	}

	payload := annotateRequest{Requests: []visionRequest{{
		Image: visionImage{Content: base64.StdEncoding.EncodeToString(image)},
		Features: []visionFeature{
			{Type: "LABEL_DETECTION", MaxResults: vision.MaxLabels},
			{Type: "IMAGE_PROPERTIES", MaxResults: vision.MaxColors},
			{Type: "FACE_DETECTION", MaxResults: vision.MaxFaces},
		},
	}}}

	body, err := jsonBody(payload)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: vision endpoint: %v", shared.ErrInvalidConfig, err)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp annotateResponse
	if err := c.t.do(req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Responses) == 0 {
		return &vision.Annotation{}, nil
	}
	first := resp.Responses[0]
	if first.Error != nil {
		return nil, &UpstreamError{Service: "vision", StatusCode: http.StatusBadGateway, Message: first.Error.Message}
	}
	return &first.Annotation, nil
}
