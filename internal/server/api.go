package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pixtape/internal/cache"
	"github.com/desertthunder/pixtape/internal/metrics"
	"github.com/desertthunder/pixtape/internal/models"
	"github.com/desertthunder/pixtape/internal/services"
	"github.com/desertthunder/pixtape/internal/shared"
	"github.com/desertthunder/pixtape/internal/vision"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxUploadBytes bounds multipart uploads when no limit is configured.
const DefaultMaxUploadBytes = 10 << 20

const spotifyTrackPrefix = "spotify:track:"

// TrackCache remembers catalog matches across users. Get reports a miss with [shared.ErrTrackNotFound].
type TrackCache interface {
	Get(ctx context.Context, title, artist string) (*services.Track, error)
	Put(ctx context.Context, title, artist string, track *services.Track) error
}

// APIHandler serves the JSON endpoints behind the browser client.
type APIHandler struct {
	vision          services.VisionClient
	llm             services.LLMClient
	music           services.MusicService
	images          cache.Store[*models.Image]
	analyses        cache.Store[*models.AnalysisResult]
	recommendations cache.Store[[]models.Recommendation]
	tracks          TrackCache
	maxUpload       int64
	logger          *log.Logger
	now             func() time.Time
	inflight        singleflight.Group
}

type imageRequest struct {
	ImageID string `json:"imageId"`
}

type recommendResponse struct {
	ImageID         string                  `json:"imageId"`
	Recommendations []models.Recommendation `json:"recommendations"`
}

type playlistRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Public      bool     `json:"public"`
	TrackURIs   []string `json:"trackUris"`
}

func (h *APIHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// me returns the profile of the logged in user.
func (h *APIHandler) me(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		writeError(w, h.logger, shared.ErrNotAuthenticated)
		return
	}
	writeJSON(w, http.StatusOK, sess.Credential.Profile())
}

// upload stores a multipart "image" field and returns its identifier.
func (h *APIHandler) upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUpload {
		writeError(w, h.logger, fmt.Errorf("image exceeds %d bytes: %w", h.maxUpload, &http.MaxBytesError{Limit: h.maxUpload}))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, h.logger, fmt.Errorf("image exceeds %d bytes: %w", h.maxUpload, err))
			return
		}
		writeError(w, h.logger, fmt.Errorf("%w: expected multipart form: %v", shared.ErrInvalidInput, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, h.logger, fmt.Errorf("%w: no image file provided", shared.ErrMissingArgument))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, h.logger, fmt.Errorf("failed to read upload: %w", err))
		return
	}
	if len(data) == 0 {
		writeError(w, h.logger, fmt.Errorf("%w: empty file", shared.ErrInvalidInput))
		return
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, h.logger, fmt.Errorf("%w: %s is not an image", shared.ErrInvalidInput, contentType))
		return
	}

	img := &models.Image{
		ID:          shared.GenerateID(),
		Filename:    filepath.Base(header.Filename),
		ContentType: contentType,
		Data:        data,
		UploadedAt:  h.now(),
	}
	h.images.Put(img.ID, img)

	h.logger.Debug("image uploaded", "image", img.ID, "bytes", len(data), "type", contentType)
	writeJSON(w, http.StatusOK, img)
}

// analyze runs the vision pipeline for an uploaded image, once per image.
func (h *APIHandler) analyze(w http.ResponseWriter, r *http.Request) {
	req, err := decodeImageRequest(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.analysis(r, req.ImageID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *APIHandler) analysis(r *http.Request, imageID string) (*models.AnalysisResult, error) {
	cached, ok := h.analyses.Get(imageID)
	metrics.Hit("analysis", ok)
	if ok {
		return cached, nil
	}

	img, ok := h.images.Get(imageID)
	metrics.Hit("image", ok)
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrImageNotFound, imageID)
	}

	// the call is shared by every waiter and outlives any single request
	ctx := context.WithoutCancel(r.Context())
	v, err, _ := h.inflight.Do("analyze:"+imageID, func() (any, error) {
		annotation, err := h.vision.Annotate(ctx, img.Data)
		if err != nil {
			return nil, err
		}
		result := vision.BuildAnalysis(imageID, annotation, h.now())
		h.analyses.Put(imageID, result)
		h.logger.Info("image analyzed", "image", imageID, "emotion", result.DominantEmotion, "keywords", len(result.Keywords))
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.AnalysisResult), nil
}

// recommend asks the language model for songs matching an analyzed image. When the caller is logged
// in, each song is resolved against the music catalog.
func (h *APIHandler) recommend(w http.ResponseWriter, r *http.Request) {
	req, err := decodeImageRequest(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, ok := h.analyses.Get(req.ImageID)
	metrics.Hit("analysis", ok)
	if !ok {
		writeError(w, h.logger, fmt.Errorf("%w: %s", shared.ErrNotAnalyzed, req.ImageID))
		return
	}
	if len(result.Keywords) == 0 {
		writeError(w, h.logger, fmt.Errorf("%w: analysis produced no keywords", shared.ErrInvalidInput))
		return
	}

	recs, ok := h.recommendations.Get(req.ImageID)
	metrics.Hit("recommendations", ok)
	if !ok {
		v, err, _ := h.inflight.Do("recommend:"+req.ImageID, func() (any, error) {
			recs, err := h.llm.Recommend(r.Context(), result)
			if err != nil {
				return nil, err
			}
			if len(recs) > 0 {
				h.recommendations.Put(req.ImageID, recs)
			}
			return recs, nil
		})
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		recs = v.([]models.Recommendation)
	}

	out := make([]models.Recommendation, len(recs))
	copy(out, recs)
	if sess, ok := SessionFrom(r.Context()); ok && h.music != nil {
		h.resolveTracks(r, sess, out)
	}

	writeJSON(w, http.StatusOK, recommendResponse{ImageID: req.ImageID, Recommendations: out})
}

// resolveTracks fills catalog IDs in place. Lookup failures leave the song unresolved.
func (h *APIHandler) resolveTracks(r *http.Request, sess *Session, recs []models.Recommendation) {
	for i := range recs {
		if recs[i].SpotifyURI != "" {
			continue
		}

		track, ok := h.cachedTrack(r.Context(), recs[i])
		if !ok {
			var err error
			track, err = h.music.SearchTrack(r.Context(), sess.Credential.AccessToken, recs[i].Title, recs[i].Artist)
			switch {
			case errors.Is(err, shared.ErrTrackNotFound):
				continue
			case err != nil:
				h.logger.Warn("track search failed, leaving remaining songs unresolved", "title", recs[i].Title, "error", err)
				return
			}
			h.rememberTrack(r.Context(), recs[i], track)
		}

		recs[i].SpotifyID = track.ID
		recs[i].SpotifyURI = track.URI
		recs[i].PreviewURL = track.PreviewURL
	}
}

func (h *APIHandler) cachedTrack(ctx context.Context, rec models.Recommendation) (*services.Track, bool) {
	if h.tracks == nil {
		return nil, false
	}
	track, err := h.tracks.Get(ctx, rec.Title, rec.Artist)
	if err != nil {
		if !errors.Is(err, shared.ErrTrackNotFound) {
			h.logger.Warn("track cache lookup failed", "title", rec.Title, "error", err)
		}
		return nil, false
	}
	return track, true
}

func (h *APIHandler) rememberTrack(ctx context.Context, rec models.Recommendation, track *services.Track) {
	if h.tracks == nil {
		return
	}
	if err := h.tracks.Put(ctx, rec.Title, rec.Artist, track); err != nil {
		h.logger.Warn("failed to remember track match", "title", rec.Title, "error", err)
	}
}

// playlist creates a playlist for the logged in user and fills it with the given tracks.
func (h *APIHandler) playlist(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		writeError(w, h.logger, shared.ErrNotAuthenticated)
		return
	}
	if h.music == nil {
		writeError(w, h.logger, fmt.Errorf("%w: music service", shared.ErrMissingCredentials))
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, h.logger, fmt.Errorf("%w: malformed JSON body: %v", shared.ErrInvalidInput, err))
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, h.logger, fmt.Errorf("%w: name", shared.ErrMissingArgument))
		return
	}
	if len(req.TrackURIs) == 0 {
		writeError(w, h.logger, fmt.Errorf("%w: trackUris", shared.ErrMissingArgument))
		return
	}
	for _, uri := range req.TrackURIs {
		if !strings.HasPrefix(uri, spotifyTrackPrefix) {
			writeError(w, h.logger, fmt.Errorf("%w: %q is not a track URI", shared.ErrInvalidInput, uri))
			return
		}
	}

	token := sess.Credential.AccessToken
	pl, err := h.music.CreatePlaylist(r.Context(), token, sess.Credential.SubjectID, services.PlaylistInput{
		Name:        req.Name,
		Description: req.Description,
		Public:      req.Public,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.music.AddTracks(r.Context(), token, pl.ID, req.TrackURIs); err != nil {
		writeError(w, h.logger, err)
		return
	}
	pl.TrackCount = len(req.TrackURIs)

	h.logger.Info("playlist created", "subject", sess.Credential.SubjectID, "playlist", pl.ID, "tracks", pl.TrackCount)
	writeJSON(w, http.StatusCreated, pl)
}

func decodeImageRequest(r *http.Request) (*imageRequest, error) {
	var req imageRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON body: %v", shared.ErrInvalidInput, err)
	}
	if req.ImageID == "" {
		return nil, fmt.Errorf("%w: imageId", shared.ErrMissingArgument)
	}
	return &req, nil
}
