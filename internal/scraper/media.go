package scraper

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"quizharvester/helpers"
	"quizharvester/logger"
	"quizharvester/services/ratelimit"
)

// MediaStore downloads question media into per-type asset directories.
// Downloads are best effort: a failed fetch leaves the record without a
// media path but never fails the quiz. Fetches draw from the shared rate
// budget like every other request to the site.
type MediaStore struct {
	baseDir string
	limiter *ratelimit.Limiter
	log     *logger.Logger
}

func NewMediaStore(baseDir string, limiter *ratelimit.Limiter) *MediaStore {
	return &MediaStore{baseDir: baseDir, limiter: limiter, log: logger.ForStorage()}
}

var (
	imageExtWhitelist = map[string]bool{"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true}
	audioExtWhitelist = map[string]bool{"mp3": true, "wav": true, "ogg": true, "m4a": true}
)

// MediaFilename derives the stored filename for a question's media:
// the question identifier plus a whitelisted extension from the source URL.
func MediaFilename(questionID, mediaURL string, isAudio bool) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(stripQuery(mediaURL))), ".")
	if isAudio {
		if !audioExtWhitelist[ext] {
			ext = "mp3"
		}
	} else if !imageExtWhitelist[ext] {
		ext = "jpg"
	}
	return questionID + "." + ext
}

// MediaRef is the relative path recorded in the output for a media file.
func MediaRef(questionID, mediaURL string, isAudio bool) string {
	sub := "images"
	if isAudio {
		sub = "audio"
	}
	return path.Join("assets", sub, MediaFilename(questionID, mediaURL, isAudio))
}

// Download fetches the media file and writes it under the asset directory,
// returning the reference path recorded in output. Empty string means the
// download failed and the record carries no media.
func (m *MediaStore) Download(ctx context.Context, questionID, mediaURL string, isAudio bool) string {
	if mediaURL == "" {
		return ""
	}

	sub := "images"
	if isAudio {
		sub = "audio"
	}
	dir := filepath.Join(m.baseDir, sub)
	if err := os.MkdirAll(dir, 0755); err != nil {
		m.log.Error().Err(err).Str("dir", dir).Msg("cannot create media directory")
		return ""
	}

	filename := MediaFilename(questionID, mediaURL, isAudio)
	target := filepath.Join(dir, filename)
	if _, err := os.Stat(target); err == nil {
		return MediaRef(questionID, mediaURL, isAudio)
	}

	var data []byte
	fetch := func() error {
		if err := m.limiter.Acquire(ctx); err != nil {
			return backoff.Permanent(err)
		}
		var err error
		data, err = helpers.FetchSimply(mediaURL)
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(time.Second),
		backoff.WithMaxInterval(10*time.Second),
	), 2), ctx)
	if err := backoff.Retry(fetch, policy); err != nil {
		m.log.Warn().Err(err).Str("url", mediaURL).Msg("media download failed")
		return ""
	}

	if err := os.WriteFile(target, data, 0644); err != nil {
		m.log.Error().Err(err).Str("file", target).Msg("cannot write media file")
		return ""
	}
	m.log.Debug().Str("file", target).Int("bytes", len(data)).Msg("media downloaded")
	return MediaRef(questionID, mediaURL, isAudio)
}
