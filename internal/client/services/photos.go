package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/ridekeeper/internal/client/repositories/users"
	"github.com/dmitrijs2005/ridekeeper/internal/client/result"
	"github.com/dmitrijs2005/ridekeeper/internal/common"
	"github.com/dmitrijs2005/ridekeeper/internal/logging"
)

var ErrUnsupportedImage = errors.New("unsupported image type")

// PhotoStorage is implemented by media.Store.
type PhotoStorage interface {
	UploadPhoto(ctx context.Context, userID, ext, contentType string, body io.Reader) (key, url string, err error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(u string) (string, bool)
}

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// Photos replaces users' profile photos.
type Photos struct {
	users   users.Repository
	storage PhotoStorage
	logger  logging.Logger
}

func NewPhotos(repo users.Repository, storage PhotoStorage, logger logging.Logger) *Photos {
	return &Photos{users: repo, storage: storage, logger: logger.With("module", "photos")}
}

// Upload stores the file at path as the user's photo and returns its URL.
// The previous photo is deleted if it lives in the same bucket.
func (p *Photos) Upload(ctx context.Context, userID, path string) result.Result[string] {
	ext := strings.ToLower(filepath.Ext(path))
	contentType, ok := imageTypes[ext]
	if !ok {
		return result.Fail[string](fmt.Errorf("%w: %q", ErrUnsupportedImage, ext))
	}
	if t := mime.TypeByExtension(ext); t != "" {
		contentType = t
	}

	u := p.users.GetByID(ctx, userID)
	if !u.IsSuccess() {
		return result.Fail[string](u.Err())
	}
	previous := u.Value().PhotoURL

	f, err := os.Open(path)
	if err != nil {
		return result.Fail[string](fmt.Errorf("open photo: %w", err))
	}
	defer f.Close()

	key, url, err := p.storage.UploadPhoto(ctx, userID, ext, contentType, f)
	if err != nil {
		return result.Fail[string](err)
	}

	if res := p.users.SetPhotoURL(ctx, userID, url); !res.IsSuccess() {
		if derr := p.storage.Delete(ctx, key); derr != nil {
			p.logger.Warn(ctx, "orphaned photo", "key", key, "error", derr)
		}
		return result.Fail[string](res.Err())
	}

	p.dropObject(ctx, previous)
	return result.Ok(url)
}

// Remove clears the user's photo.
func (p *Photos) Remove(ctx context.Context, userID string) result.Result[result.Void] {
	u := p.users.GetByID(ctx, userID)
	if !u.IsSuccess() {
		return result.Fail[result.Void](u.Err())
	}
	if u.Value().PhotoURL == "" {
		return result.Fail[result.Void](common.ErrorNotFound)
	}

	res := p.users.SetPhotoURL(ctx, userID, "")
	if res.IsSuccess() {
		p.dropObject(ctx, u.Value().PhotoURL)
	}
	return res
}

func (p *Photos) dropObject(ctx context.Context, url string) {
	key, ok := p.storage.KeyFromURL(url)
	if !ok {
		return
	}
	if err := p.storage.Delete(ctx, key); err != nil {
		p.logger.Warn(ctx, "failed to delete old photo", "key", key, "error", err)
	}
}
