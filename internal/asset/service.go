package asset

import (
	"context"

	"github.com/binarylab/asset-service/internal/upload"
)

// Uploader is the slice of the storage gateway the asset service needs.
type Uploader interface {
	Put(ctx context.Context, f *upload.IncomingFile, folder string) (string, error)
	PutMany(ctx context.Context, files []*upload.IncomingFile, folder string) ([]string, error)
	Delete(ctx context.Context, ref string) error
	DeleteMany(ctx context.Context, refs []string) error
	Replace(ctx context.Context, oldRefs []string, newFiles []*upload.IncomingFile, folder string) ([]string, error)
}

// Service contains business logic for generic asset management. Assets are
// stored under a folder named after their top-level MIME segment.
type Service struct {
	gw Uploader
}

// NewService creates a new asset Service over the given gateway.
func NewService(gw Uploader) *Service {
	return &Service{gw: gw}
}

// Upload stores one file and returns its presentation data.
func (s *Service) Upload(ctx context.Context, f *upload.IncomingFile) (ImageData, error) {
	url, err := s.gw.Put(ctx, f, "")
	if err != nil {
		return ImageData{}, err
	}
	return ImageDataFromURL(url), nil
}

// UploadMany stores files in order and returns their presentation data.
func (s *Service) UploadMany(ctx context.Context, files []*upload.IncomingFile) ([]ImageData, error) {
	urls, err := s.gw.PutMany(ctx, files, "")
	if err != nil {
		return nil, err
	}
	out := make([]ImageData, len(urls))
	for i, u := range urls {
		out[i] = ImageDataFromURL(u)
	}
	return out, nil
}

// Delete removes the object behind a stored URL.
func (s *Service) Delete(ctx context.Context, url string) error {
	return s.gw.Delete(ctx, url)
}

// DeleteMany removes the objects behind stored URLs, in order.
func (s *Service) DeleteMany(ctx context.Context, urls []string) error {
	return s.gw.DeleteMany(ctx, urls)
}

// Update replaces the object behind oldURL with f: the new file is uploaded
// first, the old object removed only once the upload has succeeded.
func (s *Service) Update(ctx context.Context, oldURL string, f *upload.IncomingFile) (ImageData, error) {
	urls, err := s.gw.Replace(ctx, []string{oldURL}, []*upload.IncomingFile{f}, "")
	if err != nil {
		return ImageData{}, err
	}
	return ImageDataFromURL(urls[0]), nil
}

// UpdateMany replaces the objects behind oldURLs with files, upload-before-delete.
func (s *Service) UpdateMany(ctx context.Context, oldURLs []string, files []*upload.IncomingFile) ([]ImageData, error) {
	urls, err := s.gw.Replace(ctx, oldURLs, files, "")
	if err != nil {
		return nil, err
	}
	out := make([]ImageData, len(urls))
	for i, u := range urls {
		out[i] = ImageDataFromURL(u)
	}
	return out, nil
}
