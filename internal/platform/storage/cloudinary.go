package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gosimple/slug"
)

// FileStore uploads user-submitted files and returns a publicly reachable URL.
type FileStore interface {
	UploadFromHeader(ctx context.Context, fileHeader *multipart.FileHeader, folder, name string) (string, error)
}

type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryStore(cloudName, apiKey, apiSecret string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryStore{cld: cld}, nil
}

func (s *CloudinaryStore) UploadFromHeader(ctx context.Context, fileHeader *multipart.FileHeader, folder, name string) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return s.upload(ctx, file, folder, name)
}

func (s *CloudinaryStore) upload(ctx context.Context, file multipart.File, folder, name string) (string, error) {
	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	// Slugged name plus a timestamp keeps public IDs readable without
	// colliding on re-uploads of the same document.
	publicID := fmt.Sprintf("%s-%d", slug.Make(name), time.Now().UnixNano())

	uploadResult, err := s.cld.Upload.Upload(ctx, fileBytes, uploader.UploadParams{
		Folder:       folder,
		PublicID:     publicID,
		ResourceType: "auto", // detect image vs raw document
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}

	return uploadResult.SecureURL, nil
}
