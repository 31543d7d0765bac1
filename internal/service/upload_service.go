package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Goodnews119/Marketplacesite/internal/storage"
)

// UploadURLTTL is how long a presigned upload URL stays valid.
const UploadURLTTL = 15 * time.Minute

var disallowedKeyChars = regexp.MustCompile(`[^A-Za-z0-9.-]`)

type UploadService struct {
	presigner storage.Presigner
	now       func() time.Time
}

func NewUploadService(presigner storage.Presigner) *UploadService {
	return &UploadService{
		presigner: presigner,
		now:       time.Now,
	}
}

type PresignedUpload struct {
	UploadURL string
	Key       string
	PublicURL string
}

func (s *UploadService) Presign(ctx context.Context, filename, contentType string) (*PresignedUpload, error) {
	if strings.TrimSpace(filename) == "" || strings.TrimSpace(contentType) == "" {
		return nil, badRequest("filename and contentType are required")
	}

	key := ObjectKey(s.now(), filename)
	uploadURL, err := s.presigner.PresignPut(ctx, key, contentType, UploadURLTTL)
	if err != nil {
		return nil, wrapError(ErrUpstreamFailure, "could not create upload URL", err)
	}

	return &PresignedUpload{
		UploadURL: uploadURL,
		Key:       key,
		PublicURL: s.presigner.PublicURL(key),
	}, nil
}

// PublicURL is the read location of an uploaded asset; empty for an empty key.
func (s *UploadService) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	return s.presigner.PublicURL(key)
}

// ObjectKey prefixes the sanitized filename with the upload time in
// milliseconds. Characters outside [A-Za-z0-9.-] are dropped.
func ObjectKey(at time.Time, filename string) string {
	name := disallowedKeyChars.ReplaceAllString(filename, "")
	if name == "" {
		name = "upload"
	}
	return fmt.Sprintf("%d-%s", at.UnixMilli(), name)
}
