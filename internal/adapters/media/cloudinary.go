package media

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"invitease/internal/domain"
)

// Config holds the cloud account credentials used to sign upload requests.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
}

type cloudinarySigner struct {
	cfg Config
}

type disabledSigner struct{}

func (disabledSigner) Sign(string, time.Time) (*domain.UploadAuthorization, error) {
	return nil, fmt.Errorf("media signing credentials are not configured")
}

// MustSigner returns a Cloudinary signer, or a signer that rejects every
// request when credentials are missing. Keeps the server bootable in
// environments without a media account.
func MustSigner(cfg Config, logger *slog.Logger) domain.MediaSigner {
	signer, err := NewCloudinarySigner(cfg)
	if err != nil {
		logger.Warn("media signing disabled", "err", err)
		return disabledSigner{}
	}
	return signer
}

// NewCloudinarySigner returns a MediaSigner producing Cloudinary-style
// upload signatures: hex SHA-1 over the alphabetically sorted request
// params concatenated with the API secret. Uploads land in a per-user
// folder so a grant cannot write outside the uploader's space.
func NewCloudinarySigner(cfg Config) (domain.MediaSigner, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("media signing credentials are not configured")
	}
	return &cloudinarySigner{cfg: cfg}, nil
}

func (s *cloudinarySigner) Sign(uploaderID string, now time.Time) (*domain.UploadAuthorization, error) {
	if uploaderID == "" {
		return nil, fmt.Errorf("uploader id is required")
	}
	timestamp := now.Unix()
	folder := fmt.Sprintf("Invitease/Users/%s", uploaderID)

	// Params must be serialized in alphabetical order before signing.
	toSign := fmt.Sprintf("folder=%s&timestamp=%d%s", folder, timestamp, s.cfg.APISecret)
	sum := sha1.Sum([]byte(toSign))

	return &domain.UploadAuthorization{
		Signature: hex.EncodeToString(sum[:]),
		Timestamp: timestamp,
		APIKey:    s.cfg.APIKey,
		CloudName: s.cfg.CloudName,
		Folder:    folder,
	}, nil
}
