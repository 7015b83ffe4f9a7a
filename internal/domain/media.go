package domain

import "time"

// UploadAuthorization is a signed grant a client presents to the media host
// to upload directly. The core never touches image bytes.
type UploadAuthorization struct {
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"`
	APIKey    string `json:"api_key"`
	CloudName string `json:"cloud_name"`
	Folder    string `json:"folder"`
}

// MediaSigner produces upload authorizations scoped to an uploader.
type MediaSigner interface {
	Sign(uploaderID string, now time.Time) (*UploadAuthorization, error)
}
