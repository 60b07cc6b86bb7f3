package models

import "time"

// RemoteFile is the opaque reference the provider hands back after an upload.
// The generate call needs URI and MIMEType; Name is what delete operates on.
type RemoteFile struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	URI         string    `json:"uri"`
	MIMEType    string    `json:"mime_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
