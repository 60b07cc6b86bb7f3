package models

// SessionState tracks where the document lifecycle currently is.
// Questions are only accepted while the state is Ready.
type SessionState string

const (
	StateEmpty        SessionState = "empty"
	StateUploading    SessionState = "uploading"
	StateReady        SessionState = "ready"
	StateAnswering    SessionState = "answering"
	StateUploadFailed SessionState = "upload_failed"
)

// CanAsk reports whether a question may be submitted in this state.
func (s SessionState) CanAsk() bool {
	return s == StateReady
}
