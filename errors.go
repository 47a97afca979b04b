package mpv_archive

import "errors"

var (
	// ErrInvalidURL means the input did not normalize to an http(s) URL.
	ErrInvalidURL = errors.New("invalid URL")
	// ErrDependencyMissing means a required external tool is not on PATH.
	ErrDependencyMissing = errors.New("required dependency missing")
	// ErrDownloadFailed means every format spec was tried and none produced a media file.
	ErrDownloadFailed = errors.New("download failed")
	// ErrIncompleteDownload means a media file exists but its sidecar info file could not be found.
	ErrIncompleteDownload = errors.New("incomplete download")
	// ErrClientUnavailable means no usable remote archive client is configured.
	ErrClientUnavailable = errors.New("archive client unavailable")
	// ErrUploadRejected means the remote archive returned a non-OK status for part of a submission.
	ErrUploadRejected = errors.New("upload rejected")
	// ErrUploadError means the upload failed for transport or other unexpected reasons.
	ErrUploadError = errors.New("upload error")
	// ErrCleanupPartialFailure means at least one attempted cache deletion failed.
	ErrCleanupPartialFailure = errors.New("cache cleanup partially failed")
)
