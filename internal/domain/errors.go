package domain

import "errors"

// Domain errors.
var (
	// ErrInvalidURL is returned when a URL is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrUnsupportedPlatform is returned when a URL's host is not on the platform allow-list.
	ErrUnsupportedPlatform = errors.New("platform not supported")

	// ErrInvalidQuality is returned when a quality preset name is unknown.
	ErrInvalidQuality = errors.New("invalid quality preset")

	// ErrJobNotFound is returned when a download job cannot be found.
	ErrJobNotFound = errors.New("download not found")

	// ErrNoJobs is returned when there are no queued jobs to process.
	ErrNoJobs = errors.New("no jobs available")

	// ErrFileNotFound is returned when a downloaded file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidFilename is returned when a file name contains path components.
	ErrInvalidFilename = errors.New("invalid filename")

	// ErrNoMedia is returned when a post resolved but has nothing to download.
	ErrNoMedia = errors.New("no downloadable media found")

	// ErrDownloadFailed is returned when the media download fails.
	ErrDownloadFailed = errors.New("download failed")

	// ErrURLExpired is returned when a signed media URL is no longer accepted.
	ErrURLExpired = errors.New("media URL has expired")

	// ErrQueueFull is returned when the job table is at capacity and holds
	// no finished jobs to evict.
	ErrQueueFull = errors.New("download queue is full, try again later")

	// ErrRateLimited is returned when rate limited by external services.
	ErrRateLimited = errors.New("rate limited")
)

// JobError wraps an error with download job context.
type JobError struct {
	JobID JobID
	Op    string
	Err   error
}

func (e *JobError) Error() string {
	if e.JobID != "" {
		return e.Op + " [" + e.JobID.String() + "]: " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *JobError) Unwrap() error {
	return e.Err
}

// NewJobError creates a new JobError.
func NewJobError(jobID JobID, op string, err error) *JobError {
	return &JobError{
		JobID: jobID,
		Op:    op,
		Err:   err,
	}
}
