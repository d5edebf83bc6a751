package storage

import "fmt"

// UploadError reports a failed object write. The wrapped cause is logged
// server-side; callers see only the original file name.
type UploadError struct {
	Name string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("failed to upload file: %s", e.Name)
}

func (e *UploadError) Unwrap() error { return e.Err }

// DeleteError reports a failed object removal.
type DeleteError struct {
	Ref string
	Err error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("failed to delete file: %s", e.Ref)
}

func (e *DeleteError) Unwrap() error { return e.Err }

// BucketError reports a failed bucket existence check or creation.
type BucketError struct {
	Bucket string
	Err    error
}

func (e *BucketError) Error() string {
	return fmt.Sprintf("failed to provision bucket: %s", e.Bucket)
}

func (e *BucketError) Unwrap() error { return e.Err }
