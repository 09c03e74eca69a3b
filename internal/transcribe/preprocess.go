package transcribe

import "os"

// MaxUploadBytes is the API's upload size limit (25 MiB).
const MaxUploadBytes int64 = 25 << 20

// Optimizer may produce a smaller substitute for an audio file before upload.
// It returns the substitute path and true, or "" and false to upload the
// original. A substitute that differs from the input is deleted after upload.
type Optimizer func(path string) (string, bool)

// MaybeOptimize is the default Optimizer. It checks the file against
// MaxUploadBytes but never compresses, so it always returns no substitute.
// Oversized files are uploaded as-is and the API reports the failure.
func MaybeOptimize(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}
	if info.Size() <= MaxUploadBytes {
		return "", false
	}
	return "", false
}
