//go:build !unix

package blobstore

import "os"

// dirLock falls back to lock-file existence where flock is unavailable.
// This is best effort: a crashed process leaves the file behind, and the
// next Lock call fails until it is removed manually.
type dirLock struct {
	path string
}

func lockDir(path string) (*dirLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	_ = f.Close()
	return &dirLock{path: path}, nil
}

func (l *dirLock) release() error {
	return os.Remove(l.path)
}
