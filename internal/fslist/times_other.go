//go:build !linux && !darwin && !windows

package fslist

import "io/fs"

func platformTimes(string, fs.FileInfo) (created, accessed Timestamp) {
	return Timestamp{Err: ErrTimeUnsupported}, Timestamp{Err: ErrTimeUnsupported}
}
