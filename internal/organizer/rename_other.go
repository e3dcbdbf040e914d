//go:build !linux

package organizer

import "os"

func renameNoReplace(src, dst string) error {
	return os.Rename(src, dst)
}
