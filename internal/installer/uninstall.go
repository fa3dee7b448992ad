package installer

import (
	"os"

	"xcv/internal/outcome"
	"xcv/internal/xcode"
)

// Remove deletes an installed bundle from disk. The active pointer is not
// touched; callers re-select if the removed copy was active.
func Remove(inst xcode.Install) error {
	if err := os.RemoveAll(inst.Path); err != nil {
		return outcome.IO(err, "removing %s", inst.Path)
	}
	return nil
}
