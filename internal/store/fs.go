package store

import (
	"errors"
	"io/fs"
	"os"
)

const writeFlags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC

func fileMode(perm uint32) fs.FileMode {
	return fs.FileMode(perm)
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
