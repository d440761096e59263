package restyutil

import (
	"log/slog"
	"os"
	"path/filepath"
)

// FilesystemOutput writes fetched documents into a directory so extraction
// problems can be reproduced offline.
type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput clears `dir` and returns an output writing into it.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.RemoveAll(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Write(id string, contents []byte) {
	err := os.WriteFile(filepath.Join(o.directory, filepath.Base(id)), contents, 0600)
	if err != nil {
		slog.Warn("failed to write output file", "id", id, "err", err)
	}
}
