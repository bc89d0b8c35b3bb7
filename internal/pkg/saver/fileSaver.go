package saver

import (
	"io"
	"os"
	"path/filepath"

	"github.com/commute-learn/podgo/internal/pkg/cmdapp"
	"github.com/pkg/errors"
)

// WriterCloser keeps Writer interface and close function
type WriterCloser interface {
	io.Writer
	Close() error
}

// OpenFileFunc declares function to open file by name and return Writer
type OpenFileFunc func(fileName string) (WriterCloser, error)

// LocalFileSaver saves uploaded files on local disk
type LocalFileSaver struct {
	// StoragePath is the main folder to save into
	StoragePath  string
	OpenFileFunc OpenFileFunc
}

// NewLocalFileSaver creates LocalFileSaver instance, makes sure the dir exists
func NewLocalFileSaver(storagePath string) (*LocalFileSaver, error) {
	if storagePath == "" {
		return nil, errors.New("no storage path provided")
	}
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return nil, errors.Wrap(err, "can't init storage dir "+storagePath)
	}
	return &LocalFileSaver{StoragePath: storagePath, OpenFileFunc: openFile}, nil
}

// Save saves file to disk
func (fs LocalFileSaver) Save(name string, reader io.Reader) error {
	fileName := filepath.Join(fs.StoragePath, name)
	f, err := fs.OpenFileFunc(fileName)
	if err != nil {
		return errors.Wrap(err, "can't create file "+fileName)
	}
	defer f.Close()
	savedBytes, err := io.Copy(f, reader)
	if err != nil {
		return errors.Wrap(err, "can't save file "+fileName)
	}
	cmdapp.Log.Infof("Saved file %s. Size = %d b", fileName, savedBytes)
	return nil
}

// HealthyFunc returns a liveness check testing that the storage dir is usable
func (fs LocalFileSaver) HealthyFunc() func() error {
	return func() error {
		info, err := os.Stat(fs.StoragePath)
		if err != nil {
			return errors.Wrap(err, "can't stat storage dir")
		}
		if !info.IsDir() {
			return errors.New(fs.StoragePath + " is not a directory")
		}
		return nil
	}
}

func openFile(fileName string) (WriterCloser, error) {
	return os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
}
