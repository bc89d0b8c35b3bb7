package clean

import (
	"github.com/commute-learn/podgo/internal/pkg/cmdapp"
	"github.com/commute-learn/podgo/internal/pkg/metadata"
	"github.com/pkg/errors"
)

// Cleaner deletes job data by ID
type Cleaner interface {
	Clean(ID string) error
}

// MetadataRemover drops the stored podcast record
type MetadataRemover interface {
	Delete(ID string) error
}

type cleanerImpl struct {
	jobs []Cleaner
}

// NewCleaner creates a Cleaner dropping the upload, the audio and the metadata of a job
func NewCleaner(uploadsDir string, outputsDir string, meta MetadataRemover) (Cleaner, error) {
	c := cleanerImpl{}
	c.jobs = make([]Cleaner, 0)
	lf, err := newLocalFile(uploadsDir, "{ID}.*")
	if err != nil {
		return nil, err
	}
	c.jobs = append(c.jobs, lf)
	lf, err = newLocalFile(outputsDir, "{ID}_podcast.*")
	if err != nil {
		return nil, err
	}
	c.jobs = append(c.jobs, lf)
	if meta == nil {
		return nil, errors.New("no metadata remover provided")
	}
	c.jobs = append(c.jobs, &metaCleaner{meta: meta})
	return &c, nil
}

func (c *cleanerImpl) Clean(ID string) error {
	failed := 0
	for _, job := range c.jobs {
		err := job.Clean(ID)
		if err != nil {
			cmdapp.Log.Error(err)
			failed++
		}
	}
	if failed == len(c.jobs) {
		return errors.New("all delete tasks failed")
	}
	return nil
}

type metaCleaner struct {
	meta MetadataRemover
}

func (c *metaCleaner) Clean(ID string) error {
	err := c.meta.Delete(ID)
	if errors.Is(err, metadata.ErrNotFound) {
		return nil
	}
	return err
}
