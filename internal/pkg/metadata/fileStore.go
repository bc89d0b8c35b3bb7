package metadata

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/commute-learn/podgo/internal/pkg/cmdapp"
	"github.com/pkg/errors"
)

// ErrNotFound indicates missing metadata for the requested ID
var ErrNotFound = errors.New("podcast not found")

// PodcastMetadata is the durable artifact of a completed job
type PodcastMetadata struct {
	ID           string    `json:"job_id"`
	Title        string    `json:"title"`
	OriginalFile string    `json:"original_file,omitempty"`
	Duration     int       `json:"duration"`
	CreatedAt    time.Time `json:"created_at"`
	AudioFile    string    `json:"audio_file"`
	Script       string    `json:"script"`
}

// FileStore keeps one JSON metadata file per completed job
type FileStore struct {
	// Path is the metadata directory
	Path string
}

// NewFileStore creates FileStore instance, makes sure the dir exists
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("no metadata path provided")
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, errors.Wrap(err, "can't init metadata dir "+path)
	}
	return &FileStore{Path: path}, nil
}

// Save writes metadata as a single atomic unit
func (fs *FileStore) Save(m PodcastMetadata) error {
	if m.ID == "" {
		return errors.New("no job ID in metadata")
	}
	data, err := json.MarshalIndent(&m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "can't marshal metadata")
	}
	fileName := fs.fileName(m.ID)
	tmp := fileName + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrap(err, "can't write "+tmp)
	}
	if err := os.Rename(tmp, fileName); err != nil {
		return errors.Wrap(err, "can't rename "+tmp)
	}
	cmdapp.Log.Infof("Saved metadata %s", fileName)
	return nil
}

// Get reads the metadata for one job
func (fs *FileStore) Get(id string) (*PodcastMetadata, error) {
	data, err := os.ReadFile(fs.fileName(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrNotFound, id)
		}
		return nil, errors.Wrap(err, "can't read metadata for "+id)
	}
	var m PodcastMetadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "can't unmarshal metadata for "+id)
	}
	return &m, nil
}

// List returns all saved metadata sorted by creation time, newest first
func (fs *FileStore) List() ([]PodcastMetadata, error) {
	entries, err := os.ReadDir(fs.Path)
	if err != nil {
		return nil, errors.Wrap(err, "can't read metadata dir "+fs.Path)
	}
	res := make([]PodcastMetadata, 0)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		m, err := fs.Get(id)
		if err != nil {
			cmdapp.Log.Error(err)
			continue
		}
		res = append(res, *m)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

// Delete removes the metadata file. Returns ErrNotFound if there was none.
func (fs *FileStore) Delete(id string) error {
	err := os.Remove(fs.fileName(id))
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(ErrNotFound, id)
		}
		return errors.Wrap(err, "can't delete metadata for "+id)
	}
	return nil
}

func (fs *FileStore) fileName(id string) string {
	return filepath.Join(fs.Path, id+".json")
}
