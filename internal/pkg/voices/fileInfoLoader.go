package voices

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/commute-learn/podgo/internal/pkg/cmdapp"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Info describes one tutor persona - used for the script prompt and the UI
type Info struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Persona     []string `yaml:"persona,omitempty"`
}

// PersonaText joins persona lines for prompt building
func (i *Info) PersonaText() string {
	return strings.Join(i.Persona, "\n")
}

// FileInfoLoader loads persona info from yaml files by speaker key
type FileInfoLoader struct {
	Path string
}

// NewFileInfoLoader creates FileInfoLoader instance
func NewFileInfoLoader(path string) (*FileInfoLoader, error) {
	cmdapp.Log.Infof("Init Voice Info Loader from: %s", path)
	if path == "" {
		return nil, errors.New("no path provided")
	}
	return &FileInfoLoader{Path: path}, nil
}

// Get returns persona Info loaded from file key + '.yml'
func (fs *FileInfoLoader) Get(key string) (*Info, error) {
	if key == "" {
		return nil, errors.New("no speaker key provided")
	}
	file := filepath.Join(fs.Path, strings.ToLower(key)+".yml")
	fData, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, "can't load: "+file)
	}
	res, err := loadYaml(fData)
	if err != nil {
		return nil, errors.Wrap(err, "can't load: "+file)
	}
	return res, nil
}

func loadYaml(data []byte) (*Info, error) {
	ri := Info{}
	err := yaml.Unmarshal(data, &ri)
	if err != nil {
		return nil, errors.Wrap(err, "can't unmarshal")
	}
	if ri.Name == "" {
		return nil, errors.New("no persona name in yaml")
	}
	return &ri, nil
}
