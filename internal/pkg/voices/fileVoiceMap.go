package voices

import (
	"path/filepath"

	"github.com/commute-learn/podgo/internal/pkg/cmdapp"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// ErrVoiceNotFound indicates no voice is configured for the speaker
var ErrVoiceNotFound = errors.New("voice not found")

// FileVoiceMap maps speaker labels to synthesis voice IDs.
// The file is watched - voice changes apply without a restart.
type FileVoiceMap struct {
	Path string
	v    *viper.Viper
}

// NewFileVoiceMap creates FileVoiceMap instance from <path>/voices.map.yml
func NewFileVoiceMap(path string) (*FileVoiceMap, error) {
	cmdapp.Log.Infof("Init Voice Map from: %s", path)
	if path == "" {
		return nil, errors.New("no path provided")
	}
	file := filepath.Join(path, "voices.map.yml")
	return newFileVoiceMap(file)
}

func newFileVoiceMap(file string) (*FileVoiceMap, error) {
	f := FileVoiceMap{}
	f.v = viper.New()
	f.v.SetConfigFile(file)
	f.v.SetConfigType("yml")
	err := f.v.ReadInConfig()
	if err != nil {
		return nil, errors.Wrap(err, "can't read voices map file: "+file)
	}

	f.v.WatchConfig()
	f.v.OnConfigChange(func(e fsnotify.Event) {
		cmdapp.Log.Infof("Voices reloaded from: %s", file)
	})
	return &f, nil
}

// Get returns voice ID for the speaker label. Empty label gets the default voice.
func (fs *FileVoiceMap) Get(speaker string) (string, error) {
	var id string
	if speaker == "" {
		id = fs.v.GetString("default")
	} else {
		id = fs.v.GetString(speaker)
	}
	if id == "" {
		return "", errors.Wrap(ErrVoiceNotFound, speaker)
	}
	return id, nil
}
