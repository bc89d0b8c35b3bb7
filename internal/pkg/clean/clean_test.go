package clean

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/commute-learn/podgo/internal/pkg/metadata"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRemover struct {
	ids []string
	err error
}

func (t *testRemover) Delete(ID string) error {
	t.ids = append(t.ids, ID)
	return t.err
}

func writeFile(t *testing.T, dir string, name string) string {
	f := filepath.Join(dir, name)
	require.Nil(t, os.WriteFile(f, []byte("olia"), 0644))
	return f
}

func TestNewLocalFile(t *testing.T) {
	_, err := newLocalFile("/data", "{ID}.*")
	assert.Nil(t, err)
	_, err = newLocalFile("/data", "")
	assert.NotNil(t, err)
	_, err = newLocalFile("/data", "file.*")
	assert.NotNil(t, err)
	_, err = newLocalFile("", "{ID}.*")
	assert.NotNil(t, err)
}

func TestLocalFileClean(t *testing.T) {
	dir := t.TempDir()
	f1 := writeFile(t, dir, "job1.png")
	f2 := writeFile(t, dir, "job1.json")
	keep := writeFile(t, dir, "job2.png")

	lf, err := newLocalFile(dir, "{ID}.*")
	require.Nil(t, err)
	require.Nil(t, lf.Clean("job1"))

	assert.NoFileExists(t, f1)
	assert.NoFileExists(t, f2)
	assert.FileExists(t, keep)
}

func TestCleaner(t *testing.T) {
	uDir, oDir := t.TempDir(), t.TempDir()
	up := writeFile(t, uDir, "job1.png")
	out := writeFile(t, oDir, "job1_podcast.mp3")
	rm := &testRemover{}

	c, err := NewCleaner(uDir, oDir, rm)
	require.Nil(t, err)
	require.Nil(t, c.Clean("job1"))

	assert.NoFileExists(t, up)
	assert.NoFileExists(t, out)
	assert.Equal(t, []string{"job1"}, rm.ids)
}

func TestCleanerMissingMetaOK(t *testing.T) {
	c, err := NewCleaner(t.TempDir(), t.TempDir(), &testRemover{err: metadata.ErrNotFound})
	require.Nil(t, err)
	assert.Nil(t, c.Clean("job1"))
}

func TestCleanerFails(t *testing.T) {
	_, err := NewCleaner("", t.TempDir(), &testRemover{})
	assert.NotNil(t, err)
	_, err = NewCleaner(t.TempDir(), t.TempDir(), nil)
	assert.NotNil(t, err)
}

type testLister struct {
	res []metadata.PodcastMetadata
	err error
}

func (t *testLister) List() ([]metadata.PodcastMetadata, error) {
	return t.res, t.err
}

func TestExpiredIDsProvider(t *testing.T) {
	now := time.Now()
	l := &testLister{res: []metadata.PodcastMetadata{
		{ID: "old", CreatedAt: now.Add(-50 * time.Hour)},
		{ID: "new", CreatedAt: now.Add(-time.Hour)},
	}}
	p, err := NewExpiredIDsProvider(l, 48*time.Hour)
	require.Nil(t, err)

	ids, err := p.Get()
	assert.Nil(t, err)
	assert.Equal(t, []string{"old"}, ids)
}

func TestExpiredIDsProviderFails(t *testing.T) {
	_, err := NewExpiredIDsProvider(nil, time.Hour)
	assert.NotNil(t, err)
	_, err = NewExpiredIDsProvider(&testLister{}, 0)
	assert.NotNil(t, err)

	p, _ := NewExpiredIDsProvider(&testLister{err: errors.New("olia")}, time.Hour)
	_, err = p.Get()
	assert.NotNil(t, err)
}

type testCleaner struct {
	ch chan string
}

func (t *testCleaner) Clean(ID string) error {
	t.ch <- ID
	return nil
}

type testProvider struct {
	ids []string
}

func (t *testProvider) Get() ([]string, error) {
	return t.ids, nil
}

func TestCleanTimer(t *testing.T) {
	tc := &testCleaner{ch: make(chan string, 10)}
	data := &TimerData{RunEvery: time.Minute, Cleaner: tc, IDsProvider: &testProvider{ids: []string{"job1"}}}
	require.Nil(t, StartCleanTimer(data))
	defer data.Stop()

	// first run happens on startup
	select {
	case id := <-tc.ch:
		assert.Equal(t, "job1", id)
	case <-time.After(2 * time.Second):
		t.Error("no clean call")
	}
}

func TestCleanTimerFails(t *testing.T) {
	err := StartCleanTimer(&TimerData{RunEvery: time.Minute})
	assert.NotNil(t, err)
	err = StartCleanTimer(&TimerData{Cleaner: &testCleaner{}, IDsProvider: &testProvider{}})
	assert.NotNil(t, err)
}
