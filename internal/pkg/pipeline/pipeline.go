package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/commute-learn/podgo/internal/pkg/cmdapp"
	"github.com/commute-learn/podgo/internal/pkg/extractor"
	"github.com/commute-learn/podgo/internal/pkg/metadata"
	"github.com/commute-learn/podgo/internal/pkg/status"
	"github.com/pkg/errors"
)

const (
	defaultMinTextLen = 10
	scriptPreviewLen  = 200
)

// TextExtractor reads study text out of the uploaded file
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, mime string) (string, error)
}

// ScriptMaker turns the text into a two speaker script
type ScriptMaker interface {
	Generate(ctx context.Context, text string, subject string, chapter string) (string, error)
}

// AudioMaker voices the script and writes the audio file
type AudioMaker interface {
	Synthesize(ctx context.Context, script string, outPath string) (int, error)
}

// JobRegistry tracks job state
type JobRegistry interface {
	Get(id string) (status.JobRecord, bool)
	Update(id string, change func(*status.JobRecord)) (status.JobRecord, error)
}

// MetadataSaver persists the finished podcast record
type MetadataSaver interface {
	Save(m metadata.PodcastMetadata) error
}

// ServiceData keeps the job pipeline dependencies
type ServiceData struct {
	Extractor   TextExtractor
	ScriptMaker ScriptMaker
	AudioMaker  AudioMaker
	Registry    JobRegistry
	MetaSaver   MetadataSaver
	OutputDir   string
	AudioExt    string
	MinTextLen  int
}

// Runner drives one upload through extract, script and audio stages
type Runner struct {
	data ServiceData
}

// NewRunner creates the pipeline runner
func NewRunner(data ServiceData) (*Runner, error) {
	if data.Extractor == nil {
		return nil, errors.New("no extractor provided")
	}
	if data.ScriptMaker == nil {
		return nil, errors.New("no script maker provided")
	}
	if data.AudioMaker == nil {
		return nil, errors.New("no audio maker provided")
	}
	if data.Registry == nil {
		return nil, errors.New("no registry provided")
	}
	if data.MetaSaver == nil {
		return nil, errors.New("no metadata saver provided")
	}
	if data.OutputDir == "" {
		return nil, errors.New("no output dir provided")
	}
	if data.AudioExt == "" {
		data.AudioExt = ".mp3"
	}
	if data.MinTextLen <= 0 {
		data.MinTextLen = defaultMinTextLen
	}
	return &Runner{data: data}, nil
}

// Run processes the job. Meant to be started on its own goroutine -
// all failures end up in the job record, nothing is returned.
func (r *Runner) Run(id string) {
	defer func() {
		if rec := recover(); rec != nil {
			cmdapp.Log.Errorf("Panic in job %s: %v", id, rec)
			r.fail(id, "Internal processing error")
		}
	}()
	ctx := context.Background()

	job, ok := r.data.Registry.Get(id)
	if !ok {
		cmdapp.Log.Errorf("Job %s not found", id)
		return
	}
	cmdapp.Log.Infof("Starting job %s (%s)", id, job.OriginalFile)

	r.advance(id, status.StageOCR, "Reading your notes...")
	fData, err := os.ReadFile(job.SourceFile)
	if err != nil {
		cmdapp.Log.Errorf("Can't read upload for job %s: %v", id, err)
		r.fail(id, "Could not read the uploaded file")
		return
	}
	text, err := r.data.Extractor.Extract(ctx, fData, extractor.SniffMime(fData))
	if err != nil {
		cmdapp.Log.Errorf("Extraction failed for job %s: %v", id, err)
		r.fail(id, "Could not read text from the file")
		return
	}
	if utf8.RuneCountInString(strings.TrimSpace(text)) < r.data.MinTextLen {
		r.fail(id, "Could not extract enough text from the image. Please upload a clearer photo.")
		return
	}

	r.update(id, func(j *status.JobRecord) {
		j.Stage = status.StageScript
		j.Progress = status.Progress(status.StageScript)
		j.Message = "Writing your podcast script..."
		j.ExtractedLen = utf8.RuneCountInString(text)
	})
	script, err := r.data.ScriptMaker.Generate(ctx, text, job.Subject, job.Chapter)
	if err != nil {
		cmdapp.Log.Errorf("Script generation failed for job %s: %v", id, err)
		r.fail(id, "Could not prepare the podcast script")
		return
	}

	r.update(id, func(j *status.JobRecord) {
		j.Stage = status.StageTTS
		j.Progress = status.Progress(status.StageTTS)
		j.Message = "Recording Didi and Bhaiya..."
		j.Script = preview(script)
	})
	audioFile := id + "_podcast" + r.data.AudioExt
	secs, err := r.data.AudioMaker.Synthesize(ctx, script, filepath.Join(r.data.OutputDir, audioFile))
	if err != nil {
		cmdapp.Log.Errorf("Audio synthesis failed for job %s: %v", id, err)
		r.fail(id, "Could not generate the audio")
		return
	}

	meta := metadata.PodcastMetadata{ID: id, Title: title(job), OriginalFile: job.OriginalFile,
		Duration: secs, CreatedAt: job.CreatedAt, AudioFile: audioFile, Script: script}
	if err := r.data.MetaSaver.Save(meta); err != nil {
		cmdapp.Log.Errorf("Can't save metadata for job %s: %v", id, err)
		r.fail(id, "Could not save the podcast")
		return
	}

	r.update(id, func(j *status.JobRecord) {
		j.Status = status.Completed
		j.Stage = status.StageDone
		j.Progress = status.Progress(status.StageDone)
		j.Message = "Your podcast is ready!"
		j.AudioFile = audioFile
		j.Duration = secs
	})
	cmdapp.Log.Infof("Job %s done, %d s of audio", id, secs)
}

func (r *Runner) advance(id string, st status.Stage, msg string) {
	r.update(id, func(j *status.JobRecord) {
		j.Status = status.Processing
		j.Stage = st
		j.Progress = status.Progress(st)
		j.Message = msg
	})
}

func (r *Runner) fail(id string, msg string) {
	r.update(id, func(j *status.JobRecord) {
		j.Status = status.Failed
		j.Stage = status.StageError
		j.Progress = status.Progress(status.StageError)
		j.Message = msg
		j.Error = msg
	})
}

func (r *Runner) update(id string, change func(*status.JobRecord)) {
	if _, err := r.data.Registry.Update(id, change); err != nil {
		cmdapp.Log.Warnf("Can't update job %s: %v", id, err)
	}
}

func preview(script string) string {
	if utf8.RuneCountInString(script) <= scriptPreviewLen {
		return script
	}
	return string([]rune(script)[:scriptPreviewLen]) + "..."
}

func title(job status.JobRecord) string {
	if job.Subject != "" && job.Chapter != "" {
		return fmt.Sprintf("%s - Chapter %s", job.Subject, job.Chapter)
	}
	if job.Subject != "" {
		return job.Subject
	}
	return job.OriginalFile
}
