package status

import "time"

// Status represents the coarse state of a podcast job
type Status string

const (
	// Uploaded - file saved, processing not started yet
	Uploaded Status = "uploaded"
	// Processing - the job pipeline is running
	Processing Status = "processing"
	// Completed - audio and metadata are ready
	Completed Status = "completed"
	// Failed - the pipeline stopped with an error
	Failed Status = "failed"
)

// Stage is the fine-grained pipeline phase, drives UI messaging
type Stage string

const (
	StageUpload Stage = "upload"
	StageOCR    Stage = "ocr"
	StageScript Stage = "script"
	StageTTS    Stage = "tts"
	StageDone   Stage = "done"
	StageError  Stage = "error"
)

var stageProgressMap = map[Stage]int{
	StageUpload: 10,
	StageOCR:    20,
	StageScript: 40,
	StageTTS:    60,
	StageDone:   100,
	StageError:  0,
}

// Progress returns the percentage checkpoint for a stage
func Progress(st Stage) int {
	return stageProgressMap[st]
}

// JobRecord is the mutable status snapshot of one job.
// It lives only in process memory and is lost on restart.
type JobRecord struct {
	ID           string    `json:"job_id"`
	Status       Status    `json:"status"`
	Stage        Stage     `json:"stage"`
	Progress     int       `json:"progress"`
	Message      string    `json:"message,omitempty"`
	Subject      string    `json:"subject,omitempty"`
	Chapter      string    `json:"chapter,omitempty"`
	OriginalFile string    `json:"original_filename,omitempty"`
	SourceFile   string    `json:"file_path,omitempty"`
	ExtractedLen int       `json:"extracted_length,omitempty"`
	Script       string    `json:"script_preview,omitempty"`
	AudioFile    string    `json:"audio_file,omitempty"`
	Duration     int       `json:"duration,omitempty"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}
