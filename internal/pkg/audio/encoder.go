package audio

import (
	"bytes"
	"os"
	"os/exec"
	"strings"

	"github.com/commute-learn/podgo/internal/pkg/cmdapp"
	"github.com/pkg/errors"
)

// Encoder turns composed WAV data into the final audio artifact
type Encoder interface {
	Encode(wavData []byte, outPath string) error
}

// CommandEncoder compresses audio by running a configured external command.
// The command template must contain {INPUT} and {OUTPUT} placeholders,
// e.g.: ffmpeg -y -i {INPUT} -codec:a libmp3lame -b:a 128k {OUTPUT}
type CommandEncoder struct {
	cmd string
}

// NewCommandEncoder creates CommandEncoder instance
func NewCommandEncoder(cmd string) (*CommandEncoder, error) {
	if !strings.Contains(cmd, "{INPUT}") || !strings.Contains(cmd, "{OUTPUT}") {
		return nil, errors.New("encoder cmd must contain {INPUT} and {OUTPUT}: " + cmd)
	}
	return &CommandEncoder{cmd: cmd}, nil
}

// Encode writes wav data to a temp file and invokes the command on it
func (e *CommandEncoder) Encode(wavData []byte, outPath string) error {
	tmp, err := os.CreateTemp("", "podgo.*.wav")
	if err != nil {
		return errors.Wrap(err, "can't create temp wav")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(wavData); err != nil {
		tmp.Close()
		return errors.Wrap(err, "can't write temp wav")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "can't close temp wav")
	}
	command := strings.Replace(e.cmd, "{INPUT}", tmp.Name(), -1)
	command = strings.Replace(command, "{OUTPUT}", outPath, -1)
	return runCommand(command)
}

// CopyEncoder writes the WAV as is. Used when no encode command is configured -
// the pipeline must still always produce a playable file.
type CopyEncoder struct {
}

// Encode saves the data to outPath
func (e *CopyEncoder) Encode(wavData []byte, outPath string) error {
	return errors.Wrap(os.WriteFile(outPath, wavData, 0644), "can't write "+outPath)
}

// runCommand executes a system command and returns error with the captured output
func runCommand(command string) error {
	cmdapp.Log.Infof("Running command: %s", command)
	cmdArr := strings.Split(command, " ")
	if len(cmdArr) < 2 {
		return errors.New("wrong command, no parameter: " + command)
	}

	cmd := exec.Command(cmdArr[0], cmdArr[1:]...)
	cmd.Env = os.Environ()

	var outputBuffer bytes.Buffer
	cmd.Stdout = &outputBuffer
	cmd.Stderr = &outputBuffer

	if err := cmd.Run(); err != nil {
		return errors.Wrap(err, "output: "+outputBuffer.String())
	}
	return nil
}
