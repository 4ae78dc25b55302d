// Package audio measures recorded answers.
package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-audio/wav"
	"github.com/rs/zerolog"
)

// Meter measures audio length in seconds.
type Meter struct {
	ffprobe string
	log     zerolog.Logger
}

// NewMeter creates a Meter. WAV files are decoded natively; other
// containers (WebM, Ogg, MP3) go through ffprobe when it is on PATH.
func NewMeter(log zerolog.Logger) *Meter {
	path, _ := exec.LookPath("ffprobe")
	return &Meter{
		ffprobe: path,
		log:     log.With().Str("component", "audio").Logger(),
	}
}

// Duration returns the length of the recording at path, or 0 when it
// cannot be measured.
func (p *Meter) Duration(ctx context.Context, path string) float64 {
	secs, err := p.measure(ctx, path)
	if err != nil {
		p.log.Warn().Err(err).Str("audio", path).Msg("could not measure duration")
		return 0
	}
	return secs
}

func (p *Meter) measure(ctx context.Context, path string) (float64, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		secs, err := wavDuration(path)
		if err == nil {
			return secs, nil
		}
		if p.ffprobe == "" {
			return 0, err
		}
	}
	if p.ffprobe == "" {
		return 0, errors.New("ffprobe not found on PATH")
	}
	return p.ffprobeDuration(ctx, path)
}

func wavDuration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return 0, fmt.Errorf("%s: not a valid WAV file", filepath.Base(path))
	}
	dur, err := d.Duration()
	if err != nil {
		return 0, fmt.Errorf("decode WAV duration: %w", err)
	}
	return dur.Seconds(), nil
}

func (p *Meter) ffprobeDuration(ctx context.Context, path string) (float64, error) {
	out, err := exec.CommandContext(ctx, p.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	secs, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe output %q: %w", strings.TrimSpace(string(out)), err)
	}
	return secs, nil
}
