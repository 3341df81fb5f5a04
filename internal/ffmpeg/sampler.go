package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"dedupe/internal/logging"
)

var commandContext = exec.CommandContext

// Sampler extracts frames from video files by shelling out to ffmpeg,
// using ffprobe to learn each clip's duration first.
type Sampler struct {
	ffmpegBin  string
	ffprobeBin string
	logger     *slog.Logger
}

func NewSampler(ffmpegBin, ffprobeBin string, logger *slog.Logger) *Sampler {
	return &Sampler{
		ffmpegBin:  ffmpegBin,
		ffprobeBin: ffprobeBin,
		logger:     logging.NewComponentLogger(logger, "ffmpeg"),
	}
}

// Available reports whether both binaries can be resolved. Scans degrade
// to skipping video signatures when they cannot.
func (s *Sampler) Available() bool {
	if _, err := exec.LookPath(s.ffmpegBin); err != nil {
		return false
	}
	if _, err := exec.LookPath(s.ffprobeBin); err != nil {
		return false
	}
	return true
}

// SampleFrames decodes up to max frames at evenly spaced timestamps.
// Only clips with fewer frames than the sample count yield fewer
// frames, so clips of near-equal length sample the same count.
func (s *Sampler) SampleFrames(ctx context.Context, path string, max int) ([]image.Image, error) {
	if max < 1 {
		return nil, fmt.Errorf("sample count must be positive, got %d", max)
	}

	duration, frameRate, err := s.probeClip(ctx, path)
	if err != nil {
		return nil, err
	}

	timestamps := sampleTimestamps(duration, frameRate, max)
	frames := make([]image.Image, 0, len(timestamps))
	for _, ts := range timestamps {
		frame, err := s.extractFrame(ctx, path, ts)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Debug("frame extraction failed",
				logging.String(logging.FieldPath, path),
				logging.Float64("timestamp", ts),
				logging.Error(err))
			continue
		}
		frames = append(frames, frame)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no decodable frames in %s", path)
	}
	return frames, nil
}

// probeClip asks ffprobe for the container duration in seconds and the
// first video stream's average frame rate. A frame rate of 0 means the
// stream did not report one.
func (s *Sampler) probeClip(ctx context.Context, path string) (float64, float64, error) {
	cmd := commandContext(ctx, s.ffprobeBin,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=avg_frame_rate:format=duration",
		"-of", "default=noprint_wrappers=1",
		path)
	output, err := cmd.Output()
	if err != nil {
		return 0, 0, fmt.Errorf("probe %s: %w", path, err)
	}

	var (
		duration    float64
		durationSet bool
		frameRate   float64
	)
	for _, line := range strings.Split(string(output), "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), "=")
		if !found {
			continue
		}
		switch key {
		case "duration":
			if duration, err = ParseDuration(value); err != nil {
				return 0, 0, err
			}
			durationSet = true
		case "avg_frame_rate":
			if rate, err := ParseFrameRate(value); err == nil {
				frameRate = rate
			}
		}
	}
	if !durationSet {
		return 0, 0, fmt.Errorf("probe %s: no duration reported", path)
	}
	return duration, frameRate, nil
}

// ParseDuration parses an ffprobe duration value ("12.345").
func ParseDuration(raw string) (float64, error) {
	text := strings.TrimSpace(raw)
	if text == "" || text == "N/A" {
		return 0, fmt.Errorf("no duration reported")
	}
	duration, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", text, err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("non-positive duration %v", duration)
	}
	return duration, nil
}

// ParseFrameRate parses an ffprobe rational frame rate ("30000/1001",
// "25/1") or a plain number.
func ParseFrameRate(raw string) (float64, error) {
	text := strings.TrimSpace(raw)
	if text == "" || text == "N/A" {
		return 0, fmt.Errorf("no frame rate reported")
	}
	num, den, found := strings.Cut(text, "/")
	if !found {
		rate, err := strconv.ParseFloat(text, 64)
		if err != nil || rate <= 0 {
			return 0, fmt.Errorf("parse frame rate %q", text)
		}
		return rate, nil
	}
	numerator, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("parse frame rate %q: %w", text, err)
	}
	denominator, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, fmt.Errorf("parse frame rate %q: %w", text, err)
	}
	if numerator <= 0 || denominator <= 0 {
		return 0, fmt.Errorf("non-positive frame rate %q", text)
	}
	return numerator / denominator, nil
}

func (s *Sampler) extractFrame(ctx context.Context, path string, timestamp float64) (image.Image, error) {
	cmd := commandContext(ctx, s.ffmpegBin,
		"-v", "error",
		"-ss", strconv.FormatFloat(timestamp, 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"pipe:1")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("extract frame at %.3fs: %w", timestamp, err)
	}
	frame, err := png.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decode frame at %.3fs: %w", timestamp, err)
	}
	return frame, nil
}

// sampleTimestamps spreads count seek points across the duration,
// keeping clear of the very start and end where seeks often land on
// black frames. The count is reduced only when the clip holds fewer
// frames than requested, estimated from duration and frame rate;
// an unknown frame rate leaves the count alone.
func sampleTimestamps(duration, frameRate float64, count int) []float64 {
	if frameRate > 0 {
		if frames := int(duration * frameRate); frames < count {
			count = frames
		}
	}
	if count < 1 {
		count = 1
	}
	timestamps := make([]float64, count)
	step := duration / float64(count+1)
	for i := range timestamps {
		timestamps[i] = step * float64(i+1)
	}
	return timestamps
}
