package video

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ezraball/neighborhood-tour/internal/domain/model"
	"github.com/ezraball/neighborhood-tour/internal/domain/repository"
)

// FFmpegEncoder shells out to ffmpeg to assemble rendered frames into an
// H.264 MP4. The encode writes to a temp path in the output directory and
// renames into place only on success, so a failed run never leaves a
// partially written video at the final path.
type FFmpegEncoder struct {
	binary   string
	logger   *logrus.Logger
	progress func(done, total int)
}

// NewFFmpegEncoder creates an encoder using the ffmpeg binary on PATH.
// progress may be nil.
func NewFFmpegEncoder(logger *logrus.Logger, progress func(done, total int)) *FFmpegEncoder {
	return &FFmpegEncoder{binary: "ffmpeg", logger: logger, progress: progress}
}

// Encode writes all frames to a temp workspace and runs ffmpeg over them.
func (e *FFmpegEncoder) Encode(ctx context.Context, frames repository.FrameSource, spec model.VideoSpec, outputPath string) error {
	outDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return model.NewEncodingError("failed to create output directory", err)
	}

	frameDir, err := os.MkdirTemp("", "tour-frames-*")
	if err != nil {
		return model.NewEncodingError("failed to create frame workspace", err)
	}
	defer os.RemoveAll(frameDir)

	total := frames.Total()
	for i := 0; ; i++ {
		data, err := frames.Next()
		if err != nil {
			return model.NewEncodingError("frame rendering failed", err)
		}
		if data == nil {
			break
		}
		framePath := filepath.Join(frameDir, fmt.Sprintf("frame_%05d.jpg", i))
		if err := os.WriteFile(framePath, data, 0o644); err != nil {
			return model.NewEncodingError("failed to write frame", err)
		}
		if e.progress != nil {
			e.progress(i+1, total)
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("encoding aborted: %w", err)
		}
	}

	tmpOutput := filepath.Join(outDir, fmt.Sprintf(".%s.tmp.mp4", uuid.NewString()))
	defer os.Remove(tmpOutput)

	cmd := exec.CommandContext(ctx, e.binary,
		"-y",
		"-framerate", fmt.Sprintf("%d", spec.FPS),
		"-i", filepath.Join(frameDir, "frame_%05d.jpg"),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		tmpOutput,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.logger.WithField("frames", total).Info("Encoding video with ffmpeg")
	if err := cmd.Run(); err != nil {
		return model.NewEncodingError(
			fmt.Sprintf("ffmpeg failed: %s", lastLine(stderr.String())), err)
	}

	if err := os.Rename(tmpOutput, outputPath); err != nil {
		return model.NewEncodingError("failed to move video into place", err)
	}
	return nil
}

// lastLine trims ffmpeg's verbose stderr down to the line that usually
// carries the actual error.
func lastLine(s string) string {
	lines := bytes.Split(bytes.TrimSpace([]byte(s)), []byte("\n"))
	if len(lines) == 0 {
		return ""
	}
	return string(lines[len(lines)-1])
}
