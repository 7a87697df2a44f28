package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ivlev/photo2video/internal/system"
	"github.com/ivlev/photo2video/internal/timeline"
)

// FFmpegExporter runs one ffmpeg process per export.
type FFmpegExporter struct {
	logger zerolog.Logger
	binary string
}

func NewFFmpegExporter(logger zerolog.Logger) *FFmpegExporter {
	return &FFmpegExporter{
		logger: logger.With().Str("component", "export").Logger(),
		binary: "ffmpeg",
	}
}

func (e *FFmpegExporter) Export(ctx context.Context, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	if req.Codec == "" {
		req.Codec = "libx264"
	}

	if err := os.Remove(req.Output); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("remove stale export: %w", err)
	}

	args := BuildArgs(req)
	e.logger.Debug().Strs("args", args).Msg("starting export")

	cmd := exec.CommandContext(ctx, e.binary, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.Remove(req.Output)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("ffmpeg xfade error: %w, output: %s", err, strings.TrimSpace(string(out)))
	}
	return req.Output, nil
}

// BuildArgs is the full ffmpeg command line for req, minus the binary.
func BuildArgs(req Request) []string {
	inputs, graph := BuildFilterGraph(req)

	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	for _, in := range inputs {
		args = append(args, "-i", in)
	}
	args = append(args, "-filter_complex", graph, "-map", "[vout]", "-an")
	args = append(args, "-c:v", req.Codec, "-pix_fmt", "yuv420p")
	args = append(args, system.QualityArgs(req.Codec, req.Quality)...)
	args = append(args, "-movflags", "+faststart", req.Output)
	return args
}

// BuildFilterGraph returns the distinct input files of req and a filter
// graph producing [vout]. Each clip is trimmed out of its input; clips are
// joined with xfade at the transition starts, or concatenated when there
// are no transitions.
func BuildFilterGraph(req Request) ([]string, string) {
	var inputs []string
	index := map[string]int{}
	uses := map[string]int{}
	for _, c := range req.Clips {
		if _, ok := index[c.Path]; !ok {
			index[c.Path] = len(inputs)
			inputs = append(inputs, c.Path)
		}
		uses[c.Path]++
	}

	var parts []string

	// Inputs feeding several clips are split once.
	taps := map[string][]string{}
	for _, in := range inputs {
		n := uses[in]
		if n == 1 {
			taps[in] = []string{fmt.Sprintf("[%d:v]", index[in])}
			continue
		}
		labels := make([]string, n)
		for j := range labels {
			labels[j] = fmt.Sprintf("[i%dc%d]", index[in], j)
		}
		parts = append(parts, fmt.Sprintf("[%d:v]split=%d%s", index[in], n, strings.Join(labels, "")))
		taps[in] = labels
	}

	clips := make([]string, len(req.Clips))
	for i, c := range req.Clips {
		tap := taps[c.Path][0]
		taps[c.Path] = taps[c.Path][1:]

		chain := fmt.Sprintf("%strim=start=%s:duration=%s,setpts=PTS-STARTPTS",
			tap, secs(c.Range.Start), secs(c.Range.Duration))
		if req.Width > 0 && req.Height > 0 {
			chain += fmt.Sprintf(",scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
				req.Width, req.Height, req.Width, req.Height)
		}
		if req.FPS > 0 {
			chain += fmt.Sprintf(",fps=%d", req.FPS)
		}
		clips[i] = fmt.Sprintf("[s%d]", i)
		parts = append(parts, chain+",setsar=1"+clips[i])
	}

	name := XFadeName(req.Style, req.Direction)
	switch {
	case len(clips) == 1:
		parts = append(parts, clips[0]+"null[vout]")
	case len(req.Transitions) > 0 && name != "":
		last := clips[0]
		for i, tr := range req.Transitions {
			out := fmt.Sprintf("[x%d]", i+1)
			if i == len(req.Transitions)-1 {
				out = "[vout]"
			}
			parts = append(parts, fmt.Sprintf("%s%sxfade=transition=%s:duration=%s:offset=%s%s",
				last, clips[i+1], name, secs(tr.Range.Duration), secs(tr.Range.Start), out))
			last = out
		}
	default:
		parts = append(parts, fmt.Sprintf("%sconcat=n=%d:v=1:a=0[vout]", strings.Join(clips, ""), len(clips)))
	}

	return inputs, strings.Join(parts, ";")
}

func secs(t timeline.TimeValue) string {
	return strconv.FormatFloat(t.Seconds(), 'f', -1, 64)
}
