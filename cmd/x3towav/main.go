// Command x3towav decodes an X3 acoustic archive into a WAV file.
package main

import (
	"flag"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mewkiz/pkg/osutil"
	"github.com/mewkiz/pkg/pathutil"
	"github.com/pkg/errors"

	"github.com/uwacoustics/x3"
)

const wavFormat = 1 // PCM

func main() {
	var force bool
	flag.BoolVar(&force, "f", false, "force overwrite")
	flag.Parse()

	logger := log.New(os.Stderr)
	for _, x3Path := range flag.Args() {
		if err := decodeToWav(logger, x3Path, force); err != nil {
			logger.Fatal("decode failed", "file", x3Path, "err", err)
		}
	}
}

func decodeToWav(logger *log.Logger, x3Path string, force bool) error {
	r, err := x3.Open(x3Path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer r.Close()

	wavPath := pathutil.TrimExt(x3Path) + ".wav"
	if !force && osutil.Exists(wavPath) {
		return errors.Errorf("wav file %q already present; use -f to force overwrite", wavPath)
	}
	w, err := os.Create(wavPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer w.Close()

	const bitDepth = 16
	enc := wav.NewEncoder(w, int(r.Spec.SampleRate), bitDepth, int(r.Spec.Channels), wavFormat)
	defer enc.Close()

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: int(r.Spec.Channels),
			SampleRate:  int(r.Spec.SampleRate),
		},
		SourceBitDepth: bitDepth,
	}

	for {
		samples, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.WithStack(err)
		}
		buf.Data = buf.Data[:0]
		for _, s := range samples {
			buf.Data = append(buf.Data, int(s))
		}
		if err := enc.Write(buf); err != nil {
			return errors.WithStack(err)
		}
	}

	if r.Stats.FrameErrors > 0 {
		logger.Warn("dropped frames during decode", "file", x3Path, "frame_errors", r.Stats.FrameErrors)
	}
	logger.Info("decoded archive", "file", x3Path, "frames", r.Stats.Frames, "samples", r.Stats.Samples, "out", wavPath)
	return nil
}
