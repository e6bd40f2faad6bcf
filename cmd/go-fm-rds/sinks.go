package main

import (
	"context"
	"encoding/binary"
	"io"
	"log"

	"github.com/ebitengine/oto/v3"
	"github.com/gdamore/tcell"

	"go-fm-rds/internal/config"
	"go-fm-rds/internal/display"
	"go-fm-rds/internal/pipeline"
	"go-fm-rds/internal/rds"
)

const statsEvery = 100 // blocks

// tracker follows the station record through the reports of each block.
type tracker struct {
	data   rds.Data
	status display.Status
	blocks int64
}

func (t *tracker) update(out pipeline.Output) {
	t.blocks++
	t.status.PilotHz = out.PilotHz
	t.status.PilotLevel = out.PilotLevel
	t.status.Locked = out.Locked
	if n := len(out.Reports); n > 0 {
		last := out.Reports[n-1]
		t.data = last.Data
		t.status.Data = last.Data
		t.status.NGroup, t.status.ErrSoft, t.status.ErrHard = last.NGroup, last.ErrSoft, last.ErrHard
	}
}

// logSink prints field changes as they are decoded.
type logSink struct {
	tracker
	prev      rds.Data
	rbds      bool
	maxResync int
}

func newLogSink(cfg *config.Config, rbds bool) *logSink {
	return &logSink{rbds: rbds, maxResync: cfg.MaxResync}
}

func (s *logSink) Write(out pipeline.Output) error {
	s.update(out)
	for _, r := range out.Reports {
		if r.SyncLost {
			log.Printf("[RDS] sync lost after %d retries without a group, %d in total", s.maxResync, r.ErrHard)
		}
		if !r.OK {
			continue
		}
		kind := rds.GroupTypeName(r.Group.Type(), r.Group.VersionB())
		for _, change := range display.Changes(s.prev, r.Data, s.rbds) {
			log.Printf("[RDS] %s (%s): %s", r.Group.Name(), kind, change)
		}
		s.prev = r.Data
	}
	if s.blocks%statsEvery == 0 {
		st := s.status
		log.Printf("[STATS] pilot %.1f Hz level %.0f locked=%v, groups %d, corrected %d, resync %d",
			st.PilotHz, st.PilotLevel, st.Locked, st.NGroup, st.ErrSoft, st.ErrHard)
	}
	return nil
}

func (s *logSink) Flush() {
	log.Printf("[INFO] %d groups, %d corrected blocks, %d resync retries\n%s",
		s.status.NGroup, s.status.ErrSoft, s.status.ErrHard, s.data.Summary(s.rbds))
}

// audioSink plays the demodulated audio.
type audioSink struct {
	audio  *pipeline.Audio
	player *oto.Player
	writer *io.PipeWriter
	blocks int64
}

func newAudioSink(cfg *config.Config) (*audioSink, error) {
	audio, err := pipeline.NewAudio(cfg)
	if err != nil {
		return nil, err
	}
	log.Println("[INFO] Setting up audio...")
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   cfg.OutputSampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	reader, writer := io.Pipe()
	player := ctx.NewPlayer(reader)
	player.Play()
	return &audioSink{audio: audio, player: player, writer: writer}, nil
}

func (s *audioSink) Write(out pipeline.Output) error {
	s.blocks++
	pcm := s.audio.Process(out.Frequency)
	buf := make([]byte, 2*len(pcm))
	for i, v := range pcm {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(v))
	}
	if s.blocks%statsEvery == 0 && s.audio.Clipped() > 0 {
		log.Printf("[STATS] Total clipped samples so far: %d", s.audio.Clipped())
	}
	_, err := s.writer.Write(buf)
	return err
}

func (s *audioSink) Close() error {
	s.writer.Close()
	return s.player.Close()
}

// screenSink keeps a full screen display up to date.
type screenSink struct {
	tracker
	scr    tcell.Screen
	view   *display.Screen
	cancel context.CancelFunc
}

func newScreenSink(rbds bool, cancel context.CancelFunc) (*screenSink, error) {
	scr, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := scr.Init(); err != nil {
		return nil, err
	}
	scr.Clear()

	s := &screenSink{scr: scr, view: display.NewScreen(scr), cancel: cancel}
	s.status.RBDS = rbds
	quit := s.view.Quit()
	go func() {
		<-quit
		cancel()
	}()
	return s, nil
}

func (s *screenSink) Write(out pipeline.Output) error {
	s.update(out)
	s.view.Draw(s.status)
	return nil
}

func (s *screenSink) Close() error {
	s.scr.Fini()
	return nil
}
