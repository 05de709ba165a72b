//go:build plugin

package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nestrack/nestrack"
	"github.com/nestrack/nestrack/decode"
	"github.com/nestrack/nestrack/render"
	"github.com/nestrack/nestrack/session"
	"gopkg.in/natefinch/lumberjack.v2"
	"pipelined.dev/audio/vst2"
)

const PLUGIN_NAME = "nestrack"

var PLUGIN_ID = [4]byte{'n', 's', 't', 'k'}

func newLogger(configDir string) *slog.Logger {
	if configDir == "" {
		return slog.Default()
	}
	return slog.New(slog.NewTextHandler(&lumberjack.Logger{
		Filename:   filepath.Join(configDir, "Nestrack", "nestrack-vsti.log"),
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func init() {
	var (
		version = int32(100)
	)
	vst2.PluginAllocator = func(h vst2.Host) (vst2.Plugin, vst2.Dispatcher) {
		recoveryFile := ""
		configDir, err := os.UserConfigDir()
		if err == nil {
			randBytes := make([]byte, 16)
			rand.Read(randBytes)
			recoveryFile = filepath.Join(configDir, "Nestrack", "nestrack-vsti-recovery-"+hex.EncodeToString(randBytes))
		} else {
			configDir = ""
		}
		log := newLogger(configDir)
		s := session.New(session.Collaborators{
			Decoder:          decode.Files{},
			Logger:           log,
			RecoveryFilePath: recoveryFile,
		})
		ctx, cancel := context.WithCancel(context.Background())
		runDone := make(chan struct{})
		go func() {
			s.Run(ctx)
			close(runDone)
		}()
		renderer := render.NewRenderer(s.Exchange(), nil)
		return vst2.Plugin{
				UniqueID:       PLUGIN_ID,
				Version:        version,
				InputChannels:  0,
				OutputChannels: 2,
				Name:           PLUGIN_NAME,
				Vendor:         "nestrack",
				Category:       vst2.PluginCategorySynth,
				Flags:          vst2.PluginIsSynth,
				ProcessFloatFunc: func(in, out vst2.FloatBuffer) {
					renderer.Process(nestrack.AudioBuffer{
						Left:  out.Channel(0)[:out.Frames],
						Right: out.Channel(1)[:out.Frames],
					})
				},
			}, vst2.Dispatcher{
				CanDoFunc: func(pcds vst2.PluginCanDoString) vst2.CanDoResponse {
					switch pcds {
					case vst2.PluginCanReceiveEvents, vst2.PluginCanReceiveMIDIEvent:
						return vst2.YesCanDo
					}
					return vst2.NoCanDo
				},
				ProcessEventsFunc: func(ev *vst2.EventsPtr) {
					for i := 0; i < ev.NumEvents(); i++ {
						if v, ok := ev.Event(i).(*vst2.MIDIEvent); ok {
							msg := v.Data
							renderer.QueueMIDI(msg[:])
						}
					}
				},
				CloseFunc: func() {
					saved := make(chan struct{})
					s.Exec() <- func() {
						if err := s.SaveRecovery(); err != nil {
							log.Error("saving recovery file", "err", err)
						}
						close(saved)
					}
					<-saved
					cancel()
					<-runDone
					s.Close()
				},
				GetChunkFunc: func(isPreset bool) []byte {
					retChn := make(chan []byte)
					s.Exec() <- func() {
						var buf bytes.Buffer
						if err := s.Write(&buf); err != nil {
							log.Error("saving chunk", "err", err)
						}
						retChn <- buf.Bytes()
					}
					return <-retChn
				},
				SetChunkFunc: func(data []byte, isPreset bool) {
					s.Exec() <- func() {
						if _, err := s.Read(bytes.NewReader(data)); err != nil {
							log.Error("loading chunk", "err", err)
						}
					}
				},
			}
	}
}

func main() {}
