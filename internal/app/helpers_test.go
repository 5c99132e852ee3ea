package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"dialoguereel/internal/audio"
	"dialoguereel/internal/config"
	"dialoguereel/internal/dialogue"
	"dialoguereel/internal/render"
	"dialoguereel/internal/storage"
	"dialoguereel/internal/synth"
)

// fakeSynth returns speech of a fixed duration per speaker and fails on
// texts listed in failOn
type fakeSynth struct {
	mu        sync.Mutex
	durations map[dialogue.SpeakerID]time.Duration
	failOn    map[string]error
	calls     []string
}

func (f *fakeSynth) Synthesize(_ context.Context, text string, voice dialogue.SpeakerID) (*synth.Speech, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()

	if err, ok := f.failOn[text]; ok {
		return nil, err
	}
	return &synth.Speech{
		Data:     []byte("voice:" + text),
		Format:   audio.FormatWAV,
		Duration: f.durations[voice],
	}, nil
}

type listingSynth struct {
	fakeSynth
}

func (l *listingSynth) ListVoices(context.Context) ([]synth.VoiceInfo, error) {
	return []synth.VoiceInfo{{ID: "v1", Name: "Rick"}}, nil
}

// recordingBackend keeps the last request it was given
type recordingBackend struct {
	requests []*render.Request
	outputs  []string
	err      error
}

func (b *recordingBackend) Render(_ context.Context, req *render.Request, outputPath string) error {
	if b.err != nil {
		return b.err
	}
	b.requests = append(b.requests, req)
	b.outputs = append(b.outputs, outputPath)
	return nil
}

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memoryStore) PutObject(_ context.Context, key string, reader io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryStore) ObjectExists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func testConfiguration() *config.Configuration {
	cfg := config.NewConfiguration()
	cfg.Set("roster", []string{"rick", "morty"})
	cfg.Set("speakers", map[string]interface{}{
		"rick": map[string]interface{}{
			"image":         "assets/rick.png",
			"position":      map[string]interface{}{"x": "left", "y": "bottom"},
			"display_width": 480,
		},
		"morty": map[string]interface{}{
			"image":         "assets/morty.png",
			"position":      map[string]interface{}{"x": "right", "y": "bottom"},
			"display_width": 420,
		},
	})
	cfg.Set("background.source", "assets/bg.mp4")
	cfg.Set("render.workspace_dir", "/work")
	cfg.Set("log.report_path", "/logs/reports.jsonl")
	return cfg
}

type testApp struct {
	app     *Application
	fs      afero.Fs
	synth   *fakeSynth
	backend *recordingBackend
	store   *memoryStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	fs := afero.NewMemMapFs()
	fake := &fakeSynth{
		durations: map[dialogue.SpeakerID]time.Duration{
			"rick":  2 * time.Second,
			"morty": 3500 * time.Millisecond,
		},
		failOn: map[string]error{},
	}
	backend := &recordingBackend{}
	store := &memoryStore{objects: map[string][]byte{}}

	app, err := NewApplicationWithComponents(testConfiguration(), Components{
		Fs:          fs,
		Logger:      zaptest.NewLogger(t),
		Synthesizer: fake,
		Backend:     backend,
		Store: func(context.Context) (storage.ObjectStore, error) {
			return store, nil
		},
	})
	require.NoError(t, err)

	return &testApp{app: app, fs: fs, synth: fake, backend: backend, store: store}
}

// writeSilence stores a mono 8kHz wav of the given length
func writeSilence(t *testing.T, fs afero.Fs, path string, length time.Duration) {
	t.Helper()
	clip := audio.Clip{
		Format:  beep.Format{SampleRate: 8000, NumChannels: 1, Precision: 2},
		Samples: make([][2]float64, int(length.Seconds()*8000)),
	}
	require.NoError(t, audio.WriteWAVFile(fs, path, clip))
}

func srtBlock(index int, start, end, body string) string {
	return fmt.Sprintf("%d\n%s --> %s\n%s\n\n", index, start, end, body)
}
