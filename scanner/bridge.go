package scanner

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	apperrors "github.com/lucafab/magazzino/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrNoCode is returned by a Decoder when the frame simply contains no
// readable code. It is the one decode failure the bridge suppresses.
var ErrNoCode = errors.New("no barcode in frame")

// Camera is an acquired frame source. Close releases the device.
type Camera interface {
	ID() string
	Frame(ctx context.Context) (image.Image, error)
	Close() error
}

// CameraProvider enumerates the available camera devices. The bridge
// always acquires the first one.
type CameraProvider interface {
	Cameras(ctx context.Context) ([]Camera, error)
}

// Decoder extracts a single barcode value from one frame.
type Decoder interface {
	Decode(img image.Image) (string, error)
}

// Bridge adapts a continuous camera stream into discrete decoded-barcode
// events: a bounded channel fed by a sampling loop. Repeated detections of
// a code still in front of the camera emit repeatedly; callers deduplicate
// if they need to. Stop is idempotent and mandatory on teardown, the
// camera is the one resource with a hard release obligation.
type Bridge struct {
	provider CameraProvider
	decoder  Decoder
	fps      int
	buffer   int
	logger   zerolog.Logger

	lock   sync.Mutex
	cancel context.CancelFunc
	camera Camera
	events chan string
	done   chan struct{}
}

// BridgeOption defines a function type to modify the Bridge instance.
type BridgeOption func(*Bridge)

// WithFPS sets the decode sampling rate (default 10).
func WithFPS(fps int) BridgeOption {
	return func(b *Bridge) {
		if fps > 0 {
			b.fps = fps
		}
	}
}

// WithBuffer sets the event channel capacity (default 16). When the caller
// falls behind, new detections are dropped rather than queued unboundedly.
func WithBuffer(n int) BridgeOption {
	return func(b *Bridge) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// NewBridge initializes a Bridge with the required device provider and
// decoder.
func NewBridge(provider CameraProvider, decoder Decoder, options ...BridgeOption) (*Bridge, error) {
	if provider == nil {
		return nil, errors.New("[NewBridge] camera provider is required")
	}
	if decoder == nil {
		return nil, errors.New("[NewBridge] decoder is required")
	}
	bridge := &Bridge{
		provider: provider,
		decoder:  decoder,
		fps:      10,
		buffer:   16,
		logger:   log.With().Str("component", "scanner").Logger(),
	}
	for _, opt := range options {
		opt(bridge)
	}
	return bridge, nil
}

// Start acquires the first available camera and begins continuous decoding
// into the returned event channel. A missing render region or absent
// camera fails here, reported and non-fatal, and nothing starts. The
// channel is closed by Stop or when ctx is cancelled.
func (b *Bridge) Start(ctx context.Context, region string) (<-chan string, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.events != nil {
		return nil, apperrors.ErrAlreadyScanning
	}
	if region == "" {
		return nil, apperrors.ErrRegionNotFound
	}

	cameras, err := b.provider.Cameras(ctx)
	if err != nil {
		return nil, apperrors.Wrapf(err, "enumerate cameras")
	}
	if len(cameras) == 0 {
		return nil, apperrors.ErrNoCamera
	}
	camera := cameras[0]

	loopCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.camera = camera
	b.events = make(chan string, b.buffer)
	b.done = make(chan struct{})

	b.logger.Info().Str("camera", camera.ID()).Str("region", region).Int("fps", b.fps).Msg("scanner started")
	go b.decodeLoop(loopCtx, camera, b.events, b.done)

	return b.events, nil
}

// decodeLoop samples frames at the configured rate until cancelled. It is
// the only sender on events.
func (b *Bridge) decodeLoop(ctx context.Context, camera Camera, events chan<- string, done chan<- struct{}) {
	defer close(done)
	defer close(events)

	ticker := time.NewTicker(time.Second / time.Duration(b.fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		frame, err := camera.Frame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.logger.Warn().Err(err).Msg("frame capture failed")
			continue
		}

		code, err := b.decoder.Decode(frame)
		if err != nil {
			if !errors.Is(err, ErrNoCode) {
				b.logger.Warn().Err(err).Msg("decode failed")
			}
			continue
		}

		select {
		case events <- code:
		default:
			// Caller is not draining, drop the detection.
		}
	}
}

// Stop releases the camera and closes the event channel. Safe to call any
// number of times, including before Start.
func (b *Bridge) Stop() {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.events == nil {
		return
	}
	b.cancel()
	<-b.done
	if err := b.camera.Close(); err != nil {
		b.logger.Warn().Err(err).Msg("camera release failed")
	}
	b.cancel = nil
	b.camera = nil
	b.events = nil
	b.done = nil
	b.logger.Info().Msg("scanner stopped")
}
