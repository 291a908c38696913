package scanner_test

import (
	"context"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/lucafab/magazzino/catalog"
	apperrors "github.com/lucafab/magazzino/internal/errors"
	"github.com/lucafab/magazzino/scanner"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeCamera struct {
	lock   sync.Mutex
	closed int
}

func (c *fakeCamera) ID() string { return "cam-0" }

func (c *fakeCamera) Frame(_ context.Context) (image.Image, error) {
	return image.NewGray(image.Rect(0, 0, 1, 1)), nil
}

func (c *fakeCamera) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.closed++
	return nil
}

func (c *fakeCamera) closedCount() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.closed
}

type fakeProvider struct {
	cameras []scanner.Camera
	err     error
}

func (p *fakeProvider) Cameras(_ context.Context) ([]scanner.Camera, error) {
	return p.cameras, p.err
}

// scriptedDecoder replays a sequence of decode outcomes, then reports
// empty frames forever.
type scriptedDecoder struct {
	lock    sync.Mutex
	results []decodeResult
	next    int
}

type decodeResult struct {
	code string
	err  error
}

func (d *scriptedDecoder) Decode(_ image.Image) (string, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.next >= len(d.results) {
		return "", scanner.ErrNoCode
	}
	r := d.results[d.next]
	d.next++
	return r.code, r.err
}

func newBridge(t *testing.T, provider scanner.CameraProvider, decoder scanner.Decoder) *scanner.Bridge {
	t.Helper()
	bridge, err := scanner.NewBridge(provider, decoder, scanner.WithFPS(200))
	require.NoError(t, err)
	return bridge
}

func collect(t *testing.T, events <-chan string, n int) []string {
	t.Helper()
	var out []string
	timeout := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case code, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, code)
		case <-timeout:
			t.Fatalf("timed out after %d of %d events", len(out), n)
		}
	}
	return out
}

func TestStartWithoutCamera(t *testing.T) {
	bridge := newBridge(t, &fakeProvider{}, &scriptedDecoder{})
	_, err := bridge.Start(context.Background(), "region")
	require.ErrorIs(t, err, apperrors.ErrNoCamera)
}

func TestStartWithoutRegion(t *testing.T) {
	bridge := newBridge(t, &fakeProvider{cameras: []scanner.Camera{&fakeCamera{}}}, &scriptedDecoder{})
	_, err := bridge.Start(context.Background(), "")
	require.ErrorIs(t, err, apperrors.ErrRegionNotFound)
}

func TestEmitsDecodedBarcodes(t *testing.T) {
	camera := &fakeCamera{}
	decoder := &scriptedDecoder{results: []decodeResult{
		{code: "111"},
		{err: scanner.ErrNoCode}, // empty frame, suppressed
		{code: "111"},            // same code still in front of the lens
		{err: errors.New("checksum mismatch")}, // logged, non-fatal
		{code: "222"},
	}}
	bridge := newBridge(t, &fakeProvider{cameras: []scanner.Camera{camera}}, decoder)

	events, err := bridge.Start(context.Background(), "region")
	require.NoError(t, err)
	defer bridge.Stop()

	require.Equal(t, []string{"111", "111", "222"}, collect(t, events, 3))
}

func TestDoubleStartFails(t *testing.T) {
	bridge := newBridge(t, &fakeProvider{cameras: []scanner.Camera{&fakeCamera{}}}, &scriptedDecoder{})
	_, err := bridge.Start(context.Background(), "region")
	require.NoError(t, err)
	defer bridge.Stop()

	_, err = bridge.Start(context.Background(), "region")
	require.ErrorIs(t, err, apperrors.ErrAlreadyScanning)
}

func TestStopReleasesCameraAndIsIdempotent(t *testing.T) {
	camera := &fakeCamera{}
	bridge := newBridge(t, &fakeProvider{cameras: []scanner.Camera{camera}}, &scriptedDecoder{})

	events, err := bridge.Start(context.Background(), "region")
	require.NoError(t, err)

	bridge.Stop()
	bridge.Stop()
	bridge.Stop()

	require.Equal(t, 1, camera.closedCount(), "camera released exactly once")
	_, open := <-events
	require.False(t, open, "event channel closed on stop")
}

func TestStopBeforeStartIsSafe(t *testing.T) {
	bridge := newBridge(t, &fakeProvider{}, &scriptedDecoder{})
	bridge.Stop()
}

func TestRestartAfterStop(t *testing.T) {
	camera := &fakeCamera{}
	decoder := &scriptedDecoder{results: []decodeResult{{code: "111"}}}
	bridge := newBridge(t, &fakeProvider{cameras: []scanner.Camera{camera}}, decoder)

	events, err := bridge.Start(context.Background(), "region")
	require.NoError(t, err)
	require.Equal(t, []string{"111"}, collect(t, events, 1))
	bridge.Stop()

	_, err = bridge.Start(context.Background(), "region")
	require.NoError(t, err)
	bridge.Stop()
	require.Equal(t, 2, camera.closedCount())
}

func productWithBarcode(barcode string) catalog.Product {
	return catalog.Product{Barcode: barcode, Name: "Prodotto " + barcode}
}

func TestListIsScopedPerSession(t *testing.T) {
	a := scanner.NewList()
	b := scanner.NewList()

	a.Add(productWithBarcode("111"))
	require.Equal(t, 1, a.Len())
	require.Zero(t, b.Len(), "lists are independent, no process-wide singleton")

	require.True(t, a.Update("111", productWithBarcode("111")))
	require.False(t, a.Update("999", productWithBarcode("999")))
}
