package scanner

import (
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

var _ CameraProvider = (*DirectoryProvider)(nil)

// DirectoryProvider exposes a folder of captured frame images as a camera
// device, for hosts without a live video device attached. The frames cycle,
// like a camera held over the same codes, so repeated detection behaves as
// it would on real hardware.
type DirectoryProvider struct {
	dir string
}

func NewDirectoryProvider(dir string) *DirectoryProvider {
	return &DirectoryProvider{dir: dir}
}

// Cameras returns one camera when the folder holds at least one readable
// image, and none otherwise.
func (p *DirectoryProvider) Cameras(_ context.Context) ([]Camera, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read frames folder")
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".png", ".jpg", ".jpeg":
			files = append(files, filepath.Join(p.dir, entry.Name()))
		}
	}
	if len(files) == 0 {
		return nil, nil
	}
	sort.Strings(files)
	return []Camera{&directoryCamera{id: p.dir, files: files}}, nil
}

type directoryCamera struct {
	id    string
	lock  sync.Mutex
	files []string
	next  int
}

func (c *directoryCamera) ID() string {
	return c.id
}

func (c *directoryCamera) Frame(_ context.Context) (image.Image, error) {
	c.lock.Lock()
	path := c.files[c.next]
	c.next = (c.next + 1) % len(c.files)
	c.lock.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open frame")
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode frame %s", filepath.Base(path))
	}
	return img, nil
}

func (c *directoryCamera) Close() error {
	return nil
}
