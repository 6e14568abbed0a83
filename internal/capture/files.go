package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"
)

// FileCapture replays a fixed list of image files, one per frame. Once the
// list is exhausted the last image repeats.
type FileCapture struct {
	Paths []string
}

// NewFileCapture creates a capture over paths.
func NewFileCapture(paths ...string) *FileCapture {
	return &FileCapture{Paths: paths}
}

// Start checks that every file exists and is readable.
func (f *FileCapture) Start(ctx context.Context) (FrameSource, error) {
	if len(f.Paths) == 0 {
		return nil, NotFound(errors.New("no image files given"))
	}
	for _, p := range f.Paths {
		info, err := os.Stat(p)
		if err != nil {
			if errors.Is(err, os.ErrPermission) {
				return nil, Denied(err)
			}
			return nil, NotFound(err)
		}
		if info.IsDir() {
			return nil, NotFound(fmt.Errorf("%s is a directory", p))
		}
	}
	paths := make([]string, len(f.Paths))
	copy(paths, f.Paths)
	return &fileSource{paths: paths}, nil
}

type fileSource struct {
	mu      sync.Mutex
	paths   []string
	next    int
	stopped bool
}

func (s *fileSource) NextFrame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil, InvalidState(errors.New("capture stopped"))
	}
	path := s.paths[s.next]
	if s.next < len(s.paths)-1 {
		s.next++
	}
	s.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

func (s *fileSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return nil
}

func (s *fileSource) ActiveTracks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return 0
	}
	return 1
}
