package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG screenshots
	_ "image/png"  // register PNG screenshots
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// imageExts are the screenshot formats a watched directory may contain.
var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

func isImage(path string) bool {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

// DirectoryCapture treats a screenshot directory as a live screen: the most
// recently written image is the current frame. Only one session may hold the
// directory at a time.
type DirectoryCapture struct {
	Dir string

	mu     sync.Mutex
	active *dirSource
}

// NewDirectoryCapture creates a capture over dir.
func NewDirectoryCapture(dir string) *DirectoryCapture {
	return &DirectoryCapture{Dir: dir}
}

// Start begins watching the directory.
func (d *DirectoryCapture) Start(ctx context.Context) (FrameSource, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active != nil {
		return nil, InvalidState(fmt.Errorf("%s is already being captured", d.Dir))
	}

	info, err := os.Stat(d.Dir)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, Denied(err)
		}
		return nil, NotFound(err)
	}
	if !info.IsDir() {
		return nil, NotFound(fmt.Errorf("%s is not a directory", d.Dir))
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, InvalidState(err)
	}
	if err := watcher.Add(d.Dir); err != nil {
		_ = watcher.Close()
		if errors.Is(err, os.ErrPermission) {
			return nil, Denied(err)
		}
		return nil, InvalidState(err)
	}

	src := &dirSource{
		owner:   d,
		watcher: watcher,
		latest:  newestImage(d.Dir),
		done:    make(chan struct{}),
	}
	go src.processEvents()
	d.active = src
	debugLog("watching %s (initial frame %q)", d.Dir, src.latest)
	return src, nil
}

func (d *DirectoryCapture) releaseSource(src *dirSource) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == src {
		d.active = nil
	}
}

// newestImage returns the most recently modified image in dir, or "".
func newestImage(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var newest string
	var newestMod int64
	for _, e := range entries {
		if e.IsDir() || !isImage(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); newest == "" || mod > newestMod {
			newest = filepath.Join(dir, e.Name())
			newestMod = mod
		}
	}
	return newest
}

type dirSource struct {
	owner   *DirectoryCapture
	watcher *fsnotify.Watcher
	done    chan struct{}

	mu      sync.Mutex
	latest  string
	stopped bool
}

// processEvents tracks the latest written image until Stop.
func (s *dirSource) processEvents() {
	for {
		select {
		case <-s.done:
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !isImage(event.Name) {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create {
				s.mu.Lock()
				s.latest = event.Name
				s.mu.Unlock()
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				s.mu.Lock()
				if s.latest == event.Name {
					s.latest = ""
				}
				s.mu.Unlock()
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			debugLog("watcher error: %v", err)
		}
	}
}

// NextFrame decodes the latest image. A missing or half-written file is
// reported as not ready.
func (s *dirSource) NextFrame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	path, stopped := s.latest, s.stopped
	s.mu.Unlock()
	if stopped {
		return nil, InvalidState(errors.New("capture stopped"))
	}
	if path == "" {
		return nil, ErrFrameNotReady
	}
	return decodeImageFile(path)
}

func (s *dirSource) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	close(s.done)
	err := s.watcher.Close()
	s.owner.releaseSource(s)
	debugLog("released %s", s.owner.Dir)
	return err
}

func (s *dirSource) ActiveTracks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return 0
	}
	return 1
}

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ErrFrameNotReady
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		debugLog("decoding %s: %v", path, err)
		return nil, ErrFrameNotReady
	}
	return img, nil
}
