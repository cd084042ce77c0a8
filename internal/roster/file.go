package roster

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/dealroom/pkg/models"
)

// leagueFile is the on-disk roster format.
type leagueFile struct {
	Teams []models.Team `yaml:"teams"`
}

// FileSource serves rosters from a YAML league file and reloads it when the
// file changes on disk.
type FileSource struct {
	path   string
	mem    *MemorySource
	mu     sync.Mutex
	closed bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// OpenFile loads the league file at path and starts watching it.
// If the watcher cannot be created the source still serves the initial snapshot.
func OpenFile(path string) (*FileSource, error) {
	teams, err := loadLeague(path)
	if err != nil {
		return nil, err
	}

	fs := &FileSource{
		path: path,
		mem:  NewMemorySource(teams...),
		done: make(chan struct{}),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("[roster] file watcher unavailable, serving static snapshot: %v", err)
		return fs, nil
	}
	// Watch the directory so editors that replace the file are still seen.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		log.Printf("[roster] cannot watch %s: %v", path, err)
		return fs, nil
	}
	fs.watcher = watcher

	go fs.watch()

	return fs, nil
}

// Team resolves a team from the latest loaded snapshot.
func (fs *FileSource) Team(ctx context.Context, id int) (*models.Team, error) {
	return fs.mem.Team(ctx, id)
}

// Teams returns every team from the latest snapshot.
func (fs *FileSource) Teams() []models.Team {
	return fs.mem.Teams()
}

// Reload re-reads the league file. On parse errors the previous snapshot is kept.
func (fs *FileSource) Reload() error {
	teams, err := loadLeague(fs.path)
	if err != nil {
		return err
	}
	fs.mem.Replace(teams)
	return nil
}

// Close stops the file watcher.
func (fs *FileSource) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.closed {
		return nil
	}
	fs.closed = true
	close(fs.done)
	if fs.watcher != nil {
		return fs.watcher.Close()
	}
	return nil
}

func (fs *FileSource) watch() {
	target := filepath.Clean(fs.path)
	for {
		select {
		case <-fs.done:
			return
		case event, ok := <-fs.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if err := fs.Reload(); err != nil {
				log.Printf("[roster] reload %s failed, keeping previous snapshot: %v", fs.path, err)
			}
		case err, ok := <-fs.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[roster] watcher error: %v", err)
		}
	}
}

func loadLeague(path string) ([]models.Team, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster file: %w", err)
	}
	var league leagueFile
	if err := yaml.Unmarshal(data, &league); err != nil {
		return nil, fmt.Errorf("parse roster file %s: %w", path, err)
	}
	if len(league.Teams) == 0 {
		return nil, fmt.Errorf("parse roster file %s: no teams defined", path)
	}
	seen := make(map[int]bool, len(league.Teams))
	for _, t := range league.Teams {
		if t.ID <= 0 {
			return nil, fmt.Errorf("parse roster file %s: team %q has invalid id %d", path, t.Name, t.ID)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("parse roster file %s: duplicate team id %d", path, t.ID)
		}
		seen[t.ID] = true
	}
	return league.Teams, nil
}

var _ Source = (*FileSource)(nil)
