package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"greenguile/internal/logger"
	"greenguile/internal/models"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// FilePersister keeps the settings document in a JSON file. The document is
// encoded with encoding/json so dotted extra keys stay flat; viper only
// watches the file for external edits.
type FilePersister struct {
	path string

	mu        sync.Mutex
	v         *viper.Viper
	lastSaved []byte
}

func NewFilePersister(path string) *FilePersister {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	return &FilePersister{path: path, v: v}
}

func (p *FilePersister) Path() string { return p.path }

func (p *FilePersister) Load(ctx context.Context) (models.Settings, error) {
	if err := ctx.Err(); err != nil {
		return models.Settings{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	raw, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.Settings{}, models.ErrSettingsNotFound
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("read %s: %w", p.path, err)
	}
	return decodeDocument(p.path, raw)
}

// Save replaces the file atomically: the document goes to a temp file in the
// same directory which is then renamed over the target.
func (p *FilePersister) Save(ctx context.Context, s models.Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	raw, err := json.MarshalIndent(s.Document(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	raw = append(raw, '\n')

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(p.path)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", p.path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", p.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", p.path, err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		return fmt.Errorf("write %s: %w", p.path, err)
	}
	p.lastSaved = raw
	return nil
}

// Watch reloads the store whenever the file changes on disk. Our own saves
// and unreadable or invalid contents are ignored.
func (p *FilePersister) Watch(store *Store, log *logger.Logger) {
	if log == nil {
		log = logger.Nop()
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.v.OnConfigChange(func(ev fsnotify.Event) {
		if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
			return
		}
		changed, err := p.reload(store)
		switch {
		case err != nil:
			log.Warnw("settings_reload_rejected", "file", ev.Name, "err", err)
		case changed:
			log.Infow("settings_reloaded", "file", ev.Name)
		}
	})
	p.v.WatchConfig()
}

// reload hands the file's current contents to store unless they are the
// document this persister wrote last.
func (p *FilePersister) reload(store *Store) (bool, error) {
	return store.reloadFrom(p.readExternal)
}

func (p *FilePersister) readExternal() (models.Settings, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	raw, err := os.ReadFile(p.path)
	if err != nil {
		return models.Settings{}, false, fmt.Errorf("read %s: %w", p.path, err)
	}
	if p.lastSaved != nil && bytes.Equal(raw, p.lastSaved) {
		return models.Settings{}, false, nil
	}
	next, err := decodeDocument(p.path, raw)
	if err != nil {
		return models.Settings{}, false, err
	}
	return next, true, nil
}

func decodeDocument(path string, raw []byte) (models.Settings, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return models.Settings{}, fmt.Errorf("read %s: %w", path, err)
	}
	return models.SettingsFromDocument(doc)
}
