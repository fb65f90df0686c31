package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

//go:embed templates/page.html
var templateFS embed.FS

const pageTemplate = "templates/page.html"

// PageData is handed to the page template. An empty LivePath renders a
// standalone page that opens the embedded Modals without a server.
type PageData struct {
	View     View
	Modal    *ModalView
	LivePath string
	Modals   []ModalView
}

// Page executes the page template. When built from a file path the
// template is reloaded whenever the file changes; a broken edit keeps the
// last good template.
type Page struct {
	mu     sync.RWMutex
	tmpl   *template.Template
	path   string
	logger zerolog.Logger
}

// NewPage loads the embedded template, or the override at path when set.
func NewPage(path string, logger zerolog.Logger) (*Page, error) {
	p := &Page{path: path, logger: logger}
	if err := p.reload(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Page) reload() error {
	var (
		tmpl *template.Template
		err  error
	)
	if p.path == "" {
		tmpl, err = template.ParseFS(templateFS, pageTemplate)
	} else {
		tmpl, err = template.ParseFiles(p.path)
	}
	if err != nil {
		return fmt.Errorf("parse page template: %w", err)
	}

	p.mu.Lock()
	p.tmpl = tmpl
	p.mu.Unlock()
	return nil
}

// Execute writes the page for data to w. Output is buffered so a template
// error never leaves a half-written page.
func (p *Page) Execute(w io.Writer, data PageData) error {
	p.mu.RLock()
	tmpl := p.tmpl
	p.mu.RUnlock()

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("execute page template: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Watch reloads the override template on change until ctx is done. It
// returns immediately when the embedded template is in use.
func (p *Page) Watch(ctx context.Context) error {
	if p.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create template watcher: %w", err)
	}
	// editors replace files on save, so watch the directory
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch template dir: %w", err)
	}

	go func() {
		defer watcher.Close()
		target := filepath.Clean(p.path)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				if _, err := os.Stat(p.path); err != nil {
					continue
				}
				if err := p.reload(); err != nil {
					p.logger.Error().Err(err).Str("path", p.path).Msg("template reload failed")
					continue
				}
				p.logger.Info().Str("path", p.path).Msg("template reloaded")
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				p.logger.Warn().Err(err).Msg("template watcher error")
			}
		}
	}()
	return nil
}
