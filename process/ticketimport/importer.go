// Package ticketimport turns a directory of scale-ticket photos into
// PENDENTE tickets. Files are read with OCR by a worker pool and moved to
// processados/ or falhas/ afterwards so every image is handled once.
package ticketimport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/FagnerMenezes/app-ubata-cacau-sub001/models"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/ledger"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/pkg/ocr"
	"github.com/FagnerMenezes/app-ubata-cacau-sub001/services"
	"github.com/fsnotify/fsnotify"
)

// Subdirectories of the inbox receiving handled files.
const (
	ProcessedDir = "processados"
	FailedDir    = "falhas"
)

// DefaultMinConfidence is the lowest OCR confidence accepted for a ticket.
const DefaultMinConfidence = 0.5

// Outcome of one file.
type Outcome string

const (
	Created Outcome = "created"
	Skipped Outcome = "skipped"
	Failed  Outcome = "failed"
	DryRun  Outcome = "dry-run"
)

// WeightReader extracts a reading from the image at path.
type WeightReader func(path string) (ocr.Weights, error)

// TicketCreator persists a ticket; *services.TicketService satisfies it.
type TicketCreator interface {
	Create(ctx context.Context, in services.TicketInput) (*models.Ticket, error)
}

// Options configure an import run.
type Options struct {
	Dir           string
	FornecedorID  uint
	Produto       models.Produto
	Workers       int
	DryRun        bool
	MinConfidence float64
}

// Result describes what happened to one file.
type Result struct {
	File     string
	Numero   string
	TicketID uint
	Weights  ocr.Weights
	Outcome  Outcome
	Err      error
}

// Importer runs imports for one supplier.
type Importer struct {
	opts    Options
	read    WeightReader
	tickets TicketCreator
	log     *slog.Logger
}

// New returns an Importer. A nil read uses ocr.ExtractWeightsFromImage.
func New(tickets TicketCreator, read WeightReader, log *slog.Logger, opts Options) *Importer {
	if read == nil {
		read = ocr.ExtractWeightsFromImage
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = DefaultMinConfidence
	}
	return &Importer{opts: opts, read: read, tickets: tickets, log: log}
}

// NumeroFromFile derives the ticket number from an image name so that
// importing the same file twice hits the unique numero and is skipped.
func NumeroFromFile(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	var b strings.Builder
	dash := false
	for _, r := range strings.ToUpper(base) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
		} else if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	n := strings.TrimSuffix(b.String(), "-")
	if !strings.HasPrefix(n, "TK-") {
		n = "TK-" + n
	}
	if len(n) > 40 {
		n = n[:40]
	}
	return n
}

func isSupportedExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp":
		return true
	}
	return false
}

// ListImages returns the supported images directly inside dir, sorted.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !isSupportedExt(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

// Run imports every image currently in the inbox and returns one result per
// file in name order.
func (im *Importer) Run(ctx context.Context) ([]Result, error) {
	files, err := ListImages(im.opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("list inbox: %w", err)
	}
	im.log.Info("ticket import started", "dir", im.opts.Dir, "files", len(files), "workers", im.opts.Workers, "dry_run", im.opts.DryRun)
	ch := make(chan string)
	go func() {
		defer close(ch)
		for _, f := range files {
			select {
			case ch <- f:
			case <-ctx.Done():
				return
			}
		}
	}()
	var mu sync.Mutex
	results := make([]Result, 0, len(files))
	im.pool(ctx, ch, func(r Result) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	})
	sort.Slice(results, func(i, j int) bool { return results[i].File < results[j].File })
	return results, ctx.Err()
}

// pool consumes names with opts.Workers goroutines until in is closed.
func (im *Importer) pool(ctx context.Context, in <-chan string, done func(Result)) {
	var wg sync.WaitGroup
	for i := 0; i < im.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range in {
				done(im.processFile(ctx, name))
			}
		}()
	}
	wg.Wait()
}

func (im *Importer) processFile(ctx context.Context, name string) Result {
	res := Result{File: name, Numero: NumeroFromFile(name)}
	path := filepath.Join(im.opts.Dir, name)

	w, err := im.read(path)
	if err == nil && w.Confidence < im.opts.MinConfidence {
		err = fmt.Errorf("low confidence %.2f: %w", w.Confidence, ocr.ErrNoWeight)
	}
	res.Weights = w
	if im.opts.DryRun {
		res.Outcome, res.Err = DryRun, err
		im.log.Info("ticket import dry-run", "file", name, "numero", res.Numero,
			"bruto", w.Bruto.String(), "tara", w.Tara.String(), "liquido", w.Liquido.String(), "confianca", w.Confidence, "error", err)
		return res
	}
	if err != nil {
		return im.finish(res, Failed, err)
	}

	t, err := im.tickets.Create(ctx, services.TicketInput{
		FornecedorID: im.opts.FornecedorID,
		Numero:       res.Numero,
		Produto:      im.opts.Produto,
		PesoBruto:    w.Bruto,
		Tara:         w.Tara,
		Observacoes:  fmt.Sprintf("importado de %s (confianca %.2f)", name, w.Confidence),
	})
	switch {
	case errors.Is(err, ledger.ErrConflict):
		return im.finish(res, Skipped, err)
	case err != nil:
		return im.finish(res, Failed, err)
	}
	res.TicketID = t.ID
	return im.finish(res, Created, nil)
}

// finish moves the file out of the inbox and logs the outcome.
func (im *Importer) finish(res Result, o Outcome, err error) Result {
	res.Outcome, res.Err = o, err
	sub := ProcessedDir
	if o == Failed {
		sub = FailedDir
		im.log.Warn("ticket import failed", "file", res.File, "error", err)
	} else {
		im.log.Info("ticket import", "file", res.File, "numero", res.Numero, "outcome", o, "ticket_id", res.TicketID)
	}
	if mvErr := moveTo(im.opts.Dir, sub, res.File); mvErr != nil {
		im.log.Warn("failed to move imported file", "file", res.File, "dest", sub, "error", mvErr)
	}
	return res
}

// Watch imports the files already in the inbox, then the ones that appear
// until ctx is cancelled.
// Create events are debounced so partially copied files are not read.
func (im *Importer) Watch(ctx context.Context, done func(Result)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(im.opts.Dir); err != nil {
		return err
	}
	backlog, err := im.Run(ctx)
	if err != nil {
		return err
	}
	for _, r := range backlog {
		done(r)
	}
	im.log.Info("watching ticket inbox", "dir", im.opts.Dir)

	ch := make(chan string, 64)
	go func() {
		defer close(ch)
		pending := map[string]time.Time{}
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 && isSupportedExt(ev.Name) &&
					filepath.Dir(ev.Name) == filepath.Clean(im.opts.Dir) {
					pending[filepath.Base(ev.Name)] = time.Now()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				im.log.Warn("inbox watch error", "error", err)
			case now := <-ticker.C:
				for name, seen := range pending {
					if now.Sub(seen) > 500*time.Millisecond {
						delete(pending, name)
						select {
						case ch <- name:
						case <-ctx.Done():
							return
						}
					}
				}
			}
		}
	}()
	im.pool(ctx, ch, done)
	return nil
}
