// Package batch renders invoice files to PDF recipes, one at a time or as a
// concurrent print run over a folder.
package batch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"recipes/internal/canvas/pdfcanvas"
	"recipes/internal/logger"
	"recipes/internal/recipe"
	"recipes/internal/source"
	"recipes/pkg/models"
)

// DefaultWorkers is used when Options.Workers is not positive.
const DefaultWorkers = 4

// Options configures rendering.
type Options struct {
	OutputDir string // Empty writes each PDF next to its invoice file
	Root      string // Folder the files were found in; Run keeps the subfolders below it in OutputDir
	FontDir   string
	Copy      *bool // Overrides the invoice's copy flag when set
	DryRun    bool  // Render in memory, write nothing
	Workers   int
	Log       zerolog.Logger
}

// Result is the outcome of rendering one invoice file.
type Result struct {
	Index    int // Position in the input list
	Path     string
	Output   string
	Patient  string
	Report   *recipe.Report
	Err      error
	Duration time.Duration
}

// Status is "success", "warning" (rendered with inconsistent records) or "error".
func (r Result) Status() string {
	switch {
	case r.Err != nil:
		return "error"
	case r.Report != nil && len(r.Report.Inconsistencies) > 0:
		return "warning"
	default:
		return "success"
	}
}

// RenderInvoice renders inv and writes the PDF to w.
func RenderInvoice(inv *models.Invoice, w io.Writer, o Options) (*recipe.Report, error) {
	const op = "RenderInvoice"

	c, err := pdfcanvas.New(
		pdfcanvas.WithFontDir(o.FontDir),
		pdfcanvas.WithTitle(fmt.Sprintf("%s %s", recipe.Title, invoiceID(inv))),
		pdfcanvas.WithCreationDate(creationDate(inv)),
		pdfcanvas.WithLogger(o.Log),
	)
	if err != nil {
		return nil, recipe.WrapRenderError(op, err, "create canvas")
	}

	var opts []recipe.Option
	opts = append(opts, recipe.WithLogger(o.Log))
	if o.Copy != nil {
		opts = append(opts, recipe.WithCopy(*o.Copy))
	}

	rep, err := recipe.Render(inv, c, opts...)
	if err != nil {
		return nil, err
	}
	if c.Pages() != rep.Pages {
		o.Log.Warn().
			Int("canvas_pages", c.Pages()).
			Int("report_pages", rep.Pages).
			Msg("Page count of canvas and report differ")
	}

	if err := c.Finish(w); err != nil {
		return nil, recipe.WrapRenderError(op, err, "write PDF")
	}
	return rep, nil
}

// RenderFile loads the invoice at path and renders it. The PDF is built in
// memory and only written once complete, so a failed render leaves no file.
func RenderFile(path, output string, o Options) (res Result) {
	start := time.Now()
	res = Result{Path: path, Output: output}
	defer func() { res.Duration = time.Since(start) }()

	inv, err := source.LoadInvoice(path)
	if err != nil {
		res.Err = err
		return res
	}
	if inv.Patient != nil {
		res.Patient = inv.Patient.FullName()
	}

	log := logger.WithInvoice(o.Log, inv.ID, path)
	o.Log = log

	var buf bytes.Buffer
	res.Report, res.Err = RenderInvoice(inv, &buf, o)
	if res.Err != nil {
		return res
	}

	if o.DryRun {
		res.Output = ""
		return res
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		res.Err = fmt.Errorf("create output folder: %w", err)
		return res
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		res.Err = fmt.Errorf("write %s: %w", output, err)
		return res
	}

	log.Debug().Str("output", output).Int("bytes", buf.Len()).Msg("Recipe written")
	return res
}

// Run renders files with at most o.Workers concurrent renders. progress, if
// set, is called once per file in input order, as soon as the file and all
// files before it are done. Per-file failures are reported in the results;
// the returned error is set when ctx ends the run early, or, before anything
// is rendered, when two files would be written to the same PDF.
func Run(ctx context.Context, files []string, o Options, progress func(done, total int, r Result)) ([]Result, error) {
	workers := o.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	outputs, err := source.OutputPaths(o.Root, files, o.OutputDir)
	if err != nil && !o.DryRun {
		return nil, err
	}

	results := make([]Result, len(files))
	finished := make([]bool, len(files))

	var mu sync.Mutex
	next := 0
	report := func(i int, r Result) {
		mu.Lock()
		defer mu.Unlock()
		results[i] = r
		finished[i] = true
		for next < len(files) && finished[next] {
			if progress != nil {
				progress(next+1, len(files), results[next])
			}
			next++
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			o.Log.Debug().Int("index", i+1).Str("file", path).Msg("Rendering invoice")

			var output string
			if outputs != nil {
				output = outputs[i]
			}
			r := RenderFile(path, output, o)
			r.Index = i
			report(i, r)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func invoiceID(inv *models.Invoice) string {
	if inv == nil {
		return ""
	}
	return inv.ID
}

// creationDate keeps the PDF bytes stable for an unchanged invoice.
func creationDate(inv *models.Invoice) time.Time {
	if inv != nil && !inv.UpdatedAt.IsZero() {
		return inv.UpdatedAt
	}
	return time.Now()
}
