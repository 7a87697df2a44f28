package source

import (
	"context"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"
)

// PDFSource renders the pages of a PDF document.
type PDFSource struct {
	mu   sync.Mutex
	doc  *fitz.Document
	path string
	dpi  int
}

func NewPDFSource(path string, dpi int) (*PDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &PDFSource{doc: doc, path: path, dpi: dpi}, nil
}

func (f *PDFSource) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.NumPage()
}

func (f *PDFSource) Load(ctx context.Context, index int) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := checkIndex(ctx, index, f.doc.NumPage()); err != nil {
		return nil, err
	}
	// fitz documents are not safe for concurrent use.
	return f.doc.ImageDPI(index, float64(f.dpi))
}

func (f *PDFSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.Close()
}
