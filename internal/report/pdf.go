package report

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"github.com/jende/inventory-service/internal/domain"
)

// Table geometry in points, landscape A4.
const (
	marginLeft   = 40.0
	marginTop    = 40.0
	marginRight  = 40.0
	marginBottom = 40.0

	colImage = 40.0
	colSKU   = 130.0
	colName  = 220.0
	colPrice = 440.0
	colStock = 520.0
	colDesc  = 580.0

	rowHeight = 80.0
	imageBox  = 70.0

	maxImageBytes = 20 << 20
)

const reportTitle = "Jende - Inventario de productos"

// Generator renders the inventory report as a PDF. Remote photos are fetched
// with a bounded per-image timeout and the whole render carries an overall
// deadline; any image problem downgrades that cell to a placeholder.
type Generator struct {
	uploadDir    string
	publicPrefix string
	client       *http.Client
	fetchTimeout time.Duration
	overall      time.Duration
	logger       *zap.Logger
}

// NewGenerator builds a report generator. uploadDir is the directory backing
// publicPrefix (the URL path under which photos are served).
func NewGenerator(uploadDir, publicPrefix string, fetchTimeout, overall time.Duration, logger *zap.Logger) *Generator {
	if fetchTimeout <= 0 {
		fetchTimeout = 5 * time.Second
	}
	if overall <= 0 {
		overall = time.Minute
	}
	return &Generator{
		uploadDir:    uploadDir,
		publicPrefix: publicPrefix,
		client:       &http.Client{Timeout: fetchTimeout},
		fetchTimeout: fetchTimeout,
		overall:      overall,
		logger:       logger,
	}
}

// Render produces the PDF bytes for the given products. Products are expected
// in SKU order. Rendering never fails because of a single photo.
func (g *Generator) Render(ctx context.Context, products []domain.Product) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.overall)
	defer cancel()

	pdf := gofpdf.New("L", "pt", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageW-marginLeft-marginRight, 24, tr(reportTitle), "", 1, "C", false, 0, "")

	y := pdf.GetY() + 10
	y = g.drawHeader(pdf, tr, y, pageW)

	for i, p := range products {
		if y+rowHeight > pageH-marginBottom {
			pdf.AddPage()
			y = g.drawHeader(pdf, tr, marginTop, pageW)
		}

		g.drawImageCell(ctx, pdf, tr, &p, i, y)

		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetXY(colSKU, y+6)
		pdf.CellFormat(colName-colSKU-10, 12, fmt.Sprintf("%d", p.SKU), "", 0, "L", false, 0, "")
		pdf.SetXY(colName, y+6)
		pdf.CellFormat(colPrice-colName-10, 12, tr(p.Name), "", 0, "L", false, 0, "")
		pdf.SetXY(colPrice, y+6)
		pdf.CellFormat(colStock-colPrice-10, 12, fmt.Sprintf("$%.2f", p.Price), "", 0, "L", false, 0, "")
		pdf.SetXY(colStock, y+6)
		pdf.CellFormat(colDesc-colStock-10, 12, fmt.Sprintf("%d", p.Stock), "", 0, "L", false, 0, "")
		pdf.SetXY(colDesc, y+6)
		pdf.MultiCell(pageW-colDesc-marginRight, 12, tr(p.Description), "", "L", false)

		y += rowHeight
		pdf.SetDrawColor(238, 238, 238)
		pdf.Line(marginLeft, y-10, pageW-marginRight, y-10)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render inventory pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) drawHeader(pdf *gofpdf.Fpdf, tr func(string) string, y, pageW float64) float64 {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.Text(colImage, y+10, tr("Imagen"))
	pdf.Text(colSKU, y+10, "SKU")
	pdf.Text(colName, y+10, tr("Nombre"))
	pdf.Text(colPrice, y+10, tr("Precio"))
	pdf.Text(colStock, y+10, "Stock")
	pdf.Text(colDesc, y+10, tr("Descripción"))

	pdf.SetDrawColor(170, 170, 170)
	pdf.Line(marginLeft, y+18, pageW-marginRight, y+18)
	return y + 25
}

// drawImageCell embeds the product photo scaled into a fixed square box, or a
// labeled placeholder when the photo is absent or cannot be loaded.
func (g *Generator) drawImageCell(ctx context.Context, pdf *gofpdf.Fpdf, tr func(string) string, p *domain.Product, idx int, y float64) {
	if p.Photo == "" {
		g.placeholder(pdf, tr, y, "Sin imagen")
		return
	}

	data, err := g.loadImage(ctx, p.Photo)
	if err != nil {
		g.logger.Warn("report image unavailable",
			zap.String("photo", p.Photo), zap.Int64("sku", p.SKU), zap.Error(err))
		label := "Error imagen"
		if os.IsNotExist(err) {
			label = "Sin imagen"
		}
		g.placeholder(pdf, tr, y, label)
		return
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		g.placeholder(pdf, tr, y, "Error imagen")
		return
	}
	imgType, ok := pdfImageType(format)
	if !ok {
		g.placeholder(pdf, tr, y, "Error imagen")
		return
	}

	// Fit inside the square box preserving aspect ratio.
	scale := imageBox / float64(cfg.Width)
	if s := imageBox / float64(cfg.Height); s < scale {
		scale = s
	}
	w := float64(cfg.Width) * scale
	h := float64(cfg.Height) * scale
	x := colImage + (imageBox-w)/2
	iy := y + (imageBox-h)/2

	name := fmt.Sprintf("photo-%d-%s", idx, p.ID)
	opts := gofpdf.ImageOptions{ImageType: imgType, ReadDpi: false}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	pdf.ImageOptions(name, x, iy, w, h, false, opts, 0, "")
}

func (g *Generator) placeholder(pdf *gofpdf.Fpdf, tr func(string) string, y float64, label string) {
	pdf.SetDrawColor(204, 204, 204)
	pdf.Rect(colImage, y, imageBox, imageBox, "D")
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(102, 102, 102)
	pdf.Text(colImage+5, y+36, tr(label))
	pdf.SetTextColor(0, 0, 0)
}

// loadImage resolves the photo reference: absolute URLs are fetched over the
// network, anything else is read from the upload directory.
func (g *Generator) loadImage(ctx context.Context, photo string) ([]byte, error) {
	if strings.HasPrefix(photo, "http://") || strings.HasPrefix(photo, "https://") {
		return g.fetchRemote(ctx, photo)
	}

	rel := strings.TrimPrefix(photo, g.publicPrefix)
	rel = strings.TrimPrefix(rel, "/")
	return os.ReadFile(filepath.Join(g.uploadDir, filepath.Clean(rel)))
}

func (g *Generator) fetchRemote(ctx context.Context, url string) ([]byte, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, g.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}

func pdfImageType(format string) (string, bool) {
	switch format {
	case "jpeg":
		return "JPG", true
	case "png":
		return "PNG", true
	case "gif":
		return "GIF", true
	default:
		return "", false
	}
}
