package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// CSVImporter reads catalog CSV files and inserts/updates products.
type CSVImporter struct {
	reader      *csv.Reader
	productRepo ProductWriter
	newID       func() string
}

func NewCSVImporter(r io.Reader, repo ProductWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:      csvr,
		productRepo: repo,
		newID:       uuid.NewString,
	}
}

type csvRow struct {
	line      int
	ID        string
	Name      string
	Desc      string
	Price     string
	Category  string
	Brand     string
	ImageURLs []string
}

// Run parses CSV rows and upserts one product per named row. Rows without a
// productName only add their imageUrl to the product above them.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["productName"]; !ok {
		return 0, errors.New("read headers: productName column is missing")
	}

	var (
		current  *csvRow
		imported int
	)

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line, _ := i.reader.FieldPos(0)

		row := parseRow(record, index)
		if row == nil {
			continue
		}
		row.line = line

		if row.Name != "" {
			if current != nil {
				if err := i.save(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = row
			continue
		}

		// Continuation rows (images) belong to the current product.
		if current != nil && len(row.ImageURLs) > 0 {
			current.ImageURLs = append(current.ImageURLs, row.ImageURLs...)
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	if row.Desc == "" || row.Price == "" || row.Category == "" || row.Brand == "" {
		return fmt.Errorf("line %d: invalid product row (missing required fields) for %q", row.line, row.Name)
	}
	id := row.ID
	if id == "" {
		id = i.newID()
	} else {
		parsed, err := uuid.Parse(id)
		if err != nil {
			return fmt.Errorf("line %d: invalid id for %q: %s", row.line, row.Name, row.ID)
		}
		id = parsed.String()
	}
	cents, err := domain.ParsePrice(row.Price)
	if err != nil {
		return fmt.Errorf("line %d: %w", row.line, err)
	}

	images := make([]domain.Image, 0, len(row.ImageURLs))
	for _, u := range row.ImageURLs {
		images = append(images, domain.Image{URL: u})
	}

	p := domain.Product{
		ID:          id,
		Name:        row.Name,
		Description: row.Desc,
		PriceCents:  cents,
		Category:    row.Category,
		Brand:       row.Brand,
		Images:      images,
	}

	if _, err := i.productRepo.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q: %w", row.Name, err)
	}
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) *csvRow {
	name := pick(record, index, "productName")
	imageURL := pick(record, index, "imageUrl")

	if name == "" && imageURL == "" {
		return nil
	}

	row := &csvRow{
		ID:       pick(record, index, "id"),
		Name:     name,
		Desc:     pick(record, index, "productDesc"),
		Price:    pick(record, index, "productPrice"),
		Category: pick(record, index, "category"),
		Brand:    pick(record, index, "brand"),
	}
	if imageURL != "" {
		row.ImageURLs = []string{imageURL}
	}
	return row
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
