package importersvc

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/indiangoerge/bookworld-digital-shelf/model"
	bookrepo "github.com/indiangoerge/bookworld-digital-shelf/repository/book"
)

const defaultBatchSize = 500

// bookRow mirrors the import validation rules: required title/author,
// positive price, ISBN of 10 or 13 digits when present.
type bookRow struct {
	Title         string  `validate:"required,min=1,max=500"`
	Author        string  `validate:"required,min=1,max=200"`
	Genre         string  `validate:"max=100"`
	Price         float64 `validate:"required,gt=0"`
	Description   string
	ISBN          string `validate:"omitempty,number,len10or13"`
	CoverImageURL string `validate:"omitempty,url"`
	Stock         int64  `validate:"gte=0"`
}

type failedRow struct {
	RowNumber string
	Raw       map[string]string
	Reason    string
}

type Summary struct {
	TotalRows          int    `json:"total_rows"`
	Processed          int    `json:"processed"`
	Successful         int    `json:"successful"`
	Failed             int    `json:"failed"`
	FailedRowsExported bool   `json:"failed_rows_exported"`
	FailedRowsPath     string `json:"failed_rows_path,omitempty"`
}

type Service interface {
	// ImportCSV reads the file, validates and cleans every row, bulk
	// inserts in batches and exports rows that did not make it.
	ImportCSV(ctx context.Context, path string) (*Summary, error)
}

type service struct {
	r         bookrepo.Repo
	v         *validator.Validate
	log       *slog.Logger
	logsDir   string
	batchSize int
}

func New(r bookrepo.Repo, log *slog.Logger, logsDir string) Service {
	v := validator.New()
	_ = v.RegisterValidation("len10or13", func(fl validator.FieldLevel) bool {
		n := len(fl.Field().String())
		return n == 10 || n == 13
	})
	return &service{r: r, v: v, log: log, logsDir: logsDir, batchSize: defaultBatchSize}
}

var importColumns = []string{"title", "author", "genre", "price", "description", "isbn", "cover_image_url", "stock"}

func (s *service) ImportCSV(ctx context.Context, path string) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("import file not found at %s: %w", path, err)
	}
	defer f.Close()

	s.log.Info("starting book import", "path", path)

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var (
		summary Summary
		failed  []failedRow
		batch   []model.Book
		raws    []map[string]string
		rowNum  int
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		ok, fr := s.insertBatch(ctx, batch, raws)
		summary.Successful += ok
		summary.Failed += len(fr)
		failed = append(failed, fr...)
		batch = batch[:0]
		raws = raws[:0]
		return nil
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rowNum++
		summary.TotalRows++
		summary.Processed++

		raw := rawFields(cols, record)
		book, verr := s.cleanAndValidate(raw)
		if verr != nil {
			failed = append(failed, failedRow{
				RowNumber: strconv.Itoa(rowNum),
				Raw:       raw,
				Reason:    verr.Error(),
			})
			summary.Failed++
			continue
		}

		batch = append(batch, *book)
		raws = append(raws, raw)
		if len(batch) >= s.batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
			s.log.Info("processed batch", "rows", rowNum, "successful", summary.Successful, "failed", summary.Failed)
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	if len(failed) > 0 {
		p, err := s.exportFailedRows(failed)
		if err != nil {
			s.log.Error("failed-row export", "err", err)
		} else {
			summary.FailedRowsExported = true
			summary.FailedRowsPath = p
		}
	}

	s.log.Info("import completed",
		"total", summary.TotalRows,
		"successful", summary.Successful,
		"failed", summary.Failed,
	)
	return &summary, nil
}

func rawFields(cols map[string]int, record []string) map[string]string {
	raw := make(map[string]string, len(importColumns))
	for _, c := range importColumns {
		if i, ok := cols[c]; ok && i < len(record) {
			raw[c] = strings.TrimSpace(record[i])
		}
	}
	return raw
}

func (s *service) cleanAndValidate(raw map[string]string) (*model.Book, error) {
	row := bookRow{
		Title:         raw["title"],
		Author:        raw["author"],
		Genre:         raw["genre"],
		Description:   raw["description"],
		CoverImageURL: raw["cover_image_url"],
	}

	if v := raw["price"]; v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("price %q is not a number", v)
		}
		row.Price = p
	}
	if v := raw["stock"]; v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("stock %q is not an integer", v)
		}
		row.Stock = n
	}
	row.ISBN = strings.NewReplacer("-", "", " ", "").Replace(raw["isbn"])

	if err := s.v.Struct(row); err != nil {
		return nil, err
	}

	b := &model.Book{
		Title:  row.Title,
		Author: row.Author,
		Price:  row.Price,
		Stock:  row.Stock,
	}
	if row.Genre != "" {
		b.Genre = &row.Genre
	}
	if row.Description != "" {
		b.Description = &row.Description
	}
	if row.ISBN != "" {
		b.ISBN = &row.ISBN
	}
	if row.CoverImageURL != "" {
		b.CoverImageURL = &row.CoverImageURL
	}
	return b, nil
}

// insertBatch bulk-inserts, falling back to row-at-a-time inserts when
// the whole statement fails so one bad row cannot sink its batch.
func (s *service) insertBatch(ctx context.Context, batch []model.Book, raws []map[string]string) (int, []failedRow) {
	n, err := s.r.BulkInsert(ctx, batch)
	if err == nil {
		return int(n), nil
	}
	s.log.Error("bulk insert failed, retrying rows individually", "err", err)

	var (
		ok     int
		failed []failedRow
	)
	for i := range batch {
		if err := s.r.Insert(ctx, &batch[i]); err != nil {
			var pgErr *pgconn.PgError
			reason := err.Error()
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				reason = "duplicate ISBN"
			}
			failed = append(failed, failedRow{RowNumber: "bulk_insert", Raw: raws[i], Reason: reason})
			continue
		}
		ok++
	}
	return ok, failed
}

func (s *service) exportFailedRows(failed []failedRow) (string, error) {
	if err := os.MkdirAll(s.logsDir, 0o755); err != nil {
		return "", err
	}
	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(time.Now().UTC().Format(time.RFC3339))
	path := filepath.Join(s.logsDir, fmt.Sprintf("failed_imports_%s.csv", stamp))

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(append([]string{"row_number"}, append(importColumns, "error")...)); err != nil {
		return "", err
	}
	for _, fr := range failed {
		rec := []string{fr.RowNumber}
		for _, c := range importColumns {
			rec = append(rec, fr.Raw[c])
		}
		rec = append(rec, fr.Reason)
		if err := w.Write(rec); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	s.log.Info("failed rows exported", "path", path)
	return path, nil
}
