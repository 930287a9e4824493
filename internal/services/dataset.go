package services

import (
	"context"
	"encoding/csv"
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"superstore-dashboard/internal/models"
)

const (
	parseBatchSize = 5000
	parseWorkers   = 8
	cacheVersion   = "v2"
	cacheDir       = ".cache"
)

var dateLayouts = []string{"2006-01-02", "1/2/2006", "01/02/2006"}

// Schema records which optional columns the loaded file carries.
type Schema struct {
	HasSalesRep bool
	HasBonus    bool
	HasMobile   bool
	HasEmail    bool
}

// Store holds the dataset loaded once per process. Rows are read-only
// after load; every filter produces a fresh slice.
type Store struct {
	mu          sync.RWMutex
	rows        []models.Transaction
	schema      Schema
	minDate     time.Time
	maxDate     time.Time
	regions     []string
	categories  []string
	segments    []string
	salesReps   []string
	skippedRows int64
	loadedAt    time.Time
	csvPath     string
	logger      *slog.Logger
}

func NewStore() *Store {
	return &Store{logger: slog.Default()}
}

// SetRows replaces the dataset directly, used by tests and the cache path.
func (s *Store) SetRows(rows []models.Transaction, schema Schema) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
	s.schema = schema
	s.loadedAt = time.Now()
	s.reindex()
}

type cachedDataset struct {
	Rows    []models.Transaction
	Schema  Schema
	Skipped int64
	SavedAt time.Time
}

// LoadFromCSV reads the dataset once. A missing file or a missing
// required column is fatal to the caller; there is no recovery path.
func (s *Store) LoadFromCSV(ctx context.Context, filename string) error {
	s.csvPath = filename

	if cached, err := s.loadFromCache(filename); err == nil {
		if info, err := os.Stat(filename); err == nil && info.ModTime().Before(cached.SavedAt) {
			s.mu.Lock()
			s.rows = cached.Rows
			s.schema = cached.Schema
			s.skippedRows = cached.Skipped
			s.loadedAt = time.Now()
			s.reindex()
			s.mu.Unlock()
			s.logger.Info("dataset loaded from cache", "records", len(cached.Rows))
			return nil
		}
	}

	start := time.Now()
	s.logger.Info("loading dataset", "filename", filename)

	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	cols, schema, err := mapColumns(header)
	if err != nil {
		return err
	}

	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("dataset %s has no rows", filename)
	}

	rows, skipped, err := s.parseRecords(ctx, records, cols)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no valid records in %s", filename)
	}

	s.mu.Lock()
	s.rows = rows
	s.schema = schema
	s.skippedRows = skipped
	s.loadedAt = time.Now()
	s.reindex()
	s.mu.Unlock()

	if err := s.saveToCache(filename); err != nil {
		s.logger.Warn("failed to save dataset cache", "error", err)
	}

	s.logger.Info("dataset loaded",
		"records", len(rows),
		"skipped", skipped,
		"duration", time.Since(start))
	return nil
}

// columnIndex maps each field of models.Transaction to its position in
// the record, -1 for optional columns the file does not carry.
type columnIndex struct {
	region, category, segment, orderDate  int
	sales, profit, discount, quantity     int
	productName, state, city, subCategory int
	salesRep, bonus, mobile, email        int
}

func mapColumns(header []string) (columnIndex, Schema, error) {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		byName[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var missing []string
	lookup := func(name string) int {
		if i, ok := byName[strings.ToLower(name)]; ok {
			return i
		}
		missing = append(missing, name)
		return -1
	}
	optional := func(name string) int {
		if i, ok := byName[strings.ToLower(name)]; ok {
			return i
		}
		return -1
	}

	cols := columnIndex{
		region:      lookup("Region"),
		category:    lookup("Category"),
		segment:     lookup("Segment"),
		orderDate:   lookup("Order Date"),
		sales:       lookup("Sales"),
		profit:      lookup("Profit"),
		discount:    lookup("Discount"),
		quantity:    lookup("Quantity"),
		productName: lookup("Product Name"),
		state:       lookup("State"),
		city:        lookup("City"),
		subCategory: lookup("Sub-Category"),
		salesRep:    optional("SalesRep"),
		bonus:       optional("Bonus"),
		mobile:      optional("Mobile"),
		email:       optional("email"),
	}
	if len(missing) > 0 {
		return columnIndex{}, Schema{}, fmt.Errorf("dataset missing required columns: %s", strings.Join(missing, ", "))
	}

	schema := Schema{
		HasSalesRep: cols.salesRep >= 0,
		HasBonus:    cols.bonus >= 0,
		HasMobile:   cols.mobile >= 0,
		HasEmail:    cols.email >= 0,
	}
	return cols, schema, nil
}

// parseRecords converts raw CSV records in parallel batches while
// preserving file order. Rows that fail to parse are skipped.
func (s *Store) parseRecords(ctx context.Context, records [][]string, cols columnIndex) ([]models.Transaction, int64, error) {
	parsed := make([]models.Transaction, len(records))
	valid := make([]bool, len(records))

	var wg errgroup.Group
	wg.SetLimit(parseWorkers)

	for start := 0; start < len(records); start += parseBatchSize {
		end := min(start+parseBatchSize, len(records))
		wg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			for i := start; i < end; i++ {
				tx, err := parseTransaction(records[i], cols)
				if err != nil {
					continue
				}
				parsed[i] = tx
				valid[i] = true
			}
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		return nil, 0, err
	}

	rows := make([]models.Transaction, 0, len(records))
	var skipped int64
	for i, ok := range valid {
		if !ok {
			skipped++
			continue
		}
		rows = append(rows, parsed[i])
	}
	return rows, skipped, nil
}

func parseTransaction(record []string, cols columnIndex) (models.Transaction, error) {
	field := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	orderDate, err := parseDate(field(cols.orderDate))
	if err != nil {
		return models.Transaction{}, err
	}

	sales, err := strconv.ParseFloat(field(cols.sales), 64)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("sales: %w", err)
	}
	profit, err := strconv.ParseFloat(field(cols.profit), 64)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("profit: %w", err)
	}
	discount, err := strconv.ParseFloat(field(cols.discount), 64)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("discount: %w", err)
	}
	quantity, err := strconv.Atoi(field(cols.quantity))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("quantity: %w", err)
	}

	// Bonus is optional; an empty or malformed value degrades to zero
	// rather than dropping the row.
	var bonus float64
	if v := field(cols.bonus); v != "" {
		bonus, _ = strconv.ParseFloat(v, 64)
	}

	return models.Transaction{
		OrderDate:   orderDate,
		Region:      field(cols.region),
		Category:    field(cols.category),
		SubCategory: field(cols.subCategory),
		Segment:     field(cols.segment),
		State:       field(cols.state),
		City:        field(cols.city),
		ProductName: field(cols.productName),
		SalesRep:    field(cols.salesRep),
		Sales:       sales,
		Profit:      profit,
		Discount:    discount,
		Quantity:    quantity,
		Bonus:       bonus,
		Mobile:      field(cols.mobile),
		Email:       field(cols.email),
	}, nil
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable order date %q", value)
}

// reindex recomputes date bounds and distinct dimension values.
// Callers must hold the write lock.
func (s *Store) reindex() {
	s.minDate, s.maxDate = time.Time{}, time.Time{}
	regions := make(map[string]struct{})
	categories := make(map[string]struct{})
	segments := make(map[string]struct{})
	salesReps := make(map[string]struct{})

	for _, tx := range s.rows {
		if s.minDate.IsZero() || tx.OrderDate.Before(s.minDate) {
			s.minDate = tx.OrderDate
		}
		if s.maxDate.IsZero() || tx.OrderDate.After(s.maxDate) {
			s.maxDate = tx.OrderDate
		}
		regions[tx.Region] = struct{}{}
		categories[tx.Category] = struct{}{}
		segments[tx.Segment] = struct{}{}
		if tx.SalesRep != "" {
			salesReps[tx.SalesRep] = struct{}{}
		}
	}

	s.regions = sortedKeys(regions)
	s.categories = sortedKeys(categories)
	s.segments = sortedKeys(segments)
	s.salesReps = sortedKeys(salesReps)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (s *Store) Rows() []models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rows
}

func (s *Store) Schema() Schema {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schema
}

func (s *Store) DateBounds() (time.Time, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.minDate, s.maxDate
}

func (s *Store) Regions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.regions
}

func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categories
}

func (s *Store) Segments() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.segments
}

func (s *Store) SalesReps() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.salesReps
}

// Stats reports load metadata for the admin endpoint.
func (s *Store) Stats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"csv_path":     s.csvPath,
		"record_count": len(s.rows),
		"skipped_rows": s.skippedRows,
		"loaded_at":    s.loadedAt,
		"min_date":     s.minDate.Format("2006-01-02"),
		"max_date":     s.maxDate.Format("2006-01-02"),
		"regions":      len(s.regions),
		"categories":   len(s.categories),
		"segments":     len(s.segments),
		"sales_reps":   len(s.salesReps),
		"schema": map[string]bool{
			"sales_rep": s.schema.HasSalesRep,
			"bonus":     s.schema.HasBonus,
			"mobile":    s.schema.HasMobile,
			"email":     s.schema.HasEmail,
		},
	}
}

// Cache management
func (s *Store) getCacheFilename(csvPath string) string {
	return fmt.Sprintf("%s/%s_%s.gob", cacheDir, strings.ReplaceAll(csvPath, "/", "_"), cacheVersion)
}

func (s *Store) saveToCache(csvPath string) error {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return err
	}

	file, err := os.Create(s.getCacheFilename(csvPath))
	if err != nil {
		return err
	}
	defer file.Close()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return gob.NewEncoder(file).Encode(cachedDataset{
		Rows:    s.rows,
		Schema:  s.schema,
		Skipped: s.skippedRows,
		SavedAt: time.Now(),
	})
}

func (s *Store) loadFromCache(csvPath string) (*cachedDataset, error) {
	file, err := os.Open(s.getCacheFilename(csvPath))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var data cachedDataset
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
