package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"listing_harvester/internal/domain"
)

// upsertChunkSize bounds the rows of one INSERT statement so the bind
// parameters stay well under the protocol limit of 65535.
const upsertChunkSize = 100

var listingColumns = []string{
	"id", "run_id", "source_name", "title", "url", "category", "price", "price_text",
	"description", "full_description", "location", "views", "date", "is_top", "image_url",
	"contact_name", "phone", "coordinates_lat", "coordinates_lng", "images",
	"similar_listings", "scraped_at",
}

// ListingStore writes listing batches keyed by (id, run_id, source_name).
type ListingStore struct {
	pool       *Pool
	retrier    *Retrier
	sourceName string
	logger     *slog.Logger
}

func NewListingStore(pool *Pool, retrier *Retrier, sourceName string, logger *slog.Logger) *ListingStore {
	return &ListingStore{
		pool:       pool,
		retrier:    retrier,
		sourceName: sourceName,
		logger:     logger.With("component", "listing_store"),
	}
}

// UpsertBatch writes listings for runID in one transaction. Rows that
// already exist are overwritten, so the call can be repeated safely.
// Listings sharing an id are collapsed with the last one winning. It returns
// the number of rows written.
func (s *ListingStore) UpsertBatch(ctx context.Context, runID int64, listings []domain.Listing) (int, error) {
	if len(listings) == 0 {
		return 0, nil
	}
	if runID == 0 {
		return 0, ErrRunNotSet
	}

	rows, err := s.buildRows(runID, listings)
	if err != nil {
		return 0, err
	}

	err = s.retrier.Do(ctx, "upsert listings", func(ctx context.Context) error {
		return s.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
			return withTransaction(ctx, conn, func(tx *sqlx.Tx) error {
				for start := 0; start < len(rows); start += upsertChunkSize {
					end := min(start+upsertChunkSize, len(rows))
					query, args := upsertStatement(rows[start:end])
					if _, err := tx.ExecContext(ctx, query, args...); err != nil {
						return err
					}
				}
				return nil
			})
		})
	})
	if err != nil {
		return 0, fmt.Errorf("upsert %d listings for run %d: %w", len(rows), runID, err)
	}

	s.logger.Info("listings stored", "run_id", runID, "count", len(rows))
	return len(rows), nil
}

func (s *ListingStore) buildRows(runID int64, listings []domain.Listing) ([][]any, error) {
	index := make(map[string]int, len(listings))
	rows := make([][]any, 0, len(listings))

	for _, l := range listings {
		row, err := s.listingArgs(runID, l)
		if err != nil {
			return nil, fmt.Errorf("encode listing %q: %w", l.ID, err)
		}
		if i, ok := index[l.ID]; ok {
			rows[i] = row
			continue
		}
		index[l.ID] = len(rows)
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *ListingStore) listingArgs(runID int64, l domain.Listing) ([]any, error) {
	images, err := encodeJSON(len(l.Images), l.Images)
	if err != nil {
		return nil, err
	}
	similar, err := encodeJSON(len(l.SimilarListings), l.SimilarListings)
	if err != nil {
		return nil, err
	}

	var lat, lng *float64
	if l.Coordinates != nil {
		lat, lng = &l.Coordinates.Latitude, &l.Coordinates.Longitude
	}

	scrapedAt := l.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now()
	}

	return []any{
		l.ID, runID, s.sourceName, l.Title, l.URL, l.Category, l.Price, l.PriceText,
		l.Description, l.FullDescription, l.Location, l.Views, l.Date, l.IsTop, l.ImageURL,
		l.ContactName, l.Phone, lat, lng, images,
		similar, scrapedAt,
	}, nil
}

// encodeJSON renders v as JSON text, or NULL when it holds no elements.
func encodeJSON(n int, v any) (any, error) {
	if n == 0 {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func upsertStatement(rows [][]any) (string, []any) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO listings (")
	sb.WriteString(strings.Join(listingColumns, ", "))
	sb.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(listingColumns))
	n := 1
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j := range row {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("$")
			sb.WriteString(strconv.Itoa(n))
			n++
		}
		sb.WriteString(")")
		args = append(args, row...)
	}

	sb.WriteString(" ON CONFLICT (id, run_id, source_name) DO UPDATE SET ")
	first := true
	for _, col := range listingColumns {
		switch col {
		case "id", "run_id", "source_name":
			continue
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(col)
		sb.WriteString(" = EXCLUDED.")
		sb.WriteString(col)
	}

	return sb.String(), args
}

type listingRow struct {
	ID              string          `db:"id"`
	Title           string          `db:"title"`
	URL             string          `db:"url"`
	Category        string          `db:"category"`
	Price           sql.NullInt64   `db:"price"`
	PriceText       string          `db:"price_text"`
	Description     string          `db:"description"`
	FullDescription sql.NullString  `db:"full_description"`
	Location        string          `db:"location"`
	Views           int             `db:"views"`
	Date            string          `db:"date"`
	IsTop           bool            `db:"is_top"`
	ImageURL        sql.NullString  `db:"image_url"`
	ContactName     sql.NullString  `db:"contact_name"`
	Phone           sql.NullString  `db:"phone"`
	Lat             sql.NullFloat64 `db:"coordinates_lat"`
	Lng             sql.NullFloat64 `db:"coordinates_lng"`
	Images          []byte          `db:"images"`
	SimilarListings []byte          `db:"similar_listings"`
	ScrapedAt       time.Time       `db:"scraped_at"`
}

func (r listingRow) toDomain() (domain.Listing, error) {
	l := domain.Listing{
		ID:          r.ID,
		Title:       r.Title,
		URL:         r.URL,
		Category:    r.Category,
		PriceText:   r.PriceText,
		Description: r.Description,
		Location:    r.Location,
		Views:       r.Views,
		Date:        r.Date,
		IsTop:       r.IsTop,
		ScrapedAt:   r.ScrapedAt,
	}
	if r.Price.Valid {
		l.Price = &r.Price.Int64
	}
	l.FullDescription = nullString(r.FullDescription)
	l.ImageURL = nullString(r.ImageURL)
	l.ContactName = nullString(r.ContactName)
	l.Phone = nullString(r.Phone)
	if r.Lat.Valid && r.Lng.Valid {
		l.Coordinates = &domain.Coordinates{Latitude: r.Lat.Float64, Longitude: r.Lng.Float64}
	}
	if len(r.Images) > 0 {
		if err := json.Unmarshal(r.Images, &l.Images); err != nil {
			return l, fmt.Errorf("decode images: %w", err)
		}
	}
	if len(r.SimilarListings) > 0 {
		if err := json.Unmarshal(r.SimilarListings, &l.SimilarListings); err != nil {
			return l, fmt.Errorf("decode similar listings: %w", err)
		}
	}
	return l, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

// ListByRunToken returns the listings stored by this source for a run.
func (s *ListingStore) ListByRunToken(ctx context.Context, token string) ([]domain.Listing, error) {
	query := `
		SELECT l.id, l.title, l.url, l.category, l.price, l.price_text, l.description,
			l.full_description, l.location, l.views, l.date, l.is_top, l.image_url,
			l.contact_name, l.phone, l.coordinates_lat, l.coordinates_lng, l.images,
			l.similar_listings, l.scraped_at
		FROM listings l
		INNER JOIN runs r ON r.id = l.run_id
		WHERE r.run_token = $1 AND l.source_name = $2
		ORDER BY l.scraped_at, l.id`

	var rows []listingRow
	err := s.pool.WithConn(ctx, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &rows, query, token, s.sourceName)
	})
	if err != nil {
		return nil, fmt.Errorf("list listings for run %q: %w", token, err)
	}

	listings := make([]domain.Listing, 0, len(rows))
	for _, r := range rows {
		l, err := r.toDomain()
		if err != nil {
			return nil, fmt.Errorf("listing %q: %w", r.ID, err)
		}
		listings = append(listings, l)
	}
	return listings, nil
}
