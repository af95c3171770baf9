package storage

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/plazareviews/revscope/pkg/period"
	"github.com/plazareviews/revscope/pkg/review"
)

// ErrNotFound is returned when a single review lookup matches nothing.
var ErrNotFound = errors.New("review not found")

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS reviews (
  id               INTEGER PRIMARY KEY,
  review_key       TEXT NOT NULL UNIQUE,
  external_id      TEXT,
  platform         TEXT NOT NULL,
  place            TEXT,
  url              TEXT,
  author           TEXT,
  author_location  TEXT,
  title            TEXT,
  text             TEXT,
  review_date      TEXT,
  written_date     TEXT,
  rating           INTEGER NOT NULL DEFAULT 0,
  sentiment        TEXT,
  helpful          INTEGER NOT NULL DEFAULT 0,
  photos           INTEGER NOT NULL DEFAULT 0,
  period           TEXT NOT NULL,
  import_id        INTEGER NOT NULL DEFAULT 0,
  first_seen_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  last_seen_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_reviews_platform ON reviews(platform);
CREATE INDEX IF NOT EXISTS idx_reviews_date ON reviews(review_date);
CREATE INDEX IF NOT EXISTS idx_reviews_period ON reviews(period);
CREATE TABLE IF NOT EXISTS imports (
  id           INTEGER PRIMARY KEY,
  occurred_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  source       TEXT NOT NULL,
  total        INTEGER NOT NULL,
  added        INTEGER NOT NULL,
  updated      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_imports_time ON imports(occurred_at);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// UpsertReviews stores reviews from one source file and records the import.
// Reviews already present (same identity key) are updated in place when their
// content changed. An existing sentiment is kept unless the incoming review
// carries its own.
func (d *DB) UpsertReviews(ctx context.Context, source string, reviews []review.Review, b period.Boundary) (ImportResult, error) {
	res := ImportResult{Source: source, Total: len(reviews)}

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return res, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var ins sql.Result
	ins, err = tx.ExecContext(ctx, `INSERT INTO imports(occurred_at, source, total, added, updated) VALUES(CURRENT_TIMESTAMP, ?, ?, 0, 0)`, source, len(reviews))
	if err != nil {
		return res, err
	}
	if res.ID, err = ins.LastInsertId(); err != nil {
		return res, err
	}

	rows, err := tx.QueryContext(ctx, "SELECT review_key, external_id, platform, place, url, author, author_location, title, text, review_date, written_date, rating, helpful, photos FROM reviews")
	if err != nil {
		return res, err
	}
	existingMap := make(map[string]string)
	for rows.Next() {
		var (
			key string
			r   review.Review
		)
		if err = scanContent(rows, &key, &r); err != nil {
			rows.Close()
			return res, err
		}
		existingMap[key] = contentKey(r)
	}
	if err = rows.Err(); err != nil {
		rows.Close()
		return res, err
	}
	if err = rows.Close(); err != nil {
		return res, err
	}

	for _, r := range reviews {
		key := identityKey(r)
		content := contentKey(r)
		p := period.Classify(r.Date, b)

		old, existed := existingMap[key]
		switch {
		case !existed:
			_, err = tx.ExecContext(ctx, `INSERT INTO reviews(review_key, external_id, platform, place, url, author, author_location, title, text, review_date, written_date, rating, sentiment, helpful, photos, period, import_id, first_seen_at, last_seen_at) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP,CURRENT_TIMESTAMP)`,
				key, nullIfEmpty(r.ID), platformOf(r), nullIfEmpty(r.Place), nullIfEmpty(r.URL), nullIfEmpty(r.Author), nullIfEmpty(r.AuthorLocation),
				nullIfEmpty(r.Title), nullIfEmpty(r.Text), nullDate(r.Date), nullDate(r.Written), storedRating(r), nullIfEmpty(string(r.Sentiment)),
				r.Helpful, r.Photos, string(p), res.ID)
			if err != nil {
				return res, err
			}
			res.Added++
			existingMap[key] = content // duplicates within one file count once
		case old != content:
			_, err = tx.ExecContext(ctx, `UPDATE reviews SET external_id = ?, place = ?, url = ?, author = ?, author_location = ?, title = ?, text = ?, review_date = ?, written_date = ?, rating = ?, sentiment = COALESCE(?, sentiment), helpful = ?, photos = ?, period = ?, import_id = ?, last_seen_at = CURRENT_TIMESTAMP WHERE review_key = ?`,
				nullIfEmpty(r.ID), nullIfEmpty(r.Place), nullIfEmpty(r.URL), nullIfEmpty(r.Author), nullIfEmpty(r.AuthorLocation),
				nullIfEmpty(r.Title), nullIfEmpty(r.Text), nullDate(r.Date), nullDate(r.Written), storedRating(r), nullIfEmpty(string(r.Sentiment)),
				r.Helpful, r.Photos, string(p), res.ID, key)
			if err != nil {
				return res, err
			}
			res.Updated++
			existingMap[key] = content
		default:
			_, err = tx.ExecContext(ctx, `UPDATE reviews SET sentiment = COALESCE(?, sentiment), period = ?, last_seen_at = CURRENT_TIMESTAMP WHERE review_key = ?`, nullIfEmpty(string(r.Sentiment)), string(p), key)
			if err != nil {
				return res, err
			}
			res.Unchanged++
		}
	}

	_, err = tx.ExecContext(ctx, `UPDATE imports SET added = ?, updated = ? WHERE id = ?`, res.Added, res.Updated, res.ID)
	if err != nil {
		return res, err
	}
	if err = tx.Commit(); err != nil {
		return res, err
	}
	return res, nil
}

// ListOptions controls selection when listing reviews.
type ListOptions struct {
	Platform     string
	Since        time.Time // inclusive, on the review date
	Until        time.Time // inclusive, on the review date
	OnlyUnscored bool      // reviews with text and no sentiment label
	Limit        int
}

const selectReviews = "SELECT id, review_key, external_id, platform, place, url, author, author_location, title, text, review_date, written_date, rating, helpful, photos, sentiment, period FROM reviews "

// ListReviews returns stored reviews matching filters, oldest first. Reviews
// without a date sort last.
func (d *DB) ListReviews(ctx context.Context, opts ListOptions) ([]Record, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if opts.Platform != "" && opts.Platform != "all" {
		where += " AND platform = ?"
		args = append(args, review.NormalizePlatform(opts.Platform))
	}
	if !opts.Since.IsZero() {
		where += " AND review_date >= ?"
		args = append(args, opts.Since.Format(dateLayout))
	}
	if !opts.Until.IsZero() {
		where += " AND review_date <= ?"
		args = append(args, opts.Until.Format(dateLayout))
	}
	if opts.OnlyUnscored {
		where += " AND sentiment IS NULL AND text IS NOT NULL AND text != ''"
	}

	q := selectReviews + where + " ORDER BY review_date IS NULL, review_date, id"
	if opts.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetReview returns a single stored review by row id.
func (d *DB) GetReview(ctx context.Context, id int64) (Record, error) {
	row := d.sql.QueryRowContext(ctx, selectReviews+"WHERE id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// UpdateSentiment stores sentiment labels by row id. Unknown labels clear the
// column so the review is picked up again by the next scoring run.
func (d *DB) UpdateSentiment(ctx context.Context, labels map[int64]review.Sentiment) (int, error) {
	if len(labels) == 0 {
		return 0, nil
	}
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `UPDATE reviews SET sentiment = ? WHERE id = ?`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	updated := 0
	for id, s := range labels {
		var res sql.Result
		res, err = stmt.ExecContext(ctx, nullIfEmpty(string(s)), id)
		if err != nil {
			return 0, err
		}
		n, _ := res.RowsAffected()
		updated += int(n)
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return updated, nil
}

// UpdatePeriods re-derives the cached period column for new construction
// boundaries and returns how many reviews changed period.
func (d *DB) UpdatePeriods(ctx context.Context, b period.Boundary) (int, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx, "SELECT id, review_date, period FROM reviews")
	if err != nil {
		return 0, err
	}
	type change struct {
		id int64
		p  period.Period
	}
	var changes []change
	for rows.Next() {
		var (
			id      int64
			dateNS  sql.NullString
			current string
		)
		if err = rows.Scan(&id, &dateNS, &current); err != nil {
			rows.Close()
			return 0, err
		}
		p := period.Classify(parseNullDate(dateNS.String), b)
		if string(p) != current {
			changes = append(changes, change{id: id, p: p})
		}
	}
	if err = rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	if err = rows.Close(); err != nil {
		return 0, err
	}

	for _, c := range changes {
		if _, err = tx.ExecContext(ctx, `UPDATE reviews SET period = ? WHERE id = ?`, string(c.p), c.id); err != nil {
			return 0, err
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return len(changes), nil
}

// ListImports returns the most recent N imports.
func (d *DB) ListImports(ctx context.Context, limit int) ([]Import, error) {
	if limit <= 0 {
		limit = 50
	}
	q := "SELECT id, occurred_at, source, total, added, updated FROM imports ORDER BY occurred_at DESC, id DESC LIMIT ?"
	rows, err := d.sql.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	imports := []Import{}
	for rows.Next() {
		var im Import
		var occurredAtStr string
		if err := rows.Scan(&im.ID, &occurredAtStr, &im.Source, &im.Total, &im.Added, &im.Updated); err != nil {
			return nil, err
		}
		im.OccurredAt = parseTimestamp(occurredAtStr)
		imports = append(imports, im)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return imports, nil
}

func (d *DB) GetStats(ctx context.Context) ([]PlatformStats, error) {
	query := `
		SELECT
			platform,
			COUNT(*),
			COUNT(CASE WHEN rating BETWEEN 1 AND 5 THEN 1 END),
			COUNT(sentiment),
			COALESCE(AVG(CASE WHEN rating BETWEEN 1 AND 5 THEN rating END), 0),
			COALESCE(MIN(review_date), ''),
			COALESCE(MAX(review_date), '')
		FROM
			reviews
		GROUP BY
			platform
		ORDER BY
			platform;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []PlatformStats
	for rows.Next() {
		var s PlatformStats
		var first, last string
		if err := rows.Scan(&s.Platform, &s.Reviews, &s.Rated, &s.Scored, &s.MeanRating, &first, &last); err != nil {
			return nil, err
		}
		s.FirstDate = parseNullDate(first)
		s.LastDate = parseNullDate(last)
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// reviewColumns holds the nullable columns shared by every review query, in
// SELECT order starting at external_id.
type reviewColumns struct {
	extID, place, url, author, loc, title, text, date, written sql.NullString
}

func (c *reviewColumns) dest(r *review.Review) []interface{} {
	return []interface{}{&c.extID, &r.Platform, &c.place, &c.url, &c.author, &c.loc, &c.title, &c.text, &c.date, &c.written, &r.Rating, &r.Helpful, &r.Photos}
}

func (c *reviewColumns) fill(r *review.Review) {
	r.ID = c.extID.String
	r.Place = c.place.String
	r.URL = c.url.String
	r.Author = c.author.String
	r.AuthorLocation = c.loc.String
	r.Title = c.title.String
	r.Text = c.text.String
	r.Date = parseNullDate(c.date.String)
	r.Written = parseNullDate(c.written.String)
}

func scanContent(s scanner, key *string, r *review.Review) error {
	var c reviewColumns
	dest := append([]interface{}{key}, c.dest(r)...)
	if err := s.Scan(dest...); err != nil {
		return err
	}
	c.fill(r)
	return nil
}

func scanRecord(s scanner) (Record, error) {
	var (
		rec       Record
		c         reviewColumns
		sentiment sql.NullString
		p         string
	)
	dest := append([]interface{}{&rec.RowID, &rec.Key}, c.dest(&rec.Review)...)
	dest = append(dest, &sentiment, &p)
	if err := s.Scan(dest...); err != nil {
		return rec, err
	}
	c.fill(&rec.Review)
	rec.Sentiment = review.Sentiment(sentiment.String)
	rec.Period = period.Period(p)
	return rec, nil
}

func platformOf(r review.Review) string {
	if r.Platform == "" {
		return review.PlatformUnknown
	}
	return r.Platform
}

// contentKey fingerprints the mutable content of a review so re-imports can
// tell updated reviews from unchanged ones.
// storedRating maps ratings outside 1..5 to 0, the missing-rating value.
func storedRating(r review.Review) int {
	if !r.Valid() {
		return 0
	}
	return r.Rating
}

func contentKey(r review.Review) string {
	return strings.Join([]string{
		r.ID, r.Place, r.URL, r.Author, r.AuthorLocation, r.Title, r.Text,
		dateString(r.Date), dateString(r.Written),
		strconv.Itoa(storedRating(r)), strconv.Itoa(r.Helpful), strconv.Itoa(r.Photos),
	}, "\x00")
}

func parseTimestamp(s string) time.Time {
	// SQLite CURRENT_TIMESTAMP format, then RFC3339
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
