// Package postgres implements the media registry and article store on
// PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pevans/mediascan"
	"github.com/pevans/mediascan/articles"
	"github.com/pevans/mediascan/scraper"
	"github.com/pevans/mediascan/sources"
)

// Schema creates the tables used by Postgres. Migrate applies it.
const Schema = `
CREATE TABLE IF NOT EXISTS media (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	url TEXT NOT NULL UNIQUE,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	deactivated_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS articles (
	id UUID PRIMARY KEY,
	media_id BIGINT NOT NULL,
	title TEXT NOT NULL,
	url TEXT NOT NULL UNIQUE,
	text TEXT NOT NULL,
	sentiments JSONB NOT NULL,
	ideologies JSONB NOT NULL,
	common_words JSONB NOT NULL,
	entities JSONB NOT NULL,
	count_words INTEGER NOT NULL,
	length INTEGER NOT NULL,
	inserted_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS words (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	grammar TEXT NOT NULL,
	count_repeated INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS facts (
	article_id UUID NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
	word_id BIGINT NOT NULL REFERENCES words(id),
	frequency INTEGER NOT NULL,
	PRIMARY KEY (article_id, word_id)
);
`

// ErrDuplicateURL is returned when an article URL is already stored.
var ErrDuplicateURL = articles.ErrDuplicateURL

const uniqueViolation = "23505"

// Postgres represents a Postgres database client.
type Postgres struct {
	db *sqlx.DB
}

// New creates a new Postgres client.
func New(dsn string) (*Postgres, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// Migrate creates any missing tables.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("Unable to apply schema: %v", err)
	}
	return nil
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// ActiveMedia returns every active media record ordered by id.
func (p *Postgres) ActiveMedia(ctx context.Context) ([]mediascan.Media, error) {
	var media []mediascan.Media
	err := p.db.SelectContext(ctx, &media,
		selectMedia+` WHERE active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("Unable to list active media: %v", err)
	}
	return media, nil
}

// Deactivate marks a media record inactive and reports whether a record
// was changed.
func (p *Postgres) Deactivate(ctx context.Context, id int64) (bool, error) {
	return p.setActive(ctx, id, false)
}

// SetActive activates or deactivates a media record.
func (p *Postgres) SetActive(ctx context.Context, id int64, active bool) error {
	changed, err := p.setActive(ctx, id, active)
	if err != nil {
		return err
	}
	if !changed {
		return fmt.Errorf("Unable to update media %d: %w", id, sources.ErrMediaNotFound)
	}
	return nil
}

const selectMedia = `SELECT id, name, url, active, deactivated_at, created_at, updated_at FROM media`

// CreateMedia inserts a media record.
func (p *Postgres) CreateMedia(ctx context.Context, name, url string, active bool) (*mediascan.Media, error) {
	var media mediascan.Media
	err := p.db.GetContext(ctx, &media,
		`INSERT INTO media
		(name, url, active, deactivated_at)
		VALUES ($1, $2, $3, CASE WHEN $3 THEN NULL ELSE NOW() END)
		RETURNING id, name, url, active, deactivated_at, created_at, updated_at`,
		name, url, active)
	if isUniqueViolation(err) {
		return nil, sources.ErrDuplicateURL
	}
	if err != nil {
		return nil, fmt.Errorf("Unable to insert media with url %s: %v", url, err)
	}
	return &media, nil
}

// GetMedia retrieves a media record by id.
func (p *Postgres) GetMedia(ctx context.Context, id int64) (*mediascan.Media, error) {
	var media mediascan.Media
	err := p.db.GetContext(ctx, &media, selectMedia+` WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sources.ErrMediaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Unable to get media %d: %v", id, err)
	}
	return &media, nil
}

// UpdateMedia applies update to the media record.
func (p *Postgres) UpdateMedia(ctx context.Context, id int64, update sources.MediaUpdate) error {
	setClauses := []string{"updated_at = NOW()"}
	var args []any
	param := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if update.Name != nil {
		setClauses = append(setClauses, "name = "+param(*update.Name))
	}
	if update.URL != nil {
		setClauses = append(setClauses, "url = "+param(*update.URL))
	}
	if update.Active != nil {
		setClauses = append(setClauses, "active = "+param(*update.Active))
		if *update.Active {
			setClauses = append(setClauses, "deactivated_at = NULL")
		} else {
			setClauses = append(setClauses, "deactivated_at = NOW()")
		}
	}

	query := fmt.Sprintf("UPDATE media SET %s WHERE id = %s", strings.Join(setClauses, ", "), param(id))
	result, err := p.db.ExecContext(ctx, query, args...)
	if isUniqueViolation(err) {
		return sources.ErrDuplicateURL
	}
	if err != nil {
		return fmt.Errorf("Unable to update media %d: %v", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("Unable to update media %d: %v", id, err)
	}
	if rows == 0 {
		return sources.ErrMediaNotFound
	}
	return nil
}

// DeleteMedia deletes a media record.
func (p *Postgres) DeleteMedia(ctx context.Context, id int64) error {
	result, err := p.db.ExecContext(ctx, `DELETE FROM media WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Unable to delete media %d: %v", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("Unable to delete media %d: %v", id, err)
	}
	if rows == 0 {
		return sources.ErrMediaNotFound
	}
	return nil
}

// ListMedia lists media records ordered by id.
func (p *Postgres) ListMedia(ctx context.Context, filter sources.MediaFilter) ([]mediascan.Media, error) {
	query := selectMedia
	var args []any
	if filter.Active != nil {
		query += ` WHERE active = $1`
		args = append(args, *filter.Active)
	}
	query += ` ORDER BY id`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d OFFSET %d`, filter.Limit, filter.Offset)
	}

	var media []mediascan.Media
	if err := p.db.SelectContext(ctx, &media, query, args...); err != nil {
		return nil, fmt.Errorf("Unable to list media: %v", err)
	}
	return media, nil
}

// Seed upserts a media record for every roster entry and returns how many
// were created.
func (p *Postgres) Seed(ctx context.Context, roster scraper.Roster) (int, error) {
	created := 0
	for _, cfg := range roster {
		var inserted bool
		err := p.db.QueryRowContext(ctx,
			`INSERT INTO media
			(id, name, url, active)
			VALUES (DEFAULT, $1, $2, TRUE)
			ON CONFLICT (url) DO UPDATE SET url = $2
			RETURNING (xmax = 0)`, cfg.Name, cfg.Key).Scan(&inserted)
		if err != nil {
			return created, fmt.Errorf("Unable to seed media with url %s: %v", cfg.Key, err)
		}
		if inserted {
			created++
		}
	}
	return created, nil
}

func (p *Postgres) setActive(ctx context.Context, id int64, active bool) (bool, error) {
	result, err := p.db.ExecContext(ctx,
		`UPDATE media
		SET active = $1,
			deactivated_at = CASE WHEN $1 THEN NULL ELSE NOW() END,
			updated_at = NOW()
		WHERE id = $2`, active, id)
	if err != nil {
		return false, fmt.Errorf("Unable to update media %d: %v", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("Unable to update media %d: %v", id, err)
	}
	return rows > 0, nil
}

// Exists reports whether an article with the url is stored.
func (p *Postgres) Exists(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := p.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM articles WHERE url = $1)`, url)
	if err != nil {
		return false, fmt.Errorf("Unable to check article with url %s: %v", url, err)
	}
	return exists, nil
}

// Persist stores the article, its words and facts in one transaction.
func (p *Postgres) Persist(ctx context.Context, article *mediascan.Article, words map[string]int, pos map[string]string) error {
	if article.ID == uuid.Nil {
		article.ID = uuid.New()
	}
	if article.InsertedAt.IsZero() {
		article.InsertedAt = time.Now().UTC()
	}

	columns, err := jsonColumns(article)
	if err != nil {
		return err
	}

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Unable to begin transaction: %v", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO articles
		(id, media_id, title, url, text, sentiments, ideologies, common_words, entities,
			count_words, length, inserted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		article.ID, article.MediaID, article.Title, article.URL, article.Text,
		columns[0], columns[1], columns[2], columns[3],
		article.WordCount, article.Length, article.InsertedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateURL
		}
		return fmt.Errorf("Unable to insert article with url %s: %v", article.URL, err)
	}

	names := make([]string, 0, len(words))
	for word := range words {
		names = append(names, word)
	}
	sort.Strings(names)

	for _, word := range names {
		grammar := pos[word]
		if grammar == "" {
			grammar = "unknown"
		}

		var wordID int64
		err := tx.QueryRowContext(ctx,
			`INSERT INTO words
			(id, name, grammar, count_repeated)
			VALUES (DEFAULT, $1, $2, $3)
			ON CONFLICT (name) DO UPDATE SET count_repeated = words.count_repeated + EXCLUDED.count_repeated
			RETURNING id`, word, grammar, words[word]).Scan(&wordID)
		if err != nil {
			return fmt.Errorf("Unable to upsert word %s: %v", word, err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO facts (article_id, word_id, frequency) VALUES ($1, $2, $3)`,
			article.ID, wordID, words[word])
		if err != nil {
			return fmt.Errorf("Unable to insert fact for word %s: %v", word, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Unable to commit article with url %s: %v", article.URL, err)
	}
	return nil
}

// ErrArticleNotFound is returned when no article has the ID.
var ErrArticleNotFound = articles.ErrArticleNotFound

type articleRow struct {
	ID          uuid.UUID `db:"id"`
	MediaID     int64     `db:"media_id"`
	Title       string    `db:"title"`
	URL         string    `db:"url"`
	Text        string    `db:"text"`
	Sentiments  []byte    `db:"sentiments"`
	Ideologies  []byte    `db:"ideologies"`
	CommonWords []byte    `db:"common_words"`
	Entities    []byte    `db:"entities"`
	WordCount   int       `db:"count_words"`
	Length      int       `db:"length"`
	InsertedAt  time.Time `db:"inserted_at"`
}

func (r *articleRow) article() (*mediascan.Article, error) {
	a := &mediascan.Article{
		ID:         r.ID,
		MediaID:    r.MediaID,
		Title:      r.Title,
		URL:        r.URL,
		Text:       r.Text,
		WordCount:  r.WordCount,
		Length:     r.Length,
		InsertedAt: r.InsertedAt,
	}
	for _, col := range []struct {
		data []byte
		dest any
	}{
		{r.Sentiments, &a.Sentiments},
		{r.Ideologies, &a.Ideologies},
		{r.CommonWords, &a.CommonWords},
		{r.Entities, &a.Entities},
	} {
		if err := json.Unmarshal(col.data, col.dest); err != nil {
			return nil, fmt.Errorf("Unable to decode article %s: %v", r.ID, err)
		}
	}
	return a, nil
}

const selectArticle = `SELECT id, media_id, title, url, text, sentiments, ideologies,
	common_words, entities, count_words, length, inserted_at
	FROM articles`

// GetArticle returns the article with the given id.
func (p *Postgres) GetArticle(ctx context.Context, id uuid.UUID) (*mediascan.Article, error) {
	var row articleRow
	err := p.db.GetContext(ctx, &row, selectArticle+` WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrArticleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Unable to get article %s: %v", id, err)
	}
	return row.article()
}

// ListArticles lists articles, newest first.
func (p *Postgres) ListArticles(ctx context.Context, filter mediascan.ArticleFilter) ([]mediascan.Article, error) {
	query := selectArticle
	var conditions []string
	var args []any
	if filter.MediaID > 0 {
		args = append(args, filter.MediaID)
		conditions = append(conditions, fmt.Sprintf("media_id = $%d", len(args)))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		conditions = append(conditions, fmt.Sprintf("inserted_at >= $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY inserted_at DESC, url ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, filter.Offset)
	}

	var rows []articleRow
	if err := p.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("Unable to list articles: %v", err)
	}

	list := make([]mediascan.Article, 0, len(rows))
	for i := range rows {
		a, err := rows[i].article()
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, nil
}

// LabelStats tallies the labels of the articles stored since the given
// time.
func (p *Postgres) LabelStats(ctx context.Context, since time.Time) (*mediascan.LabelStats, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT sentiments, ideologies
		FROM articles
		WHERE inserted_at >= $1`, since)
	if err != nil {
		return nil, fmt.Errorf("Unable to get labels since %s: %v", since.Format(time.RFC3339), err)
	}
	defer rows.Close()

	sentiments := make(map[string]int)
	ideologies := make(map[string]int)
	articles := 0
	for rows.Next() {
		var rawSentiments, rawIdeologies []byte
		if err := rows.Scan(&rawSentiments, &rawIdeologies); err != nil {
			return nil, fmt.Errorf("Unable to scan labels: %v", err)
		}
		if err := tally(rawSentiments, sentiments); err != nil {
			return nil, err
		}
		if err := tally(rawIdeologies, ideologies); err != nil {
			return nil, err
		}
		articles++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Unable to read labels: %v", err)
	}

	return &mediascan.LabelStats{
		Since:      since,
		Articles:   articles,
		Sentiments: mediascan.SortedCounts(sentiments),
		Ideologies: mediascan.SortedCounts(ideologies),
	}, nil
}

func tally(raw []byte, counts map[string]int) error {
	var labels []string
	if err := json.Unmarshal(raw, &labels); err != nil {
		return fmt.Errorf("Unable to decode labels: %v", err)
	}
	for _, label := range labels {
		counts[label]++
	}
	return nil
}

// jsonColumns encodes sentiments, ideologies, common words and entities.
func jsonColumns(article *mediascan.Article) ([4]string, error) {
	var out [4]string
	sentiments, ideologies := article.Sentiments, article.Ideologies
	if sentiments == nil {
		sentiments = []string{}
	}
	if ideologies == nil {
		ideologies = []string{}
	}
	for i, v := range []any{sentiments, ideologies, article.CommonWords, article.Entities} {
		data, err := json.Marshal(v)
		if err != nil {
			return out, fmt.Errorf("Unable to encode article with url %s: %v", article.URL, err)
		}
		out[i] = string(data)
	}
	return out, nil
}

var (
	_ mediascan.MediaRepository   = (*Postgres)(nil)
	_ mediascan.ArticleRepository = (*Postgres)(nil)
	_ articles.Reader             = (*Postgres)(nil)
	_ sources.Registry            = (*Postgres)(nil)
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
