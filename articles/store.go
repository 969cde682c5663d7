// Package articles stores accepted articles with their word statistics in
// SQLite and serves them over HTTP.
package articles

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
	_ "github.com/mattn/go-sqlite3"
	"github.com/pevans/mediascan"
)

var (
	ErrArticleNotFound = errors.New("article not found")
	ErrDuplicateURL    = errors.New("article with this URL already exists")
)

// UnknownGrammar is recorded for words without a part-of-speech tag.
const UnknownGrammar = "unknown"

// Fixed-width UTC layout so stored times compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store manages articles, words and facts using SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens or creates the article database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, now: time.Now}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		media_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		url TEXT NOT NULL UNIQUE,
		text TEXT NOT NULL,
		sentiments TEXT NOT NULL,
		ideologies TEXT NOT NULL,
		common_words TEXT NOT NULL,
		entities TEXT NOT NULL,
		count_words INTEGER NOT NULL,
		length INTEGER NOT NULL,
		inserted_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_articles_media ON articles(media_id);
	CREATE INDEX IF NOT EXISTS idx_articles_inserted ON articles(inserted_at);

	CREATE TABLE IF NOT EXISTS words (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		grammar TEXT NOT NULL,
		count_repeated INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS facts (
		article_id TEXT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
		word_id INTEGER NOT NULL REFERENCES words(id),
		frequency INTEGER NOT NULL,
		PRIMARY KEY (article_id, word_id)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Exists reports whether an article with the URL is stored.
func (s *Store) Exists(ctx context.Context, url string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles WHERE url = ?", url).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check article: %w", err)
	}
	return n > 0, nil
}

// Persist stores the article, upserts its words and records one fact per
// word, all in one transaction. A missing ID or insertion time is filled
// in.
func (s *Store) Persist(ctx context.Context, article *mediascan.Article, words map[string]int, pos map[string]string) error {
	if article.ID == uuid.Nil {
		article.ID = uuid.New()
	}
	if article.InsertedAt.IsZero() {
		article.InsertedAt = s.now().UTC().Truncate(time.Microsecond)
	}

	columns, err := encodeColumns(article)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO articles (id, media_id, title, url, text, sentiments, ideologies,
			common_words, entities, count_words, length, inserted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, article.ID.String(), article.MediaID, article.Title, article.URL, article.Text,
		columns.sentiments, columns.ideologies, columns.commonWords, columns.entities,
		article.WordCount, article.Length, article.InsertedAt.UTC().Format(timeLayout))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateURL
		}
		return fmt.Errorf("failed to insert article: %w", err)
	}

	for _, word := range sortedWords(words) {
		n := words[word]
		grammar := pos[word]
		if grammar == "" {
			grammar = UnknownGrammar
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO words (name, grammar, count_repeated) VALUES (?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET count_repeated = count_repeated + excluded.count_repeated
		`, word, grammar, n); err != nil {
			return fmt.Errorf("failed to upsert word %q: %w", word, err)
		}

		var wordID int64
		if err := tx.QueryRowContext(ctx, "SELECT id FROM words WHERE name = ?", word).Scan(&wordID); err != nil {
			return fmt.Errorf("failed to read word %q: %w", word, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO facts (article_id, word_id, frequency) VALUES (?, ?, ?)",
			article.ID.String(), wordID, n); err != nil {
			return fmt.Errorf("failed to insert fact for %q: %w", word, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit article: %w", err)
	}
	return nil
}

const selectArticle = `
	SELECT id, media_id, title, url, text, sentiments, ideologies,
		common_words, entities, count_words, length, inserted_at
	FROM articles
`

// GetArticle retrieves an article by ID.
func (s *Store) GetArticle(ctx context.Context, id uuid.UUID) (*mediascan.Article, error) {
	row := s.db.QueryRowContext(ctx, selectArticle+" WHERE id = ?", id.String())
	article, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrArticleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query article: %w", err)
	}
	return article, nil
}

// ListArticles lists articles, newest first.
func (s *Store) ListArticles(ctx context.Context, filter mediascan.ArticleFilter) ([]mediascan.Article, error) {
	query := selectArticle
	var conditions []string
	var args []any

	if filter.MediaID > 0 {
		conditions = append(conditions, "media_id = ?")
		args = append(args, filter.MediaID)
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "inserted_at >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY inserted_at DESC, url ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	var list []mediascan.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		list = append(list, *article)
	}
	return list, rows.Err()
}

// LabelStats tallies the sentiments and ideologies of the articles stored
// since the given time.
func (s *Store) LabelStats(ctx context.Context, since time.Time) (*mediascan.LabelStats, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT sentiments, ideologies FROM articles WHERE inserted_at >= ?",
		since.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query labels: %w", err)
	}
	defer rows.Close()

	var pairs [][2][]string
	for rows.Next() {
		var sentiments, ideologies string
		if err := rows.Scan(&sentiments, &ideologies); err != nil {
			return nil, fmt.Errorf("failed to scan labels: %w", err)
		}
		var pair [2][]string
		if err := json.Unmarshal([]byte(sentiments), &pair[0]); err != nil {
			return nil, fmt.Errorf("failed to decode sentiments: %w", err)
		}
		if err := json.Unmarshal([]byte(ideologies), &pair[1]); err != nil {
			return nil, fmt.Errorf("failed to decode ideologies: %w", err)
		}
		pairs = append(pairs, pair)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return TallyLabels(since, pairs), nil
}

// TallyLabels builds LabelStats from each article's sentiment and ideology
// lists.
func TallyLabels(since time.Time, labels [][2][]string) *mediascan.LabelStats {
	sentiments := make(map[string]int)
	ideologies := make(map[string]int)
	for _, pair := range labels {
		for _, label := range pair[0] {
			sentiments[label]++
		}
		for _, label := range pair[1] {
			ideologies[label]++
		}
	}

	return &mediascan.LabelStats{
		Since:      since,
		Articles:   len(labels),
		Sentiments: mediascan.SortedCounts(sentiments),
		Ideologies: mediascan.SortedCounts(ideologies),
	}
}

// WordCount returns how often a word was seen across all articles and its
// recorded grammar.
func (s *Store) WordCount(ctx context.Context, word string) (int, string, error) {
	var (
		count   int
		grammar string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT count_repeated, grammar FROM words WHERE name = ?", word).Scan(&count, &grammar)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("failed to query word: %w", err)
	}
	return count, grammar, nil
}

type encodedColumns struct {
	sentiments, ideologies, commonWords, entities string
}

// encodeColumns serializes the JSON columns of an article.
func encodeColumns(article *mediascan.Article) (*encodedColumns, error) {
	values := []any{
		nonNilStrings(article.Sentiments),
		nonNilStrings(article.Ideologies),
		article.CommonWords,
		article.Entities,
	}
	out := make([]string, len(values))
	for i, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode article: %w", err)
		}
		out[i] = string(data)
	}
	return &encodedColumns{
		sentiments:  out[0],
		ideologies:  out[1],
		commonWords: out[2],
		entities:    out[3],
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*mediascan.Article, error) {
	var (
		article                                       mediascan.Article
		id, insertedAt                                string
		sentiments, ideologies, commonWords, entities string
	)
	if err := row.Scan(&id, &article.MediaID, &article.Title, &article.URL, &article.Text,
		&sentiments, &ideologies, &commonWords, &entities,
		&article.WordCount, &article.Length, &insertedAt); err != nil {
		return nil, err
	}

	var err error
	if article.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid article id %q: %w", id, err)
	}
	if article.InsertedAt, err = time.Parse(timeLayout, insertedAt); err != nil {
		return nil, fmt.Errorf("invalid insertion time %q: %w", insertedAt, err)
	}

	for _, col := range []struct {
		data string
		dest any
	}{
		{sentiments, &article.Sentiments},
		{ideologies, &article.Ideologies},
		{commonWords, &article.CommonWords},
		{entities, &article.Entities},
	} {
		if err := json.Unmarshal([]byte(col.data), col.dest); err != nil {
			return nil, fmt.Errorf("failed to decode article %s: %w", id, err)
		}
	}
	return &article, nil
}

func sortedWords(words map[string]int) []string {
	keys := make([]string, 0, len(words))
	for word := range words {
		keys = append(keys, word)
	}
	sort.Strings(keys)
	return keys
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint")
}
