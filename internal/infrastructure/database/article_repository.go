package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/wolfitem/ai-podcast/internal/domain/model"
	"github.com/wolfitem/ai-podcast/internal/infrastructure/logger"
)

// ArticleRepository records which articles an episode has already used.
// Only metadata is stored; article bodies never hit the database.
type ArticleRepository interface {
	// SaveArticle marks an article as used.
	SaveArticle(article model.Article) error
	// ArticleExists checks whether an article URL was used before.
	ArticleExists(url string) (bool, error)
	// GetArticleByURL fetches a used article record by its URL.
	GetArticleByURL(url string) (*model.Article, error)
}

// SQLiteArticleRepository implements ArticleRepository on SQLite.
type SQLiteArticleRepository struct {
	db Database
}

// NewSQLiteArticleRepository creates an article repository.
func NewSQLiteArticleRepository(db Database) ArticleRepository {
	return &SQLiteArticleRepository{
		db: db,
	}
}

// SaveArticle marks an article as used. Content is dropped before
// insert; already-recorded URLs are left untouched.
func (r *SQLiteArticleRepository) SaveArticle(article model.Article) error {
	logger.Debug("recording used article", "title", article.Title, "url", article.URL)

	exists, err := r.ArticleExists(article.URL)
	if err != nil {
		return fmt.Errorf("failed to check for existing article: %w", err)
	}
	if exists {
		logger.Debug("article already recorded, skipping", "url", article.URL)
		return nil
	}

	query := `
	INSERT INTO articles (title, author, source, category, url)
	VALUES (?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, article.Title, article.Author, article.Source, article.Category, article.URL)
	if err != nil {
		logger.Error("failed to record article", "url", article.URL, "error", err)
		return fmt.Errorf("failed to record article: %w", err)
	}

	return nil
}

// ArticleExists checks whether an article URL was used before.
func (r *SQLiteArticleRepository) ArticleExists(url string) (bool, error) {
	query := "SELECT COUNT(*) FROM articles WHERE url = ?"
	var count int
	err := r.db.QueryRow(query, url).Scan(&count)
	if err != nil {
		logger.Error("failed to query article", "url", url, "error", err)
		return false, fmt.Errorf("failed to query article: %w", err)
	}
	return count > 0, nil
}

// GetArticleByURL fetches a used article record by its URL. The stored
// record carries no content.
func (r *SQLiteArticleRepository) GetArticleByURL(url string) (*model.Article, error) {
	query := "SELECT title, author, source, category, url FROM articles WHERE url = ?"
	row := r.db.QueryRow(query, url)

	var article model.Article
	err := row.Scan(&article.Title, &article.Author, &article.Source, &article.Category, &article.URL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logger.Error("failed to fetch article", "url", url, "error", err)
		return nil, fmt.Errorf("failed to fetch article: %w", err)
	}

	return &article, nil
}
