package database

import (
	"fmt"
	"time"

	"github.com/wolfitem/ai-podcast/internal/domain/model"
	"github.com/wolfitem/ai-podcast/internal/infrastructure/logger"
)

// EpisodeRepository stores published episode metadata.
type EpisodeRepository interface {
	// SaveEpisode persists the metadata of a published episode.
	SaveEpisode(episode model.PodcastEpisode) error
	// EpisodeExists checks whether an episode GUID was published before.
	EpisodeExists(guid string) (bool, error)
	// ListEpisodes returns all stored episodes, newest first.
	ListEpisodes() ([]model.PodcastEpisode, error)
}

// SQLiteEpisodeRepository implements EpisodeRepository on SQLite.
type SQLiteEpisodeRepository struct {
	db Database
}

// NewSQLiteEpisodeRepository creates an episode repository.
func NewSQLiteEpisodeRepository(db Database) EpisodeRepository {
	return &SQLiteEpisodeRepository{
		db: db,
	}
}

// SaveEpisode persists the metadata of a published episode. A GUID that
// was stored before is left untouched.
func (r *SQLiteEpisodeRepository) SaveEpisode(episode model.PodcastEpisode) error {
	logger.Info("persisting episode metadata", "guid", episode.GUID, "number", episode.EpisodeNumber)

	exists, err := r.EpisodeExists(episode.GUID)
	if err != nil {
		return fmt.Errorf("failed to check for existing episode: %w", err)
	}
	if exists {
		logger.Info("episode already persisted, skipping", "guid", episode.GUID)
		return nil
	}

	query := `
	INSERT INTO episodes (guid, title, description, audio_url, pub_date, episode_number, duration, file_size, author)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		episode.GUID,
		episode.Title,
		episode.Description,
		episode.AudioURL,
		episode.PubDate.Format(time.RFC3339),
		episode.EpisodeNumber,
		episode.Duration,
		episode.FileSize,
		episode.Author,
	)
	if err != nil {
		logger.Error("failed to persist episode", "guid", episode.GUID, "error", err)
		return fmt.Errorf("failed to persist episode: %w", err)
	}

	return nil
}

// EpisodeExists checks whether an episode GUID was published before.
func (r *SQLiteEpisodeRepository) EpisodeExists(guid string) (bool, error) {
	query := "SELECT COUNT(*) FROM episodes WHERE guid = ?"
	var count int
	err := r.db.QueryRow(query, guid).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query episode: %w", err)
	}
	return count > 0, nil
}

// ListEpisodes returns all stored episodes, newest first.
func (r *SQLiteEpisodeRepository) ListEpisodes() ([]model.PodcastEpisode, error) {
	query := `
	SELECT guid, title, description, audio_url, pub_date, episode_number, duration, file_size, author
	FROM episodes ORDER BY pub_date DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []model.PodcastEpisode
	for rows.Next() {
		var ep model.PodcastEpisode
		var pubDate string
		err := rows.Scan(&ep.GUID, &ep.Title, &ep.Description, &ep.AudioURL, &pubDate,
			&ep.EpisodeNumber, &ep.Duration, &ep.FileSize, &ep.Author)
		if err != nil {
			return nil, fmt.Errorf("failed to scan episode row: %w", err)
		}
		if parsed, err := time.Parse(time.RFC3339, pubDate); err == nil {
			ep.PubDate = parsed
		}
		episodes = append(episodes, ep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate episodes: %w", err)
	}

	return episodes, nil
}
