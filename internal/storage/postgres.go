package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/xaenox/hustle-bot/internal/models"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	UseInMemory bool
}

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(config DatabaseConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &PostgresStorage{db: db}

	if err := storage.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}

	return nil
}

// Reminders

func (s *PostgresStorage) CreateReminder(ctx context.Context, r *models.Reminder) error {
	query := `
		INSERT INTO reminders (chat_id, user_id, message, fire_at, recurrence, weekday, minute_of_day, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := s.db.QueryRowContext(ctx, query,
		r.ChatID,
		r.UserID,
		r.Message,
		r.FireAt.UTC(),
		string(r.Recurrence.Kind),
		int(r.Recurrence.Weekday),
		r.Recurrence.MinuteOfDay,
		r.Active,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating reminder: %w", err)
	}

	return nil
}

const reminderColumns = `id, chat_id, user_id, message, fire_at, recurrence, weekday, minute_of_day,
	active, claim_token, claimed_at, attempts, created_at`

func scanReminder(row interface{ Scan(...any) error }) (*models.Reminder, error) {
	r := &models.Reminder{}
	var (
		kind      string
		weekday   int
		claimedAt sql.NullTime
	)
	err := row.Scan(
		&r.ID,
		&r.ChatID,
		&r.UserID,
		&r.Message,
		&r.FireAt,
		&kind,
		&weekday,
		&r.Recurrence.MinuteOfDay,
		&r.Active,
		&r.ClaimToken,
		&claimedAt,
		&r.Attempts,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Recurrence.Kind = models.RecurrenceKind(kind)
	r.Recurrence.Weekday = time.Weekday(weekday)
	if claimedAt.Valid {
		t := claimedAt.Time
		r.ClaimedAt = &t
	}
	return r, nil
}

func (s *PostgresStorage) GetReminder(ctx context.Context, id int64) (*models.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE id = $1`

	r, err := scanReminder(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting reminder: %w", err)
	}
	return r, nil
}

func (s *PostgresStorage) ActiveReminders(ctx context.Context, chatID int64) ([]*models.Reminder, error) {
	query := `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE chat_id = $1 AND active
		ORDER BY fire_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("error querying active reminders: %w", err)
	}
	defer rows.Close()

	return collectReminders(rows)
}

func (s *PostgresStorage) DueReminders(ctx context.Context, now, leaseCutoff time.Time) ([]*models.Reminder, error) {
	query := `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE active AND fire_at <= $1 AND (claimed_at IS NULL OR claimed_at <= $2)
		ORDER BY fire_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, now.UTC(), leaseCutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("error querying due reminders: %w", err)
	}
	defer rows.Close()

	return collectReminders(rows)
}

func collectReminders(rows *sql.Rows) ([]*models.Reminder, error) {
	var reminders []*models.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning reminder: %w", err)
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

func (s *PostgresStorage) ClaimReminder(ctx context.Context, id int64, token string, at time.Time) error {
	query := `
		UPDATE reminders
		SET claim_token = $1, claimed_at = $2, attempts = attempts + 1
		WHERE id = $3`

	if _, err := s.db.ExecContext(ctx, query, token, at.UTC(), id); err != nil {
		return fmt.Errorf("error claiming reminder: %w", err)
	}
	return nil
}

func (s *PostgresStorage) AdvanceReminder(ctx context.Context, id int64, nextFire time.Time) error {
	query := `
		UPDATE reminders
		SET fire_at = $1, claim_token = '', claimed_at = NULL, attempts = 0
		WHERE id = $2`

	if _, err := s.db.ExecContext(ctx, query, nextFire.UTC(), id); err != nil {
		return fmt.Errorf("error advancing reminder: %w", err)
	}
	return nil
}

func (s *PostgresStorage) DeactivateReminder(ctx context.Context, id int64) error {
	query := `
		UPDATE reminders
		SET active = FALSE, claim_token = '', claimed_at = NULL
		WHERE id = $1`

	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("error deactivating reminder: %w", err)
	}
	return nil
}

// Activity

func (s *PostgresStorage) TouchActivity(ctx context.Context, chatID, userID int64, at time.Time) error {
	query := `
		INSERT INTO user_activity (chat_id, user_id, last_activity, message_count, warned_at)
		VALUES ($1, $2, $3, 1, NULL)
		ON CONFLICT (chat_id, user_id) DO UPDATE
		SET last_activity = $3, message_count = user_activity.message_count + 1, warned_at = NULL`

	if _, err := s.db.ExecContext(ctx, query, chatID, userID, at.UTC()); err != nil {
		return fmt.Errorf("error updating activity: %w", err)
	}
	return nil
}

func (s *PostgresStorage) GetActivity(ctx context.Context, chatID, userID int64) (*models.ActivityRecord, error) {
	query := `
		SELECT chat_id, user_id, last_activity, message_count, warned_at
		FROM user_activity
		WHERE chat_id = $1 AND user_id = $2`

	rec, err := scanActivity(s.db.QueryRowContext(ctx, query, chatID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting activity: %w", err)
	}
	return rec, nil
}

func scanActivity(row interface{ Scan(...any) error }) (*models.ActivityRecord, error) {
	rec := &models.ActivityRecord{}
	var warnedAt sql.NullTime
	err := row.Scan(&rec.ChatID, &rec.UserID, &rec.LastActivity, &rec.MessageCount, &warnedAt)
	if err != nil {
		return nil, err
	}
	if warnedAt.Valid {
		t := warnedAt.Time
		rec.WarnedAt = &t
	}
	return rec, nil
}

func (s *PostgresStorage) ChatActivity(ctx context.Context, chatID int64) ([]*models.ActivityRecord, error) {
	query := `
		SELECT chat_id, user_id, last_activity, message_count, warned_at
		FROM user_activity
		WHERE chat_id = $1
		ORDER BY last_activity ASC`

	rows, err := s.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("error querying chat activity: %w", err)
	}
	defer rows.Close()

	var records []*models.ActivityRecord
	for rows.Next() {
		rec, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning activity: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStorage) ActivityChats(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT chat_id FROM user_activity`)
	if err != nil {
		return nil, fmt.Errorf("error querying activity chats: %w", err)
	}
	defer rows.Close()

	var chats []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning chat id: %w", err)
		}
		chats = append(chats, id)
	}
	return chats, rows.Err()
}

func (s *PostgresStorage) MarkWarned(ctx context.Context, chatID, userID int64, at time.Time) error {
	query := `UPDATE user_activity SET warned_at = $1 WHERE chat_id = $2 AND user_id = $3`

	if _, err := s.db.ExecContext(ctx, query, at.UTC(), chatID, userID); err != nil {
		return fmt.Errorf("error marking user warned: %w", err)
	}
	return nil
}

func (s *PostgresStorage) DeleteActivity(ctx context.Context, chatID, userID int64) error {
	query := `DELETE FROM user_activity WHERE chat_id = $1 AND user_id = $2`

	if _, err := s.db.ExecContext(ctx, query, chatID, userID); err != nil {
		return fmt.Errorf("error deleting activity: %w", err)
	}
	return nil
}

// Quotes

func (s *PostgresStorage) AddQuote(ctx context.Context, chatID int64, text string) (int64, error) {
	var id int64
	query := `INSERT INTO quotes (chat_id, quote) VALUES ($1, $2) RETURNING id`

	if err := s.db.QueryRowContext(ctx, query, chatID, text).Scan(&id); err != nil {
		return 0, fmt.Errorf("error adding quote: %w", err)
	}
	return id, nil
}

func (s *PostgresStorage) ListQuotes(ctx context.Context, chatID int64) ([]*models.Quote, error) {
	query := `
		SELECT id, chat_id, quote, created_at
		FROM quotes
		WHERE chat_id = $1
		ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("error querying quotes: %w", err)
	}
	defer rows.Close()

	var quotes []*models.Quote
	for rows.Next() {
		q := &models.Quote{}
		if err := rows.Scan(&q.ID, &q.ChatID, &q.Text, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

func (s *PostgresStorage) DeleteQuote(ctx context.Context, chatID, quoteID int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM quotes WHERE chat_id = $1 AND id = $2`, chatID, quoteID)
	if err != nil {
		return false, fmt.Errorf("error deleting quote: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error getting rows affected: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStorage) RandomQuote(ctx context.Context, chatID int64) (*models.Quote, error) {
	query := `
		SELECT id, chat_id, quote, created_at
		FROM quotes
		WHERE chat_id = $1
		ORDER BY RANDOM()
		LIMIT 1`

	q := &models.Quote{}
	err := s.db.QueryRowContext(ctx, query, chatID).Scan(&q.ID, &q.ChatID, &q.Text, &q.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoQuotes
	}
	if err != nil {
		return nil, fmt.Errorf("error getting random quote: %w", err)
	}
	return q, nil
}

func (s *PostgresStorage) IncrementQuoteCounter(ctx context.Context, chatID int64) (int, error) {
	query := `
		INSERT INTO quote_counters (chat_id, count) VALUES ($1, 1)
		ON CONFLICT (chat_id) DO UPDATE SET count = quote_counters.count + 1
		RETURNING count`

	var count int
	if err := s.db.QueryRowContext(ctx, query, chatID).Scan(&count); err != nil {
		return 0, fmt.Errorf("error incrementing quote counter: %w", err)
	}
	return count, nil
}

func (s *PostgresStorage) ResetQuoteCounter(ctx context.Context, chatID int64) error {
	query := `
		INSERT INTO quote_counters (chat_id, count) VALUES ($1, 0)
		ON CONFLICT (chat_id) DO UPDATE SET count = 0`

	if _, err := s.db.ExecContext(ctx, query, chatID); err != nil {
		return fmt.Errorf("error resetting quote counter: %w", err)
	}
	return nil
}

func (s *PostgresStorage) ClearQuotes(ctx context.Context, chatID int64) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM quotes WHERE chat_id = $1`, chatID)
	if err != nil {
		return 0, fmt.Errorf("error clearing quotes: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error getting rows affected: %w", err)
	}
	return int(affected), nil
}

// Saved messages

func (s *PostgresStorage) SaveMessage(ctx context.Context, m *models.SavedMessage) error {
	query := `
		INSERT INTO saved_messages (chat_id, message_id, saved_by, content, tag)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := s.db.QueryRowContext(ctx, query, m.ChatID, m.MessageID, m.SavedBy, m.Content, m.Tag).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("error saving message: %w", err)
	}
	return nil
}

func (s *PostgresStorage) SavedMessages(ctx context.Context, chatID int64) ([]*models.SavedMessage, error) {
	return s.querySavedMessages(ctx, chatID, "")
}

func (s *PostgresStorage) MessagesByTag(ctx context.Context, chatID int64, tag string) ([]*models.SavedMessage, error) {
	return s.querySavedMessages(ctx, chatID, tag)
}

func (s *PostgresStorage) querySavedMessages(ctx context.Context, chatID int64, tag string) ([]*models.SavedMessage, error) {
	query := `
		SELECT id, chat_id, message_id, saved_by, content, tag, created_at
		FROM saved_messages
		WHERE chat_id = $1 AND tag = $2
		ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, chatID, tag)
	if err != nil {
		return nil, fmt.Errorf("error querying saved messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.SavedMessage
	for rows.Next() {
		m := &models.SavedMessage{}
		if err := rows.Scan(&m.ID, &m.ChatID, &m.MessageID, &m.SavedBy, &m.Content, &m.Tag, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning saved message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// Moderation

func (s *PostgresStorage) AddFilter(ctx context.Context, f *models.SpamFilter) error {
	query := `
		INSERT INTO spam_filters (chat_id, filter_word, match_mode, action)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chat_id, filter_word) DO UPDATE
		SET match_mode = $3, action = $4
		RETURNING id, created_at`

	err := s.db.QueryRowContext(ctx, query, f.ChatID, f.Word, string(f.Mode), string(f.Action)).
		Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return fmt.Errorf("error adding spam filter: %w", err)
	}
	return nil
}

func (s *PostgresStorage) RemoveFilter(ctx context.Context, chatID int64, word string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM spam_filters WHERE chat_id = $1 AND filter_word = $2`, chatID, word)
	if err != nil {
		return false, fmt.Errorf("error removing spam filter: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error getting rows affected: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStorage) ListFilters(ctx context.Context, chatID int64) ([]*models.SpamFilter, error) {
	query := `
		SELECT id, chat_id, filter_word, match_mode, action, created_at
		FROM spam_filters
		WHERE chat_id = $1
		ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("error querying spam filters: %w", err)
	}
	defer rows.Close()

	var filters []*models.SpamFilter
	for rows.Next() {
		f := &models.SpamFilter{}
		var mode, action string
		if err := rows.Scan(&f.ID, &f.ChatID, &f.Word, &mode, &action, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning spam filter: %w", err)
		}
		f.Mode = models.FilterMode(mode)
		f.Action = models.FilterAction(action)
		filters = append(filters, f)
	}
	return filters, rows.Err()
}

func (s *PostgresStorage) AddStrike(ctx context.Context, chatID, userID int64, at time.Time) (int, error) {
	query := `
		INSERT INTO spam_strikes (chat_id, user_id, strikes, last_strike_at)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (chat_id, user_id) DO UPDATE
		SET strikes = spam_strikes.strikes + 1, last_strike_at = $3
		RETURNING strikes`

	var strikes int
	if err := s.db.QueryRowContext(ctx, query, chatID, userID, at.UTC()).Scan(&strikes); err != nil {
		return 0, fmt.Errorf("error adding strike: %w", err)
	}
	return strikes, nil
}

func (s *PostgresStorage) GetStrikes(ctx context.Context, chatID, userID int64) (*models.SpamStrike, error) {
	query := `
		SELECT chat_id, user_id, strikes, last_strike_at
		FROM spam_strikes
		WHERE chat_id = $1 AND user_id = $2`

	st := &models.SpamStrike{}
	err := s.db.QueryRowContext(ctx, query, chatID, userID).
		Scan(&st.ChatID, &st.UserID, &st.Strikes, &st.LastStrikeAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.SpamStrike{ChatID: chatID, UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting strikes: %w", err)
	}
	return st, nil
}

func (s *PostgresStorage) ResetStrikes(ctx context.Context, chatID, userID int64) error {
	query := `DELETE FROM spam_strikes WHERE chat_id = $1 AND user_id = $2`

	if _, err := s.db.ExecContext(ctx, query, chatID, userID); err != nil {
		return fmt.Errorf("error resetting strikes: %w", err)
	}
	return nil
}

// Config

func (s *PostgresStorage) GetConfig(ctx context.Context, chatID int64, key, def string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM chat_config WHERE chat_id = $1 AND key = $2`, chatID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("error getting config: %w", err)
	}
	return value, nil
}

func (s *PostgresStorage) SetConfig(ctx context.Context, chatID int64, key, value string) error {
	query := `
		INSERT INTO chat_config (chat_id, key, value) VALUES ($1, $2, $3)
		ON CONFLICT (chat_id, key) DO UPDATE SET value = $3`

	if _, err := s.db.ExecContext(ctx, query, chatID, key, value); err != nil {
		return fmt.Errorf("error setting config: %w", err)
	}
	return nil
}

func (s *PostgresStorage) DeleteConfig(ctx context.Context, chatID int64, key string) error {
	query := `DELETE FROM chat_config WHERE chat_id = $1 AND key = $2`

	if _, err := s.db.ExecContext(ctx, query, chatID, key); err != nil {
		return fmt.Errorf("error deleting config: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
