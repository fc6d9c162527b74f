package storage

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/xaenox/hustle-bot/internal/models"
)

type activityKey struct {
	chatID int64
	userID int64
}

type configKey struct {
	chatID int64
	key    string
}

// MemoryStorage is an in-memory Storage used for tests and local runs
// without a database.
type MemoryStorage struct {
	mu sync.RWMutex

	nextReminderID int64
	reminders      map[int64]*models.Reminder

	activity map[activityKey]*models.ActivityRecord

	nextQuoteID int64
	quotes      map[int64][]*models.Quote
	counters    map[int64]int

	nextSavedID int64
	saved       map[int64][]*models.SavedMessage

	nextFilterID int64
	filters      map[int64][]*models.SpamFilter
	strikes      map[activityKey]*models.SpamStrike

	config map[configKey]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		reminders: make(map[int64]*models.Reminder),
		activity:  make(map[activityKey]*models.ActivityRecord),
		quotes:    make(map[int64][]*models.Quote),
		counters:  make(map[int64]int),
		saved:     make(map[int64][]*models.SavedMessage),
		filters:   make(map[int64][]*models.SpamFilter),
		strikes:   make(map[activityKey]*models.SpamStrike),
		config:    make(map[configKey]string),
	}
}

// Reminders

func copyReminder(r *models.Reminder) *models.Reminder {
	c := *r
	if r.ClaimedAt != nil {
		t := *r.ClaimedAt
		c.ClaimedAt = &t
	}
	return &c
}

func (s *MemoryStorage) CreateReminder(ctx context.Context, r *models.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextReminderID++
	r.ID = s.nextReminderID
	r.CreatedAt = time.Now().UTC()
	s.reminders[r.ID] = copyReminder(r)
	return nil
}

func (s *MemoryStorage) GetReminder(ctx context.Context, id int64) (*models.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reminders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyReminder(r), nil
}

func (s *MemoryStorage) ActiveReminders(ctx context.Context, chatID int64) ([]*models.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Reminder
	for _, r := range s.reminders {
		if r.ChatID == chatID && r.Active {
			result = append(result, copyReminder(r))
		}
	}
	sortReminders(result)
	return result, nil
}

func (s *MemoryStorage) DueReminders(ctx context.Context, now, leaseCutoff time.Time) ([]*models.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Reminder
	for _, r := range s.reminders {
		if !r.Active || r.FireAt.After(now) {
			continue
		}
		if r.ClaimedAt != nil && r.ClaimedAt.After(leaseCutoff) {
			continue
		}
		result = append(result, copyReminder(r))
	}
	sortReminders(result)
	return result, nil
}

func sortReminders(reminders []*models.Reminder) {
	sort.Slice(reminders, func(i, j int) bool {
		if reminders[i].FireAt.Equal(reminders[j].FireAt) {
			return reminders[i].ID < reminders[j].ID
		}
		return reminders[i].FireAt.Before(reminders[j].FireAt)
	})
}

func (s *MemoryStorage) ClaimReminder(ctx context.Context, id int64, token string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reminders[id]
	if !ok {
		return ErrNotFound
	}
	t := at.UTC()
	r.ClaimToken = token
	r.ClaimedAt = &t
	r.Attempts++
	return nil
}

func (s *MemoryStorage) AdvanceReminder(ctx context.Context, id int64, nextFire time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reminders[id]
	if !ok {
		return ErrNotFound
	}
	r.FireAt = nextFire.UTC()
	r.ClaimToken = ""
	r.ClaimedAt = nil
	r.Attempts = 0
	return nil
}

func (s *MemoryStorage) DeactivateReminder(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reminders[id]
	if !ok {
		return ErrNotFound
	}
	r.Active = false
	r.ClaimToken = ""
	r.ClaimedAt = nil
	return nil
}

// Activity

func (s *MemoryStorage) TouchActivity(ctx context.Context, chatID, userID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := activityKey{chatID, userID}
	rec, ok := s.activity[key]
	if !ok {
		rec = &models.ActivityRecord{ChatID: chatID, UserID: userID}
		s.activity[key] = rec
	}
	rec.LastActivity = at.UTC()
	rec.MessageCount++
	rec.WarnedAt = nil
	return nil
}

func copyActivity(rec *models.ActivityRecord) *models.ActivityRecord {
	c := *rec
	if rec.WarnedAt != nil {
		t := *rec.WarnedAt
		c.WarnedAt = &t
	}
	return &c
}

func (s *MemoryStorage) GetActivity(ctx context.Context, chatID, userID int64) (*models.ActivityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.activity[activityKey{chatID, userID}]
	if !ok {
		return nil, ErrNotFound
	}
	return copyActivity(rec), nil
}

func (s *MemoryStorage) ChatActivity(ctx context.Context, chatID int64) ([]*models.ActivityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*models.ActivityRecord
	for _, rec := range s.activity {
		if rec.ChatID == chatID {
			records = append(records, copyActivity(rec))
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].LastActivity.Before(records[j].LastActivity)
	})
	return records, nil
}

func (s *MemoryStorage) ActivityChats(ctx context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int64]bool)
	var chats []int64
	for _, rec := range s.activity {
		if !seen[rec.ChatID] {
			seen[rec.ChatID] = true
			chats = append(chats, rec.ChatID)
		}
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i] < chats[j] })
	return chats, nil
}

func (s *MemoryStorage) MarkWarned(ctx context.Context, chatID, userID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.activity[activityKey{chatID, userID}]
	if !ok {
		return ErrNotFound
	}
	t := at.UTC()
	rec.WarnedAt = &t
	return nil
}

func (s *MemoryStorage) DeleteActivity(ctx context.Context, chatID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.activity, activityKey{chatID, userID})
	return nil
}

// Quotes

func (s *MemoryStorage) AddQuote(ctx context.Context, chatID int64, text string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextQuoteID++
	q := &models.Quote{
		ID:        s.nextQuoteID,
		ChatID:    chatID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	s.quotes[chatID] = append(s.quotes[chatID], q)
	return q.ID, nil
}

func (s *MemoryStorage) ListQuotes(ctx context.Context, chatID int64) ([]*models.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	quotes := make([]*models.Quote, 0, len(s.quotes[chatID]))
	for _, q := range s.quotes[chatID] {
		c := *q
		quotes = append(quotes, &c)
	}
	return quotes, nil
}

func (s *MemoryStorage) DeleteQuote(ctx context.Context, chatID, quoteID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quotes := s.quotes[chatID]
	for i, q := range quotes {
		if q.ID == quoteID {
			s.quotes[chatID] = append(quotes[:i], quotes[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStorage) RandomQuote(ctx context.Context, chatID int64) (*models.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	quotes := s.quotes[chatID]
	if len(quotes) == 0 {
		return nil, ErrNoQuotes
	}
	c := *quotes[rand.Intn(len(quotes))]
	return &c, nil
}

func (s *MemoryStorage) IncrementQuoteCounter(ctx context.Context, chatID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters[chatID]++
	return s.counters[chatID], nil
}

func (s *MemoryStorage) ResetQuoteCounter(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters[chatID] = 0
	return nil
}

func (s *MemoryStorage) ClearQuotes(ctx context.Context, chatID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.quotes[chatID])
	delete(s.quotes, chatID)
	return n, nil
}

// Saved messages

func (s *MemoryStorage) SaveMessage(ctx context.Context, m *models.SavedMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSavedID++
	m.ID = s.nextSavedID
	m.CreatedAt = time.Now().UTC()
	c := *m
	s.saved[m.ChatID] = append(s.saved[m.ChatID], &c)
	return nil
}

func (s *MemoryStorage) SavedMessages(ctx context.Context, chatID int64) ([]*models.SavedMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.SavedMessage
	for _, m := range s.saved[chatID] {
		if m.Tag != "" {
			continue
		}
		c := *m
		result = append(result, &c)
	}
	return result, nil
}

func (s *MemoryStorage) MessagesByTag(ctx context.Context, chatID int64, tag string) ([]*models.SavedMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.SavedMessage
	for _, m := range s.saved[chatID] {
		if m.Tag != tag {
			continue
		}
		c := *m
		result = append(result, &c)
	}
	return result, nil
}

// Moderation

func (s *MemoryStorage) AddFilter(ctx context.Context, f *models.SpamFilter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.filters[f.ChatID] {
		if existing.Word == f.Word {
			existing.Mode = f.Mode
			existing.Action = f.Action
			f.ID = existing.ID
			f.CreatedAt = existing.CreatedAt
			return nil
		}
	}

	s.nextFilterID++
	f.ID = s.nextFilterID
	f.CreatedAt = time.Now().UTC()
	c := *f
	s.filters[f.ChatID] = append(s.filters[f.ChatID], &c)
	return nil
}

func (s *MemoryStorage) RemoveFilter(ctx context.Context, chatID int64, word string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filters := s.filters[chatID]
	for i, f := range filters {
		if f.Word == word {
			s.filters[chatID] = append(filters[:i], filters[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStorage) ListFilters(ctx context.Context, chatID int64) ([]*models.SpamFilter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filters := make([]*models.SpamFilter, 0, len(s.filters[chatID]))
	for _, f := range s.filters[chatID] {
		c := *f
		filters = append(filters, &c)
	}
	return filters, nil
}

func (s *MemoryStorage) AddStrike(ctx context.Context, chatID, userID int64, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := activityKey{chatID, userID}
	st, ok := s.strikes[key]
	if !ok {
		st = &models.SpamStrike{ChatID: chatID, UserID: userID}
		s.strikes[key] = st
	}
	st.Strikes++
	st.LastStrikeAt = at.UTC()
	return st.Strikes, nil
}

func (s *MemoryStorage) GetStrikes(ctx context.Context, chatID, userID int64) (*models.SpamStrike, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.strikes[activityKey{chatID, userID}]
	if !ok {
		return &models.SpamStrike{ChatID: chatID, UserID: userID}, nil
	}
	c := *st
	return &c, nil
}

func (s *MemoryStorage) ResetStrikes(ctx context.Context, chatID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.strikes, activityKey{chatID, userID})
	return nil
}

// Config

func (s *MemoryStorage) GetConfig(ctx context.Context, chatID int64, key, def string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if value, ok := s.config[configKey{chatID, key}]; ok {
		return value, nil
	}
	return def, nil
}

func (s *MemoryStorage) SetConfig(ctx context.Context, chatID int64, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.config[configKey{chatID, key}] = value
	return nil
}

func (s *MemoryStorage) DeleteConfig(ctx context.Context, chatID int64, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.config, configKey{chatID, key})
	return nil
}

func (s *MemoryStorage) Close() error {
	return nil
}
