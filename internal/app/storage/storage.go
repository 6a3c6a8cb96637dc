package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/achufistov/shortypanel/internal/app/models"
)

// AllOwners disables the owner filter of CountURLs and ListURLs.
const AllOwners int64 = 0

// Storage определяет интерфейс для работы с хранилищем пользователей, URL и посещений.
//
// Реализации возвращают models.ErrNotFound для отсутствующих записей и models.ErrConflict
// при нарушении уникальности (login, short_url).
type Storage interface {
	EnsureUser(ctx context.Context, user models.User) error
	CreateUser(ctx context.Context, login, passwordHash string, role models.Role) (models.User, error)
	GetUserByID(ctx context.Context, id int64) (models.User, error)
	GetUserByLogin(ctx context.Context, login string) (models.User, error)
	CountUsers(ctx context.Context, role models.Role) (int, error)
	ListUsers(ctx context.Context, role models.Role, offset, limit int) ([]models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	DeleteUser(ctx context.Context, id int64) error

	CreateURL(ctx context.Context, url models.URL) (models.URL, error)
	GetURLByShort(ctx context.Context, shortURL string) (models.URL, error)
	GetURLByID(ctx context.Context, id int64) (models.URL, error)
	CountURLs(ctx context.Context, ownerID int64) (int, error)
	ListURLs(ctx context.Context, ownerID int64, offset, limit int) ([]models.URLStats, error)
	ListURLIDsByUser(ctx context.Context, userID int64) ([]int64, error)
	DeleteURL(ctx context.Context, id int64) error

	AddVisit(ctx context.Context, visit models.Visit) error
	CountVisits(ctx context.Context, urlID int64) (int, error)
	ListVisits(ctx context.Context, urlID int64, offset, limit int) ([]models.Visit, error)

	Stats(ctx context.Context) (models.Stats, error)
	Ping(ctx context.Context) error
	Close() error
}

// MemStorage реализует in-memory хранилище
type MemStorage struct {
	mu sync.RWMutex

	users   map[int64]models.User
	urls    map[int64]models.URL
	byShort map[string]int64
	visits  map[int64][]models.Visit

	nextUserID  int64
	nextURLID   int64
	nextVisitID int64
}

// NewMemStorage создает новый экземпляр MemStorage
func NewMemStorage() *MemStorage {
	return &MemStorage{
		users:       make(map[int64]models.User),
		urls:        make(map[int64]models.URL),
		byShort:     make(map[string]int64),
		visits:      make(map[int64][]models.Visit),
		nextUserID:  1,
		nextURLID:   1,
		nextVisitID: 1,
	}
}

// EnsureUser добавляет пользователя с заданным id, если его еще нет
func (s *MemStorage) EnsureUser(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return nil
	}
	for _, u := range s.users {
		if u.Login == user.Login {
			return models.ErrConflict
		}
	}
	s.users[user.ID] = user
	if user.ID >= s.nextUserID {
		s.nextUserID = user.ID + 1
	}
	return nil
}

// CreateUser добавляет пользователя, login должен быть уникальным
func (s *MemStorage) CreateUser(_ context.Context, login, passwordHash string, role models.Role) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Login == login {
			return models.User{}, models.ErrConflict
		}
	}
	user := models.User{ID: s.nextUserID, Login: login, Password: passwordHash, Role: role}
	s.users[user.ID] = user
	s.nextUserID++
	return user, nil
}

// GetUserByID получает пользователя по id
func (s *MemStorage) GetUserByID(_ context.Context, id int64) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	return u, nil
}

// GetUserByLogin получает пользователя по логину
func (s *MemStorage) GetUserByLogin(_ context.Context, login string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Login == login {
			return u, nil
		}
	}
	return models.User{}, models.ErrNotFound
}

// CountUsers считает пользователей с заданной ролью
func (s *MemStorage) CountUsers(_ context.Context, role models.Role) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, u := range s.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// ListUsers возвращает страницу пользователей с заданной ролью, упорядоченных по id
func (s *MemStorage) ListUsers(_ context.Context, role models.Role, offset, limit int) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		if u.Role == role {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return window(users, offset, limit), nil
}

// UpdatePassword меняет хеш пароля пользователя
func (s *MemStorage) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.ErrNotFound
	}
	u.Password = passwordHash
	s.users[id] = u
	return nil
}

// DeleteUser удаляет пользователя. URL пользователя должны быть удалены заранее,
// иначе возвращается models.ErrConflict
func (s *MemStorage) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return models.ErrNotFound
	}
	for _, u := range s.urls {
		if u.UserID == id {
			return models.ErrConflict
		}
	}
	delete(s.users, id)
	return nil
}

// CreateURL добавляет URL, short_url должен быть уникальным, владелец должен существовать
func (s *MemStorage) CreateURL(_ context.Context, url models.URL) (models.URL, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[url.UserID]; !ok {
		return models.URL{}, models.ErrNotFound
	}
	if _, ok := s.byShort[url.ShortURL]; ok {
		return models.URL{}, models.ErrConflict
	}
	url.ID = s.nextURLID
	s.nextURLID++
	s.urls[url.ID] = url
	s.byShort[url.ShortURL] = url.ID
	return url, nil
}

// GetURLByShort получает URL по короткому коду
func (s *MemStorage) GetURLByShort(_ context.Context, shortURL string) (models.URL, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byShort[shortURL]
	if !ok {
		return models.URL{}, models.ErrNotFound
	}
	return s.urls[id], nil
}

// GetURLByID получает URL по id
func (s *MemStorage) GetURLByID(_ context.Context, id int64) (models.URL, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.urls[id]
	if !ok {
		return models.URL{}, models.ErrNotFound
	}
	return u, nil
}

// CountURLs считает URL владельца, AllOwners - все URL
func (s *MemStorage) CountURLs(_ context.Context, ownerID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ownerID == AllOwners {
		return len(s.urls), nil
	}
	n := 0
	for _, u := range s.urls {
		if u.UserID == ownerID {
			n++
		}
	}
	return n, nil
}

// ListURLs возвращает страницу URL с количеством посещений
func (s *MemStorage) ListURLs(_ context.Context, ownerID int64, offset, limit int) ([]models.URLStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]models.URLStats, 0, len(s.urls))
	for _, u := range s.urls {
		if ownerID != AllOwners && u.UserID != ownerID {
			continue
		}
		rows = append(rows, models.URLStats{URL: u, Visits: len(s.visits[u.ID])})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return window(rows, offset, limit), nil
}

// ListURLIDsByUser возвращает id всех URL пользователя
func (s *MemStorage) ListURLIDsByUser(_ context.Context, userID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0)
	for id, u := range s.urls {
		if u.UserID == userID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// DeleteURL удаляет посещения URL, затем сам URL
func (s *MemStorage) DeleteURL(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.urls[id]
	if !ok {
		return models.ErrNotFound
	}
	delete(s.visits, id)
	delete(s.byShort, u.ShortURL)
	delete(s.urls, id)
	return nil
}

// AddVisit записывает посещение существующего URL
func (s *MemStorage) AddVisit(_ context.Context, visit models.Visit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.urls[visit.URLID]; !ok {
		return models.ErrNotFound
	}
	visit.ID = s.nextVisitID
	s.nextVisitID++
	s.visits[visit.URLID] = append(s.visits[visit.URLID], visit)
	return nil
}

// CountVisits считает посещения URL
func (s *MemStorage) CountVisits(_ context.Context, urlID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.visits[urlID]), nil
}

// ListVisits возвращает страницу посещений URL в порядке записи
func (s *MemStorage) ListVisits(_ context.Context, urlID int64, offset, limit int) ([]models.Visit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	visits := s.visits[urlID]
	out := make([]models.Visit, len(visits))
	copy(out, visits)
	return window(out, offset, limit), nil
}

// Stats возвращает общее количество URL, пользователей и посещений
func (s *MemStorage) Stats(_ context.Context) (models.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	visits := 0
	for _, v := range s.visits {
		visits += len(v)
	}
	return models.Stats{URLs: len(s.urls), Users: len(s.users), Visits: visits}, nil
}

// Ping проверяет доступность хранилища
func (s *MemStorage) Ping(_ context.Context) error {
	return nil
}

// Close закрывает хранилище
func (s *MemStorage) Close() error {
	return nil
}

func window[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
