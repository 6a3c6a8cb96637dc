package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/achufistov/shortypanel/internal/app/models"
)

// FileStorage is a MemStorage persisted to a JSON lines snapshot after every write.
type FileStorage struct {
	*MemStorage
	filePath string
	saveMu   sync.Mutex
}

// NewFileStorage creates a FileStorage and restores the snapshot found at filePath.
func NewFileStorage(filePath string) (*FileStorage, error) {
	fs := &FileStorage{MemStorage: NewMemStorage(), filePath: filePath}

	records, err := LoadSnapshot(filePath)
	if err != nil {
		return nil, err
	}
	fs.restore(records)
	return fs, nil
}

// restore loads snapshot records into the in-memory maps
func (fs *FileStorage) restore(records []SnapshotRecord) {
	m := fs.MemStorage
	m.mu.Lock()
	defer m.mu.Unlock()
	fs.load(records)
}

// load fills the maps from records. The caller holds m.mu.
func (fs *FileStorage) load(records []SnapshotRecord) {
	m := fs.MemStorage
	for _, rec := range records {
		switch rec.Kind {
		case kindUser:
			m.users[rec.ID] = models.User{ID: rec.ID, Login: rec.Login, Password: rec.Password, Role: models.Role(rec.Role)}
			if rec.ID >= m.nextUserID {
				m.nextUserID = rec.ID + 1
			}
		case kindURL:
			m.urls[rec.ID] = models.URL{ID: rec.ID, OriginalURL: rec.OriginalURL, UserID: rec.UserID, ShortURL: rec.ShortURL}
			m.byShort[rec.ShortURL] = rec.ID
			if rec.ID >= m.nextURLID {
				m.nextURLID = rec.ID + 1
			}
		case kindVisit:
			v := models.Visit{ID: rec.ID, VisitorIP: rec.VisitorIP, URLID: rec.URLID}
			if rec.VisitDate != nil {
				v.VisitDate = *rec.VisitDate
			}
			m.visits[rec.URLID] = append(m.visits[rec.URLID], v)
			if rec.ID >= m.nextVisitID {
				m.nextVisitID = rec.ID + 1
			}
		}
	}

	// a url never outlives its owner, a visit never outlives its url
	for id, u := range m.urls {
		if _, ok := m.users[u.UserID]; !ok {
			delete(m.byShort, u.ShortURL)
			delete(m.urls, id)
		}
	}
	for urlID := range m.visits {
		if _, ok := m.urls[urlID]; !ok {
			delete(m.visits, urlID)
		}
	}
}

// rollback replaces the in-memory state with records. Id sequences keep their
// current values so ids handed out by the failed write are never reused.
func (fs *FileStorage) rollback(records []SnapshotRecord) {
	m := fs.MemStorage
	m.mu.Lock()
	defer m.mu.Unlock()

	nextUser, nextURL, nextVisit := m.nextUserID, m.nextURLID, m.nextVisitID
	m.users = make(map[int64]models.User)
	m.urls = make(map[int64]models.URL)
	m.byShort = make(map[string]int64)
	m.visits = make(map[int64][]models.Visit)
	fs.load(records)
	m.nextUserID = max(m.nextUserID, nextUser)
	m.nextURLID = max(m.nextURLID, nextURL)
	m.nextVisitID = max(m.nextVisitID, nextVisit)
}

// snapshot captures the in-memory state as ordered records
func (fs *FileStorage) snapshot() []SnapshotRecord {
	m := fs.MemStorage
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]SnapshotRecord, 0, len(m.users)+len(m.urls))
	for _, u := range m.users {
		records = append(records, SnapshotRecord{Kind: kindUser, ID: u.ID, Login: u.Login, Password: u.Password, Role: int(u.Role)})
	}
	for _, u := range m.urls {
		records = append(records, SnapshotRecord{Kind: kindURL, ID: u.ID, OriginalURL: u.OriginalURL, ShortURL: u.ShortURL, UserID: u.UserID})
	}
	for _, visits := range m.visits {
		for _, v := range visits {
			date := v.VisitDate
			records = append(records, SnapshotRecord{Kind: kindVisit, ID: v.ID, VisitorIP: v.VisitorIP, URLID: v.URLID, VisitDate: &date})
		}
	}

	order := map[string]int{kindUser: 0, kindURL: 1, kindVisit: 2}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Kind != records[j].Kind {
			return order[records[i].Kind] < order[records[j].Kind]
		}
		return records[i].ID < records[j].ID
	})
	return records
}

func (fs *FileStorage) save() error {
	fs.saveMu.Lock()
	defer fs.saveMu.Unlock()
	return SaveSnapshot(fs.filePath, fs.snapshot())
}

// commit applies a change to the maps and persists the snapshot. When the snapshot
// cannot be written the change is rolled back and the write error returned.
func (fs *FileStorage) commit(apply func() error) error {
	fs.saveMu.Lock()
	defer fs.saveMu.Unlock()

	before := fs.snapshot()
	if err := apply(); err != nil {
		return err
	}
	if err := SaveSnapshot(fs.filePath, fs.snapshot()); err != nil {
		fs.rollback(before)
		return err
	}
	return nil
}

// EnsureUser adds the user if missing and persists the snapshot.
func (fs *FileStorage) EnsureUser(ctx context.Context, user models.User) error {
	return fs.commit(func() error {
		return fs.MemStorage.EnsureUser(ctx, user)
	})
}

// CreateUser adds a user and persists the snapshot.
func (fs *FileStorage) CreateUser(ctx context.Context, login, passwordHash string, role models.Role) (models.User, error) {
	var u models.User
	err := fs.commit(func() error {
		var err error
		u, err = fs.MemStorage.CreateUser(ctx, login, passwordHash, role)
		return err
	})
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// UpdatePassword changes a password hash and persists the snapshot.
func (fs *FileStorage) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return fs.commit(func() error {
		return fs.MemStorage.UpdatePassword(ctx, id, passwordHash)
	})
}

// DeleteUser removes a user and persists the snapshot.
func (fs *FileStorage) DeleteUser(ctx context.Context, id int64) error {
	return fs.commit(func() error {
		return fs.MemStorage.DeleteUser(ctx, id)
	})
}

// CreateURL adds a URL and persists the snapshot.
func (fs *FileStorage) CreateURL(ctx context.Context, url models.URL) (models.URL, error) {
	var u models.URL
	err := fs.commit(func() error {
		var err error
		u, err = fs.MemStorage.CreateURL(ctx, url)
		return err
	})
	if err != nil {
		return models.URL{}, err
	}
	return u, nil
}

// DeleteURL removes a URL with its visits and persists the snapshot.
func (fs *FileStorage) DeleteURL(ctx context.Context, id int64) error {
	return fs.commit(func() error {
		return fs.MemStorage.DeleteURL(ctx, id)
	})
}

// AddVisit records a visit and persists the snapshot.
func (fs *FileStorage) AddVisit(ctx context.Context, visit models.Visit) error {
	return fs.commit(func() error {
		return fs.MemStorage.AddVisit(ctx, visit)
	})
}

// Close flushes the final snapshot.
func (fs *FileStorage) Close() error {
	return fs.save()
}
