package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"bookcatalog-backend/internal/domains/author"
	"bookcatalog-backend/internal/domains/book/model"
	"bookcatalog-backend/internal/domains/transfer"
)

// memCatalog is an in-memory author and book store enforcing the same
// uniqueness rules as the database.
type memCatalog struct {
	mu      sync.Mutex
	authors []author.Author
	books   []model.Book
	nextID  int64

	// hooks for race scenarios
	beforeAuthorCreate func(name string)
	createManyErr      error
}

func newMemCatalog() *memCatalog {
	return &memCatalog{}
}

func (m *memCatalog) GetByName(_ context.Context, name string) (*author.Author, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.authors {
		if a.Name == name {
			a := a
			return &a, nil
		}
	}
	return nil, author.ErrAuthorNotFound
}

func (m *memCatalog) Create(_ context.Context, name string) (*author.Author, error) {
	if m.beforeAuthorCreate != nil {
		m.beforeAuthorCreate(name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.authors {
		if a.Name == name {
			return nil, author.ErrDuplicateName
		}
	}
	return m.insertAuthorLocked(name), nil
}

func (m *memCatalog) seedAuthor(name string) *author.Author {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertAuthorLocked(name)
}

func (m *memCatalog) insertAuthorLocked(name string) *author.Author {
	m.nextID++
	a := author.Author{ID: m.nextID, Name: name, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.authors = append(m.authors, a)
	return &a
}

func (m *memCatalog) authorName(id int64) string {
	for _, a := range m.authors {
		if a.ID == id {
			return a.Name
		}
	}
	return ""
}

func (m *memCatalog) ExistsByTitleAndAuthor(_ context.Context, title string, authorID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.books {
		if b.AuthorID == authorID && b.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func (m *memCatalog) CreateMany(_ context.Context, books []model.Book) (int, error) {
	if m.createManyErr != nil {
		return 0, m.createManyErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := append([]model.Book(nil), m.books...)
	for _, b := range books {
		for _, existing := range staged {
			if existing.AuthorID == b.AuthorID && existing.Title == b.Title {
				return 0, model.ErrDuplicateTitle
			}
		}
		m.nextID++
		b.ID = m.nextID
		b.AuthorName = m.authorName(b.AuthorID)
		staged = append(staged, b)
	}
	m.books = staged
	return len(books), nil
}

func (m *memCatalog) ForEach(_ context.Context, fn func(model.Book) error) error {
	m.mu.Lock()
	books := append([]model.Book(nil), m.books...)
	m.mu.Unlock()

	sort.SliceStable(books, func(i, j int) bool {
		if books[i].AuthorName != books[j].AuthorName {
			return books[i].AuthorName < books[j].AuthorName
		}
		if books[i].Title != books[j].Title {
			return books[i].Title < books[j].Title
		}
		return books[i].ID < books[j].ID
	})
	for _, b := range books {
		if err := fn(b); err != nil {
			return err
		}
	}
	return nil
}

type memJobs struct {
	mu        sync.Mutex
	jobs      map[uuid.UUID]*transfer.ImportJob
	createErr error
}

func newMemJobs() *memJobs {
	return &memJobs{jobs: make(map[uuid.UUID]*transfer.ImportJob)}
}

func (m *memJobs) Create(_ context.Context, job *transfer.ImportJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *memJobs) GetByID(_ context.Context, id uuid.UUID) (*transfer.ImportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, transfer.ErrJobNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memJobs) update(id uuid.UUID, fn func(*transfer.ImportJob)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return transfer.ErrJobNotFound
	}
	fn(j)
	return nil
}

func (m *memJobs) MarkProcessing(_ context.Context, id uuid.UUID) error {
	return m.update(id, func(j *transfer.ImportJob) {
		now := time.Now()
		j.Status = transfer.JobProcessing
		j.StartedAt = &now
	})
}

func (m *memJobs) MarkCompleted(_ context.Context, id uuid.UUID, summary transfer.Summary) error {
	return m.update(id, func(j *transfer.ImportJob) {
		now := time.Now()
		j.Status = transfer.JobCompleted
		j.Summary = &summary
		j.CompletedAt = &now
	})
}

func (m *memJobs) MarkFailed(_ context.Context, id uuid.UUID, reason string) error {
	return m.update(id, func(j *transfer.ImportJob) {
		now := time.Now()
		j.Status = transfer.JobFailed
		j.Error = reason
		j.CompletedAt = &now
	})
}

func (m *memJobs) DeleteFinishedBefore(_ context.Context, cutoff time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for id, j := range m.jobs {
		if j.Status.Finished() && j.CreatedAt.Before(cutoff) {
			keys = append(keys, j.ObjectKey)
			delete(m.jobs, id)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	removed []string
}

func newMemObjects() *memObjects {
	return &memObjects{objects: make(map[string][]byte)}
}

func (m *memObjects) Upload(_ context.Context, key string, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	return key, nil
}

func (m *memObjects) Download(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func (m *memObjects) RemoveObjects(_ context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.objects, k)
		m.removed = append(m.removed, k)
	}
	return nil
}

type memQueue struct {
	enqueued []uuid.UUID
	err      error
}

func (q *memQueue) EnqueueImport(_ context.Context, jobID uuid.UUID) error {
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, jobID)
	return nil
}
