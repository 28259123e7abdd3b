package mocks

import (
	"sync"

	"github.com/VitaminP8/forum/internal/post"
	"github.com/VitaminP8/forum/internal/storage/memory"
	"github.com/VitaminP8/forum/internal/thread"
	"github.com/VitaminP8/forum/models"
)

// MockPostStorage - хранилище в памяти, которому можно подсунуть ошибку
// (например post.StorageError или post.LockError) для всех операций.
type MockPostStorage struct {
	mu    sync.Mutex
	inner *memory.PostMemoryStorage
	err   error
	calls map[string]int
}

func NewMockPostStorage() *MockPostStorage {
	return &MockPostStorage{
		inner: memory.NewPostMemoryStorage(),
		calls: make(map[string]int),
	}
}

// FailWith заставляет все следующие вызовы вернуть err (nil - отключить)
func (m *MockPostStorage) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls возвращает количество вызовов метода
func (m *MockPostStorage) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *MockPostStorage) record(method string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[method]++
	return m.err
}

func (m *MockPostStorage) GetPostByID(id uint) (*models.Post, error) {
	if err := m.record("GetPostByID"); err != nil {
		return nil, err
	}
	return m.inner.GetPostByID(id)
}

func (m *MockPostStorage) GetRootPosts() ([]*models.Post, error) {
	if err := m.record("GetRootPosts"); err != nil {
		return nil, err
	}
	return m.inner.GetRootPosts()
}

func (m *MockPostStorage) CreateRootPost(author, message string) (*models.Post, error) {
	if err := m.record("CreateRootPost"); err != nil {
		return nil, err
	}
	return m.inner.CreateRootPost(author, message)
}

func (m *MockPostStorage) CreateReply(parentID uint, author, message string) (*models.Post, error) {
	if err := m.record("CreateReply"); err != nil {
		return nil, err
	}
	return m.inner.CreateReply(parentID, author, message)
}

func (m *MockPostStorage) SoftDeletePost(id uint) error {
	if err := m.record("SoftDeletePost"); err != nil {
		return err
	}
	return m.inner.SoftDeletePost(id)
}

func (m *MockPostStorage) View(fn func(r thread.Reader) error) error {
	if err := m.record("View"); err != nil {
		return err
	}
	return m.inner.View(fn)
}

var (
	_ post.PostStorage = (*MockPostStorage)(nil)
	_ thread.Source    = (*MockPostStorage)(nil)
)
