package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/VitaminP8/forum/internal/post"
	"github.com/VitaminP8/forum/internal/thread"
	"github.com/VitaminP8/forum/models"
)

type PostMemoryStorage struct {
	mu     sync.Mutex
	posts  map[uint]*models.Post
	nextID uint // ID никогда не переиспользуются
	now    func() time.Time

	poisoned bool
	cause    string
}

func NewPostMemoryStorage() *PostMemoryStorage {
	return &PostMemoryStorage{
		posts:  make(map[uint]*models.Post),
		nextID: 1,
		now:    time.Now,
	}
}

// WithClock подменяет источник времени (для тестов)
func (s *PostMemoryStorage) WithClock(now func() time.Time) *PostMemoryStorage {
	s.now = now
	return s
}

// do выполняет fn под мьютексом. Паника внутри fn отравляет хранилище,
// как и у relational.Conn: дальше все операции возвращают post.LockError.
func (s *PostMemoryStorage) do(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.poisoned {
		return &post.LockError{Cause: s.cause}
	}

	defer func() {
		if r := recover(); r != nil {
			s.poisoned = true
			s.cause = fmt.Sprint(r)
			panic(r)
		}
	}()

	return fn()
}

func (s *PostMemoryStorage) GetPostByID(id uint) (*models.Post, error) {
	var p *models.Post
	err := s.do(func() error {
		var err error
		p, err = s.get(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostMemoryStorage) GetRootPosts() ([]*models.Post, error) {
	roots := make([]*models.Post, 0)
	err := s.do(func() error {
		for _, p := range s.posts {
			if p.IsRoot() {
				redacted := p.Redacted()
				roots = append(roots, &redacted)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Новые сверху (при одинаковом времени - по ID)
	sort.Slice(roots, func(i, j int) bool {
		if roots[i].CreatedAt.Equal(roots[j].CreatedAt) {
			return roots[i].ID > roots[j].ID
		}
		return roots[i].CreatedAt.After(roots[j].CreatedAt)
	})

	return roots, nil
}

func (s *PostMemoryStorage) CreateRootPost(author, message string) (*models.Post, error) {
	if err := post.ValidatePost(author, message); err != nil {
		return nil, err
	}

	var created *models.Post
	err := s.do(func() error {
		created = s.insert(nil, nil, author, message)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *PostMemoryStorage) CreateReply(parentID uint, author, message string) (*models.Post, error) {
	if err := post.ValidatePost(author, message); err != nil {
		return nil, err
	}

	var reply *models.Post
	err := s.do(func() error {
		parent, ok := s.posts[parentID]
		if !ok {
			return &post.NotFoundError{ID: parentID}
		}

		rootID, pid := post.ReplyLinks(parent)
		reply = s.insert(&rootID, &pid, author, message)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

func (s *PostMemoryStorage) SoftDeletePost(id uint) error {
	return s.do(func() error {
		p, ok := s.posts[id]
		if !ok || p.IsDeleted() {
			return &post.NotFoundError{ID: id}
		}

		now := s.now()
		p.DeletedAt = &now
		return nil
	})
}

// View реализует thread.Source: fn выполняется под мьютексом хранилища
func (s *PostMemoryStorage) View(fn func(r thread.Reader) error) error {
	return s.do(func() error {
		return fn(lockedReader{s: s})
	})
}

// Len возвращает количество постов в хранилище
func (s *PostMemoryStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.posts)
}

// insert вызывается под мьютексом
func (s *PostMemoryStorage) insert(rootID, parentID *uint, author, message string) *models.Post {
	p := &models.Post{
		ID:        s.nextID,
		RootID:    rootID,
		ParentID:  parentID,
		CreatedAt: s.now(),
		Author:    author,
		Message:   message,
	}
	s.nextID++
	s.posts[p.ID] = p

	result := *p
	return &result
}

// get вызывается под мьютексом
func (s *PostMemoryStorage) get(id uint) (*models.Post, error) {
	p, ok := s.posts[id]
	if !ok {
		return nil, &post.NotFoundError{ID: id}
	}

	redacted := p.Redacted()
	return &redacted, nil
}

func (s *PostMemoryStorage) threadPosts(rootID uint) []models.Post {
	posts := make([]models.Post, 0)
	for _, p := range s.posts {
		if p.RootID != nil && *p.RootID == rootID {
			posts = append(posts, p.Redacted())
		}
	}

	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID < posts[j].ID
		}
		return posts[i].CreatedAt.Before(posts[j].CreatedAt)
	})

	return posts
}

type lockedReader struct {
	s *PostMemoryStorage
}

func (r lockedReader) GetPostByID(id uint) (*models.Post, error) {
	return r.s.get(id)
}

func (r lockedReader) ThreadPosts(rootID uint) ([]models.Post, error) {
	return r.s.threadPosts(rootID), nil
}
