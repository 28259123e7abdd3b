package relational

import (
	"time"

	"github.com/VitaminP8/forum/internal/metrics"
	"github.com/VitaminP8/forum/internal/post"
	"github.com/VitaminP8/forum/internal/thread"
	"github.com/VitaminP8/forum/models"
	"github.com/jinzhu/gorm"
)

type PostRelationalStorage struct {
	conn    *Conn
	now     func() time.Time
	metrics *metrics.Metrics
}

func NewPostRelationalStorage(conn *Conn) *PostRelationalStorage {
	return &PostRelationalStorage{
		conn: conn,
		now:  time.Now,
	}
}

// WithClock подменяет источник времени (для тестов)
func (s *PostRelationalStorage) WithClock(now func() time.Time) *PostRelationalStorage {
	s.now = now
	return s
}

func (s *PostRelationalStorage) WithMetrics(m *metrics.Metrics) *PostRelationalStorage {
	s.metrics = m
	return s
}

func (s *PostRelationalStorage) GetPostByID(id uint) (*models.Post, error) {
	start := time.Now()

	var p *models.Post
	err := s.conn.Do(func(db *gorm.DB) error {
		var err error
		p, err = getPost(db, id)
		return err
	})
	s.metrics.ObserveOp("get", start, err)
	if err != nil {
		return nil, err
	}

	return p, nil
}

func (s *PostRelationalStorage) GetRootPosts() ([]*models.Post, error) {
	start := time.Now()

	var rows []models.Post
	err := s.conn.Do(func(db *gorm.DB) error {
		// Unscoped: удаленные посты тоже показываем (с заглушкой вместо текста)
		err := db.Unscoped().
			Where("root_id IS NULL").
			Order("created_at DESC").
			Order("id DESC").
			Find(&rows).Error
		if err != nil {
			return &post.StorageError{Op: "list roots", Err: err}
		}
		return nil
	})
	s.metrics.ObserveOp("list_roots", start, err)
	if err != nil {
		return nil, err
	}

	posts := make([]*models.Post, 0, len(rows))
	for _, row := range rows {
		redacted := row.Redacted()
		posts = append(posts, &redacted)
	}

	return posts, nil
}

func (s *PostRelationalStorage) CreateRootPost(author, message string) (*models.Post, error) {
	start := time.Now()

	if err := post.ValidatePost(author, message); err != nil {
		s.metrics.ObserveOp("create_root", start, err)
		return nil, err
	}

	p := &models.Post{
		Author:  author,
		Message: message,
	}

	err := s.conn.Do(func(db *gorm.DB) error {
		p.CreatedAt = s.now().UTC()
		return insertPost(db, p)
	})
	s.metrics.ObserveOp("create_root", start, err)
	if err != nil {
		return nil, err
	}

	return p, nil
}

// CreateReply ищет родителя и вставляет ответ в одной критической секции,
// поэтому родитель не может пропасть между поиском и вставкой.
func (s *PostRelationalStorage) CreateReply(parentID uint, author, message string) (*models.Post, error) {
	start := time.Now()

	if err := post.ValidatePost(author, message); err != nil {
		s.metrics.ObserveOp("create_reply", start, err)
		return nil, err
	}

	var reply *models.Post
	err := s.conn.Do(func(db *gorm.DB) error {
		parent, err := getPost(db, parentID)
		if err != nil {
			return err
		}

		rootID, pid := post.ReplyLinks(parent)
		reply = &models.Post{
			RootID:    &rootID,
			ParentID:  &pid,
			CreatedAt: s.now().UTC(),
			Author:    author,
			Message:   message,
		}
		return insertPost(db, reply)
	})
	s.metrics.ObserveOp("create_reply", start, err)
	if err != nil {
		return nil, err
	}

	return reply, nil
}

// SoftDeletePost проставляет deleted_at только живому посту.
// Ноль затронутых строк (поста нет или он уже удален) - NotFound.
func (s *PostRelationalStorage) SoftDeletePost(id uint) error {
	start := time.Now()

	err := s.conn.Do(func(db *gorm.DB) error {
		res := db.Unscoped().
			Model(&models.Post{}).
			Where("id = ? AND deleted_at IS NULL", id).
			UpdateColumn("deleted_at", s.now().UTC())
		if res.Error != nil {
			return &post.StorageError{Op: "soft delete", Err: res.Error}
		}
		if res.RowsAffected == 0 {
			return &post.NotFoundError{ID: id}
		}
		return nil
	})
	s.metrics.ObserveOp("soft_delete", start, err)

	return err
}

// View реализует thread.Source: все запросы fn идут под одной блокировкой
func (s *PostRelationalStorage) View(fn func(r thread.Reader) error) error {
	start := time.Now()

	err := s.conn.Do(func(db *gorm.DB) error {
		return fn(txReader{db: db})
	})
	s.metrics.ObserveOp("build_tree", start, err)

	return err
}

// Count возвращает количество строк в таблице постов
func (s *PostRelationalStorage) Count() (int, error) {
	var count int
	err := s.conn.Do(func(db *gorm.DB) error {
		if err := db.Unscoped().Model(&models.Post{}).Count(&count).Error; err != nil {
			return &post.StorageError{Op: "count", Err: err}
		}
		return nil
	})
	return count, err
}

type txReader struct {
	db *gorm.DB
}

func (r txReader) GetPostByID(id uint) (*models.Post, error) {
	return getPost(r.db, id)
}

func (r txReader) ThreadPosts(rootID uint) ([]models.Post, error) {
	var rows []models.Post
	err := r.db.Unscoped().
		Where("root_id = ?", rootID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, &post.StorageError{Op: "load thread", Err: err}
	}

	for i := range rows {
		rows[i] = rows[i].Redacted()
	}
	return rows, nil
}

func getPost(db *gorm.DB, id uint) (*models.Post, error) {
	var p models.Post
	err := db.Unscoped().Where("id = ?", id).First(&p).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, &post.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, &post.StorageError{Op: "get post", Err: err}
	}

	redacted := p.Redacted()
	return &redacted, nil
}

func insertPost(db *gorm.DB, p *models.Post) error {
	if err := db.Create(p).Error; err != nil {
		return &post.StorageError{Op: "insert post", Err: err}
	}
	return nil
}
