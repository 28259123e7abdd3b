package thread

import (
	"fmt"

	"github.com/VitaminP8/forum/models"
)

// Reader - чтение постов внутри одной критической секции хранилища
type Reader interface {
	GetPostByID(id uint) (*models.Post, error)
	// ThreadPosts возвращает все ответы ветки rootID по возрастанию created_at
	ThreadPosts(rootID uint) ([]models.Post, error)
}

// Source выдает Reader, удерживая блокировку соединения на время fn
type Source interface {
	View(fn func(r Reader) error) error
}

// Observer получает размер загруженной ветки (метрики)
type Observer interface {
	ObserveThreadSize(posts int)
}

type Assembler struct {
	src      Source
	observer Observer
}

func NewAssembler(src Source) *Assembler {
	return &Assembler{src: src}
}

func (a *Assembler) WithObserver(o Observer) *Assembler {
	a.observer = o
	return a
}

// BuildTree строит дерево ответов под postID: один запрос за постом и один
// за всей веткой, дальше только работа в памяти.
func (a *Assembler) BuildTree(postID uint) ([]*models.TreeNode, error) {
	var posts []models.Post

	err := a.src.View(func(r Reader) error {
		p, err := r.GetPostByID(postID)
		if err != nil {
			return err
		}

		posts, err = r.ThreadPosts(p.ThreadRootID())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("build tree for post %d: %w", postID, err)
	}

	if a.observer != nil {
		a.observer.ObserveThreadSize(len(posts))
	}

	children := groupByParent(posts)
	return unfold(children, postID), nil
}

// groupByParent группирует посты по parent_id, порядок внутри группы сохраняется
func groupByParent(posts []models.Post) map[uint][]models.Post {
	children := make(map[uint][]models.Post)
	for _, p := range posts {
		if p.ParentID == nil {
			continue
		}
		children[*p.ParentID] = append(children[*p.ParentID], p)
	}
	return children
}

// unfold забирает группу parentID из map, поэтому при цикле в данных
// пост не попадет в дерево дважды (дерево просто обрежется).
func unfold(children map[uint][]models.Post, parentID uint) []*models.TreeNode {
	group := children[parentID]
	delete(children, parentID)

	nodes := make([]*models.TreeNode, 0, len(group))
	for _, p := range group {
		nodes = append(nodes, &models.TreeNode{
			Post:    p,
			Replies: unfold(children, p.ID),
		})
	}
	return nodes
}
