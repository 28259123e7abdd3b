package models

import "time"

// DeletedPlaceholder подставляется вместо текста удаленного поста
const DeletedPlaceholder = "[deleted]"

// Post - корневой пост или ответ. У корня RootID и ParentID пустые,
// у ответа RootID всегда указывает на корень ветки, а не на родителя.
type Post struct {
	ID        uint       `gorm:"primary_key" json:"id"`
	RootID    *uint      `json:"root_id,omitempty"`
	ParentID  *uint      `json:"parent_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	Author    string     `gorm:"not null" json:"author"`
	Message   string     `gorm:"not null" json:"message"`
}

func (Post) TableName() string {
	return "forum_posts"
}

func (p *Post) IsRoot() bool {
	return p.RootID == nil
}

func (p *Post) IsDeleted() bool {
	return p.DeletedAt != nil
}

// ThreadRootID возвращает ID корня ветки, к которой относится пост
func (p *Post) ThreadRootID() uint {
	if p.RootID != nil {
		return *p.RootID
	}
	return p.ID
}

// Redacted возвращает копию поста, у удаленного поста текст заменен заглушкой
func (p Post) Redacted() Post {
	if p.DeletedAt != nil {
		p.Message = DeletedPlaceholder
	}
	return p
}

// TreeNode - узел дерева ответов
type TreeNode struct {
	Post    Post        `json:"post"`
	Replies []*TreeNode `json:"replies"`
}
