package post

import (
	"strings"

	"github.com/VitaminP8/forum/models"
)

type PostStorage interface {
	GetPostByID(id uint) (*models.Post, error)
	GetRootPosts() ([]*models.Post, error)
	CreateRootPost(author, message string) (*models.Post, error)
	CreateReply(parentID uint, author, message string) (*models.Post, error)
	SoftDeletePost(id uint) error
}

// ValidatePost проверяет, что автор и текст не пустые после обрезки пробелов
func ValidatePost(author, message string) error {
	if strings.TrimSpace(author) == "" {
		return &ValidationError{Field: "author"}
	}
	if strings.TrimSpace(message) == "" {
		return &ValidationError{Field: "message"}
	}
	return nil
}

// ReplyLinks вычисляет root_id и parent_id для ответа на parent
func ReplyLinks(parent *models.Post) (rootID, parentID uint) {
	return parent.ThreadRootID(), parent.ID
}
