package subscription

import "github.com/VitaminP8/forum/models"

type Manager interface {
	Subscribe(rootID uint) (<-chan *models.Post, func())
	Publish(rootID uint, p *models.Post)
}
