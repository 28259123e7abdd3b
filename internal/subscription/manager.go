package subscription

import (
	"sync"

	"github.com/VitaminP8/forum/models"
)

// subscriberBuffer - сколько событий подписчик может не прочитать,
// прежде чем новые начнут для него пропускаться
const subscriberBuffer = 16

// SubscriptionManager рассылает новые посты ветки подписчикам
type SubscriptionManager struct {
	mu   sync.Mutex
	subs map[uint][]chan *models.Post // rootID -> список каналов подписчиков
}

func NewSubscriptionManager() *SubscriptionManager {
	return &SubscriptionManager{
		subs: make(map[uint][]chan *models.Post),
	}
}

func (m *SubscriptionManager) Subscribe(rootID uint) (<-chan *models.Post, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan *models.Post, subscriberBuffer)

	m.subs[rootID] = append(m.subs[rootID], ch)

	// функция для отписки, повторный вызов ничего не делает
	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		subscribers := m.subs[rootID]
		for i, sub := range subscribers {
			if sub == ch {
				m.subs[rootID] = append(subscribers[:i], subscribers[i+1:]...)
				close(ch)
				break
			}
		}
	}

	return ch, cancel
}

// Publish не блокируется: подписчик с заполненным буфером пропускает событие
func (m *SubscriptionManager) Publish(rootID uint, p *models.Post) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sub := range m.subs[rootID] {
		select {
		case sub <- p:
		default:
		}
	}
}
