package mocks

import (
	"sync"

	"github.com/VitaminP8/forum/models"
)

type MockSubscriptionManager struct {
	mu            sync.Mutex
	subs          map[uint][]chan *models.Post
	notifications map[uint][]*models.Post // Для отслеживания в тестах
}

func NewMockSubscriptionManager() *MockSubscriptionManager {
	return &MockSubscriptionManager{
		subs:          make(map[uint][]chan *models.Post),
		notifications: make(map[uint][]*models.Post),
	}
}

func (m *MockSubscriptionManager) Subscribe(rootID uint) (<-chan *models.Post, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan *models.Post, 16)
	m.subs[rootID] = append(m.subs[rootID], ch)

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

func (m *MockSubscriptionManager) Publish(rootID uint, p *models.Post) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sub := range m.subs[rootID] {
		select {
		case sub <- p:
		default:
		}
	}

	m.notifications[rootID] = append(m.notifications[rootID], p)
}

// GetNotificationsForThread возвращает все опубликованные посты ветки
func (m *MockSubscriptionManager) GetNotificationsForThread(rootID uint) []*models.Post {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.notifications[rootID]
}

// Subscribers возвращает количество активных подписчиков ветки
func (m *MockSubscriptionManager) Subscribers(rootID uint) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.subs[rootID])
}
