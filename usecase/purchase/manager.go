package purchase

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"nft-ticket-onchain/model"
	"nft-ticket-onchain/monitoring"
)

// Hooks は購入完了時の連携処理
type Hooks struct {
	// Purchased はチケット台帳への記録など。確定したチケットがある送信ごとに呼ばれる
	Purchased func(State)
	// Celebrate は購入者への完了通知
	Celebrate func(State)
}

// Manager は購入セッションを管理する
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	composer *Composer
	signer   Signer
	guard    Guard
	hooks    Hooks
}

// NewManager は Manager を作成する
func NewManager(composer *Composer, signer Signer, guard Guard, hooks Hooks) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		composer: composer,
		signer:   signer,
		guard:    guard,
		hooks:    hooks,
	}
}

// Signer は接続中のウォレット
func (m *Manager) Signer() Signer {
	return m.signer
}

// Open は新しいセッションを作成し quantity ステップで開く
func (m *Manager) Open(req model.PurchaseRequest, defaultQuantity int) *Session {
	id := uuid.NewString()

	host := Host{
		OnClose:     func() { m.remove(id) },
		OnConfirmed: m.hooks.Purchased,
		OnSuccess: func(assetIDs []uint64) {
			log.Printf("Purchase session %s completed: %d tickets", id, len(assetIDs))
		},
		OnCelebrate: m.hooks.Celebrate,
	}
	sess := NewSession(id, m.composer, m.signer, m.guard, host)
	sess.Open(req, defaultQuantity)

	m.mu.Lock()
	m.sessions[id] = sess
	n := len(m.sessions)
	m.mu.Unlock()

	monitoring.SetOpenSessions(n)
	return sess
}

// Get はセッションを取得する
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Sweep は maxAge より古く、送信中でないセッションを破棄する。
// 失敗表示のまま放置された transaction ステップのセッションも対象。
func (m *Manager) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	removed := 0
	for id, sess := range m.sessions {
		if sess.CreatedAt.After(cutoff) || sess.State().Submitting {
			continue
		}
		delete(m.sessions, id)
		removed++
	}
	n := len(m.sessions)
	m.mu.Unlock()

	monitoring.SetOpenSessions(n)
	return removed
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()

	monitoring.SetOpenSessions(n)
}
