package repo

import (
	"context"
	"sort"
	"sync"

	"user-account-service/internal/domain"
)

// MemoryUserRepo 内存实现（db.driver=memory、测试用），语义与 gorm 版一致
type MemoryUserRepo struct {
	mu      sync.RWMutex
	nextID  uint64
	byID    map[uint64]domain.User
	byEmail map[string]uint64
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{
		byID:    make(map[uint64]domain.User),
		byEmail: make(map[string]uint64),
	}
}

func (r *MemoryUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[u.Email]; ok {
		return domain.ErrDuplicateEmail
	}
	r.nextID++
	u.ID = r.nextID
	u.Version = 0
	r.byID[u.ID] = *u
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *MemoryUserRepo) FindByID(_ context.Context, id uint64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *MemoryUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	u := r.byID[id]
	return &u, nil
}

func (r *MemoryUserRepo) UpdateVersioned(_ context.Context, u *domain.User, expected int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[u.ID]
	if !ok || cur.Version != expected {
		return false, nil
	}
	if owner, taken := r.byEmail[u.Email]; taken && owner != u.ID {
		return false, domain.ErrDuplicateEmail
	}
	delete(r.byEmail, cur.Email)
	next := *u
	next.Version = expected + 1
	r.byID[u.ID] = next
	r.byEmail[next.Email] = u.ID
	u.Version = next.Version
	return true, nil
}

func (r *MemoryUserRepo) Delete(_ context.Context, id uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	delete(r.byID, id)
	delete(r.byEmail, u.Email)
	return true, nil
}

func (r *MemoryUserRepo) List(_ context.Context, offset, limit int) ([]domain.User, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uint64, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	total := int64(len(ids))
	if offset < 0 || offset >= len(ids) || limit <= 0 {
		return []domain.User{}, total, nil
	}
	end := offset + limit
	if end > len(ids) || end < offset {
		end = len(ids)
	}
	out := make([]domain.User, 0, end-offset)
	for _, id := range ids[offset:end] {
		out = append(out, r.byID[id])
	}
	return out, total, nil
}
