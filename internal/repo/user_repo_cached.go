package repo

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"user-account-service/internal/core/cache"
	"user-account-service/internal/domain"
)

// 延迟双删的间隔：要大于一次回源（查库 + 回写）的耗时
const defaultReEvictAfter = 500 * time.Millisecond

// CachedUserRepo 在任意 UserRepository 外包一层 redis：只缓存 FindByID，
// 更新、删除以及版本冲突都会失效对应 key，调用方重试时读到的是最新版本。
// 写之前已开始的回源可能在失效之后把旧值写回，所以隔一小段时间再删一次。
type CachedUserRepo struct {
	domain.UserRepository
	c            *cache.Cache
	ttl          time.Duration
	log          *zap.Logger
	reEvictAfter time.Duration
}

func NewCachedUserRepo(next domain.UserRepository, c *cache.Cache, ttl time.Duration, l *zap.Logger) *CachedUserRepo {
	if l == nil {
		l = zap.NewNop()
	}
	return &CachedUserRepo{UserRepository: next, c: c, ttl: ttl, log: l, reEvictAfter: defaultReEvictAfter}
}

func userKey(id uint64) string { return "user:" + strconv.FormatUint(id, 10) }

func (r *CachedUserRepo) FindByID(ctx context.Context, id uint64) (*domain.User, error) {
	return cache.GetOrLoadJSON(r.c, ctx, userKey(id), r.ttl, func(ctx context.Context) (*domain.User, error) {
		return r.UserRepository.FindByID(ctx, id)
	})
}

func (r *CachedUserRepo) UpdateVersioned(ctx context.Context, u *domain.User, expected int) (bool, error) {
	ok, err := r.UserRepository.UpdateVersioned(ctx, u, expected)
	r.evict(ctx, u.ID)
	return ok, err
}

func (r *CachedUserRepo) Delete(ctx context.Context, id uint64) (bool, error) {
	ok, err := r.UserRepository.Delete(ctx, id)
	r.evict(ctx, id)
	return ok, err
}

func (r *CachedUserRepo) evict(ctx context.Context, id uint64) {
	r.del(ctx, id)
	// 请求 ctx 可能已结束，第二次删除不跟随它取消
	bg := context.WithoutCancel(ctx)
	time.AfterFunc(r.reEvictAfter, func() {
		ctx, cancel := context.WithTimeout(bg, time.Second)
		defer cancel()
		r.del(ctx, id)
	})
}

func (r *CachedUserRepo) del(ctx context.Context, id uint64) {
	if err := r.c.Del(ctx, userKey(id)); err != nil {
		r.log.Warn("cache evict failed", zap.Uint64("user_id", id), zap.Error(err))
	}
}
