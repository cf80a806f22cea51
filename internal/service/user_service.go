package service

import (
	"context"
	"errors"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"user-account-service/internal/domain"
)

// DefaultPageSize 固定页大小
const DefaultPageSize = 10

var versionConflicts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "user_version_conflicts_total",
		Help: "Updates rejected because the stored version moved on",
	},
	[]string{"op"},
)

func init() { prometheus.MustRegister(versionConflicts) }

// UserService 无状态，可并发调用；并发控制全部交给存储层的唯一约束和版本校验。
type UserService struct {
	repo   domain.UserRepository
	hasher domain.Hasher
	log    *zap.Logger
}

func NewUserService(repo domain.UserRepository, hasher domain.Hasher, l *zap.Logger) *UserService {
	if l == nil {
		l = zap.NewNop()
	}
	return &UserService{repo: repo, hasher: hasher, log: l}
}

func (s *UserService) Create(ctx context.Context, name, email, password string) (*domain.User, error) {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, domain.Internal(err)
	}
	if existing != nil {
		s.log.Debug("user creation failed, duplicate email", zap.String("email", email))
		return nil, domain.ClientFault(domain.MsgEmailAlreadyRegistered)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, domain.Internal(err)
	}
	u := &domain.User{Name: name, Email: email, PasswordDigest: digest}
	if err := s.repo.Create(ctx, u); err != nil {
		// 预检与插入之间被抢注
		if errors.Is(err, domain.ErrDuplicateEmail) {
			s.log.Debug("user creation lost email race", zap.String("email", email))
			return nil, domain.ClientFault(domain.MsgEmailAlreadyRegistered)
		}
		return nil, domain.Internal(err)
	}
	s.log.Debug("user created", zap.Uint64("user_id", u.ID), zap.String("email", email))
	return u, nil
}

func (s *UserService) FindByID(ctx context.Context, id uint64) (*domain.User, error) {
	return s.mustFind(ctx, id)
}

func (s *UserService) FindAll(ctx context.Context, pageNumber int) (*domain.PaginatedResult[domain.User], error) {
	if pageNumber < 1 {
		return nil, domain.ClientFault(domain.MsgInvalidPageNumber, "1")
	}
	// 页码过大时偏移量会溢出，直接定位到末尾（空页，总数照常返回）
	offset := math.MaxInt
	if pageNumber-1 <= math.MaxInt/DefaultPageSize {
		offset = (pageNumber - 1) * DefaultPageSize
	}
	users, total, err := s.repo.List(ctx, offset, DefaultPageSize)
	if err != nil {
		return nil, domain.Internal(err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return &domain.PaginatedResult[domain.User]{
		Records:      users,
		PageNumber:   pageNumber,
		PageSize:     DefaultPageSize,
		TotalRecords: total,
		TotalPages:   domain.TotalPages(total, DefaultPageSize),
	}, nil
}

func (s *UserService) ChangePassword(ctx context.Context, id uint64, password string) error {
	u, err := s.mustFind(ctx, id)
	if err != nil {
		return err
	}
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return domain.Internal(err)
	}
	u.PasswordDigest = digest
	return s.saveVersioned(ctx, "change_password", u)
}

func (s *UserService) UpdateUser(ctx context.Context, id uint64, name, email string) (*domain.User, error) {
	u, err := s.mustFind(ctx, id)
	if err != nil {
		return nil, err
	}

	// 邮箱有变化才重新校验唯一性（大小写敏感，精确匹配）
	if u.Email != email {
		other, err := s.repo.FindByEmail(ctx, email)
		if err != nil {
			return nil, domain.Internal(err)
		}
		if other != nil {
			s.log.Debug("user update failed, duplicate email",
				zap.Uint64("user_id", id), zap.String("email", email))
			return nil, domain.ClientFault(domain.MsgEmailAlreadyRegistered)
		}
	}

	u.Name = name
	u.Email = email
	if err := s.saveVersioned(ctx, "update_user", u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id uint64) error {
	if _, err := s.mustFind(ctx, id); err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return domain.Internal(err)
	}
	// 查到之后又被并发删除
	if !deleted {
		return domain.NotFound(domain.MsgUserNotExist)
	}
	return nil
}

func (s *UserService) mustFind(ctx context.Context, id uint64) (*domain.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, domain.Internal(err)
	}
	if u == nil {
		return nil, domain.NotFound(domain.MsgUserNotExist)
	}
	return u, nil
}

// saveVersioned 把读到的 version 原样交回存储层做校验
func (s *UserService) saveVersioned(ctx context.Context, op string, u *domain.User) error {
	ok, err := s.repo.UpdateVersioned(ctx, u, u.Version)
	if errors.Is(err, domain.ErrDuplicateEmail) {
		return domain.ClientFault(domain.MsgEmailAlreadyRegistered)
	}
	if err != nil {
		return domain.Internal(err)
	}
	if !ok {
		versionConflicts.WithLabelValues(op).Inc()
		s.log.Warn("concurrent modification", zap.String("op", op),
			zap.Uint64("user_id", u.ID), zap.Int("version", u.Version))
		return domain.Conflict(domain.MsgConcurrentModification)
	}
	return nil
}
