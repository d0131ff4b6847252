package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/text/language"

	"github.com/academic-hub/student-records/internal/domain/group"
	"github.com/academic-hub/student-records/internal/domain/shared"
	"github.com/academic-hub/student-records/pkg/logger"
)

// DefaultGroupCacheTTL is how long a resolved group stays in the cache.
const DefaultGroupCacheTTL = 10 * time.Minute

// GroupService manages groups and resolves group ids for StudentService.
type GroupService struct {
	groups   group.Repository
	messages MessageFormatter
	tx       TxManager
	log      *logger.Logger

	cache    group.Cache
	cacheTTL time.Duration
}

// GroupServiceOption configures a GroupService.
type GroupServiceOption func(*GroupService)

// WithGroupCache puts a read-through cache in front of the repository.
func WithGroupCache(cache group.Cache, ttl time.Duration) GroupServiceOption {
	return func(s *GroupService) {
		s.cache = cache
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// NewGroupService creates a new GroupService.
func NewGroupService(
	groups group.Repository,
	messages MessageFormatter,
	tx TxManager,
	log *logger.Logger,
	opts ...GroupServiceOption,
) *GroupService {
	if log == nil {
		log = logger.Default()
	}
	s := &GroupService{
		groups:   groups,
		messages: messages,
		tx:       tx,
		log:      log.With(logger.Component("group_service")),
		cacheTTL: DefaultGroupCacheTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetAll returns every stored group in store order.
func (s *GroupService) GetAll(ctx context.Context, locale language.Tag) ([]*group.Group, error) {
	s.log.Info(
		s.messages.Message(KeyGetAll, []any{subjectGroups}, locale),
		logger.Operation("getAll"),
	)

	groups, err := s.groups.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("group service: get all: %w", err)
	}
	return groups, nil
}

// GetByID resolves a group id. It implements GroupLookup.
func (s *GroupService) GetByID(ctx context.Context, id int64, locale language.Tag) (*group.Group, error) {
	if s.cache != nil {
		if g, err := s.cache.Get(ctx, id); err == nil && g != nil {
			s.log.Debug("group cache hit", logger.GroupID(id))
			return g, nil
		}
	}

	g, err := s.groups.FindByID(ctx, id)
	if err != nil {
		if shared.IsNotFound(err) {
			s.log.Error(
				s.messages.Message(KeyEntityNotFound, []any{actionGetGroupByID, id}, locale),
				logger.Operation("getById"),
				logger.GroupID(id),
			)
			return nil, shared.GroupNotFound("GetByID", id)
		}
		return nil, fmt.Errorf("group service: get by id %d: %w", id, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, g, s.cacheTTL); err != nil {
			s.log.Warn("failed to cache group", logger.GroupID(id), logger.Err(err))
		}
	}

	s.log.Info(
		s.messages.Message(KeyGetByID, []any{subjectGroup, id}, locale),
		logger.Operation("getById"),
		logger.GroupID(id),
	)
	return g, nil
}

// Save validates and persists g in one transaction.
func (s *GroupService) Save(ctx context.Context, g *group.Group, locale language.Tag) (*group.Group, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	var saved *group.Group
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		s.log.Info(
			s.messages.Message(KeyAdd, []any{subjectGroup}, locale),
			logger.Operation("add"),
		)

		var err error
		saved, err = s.groups.Save(ctx, g)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil && saved.IsPersisted() {
		if err := s.cache.Invalidate(ctx, saved.ID); err != nil {
			s.log.Warn("failed to invalidate group cache", logger.GroupID(saved.ID), logger.Err(err))
		}
	}

	return saved, nil
}
