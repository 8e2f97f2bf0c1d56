package repository

import (
	"context"
	"sync"

	"github.com/lk2023060901/mosoul/pkg/database/postgres"
	"github.com/lk2023060901/mosoul/pkg/logger"
)

// Transactor 在一个事务中执行多个存储写操作
// fn 返回错误时，数据库写入回滚，其余存储登记的补偿按逆序执行
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type scopeKey struct{}

// txScope 一次事务内登记的补偿和提交后动作
type txScope struct {
	mu       sync.Mutex
	undo     []func(context.Context) error
	onCommit []func(context.Context)
}

func scopeFrom(ctx context.Context) *txScope {
	s, _ := ctx.Value(scopeKey{}).(*txScope)
	return s
}

// InTransaction ctx 是否处于 Transactor 开启的事务中
func InTransaction(ctx context.Context) bool {
	return scopeFrom(ctx) != nil
}

// OnRollback 登记事务失败时的补偿，不在事务中时忽略
// 不参与数据库事务的存储 (Redis、内存) 通过它撤销已生效的写入
func OnRollback(ctx context.Context, fn func(ctx context.Context) error) {
	if s := scopeFrom(ctx); s != nil {
		s.mu.Lock()
		s.undo = append(s.undo, fn)
		s.mu.Unlock()
	}
}

// AfterCommit 登记事务提交后的动作，不在事务中时立即执行
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	if s := scopeFrom(ctx); s != nil {
		s.mu.Lock()
		s.onCommit = append(s.onCommit, fn)
		s.mu.Unlock()
		return
	}
	fn(ctx)
}

// runInScope 开启事务作用域，嵌套调用加入外层事务
func runInScope(
	ctx context.Context,
	l logger.Logger,
	begin func(ctx context.Context, fn func(ctx context.Context) error) error,
	fn func(ctx context.Context) error,
) (err error) {
	if InTransaction(ctx) {
		return fn(ctx)
	}

	s := &txScope{}
	// 补偿和提交后动作不受调用方取消影响，也不再登记到本作用域
	detached := context.WithValue(context.WithoutCancel(ctx), scopeKey{}, (*txScope)(nil))

	defer func() {
		if p := recover(); p != nil {
			s.rollback(detached, l)
			panic(p)
		}
	}()

	if err = begin(context.WithValue(ctx, scopeKey{}, s), fn); err != nil {
		s.rollback(detached, l)
		return err
	}
	s.commit(detached)
	return nil
}

func (s *txScope) rollback(ctx context.Context, l logger.Logger) {
	s.mu.Lock()
	undo := s.undo
	s.undo = nil
	s.mu.Unlock()

	for i := len(undo) - 1; i >= 0; i-- {
		if err := undo[i](ctx); err != nil {
			l.Error("failed to compensate write after rollback", "error", err)
		}
	}
}

func (s *txScope) commit(ctx context.Context) {
	s.mu.Lock()
	fns := s.onCommit
	s.onCommit = nil
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ctx)
	}
}

type pgTransactor struct {
	db     *postgres.Client
	logger logger.Logger
}

// NewTransactor PostgreSQL 事务，DAO 通过 ctx 取得事务连接
func NewTransactor(db *postgres.Client, l logger.Logger) Transactor {
	return &pgTransactor{db: db, logger: l.Named("repository.tx")}
}

func (t *pgTransactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return runInScope(ctx, t.logger, t.db.InTx, fn)
}

type localTransactor struct {
	logger logger.Logger
}

// NewLocalTransactor 无数据库的事务，只执行登记的补偿，用于内存存储
func NewLocalTransactor(l logger.Logger) Transactor {
	return &localTransactor{logger: l.Named("repository.tx")}
}

func (t *localTransactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return runInScope(ctx, t.logger, func(ctx context.Context, fn func(context.Context) error) error {
		return fn(ctx)
	}, fn)
}
