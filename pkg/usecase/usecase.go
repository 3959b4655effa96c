package usecase

import (
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/domain/lifecycle"
	"github.com/secmon-lab/themis/pkg/domain/scoring"
)

type UseCases struct {
	repo         interfaces.Repository
	notifier     interfaces.Notifier
	matrixSource interfaces.MatrixConfigSource
	engine       *lifecycle.Engine
	aggregator   *scoring.Aggregator
	movePolicy   MovePolicy
	asyncNotify  bool

	Intents *IntentExecutor
	Entity  *EntityUseCase
	Board   *BoardUseCase
}

type Option func(*UseCases)

func WithNotifier(n interfaces.Notifier) Option {
	return func(uc *UseCases) {
		uc.notifier = n
	}
}

// WithMatrixSource sets where tenant matrices come from. The source is
// wrapped in a CachedMatrixSource.
func WithMatrixSource(src interfaces.MatrixConfigSource) Option {
	return func(uc *UseCases) {
		uc.matrixSource = src
	}
}

func WithEngine(e *lifecycle.Engine) Option {
	return func(uc *UseCases) {
		uc.engine = e
	}
}

func WithAggregator(a *scoring.Aggregator) Option {
	return func(uc *UseCases) {
		uc.aggregator = a
	}
}

func WithMovePolicy(p MovePolicy) Option {
	return func(uc *UseCases) {
		uc.movePolicy = p
	}
}

// WithAsyncNotify sends notifications in the background instead of waiting
// for them
func WithAsyncNotify() Option {
	return func(uc *UseCases) {
		uc.asyncNotify = true
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:       repo,
		movePolicy: MovePolicyQueue,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.engine == nil {
		uc.engine = lifecycle.New()
	}
	if uc.aggregator == nil {
		uc.aggregator = scoring.New()
	}
	if uc.matrixSource == nil {
		uc.matrixSource = DefaultMatrixSource{}
	}

	uc.Intents = NewIntentExecutor(repo, uc.notifier, uc.asyncNotify)
	// board moves and direct transitions share one lock per entity
	lock := NewEntityLock()
	uc.Entity = NewEntityUseCase(repo, uc.engine, uc.aggregator, NewCachedMatrixSource(uc.matrixSource), uc.Intents, lock)
	uc.Board = NewBoardUseCase(repo, uc.engine, uc.Intents, lock, uc.movePolicy)

	return uc
}
