package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"

	"github.com/veriflow/lifecycle/internal/clock"
	"github.com/veriflow/lifecycle/internal/idgen"
	"github.com/veriflow/lifecycle/model"
	"github.com/veriflow/lifecycle/policy"
	"github.com/veriflow/lifecycle/service/chain"
	"github.com/veriflow/lifecycle/service/dao"
	dfs "github.com/veriflow/lifecycle/service/dao/fs"
	"github.com/veriflow/lifecycle/service/dao/store"
	"github.com/veriflow/lifecycle/service/event"
	"github.com/veriflow/lifecycle/service/messaging"
	mmemory "github.com/veriflow/lifecycle/service/messaging/memory"
	"github.com/veriflow/lifecycle/service/moderation"
	"github.com/veriflow/lifecycle/service/sanction"
	smemory "github.com/veriflow/lifecycle/service/sanction/memory"
	"github.com/veriflow/lifecycle/service/visibility"
)

// Service is the façade wiring policies, stores, the sanction machine, the
// moderation machine, the version chain manager and the visibility resolver
// into one engine.
type Service struct {
	config   *Config
	policies *policy.Registry
	signer   *sanction.TokenSigner

	signingKey       []byte
	signingKeyURL    string
	signingKeySecret string

	artifacts      dao.Store[string, model.Artifact]
	sanctionStore  dao.Store[string, sanction.Sanction]
	moderationBus  messaging.Queue[event.Event[moderation.Entry]]
	chainBus       messaging.Queue[event.Event[model.Artifact]]
	sanctionEvents messaging.Queue[event.Event[sanction.Sanction]]

	sanctions  sanction.Service
	moderation *moderation.Service
	chain      *chain.Service
	resolver   *visibility.Resolver

	sweeper *sanction.Sweeper
	watcher *visibility.Watcher

	cancel   context.CancelFunc
	stopOnce sync.Once
}

// New creates the engine. With no options everything runs in memory with an
// empty provider registry (all providers unmoderated) and a random signing
// key, which suits tests and single-process embedding.
func New(options ...Option) *Service {
	ret := &Service{}
	ret.init(options)
	return ret
}

func (s *Service) init(options []Option) {
	for _, option := range options {
		option(s)
	}
	s.ensureBaseSetup()

	sanctionOptions := []smemory.Option{smemory.WithQueue(s.sanctionEvents)}
	if s.sanctionStore != nil {
		sanctionOptions = append(sanctionOptions, smemory.WithStore(s.sanctionStore))
	}
	s.sanctions = smemory.New(s.policies, s.signer, sanctionOptions...)
	s.moderation = moderation.New(s.artifacts, s.policies, s.sanctions,
		moderation.WithPublisher(event.NewPublisher(s.moderationBus)))
	s.chain = chain.New(s.artifacts, s.moderation,
		chain.WithPublisher(event.NewPublisher(s.chainBus)))
	s.resolver = visibility.New(s.policies)
	s.watcher = visibility.NewWatcher(s.resolver, s.moderationBus)
	s.sweeper = sanction.NewSweeper(s.sanctions, sanction.SweeperConfig{
		PollingInterval: s.config.Sweeper.PollingInterval,
	})
	s.wireEffects()
}

func (s *Service) ensureBaseSetup() {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if s.policies == nil && s.config.PolicyURL != "" {
		if registry, err := policy.LoadRegistry(context.Background(), afs.New(), s.config.PolicyURL); err == nil {
			s.policies = registry
		}
	}
	if s.policies == nil {
		s.policies = policy.NewRegistry()
	}
	if s.signer == nil {
		key := s.signingKey
		if len(key) == 0 && s.signingKeyURL != "" {
			if signer, err := sanction.NewTokenSignerFromResource(context.Background(), s.signingKeyURL, s.signingKeySecret); err == nil {
				s.signer = signer
			}
		}
		if s.signer == nil {
			if len(key) == 0 {
				key = []byte(uuid.New().String())
			}
			s.signer, _ = sanction.NewTokenSigner(key)
		}
	}
	if s.artifacts == nil {
		if s.config.ArtifactBaseURL != "" {
			s.artifacts = dfs.New[model.Artifact](s.config.ArtifactBaseURL, func(a *model.Artifact) string { return a.ID })
		} else {
			s.artifacts = store.NewMemoryStore[string, model.Artifact](func(a *model.Artifact) string { return a.ID })
		}
	}
	if s.sanctionStore == nil && s.config.SanctionBaseURL != "" {
		s.sanctionStore = dfs.New[sanction.Sanction](s.config.SanctionBaseURL, func(sc *sanction.Sanction) string { return sc.ID })
	}
	queueConfig := mmemory.DefaultConfig()
	if s.config.Queue.Buffer > 0 {
		queueConfig.QueueBuffer = s.config.Queue.Buffer
	}
	if s.moderationBus == nil {
		s.moderationBus = mmemory.NewQueue[event.Event[moderation.Entry]](queueConfig)
	}
	if s.chainBus == nil {
		s.chainBus = mmemory.NewQueue[event.Event[model.Artifact]](queueConfig)
	}
	if s.sanctionEvents == nil {
		s.sanctionEvents = mmemory.NewQueue[event.Event[sanction.Sanction]](queueConfig)
	}
}

// wireEffects binds each sanction kind to the lifecycle change it gates.
// Handlers only run after the sanction transition is committed, at most
// once per transition.
func (s *Service) wireEffects() {
	s.sanctions.OnApproved(sanction.KindRegistrationApproval, s.markPublic, s.clearSanction)
	s.sanctions.OnRejected(sanction.KindRegistrationApproval, s.clearSanction)

	// an approved embargo keeps the artifact private until its end date;
	// completion is what makes it public
	s.sanctions.OnCompleted(sanction.KindEmbargo, s.markPublic, s.clearSanction)
	s.sanctions.OnRejected(sanction.KindEmbargo, s.clearSanction)
	s.sanctions.OnApproved(sanction.KindEmbargoTermination, s.markPublic, s.clearSanction)
	s.sanctions.OnRejected(sanction.KindEmbargoTermination, s.clearSanction)

	s.sanctions.OnApproved(sanction.KindRetraction, s.finalizeWithdrawal)
	s.sanctions.OnRejected(sanction.KindRetraction, s.clearSanction)

	s.sanctions.OnApproved(sanction.KindSchemaResponse, s.markPublished, s.clearSanction)
	s.sanctions.OnRejected(sanction.KindSchemaResponse, s.clearSanction)
}

func (s *Service) markPublic(ctx context.Context, sc *sanction.Sanction) error {
	_, err := s.artifacts.Update(ctx, sc.ArtifactID, func(a *model.Artifact) error {
		a.MarkPublic()
		return nil
	})
	return err
}

func (s *Service) markPublished(ctx context.Context, sc *sanction.Sanction) error {
	_, err := s.artifacts.Update(ctx, sc.ArtifactID, func(a *model.Artifact) error {
		a.IsPublished = true
		return nil
	})
	return err
}

func (s *Service) clearSanction(ctx context.Context, sc *sanction.Sanction) error {
	_, err := s.artifacts.Update(ctx, sc.ArtifactID, func(a *model.Artifact) error {
		if a.SanctionID == sc.ID {
			a.SanctionID = ""
		}
		return nil
	})
	return err
}

func (s *Service) finalizeWithdrawal(ctx context.Context, sc *sanction.Sanction) error {
	actor := sc.ResolvedBy
	if actor == "" {
		actor = sanction.SweepActor
	}
	_, err := s.moderation.Transition(ctx, sc.ArtifactID, moderation.TriggerWithdraw, actor, sc.Comment)
	if err != nil {
		return err
	}
	s.resolver.Invalidate(sc.ArtifactID)
	return s.clearSanction(ctx, sc)
}

// CreateDraft stores the first version of a new chain and opens its
// moderation record. Identity and chain fields are assigned here; whatever
// the caller set in them is overwritten.
func (s *Service) CreateDraft(ctx context.Context, artifact *model.Artifact) (*model.Artifact, error) {
	if artifact == nil {
		return nil, dao.ErrNilEntity
	}
	now := clock.Now()
	artifact.ID = idgen.New()
	artifact.RootID = artifact.ID
	artifact.PreviousID = ""
	artifact.VersionNumber = 1
	artifact.ReviewsState = model.StateInitial
	artifact.CreatedAt = now
	artifact.ModifiedAt = now
	if err := s.artifacts.Save(ctx, artifact); err != nil {
		return nil, err
	}
	if _, err := s.moderation.Open(ctx, artifact); err != nil {
		return nil, err
	}
	return artifact, nil
}

// RequestApproval opens a registration-approval sanction requiring every
// artifact admin to redeem an approval token.
func (s *Service) RequestApproval(ctx context.Context, artifactID string) (*sanction.Sanction, error) {
	return s.initiate(ctx, artifactID, sanction.KindRegistrationApproval, nil)
}

// RequestEmbargo opens an embargo sanction ending at end.
func (s *Service) RequestEmbargo(ctx context.Context, artifactID string, end time.Time) (*sanction.Sanction, error) {
	return s.initiate(ctx, artifactID, sanction.KindEmbargo, &end)
}

func (s *Service) initiate(ctx context.Context, artifactID string, kind sanction.Kind, end *time.Time) (*sanction.Sanction, error) {
	artifact, err := s.artifacts.Load(ctx, artifactID)
	if err != nil {
		return nil, err
	}
	if artifact == nil {
		return nil, dao.ErrNotFound
	}
	sc, err := s.sanctions.Initiate(ctx, artifact, kind, artifact.Admins(), end)
	if err != nil {
		return nil, err
	}
	_, err = s.artifacts.Update(ctx, artifactID, func(a *model.Artifact) error {
		a.SanctionID = sc.ID
		return nil
	})
	return sc, err
}

// Start launches the background sweep and cache-invalidation loops. It
// returns immediately; Shutdown stops both.
func (s *Service) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go func() { _ = s.sweeper.Start(ctx) }()
	go func() { _ = s.watcher.Start(ctx) }()
}

// Shutdown stops the background loops. Safe to call more than once.
func (s *Service) Shutdown() {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.sweeper.Shutdown()
		s.watcher.Shutdown()
	})
}

// Policies returns the provider policy registry.
func (s *Service) Policies() *policy.Registry { return s.policies }

// Artifacts returns the shared artifact store.
func (s *Service) Artifacts() dao.Store[string, model.Artifact] { return s.artifacts }

// Sanctions returns the sanction machine.
func (s *Service) Sanctions() sanction.Service { return s.sanctions }

// Moderation returns the review-state machine.
func (s *Service) Moderation() *moderation.Service { return s.moderation }

// Chain returns the version chain manager.
func (s *Service) Chain() *chain.Service { return s.chain }

// Visibility returns the visibility resolver.
func (s *Service) Visibility() *visibility.Resolver { return s.resolver }
