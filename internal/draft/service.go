package draft

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/player-draft-backend/internal/catalog"
	"github.com/DoyleJ11/player-draft-backend/internal/engine"
	"github.com/DoyleJ11/player-draft-backend/internal/metrics"
	"github.com/DoyleJ11/player-draft-backend/internal/store"
)

var (
	ErrConcurrentAction   = errors.New("another action is being processed, try again")
	ErrSelfChallenge      = errors.New("cannot challenge yourself")
	ErrModeDisabled       = errors.New("mode is disabled")
	ErrNotChallengeTarget = errors.New("challenge is addressed to someone else")
	ErrPoolTooSmall       = errors.New("not enough players to fill both rosters")
)

// Publisher receives every render produced by an accepted action. Delivery
// is best effort.
type Publisher interface {
	Publish(matchID string, r Render)
}

type ActionArgs struct {
	Slot     engine.Slot
	PlayerID string
}

type Challenge struct {
	ChatID     string
	Mode       engine.Mode
	Owner      engine.Participant
	Challenger engine.Participant
	// TargetID, when set, is the only user allowed to accept.
	TargetID string
}

type Deps struct {
	Engine    *engine.Engine
	Catalog   catalog.Catalog
	Store     store.Store
	Publisher Publisher
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	// EnabledModes defaults to every mode.
	EnabledModes  []engine.Mode
	RecentResults int
}

type Service struct {
	engine  *engine.Engine
	catalog catalog.Catalog
	store   store.Store
	pub     Publisher
	log     *zap.Logger
	metrics *metrics.Metrics
	locks   *lockTable
	enabled map[engine.Mode]bool
	recent  int
	newID   func() string
}

func New(d Deps) *Service {
	modes := d.EnabledModes
	if len(modes) == 0 {
		modes = engine.Modes
	}
	enabled := make(map[engine.Mode]bool, len(modes))
	for _, m := range modes {
		enabled[m] = true
	}
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	recent := d.RecentResults
	if recent <= 0 {
		recent = 5
	}
	return &Service{
		engine:  d.Engine,
		catalog: d.Catalog,
		store:   d.Store,
		pub:     d.Publisher,
		log:     log,
		metrics: d.Metrics,
		locks:   newLockTable(),
		enabled: enabled,
		recent:  recent,
		newID:   uuid.NewString,
	}
}

// CreateMatch accepts a challenge and persists a fresh drafting match.
func (s *Service) CreateMatch(ctx context.Context, c Challenge) (Render, error) {
	if c.Owner.ID == "" || c.Challenger.ID == "" {
		return Render{}, engine.ErrNotParticipant
	}
	if c.Owner.ID == c.Challenger.ID {
		return Render{}, ErrSelfChallenge
	}
	if c.TargetID != "" && c.TargetID != c.Challenger.ID {
		return Render{}, ErrNotChallengeTarget
	}
	if !s.enabled[c.Mode] {
		return Render{}, fmt.Errorf("%w: %s", ErrModeDisabled, c.Mode)
	}

	pool, err := s.catalog.PoolForMode(ctx, c.Mode)
	if err != nil {
		return Render{}, fmt.Errorf("load pool: %w", err)
	}
	if need := 2 * len(c.Mode.Layout()); len(pool) < need {
		return Render{}, fmt.Errorf("%w: %s has %d, need %d", ErrPoolTooSmall, c.Mode, len(pool), need)
	}

	m := s.engine.NewMatch(s.newID(), c.ChatID, c.Mode, c.Owner, c.Challenger, pool)
	if err := s.store.Create(ctx, &m); err != nil {
		return Render{}, err
	}
	s.metrics.MatchCreated(string(m.Mode))
	s.log.Info("match created",
		zap.String("match_id", m.ID),
		zap.String("chat_id", m.ChatID),
		zap.String("mode", string(m.Mode)),
		zap.String("first_turn", m.CurrentTurn),
	)

	r := s.render(ctx, m, nil)
	s.publish(r)
	return r, nil
}

// View renders the stored match without changing it.
func (s *Service) View(ctx context.Context, matchID string) (Render, error) {
	m, err := s.store.Load(ctx, matchID)
	if err != nil {
		return Render{}, err
	}
	return s.render(ctx, m, nil), nil
}

func (s *Service) Profile(ctx context.Context, userID string) (store.Profile, error) {
	return s.store.Profile(ctx, userID, s.recent)
}

// ApplyAction is the single entry point for chat callbacks. At most one
// action per match runs at a time; a second one is rejected with
// ErrConcurrentAction rather than queued.
func (s *Service) ApplyAction(ctx context.Context, matchID, actorID string, kind engine.CommandType, args ActionArgs) (Render, error) {
	start := time.Now()
	r, err := s.applyAction(ctx, matchID, actorID, kind, args)
	s.metrics.ObserveAction(string(kind), outcomeLabel(err), time.Since(start))

	fields := []zap.Field{
		zap.String("match_id", matchID),
		zap.String("actor_id", actorID),
		zap.String("action", string(kind)),
	}
	switch {
	case err == nil:
		s.log.Debug("action applied", append(fields, zap.Int64("version", r.Version))...)
	case isRejection(err):
		s.log.Info("action rejected", append(fields, zap.Error(err))...)
	default:
		s.log.Error("action failed", append(fields, zap.Error(err))...)
	}
	return r, err
}

func (s *Service) applyAction(ctx context.Context, matchID, actorID string, kind engine.CommandType, args ActionArgs) (Render, error) {
	if !s.locks.tryLock(matchID) {
		return Render{}, ErrConcurrentAction
	}
	defer s.locks.unlock(matchID)

	m, err := s.store.Load(ctx, matchID)
	if err != nil {
		return Render{}, err
	}
	if m.State == engine.StateFinished {
		// A previous run may have died between saving and recording.
		s.recordResults(ctx, m)
	}

	cmd := engine.Command{Type: kind, ActorID: actorID, Slot: args.Slot, PlayerID: args.PlayerID}
	events, next, applyErr := s.engine.Apply(ctx, m, cmd)
	if applyErr != nil && !engine.CommitsOnError(applyErr) {
		return Render{}, applyErr
	}

	if err := s.store.Save(ctx, &next); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			return Render{}, ErrConcurrentAction
		}
		return Render{}, err
	}

	if engine.ContainsEvent(events, engine.EvtMatchFinished) {
		s.recordResults(ctx, next)
		winner := "draw"
		if next.Result != nil && next.Result.Winner != engine.SideNone {
			winner = string(next.Result.Winner)
		}
		s.metrics.MatchFinished(string(next.Mode), winner)
		s.log.Info("match finished",
			zap.String("match_id", next.ID),
			zap.Int("score_a", next.TeamA.Score),
			zap.Int("score_b", next.TeamB.Score),
			zap.String("winner", winner),
		)
	}

	r := s.render(ctx, next, events)
	s.publish(r)
	return r, applyErr
}

// recordResults writes one entry per participant. Entries are keyed on
// (match, user) so running it again is harmless.
func (s *Service) recordResults(ctx context.Context, m engine.Match) {
	if m.Result == nil {
		return
	}
	finished := m.CreatedAt
	if m.FinishedAt != nil {
		finished = *m.FinishedAt
	}
	sides := []struct {
		team engine.Team
		side engine.Side
	}{
		{m.TeamA, engine.SideA},
		{m.TeamB, engine.SideB},
	}
	for _, sd := range sides {
		entry := store.ResultEntry{
			MatchID:    m.ID,
			UserID:     sd.team.OwnerID,
			Name:       sd.team.OwnerName,
			Mode:       m.Mode,
			Outcome:    m.Result.OutcomeFor(sd.side),
			FinishedAt: finished,
		}
		recorded, err := s.store.RecordResult(ctx, entry)
		if err != nil {
			s.log.Error("record result failed",
				zap.String("match_id", m.ID),
				zap.String("user_id", entry.UserID),
				zap.Error(err),
			)
			continue
		}
		if recorded {
			s.log.Debug("result recorded",
				zap.String("match_id", m.ID),
				zap.String("user_id", entry.UserID),
				zap.String("outcome", string(entry.Outcome)),
			)
		}
	}
}

func (s *Service) render(ctx context.Context, m engine.Match, events []engine.Event) Render {
	var pending *engine.Player
	if m.PendingPlayerID != "" {
		p, err := s.catalog.Get(ctx, m.PendingPlayerID)
		if err != nil {
			s.log.Warn("pending player lookup failed",
				zap.String("match_id", m.ID),
				zap.String("player_id", m.PendingPlayerID),
				zap.Error(err),
			)
		} else {
			pending = &p
		}
	}
	return buildRender(m, events, pending, s.engine.Rules().TradeBudget)
}

func (s *Service) publish(r Render) {
	if s.pub == nil {
		return
	}
	s.pub.Publish(r.MatchID, r)
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrConcurrentAction):
		return "busy"
	case isRejection(err):
		return "rejected"
	default:
		return "error"
	}
}

// isRejection reports whether err is a rule violation rather than a failure.
func isRejection(err error) bool {
	for _, target := range []error{
		engine.ErrNotYourTurn, engine.ErrNotParticipant, engine.ErrNoPendingPlayer,
		engine.ErrSlotOccupied, engine.ErrSlotEmpty, engine.ErrUnknownSlot,
		engine.ErrBudgetExhausted, engine.ErrPoolExhausted, engine.ErrInvalidState,
		engine.ErrUnsupportedCommand, engine.ErrStaleReference, engine.ErrTradeInProgress,
		engine.ErrNoTrade, engine.ErrAlreadyConfirmed, engine.ErrPlayerNotOnRoster,
		ErrConcurrentAction, ErrSelfChallenge, ErrModeDisabled, ErrNotChallengeTarget,
		ErrPoolTooSmall, store.ErrNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
