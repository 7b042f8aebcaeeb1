package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/tradedesk/internal/guard"
	"github.com/fortuna/tradedesk/internal/reconciliation"
	"github.com/fortuna/tradedesk/internal/store"
	"github.com/fortuna/tradedesk/internal/trade"
)

// TradeLedger is the append-only store of applied trades.
type TradeLedger interface {
	Insert(ctx context.Context, rec *store.TradeRecord) error
	GetByMessageID(ctx context.Context, messageID string) (*store.TradeRecord, error)
}

// TradeNotifier is told about every trade that was applied.
type TradeNotifier interface {
	PublishTradeApplied(ctx context.Context, messageID string, payload any) error
}

// TradeApplied is the event payload sent to notifiers.
type TradeApplied struct {
	MessageID string             `json:"messageId"`
	Trade     *trade.ParsedTrade `json:"trade"`
	Players   []PlayerMatch      `json:"players"`
	AppliedAt time.Time          `json:"appliedAt"`
}

// PlayerMatch ties one traded player line to the roster.
type PlayerMatch struct {
	Team  string                     `json:"team"`
	Side  string                     `json:"side"`
	Name  string                     `json:"name"`
	Match reconciliation.MatchResult `json:"match"`
}

// ApplyResult reports what Apply did with a message.
type ApplyResult struct {
	MessageID string             `json:"messageId"`
	Trade     *trade.ParsedTrade `json:"trade"`
	Players   []PlayerMatch      `json:"players,omitempty"`
	Applied   bool               `json:"applied"`
	Duplicate bool               `json:"duplicate"`
	AppliedAt *time.Time         `json:"appliedAt,omitempty"`
}

// TradeService parses trade posts and applies valid ones exactly once per
// message id.
type TradeService struct {
	roster    *RosterService
	ledger    TradeLedger
	guard     *guard.Guard
	notifiers []TradeNotifier
	opts      trade.Options
	logger    logrus.FieldLogger
}

// NewTradeService creates a trade service.
func NewTradeService(
	roster *RosterService,
	ledger TradeLedger,
	g *guard.Guard,
	opts trade.Options,
	logger logrus.FieldLogger,
	notifiers ...TradeNotifier,
) *TradeService {
	return &TradeService{
		roster:    roster,
		ledger:    ledger,
		guard:     g,
		notifiers: notifiers,
		opts:      opts,
		logger:    logger,
	}
}

// Parse parses text against the current team alias table. It has no side
// effects; parse problems are reported inside the result.
func (s *TradeService) Parse(ctx context.Context, text string) (*trade.ParsedTrade, error) {
	resolver, err := s.roster.Resolver(ctx)
	if err != nil {
		return nil, err
	}
	return trade.NewParser(resolver, s.opts).Parse(text), nil
}

// Apply parses text and, when the trade is valid, records it in the ledger
// and notifies subscribers. Redelivery of the same message id is a no-op.
func (s *TradeService) Apply(ctx context.Context, messageID, text string) (*ApplyResult, error) {
	parsed, err := s.Parse(ctx, text)
	if err != nil {
		return nil, err
	}

	result := &ApplyResult{MessageID: messageID, Trade: parsed}
	if !parsed.Valid() {
		s.logger.WithFields(logrus.Fields{
			"message_id": messageID,
			"errors":     len(parsed.Errors),
		}).Info("trade not applied: parse errors")
		return result, nil
	}

	result.Players, err = s.matchPlayers(ctx, parsed)
	if err != nil {
		return nil, err
	}

	res, err := s.guard.TryProcess(ctx, messageID, func(ctx context.Context) error {
		return s.record(ctx, messageID, text, parsed, result.Players)
	})
	if err != nil {
		return nil, fmt.Errorf("applying trade %s: %w", messageID, err)
	}

	result.Applied = res.Processed
	result.Duplicate = !res.Processed
	if res.Processed {
		at := res.ProcessedAt
		result.AppliedAt = &at
		s.logger.WithFields(logrus.Fields{
			"message_id": messageID,
			"teams":      len(parsed.Teams),
		}).Info("✓ Trade applied")
	}
	return result, nil
}

func (s *TradeService) record(ctx context.Context, messageID, text string, parsed *trade.ParsedTrade, players []PlayerMatch) error {
	body, err := json.Marshal(parsed)
	if err != nil {
		return fmt.Errorf("marshaling trade: %w", err)
	}

	names := make([]string, 0, len(parsed.Teams))
	for _, section := range parsed.Teams {
		names = append(names, section.DisplayName())
	}

	rec := &store.TradeRecord{
		MessageID:  messageID,
		RawText:    text,
		Parsed:     body,
		Teams:      names,
		IsValid:    parsed.IsValid,
		ErrorCount: len(parsed.Errors),
	}
	// A ledger row without a guard record means an earlier attempt died
	// between the two writes.
	if err := s.ledger.Insert(ctx, rec); err != nil && !errors.Is(err, store.ErrDuplicateKey) {
		return fmt.Errorf("recording trade: %w", err)
	}

	event := TradeApplied{
		MessageID: messageID,
		Trade:     parsed,
		Players:   players,
		AppliedAt: time.Now().UTC(),
	}
	for _, n := range s.notifiers {
		if err := n.PublishTradeApplied(ctx, messageID, event); err != nil {
			s.logger.WithError(err).WithField("message_id", messageID).Warn("trade notification failed")
		}
	}
	return nil
}

// matchPlayers reconciles every traded player against the roster. Misses are
// reported, not fatal.
func (s *TradeService) matchPlayers(ctx context.Context, parsed *trade.ParsedTrade) ([]PlayerMatch, error) {
	roster, err := s.roster.Roster(ctx)
	if err != nil {
		return nil, err
	}
	matcher, err := s.roster.Matcher(ctx)
	if err != nil {
		return nil, err
	}

	var out []PlayerMatch
	add := func(team, side string, lines []trade.PlayerLine) {
		for _, line := range lines {
			m := matcher.Reconcile(line.Name, roster)
			if !m.Matched() {
				s.logger.WithFields(logrus.Fields{"team": team, "query": line.Name, "score": m.Score}).Warn("traded player not on roster")
			}
			out = append(out, PlayerMatch{Team: team, Side: side, Name: line.Name, Match: m})
		}
	}
	for _, section := range parsed.Teams {
		add(section.DisplayName(), "sends", section.Sends)
		add(section.DisplayName(), "receives", section.Receives)
	}
	return out, nil
}

// Get returns the ledger entry for messageID.
func (s *TradeService) Get(ctx context.Context, messageID string) (*store.TradeRecord, error) {
	rec, err := s.ledger.GetByMessageID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("fetching trade %s: %w", messageID, err)
	}
	return rec, nil
}
