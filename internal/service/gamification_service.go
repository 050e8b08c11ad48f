package service

import (
	"context"
	"errors"
	"fmt"

	"shiftboard/internal/model"
	"shiftboard/pkg/config"
	"shiftboard/pkg/eventbus"
	"shiftboard/pkg/gamification"
	"shiftboard/pkg/interfaces"
	"shiftboard/pkg/logger"
	"shiftboard/pkg/schedule"
	"shiftboard/pkg/store/mysql"
)

const maxProfileUpdateRetries = 5

var errProfileContention = errors.New("gamification profile update lost too many races")

// GamificationService owns the persisted XP, level and streak profile
type GamificationService struct {
	engine
	rules *gamification.Rules
}

// NewGamificationService creates a new gamification service
func NewGamificationService(repo *mysql.Repository, bus interfaces.EventPublisher, cfg config.EngineConfig) *GamificationService {
	return &GamificationService{
		engine: newEngine(repo, bus, cfg),
		rules:  gamification.NewRules(cfg),
	}
}

// SetClock overrides the time source
func (s *GamificationService) SetClock(c Clock) { s.clock = c }

// Rules exposes the level table
func (s *GamificationService) Rules() *gamification.Rules { return s.rules }

// GetProfile returns the worker's profile with level and streak derived as of now.
// A cached level that disagrees with total XP is corrected in storage.
func (s *GamificationService) GetProfile(ctx context.Context, workerID string) (*model.GamificationProfile, error) {
	row, err := s.repo.Gamification.Get(ctx, workerID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return s.toProfile(&mysql.GamificationProfile{WorkerID: workerID}, false), nil
	}

	if level := s.rules.Level(row.TotalXP); level != row.CurrentLevel {
		logger.InfoCtx(ctx, "correcting stored level for worker %s: %d -> %d", workerID, row.CurrentLevel, level)
		ok, err := s.repo.Gamification.UpdateWithVersion(ctx, workerID, row.Version, map[string]interface{}{
			"current_level": level,
			"updated_at":    s.now(),
		})
		if err != nil {
			logger.WarnCtx(ctx, "failed to correct stored level for worker %s: %v", workerID, err)
		} else if ok {
			row.CurrentLevel = level
			row.Version++
		}
	}
	return s.toProfile(row, true), nil
}

func (s *GamificationService) toProfile(row *mysql.GamificationProfile, persisted bool) *model.GamificationProfile {
	state := streakState(row)
	p := &model.GamificationProfile{
		WorkerID:         row.WorkerID,
		TotalXP:          row.TotalXP,
		Level:            s.rules.Level(row.TotalXP),
		CurrentStreak:    gamification.EffectiveStreak(state, s.today()),
		StreakMilestones: []int(row.StreakMilestones),
	}
	if p.StreakMilestones == nil {
		p.StreakMilestones = []int{}
	}
	if row.LastQualifyingDay != nil {
		p.LastQualifyingDay = *row.LastQualifyingDay
	}
	if next, ok := s.rules.NextThreshold(row.TotalXP); ok {
		p.NextLevelXP = &next
	}
	if persisted {
		updated := row.UpdatedAt
		p.UpdatedAt = &updated
	}
	return p
}

func streakState(row *mysql.GamificationProfile) gamification.StreakState {
	st := gamification.StreakState{
		Current:    row.CurrentStreak,
		Milestones: append([]int(nil), row.StreakMilestones...),
	}
	if row.LastQualifyingDay != nil {
		st.LastDay = *row.LastQualifyingDay
	}
	return st
}

// ensureProfile creates an empty profile on first touch
func (s *GamificationService) ensureProfile(ctx context.Context, workerID string) (*mysql.GamificationProfile, error) {
	row, err := s.repo.Gamification.Get(ctx, workerID)
	if err != nil || row != nil {
		return row, err
	}
	if err := s.repo.Gamification.CreateIfAbsent(ctx, &mysql.GamificationProfile{
		WorkerID:     workerID,
		CurrentLevel: s.rules.Level(0),
	}); err != nil {
		return nil, err
	}
	return s.repo.Gamification.Get(ctx, workerID)
}

// ApplyXP adds delta (negative for penalties) to the worker's total, floored at zero.
// It joins the transaction in ctx if there is one and publishes nothing;
// callers announce the change with PublishXPChange after commit.
func (s *GamificationService) ApplyXP(ctx context.Context, workerID string, delta int64) (*model.XPChange, error) {
	for attempt := 0; attempt < maxProfileUpdateRetries; attempt++ {
		row, err := s.ensureProfile(ctx, workerID)
		if err != nil {
			return nil, err
		}
		if row == nil {
			return nil, fmt.Errorf("gamification profile for %s vanished", workerID)
		}

		change := &model.XPChange{
			WorkerID:    workerID,
			Before:      row.TotalXP,
			After:       gamification.ApplyDelta(row.TotalXP, delta),
			LevelBefore: s.rules.Level(row.TotalXP),
		}
		change.LevelAfter = s.rules.Level(change.After)

		ok, err := s.repo.Gamification.UpdateWithVersion(ctx, workerID, row.Version, map[string]interface{}{
			"total_xp":      change.After,
			"current_level": change.LevelAfter,
			"updated_at":    s.now(),
		})
		if err != nil {
			return nil, err
		}
		if ok {
			return change, nil
		}
		logger.DebugCtx(ctx, "gamification profile %s changed concurrently, retrying (attempt %d)", workerID, attempt+1)
	}
	return nil, errProfileContention
}

// PublishXPChange emits a level-up signal for an upward threshold crossing.
// Downward crossings are silent.
func (s *GamificationService) PublishXPChange(ctx context.Context, change *model.XPChange, cause string) {
	if !change.LeveledUp() {
		return
	}
	s.publish(ctx, eventbus.Event{
		Type:     eventbus.TypeLevelUp,
		Topics:   []string{eventbus.WorkerTopic(change.WorkerID)},
		WorkerID: change.WorkerID,
		Data: map[string]any{
			"level_before": change.LevelBefore,
			"level_after":  change.LevelAfter,
			"total_xp":     change.After,
			"cause":        cause,
		},
	})
}

// SettleCompletion credits a fulfilled assignment exactly once: completion XP,
// a streak day on the shift's date and any milestone bonus reached.
// Returns nil without error when the assignment was already settled.
func (s *GamificationService) SettleCompletion(ctx context.Context, assignmentID string) (*model.CompletionResult, error) {
	var result *model.CompletionResult
	var awarded []config.StreakMilestone
	var offerID string

	err := s.repo.GetDatastore().ExecTx(ctx, func(txCtx context.Context) error {
		a, o, err := s.loadAssignment(txCtx, assignmentID)
		if err != nil {
			return err
		}
		if a.ConfirmedAt == nil || (a.Status != mysql.StatusInProgress && a.Status != mysql.StatusCompleted) {
			return invalidTransition("assignment %s was never confirmed on site", assignmentID)
		}
		w, err := s.window(o)
		if err != nil {
			return err
		}
		now := s.now()
		if !schedule.Ended(w, now) {
			return invalidTransition("the shift for assignment %s has not ended yet", assignmentID)
		}

		settled, err := s.repo.Assignment.MarkCompletionSettled(txCtx, assignmentID, now)
		if err != nil {
			return err
		}
		if !settled {
			return nil
		}
		if a.Status == mysql.StatusInProgress {
			if _, err := s.repo.Assignment.UpdateStatus(txCtx, assignmentID, mysql.StatusInProgress, mysql.StatusCompleted, map[string]interface{}{
				"updated_at": now,
			}); err != nil {
				return err
			}
		}

		res, milestones, err := s.creditCompletion(txCtx, a.WorkerID, w.Date)
		if err != nil {
			return err
		}
		res.AssignmentID = assignmentID
		result, awarded, offerID = res, milestones, a.OfferID
		return nil
	})
	if err != nil || result == nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "completion settled, assignment_id: %s, worker_id: %s, xp: %d -> %d, streak: %d",
		assignmentID, result.XP.WorkerID, result.XP.Before, result.XP.After, result.Streak)

	s.publish(ctx, eventbus.Event{
		Type:         eventbus.TypeCompletionSettled,
		Topics:       []string{eventbus.WorkerTopic(result.XP.WorkerID), eventbus.AssignmentTopic(assignmentID), eventbus.OfferTopic(offerID)},
		OfferID:      offerID,
		AssignmentID: assignmentID,
		WorkerID:     result.XP.WorkerID,
		Data: map[string]any{
			"xp_awarded": result.XP.After - result.XP.Before,
			"total_xp":   result.XP.After,
			"streak":     result.Streak,
		},
	})
	for _, m := range awarded {
		s.publish(ctx, eventbus.Event{
			Type:     eventbus.TypeStreakMilestone,
			Topics:   []string{eventbus.WorkerTopic(result.XP.WorkerID)},
			WorkerID: result.XP.WorkerID,
			Data:     map[string]any{"days": m.Days, "bonus_xp": m.BonusXP},
		})
	}
	s.PublishXPChange(ctx, &result.XP, "completion")
	return result, nil
}

// creditCompletion applies completion XP and the streak day under the version lock
func (s *GamificationService) creditCompletion(ctx context.Context, workerID, day string) (*model.CompletionResult, []config.StreakMilestone, error) {
	for attempt := 0; attempt < maxProfileUpdateRetries; attempt++ {
		row, err := s.ensureProfile(ctx, workerID)
		if err != nil {
			return nil, nil, err
		}
		if row == nil {
			return nil, nil, fmt.Errorf("gamification profile for %s vanished", workerID)
		}

		next, awarded := s.rules.AccrueDay(streakState(row), day)
		delta := s.rules.CompletionXP()
		for _, m := range awarded {
			delta += m.BonusXP
		}
		total := gamification.ApplyDelta(row.TotalXP, delta)

		updates := map[string]interface{}{
			"total_xp":          total,
			"current_level":     s.rules.Level(total),
			"current_streak":    next.Current,
			"streak_milestones": mysql.JSONIntArray(next.Milestones),
			"updated_at":        s.now(),
		}
		if next.LastDay != "" {
			updates["last_qualifying_day"] = next.LastDay
		}

		ok, err := s.repo.Gamification.UpdateWithVersion(ctx, workerID, row.Version, updates)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}

		res := &model.CompletionResult{
			XP: model.XPChange{
				WorkerID:    workerID,
				Before:      row.TotalXP,
				After:       total,
				LevelBefore: s.rules.Level(row.TotalXP),
				LevelAfter:  s.rules.Level(total),
			},
			Streak: next.Current,
		}
		for _, m := range awarded {
			res.Milestones = append(res.Milestones, m.Days)
		}
		return res, awarded, nil
	}
	return nil, nil, errProfileContention
}

// SettleCompletions settles every confirmed assignment whose shift has ended
func (s *GamificationService) SettleCompletions(ctx context.Context, limit int) (int, error) {
	pending, err := s.repo.Assignment.ListCompletionUnsettled(ctx, limit)
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, a := range pending {
		res, err := s.SettleCompletion(ctx, a.AssignmentID)
		if err != nil {
			if errors.Is(err, ErrInvalidTransition) {
				continue
			}
			logger.WarnCtx(ctx, "failed to settle completion for assignment %s: %v", a.AssignmentID, err)
			continue
		}
		if res != nil {
			settled++
		}
	}
	return settled, nil
}
