package core

import (
	"context"
	"sync"
	"time"

	"github.com/mikey/spam-risk-scorer/internal/utils"
	"go.uber.org/zap"
)

const (
	day = 24 * time.Hour

	// minHistoryForPatterns is the history size below which burst and time patterns are not evaluated
	minHistoryForPatterns = 5

	nightStartHour     = 2
	nightEndHour       = 5
	nightPenalty       = 0.5
	nightUsualFraction = 0.1

	massMailingDailyCount  = 10
	massMailingBurstRatio  = 3.0
	massMailingSimilarity  = 0.9
	massMailingRecipients  = 20
	baseReputation         = 0.5
	newSenderPenalty       = 0.2
	highVolumeDailyCount   = 20
	highVolumePenalty      = 0.3
	highBurstRatio         = 5.0
	highBurstPenalty       = 0.25
	repeatedContentRate    = 0.8
	repeatedContentPenalty = 0.2
	oddTimeScore           = 0.7
	oddTimePenalty         = 0.15
	subjectChurnRate       = 0.8
	subjectChurnPenalty    = 0.1
)

// BehavioralAnalyzer scores an email against the stored history of its sender
// and records the email in that history.
type BehavioralAnalyzer struct {
	store    HistoryStore
	text     *utils.TextProcessor
	logger   *zap.Logger
	metrics  MetricsRecorder
	location *time.Location
	locks    *keyedMutex
}

// NewBehavioralAnalyzer creates a new behavioral analyzer.
// Hours and weekdays are taken in location, UTC when nil.
func NewBehavioralAnalyzer(
	store HistoryStore,
	text *utils.TextProcessor,
	logger *zap.Logger,
	metrics MetricsRecorder,
	location *time.Location,
) *BehavioralAnalyzer {
	if location == nil {
		location = time.UTC
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &BehavioralAnalyzer{
		store:    store,
		text:     text,
		logger:   logger,
		metrics:  metrics,
		location: location,
		locks:    newKeyedMutex(),
	}
}

// Analyze computes the behavioral metrics of one email and appends it to the sender history.
// Storage failures are logged and never returned.
func (a *BehavioralAnalyzer) Analyze(
	ctx context.Context,
	from string,
	date time.Time,
	subject string,
	recipientsCount int,
	content string,
) *BehavioralResult {
	sender := a.text.SenderKey(from)
	unlock := a.locks.Lock(sender)
	defer unlock()

	local := date.In(a.location)
	current := EmailRecord{
		Date:            date,
		Subject:         a.text.SanitizeUTF8(subject),
		RecipientsCount: recipientsCount,
		ContentHash:     a.text.ContentHash(content),
		HourOfDay:       local.Hour(),
		DayOfWeek:       WeekdayOf(local.Weekday()),
	}

	history, err := a.store.History(ctx, sender)
	if err != nil {
		a.logger.Error("Failed to read sender history, treating sender as unseen",
			zap.String("sender", sender), zap.Error(err))
		a.metrics.StoreFailure("history")
		history = nil
	}

	result := evaluateBehavior(sender, current, history)

	if err := a.store.Append(ctx, sender, current); err != nil {
		a.logger.Error("Failed to append sender history", zap.String("sender", sender), zap.Error(err))
		a.metrics.StoreFailure("append")
	} else if err := a.store.Persist(ctx); err != nil {
		a.logger.Error("Failed to persist sender history", zap.String("sender", sender), zap.Error(err))
		a.metrics.StoreFailure("persist")
	}

	a.logger.Debug("Behavioral analysis complete",
		zap.String("sender", sender),
		zap.Bool("new_sender", result.IsNewSender),
		zap.Float64("reputation", result.ReputationScore),
		zap.Bool("mass_mailing", result.MassMailingIndicator))

	return result
}

// evaluateBehavior derives the behavioral result of current against history.
// history is in insertion order; dates need not be sorted.
func evaluateBehavior(sender string, current EmailRecord, history []EmailRecord) *BehavioralResult {
	last24h := since(history, current.Date.Add(-day))
	last7d := since(history, current.Date.Add(-7*day))
	last30d := since(history, current.Date.Add(-30*day))

	result := &BehavioralResult{
		From:                  sender,
		IsNewSender:           len(history) == 0,
		EmailCountLast24h:     len(last24h) + 1,
		EmailCountLast7d:      len(last7d) + 1,
		BurstRatio:            burstRatio(history, last24h),
		AvgRecipients:         avgRecipients(history, current.RecipientsCount),
		HourOfDay:             current.HourOfDay,
		DayOfWeek:             current.DayOfWeek,
		ContentSimilarityRate: contentSimilarity(last7d, current.ContentHash),
		SubjectChangeRate:     subjectChangeRate(last30d, current.Subject),
		TimeAnomalyScore:      timeAnomaly(history, current.HourOfDay, current.DayOfWeek),
		FirstSeenDate:         current.Date,
	}
	if len(history) > 0 {
		result.FirstSeenDate = history[0].Date
	}

	result.MassMailingIndicator = len(last24h) > massMailingDailyCount ||
		result.BurstRatio > massMailingBurstRatio ||
		result.ContentSimilarityRate > massMailingSimilarity ||
		current.RecipientsCount > massMailingRecipients

	result.ReputationScore = reputation(result)
	return result
}

func since(history []EmailRecord, cutoff time.Time) []EmailRecord {
	var out []EmailRecord
	for _, r := range history {
		if !r.Date.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// burstRatio is the peak to mean ratio of per-hour counts over the last 24h
func burstRatio(history, last24h []EmailRecord) float64 {
	if len(history) < minHistoryForPatterns || len(last24h) == 0 {
		return 1.0
	}

	buckets := make(map[int]int)
	for _, r := range last24h {
		buckets[r.HourOfDay]++
	}

	peak := 0
	for _, n := range buckets {
		if n > peak {
			peak = n
		}
	}
	mean := float64(len(last24h)) / float64(len(buckets))
	return float64(peak) / mean
}

func avgRecipients(history []EmailRecord, current int) float64 {
	if len(history) == 0 {
		return float64(current)
	}
	total := 0
	for _, r := range history {
		total += r.RecipientsCount
	}
	return float64(total) / float64(len(history))
}

func contentSimilarity(last7d []EmailRecord, hash string) float64 {
	if len(last7d) == 0 {
		return 0.0
	}
	same := 0
	for _, r := range last7d {
		if r.ContentHash == hash {
			same++
		}
	}
	return float64(same) / float64(len(last7d))
}

func subjectChangeRate(last30d []EmailRecord, subject string) float64 {
	if len(last30d) < 2 {
		return 0.0
	}
	changes := 0
	for i := 1; i < len(last30d); i++ {
		if last30d[i].Subject != last30d[i-1].Subject {
			changes++
		}
	}
	if last30d[len(last30d)-1].Subject != subject {
		changes++
	}
	return float64(changes) / float64(len(last30d))
}

func timeAnomaly(history []EmailRecord, hour int, weekday Weekday) float64 {
	if len(history) < minHistoryForPatterns {
		return 0.0
	}

	sameHour, sameDay, night := 0, 0, 0
	for _, r := range history {
		if r.HourOfDay == hour {
			sameHour++
		}
		if r.DayOfWeek == weekday {
			sameDay++
		}
		if isNight(r.HourOfDay) {
			night++
		}
	}

	n := float64(len(history))
	score := (1 - float64(sameHour)/n) + (1 - float64(sameDay)/n)
	if isNight(hour) && float64(night)/n < nightUsualFraction {
		score += nightPenalty
	}
	return min(score/2, 1.0)
}

func isNight(hour int) bool {
	return hour >= nightStartHour && hour <= nightEndHour
}

func reputation(r *BehavioralResult) float64 {
	score := baseReputation
	if r.IsNewSender {
		score -= newSenderPenalty
	}
	if r.EmailCountLast24h > highVolumeDailyCount {
		score -= highVolumePenalty
	}
	if r.BurstRatio > highBurstRatio {
		score -= highBurstPenalty
	}
	if r.ContentSimilarityRate > repeatedContentRate {
		score -= repeatedContentPenalty
	}
	if r.TimeAnomalyScore > oddTimeScore {
		score -= oddTimePenalty
	}
	if r.SubjectChangeRate > subjectChurnRate {
		score -= subjectChurnPenalty
	}
	return clamp01(score)
}

func clamp01(v float64) float64 {
	return max(0, min(v, 1))
}

// keyedMutex serializes work per sender key
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyLock)}
}

// Lock blocks until key is free and returns the matching unlock
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
