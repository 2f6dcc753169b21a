package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/singleflight"

	emaildomain "mail-assistant-backend/internal/email/domain"
	"mail-assistant-backend/internal/email/repository"
	"mail-assistant-backend/pkg/ai"
)

// SummaryUsecase produces the consolidated daily mail summary.
type SummaryUsecase interface {
	// GenerateDailySummary folds all attributed mail for the calendar
	// day containing date into one bounded summary. Results are cached
	// by (whoami, date, record count); a repeat request for an unchanged
	// day makes no generative calls.
	GenerateDailySummary(ctx context.Context, date time.Time) (*emaildomain.DailySummary, error)
}

// summaryUsecase implements SummaryUsecase: an incremental fold over the
// day's attributed records. Records are batched into windows bounded by
// windowBudget encoded bytes; each full window is flushed through the
// completion model together with the prior fold's output, which the
// prompt instructs the model to preserve. An arbitrarily large day thus
// converges to one bounded summary without losing early facts.
type summaryUsecase struct {
	emailRepo    repository.EmailRepository
	completer    ai.Completer
	whoami       string
	windowBudget int

	cache *ristretto.Cache[string, *emaildomain.DailySummary]
	group singleflight.Group
}

// NewSummaryUsecase creates a new summary usecase with a bounded result
// cache of cacheSize entries.
func NewSummaryUsecase(
	emailRepo repository.EmailRepository,
	completer ai.Completer,
	whoami string,
	windowBudget int,
	cacheSize int,
) (SummaryUsecase, error) {
	if windowBudget <= 0 {
		windowBudget = 2000
	}
	if cacheSize <= 0 {
		cacheSize = 100
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, *emaildomain.DailySummary]{
		NumCounters: int64(cacheSize) * 10,
		MaxCost:     int64(cacheSize),
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("creating summary cache: %w", err)
	}

	return &summaryUsecase{
		emailRepo:    emailRepo,
		completer:    completer,
		whoami:       whoami,
		windowBudget: windowBudget,
		cache:        cache,
	}, nil
}

func (u *summaryUsecase) GenerateDailySummary(ctx context.Context, date time.Time) (*emaildomain.DailySummary, error) {
	count, err := u.emailRepo.CountAttributedByDate(date)
	if err != nil {
		return nil, fmt.Errorf("counting attributed mail: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: %s", emaildomain.ErrNoMailData, date.Format("2006-01-02"))
	}

	// The key embeds the record count, so new mail arriving for an
	// already-summarized day produces a different key and the stale
	// entry simply stops being referenced.
	key := fmt.Sprintf("%s|%s|%d", u.whoami, date.Format("2006-01-02"), count)

	if cached, ok := u.cache.Get(key); ok {
		return cached, nil
	}

	// Collapse a cache-miss stampede: concurrent requests for the same
	// key share one in-flight fold instead of each paying for model calls.
	result, err, _ := u.group.Do(key, func() (interface{}, error) {
		if cached, ok := u.cache.Get(key); ok {
			return cached, nil
		}
		summary, err := u.fold(ctx, date)
		if err != nil {
			return nil, err
		}
		summary.Date = date.Format("2006-01-02")
		u.cache.Set(key, summary, 1)
		u.cache.Wait()
		return summary, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*emaildomain.DailySummary), nil
}

// fold is the windowed aggregation loop. Records are taken in UID order;
// before a record that would overflow the budget is added, the non-empty
// pending window is flushed and the prior summary replaced with the
// flush output. A single record larger than the whole budget is never
// split: it goes whole into its own window.
func (u *summaryUsecase) fold(ctx context.Context, date time.Time) (*emaildomain.DailySummary, error) {
	records, err := u.emailRepo.ListAttributedByDate(date)
	if err != nil {
		return nil, fmt.Errorf("loading attributed mail: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", emaildomain.ErrNoMailData, date.Format("2006-01-02"))
	}

	var prior *emaildomain.DailySummary
	var window []MailInfo
	windowSize := 0

	for _, rec := range records {
		info := mailInfoFor(rec)
		contribution := encodedSize(info)

		if windowSize+contribution > u.windowBudget && len(window) > 0 {
			prior, err = u.flush(ctx, prior, window)
			if err != nil {
				return nil, err
			}
			window = window[:0]
			windowSize = 0
		}

		window = append(window, info)
		windowSize += contribution
	}

	if len(window) == 0 {
		return nil, emaildomain.ErrSummaryUnavailable
	}
	return u.flush(ctx, prior, window)
}

// flush sends one window (plus the prior summary, verbatim) through the
// completion model and returns the new running summary.
func (u *summaryUsecase) flush(ctx context.Context, prior *emaildomain.DailySummary, window []MailInfo) (*emaildomain.DailySummary, error) {
	prompt, err := buildFoldPrompt(u.whoami, prior, window)
	if err != nil {
		return nil, err
	}

	reply, usage, err := u.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("summary fold: %w", err)
	}
	log.Debug("summary fold complete", "window_records", len(window), "response_tokens", usage.ResponseTokens)

	return parseSummaryReply(reply)
}
