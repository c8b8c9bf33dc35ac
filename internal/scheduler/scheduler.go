// Package scheduler refreshes the subscribed calendar feed on a cron
// schedule and loads the result onto the board.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"glassplanner/internal/dashboard"
	"glassplanner/internal/ics"
	appLog "glassplanner/internal/log"
	"glassplanner/internal/model"
)

// FeedFetcher downloads one feed. *ics.Fetcher implements it.
type FeedFetcher interface {
	FetchOne(ctx context.Context, src ics.Source) (ics.FetchResult, error)
}

// FeedParser turns a feed body into assignments. *ics.Parser implements it.
type FeedParser interface {
	Parse(doc string) ([]model.Assignment, error)
}

// Status is the outcome of the last refresh.
type Status struct {
	LastRun   time.Time `json:"last_run"`
	LastError string    `json:"last_error,omitempty"`
	Count     int       `json:"count"`
	FromCache bool      `json:"from_cache"`
}

// Scheduler refreshes a single feed.
type Scheduler struct {
	schedule cron.Schedule
	source   ics.Source
	fetcher  FeedFetcher
	parser   FeedParser
	board    *dashboard.Board

	mu     sync.Mutex
	status Status
}

// New validates spec (standard 5-field cron) and returns a Scheduler.
func New(spec string, src ics.Source, fetcher FeedFetcher, parser FeedParser, board *dashboard.Board) (*Scheduler, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("scheduler: invalid refresh spec %q: %w", spec, err)
	}
	return &Scheduler{
		schedule: sched,
		source:   src,
		fetcher:  fetcher,
		parser:   parser,
		board:    board,
	}, nil
}

// Refresh fetches and parses the feed once. On success the board is
// replaced; on failure the previous board stays.
func (s *Scheduler) Refresh(ctx context.Context) error {
	res, err := s.fetcher.FetchOne(ctx, s.source)
	if err == nil {
		var list []model.Assignment
		list, err = s.parser.Parse(string(res.Body))
		if err == nil {
			s.board.Load(list, "feed:"+s.source.Name)
			s.setStatus(Status{LastRun: time.Now(), Count: len(list), FromCache: res.FromCache})
			appLog.Info("feed refresh completed", "name", s.source.Name, "assignment_count", len(list), "from_cache", res.FromCache)
			return nil
		}
	}

	s.setStatus(Status{LastRun: time.Now(), LastError: err.Error()})
	appLog.Error("feed refresh failed", err, "name", s.source.Name)
	return err
}

// Status returns the outcome of the last refresh.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Scheduler) setStatus(st Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

// Run refreshes immediately, then on every schedule tick until ctx is
// cancelled. It waits for a running refresh to finish before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	_ = s.Refresh(ctx)

	c := cron.New()
	c.Schedule(s.schedule, cron.FuncJob(func() {
		_ = s.Refresh(ctx)
	}))
	c.Start()
	appLog.Info("feed scheduler started", "name", s.source.Name)

	<-ctx.Done()
	<-c.Stop().Done()
	appLog.Info("feed scheduler stopped", "name", s.source.Name)
	return nil
}
