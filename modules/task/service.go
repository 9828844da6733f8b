// Package task provides the task service with caching support.
package task

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/example/task-store/domain/task"
	"github.com/example/task-store/modules/cache"
	"golang.org/x/sync/singleflight"
)

const (
	defaultReportWeeks = 4
	maxReportWeeks     = 52
)

// Service provides task operations with caching.
type Service struct {
	repo    *task.Repository
	cache   cache.Service
	sfGroup singleflight.Group // Prevents cache stampede
}

// NewService creates a new task service.
func NewService(repo *task.Repository, c cache.Service) *Service {
	return &Service{
		repo:  repo,
		cache: c,
	}
}

// cacheKeyByID returns the cache key for a task by ID.
func cacheKeyByID(id uint) string {
	return "id:" + strconv.FormatUint(uint64(id), 10)
}

// cacheKeyList returns the cache key for a task list, per status filter.
func cacheKeyList(status *task.Status) string {
	if status == nil {
		return "list:all"
	}
	return "list:" + string(*status)
}

// cacheKeyWeekly returns the cache key for the weekly report.
func cacheKeyWeekly(weeks int) string {
	return "weekly:" + strconv.Itoa(weeks)
}

// Create validates the request and inserts a new task. Status defaults
// to Pending when omitted.
func (s *Service) Create(ctx context.Context, req *task.CreateTaskRequest) (*task.Task, error) {
	verr := &task.ValidationError{}
	if strings.TrimSpace(req.Title) == "" {
		verr.Add("title", "must not be empty")
	}
	status := task.StatusPending
	if req.Status != nil {
		if !req.Status.IsValid() {
			verr.Add("status", statusMessage(*req.Status))
		} else {
			status = *req.Status
		}
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	t := &task.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	s.invalidateCaches(ctx)

	log.Printf("[task] Created task ID=%d, caches invalidated", t.ID)
	return t, nil
}

// GetByID retrieves a task by ID with caching (cache-aside pattern).
// Uses singleflight to prevent cache stampede on concurrent misses.
func (s *Service) GetByID(ctx context.Context, id uint) (*task.Task, bool, error) {
	cacheKey := cacheKeyByID(id)

	var cached task.Task
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		log.Printf("[task] Cache error for ID=%d: %v", id, err)
	}
	if found {
		return &cached, true, nil
	}

	sfKey := "task:" + strconv.FormatUint(uint64(id), 10)
	val, err, _ := s.sfGroup.Do(sfKey, func() (any, error) {
		return s.repo.GetByID(ctx, id)
	})
	if err != nil {
		return nil, false, err
	}
	t := val.(*task.Task)

	if err := s.cache.Set(ctx, cacheKey, t); err != nil {
		log.Printf("[task] Warning: failed to cache task ID=%d: %v", id, err)
	}

	return t, false, nil
}

// List retrieves all tasks, optionally filtered by status, with caching.
func (s *Service) List(ctx context.Context, status *task.Status) ([]task.Task, bool, error) {
	if status != nil && !status.IsValid() {
		return nil, false, task.NewValidationError("status", statusMessage(*status))
	}

	cacheKey := cacheKeyList(status)

	var cached []task.Task
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		log.Printf("[task] Cache error for list: %v", err)
	}
	if found {
		return cached, true, nil
	}

	tasks, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, false, err
	}
	if tasks == nil {
		tasks = []task.Task{}
	}

	if err := s.cache.Set(ctx, cacheKey, tasks); err != nil {
		log.Printf("[task] Warning: failed to cache list: %v", err)
	}

	return tasks, false, nil
}

// Update merges the supplied fields onto the existing task. Absent
// fields are left unchanged; a present empty description clears it.
func (s *Service) Update(ctx context.Context, id uint, req *task.UpdateTaskRequest) (*task.Task, error) {
	verr := &task.ValidationError{}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		verr.Add("title", "must not be empty")
	}
	if req.Status != nil && !req.Status.IsValid() {
		verr.Add("status", statusMessage(*req.Status))
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = req.Description
	}
	if req.Status != nil {
		t.Status = *req.Status
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	s.invalidateCaches(ctx)

	log.Printf("[task] Updated task ID=%d, caches invalidated", id)
	return t, nil
}

// Delete removes a task permanently.
func (s *Service) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateCaches(ctx)

	log.Printf("[task] Deleted task ID=%d, caches invalidated", id)
	return nil
}

// WeeklyCompletion computes the completion-rate report for the trailing
// window of the given number of weeks. Buckets follow ISO-8601 week
// numbering via time.Time.ISOWeek, so a bucket can span a year
// boundary under the ISO rules. weeks falls back to 4 when not
// positive and is capped at 52.
func (s *Service) WeeklyCompletion(ctx context.Context, weeks int) ([]task.WeeklyCompletion, bool, error) {
	if weeks <= 0 {
		weeks = defaultReportWeeks
	}
	if weeks > maxReportWeeks {
		weeks = maxReportWeeks
	}

	cacheKey := cacheKeyWeekly(weeks)

	var cached []task.WeeklyCompletion
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		log.Printf("[task] Cache error for weekly report: %v", err)
	}
	if found {
		return cached, true, nil
	}

	cutoff := time.Now().AddDate(0, 0, -7*weeks)
	tasks, err := s.repo.CreatedSince(ctx, cutoff)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build weekly report: %w", err)
	}

	rows := bucketByISOWeek(tasks)

	if err := s.cache.Set(ctx, cacheKey, rows); err != nil {
		log.Printf("[task] Warning: failed to cache weekly report: %v", err)
	}

	return rows, false, nil
}

// bucketByISOWeek groups tasks into (year, ISO week) buckets and
// computes per-bucket completion percentages, sorted ascending.
func bucketByISOWeek(tasks []task.Task) []task.WeeklyCompletion {
	type bucketKey struct {
		year int
		week int
	}

	buckets := make(map[bucketKey]*task.WeeklyCompletion)
	for i := range tasks {
		year, week := tasks[i].CreatedAt.ISOWeek()
		k := bucketKey{year, week}
		b, ok := buckets[k]
		if !ok {
			b = &task.WeeklyCompletion{Year: year, WeekNumber: week}
			buckets[k] = b
		}
		b.TotalTasks++
		if tasks[i].Status == task.StatusCompleted {
			b.CompletedTasks++
		}
	}

	rows := make([]task.WeeklyCompletion, 0, len(buckets))
	for _, b := range buckets {
		if b.TotalTasks > 0 {
			pct := float64(b.CompletedTasks) / float64(b.TotalTasks) * 100
			b.CompletionPercentage = math.Round(pct*100) / 100
		}
		rows = append(rows, *b)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Year != rows[j].Year {
			return rows[i].Year < rows[j].Year
		}
		return rows[i].WeekNumber < rows[j].WeekNumber
	})
	return rows
}

// invalidateCaches drops every cached read after a mutation.
func (s *Service) invalidateCaches(ctx context.Context) {
	if err := s.cache.DeletePattern(ctx, "*"); err != nil {
		log.Printf("[task] Warning: failed to invalidate caches: %v", err)
	}
}

func statusMessage(got task.Status) string {
	return fmt.Sprintf("must be %q or %q, got %q", task.StatusPending, task.StatusCompleted, string(got))
}
