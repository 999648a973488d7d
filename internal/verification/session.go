package verification

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"kyc-review-api/internal/cache"
	"kyc-review-api/internal/models"
)

// TitleMarker identifies peer verification tasks among a reviewer's work.
const TitleMarker = "KYC Verification"

const taskListKey = "tasks-for-reviewer"

// TaskRepository is the task store as seen by a reviewer.
type TaskRepository interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	UpdateTaskStatus(ctx context.Context, taskID uint, update models.TaskStatusUpdate) (models.Task, error)
}

// Review is the subject currently open for inspection.
type Review struct {
	Task      models.Task
	SubjectID uint
	Record    Record
	// Loaded turns true once the record fetch returned, placeholder or not.
	Loaded bool
}

// Options tunes a Session.
type Options struct {
	// CacheTTL bounds how stale the task list may get without an explicit Refresh. Zero keeps it until invalidated.
	CacheTTL     time.Duration
	WriteTimeout time.Duration
	Log          logrus.FieldLogger
}

// Session drives one reviewer's verification work: listing pending tasks,
// opening a subject's documents and recording decisions.
type Session struct {
	tasks        TaskRepository
	fetcher      *Fetcher
	taskList     cache.Cache[string, []models.Task]
	writeTimeout time.Duration
	log          logrus.FieldLogger

	mu     sync.Mutex
	seq    uint64
	active *Review
	// listGen changes on every Refresh; a list read that started under an
	// older generation is returned but not cached.
	listGen uint64
}

// NewSession wires a Session over tasks and fetcher.
func NewSession(tasks TaskRepository, fetcher *Fetcher, opts Options) (*Session, error) {
	if tasks == nil {
		return nil, ErrRepositoryNil
	}
	if fetcher == nil {
		return nil, ErrFetcherNil
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultTimeout
	}
	if opts.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Log = l
	}
	return &Session{
		tasks:        tasks,
		fetcher:      fetcher,
		taskList:     cache.NewTTL[string, []models.Task](opts.CacheTTL),
		writeTimeout: opts.WriteTimeout,
		log:          opts.Log,
	}, nil
}

// ListPendingVerifications keeps verification tasks that are not completed, in input order.
func ListPendingVerifications(tasks []models.Task) []models.Task {
	pending := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if strings.Contains(t.Title, TitleMarker) && !t.Completed() {
			pending = append(pending, t)
		}
	}
	return pending
}

// ResolveTaskForSubject finds the one pending verification task about subjectID.
// No match and several matches are both ErrResolution.
func ResolveTaskForSubject(subjectID uint, tasks []models.Task) (models.Task, error) {
	var (
		found   models.Task
		matches int
	)
	for _, t := range ListPendingVerifications(tasks) {
		if id, ok := ExtractSubjectID(t.Description); ok && id == subjectID {
			found = t
			matches++
		}
	}
	if matches != 1 {
		return models.Task{}, fmt.Errorf("user %d (%d candidate tasks): %w", subjectID, matches, ErrResolution)
	}
	return found, nil
}

func (s *Session) allTasks(ctx context.Context) ([]models.Task, error) {
	if tasks, ok := s.taskList.Get(taskListKey); ok {
		return tasks, nil
	}
	s.mu.Lock()
	gen := s.listGen
	s.mu.Unlock()

	tasks, err := s.tasks.ListTasks(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.listGen {
		s.taskList.Set(taskListKey, tasks)
	}
	return tasks, nil
}

// PendingTasks returns the reviewer's pending verification tasks, from cache when fresh.
func (s *Session) PendingTasks(ctx context.Context) ([]models.Task, error) {
	tasks, err := s.allTasks(ctx)
	if err != nil {
		return nil, err
	}
	return ListPendingVerifications(tasks), nil
}

// FindTask looks a task up by id in the reviewer's full task list.
func (s *Session) FindTask(ctx context.Context, taskID uint) (models.Task, error) {
	tasks, err := s.allTasks(ctx)
	if err != nil {
		return models.Task{}, err
	}
	for _, t := range tasks {
		if t.ID == taskID {
			return t, nil
		}
	}
	return models.Task{}, fmt.Errorf("task %d: %w", taskID, ErrTaskNotFound)
}

// Refresh drops the cached task list so the next read goes to the store.
func (s *Session) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listGen++
	s.taskList.Invalidate(taskListKey)
}

// ViewDocuments opens task's subject for review and loads their record.
// A task whose description yields no subject is ErrExtraction and nothing is
// fetched. If another ViewDocuments or Close happened while the fetch was in
// flight, the result is dropped and ErrSuperseded returned.
func (s *Session) ViewDocuments(ctx context.Context, task models.Task) (Record, error) {
	if strings.TrimSpace(task.Description) == "" {
		return Record{}, fmt.Errorf("task %d has no description: %w", task.ID, ErrExtraction)
	}
	subject, ok := ExtractSubjectID(task.Description)
	if !ok {
		return Record{}, fmt.Errorf("task %d: %w", task.ID, ErrExtraction)
	}

	s.mu.Lock()
	s.seq++
	token := s.seq
	s.active = &Review{Task: task, SubjectID: subject}
	s.mu.Unlock()

	rec := s.fetcher.Load(ctx, subject)

	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.seq || s.active == nil {
		s.log.WithFields(logrus.Fields{"task_id": task.ID, "user_id": subject}).Debug("discarding superseded record")
		return Record{}, ErrSuperseded
	}
	s.active.Record = rec
	s.active.Loaded = true
	return rec, nil
}

// Active returns the open review, if any.
func (s *Session) Active() (Review, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return Review{}, false
	}
	return *s.active, true
}

// Close closes the open review. An in-flight fetch for it is discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Session) closeLocked() {
	s.active = nil
	s.seq++
}

// RecordDecision completes task with outcome. Invalid decisions and completed
// tasks fail before any call to the store. A failed write leaves the cache
// alone and returns a *SubmissionError; it is not retried. Success drops the
// cached list and closes whatever review is open.
func (s *Session) RecordDecision(ctx context.Context, task models.Task, outcome models.KYCAction, rejectionReason string) (models.Task, error) {
	d := Decision{TaskID: task.ID, Outcome: outcome, RejectionReason: rejectionReason}
	if err := d.Validate(); err != nil {
		return models.Task{}, err
	}
	if task.Completed() {
		return models.Task{}, fmt.Errorf("task %d: %w", task.ID, ErrTaskCompleted)
	}

	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	updated, err := s.tasks.UpdateTaskStatus(ctx, task.ID, d.StatusUpdate())
	if err != nil {
		return models.Task{}, &SubmissionError{TaskID: task.ID, Err: err}
	}

	s.Refresh()

	s.mu.Lock()
	s.closeLocked()
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"task_id": task.ID, "outcome": outcome}).Info("decision recorded")
	return updated, nil
}

// DecideForRecord records a decision for the subject of rec, resolving the
// task from the current pending list.
func (s *Session) DecideForRecord(ctx context.Context, rec Record, outcome models.KYCAction, rejectionReason string) (models.Task, error) {
	if err := (Decision{Outcome: outcome, RejectionReason: rejectionReason}).Validate(); err != nil {
		return models.Task{}, err
	}
	pending, err := s.PendingTasks(ctx)
	if err != nil {
		return models.Task{}, err
	}
	task, err := ResolveTaskForSubject(rec.UserID, pending)
	if err != nil {
		return models.Task{}, err
	}
	return s.RecordDecision(ctx, task, outcome, rejectionReason)
}
