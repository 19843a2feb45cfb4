// Package audit records administrative actions and authentication events.
//
// Every write is fire-and-forget: the caller's operation has already
// happened, so a failed audit insert is logged and counted but never
// returned.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ksk-project/employee-service/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

const writeTimeout = 5 * time.Second

var (
	writesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "employees_audit_writes_total",
			Help: "Audit entries written, by log",
		},
		[]string{"log"},
	)

	writeFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "employees_audit_write_failures_total",
			Help: "Audit entries that could not be written, by log",
		},
		[]string{"log"},
	)
)

// ActionWriter persists action log entries.
type ActionWriter interface {
	Create(ctx context.Context, entry models.ActionLog) (*models.ActionLog, error)
}

// LoginWriter persists login history entries.
type LoginWriter interface {
	Create(ctx context.Context, entry models.LoginHistory) (*models.LoginHistory, error)
}

// Publisher receives every action entry after it has been stored.
type Publisher interface {
	PublishAction(entry models.ActionLog)
}

// Recorder writes audit entries in the background.
type Recorder struct {
	log       logrus.FieldLogger
	actions   ActionWriter
	logins    LoginWriter
	publisher Publisher

	wg sync.WaitGroup
}

// NewRecorder creates a recorder. publisher may be nil.
func NewRecorder(log logrus.FieldLogger, actions ActionWriter, logins LoginWriter, publisher Publisher) *Recorder {
	return &Recorder{
		log:       log.WithField("component", "audit"),
		actions:   actions,
		logins:    logins,
		publisher: publisher,
	}
}

// Record appends an action log entry for actor. A nil actor is stored as
// NULL; the source address and user agent come from the Meta in ctx.
// Action and subject are cut to their column widths.
func (r *Recorder) Record(ctx context.Context, actor *models.User, action, subject string) {
	meta := MetaFrom(ctx)
	action = truncate(action, MaxActionLength)
	subject = truncate(subject, MaxSubjectLength)
	entry := models.ActionLog{
		UserID:    userID(actor),
		Action:    action,
		Subject:   subject,
		IP:        optionalIP(meta.IP),
		UserAgent: TruncateUserAgent(meta.UserAgent),
	}
	if actor != nil {
		username := actor.Username
		entry.ActorUsername = &username
	}

	r.async(ctx, "action", func(ctx context.Context) error {
		stored, err := r.actions.Create(ctx, entry)
		if err != nil {
			return err
		}
		if r.publisher != nil {
			stored.ActorUsername = entry.ActorUsername
			r.publisher.PublishAction(*stored)
		}
		return nil
	}, logrus.Fields{"action": action, "subject": subject})
}

// LoggedIn records a successful authentication.
func (r *Recorder) LoggedIn(ctx context.Context, user *models.User) {
	r.recordLogin(ctx, user, usernameOf(user), models.LoginEventLogin, true)
}

// LoggedOut records an explicit logout.
func (r *Recorder) LoggedOut(ctx context.Context, user *models.User) {
	r.recordLogin(ctx, user, usernameOf(user), models.LoginEventLogout, true)
}

// LoginFailed records a rejected attempt. No user is linked, only the
// handle that was tried, cut to MaxUsernameLength.
func (r *Recorder) LoginFailed(ctx context.Context, username string) {
	r.recordLogin(ctx, nil, username, models.LoginEventFailed, false)
}

func (r *Recorder) recordLogin(ctx context.Context, user *models.User, username string, event models.LoginEvent, success bool) {
	meta := MetaFrom(ctx)
	username = truncate(username, MaxUsernameLength)
	entry := models.LoginHistory{
		UserID:    userID(user),
		Username:  username,
		Event:     event,
		Success:   success,
		IP:        optionalIP(meta.IP),
		UserAgent: TruncateUserAgent(meta.UserAgent),
	}

	r.async(ctx, "login", func(ctx context.Context) error {
		_, err := r.logins.Create(ctx, entry)
		return err
	}, logrus.Fields{"event": event, "username": username})
}

// async runs write detached from the caller's cancellation.
func (r *Recorder) async(ctx context.Context, logName string, write func(context.Context) error, fields logrus.Fields) {
	detached := context.WithoutCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				writeFailuresTotal.WithLabelValues(logName).Inc()
				r.log.WithFields(fields).WithField("panic", p).Error("Audit write panicked")
			}
		}()

		wctx, cancel := context.WithTimeout(detached, writeTimeout)
		defer cancel()

		if err := write(wctx); err != nil {
			writeFailuresTotal.WithLabelValues(logName).Inc()
			r.log.WithError(err).WithFields(fields).WithField("log", logName).
				Error("Failed to write audit entry")
			return
		}

		writesTotal.WithLabelValues(logName).Inc()
	}()
}

// Close waits for in-flight writes.
func (r *Recorder) Close() {
	r.wg.Wait()
}

func userID(u *models.User) *uuid.UUID {
	if u == nil || u.ID == uuid.Nil {
		return nil
	}
	id := u.ID
	return &id
}

func usernameOf(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.Username
}

func optionalIP(ip string) *string {
	if ip == "" {
		return nil
	}
	return &ip
}
