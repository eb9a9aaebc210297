package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Kobaiko/carbculator/metrics"
	"github.com/Kobaiko/carbculator/models"
	"github.com/Kobaiko/carbculator/nutrition"
	"github.com/Kobaiko/carbculator/utils"
)

const (
	jobSnapshot  = "daily_snapshot"
	jobHydration = "hydration_reminder"
	jobDigest    = "weekly_digest"

	userBatchSize = 200
	jobTimeout    = 10 * time.Minute
)

type digestMailer interface {
	SendWeeklyDigest(ctx context.Context, to string, d utils.Digest) error
}

type SchedulerOptions struct {
	SnapshotSpec  string
	HydrationSpec string
	HydrationHour int
	DigestSpec    string
}

// Scheduler runs the periodic per-user jobs. Jobs run hourly and act on
// users whose local clock matches, so every timezone gets its own
// midnight and reminder hour.
type Scheduler struct {
	db     *gorm.DB
	dash   *DashboardService
	alerts alertEmitter
	mailer digestMailer
	opts   SchedulerOptions
	cron   *cron.Cron
	log    *logrus.Entry
	now    func() time.Time
}

func NewScheduler(db *gorm.DB, dash *DashboardService, alerts alertEmitter, mailer digestMailer, opts SchedulerOptions, log *logrus.Logger) *Scheduler {
	entry := log.WithField("component", "scheduler")
	return &Scheduler{
		db:     db,
		dash:   dash,
		alerts: alerts,
		mailer: mailer,
		opts:   opts,
		cron: cron.New(
			cron.WithLogger(cron.PrintfLogger(entry)),
			cron.WithChain(cron.Recover(cron.PrintfLogger(entry))),
		),
		log: entry,
		now: time.Now,
	}
}

func (s *Scheduler) Start() error {
	jobs := []struct {
		spec, name string
		fn         func(context.Context) error
	}{
		{s.opts.SnapshotSpec, jobSnapshot, s.RunSnapshot},
		{s.opts.HydrationSpec, jobHydration, s.RunHydrationReminder},
		{s.opts.DigestSpec, jobDigest, s.RunWeeklyDigest},
	}
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(j.spec, s.wrap(j.name, j.fn)); err != nil {
			return fmt.Errorf("schedule %s: %w", j.name, err)
		}
	}
	s.cron.Start()
	s.log.WithField("jobs", len(s.cron.Entries())).Info("scheduler started")
	return nil
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out")
	}
}

func (s *Scheduler) wrap(name string, fn func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		start := time.Now()
		err := fn(ctx)
		metrics.RecordJob(name, err, time.Since(start))
		l := s.log.WithFields(logrus.Fields{"job": name, "duration": time.Since(start).String()})
		if err != nil {
			l.WithError(err).Error("job failed")
			return
		}
		l.Info("job finished")
	}
}

// eachUser calls fn for every user, in batches.
func (s *Scheduler) eachUser(ctx context.Context, fn func(u *models.User)) error {
	var batch []models.User
	return s.db.WithContext(ctx).FindInBatches(&batch, userBatchSize, func(tx *gorm.DB, _ int) error {
		for i := range batch {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fn(&batch[i])
		}
		return nil
	}).Error
}

// RunSnapshot stores yesterday's summary for users whose local day has
// just rolled over.
func (s *Scheduler) RunSnapshot(ctx context.Context) error {
	now := s.now()
	var done, failed int
	err := s.eachUser(ctx, func(u *models.User) {
		today := nutrition.DayStart(now, u.Location())
		if now.Sub(today) >= time.Hour {
			return
		}
		yesterday := nutrition.AddDays(today, -1)
		if _, err := s.dash.Snapshot(ctx, u, yesterday); err != nil {
			failed++
			s.log.WithError(err).WithField("user_id", u.ID).Warn("snapshot failed")
			return
		}
		done++
	})
	s.log.WithFields(logrus.Fields{"snapshots": done, "failed": failed}).Debug("snapshot pass")
	return err
}

// RunHydrationReminder nudges users at their reminder hour whose water for
// today is below half of the goal.
func (s *Scheduler) RunHydrationReminder(ctx context.Context) error {
	if s.alerts == nil {
		return nil
	}
	now := s.now()
	return s.eachUser(ctx, func(u *models.User) {
		loc := u.Location()
		if now.In(loc).Hour() != s.opts.HydrationHour {
			return
		}
		g, err := loadGoal(ctx, s.db, u.ID)
		if err != nil || g.WaterMl <= 0 {
			return
		}
		start, end := nutrition.DayRange(now, loc)
		var water []models.WaterEntry
		err = s.db.WithContext(ctx).
			Where("user_id = ? AND logged_at >= ? AND logged_at < ?", u.ID, start, end).
			Find(&water).Error
		if err != nil {
			s.log.WithError(err).WithField("user_id", u.ID).Warn("hydration check failed")
			return
		}
		total := nutrition.SumWater(water)
		if total >= g.WaterMl/2 {
			return
		}
		msg := fmt.Sprintf("You've had %.0f ml of your %.0f ml water goal today. Time for a glass!", total, g.WaterMl)
		if _, err := s.alerts.EmitOncePerDay(ctx, u.ID, loc, now, AlertInfo, "hydration_reminder", msg); err != nil {
			s.log.WithError(err).WithField("user_id", u.ID).Warn("hydration reminder failed")
		}
	})
}

// RunWeeklyDigest mails every user a summary of the previous Monday-Sunday.
func (s *Scheduler) RunWeeklyDigest(ctx context.Context) error {
	if s.mailer == nil {
		return nil
	}
	now := s.now()
	var sent int
	err := s.eachUser(ctx, func(u *models.User) {
		d, err := s.digest(ctx, u, now)
		if err != nil {
			s.log.WithError(err).WithField("user_id", u.ID).Warn("digest build failed")
			return
		}
		if err := s.mailer.SendWeeklyDigest(ctx, u.Email, *d); err != nil {
			s.log.WithError(err).WithField("user_id", u.ID).Warn("digest send failed")
			return
		}
		sent++
	})
	s.log.WithField("sent", sent).Info("weekly digests sent")
	return err
}

func (s *Scheduler) digest(ctx context.Context, u *models.User, now time.Time) (*utils.Digest, error) {
	loc := u.Location()
	thisWeek := nutrition.WeekStart(nutrition.DayStart(now, loc))
	from, last := nutrition.AddDays(thisWeek, -7), nutrition.AddDays(thisWeek, -1)

	in, err := s.dash.load(ctx, u, from, thisWeek)
	if err != nil {
		return nil, err
	}
	buckets, err := nutrition.Rollup(in, from, last, nutrition.PeriodWeek)
	if err != nil {
		return nil, err
	}
	h, err := nutrition.BuildHistory(in, from, last, thisWeek)
	if err != nil {
		return nil, err
	}
	b := buckets[0]

	d := &utils.Digest{
		Name:          u.FullName,
		From:          b.Start,
		To:            b.End,
		DaysLogged:    b.DaysLogged,
		AvgCalories:   b.Average.Calories,
		GoalCalories:  in.Goal.Calories,
		AvgProtein:    b.Average.Protein,
		AvgWaterMl:    b.Average.WaterMl,
		Adherence:     b.Adherence,
		CurrentStreak: h.Summary.CurrentStreak,
	}
	for _, f := range nutrition.TopFoods(in.Entries, 3) {
		d.TopFoods = append(d.TopFoods, f.Name)
	}
	return d, nil
}
