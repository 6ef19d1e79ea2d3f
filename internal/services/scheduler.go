package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"utility-telegram-bot/internal/billing"
	"utility-telegram-bot/internal/db"
	"utility-telegram-bot/internal/logger"
	"utility-telegram-bot/internal/metrics"
)

const jobTimeout = 5 * time.Minute

type SchedulerDeps struct {
	Bot           logger.Sender
	Users         *db.UserStore
	Readings      *db.ReadingStore
	Ledger        *db.PaymentLedger
	Notifier      *logger.Notifier
	OwnerUsername string
	// Backup — резервное копирование БД; nil, если драйвер его не поддерживает
	Backup   func(ctx context.Context) error
	Location *time.Location
	Logger   *zap.Logger
	Now      func() time.Time
}

// Scheduler — периодические задачи бота поверх robfig/cron
type Scheduler struct {
	deps SchedulerDeps
	cron *cron.Cron
	log  *zap.Logger
}

func NewScheduler(deps SchedulerDeps) *Scheduler {
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Scheduler{
		deps: deps,
		cron: cron.New(cron.WithLocation(deps.Location)),
		log:  deps.Logger.Named("scheduler"),
	}
}

type scheduledJob struct {
	name string
	spec string
	fn   func(context.Context) error
}

// Register добавляет задачи; пустое расписание отключает задачу
func (s *Scheduler) Register(reminderSpec, autopaySpec, backupSpec string) error {
	jobs := []scheduledJob{
		{"remind_renter", reminderSpec, s.RemindRenter},
		{"mark_month_paid", autopaySpec, s.MarkCurrentMonthPaid},
	}
	if s.deps.Backup != nil {
		jobs = append(jobs, scheduledJob{"backup_database", backupSpec, s.deps.Backup})
	}
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		name, fn := j.name, j.fn
		if _, err := s.cron.AddFunc(j.spec, func() { s.run(name, fn) }); err != nil {
			return fmt.Errorf("schedule %s (%q): %w", name, j.spec, err)
		}
		s.log.Info("job scheduled", zap.String("job", name), zap.String("spec", j.spec))
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop останавливает планировщик и ждёт завершения запущенных задач
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) run(name string, fn func(context.Context) error) {
	if s.deps.Notifier != nil {
		defer s.deps.Notifier.NotifyOnPanic("job " + name)
	}
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	started := time.Now()
	err := fn(ctx)
	metrics.UpdateJobMetrics(name, started, err)
	if err != nil {
		s.log.Error("job failed", zap.String("job", name), zap.Error(err), zap.Duration("duration", time.Since(started)))
		if s.deps.Notifier != nil {
			s.deps.Notifier.NotifyAdmin(fmt.Sprintf("Задача %s завершилась с ошибкой: %v", name, err))
		}
		return
	}
	s.log.Info("job completed", zap.String("job", name), zap.Duration("duration", time.Since(started)))
}

// RemindRenter просит арендатора прислать показания, если в этом месяце их ещё нет
func (s *Scheduler) RemindRenter(ctx context.Context) error {
	renter, err := s.deps.Users.Renter(ctx)
	if err != nil {
		return err
	}
	if renter == nil || renter.ChatID == 0 || renter.IsMuted {
		s.log.Info("no renter to remind")
		return nil
	}
	current, err := s.deps.Readings.CurrentPeriod(ctx, renter.ID, s.deps.Now().In(s.deps.Location))
	if err != nil {
		return err
	}
	if current != nil {
		return nil
	}
	for _, text := range []string{
		"Привет-привет!)",
		"Отправь мне, пожалуйста, показания счётчиков) Заранее спасибо <3",
	} {
		if _, err := s.deps.Bot.Send(tgbotapi.NewMessage(renter.ChatID, text)); err != nil {
			return fmt.Errorf("send reminder: %w", err)
		}
	}
	return nil
}

// MarkCurrentMonthPaid отмечает текущий месяц оплаченным и сообщает владельцу
func (s *Scheduler) MarkCurrentMonthPaid(ctx context.Context) error {
	now := s.deps.Now().In(s.deps.Location)
	if err := s.deps.Ledger.MarkPaid(ctx, now.Year(), int(now.Month())); err != nil {
		return err
	}
	if s.deps.OwnerUsername == "" {
		return nil
	}
	owner, err := s.deps.Users.FindByUsername(ctx, s.deps.OwnerUsername)
	if err != nil {
		return err
	}
	if owner == nil || owner.ChatID == 0 {
		return nil
	}
	text := fmt.Sprintf("%s %d отмечен как оплаченный.\nДля отмены: Оплачено → выбрать месяц, который не оплачен.",
		billing.MonthName(now.Month()), now.Year())
	_, err = s.deps.Bot.Send(tgbotapi.NewMessage(owner.ChatID, text))
	return err
}
