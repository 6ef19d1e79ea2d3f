package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"utility-telegram-bot/config"
	"utility-telegram-bot/internal/admin"
	"utility-telegram-bot/internal/billing"
	"utility-telegram-bot/internal/bot"
	"utility-telegram-bot/internal/db"
	"utility-telegram-bot/internal/logger"
	"utility-telegram-bot/internal/metrics"
	"utility-telegram-bot/internal/services"
)

const serviceName = "utility-bot"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "utility-bot",
		Short:        "Telegram-бот для показаний счетчиков и счетов за квартиру",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context())
		},
	}
	root.AddCommand(newRunCmd(), newMigrateCmd(), newBillCmd(), newSeedCmd())
	return root
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Запустить бота (long polling), планировщик и /metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context())
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Создать или обновить таблицы",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			a.log.Info("migrations applied")
			return nil
		},
	}
}

func newBillCmd() *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "bill",
		Short: "Посчитать счет пользователя и вывести его",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			bill, err := a.calculator(nil).Calculate(cmd.Context(), userID, time.Now().In(a.cfg.Location))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), bill.Text())
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "Telegram ID пользователя")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newSeedCmd() *cobra.Command {
	var year, month int
	cmd := &cobra.Command{
		Use:   "seed-payments",
		Short: "Отметить месяцы 1..month года year оплаченными",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			created, err := a.ledger.SeedPaid(cmd.Context(), year, month)
			if err != nil {
				return err
			}
			a.log.Info("payment history seeded", zap.Int("year", year), zap.Int("upto_month", month), zap.Int("created", created))
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "год")
	cmd.Flags().IntVar(&month, "month", 0, "последний оплаченный месяц (1-12)")
	_ = cmd.MarkFlagRequired("month")
	return cmd
}

// app — общие зависимости всех команд
type app struct {
	cfg      *config.AppConfig
	log      *zap.Logger
	conn     *gorm.DB
	users    *db.UserStore
	readings *db.ReadingStore
	rates    *db.RateStore
	ledger   *db.PaymentLedger
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(serviceName)
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, conn); err != nil {
		_ = db.Close(conn)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &app{
		cfg:      cfg,
		log:      log,
		conn:     conn,
		users:    db.NewUserStore(conn, cfg.RenterUsername),
		readings: db.NewReadingStore(conn),
		rates:    db.NewRateStore(conn),
		ledger:   db.NewPaymentLedger(conn),
	}, nil
}

func (a *app) close() {
	if err := db.Close(a.conn); err != nil {
		a.log.Warn("failed to close database", zap.Error(err))
	}
	_ = a.log.Sync()
}

func (a *app) calculator(notifier billing.OperatorNotifier) *billing.Calculator {
	client := services.NewHTTPClient(a.cfg.HTTPTimeout)
	var heating billing.HeatingProvider
	if a.cfg.HeatingEnabled() {
		heating = services.NewHeatingClient(services.HeatingConfig{
			Login:      a.cfg.HeatingLogin,
			Password:   a.cfg.HeatingPassword,
			LoginURL:   a.cfg.HeatingLoginAPI,
			BillURL:    a.cfg.HeatingBillAPI,
			ProviderID: a.cfg.HeatingProviderID,
		}, client)
	}
	return billing.NewCalculator(billing.Deps{
		Counters: a.readings,
		Rates:    a.rates,
		Payments: a.ledger,
		Exchange: services.NewExchangeRateClient(a.cfg.ExchangeRateURL, client),
		Heating:  heating,
		Notifier: notifier,
		Logger:   a.log.Named("billing"),
	})
}

func runBot(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.cfg.RequireBot(); err != nil {
		return err
	}

	if a.cfg.SeedPaidYear > 0 && a.cfg.SeedPaidMonth > 0 {
		created, err := a.ledger.SeedPaid(ctx, a.cfg.SeedPaidYear, a.cfg.SeedPaidMonth)
		if err != nil {
			return fmt.Errorf("seed payments: %w", err)
		}
		a.log.Info("payment history seeded", zap.Int("created", created))
	}

	api, err := tgbotapi.NewBotAPI(a.cfg.BotToken)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}
	notifier := logger.NewNotifier(api, a.cfg.OperatorChatID, a.log.Named("notifier"))
	calc := a.calculator(notifier)

	var mailer bot.BillMailer
	if a.cfg.MailEnabled() {
		mailer = services.NewMailer(services.MailConfig{
			APIKey:     a.cfg.SendGridAPIKey,
			TemplateID: a.cfg.SendGridTemplateID,
			From:       a.cfg.FromEmail,
			To:         a.cfg.ToEmail,
		}, a.log.Named("mail"))
	}

	var backuper *admin.Backuper
	if a.cfg.DatabaseDriver == db.DriverPostgres {
		backuper = admin.NewBackuper(a.cfg.DatabaseURL, "backups", a.log.Named("backup"))
	}

	schedDeps := services.SchedulerDeps{
		Bot:           api,
		Users:         a.users,
		Readings:      a.readings,
		Ledger:        a.ledger,
		Notifier:      notifier,
		OwnerUsername: a.cfg.OwnerUsername,
		Location:      a.cfg.Location,
		Logger:        a.log,
	}
	if backuper != nil {
		schedDeps.Backup = backuper.Auto
	}
	sched := services.NewScheduler(schedDeps)
	if err := sched.Register(a.cfg.ReminderSchedule, a.cfg.AutopaySchedule, a.cfg.BackupSchedule); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{Addr: a.cfg.MetricsAddr, Handler: metrics.NewMux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		a.log.Info("metrics server started", zap.String("addr", a.cfg.MetricsAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("metrics server failed", zap.Error(err))
			notifier.NotifyAdmin("Metrics server error: " + err.Error())
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	handler := bot.NewHandler(bot.HandlerDeps{
		Bot:        api,
		Users:      a.users,
		Readings:   a.readings,
		Rates:      a.rates,
		Ledger:     a.ledger,
		Calculator: calc,
		Mailer:     mailer,
		Admin: admin.NewHandler(admin.Deps{
			Bot:    api,
			Rates:  a.rates,
			Ledger: a.ledger,
			Backup: backuper,
			Logger: a.log.Named("admin"),
		}),
		Notifier:      notifier,
		OwnerUsername: a.cfg.OwnerUsername,
		SeedYear:      a.cfg.SeedPaidYear,
		SeedMonth:     a.cfg.SeedPaidMonth,
		Location:      a.cfg.Location,
		Logger:        a.log,
	})

	err = bot.New(api, handler, notifier, a.log.Named("polling"), 0).Run(ctx)
	if errors.Is(err, context.Canceled) {
		a.log.Info("shutting down")
		return nil
	}
	return err
}
