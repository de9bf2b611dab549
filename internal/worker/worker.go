package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/stayhive/conversation-service/internal/service"

	"github.com/hibiken/asynq"
)

// TaskRepairSnapshots — batch-пересчёт snapshot-ов из лога. Задача
// идемпотентна, поэтому ретраи и повторные постановки безопасны.
const TaskRepairSnapshots = "summaries:repair"

// Enqueuer ставит обслуживание в очередь; используется админским
// HTTP-эндпойнтом.
type Enqueuer struct {
	client *asynq.Client
	queue  string
}

func NewEnqueuer(redisURL, queue string) (*Enqueuer, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("asynq: parse redis url: %w", err)
	}
	return &Enqueuer{client: asynq.NewClient(opt), queue: queue}, nil
}

func (e *Enqueuer) EnqueueRepair(ctx context.Context) (string, error) {
	info, err := e.client.EnqueueContext(ctx,
		asynq.NewTask(TaskRepairSnapshots, nil),
		asynq.Queue(e.queue),
		asynq.MaxRetry(3),
		// дедупликация: второй вызов, пока первый не отработал, не плодит задач
		asynq.Unique(time.Minute),
	)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

func (e *Enqueuer) Close() error {
	return e.client.Close()
}

// Server потребляет очередь обслуживания внутри этого же процесса.
type Server struct {
	server      *asynq.Server
	scheduler   *asynq.Scheduler
	mux         *asynq.ServeMux
	maintenance *service.MaintenanceService
}

type ServerConfig struct {
	RedisURL    string
	Queue       string
	Concurrency int
	RepairEvery time.Duration // 0 — без периодического repair
}

func NewServer(cfg ServerConfig, maintenance *service.MaintenanceService) (*Server, error) {
	opt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("asynq: parse redis url: %w", err)
	}

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{cfg.Queue: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			slog.Error("maintenance task failed", "type", task.Type(), "err", err)
		}),
	})

	s := &Server{server: srv, mux: asynq.NewServeMux(), maintenance: maintenance}
	s.mux.HandleFunc(TaskRepairSnapshots, s.handleRepair)

	if cfg.RepairEvery > 0 {
		s.scheduler = asynq.NewScheduler(opt, nil)
		if _, err := s.scheduler.Register(
			fmt.Sprintf("@every %s", cfg.RepairEvery),
			asynq.NewTask(TaskRepairSnapshots, nil),
			asynq.Queue(cfg.Queue),
		); err != nil {
			return nil, fmt.Errorf("asynq: register periodic repair: %w", err)
		}
	}

	return s, nil
}

func (s *Server) handleRepair(ctx context.Context, _ *asynq.Task) error {
	report, err := s.maintenance.RepairSnapshots(ctx)
	if err != nil {
		return err
	}

	b, _ := json.Marshal(report)
	slog.Info("snapshot repair finished", "report", string(b))
	return nil
}

// Run запускает воркер (и планировщик, если настроен) и блокируется до
// отмены контекста.
func (s *Server) Run(ctx context.Context) error {
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	if s.scheduler != nil {
		if err := s.scheduler.Start(); err != nil {
			s.server.Shutdown()
			return err
		}
	}

	<-ctx.Done()

	if s.scheduler != nil {
		s.scheduler.Shutdown()
	}
	s.server.Shutdown()
	return nil
}
