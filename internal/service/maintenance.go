package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stayhive/conversation-service/internal/domain"
	"github.com/stayhive/conversation-service/internal/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MaintenanceService — внеполосные административные операции:
// batch-repair snapshot-ов и каскадное удаление диалогов пользователя.
// Repair существует только для лечения заранее накопленного дрейфа;
// основной механизм консистентности — атомарная запись в MessageService.
type MaintenanceService struct {
	db    *pgxpool.Pool
	locks *ConversationLocks

	snapshotLen int
}

func NewMaintenanceService(db *pgxpool.Pool, locks *ConversationLocks, snapshotLen int) *MaintenanceService {
	if snapshotLen <= 0 {
		snapshotLen = 160
	}
	return &MaintenanceService{db: db, locks: locks, snapshotLen: snapshotLen}
}

type RepairReport struct {
	Checked  int `json:"checked"`
	Repaired int `json:"repaired"`
	Failed   int `json:"failed"`
}

// RepairSnapshots пересчитывает snapshot каждого диалога из лога.
// Идемпотентно: повторный запуск по уже сошедшемуся состоянию ничего
// не меняет. Несогласуемое состояние отдельного диалога логируется и
// пропускается, job продолжается.
func (s *MaintenanceService) RepairSnapshots(ctx context.Context) (*RepairReport, error) {
	ids, err := postgres.NewConversationRepository(s.db).IDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	report := &RepairReport{}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++

		repaired, err := s.repairOne(ctx, id)
		if err != nil {
			report.Failed++
			slog.Error("snapshot repair failed", "conversation", id, "err", err)
			continue
		}
		if repaired {
			report.Repaired++
			slog.Warn("snapshot drift repaired", "conversation", id)
		}
	}

	return report, nil
}

func (s *MaintenanceService) repairOne(ctx context.Context, conversationID string) (repaired bool, err error) {
	unlock := s.locks.Lock(conversationID)
	defer unlock()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	convRepo := postgres.NewConversationRepository(tx)
	conv, err := convRepo.GetForUpdate(ctx, conversationID)
	if err != nil {
		return false, err
	}

	msgRepo := postgres.NewMessageRepository(tx)
	latest, err := msgRepo.Latest(ctx, conversationID)
	if err != nil {
		return false, err
	}

	wantText, wantAt, wantSender := snapshotFields(latest, s.snapshotLen)
	if snapshotInSync(conv, wantText, wantAt, wantSender) {
		return false, nil // дрейфа нет
	}

	if err := convRepo.UpdateSnapshot(ctx, conversationID, wantText, wantAt, wantSender); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// PurgeForUser — каскадное удаление всех диалогов пользователя вместе
// с сообщениями (FK ON DELETE CASCADE). Административная операция.
func (s *MaintenanceService) PurgeForUser(ctx context.Context, userID int64) (int64, error) {
	n, err := postgres.NewConversationRepository(s.db).DeleteForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("purge conversations: %w", err)
	}
	slog.Info("purged conversations", "user", userID, "count", n)
	return n, nil
}

// snapshotInSync сравнивает snapshot диалога с желаемой проекцией лога;
// true означает, что repair для этого диалога — no-op.
func snapshotInSync(c *domain.Conversation, text *string, at *time.Time, sender *int64) bool {
	return snapshotEqual(c.SnapshotText, text) &&
		timePtrEqual(c.SnapshotAt, at) &&
		int64PtrEqual(c.SnapshotSenderID, sender)
}

func snapshotEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
