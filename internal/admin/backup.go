package admin

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

const (
	dumpTimeout     = 2 * time.Minute
	backupRetention = 31 * 24 * time.Hour
)

// Backuper снимает дампы Postgres через pg_dump и чистит старые
type Backuper struct {
	dsn string
	dir string
	log *zap.Logger
	now func() time.Time
}

func NewBackuper(dsn, dir string, log *zap.Logger) *Backuper {
	if dir == "" {
		dir = "backups"
	}
	return &Backuper{dsn: dsn, dir: dir, log: log, now: time.Now}
}

// Dump создаёт дамп БД в указанный файл
func (b *Backuper) Dump(ctx context.Context, filename string) error {
	ctx, cancel := context.WithTimeout(ctx, dumpTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, "pg_dump", b.dsn, "-Fc", "-f", filename).CombinedOutput()
	if err != nil {
		return fmt.Errorf("pg_dump: %w: %s", err, out)
	}
	return nil
}

// NewDump создаёт дамп с префиксом в каталоге бэкапов и возвращает путь к нему
func (b *Backuper) NewDump(ctx context.Context, prefix string) (string, error) {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return "", err
	}
	filename := filepath.Join(b.dir, prefix+"_"+b.now().Format("20060102_150405")+".dump")
	if err := b.Dump(ctx, filename); err != nil {
		return "", err
	}
	return filename, nil
}

// Auto — ежедневный бэкап для планировщика: дамп и чистка старых файлов
func (b *Backuper) Auto(ctx context.Context) error {
	filename, err := b.NewDump(ctx, "autobackup")
	if err != nil {
		return err
	}
	removed, err := b.CleanOld(backupRetention)
	if err != nil {
		b.log.Warn("failed to clean old backups", zap.Error(err))
	}
	b.log.Info("database backup created", zap.String("file", filename), zap.Int("removed", removed))
	return nil
}

// CleanOld удаляет дампы старше maxAge; возвращает число удалённых файлов
func (b *Backuper) CleanOld(maxAge time.Duration) (int, error) {
	files, err := filepath.Glob(filepath.Join(b.dir, "*backup_*.dump"))
	if err != nil {
		return 0, err
	}
	cutoff := b.now().Add(-maxAge)
	removed := 0
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(f); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
