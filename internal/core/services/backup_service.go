package services

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"unem-umt/internal/adapters/persistence/models"
	"unem-umt/internal/pkg/metrics"

	"github.com/klauspost/compress/gzip"
	"gorm.io/gorm"
)

// Backup errors
var (
	ErrBackupNotFound    = errors.New("ملف النسخة الاحتياطية غير موجود")
	ErrInvalidBackupName = errors.New("اسم ملف النسخة الاحتياطية غير صالح")
)

// Backup messages
const (
	MsgBackupCreated = "تم إنشاء النسخة الاحتياطية بنجاح"
	MsgBackupDeleted = "تم حذف النسخة الاحتياطية بنجاح"
)

// BackupSuffix is the extension of every backup file
const BackupSuffix = ".sql.gz"

// BackupInfo describes one backup file
type BackupInfo struct {
	Name    string    `json:"name"`
	Date    string    `json:"date"`
	Size    string    `json:"size"`
	ModTime time.Time `json:"-"`
}

// BackupService writes and manages gzip SQL dumps of the application tables
type BackupService struct {
	clock
	db  *gorm.DB
	dir string
}

// NewBackupService creates a new backup service storing files in dir
func NewBackupService(db *gorm.DB, dir string) *BackupService {
	return &BackupService{db: db, dir: dir}
}

// Dir returns the backup directory
func (s *BackupService) Dir() string {
	return s.dir
}

// Create dumps every application table into a new backup file
func (s *BackupService) Create(ctx context.Context) (*BackupInfo, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	name := s.timeNow().Format("20060102_150405") + "-umt-database" + BackupSuffix
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	if err := s.dump(ctx, f); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	info, err := s.stat(name)
	if err != nil {
		return nil, err
	}

	metrics.IncBackupCreated()
	log.Printf("✅ Backup created: %s (%s)", info.Name, info.Size)
	return info, nil
}

func (s *BackupService) dump(ctx context.Context, f *os.File) error {
	gz := gzip.NewWriter(f)
	w := bufio.NewWriter(gz)

	fmt.Fprintf(w, "-- UMT database backup %s\n", s.timeNow().Format(time.RFC3339))
	for _, model := range models.All() {
		if err := s.dumpTable(ctx, w, model); err != nil {
			return err
		}
	}

	if err := w.Flush(); err != nil {
		return err
	}
	return gz.Close()
}

func (s *BackupService) dumpTable(ctx context.Context, w *bufio.Writer, model interface{}) error {
	stmt := &gorm.Statement{DB: s.db}
	if err := stmt.Parse(model); err != nil {
		return fmt.Errorf("parse %T: %w", model, err)
	}
	table := stmt.Schema.Table
	columns := stmt.Schema.DBNames

	var rows []map[string]interface{}
	if err := s.db.WithContext(ctx).Table(table).Find(&rows).Error; err != nil {
		return fmt.Errorf("read %s: %w", table, err)
	}

	fmt.Fprintf(w, "\n-- %s: %d rows\n", table, len(rows))
	if len(rows) == 0 {
		return nil
	}

	var head strings.Builder
	head.WriteString("INSERT INTO ")
	s.db.Dialector.QuoteTo(&head, table)
	head.WriteString(" (")
	for i, col := range columns {
		if i > 0 {
			head.WriteString(", ")
		}
		s.db.Dialector.QuoteTo(&head, col)
	}
	head.WriteString(") VALUES (")
	head.WriteString(strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "))
	head.WriteString(");")
	insert := head.String()

	for _, row := range rows {
		vars := make([]interface{}, len(columns))
		for i, col := range columns {
			vars[i] = row[col]
		}
		if _, err := w.WriteString(s.db.Dialector.Explain(insert, vars...) + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// List returns the backup files, newest first
func (s *BackupService) List() ([]BackupInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []BackupInfo{}, nil
		}
		return nil, err
	}

	backups := make([]BackupInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), BackupSuffix) {
			continue
		}
		info, err := s.stat(e.Name())
		if err != nil {
			continue
		}
		backups = append(backups, *info)
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].ModTime.After(backups[j].ModTime)
	})
	return backups, nil
}

// LastBackupDate returns the date of the newest backup, empty when none exist
func (s *BackupService) LastBackupDate() (string, error) {
	backups, err := s.List()
	if err != nil || len(backups) == 0 {
		return "", err
	}
	return backups[0].Date, nil
}

// Path resolves a backup name to its file, refusing names outside the directory
func (s *BackupService) Path(name string) (string, error) {
	if name == "" || filepath.Base(name) != name || !strings.HasSuffix(name, BackupSuffix) {
		return "", ErrInvalidBackupName
	}
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", ErrBackupNotFound
		}
		return "", err
	}
	return path, nil
}

// Delete removes a backup file
func (s *BackupService) Delete(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return err
	}
	log.Printf("🗑️ Backup deleted: %s", name)
	return nil
}

func (s *BackupService) stat(name string) (*BackupInfo, error) {
	fi, err := os.Stat(filepath.Join(s.dir, name))
	if err != nil {
		return nil, err
	}
	return &BackupInfo{
		Name:    name,
		Date:    fi.ModTime().Format("2006-01-02 15:04"),
		Size:    FormatSize(fi.Size()),
		ModTime: fi.ModTime(),
	}, nil
}

// FormatSize renders a byte count as "12.3 KB"
func FormatSize(size int64) string {
	value := float64(size)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if value < 1024 {
			return fmt.Sprintf("%.1f %s", value, unit)
		}
		value /= 1024
	}
	return fmt.Sprintf("%.1f TB", value)
}
