package services

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

func (s *ServiceSuite) TestBackups() {
	s.newMember("أحمد", "")

	info, err := s.svc.Backup.Create(s.ctx)
	s.Require().NoError(err)
	s.Equal("20260315_100000-umt-database.sql.gz", info.Name)

	s.Run("dump holds the table rows", func() {
		path, err := s.svc.Backup.Path(info.Name)
		s.Require().NoError(err)

		f, err := os.Open(path)
		s.Require().NoError(err)
		defer f.Close()
		gz, err := gzip.NewReader(f)
		s.Require().NoError(err)
		body, err := io.ReadAll(gz)
		s.Require().NoError(err)

		dump := string(body)
		s.True(strings.HasPrefix(dump, "-- UMT database backup"))
		s.Contains(dump, "INSERT INTO `members`")
		s.Contains(dump, "أحمد")
		s.Contains(dump, "-- provinces: 1 rows")
	})

	s.Run("list ignores foreign files", func() {
		s.Require().NoError(os.WriteFile(filepath.Join(s.svc.Backup.Dir(), "notes.txt"), []byte("x"), 0o644))

		backups, err := s.svc.Backup.List()
		s.Require().NoError(err)
		s.Require().Len(backups, 1)
		s.Equal(info.Name, backups[0].Name)

		last, err := s.svc.Backup.LastBackupDate()
		s.Require().NoError(err)
		s.Equal(backups[0].Date, last)
	})

	s.Run("path refuses traversal", func() {
		for _, name := range []string{"", "../" + info.Name, "sub/" + info.Name, "notes.txt"} {
			_, err := s.svc.Backup.Path(name)
			s.ErrorIs(err, ErrInvalidBackupName, name)
		}
		_, err := s.svc.Backup.Path("missing" + BackupSuffix)
		s.ErrorIs(err, ErrBackupNotFound)
	})

	s.Run("delete removes the file", func() {
		s.Require().NoError(s.svc.Backup.Delete(info.Name))
		s.ErrorIs(s.svc.Backup.Delete(info.Name), ErrBackupNotFound)

		backups, err := s.svc.Backup.List()
		s.Require().NoError(err)
		s.Empty(backups)
	})
}

func (s *ServiceSuite) TestFormatSize() {
	s.Equal("512.0 B", FormatSize(512))
	s.Equal("1.5 KB", FormatSize(1536))
	s.Equal("2.0 MB", FormatSize(2*1024*1024))
}
