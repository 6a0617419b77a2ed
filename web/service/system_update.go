package service

import (
	"html/template"
	"strings"

	"github.com/filedock/filedock/database/model"

	"gorm.io/gorm"
)

// LineBreak joins announcement lines in GetContent.
const LineBreak = "<br>"

// SystemUpdateService stores the admin announcement feed, one row per line.
type SystemUpdateService struct {
	db *gorm.DB
}

func NewSystemUpdateService(db *gorm.DB) *SystemUpdateService {
	return &SystemUpdateService{db: db}
}

// GetContent returns all lines, oldest first, HTML-escaped and joined by LineBreak.
func (s *SystemUpdateService) GetContent() (string, error) {
	var rows []model.SystemUpdate
	if err := s.db.Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return "", newError(KindInternal, err, "updates.loadFailed")
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, template.HTMLEscapeString(r.Content))
	}
	return strings.Join(lines, LineBreak), nil
}

// Replace deletes every stored line and inserts one row per non-empty line of
// content. The two steps are not atomic: a failure in between leaves the feed empty.
func (s *SystemUpdateService) Replace(content string) (int, error) {
	if err := s.db.Where("1 = 1").Delete(&model.SystemUpdate{}).Error; err != nil {
		return 0, newError(KindInternal, err, "updates.saveFailed")
	}

	rows := make([]model.SystemUpdate, 0)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rows = append(rows, model.SystemUpdate{Content: line})
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := s.db.Create(&rows).Error; err != nil {
		return 0, newError(KindInternal, err, "updates.saveFailed")
	}
	return len(rows), nil
}
