package service

import (
	"github.com/filedock/filedock/logger"
	"github.com/filedock/filedock/util/common"
	"github.com/filedock/filedock/web/entity"

	"github.com/shirou/gopsutil/v4/disk"
)

// ServerService reports on the host the upload root lives on.
type ServerService struct {
	root string
}

func NewServerService(root string) *ServerService {
	return &ServerService{root: root}
}

// StorageUsage returns capacity figures for the filesystem holding the upload root.
func (s *ServerService) StorageUsage() (*entity.StorageUsage, error) {
	u, err := disk.Usage(s.root)
	if err != nil {
		return nil, newError(KindInternal, err, "server.storageFailed")
	}
	return &entity.StorageUsage{
		Total:       u.Total,
		Used:        u.Used,
		Free:        u.Free,
		UsedPercent: u.UsedPercent,
		TotalText:   common.FormatSize(u.Total),
		FreeText:    common.FormatSize(u.Free),
	}, nil
}

// GetLogs returns up to count buffered log lines at level or more severe, newest first.
func (s *ServerService) GetLogs(count int, level string) []string {
	return logger.GetLogs(count, level)
}
