package job

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/filedock/filedock/logger"
	"github.com/filedock/filedock/web/service"
)

// CleanUploadTempJob removes upload temp files left behind by interrupted
// uploads once they are older than maxAge.
type CleanUploadTempJob struct {
	guard  runGuard
	root   string
	maxAge time.Duration
}

func NewCleanUploadTempJob(root string, maxAge time.Duration) *CleanUploadTempJob {
	return &CleanUploadTempJob{root: root, maxAge: maxAge}
}

func (j *CleanUploadTempJob) Run() {
	j.guard.do("clean upload temp", func() {
		if n := j.clean(time.Now()); n > 0 {
			logger.Infof("removed %d stale upload temp files", n)
		}
	})
}

func (j *CleanUploadTempJob) clean(now time.Time) int {
	removed := 0
	err := filepath.WalkDir(j.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !strings.HasPrefix(d.Name(), service.TempPrefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil || now.Sub(info.ModTime()) < j.maxAge {
			return nil
		}
		if err := os.Remove(p); err != nil {
			logger.Warning("clean upload temp job:", err)
			return nil
		}
		removed++
		return nil
	})
	if err != nil {
		logger.Warning("clean upload temp job:", err)
	}
	return removed
}
