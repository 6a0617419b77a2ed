package job

import (
	"github.com/filedock/filedock/database"
	"github.com/filedock/filedock/logger"

	"gorm.io/gorm"
)

// CheckpointJob flushes the SQLite WAL into the main database file.
type CheckpointJob struct {
	guard runGuard
	db    *gorm.DB
}

func NewCheckpointJob(db *gorm.DB) *CheckpointJob {
	return &CheckpointJob{db: db}
}

func (j *CheckpointJob) Run() {
	j.guard.do("checkpoint", func() {
		if err := database.Checkpoint(j.db); err != nil {
			logger.Warning("checkpoint job failed:", err)
		}
	})
}

func logSkipped(name string) {
	logger.Debugf("%s job still running, skipping this tick", name)
}
