package job

import (
	"strconv"

	"github.com/filedock/filedock/logger"
	"github.com/filedock/filedock/web/entity"

	"go.uber.org/atomic"
)

type storageReporter interface {
	StorageUsage() (*entity.StorageUsage, error)
}

// CheckDiskUsageJob warns once when the upload filesystem crosses the
// configured usage percentage, and again after it has dropped below it.
type CheckDiskUsageJob struct {
	guard     runGuard
	reporter  storageReporter
	threshold float64
	warned    atomic.Bool
}

func NewCheckDiskUsageJob(reporter storageReporter, thresholdPercent float64) *CheckDiskUsageJob {
	return &CheckDiskUsageJob{reporter: reporter, threshold: thresholdPercent}
}

func (j *CheckDiskUsageJob) Run() {
	j.guard.do("check disk usage", j.check)
}

func (j *CheckDiskUsageJob) check() {
	if j.threshold <= 0 {
		return
	}
	usage, err := j.reporter.StorageUsage()
	if err != nil {
		logger.Warning("check disk usage job:", err)
		return
	}
	if usage.UsedPercent < j.threshold {
		if j.warned.CompareAndSwap(true, false) {
			logger.Infof("disk usage back to %.1f%%", usage.UsedPercent)
		}
		return
	}
	if j.warned.CompareAndSwap(false, true) {
		logger.Warningf("disk usage %.1f%% is above %s%%, %s free",
			usage.UsedPercent, strconv.FormatFloat(j.threshold, 'f', -1, 64), usage.FreeText)
	}
}
