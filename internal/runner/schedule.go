package runner

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser разбирает расписание: пять полей или дескриптор (@hourly, @every 10m).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule разбирает cron-выражение.
func ParseSchedule(expr string) (cron.Schedule, error) {
	s, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidSchedule, expr, err)
	}
	return s, nil
}

// NextRun вычисляет следующее время запуска после from (в UTC).
func NextRun(expr string, from time.Time) (time.Time, error) {
	s, err := ParseSchedule(expr)
	if err != nil {
		return time.Time{}, err
	}
	return s.Next(from).UTC(), nil
}

// ScheduleSeed: seed оценочного прогона, запущенного в момент at.
// Один и тот же слот расписания всегда даёт один и тот же seed.
func ScheduleSeed(at time.Time) int64 {
	return at.Truncate(time.Minute).Unix()
}
