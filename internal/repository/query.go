package repository

import (
	"fmt"
	"strings"

	"github.com/SergeiKhy/visitor-analytics/internal/models"
)

// dialect различия SQL между sqlite и postgres
type dialect struct {
	name        string
	placeholder func(n int) string
	// monthExpr выражение, возвращающее YYYY-MM из timestamp
	monthExpr string
}

var (
	sqliteDialect = dialect{
		name:        "sqlite",
		placeholder: func(int) string { return "?" },
		monthExpr:   "substr(timestamp, 1, 7)",
	}
	postgresDialect = dialect{
		name:        "postgres",
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		monthExpr:   "to_char(timestamp AT TIME ZONE 'UTC', 'YYYY-MM')",
	}
)

// whereBuilder собирает WHERE из условий с '?' плейсхолдерами,
// перенумеровывая их под диалект
type whereBuilder struct {
	d          dialect
	conditions []string
	args       []any
}

func newWhere(d dialect) *whereBuilder {
	return &whereBuilder{d: d}
}

// withArgs добавляет аргументы, которые идут в запросе до WHERE (например, SET duration = ?)
func (w *whereBuilder) withArgs(args ...any) *whereBuilder {
	w.args = append(w.args, args...)
	return w
}

func (w *whereBuilder) add(cond string, args ...any) *whereBuilder {
	var sb strings.Builder
	n := len(w.args)
	for _, r := range cond {
		if r == '?' {
			n++
			sb.WriteString(w.d.placeholder(n))
			continue
		}
		sb.WriteRune(r)
	}
	w.conditions = append(w.conditions, sb.String())
	w.args = append(w.args, args...)
	return w
}

// dateRange одинаково применяется ко всем подзапросам одной агрегации
func (w *whereBuilder) dateRange(f models.DateFilter) *whereBuilder {
	if !f.Active() {
		return w
	}
	return w.add("timestamp BETWEEN ? AND ?", f.Start.UTC(), f.End.UTC())
}

func (w *whereBuilder) String() string {
	if len(w.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conditions, " AND ")
}

func (w *whereBuilder) Args() []any {
	return w.args
}

// queries SQL для Event Store, общие для обоих бэкендов
type queries struct {
	d dialect
}

func (q queries) updateDurationByID(visitID, duration int64) (string, []any) {
	w := newWhere(q.d).withArgs(duration).add("id = ?", visitID)
	return fmt.Sprintf("UPDATE visits SET duration = %s%s", q.d.placeholder(1), w), w.Args()
}

// updateLatestDuration обновляет только самый свежий визит сессии
func (q queries) updateLatestDuration(sessionID string, duration int64) (string, []any) {
	w := newWhere(q.d).withArgs(duration).add(
		"id = (SELECT id FROM visits WHERE session_id = ? ORDER BY timestamp DESC, id DESC LIMIT 1)",
		sessionID,
	)
	return fmt.Sprintf("UPDATE visits SET duration = %s%s", q.d.placeholder(1), w), w.Args()
}

func (q queries) countByCountry(f models.DateFilter) (string, []any) {
	w := newWhere(q.d).dateRange(f)
	return `SELECT country, COUNT(*) AS visits FROM visits` + w.String() +
		` GROUP BY country ORDER BY visits DESC, country ASC`, w.Args()
}

func (q queries) countDistinctSessions(f models.DateFilter) (string, []any) {
	w := newWhere(q.d).dateRange(f)
	return `SELECT COUNT(DISTINCT session_id) AS total_visitors FROM visits` + w.String(), w.Args()
}

func (q queries) sumDuration(f models.DateFilter) (string, []any) {
	w := newWhere(q.d).dateRange(f)
	return `SELECT ` + q.bigint("COALESCE(SUM(duration), 0)") + ` AS total_time FROM visits` + w.String(), w.Args()
}

func (q queries) countByMonth(f models.DateFilter) (string, []any) {
	w := newWhere(q.d).dateRange(f)
	return `SELECT ` + q.d.monthExpr + ` AS month, COUNT(*) AS visits FROM visits` + w.String() +
		` GROUP BY month ORDER BY month DESC`, w.Args()
}

func (q queries) totals(f models.DateFilter) (string, []any) {
	w := newWhere(q.d).dateRange(f)
	return `SELECT COUNT(*) AS total_visits, ` +
		q.bigint("COALESCE(SUM(duration), 0)") + ` AS total_time, ` +
		q.float("COALESCE(AVG(duration), 0)") + ` AS avg_duration, ` +
		q.float("COALESCE(AVG(load_time), 0)") + ` AS avg_load_time FROM visits` + w.String(), w.Args()
}

func (q queries) countBounces(f models.DateFilter, thresholdMs int64) (string, []any) {
	w := newWhere(q.d).dateRange(f).add("duration < ?", thresholdMs)
	return `SELECT COUNT(*) AS bounces FROM visits` + w.String(), w.Args()
}

func (q queries) countByDevice(f models.DateFilter) (string, []any) {
	w := newWhere(q.d).dateRange(f)
	return `SELECT device, COUNT(*) AS visits FROM visits` + w.String() +
		` GROUP BY device ORDER BY visits DESC, device ASC`, w.Args()
}

func (q queries) countByReferrer(f models.DateFilter) (string, []any) {
	w := newWhere(q.d).dateRange(f)
	return `SELECT referrer, COUNT(*) AS visits FROM visits` + w.String() +
		` GROUP BY referrer ORDER BY visits DESC, referrer ASC`, w.Args()
}

// rankByElement не фильтруется по дате: рейтинг действий всегда глобальный
func (q queries) rankByElement() string {
	return `SELECT element, COUNT(*) AS clicks FROM actions GROUP BY element ORDER BY clicks DESC, element ASC`
}

func (q queries) bigint(expr string) string {
	if q.d.name == postgresDialect.name {
		return expr + "::bigint"
	}
	return expr
}

func (q queries) float(expr string) string {
	if q.d.name == postgresDialect.name {
		return expr + "::float8"
	}
	return "CAST(" + expr + " AS REAL)"
}
