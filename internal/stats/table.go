// Package stats хранит агрегаты вызовов по эндпоинтам.
// Каждый агрегат защищён собственным мьютексом, поэтому запись в разные эндпоинты
// не сериализуется, а инкременты одного эндпоинта не теряются.
package stats

import (
	"math"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/levinOo/go-telemetry-project/internal/models"
	"github.com/levinOo/go-telemetry-project/internal/ringlog"
)

const (
	// DefaultErrorLogSize задаёт ёмкость журнала ошибок одного эндпоинта.
	DefaultErrorLogSize = 500

	recentErrorsLimit = 10
)

type aggregate struct {
	mu                sync.Mutex
	totalCalls        int64
	successfulCalls   int64
	failedCalls       int64
	totalResponseTime float64
	cacheHits         int64
	cacheMisses       int64
	apiCalls          int64
	lastCall          time.Time

	errors *ringlog.RingLog[models.ErrorRecord]
}

// Table отображает имя эндпоинта в его агрегат.
type Table struct {
	mu           sync.RWMutex
	endpoints    map[string]*aggregate
	errorLogSize int
	now          func() time.Time
}

// NewTable создаёт пустую таблицу. errorLogSize ограничивает журнал ошибок каждого эндпоинта,
// now используется для метки времени глобальной сводки и записей RecordError.
func NewTable(errorLogSize int, now func() time.Time) *Table {
	if errorLogSize <= 0 {
		errorLogSize = DefaultErrorLogSize
	}
	if now == nil {
		now = time.Now
	}
	return &Table{
		endpoints:    make(map[string]*aggregate),
		errorLogSize: errorLogSize,
		now:          now,
	}
}

// lookup возвращает агрегат эндпоинта, создавая его при первом обращении.
func (t *Table) lookup(endpoint string) *aggregate {
	t.mu.RLock()
	agg, ok := t.endpoints[endpoint]
	t.mu.RUnlock()
	if ok {
		return agg
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if agg, ok = t.endpoints[endpoint]; ok {
		return agg
	}
	agg = &aggregate{errors: ringlog.New[models.ErrorRecord](t.errorLogSize)}
	t.endpoints[endpoint] = agg
	return agg
}

func (t *Table) get(endpoint string) (*aggregate, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	agg, ok := t.endpoints[endpoint]
	return agg, ok
}

// RecordCall учитывает завершённый вызов. Успешным считается статус в диапазоне [200, 300).
func (t *Table) RecordCall(call models.EndpointCall) {
	agg := t.lookup(call.Endpoint)

	agg.mu.Lock()
	defer agg.mu.Unlock()

	agg.totalCalls++
	agg.totalResponseTime += call.ResponseTime

	if call.StatusCode >= 200 && call.StatusCode < 300 {
		agg.successfulCalls++
	} else {
		agg.failedCalls++
		agg.errors.Append(models.ErrorRecord{
			Endpoint:   call.Endpoint,
			Kind:       models.ErrorKindHTTPStatus,
			Message:    http.StatusText(call.StatusCode),
			StatusCode: call.StatusCode,
			Context:    call.Params,
			Timestamp:  call.Timestamp,
		})
	}

	if call.CacheUsed {
		agg.cacheHits++
	} else {
		agg.cacheMisses++
	}

	agg.apiCalls += int64(call.APICalls)
	agg.lastCall = call.Timestamp
}

// RecordError добавляет ошибку, не связанную с завершением вызова. Счётчики вызовов не меняются.
func (t *Table) RecordError(endpoint string, kind models.ErrorKind, message string, context map[string]any) models.ErrorRecord {
	rec := models.ErrorRecord{
		Endpoint:  endpoint,
		Kind:      kind,
		Message:   message,
		Context:   context,
		Timestamp: t.now(),
	}
	t.lookup(endpoint).errors.Append(rec)
	return rec
}

// Get возвращает сводку эндпоинта. Второе значение false, если эндпоинт ни разу не встречался.
func (t *Table) Get(endpoint string) (models.EndpointSummary, bool) {
	agg, ok := t.get(endpoint)
	if !ok {
		return models.EndpointSummary{}, false
	}

	agg.mu.Lock()
	defer agg.mu.Unlock()

	summary := models.EndpointSummary{
		Endpoint:            endpoint,
		TotalCalls:          agg.totalCalls,
		SuccessfulCalls:     agg.successfulCalls,
		FailedCalls:         agg.failedCalls,
		SuccessRate:         percent(agg.successfulCalls, agg.totalCalls),
		AverageResponseTime: average(agg.totalResponseTime, agg.totalCalls),
		Cache: models.CachePerformance{
			Hits:    agg.cacheHits,
			Misses:  agg.cacheMisses,
			HitRate: percent(agg.cacheHits, agg.cacheHits+agg.cacheMisses),
		},
		APICalls:     agg.apiCalls,
		ErrorCount:   agg.errors.Len(),
		RecentErrors: agg.errors.Snapshot(recentErrorsLimit),
		LastCall:     timePtr(agg.lastCall),
	}
	return summary, true
}

// GetAll возвращает сводки всех эндпоинтов и глобальную сводку.
func (t *Table) GetAll() models.GlobalStats {
	t.mu.RLock()
	snapshot := make(map[string]*aggregate, len(t.endpoints))
	for name, agg := range t.endpoints {
		snapshot[name] = agg
	}
	t.mu.RUnlock()

	result := models.GlobalStats{
		Endpoints: make(map[string]models.EndpointBrief, len(snapshot)),
	}

	var totalCalls, totalSuccess int64
	for name, agg := range snapshot {
		agg.mu.Lock()
		result.Endpoints[name] = models.EndpointBrief{
			TotalCalls:          agg.totalCalls,
			SuccessRate:         percent(agg.successfulCalls, agg.totalCalls),
			AverageResponseTime: average(agg.totalResponseTime, agg.totalCalls),
			LastCall:            timePtr(agg.lastCall),
		}
		totalCalls += agg.totalCalls
		totalSuccess += agg.successfulCalls
		agg.mu.Unlock()
	}

	result.Overall = models.Overall{
		TotalEndpoints:     len(snapshot),
		TotalCalls:         totalCalls,
		OverallSuccessRate: percent(totalSuccess, totalCalls),
		Timestamp:          t.now(),
	}
	return result
}

// Endpoints возвращает отсортированный список известных эндпоинтов.
func (t *Table) Endpoints() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.endpoints))
	for name := range t.endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PruneErrors удаляет из журналов ошибок записи не новее cutoff. Возвращает число удалённых записей.
func (t *Table) PruneErrors(cutoff time.Time) int {
	t.mu.RLock()
	aggs := make([]*aggregate, 0, len(t.endpoints))
	for _, agg := range t.endpoints {
		aggs = append(aggs, agg)
	}
	t.mu.RUnlock()

	removed := 0
	for _, agg := range aggs {
		removed += agg.errors.Prune(cutoff)
	}
	return removed
}

func percent(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func average(sum float64, count int64) float64 {
	if count <= 0 {
		return 0
	}
	return math.Round(sum/float64(count)*1000) / 1000
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
