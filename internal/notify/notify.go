// Package notify доставляет алерты во внешние каналы: JSON-файл и HTTP endpoint.
// Доставка выполняется не более одного раза, ошибки записываются в лог.
package notify

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/levinOo/go-telemetry-project/internal/alerting"
	"github.com/levinOo/go-telemetry-project/internal/models"
	"github.com/levinOo/go-telemetry-project/internal/pool"
	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jwriter"
	"go.uber.org/zap"
)

// HashHeader содержит имя заголовка с HMAC-SHA256 подписью тела запроса.
const HashHeader = "HashSHA256"

// Dispatcher рассылает алерт всем зарегистрированным получателям.
type Dispatcher struct {
	mu        sync.RWMutex
	notifiers []alerting.Notifier
}

// NewDispatcher создаёт Dispatcher с начальным набором получателей.
func NewDispatcher(notifiers ...alerting.Notifier) *Dispatcher {
	return &Dispatcher{notifiers: notifiers}
}

// Register добавляет получателя.
func (d *Dispatcher) Register(n alerting.Notifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifiers = append(d.notifiers, n)
}

// Len возвращает число получателей.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.notifiers)
}

// Notify реализует alerting.Notifier.
func (d *Dispatcher) Notify(alert models.Alert) {
	d.mu.RLock()
	notifiers := make([]alerting.Notifier, len(d.notifiers))
	copy(notifiers, d.notifiers)
	d.mu.RUnlock()

	for _, n := range notifiers {
		n.Notify(alert)
	}
}

// FileNotifier дописывает алерты в JSON-файл вида {"alerts": [...]}.
type FileNotifier struct {
	mu     sync.Mutex
	path   string
	logger *zap.SugaredLogger
}

// NewFileNotifier создаёт FileNotifier. Пустой путь отключает запись.
func NewFileNotifier(path string, logger *zap.SugaredLogger) *FileNotifier {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &FileNotifier{path: path, logger: logger}
}

// Notify реализует alerting.Notifier.
func (f *FileNotifier) Notify(alert models.Alert) {
	if f.path == "" {
		return
	}
	if err := f.append(alert); err != nil {
		f.logger.Errorw("Failed to write alert to file", "file", f.path, "id", alert.ID, "error", err)
	}
}

func (f *FileNotifier) append(alert models.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var list models.AlertList

	data, err := os.ReadFile(f.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read file: %w", err)
	}
	if len(data) > 0 {
		if err := easyjson.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("unmarshal alerts: %w", err)
		}
	}

	list.Alerts = append(list.Alerts, alert)

	out, err := easyjson.Marshal(&list)
	if err != nil {
		return fmt.Errorf("marshal alerts: %w", err)
	}
	if err := os.WriteFile(f.path, out, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// URLNotifier отправляет каждый алерт POST-запросом на внешний endpoint.
type URLNotifier struct {
	url     string
	key     string
	client  *resty.Client
	buffers *pool.Pool[*bytes.Buffer]
	logger  *zap.SugaredLogger
}

// NewURLNotifier создаёт URLNotifier. Непустой key включает подпись тела в заголовке HashSHA256.
func NewURLNotifier(url, key string, timeout time.Duration, logger *zap.SugaredLogger) *URLNotifier {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	buffers := pool.New(func() *bytes.Buffer { return new(bytes.Buffer) })
	buffers.MaxIdle = 16

	return &URLNotifier{
		url:     url,
		key:     key,
		client:  resty.New().SetTimeout(timeout),
		buffers: buffers,
		logger:  logger,
	}
}

// Notify реализует alerting.Notifier.
func (u *URLNotifier) Notify(alert models.Alert) {
	if u.url == "" {
		return
	}
	if err := u.send(alert); err != nil {
		u.logger.Errorw("Failed to deliver alert", "url", u.url, "id", alert.ID, "error", err)
		return
	}
	u.logger.Debugw("Alert delivered", "url", u.url, "id", alert.ID)
}

func (u *URLNotifier) send(alert models.Alert) error {
	buf := u.buffers.Get()
	defer u.buffers.Put(buf)

	w := jwriter.Writer{}
	alert.MarshalEasyJSON(&w)
	if _, err := w.DumpTo(buf); err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	body := buf.Bytes()

	req := u.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(body)
	if u.key != "" {
		req.SetHeader(HashHeader, Sign(body, u.key))
	}

	resp, err := req.Post(u.url)
	if err != nil {
		return fmt.Errorf("post alert: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("server returned status %d", resp.StatusCode())
	}
	return nil
}

// Sign возвращает HMAC-SHA256 подпись data в шестнадцатеричном виде.
func Sign(data []byte, key string) string {
	h := hmac.New(sha256.New, []byte(key))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
