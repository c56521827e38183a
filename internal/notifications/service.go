package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"shelver/internal/config"
	"shelver/internal/watch"
)

const userAgent = "shelver/0.1.0"

// Service defines the notification surface exposed to library components.
type Service interface {
	NotifyFolderCreated(ctx context.Context, event watch.FolderCreatedEvent) error
	NotifyImportFailed(ctx context.Context, source string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:      topic,
		client:        &http.Client{Timeout: timeout},
		folderCreated: cfg.Notifications.FolderCreated,
		importFailed:  cfg.Notifications.ImportFailed,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	folderCreated bool
	importFailed  bool
}

func (n *ntfyService) NotifyFolderCreated(ctx context.Context, event watch.FolderCreatedEvent) error {
	if !n.folderCreated {
		return nil
	}
	created := event.Created()
	if len(created) == 0 {
		return nil
	}

	var lines []string
	for _, level := range []watch.Level{watch.LevelAuthor, watch.LevelBook, watch.LevelTrack} {
		if path, ok := created[level]; ok {
			lines = append(lines, fmt.Sprintf("%s: %s", level, filepath.Base(path)))
		}
	}
	data := payload{
		title:   "Shelver - Folder Created",
		message: "📁 " + strings.Join(lines, "\n"),
		tags:    []string{"shelver", "folder", "created"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyImportFailed(ctx context.Context, source string, err error) error {
	if !n.importFailed {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Import failed for ")
	builder.WriteString(filepath.Base(strings.TrimSpace(source)))
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	data := payload{
		title:    "Shelver - Import Failed",
		message:  builder.String(),
		tags:     []string{"shelver", "import", "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Shelver - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"shelver", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyFolderCreated(context.Context, watch.FolderCreatedEvent) error { return nil }
func (noopService) NotifyImportFailed(context.Context, string, error) error             { return nil }
func (noopService) TestNotification(context.Context) error                              { return nil }

// FolderNotifier forwards folder-created events to a Service.
type FolderNotifier struct {
	service Service
}

// NewFolderNotifier wraps service as a watch.Notifier.
func NewFolderNotifier(service Service) *FolderNotifier {
	if service == nil {
		service = noopService{}
	}
	return &FolderNotifier{service: service}
}

// ReportChangeBeginning is a no-op; only completed structures are pushed.
func (f *FolderNotifier) ReportChangeBeginning(...string) {}

// FolderStructureCreated publishes event.
func (f *FolderNotifier) FolderStructureCreated(ctx context.Context, event watch.FolderCreatedEvent) error {
	return f.service.NotifyFolderCreated(ctx, event)
}
