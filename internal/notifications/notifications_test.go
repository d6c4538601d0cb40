package notifications

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gen2brain/beeep"

	"keepmeprivate/internal/events"
	"keepmeprivate/internal/testsupport"
)

func TestFormat(t *testing.T) {
	when := time.Date(2026, 5, 6, 7, 8, 9, 0, time.FixedZone("CEST", 2*60*60))
	tests := []struct {
		name        string
		event       events.Event
		wantTitle   string
		wantMessage string
	}{
		{"camera off", events.CameraEvent{Connected: false, When: when}, "Camera disconnected", "Checked at 2026-05-06T05:08:09Z"},
		{"camera on", events.CameraEvent{Connected: true, When: when}, "Camera connected", "Checked at 2026-05-06T05:08:09Z"},
		{"mic off", events.MicrophoneEvent{Accessible: false, When: when}, "Microphone unavailable", "Checked at 2026-05-06T05:08:09Z"},
		{"mic on", events.MicrophoneEvent{Accessible: true, When: when}, "Microphone ready", "Checked at 2026-05-06T05:08:09Z"},
		{"processes", events.ProcessTopChange{NewNames: []string{"ffmpeg", "zoom"}, When: when}, "New top process", "ffmpeg, zoom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, message := Format(tt.event)
			if title != tt.wantTitle || message != tt.wantMessage {
				t.Fatalf("Format = (%q, %q), want (%q, %q)", title, message, tt.wantTitle, tt.wantMessage)
			}
		})
	}
}

type delivery struct {
	title, message string
	timeout        time.Duration
}

type recordingNotifier struct {
	mu        sync.Mutex
	delivered []delivery
	attempts  int
	err       error
	panicMsg  string
}

func (r *recordingNotifier) Notify(_ context.Context, title, message string, timeout time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts++
	if r.panicMsg != "" {
		panic(r.panicMsg)
	}
	if r.err != nil {
		return r.err
	}
	r.delivered = append(r.delivered, delivery{title, message, timeout})
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

func heterogeneousEvents() []events.Event {
	now := time.Now()
	return []events.Event{
		events.CameraEvent{Connected: true, When: now},
		events.MicrophoneEvent{Accessible: true, When: now},
		events.ProcessTopChange{NewNames: []string{"a"}, When: now},
		events.CameraEvent{Connected: false, When: now},
		events.MicrophoneEvent{Accessible: false, When: now},
	}
}

func runSinkUntilDrained(t *testing.T, notifier Notifier, opts SinkOptions, evs []events.Event) *events.Bus {
	t.Helper()
	bus := events.NewBus()
	for _, ev := range evs {
		if err := bus.Publish(ev); err != nil {
			t.Fatal(err)
		}
	}
	bus.Close()
	opts.ReceiveTimeout = 10 * time.Millisecond
	if err := NewSink(bus, notifier, opts).Drain(context.Background()); err != nil {
		t.Fatalf("Drain returned error: %v", err)
	}
	return bus
}

func TestSinkDeliversEveryEvent(t *testing.T) {
	notifier := &recordingNotifier{}
	runSinkUntilDrained(t, notifier, SinkOptions{DisplayTimeout: 5 * time.Second}, heterogeneousEvents())

	if len(notifier.delivered) != 5 {
		t.Fatalf("expected 5 deliveries, got %d", len(notifier.delivered))
	}
	if notifier.delivered[0].title != "Camera connected" || notifier.delivered[0].timeout != 5*time.Second {
		t.Fatalf("unexpected first delivery: %+v", notifier.delivered[0])
	}
}

func TestSinkSurvivesFailingNotifier(t *testing.T) {
	tests := []struct {
		name     string
		notifier *recordingNotifier
	}{
		{"error", &recordingNotifier{err: errors.New("dbus unavailable")}},
		{"panic", &recordingNotifier{panicMsg: "notifier crashed"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := runSinkUntilDrained(t, tt.notifier, SinkOptions{}, heterogeneousEvents())
			if tt.notifier.count() != 5 {
				t.Fatalf("expected 5 attempts, got %d", tt.notifier.count())
			}
			if bus.Len() != 0 {
				t.Fatalf("expected drained bus, %d left", bus.Len())
			}
		})
	}
}

func TestSinkSkipsMutedMonitors(t *testing.T) {
	notifier := &recordingNotifier{}
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.Processes = false
	runSinkUntilDrained(t, notifier, SinkOptionsFromConfig(cfg, nil), heterogeneousEvents())

	if len(notifier.delivered) != 4 {
		t.Fatalf("expected 4 deliveries, got %d", len(notifier.delivered))
	}
	for _, d := range notifier.delivered {
		if d.title == "New top process" {
			t.Fatal("muted process event was delivered")
		}
	}
}

func TestSinkStopsOnCancel(t *testing.T) {
	bus := events.NewBus()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewSink(bus, &recordingNotifier{}, SinkOptions{ReceiveTimeout: 10 * time.Millisecond}).Drain(ctx)
	}()
	time.Sleep(25 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Drain returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Drain did not stop")
	}
}

func TestNtfyNotifierSendsHeaders(t *testing.T) {
	var gotTitle, gotTags, gotPriority, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		gotTags = r.Header.Get("Tags")
		gotPriority = r.Header.Get("Priority")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewNtfy(server.URL, time.Second)
	if err := notifier.Notify(context.Background(), "Camera connected", "Checked at 2026-01-01T00:00:00Z", 0); err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	if gotTitle != "Camera connected" || gotPriority != "high" {
		t.Fatalf("unexpected headers: title=%q priority=%q", gotTitle, gotPriority)
	}
	if !strings.Contains(gotTags, "keepmeprivate") {
		t.Fatalf("unexpected tags: %q", gotTags)
	}
	if gotBody != "Checked at 2026-01-01T00:00:00Z" {
		t.Fatalf("unexpected body: %q", gotBody)
	}
}

func TestNtfyNotifierReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "topic locked", http.StatusForbidden)
	}))
	defer server.Close()

	err := NewNtfy(server.URL, time.Second).Notify(context.Background(), "t", "m", 0)
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}

type fakeDesktop struct {
	title   string
	message string
	appName string
	err     error
	block   chan struct{}
}

func (f *fakeDesktop) notify(title, message string, _ any) error {
	if f.block != nil {
		<-f.block
	}
	f.title = title
	f.message = message
	f.appName = beeep.AppName
	return f.err
}

func TestDesktopNotifierDelivers(t *testing.T) {
	fake := &fakeDesktop{}
	desktop := &Desktop{appName: "KeepMePrivate", notify: fake.notify}
	if err := desktop.Notify(context.Background(), "Microphone ready", "Checked at now", 5*time.Second); err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	if fake.title != "Microphone ready" || fake.message != "Checked at now" {
		t.Fatalf("unexpected notification: %q %q", fake.title, fake.message)
	}
	if fake.appName != "KeepMePrivate" {
		t.Fatalf("expected app name to be applied, got %q", fake.appName)
	}

	fake.err = errors.New("dbus unavailable")
	if err := desktop.Notify(context.Background(), "t", "m", 0); err == nil || !strings.Contains(err.Error(), "dbus unavailable") {
		t.Fatalf("expected delivery error to propagate, got %v", err)
	}
}

func TestDesktopNotifierHonorsContext(t *testing.T) {
	fake := &fakeDesktop{block: make(chan struct{})}
	defer close(fake.block)
	desktop := &Desktop{appName: "KeepMePrivate", notify: fake.notify}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := desktop.Notify(ctx, "t", "m", 0)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	ok := &recordingNotifier{}
	failing := &recordingNotifier{err: errors.New("offline")}
	err := Multi{failing, ok}.Notify(context.Background(), "t", "m", 0)
	if err == nil || !strings.Contains(err.Error(), "offline") {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(ok.delivered) != 1 {
		t.Fatal("healthy notifier should still deliver")
	}
}

func TestNewNotifierSelectsChain(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, ok := NewNotifier(cfg, nil).(Noop); !ok {
		t.Fatal("expected Noop when desktop and ntfy are disabled")
	}

	cfg = testsupport.NewConfig(t, testsupport.WithNtfyTopic("https://ntfy.example/topic"))
	if _, ok := NewNotifier(cfg, nil).(*Ntfy); !ok {
		t.Fatal("expected ntfy notifier")
	}

	cfg.Notifications.Desktop = true
	multi, ok := NewNotifier(cfg, nil).(Multi)
	if !ok || len(multi) != 2 {
		t.Fatalf("expected two-notifier chain, got %T", NewNotifier(cfg, nil))
	}
}
