package capability

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/jonwraymond/toolhub/cache"
	"github.com/jonwraymond/toolhub/dispatch"
	"github.com/jonwraymond/toolhub/weather"
)

type fakeSource struct {
	lookups   atomic.Int32
	forecasts atomic.Int32
	err       error
}

func (f *fakeSource) LookupCity(_ context.Context, location, _ string) (weather.City, error) {
	f.lookups.Add(1)
	if f.err != nil {
		return weather.City{}, f.err
	}
	return weather.City{ID: "id-" + strings.ToLower(location), Name: location}, nil
}

func (f *fakeSource) Forecast(_ context.Context, city weather.City, _ string) (weather.Forecast, error) {
	f.forecasts.Add(1)
	return weather.Forecast{
		City: city,
		Now:  weather.Current{Temp: "3", Text: "Light rain", WindDir: "E", WindScale: "2", Humidity: "80"},
		Days: []weather.Day{{Date: "2026-10-19", TempMax: "6", TempMin: "1", TextDay: "Light rain"}},
	}, nil
}

type fakeStore struct {
	mu    sync.Mutex
	saved map[string][]weather.Record
	err   error
}

func (s *fakeStore) Systems() []string { return []string{"erp", "office"} }

func (s *fakeStore) Save(_ context.Context, system string, rec weather.Record) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		s.saved = make(map[string][]weather.Record)
	}
	s.saved[system] = append(s.saved[system], rec)
	return len(s.saved[system]) == 1, nil
}

type fakeMailer struct {
	sent []Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

var testNow = time.Date(2026, 10, 19, 9, 15, 0, 0, time.UTC)

type harness struct {
	source *fakeSource
	pool   *cache.Pool
	disp   *dispatch.Dispatcher
	sess   *dispatch.BasicSession
}

func newHarness(t *testing.T, mutate func(*Deps)) *harness {
	t.Helper()
	pool, err := cache.NewPool(cache.DefaultConfig(), cache.WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatal(err)
	}
	src := &fakeSource{}
	d := Deps{
		Loader:          cache.NewLoader(pool, 0.8, nil),
		Weather:         src,
		DefaultLocation: "Hangzhou",
		Now:             func() time.Time { return testNow },
	}
	if mutate != nil {
		mutate(&d)
	}

	cfg := dispatch.BuildConfig{AlwaysOn: AlwaysOn, Functions: []string{GetWeather}, Forced: Forced, Strict: true}
	reg, err := dispatch.Build(context.Background(), NewCatalog(d), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	return &harness{
		source: src,
		pool:   pool,
		disp:   dispatch.NewDispatcher(reg),
		sess:   dispatch.NewSession("s-1", "You are a helpful assistant."),
	}
}

func (h *harness) call(t *testing.T, name, args string) *dispatch.Response {
	t.Helper()
	resp, err := h.disp.Dispatch(context.Background(), h.sess, dispatch.Call{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("Dispatch(%s): %v", name, err)
	}
	if resp == nil {
		t.Fatalf("Dispatch(%s) returned no result", name)
	}
	return resp
}

func TestCatalog_Complete(t *testing.T) {
	c := NewCatalog(Deps{})
	for _, name := range append(append([]string{}, AlwaysOn...), GetWeather, SendEmail, SaveWeather, CameraControl, CameraAnalysis) {
		d, ok := c.Lookup(name)
		if !ok {
			t.Errorf("%s missing from catalog", name)
			continue
		}
		if d.Definition.Function.Parameters["type"] != "object" {
			t.Errorf("%s parameters are not an object schema", name)
		}
	}
}

func TestPluginLoader_DescribesOthersAndSetsFocus(t *testing.T) {
	h := newHarness(t, nil)

	reg := h.disp.Registry()
	for _, def := range reg.DescribeAll() {
		if def.Function.Name != PluginLoader {
			continue
		}
		if strings.Contains(def.Function.Description, dispatch.PluginsPlaceholder) ||
			!strings.Contains(def.Function.Description, GetWeather) ||
			strings.Contains(def.Function.Description, PluginLoader+",") {
			t.Errorf("plugin_loader description = %q", def.Function.Description)
		}
	}

	resp := h.call(t, PluginLoader, `{"plugin_name":"get_weather_cached"}`)
	if !strings.Contains(resp.Result, "now active") {
		t.Errorf("result = %q", resp.Result)
	}
	h.call(t, PluginLoader, `{"plugin_name":"send_email"}`)
	want := "You are a helpful assistant." + focusMarker + "send_email"
	if got := h.sess.Prompt(); got != want {
		t.Errorf("prompt = %q, want %q", got, want)
	}

	resp = h.call(t, PluginLoader, `{"plugin_name":"nope"}`)
	if !strings.Contains(resp.Result, "no plugin") {
		t.Errorf("unknown plugin result = %q", resp.Result)
	}
}

func TestExitAndTime(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.call(t, ExitIntent, `{"say_goodbye":"See you!"}`)
	if resp.Action != dispatch.ActionResponse || resp.Response != "See you!" {
		t.Errorf("exit = %+v", resp)
	}

	resp = h.call(t, GetTime, `{}`)
	if !strings.Contains(resp.Result, "2026-10-19") || !strings.Contains(resp.Result, "Monday") {
		t.Errorf("time = %q", resp.Result)
	}
	resp = h.call(t, GetTime, `{"timezone":"Asia/Shanghai"}`)
	if !strings.Contains(resp.Result, "17:15:00") {
		t.Errorf("time in zone = %q", resp.Result)
	}
}

func TestGetWeather_CachesCityAndForecast(t *testing.T) {
	h := newHarness(t, nil)

	first := h.call(t, GetWeather, `{"location":"Hangzhou","lang":"en_US"}`)
	if !strings.HasPrefix(first.Result, "[live data]") {
		t.Errorf("first report = %q", first.Result)
	}
	second := h.call(t, GetWeather, `{"location":"Hangzhou","lang":"en_US"}`)
	if !strings.HasPrefix(second.Result, "[cached data]") {
		t.Errorf("second report = %q", second.Result)
	}
	if h.source.lookups.Load() != 1 || h.source.forecasts.Load() != 1 {
		t.Errorf("upstream calls lookups=%d forecasts=%d, want 1/1", h.source.lookups.Load(), h.source.forecasts.Load())
	}

	forced := h.call(t, GetWeather, `{"location":"Hangzhou","lang":"en_US","force_refresh":true}`)
	if !strings.HasPrefix(forced.Result, "[live data]") || h.source.forecasts.Load() != 2 {
		t.Errorf("force_refresh did not bypass the cache: %q", forced.Result)
	}

	st, _ := h.pool.Stats().Namespace(cache.NamespaceCity)
	if st.Entries != 1 {
		t.Errorf("city entries = %d", st.Entries)
	}
}

func TestGetWeather_DefaultLocationAndDebug(t *testing.T) {
	h := newHarness(t, func(d *Deps) { d.Debug = true })
	resp := h.call(t, GetWeather, `{"lang":"zh_CN"}`)
	if !strings.Contains(resp.Result, "Hangzhou") {
		t.Errorf("default location not used: %q", resp.Result)
	}
	if !strings.Contains(resp.Result, "=== cache pool ===") {
		t.Errorf("debug cache summary missing: %q", resp.Result)
	}
}

func TestGetWeather_Failures(t *testing.T) {
	h := newHarness(t, nil)
	h.source.err = weather.ErrCityNotFound
	resp := h.call(t, GetWeather, `{"location":"Atlantis"}`)
	if !strings.Contains(resp.Result, `No city matched "Atlantis"`) {
		t.Errorf("not-found result = %q", resp.Result)
	}

	h.source.err = errors.New("connection reset")
	resp = h.call(t, GetWeather, `{"location":"Oslo"}`)
	if !strings.Contains(resp.Result, "did not answer") {
		t.Errorf("upstream failure result = %q", resp.Result)
	}
	if h.pool.Len() != 0 {
		t.Errorf("failures must not be cached, pool has %d", h.pool.Len())
	}

	h = newHarness(t, func(d *Deps) { d.Weather = nil })
	resp = h.call(t, GetWeather, `{"location":"Oslo"}`)
	if !strings.Contains(resp.Result, "not configured") {
		t.Errorf("unavailable result = %q", resp.Result)
	}
}

func TestSaveWeather(t *testing.T) {
	store := &fakeStore{}
	h := newHarness(t, func(d *Deps) { d.Store = store })

	resp := h.call(t, SaveWeather, `{"system_alias":"erp","location":"Hangzhou"}`)
	if !strings.Contains(resp.Result, "added a new record for 2026-10-19") {
		t.Errorf("first save = %q", resp.Result)
	}
	resp = h.call(t, SaveWeather, `{"system_alias":"erp","location":"Hangzhou"}`)
	if !strings.Contains(resp.Result, "updated today's record") {
		t.Errorf("second save = %q", resp.Result)
	}
	rec := store.saved["erp"][0]
	if rec.Location != "Hangzhou" || rec.Source != "qweather" || rec.Temperature != "3°C" || len(rec.Forecast) != 1 {
		t.Errorf("record = %+v", rec)
	}

	resp = h.call(t, SaveWeather, `{"system_alias":"crm"}`)
	if !strings.Contains(resp.Result, "Configured systems: erp, office") {
		t.Errorf("unknown system = %q", resp.Result)
	}

	store.err = errors.New("disk full")
	resp = h.call(t, SaveWeather, `{"system_alias":"office"}`)
	if !strings.Contains(resp.Result, "failed") {
		t.Errorf("store failure = %q", resp.Result)
	}
}

func TestSendEmail(t *testing.T) {
	mailer := &fakeMailer{}
	h := newHarness(t, func(d *Deps) {
		d.Mailer = mailer
		d.Contacts = map[string]string{"mom": "mom@example.com", "boss": "boss@example.com"}
	})

	resp := h.call(t, SendEmail, `{"recipient_alias":"mom","location":"Hangzhou"}`)
	if !strings.Contains(resp.Result, "Email sent") {
		t.Fatalf("result = %q", resp.Result)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d messages", len(mailer.sent))
	}
	msg := mailer.sent[0]
	if msg.To != "mom@example.com" || !strings.Contains(msg.Subject, "Hangzhou") {
		t.Errorf("message = %+v", msg)
	}
	for _, want := range []string{"Hi mom", "Light rain, 3°C", "2026-10-19: Light rain, 1~6°C", "umbrella", "warm jacket"} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("body missing %q:\n%s", want, msg.Body)
		}
	}

	resp = h.call(t, SendEmail, `{"recipient_alias":"dad"}`)
	if !strings.Contains(resp.Result, "Configured contacts: boss, mom") {
		t.Errorf("unknown contact = %q", resp.Result)
	}

	mailer.err = errors.New("535 auth failed")
	resp = h.call(t, SendEmail, `{"recipient_alias":"boss"}`)
	if !strings.Contains(resp.Result, "failed") {
		t.Errorf("send failure = %q", resp.Result)
	}
}

func TestAdvise(t *testing.T) {
	tests := []struct {
		name      string
		now       weather.Current
		clothing  string
		transport string
	}{
		{"freezing snow", weather.Current{Temp: "-5", Text: "Heavy snow"}, "heavy coat", "slippery"},
		{"hot clear", weather.Current{Temp: "33", Text: "Sunny"}, "breathable", "Public transport"},
		{"mild haze", weather.Current{Temp: "15", Text: "Haze"}, "light jacket", "Visibility"},
		{"unknown temp", weather.Current{Text: "Cloudy"}, "layers", "Public transport"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := Advise(weather.Forecast{Now: tc.now})
			if !strings.Contains(a.Clothing, tc.clothing) || !strings.Contains(a.Transport, tc.transport) {
				t.Errorf("advice = %+v", a)
			}
		})
	}
}
