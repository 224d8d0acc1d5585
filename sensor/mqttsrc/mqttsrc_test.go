package mqttsrc

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/cwbudde/algo-hrv/hrv"
	"github.com/cwbudde/algo-hrv/sensor"
	"github.com/cwbudde/algo-hrv/sensor/blehr"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type published struct {
	topic   string
	qos     byte
	retain  bool
	payload []byte
}

// fakeClient routes messages in-process. Unimplemented methods of the
// embedded interface panic.
type fakeClient struct {
	mqtt.Client

	mu           sync.Mutex
	routes       map[string]mqtt.MessageHandler
	retained     map[string][]byte
	published    []published
	subErr       error
	connected    bool
	disconnected bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		routes:    make(map[string]mqtt.MessageHandler),
		retained:  make(map[string][]byte),
		connected: true,
	}
}

func (c *fakeClient) Subscribe(topic string, _ byte, cb mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	if c.subErr != nil {
		c.mu.Unlock()
		return doneToken{err: c.subErr}
	}
	c.routes[topic] = cb
	var pending []fakeMessage
	for t, p := range c.retained {
		if match(topic, t) {
			pending = append(pending, fakeMessage{topic: t, payload: p})
		}
	}
	c.mu.Unlock()

	for _, m := range pending {
		cb(c, m)
	}
	return doneToken{}
}

func (c *fakeClient) Unsubscribe(topics ...string) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range topics {
		delete(c.routes, t)
	}
	return doneToken{}
}

func (c *fakeClient) Publish(topic string, qos byte, retain bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, published{topic, qos, retain, payload.([]byte)})
	return doneToken{}
}

func (c *fakeClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	c.disconnected = true
}

func (c *fakeClient) hasRoute(topic string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.routes[topic]
	return ok
}

func (c *fakeClient) deliver(topic string, payload []byte) {
	c.mu.Lock()
	var handlers []mqtt.MessageHandler
	for filter, cb := range c.routes {
		if match(filter, topic) {
			handlers = append(handlers, cb)
		}
	}
	c.mu.Unlock()

	for _, cb := range handlers {
		cb(c, fakeMessage{topic: topic, payload: payload})
	}
}

func match(filter, topic string) bool {
	fs := strings.Split(filter, "/")
	ts := strings.Split(topic, "/")
	if len(fs) != len(ts) {
		return false
	}
	for i := range fs {
		if fs[i] != "+" && fs[i] != ts[i] {
			return false
		}
	}
	return true
}

func nextState(t *testing.T, src *Source) sensor.ConnectionState {
	t.Helper()
	select {
	case s := <-src.States():
		return s
	case <-time.After(time.Second):
		t.Fatal("no state transition")
		return 0
	}
}

func TestTopics(t *testing.T) {
	if got := Topic("hrv", "polar-h10"); got != "hrv/polar-h10/rr" {
		t.Fatalf("Topic=%q", got)
	}

	tests := []struct {
		topic string
		id    string
		ok    bool
	}{
		{"hrv/polar-h10/rr", "polar-h10", true},
		{"hrv/a/b/rr", "", false},
		{"hrv//rr", "", false},
		{"other/x/rr", "", false},
		{"hrv/x/hr", "", false},
	}
	for _, tc := range tests {
		id, ok := DeviceFromTopic("hrv", tc.topic)
		if id != tc.id || ok != tc.ok {
			t.Fatalf("DeviceFromTopic(%q)=(%q, %v) want (%q, %v)", tc.topic, id, ok, tc.id, tc.ok)
		}
	}
}

func TestDecode(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	hr, err := Decode([]byte(`{"hr":72,"rr":[812,790],"contact":true}`), FormatJSON, ts)
	if err != nil {
		t.Fatalf("Decode json: %v", err)
	}
	if hr.HR != 72 || len(hr.RR) != 2 || hr.RR[0] != 812 || !hr.Contact || !hr.Timestamp.Equal(ts) {
		t.Fatalf("json decoded to %+v", hr)
	}

	hr, err = Decode(blehr.Encode(64, []int{800, 1000}, true), FormatGATT, ts)
	if err != nil {
		t.Fatalf("Decode gatt: %v", err)
	}
	if hr.HR != 64 || len(hr.RR) != 2 || hr.RR[0] != 800 || hr.RR[1] != 1000 {
		t.Fatalf("gatt decoded to %+v", hr)
	}

	if _, err := Decode([]byte("{"), FormatJSON, ts); err == nil {
		t.Fatal("expected error for malformed json")
	}
	if _, err := Decode(nil, "cbor", ts); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err=%v want ErrUnsupportedFormat", err)
	}
}

func TestDecodeBattery(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		format  string
		want    int
		err     error
	}{
		{"number", []byte("87"), FormatJSON, 87, nil},
		{"object", []byte(`{"battery":42}`), FormatJSON, 42, nil},
		{"gatt", []byte{63}, FormatGATT, 63, nil},
		{"missing field", []byte(`{"hr":60}`), FormatJSON, 0, ErrNoBattery},
		{"json range", []byte("120"), FormatJSON, 0, blehr.ErrBatteryRange},
		{"gatt range", []byte{200}, FormatGATT, 0, blehr.ErrBatteryRange},
		{"gatt empty", nil, FormatGATT, 0, blehr.ErrShortPacket},
		{"format", []byte("1"), "cbor", 0, ErrUnsupportedFormat},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeBattery(tc.payload, tc.format)
			if !errors.Is(err, tc.err) || got != tc.want {
				t.Fatalf("DecodeBattery=(%d, %v) want (%d, %v)", got, err, tc.want, tc.err)
			}
		})
	}

	if _, err := DecodeBattery([]byte("{"), FormatJSON); err == nil {
		t.Fatal("expected error for malformed json")
	}
}

func TestNormalizeConfig(t *testing.T) {
	cfg := normalizeConfig(Config{TopicPrefix: "sensors/", QoS: 7})
	if cfg.TopicPrefix != "sensors" || cfg.QoS != 2 || cfg.Format != FormatJSON {
		t.Fatalf("normalized=%+v", cfg)
	}
	if !strings.HasPrefix(cfg.ClientID, "hrv-") || cfg.ScanWindow != defaultScanWindow {
		t.Fatalf("normalized=%+v", cfg)
	}
}

func TestConnectStreamsNotifications(t *testing.T) {
	client := newFakeClient()
	src := New(Config{}, client)
	defer src.Shutdown()

	if err := src.Connect(context.Background(), "h10"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if s := nextState(t, src); s != sensor.Connecting {
		t.Fatalf("state=%v", s)
	}
	if s := nextState(t, src); s != sensor.Connected {
		t.Fatalf("state=%v", s)
	}
	if id, ok := src.Device(); !ok || id != "h10" {
		t.Fatalf("Device=(%q, %v)", id, ok)
	}

	client.deliver("hrv/h10/rr", []byte(`{"hr":60,"rr":[1000]}`))
	client.deliver("hrv/other/rr", []byte(`{"hr":90,"rr":[666]}`))

	select {
	case hr := <-src.HeartRates():
		if hr.HR != 60 || len(hr.RR) != 1 || hr.RR[0] != 1000 {
			t.Fatalf("notification %+v", hr)
		}
	case <-time.After(time.Second):
		t.Fatal("no notification")
	}
	if n := len(src.HeartRates()); n != 0 {
		t.Fatalf("%d notifications from an unsubscribed device", n)
	}

	client.deliver("hrv/h10/rr", []byte("garbage"))
	if src.LastError() == nil {
		t.Fatal("malformed payload not recorded")
	}
}

func nextBattery(t *testing.T, src *Source) int {
	t.Helper()
	select {
	case level := <-src.Batteries():
		return level
	case <-time.After(time.Second):
		t.Fatal("no battery level")
		return 0
	}
}

func TestConnectReportsBattery(t *testing.T) {
	client := newFakeClient()
	client.retained["hrv/h10/battery"] = []byte("91")
	src := New(Config{}, client)
	defer src.Shutdown()

	if _, ok := src.Battery(); ok {
		t.Fatal("battery known before connecting")
	}
	if err := src.Connect(context.Background(), "h10"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if got := nextBattery(t, src); got != 91 {
		t.Fatalf("retained level=%d want 91", got)
	}

	client.deliver("hrv/h10/rr", []byte(`{"hr":60,"rr":[1000],"battery":90}`))
	if got := nextBattery(t, src); got != 90 {
		t.Fatalf("notification level=%d want 90", got)
	}
	if hr := <-src.HeartRates(); len(hr.RR) != 1 {
		t.Fatalf("notification %+v", hr)
	}

	client.deliver("hrv/h10/battery", []byte("low"))
	if src.LastError() == nil {
		t.Fatal("malformed battery level not recorded")
	}
	if level, ok := src.Battery(); !ok || level != 90 {
		t.Fatalf("Battery=(%d, %v) want (90, true)", level, ok)
	}

	if err := src.Disconnect(); err != nil {
		t.Fatal(err)
	}
	if _, ok := src.Battery(); ok {
		t.Fatal("battery kept after disconnect")
	}
}

func TestConnectReportsGATTBattery(t *testing.T) {
	client := newFakeClient()
	src := New(Config{Format: FormatGATT}, client)
	defer src.Shutdown()

	if err := src.Connect(context.Background(), "h10"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	client.deliver("hrv/h10/battery", []byte{55})
	if got := nextBattery(t, src); got != 55 {
		t.Fatalf("level=%d want 55", got)
	}
}

func TestConnectSwitchesDevice(t *testing.T) {
	client := newFakeClient()
	src := New(Config{}, client)
	defer src.Shutdown()

	ctx := context.Background()
	if err := src.Connect(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if err := src.Connect(ctx, "b"); err != nil {
		t.Fatal(err)
	}
	if client.hasRoute("hrv/a/rr") || !client.hasRoute("hrv/b/rr") {
		t.Fatal("switching devices must move the subscription")
	}
	if client.hasRoute("hrv/a/battery") || !client.hasRoute("hrv/b/battery") {
		t.Fatal("switching devices must move the battery subscription")
	}

	if err := src.Disconnect(); err != nil {
		t.Fatal(err)
	}
	if client.hasRoute("hrv/b/rr") || client.hasRoute("hrv/b/battery") || src.State() != sensor.Disconnected {
		t.Fatalf("Disconnect left route or state %v", src.State())
	}
}

func TestConnectSubscribeFailure(t *testing.T) {
	client := newFakeClient()
	client.subErr = errors.New("not authorized")
	src := New(Config{}, client)
	defer src.Shutdown()

	err := src.Connect(context.Background(), "h10")
	if !errors.Is(err, client.subErr) {
		t.Fatalf("err=%v", err)
	}
	if src.State() != sensor.Disconnected || src.LastError() == nil {
		t.Fatalf("state=%v lastErr=%v", src.State(), src.LastError())
	}
}

func TestScan(t *testing.T) {
	client := newFakeClient()
	client.retained["hrv/zephyr/rr"] = []byte(`{}`)
	client.retained["hrv/h10/rr"] = []byte(`{}`)
	client.retained["other/x/rr"] = []byte(`{}`)

	src := New(Config{ScanWindow: 10 * time.Millisecond}, client)
	defer src.Shutdown()

	devices, err := src.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(devices) != 2 || devices[0].ID != "h10" || devices[1].ID != "zephyr" {
		t.Fatalf("devices=%+v", devices)
	}
	if client.hasRoute("hrv/+/rr") {
		t.Fatal("scan subscription not removed")
	}
}

func TestShutdown(t *testing.T) {
	client := newFakeClient()
	src := New(Config{}, client)

	if err := src.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if !client.disconnected {
		t.Fatal("broker connection left open")
	}
	if err := src.Connect(context.Background(), "h10"); !errors.Is(err, sensor.ErrClosed) {
		t.Fatalf("Connect after Shutdown err=%v", err)
	}
}

func TestPublisher(t *testing.T) {
	client := newFakeClient()
	pub := NewPublisher(client, "hrv/metrics", 1, true)

	m := hrv.Metrics{CoherenceScore: 0.4, RMSSD: 42, MeanHR: 61, RRCount: 64, Sequence: 3}
	if err := pub.Publish(m); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(client.published) != 1 {
		t.Fatalf("published %d messages", len(client.published))
	}
	p := client.published[0]
	if p.topic != "hrv/metrics" || p.qos != 1 || !p.retain {
		t.Fatalf("published %+v", p)
	}

	var got hrv.Metrics
	if err := json.Unmarshal(p.payload, &got); err != nil {
		t.Fatal(err)
	}
	if got.RMSSD != 42 || got.RRCount != 64 || got.Sequence != 3 {
		t.Fatalf("payload %+v", got)
	}
}
