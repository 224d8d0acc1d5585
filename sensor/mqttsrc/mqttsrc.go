// Package mqttsrc implements a [sensor.Source] fed by heart-rate
// notifications relayed over MQTT. Each device publishes on
// <prefix>/<device>/rr, either as JSON or as a raw GATT 0x2A37 payload, and
// optionally its battery level on <prefix>/<device>/battery (a JSON number
// or a raw GATT 0x2A19 byte). JSON notifications may also carry a
// "battery" field.
package mqttsrc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/cwbudde/algo-hrv/sensor"
	"github.com/cwbudde/algo-hrv/sensor/blehr"
)

// Payload formats.
const (
	FormatJSON = "json"
	FormatGATT = "gatt"
)

const (
	defaultTopicPrefix = "hrv"
	defaultScanWindow  = 2 * time.Second
	disconnectQuiesce  = 250
)

var (
	// ErrUnsupportedFormat is returned for a payload format other than
	// FormatJSON or FormatGATT.
	ErrUnsupportedFormat = errors.New("mqttsrc: unsupported payload format")
	// ErrNoBattery is returned for a JSON battery payload without a level.
	ErrNoBattery = errors.New("mqttsrc: payload has no battery level")
)

// Config describes the broker connection and topic layout.
type Config struct {
	Broker      string
	Username    string
	Password    string
	ClientID    string
	TopicPrefix string
	QoS         byte
	Format      string
	// ScanWindow bounds how long Scan listens for publishing devices.
	ScanWindow time.Duration
}

// Topic returns the notification topic of device.
func Topic(prefix, device string) string {
	return prefix + "/" + device + "/rr"
}

// BatteryTopic returns the battery level topic of device.
func BatteryTopic(prefix, device string) string {
	return prefix + "/" + device + "/battery"
}

// DeviceFromTopic extracts the device id from a notification topic.
func DeviceFromTopic(prefix, topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, prefix+"/")
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, "/rr")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// Decode converts a notification payload. JSON payloads without a
// timestamp are stamped with ts.
func Decode(payload []byte, format string, ts time.Time) (sensor.HeartRate, error) {
	switch format {
	case FormatGATT:
		return blehr.Parse(payload, ts)
	case FormatJSON, "":
		var hr sensor.HeartRate
		if err := json.Unmarshal(payload, &hr); err != nil {
			return sensor.HeartRate{}, fmt.Errorf("failed to decode notification: %w", err)
		}
		if hr.Timestamp.IsZero() {
			hr.Timestamp = ts
		}
		return hr, nil
	default:
		return sensor.HeartRate{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// DecodeBattery converts a battery level payload. JSON payloads are a bare
// number or an object with a "battery" field.
func DecodeBattery(payload []byte, format string) (int, error) {
	switch format {
	case FormatGATT:
		return blehr.ParseBattery(payload)
	case FormatJSON, "":
		var level int
		if err := json.Unmarshal(payload, &level); err != nil {
			var ok bool
			if level, ok, err = batteryField(payload); err != nil {
				return 0, fmt.Errorf("failed to decode battery level: %w", err)
			} else if !ok {
				return 0, ErrNoBattery
			}
		}
		if level < 0 || level > 100 {
			return 0, fmt.Errorf("%w: %d", blehr.ErrBatteryRange, level)
		}
		return level, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func batteryField(payload []byte) (int, bool, error) {
	var v struct {
		Battery *int `json:"battery"`
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		return 0, false, err
	}
	if v.Battery == nil {
		return 0, false, nil
	}
	return *v.Battery, true, nil
}

// Source subscribes to one device's notification and battery topics at a
// time.
type Source struct {
	*sensor.Feed

	cfg    Config
	client mqtt.Client

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	device string
}

// New wraps an already connected client.
func New(cfg Config, client mqtt.Client) *Source {
	ctx, cancel := context.WithCancel(context.Background())
	return &Source{
		Feed:   sensor.NewFeed(0),
		cfg:    normalizeConfig(cfg),
		client: client,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Dial connects to the configured broker and wraps the client.
func Dial(cfg Config) (*Source, error) {
	cfg = normalizeConfig(cfg)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	var src atomic.Pointer[Source]
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Printf("MQTT: Connected to broker %s", cfg.Broker)
		if s := src.Load(); s != nil {
			s.resubscribe()
		}
	})
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Printf("MQTT: Connection lost: %v", err)
		if s := src.Load(); s != nil {
			s.Fail(err)
		}
	})
	opts.SetReconnectingHandler(func(client mqtt.Client, opts *mqtt.ClientOptions) {
		log.Printf("MQTT: Attempting to reconnect...")
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	s := New(cfg, client)
	src.Store(s)
	return s, nil
}

// Config returns the normalized configuration.
func (s *Source) Config() Config { return s.cfg }

// Client returns the underlying MQTT client.
func (s *Source) Client() mqtt.Client { return s.client }

// Device returns the id of the subscribed device, if any.
func (s *Source) Device() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device, s.device != ""
}

// Scan listens on the wildcard topic for ScanWindow and reports every device
// seen publishing.
func (s *Source) Scan(ctx context.Context) ([]sensor.Device, error) {
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{})
	)

	filter := Topic(s.cfg.TopicPrefix, "+")
	token := s.client.Subscribe(filter, s.cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		if id, ok := DeviceFromTopic(s.cfg.TopicPrefix, msg.Topic()); ok {
			mu.Lock()
			seen[id] = struct{}{}
			mu.Unlock()
		}
	})
	if err := wait(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", filter, err)
	}

	timer := time.NewTimer(s.cfg.ScanWindow)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}

	// The per-device subscription of a connected device keeps its own route.
	s.client.Unsubscribe(filter)

	mu.Lock()
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	mu.Unlock()
	slices.Sort(ids)

	devices := make([]sensor.Device, len(ids))
	for i, id := range ids {
		devices[i] = sensor.Device{ID: id, Name: id, Connectable: true}
	}

	return devices, ctx.Err()
}

// Connect subscribes to the notification and battery topics of id,
// replacing any previous subscription.
func (s *Source) Connect(ctx context.Context, id string) error {
	select {
	case <-s.Done():
		return sensor.ErrClosed
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.device == id {
		return nil
	}
	if s.device != "" {
		s.unsubscribeLocked()
	}

	s.SetState(sensor.Connecting)

	if err := s.subscribe(ctx, id); err != nil {
		s.Fail(err)
		s.SetState(sensor.Disconnected)
		return err
	}

	s.device = id
	s.SetState(sensor.Connected)

	return nil
}

// Disconnect drops the device subscription.
func (s *Source) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.device != "" {
		s.unsubscribeLocked()
	}
	return nil
}

// Shutdown drops the subscription, disconnects from the broker and closes
// the source.
func (s *Source) Shutdown() error {
	err := s.Disconnect()
	s.cancel()
	if s.client.IsConnected() {
		s.client.Disconnect(disconnectQuiesce)
	}
	s.Close()
	return err
}

// subscribe routes the notification and battery topics of id. On failure
// neither route is left behind.
func (s *Source) subscribe(ctx context.Context, id string) error {
	topic := Topic(s.cfg.TopicPrefix, id)
	if err := wait(ctx, s.client.Subscribe(topic, s.cfg.QoS, s.handle)); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	battery := BatteryTopic(s.cfg.TopicPrefix, id)
	if err := wait(ctx, s.client.Subscribe(battery, s.cfg.QoS, s.handleBattery)); err != nil {
		s.client.Unsubscribe(topic)
		return fmt.Errorf("failed to subscribe to %s: %w", battery, err)
	}

	return nil
}

func (s *Source) unsubscribeLocked() {
	s.SetState(sensor.Disconnecting)
	topics := []string{Topic(s.cfg.TopicPrefix, s.device), BatteryTopic(s.cfg.TopicPrefix, s.device)}
	if token := s.client.Unsubscribe(topics...); token.Wait() && token.Error() != nil {
		log.Printf("MQTT ERROR: Failed to unsubscribe from %s: %v", strings.Join(topics, ", "), token.Error())
	}
	s.device = ""
	s.SetState(sensor.Disconnected)
}

func (s *Source) resubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.device == "" {
		return
	}
	if err := s.subscribe(s.ctx, s.device); err != nil {
		s.Fail(fmt.Errorf("failed to resubscribe: %w", err))
	}
}

func (s *Source) handle(_ mqtt.Client, msg mqtt.Message) {
	hr, err := Decode(msg.Payload(), s.cfg.Format, time.Now())
	if err != nil {
		log.Printf("MQTT ERROR: Dropping notification on %s: %v", msg.Topic(), err)
		s.Fail(err)
		return
	}
	if s.cfg.Format == FormatJSON {
		if level, ok, err := batteryField(msg.Payload()); err == nil && ok {
			s.SetBattery(level)
		}
	}
	if err := s.Emit(s.ctx, hr); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, sensor.ErrClosed) {
		s.Fail(err)
	}
}

func (s *Source) handleBattery(_ mqtt.Client, msg mqtt.Message) {
	level, err := DecodeBattery(msg.Payload(), s.cfg.Format)
	if err != nil {
		log.Printf("MQTT ERROR: Dropping battery level on %s: %v", msg.Topic(), err)
		s.Fail(err)
		return
	}
	s.SetBattery(level)
}

func wait(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func normalizeConfig(cfg Config) Config {
	if cfg.ClientID == "" {
		cfg.ClientID = "hrv-" + uuid.NewString()
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = defaultTopicPrefix
	}
	cfg.TopicPrefix = strings.TrimSuffix(cfg.TopicPrefix, "/")
	if cfg.QoS > 2 {
		cfg.QoS = 2
	}
	if cfg.Format == "" {
		cfg.Format = FormatJSON
	}
	if cfg.ScanWindow <= 0 {
		cfg.ScanWindow = defaultScanWindow
	}
	return cfg
}
