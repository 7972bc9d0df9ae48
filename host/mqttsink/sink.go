// Package mqttsink publishes monitor readings to an MQTT broker as JSON.
package mqttsink

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
	"github.com/google/uuid"

	"dhtcode-go/host/config"
	"dhtcode-go/host/monitor"
)

// DefaultTimeout bounds connect and publish acknowledgements.
const DefaultTimeout = 5 * time.Second

var ErrTimeout = errors.New("mqttsink: timed out waiting for broker")

// Sink implements monitor.Sink. Readings go to <prefix>/<name>/reading.
type Sink struct {
	Timeout time.Duration

	client   paho.Client
	prefix   string
	qos      byte
	retained bool
}

var _ monitor.Sink = (*Sink)(nil)

// ClientID returns cfg's client ID, or a unique dht-monitor-<uuid>.
func ClientID(cfg config.MQTTConfig) string {
	if cfg.ClientID != "" {
		return cfg.ClientID
	}
	return "dht-monitor-" + uuid.NewString()
}

// Dial connects to cfg.Broker and returns a ready sink.
func Dial(cfg config.MQTTConfig) (*Sink, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(ClientID(cfg)).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			glog.Warningf("mqtt connection lost: %v", err)
		}).
		SetOnConnectHandler(func(paho.Client) {
			glog.Infof("mqtt connected to %s", cfg.Broker)
		})
	s := New(paho.NewClient(opts), cfg)
	if err := s.wait(s.client.Connect()); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.Broker, err)
	}
	return s, nil
}

// New wraps an existing client. The client is not connected.
func New(c paho.Client, cfg config.MQTTConfig) *Sink {
	return &Sink{
		Timeout:  DefaultTimeout,
		client:   c,
		prefix:   cfg.TopicPrefix,
		qos:      cfg.QoS,
		retained: cfg.Retained,
	}
}

// Topic returns the topic a reading for name is published on.
func (s *Sink) Topic(name string) string {
	if s.prefix == "" {
		return name + "/reading"
	}
	return s.prefix + "/" + name + "/reading"
}

func (s *Sink) Publish(r monitor.Reading) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding reading %s: %w", r.Name, err)
	}
	return s.wait(s.client.Publish(s.Topic(r.Name), s.qos, s.retained, payload))
}

// Close disconnects, allowing in-flight work a quarter second.
func (s *Sink) Close() {
	s.client.Disconnect(250)
}

func (s *Sink) wait(t paho.Token) error {
	if !t.WaitTimeout(s.Timeout) {
		return ErrTimeout
	}
	return t.Error()
}
