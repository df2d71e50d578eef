package mqtt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/mt-krainski/chrzaszcz-simple/internal/infra/metrics"
	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/drive"
)

const (
	// Arm deltas are relative, so a redelivered message would move twice.
	qosAtMostOnce byte = 0

	connectTimeout       = 5 * time.Second
	connectRetryInterval = 5 * time.Second
	disconnectQuiesceMs  = 250
)

// Topic suffixes under the configured prefix.
const (
	TopicDrive    = "drive"
	TopicArmMove  = "arm/move"
	TopicArmReset = "arm/reset"
)

type Config struct {
	Broker      string
	ClientID    string
	TopicPrefix string
}

type driveMessage struct {
	Left  *int `json:"left"`
	Right *int `json:"right"`
}

type armMoveMessage struct {
	Deltas []int `json:"deltas"`
}

// Adapter feeds drive and arm commands received over MQTT into the
// arbiters. Bad messages are logged and dropped.
type Adapter struct {
	logger *slog.Logger
	cfg    Config
	drive  driveCommander
	arm    armCommander

	mu     sync.Mutex
	ctx    context.Context
	client paho.Client
}

func New(
	logger *slog.Logger,
	cfg Config,
	drive driveCommander,
	arm armCommander,
) *Adapter {
	return &Adapter{
		logger: logger.With("component", "mqtt-ingress"),
		cfg:    cfg,
		drive:  drive,
		arm:    arm,
		ctx:    context.Background(),
	}
}

func (a *Adapter) Name() string {
	return "mqtt-ingress"
}

// PingerCritical keeps HTTP control usable while the broker is away.
func (a *Adapter) PingerCritical() bool {
	return false
}

// Topic returns the full topic for a suffix.
func (a *Adapter) Topic(suffix string) string {
	return a.cfg.TopicPrefix + "/" + suffix
}

// Start connects in the background; the client keeps retrying and
// resubscribes after every reconnect.
func (a *Adapter) Start(ctx context.Context) error {
	opts := paho.NewClientOptions()
	opts.AddBroker(a.cfg.Broker)
	opts.SetClientID(a.cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(connectRetryInterval)
	opts.SetOnConnectHandler(a.onConnect)
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		a.logger.WarnContext(ctx, "mqtt connection lost", "reason", err)
	})

	client := paho.NewClient(opts)

	a.mu.Lock()
	a.ctx = ctx
	a.client = client
	a.mu.Unlock()

	token := client.Connect()
	if token.WaitTimeout(connectTimeout) && token.Error() != nil {
		return fmt.Errorf("connect to mqtt broker %s: %w", a.cfg.Broker, token.Error())
	}

	a.logger.InfoContext(ctx, "mqtt ingress started",
		"broker", a.cfg.Broker,
		"prefix", a.cfg.TopicPrefix,
		"connected", client.IsConnected(),
	)

	return nil
}

func (a *Adapter) onConnect(client paho.Client) {
	ctx := a.context()

	filters := map[string]byte{
		a.Topic(TopicDrive):    qosAtMostOnce,
		a.Topic(TopicArmMove):  qosAtMostOnce,
		a.Topic(TopicArmReset): qosAtMostOnce,
	}

	token := client.SubscribeMultiple(filters, func(_ paho.Client, msg paho.Message) {
		_ = a.HandleMessage(a.context(), msg.Topic(), msg.Payload())
	})
	if token.WaitTimeout(connectTimeout) && token.Error() != nil {
		a.logger.ErrorContext(ctx, "mqtt subscribe failed", "reason", token.Error())

		return
	}

	a.logger.InfoContext(ctx, "mqtt connected and subscribed", "topics", len(filters))
}

// HandleMessage decodes one message and applies it. The error is also
// logged and counted.
func (a *Adapter) HandleMessage(ctx context.Context, topic string, payload []byte) error {
	suffix, _ := strings.CutPrefix(topic, a.cfg.TopicPrefix+"/")

	err := a.dispatch(ctx, suffix, payload)

	result := "applied"
	if err != nil {
		result = "rejected"
		a.logger.WarnContext(ctx, "mqtt command dropped",
			"topic", topic,
			"reason", err,
		)
	}

	metrics.RecordMQTTMessage(suffix, result)

	return err
}

func (a *Adapter) dispatch(ctx context.Context, suffix string, payload []byte) error {
	switch suffix {
	case TopicDrive:
		var msg driveMessage
		if err := decodeStrict(payload, &msg); err != nil {
			return err
		}

		if msg.Left == nil || msg.Right == nil {
			return fmt.Errorf("%w: left and right are required", ErrInvalidPayload)
		}

		return a.drive.ApplyDriveCommand(ctx, drive.SourceMQTT, drive.Command{Left: *msg.Left, Right: *msg.Right})
	case TopicArmMove:
		var msg armMoveMessage
		if err := decodeStrict(payload, &msg); err != nil {
			return err
		}

		_, err := a.arm.ApplyDeltasCommand(ctx, msg.Deltas)

		return err
	case TopicArmReset:
		_, err := a.arm.ResetCommand(ctx)

		return err
	default:
		return fmt.Errorf("%w: %s", ErrUnknownTopic, suffix)
	}
}

// Ping reports whether the broker link is up.
func (a *Adapter) Ping(context.Context) error {
	a.mu.Lock()
	client := a.client
	a.mu.Unlock()

	if client == nil || !client.IsConnectionOpen() {
		return ErrNotConnected
	}

	return nil
}

func (a *Adapter) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	client := a.client
	a.mu.Unlock()

	if client == nil {
		return nil
	}

	client.Disconnect(disconnectQuiesceMs)
	a.logger.InfoContext(ctx, "mqtt ingress disconnected")

	return nil
}

func (a *Adapter) context() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.ctx
}

func decodeStrict(payload []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	// More reports false on a stray closing delimiter, so read one more token.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, errors.New("trailing data"))
	}

	return nil
}
