package party

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/absmach/fedprox/pkg/fl"
	pkgmqtt "github.com/absmach/fedprox/pkg/mqtt"
)

const (
	roundStartTopicTemplate = "fl/%s/rounds/start"
	updateTopicTemplate     = "fl/%s/rounds/updates"
	aliveTopicTemplate      = "fl/%s/parties/alive"

	statusAlive   = "alive"
	statusOffline = "offline"
	statusFailed  = "failed"
)

// AliveTopic is where parties of a federation announce liveness.
func AliveTopic(federation string) string {
	return fmt.Sprintf(aliveTopicTemplate, federation)
}

// OfflinePayload is the last will a party registers with the broker.
func OfflinePayload(partyID string) string {
	return fmt.Sprintf(`{"status":%q,"party_id":%q}`, statusOffline, partyID)
}

// Failure is published in place of an update when training fails.
type Failure struct {
	Status  string `json:"status"`
	RoundID string `json:"round_id"`
	PartyID string `json:"party_id"`
	Error   string `json:"error"`
}

// Agent connects a Service to the broker: it trains on round-start tasks,
// publishes the resulting updates and reports liveness.
type Agent struct {
	partyID            string
	federation         string
	livelinessInterval time.Duration
	svc                Service
	pubsub             pkgmqtt.PubSub
	logger             *slog.Logger
	wg                 sync.WaitGroup
}

func NewAgent(partyID, federation string, livelinessInterval time.Duration, svc Service, pubsub pkgmqtt.PubSub, logger *slog.Logger) *Agent {
	return &Agent{
		partyID:            partyID,
		federation:         federation,
		livelinessInterval: livelinessInterval,
		svc:                svc,
		pubsub:             pubsub,
		logger:             logger,
	}
}

// Run subscribes to round starts and blocks until ctx is done.
func (a *Agent) Run(ctx context.Context) error {
	topic := fmt.Sprintf(roundStartTopicTemplate, a.federation)
	if err := a.pubsub.Subscribe(ctx, topic, a.handleRoundStart(ctx)); err != nil {
		return fmt.Errorf("failed to subscribe to round start topic: %w", err)
	}

	if a.livelinessInterval > 0 {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.startLivelinessUpdates(ctx)
		}()
	}

	a.logger.Info("Party agent is running", slog.String("party_id", a.partyID), slog.String("federation", a.federation))
	<-ctx.Done()
	a.wg.Wait()

	unsubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.pubsub.Unsubscribe(unsubCtx, topic); err != nil {
		a.logger.Warn("Failed to unsubscribe from round start topic", slog.Any("error", err))
	}

	return nil
}

func (a *Agent) startLivelinessUpdates(ctx context.Context) {
	ticker := time.NewTicker(a.livelinessInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("stopping liveliness updates")

			return
		case <-ticker.C:
			payload := map[string]any{
				"status":   statusAlive,
				"party_id": a.partyID,
			}
			if err := a.pubsub.Publish(ctx, AliveTopic(a.federation), payload); err != nil {
				a.logger.Error("failed to publish liveliness message", slog.Any("error", err))

				continue
			}

			a.logger.Debug("Published liveliness message", slog.String("topic", AliveTopic(a.federation)))
		}
	}
}

func (a *Agent) handleRoundStart(ctx context.Context) pkgmqtt.Handler {
	return func(msg pkgmqtt.Message) error {
		var task fl.Task
		if err := msg.Decode(&task); err != nil {
			return fmt.Errorf("failed to decode round task: %w", err)
		}
		if task.RoundID == "" {
			return errors.New("round task without round id")
		}

		a.logger.Info("Received round start", slog.String("round_id", task.RoundID), slog.Int("local_steps", task.LocalSteps))

		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.train(ctx, task)
		}()

		return nil
	}
}

func (a *Agent) train(ctx context.Context, task fl.Task) {
	topic := fmt.Sprintf(updateTopicTemplate, a.federation)

	update, err := a.svc.Train(ctx, task)
	if err != nil {
		failure := Failure{Status: statusFailed, RoundID: task.RoundID, PartyID: a.partyID, Error: err.Error()}
		if perr := a.pubsub.Publish(ctx, topic, failure); perr != nil {
			a.logger.Error("failed to publish training failure", slog.Any("error", perr))
		}

		return
	}

	if err := a.pubsub.Publish(ctx, topic, update); err != nil {
		a.logger.Error("failed to publish update", slog.String("round_id", task.RoundID), slog.Any("error", err))
	}
}
