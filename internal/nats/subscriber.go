package nats

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"sudooom.hanoi.logic/pkg/proto"
)

// CommandHandler consumes decoded upstream envelopes.
type CommandHandler interface {
	HandleSessionCommand(ctx context.Context, cmd *proto.SessionCommand, accessNodeId string, connId int64)
	HandleConnectionClosed(ctx context.Context, evt *proto.ConnectionClosed, accessNodeId string)
}

// SubscriberConfig sizes the worker pool.
type SubscriberConfig struct {
	WorkerCount int
	BufferSize  int
}

// CommandSubscriber consumes the upstream subject through a bounded
// worker pool. Commands for different sessions run in parallel; the
// per-session mutex downstream serializes commands on the same session.
type CommandSubscriber struct {
	nc           *nats.Conn
	handler      CommandHandler
	logger       *slog.Logger
	subscription *nats.Subscription
	config       SubscriberConfig
	msgChan      chan *nats.Msg
	wg           sync.WaitGroup
	cancelFunc   context.CancelFunc
}

// NewCommandSubscriber creates a subscriber.
func NewCommandSubscriber(nc *nats.Conn, handler CommandHandler, config SubscriberConfig) *CommandSubscriber {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 64
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 4096
	}

	return &CommandSubscriber{
		nc:      nc,
		handler: handler,
		logger:  slog.Default(),
		config:  config,
	}
}

// Start subscribes with a queue group and launches the worker pool.
func (s *CommandSubscriber) Start(ctx context.Context) error {
	s.msgChan = make(chan *nats.Msg, s.config.BufferSize)

	workerCtx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel

	for i := 0; i < s.config.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(workerCtx)
	}

	sub, err := s.nc.QueueSubscribe(SubjectLogicUpstream, QueueGroupLogic, func(msg *nats.Msg) {
		select {
		case s.msgChan <- msg:
		default:
			s.logger.Warn("Command buffer full, dropping message", "bufferSize", s.config.BufferSize)
		}
	})
	if err != nil {
		cancel()
		return err
	}

	s.subscription = sub
	s.logger.Info("Command subscriber started",
		"subject", SubjectLogicUpstream,
		"workerCount", s.config.WorkerCount,
		"bufferSize", s.config.BufferSize,
	)
	return nil
}

func (s *CommandSubscriber) worker(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-s.msgChan:
			if !ok {
				return
			}
			s.handleUpstream(ctx, msg.Data)
		}
	}
}

func (s *CommandSubscriber) handleUpstream(ctx context.Context, data []byte) {
	var message proto.UpstreamMessage
	if err := json.Unmarshal(data, &message); err != nil {
		s.logger.Error("Failed to unmarshal upstream message", "error", err)
		return
	}

	switch {
	case message.Payload.SessionCommand != nil:
		s.handler.HandleSessionCommand(ctx, message.Payload.SessionCommand, message.AccessNodeId, message.ConnId)
	case message.Payload.ConnectionClosed != nil:
		s.handler.HandleConnectionClosed(ctx, message.Payload.ConnectionClosed, message.AccessNodeId)
	default:
		s.logger.Warn("Upstream message with empty payload")
	}
}

// Stop unsubscribes and drains the worker pool.
func (s *CommandSubscriber) Stop() error {
	if s.cancelFunc != nil {
		s.cancelFunc()
	}

	if s.subscription != nil {
		if err := s.subscription.Unsubscribe(); err != nil {
			s.logger.Error("Failed to unsubscribe", "error", err)
		}
	}

	if s.msgChan != nil {
		close(s.msgChan)
	}

	s.wg.Wait()

	s.logger.Info("Command subscriber stopped")
	return nil
}

// BufferUsage reports channel fill, for monitoring.
func (s *CommandSubscriber) BufferUsage() (current int, capacity int) {
	if s.msgChan == nil {
		return 0, 0
	}
	return len(s.msgChan), cap(s.msgChan)
}
