package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"wallet-bundle-analyzer/internal/domain/entity"
	"wallet-bundle-analyzer/internal/domain/service"
	"wallet-bundle-analyzer/internal/infrastructure/config"
	"wallet-bundle-analyzer/internal/infrastructure/logger"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSAnalysisWorker consumes analysis requests from NATS, replies to the requester
// and publishes every response on the results subject
type NATSAnalysisWorker struct {
	conn     *nats.Conn
	sub      *nats.Subscription
	analyzer service.BundleAnalysisService
	config   *config.NATSConfig
	logger   *logger.Logger

	msgChan chan *nats.Msg
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewNATSAnalysisWorker creates a new NATS analysis worker
func NewNATSAnalysisWorker(cfg *config.NATSConfig, analyzer service.BundleAnalysisService, logger *logger.Logger) *NATSAnalysisWorker {
	pending := cfg.MaxPendingMessages
	if pending <= 0 {
		pending = 100
	}
	return &NATSAnalysisWorker{
		analyzer: analyzer,
		config:   cfg,
		logger:   logger.WithComponent("nats-worker"),
		msgChan:  make(chan *nats.Msg, pending),
	}
}

// RequestSubject is the subject analysis requests arrive on
func (w *NATSAnalysisWorker) RequestSubject() string {
	return fmt.Sprintf("%s.requests", w.config.SubjectPrefix)
}

// ResultSubject is the subject every response is published on
func (w *NATSAnalysisWorker) ResultSubject() string {
	return fmt.Sprintf("%s.results", w.config.SubjectPrefix)
}

// Start connects to NATS, subscribes to the request subject and starts the processors
func (w *NATSAnalysisWorker) Start(ctx context.Context) error {
	if !w.config.Enabled {
		w.logger.Info("NATS is disabled, skipping connection")
		return nil
	}

	w.logger.Info("Connecting to NATS server", zap.String("url", w.config.URL))

	opts := []nats.Option{
		nats.Name("wallet-bundle-analyzer"),
		nats.Timeout(w.config.ConnectTimeout),
		nats.ReconnectWait(w.config.ReconnectDelay),
		nats.MaxReconnects(w.config.ReconnectAttempts),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			w.logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			w.logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			w.logger.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(w.config.URL, opts...)
	if err != nil {
		w.logger.Error("Failed to connect to NATS", zap.Error(err))
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	w.conn = conn

	sub, err := conn.QueueSubscribe(w.RequestSubject(), w.config.QueueGroup, w.enqueue)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	w.sub = sub

	runCtx, cancel := context.WithCancel(context.Background())
	w.mu.Lock()
	w.cancel = cancel
	w.running = true
	w.mu.Unlock()

	workers := w.config.Workers
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		w.wg.Add(1)
		go w.process(runCtx)
	}

	w.logger.Info("Listening for analysis requests",
		zap.String("subject", w.RequestSubject()),
		zap.String("queue_group", w.config.QueueGroup),
		zap.Int("workers", workers))

	return nil
}

// enqueue hands a request to the processors, rejecting it when the backlog is full
func (w *NATSAnalysisWorker) enqueue(msg *nats.Msg) {
	select {
	case w.msgChan <- msg:
	default:
		w.logger.Warn("Request backlog is full, rejecting request", zap.String("subject", msg.Subject))
		w.respond(msg, &entity.AnalysisResponse{
			Error:     "analyzer busy, retry later",
			ErrorKind: entity.ErrorTransient,
		})
	}
}

func (w *NATSAnalysisWorker) process(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-w.msgChan:
			reqCtx := ctx
			var cancel context.CancelFunc = func() {}
			if w.config.RequestTimeout > 0 {
				reqCtx, cancel = context.WithTimeout(ctx, w.config.RequestTimeout)
			}
			resp := w.HandleRequest(reqCtx, msg.Data)
			cancel()
			w.respond(msg, resp)
		}
	}
}

// HandleRequest decodes one request, runs the analysis it asks for and builds the response
func (w *NATSAnalysisWorker) HandleRequest(ctx context.Context, data []byte) *entity.AnalysisResponse {
	var req entity.AnalysisRequest
	if err := json.Unmarshal(data, &req); err != nil {
		w.logger.Error("Failed to unmarshal analysis request", zap.Error(err))
		return &entity.AnalysisResponse{
			Error:     fmt.Sprintf("malformed request: %v", err),
			ErrorKind: entity.ErrorInvalidInput,
		}
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.Kind == "" {
		req.Kind = entity.RequestBundle
	}

	resp := &entity.AnalysisResponse{RequestID: req.RequestID, Kind: req.Kind}
	log := w.logger.WithFields(map[string]interface{}{
		"request_id": req.RequestID,
		"kind":       string(req.Kind),
		"addresses":  len(req.Addresses),
	})
	log.Info("Processing analysis request")

	var err error
	switch req.Kind {
	case entity.RequestBundle:
		resp.Bundle, err = w.analyzer.AnalyzeBundle(ctx, req.Addresses)
	case entity.RequestRefresh:
		if len(req.Addresses) != 1 {
			err = &entity.AnalysisError{Kind: entity.ErrorInvalidInput, Op: "refresh", Err: errors.New("exactly one address required")}
			break
		}
		resp.Wallet, err = w.analyzer.RefreshWallet(ctx, req.Addresses[0])
	case entity.RequestPlan:
		if len(req.Addresses) != 1 {
			err = &entity.AnalysisError{Kind: entity.ErrorInvalidInput, Op: "plan", Err: errors.New("exactly one address required")}
			break
		}
		resp.Plan, err = w.analyzer.PlanWallet(ctx, req.Addresses[0], req.TargetScore)
	default:
		err = &entity.AnalysisError{Kind: entity.ErrorInvalidInput, Op: "dispatch", Err: fmt.Errorf("unknown request kind %q", req.Kind)}
	}

	if err != nil {
		log.Warn("Analysis request failed", zap.Error(err))
		resp.Error = err.Error()
		resp.ErrorKind = entity.ClassifyError(err)
		return resp
	}

	log.Info("Analysis request completed")
	return resp
}

func (w *NATSAnalysisWorker) respond(msg *nats.Msg, resp *entity.AnalysisResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		w.logger.Error("Failed to marshal analysis response", zap.String("request_id", resp.RequestID), zap.Error(err))
		return
	}

	if msg.Reply != "" {
		if err := msg.Respond(data); err != nil {
			w.logger.Warn("Failed to reply to requester", zap.String("request_id", resp.RequestID), zap.Error(err))
		}
	}
	if w.conn != nil {
		if err := w.conn.Publish(w.ResultSubject(), data); err != nil {
			w.logger.Warn("Failed to publish analysis result", zap.String("request_id", resp.RequestID), zap.Error(err))
		}
	}
}

// Stop unsubscribes, waits for in-flight requests, rejects queued ones and closes the connection
func (w *NATSAnalysisWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	if w.sub != nil {
		if err := w.sub.Unsubscribe(); err != nil {
			w.logger.Warn("Failed to unsubscribe", zap.Error(err))
		}
		w.sub = nil
	}
	w.cancel()
	w.wg.Wait()
	if n := w.drainBacklog(); n > 0 {
		w.logger.Info("Rejected queued requests on shutdown", zap.Int("count", n))
	}

	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
	w.logger.Info("Disconnected from NATS")
	return nil
}

// drainBacklog answers every request still queued once the processors have exited
func (w *NATSAnalysisWorker) drainBacklog() int {
	n := 0
	for {
		select {
		case msg := <-w.msgChan:
			w.respond(msg, &entity.AnalysisResponse{
				Error:     "analyzer shutting down, retry later",
				ErrorKind: entity.ErrorTransient,
			})
			n++
		default:
			return n
		}
	}
}

// IsConnected checks if connected to NATS
func (w *NATSAnalysisWorker) IsConnected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running && w.conn != nil && w.conn.IsConnected()
}
