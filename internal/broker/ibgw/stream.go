package ibgw

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jdowell/mlmbot/internal/contracts"
	"github.com/jdowell/mlmbot/pkg/config"
	"github.com/jdowell/mlmbot/pkg/logger"
)

const (
	pingInterval     = 30 * time.Second
	handshakeTimeout = 10 * time.Second
)

// OrderUpdate is a broker-side order status change from the stream.
type OrderUpdate struct {
	OrderID string
	Symbol  string
	Status  contracts.OrderStatus
	Message string
}

// OrderStream follows the gateway's websocket order-status channel so
// submitted orders can be tracked to their terminal state without
// polling.
type OrderStream struct {
	cfg    config.GatewayConfig
	logger *logger.Logger

	conn      *websocket.Conn
	connMu    sync.Mutex
	connected bool

	onUpdate func(*OrderUpdate)
	onError  func(error)

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewOrderStream creates an order status stream client.
func NewOrderStream(cfg config.GatewayConfig, log *logger.Logger) *OrderStream {
	return &OrderStream{
		cfg:    cfg,
		logger: log,
		stopCh: make(chan struct{}),
	}
}

// Callback setters
func (s *OrderStream) OnUpdate(fn func(*OrderUpdate)) { s.onUpdate = fn }
func (s *OrderStream) OnError(fn func(error))         { s.onError = fn }

// Connect opens the websocket and subscribes to order updates.
func (s *OrderStream) Connect(ctx context.Context) error {
	if err := s.connect(ctx); err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}

	// Subscribe to the order status topic
	if err := s.send("sor+{}"); err != nil {
		return fmt.Errorf("subscribe orders: %w", err)
	}

	s.wg.Add(1)
	go s.readLoop()

	s.wg.Add(1)
	go s.pingLoop()

	s.logger.Info("Gateway order stream connected")
	return nil
}

func (s *OrderStream) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	// The local gateway serves wss on the same host with a self-signed
	// certificate.
	wsURL := strings.Replace(s.cfg.BaseURL, "https://", "wss://", 1)
	wsURL = strings.TrimSuffix(wsURL, "/v1/api") + "/v1/api/ws"

	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
		TLSClientConfig:  &tls.Config{InsecureSkipVerify: true},
	}

	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return err
	}

	s.conn = conn
	s.connected = true
	return nil
}

// Disconnect closes the stream and waits for its goroutines.
func (s *OrderStream) Disconnect() error {
	close(s.stopCh)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.connected = false
	}
	s.connMu.Unlock()

	s.wg.Wait()

	s.logger.Info("Gateway order stream disconnected")
	return nil
}

// IsConnected returns connection status.
func (s *OrderStream) IsConnected() bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return s.connected
}

func (s *OrderStream) send(msg string) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return fmt.Errorf("not connected")
	}
	return s.conn.WriteMessage(websocket.TextMessage, []byte(msg))
}

// streamMessage is the envelope the gateway pushes on the socket.
type streamMessage struct {
	Topic string `json:"topic"`
	Args  []struct {
		OrderID string `json:"orderId"`
		Ticker  string `json:"ticker"`
		Status  string `json:"status"`
		Text    string `json:"text"`
	} `json:"args"`
}

func (s *OrderStream) readLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
			}
			s.logger.WithError(err).Warn("Order stream read failed")
			if s.onError != nil {
				s.onError(err)
			}
			return
		}

		var msg streamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// Heartbeats and system frames are not JSON envelopes
			continue
		}

		if msg.Topic != "sor" {
			continue
		}

		for _, arg := range msg.Args {
			update := &OrderUpdate{
				OrderID: arg.OrderID,
				Symbol:  arg.Ticker,
				Status:  parseOrderStatus(arg.Status),
				Message: arg.Text,
			}

			s.logger.WithFields(map[string]interface{}{
				"order_id": update.OrderID,
				"symbol":   update.Symbol,
				"status":   update.Status,
			}).Debug("Order status update")

			if s.onUpdate != nil {
				s.onUpdate(update)
			}
		}
	}
}

func (s *OrderStream) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if err := s.send("tic"); err != nil {
				s.logger.WithError(err).Warn("Order stream ping failed")
				return
			}
		}
	}
}
