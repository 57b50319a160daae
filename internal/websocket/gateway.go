package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"aklny/internal/apperror"
	"aklny/internal/auth"
	"aklny/internal/metrics"
	"aklny/internal/model"
	"aklny/internal/service"
	"aklny/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const eventTimeout = 10 * time.Second

// Client events.
const (
	EventUpdateLocation       = "updateLocation"
	EventJoinOrderTracking    = "joinOrderTracking"
	EventUpdateDeliveryStatus = "updateDeliveryStatus"
	EventJoinChatRoom         = "joinChatRoom"
	EventSendMessage          = "sendMessage"
	EventMarkMessagesRead     = "markMessagesRead"
)

// Server events.
const (
	EventLocationUpdate       = "locationUpdate"
	EventCurrentTracking      = "currentTracking"
	EventDeliveryStatusUpdate = "deliveryStatusUpdate"
	EventChatHistory          = "chatHistory"
	EventReceiveMessage       = "receiveMessage"
	EventMessagesRead         = "messagesRead"
	EventError                = "error"
	EventConnected            = "connected"
)

// inbound is the frame a client sends: {"event": "...", "data": {...}}.
type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outbound struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type orderRef struct {
	OrderID string `json:"orderId"`
}

type locationPayload struct {
	OrderID   string   `json:"orderId"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type statusPayload struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

type roomRef struct {
	Room string `json:"room"`
}

type errorPayload struct {
	Event   string `json:"event,omitempty"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type locationUpdate struct {
	OrderID        string         `json:"orderId"`
	DriverID       string         `json:"driverId"`
	Location       model.Location `json:"location"`
	TrackingStatus string         `json:"trackingStatus"`
	Timestamp      time.Time      `json:"timestamp"`
}

type deliveryStatusUpdate struct {
	OrderID     string    `json:"orderId"`
	DriverID    string    `json:"driverId"`
	Status      string    `json:"status"`
	OrderStatus string    `json:"orderStatus"`
	Timestamp   time.Time `json:"timestamp"`
}

type currentTracking struct {
	OrderID  string                  `json:"orderId"`
	Tracking *model.DeliveryTracking `json:"tracking"`
}

type chatHistory struct {
	Room     string              `json:"room"`
	Messages []model.ChatMessage `json:"messages"`
}

type messagesRead struct {
	Room   string `json:"room"`
	Count  int64  `json:"count"`
	UserID string `json:"userId"`
}

// Gateway authenticates socket connections and routes their events to the
// tracking and chat services.
type Gateway struct {
	hub      *Hub
	broker   Broker
	gate     *auth.Gate
	tracking service.TrackingService
	chat     service.ChatService
	upgrader websocket.Upgrader
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

type GatewayDependencies struct {
	Hub            *Hub
	Broker         Broker
	Gate           *auth.Gate
	Tracking       service.TrackingService
	Chat           service.ChatService
	AllowedOrigins []string
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
}

func NewGateway(deps GatewayDependencies) *Gateway {
	return &Gateway{
		hub:      deps.Hub,
		broker:   deps.Broker,
		gate:     deps.Gate,
		tracking: deps.Tracking,
		chat:     deps.Chat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(deps.AllowedOrigins),
		},
		logger:  deps.Logger.Named("ws_gateway"),
		metrics: deps.Metrics,
	}
}

// originChecker admits requests without an Origin header (non-browser clients)
// and browsers whose origin is allowed. "*" allows any origin.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// ServeWS handles the websocket handshake. The access token comes from the
// "token" query parameter or the Authorization header and is checked before the
// upgrade, so a rejected client gets a plain 401.
// @Summary Open the realtime socket
// @Description Upgrades to a WebSocket carrying tracking and chat events
// @Tags realtime
// @Param token query string false "Access token"
// @Success 101
// @Failure 401 {object} response.Response
// @Router /ws [get]
func (g *Gateway) ServeWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = auth.BearerToken(c.GetHeader("Authorization"))
	}
	claims, err := g.gate.Authenticate(token)
	if err != nil {
		status, res := response.FromError(err)
		c.AbortWithStatusJSON(status, res)
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.logger.Info("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(g.hub, conn, claims, g.logger.With(zap.String("user_id", claims.UserID)))
	g.hub.Register(client)
	g.hub.Join(client, service.UserRoom(claims.UserID))
	client.reply(EventConnected, gin.H{"userId": claims.UserID, "role": claims.Role})

	go client.writePump()
	go client.readPump(g.handle)
}

func (g *Gateway) handle(client *Client, raw []byte) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Event == "" {
		client.reply(EventError, errorPayload{Kind: string(apperror.KindValidation), Message: "malformed event"})
		return
	}
	g.metrics.SocketEvent(msg.Event)

	ctx, cancel := context.WithTimeout(auth.WithClaims(context.Background(), client.claims), eventTimeout)
	defer cancel()

	var err error
	switch msg.Event {
	case EventUpdateLocation:
		err = g.updateLocation(ctx, client, msg.Data)
	case EventJoinOrderTracking:
		err = g.joinOrderTracking(ctx, client, msg.Data)
	case EventUpdateDeliveryStatus:
		err = g.updateDeliveryStatus(ctx, client, msg.Data)
	case EventJoinChatRoom:
		err = g.joinChatRoom(ctx, client, msg.Data)
	case EventSendMessage:
		err = g.sendMessage(ctx, client, msg.Data)
	case EventMarkMessagesRead:
		err = g.markMessagesRead(ctx, client, msg.Data)
	default:
		err = apperror.Validation("unknown event " + msg.Event)
	}
	if err != nil {
		g.replyError(client, msg.Event, err)
	}
}

func (g *Gateway) replyError(client *Client, event string, err error) {
	appErr := apperror.From(err)
	if appErr.Kind == apperror.KindInternal {
		g.logger.Error("socket event failed", zap.String("event", event), zap.Error(err))
	}
	client.reply(EventError, errorPayload{Event: event, Kind: string(appErr.Kind), Message: appErr.Message})
}

func decode(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return apperror.Validation("missing event data")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperror.Validation("invalid event data")
	}
	return nil
}

// publish sends an event to every member of rooms, across instances.
func (g *Gateway) publish(ctx context.Context, event string, data interface{}, rooms ...string) error {
	payload, err := json.Marshal(outbound{Event: event, Data: data})
	if err != nil {
		return apperror.Internal(err)
	}
	if err := g.broker.Publish(ctx, rooms, payload); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// participantRooms lists the order room plus the personal rooms of the customer
// and the seller.
func participantRooms(order *model.Order) []string {
	return []string{
		service.OrderRoom(order.ID.String()),
		service.UserRoom(order.CustomerID.String()),
		service.UserRoom(order.SellerID.String()),
	}
}

func (g *Gateway) updateLocation(ctx context.Context, client *Client, data json.RawMessage) error {
	var p locationPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if p.OrderID == "" || p.Latitude == nil || p.Longitude == nil {
		return apperror.Validation("orderId, latitude and longitude are required")
	}

	update, err := g.tracking.UpdateLocation(ctx, client.claims, p.OrderID, *p.Latitude, *p.Longitude)
	if err != nil {
		return err
	}
	t := update.Tracking
	return g.publish(ctx, EventLocationUpdate, locationUpdate{
		OrderID:        t.OrderID,
		DriverID:       t.DriverID,
		Location:       t.Location,
		TrackingStatus: t.TrackingStatus,
		Timestamp:      t.Timestamp,
	}, participantRooms(update.Order)...)
}

func (g *Gateway) joinOrderTracking(ctx context.Context, client *Client, data json.RawMessage) error {
	var p orderRef
	if err := decode(data, &p); err != nil {
		return err
	}
	tracking, err := g.tracking.JoinOrderTracking(ctx, client.claims, p.OrderID)
	if err != nil {
		return err
	}
	g.hub.Join(client, service.OrderRoom(p.OrderID))
	client.reply(EventCurrentTracking, currentTracking{OrderID: p.OrderID, Tracking: tracking})
	return nil
}

func (g *Gateway) updateDeliveryStatus(ctx context.Context, client *Client, data json.RawMessage) error {
	var p statusPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	update, err := g.tracking.UpdateDeliveryStatus(ctx, client.claims, p.OrderID, p.Status)
	if err != nil {
		return err
	}
	return g.publish(ctx, EventDeliveryStatusUpdate, deliveryStatusUpdate{
		OrderID:     update.Tracking.OrderID,
		DriverID:    update.Tracking.DriverID,
		Status:      update.Tracking.TrackingStatus,
		OrderStatus: update.Order.Status,
		Timestamp:   update.Tracking.Timestamp,
	}, participantRooms(update.Order)...)
}

func (g *Gateway) joinChatRoom(ctx context.Context, client *Client, data json.RawMessage) error {
	var p roomRef
	if err := decode(data, &p); err != nil {
		return err
	}
	history, err := g.chat.JoinRoom(ctx, client.claims, p.Room)
	if err != nil {
		return err
	}
	g.hub.Join(client, p.Room)
	client.reply(EventChatHistory, chatHistory{Room: p.Room, Messages: history})
	return nil
}

func (g *Gateway) sendMessage(ctx context.Context, client *Client, data json.RawMessage) error {
	var req service.SendMessageRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	msg, err := g.chat.Send(ctx, client.claims, req)
	if err != nil {
		return err
	}
	rooms := []string{msg.Room}
	if msg.RecipientID != "" {
		rooms = append(rooms, service.UserRoom(msg.RecipientID))
	}
	return g.publish(ctx, EventReceiveMessage, msg, rooms...)
}

func (g *Gateway) markMessagesRead(ctx context.Context, client *Client, data json.RawMessage) error {
	var p roomRef
	if err := decode(data, &p); err != nil {
		return err
	}
	n, err := g.chat.MarkRead(ctx, client.claims, p.Room)
	if err != nil {
		return err
	}
	read := messagesRead{Room: p.Room, Count: n, UserID: client.claims.UserID}
	return g.publish(ctx, EventMessagesRead, read, p.Room, service.UserRoom(client.claims.UserID))
}
