package handler

import (
	"context"
	"encoding/json"
	"errors"

	"ai-fitness-be/internal/dto"
	"ai-fitness-be/internal/pkg/logger"
	"ai-fitness-be/internal/pkg/serverutils"
	"ai-fitness-be/internal/repository"
	"ai-fitness-be/internal/service"
	internalWS "ai-fitness-be/internal/websocket"
	"ai-fitness-be/pkg/pose"
	"ai-fitness-be/pkg/workout"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type WorkoutHandler struct {
	service   service.IWorkoutService
	hub       *internalWS.Hub
	jwtSecret string
	logger    logger.ILogger
}

// NewWorkoutHandler serves the workout websocket. With an empty jwtSecret the
// handshake is anonymous.
func NewWorkoutHandler(service service.IWorkoutService, hub *internalWS.Hub, jwtSecret string, log logger.ILogger) *WorkoutHandler {
	return &WorkoutHandler{
		service:   service,
		hub:       hub,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

// RegisterRoutes registers the websocket route.
func (h *WorkoutHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws", h.ServeWs)
}

// ServeWs authenticates the handshake when a secret is configured and hands
// the upgraded connection to the hub.
func (h *WorkoutHandler) ServeWs(c *fiber.Ctx) error {
	var userID string
	if h.jwtSecret != "" {
		id, err := serverutils.ParseUserToken(serverutils.BearerToken(c), h.jwtSecret)
		if err != nil {
			h.logger.Warn("WorkoutHandler", "Rejected WS handshake", map[string]interface{}{"error": err.Error()})
			return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, err.Error()))
		}
		userID = id
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		connID := uuid.NewString()
		h.logger.Info("WorkoutHandler", "Starting WebSocket session", map[string]interface{}{"conn_id": connID, "user_id": userID})
		internalWS.ServeWs(h.hub, conn, connID, userID, h)
		h.logger.Info("WorkoutHandler", "WebSocket session ended", map[string]interface{}{"conn_id": connID})
	})(c)
}

func (h *WorkoutHandler) OnOpen(ctx context.Context, c *internalWS.Client) error {
	return h.service.OpenSession(ctx, c.ID, c.UserID)
}

func (h *WorkoutHandler) OnClose(ctx context.Context, c *internalWS.Client) {
	h.service.CloseSession(ctx, c.ID)
}

// OnMessage decodes one envelope and routes it. The returned value is the
// reply envelope, or nil when nothing should be sent back.
func (h *WorkoutHandler) OnMessage(ctx context.Context, c *internalWS.Client, data []byte) interface{} {
	var msg dto.InboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return errorReply("invalid message: " + err.Error())
	}
	if err := serverutils.ValidateRequest(&msg); err != nil {
		return errorReply(err.Error())
	}

	reply, err := h.dispatch(ctx, c.ID, msg)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil
		}
		h.logger.Warn("WorkoutHandler", "Message failed", map[string]interface{}{"conn_id": c.ID, "event": msg.Event, "error": err.Error()})
		return errorReply(err.Error())
	}
	if reply == nil {
		return nil
	}
	return reply
}

func (h *WorkoutHandler) dispatch(ctx context.Context, connID string, msg dto.InboundMessage) (*dto.OutboundMessage, error) {
	switch msg.Event {
	case dto.EventSetArmSide:
		var req dto.SetArmSideRequest
		if err := decodeData(msg.Data, &req); err != nil {
			return nil, err
		}
		side, err := pose.ParseLimbSide(req.ArmSide)
		if err != nil {
			return nil, err
		}
		res, err := h.service.SetLimbSide(ctx, connID, side)
		if err != nil {
			return nil, err
		}
		return &dto.OutboundMessage{Event: dto.EventArmSideSet, Data: res}, nil

	case dto.EventStartCalibrationMin:
		if err := h.service.StartCalibrationMin(ctx, connID); err != nil {
			return nil, err
		}
		return &dto.OutboundMessage{Event: dto.EventCalibrationMinStarted}, nil

	case dto.EventStartCalibrationMax:
		if err := h.service.StartCalibrationMax(ctx, connID); err != nil {
			return nil, err
		}
		return &dto.OutboundMessage{Event: dto.EventCalibrationMaxStarted}, nil

	case dto.EventCompleteCalibrationMin:
		res, err := h.service.CompleteCalibrationMin(ctx, connID)
		if errors.Is(err, workout.ErrInsufficientCalibrationData) {
			return calibrationFailed("min", err), nil
		}
		if err != nil {
			return nil, err
		}
		return &dto.OutboundMessage{Event: dto.EventCalibrationMinComplete, Data: res}, nil

	case dto.EventCompleteCalibrationMax:
		res, err := h.service.CompleteCalibrationMax(ctx, connID)
		if errors.Is(err, workout.ErrInsufficientCalibrationData) {
			return calibrationFailed("max", err), nil
		}
		if err != nil {
			return nil, err
		}
		return &dto.OutboundMessage{Event: dto.EventCalibrationMaxComplete, Data: res}, nil

	case dto.EventProcessFrame:
		var req dto.ProcessFrameRequest
		if err := decodeData(msg.Data, &req); err != nil {
			return nil, err
		}
		res, err := h.service.ProcessFrame(ctx, connID, req.Landmarks, workout.CalibrationHint(req.CalibrationMode))
		if err != nil || res == nil {
			return nil, err
		}
		return &dto.OutboundMessage{Event: dto.EventFrameProcessed, Data: res}, nil

	case dto.EventResetCounter:
		res, err := h.service.ResetCounter(ctx, connID)
		if err != nil {
			return nil, err
		}
		return &dto.OutboundMessage{Event: dto.EventCounterReset, Data: res}, nil
	}

	return nil, errors.New("unknown event: " + msg.Event)
}

// decodeData unmarshals and validates an event payload.
func decodeData(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return errors.New("missing data")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.New("invalid data: " + err.Error())
	}
	return serverutils.ValidateRequest(v)
}

func calibrationFailed(phase string, err error) *dto.OutboundMessage {
	return &dto.OutboundMessage{
		Event: dto.EventCalibrationFailed,
		Data:  dto.CalibrationFailedResponse{Phase: phase, Reason: err.Error()},
	}
}

func errorReply(message string) *dto.OutboundMessage {
	return &dto.OutboundMessage{
		Event: dto.EventError,
		Data:  dto.ErrorMessageResponse{Message: message},
	}
}
