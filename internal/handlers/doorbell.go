package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/PratikDhanave/doorbell-event-service/internal/bus"
	"github.com/PratikDhanave/doorbell-event-service/internal/logging"
	"github.com/PratikDhanave/doorbell-event-service/internal/metrics"
	"github.com/PratikDhanave/doorbell-event-service/internal/models"
	"github.com/PratikDhanave/doorbell-event-service/internal/store"
)

// maxBodyBytes caps the inbound payload; a doorbell press is a few bytes.
const maxBodyBytes = 64 << 10

// DoorbellHandler validates a doorbell press, records it and triggers the
// downstream upload flow. It holds no per-request state.
type DoorbellHandler struct {
	store   store.RecordStore
	bus     bus.EventBus
	busName string
	log     *slog.Logger

	newID func() string
	now   func() time.Time
}

// NewDoorbellHandler builds a handler that publishes triggers on busName.
func NewDoorbellHandler(st store.RecordStore, eb bus.EventBus, busName string, log *slog.Logger) *DoorbellHandler {
	return &DoorbellHandler{
		store:   st,
		bus:     eb,
		busName: busName,
		log:     log,
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

// Handle runs one invocation.
//
// Malformed JSON and unknown houses are rejected with 400 before any side
// effect. Otherwise the record is written, then the trigger is published; any
// failure in either step yields 500 and a completed write is not undone.
func (h *DoorbellHandler) Handle(ctx context.Context, req models.Request) (resp models.Response) {
	const op = "handlers.DoorbellHandler.Handle"

	log := h.log.With(slog.String("op", op))
	if id := logging.RequestID(ctx); id != "" {
		log = log.With(slog.String("request_id", id))
	}

	start := time.Now()
	defer func() {
		metrics.HandlerDuration.Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	}()

	body := "{}"
	if req.Body != nil {
		body = *req.Body
	}
	log.Debug("raw event body", slog.String("body", body))

	var payload models.DoorbellRequest
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		log.Warn("json decoding failed", logging.Err(err))
		return respond(http.StatusBadRequest, models.StatusFailure, "Invalid JSON format")
	}

	houseID := payload.House()
	log.Info("parsed houseId", slog.String("house_id", houseID))

	if !models.IsValidHouse(houseID) {
		log.Warn("invalid houseId received", slog.String("house_id", houseID))
		return respond(http.StatusBadRequest, models.StatusFailure, "Invalid houseId: "+houseID)
	}

	ev := models.DoorbellEvent{
		EventID:   h.newID(),
		Timestamp: h.now().UTC().Format(time.RFC3339Nano),
		HouseID:   houseID,
		Source:    models.RecordSource,
	}
	log = log.With(slog.String("event_id", ev.EventID))
	log.Info("generated event", slog.String("timestamp", ev.Timestamp))

	if err := h.record(ctx, log, ev); err != nil {
		log.Error("failed to log event or trigger bus", logging.Err(err))
		return respond(http.StatusInternalServerError, models.StatusFailure, "Failed to log event: "+err.Error())
	}

	return respond(http.StatusOK, models.StatusSuccess,
		fmt.Sprintf("Doorbell event logged for House %s and UploadAPI triggered", houseID))
}

// record performs the store write followed by the bus publish.
func (h *DoorbellHandler) record(ctx context.Context, log *slog.Logger, ev models.DoorbellEvent) error {
	if err := h.store.PutEvent(ctx, ev); err != nil {
		metrics.StoreErrors.Inc()
		return err
	}
	log.Info("event stored")

	detail, err := json.Marshal(models.TriggerDetail{EventID: ev.EventID, HouseID: ev.HouseID})
	if err != nil {
		return err
	}

	if err := h.bus.PutEvents(ctx, bus.Entry{
		Source:       models.TriggerSource,
		DetailType:   models.TriggerDetailType,
		Detail:       string(detail),
		EventBusName: h.busName,
	}); err != nil {
		metrics.PublishErrors.Inc()
		return err
	}
	log.Info("trigger published", slog.String("bus", h.busName))

	return nil
}

func respond(status int, result, message string) models.Response {
	b, _ := json.Marshal(models.Result{Status: result, Message: message})
	return models.Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(b),
	}
}

// RegisterDoorbellRoutes registers the doorbell endpoint.
//
// POST /doorbell
// - Body {"houseId": "H1".."H4"}; an empty body counts as absent
// - Response body is always {"status", "message"} JSON
func RegisterDoorbellRoutes(r gin.IRoutes, h *DoorbellHandler) {
	r.POST("/doorbell", func(c *gin.Context) {
		raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
		if err != nil {
			// Unreadable or oversized bodies cannot be valid JSON.
			writeResponse(c, respond(http.StatusBadRequest, models.StatusFailure, "Invalid JSON format"))
			return
		}

		var body *string
		if len(raw) > 0 {
			s := string(raw)
			body = &s
		}

		writeResponse(c, h.Handle(c.Request.Context(), models.Request{Body: body}))
	})
}

func writeResponse(c *gin.Context, resp models.Response) {
	for k, v := range resp.Headers {
		c.Header(k, v)
	}
	c.Data(resp.StatusCode, resp.Headers["Content-Type"], []byte(resp.Body))
}
