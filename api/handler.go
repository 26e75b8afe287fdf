package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wompi_webhook/internal/reconcile"
	"wompi_webhook/internal/wompi"
)

// MaxBodyBytes caps the size of an incoming notification.
const MaxBodyBytes = 1 << 20

// Processor reconciles one validated notification.
type Processor interface {
	Process(ctx context.Context, n *wompi.Notification) reconcile.Ack
}

// Options controls how incoming notifications are authenticated.
type Options struct {
	EventsSecret     string
	EnforceSignature bool
}

// webhookHandler holds the reconciliation service and implements the HTTP
// handlers for gateway notifications.
type webhookHandler struct {
	processor Processor
	opts      Options
	logger    *zap.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(processor Processor, opts Options, logger *zap.Logger) *webhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &webhookHandler{
		processor: processor,
		opts:      opts,
		logger:    logger,
	}
}

// handleWompi handles the POST /webhook/wompi endpoint. Once the body is
// valid the gateway always gets a 200, whatever happened downstream.
func (h *webhookHandler) handleWompi(ctx *gin.Context) {
	reqID := requestID(ctx)
	log := h.logger.With(zap.String("request_id", reqID))

	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, MaxBodyBytes)
	body, err := ctx.GetRawData()
	if err != nil {
		log.Warn("failed to read request body", zap.Error(err))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request payload too large"})
			return
		}
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	n, err := wompi.Parse(body)
	if err != nil {
		log.Warn("failed to parse notification", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}
	log = log.With(zap.String("reference", n.Reference), zap.String("transaction_id", n.TransactionID))

	if err := n.Validate(); err != nil {
		log.Warn("notification rejected", zap.Error(err), zap.String("status", n.Status))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.signatureOK(ctx, n) {
		if h.opts.EnforceSignature {
			log.Warn("invalid notification signature, rejecting")
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": wompi.ErrInvalidSignature.Error()})
			return
		}
		log.Warn("invalid notification signature, processing anyway")
	}

	log.Info("notification received", zap.String("event", n.Event), zap.String("status", n.Status))

	// A gateway disconnect must not abort the writes halfway; store calls are
	// bounded by the client timeout instead.
	ack, err := h.process(context.WithoutCancel(ctx.Request.Context()), n)
	if err != nil {
		log.Error("notification processing failed", zap.Error(err))
		ctx.JSON(http.StatusOK, gin.H{
			"success":       false,
			"error":         "internal server error",
			"message":       err.Error(),
			"requestId":     reqID,
			"transactionId": n.TransactionID,
			"reference":     n.Reference,
			"status":        n.Status,
		})
		return
	}
	ack.RequestID = reqID
	ctx.JSON(http.StatusOK, ack)
}

func (h *webhookHandler) signatureOK(ctx *gin.Context, n *wompi.Notification) bool {
	var header string
	for _, name := range wompi.SignatureHeaders {
		if header = ctx.GetHeader(name); header != "" {
			break
		}
	}
	return wompi.VerifySignature(n, header, h.opts.EventsSecret)
}

var errPanic = errors.New("panic during processing")

// process runs the processor and turns a panic into an error.
func (h *webhookHandler) process(ctx context.Context, n *wompi.Notification) (ack reconcile.Ack, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errPanic, r)
		}
	}()
	return h.processor.Process(ctx, n), nil
}

// handleHealth handles the GET /health endpoint.
func (h *webhookHandler) handleHealth(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok", "service": "wompi-webhook"})
}
