// internal/workers/booking/notify-booking/handler.go
package notifybooking

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	awsutil "stayease/internal/common/aws"
	"stayease/internal/common/errors"
	"stayease/internal/common/logger"
	"stayease/internal/common/metrics"
	"stayease/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = "notify-booking"

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type message struct {
	subject string
	body    string
}

var templates = map[models.BookingPath]message{
	models.PathVisit: {
		subject: "Your StayEase visit is scheduled",
		body: "Hi {{name}}, your visit to {{listingName}} ({{buildingName}}, {{location}}) is scheduled for " +
			"{{visitDay}}, {{timeWindow}}. Booking ID: {{bookingId}}",
	},
	models.PathDirect: {
		subject: "Your StayEase room is secured",
		body: "Hi {{name}}, your {{sharing}}-sharing room at {{listingName}} ({{buildingName}}, {{location}}) " +
			"is secured from {{moveInDate}}. Token amount: Rs {{tokenAmount}} via {{paymentMethod}}. Booking ID: {{bookingId}}",
	},
}

type Handler struct {
	config       *Config
	logger       logger.Logger
	sesClient    SESService
	snsClient    SNSService
	errorHandler *errors.ErrorHandler
}

// NewHandler wires the worker to its delivery clients. A nil client turns
// the corresponding channel off.
func NewHandler(config *Config, sesClient SESService, snsClient SNSService, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		logger:       log,
		sesClient:    sesClient,
		snsClient:    snsClient,
		errorHandler: errors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer func() {
		metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, errors.NewValidationError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.fail(ctx, client, job, errors.NewInternalError(err))
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err.Error()})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":         job.Key,
		"bookingId":      input.Booking.ID,
		"notificationId": output.NotificationID,
		"status":         output.Status,
	})
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func validateInput(input *Input) error {
	b := input.Booking
	switch {
	case b.ID == "":
		return errors.NewValidationError("booking.id is required")
	case !b.Path.Valid():
		return errors.NewValidationError(fmt.Sprintf("booking.path is invalid: %q", b.Path))
	case b.Phone == "" && input.Email == "":
		return errors.NewValidationError("booking has no phone or email to notify")
	}
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	msg := templates[input.Booking.Path]
	data := templateData(input.Booking)
	subject := renderTemplate(msg.subject, data)
	body := renderTemplate(msg.body, data)

	output := &Output{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}

	if h.config.EmailEnabled && h.sesClient != nil && input.Email != "" {
		if _, err := h.sesClient.SendEmail(ctx, awsutil.TextEmail(h.config.FromEmail, input.Email, subject, body)); err != nil {
			return nil, errors.NewNotificationSendFailedError(ChannelEmail, err)
		}
		output.Channels = append(output.Channels, ChannelEmail)
	}

	if h.config.SMSEnabled && h.snsClient != nil && input.Booking.Phone != "" {
		if _, err := h.snsClient.Publish(ctx, awsutil.TransactionalSMS(input.Booking.Phone, h.config.SMSSenderID, body)); err != nil {
			return nil, errors.NewNotificationSendFailedError(ChannelSMS, err)
		}
		output.Channels = append(output.Channels, ChannelSMS)
	}

	if len(output.Channels) > 0 {
		output.Status = StatusSent
	} else {
		h.logger.Warn("no notification channel available", map[string]interface{}{"bookingId": input.Booking.ID})
	}
	return output, nil
}

func templateData(b models.BookingRecord) map[string]interface{} {
	return map[string]interface{}{
		"bookingId":     b.ID,
		"name":          b.Name,
		"listingName":   b.ListingName,
		"buildingName":  b.BuildingName,
		"location":      b.Location,
		"sharing":       b.Sharing,
		"moveInDate":    b.MoveInDate,
		"visitDay":      b.VisitDay,
		"timeWindow":    b.TimeWindow,
		"paymentMethod": b.PaymentMethod,
		"tokenAmount":   b.TokenAmount,
	}
}

// renderTemplate replaces {{key}} placeholders; unknown placeholders are dropped.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl
	for k, v := range data {
		value := ""
		if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, "{{"+k+"}}", value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
