// internal/booking/wizard.go
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"stayease/internal/catalog"
	"stayease/internal/common/validation"
	"stayease/internal/models"
	"stayease/internal/task"

	"github.com/google/uuid"
)

var (
	ErrNoDraft              = errors.New("booking draft is required")
	ErrSubmissionInProgress = errors.New("booking submission in progress")
	ErrIncomplete           = errors.New("booking step is incomplete")
	ErrInvalidForm          = errors.New("invalid booking form")
	ErrAlreadyCompleted     = errors.New("booking already completed")
)

// FormError lists the fields that failed validation.
type FormError struct {
	Fields []validation.ValidationError
}

func (e *FormError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidForm, strings.Join(msgs, "; "))
}

func (e *FormError) Unwrap() error { return ErrInvalidForm }

func fieldError(field, message string) *FormError {
	return &FormError{Fields: []validation.ValidationError{{Field: field, Message: message, Code: "INVALID_VALUE"}}}
}

type Step int

const (
	StepContact Step = 1
	StepConfirm Step = 2
)

// Form is the user-entered part of the wizard.
type Form struct {
	Name          string             `json:"name"`
	Phone         string             `json:"phone"`
	MoveInDate    string             `json:"moveInDate"`
	Subdivision   string             `json:"subdivision"`
	Path          models.BookingPath `json:"path"`
	VisitDay      string             `json:"visitDay"`
	TimeWindow    string             `json:"timeWindow"`
	PaymentMethod string             `json:"paymentMethod"`
}

// FormUpdate carries the fields to change; nil fields are left as they are.
type FormUpdate struct {
	Name          *string             `json:"name,omitempty"`
	Phone         *string             `json:"phone,omitempty"`
	MoveInDate    *string             `json:"moveInDate,omitempty"`
	Subdivision   *string             `json:"subdivision,omitempty"`
	Path          *models.BookingPath `json:"path,omitempty"`
	VisitDay      *string             `json:"visitDay,omitempty"`
	TimeWindow    *string             `json:"timeWindow,omitempty"`
	PaymentMethod *string             `json:"paymentMethod,omitempty"`
}

type Options struct {
	TokenAmount      int
	StrictValidation bool
	SubmitDelay      time.Duration
}

// Summary is the read-only recap shown on the direct confirmation step.
type Summary struct {
	ListingName  string `json:"listingName"`
	Location     string `json:"location"`
	BuildingName string `json:"buildingName"`
	Sharing      int    `json:"sharing"`
	Rent         int    `json:"rent"`
	TokenAmount  int    `json:"tokenAmount"`
}

// Completion is emitted when a submission succeeds.
type Completion struct {
	Path   models.BookingPath   `json:"path"`
	Record models.BookingRecord `json:"record"`
}

// View is a read-only projection of the wizard.
type View struct {
	Step              Step     `json:"step"`
	Form              Form     `json:"form"`
	Summary           Summary  `json:"summary"`
	Submitting        bool     `json:"submitting"`
	SubmittingMessage string   `json:"submittingMessage,omitempty"`
	CanAdvance        bool     `json:"canAdvance"`
	Subdivisions      []string `json:"subdivisions"`
	VisitDays         []string `json:"visitDays"`
	TimeWindows       []string `json:"timeWindows"`
	PaymentMethods    []string `json:"paymentMethods"`
}

// Wizard is the two-step booking form for one draft.
type Wizard struct {
	draft *models.BookingDraft
	opts  Options

	mu         sync.Mutex
	step       Step
	form       Form
	submitting bool
	completed  bool
}

func NewWizard(draft *models.BookingDraft, opts Options) (*Wizard, error) {
	if draft == nil || draft.Listing == nil || draft.Building == nil {
		return nil, ErrNoDraft
	}
	return &Wizard{
		draft: draft,
		opts:  opts,
		step:  StepContact,
		form:  Form{Path: draft.Path},
	}, nil
}

func (w *Wizard) Draft() *models.BookingDraft {
	return w.draft
}

func (w *Wizard) Submitting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitting
}

// Completed reports whether the submission was accepted.
func (w *Wizard) Completed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.completed
}

// Pending reports whether a submission is in flight or accepted, checked
// under one lock.
func (w *Wizard) Pending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitting || w.completed
}

// Update applies u. Enumerated fields must hold one of their options.
func (w *Wizard) Update(u FormUpdate) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.submitting {
		return ErrSubmissionInProgress
	}
	if w.completed {
		return ErrAlreadyCompleted
	}

	f := w.form
	if u.Name != nil {
		f.Name = *u.Name
	}
	if u.Phone != nil {
		f.Phone = *u.Phone
	}
	if u.MoveInDate != nil {
		f.MoveInDate = *u.MoveInDate
	}
	if u.Subdivision != nil {
		if *u.Subdivision != "" && !oneOf(Subdivisions(w.draft.Listing.Location), *u.Subdivision) {
			return fieldError("subdivision", "unknown subdivision")
		}
		f.Subdivision = *u.Subdivision
	}
	if u.Path != nil && *u.Path != f.Path {
		if w.step != StepContact {
			return fieldError("path", "path can only be changed on the first step")
		}
		if !u.Path.Valid() {
			return fieldError("path", "must be visit or direct")
		}
		if *u.Path == models.PathDirect && w.draft.Offer.Availability == models.AvailabilityExhausted {
			return catalog.ErrOfferExhausted
		}
		f.Path = *u.Path
	}
	if u.VisitDay != nil {
		if *u.VisitDay != "" && !oneOf(VisitDays, *u.VisitDay) {
			return fieldError("visitDay", "unknown visit day")
		}
		f.VisitDay = *u.VisitDay
	}
	if u.TimeWindow != nil {
		if *u.TimeWindow != "" && !oneOf(TimeWindows, *u.TimeWindow) {
			return fieldError("timeWindow", "unknown time window")
		}
		f.TimeWindow = *u.TimeWindow
	}
	if u.PaymentMethod != nil {
		if *u.PaymentMethod != "" && !oneOf(PaymentMethods, *u.PaymentMethod) {
			return fieldError("paymentMethod", "unknown payment method")
		}
		f.PaymentMethod = *u.PaymentMethod
	}

	w.form = f
	return nil
}

func (w *Wizard) canAdvance() bool {
	f := w.form
	switch w.step {
	case StepContact:
		return f.Name != "" && f.Phone != "" && f.MoveInDate != "" && f.Subdivision != "" && f.Path.Valid()
	case StepConfirm:
		if f.Path == models.PathVisit {
			return f.VisitDay != "" && f.TimeWindow != ""
		}
		return true
	}
	return false
}

func (w *Wizard) CanAdvance() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.submitting && !w.completed && w.canAdvance()
}

func (w *Wizard) contactSchema() validation.JSONSchema {
	maxName := 80
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"name":        {Type: "string", MaxLength: &maxName},
			"phone":       {Type: "string", Format: validation.FormatPhone},
			"moveInDate":  {Type: "string", Format: validation.FormatDate},
			"subdivision": {Type: "string", Enum: Subdivisions(w.draft.Listing.Location)},
		},
		Required: []string{"name", "phone", "moveInDate", "subdivision"},
	}
}

func (w *Wizard) validateContact() error {
	if !w.opts.StrictValidation {
		return nil
	}
	result := validation.ValidateInput(map[string]interface{}{
		"name":        w.form.Name,
		"phone":       w.form.Phone,
		"moveInDate":  w.form.MoveInDate,
		"subdivision": w.form.Subdivision,
	}, w.contactSchema())
	if !result.Valid {
		return &FormError{Fields: result.Errors}
	}
	return nil
}

// Submitter receives completed bookings.
type Submitter interface {
	Submit(ctx context.Context, record models.BookingRecord) error
}

// Advance moves from the contact step to the confirmation step, or, on the
// confirmation step, starts the submission on g and returns its task. The
// wizard reports Submitting until the task finishes. A failed submission
// returns the wizard to the confirmation step.
func (w *Wizard) Advance(g *task.Group, sub Submitter) (*task.Task[Completion], error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.submitting {
		return nil, ErrSubmissionInProgress
	}
	if w.completed {
		return nil, ErrAlreadyCompleted
	}
	if !w.canAdvance() {
		return nil, fmt.Errorf("%w: step %d", ErrIncomplete, w.step)
	}

	if w.step == StepContact {
		if err := w.validateContact(); err != nil {
			return nil, err
		}
		w.step = StepConfirm
		return nil, nil
	}

	record := w.record(time.Now().UTC())
	w.submitting = true

	t := task.Go(g, w.opts.SubmitDelay, func(ctx context.Context) (Completion, error) {
		err := sub.Submit(ctx, record)

		w.mu.Lock()
		defer w.mu.Unlock()
		w.submitting = false
		if err != nil {
			return Completion{}, err
		}
		w.completed = true
		return Completion{Path: record.Path, Record: record}, nil
	})

	go func() {
		<-t.Done()
		w.mu.Lock()
		w.submitting = false
		w.mu.Unlock()
	}()
	return t, nil
}

func (w *Wizard) record(now time.Time) models.BookingRecord {
	d := w.draft
	rec := models.BookingRecord{
		ID:           uuid.NewString(),
		ListingID:    d.Listing.ID,
		ListingName:  d.Listing.Name,
		Location:     d.Listing.Location,
		BuildingID:   d.Building.ID,
		BuildingName: d.Building.Name,
		Sharing:      d.Offer.Sharing,
		Rent:         d.Offer.Rent,
		Path:         w.form.Path,
		Name:         w.form.Name,
		Phone:        w.form.Phone,
		MoveInDate:   w.form.MoveInDate,
		Subdivision:  w.form.Subdivision,
		SubmittedAt:  now,
	}
	if rec.Path == models.PathVisit {
		rec.VisitDay = w.form.VisitDay
		rec.TimeWindow = w.form.TimeWindow
	} else {
		rec.PaymentMethod = w.form.PaymentMethod
		rec.TokenAmount = w.opts.TokenAmount
	}
	return rec
}

func (w *Wizard) Summary() Summary {
	d := w.draft
	return Summary{
		ListingName:  d.Listing.Name,
		Location:     d.Listing.Location,
		BuildingName: d.Building.Name,
		Sharing:      d.Offer.Sharing,
		Rent:         d.Offer.Rent,
		TokenAmount:  w.opts.TokenAmount,
	}
}

func (w *Wizard) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	v := View{
		Step:           w.step,
		Form:           w.form,
		Summary:        w.Summary(),
		Submitting:     w.submitting,
		CanAdvance:     !w.submitting && !w.completed && w.canAdvance(),
		Subdivisions:   Subdivisions(w.draft.Listing.Location),
		VisitDays:      VisitDays,
		TimeWindows:    TimeWindows,
		PaymentMethods: PaymentMethods,
	}
	if w.submitting {
		v.SubmittingMessage = "Securing your room..."
		if w.form.Path == models.PathVisit {
			v.SubmittingMessage = "Scheduling your tour..."
		}
	}
	return v
}
