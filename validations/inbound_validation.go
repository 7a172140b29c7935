package validations

import (
	"context"
	"fmt"
	"regexp"

	"github.com/AzielCF/az-estate/messaging/domain/event"
	pkgError "github.com/AzielCF/az-estate/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var senderPattern = regexp.MustCompile(`^\+?[0-9][0-9 ()\-]{4,24}$`)

// ValidateInboundEvent checks an event before the router hands it to a flow.
func ValidateInboundEvent(ctx context.Context, evt event.Event) error {
	var err error
	switch e := evt.(type) {
	case event.TextEvent:
		err = validation.ValidateStructWithContext(ctx, &e,
			validation.Field(&e.From, validation.Required, validation.Match(senderPattern)),
			validation.Field(&e.Body, validation.Required, validation.Length(1, 4096)),
		)
	case event.InteractiveEvent:
		err = validation.ValidateStructWithContext(ctx, &e,
			validation.Field(&e.From, validation.Required, validation.Match(senderPattern)),
			validation.Field(&e.OptionID, validation.Required, validation.Length(1, 256)),
		)
	case nil:
		return pkgError.ValidationError("event is required")
	default:
		return pkgError.ValidationError(fmt.Sprintf("unsupported event type %T", evt))
	}

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}

func ValidateSimulatorRequest(ctx context.Context, request event.SimulatorRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.From, validation.Required, validation.Match(senderPattern)),
		validation.Field(&request.Text, validation.When(request.ButtonID == "", validation.Required).Else(validation.Empty)),
		validation.Field(&request.ButtonID, validation.Length(1, 256)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}
