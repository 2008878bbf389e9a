package email

import (
	"context"
	"fmt"

	"github.com/MikeHotel0815/casa-belegung-app/internal/kafka"
)

type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	fmt.Printf("notify %s about %s for %s..%s (%s)\n", event.UserName, event.Type, event.StartDate, event.EndDate, event.Status)
	return nil
}
