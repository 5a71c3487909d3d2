package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the derived payment state of a purchase.
type PaymentStatus string

const (
	StatusPendente PaymentStatus = "PENDENTE"
	StatusParcial  PaymentStatus = "PARCIAL"
	StatusPago     PaymentStatus = "PAGO"
)

// Valid reports whether s is one of the known payment states.
func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusPendente, StatusParcial, StatusPago:
		return true
	}
	return false
}

// TicketStatus is the lifecycle state of a weigh-in ticket.
type TicketStatus string

const (
	TicketPendente   TicketStatus = "PENDENTE"
	TicketConvertido TicketStatus = "CONVERTIDO"
	TicketCancelado  TicketStatus = "CANCELADO"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketPendente, TicketConvertido, TicketCancelado:
		return true
	}
	return false
}

// DerivePaymentStatus computes the payment state from the purchase total and
// the sum of its payments.
func DerivePaymentStatus(total, paid decimal.Decimal) PaymentStatus {
	if !paid.IsPositive() {
		return StatusPendente
	}
	if total.IsPositive() && paid.GreaterThanOrEqual(total) {
		return StatusPago
	}
	return StatusParcial
}

// CanConvert reports whether a ticket in status s may become a purchase.
func CanConvert(s TicketStatus) error {
	if s != TicketPendente {
		return fmt.Errorf("%w: ticket is %s, only PENDENTE tickets can be converted", ErrInvalidState, s)
	}
	return nil
}

// CanEdit reports whether a ticket in status s may be changed or deleted.
func CanEdit(s TicketStatus) error {
	if s != TicketPendente {
		return fmt.Errorf("%w: ticket is %s, only PENDENTE tickets can be changed", ErrInvalidState, s)
	}
	return nil
}

// CanCancel reports whether a ticket in status s may be cancelled.
func CanCancel(s TicketStatus) error {
	if s != TicketPendente {
		return fmt.Errorf("%w: ticket is %s, only PENDENTE tickets can be cancelled", ErrInvalidState, s)
	}
	return nil
}

// CanRevert reports whether a ticket may go back to PENDENTE after its
// purchase is removed.
func CanRevert(s TicketStatus) error {
	if s != TicketConvertido {
		return fmt.Errorf("%w: ticket is %s, expected CONVERTIDO", ErrInvalidState, s)
	}
	return nil
}
