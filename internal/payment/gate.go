// Package payment derives what the payment state of an appointment permits.
// The gate never mutates anything; payment status itself is owned by the
// upstream service and its payment processor.
package payment

import "go-appointment-portal/internal/domain/entity"

// Gate answers payment questions about appointments. requirePrepayment
// mirrors the deployment flag: when false, consultations may start without
// the fee being settled first.
type Gate struct {
	requirePrepayment bool
}

func NewGate(requirePrepayment bool) *Gate {
	return &Gate{requirePrepayment: requirePrepayment}
}

// CanProceedToConsultation reports whether a confirmed appointment may move
// on to the consultation itself. Anything not yet confirmed can never
// proceed, whatever its payment status.
func (g *Gate) CanProceedToConsultation(a *entity.Appointment) bool {
	if a.Status != entity.AppointmentStatusConfirmed {
		return false
	}
	if !g.requirePrepayment {
		return true
	}
	return a.PaymentStatus == entity.PaymentStatusPaid
}

// IsPayable reports whether the patient should be offered the payment flow.
func (g *Gate) IsPayable(a *entity.Appointment) bool {
	if a.Status != entity.AppointmentStatusConfirmed {
		return false
	}
	return a.PaymentStatus == entity.PaymentStatusPending || a.PaymentStatus == entity.PaymentStatusUnpaid
}

// NeedsRefundOnCancel reports whether cancelling now strands an already-paid
// fee, in which case the workflow hands the appointment off to billing.
func (g *Gate) NeedsRefundOnCancel(a *entity.Appointment) bool {
	return a.PaymentStatus == entity.PaymentStatusPaid
}
