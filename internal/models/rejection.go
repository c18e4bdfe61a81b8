package models

import "fmt"

type RejectionReason string

const (
	ReasonFullyBooked RejectionReason = "fully_booked"
	ReasonClosed      RejectionReason = "closed"
	ReasonOther       RejectionReason = "other"
)

func ParseRejectionReason(raw string) (RejectionReason, error) {
	switch r := RejectionReason(raw); r {
	case ReasonFullyBooked, ReasonClosed, ReasonOther:
		return r, nil
	case "":
		return ReasonFullyBooked, nil
	default:
		return "", fmt.Errorf("unknown rejection reason %q", raw)
	}
}
