package domain

import (
	"time"

	"github.com/google/uuid"
)

type AuditType string

const (
	AuditCheckInAdd       AuditType = "checkin.add"
	AuditCheckInDelete    AuditType = "checkin.delete"
	AuditCouponCreate     AuditType = "coupon.create"
	AuditCouponRedeem     AuditType = "coupon.redeem"
	AuditCouponInvalidate AuditType = "coupon.invalidate"
	AuditClockAnomaly     AuditType = "clock.anomaly"
	AuditUserCreate       AuditType = "user.create"
	AuditUserDeactivate   AuditType = "user.deactivate"
	AuditUserRestore      AuditType = "user.restore"
	AuditUserRename       AuditType = "user.rename"
)

// AuditEntry is a write-once record of a state-changing action.
type AuditEntry struct {
	ID        int64
	Type      AuditType
	ActorID   *uuid.UUID
	Metadata  map[string]string
	CreatedAt time.Time
}
