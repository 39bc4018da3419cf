package config

import "time"

const (
	// CheckInToken is the payload of the printed QR code at the venue.
	CheckInToken = "bla-poker-checkin"

	// CheckInInterval is the minimum gap between two check-ins by the
	// same member. The member-facing copy says "7 days"; the extra 12
	// hours absorb clock drift on either side.
	CheckInInterval = 156 * time.Hour

	// CouponEvery grants a coupon on every Nth check-in.
	CouponEvery = 5

	// Scan gate windows
	RateLimitWindow     = 1200 * time.Millisecond
	DuplicateScanWindow = 2500 * time.Millisecond

	// Audit log retention (most recent entries kept)
	AuditRetention = 500

	// Session token lifetime
	SessionTTL = 30 * 24 * time.Hour

	// HTTP server
	ReadHeaderTimeout = 5 * time.Second
	ShutdownTimeout   = 10 * time.Second

	// Leaderboard page size
	LeaderboardLimit = 50
)
