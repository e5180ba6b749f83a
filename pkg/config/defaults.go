package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "resbook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Bookings must start at least this far in the future.
	DefaultBookingLeadTime = 30 * time.Minute

	// Upper bound on the slot suggester's forward scan.
	DefaultSuggestionScanRounds = 20

	DefaultBookingLockTTL = 10 * time.Second

	// How many conflicting intervals a rejection carries.
	DefaultMaxConflictDetails = 3

	DefaultBookingEventsTopic    = "booking-events"
	DefaultBookingEventsDLQTopic = "booking-events-dlq"
	DefaultNotifierGroupID       = "notifier"

	DefaultSMTPPort = "587"
	DefaultSMTPFrom = "bookings@resbook.local"

	DefaultPaginationLimit = 100
)
