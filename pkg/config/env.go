package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvLineChannelSecret      = "LINE_CHANNEL_SECRET"
	EnvLineChannelAccessToken = "LINE_CHANNEL_ACCESS_TOKEN"
	EnvLineAPIBaseURL         = "LINE_API_BASE_URL"
	EnvLiffURL                = "LIFF_URL"
	EnvSiteURL                = "SITE_URL"
	EnvAdminLineUserID        = "ADMIN_LINE_USER_ID"

	EnvAutoConfirm       = "RESERVATION_AUTO_CONFIRM"
	EnvSlotLockTTL       = "SLOT_LOCK_TTL"
	EnvReminderLookahead = "REMINDER_LOOKAHEAD"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
