package constants

import "time"

const (
	ServiceName = "alertbridge"
)

const (
	DefaultPort            = 3000
	DefaultPollIntervalMS  = 15000
	DefaultBackfillSeconds = 300
	DefaultHistoryLimit    = 200
	MaxHistoryLimit        = 999
	DefaultStateFile       = "./state.json"
)

const (
	DefaultProjectKey    = "TDS"
	DefaultIssueType     = "Incident"
	DefaultCategoryField = "customfield_13712"
	DefaultCategoryLabel = "Plantão - API / Transportadoras"
	DefaultPriorityLabel = "High"
)

const (
	CursorBackendFile     = "file"
	CursorBackendRedis    = "redis"
	CursorBackendPostgres = "postgres"

	DefaultCursorRedisKey = "alertbridge:cursor"
	CursorTable           = "alert_cursors"
)

const (
	BrokerTypeNone  = "none"
	BrokerTypeKafka = "kafka"

	EventTypeTicketCreated = "ticket.created"
)

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	DefaultHTTPTimeout = 10 * time.Second
	ShutdownTimeout    = 5 * time.Second
	CursorSaveTimeout  = 5 * time.Second
)

const (
	MaxSummaryLength  = 120
	MaxDocumentImages = 5
)
