package entities

import "time"

type ServiceStatus struct {
	Status  string `json:"status"`
	Details string `json:"details"`
}

type HealthCheckResponse struct {
	Status   string                   `json:"status"`
	Services map[string]ServiceStatus `json:"services"`
	UpSince  time.Time                `json:"up_since"`
	Uptime   string                   `json:"uptime"`
}

// StatusResponse is the lightweight /status payload polled by the host.
type StatusResponse struct {
	Status        string `json:"status"`
	Mode          string `json:"mode"`
	Environment   string `json:"environment"`
	Uptime        string `json:"uptime"`
	PendingCloses int    `json:"pending_ticket_closes"`
	CachedEntries int    `json:"cached_entries,omitempty"`
	CacheBackend  string `json:"cache_backend"`
	EventsBackend string `json:"events_backend"`
	StreamLength  int64  `json:"event_stream_length,omitempty"`
}
