package authcore

import "github.com/MrEthical07/authcore/internal/metrics"

// MetricID identifies one Engine counter or latency histogram.
type MetricID = metrics.ID

// MetricsSnapshot is a point-in-time copy of Engine metrics.
type MetricsSnapshot = metrics.Snapshot

const (
	MetricRegisterSuccess          = metrics.RegisterSuccess
	MetricRegisterConflict         = metrics.RegisterConflict
	MetricRegisterRejected         = metrics.RegisterRejected
	MetricLoginSuccess             = metrics.LoginSuccess
	MetricLoginFailure             = metrics.LoginFailure
	MetricRefreshSuccess           = metrics.RefreshSuccess
	MetricRefreshFailure           = metrics.RefreshFailure
	MetricRefreshExpired           = metrics.RefreshExpired
	MetricLogout                   = metrics.Logout
	MetricAccessRevoked            = metrics.AccessRevoked
	MetricAuthenticateSuccess      = metrics.AuthenticateSuccess
	MetricAuthenticateFailure      = metrics.AuthenticateFailure
	MetricAuthenticateRevoked      = metrics.AuthenticateRevoked
	MetricPasswordChangeSuccess    = metrics.PasswordChangeSuccess
	MetricPasswordChangeInvalidOld = metrics.PasswordChangeInvalidOld
	MetricSessionCreated           = metrics.SessionCreated
	MetricSessionInvalidated       = metrics.SessionInvalidated
	MetricStorageFailure           = metrics.StorageFailure
	MetricAuthenticateLatency      = metrics.AuthenticateLatency
	MetricLoginLatency             = metrics.LoginLatency
)
