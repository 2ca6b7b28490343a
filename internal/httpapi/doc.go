// Package httpapi serves the authcore engine over JSON HTTP on a chi router.
//
// Routes:
//
//	POST /auth/register          201 identity
//	POST /auth/login             200 token pair
//	POST /auth/refresh           200 token pair
//	POST /auth/logout            200 {"message":"Logged out"}
//	POST /auth/change-password   bearer required
//	GET  /api/profile            bearer required
//	GET  /api/users              bearer required, admin only
//	GET  /api/users/{id}         bearer required, admin or self
//	GET  /health
//	GET  /metrics                when a metrics handler is configured
//
// An optional [Throttle] answers spent login or refresh budgets with 429.
// Throttle backend failures do not block requests.
//
// Every error body is {"message": "..."}. Internal failures are logged with
// the request id and answered with "internal server error".
package httpapi
