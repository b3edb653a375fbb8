// Package http provides HTTP handlers and middleware for the equipment
// reservation API.
//
// The router exposes the following endpoints. Everything except the first
// three requires an `Authorization: Bearer <token>` header.
//   - POST /sessions: exchanges {"email","password"} for a signed bearer token.
//     Response: {"token","token_type","expires_at","user"}.
//   - POST /users: self-service registration. The first account becomes ADMIN.
//   - GET /metrics: Prometheus exposition, when a metrics handler is configured.
//   - GET /me, GET /users, GET|PUT|DELETE /users/{id}, PUT /users/{id}/role:
//     profiles and user administration exchanging the `userDTO` payload.
//   - GET|POST /buildings, GET|PUT|DELETE /buildings/{id}, GET /buildings/{id}/floors,
//     POST /floors, PUT|DELETE /floors/{id}, GET /floors/{id}/rooms, POST /rooms,
//     PUT|DELETE /rooms/{id}: the location hierarchy. Mutations are ADMIN only.
//   - GET|POST /equipment, GET /equipment/recent, GET|PUT|DELETE /equipment/{id},
//     PUT /equipment/{id}/management, GET /rooms/{id}/equipment: equipment catalog.
//   - GET|POST /categories, PUT|DELETE /categories/{id}: equipment categories.
//   - GET|POST /reservations, GET|PUT|DELETE /reservations/{id},
//     GET /equipment/{id}/reservations?from=&to=: bookings. Overlapping
//     requests are answered with 409 and `conflicting_reservation_ids`.
//   - GET /equipment/{id}/calendar.ics: the bookings of one equipment as an
//     iCalendar feed.
//   - POST /maintenance, PUT|DELETE /maintenance/{id}, GET /equipment/{id}/maintenance:
//     maintenance history.
//   - POST /comments, DELETE /comments/{id}, GET /equipment/{id}/comments.
//   - GET /settings, GET|PUT /settings/{key}: system settings, writable by ADMIN.
//
// Timestamps are RFC 3339 in UTC. Errors share the body
// {"error_code","message","errors"}; validation failures answer 422.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
