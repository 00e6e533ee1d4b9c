// Package api provides the HTTP REST server for the culvert registry.
//
// It exposes authentication endpoints, culvert CRUD and search, and
// admin views of the user list and audit trail. The server follows the
// same lifecycle pattern as the other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// All methods are safe for concurrent use from multiple goroutines.
package api
