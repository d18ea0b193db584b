// Package backend has services for interacting with the vsopd server backend
// decoupled from the API that accesses it.
package backend

import (
	"github.com/dekarrin/vsopc/server/dao"
)

// Service is a service for interacting with and modifying the vsopd server
// backend. It performs the actions requested and makes calls to server
// persistence to preserve the backend state.
//
// The zero-value of Service is not ready to be used; assign a valid DAO store
// to DB before attempting to use it.
type Service struct {

	// DB is the persistence store of the service.
	DB dao.Store
}
