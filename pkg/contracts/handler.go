package contracts

import "github.com/julienschmidt/httprouter"

// Handler is implemented by every API module that exposes routes. The
// server binary collects them and registers each on the shared router.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}
