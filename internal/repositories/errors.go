package repositories

import "errors"

// ErrProductNotFound is returned when the requested product does not exist in
// the store. Callers check it with errors.Is to translate absence into their
// own signaling (the HTTP layer maps it to 404).
var ErrProductNotFound = errors.New("product not found")
