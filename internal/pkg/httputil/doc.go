// Package httputil provides small helpers shared by all HTTP handlers:
// a JSON response envelope, a standard error shape, and request body
// decoding with uniform 400 handling.
package httputil
