package error

import "net/http"

// NotFoundError is returned when a lookup by phone or id matched nothing.
type NotFoundError string

func (err NotFoundError) Error() string {
	return string(err)
}

func (err NotFoundError) ErrCode() string {
	return "NOT_FOUND_ERROR"
}

func (err NotFoundError) StatusCode() int {
	return http.StatusNotFound
}

// ForbiddenError rejects operations the current channel mode does not allow.
type ForbiddenError string

func (err ForbiddenError) Error() string {
	return string(err)
}

func (err ForbiddenError) ErrCode() string {
	return "FORBIDDEN"
}

func (err ForbiddenError) StatusCode() int {
	return http.StatusForbidden
}
