package utils

// ResponseData is the envelope every REST handler answers with.
type ResponseData struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Results any    `json:"results,omitempty"`
}

// PanicIfNeeded lets handlers bail out with a typed error; middleware.Recovery renders it.
func PanicIfNeeded(err any) {
	if err != nil {
		panic(err)
	}
}
