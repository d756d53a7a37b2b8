package gemini

import "errors"

// ErrEmptyResponse is returned when the model replies without any text.
var ErrEmptyResponse = errors.New("model returned no content")
