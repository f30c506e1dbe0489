package response

import "techlog/lib/clock"

type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Success       bool        `json:"success" validate:"required"`
	Partial       bool        `json:"partial,omitempty"`
	StatusMessage string      `json:"status_message"`
	Timestamp     string      `json:"timestamp"`
}

func Ok(data interface{}) Response {
	return Response{
		Data:          data,
		Success:       true,
		StatusMessage: "Success",
		Timestamp:     clock.Now(),
	}
}

func Error(message string) Response {
	return Response{
		Success:       false,
		StatusMessage: message,
		Timestamp:     clock.Now(),
	}
}

// Warn reports a partially successful operation: the work mostly landed
// but a step failed and the message tells the administrator which one.
func Warn(data interface{}, message string) Response {
	return Response{
		Data:          data,
		Success:       true,
		Partial:       true,
		StatusMessage: message,
		Timestamp:     clock.Now(),
	}
}
