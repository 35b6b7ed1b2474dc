package httpapi

// Message is the response envelope of the temperature endpoints.
// Result is set on success, Error on failure.
type Message struct {
	Message string `json:"message"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

const (
	msgCreated     = "Temperature data created"
	msgUpdated     = "Temperature data updated"
	msgDeleted     = "Temperature data deleted"
	msgNotFound    = "Temperature data not found"
	msgCreateError = "Error creating temperature data"
	msgListError   = "Error getting temperatures"
	msgGetError    = "Error getting temperature data"
	msgUpdateError = "Error updating temperature data"
	msgDeleteError = "Error deleting temperature data"
	msgExportError = "Error exporting temperatures"
)

func Ok(message string, result any) Message {
	return Message{Message: message, Result: result}
}

func Fail(message string, err error) Message {
	m := Message{Message: message}
	if err != nil {
		m.Error = err.Error()
	}
	return m
}
