package domain

// Fixed identity fields on comparison progress messages.
const (
	SenderNameServer   = "Server"
	RequestTypeCompare = "Compare Session"
)

// JobMessage is one progress message pushed to a broadcast channel while a
// comparison job runs. Data is empty-string on intermediate messages and the
// full CompareResult on the terminal "Operation Completed" message.
type JobMessage struct {
	Message     string      `json:"message"`
	Data        interface{} `json:"data"`
	SenderName  string      `json:"senderName"`
	RequestType string      `json:"requestType"`
	Time        string      `json:"time"`
	OperationID string      `json:"operationId"`
}

// Publisher delivers job messages to a named broadcast channel. Publishing is
// fire-and-forget: failures are advisory and never fail the job.
type Publisher interface {
	Publish(channel string, msg JobMessage)
}
