package notify

const TypeEmailSend = "email:send"

type EmailSendPayload struct {
	Message Message `json:"message"`
}
