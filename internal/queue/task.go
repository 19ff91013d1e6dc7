package queue

// MailKind tags an outbound email so the worker and the DLQ can tell a
// confirmation request apart from a follow-up notification.
type MailKind string

const (
	MailKindConfirmation MailKind = "confirmation"
	MailKindFollowup     MailKind = "followup"
)

// MailTask is one fully-rendered outbound email. The server renders bodies
// at enqueue time; the worker only talks to the mail provider. HTMLBody is
// empty when HTML email is disabled.
type MailTask struct {
	Kind     MailKind
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}
