package mail

import (
	"fmt"
	"html/template"
	"strings"

	texttemplate "text/template"

	"commentary.app/comments/internal/model"
)

// Message is a fully rendered email ready to be queued for delivery.
type Message struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender renders the emails the comment flow produces. Rendering happens on
// the API side so the delivery worker only ever sees opaque, final bodies.
type Sender struct {
	baseURL  string
	siteName string
	sendHTML bool

	confirmText  *texttemplate.Template
	confirmHTML  *template.Template
	followupText *texttemplate.Template
	followupHTML *template.Template
}

// NewSender creates a Sender. baseURL is the externally reachable root of
// this service (confirm and mute links are built on it), siteName appears in
// subjects. When sendHTML is false rendered messages carry a text part only.
func NewSender(baseURL, siteName string, sendHTML bool) *Sender {
	return &Sender{
		baseURL:      strings.TrimRight(baseURL, "/"),
		siteName:     siteName,
		sendHTML:     sendHTML,
		confirmText:  texttemplate.Must(texttemplate.New("confirm").Parse(confirmTextTmpl)),
		confirmHTML:  template.Must(template.New("confirm").Parse(confirmHTMLTmpl)),
		followupText: texttemplate.Must(texttemplate.New("followup").Parse(followupTextTmpl)),
		followupHTML: template.Must(template.New("followup").Parse(followupHTMLTmpl)),
	}
}

type confirmData struct {
	SiteName   string
	UserName   string
	TargetName string
	ConfirmURL string
}

type followupData struct {
	SiteName   string
	TargetName string
	TargetURL  string
	CommentURL string
	MuteURL    string
}

// ConfirmURL returns the absolute confirmation link for an encoded token.
func (s *Sender) ConfirmURL(key string) string {
	return fmt.Sprintf("%s/comments/confirm/%s", s.baseURL, key)
}

// MuteURL returns the absolute mute link for an encoded token.
func (s *Sender) MuteURL(key string) string {
	return fmt.Sprintf("%s/comments/mute/%s", s.baseURL, key)
}

// Confirmation renders the double opt-in request sent to an anonymous poster.
func (s *Sender) Confirmation(pending *model.PendingComment, target *model.Target, key string) (Message, error) {
	data := confirmData{
		SiteName:   s.siteName,
		UserName:   pending.UserName,
		TargetName: targetName(target),
		ConfirmURL: s.ConfirmURL(key),
	}

	text, err := renderText(s.confirmText, data)
	if err != nil {
		return Message{}, fmt.Errorf("render confirmation text: %w", err)
	}

	msg := Message{
		To:       pending.UserEmail,
		Subject:  fmt.Sprintf("Comment confirmation requested for %s", s.siteName),
		TextBody: text,
	}

	if s.sendHTML {
		html, err := renderHTML(s.confirmHTML, data)
		if err != nil {
			return Message{}, fmt.Errorf("render confirmation html: %w", err)
		}
		msg.HTMLBody = html
	}

	return msg, nil
}

// Followup renders the new-comment notification sent to a thread follower.
// The mute key lets the recipient stop notifications for this thread.
func (s *Sender) Followup(to string, comment *model.Comment, target *model.Target, muteKey string) (Message, error) {
	data := followupData{
		SiteName:   s.siteName,
		TargetName: targetName(target),
		TargetURL:  target.URL,
		CommentURL: fmt.Sprintf("%s#comment-%d", target.URL, comment.ID),
		MuteURL:    s.MuteURL(muteKey),
	}

	text, err := renderText(s.followupText, data)
	if err != nil {
		return Message{}, fmt.Errorf("render followup text: %w", err)
	}

	msg := Message{
		To:       to,
		Subject:  fmt.Sprintf("New comment on %s", data.TargetName),
		TextBody: text,
	}

	if s.sendHTML {
		html, err := renderHTML(s.followupHTML, data)
		if err != nil {
			return Message{}, fmt.Errorf("render followup html: %w", err)
		}
		msg.HTMLBody = html
	}

	return msg, nil
}

func targetName(target *model.Target) string {
	if target.Title != "" {
		return target.Title
	}
	return target.ExternalRef
}

func renderText(tmpl *texttemplate.Template, data any) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func renderHTML(tmpl *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

const confirmTextTmpl = `Hello {{.UserName}},

You posted a comment on "{{.TargetName}}" at {{.SiteName}}.

To confirm and publish your comment, follow this link:

{{.ConfirmURL}}

If you did not post this comment you can safely ignore this message and
nothing will be published.
`

const confirmHTMLTmpl = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 640px; margin: 0 auto; padding: 20px; }
.button { display: inline-block; padding: 10px 18px; background: #2c6fbb; color: #fff; border-radius: 6px; text-decoration: none; }
.footer { margin-top: 24px; padding-top: 12px; border-top: 1px solid #ddd; color: #7f8c8d; font-size: 0.9em; }
</style>
</head>
<body>
<p>Hello {{.UserName}},</p>
<p>You posted a comment on <strong>{{.TargetName}}</strong> at {{.SiteName}}.</p>
<p><a class="button" href="{{.ConfirmURL}}">Confirm your comment</a></p>
<p>Or open this link: <a href="{{.ConfirmURL}}">{{.ConfirmURL}}</a></p>
<div class="footer">
<p>If you did not post this comment you can safely ignore this message and
nothing will be published.</p>
</div>
</body>
</html>
`

const followupTextTmpl = `There is a new comment following up yours.

Someone commented on "{{.TargetName}}" at {{.SiteName}}, in a thread you are
following:

{{.CommentURL}}

To stop receiving notifications for this thread, follow this link:

{{.MuteURL}}
`

const followupHTMLTmpl = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 640px; margin: 0 auto; padding: 20px; }
.footer { margin-top: 24px; padding-top: 12px; border-top: 1px solid #ddd; color: #7f8c8d; font-size: 0.9em; }
a { color: #2c6fbb; }
</style>
</head>
<body>
<p>There is a new comment following up yours.</p>
<p>Someone commented on <a href="{{.TargetURL}}"><strong>{{.TargetName}}</strong></a>
at {{.SiteName}}, in a thread you are following.</p>
<p><a href="{{.CommentURL}}">Read the new comment</a></p>
<div class="footer">
<p><a href="{{.MuteURL}}">Stop receiving notifications for this thread</a></p>
</div>
</body>
</html>
`
