// Package notify sends the widget's verification emails.
//
// VerificationHandler serves POST /send-verification-code for the chatbot
// widget: it validates {email, code, username}, renders the message and hands
// it to a Sender. SendGrid is the production Sender.
package notify
