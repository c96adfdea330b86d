package telegram

import "encoding/json"

// Update is the subset of a Bot API update the webhook consumes.
type Update struct {
	UpdateID      int64    `json:"update_id"`
	Message       *Message `json:"message,omitempty"`
	EditedMessage *Message `json:"edited_message,omitempty"`
}

// EffectiveMessage returns message, falling back to edited_message.
func (u *Update) EffectiveMessage() *Message {
	if u == nil {
		return nil
	}
	if u.Message != nil {
		return u.Message
	}
	return u.EditedMessage
}

type User struct {
	ID           int64  `json:"id"`
	IsBot        bool   `json:"is_bot"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

type Chat struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type Message struct {
	MessageID int64           `json:"message_id"`
	From      *User           `json:"from,omitempty"`
	Chat      Chat            `json:"chat"`
	Date      int64           `json:"date"`
	Text      string          `json:"text,omitempty"`
	Caption   string          `json:"caption,omitempty"`
	Photo     json.RawMessage `json:"photo,omitempty"`
	Document  json.RawMessage `json:"document,omitempty"`
	Video     json.RawMessage `json:"video,omitempty"`
	Voice     json.RawMessage `json:"voice,omitempty"`
}

// UnmarshalJSON accepts the sender under "from" (Bot API) or "from_user".
func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message
	aux := struct {
		*plain
		FromUser *User `json:"from_user,omitempty"`
	}{plain: (*plain)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if m.From == nil {
		m.From = aux.FromUser
	}
	return nil
}

// HasMedia reports whether any attachment marker is present.
func (m *Message) HasMedia() bool {
	return len(m.Photo) > 0 || len(m.Document) > 0 || len(m.Video) > 0 || len(m.Voice) > 0
}
