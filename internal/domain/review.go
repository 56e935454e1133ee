package domain

import "time"

// Credentials are held for the duration of one resolution only.
type Credentials struct {
	Account string
	Key     []byte // PEM or PKCS#12
}

type ReviewQuery struct {
	PackageName         string
	Token               string
	MaxResults          string
	StartIndex          string
	TranslationLanguage string
}

type ReplyPayload struct {
	PackageName string `json:"-"`
	ReviewID    string `json:"-"`
	ReplyText   string `json:"replyText"`
}

// AccessToken is the bearer token derived from Credentials; unlike the key it may be cached.
type AccessToken struct {
	Value  string    `json:"access_token"`
	Type   string    `json:"token_type"`
	Expiry time.Time `json:"expiry"`
}
