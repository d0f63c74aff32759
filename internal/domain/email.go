package domain

// Address is an email mailbox with an optional display name.
type Address struct {
	Name  string
	Email string
}

// Email is a provider-neutral transactional email envelope.
type Email struct {
	Sender   Address
	To       []Address
	ReplyTo  *Address
	Subject  string
	HTMLBody string
	TextBody string
}
