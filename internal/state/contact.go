package state

// ContactState is what a listing or project page shows in its contact widgets.
type ContactState struct {
	PhoneNumber    string `json:"phoneNumber"`
	WhatsappNumber string `json:"whatsappNumber"`
	ShowNumber     bool   `json:"showNumber"`
	MessageSent    bool   `json:"messageSent"`
	Loading        bool   `json:"loading"`
}

// ContactPatch is a partial ContactState; nil fields are left alone.
type ContactPatch struct {
	PhoneNumber    *string `json:"phoneNumber,omitempty"`
	WhatsappNumber *string `json:"whatsappNumber,omitempty"`
	ShowNumber     *bool   `json:"showNumber,omitempty"`
	MessageSent    *bool   `json:"messageSent,omitempty"`
	Loading        *bool   `json:"loading,omitempty"`
}

// Apply shallow-merges p into s.
func (p ContactPatch) Apply(s *ContactState) {
	if p.PhoneNumber != nil {
		s.PhoneNumber = *p.PhoneNumber
	}
	if p.WhatsappNumber != nil {
		s.WhatsappNumber = *p.WhatsappNumber
	}
	if p.ShowNumber != nil {
		s.ShowNumber = *p.ShowNumber
	}
	if p.MessageSent != nil {
		s.MessageSent = *p.MessageSent
	}
	if p.Loading != nil {
		s.Loading = *p.Loading
	}
}

func NewContactSlot() *Slot[ContactState] {
	return NewSlot(ContactState{})
}
