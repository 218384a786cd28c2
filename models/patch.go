package models

// ThangPatch carries the optionally-supplied fields of an update request.
// Nil means "leave the stored value untouched"; each present field is
// validated independently before any write.
type ThangPatch struct {
	Name             *string           `json:"name,omitempty"`
	Timezone         *string           `json:"timezone,omitempty"`
	Collection       *string           `json:"collection,omitempty"`
	Range            *Range            `json:"range,omitempty"`
	Weekdays         *Weekdays         `json:"weekdays,omitempty"`
	Slots            *Slots            `json:"slots,omitempty"`
	UserRestrictions *UserRestrictions `json:"userRestrictions,omitempty"`
}

// Apply copies the supplied fields onto t, field by field.
func (p *ThangPatch) Apply(t *Thang) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Timezone != nil {
		t.Timezone = *p.Timezone
	}
	if p.Collection != nil {
		t.Collection = *p.Collection
	}
	if p.Range != nil {
		t.Range = *p.Range
	}
	if p.Weekdays != nil {
		t.Weekdays = *p.Weekdays
	}
	if p.Slots != nil {
		t.Slots = *p.Slots
	}
	if p.UserRestrictions != nil {
		t.UserRestrictions = *p.UserRestrictions
	}
}
