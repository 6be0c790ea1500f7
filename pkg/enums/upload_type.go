package enums

import "fmt"

// UploadType labels a card upload. Only group_cards unlocks a bolão send.
type UploadType string

const (
	UploadTypeGroupCards     UploadType = "group_cards"
	UploadTypeIndividualCard UploadType = "individual_card"
	UploadTypeOther          UploadType = "other"
)

var validUploadTypes = []UploadType{
	UploadTypeGroupCards,
	UploadTypeIndividualCard,
	UploadTypeOther,
}

func (u UploadType) IsValid() bool {
	for _, candidate := range validUploadTypes {
		if candidate == u {
			return true
		}
	}
	return false
}

func ParseUploadType(value string) (UploadType, error) {
	for _, candidate := range validUploadTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid upload type %q", value)
}
