package domain

type School struct {
	ID        int32  `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	State     string `json:"state"`
	Level     string `json:"level"`
	CreatedOn string `json:"created_on"`
}
