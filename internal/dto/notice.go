package dto

// NoticeRequest creates or edits a notice.
type NoticeRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required"`
}
