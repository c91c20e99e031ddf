package dto

type UploadAttachmentResponse struct {
	ID       uint   `json:"id"`
	FileURL  string `json:"file_url"`
	FileType string `json:"file_type"`
}

type LinkAttachmentsRequest struct {
	AttachmentIDs []uint `json:"attachment_ids" binding:"required,min=1,dive,min=1"`
}
