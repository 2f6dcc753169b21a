package dto

import (
	emaildomain "mail-assistant-backend/internal/email/domain"
)

type EmailsResponse struct {
	Emails []*emaildomain.Email `json:"emails"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

type SearchRequest struct {
	Query  string `json:"query" binding:"required"`
	Folder string `json:"folder"`
	TopK   int    `json:"top_k"`
}

type SearchResponse struct {
	Query   string                      `json:"query"`
	Results []*emaildomain.SearchResult `json:"results"`
}

type SendEmailRequest struct {
	To      []string `json:"to" binding:"required,min=1,dive,email"`
	Subject string   `json:"subject" binding:"required"`
	Body    string   `json:"body" binding:"required"`
	HTML    bool     `json:"html"`
}

type TemplateRequest struct {
	Name    string `json:"name" binding:"required"`
	Subject string `json:"subject"`
	Content string `json:"content"`
}

type RenderTemplateRequest struct {
	Vars map[string]string `json:"vars"`
}

type RenderTemplateResponse struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
}
