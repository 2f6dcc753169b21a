package usecase

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"

	emaildomain "mail-assistant-backend/internal/email/domain"
)

// MailInfo is the structural encoding of one attributed mail record
// inside the summary prompt. The byte length of its XML encoding is the
// unit of measure for the window budget, so the budget is encoding-exact
// and reproducible.
type MailInfo struct {
	XMLName           xml.Name `xml:"Mail"`
	Recipient         string   `xml:"Recipient"`
	AttentionDatetime string   `xml:"AttentionDatetime"`
	Content           string   `xml:"Content"`
}

// mailSummaryPrompt is the full structured prompt for one fold.
type mailSummaryPrompt struct {
	XMLName             xml.Name   `xml:"MailSummaryPrompt"`
	User                string     `xml:"User"`
	WorkContent         string     `xml:"WorkContent"`
	HistoryDailySummary string     `xml:"HistoryDailySummary,omitempty"`
	MailContents        []MailInfo `xml:"MailContents>Mail"`
}

func mailInfoFor(rec *emaildomain.AttributedEmail) MailInfo {
	return MailInfo{
		Recipient:         rec.Recipient,
		AttentionDatetime: rec.AttentionDatetime,
		Content:           rec.Gist,
	}
}

// encodedSize is the serialized contribution of one record to the
// pending window.
func encodedSize(info MailInfo) int {
	enc, err := xml.Marshal(info)
	if err != nil {
		// xml.Marshal cannot fail for a struct of plain strings; fall
		// back to the raw field lengths to keep the fold moving.
		return len(info.Recipient) + len(info.AttentionDatetime) + len(info.Content)
	}
	return len(enc)
}

const summaryInstructions = `你是一名邮件助理。根据下面XML中的邮件内容，为用户 %s 生成当日工作摘要。
要求：
1. HistoryDailySummary 中是此前已归纳的摘要，其中的所有事实必须完整保留，并与新邮件内容合并；
2. 收件对象包含该用户的邮件是重点，必须突出其具体内容和待办事项；其他邮件仅作简短提及，不产生待办；
3. 输出JSON对象：{"summary": "当日摘要文本", "tasks": ["待办事项", ...]}，摘要控制在300字以内。
只输出JSON，不要其他文字。`

// buildFoldPrompt renders one fold's prompt: actor identity,
// instructions, the prior summary verbatim (if any) and the pending
// window records.
func buildFoldPrompt(whoami string, prior *emaildomain.DailySummary, window []MailInfo) (string, error) {
	prompt := mailSummaryPrompt{
		User:         whoami,
		WorkContent:  fmt.Sprintf(summaryInstructions, whoami),
		MailContents: window,
	}
	if prior != nil {
		prompt.HistoryDailySummary = renderHistory(prior)
	}

	enc, err := xml.MarshalIndent(prompt, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding summary prompt: %w", err)
	}
	return string(enc), nil
}

// renderHistory flattens the prior fold's result into the history
// element. It stays bounded because every fold output is itself
// budget-bounded by construction.
func renderHistory(prior *emaildomain.DailySummary) string {
	var b strings.Builder
	b.WriteString(prior.Summary)
	if len(prior.Tasks) > 0 {
		b.WriteString("\n待办事项：")
		for _, task := range prior.Tasks {
			b.WriteString("\n- ")
			b.WriteString(task)
		}
	}
	return b.String()
}

// parseSummaryReply extracts the {"summary", "tasks"} object from the
// model reply, tolerating prose around the JSON.
func parseSummaryReply(reply string) (*emaildomain.DailySummary, error) {
	text := strings.TrimSpace(reply)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("summary reply contains no JSON object")
	}

	var parsed struct {
		Summary string   `json:"summary"`
		Tasks   []string `json:"tasks"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("parsing summary JSON: %w", err)
	}
	if parsed.Summary == "" {
		return nil, fmt.Errorf("summary reply has empty summary field")
	}
	return &emaildomain.DailySummary{Summary: parsed.Summary, Tasks: parsed.Tasks}, nil
}
