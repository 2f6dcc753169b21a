package usecase

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	emaildomain "mail-assistant-backend/internal/email/domain"
)

func TestEncodedSizeIsEncodingExact(t *testing.T) {
	info := MailInfo{
		Recipient:         "马老师",
		AttentionDatetime: "2025-09-01 10:00:00",
		Content:           "安装JVM工具",
	}

	enc, err := xml.Marshal(info)
	require.NoError(t, err)
	assert.Equal(t, len(enc), encodedSize(info))
}

func TestBuildFoldPromptWithoutHistory(t *testing.T) {
	window := []MailInfo{{Recipient: "马老师", AttentionDatetime: "-", Content: "堡垒机报价"}}

	prompt, err := buildFoldPrompt("马老师", nil, window)
	require.NoError(t, err)

	assert.Contains(t, prompt, "<User>马老师</User>")
	assert.Contains(t, prompt, "<Content>堡垒机报价</Content>")
	assert.NotContains(t, prompt, "HistoryDailySummary")
}

func TestBuildFoldPromptCarriesHistoryVerbatim(t *testing.T) {
	prior := &emaildomain.DailySummary{
		Summary: "上午完成JVM工具安装评审。",
		Tasks:   []string{"回复堡垒机报价"},
	}
	window := []MailInfo{{Recipient: "各位同事", AttentionDatetime: "2025年9月底", Content: "合同到期进度"}}

	prompt, err := buildFoldPrompt("马老师", prior, window)
	require.NoError(t, err)

	assert.Contains(t, prompt, "上午完成JVM工具安装评审。")
	assert.Contains(t, prompt, "回复堡垒机报价")
	assert.Contains(t, prompt, "待办事项：")
}

func TestParseSummaryReply(t *testing.T) {
	reply := "好的，以下是摘要：\n{\"summary\": \"当日处理两封邮件。\", \"tasks\": [\"提交报价\"]}\n希望有帮助。"

	summary, err := parseSummaryReply(reply)
	require.NoError(t, err)
	assert.Equal(t, "当日处理两封邮件。", summary.Summary)
	assert.Equal(t, []string{"提交报价"}, summary.Tasks)
}

func TestParseSummaryReplyRejectsGarbage(t *testing.T) {
	_, err := parseSummaryReply("没有JSON可言")
	assert.Error(t, err)

	_, err = parseSummaryReply(`{"summary": "", "tasks": []}`)
	assert.Error(t, err)
}
