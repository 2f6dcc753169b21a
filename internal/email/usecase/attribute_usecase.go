package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/emersion/go-ical"

	emaildomain "mail-assistant-backend/internal/email/domain"
	"mail-assistant-backend/internal/email/repository"
	"mail-assistant-backend/pkg/ai"
)

// Extraction labels, shared with the few-shot exemplars.
const (
	labelRecipient = "收件对象"
	labelDatetime  = "关注的日期时间"
	labelGist      = "主要内容"
)

const calendarMarker = "BEGIN:VCALENDAR"

const extractionInstruction = "抽取邮件收件对象、日期时间、主要内容。主要内容要简短，概括到300字以内。"

// Each rendered record is truncated to this many characters before
// inclusion in the extraction batch, to bound the prompt size.
const extractionDocLimit = 1000

// extractionExamples are the fixed few-shot exemplars demonstrating the
// desired {recipient, datetime, gist} triple.
var extractionExamples = []ai.Example{
	{
		Text: "Dear 马老师，\n本次大数据平台安装JVM工具主要是用于监控各组件JVM信息，包括记录pod重启情况、监控jvm老年代使用过高时自动保存jmpa与jstack等功能。目前在测试环境已通过测试，更多细节说明可见附件文档，感谢。",
		Spans: []ai.Span{
			{Label: labelRecipient, Text: "马老师"},
			{Label: labelDatetime, Text: "-"},
			{Label: labelGist, Text: "安装JVM工具"},
		},
	},
	{
		Text: "各位同事：\n请提供附件中截止2025年9月底，合同即将到期的IT采购计划进度，谢谢。\n另外，如有以下情况的，也请同步更新支付计划清单，并标黄，谢谢。\n1，“待支付”工作表中已完成付款的，请转移到“已支付”工作表中；\n2，新增已确认，未支付的合同/订单，请添加至“待支付”工作表中；\n3，支付计划仅统计计入信管部部门预算的合同/订单；\n4，合同/订单分多笔支付的，请拆分成多行添加。",
		Spans: []ai.Span{
			{Label: labelRecipient, Text: "各位同事"},
			{Label: labelDatetime, Text: "2025年9月底"},
			{Label: labelGist, Text: "提供合同到期进度"},
		},
	},
	{
		Text: "HI 马老师：\n附件为上海外服（集团）有限公司飞致云堡垒机的报价，敬请查收，谢谢！",
		Spans: []ai.Span{
			{Label: labelRecipient, Text: "马老师"},
			{Label: labelDatetime, Text: "-"},
			{Label: labelGist, Text: "飞致云堡垒机报价"},
		},
	},
}

// AttributeUsecase extracts {recipient, attention datetime, gist}
// attributes for mail records that do not have them yet. Extraction is a
// backfill process, not inline with fetch.
type AttributeUsecase interface {
	// ExtractMissing processes up to limit unattributed records and
	// returns how many attributes were stored and how many records
	// failed. Individual failures never abort the batch.
	ExtractMissing(ctx context.Context, limit int) (stored, failed int, err error)
}

// attributeUsecase implements AttributeUsecase
type attributeUsecase struct {
	emailRepo repository.EmailRepository
	attrRepo  repository.AttributeRepository
	completer ai.Completer
}

// NewAttributeUsecase creates a new attribute usecase
func NewAttributeUsecase(
	emailRepo repository.EmailRepository,
	attrRepo repository.AttributeRepository,
	completer ai.Completer,
) AttributeUsecase {
	return &attributeUsecase{
		emailRepo: emailRepo,
		attrRepo:  attrRepo,
		completer: completer,
	}
}

func (u *attributeUsecase) ExtractMissing(ctx context.Context, limit int) (int, int, error) {
	if limit <= 0 {
		limit = 50
	}
	emails, err := u.emailRepo.ListWithoutAttributes(limit)
	if err != nil {
		return 0, 0, fmt.Errorf("listing unattributed mail: %w", err)
	}
	if len(emails) == 0 {
		return 0, 0, nil
	}

	// Calendar invites are parsed deterministically; everything else
	// goes through the model in one batch.
	var calendar, general []*emaildomain.Email
	for _, email := range emails {
		if strings.HasPrefix(email.Content, calendarMarker) {
			calendar = append(calendar, email)
		} else {
			general = append(general, email)
		}
	}

	stored, failed := 0, 0

	for _, email := range calendar {
		attrs, err := CalendarAttributes(email)
		if err != nil {
			log.Warn("failed to parse calendar mail", "uid", email.UID, "err", err)
			failed++
			continue
		}
		for _, attr := range attrs {
			if err := u.attrRepo.Upsert(attr); err != nil {
				log.Warn("failed to store calendar attribute", "uid", email.UID, "err", err)
				failed++
				continue
			}
			stored++
		}
	}

	s, f, err := u.extractGeneral(ctx, general)
	stored += s
	failed += f
	if err != nil {
		return stored, failed, err
	}
	return stored, failed, nil
}

func (u *attributeUsecase) extractGeneral(ctx context.Context, emails []*emaildomain.Email) (int, int, error) {
	if len(emails) == 0 {
		return 0, 0, nil
	}

	byID := make(map[string]*emaildomain.Email, len(emails))
	docs := make([]ai.Document, 0, len(emails))
	for _, email := range emails {
		id := fmt.Sprintf("%d", email.UID)
		byID[id] = email
		docs = append(docs, ai.Document{
			ID:   id,
			Text: truncateRunes(renderForExtraction(email), extractionDocLimit),
		})
	}

	spansByID, err := ai.ExtractSpans(ctx, u.completer, docs, extractionExamples, extractionInstruction)
	if err != nil {
		// The whole batch failed; nothing stored, everything retried on
		// the next backfill pass.
		return 0, len(emails), fmt.Errorf("attribute extraction: %w", err)
	}

	stored, failed := 0, 0
	for id, spans := range spansByID {
		email, ok := byID[id]
		if !ok || len(spans) == 0 {
			continue
		}
		attr := &emaildomain.EmailAttribute{UID: email.UID}
		for _, span := range spans {
			switch span.Label {
			case labelRecipient:
				attr.Recipient = span.Text
			case labelDatetime:
				attr.AttentionDatetime = span.Text
			case labelGist:
				attr.Gist = span.Text
			}
		}
		if err := u.attrRepo.Upsert(attr); err != nil {
			log.Warn("failed to store attribute", "uid", email.UID, "err", err)
			failed++
			continue
		}
		stored++
	}
	return stored, failed, nil
}

// CalendarAttributes parses a VCALENDAR body deterministically: one
// attribute per VEVENT, with the event start at second precision and a
// fixed meeting-invite gist. No model call is involved.
func CalendarAttributes(email *emaildomain.Email) ([]*emaildomain.EmailAttribute, error) {
	dec := ical.NewDecoder(strings.NewReader(email.Content))
	cal, err := dec.Decode()
	if err != nil {
		return nil, fmt.Errorf("decoding calendar: %w", err)
	}

	var attrs []*emaildomain.EmailAttribute
	for _, event := range cal.Events() {
		start, err := event.DateTimeStart(time.Local)
		if err != nil {
			return nil, fmt.Errorf("event start time: %w", err)
		}
		summary, _ := event.Props.Text(ical.PropSummary)
		location, _ := event.Props.Text(ical.PropLocation)

		attrs = append(attrs, &emaildomain.EmailAttribute{
			UID:               email.UID,
			Recipient:         email.Recipient,
			AttentionDatetime: start.Format("2006-01-02 15:04:05"),
			Gist:              fmt.Sprintf("会议邀请\n会议主题：%s\n会议地点：%s", summary, location),
		})
	}
	return attrs, nil
}

func renderForExtraction(email *emaildomain.Email) string {
	return fmt.Sprintf("subject:%s\nsender:%s\ncontent:%s", email.Subject, email.Sender, email.Content)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
